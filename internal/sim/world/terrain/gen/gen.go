package gen

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"worldweaver.ai/internal/sim/world/logic/mathx"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

const defaultLandCoverage = 0.45

// NoiseParams are the per-layer frequencies and octave counts of the
// generator, plus the continent-mask land threshold.
type NoiseParams struct {
	ContinentFrequency float64 `json:"continent_frequency"`
	ContinentOctaves   int     `json:"continent_octaves"`
	MountainFrequency  float64 `json:"mountain_frequency"`
	MountainOctaves    int     `json:"mountain_octaves"`
	HillFrequency      float64 `json:"hill_frequency"`
	HillOctaves        int     `json:"hill_octaves"`
	DetailFrequency    float64 `json:"detail_frequency"`
	DetailOctaves      int     `json:"detail_octaves"`

	// LandCoverage outside (0,1) selects the default threshold.
	LandCoverage float64 `json:"land_coverage"`
}

func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		ContinentFrequency: 0.00005,
		ContinentOctaves:   3,
		MountainFrequency:  0.0002,
		MountainOctaves:    4,
		HillFrequency:      0.0005,
		HillOctaves:        3,
		DetailFrequency:    0.001,
		DetailOctaves:      2,
		LandCoverage:       defaultLandCoverage,
	}
}

// FlatNoiseParams selects flat mode: every chunk is uniform sea level.
func FlatNoiseParams() NoiseParams {
	return NoiseParams{LandCoverage: defaultLandCoverage}
}

func (p NoiseParams) IsFlat() bool {
	return p.ContinentFrequency == 0 && p.MountainFrequency == 0 && p.HillFrequency == 0 && p.DetailFrequency == 0
}

func (p NoiseParams) landThreshold() float64 {
	if p.LandCoverage > 0 && p.LandCoverage < 1 {
		return p.LandCoverage
	}
	return defaultLandCoverage
}

// Generator samples the five noise layers at world positions (meters).
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	cfg       store.Config
	flat      bool
	threshold float64

	mask      fractal
	base      fractal
	mountains ridged
	hills     fractal
	detail    fractal
}

func NewGenerator(cfg store.Config, p NoiseParams) *Generator {
	seed := int64(cfg.Seed)
	g := &Generator{
		cfg:       cfg,
		flat:      p.IsFlat(),
		threshold: p.landThreshold(),
	}
	if g.flat {
		return g
	}
	continent := math.Max(p.ContinentFrequency, 0.00001)
	g.mask = newFractal(seed, 2, continent*0.8, 0.5, 2.5)
	g.base = newFractal(seed+1, p.ContinentOctaves, continent*2, 0.5, 2.0)
	g.mountains = newRidged(seed+2, p.MountainOctaves, math.Max(p.MountainFrequency, 0.0001), 2.2)
	g.hills = newFractal(seed+3, p.HillOctaves, math.Max(p.HillFrequency, 0.0001), 0.4, 2.3)
	g.detail = newFractal(seed+4, p.DetailOctaves, math.Max(p.DetailFrequency, 0.0001), 0.25, 2.5)
	return g
}

func norm01(v float64) float64 { return (v + 1) * 0.5 }

// HeightAt returns the raw (pre post-process) height at a world position.
func (g *Generator) HeightAt(wx, wz float64) float32 {
	sea := float64(g.cfg.SeaLevel)
	if g.flat {
		return g.cfg.SeaLevel
	}
	m := norm01(g.mask.At(wx, wz))
	t := g.threshold
	if m <= t {
		depth := (t - m) / t
		return mathx.Clamp01(float32(sea * (1 - depth*0.5)))
	}
	terrain := norm01(g.base.At(wx, wz))*0.5 +
		norm01(g.mountains.At(wx, wz))*0.25 +
		norm01(g.hills.At(wx, wz))*0.15 +
		norm01(g.detail.At(wx, wz))*0.1
	fade := math.Pow((m-t)/(1-t), 0.5)
	return mathx.Clamp01(float32(sea + terrain*fade*(1-sea)))
}

func (g *Generator) GenerateChunk(cx, cz int) *store.Chunk {
	vc := g.cfg.VertexCount
	ch := store.NewChunk(cx, cz, vc, g.cfg.SeaLevel)
	if g.flat {
		return ch
	}
	cell := float64(g.cfg.CellSizeMeters)
	for lz := 0; lz < vc; lz++ {
		wz := float64(cz*g.cfg.ChunkSize+lz) * cell
		for lx := 0; lx < vc; lx++ {
			wx := float64(cx*g.cfg.ChunkSize+lx) * cell
			ch.Heights[lz*vc+lx] = g.HeightAt(wx, wz)
		}
	}
	return ch
}

// Generate produces one chunk per coordinate of the configured world, in
// (cz, cx) order, using up to workers goroutines (0 = GOMAXPROCS). The
// chunks are raw noise; callers apply PostProcess.
func Generate(cfg store.Config, p NoiseParams, workers int) ([]*store.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g := NewGenerator(cfg, p)
	nx, nz := cfg.ChunkCountX(), cfg.ChunkCountZ()
	out := make([]*store.Chunk, nx*nz)

	var eg errgroup.Group
	eg.SetLimit(workers)
	for cz := 0; cz < nz; cz++ {
		for cx := 0; cx < nx; cx++ {
			i := cz*nx + cx
			eg.Go(func() error {
				out[i] = g.GenerateChunk(cx, cz)
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
