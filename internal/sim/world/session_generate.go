package world

import (
	"time"

	"worldweaver.ai/internal/sim/world/terrain/biome"
	"worldweaver.ai/internal/sim/world/terrain/erosion"
	"worldweaver.ai/internal/sim/world/terrain/gen"
	"worldweaver.ai/internal/sim/world/terrain/hydrology"
	"worldweaver.ai/internal/sim/world/terrain/rivers"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

type GenerateRequest struct {
	Width  int
	Height int
	Seed   uint32
	Theme  string

	UseErosion        bool
	ErosionIterations int

	// Noise overrides the tuned noise parameters when set.
	Noise *gen.NoiseParams
}

type GenerateResult struct {
	Config store.Config
	Chunks []*store.Chunk
	Rivers []rivers.Segment
	Digest uint64
}

// Generate builds a whole new world from req and publishes it in one step.
// On error the previous world is left untouched. A successful generation
// discards the undo history and water sources.
func (s *Session) Generate(req GenerateRequest, progress Progress) (GenerateResult, error) {
	start := time.Now()
	progress.report(StageShaping, 0)

	cfg, err := s.requestConfig(req)
	if err != nil {
		return GenerateResult{}, s.reject("generate", err)
	}
	np := s.tunedNoise()
	if req.Noise != nil {
		np = *req.Noise
	}
	chs, err := gen.Generate(cfg, np, s.tun.Workers)
	if err != nil {
		return GenerateResult{}, s.reject("generate", err)
	}

	progress.report(StageMountains, 0.2)
	gen.PostProcess(chs, cfg.SeaLevel)

	w, h := cfg.WorldWidth, cfg.WorldHeight
	heights := store.Flatten(cfg, chs)
	var eroded []float32
	if req.UseErosion {
		progress.report(StageValleys, 0.35)
		progress.report(StageLakes, 0.45)
		if err := hydrology.FillDepressions(heights, w, h); err != nil {
			return GenerateResult{}, s.reject("generate", err)
		}
		progress.report(StageErosion, 0.55)
		p := s.erosionParams(req.ErosionIterations*s.tun.Erosion.DropletsPerIteration, uint64(cfg.Seed))
		if err := erosion.ErodeParallel(heights, w, h, p); err != nil {
			return GenerateResult{}, s.reject("generate", err)
		}
		eroded = heights
	}

	progress.report(StageRivers, 0.75)
	acc, net, biomes, err := s.derive(cfg, heights, s.tun.Rivers.GenerateThreshold)
	if err != nil {
		return GenerateResult{}, s.reject("generate", err)
	}

	progress.report(StageFinalize, 0.95)
	out := store.Scatter(cfg, chs, eroded, acc, biomes)

	s.mu.Lock()
	s.chunks.ReplaceAll(cfg, out)
	s.undo.Clear()
	s.stateMu.Lock()
	s.rivers = net
	s.sources = nil
	s.noise = np
	s.modified = req.UseErosion
	s.stateMu.Unlock()
	s.mu.Unlock()

	s.log.Printf("generated %dx%d seed=%d theme=%s chunks=%d rivers=%d erosion=%v in %s",
		w, h, cfg.Seed, cfg.Theme, len(out), net.Len(), req.UseErosion, time.Since(start).Round(time.Millisecond))
	progress.report(StageFinalize, 1)
	return GenerateResult{
		Config: cfg,
		Chunks: out,
		Rivers: net.Clone().Segments,
		Digest: store.DigestChunks(out),
	}, nil
}

func (s *Session) requestConfig(req GenerateRequest) (store.Config, error) {
	cfg, err := configFromTuning(s.tun.Terrain)
	if err != nil {
		return store.Config{}, err
	}
	theme, err := store.ParseTheme(req.Theme)
	if err != nil {
		return store.Config{}, err
	}
	cfg.WorldWidth = req.Width
	cfg.WorldHeight = req.Height
	cfg.Seed = req.Seed
	cfg.Theme = theme
	return cfg, cfg.Validate()
}

func (s *Session) tunedNoise() gen.NoiseParams { return noiseFromTuning(s.tun.Noise) }

func (s *Session) erosionParams(droplets int, seed uint64) erosion.Params {
	p := erosion.FromTuning(s.tun.Erosion)
	p.Droplets = max(droplets, 0)
	p.Seed = seed
	p.Workers = s.tun.Workers
	return p
}

// derive clamps a world buffer into [0,1] and computes flow accumulation,
// rivers and biome ids for it.
func (s *Session) derive(cfg store.Config, heights []float32, threshold float32) ([]float32, *rivers.Network, []uint8, error) {
	w, h := cfg.WorldWidth, cfg.WorldHeight
	store.ClampHeights(heights)
	dirs, acc, err := hydrology.Flow(heights, w, h)
	if err != nil {
		return nil, nil, nil, err
	}
	net, err := rivers.Extract(acc, dirs, w, h, threshold)
	if err != nil {
		return nil, nil, nil, err
	}
	biomes, err := biome.MapWorld(heights, w, h, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return acc, net, biomes, nil
}
