package world

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/erosion"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

// WaterSource seeds interactive hydrology runs. X, Y are world cells.
type WaterSource struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	FlowRate float32 `json:"flow_rate"`
	Active   bool    `json:"active"`
}

type Strategy uint8

const (
	StrategyRandom Strategy = iota
	StrategyPeaks
	StrategyRidges
	StrategyUniform
)

var strategyNames = []string{"random", "peaks", "ridges", "uniform"}

func (st Strategy) String() string {
	if int(st) < len(strategyNames) {
		return strategyNames[st]
	}
	return "unknown"
}

func ParseStrategy(name string) (Strategy, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range strategyNames {
		if s == n {
			return Strategy(i), nil
		}
	}
	return 0, protocol.UnknownName("placement strategy", name, strategyNames)
}

const (
	peakMargin  = 0.1
	ridgeMargin = 0.05
)

// placeSources picks up to count cells of a w×h height buffer.
func placeSources(st Strategy, count int, heights []float32, w, h int, sea float32, rng *rand.Rand) []WaterSource {
	var out []WaterSource
	switch st {
	case StrategyRandom:
		for i := 0; i < count; i++ {
			out = append(out, WaterSource{X: rng.IntN(w), Y: rng.IntN(h), FlowRate: 1, Active: true})
		}
	case StrategyPeaks:
		type peak struct {
			x, y int
			h    float32
		}
		var peaks []peak
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				i := y*w + x
				v := heights[i]
				if v > heights[i-1] && v > heights[i+1] && v > heights[i-w] && v > heights[i+w] && v > sea+peakMargin {
					peaks = append(peaks, peak{x, y, v})
				}
			}
		}
		sort.SliceStable(peaks, func(a, b int) bool { return peaks[a].h > peaks[b].h })
		for _, p := range peaks[:min(count, len(peaks))] {
			out = append(out, WaterSource{X: p.x, Y: p.y, FlowRate: 2, Active: true})
		}
	case StrategyRidges:
		if w < 3 || h < 3 {
			return nil
		}
		for i := 0; i < count; i++ {
			x, y := 1+rng.IntN(w-2), 1+rng.IntN(h-2)
			if heights[y*w+x] > sea+ridgeMargin {
				out = append(out, WaterSource{X: x, Y: y, FlowRate: 1.5, Active: true})
			}
		}
	case StrategyUniform:
		g := int(math.Sqrt(float64(count)))
		stepX, stepY := w/(g+1), h/(g+1)
		for gy := 1; gy <= g; gy++ {
			for gx := 1; gx <= g; gx++ {
				x, y := gx*stepX, gy*stepY
				if heights[y*w+x] > sea {
					out = append(out, WaterSource{X: x, Y: y, FlowRate: 1, Active: true})
				}
			}
		}
	}
	return out
}

func spawnsFrom(sources []WaterSource) []erosion.Spawn {
	var out []erosion.Spawn
	for _, src := range sources {
		if src.Active && src.FlowRate > 0 {
			out = append(out, erosion.Spawn{X: float32(src.X), Z: float32(src.Y), Weight: src.FlowRate})
		}
	}
	return out
}

// PlaceWaterSources replaces the session's water sources and returns how
// many were placed. Random strategies draw from a generator seeded by the
// world seed and the placement count, so a session replays identically.
func (s *Session) PlaceWaterSources(count int, strategy string) (int, error) {
	st, err := ParseStrategy(strategy)
	if err != nil {
		return 0, s.reject("place water sources", err)
	}
	if count < 0 {
		return 0, s.reject("place water sources", protocol.Errorf(protocol.ErrInvalidArgument, "count must be >= 0 (got %d)", count))
	}
	if err := s.requireTerrain(); err != nil {
		return 0, s.reject("place water sources", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.chunks.Config()
	heights := store.Flatten(cfg, s.chunks.Chunks())
	s.placements++
	rng := rand.New(rand.NewPCG(uint64(cfg.Seed), s.placements))
	sources := placeSources(st, count, heights, cfg.WorldWidth, cfg.WorldHeight, cfg.SeaLevel, rng)

	s.stateMu.Lock()
	s.sources = sources
	s.stateMu.Unlock()
	s.log.Printf("placed %d/%d water sources (%s)", len(sources), count, st)
	return len(sources), nil
}

func (s *Session) WaterSources() []WaterSource {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return append([]WaterSource(nil), s.sources...)
}
