package world

import (
	"math"
	"time"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/erosion"
	"worldweaver.ai/internal/sim/world/terrain/hydrology"
	"worldweaver.ai/internal/sim/world/terrain/rivers"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

// PassResult summarizes a world-wide simulation pass.
type PassResult struct {
	Chunks   int
	Rivers   int
	Droplets int
}

// worldBuffer is a flattened copy of the published world. Callers hold mu.
type worldBuffer struct {
	cfg     store.Config
	chunks  []*store.Chunk
	heights []float32
}

func (s *Session) flattenLocked() worldBuffer {
	cfg := s.chunks.Config()
	chs := s.chunks.Chunks()
	return worldBuffer{cfg: cfg, chunks: chs, heights: store.Flatten(cfg, chs)}
}

// commitPassLocked publishes the pass result for every chunk. Undo deltas
// recorded against the old heights no longer apply and are dropped.
func (s *Session) commitPassLocked(b worldBuffer, acc []float32, biomes []uint8, net *rivers.Network) int {
	out := store.Scatter(b.cfg, b.chunks, b.heights, acc, biomes)
	s.chunks.PutAll(out)
	s.undo.Clear()
	s.stateMu.Lock()
	s.rivers = net
	s.modified = true
	s.stateMu.Unlock()
	return len(out)
}

func (s *Session) nextPassSeed(cfg store.Config) uint64 {
	s.passes++
	return uint64(cfg.Seed)<<32 | s.passes
}

// SimulateHydrology runs steps·sources·10 droplets, optionally spawned at
// the water sources, then re-derives flow, rivers and biomes.
func (s *Session) SimulateHydrology(steps int, enableLakes, enableCapture bool, progress Progress) (PassResult, error) {
	if steps < 0 {
		return PassResult{}, s.reject("hydrology", protocol.Errorf(protocol.ErrInvalidArgument, "steps must be >= 0 (got %d)", steps))
	}
	progress.report(StagePrepare, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	sources := s.WaterSources()
	if len(sources) == 0 {
		return PassResult{}, s.reject("hydrology", protocol.Errorf(protocol.ErrPrecondition, "no water sources placed"))
	}
	if err := s.requireTerrain(); err != nil {
		return PassResult{}, s.reject("hydrology", err)
	}
	start := time.Now()
	b := s.flattenLocked()
	w, h := b.cfg.WorldWidth, b.cfg.WorldHeight

	progress.report(StageErosion, 0.2)
	p := s.erosionParams(steps*len(sources)*10, s.nextPassSeed(b.cfg))
	if enableCapture {
		p.Spawns = spawnsFrom(sources)
	}
	if err := erosion.ErodeParallel(b.heights, w, h, p); err != nil {
		return PassResult{}, s.reject("hydrology", err)
	}
	if enableLakes {
		progress.report(StageLakes, 0.5)
		if err := hydrology.FillDepressions(b.heights, w, h); err != nil {
			return PassResult{}, s.reject("hydrology", err)
		}
	}

	progress.report(StageFlow, 0.7)
	acc, net, biomes, err := s.derive(b.cfg, b.heights, s.tun.Rivers.HydrologyThreshold)
	if err != nil {
		return PassResult{}, s.reject("hydrology", err)
	}
	progress.report(StageRivers, 0.85)
	n := s.commitPassLocked(b, acc, biomes, net)

	s.log.Printf("hydrology: %d droplets from %d sources lakes=%v capture=%v rivers=%d in %s",
		p.Droplets, len(sources), enableLakes, enableCapture, net.Len(), time.Since(start).Round(time.Millisecond))
	progress.report(StageFinalize, 1)
	return PassResult{Chunks: n, Rivers: net.Len(), Droplets: p.Droplets}, nil
}

// ApplyWeathering fills depressions, erodes with iterations·droplets_per_iteration
// droplets and re-extracts rivers.
func (s *Session) ApplyWeathering(iterations int, progress Progress) (PassResult, error) {
	if iterations < 0 {
		return PassResult{}, s.reject("weathering", protocol.Errorf(protocol.ErrInvalidArgument, "iterations must be >= 0 (got %d)", iterations))
	}
	progress.report(StagePrepare, 0)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTerrain(); err != nil {
		return PassResult{}, s.reject("weathering", err)
	}
	start := time.Now()
	b := s.flattenLocked()
	w, h := b.cfg.WorldWidth, b.cfg.WorldHeight

	progress.report(StageLakes, 0.2)
	if err := hydrology.FillDepressions(b.heights, w, h); err != nil {
		return PassResult{}, s.reject("weathering", err)
	}
	progress.report(StageErosion, 0.4)
	p := s.erosionParams(iterations*s.tun.Erosion.DropletsPerIteration, s.nextPassSeed(b.cfg))
	if err := erosion.ErodeParallel(b.heights, w, h, p); err != nil {
		return PassResult{}, s.reject("weathering", err)
	}

	progress.report(StageFlow, 0.7)
	acc, net, biomes, err := s.derive(b.cfg, b.heights, s.tun.Rivers.GenerateThreshold)
	if err != nil {
		return PassResult{}, s.reject("weathering", err)
	}
	progress.report(StageRivers, 0.85)
	n := s.commitPassLocked(b, acc, biomes, net)

	s.log.Printf("weathering: %d droplets rivers=%d in %s", p.Droplets, net.Len(), time.Since(start).Round(time.Millisecond))
	progress.report(StageFinalize, 1)
	return PassResult{Chunks: n, Rivers: net.Len(), Droplets: p.Droplets}, nil
}

// RelaxSlopes runs thermal erosion: slopes steeper than talusDegrees shed
// material to lower neighbors. Rivers and biomes are re-derived.
func (s *Session) RelaxSlopes(talusDegrees float32, iterations int) (PassResult, error) {
	if iterations < 0 || !(talusDegrees > 0 && talusDegrees < 90) {
		return PassResult{}, s.reject("thermal", protocol.Errorf(protocol.ErrInvalidArgument, "talus angle must be in (0,90) and iterations >= 0"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTerrain(); err != nil {
		return PassResult{}, s.reject("thermal", err)
	}
	b := s.flattenLocked()
	w, h := b.cfg.WorldWidth, b.cfg.WorldHeight
	if err := erosion.Thermal(b.heights, w, h, talusDegrees*math.Pi/180, iterations); err != nil {
		return PassResult{}, s.reject("thermal", err)
	}
	acc, net, biomes, err := s.derive(b.cfg, b.heights, s.tun.Rivers.GenerateThreshold)
	if err != nil {
		return PassResult{}, s.reject("thermal", err)
	}
	n := s.commitPassLocked(b, acc, biomes, net)
	s.log.Printf("thermal: %d passes at %.1f deg", iterations, talusDegrees)
	return PassResult{Chunks: n, Rivers: net.Len()}, nil
}

// FlowData returns flow accumulation of the current heights scaled to
// 0..255 by the maximum, one byte per world cell.
func (s *Session) FlowData() ([]byte, error) {
	if err := s.requireTerrain(); err != nil {
		return nil, err
	}
	cfg := s.chunks.Config()
	heights := store.Flatten(cfg, s.chunks.Chunks())
	_, acc, err := hydrology.Flow(heights, cfg.WorldWidth, cfg.WorldHeight)
	if err != nil {
		return nil, err
	}
	return hydrology.NormalizeBytes(acc), nil
}
