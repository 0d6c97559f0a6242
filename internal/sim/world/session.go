// Package world holds the terrain session: the context object that owns one
// world's config, chunks, rivers, undo history and water sources, and runs
// every generation, simulation, edit and persistence operation against it.
package world

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/google/uuid"

	"worldweaver.ai/internal/persistence/terraindb"
	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/tuning"
	"worldweaver.ai/internal/sim/world/terrain/biome"
	"worldweaver.ai/internal/sim/world/terrain/gen"
	"worldweaver.ai/internal/sim/world/terrain/rivers"
	"worldweaver.ai/internal/sim/world/terrain/store"
	"worldweaver.ai/internal/sim/world/terrain/undo"
)

// TerrainStore is the durable store behind Save and Load.
type TerrainStore interface {
	SaveTerrain(ctx context.Context, t terraindb.Terrain) error
	LoadTerrain(ctx context.Context) (terraindb.Terrain, error)
}

type Options struct {
	Tuning tuning.Tuning

	// Logger defaults to a discarding logger.
	Logger *log.Logger

	// Store is required by Save and Load only.
	Store TerrainStore

	Auditor EditAuditor
}

type Session struct {
	id       string
	log      *log.Logger
	tun      tuning.Tuning
	db       TerrainStore
	audit    EditAuditor
	registry *biome.Registry

	// mu serializes writers. Readers go through the chunk store's own lock
	// or stateMu and never wait on a running generation or simulation.
	mu     sync.Mutex
	chunks *store.ChunkStore
	undo   *undo.Stack

	// Counters below are guarded by mu and feed deterministic seeds.
	strokes    uint64
	placements uint64
	passes     uint64

	stateMu  sync.RWMutex
	rivers   *rivers.Network
	sources  []WaterSource
	noise    gen.NoiseParams
	modified bool // chunks differ from what noise generation alone produces
}

func NewSession(opts Options) (*Session, error) {
	tun := opts.Tuning
	tun.Normalize()
	if err := tun.Validate(); err != nil {
		return nil, protocol.Wrap(protocol.ErrInvalidArgument, err, "tuning")
	}
	cfg, err := configFromTuning(tun.Terrain)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		id:       uuid.NewString(),
		log:      logger,
		tun:      tun,
		db:       opts.Store,
		audit:    opts.Auditor,
		registry: biome.NewRegistry(),
		chunks:   store.NewChunkStore(cfg),
		undo:     undo.New(tun.Undo.MaxEntries),
		rivers:   &rivers.Network{},
		noise:    noiseFromTuning(tun.Noise),
	}, nil
}

func configFromTuning(t tuning.Terrain) (store.Config, error) {
	theme, err := store.ParseTheme(t.Theme)
	if err != nil {
		return store.Config{}, err
	}
	cfg := store.Config{
		ChunkSize:      t.ChunkSize,
		VertexCount:    t.ChunkSize + 1,
		WorldWidth:     t.WorldWidth,
		WorldHeight:    t.WorldHeight,
		CellSizeMeters: t.CellSizeMeters,
		MaxElevation:   t.MaxElevation,
		SeaLevel:       t.SeaLevel,
		Seed:           t.Seed,
		Theme:          theme,
	}
	return cfg, cfg.Validate()
}

func noiseFromTuning(n tuning.Noise) gen.NoiseParams {
	return gen.NoiseParams{
		ContinentFrequency: n.ContinentFrequency,
		ContinentOctaves:   n.ContinentOctaves,
		MountainFrequency:  n.MountainFrequency,
		MountainOctaves:    n.MountainOctaves,
		HillFrequency:      n.HillFrequency,
		HillOctaves:        n.HillOctaves,
		DetailFrequency:    n.DetailFrequency,
		DetailOctaves:      n.DetailOctaves,
		LandCoverage:       n.LandCoverage,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Config() store.Config { return s.chunks.Config() }

func (s *Session) Registry() *biome.Registry { return s.registry }

// ChunkCount is the number of published chunks.
func (s *Session) ChunkCount() int { return s.chunks.Len() }

// SampleHeight returns the bilinear height at a world position in meters.
func (s *Session) SampleHeight(wx, wz float32) (float32, bool) {
	return s.chunks.SampleHeight(wx, wz)
}

// Digest hashes every published chunk in key order.
func (s *Session) Digest() uint64 { return s.chunks.Digest() }

func (s *Session) DirtyChunks() []store.ChunkKey { return s.chunks.DirtyKeys() }

// Rivers returns a copy of the current network in extraction order.
func (s *Session) Rivers() []rivers.Segment {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.rivers.Clone().Segments
}

func (s *Session) River(id uint32) (rivers.Segment, error) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.rivers.Get(id)
}

// NoiseParams reports the parameters of the last generation.
func (s *Session) NoiseParams() gen.NoiseParams {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.noise
}

func (s *Session) requireTerrain() error {
	if s.chunks.Len() == 0 {
		return protocol.Errorf(protocol.ErrPrecondition, "no terrain generated or loaded")
	}
	return nil
}

func (s *Session) reject(op string, err error) error {
	s.log.Printf("%s rejected: %v", op, err)
	return err
}
