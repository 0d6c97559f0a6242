package world

import (
	"context"

	"worldweaver.ai/internal/persistence/snapshot"
	"worldweaver.ai/internal/persistence/terraindb"
	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/gen"
	"worldweaver.ai/internal/sim/world/terrain/rivers"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

// Save writes config, chunks and rivers to the session's TerrainStore and
// clears the dirty set.
func (s *Session) Save(ctx context.Context) error {
	if s.db == nil {
		return s.reject("save", protocol.Errorf(protocol.ErrPrecondition, "no terrain store configured"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := terraindb.Terrain{
		SessionID: s.id,
		Config:    s.chunks.Config(),
		Chunks:    s.chunks.Chunks(),
		Rivers:    s.Rivers(),
	}
	if err := s.db.SaveTerrain(ctx, t); err != nil {
		return s.reject("save", err)
	}
	s.chunks.ClearDirty()
	s.log.Printf("saved %d chunks and %d rivers", len(t.Chunks), len(t.Rivers))
	return nil
}

// Load replaces the whole session state with the stored world. On error
// the current state is kept.
func (s *Session) Load(ctx context.Context) error {
	if s.db == nil {
		return s.reject("load", protocol.Errorf(protocol.ErrPrecondition, "no terrain store configured"))
	}
	t, err := s.db.LoadTerrain(ctx)
	if err != nil {
		return s.reject("load", err)
	}
	net := &rivers.Network{}
	for _, seg := range t.Rivers {
		net.Add(seg)
	}
	s.replace(t.Config, t.Chunks, net, s.tunedNoise(), true)
	s.log.Printf("loaded %d chunks and %d rivers", len(t.Chunks), net.Len())
	return nil
}

func (s *Session) replace(cfg store.Config, chs []*store.Chunk, net *rivers.Network, np gen.NoiseParams, modified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks.ReplaceAll(cfg, chs)
	s.undo.Clear()
	s.stateMu.Lock()
	s.rivers = net
	s.sources = nil
	s.noise = np
	s.modified = modified
	s.stateMu.Unlock()
}

// ExportSnapshot writes the current world to a snapshot file.
func (s *Session) ExportSnapshot(path string) error {
	s.mu.Lock()
	cfg := s.chunks.Config()
	chs := s.chunks.Chunks()
	s.stateMu.RLock()
	np, modified := s.noise, s.modified
	segs := rivers.ExportSegments(s.rivers.Segments)
	s.stateMu.RUnlock()
	s.mu.Unlock()

	nv := noiseToSnapshot(np)
	snap := snapshot.SnapshotV1{
		Header: snapshot.NewHeader(s.id, modified),
		Config: store.ExportConfig(cfg),
		Noise:  &nv,
		Chunks: store.ExportChunks(chs),
		Rivers: segs,
	}
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		return s.reject("export snapshot", protocol.Wrap(protocol.ErrInternal, err, "write %s", path))
	}
	s.log.Printf("snapshot %s written to %s (%d chunks)", snap.Header.ID, path, len(chs))
	return nil
}

// ImportSnapshot replaces the session state with a snapshot file.
func (s *Session) ImportSnapshot(path string) error {
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		return s.reject("import snapshot", protocol.Wrap(protocol.ErrCorruption, err, "read %s", path))
	}
	cfg, err := store.ImportConfig(snap.Config)
	if err != nil {
		return s.reject("import snapshot", protocol.Wrap(protocol.ErrCorruption, err, "snapshot config"))
	}
	chs, err := store.ImportChunks(cfg, snap.Chunks)
	if err != nil {
		return s.reject("import snapshot", protocol.Wrap(protocol.ErrCorruption, err, "snapshot chunks"))
	}
	np := s.tunedNoise()
	if snap.Noise != nil {
		np = NoiseFromSnapshot(*snap.Noise)
	}
	s.replace(cfg, chs, rivers.ImportSegments(snap.Rivers), np, snap.Header.Eroded)
	s.log.Printf("snapshot %s imported from %s (%d chunks)", snap.Header.ID, path, len(chs))
	return nil
}

func noiseToSnapshot(p gen.NoiseParams) snapshot.NoiseV1 {
	return snapshot.NoiseV1{
		ContinentFrequency: p.ContinentFrequency,
		ContinentOctaves:   p.ContinentOctaves,
		MountainFrequency:  p.MountainFrequency,
		MountainOctaves:    p.MountainOctaves,
		HillFrequency:      p.HillFrequency,
		HillOctaves:        p.HillOctaves,
		DetailFrequency:    p.DetailFrequency,
		DetailOctaves:      p.DetailOctaves,
		LandCoverage:       p.LandCoverage,
	}
}

func NoiseFromSnapshot(n snapshot.NoiseV1) gen.NoiseParams {
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
