package store

import (
	"fmt"

	snapv1 "worldweaver.ai/internal/persistence/snapshot"
)

// ExportChunks converts chunks into snapshot chunks, copying every array.
func ExportChunks(chs []*Chunk) []snapv1.ChunkV1 {
	out := make([]snapv1.ChunkV1, 0, len(chs))
	for _, ch := range chs {
		if ch == nil {
			continue
		}
		c := snapv1.ChunkV1{
			CX:      ch.CX,
			CZ:      ch.CZ,
			LOD:     ch.LOD,
			Heights: append([]float32(nil), ch.Heights...),
		}
		if ch.Flow != nil {
			c.Flow = append([]float32(nil), ch.Flow...)
		}
		if ch.Biomes != nil {
			c.Biomes = append([]uint8(nil), ch.Biomes...)
		}
		out = append(out, c)
	}
	return out
}

// ImportChunks rebuilds chunks from snapshot chunks, checking every array
// against the config's vertex count.
func ImportChunks(cfg Config, chunks []snapv1.ChunkV1) ([]*Chunk, error) {
	n := cfg.VertexCount * cfg.VertexCount
	out := make([]*Chunk, 0, len(chunks))
	for _, c := range chunks {
		if !cfg.InBounds(c.CX, c.CZ) {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) outside world", c.CX, c.CZ)
		}
		if len(c.Heights) != n {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) heights length mismatch: got %d want %d", c.CX, c.CZ, len(c.Heights), n)
		}
		if c.Flow != nil && len(c.Flow) != n {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) flow length mismatch: got %d want %d", c.CX, c.CZ, len(c.Flow), n)
		}
		if c.Biomes != nil && len(c.Biomes) != n {
			return nil, fmt.Errorf("snapshot chunk (%d,%d) biomes length mismatch: got %d want %d", c.CX, c.CZ, len(c.Biomes), n)
		}
		ch := &Chunk{
			CX:          c.CX,
			CZ:          c.CZ,
			LOD:         c.LOD,
			VertexCount: cfg.VertexCount,
			Heights:     append([]float32(nil), c.Heights...),
		}
		if c.Flow != nil {
			ch.Flow = append([]float32(nil), c.Flow...)
		}
		if c.Biomes != nil {
			ch.Biomes = append([]uint8(nil), c.Biomes...)
		}
		out = append(out, ch)
	}
	return out, nil
}

func ExportConfig(cfg Config) snapv1.ConfigV1 {
	return snapv1.ConfigV1{
		ChunkSize:      cfg.ChunkSize,
		VertexCount:    cfg.VertexCount,
		WorldWidth:     cfg.WorldWidth,
		WorldHeight:    cfg.WorldHeight,
		CellSizeMeters: cfg.CellSizeMeters,
		MaxElevation:   cfg.MaxElevation,
		SeaLevel:       cfg.SeaLevel,
		Seed:           cfg.Seed,
		Theme:          string(cfg.Theme),
	}
}

func ImportConfig(c snapv1.ConfigV1) (Config, error) {
	cfg := Config{
		ChunkSize:      c.ChunkSize,
		VertexCount:    c.VertexCount,
		WorldWidth:     c.WorldWidth,
		WorldHeight:    c.WorldHeight,
		CellSizeMeters: c.CellSizeMeters,
		MaxElevation:   c.MaxElevation,
		SeaLevel:       c.SeaLevel,
		Seed:           c.Seed,
		Theme:          Theme(c.Theme),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
