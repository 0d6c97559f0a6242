package terraindb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/rivers"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

// Terrain is the persisted form of one world.
type Terrain struct {
	SessionID string
	Config    store.Config
	Chunks    []*store.Chunk
	Rivers    []rivers.Segment
}

// SaveTerrain replaces the stored world with t in a single transaction.
func (d *DB) SaveTerrain(ctx context.Context, t Terrain) error {
	if err := t.Config.Validate(); err != nil {
		return err
	}
	return d.withTx(ctx, func(tx *sql.Tx) error {
		if err := saveConfig(ctx, tx, t.Config); err != nil {
			return err
		}
		for _, q := range []string{`DELETE FROM terrain_chunks`, `DELETE FROM river_segments`} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return protocol.Wrap(protocol.ErrInternal, err, "clear terrain")
			}
		}
		now := time.Now().Unix()
		for _, ch := range t.Chunks {
			if err := saveChunk(ctx, tx, ch, now); err != nil {
				return err
			}
		}
		for _, seg := range t.Rivers {
			if err := saveRiver(ctx, tx, seg); err != nil {
				return err
			}
		}
		if t.SessionID != "" {
			if err := setMeta(ctx, tx, "session_id", t.SessionID); err != nil {
				return protocol.Wrap(protocol.ErrInternal, err, "save session id")
			}
		}
		return nil
	})
}

// LoadTerrain reads the config, every lod-0 chunk inside the configured
// extent in (cz, cx) order, and all rivers by id.
func (d *DB) LoadTerrain(ctx context.Context) (Terrain, error) {
	cfg, err := d.LoadConfig(ctx)
	if err != nil {
		return Terrain{}, err
	}
	t := Terrain{Config: cfg}
	for cz := 0; cz < cfg.ChunkCountZ(); cz++ {
		for cx := 0; cx < cfg.ChunkCountX(); cx++ {
			ch, err := d.LoadChunk(ctx, cx, cz, 0, cfg.VertexCount)
			if protocol.CodeOf(err) == protocol.ErrNotFound {
				continue
			}
			if err != nil {
				return Terrain{}, err
			}
			t.Chunks = append(t.Chunks, ch)
		}
	}
	if t.Rivers, err = d.LoadRivers(ctx); err != nil {
		return Terrain{}, err
	}
	if id, err := d.Meta(ctx, "session_id"); err == nil {
		t.SessionID = id
	}
	return t, nil
}

func (d *DB) SaveChunk(ctx context.Context, ch *store.Chunk) error {
	return saveChunk(ctx, d.db, ch, time.Now().Unix())
}

func saveChunk(ctx context.Context, x execer, ch *store.Chunk, now int64) error {
	data, err := encodeFloats(ch.Heights)
	if err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "compress chunk %v", ch.Key())
	}
	// Absent fields are stored as NULL.
	var flow, biomes any
	if ch.Flow != nil {
		b, err := encodeFloats(ch.Flow)
		if err != nil {
			return protocol.Wrap(protocol.ErrInternal, err, "compress flow %v", ch.Key())
		}
		flow = b
	}
	if ch.Biomes != nil {
		b, err := encodeBiomes(ch.Biomes)
		if err != nil {
			return protocol.Wrap(protocol.ErrInternal, err, "compress biomes %v", ch.Key())
		}
		biomes = b
	}
	_, err = x.ExecContext(ctx, `INSERT OR REPLACE INTO terrain_chunks
		(chunk_x, chunk_z, lod, data, flow_data, biome_data, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ch.CX, ch.CZ, int(ch.LOD), data, flow, biomes, now)
	if err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "save chunk %v", ch.Key())
	}
	return nil
}

// LoadChunk decodes one chunk with vertexCount² samples per field.
func (d *DB) LoadChunk(ctx context.Context, cx, cz int, lod uint8, vertexCount int) (*store.Chunk, error) {
	var data, flow, biomes []byte
	err := d.db.QueryRowContext(ctx, `SELECT data, flow_data, biome_data FROM terrain_chunks
		WHERE chunk_x = ? AND chunk_z = ? AND lod = ?`, cx, cz, int(lod)).Scan(&data, &flow, &biomes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, protocol.Errorf(protocol.ErrNotFound, "chunk (%d,%d) lod %d not found", cx, cz, lod)
	}
	if err != nil {
		return nil, protocol.Wrap(protocol.ErrInternal, err, "load chunk (%d,%d)", cx, cz)
	}

	n := vertexCount * vertexCount
	ch := &store.Chunk{CX: cx, CZ: cz, LOD: lod, VertexCount: vertexCount}
	if ch.Heights, err = decodeFloats(data, n, "heights"); err != nil {
		return nil, err
	}
	if flow != nil {
		if ch.Flow, err = decodeFloats(flow, n, "flow"); err != nil {
			return nil, err
		}
	}
	if biomes != nil {
		if ch.Biomes, err = decodeBiomes(biomes, n); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

func (d *DB) ChunkExists(ctx context.Context, cx, cz int, lod uint8) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM terrain_chunks
		WHERE chunk_x = ? AND chunk_z = ? AND lod = ?`, cx, cz, int(lod)).Scan(&n)
	if err != nil {
		return false, protocol.Wrap(protocol.ErrInternal, err, "chunk exists (%d,%d)", cx, cz)
	}
	return n > 0, nil
}

func (d *DB) SaveRiver(ctx context.Context, seg rivers.Segment) error {
	return saveRiver(ctx, d.db, seg)
}

func saveRiver(ctx context.Context, x execer, seg rivers.Segment) error {
	_, err := x.ExecContext(ctx, `INSERT OR REPLACE INTO river_segments(id, path, strahler_order, width_meters)
		VALUES (?, ?, ?, ?)`, int64(seg.ID), encodePath(seg.Path), int(seg.Order), float64(seg.WidthMeters))
	if err != nil {
		return protocol.Wrap(protocol.ErrInternal, err, "save river %d", seg.ID)
	}
	return nil
}

func (d *DB) LoadRivers(ctx context.Context) ([]rivers.Segment, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, path, strahler_order, width_meters FROM river_segments ORDER BY id`)
	if err != nil {
		return nil, protocol.Wrap(protocol.ErrInternal, err, "load rivers")
	}
	defer rows.Close()

	var out []rivers.Segment
	for rows.Next() {
		var (
			id    int64
			blob  []byte
			order int
			width float64
		)
		if err := rows.Scan(&id, &blob, &order, &width); err != nil {
			return nil, protocol.Wrap(protocol.ErrCorruption, err, "scan river")
		}
		path, err := decodePath(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, rivers.Segment{ID: uint32(id), Path: path, Order: uint8(order), WidthMeters: float32(width)})
	}
	if err := rows.Err(); err != nil {
		return nil, protocol.Wrap(protocol.ErrInternal, err, "load rivers")
	}
	return out, nil
}
