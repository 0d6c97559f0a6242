package terraindb

import (
	"context"
	"encoding/binary"
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/rivers"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "terrain.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func smallConfig() store.Config {
	cfg := store.NewConfig(16, 8, 7, store.ThemeSciFi)
	cfg.ChunkSize = 8
	cfg.VertexCount = 9
	return cfg
}

func randomChunk(cx, cz, vc int, seed uint64) *store.Chunk {
	rng := rand.New(rand.NewPCG(seed, 1))
	ch := store.NewChunk(cx, cz, vc, 0)
	ch.Flow = make([]float32, vc*vc)
	ch.Biomes = make([]uint8, vc*vc)
	for i := range ch.Heights {
		ch.Heights[i] = rng.Float32()
		ch.Flow[i] = float32(rng.IntN(5000) + 1)
		ch.Biomes[i] = uint8(i / 20)
	}
	return ch
}

func TestSaveLoadTerrainRoundTrip(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	cfg := smallConfig()

	a := randomChunk(0, 0, 9, 1)
	a.Heights[3] = float32(math.Copysign(0, -1))
	b := store.NewChunk(1, 0, 9, 0.2) // no flow, no biomes
	in := Terrain{
		SessionID: "sess-1",
		Config:    cfg,
		Chunks:    []*store.Chunk{a, b},
		Rivers: []rivers.Segment{
			{ID: 2, Path: []mgl32.Vec2{{1, 1}, {1, 2}, {2, 3}}, Order: 3, WidthMeters: 11.25},
			{ID: 1, Path: []mgl32.Vec2{{0, 0}, {0, 1}, {0, 2}}, Order: 1, WidthMeters: 5},
		},
	}
	if err := db.SaveTerrain(ctx, in); err != nil {
		t.Fatalf("SaveTerrain: %v", err)
	}
	out, err := db.LoadTerrain(ctx)
	if err != nil {
		t.Fatalf("LoadTerrain: %v", err)
	}
	if out.Config != cfg {
		t.Fatalf("config: got %+v want %+v", out.Config, cfg)
	}
	if out.SessionID != "sess-1" {
		t.Fatalf("session id: %q", out.SessionID)
	}
	if len(out.Chunks) != 2 {
		t.Fatalf("chunks: got %d", len(out.Chunks))
	}
	if out.Chunks[0].Digest() != a.Digest() || out.Chunks[1].Digest() != b.Digest() {
		t.Fatalf("chunk digests differ after round trip")
	}
	if math.Float32bits(out.Chunks[0].Heights[3]) != math.Float32bits(a.Heights[3]) {
		t.Fatalf("signed zero lost")
	}
	if out.Chunks[1].Flow != nil || out.Chunks[1].Biomes != nil {
		t.Fatalf("absent fields should stay nil")
	}
	if len(out.Rivers) != 2 || out.Rivers[0].ID != 1 || out.Rivers[1].WidthMeters != 11.25 || out.Rivers[1].Path[2] != (mgl32.Vec2{2, 3}) {
		t.Fatalf("rivers: %+v", out.Rivers)
	}

	// A second save replaces rather than merges.
	in.Chunks = in.Chunks[:1]
	in.Rivers = nil
	if err := db.SaveTerrain(ctx, in); err != nil {
		t.Fatalf("SaveTerrain #2: %v", err)
	}
	out, err = db.LoadTerrain(ctx)
	if err != nil {
		t.Fatalf("LoadTerrain #2: %v", err)
	}
	if len(out.Chunks) != 1 || len(out.Rivers) != 0 {
		t.Fatalf("replace: %d chunks %d rivers", len(out.Chunks), len(out.Rivers))
	}
}

func TestLoadTerrainMissingConfig(t *testing.T) {
	db := openTemp(t)
	if _, err := db.LoadTerrain(context.Background()); protocol.CodeOf(err) != protocol.ErrNotFound {
		t.Fatalf("got %v", err)
	}
	if v, err := db.Meta(context.Background(), "schema_version"); err != nil || v != "1" {
		t.Fatalf("schema_version: %q %v", v, err)
	}
}

func TestCorruptBlobs(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	cfg := smallConfig()
	if err := db.SaveTerrain(ctx, Terrain{Config: cfg, Chunks: []*store.Chunk{randomChunk(0, 0, 9, 2)}}); err != nil {
		t.Fatalf("SaveTerrain: %v", err)
	}

	if _, err := db.db.Exec(`UPDATE terrain_chunks SET data = ? WHERE chunk_x = 0`, []byte("not zstd")); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := db.LoadTerrain(ctx); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("heights: got %v", err)
	}

	// Valid zstd of the wrong length.
	short, _ := encodeFloats([]float32{1, 2, 3})
	if _, err := db.db.Exec(`UPDATE terrain_chunks SET data = ? WHERE chunk_x = 0`, short); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := db.LoadChunk(ctx, 0, 0, 0, 9); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("short heights: got %v", err)
	}

	if _, err := db.db.Exec(`INSERT INTO river_segments(id, path, strahler_order, width_meters) VALUES(9, ?, 1, 5)`, []byte{5, 1, 2}); err != nil {
		t.Fatalf("insert river: %v", err)
	}
	if _, err := db.LoadRivers(ctx); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("river path: got %v", err)
	}

	// A point count whose byte size overflows uint64.
	if _, err := db.db.Exec(`UPDATE river_segments SET path = ? WHERE id = 9`, binary.AppendUvarint(nil, 1<<61)); err != nil {
		t.Fatalf("corrupt river: %v", err)
	}
	if _, err := db.LoadRivers(ctx); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("huge point count: got %v", err)
	}
	if _, err := decodePath(binary.AppendUvarint([]byte(nil), 1<<62|5)); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("decodePath huge count: got %v", err)
	}
}

func TestConfigSchemaRejectsBadRow(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	if _, err := db.db.Exec(`INSERT INTO terrain_config(key, value) VALUES('config', ?)`,
		`{"chunk_size":8,"vertex_count":9,"world_width":16,"world_height":8,"cell_size_meters":100,"max_elevation":4000,"sea_level":1.5,"seed":1,"theme":"FANTASY"}`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.LoadConfig(ctx); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("sea_level 1.5: got %v", err)
	}
	if _, err := db.db.Exec(`UPDATE terrain_config SET value = '{"theme":"STEAMPUNK"}'`); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := db.LoadConfig(ctx); protocol.CodeOf(err) != protocol.ErrCorruption {
		t.Fatalf("unknown theme: got %v", err)
	}
}

func TestChunkExistsAndSingleRows(t *testing.T) {
	db := openTemp(t)
	ctx := context.Background()
	if err := db.SaveConfig(ctx, smallConfig()); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	ch := randomChunk(1, 0, 9, 3)
	if err := db.SaveChunk(ctx, ch); err != nil {
		t.Fatalf("SaveChunk: %v", err)
	}
	ok, err := db.ChunkExists(ctx, 1, 0, 0)
	if err != nil || !ok {
		t.Fatalf("exists: %v %v", ok, err)
	}
	if ok, _ := db.ChunkExists(ctx, 0, 0, 0); ok {
		t.Fatalf("chunk (0,0) should not exist")
	}
	got, err := db.LoadChunk(ctx, 1, 0, 0, 9)
	if err != nil {
		t.Fatalf("LoadChunk: %v", err)
	}
	if got.Digest() != ch.Digest() {
		t.Fatalf("digest mismatch")
	}
	if _, err := db.LoadChunk(ctx, 5, 5, 0, 9); protocol.CodeOf(err) != protocol.ErrNotFound {
		t.Fatalf("missing chunk: got %v", err)
	}
	if err := db.SaveRiver(ctx, rivers.Segment{ID: 4, Path: []mgl32.Vec2{{1, 2}}, Order: 1, WidthMeters: 5}); err != nil {
		t.Fatalf("SaveRiver: %v", err)
	}
	rs, err := db.LoadRivers(ctx)
	if err != nil || len(rs) != 1 || rs[0].Path[0] != (mgl32.Vec2{1, 2}) {
		t.Fatalf("LoadRivers: %+v %v", rs, err)
	}
}
