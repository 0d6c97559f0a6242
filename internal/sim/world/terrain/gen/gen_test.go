package gen

import (
	"math"
	"testing"

	"worldweaver.ai/internal/sim/world/terrain/store"
)

func testConfig() store.Config {
	cfg := store.DefaultConfig()
	cfg.ChunkSize = 16
	cfg.VertexCount = 17
	cfg.WorldWidth = 64
	cfg.WorldHeight = 48
	cfg.Seed = 4242
	return cfg
}

func TestGenerate_DeterministicAcrossWorkerCounts(t *testing.T) {
	cfg := testConfig()
	p := DefaultNoiseParams()

	a, err := Generate(cfg, p, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(cfg, p, 8)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(a) != cfg.ChunkCountX()*cfg.ChunkCountZ() {
		t.Fatalf("chunk count: got %d", len(a))
	}
	for i := range a {
		if a[i].CX != b[i].CX || a[i].CZ != b[i].CZ {
			t.Fatalf("chunk order differs at %d", i)
		}
		for j := range a[i].Heights {
			if math.Float32bits(a[i].Heights[j]) != math.Float32bits(b[i].Heights[j]) {
				t.Fatalf("chunk %d sample %d differs: %v vs %v", i, j, a[i].Heights[j], b[i].Heights[j])
			}
		}
	}
	if a[1].CX != 1 || a[1].CZ != 0 || a[4].CX != 0 || a[4].CZ != 1 {
		t.Fatalf("chunks must be in (cz, cx) order")
	}
	if store.DigestChunks(a) != store.DigestChunks(b) {
		t.Fatalf("digest mismatch between sequential and parallel generation")
	}
}

func TestGenerate_SeedChangesTerrain(t *testing.T) {
	cfg := testConfig()
	p := DefaultNoiseParams()
	p.ContinentFrequency = 0.002
	a, _ := Generate(cfg, p, 0)
	cfg.Seed++
	b, _ := Generate(cfg, p, 0)
	if store.DigestChunks(a) == store.DigestChunks(b) {
		t.Fatalf("different seeds produced identical terrain")
	}
}

func TestGenerate_HeightsInRangeAfterPostProcess(t *testing.T) {
	cfg := testConfig()
	p := DefaultNoiseParams()
	p.ContinentFrequency = 0.001
	p.MountainFrequency = 0.004
	chs, err := Generate(cfg, p, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	PostProcess(chs, cfg.SeaLevel)
	for _, ch := range chs {
		for _, h := range ch.Heights {
			if !(h >= 0 && h <= 1) {
				t.Fatalf("height out of range: %v", h)
			}
		}
	}
}

func TestGenerate_FlatModeIsUniformSeaLevel(t *testing.T) {
	cfg := testConfig()
	chs, err := Generate(cfg, FlatNoiseParams(), 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	PostProcess(chs, cfg.SeaLevel)
	for _, ch := range chs {
		for _, h := range ch.Heights {
			if h != cfg.SeaLevel {
				t.Fatalf("flat mode height %v != sea level %v", h, cfg.SeaLevel)
			}
		}
	}
}

func TestGenerate_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.WorldWidth = 0
	if _, err := Generate(cfg, DefaultNoiseParams(), 0); err == nil {
		t.Fatalf("expected error for zero-sized world")
	}
}

func TestRemap_MonotonicAndSeparated(t *testing.T) {
	sea := float32(0.2)
	prev := float32(-1)
	for i := 0; i <= 100; i++ {
		h := Remap(float32(i)/100, sea)
		if h < prev {
			t.Fatalf("remap not monotonic at %d: %v < %v", i, h, prev)
		}
		prev = h
	}
	if got := Remap(0.19, sea); got >= sea*0.8 {
		t.Fatalf("ocean must be pushed below 0.8*sea, got %v", got)
	}
	if got := Remap(sea, sea); got != sea {
		t.Fatalf("sea level should map to itself, got %v", got)
	}
}
