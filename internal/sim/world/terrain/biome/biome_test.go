package biome

import (
	"testing"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

func TestClassify_SeaLevelBoundary(t *testing.T) {
	for _, sea := range []float32{0.1, 0.2, 0.5} {
		for _, temp := range []float32{-30, 0, 40} {
			for _, m := range []float32{0, 0.5, 1} {
				if got := Classify(sea-0.01, temp, m, sea); got != Ocean {
					t.Fatalf("below sea (sea=%v t=%v m=%v): got %v", sea, temp, m, got)
				}
				if got := Classify(sea+0.01, temp, m, sea); got != Coast {
					t.Fatalf("just above sea (sea=%v t=%v m=%v): got %v", sea, temp, m, got)
				}
			}
		}
	}
}

func TestClassify_Whittaker(t *testing.T) {
	cases := []struct {
		e, t, m float32
		want    Biome
	}{
		{0.9, -5, 0.5, Glacier},
		{0.9, 5, 0.5, Alpine},
		{0.5, -20, 0.9, Tundra},
		{0.5, -5, 0.7, BorealForest},
		{0.5, -5, 0.5, Tundra},
		{0.5, 10, 0.8, TemperateForest},
		{0.5, 10, 0.5, Grassland},
		{0.5, 10, 0.2, Desert},
		{0.5, 25, 0.8, TropicalRainforest},
		{0.5, 25, 0.5, Savanna},
		{0.5, 25, 0.3, Desert},
	}
	for _, c := range cases {
		if got := Classify(c.e, c.t, c.m, 0.2); got != c.want {
			t.Fatalf("Classify(%v,%v,%v) = %v, want %v", c.e, c.t, c.m, got, c.want)
		}
	}
}

func TestTemperatureAndMoisture(t *testing.T) {
	if got := Temperature(0, 0, 4000); got != 30 {
		t.Fatalf("equator sea-level temperature: got %v", got)
	}
	if got := Temperature(0.5, 1, 4000); got != -23 {
		t.Fatalf("polar 2000 m temperature: got %v want -23", got)
	}
	if got := Moisture(0.1, 0.1, 0.95, 0.2); got != 1 {
		t.Fatalf("ocean moisture should cap at 1, got %v", got)
	}
	flat := Moisture(0.5, 0.5, 0.5, 0.2)
	climb := Moisture(0.6, 0.5, 0.5, 0.2)
	if !(climb < flat) || flat != 0.49 {
		t.Fatalf("ascent should rain out moisture: flat=%v climb=%v", flat, climb)
	}
}

func TestMapWorld(t *testing.T) {
	cfg := store.DefaultConfig()
	const w, h = 4, 3
	heights := []float32{
		0.1, 0.21, 0.5, 0.95,
		0.1, 0.21, 0.5, 0.95,
		0.1, 0.21, 0.5, 0.95,
	}
	ids, err := MapWorld(heights, w, h, cfg)
	if err != nil {
		t.Fatalf("MapWorld: %v", err)
	}
	for z := 0; z < h; z++ {
		if Biome(ids[z*w]) != Ocean || Biome(ids[z*w+1]) != Coast {
			t.Fatalf("row %d: unexpected ocean/coast ids %v", z, ids[z*w:z*w+2])
		}
	}
	// A 3800 m peak is above freezing at the equator row and frozen at the pole row.
	if Biome(ids[w-1]) != Alpine {
		t.Fatalf("equator peak should be alpine, got %v", Biome(ids[w-1]))
	}
	if Biome(ids[(h-1)*w+w-1]) != Glacier {
		t.Fatalf("polar peak should be glacier, got %v", Biome(ids[(h-1)*w+w-1]))
	}
	if _, err := MapWorld(heights, 5, 3, cfg); protocol.CodeOf(err) != protocol.ErrInvalidArgument {
		t.Fatalf("size mismatch: got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	for b := Ocean; b < numBiomes; b++ {
		d, ok := r.Get(b)
		if !ok || d.Name == "" || len(d.ThemeNames) != 3 {
			t.Fatalf("biome %d has incomplete definition: %+v", b, d)
		}
	}
	if got := r.DisplayName(Ocean, store.ThemeSciFi); got != "Liquid Expanse" {
		t.Fatalf("SCIFI ocean name: got %q", got)
	}
	if got := r.DisplayName(Desert, store.Theme("OTHER")); got != "Desert" {
		t.Fatalf("fallback name: got %q", got)
	}
	if r.Color(Glacier) != [3]uint8{245, 245, 250} {
		t.Fatalf("glacier color: got %v", r.Color(Glacier))
	}
	if Biome(200).String() != "Unknown" {
		t.Fatalf("out-of-range biome string")
	}
}
