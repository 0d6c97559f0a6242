package erosion

import (
	"math"
	"testing"

	"worldweaver.ai/internal/protocol"
)

// slope builds a tilted plane with a bump so droplets have somewhere to go.
func slope(w, h int) []float32 {
	out := make([]float32, w*h)
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			v := 0.9 - 0.6*float64(x)/float64(w) + 0.05*math.Sin(float64(z)*0.7)
			out[z*w+x] = float32(v)
		}
	}
	return out
}

func testParams() Params {
	p := DefaultParams()
	p.Droplets = 2000
	p.Seed = 99
	p.BatchSize = 64
	return p
}

func TestErodeParallel_ReproducibleAcrossWorkerCounts(t *testing.T) {
	const w, h = 48, 40
	a := slope(w, h)
	b := slope(w, h)

	p := testParams()
	p.Workers = 1
	if err := ErodeParallel(a, w, h, p); err != nil {
		t.Fatalf("ErodeParallel: %v", err)
	}
	p.Workers = 7
	if err := ErodeParallel(b, w, h, p); err != nil {
		t.Fatalf("ErodeParallel: %v", err)
	}
	for i := range a {
		if math.Float32bits(a[i]) != math.Float32bits(b[i]) {
			t.Fatalf("cell %d differs between 1 and 7 workers: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestErode_ChangesTerrainAndStaysClamped(t *testing.T) {
	const w, h = 48, 40
	for _, run := range []func([]float32, int, int, Params) error{Erode, ErodeParallel} {
		buf := slope(w, h)
		orig := append([]float32(nil), buf...)
		if err := run(buf, w, h, testParams()); err != nil {
			t.Fatalf("erode: %v", err)
		}
		changed := false
		for i, v := range buf {
			if !(v >= 0 && v <= 1) {
				t.Fatalf("height out of range at %d: %v", i, v)
			}
			if v != orig[i] {
				changed = true
			}
		}
		if !changed {
			t.Fatalf("erosion left the buffer untouched")
		}
	}
}

func TestErode_RejectsBadBuffer(t *testing.T) {
	err := ErodeParallel(make([]float32, 10), 4, 4, testParams())
	if protocol.CodeOf(err) != protocol.ErrInvalidArgument {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if err := Erode(nil, 0, 5, testParams()); protocol.CodeOf(err) != protocol.ErrInvalidArgument {
		t.Fatalf("expected invalid argument for zero width, got %v", err)
	}
	if err := Erode(make([]float32, 5), 1, 5, testParams()); err != nil {
		t.Fatalf("degenerate 1-wide buffer should be a no-op: %v", err)
	}
}

func TestErode_SpawnsConfineDamage(t *testing.T) {
	const w, h = 64, 64
	buf := slope(w, h)
	orig := append([]float32(nil), buf...)
	p := testParams()
	p.MaxLifetime = 1
	p.Spawns = []Spawn{{X: 10, Z: 10, Weight: 1}, {X: 50, Z: 50, Weight: 0}}
	if err := ErodeParallel(buf, w, h, p); err != nil {
		t.Fatalf("ErodeParallel: %v", err)
	}
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			i := z*w + x
			if buf[i] == orig[i] {
				continue
			}
			if x < 10-1-p.Radius || x > 10+1+p.Radius || z < 10-1-p.Radius || z > 10+1+p.Radius {
				t.Fatalf("cell (%d,%d) changed far from the only weighted spawn", x, z)
			}
		}
	}
}

func TestKernelWeights(t *testing.T) {
	taps := kernel(3)
	if len(taps) != 29 {
		t.Fatalf("radius 3 kernel taps: got %d want 29", len(taps))
	}
	for _, tp := range taps {
		if tp.dx == 0 && tp.dz == 0 && tp.w != 1 {
			t.Fatalf("center weight should be 1, got %v", tp.w)
		}
	}
	if got := kernel(0); len(got) != 1 || got[0].w != 1 {
		t.Fatalf("radius 0 kernel should be a single unit tap: %+v", got)
	}
}

func TestThermal_ReducesSteepSteps(t *testing.T) {
	const w, h = 8, 8
	buf := make([]float32, w*h)
	for z := 0; z < h; z++ {
		for x := 4; x < w; x++ {
			buf[z*w+x] = 1
		}
	}
	if err := Thermal(buf, w, h, 0.5, 10); err != nil {
		t.Fatalf("Thermal: %v", err)
	}
	step := buf[3*w+4] - buf[3*w+3]
	if step >= 1 {
		t.Fatalf("thermal erosion did not relax the cliff: step=%v", step)
	}
	for _, v := range buf {
		if v < 0 || v > 1 {
			t.Fatalf("thermal produced out-of-range value %v", v)
		}
	}
}
