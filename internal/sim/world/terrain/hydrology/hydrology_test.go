package hydrology

import (
	"math/rand/v2"
	"testing"
)

func randomField(w, h int, seed uint64) []float32 {
	rng := rand.New(rand.NewPCG(seed, 1))
	out := make([]float32, w*h)
	for i := range out {
		out[i] = rng.Float32()
	}
	return out
}

func TestFillDepressions_NoInteriorPits(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		const w, h = 24, 17
		hs := randomField(w, h, seed)
		if err := FillDepressions(hs, w, h); err != nil {
			t.Fatalf("FillDepressions: %v", err)
		}
		for z := 1; z < h-1; z++ {
			for x := 1; x < w-1; x++ {
				c := hs[z*w+x]
				pit := true
				for k := 0; k < 8; k++ {
					if hs[(z+DZ[k])*w+x+DX[k]] <= c {
						pit = false
						break
					}
				}
				if pit {
					t.Fatalf("seed %d: unresolved pit at (%d,%d) h=%v", seed, x, z, c)
				}
			}
		}
	}
}

func TestFillDepressions_RaisesBowlAboveRim(t *testing.T) {
	const w, h = 5, 5
	hs := make([]float32, w*h)
	for i := range hs {
		hs[i] = 0.5
	}
	hs[2*w+2] = 0.1
	if err := FillDepressions(hs, w, h); err != nil {
		t.Fatalf("FillDepressions: %v", err)
	}
	rim, eps := float32(0.5), float32(Epsilon)
	if got := hs[2*w+2]; got != rim+eps {
		t.Fatalf("pit filled to %v, want %v", got, rim+eps)
	}
}

func TestFlowDirection_TieBreakFollowsScanOrder(t *testing.T) {
	const w, h = 3, 3
	hs := []float32{
		1, 1, 1,
		1, 1, 0,
		1, 0, 1,
	}
	// Center: E (0) and S (2) both drop by 1; E is scanned first.
	dirs, err := FlowDirection(hs, w, h)
	if err != nil {
		t.Fatalf("FlowDirection: %v", err)
	}
	if dirs[4] != 0 {
		t.Fatalf("center direction: got %d want 0 (E)", dirs[4])
	}
	if dirs[5] != NoFlow {
		t.Fatalf("local minimum should have no flow, got %d", dirs[5])
	}
}

func TestFlowAccumulation_Bounds(t *testing.T) {
	const w, h = 30, 20
	hs := randomField(w, h, 42)
	if err := FillDepressions(hs, w, h); err != nil {
		t.Fatalf("FillDepressions: %v", err)
	}
	_, acc, err := Flow(hs, w, h)
	if err != nil {
		t.Fatalf("Flow: %v", err)
	}
	hi := float32(0)
	for _, v := range acc {
		if v < 1 {
			t.Fatalf("accumulation below 1: %v", v)
		}
		hi = max(hi, v)
	}
	if hi > w*h {
		t.Fatalf("max accumulation %v exceeds cell count %d", hi, w*h)
	}
	if hi < 2 {
		t.Fatalf("expected some convergence on a filled random field, max=%v", hi)
	}
}

func TestFlowAccumulation_RampColumn(t *testing.T) {
	const w, h = 1, 10
	hs := make([]float32, h)
	for z := range hs {
		hs[z] = float32(h-z) / float32(h)
	}
	_, acc, err := Flow(hs, w, h)
	if err != nil {
		t.Fatalf("Flow: %v", err)
	}
	if acc[h-1] != h {
		t.Fatalf("outlet accumulation: got %v want %d", acc[h-1], h)
	}
}

func TestNormalizeBytes(t *testing.T) {
	got := NormalizeBytes([]float32{1, 2, 4})
	if got[2] != 255 || got[0] != 63 {
		t.Fatalf("NormalizeBytes: got %v", got)
	}
	if z := NormalizeBytes([]float32{0, 0}); z[0] != 0 {
		t.Fatalf("zero input should stay zero")
	}
}
