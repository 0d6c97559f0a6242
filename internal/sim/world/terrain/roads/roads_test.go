package roads

import (
	"math"
	"testing"
)

func TestCost(t *testing.T) {
	heights := []float32{
		0, 0, 0,
		0, 0.5, 0,
		0, 0, 0,
	}
	if got := Cost(Point{0, 0}, Point{1, 0}, heights, 3, 3); got != 100 {
		t.Fatalf("flat straight: got %d want 100", got)
	}
	if got := Cost(Point{0, 0}, Point{1, 1}, heights, 3, 3); got <= 141 {
		t.Fatalf("diagonal climb should exceed 141, got %d", got)
	}
	if got := Cost(Point{2, 2}, Point{1, 2}, heights, 3, 3); got != 100 {
		t.Fatalf("flat straight: got %d", got)
	}
	// 100 * (1 + 8*0.25) = 300
	if got := Cost(Point{1, 0}, Point{1, 1}, heights, 3, 3); got != 300 {
		t.Fatalf("straight climb: got %d want 300", got)
	}
	if Cost(Point{1, 0}, Point{1, 1}, heights, 3, 3) != Cost(Point{1, 1}, Point{1, 0}, heights, 3, 3) {
		t.Fatalf("cost should be symmetric")
	}
	for _, p := range []Point{{-1, 0}, {3, 0}, {0, 3}, {0, -1}} {
		if got := Cost(Point{0, 0}, p, heights, 3, 3); got != math.MaxUint32 {
			t.Fatalf("out of bounds %v: got %d", p, got)
		}
	}
}
