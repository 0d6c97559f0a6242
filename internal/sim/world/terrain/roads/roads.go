// Package roads exposes the slope-weighted step cost used by external road
// planners. Path search itself lives outside the terrain core.
package roads

import "math"

const (
	straightCost = 100
	diagonalCost = 141
	slopeWeight  = 8
)

// Point is a cell coordinate in the flattened world buffer.
type Point struct{ X, Z int }

// Cost of stepping between two adjacent cells. Either endpoint out of
// bounds yields math.MaxUint32.
func Cost(from, to Point, heights []float32, w, h int) uint32 {
	if !inside(from, w, h) || !inside(to, w, h) || len(heights) < w*h {
		return math.MaxUint32
	}
	horizontal := straightCost
	if from.X != to.X && from.Z != to.Z {
		horizontal = diagonalCost
	}
	dh := heights[to.Z*w+to.X] - heights[from.Z*w+from.X]
	slope := float32(math.Abs(float64(dh))) / (float32(horizontal) / 100)
	return uint32(float32(horizontal) * (1 + slopeWeight*slope*slope))
}

func inside(p Point, w, h int) bool {
	return p.X >= 0 && p.X < w && p.Z >= 0 && p.Z < h
}
