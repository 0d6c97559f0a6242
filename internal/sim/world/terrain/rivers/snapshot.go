package rivers

import (
	"github.com/go-gl/mathgl/mgl32"

	snapv1 "worldweaver.ai/internal/persistence/snapshot"
)

func ExportSegments(segs []Segment) []snapv1.RiverV1 {
	out := make([]snapv1.RiverV1, 0, len(segs))
	for _, s := range segs {
		path := make([][2]float32, len(s.Path))
		for i, p := range s.Path {
			path[i] = [2]float32{p.X(), p.Y()}
		}
		out = append(out, snapv1.RiverV1{ID: s.ID, Path: path, Order: s.Order, WidthMeters: s.WidthMeters})
	}
	return out
}

func ImportSegments(rs []snapv1.RiverV1) *Network {
	n := &Network{Segments: make([]Segment, 0, len(rs))}
	for _, r := range rs {
		path := make([]mgl32.Vec2, len(r.Path))
		for i, p := range r.Path {
			path[i] = mgl32.Vec2{p[0], p[1]}
		}
		n.Add(Segment{ID: r.ID, Path: path, Order: r.Order, WidthMeters: r.WidthMeters})
	}
	return n
}
