package rivers

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/hydrology"
)

func TestExtract_SyntheticRamp(t *testing.T) {
	const w, h, col = 9, 12, 4
	acc := make([]float32, w*h)
	dirs := make([]uint8, w*h)
	for i := range acc {
		acc[i] = 1
		dirs[i] = 2 // S
	}
	for z := 0; z < h; z++ {
		acc[z*w+col] = 2000
	}

	net, err := Extract(acc, dirs, w, h, 1000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if net.Len() != 1 {
		t.Fatalf("expected exactly one segment, got %d", net.Len())
	}
	seg := net.Segments[0]
	if len(seg.Path) != h {
		t.Fatalf("path length: got %d want %d", len(seg.Path), h)
	}
	for z, p := range seg.Path {
		if p != (mgl32.Vec2{col, float32(z)}) {
			t.Fatalf("path[%d] = %v, want (%d,%d)", z, p, col, z)
		}
	}
	if seg.Order != 2 || seg.WidthMeters != 7.5 {
		t.Fatalf("order/width: got %d/%v want 2/7.5", seg.Order, seg.WidthMeters)
	}
}

func TestExtract_DropsShortPathsAndStopsAtVisited(t *testing.T) {
	const w, h = 5, 5
	acc := make([]float32, w*h)
	dirs := make([]uint8, w*h)
	for i := range dirs {
		dirs[i] = hydrology.NoFlow
	}
	// Two-cell trickle: too short.
	acc[0] = 5000
	dirs[0] = 0
	// A long run down column 3 joined by a headwater at (4,0) flowing SW.
	for z := 0; z < h; z++ {
		acc[z*w+3] = 1500
		if z < h-1 {
			dirs[z*w+3] = 2
		}
	}
	acc[4] = 1200
	dirs[4] = 3 // SW into (3,1), already traced

	net, err := Extract(acc, dirs, w, h, 1000)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if net.Len() != 1 {
		t.Fatalf("expected one segment, got %d: %+v", net.Len(), net.Segments)
	}
	if got := net.Segments[0].Path[0]; got != (mgl32.Vec2{3, 0}) {
		t.Fatalf("segment should start at column 3 headwater, got %v", got)
	}
}

func TestOrderAndWidthBuckets(t *testing.T) {
	cases := []struct {
		acc   float32
		order uint8
	}{
		{999, 1}, {1000, 2}, {4999, 2}, {5000, 3}, {20000, 4}, {99999, 4}, {100000, 5},
	}
	for _, c := range cases {
		if got := OrderFor(c.acc); got != c.order {
			t.Fatalf("OrderFor(%v) = %d, want %d", c.acc, got, c.order)
		}
	}
	if WidthFor(1) != 5 || WidthFor(3) != 11.25 {
		t.Fatalf("WidthFor: got %v, %v", WidthFor(1), WidthFor(3))
	}
}

func TestNetworkGetAndClone(t *testing.T) {
	n := &Network{}
	n.Add(Segment{ID: 7, Path: []mgl32.Vec2{{1, 1}}})
	c := n.Clone()
	c.Segments[0].Path[0] = mgl32.Vec2{9, 9}
	if n.Segments[0].Path[0] != (mgl32.Vec2{1, 1}) {
		t.Fatalf("Clone shares path storage")
	}
	if _, err := n.Get(8); protocol.CodeOf(err) != protocol.ErrNotFound {
		t.Fatalf("missing segment: got %v", err)
	}
	n.Clear()
	if n.Len() != 0 {
		t.Fatalf("Clear left %d segments", n.Len())
	}
}

func TestSegmentsSnapshotRoundTrip(t *testing.T) {
	in := []Segment{
		{ID: 1, Path: []mgl32.Vec2{{0, 0}, {0, 1}, {1, 2}}, Order: 2, WidthMeters: 7.5},
		{ID: 7, Path: []mgl32.Vec2{{3, 3}, {4, 4}, {5, 5}}, Order: 1, WidthMeters: 5},
	}
	out := ImportSegments(ExportSegments(in))
	if out.Len() != 2 {
		t.Fatalf("len: %d", out.Len())
	}
	for i := range in {
		got := out.Segments[i]
		if got.ID != in[i].ID || got.Order != in[i].Order || got.WidthMeters != in[i].WidthMeters || len(got.Path) != len(in[i].Path) {
			t.Fatalf("segment %d: %+v", i, got)
		}
		for j := range got.Path {
			if got.Path[j] != in[i].Path[j] {
				t.Fatalf("segment %d point %d: %v", i, j, got.Path[j])
			}
		}
	}
}
