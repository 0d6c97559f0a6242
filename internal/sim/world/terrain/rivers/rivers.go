package rivers

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/terrain/hydrology"
)

// MaxTraceSteps bounds a single downstream trace.
const MaxTraceSteps = 1000

const baseWidthMeters = 5

// Segment is one traced river polyline in world cell coordinates.
// Order is a flow-magnitude bucket (1..5), not a topological Strahler number.
type Segment struct {
	ID          uint32
	Path        []mgl32.Vec2
	Order       uint8
	WidthMeters float32
}

// Network keeps segments in extraction order.
type Network struct {
	Segments []Segment
}

func (n *Network) Add(s Segment) { n.Segments = append(n.Segments, s) }
func (n *Network) Clear()        { n.Segments = n.Segments[:0] }
func (n *Network) Len() int      { return len(n.Segments) }

func (n *Network) Get(id uint32) (Segment, error) {
	for _, s := range n.Segments {
		if s.ID == id {
			return s, nil
		}
	}
	return Segment{}, protocol.Errorf(protocol.ErrNotFound, "river segment %d not found", id)
}

// Clone deep-copies the network so callers can hold it across rebuilds.
func (n *Network) Clone() *Network {
	out := &Network{Segments: make([]Segment, len(n.Segments))}
	for i, s := range n.Segments {
		s.Path = append([]mgl32.Vec2(nil), s.Path...)
		out.Segments[i] = s
	}
	return out
}

// Extract traces a river from every unvisited cell whose accumulation meets
// threshold, following dirs until an edge, a sink, an already traced cell or
// MaxTraceSteps. Paths of two points or fewer are dropped.
func Extract(acc []float32, dirs []uint8, w, h int, threshold float32) (*Network, error) {
	if w <= 0 || h <= 0 || len(acc) != w*h || len(dirs) != w*h {
		return nil, protocol.Errorf(protocol.ErrInvalidArgument, "river extraction needs %dx%d flow fields (got acc=%d dirs=%d)", w, h, len(acc), len(dirs))
	}
	net := &Network{}
	visited := make([]bool, w*h)
	var id uint32
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			i := z*w + x
			if visited[i] || acc[i] < threshold {
				continue
			}
			path := trace(x, z, dirs, w, h, visited)
			if len(path) <= 2 {
				continue
			}
			order := OrderFor(acc[i])
			net.Add(Segment{ID: id, Path: path, Order: order, WidthMeters: WidthFor(order)})
			id++
		}
	}
	return net, nil
}

func trace(x, z int, dirs []uint8, w, h int, visited []bool) []mgl32.Vec2 {
	var path []mgl32.Vec2
	for step := 0; step < MaxTraceSteps; step++ {
		i := z*w + x
		path = append(path, mgl32.Vec2{float32(x), float32(z)})
		visited[i] = true

		d := dirs[i]
		if d >= 8 {
			break
		}
		nx, nz := x+hydrology.DX[d], z+hydrology.DZ[d]
		if nx < 0 || nz < 0 || nx >= w || nz >= h {
			break
		}
		x, z = nx, nz
		if visited[z*w+x] {
			break
		}
	}
	return path
}

// OrderFor buckets a headwater accumulation into 1..5.
func OrderFor(acc float32) uint8 {
	switch {
	case acc < 1000:
		return 1
	case acc < 5000:
		return 2
	case acc < 20000:
		return 3
	case acc < 100000:
		return 4
	default:
		return 5
	}
}

// WidthFor grows 1.5x per order from 5 m.
func WidthFor(order uint8) float32 {
	return float32(baseWidthMeters * math.Pow(1.5, float64(int(order)-1)))
}
