// Package hydrology routes water over a row-major height buffer: depression
// filling (Priority-Flood), D8 flow directions and flow accumulation.
package hydrology

import (
	"container/heap"
	"sort"

	"worldweaver.ai/internal/protocol"
)

// Epsilon is the rise applied to each filled cell over its spill cell.
const Epsilon = 1e-4

// NoFlow marks a cell with no strictly lower neighbor.
const NoFlow uint8 = 255

// D8 offsets in scan order: E, SE, S, SW, W, NW, N, NE. The order is the
// tie-break for equal slopes.
var (
	DX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	DZ = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

func check(heights []float32, w, h int) error {
	if w <= 0 || h <= 0 {
		return protocol.Errorf(protocol.ErrInvalidArgument, "hydrology buffer dimensions must be > 0 (got %dx%d)", w, h)
	}
	if len(heights) != w*h {
		return protocol.Errorf(protocol.ErrInvalidArgument, "hydrology buffer length %d != %d*%d", len(heights), w, h)
	}
	return nil
}

type cell struct {
	idx int
	h   float32
	seq int
}

type cellHeap []cell

func (q cellHeap) Len() int { return len(q) }
func (q cellHeap) Less(i, j int) bool {
	if q[i].h != q[j].h {
		return q[i].h < q[j].h
	}
	return q[i].seq < q[j].seq
}
func (q cellHeap) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *cellHeap) Push(x any)   { *q = append(*q, x.(cell)) }
func (q *cellHeap) Pop() any {
	old := *q
	c := old[len(old)-1]
	*q = old[:len(old)-1]
	return c
}

// FillDepressions raises every pit so that each cell drains to the border.
// Filled cells sit Epsilon above the cell they spill into; the result is not
// clamped.
func FillDepressions(heights []float32, w, h int) error {
	if err := check(heights, w, h); err != nil {
		return err
	}
	closed := make([]bool, w*h)
	open := make(cellHeap, 0, 2*(w+h))
	seq := 0
	push := func(i int) {
		closed[i] = true
		open = append(open, cell{idx: i, h: heights[i], seq: seq})
		seq++
	}
	for x := 0; x < w; x++ {
		push(x)
		if h > 1 {
			push((h-1)*w + x)
		}
	}
	for z := 1; z < h-1; z++ {
		push(z * w)
		if w > 1 {
			push(z*w + w - 1)
		}
	}
	heap.Init(&open)

	for open.Len() > 0 {
		c := heap.Pop(&open).(cell)
		x, z := c.idx%w, c.idx/w
		for k := 0; k < 8; k++ {
			nx, nz := x+DX[k], z+DZ[k]
			if nx < 0 || nz < 0 || nx >= w || nz >= h {
				continue
			}
			ni := nz*w + nx
			if closed[ni] {
				continue
			}
			if heights[ni] < c.h {
				heights[ni] = c.h + Epsilon
			}
			closed[ni] = true
			heap.Push(&open, cell{idx: ni, h: heights[ni], seq: seq})
			seq++
		}
	}
	return nil
}

// FlowDirection assigns each cell the D8 index of its steepest strictly
// lower neighbor, or NoFlow.
func FlowDirection(heights []float32, w, h int) ([]uint8, error) {
	if err := check(heights, w, h); err != nil {
		return nil, err
	}
	dirs := make([]uint8, w*h)
	for z := 0; z < h; z++ {
		for x := 0; x < w; x++ {
			i := z*w + x
			best := float32(0)
			dir := NoFlow
			for k := 0; k < 8; k++ {
				nx, nz := x+DX[k], z+DZ[k]
				if nx < 0 || nz < 0 || nx >= w || nz >= h {
					continue
				}
				if s := heights[i] - heights[nz*w+nx]; s > best {
					best = s
					dir = uint8(k)
				}
			}
			dirs[i] = dir
		}
	}
	return dirs, nil
}

// FlowAccumulation counts contributing cells: every cell starts at 1 and,
// visiting cells from highest to lowest (index breaks ties), passes its
// total to its downstream neighbor.
func FlowAccumulation(heights []float32, dirs []uint8, w, h int) ([]float32, error) {
	if err := check(heights, w, h); err != nil {
		return nil, err
	}
	if len(dirs) != len(heights) {
		return nil, protocol.Errorf(protocol.ErrInvalidArgument, "flow direction length %d != %d", len(dirs), len(heights))
	}
	acc := make([]float32, w*h)
	order := make([]int, w*h)
	for i := range acc {
		acc[i] = 1
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return heights[order[a]] > heights[order[b]]
	})
	for _, i := range order {
		d := dirs[i]
		if d >= 8 {
			continue
		}
		nx, nz := i%w+DX[d], i/w+DZ[d]
		if nx < 0 || nz < 0 || nx >= w || nz >= h {
			continue
		}
		acc[nz*w+nx] += acc[i]
	}
	return acc, nil
}

// Flow runs FlowDirection then FlowAccumulation.
func Flow(heights []float32, w, h int) ([]uint8, []float32, error) {
	dirs, err := FlowDirection(heights, w, h)
	if err != nil {
		return nil, nil, err
	}
	acc, err := FlowAccumulation(heights, dirs, w, h)
	if err != nil {
		return nil, nil, err
	}
	return dirs, acc, nil
}

// NormalizeBytes maps acc to 0..255 by its maximum.
func NormalizeBytes(acc []float32) []byte {
	out := make([]byte, len(acc))
	hi := float32(0)
	for _, v := range acc {
		hi = max(hi, v)
	}
	if hi <= 0 {
		return out
	}
	for i, v := range acc {
		out[i] = byte(min(255, max(0, v/hi*255)))
	}
	return out
}
