package erosion

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/logic/mathx"
)

func checkBuffer(heights []float32, w, h int) error {
	if w <= 0 || h <= 0 {
		return protocol.Errorf(protocol.ErrInvalidArgument, "erosion buffer dimensions must be > 0 (got %dx%d)", w, h)
	}
	if len(heights) != w*h {
		return protocol.Errorf(protocol.ErrInvalidArgument, "erosion buffer length %d != %d*%d", len(heights), w, h)
	}
	return nil
}

// Erode runs every droplet in order on the live buffer; each droplet sees
// the edits of the ones before it.
func Erode(heights []float32, w, h int, p Params) error {
	if err := checkBuffer(heights, w, h); err != nil {
		return err
	}
	if w < 2 || h < 2 {
		return nil
	}
	g := grid{h: heights, w: w, d: h}
	wk := newWalker(p)
	emit := func(i int, d float32) { heights[i] = mathx.Clamp01(heights[i] + d) }
	for i := 0; i < p.Droplets; i++ {
		wk.run(g, dropletRNG(p.Seed, i), emit)
	}
	return nil
}

type delta struct {
	idx int32
	d   float32
}

// ErodeParallel simulates droplets in batches of BatchSize. Inside a batch
// every droplet walks the buffer as it stood at the start of the batch and
// records its deltas; the batch is then committed in droplet order. The
// result depends only on the buffer, Seed and BatchSize.
func ErodeParallel(heights []float32, w, h int, p Params) error {
	if err := checkBuffer(heights, w, h); err != nil {
		return err
	}
	if w < 2 || h < 2 || p.Droplets <= 0 {
		return nil
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	batch := p.BatchSize
	if batch <= 0 {
		batch = DefaultParams().BatchSize
	}

	g := grid{h: heights, w: w, d: h}
	wk := newWalker(p)
	out := make([][]delta, batch)

	for start := 0; start < p.Droplets; start += batch {
		n := min(batch, p.Droplets-start)

		var eg errgroup.Group
		eg.SetLimit(workers)
		per := (n + workers - 1) / workers
		for lo := 0; lo < n; lo += per {
			hi := min(lo+per, n)
			eg.Go(func() error {
				for j := lo; j < hi; j++ {
					buf := out[j][:0]
					wk.run(g, dropletRNG(p.Seed, start+j), func(i int, d float32) {
						buf = append(buf, delta{idx: int32(i), d: d})
					})
					out[j] = buf
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}

		for j := 0; j < n; j++ {
			for _, c := range out[j] {
				heights[c.idx] = mathx.Clamp01(heights[c.idx] + c.d)
			}
		}
	}
	return nil
}

// Thermal relaxes slopes steeper than tan(talusAngle) between 8-neighbors,
// moving 10% of half the excess difference per pass.
func Thermal(heights []float32, w, h int, talusAngle float32, iterations int) error {
	if err := checkBuffer(heights, w, h); err != nil {
		return err
	}
	threshold := float32(math.Tan(float64(talusAngle)))
	changes := make([]float32, len(heights))
	for it := 0; it < iterations; it++ {
		clear(changes)
		for z := 0; z < h; z++ {
			for x := 0; x < w; x++ {
				i := z*w + x
				for k := 0; k < 8; k++ {
					nx, nz := x+neighborDX[k], z+neighborDZ[k]
					if nx < 0 || nz < 0 || nx >= w || nz >= h {
						continue
					}
					ni := nz*w + nx
					if diff := heights[i] - heights[ni]; diff > threshold {
						t := diff * 0.5
						changes[i] -= t
						changes[ni] += t
					}
				}
			}
		}
		for i := range heights {
			heights[i] = mathx.Clamp01(heights[i] + changes[i]*0.1)
		}
	}
	return nil
}

var (
	neighborDX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	neighborDZ = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)
