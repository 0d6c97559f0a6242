package gen

import (
	"math"

	"worldweaver.ai/internal/sim/world/logic/mathx"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

var (
	lowlandTop = math.Pow(0.3, 0.6)
	midlandTop = lowlandTop + math.Pow(0.3, 0.8)*0.4
)

// PostProcess renormalizes every height in chs to [0,1] and then applies
// the ocean deepening curve and the three-segment land curve around
// seaLevel. Chunks are modified in place, so they must not be published yet.
func PostProcess(chs []*store.Chunk, seaLevel float32) {
	lo, hi := float32(math.MaxFloat32), float32(-math.MaxFloat32)
	for _, ch := range chs {
		for _, h := range ch.Heights {
			lo = min(lo, h)
			hi = max(hi, h)
		}
	}
	rng := hi - lo
	for _, ch := range chs {
		for i, h := range ch.Heights {
			if rng > 0 {
				h = (h - lo) / rng
			}
			ch.Heights[i] = Remap(h, seaLevel)
		}
	}
}

// Remap is the post-process curve for one normalized height.
func Remap(h, seaLevel float32) float32 {
	sea := float64(seaLevel)
	x := float64(h)
	if x < sea {
		d := x / sea
		return mathx.Clamp01(float32(d * d * sea * 0.8))
	}
	if sea >= 1 {
		return mathx.Clamp01(h)
	}
	land := (x - sea) / (1 - sea)
	var adj float64
	switch {
	case land < 0.3:
		adj = math.Pow(land, 0.6)
	case land < 0.6:
		adj = lowlandTop + math.Pow(land-0.3, 0.8)*0.4
	default:
		adj = midlandTop + math.Pow(land-0.6, 1.5)*0.4
	}
	return mathx.Clamp01(float32(sea + adj*(1-sea)*1.2))
}
