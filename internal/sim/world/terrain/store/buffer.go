package store

import "worldweaver.ai/internal/sim/world/logic/mathx"

// Flatten copies chunk heights into one row-major WorldWidth×WorldHeight
// buffer. Vertices past the world edge are dropped; shared border vertices
// take the value of the later chunk in chs.
func Flatten(cfg Config, chs []*Chunk) []float32 {
	w, h := cfg.WorldWidth, cfg.WorldHeight
	out := make([]float32, w*h)
	for _, ch := range chs {
		for lz := 0; lz < ch.VertexCount; lz++ {
			wz := ch.CZ*cfg.ChunkSize + lz
			if wz < 0 || wz >= h {
				continue
			}
			for lx := 0; lx < ch.VertexCount; lx++ {
				wx := ch.CX*cfg.ChunkSize + lx
				if wx < 0 || wx >= w {
					continue
				}
				out[wz*w+wx] = ch.Heights[ch.index(lx, lz)]
			}
		}
	}
	return out
}

// Scatter writes world-buffer results back into fresh chunk copies. heights
// may be nil to keep chunk heights; flow and biomes may be nil to leave the
// chunk field unchanged. Out-of-world vertices keep their height and take
// flow and biome from the nearest in-world cell.
func Scatter(cfg Config, chs []*Chunk, heights, flow []float32, biomes []uint8) []*Chunk {
	w, h := cfg.WorldWidth, cfg.WorldHeight
	out := make([]*Chunk, len(chs))
	for i, src := range chs {
		ch := src.Clone()
		n := ch.VertexCount * ch.VertexCount
		if flow != nil {
			ch.Flow = make([]float32, n)
		}
		if biomes != nil {
			ch.Biomes = make([]uint8, n)
		}
		for lz := 0; lz < ch.VertexCount; lz++ {
			wz := ch.CZ*cfg.ChunkSize + lz
			for lx := 0; lx < ch.VertexCount; lx++ {
				wx := ch.CX*cfg.ChunkSize + lx
				li := ch.index(lx, lz)
				inside := wx >= 0 && wz >= 0 && wx < w && wz < h
				if heights != nil && inside {
					ch.Heights[li] = mathx.Clamp01(heights[wz*w+wx])
				}
				if flow == nil && biomes == nil {
					continue
				}
				ci := mathx.ClampInt(wz, 0, h-1)*w + mathx.ClampInt(wx, 0, w-1)
				if flow != nil {
					ch.Flow[li] = flow[ci]
				}
				if biomes != nil {
					ch.Biomes[li] = biomes[ci]
				}
			}
		}
		out[i] = ch
	}
	return out
}

// ClampHeights clamps a world buffer into [0,1] in place.
func ClampHeights(heights []float32) {
	for i, v := range heights {
		heights[i] = mathx.Clamp01(v)
	}
}
