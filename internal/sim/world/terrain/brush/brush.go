package brush

import (
	"math"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"

	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/logic/mathx"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

type Op uint8

const (
	Raise Op = iota
	Lower
	Smooth
	Flatten
	Erode
	Noise
)

var opNames = []string{"raise", "lower", "smooth", "flatten", "erode", "noise"}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

func ParseOp(name string) (Op, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range opNames {
		if s == n {
			return Op(i), nil
		}
	}
	return 0, protocol.UnknownName("brush op", name, opNames)
}

const (
	DefaultFlattenTarget = 0.5
	noiseScale           = 0.1
	erodeBlend           = 0.3
)

// Stroke is one brush application in chunk-local vertex coordinates.
type Stroke struct {
	Op       Op
	CenterX  float32
	CenterZ  float32
	Radius   float32
	Strength float32

	// Target is the flatten height.
	Target float32
	// NoiseSeed seeds the Perlin field of the noise op.
	NoiseSeed int64
}

// Apply edits ch in place and returns the rectangle of vertices it wrote.
// ch must not be published; apply to a Clone.
func Apply(ch *store.Chunk, s Stroke) store.Rect {
	vc := ch.VertexCount
	if vc == 0 || !(s.Radius >= 0) || !finite(s.CenterX) || !finite(s.CenterZ) || !finite(s.Radius) {
		return store.EmptyRect()
	}
	last := float64(vc - 1)
	minX := int(clamp64(math.Floor(float64(s.CenterX-s.Radius)), 0, last))
	maxX := int(clamp64(math.Ceil(float64(s.CenterX+s.Radius)), 0, last))
	minZ := int(clamp64(math.Floor(float64(s.CenterZ-s.Radius)), 0, last))
	maxZ := int(clamp64(math.Ceil(float64(s.CenterZ+s.Radius)), 0, last))

	var src []float32
	if s.Op == Smooth || s.Op == Erode {
		src = append([]float32(nil), ch.Heights...)
	}
	var pn *perlin.Perlin
	if s.Op == Noise {
		pn = perlin.NewPerlin(2, 2, 3, s.NoiseSeed)
	}

	center := mgl32.Vec2{s.CenterX, s.CenterZ}
	touched := store.EmptyRect()
	for z := minZ; z <= maxZ; z++ {
		for x := minX; x <= maxX; x++ {
			dist := mgl32.Vec2{float32(x), float32(z)}.Sub(center).Len()
			if dist > s.Radius {
				continue
			}
			falloff := mathx.GaussianFalloff(dist, s.Radius)
			i := z*vc + x
			h := ch.Heights[i]
			switch s.Op {
			case Raise:
				h += s.Strength * falloff * 0.01
			case Lower:
				h -= s.Strength * falloff * 0.01
			case Smooth:
				k := mathx.Clamp01(s.Strength * falloff)
				h = mathx.Lerp(src[i], boxAverage(src, vc, x, z, 1), k)
			case Flatten:
				k := mathx.Clamp01(s.Strength * falloff)
				h = mathx.Lerp(h, s.Target, k)
			case Erode:
				h = mathx.Lerp(src[i], boxAverage(src, vc, x, z, 2), erodeBlend*falloff)
			case Noise:
				n := float32(pn.Noise2D(float64(x)*noiseScale, float64(z)*noiseScale))
				h += n * s.Strength * falloff * 0.01
			}
			ch.Heights[i] = mathx.Clamp01(h)
			touched = touched.Add(x, z)
		}
	}
	return touched
}

// boxAverage averages a (2k+1)² window with edge-clamped coordinates.
func boxAverage(h []float32, vc, x, z, k int) float32 {
	sum := float32(0)
	n := 0
	for dz := -k; dz <= k; dz++ {
		nz := mathx.ClampInt(z+dz, 0, vc-1)
		for dx := -k; dx <= k; dx++ {
			nx := mathx.ClampInt(x+dx, 0, vc-1)
			sum += h[nz*vc+nx]
			n++
		}
	}
	return sum / float32(n)
}

func finite(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}

func clamp64(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
