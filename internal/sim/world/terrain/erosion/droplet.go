package erosion

import (
	"math"
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"

	"worldweaver.ai/internal/sim/world/logic/mathx"
)

type tap struct {
	dx, dz int
	w      float32
}

// kernel lists the Gaussian taps within radius of the droplet cell.
func kernel(radius int) []tap {
	var taps []tap
	for dz := -radius; dz <= radius; dz++ {
		for dx := -radius; dx <= radius; dx++ {
			d := float32(math.Sqrt(float64(dx*dx + dz*dz)))
			if d > float32(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dz: dz, w: mathx.GaussianFalloff(d, float32(radius))})
		}
	}
	return taps
}

// grid is the read side of a droplet walk.
type grid struct {
	h    []float32
	w, d int
}

func (g grid) at(x, z int) float32 { return g.h[z*g.w+x] }

func (g grid) gradient(x, z int) mgl32.Vec2 {
	h := g.at(x, z)
	return mgl32.Vec2{g.at(x+1, z) - h, g.at(x, z+1) - h}
}

func (g grid) bilinear(p mgl32.Vec2) float32 {
	ix, iz := int(p.X()), int(p.Y())
	fx, fz := p.X()-float32(ix), p.Y()-float32(iz)
	h0 := mathx.Lerp(g.at(ix, iz), g.at(ix+1, iz), fx)
	h1 := mathx.Lerp(g.at(ix, iz+1), g.at(ix+1, iz+1), fx)
	return mathx.Lerp(h0, h1, fz)
}

// walker simulates droplets. emit receives (cell index, height delta).
type walker struct {
	p    Params
	taps []tap
	cum  []float32 // cumulative spawn weights
}

func newWalker(p Params) *walker {
	wk := &walker{p: p, taps: kernel(p.Radius)}
	total := float32(0)
	for _, s := range p.Spawns {
		if s.Weight > 0 {
			total += s.Weight
		}
		wk.cum = append(wk.cum, total)
	}
	if total <= 0 {
		wk.cum = nil
	}
	return wk
}

func (wk *walker) spawn(rng *rand.Rand, g grid) mgl32.Vec2 {
	if wk.cum == nil {
		return mgl32.Vec2{rng.Float32() * float32(g.w), rng.Float32() * float32(g.d)}
	}
	r := rng.Float32() * wk.cum[len(wk.cum)-1]
	i := 0
	for i < len(wk.cum)-1 && r >= wk.cum[i] {
		i++
	}
	s := wk.p.Spawns[i]
	return mgl32.Vec2{s.X + rng.Float32() - 0.5, s.Z + rng.Float32() - 0.5}
}

func (wk *walker) spread(g grid, pos mgl32.Vec2, amount float32, emit func(int, float32)) {
	ix, iz := int(pos.X()), int(pos.Y())
	for _, t := range wk.taps {
		nx, nz := ix+t.dx, iz+t.dz
		if nx < 0 || nz < 0 || nx >= g.w || nz >= g.d {
			continue
		}
		emit(nz*g.w+nx, amount*t.w)
	}
}

// run walks one droplet over g. When emit writes into g.h the droplet sees
// its own edits; otherwise it walks the frozen buffer.
func (wk *walker) run(g grid, rng *rand.Rand, emit func(int, float32)) {
	p := wk.p
	pos := wk.spawn(rng, g)
	var dir mgl32.Vec2
	vel, water, sediment := float32(1), float32(1), float32(0)
	maxX, maxZ := float32(g.w-1), float32(g.d-1)

	for step := 0; step < p.MaxLifetime; step++ {
		if !(pos.X() >= 0 && pos.Y() >= 0 && pos.X() < maxX && pos.Y() < maxZ) {
			return
		}
		ix, iz := int(pos.X()), int(pos.Y())

		grad := g.gradient(ix, iz)
		dir = dir.Mul(p.Inertia).Sub(grad.Mul(1 - p.Inertia))
		if l := dir.Len(); l > 0 {
			dir = dir.Mul(1 / l)
		}

		next := pos.Add(dir)
		if !(next.X() >= 0 && next.Y() >= 0 && next.X() < maxX && next.Y() < maxZ) {
			return
		}

		dh := g.bilinear(next) - g.bilinear(pos)
		capacity := max(-dh, p.MinSedimentCapacity) * vel * water * p.SedimentCapacityFactor

		if sediment > capacity || dh > 0 {
			var amount float32
			if dh > 0 {
				amount = min(dh, sediment)
			} else {
				amount = (sediment - capacity) * p.DepositionSpeed
			}
			sediment -= amount
			wk.spread(g, pos, amount, emit)
		} else {
			amount := min(capacity-sediment, -dh) * p.ErosionSpeed
			wk.spread(g, pos, -amount, emit)
			sediment += amount
		}

		vel = float32(math.Sqrt(float64(max(0, vel*vel-dh*p.Gravity))))
		water *= 1 - p.EvaporationRate
		pos = next
	}
}

func dropletRNG(seed uint64, i int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(i)))
}
