package gen

import (
	"math"

	"github.com/ojrac/opensimplex-go"
)

// fractal is a fractal Brownian motion sum over opensimplex, normalized by
// the total amplitude so the output stays in roughly [-1,1].
type fractal struct {
	noise       opensimplex.Noise
	octaves     int
	frequency   float64
	persistence float64
	lacunarity  float64
}

func newFractal(seed int64, octaves int, frequency, persistence, lacunarity float64) fractal {
	if octaves < 1 {
		octaves = 1
	}
	return fractal{
		noise:       opensimplex.New(seed),
		octaves:     octaves,
		frequency:   frequency,
		persistence: persistence,
		lacunarity:  lacunarity,
	}
}

func (f fractal) At(x, z float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	freq := f.frequency
	for i := 0; i < f.octaves; i++ {
		total += f.noise.Eval2(x*freq, z*freq) * amplitude
		maxVal += amplitude
		amplitude *= f.persistence
		freq *= f.lacunarity
	}
	return total / maxVal
}

// ridged is a ridged multifractal: each octave contributes (1-|n|)², weighted
// by the previous octave's signal so ridges sharpen where earlier ones rose.
type ridged struct {
	noise      opensimplex.Noise
	octaves    int
	frequency  float64
	lacunarity float64
}

func newRidged(seed int64, octaves int, frequency, lacunarity float64) ridged {
	if octaves < 1 {
		octaves = 1
	}
	return ridged{
		noise:      opensimplex.New(seed),
		octaves:    octaves,
		frequency:  frequency,
		lacunarity: lacunarity,
	}
}

func (r ridged) At(x, z float64) float64 {
	const gain = 2.0
	total := 0.0
	maxVal := 0.0
	weight := 1.0
	freq := r.frequency
	for i := 0; i < r.octaves; i++ {
		signal := 1 - math.Abs(r.noise.Eval2(x*freq, z*freq))
		signal *= signal
		signal *= weight
		weight = math.Max(0, math.Min(1, signal*gain))

		spectral := math.Pow(r.lacunarity, -float64(i))
		total += signal * spectral
		maxVal += spectral
		freq *= r.lacunarity
	}
	// total/maxVal is in [0,1]; shift to [-1,1] like the fbm layers.
	return total/maxVal*2 - 1
}
