package biome

import (
	"worldweaver.ai/internal/protocol"
	"worldweaver.ai/internal/sim/world/logic/mathx"
	"worldweaver.ai/internal/sim/world/terrain/store"
)

type Biome uint8

const (
	Ocean Biome = iota
	Coast
	TropicalRainforest
	TemperateForest
	BorealForest
	Tundra
	Grassland
	Savanna
	Desert
	Alpine
	Glacier

	numBiomes
)

const (
	coastBand     = 0.02
	highElevation = 0.85
)

// Classify picks a biome for one sample. temperature is in °C and
// moisture in [0,1].
func Classify(elevation, temperature, moisture, seaLevel float32) Biome {
	if elevation < seaLevel {
		return Ocean
	}
	if elevation < seaLevel+coastBand {
		return Coast
	}
	if elevation > highElevation {
		if temperature < 0 {
			return Glacier
		}
		return Alpine
	}
	switch {
	case temperature < -10:
		return Tundra
	case temperature < 0:
		if moisture > 0.6 {
			return BorealForest
		}
		return Tundra
	case temperature < 15:
		switch {
		case moisture > 0.7:
			return TemperateForest
		case moisture > 0.3:
			return Grassland
		default:
			return Desert
		}
	default:
		switch {
		case moisture > 0.7:
			return TropicalRainforest
		case moisture > 0.4:
			return Savanna
		default:
			return Desert
		}
	}
}

// Temperature applies a 6.5 °C/km lapse rate to a base of 30 °C at
// latitude 0 falling to -10 °C at latitude 1.
func Temperature(elevation, latitude, maxElevation float32) float32 {
	return 30 - latitude*40 - elevation*maxElevation*0.0065
}

// Moisture advances an orographic moisture sweep by one sample: water adds
// moisture, climbing land rains it out, and land slowly dries.
func Moisture(elevation, prevElevation, moisture, seaLevel float32) float32 {
	m := moisture
	if elevation < seaLevel {
		m = min(m+0.1, 1)
	}
	if elevation > prevElevation && prevElevation >= seaLevel {
		m -= min((elevation-prevElevation)*2, m*0.5)
	}
	if elevation >= seaLevel {
		m *= 0.98
	}
	return mathx.Clamp01(m)
}

// MapWorld classifies every cell of a row-major world buffer. Each row is
// swept west to east starting from moisture 0.5.
func MapWorld(heights []float32, w, h int, cfg store.Config) ([]uint8, error) {
	if w <= 0 || h <= 0 || len(heights) != w*h {
		return nil, protocol.Errorf(protocol.ErrInvalidArgument, "biome map: buffer length %d does not match %dx%d", len(heights), w, h)
	}
	out := make([]uint8, w*h)
	for z := 0; z < h; z++ {
		lat := float32(0)
		if h > 1 {
			lat = float32(z) / float32(h-1)
		}
		m := float32(0.5)
		prev := heights[z*w]
		for x := 0; x < w; x++ {
			e := heights[z*w+x]
			m = Moisture(e, prev, m, cfg.SeaLevel)
			t := Temperature(e, lat, cfg.MaxElevation)
			out[z*w+x] = uint8(Classify(e, t, m, cfg.SeaLevel))
			prev = e
		}
	}
	return out, nil
}
