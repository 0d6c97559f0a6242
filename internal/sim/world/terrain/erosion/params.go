package erosion

import "worldweaver.ai/internal/sim/tuning"

// Params configures droplet erosion over a row-major height buffer.
type Params struct {
	Droplets               int
	MaxLifetime            int
	Radius                 int
	Inertia                float32
	SedimentCapacityFactor float32
	MinSedimentCapacity    float32
	ErosionSpeed           float32
	DepositionSpeed        float32
	EvaporationRate        float32
	Gravity                float32

	// Seed and BatchSize fix the result of ErodeParallel; Workers does not.
	Seed      uint64
	BatchSize int
	Workers   int

	// Spawns, when set, replace uniform spawning: each droplet starts at one
	// of these points picked with probability proportional to Weight.
	Spawns []Spawn
}

type Spawn struct {
	X, Z   float32
	Weight float32
}

func DefaultParams() Params {
	return Params{
		Droplets:               200_000,
		MaxLifetime:            64,
		Radius:                 3,
		Inertia:                0.1,
		SedimentCapacityFactor: 6,
		MinSedimentCapacity:    0.01,
		ErosionSpeed:           0.5,
		DepositionSpeed:        0.3,
		EvaporationRate:        0.02,
		Gravity:                8,
		BatchSize:              256,
	}
}

// FromTuning builds Params from the erosion section; Droplets is left at 0
// for the caller to size.
func FromTuning(t tuning.Erosion) Params {
	return Params{
		MaxLifetime:            t.MaxLifetime,
		Radius:                 t.ErosionRadius,
		Inertia:                t.Inertia,
		SedimentCapacityFactor: t.SedimentCapacityFactor,
		MinSedimentCapacity:    t.MinSedimentCapacity,
		ErosionSpeed:           t.ErosionSpeed,
		DepositionSpeed:        t.DepositionSpeed,
		EvaporationRate:        t.EvaporationRate,
		Gravity:                t.Gravity,
		BatchSize:              t.BatchSize,
	}
}
