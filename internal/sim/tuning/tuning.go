package tuning

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tuning holds the compiled-in terrain defaults, optionally overlaid by a
// terrain.yaml file.
type Tuning struct {
	Terrain Terrain `yaml:"terrain"`
	Noise   Noise   `yaml:"noise"`
	Erosion Erosion `yaml:"erosion"`
	Rivers  Rivers  `yaml:"rivers"`
	Undo    Undo    `yaml:"undo"`

	// Workers bounds generation and erosion parallelism. 0 = GOMAXPROCS.
	Workers int `yaml:"workers"`
}

type Terrain struct {
	ChunkSize      int     `yaml:"chunk_size"`
	WorldWidth     int     `yaml:"world_width"`
	WorldHeight    int     `yaml:"world_height"`
	CellSizeMeters float32 `yaml:"cell_size_meters"`
	MaxElevation   float32 `yaml:"max_elevation"`
	SeaLevel       float32 `yaml:"sea_level"`
	Seed           uint32  `yaml:"seed"`
	Theme          string  `yaml:"theme"`
}

type Noise struct {
	ContinentFrequency float64 `yaml:"continent_frequency"`
	ContinentOctaves   int     `yaml:"continent_octaves"`
	MountainFrequency  float64 `yaml:"mountain_frequency"`
	MountainOctaves    int     `yaml:"mountain_octaves"`
	HillFrequency      float64 `yaml:"hill_frequency"`
	HillOctaves        int     `yaml:"hill_octaves"`
	DetailFrequency    float64 `yaml:"detail_frequency"`
	DetailOctaves      int     `yaml:"detail_octaves"`
	LandCoverage       float64 `yaml:"land_coverage"`
}

type Erosion struct {
	DropletsPerIteration   int     `yaml:"droplets_per_iteration"`
	MaxLifetime            int     `yaml:"max_lifetime"`
	ErosionRadius          int     `yaml:"erosion_radius"`
	Inertia                float32 `yaml:"inertia"`
	SedimentCapacityFactor float32 `yaml:"sediment_capacity_factor"`
	MinSedimentCapacity    float32 `yaml:"min_sediment_capacity"`
	ErosionSpeed           float32 `yaml:"erosion_speed"`
	DepositionSpeed        float32 `yaml:"deposition_speed"`
	EvaporationRate        float32 `yaml:"evaporation_rate"`
	Gravity                float32 `yaml:"gravity"`
	BatchSize              int     `yaml:"batch_size"`
}

type Rivers struct {
	GenerateThreshold  float32 `yaml:"generate_threshold"`
	HydrologyThreshold float32 `yaml:"hydrology_threshold"`
}

type Undo struct {
	MaxEntries int `yaml:"max_entries"`
}

func Defaults() Tuning {
	return Tuning{
		Terrain: Terrain{
			ChunkSize:      128,
			WorldWidth:     2048,
			WorldHeight:    2048,
			CellSizeMeters: 100,
			MaxElevation:   4000,
			SeaLevel:       0.2,
			Seed:           12345,
			Theme:          "FANTASY",
		},
		Noise: Noise{
			ContinentFrequency: 0.00005,
			ContinentOctaves:   3,
			MountainFrequency:  0.0002,
			MountainOctaves:    4,
			HillFrequency:      0.0005,
			HillOctaves:        3,
			DetailFrequency:    0.001,
			DetailOctaves:      2,
			LandCoverage:       0.45,
		},
		Erosion: Erosion{
			DropletsPerIteration:   1000,
			MaxLifetime:            64,
			ErosionRadius:          3,
			Inertia:                0.1,
			SedimentCapacityFactor: 6,
			MinSedimentCapacity:    0.01,
			ErosionSpeed:           0.5,
			DepositionSpeed:        0.3,
			EvaporationRate:        0.02,
			Gravity:                8,
			BatchSize:              256,
		},
		Rivers: Rivers{
			GenerateThreshold:  1000,
			HydrologyThreshold: 500,
		},
		Undo:    Undo{MaxEntries: 1000},
		Workers: 0,
	}
}

// Load overlays the YAML file at path on Defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if strings.TrimSpace(path) == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("terrain.yaml: %w", err)
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("terrain.yaml: %w", err)
	}
	return t, nil
}

func (t *Tuning) Normalize() {
	if t == nil {
		return
	}
	t.Terrain.Theme = strings.ToUpper(strings.TrimSpace(t.Terrain.Theme))
	if t.Terrain.Theme == "" {
		t.Terrain.Theme = "FANTASY"
	}
	if t.Workers < 0 {
		t.Workers = 0
	}
	if t.Erosion.BatchSize <= 0 {
		t.Erosion.BatchSize = Defaults().Erosion.BatchSize
	}
}

func (t Tuning) Validate() error {
	tr := t.Terrain
	switch {
	case tr.ChunkSize <= 0:
		return fmt.Errorf("terrain.chunk_size must be > 0")
	case tr.WorldWidth <= 0 || tr.WorldHeight <= 0:
		return fmt.Errorf("terrain.world_width/world_height must be > 0")
	case tr.CellSizeMeters <= 0:
		return fmt.Errorf("terrain.cell_size_meters must be > 0")
	case tr.MaxElevation <= 0:
		return fmt.Errorf("terrain.max_elevation must be > 0")
	case !(tr.SeaLevel >= 0 && tr.SeaLevel <= 1):
		return fmt.Errorf("terrain.sea_level must be in [0,1]")
	}
	switch tr.Theme {
	case "FANTASY", "MODERN", "SCIFI":
	default:
		return fmt.Errorf("terrain.theme: unknown theme %q", tr.Theme)
	}
	if t.Erosion.MaxLifetime < 0 || t.Erosion.ErosionRadius < 0 || t.Erosion.DropletsPerIteration < 0 {
		return fmt.Errorf("erosion: counts must be >= 0")
	}
	if t.Undo.MaxEntries <= 0 {
		return fmt.Errorf("undo.max_entries must be > 0")
	}
	return nil
}
