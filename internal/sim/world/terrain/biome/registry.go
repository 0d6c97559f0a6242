package biome

import "worldweaver.ai/internal/sim/world/terrain/store"

type Definition struct {
	Name       string
	Color      [3]uint8
	ThemeNames map[store.Theme]string
}

// Registry maps every Biome to its display data. It is read-only after
// NewRegistry returns.
type Registry struct {
	defs [numBiomes]Definition
}

func def(name string, r, g, b uint8, fantasy, modern, scifi string) Definition {
	return Definition{
		Name:  name,
		Color: [3]uint8{r, g, b},
		ThemeNames: map[store.Theme]string{
			store.ThemeFantasy: fantasy,
			store.ThemeModern:  modern,
			store.ThemeSciFi:   scifi,
		},
	}
}

func NewRegistry() *Registry {
	return &Registry{defs: [numBiomes]Definition{
		Ocean:              def("Ocean", 30, 60, 120, "The Endless Sea", "Ocean", "Liquid Expanse"),
		Coast:              def("Coast", 130, 195, 210, "Coastal Shores", "Coastline", "Shore Zone"),
		TropicalRainforest: def("Tropical Rainforest", 34, 139, 34, "Verdant Jungle", "Rainforest", "Bio-Dense Zone"),
		TemperateForest:    def("Temperate Forest", 110, 180, 80, "Ancient Woods", "Forest", "Temperate Biomass"),
		BorealForest:       def("Boreal Forest", 90, 120, 70, "Northern Pines", "Taiga", "Cold Forest Zone"),
		Tundra:             def("Tundra", 180, 190, 200, "Frozen Wastes", "Tundra", "Cryo-Plains"),
		Grassland:          def("Grassland", 180, 200, 110, "Rolling Plains", "Grassland", "Grass Expanse"),
		Savanna:            def("Savanna", 210, 185, 110, "Golden Savanna", "Savanna", "Dry Grassland"),
		Desert:             def("Desert", 220, 190, 140, "Scorching Sands", "Desert", "Arid Zone"),
		Alpine:             def("Alpine", 170, 120, 80, "Mountain Peaks", "Alpine", "High Altitude Zone"),
		Glacier:            def("Glacier", 245, 245, 250, "Eternal Ice", "Glacier", "Ice Sheet"),
	}}
}

func (r *Registry) Get(b Biome) (Definition, bool) {
	if b >= numBiomes {
		return Definition{}, false
	}
	return r.defs[b], true
}

// DisplayName falls back to the canonical name for unknown themes.
func (r *Registry) DisplayName(b Biome, theme store.Theme) string {
	d, ok := r.Get(b)
	if !ok {
		return ""
	}
	if n, ok := d.ThemeNames[theme]; ok {
		return n
	}
	return d.Name
}

func (r *Registry) Color(b Biome) [3]uint8 {
	d, _ := r.Get(b)
	return d.Color
}

func (b Biome) String() string {
	if b >= numBiomes {
		return "Unknown"
	}
	return builtin.defs[b].Name
}

var builtin = NewRegistry()
