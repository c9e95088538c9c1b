// Base terrain bootstrap using layered simplex noise. Produces the
// blank-slate map the rule engine generates into: elevation and a
// coarse terrain classification, no structures.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// GenesisConfig holds base terrain parameters.
type GenesisConfig struct {
	Radius   int   // Hex grid radius
	Seed     int64 // Noise seed
	SeaLevel int   // Elevation at or below which terrain is water (<= 0)
	SnowLine int   // Elevation at or above which terrain is snow (>= SnowMinElevation)
}

// DefaultGenesisConfig returns a reasonable starting configuration.
func DefaultGenesisConfig() GenesisConfig {
	return GenesisConfig{
		Radius:   24,
		Seed:     1,
		SeaLevel: 0,
		SnowLine: 9,
	}
}

// Genesis creates a base map with terrain and elevation derived from
// layered noise. Deterministic for a given config.
func Genesis(cfg GenesisConfig) *Map {
	if cfg.SeaLevel > WaterMaxElevation {
		cfg.SeaLevel = WaterMaxElevation
	}
	if cfg.SnowLine < SnowMinElevation {
		cfg.SnowLine = SnowMinElevation
	}

	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	moistNoise := opensimplex.NewNormalized(cfg.Seed + 1)

	m := NewMap(cfg.Radius)

	for _, coord := range hexgrid.Range(hexgrid.Coord{}, cfg.Radius) {
		// Hex axial -> cartesian for noise sampling.
		x := float64(coord.Q) + float64(coord.R)*0.5
		y := float64(coord.R) * math.Sqrt(3.0) / 2.0

		elev01 := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
		moist := octaveNoise(moistNoise, x, y, 3, 0.06, 0.5)

		// Continental shaping: sink elevation near the rim so the map
		// edge tends toward water.
		distFromCenter := math.Sqrt(x*x+y*y) / float64(cfg.Radius)
		falloff := 1.0 - math.Pow(distFromCenter, 3.5)
		if falloff < 0 {
			falloff = 0
		}
		elev01 *= falloff

		// Scale to the integer band [-3, 12].
		elevation := int(math.Round(elev01*15.0)) - 3

		terrain, elevation := deriveTerrain(elevation, moist, cfg)
		cell := &Cell{
			Coord:     coord,
			Terrain:   terrain,
			Elevation: elevation,
		}
		if terrain == TerrainWater {
			depth := cfg.SeaLevel - elevation + 1
			if depth < 1 {
				depth = 1
			}
			cell.WaterDepth = depth
		}
		m.Hexes[coord] = cell
	}

	return m
}

// deriveTerrain classifies a cell from elevation and moisture. The
// returned elevation is adjusted where a terrain's band demands it
// (water surfaces at sea level), never clamped silently elsewhere.
func deriveTerrain(elevation int, moist float64, cfg GenesisConfig) (Terrain, int) {
	if elevation <= cfg.SeaLevel {
		if elevation > WaterMaxElevation {
			elevation = WaterMaxElevation
		}
		return TerrainWater, elevation
	}
	if elevation >= cfg.SnowLine {
		return TerrainSnow, elevation
	}
	if elevation >= 6 {
		return TerrainRough, elevation
	}
	if moist < 0.28 {
		return TerrainSand, elevation
	}
	if moist > 0.72 && elevation <= 1 {
		return TerrainSwamp, elevation
	}
	if moist > 0.55 && elevation >= 4 {
		return TerrainRough, elevation
	}
	return TerrainPlain, elevation
}

// octaveNoise layers multiple noise frequencies for natural terrain.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0
	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}
