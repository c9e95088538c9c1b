// Package world provides the hex cell store, terrain model, structure
// registry, and spatial queries used by the generation engine.
package world

import "fmt"

// Terrain types for hex cells.
type Terrain uint8

const (
	TerrainPlain Terrain = iota // Basic traversable terrain
	TerrainRough                // Thick brush, rocky ground
	TerrainWater                // Depth tracked per cell
	TerrainWall                 // Impassable construction
	TerrainSand
	TerrainSnow
	TerrainSwamp
	TerrainLava
)

// Elevation bands. Cells outside their terrain's band are a
// generation error, never silently clamped.
const (
	ElevationFloor = -10
	ElevationCeil  = 15

	WaterMaxElevation = 0 // Water can't sit above sea level
	SnowMinElevation  = 5 // Snow only at high elevations
	LavaMaxElevation  = 2 // Lava only at low elevations
)

// Impassable is the movement cost of terrain that cannot be crossed.
const Impassable = int(^uint(0) >> 1)

// MoveCost returns the base movement cost for a terrain type.
func MoveCost(t Terrain) int {
	switch t {
	case TerrainPlain:
		return 1
	case TerrainRough, TerrainSand, TerrainSnow:
		return 2
	case TerrainWater, TerrainSwamp:
		return 3
	case TerrainWall, TerrainLava:
		return Impassable
	default:
		return 1
	}
}

// CheckElevation reports whether a terrain type is valid at the given
// elevation. Returns a descriptive error when the band is violated.
func CheckElevation(t Terrain, elevation int) error {
	switch t {
	case TerrainWater:
		if elevation > WaterMaxElevation {
			return fmt.Errorf("water at elevation %d (max %d)", elevation, WaterMaxElevation)
		}
	case TerrainSnow:
		if elevation < SnowMinElevation {
			return fmt.Errorf("snow at elevation %d (min %d)", elevation, SnowMinElevation)
		}
	case TerrainLava:
		if elevation > LavaMaxElevation {
			return fmt.Errorf("lava at elevation %d (max %d)", elevation, LavaMaxElevation)
		}
	default:
		if elevation < ElevationFloor || elevation > ElevationCeil {
			return fmt.Errorf("elevation %d outside [%d, %d]", elevation, ElevationFloor, ElevationCeil)
		}
	}
	return nil
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlain:
		return "Plain"
	case TerrainRough:
		return "Rough"
	case TerrainWater:
		return "Water"
	case TerrainWall:
		return "Wall"
	case TerrainSand:
		return "Sand"
	case TerrainSnow:
		return "Snow"
	case TerrainSwamp:
		return "Swamp"
	case TerrainLava:
		return "Lava"
	default:
		return "Unknown"
	}
}

// ParseTerrain converts a terrain name from a rule document.
func ParseTerrain(name string) (Terrain, error) {
	switch name {
	case "Plain":
		return TerrainPlain, nil
	case "Rough":
		return TerrainRough, nil
	case "Water":
		return TerrainWater, nil
	case "Wall":
		return TerrainWall, nil
	case "Sand":
		return TerrainSand, nil
	case "Snow":
		return TerrainSnow, nil
	case "Swamp":
		return TerrainSwamp, nil
	case "Lava":
		return TerrainLava, nil
	default:
		return 0, fmt.Errorf("unknown terrain %q", name)
	}
}
