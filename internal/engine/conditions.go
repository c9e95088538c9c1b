package engine

import (
	"fmt"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/rules"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// Environment is the narrow interface to external spatial providers.
// Implementations must be pure functions of world state.
type Environment interface {
	// WindAt returns wind exposure at a cell in [0, 1].
	WindAt(c hexgrid.Coord) float64
	// SlopeBetween returns the slope between two cells in degrees.
	SlopeBetween(a, b hexgrid.Coord) float64
	// VisibleRange returns the view distance from a cell in hexes.
	VisibleRange(c hexgrid.Coord) int
}

// Evaluator evaluates condition trees against a candidate cell. It is
// read-only over the world view and safe for concurrent use as long as
// the view is not mutated underneath it.
type Evaluator struct {
	World world.View
	Index *world.Index
	Env   Environment
}

// Eval evaluates a condition tree at a candidate cell. On failure the
// returned string names the failing leaf for diagnostics.
func (ev *Evaluator) Eval(c *rules.Condition, at hexgrid.Coord) (bool, string) {
	switch c.Type {
	case rules.CondTerrainType:
		cell := ev.World.Cell(at)
		want, _ := world.ParseTerrain(c.Terrain)
		if cell == nil || cell.Terrain != want {
			return false, fmt.Sprintf("TerrainType(%s)", c.Terrain)
		}
		return true, ""

	case rules.CondElevationRange:
		cell := ev.World.Cell(at)
		if cell == nil || cell.Elevation < c.Min || cell.Elevation > c.Max {
			return false, fmt.Sprintf("ElevationRange(%d..%d)", c.Min, c.Max)
		}
		return true, ""

	case rules.CondNearWater:
		if _, ok := ev.Index.NearestWater(at, c.Distance); !ok {
			return false, fmt.Sprintf("NearWater(%d)", c.Distance)
		}
		return true, ""

	case rules.CondMinDistanceFrom:
		// Vacuously true when no structure of the type exists: nothing
		// is closer than the bound.
		_, dist, ok := ev.Index.NearestStructure(at, c.StructureType)
		if ok && dist < c.Distance {
			return false, fmt.Sprintf("MinDistanceFrom(%s, %d)", c.StructureType, c.Distance)
		}
		return true, ""

	case rules.CondMaxDistanceFrom:
		_, dist, ok := ev.Index.NearestStructure(at, c.StructureType)
		if !ok || dist > c.Distance {
			return false, fmt.Sprintf("MaxDistanceFrom(%s, %d)", c.StructureType, c.Distance)
		}
		return true, ""

	case rules.CondAdjacentTo:
		// Equivalent to MaxDistanceFrom(type, 1).
		_, dist, ok := ev.Index.NearestStructure(at, c.StructureType)
		if !ok || dist > 1 {
			return false, fmt.Sprintf("AdjacentTo(%s)", c.StructureType)
		}
		return true, ""

	case rules.CondSlopeRange:
		slope := ev.maxNeighborSlope(at)
		if slope < c.MinDegrees || slope > c.MaxDegrees {
			return false, fmt.Sprintf("SlopeRange(%g..%g)", c.MinDegrees, c.MaxDegrees)
		}
		return true, ""

	case rules.CondViewDistance:
		if ev.Env.VisibleRange(at) < c.Min {
			return false, fmt.Sprintf("ViewDistance(%d)", c.Min)
		}
		return true, ""

	case rules.CondWindExposure:
		w := ev.Env.WindAt(at)
		if w < c.MinExposure || w > c.MaxExposure {
			return false, fmt.Sprintf("WindExposure(%g..%g)", c.MinExposure, c.MaxExposure)
		}
		return true, ""

	case rules.CondResourceAvailable:
		// Distance doubles as the query radius; zero queries the cell.
		if ev.Index.ResourceWithin(at, c.Distance, c.Resource) < c.Amount {
			return false, fmt.Sprintf("ResourceAvailable(%s, %d)", c.Resource, c.Amount)
		}
		return true, ""

	case rules.CondRoadAccess:
		if !ev.Index.RoadWithin(at, c.Distance) {
			return false, fmt.Sprintf("RoadAccess(%d)", c.Distance)
		}
		return true, ""

	case rules.CondAnd:
		// Short-circuits on the first false child.
		for i := range c.Conditions {
			if ok, why := ev.Eval(&c.Conditions[i], at); !ok {
				return false, why
			}
		}
		return true, ""

	case rules.CondOr:
		for i := range c.Conditions {
			if ok, _ := ev.Eval(&c.Conditions[i], at); ok {
				return true, ""
			}
		}
		return false, "Or(no child passed)"

	case rules.CondNot:
		if ok, _ := ev.Eval(c.Condition, at); ok {
			return false, fmt.Sprintf("Not(%s)", c.Condition.Type)
		}
		return true, ""

	default:
		// Unknown tags are a load-time error; reaching here means the
		// set bypassed the loader.
		return false, fmt.Sprintf("unknown condition %q", c.Type)
	}
}

// EvalAll evaluates a rule's implicit top-level AND.
func (ev *Evaluator) EvalAll(conds []rules.Condition, at hexgrid.Coord) (bool, string) {
	for i := range conds {
		if ok, why := ev.Eval(&conds[i], at); !ok {
			return false, why
		}
	}
	return true, ""
}

// maxNeighborSlope returns the steepest slope between the cell and its
// existing immediate neighbors.
func (ev *Evaluator) maxNeighborSlope(at hexgrid.Coord) float64 {
	max := 0.0
	for _, n := range at.Neighbors() {
		if ev.World.Cell(n) == nil {
			continue
		}
		s := ev.Env.SlopeBetween(at, n)
		if s > max {
			max = s
		}
	}
	return max
}
