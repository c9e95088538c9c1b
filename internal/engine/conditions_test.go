package engine

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/rules"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// stubEnv returns fixed environment readings for tests.
type stubEnv struct {
	wind  float64
	slope float64
	view  int
}

func (e stubEnv) WindAt(hexgrid.Coord) float64            { return e.wind }
func (e stubEnv) SlopeBetween(a, b hexgrid.Coord) float64 { return e.slope }
func (e stubEnv) VisibleRange(hexgrid.Coord) int          { return e.view }

func flatWorld(t *testing.T, radius int) *world.Map {
	t.Helper()
	m := world.NewMap(radius)
	for _, c := range hexgrid.Range(hexgrid.Coord{}, radius) {
		if err := m.SetCell(c, world.TerrainPlain, 2); err != nil {
			t.Fatalf("SetCell(%v): %v", c, err)
		}
	}
	return m
}

func placeTestStructure(t *testing.T, m *world.Map, idx *world.Index, stype string, cells ...hexgrid.Coord) *world.Structure {
	t.Helper()
	s := &world.Structure{
		ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%v", stype, cells[0]))),
		Name:   stype,
		Type:   stype,
		Origin: cells[0],
		Cells:  cells,
	}
	if err := m.AddStructure(s); err != nil {
		t.Fatalf("AddStructure: %v", err)
	}
	idx.AddStructure(s)
	return s
}

func newTestEvaluator(m *world.Map, env Environment) (*Evaluator, *world.Index) {
	idx := world.NewIndex(m)
	return &Evaluator{World: m, Index: idx, Env: env}, idx
}

func TestEvalTerrainAndElevation(t *testing.T) {
	m := flatWorld(t, 4)
	if err := m.SetCell(hexgrid.Coord{Q: 1, R: 0}, world.TerrainRough, 7); err != nil {
		t.Fatal(err)
	}
	ev, _ := newTestEvaluator(m, stubEnv{})

	cases := []struct {
		name string
		cond rules.Condition
		at   hexgrid.Coord
		want bool
	}{
		{"terrain match", rules.Condition{Type: rules.CondTerrainType, Terrain: "Plain"}, hexgrid.Coord{}, true},
		{"terrain mismatch", rules.Condition{Type: rules.CondTerrainType, Terrain: "Rough"}, hexgrid.Coord{}, false},
		{"elevation inside", rules.Condition{Type: rules.CondElevationRange, Min: 0, Max: 5}, hexgrid.Coord{}, true},
		{"elevation below", rules.Condition{Type: rules.CondElevationRange, Min: 3, Max: 5}, hexgrid.Coord{}, false},
		{"elevation above", rules.Condition{Type: rules.CondElevationRange, Min: 0, Max: 5}, hexgrid.Coord{Q: 1, R: 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, why := ev.Eval(&tc.cond, tc.at)
			if got != tc.want {
				t.Errorf("Eval = %v (%s), want %v", got, why, tc.want)
			}
		})
	}
}

func TestEvalNearWater(t *testing.T) {
	m := flatWorld(t, 5)
	if err := m.SetCell(hexgrid.Coord{Q: 3, R: 0}, world.TerrainWater, -1); err != nil {
		t.Fatal(err)
	}
	ev, _ := newTestEvaluator(m, stubEnv{})

	near := rules.Condition{Type: rules.CondNearWater, Distance: 3}
	if ok, why := ev.Eval(&near, hexgrid.Coord{}); !ok {
		t.Errorf("water at distance 3 should satisfy NearWater(3): %s", why)
	}
	far := rules.Condition{Type: rules.CondNearWater, Distance: 2}
	if ok, _ := ev.Eval(&far, hexgrid.Coord{}); ok {
		t.Error("water at distance 3 should fail NearWater(2)")
	}
}

// MinDistanceFrom is vacuously true with no instances of the type on
// the map; MaxDistanceFrom and AdjacentTo are false.
func TestEvalDistancePredicatesVacuous(t *testing.T) {
	m := flatWorld(t, 4)
	ev, _ := newTestEvaluator(m, stubEnv{})
	at := hexgrid.Coord{}

	min := rules.Condition{Type: rules.CondMinDistanceFrom, StructureType: "civic", Distance: 5}
	if ok, _ := ev.Eval(&min, at); !ok {
		t.Error("MinDistanceFrom with no instances should be true")
	}
	max := rules.Condition{Type: rules.CondMaxDistanceFrom, StructureType: "civic", Distance: 5}
	if ok, _ := ev.Eval(&max, at); ok {
		t.Error("MaxDistanceFrom with no instances should be false")
	}
	adj := rules.Condition{Type: rules.CondAdjacentTo, StructureType: "civic"}
	if ok, _ := ev.Eval(&adj, at); ok {
		t.Error("AdjacentTo with no instances should be false")
	}
}

func TestEvalDistancePredicates(t *testing.T) {
	m := flatWorld(t, 6)
	ev, idx := newTestEvaluator(m, stubEnv{})
	placeTestStructure(t, m, idx, "civic", hexgrid.Coord{Q: 3, R: 0}, hexgrid.Coord{Q: 4, R: 0})

	at := hexgrid.Coord{} // distance 3 to the nearest civic cell

	cases := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{"min ok", rules.Condition{Type: rules.CondMinDistanceFrom, StructureType: "civic", Distance: 3}, true},
		{"min violated", rules.Condition{Type: rules.CondMinDistanceFrom, StructureType: "civic", Distance: 4}, false},
		{"max ok", rules.Condition{Type: rules.CondMaxDistanceFrom, StructureType: "civic", Distance: 3}, true},
		{"max violated", rules.Condition{Type: rules.CondMaxDistanceFrom, StructureType: "civic", Distance: 2}, false},
		{"not adjacent", rules.Condition{Type: rules.CondAdjacentTo, StructureType: "civic"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, why := ev.Eval(&tc.cond, at); got != tc.want {
				t.Errorf("Eval = %v (%s), want %v", got, why, tc.want)
			}
		})
	}

	adj := rules.Condition{Type: rules.CondAdjacentTo, StructureType: "civic"}
	if ok, _ := ev.Eval(&adj, hexgrid.Coord{Q: 2, R: 0}); !ok {
		t.Error("cell one step from a civic cell should be adjacent")
	}
}

func TestEvalEnvironmentPredicates(t *testing.T) {
	m := flatWorld(t, 3)
	ev, _ := newTestEvaluator(m, stubEnv{wind: 0.6, slope: 10, view: 4})
	at := hexgrid.Coord{}

	cases := []struct {
		name string
		cond rules.Condition
		want bool
	}{
		{"slope inside", rules.Condition{Type: rules.CondSlopeRange, MinDegrees: 5, MaxDegrees: 15}, true},
		{"slope outside", rules.Condition{Type: rules.CondSlopeRange, MinDegrees: 20, MaxDegrees: 45}, false},
		{"view enough", rules.Condition{Type: rules.CondViewDistance, Min: 4}, true},
		{"view short", rules.Condition{Type: rules.CondViewDistance, Min: 5}, false},
		{"wind inside", rules.Condition{Type: rules.CondWindExposure, MinExposure: 0.5, MaxExposure: 0.8}, true},
		{"wind outside", rules.Condition{Type: rules.CondWindExposure, MinExposure: 0.0, MaxExposure: 0.5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got, why := ev.Eval(&tc.cond, at); got != tc.want {
				t.Errorf("Eval = %v (%s), want %v", got, why, tc.want)
			}
		})
	}
}

func TestEvalResourceAndRoad(t *testing.T) {
	m := flatWorld(t, 4)
	ev, idx := newTestEvaluator(m, stubEnv{})
	m.AddDeposit(hexgrid.Coord{Q: 2, R: 0}, "wood", 40)
	idx.MarkRoad([]hexgrid.Coord{{Q: 0, R: 2}})
	at := hexgrid.Coord{}

	res := rules.Condition{Type: rules.CondResourceAvailable, Resource: "wood", Amount: 30, Distance: 2}
	if ok, why := ev.Eval(&res, at); !ok {
		t.Errorf("40 wood within 2 should satisfy: %s", why)
	}
	res.Distance = 1
	if ok, _ := ev.Eval(&res, at); ok {
		t.Error("deposit at distance 2 should fail with radius 1")
	}
	res.Distance, res.Amount = 2, 50
	if ok, _ := ev.Eval(&res, at); ok {
		t.Error("40 wood should fail an amount of 50")
	}

	road := rules.Condition{Type: rules.CondRoadAccess, Distance: 2}
	if ok, why := ev.Eval(&road, at); !ok {
		t.Errorf("road at distance 2 should satisfy: %s", why)
	}
	road.Distance = 1
	if ok, _ := ev.Eval(&road, at); ok {
		t.Error("road at distance 2 should fail RoadAccess(1)")
	}
}

func TestEvalCombinators(t *testing.T) {
	m := flatWorld(t, 3)
	ev, _ := newTestEvaluator(m, stubEnv{})
	at := hexgrid.Coord{}

	plain := rules.Condition{Type: rules.CondTerrainType, Terrain: "Plain"}
	water := rules.Condition{Type: rules.CondTerrainType, Terrain: "Water"}

	and := rules.Condition{Type: rules.CondAnd, Conditions: []rules.Condition{plain, water}}
	if ok, why := ev.Eval(&and, at); ok || why != "TerrainType(Water)" {
		t.Errorf("And = %v (%q), want failure naming the water leaf", ok, why)
	}

	or := rules.Condition{Type: rules.CondOr, Conditions: []rules.Condition{water, plain}}
	if ok, _ := ev.Eval(&or, at); !ok {
		t.Error("Or with one passing child should pass")
	}

	not := rules.Condition{Type: rules.CondNot, Condition: &water}
	if ok, _ := ev.Eval(&not, at); !ok {
		t.Error("Not(Water) on a plain cell should pass")
	}
	not.Condition = &plain
	if ok, _ := ev.Eval(&not, at); ok {
		t.Error("Not(Plain) on a plain cell should fail")
	}
}

func TestEvalAllImplicitAnd(t *testing.T) {
	m := flatWorld(t, 3)
	ev, _ := newTestEvaluator(m, stubEnv{})

	conds := []rules.Condition{
		{Type: rules.CondTerrainType, Terrain: "Plain"},
		{Type: rules.CondElevationRange, Min: 0, Max: 5},
	}
	if ok, _ := ev.EvalAll(conds, hexgrid.Coord{}); !ok {
		t.Error("both conditions hold, EvalAll should pass")
	}
	conds[1].Min = 3
	if ok, _ := ev.EvalAll(conds, hexgrid.Coord{}); ok {
		t.Error("failed elevation bound should fail EvalAll")
	}
}
