package rules

import (
	"reflect"
	"testing"
)

func baseSet() *Set {
	return &Set{
		Structures: map[string]*StructureDef{
			"house": {
				Name:          "house",
				StructureType: "residential",
				Footprint: []FootprintCell{
					{Q: 0, R: 0, Terrain: "Wall"},
					{Q: 1, R: 0, Terrain: "Wall"},
				},
				RequiredTerrain:       "Plain",
				ElevationRequirements: &ElevationRequirement{Min: 0, Max: 6},
				Tags:                  []string{"building"},
			},
		},
		Templates: map[string]*Template{},
	}
}

func TestResolveInheritsUnsetFields(t *testing.T) {
	set := baseSet()
	variant := &StructureDef{
		Name:           "stone_house",
		ParentTemplate: "house",
		Tags:           []string{"building", "stone"},
	}
	set.Structures["stone_house"] = variant

	resolved, err := variant.Resolve(set)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.StructureType != "residential" {
		t.Errorf("structure_type = %q, want inherited residential", resolved.StructureType)
	}
	if len(resolved.Footprint) != 2 {
		t.Errorf("footprint = %d cells, want inherited 2", len(resolved.Footprint))
	}
	if resolved.RequiredTerrain != "Plain" {
		t.Errorf("required_terrain = %q, want inherited Plain", resolved.RequiredTerrain)
	}
	if len(resolved.Tags) != 2 || resolved.Tags[1] != "stone" {
		t.Errorf("tags = %v, want override to win", resolved.Tags)
	}
	if resolved.ParentTemplate != "" {
		t.Error("resolved def should not keep a parent reference")
	}
}

// Resolving a child with no overrides yields the base, and resolving
// an already-resolved def changes nothing.
func TestResolveIdempotent(t *testing.T) {
	set := baseSet()
	variant := &StructureDef{Name: "plain_house", ParentTemplate: "house"}
	set.Structures["plain_house"] = variant

	once, err := variant.Resolve(set)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	twice, err := once.Resolve(set)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second resolve changed the def:\n once: %+v\ntwice: %+v", once, twice)
	}
	base := set.Structures["house"]
	if once.StructureType != base.StructureType || len(once.Footprint) != len(base.Footprint) {
		t.Errorf("no-override child diverged from base: %+v", once)
	}
}

func TestResolveOverrideWins(t *testing.T) {
	set := baseSet()
	variant := &StructureDef{
		Name:                  "hut",
		ParentTemplate:        "house",
		Footprint:             []FootprintCell{{Q: 0, R: 0, Terrain: "Rough"}},
		ElevationRequirements: &ElevationRequirement{Min: 2, Max: 4, RelativeToBase: true},
	}
	set.Structures["hut"] = variant

	resolved, err := variant.Resolve(set)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.Footprint) != 1 || resolved.Footprint[0].Terrain != "Rough" {
		t.Errorf("footprint = %v, want override", resolved.Footprint)
	}
	if !resolved.ElevationRequirements.RelativeToBase {
		t.Error("elevation requirements should be the override's")
	}
}

func TestResolveTransitiveChain(t *testing.T) {
	set := baseSet()
	set.Structures["mid"] = &StructureDef{
		Name:           "mid",
		ParentTemplate: "house",
		RequiredTerrain: "Sand",
	}
	leaf := &StructureDef{Name: "leaf", ParentTemplate: "mid"}
	set.Structures["leaf"] = leaf

	resolved, err := leaf.Resolve(set)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.RequiredTerrain != "Sand" {
		t.Errorf("required_terrain = %q, want Sand from mid ancestor", resolved.RequiredTerrain)
	}
	if resolved.StructureType != "residential" {
		t.Errorf("structure_type = %q, want residential from root ancestor", resolved.StructureType)
	}
}

func TestResolveDetectsCycle(t *testing.T) {
	set := baseSet()
	set.Structures["a"] = &StructureDef{Name: "a", StructureType: "x", ParentTemplate: "b"}
	set.Structures["b"] = &StructureDef{Name: "b", StructureType: "x", ParentTemplate: "a"}

	if _, err := set.Structures["a"].Resolve(set); err == nil {
		t.Fatal("expected inheritance cycle error")
	}
}

func TestResolveMissingParent(t *testing.T) {
	set := baseSet()
	orphan := &StructureDef{Name: "orphan", ParentTemplate: "ghost"}
	if _, err := orphan.Resolve(set); err == nil {
		t.Fatal("expected missing parent error")
	}
}
