package persistence

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/Vi1i/rust-harmony/internal/engine"
	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/world"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleMap(t *testing.T) *world.Map {
	t.Helper()
	m := world.NewMap(3)
	for _, c := range hexgrid.Range(hexgrid.Coord{}, 3) {
		if err := m.SetCell(c, world.TerrainPlain, 2); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.SetCell(hexgrid.Coord{Q: 2, R: 0}, world.TerrainWater, -1); err != nil {
		t.Fatal(err)
	}
	m.Cell(hexgrid.Coord{Q: 2, R: 0}).WaterDepth = 3
	m.AddDeposit(hexgrid.Coord{Q: 1, R: 1}, "wood", 25)

	s := &world.Structure{
		ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte("sample")),
		Name:   "town_hall",
		Type:   "civic",
		Origin: hexgrid.Coord{Q: -1, R: 0},
		Cells:  []hexgrid.Coord{{Q: -1, R: 0}, {Q: 0, R: 0}},
	}
	if err := m.AddStructure(s); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSaveAndLoadRun(t *testing.T) {
	db := openTestDB(t)
	m := sampleMap(t)

	report := &engine.Report{
		Diagnostics: []engine.Diagnostic{
			{Code: engine.CodeConflict, Rule: "huts", Action: 0, Coord: hexgrid.Coord{Q: 1, R: 0}, Detail: "cell claimed"},
			{Code: engine.CodeNoCandidates, Rule: "outer_walls", Action: -1, Detail: "no candidates matched"},
		},
	}

	runID, err := db.SaveRun("test", 7, m, report)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.LoadMap(runID)
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if got.Radius != m.Radius || got.CellCount() != m.CellCount() {
		t.Fatalf("restored %s, want %s", got, m)
	}

	water := got.Cell(hexgrid.Coord{Q: 2, R: 0})
	if water.Terrain != world.TerrainWater || water.Elevation != -1 || water.WaterDepth != 3 {
		t.Errorf("water cell restored as %+v", water)
	}
	if got.Deposits[hexgrid.Coord{Q: 1, R: 1}]["wood"] != 25 {
		t.Error("deposit not restored")
	}

	if len(got.Structures) != 1 {
		t.Fatalf("restored %d structures, want 1", len(got.Structures))
	}
	s := got.Structures[0]
	if s.ID != m.Structures[0].ID || s.Type != "civic" || len(s.Cells) != 2 {
		t.Errorf("structure restored as %+v", s)
	}
	cell := got.Cell(hexgrid.Coord{Q: 0, R: 0})
	if cell.Occupant == nil || *cell.Occupant != s.ID {
		t.Error("structure occupancy not restored")
	}

	diags, err := db.Diagnostics(runID)
	if err != nil {
		t.Fatalf("Diagnostics: %v", err)
	}
	if len(diags) != 2 || diags[0].Code != engine.CodeConflict || diags[1].Action != -1 {
		t.Errorf("diagnostics restored as %+v", diags)
	}
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	m := sampleMap(t)

	if _, err := db.SaveRun("first", 1, m, nil); err != nil {
		t.Fatal(err)
	}
	second, err := db.SaveRun("second", 2, m, nil)
	if err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if runs[0].ID != second || runs[0].Name != "second" {
		t.Errorf("newest run first, got %+v", runs[0])
	}
	if runs[0].Structures != 1 || runs[0].Radius != 3 {
		t.Errorf("run info = %+v", runs[0])
	}
}

func TestLoadMapPreservesPlacementOrder(t *testing.T) {
	db := openTestDB(t)
	m := world.NewMap(3)
	for _, c := range hexgrid.Range(hexgrid.Coord{}, 3) {
		if err := m.SetCell(c, world.TerrainPlain, 2); err != nil {
			t.Fatal(err)
		}
	}
	// Names chosen so UUID string order disagrees with placement order.
	names := []string{"windmill", "chapel", "smithy", "granary"}
	for i, name := range names {
		s := &world.Structure{
			ID:     uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
			Name:   name,
			Type:   "civic",
			Origin: hexgrid.Coord{Q: i - 2, R: 0},
			Cells:  []hexgrid.Coord{{Q: i - 2, R: 0}},
		}
		if err := m.AddStructure(s); err != nil {
			t.Fatal(err)
		}
	}

	runID, err := db.SaveRun("order", 1, m, nil)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := db.LoadMap(runID)
	if err != nil {
		t.Fatalf("LoadMap: %v", err)
	}
	if len(got.Structures) != len(names) {
		t.Fatalf("restored %d structures, want %d", len(got.Structures), len(names))
	}
	for i, s := range got.Structures {
		if s.Name != names[i] {
			t.Errorf("structure %d restored as %q, want %q", i, s.Name, names[i])
		}
	}
}
