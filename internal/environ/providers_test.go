package environ

import (
	"testing"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/world"
)

func testMap(t *testing.T) *world.Map {
	t.Helper()
	m := world.NewMap(4)
	for _, c := range hexgrid.Range(hexgrid.Coord{}, 4) {
		if err := m.SetCell(c, world.TerrainPlain, 2); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestWindBoundsAndDeterminism(t *testing.T) {
	m := testMap(t)
	if err := m.SetCell(hexgrid.Coord{Q: 1, R: 0}, world.TerrainSnow, 8); err != nil {
		t.Fatal(err)
	}
	if err := m.SetCell(hexgrid.Coord{Q: 2, R: 0}, world.TerrainWater, -1); err != nil {
		t.Fatal(err)
	}

	a := New(m, 7)
	b := New(m, 7)
	for _, c := range hexgrid.Range(hexgrid.Coord{}, 4) {
		w := a.WindAt(c)
		if w < 0 || w > 1 {
			t.Fatalf("WindAt(%v) = %g outside [0, 1]", c, w)
		}
		if w != b.WindAt(c) {
			t.Fatalf("WindAt(%v) differs across providers with the same seed", c)
		}
	}

	high := a.WindAt(hexgrid.Coord{Q: 1, R: 0})
	if high < 0.6 {
		t.Errorf("wind on high ground = %g, want at least the 0.6 floor", high)
	}
}

func TestSlopeBetween(t *testing.T) {
	m := testMap(t)
	if err := m.SetCell(hexgrid.Coord{Q: 1, R: 0}, world.TerrainRough, 6); err != nil {
		t.Fatal(err)
	}
	p := New(m, 1)

	flat := p.SlopeBetween(hexgrid.Coord{}, hexgrid.Coord{Q: 0, R: 1})
	if flat != 0 {
		t.Errorf("slope between equal elevations = %g, want 0", flat)
	}
	steep := p.SlopeBetween(hexgrid.Coord{}, hexgrid.Coord{Q: 1, R: 0})
	if steep <= 0 || steep >= 90 {
		t.Errorf("slope over a 4-level rise = %g, want in (0, 90)", steep)
	}
	if rev := p.SlopeBetween(hexgrid.Coord{Q: 1, R: 0}, hexgrid.Coord{}); rev != steep {
		t.Errorf("slope is not symmetric: %g vs %g", rev, steep)
	}
	if p.SlopeBetween(hexgrid.Coord{}, hexgrid.Coord{Q: 99, R: 0}) != 0 {
		t.Error("slope to a missing cell should read flat")
	}
}

func TestVisibleRange(t *testing.T) {
	m := testMap(t)
	if err := m.SetCell(hexgrid.Coord{Q: 1, R: 0}, world.TerrainSnow, 10); err != nil {
		t.Fatal(err)
	}
	if err := m.SetCell(hexgrid.Coord{Q: 2, R: 0}, world.TerrainWater, -2); err != nil {
		t.Fatal(err)
	}
	p := New(m, 1)

	ground := p.VisibleRange(hexgrid.Coord{})
	peak := p.VisibleRange(hexgrid.Coord{Q: 1, R: 0})
	if peak <= ground {
		t.Errorf("view from elevation 10 (%d) should beat ground level (%d)", peak, ground)
	}
	if v := p.VisibleRange(hexgrid.Coord{Q: 2, R: 0}); v >= ground {
		t.Errorf("view from water (%d) should trail ground level (%d)", v, ground)
	}
	if v := p.VisibleRange(hexgrid.Coord{Q: 99, R: 0}); v != 0 {
		t.Errorf("view from a missing cell = %d, want 0", v)
	}
}
