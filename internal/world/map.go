package world

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// Cell is a single hex of the world.
type Cell struct {
	Coord     hexgrid.Coord `json:"coord"`
	Terrain   Terrain       `json:"terrain"`
	Elevation int           `json:"elevation"`

	// Depth below the surface, only meaningful for Water terrain.
	WaterDepth int `json:"water_depth,omitempty"`

	// Occupying structure, at most one per cell.
	Occupant *uuid.UUID `json:"occupant,omitempty"`
}

// View is the read-only world access handed to condition evaluators.
// A View must not observe mutation while evaluation is in flight; the
// engine only writes between evaluation and the next rule.
type View interface {
	Cell(c hexgrid.Coord) *Cell
	InBounds(c hexgrid.Coord) bool
	Bounds() int
}

// Map holds the complete hex grid world state: cells plus the
// registries of placed structures, water features, and resource
// deposits.
type Map struct {
	Hexes  map[hexgrid.Coord]*Cell `json:"-"`
	Radius int                     `json:"radius"`

	// Placed structures in placement order, and by ID.
	Structures []*Structure             `json:"structures"`
	byID       map[uuid.UUID]*Structure `json:"-"`

	// Water features grown by generation, in creation order.
	WaterFeatures []*WaterFeature `json:"water_features"`

	// Resource deposits by coordinate.
	Deposits map[hexgrid.Coord]map[string]int `json:"-"`
}

// NewMap creates an empty map with the given radius. A hex grid of
// radius R contains cells where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Hexes:    make(map[hexgrid.Coord]*Cell),
		Radius:   radius,
		byID:     make(map[uuid.UUID]*Structure),
		Deposits: make(map[hexgrid.Coord]map[string]int),
	}
}

// Cell returns the cell at the given coordinate, or nil if absent.
func (m *Map) Cell(c hexgrid.Coord) *Cell {
	return m.Hexes[c]
}

// InBounds reports whether the coordinate is within the map radius.
func (m *Map) InBounds(c hexgrid.Coord) bool {
	return hexgrid.Distance(hexgrid.Coord{}, c) <= m.Radius
}

// Bounds returns the map radius.
func (m *Map) Bounds() int {
	return m.Radius
}

// SetCell writes terrain and elevation at a coordinate, validating the
// terrain's elevation band. The occupant is preserved.
func (m *Map) SetCell(c hexgrid.Coord, t Terrain, elevation int) error {
	if !m.InBounds(c) {
		return fmt.Errorf("coord %v out of bounds (radius %d)", c, m.Radius)
	}
	if err := CheckElevation(t, elevation); err != nil {
		return err
	}
	cell := m.Hexes[c]
	if cell == nil {
		cell = &Cell{Coord: c}
		m.Hexes[c] = cell
	}
	cell.Terrain = t
	cell.Elevation = elevation
	if t == TerrainWater {
		if cell.WaterDepth == 0 {
			cell.WaterDepth = 1
		}
	} else {
		cell.WaterDepth = 0
	}
	return nil
}

// CellsWithin returns the existing cells within radius of center, in
// ascending coordinate order.
func (m *Map) CellsWithin(center hexgrid.Coord, radius int) []*Cell {
	var result []*Cell
	for _, c := range hexgrid.Range(center, radius) {
		if cell := m.Hexes[c]; cell != nil {
			result = append(result, cell)
		}
	}
	return result
}

// Structure returns a placed structure by ID.
func (m *Map) Structure(id uuid.UUID) *Structure {
	return m.byID[id]
}

// AddStructure registers a placed structure and marks its cells as
// occupied. Cells must already exist and be free.
func (m *Map) AddStructure(s *Structure) error {
	for _, c := range s.Cells {
		cell := m.Hexes[c]
		if cell == nil {
			return fmt.Errorf("structure %q covers missing cell %v", s.Name, c)
		}
		if cell.Occupant != nil {
			return fmt.Errorf("structure %q covers occupied cell %v", s.Name, c)
		}
	}
	for _, c := range s.Cells {
		id := s.ID
		m.Hexes[c].Occupant = &id
	}
	m.Structures = append(m.Structures, s)
	m.byID[s.ID] = s
	return nil
}

// AddDeposit adds a resource amount at a coordinate.
func (m *Map) AddDeposit(c hexgrid.Coord, resource string, amount int) {
	if m.Deposits[c] == nil {
		m.Deposits[c] = make(map[string]int)
	}
	m.Deposits[c][resource] += amount
}

// CellCount returns the number of populated cells.
func (m *Map) CellCount() int {
	return len(m.Hexes)
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, cells=%d, structures=%d)", m.Radius, len(m.Hexes), len(m.Structures))
}

// TerrainCounts returns the terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, cell := range m.Hexes {
		counts[cell.Terrain]++
	}
	return counts
}
