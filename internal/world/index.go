package world

import (
	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// Index answers nearest-of-type and distance-bound queries over placed
// entities. The engine updates it incrementally as actions commit, so
// later rules in the same pass see earlier placements.
type Index struct {
	m      *Map
	byType map[string][]*Structure
	roads  map[hexgrid.Coord]bool
}

// NewIndex builds an index over the current map contents.
func NewIndex(m *Map) *Index {
	idx := &Index{
		m:      m,
		byType: make(map[string][]*Structure),
		roads:  make(map[hexgrid.Coord]bool),
	}
	for _, s := range m.Structures {
		idx.byType[s.Type] = append(idx.byType[s.Type], s)
	}
	return idx
}

// AddStructure registers a newly placed structure.
func (idx *Index) AddStructure(s *Structure) {
	idx.byType[s.Type] = append(idx.byType[s.Type], s)
}

// MarkRoad records coordinates written by road generation.
func (idx *Index) MarkRoad(coords []hexgrid.Coord) {
	for _, c := range coords {
		idx.roads[c] = true
	}
}

// CountByType returns how many structures of the type are placed.
func (idx *Index) CountByType(stype string) int {
	return len(idx.byType[stype])
}

// NearestStructure returns the closest placed structure of the given
// type and its hex distance from the query coordinate. Distance is to
// the nearest occupied cell, not the origin. Ties resolve to the
// earliest placement. ok is false when no structure of the type exists.
func (idx *Index) NearestStructure(from hexgrid.Coord, stype string) (s *Structure, dist int, ok bool) {
	for _, cand := range idx.byType[stype] {
		for _, c := range cand.Cells {
			d := hexgrid.Distance(from, c)
			if !ok || d < dist {
				s, dist, ok = cand, d, true
			}
		}
	}
	return s, dist, ok
}

// NearestAny returns the closest placed structure of any type.
func (idx *Index) NearestAny(from hexgrid.Coord) (s *Structure, dist int, ok bool) {
	for _, cand := range idx.m.Structures {
		for _, c := range cand.Cells {
			d := hexgrid.Distance(from, c)
			if !ok || d < dist {
				s, dist, ok = cand, d, true
			}
		}
	}
	return s, dist, ok
}

// NearestWater returns the hex distance to the closest Water cell
// within maxDist, scanning rings outward. ok is false when no water
// lies within the bound.
func (idx *Index) NearestWater(from hexgrid.Coord, maxDist int) (dist int, ok bool) {
	for d := 0; d <= maxDist; d++ {
		for _, c := range hexgrid.Ring(from, d) {
			cell := idx.m.Cell(c)
			if cell != nil && cell.Terrain == TerrainWater {
				return d, true
			}
		}
	}
	return 0, false
}

// RoadWithin reports whether any road cell lies within maxDist.
func (idx *Index) RoadWithin(from hexgrid.Coord, maxDist int) bool {
	if len(idx.roads) == 0 {
		return false
	}
	for d := 0; d <= maxDist; d++ {
		for _, c := range hexgrid.Ring(from, d) {
			if idx.roads[c] {
				return true
			}
		}
	}
	return false
}

// ResourceWithin sums the deposited amount of a resource within radius.
func (idx *Index) ResourceWithin(from hexgrid.Coord, radius int, resource string) int {
	total := 0
	for _, c := range hexgrid.Range(from, radius) {
		if dep := idx.m.Deposits[c]; dep != nil {
			total += dep[resource]
		}
	}
	return total
}
