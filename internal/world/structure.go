package world

import (
	"github.com/google/uuid"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// Structure is a placed structure instance. Constructed once by the
// action executor, then immutable.
type Structure struct {
	ID     uuid.UUID     `json:"id"`
	Name   string        `json:"name"`
	Type   string        `json:"structure_type"`
	Origin hexgrid.Coord `json:"origin"`

	// Every occupied coordinate, origin-relative footprint resolved.
	Cells []hexgrid.Coord `json:"cells"`

	// Entrances and connection points stamped by the layout generator.
	Entrances   []hexgrid.Coord `json:"entrances,omitempty"`
	Connections []Connection    `json:"connections,omitempty"`

	Tags []string `json:"tags,omitempty"`
}

// Connection is a door or path marker on a placed structure.
type Connection struct {
	Coord hexgrid.Coord `json:"coord"`
	Kind  string        `json:"kind"` // "Door" or "Path"
}

// WaterFeatureType names a grown water body kind.
type WaterFeatureType string

const (
	WaterLake WaterFeatureType = "Lake"
	WaterPond WaterFeatureType = "Pond"
)

// WaterFeature records a water body grown during generation.
type WaterFeature struct {
	Type   WaterFeatureType `json:"type"`
	Origin hexgrid.Coord    `json:"origin"`
	Cells  []hexgrid.Coord  `json:"cells"`
}

// Covers reports whether the structure occupies the coordinate.
func (s *Structure) Covers(c hexgrid.Coord) bool {
	for _, sc := range s.Cells {
		if sc == c {
			return true
		}
	}
	return false
}

// HasTag reports whether the structure carries the tag.
func (s *Structure) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
