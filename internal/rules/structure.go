package rules

import (
	"fmt"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// FootprintCell is a relative offset in a structure footprint with the
// terrain stamped at that offset when the structure is placed.
type FootprintCell struct {
	Q       int    `yaml:"q" json:"q"`
	R       int    `yaml:"r" json:"r"`
	Terrain string `yaml:"terrain" json:"terrain"`
}

// Offset returns the footprint cell's relative coordinate.
func (f FootprintCell) Offset() hexgrid.Coord {
	return hexgrid.Coord{Q: f.Q, R: f.R}
}

// ElevationRequirement bounds the elevation a structure accepts.
// When RelativeToBase is set the bounds apply to the difference from
// the target cell's elevation at evaluation time.
type ElevationRequirement struct {
	Min            int  `yaml:"min" json:"min"`
	Max            int  `yaml:"max" json:"max"`
	RelativeToBase bool `yaml:"relative_to_base,omitempty" json:"relative_to_base,omitempty"`
}

// AlignmentType enumerates placement alignment rules.
type AlignmentType string

const (
	AlignNone AlignmentType = "None"
	AlignGrid AlignmentType = "Grid"
)

// Alignment constrains where repeated placements may sit.
type Alignment struct {
	Type    AlignmentType `yaml:"type" json:"type"`
	Spacing int           `yaml:"spacing,omitempty" json:"spacing,omitempty"` // Grid
}

// GrowthPattern enumerates cluster growth orders.
type GrowthPattern string

const (
	GrowOutward   GrowthPattern = "Outward"
	GrowClustered GrowthPattern = "Clustered"
)

// GenerationRules constrain repeated placement of a structure.
type GenerationRules struct {
	MinSpacing int           `yaml:"min_spacing,omitempty" json:"min_spacing,omitempty"`
	MaxCount   int           `yaml:"max_count,omitempty" json:"max_count,omitempty"`
	Alignment  *Alignment    `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	Growth     GrowthPattern `yaml:"growth_pattern,omitempty" json:"growth_pattern,omitempty"`
}

// Room is one interior room request.
type Room struct {
	Width   int    `yaml:"width" json:"width"`
	Height  int    `yaml:"height" json:"height"`
	Purpose string `yaml:"purpose" json:"purpose"`
	// Purposes this room must reach via corridor or adjacency.
	RequiredConnections []string `yaml:"required_connections,omitempty" json:"required_connections,omitempty"`
}

// Corridor connects two relative positions inside a structure.
type Corridor struct {
	Start hexgrid.Coord `yaml:"start" json:"start"`
	End   hexgrid.Coord `yaml:"end" json:"end"`
	Width int           `yaml:"width" json:"width"`
}

// InteriorLayout describes a structure's interior.
type InteriorLayout struct {
	Rooms     []Room          `yaml:"rooms,omitempty" json:"rooms,omitempty"`
	Corridors []Corridor      `yaml:"corridors,omitempty" json:"corridors,omitempty"`
	Entrances []hexgrid.Coord `yaml:"entrances,omitempty" json:"entrances,omitempty"`
}

// ConnectionPoint is a door or path marker on the structure.
type ConnectionPoint struct {
	Position hexgrid.Coord `yaml:"position" json:"position"`
	Type     string        `yaml:"connection_type" json:"connection_type"` // "Door" or "Path"
	Required bool          `yaml:"required,omitempty" json:"required,omitempty"`
}

// Variant names an alternative form of a structure.
type Variant struct {
	Name        string  `yaml:"name" json:"name"`
	Probability float64 `yaml:"probability" json:"probability"`
}

// StructureDef is a loadable structure definition. A def with a
// ParentTemplate inherits every field it leaves unset from the named
// base definition.
type StructureDef struct {
	Name                  string                `yaml:"name" json:"name"`
	StructureType         string                `yaml:"structure_type" json:"structure_type"`
	Footprint             []FootprintCell       `yaml:"footprint,omitempty" json:"footprint,omitempty"`
	RequiredTerrain       string                `yaml:"required_terrain,omitempty" json:"required_terrain,omitempty"`
	ElevationRequirements *ElevationRequirement `yaml:"elevation_requirements,omitempty" json:"elevation_requirements,omitempty"`
	GenerationRules       *GenerationRules      `yaml:"generation_rules,omitempty" json:"generation_rules,omitempty"`
	InteriorLayout        *InteriorLayout       `yaml:"interior_layout,omitempty" json:"interior_layout,omitempty"`
	Connections           []ConnectionPoint     `yaml:"connections,omitempty" json:"connections,omitempty"`
	Tags                  []string              `yaml:"tags,omitempty" json:"tags,omitempty"`
	Variants              []Variant             `yaml:"variants,omitempty" json:"variants,omitempty"`
	ParentTemplate        string                `yaml:"parent_template,omitempty" json:"parent_template,omitempty"`
}

// Resolve merges a definition over its ancestor chain: explicit fields
// win, unset fields inherit. The result carries no ParentTemplate.
// Inheritance is explicit field-merge construction, never runtime
// dispatch; errors on missing parents or inheritance cycles.
func (d *StructureDef) Resolve(set *Set) (*StructureDef, error) {
	return d.resolve(set, map[string]bool{})
}

func (d *StructureDef) resolve(set *Set, visiting map[string]bool) (*StructureDef, error) {
	if d.ParentTemplate == "" {
		out := *d
		return &out, nil
	}
	if visiting[d.ParentTemplate] {
		return nil, fmt.Errorf("structure inheritance cycle through %q", d.ParentTemplate)
	}
	parent, ok := set.Structure(d.ParentTemplate)
	if !ok {
		return nil, fmt.Errorf("structure %q: unknown parent_template %q", d.Name, d.ParentTemplate)
	}
	visiting[d.ParentTemplate] = true
	base, err := parent.resolve(set, visiting)
	if err != nil {
		return nil, err
	}
	delete(visiting, d.ParentTemplate)

	out := *base
	out.ParentTemplate = ""
	if d.Name != "" {
		out.Name = d.Name
	}
	if d.StructureType != "" {
		out.StructureType = d.StructureType
	}
	if len(d.Footprint) > 0 {
		out.Footprint = d.Footprint
	}
	if d.RequiredTerrain != "" {
		out.RequiredTerrain = d.RequiredTerrain
	}
	if d.ElevationRequirements != nil {
		out.ElevationRequirements = d.ElevationRequirements
	}
	if d.GenerationRules != nil {
		out.GenerationRules = d.GenerationRules
	}
	if d.InteriorLayout != nil {
		out.InteriorLayout = d.InteriorLayout
	}
	if len(d.Connections) > 0 {
		out.Connections = d.Connections
	}
	if len(d.Tags) > 0 {
		out.Tags = d.Tags
	}
	if len(d.Variants) > 0 {
		out.Variants = d.Variants
	}
	return &out, nil
}
