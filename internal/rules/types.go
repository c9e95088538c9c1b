// Package rules defines the declarative generation model (rules,
// condition trees, actions, structure definitions, templates) and the
// YAML loader that produces it. The engine consumes only the typed
// model, never raw documents.
package rules

import "github.com/Vi1i/rust-harmony/internal/hexgrid"

// ConditionType enumerates the closed set of condition variants.
type ConditionType string

const (
	CondTerrainType       ConditionType = "TerrainType"
	CondElevationRange    ConditionType = "ElevationRange"
	CondNearWater         ConditionType = "NearWater"
	CondMinDistanceFrom   ConditionType = "MinDistanceFrom"
	CondMaxDistanceFrom   ConditionType = "MaxDistanceFrom"
	CondAdjacentTo        ConditionType = "AdjacentTo"
	CondSlopeRange        ConditionType = "SlopeRange"
	CondViewDistance      ConditionType = "ViewDistance"
	CondWindExposure      ConditionType = "WindExposure"
	CondResourceAvailable ConditionType = "ResourceAvailable"
	CondRoadAccess        ConditionType = "RoadAccess"
	CondAnd               ConditionType = "And"
	CondOr                ConditionType = "Or"
	CondNot               ConditionType = "Not"
)

// Condition is one node of a condition tree. Which fields are
// meaningful depends on Type. Immutable once loaded.
type Condition struct {
	Type ConditionType `yaml:"type" json:"type"`

	// TerrainType
	Terrain string `yaml:"terrain,omitempty" json:"terrain,omitempty"`

	// ElevationRange, ViewDistance (Min only)
	Min int `yaml:"min,omitempty" json:"min,omitempty"`
	Max int `yaml:"max,omitempty" json:"max,omitempty"`

	// NearWater, MinDistanceFrom, MaxDistanceFrom, RoadAccess
	Distance      int    `yaml:"distance,omitempty" json:"distance,omitempty"`
	StructureType string `yaml:"structure_type,omitempty" json:"structure_type,omitempty"`

	// SlopeRange (degrees)
	MinDegrees float64 `yaml:"min_degrees,omitempty" json:"min_degrees,omitempty"`
	MaxDegrees float64 `yaml:"max_degrees,omitempty" json:"max_degrees,omitempty"`

	// WindExposure ([0, 1])
	MinExposure float64 `yaml:"min_exposure,omitempty" json:"min_exposure,omitempty"`
	MaxExposure float64 `yaml:"max_exposure,omitempty" json:"max_exposure,omitempty"`

	// ResourceAvailable
	Resource string `yaml:"resource,omitempty" json:"resource,omitempty"`
	Amount   int    `yaml:"amount,omitempty" json:"amount,omitempty"`

	// And, Or
	Conditions []Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// Not
	Condition *Condition `yaml:"condition,omitempty" json:"condition,omitempty"`
}

// ActionType enumerates the closed set of action variants.
type ActionType string

const (
	ActPlaceStructure        ActionType = "PlaceStructure"
	ActPlaceStructureCluster ActionType = "PlaceStructureCluster"
	ActModifyTerrain         ActionType = "ModifyTerrain"
	ActSetTerrain            ActionType = "SetTerrain"
	ActSetElevation          ActionType = "SetElevation"
	ActGenerateWall          ActionType = "GenerateWall"
	ActGenerateRoad          ActionType = "GenerateRoad"
	ActCreateWaterFeature    ActionType = "CreateWaterFeature"
	ActSpawnResource         ActionType = "SpawnResource"
	ActApplyTemplate         ActionType = "ApplyTemplate"
)

// TerrainOpType enumerates ModifyTerrain operations.
type TerrainOpType string

const (
	OpFlatten TerrainOpType = "Flatten"
	OpRaise   TerrainOpType = "Raise"
	OpLower   TerrainOpType = "Lower"
	OpSmooth  TerrainOpType = "Smooth"
)

// TerrainOp is the operation payload of a ModifyTerrain action.
type TerrainOp struct {
	Type   TerrainOpType `yaml:"type" json:"type"`
	Target int           `yaml:"target,omitempty" json:"target,omitempty"` // Flatten
	Amount int           `yaml:"amount,omitempty" json:"amount,omitempty"` // Raise, Lower
}

// RoadStyleType enumerates road tracing styles.
type RoadStyleType string

const (
	RoadStraight RoadStyleType = "Straight"
	RoadWinding  RoadStyleType = "Winding"
)

// RoadStyle is the style payload of a GenerateRoad action. An absent
// style means Straight.
type RoadStyle struct {
	Type RoadStyleType `yaml:"type" json:"type"`
	// Waypoint perturbation as a fraction of segment length, Winding only.
	Variation float64 `yaml:"variation,omitempty" json:"variation,omitempty"`
}

// Action is one generation step of a rule. Which fields are meaningful
// depends on Type.
type Action struct {
	Type ActionType `yaml:"type" json:"type"`

	// PlaceStructure, PlaceStructureCluster: inline definition or a
	// reference into the document's structures section.
	Structure    *StructureDef `yaml:"structure,omitempty" json:"structure,omitempty"`
	StructureRef string        `yaml:"structure_ref,omitempty" json:"structure_ref,omitempty"`

	// Conflicting footprint cells tolerated before the whole placement
	// is voided. Zero (the default) is all-or-nothing.
	OverlapTolerance int `yaml:"overlap_tolerance,omitempty" json:"overlap_tolerance,omitempty"`

	// PlaceStructureCluster
	Count     int  `yaml:"count,omitempty" json:"count,omitempty"`
	Spacing   int  `yaml:"spacing,omitempty" json:"spacing,omitempty"`
	Variation bool `yaml:"variation,omitempty" json:"variation,omitempty"`

	// ModifyTerrain
	Radius    int        `yaml:"radius,omitempty" json:"radius,omitempty"`
	Operation *TerrainOp `yaml:"operation,omitempty" json:"operation,omitempty"`

	// SetTerrain, GenerateWall, GenerateRoad material
	Terrain string `yaml:"terrain,omitempty" json:"terrain,omitempty"`

	// SetElevation
	Elevation int `yaml:"elevation,omitempty" json:"elevation,omitempty"`

	// GenerateWall
	Height int `yaml:"height,omitempty" json:"height,omitempty"`

	// GenerateRoad
	Width int            `yaml:"width,omitempty" json:"width,omitempty"`
	To    *hexgrid.Coord `yaml:"to,omitempty" json:"to,omitempty"`
	Style *RoadStyle     `yaml:"style,omitempty" json:"style,omitempty"`

	// CreateWaterFeature
	FeatureType string `yaml:"feature_type,omitempty" json:"feature_type,omitempty"`
	Size        int    `yaml:"size,omitempty" json:"size,omitempty"`

	// SpawnResource
	ResourceType string `yaml:"resource_type,omitempty" json:"resource_type,omitempty"`
	Amount       int    `yaml:"amount,omitempty" json:"amount,omitempty"`
	Spread       int    `yaml:"spread,omitempty" json:"spread,omitempty"`

	// ApplyTemplate
	TemplateName string `yaml:"template_name,omitempty" json:"template_name,omitempty"`
}

// Rule is a priority-ordered (conditions -> actions) generation unit.
// The condition list is implicitly AND-ed. Immutable after load.
type Rule struct {
	Name       string      `yaml:"name" json:"name"`
	Priority   int         `yaml:"priority" json:"priority"`
	Conditions []Condition `yaml:"conditions" json:"conditions"`
	Actions    []Action    `yaml:"actions" json:"actions"`
}

// Template is a named, reusable rule bundle expanded in place by an
// ApplyTemplate action.
type Template struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Rules       []Rule   `yaml:"rules" json:"rules"`
}

// Set is a validated, immutable bundle of rules, templates, and named
// structure definitions, the unit a generation pass consumes.
type Set struct {
	Rules      []Rule
	Templates  map[string]*Template
	Structures map[string]*StructureDef
}

// Template returns a template by name.
func (s *Set) Template(name string) (*Template, bool) {
	t, ok := s.Templates[name]
	return t, ok
}

// Structure returns a named structure definition.
func (s *Set) Structure(name string) (*StructureDef, bool) {
	d, ok := s.Structures[name]
	return d, ok
}
