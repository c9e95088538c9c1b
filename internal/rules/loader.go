package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/Vi1i/rust-harmony/internal/world"
)

// LoadError is a fatal rule document error. A pass never starts on a
// set that failed to load.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return "rules: " + e.Reason
}

func loadErrf(format string, args ...any) error {
	return &LoadError{Reason: fmt.Sprintf(format, args...)}
}

// Document is the on-disk rule/template file shape.
type Document struct {
	Structures map[string]*StructureDef `yaml:"structures,omitempty"`
	Templates  []*Template              `yaml:"templates,omitempty"`
	Rules      []Rule                   `yaml:"rules,omitempty"`
}

var compiledSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("ruleset.json", strings.NewReader(documentSchema)); err != nil {
		panic(err)
	}
	return c.MustCompile("ruleset.json")
}()

// LoadFile reads, validates, and decodes a rule document from disk.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse validates a YAML rule document against the embedded schema,
// decodes it, and cross-checks every reference. All failures are
// LoadErrors: malformed documents never reach the engine.
func Parse(data []byte) (*Set, error) {
	// Schema validation runs over a JSON-shaped decoding of the YAML.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, loadErrf("parse yaml: %v", err)
	}
	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, loadErrf("normalize document: %v", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(jsonBytes, &jsonDoc); err != nil {
		return nil, loadErrf("normalize document: %v", err)
	}
	if err := compiledSchema.Validate(jsonDoc); err != nil {
		return nil, loadErrf("schema: %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, loadErrf("decode: %v", err)
	}
	return buildSet(&doc)
}

// NewSet validates an already-decoded document, for callers that build
// the model programmatically instead of from YAML.
func NewSet(doc *Document) (*Set, error) {
	return buildSet(doc)
}

func buildSet(doc *Document) (*Set, error) {
	set := &Set{
		Rules:      doc.Rules,
		Templates:  make(map[string]*Template),
		Structures: make(map[string]*StructureDef),
	}

	for name, def := range doc.Structures {
		if def == nil {
			return nil, loadErrf("structure %q: empty definition", name)
		}
		if def.Name == "" {
			def.Name = name
		}
		set.Structures[name] = def
	}
	for _, t := range doc.Templates {
		if _, dup := set.Templates[t.Name]; dup {
			return nil, loadErrf("duplicate template %q", t.Name)
		}
		set.Templates[t.Name] = t
	}

	// Every structure must resolve through its ancestor chain. Fields
	// like structure_type may come from an ancestor, so required-field
	// checks run on the resolved form, not the raw definition.
	for name, def := range set.Structures {
		resolved, err := def.Resolve(set)
		if err != nil {
			return nil, loadErrf("structure %q: %v", name, err)
		}
		if resolved.StructureType == "" {
			return nil, loadErrf("structure %q: no structure_type, inherited or set", name)
		}
	}

	for i := range set.Rules {
		if err := validateRule(set, &set.Rules[i]); err != nil {
			return nil, err
		}
	}
	for _, t := range set.Templates {
		for i := range t.Rules {
			if err := validateRule(set, &t.Rules[i]); err != nil {
				return nil, loadErrf("template %q: %v", t.Name, err)
			}
		}
	}

	if err := checkTemplateCycles(set); err != nil {
		return nil, err
	}
	return set, nil
}

func validateRule(set *Set, r *Rule) error {
	if r.Name == "" {
		return loadErrf("rule with empty name")
	}
	for i := range r.Conditions {
		if err := validateCondition(&r.Conditions[i]); err != nil {
			return loadErrf("rule %q: %v", r.Name, err)
		}
	}
	if len(r.Actions) == 0 {
		return loadErrf("rule %q: no actions", r.Name)
	}
	for i := range r.Actions {
		if err := validateAction(set, &r.Actions[i]); err != nil {
			return loadErrf("rule %q action %d: %v", r.Name, i, err)
		}
	}
	return nil
}

func validateCondition(c *Condition) error {
	switch c.Type {
	case CondTerrainType:
		if _, err := world.ParseTerrain(c.Terrain); err != nil {
			return err
		}
	case CondElevationRange:
		if c.Min > c.Max {
			return fmt.Errorf("ElevationRange min %d > max %d", c.Min, c.Max)
		}
	case CondNearWater, CondRoadAccess:
		if c.Distance < 0 {
			return fmt.Errorf("%s: negative distance", c.Type)
		}
	case CondMinDistanceFrom, CondMaxDistanceFrom:
		if c.StructureType == "" {
			return fmt.Errorf("%s: missing structure_type", c.Type)
		}
		if c.Distance < 0 {
			return fmt.Errorf("%s: negative distance", c.Type)
		}
	case CondAdjacentTo:
		if c.StructureType == "" {
			return fmt.Errorf("AdjacentTo: missing structure_type")
		}
	case CondSlopeRange:
		if c.MinDegrees > c.MaxDegrees {
			return fmt.Errorf("SlopeRange min %g > max %g", c.MinDegrees, c.MaxDegrees)
		}
	case CondViewDistance:
		if c.Min < 0 {
			return fmt.Errorf("ViewDistance: negative min")
		}
	case CondWindExposure:
		if c.MinExposure > c.MaxExposure {
			return fmt.Errorf("WindExposure min %g > max %g", c.MinExposure, c.MaxExposure)
		}
	case CondResourceAvailable:
		if c.Resource == "" {
			return fmt.Errorf("ResourceAvailable: missing resource")
		}
	case CondAnd, CondOr:
		if len(c.Conditions) == 0 {
			return fmt.Errorf("%s with no children", c.Type)
		}
		for i := range c.Conditions {
			if err := validateCondition(&c.Conditions[i]); err != nil {
				return err
			}
		}
	case CondNot:
		if c.Condition == nil {
			return fmt.Errorf("Not with no child")
		}
		return validateCondition(c.Condition)
	default:
		return fmt.Errorf("unknown condition type %q", c.Type)
	}
	return nil
}

func validateAction(set *Set, a *Action) error {
	switch a.Type {
	case ActPlaceStructure, ActPlaceStructureCluster:
		def, err := actionStructure(set, a)
		if err != nil {
			return err
		}
		resolved, err := def.Resolve(set)
		if err != nil {
			return err
		}
		if resolved.StructureType == "" {
			return fmt.Errorf("structure %q: no structure_type, inherited or set", resolved.Name)
		}
		if len(resolved.Footprint) == 0 {
			return fmt.Errorf("structure %q has an empty footprint", resolved.Name)
		}
		for _, f := range resolved.Footprint {
			if _, err := world.ParseTerrain(f.Terrain); err != nil {
				return fmt.Errorf("structure %q footprint: %w", resolved.Name, err)
			}
		}
		if resolved.RequiredTerrain != "" {
			if _, err := world.ParseTerrain(resolved.RequiredTerrain); err != nil {
				return fmt.Errorf("structure %q: %w", resolved.Name, err)
			}
		}
		if a.Type == ActPlaceStructureCluster && a.Count <= 0 {
			return fmt.Errorf("cluster count must be positive")
		}
		if a.OverlapTolerance < 0 {
			return fmt.Errorf("negative overlap_tolerance")
		}
	case ActModifyTerrain:
		if a.Operation == nil {
			return fmt.Errorf("ModifyTerrain without operation")
		}
		switch a.Operation.Type {
		case OpFlatten, OpRaise, OpLower, OpSmooth:
		default:
			return fmt.Errorf("unknown terrain operation %q", a.Operation.Type)
		}
	case ActSetTerrain, ActGenerateWall:
		if _, err := world.ParseTerrain(a.Terrain); err != nil {
			return err
		}
	case ActSetElevation:
		// Band checked against the target terrain at apply time.
	case ActGenerateRoad:
		if _, err := world.ParseTerrain(a.Terrain); err != nil {
			return err
		}
		if a.Style != nil {
			switch a.Style.Type {
			case RoadStraight, RoadWinding:
			default:
				return fmt.Errorf("unknown road style %q", a.Style.Type)
			}
		}
	case ActCreateWaterFeature:
		switch world.WaterFeatureType(a.FeatureType) {
		case world.WaterLake, world.WaterPond:
		default:
			return fmt.Errorf("unknown water feature %q", a.FeatureType)
		}
		if a.Size <= 0 {
			return fmt.Errorf("water feature size must be positive")
		}
	case ActSpawnResource:
		if a.ResourceType == "" {
			return fmt.Errorf("SpawnResource: missing resource_type")
		}
		if a.Amount <= 0 {
			return fmt.Errorf("SpawnResource: amount must be positive")
		}
	case ActApplyTemplate:
		if _, ok := set.Template(a.TemplateName); !ok {
			return fmt.Errorf("unknown template %q", a.TemplateName)
		}
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

// actionStructure resolves an action's structure payload, inline or by
// reference into the document's structures section.
func actionStructure(set *Set, a *Action) (*StructureDef, error) {
	if a.Structure != nil && a.StructureRef != "" {
		return nil, fmt.Errorf("both structure and structure_ref set")
	}
	if a.Structure != nil {
		return a.Structure, nil
	}
	if a.StructureRef != "" {
		def, ok := set.Structure(a.StructureRef)
		if !ok {
			return nil, fmt.Errorf("unknown structure_ref %q", a.StructureRef)
		}
		return def, nil
	}
	return nil, fmt.Errorf("missing structure")
}

// ActionStructure is the exported form used by the action executor.
func ActionStructure(set *Set, a *Action) (*StructureDef, error) {
	def, err := actionStructure(set, a)
	if err != nil {
		return nil, err
	}
	return def.Resolve(set)
}

// checkTemplateCycles rejects direct or transitive template
// self-reference. The expander re-checks at run time for sets
// assembled outside the loader.
func checkTemplateCycles(set *Set) error {
	const (
		unseen = iota
		visiting
		done
	)
	state := make(map[string]int)

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return loadErrf("template cycle through %q", name)
		case done:
			return nil
		}
		state[name] = visiting
		t := set.Templates[name]
		for _, r := range t.Rules {
			for _, a := range r.Actions {
				if a.Type == ActApplyTemplate {
					if err := visit(a.TemplateName); err != nil {
						return err
					}
				}
			}
		}
		state[name] = done
		return nil
	}

	for name := range set.Templates {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}
