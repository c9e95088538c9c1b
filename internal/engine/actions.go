package engine

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/rules"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// executor applies actions against the world within one pass. It owns
// the occupancy ledger: a cell written by one rule is off-limits to
// every later (lower-priority) rule in the same pass.
type executor struct {
	m       *world.Map
	idx     *world.Index
	set     *rules.Set
	streams *Streams

	ledger  map[hexgrid.Coord]int // coord -> claiming rule order index
	mutated map[hexgrid.Coord]bool
	placed  int

	// Sink for member-level diagnostics of compound actions.
	diags *[]Diagnostic
}

func newExecutor(m *world.Map, idx *world.Index, set *rules.Set, streams *Streams, diags *[]Diagnostic) *executor {
	return &executor{
		m:       m,
		idx:     idx,
		set:     set,
		streams: streams,
		ledger:  make(map[hexgrid.Coord]int),
		mutated: make(map[hexgrid.Coord]bool),
		diags:   diags,
	}
}

// apply dispatches one action at a target cell. ApplyTemplate is
// expanded by the scheduler, not here.
func (x *executor) apply(ruleIdx int, ruleName string, actionIdx int, a *rules.Action, at hexgrid.Coord) *actionError {
	rng := x.streams.Stream(ruleName, actionIdx, at)
	switch a.Type {
	case rules.ActPlaceStructure:
		def, err := rules.ActionStructure(x.set, a)
		if err != nil {
			return validationErr("%v", err)
		}
		_, aerr := x.placeStructure(ruleIdx, ruleName, actionIdx, def, at, a.OverlapTolerance, rng, 0)
		return aerr
	case rules.ActPlaceStructureCluster:
		return x.placeCluster(ruleIdx, ruleName, actionIdx, a, at, rng)
	case rules.ActModifyTerrain:
		return x.modifyTerrain(ruleIdx, ruleName, actionIdx, a, at)
	case rules.ActSetTerrain:
		t, _ := world.ParseTerrain(a.Terrain)
		cell := x.m.Cell(at)
		if cell == nil {
			return validationErr("no cell at %v", at)
		}
		return x.writeCell(ruleIdx, at, t, cell.Elevation)
	case rules.ActSetElevation:
		cell := x.m.Cell(at)
		if cell == nil {
			return validationErr("no cell at %v", at)
		}
		return x.writeCell(ruleIdx, at, cell.Terrain, a.Elevation)
	case rules.ActGenerateWall:
		return x.generateWall(ruleIdx, ruleName, actionIdx, a, at)
	case rules.ActGenerateRoad:
		return x.generateRoad(ruleIdx, ruleName, actionIdx, a, at, rng)
	case rules.ActCreateWaterFeature:
		return x.createWaterFeature(ruleIdx, a, at)
	case rules.ActSpawnResource:
		return x.spawnResource(a, at, rng)
	default:
		return validationErr("unexpected action %q", a.Type)
	}
}

// writeCell commits one terrain/elevation write, enforcing the
// occupancy ledger and the terrain elevation bands.
func (x *executor) writeCell(ruleIdx int, c hexgrid.Coord, t world.Terrain, elevation int) *actionError {
	if !x.m.InBounds(c) {
		return validationErr("coord %v out of bounds", c)
	}
	if claimant, claimed := x.ledger[c]; claimed && claimant != ruleIdx {
		return conflictErr("cell %v claimed by earlier rule", c)
	}
	if err := x.m.SetCell(c, t, elevation); err != nil {
		return validationErr("%v", err)
	}
	x.ledger[c] = ruleIdx
	x.mutated[c] = true
	return nil
}

// placeStructure stamps a resolved structure definition at a target
// cell. All-or-nothing under the default zero overlap tolerance: one
// conflicting footprint cell voids the whole placement.
func (x *executor) placeStructure(ruleIdx int, ruleName string, actionIdx int, def *rules.StructureDef, at hexgrid.Coord, overlapTolerance int, rng *rand.Rand, member int) (*world.Structure, *actionError) {
	gr := def.GenerationRules
	if gr != nil && gr.MaxCount > 0 && x.idx.CountByType(def.StructureType) >= gr.MaxCount {
		return nil, capacityErr("max_count %d reached for %q", gr.MaxCount, def.StructureType)
	}
	if gr != nil && gr.Alignment != nil && gr.Alignment.Type == rules.AlignGrid && gr.Alignment.Spacing > 1 {
		s := gr.Alignment.Spacing
		if mod(at.Q, s) != 0 || mod(at.R, s) != 0 {
			return nil, validationErr("%v not on alignment grid (spacing %d)", at, s)
		}
	}
	if gr != nil && gr.MinSpacing > 0 {
		if _, dist, ok := x.idx.NearestStructure(at, def.StructureType); ok && dist < gr.MinSpacing {
			return nil, validationErr("min_spacing %d violated (nearest %q at %d)", gr.MinSpacing, def.StructureType, dist)
		}
	}

	base := x.m.Cell(at)
	if base == nil {
		return nil, validationErr("no cell at %v", at)
	}

	// Resolve the footprint and validate every cell before any write.
	type stamp struct {
		coord   hexgrid.Coord
		terrain world.Terrain
	}
	stamps := make([]stamp, 0, len(def.Footprint))
	footprint := make(map[hexgrid.Coord]bool, len(def.Footprint))
	conflicts := 0
	for _, f := range def.Footprint {
		c := at.Add(f.Offset())
		cell := x.m.Cell(c)
		if cell == nil {
			return nil, validationErr("footprint cell %v missing", c)
		}
		if def.RequiredTerrain != "" {
			want, _ := world.ParseTerrain(def.RequiredTerrain)
			if cell.Terrain != want {
				return nil, validationErr("footprint cell %v is %s, requires %s",
					c, world.TerrainName(cell.Terrain), def.RequiredTerrain)
			}
		}
		if er := def.ElevationRequirements; er != nil {
			elev := cell.Elevation
			if er.RelativeToBase {
				elev -= base.Elevation
			}
			if elev < er.Min || elev > er.Max {
				return nil, validationErr("footprint cell %v elevation %d outside [%d, %d]",
					c, elev, er.Min, er.Max)
			}
		}
		t, _ := world.ParseTerrain(f.Terrain)
		if err := world.CheckElevation(t, cell.Elevation); err != nil {
			return nil, validationErr("footprint cell %v: %v", c, err)
		}
		claimant, claimed := x.ledger[c]
		if cell.Occupant != nil || (claimed && claimant != ruleIdx) {
			conflicts++
			continue
		}
		stamps = append(stamps, stamp{coord: c, terrain: t})
		footprint[c] = true
	}
	if conflicts > overlapTolerance {
		return nil, conflictErr("%d footprint cells conflict (tolerance %d)", conflicts, overlapTolerance)
	}

	lay, aerr := expandLayout(def, at, footprint)
	if aerr != nil {
		return nil, aerr
	}

	name := def.Name
	if v := chooseVariant(def, rng); v != "" {
		name = v
	}

	// Commit. Every write was validated above.
	for _, st := range stamps {
		if err := x.writeCell(ruleIdx, st.coord, st.terrain, x.m.Cell(st.coord).Elevation); err != nil {
			return nil, err
		}
	}
	// Interior floors, corridors, and entrances are walkable.
	for _, c := range lay.floorCells() {
		if err := x.writeCell(ruleIdx, c, world.TerrainPlain, x.m.Cell(c).Elevation); err != nil {
			return nil, err
		}
	}

	cells := make([]hexgrid.Coord, 0, len(stamps))
	for _, st := range stamps {
		cells = append(cells, st.coord)
	}
	sortCoords(cells)

	s := &world.Structure{
		ID:          structureID(ruleName, actionIdx, at, def.Name, member),
		Name:        name,
		Type:        def.StructureType,
		Origin:      at,
		Cells:       cells,
		Entrances:   lay.entrances,
		Connections: lay.connections,
		Tags:        def.Tags,
	}
	if err := x.m.AddStructure(s); err != nil {
		return nil, validationErr("%v", err)
	}
	x.idx.AddStructure(s)
	x.placed++
	return s, nil
}

// structureID derives a stable ID from the placement key so identical
// runs produce identical registries.
func structureID(rule string, actionIdx int, at hexgrid.Coord, defName string, member int) uuid.UUID {
	key := fmt.Sprintf("%s|%d|%d,%d|%s|%d", rule, actionIdx, at.Q, at.R, defName, member)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// chooseVariant picks a structure variant by declared probability.
func chooseVariant(def *rules.StructureDef, rng *rand.Rand) string {
	if len(def.Variants) == 0 {
		return ""
	}
	roll := rng.Float64()
	acc := 0.0
	for _, v := range def.Variants {
		acc += v.Probability
		if roll < acc {
			return v.Name
		}
	}
	return ""
}

// placeCluster repeats a structure placement, offsetting each search
// origin by the configured spacing plus bounded jitter. Member
// failures are diagnostics; the cluster succeeds if any member lands.
func (x *executor) placeCluster(ruleIdx int, ruleName string, actionIdx int, a *rules.Action, at hexgrid.Coord, rng *rand.Rand) *actionError {
	def, err := rules.ActionStructure(x.set, a)
	if err != nil {
		return validationErr("%v", err)
	}
	spacing := a.Spacing
	if spacing < 1 {
		spacing = 1
	}
	growth := rules.GrowOutward
	if def.GenerationRules != nil && def.GenerationRules.Growth != "" {
		growth = def.GenerationRules.Growth
	}

	placed := 0
	lastOrigin := at
	for member := 0; member < a.Count; member++ {
		var tries []hexgrid.Coord
		if member == 0 {
			tries = []hexgrid.Coord{at}
		} else {
			switch growth {
			case rules.GrowClustered:
				tries = hexgrid.Ring(lastOrigin, spacing)
			default: // Outward
				tries = hexgrid.Ring(at, spacing*member)
			}
			// Rotate the walk so clusters don't all grow east.
			if len(tries) > 1 {
				start := rng.Intn(len(tries))
				tries = append(tries[start:], tries[:start]...)
			}
			if a.Variation {
				for i := range tries {
					tries[i] = tries[i].Add(hexgrid.Coord{
						Q: rng.Intn(3) - 1,
						R: rng.Intn(3) - 1,
					})
				}
			}
		}

		var lastErr *actionError
		landed := false
		for _, origin := range tries {
			s, aerr := x.placeStructure(ruleIdx, ruleName, actionIdx, def, origin, a.OverlapTolerance, rng, member)
			if aerr == nil {
				lastOrigin = s.Origin
				placed++
				landed = true
				break
			}
			lastErr = aerr
			if aerr.code == CodeCapacity {
				break
			}
		}
		if !landed && lastErr != nil {
			*x.diags = append(*x.diags, Diagnostic{
				Code:   lastErr.code,
				Rule:   ruleName,
				Action: actionIdx,
				Coord:  at,
				Detail: fmt.Sprintf("cluster member %d: %s", member, lastErr.detail),
			})
			if lastErr.code == CodeCapacity {
				break
			}
		}
	}
	if placed == 0 {
		return validationErr("no cluster member could be placed")
	}
	return nil
}

// modifyTerrain adjusts elevation over a radius in a single pass.
// Cells that would leave their terrain's elevation band are skipped
// with a diagnostic, not clamped.
func (x *executor) modifyTerrain(ruleIdx int, ruleName string, actionIdx int, a *rules.Action, at hexgrid.Coord) *actionError {
	op := a.Operation
	targets := x.m.CellsWithin(at, a.Radius)
	if len(targets) == 0 {
		return validationErr("no cells within radius %d of %v", a.Radius, at)
	}

	// Smooth reads the neighborhood before any write.
	original := make(map[hexgrid.Coord]int, len(targets))
	for _, cell := range targets {
		original[cell.Coord] = cell.Elevation
	}

	changed := 0
	for _, cell := range targets {
		elev := cell.Elevation
		next := elev
		switch op.Type {
		case rules.OpFlatten:
			next = op.Target
		case rules.OpRaise:
			next = elev + op.Amount
		case rules.OpLower:
			next = elev - op.Amount
		case rules.OpSmooth:
			sum, n := elev, 1
			for _, nc := range cell.Coord.Neighbors() {
				if e, ok := original[nc]; ok {
					sum += e
					n++
				}
			}
			next = roundedDiv(sum, n)
		}
		if next == elev {
			continue
		}
		if aerr := x.writeCell(ruleIdx, cell.Coord, cell.Terrain, next); aerr != nil {
			*x.diags = append(*x.diags, Diagnostic{
				Code: aerr.code, Rule: ruleName, Action: actionIdx,
				Coord: cell.Coord, Detail: aerr.detail,
			})
			continue
		}
		changed++
	}
	if changed == 0 {
		return validationErr("terrain modification changed no cells")
	}
	return nil
}

// generateWall stamps wall material at the target, or traces a line of
// wall to an explicit endpoint, raising elevation by the wall height.
func (x *executor) generateWall(ruleIdx int, ruleName string, actionIdx int, a *rules.Action, at hexgrid.Coord) *actionError {
	material, _ := world.ParseTerrain(a.Terrain)
	path := []hexgrid.Coord{at}
	if a.To != nil {
		path = hexgrid.Line(at, *a.To)
	}
	built := 0
	for _, c := range path {
		cell := x.m.Cell(c)
		if cell == nil {
			continue
		}
		if aerr := x.writeCell(ruleIdx, c, material, cell.Elevation+a.Height); aerr != nil {
			*x.diags = append(*x.diags, Diagnostic{
				Code: aerr.code, Rule: ruleName, Action: actionIdx,
				Coord: c, Detail: aerr.detail,
			})
			continue
		}
		built++
	}
	if built == 0 {
		return validationErr("no wall cells written")
	}
	return nil
}

// generateRoad traces a road from the target to the declared endpoint,
// or to the nearest structure perimeter when none is declared.
func (x *executor) generateRoad(ruleIdx int, ruleName string, actionIdx int, a *rules.Action, at hexgrid.Coord, rng *rand.Rand) *actionError {
	material, _ := world.ParseTerrain(a.Terrain)

	var to hexgrid.Coord
	var target *world.Structure
	if a.To != nil {
		to = *a.To
	} else {
		s, _, ok := x.idx.NearestAny(at)
		if !ok {
			return validationErr("no road endpoint: no structure placed")
		}
		target = s
		to = nearestCellOf(s, at)
	}

	path := roadPath(at, to, a.Style, rng)

	halfWidth := 0
	if a.Width > 1 {
		halfWidth = (a.Width - 1) / 2
	}

	laid := 0
	var roadCells []hexgrid.Coord
	for _, c := range path {
		// The road ends at the target's perimeter.
		if target != nil && target.Covers(c) {
			break
		}
		for _, w := range hexgrid.Range(c, halfWidth) {
			cell := x.m.Cell(w)
			if cell == nil || cell.Occupant != nil {
				continue
			}
			// Roads go around impassable terrain, not through it.
			if world.MoveCost(cell.Terrain) == world.Impassable {
				continue
			}
			if aerr := x.writeCell(ruleIdx, w, material, cell.Elevation); aerr != nil {
				*x.diags = append(*x.diags, Diagnostic{
					Code: aerr.code, Rule: ruleName, Action: actionIdx,
					Coord: w, Detail: aerr.detail,
				})
				continue
			}
			roadCells = append(roadCells, w)
			laid++
		}
	}
	if laid == 0 {
		return validationErr("no road cells written")
	}
	x.idx.MarkRoad(roadCells)
	return nil
}

// roadPath traces a straight or winding path. Winding splits the line
// into segments and perturbs each waypoint by up to the declared
// fraction of the segment length.
func roadPath(from, to hexgrid.Coord, style *rules.RoadStyle, rng *rand.Rand) []hexgrid.Coord {
	if style == nil || style.Type != rules.RoadWinding || style.Variation <= 0 {
		return hexgrid.Line(from, to)
	}

	const segment = 4
	straight := hexgrid.Line(from, to)
	if len(straight) <= segment {
		return straight
	}

	maxDev := int(style.Variation * float64(segment))
	if maxDev < 1 {
		maxDev = 1
	}

	waypoints := []hexgrid.Coord{from}
	for i := segment; i < len(straight)-1; i += segment {
		w := straight[i]
		w.Q += rng.Intn(2*maxDev+1) - maxDev
		w.R += rng.Intn(2*maxDev+1) - maxDev
		waypoints = append(waypoints, w)
	}
	waypoints = append(waypoints, to)

	var path []hexgrid.Coord
	for i := 0; i+1 < len(waypoints); i++ {
		seg := hexgrid.Line(waypoints[i], waypoints[i+1])
		if i > 0 {
			seg = seg[1:] // waypoint already on the path
		}
		path = append(path, seg...)
	}
	return path
}

// createWaterFeature grows a water body breadth-first from the target
// until the requested size is reached or growth is blocked. Wall is
// impassable to growth; claimed cells are carved down to sea level.
func (x *executor) createWaterFeature(ruleIdx int, a *rules.Action, at hexgrid.Coord) *actionError {
	var claimed []hexgrid.Coord
	visited := map[hexgrid.Coord]bool{at: true}
	queue := []hexgrid.Coord{at}

	for len(queue) > 0 && len(claimed) < a.Size {
		c := queue[0]
		queue = queue[1:]

		cell := x.m.Cell(c)
		if cell == nil || cell.Terrain == world.TerrainWall || cell.Occupant != nil {
			continue
		}
		if claimant, ok := x.ledger[c]; ok && claimant != ruleIdx {
			continue
		}
		claimed = append(claimed, c)
		for _, n := range c.Neighbors() {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	if len(claimed) == 0 {
		return validationErr("water feature blocked at %v", at)
	}

	for _, c := range claimed {
		cell := x.m.Cell(c)
		elev := cell.Elevation
		if elev > world.WaterMaxElevation {
			elev = world.WaterMaxElevation // the feature carves its basin
		}
		if aerr := x.writeCell(ruleIdx, c, world.TerrainWater, elev); aerr != nil {
			return aerr
		}
	}
	sortCoords(claimed)
	x.m.WaterFeatures = append(x.m.WaterFeatures, &world.WaterFeature{
		Type:   world.WaterFeatureType(a.FeatureType),
		Origin: at,
		Cells:  claimed,
	})
	return nil
}

// spawnResource deposits a resource at the target, scattering across
// the spread radius when one is declared.
func (x *executor) spawnResource(a *rules.Action, at hexgrid.Coord, rng *rand.Rand) *actionError {
	if x.m.Cell(at) == nil {
		return validationErr("no cell at %v", at)
	}
	if a.Spread <= 0 {
		x.m.AddDeposit(at, a.ResourceType, a.Amount)
		x.mutated[at] = true
		return nil
	}

	var targets []hexgrid.Coord
	for _, c := range hexgrid.Range(at, a.Spread) {
		if x.m.Cell(c) != nil {
			targets = append(targets, c)
		}
	}
	n := a.Spread + 1
	if n > len(targets) {
		n = len(targets)
	}
	perm := rng.Perm(len(targets))

	per := a.Amount / n
	rem := a.Amount % n
	for i := 0; i < n; i++ {
		amt := per
		if i == 0 {
			amt += rem
		}
		if amt == 0 {
			continue
		}
		c := targets[perm[i]]
		x.m.AddDeposit(c, a.ResourceType, amt)
		x.mutated[c] = true
	}
	return nil
}

func nearestCellOf(s *world.Structure, from hexgrid.Coord) hexgrid.Coord {
	best := s.Origin
	bestD := hexgrid.Distance(from, best)
	for _, c := range s.Cells {
		if d := hexgrid.Distance(from, c); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}

func roundedDiv(sum, n int) int {
	if sum >= 0 {
		return (sum + n/2) / n
	}
	return -((-sum + n/2) / n)
}
