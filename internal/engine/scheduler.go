package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
	"github.com/Vi1i/rust-harmony/internal/rules"
	"github.com/Vi1i/rust-harmony/internal/world"
)

// PassConfig configures one generation pass.
type PassConfig struct {
	Set  *rules.Set
	Seed int64

	// Candidate region; nil means every cell in the map.
	Region []hexgrid.Coord

	// Candidate cells scanned per rule before the rule is cut off with
	// a capacity diagnostic. Zero means unlimited.
	MaxScansPerRule int

	// Worker count for condition evaluation. Values below 2 evaluate
	// sequentially. Results are identical either way: evaluation is
	// read-only and actions run only after a rule's scan completes.
	Parallelism int

	// External spatial providers (wind, slope, view).
	Env Environment
}

// Run executes one generation pass: rules sorted by descending
// priority (declaration order breaks ties), each rule scanning the
// region for satisfying candidates and applying its actions to them in
// ascending coordinate order. Returns the mutated cells and every
// non-fatal diagnostic; the world is mutated in place.
func Run(m *world.Map, cfg PassConfig) (*Report, error) {
	if cfg.Set == nil {
		return nil, fmt.Errorf("engine: nil rule set")
	}
	if cfg.Env == nil {
		return nil, fmt.Errorf("engine: nil environment provider")
	}

	report := &Report{}
	idx := world.NewIndex(m)
	streams := NewStreams(cfg.Seed)
	exec := newExecutor(m, idx, cfg.Set, streams, &report.Diagnostics)
	eval := &Evaluator{World: m, Index: idx, Env: cfg.Env}

	region := cfg.Region
	if region == nil {
		region = allCoords(m)
	} else {
		region = append([]hexgrid.Coord(nil), region...)
		sortCoords(region)
	}

	// Sort once at the start of the pass; the order is fixed even as
	// state changes underneath later rules.
	ordered := make([]*rules.Rule, len(cfg.Set.Rules))
	for i := range cfg.Set.Rules {
		ordered[i] = &cfg.Set.Rules[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	p := &pass{
		cfg:    cfg,
		exec:   exec,
		eval:   eval,
		region: region,
		report: report,
	}
	for ruleIdx, r := range ordered {
		p.runRule(ruleIdx, r)
		report.RulesRun++
	}

	report.StructuresPlaced = exec.placed
	report.Mutated = make([]hexgrid.Coord, 0, len(exec.mutated))
	for c := range exec.mutated {
		report.Mutated = append(report.Mutated, c)
	}
	sortCoords(report.Mutated)
	return report, nil
}

type pass struct {
	cfg    PassConfig
	exec   *executor
	eval   *Evaluator
	region []hexgrid.Coord
	report *Report
}

// runRule scans the region for candidates satisfying the rule, then
// applies the rule's actions to each match.
func (p *pass) runRule(ruleIdx int, r *rules.Rule) {
	candidates := p.region
	if limit := p.cfg.MaxScansPerRule; limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
		p.diag(Diagnostic{
			Code:   CodeCapacity,
			Rule:   r.Name,
			Action: -1,
			Detail: fmt.Sprintf("scan cap %d reached, %d candidates unvisited", limit, len(p.region)-limit),
		})
	}

	matches := p.scan(r, candidates)
	if len(matches) == 0 {
		p.diag(Diagnostic{
			Code:   CodeNoCandidates,
			Rule:   r.Name,
			Action: -1,
			Detail: "no candidates matched",
		})
		return
	}

	for _, at := range matches {
		// A capacity failure (max_count reached) ends the rule; later
		// candidates cannot succeed either.
		if stop := p.applyActions(ruleIdx, r, at, map[string]bool{}); stop {
			break
		}
	}
}

// scan evaluates the rule's conditions over the candidate cells,
// optionally fanned out across workers. No writes happen during a
// scan, so evaluation order cannot affect results.
func (p *pass) scan(r *rules.Rule, candidates []hexgrid.Coord) []hexgrid.Coord {
	results := make([]bool, len(candidates))

	if p.cfg.Parallelism > 1 && len(candidates) > 1 {
		var wg sync.WaitGroup
		chunk := (len(candidates) + p.cfg.Parallelism - 1) / p.cfg.Parallelism
		for start := 0; start < len(candidates); start += chunk {
			end := start + chunk
			if end > len(candidates) {
				end = len(candidates)
			}
			wg.Add(1)
			go func(lo, hi int) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					results[i], _ = p.eval.EvalAll(r.Conditions, candidates[i])
				}
			}(start, end)
		}
		wg.Wait()
	} else {
		for i, c := range candidates {
			results[i], _ = p.eval.EvalAll(r.Conditions, c)
		}
	}

	var matches []hexgrid.Coord
	for i, ok := range results {
		if ok {
			matches = append(matches, candidates[i])
		}
	}
	return matches
}

// applyActions runs a rule's actions at one candidate, in listed
// order; later actions see the effects of earlier ones. ApplyTemplate
// splices the template's rules into the pass at this point: each child
// rule is re-evaluated at the candidate and, when satisfied, applied
// under the invoking rule's claim. Returns true when a capacity
// failure means remaining candidates should not be tried.
func (p *pass) applyActions(ruleIdx int, r *rules.Rule, at hexgrid.Coord, expanding map[string]bool) bool {
	stop := false
	for ai := range r.Actions {
		a := &r.Actions[ai]
		if a.Type == rules.ActApplyTemplate {
			if p.expandTemplate(ruleIdx, r, ai, a.TemplateName, at, expanding) {
				stop = true
			}
			continue
		}
		if aerr := p.exec.apply(ruleIdx, r.Name, ai, a, at); aerr != nil {
			p.diag(Diagnostic{
				Code:   aerr.code,
				Rule:   r.Name,
				Action: ai,
				Coord:  at,
				Detail: aerr.detail,
			})
			if aerr.code == CodeCapacity {
				stop = true
			}
		}
	}
	return stop
}

func (p *pass) expandTemplate(ruleIdx int, r *rules.Rule, actionIdx int, name string, at hexgrid.Coord, expanding map[string]bool) bool {
	// The loader rejects cycles; this guards sets assembled in code.
	if expanding[name] {
		p.diag(Diagnostic{
			Code:   CodeValidation,
			Rule:   r.Name,
			Action: actionIdx,
			Coord:  at,
			Detail: fmt.Sprintf("template cycle through %q", name),
		})
		return false
	}
	t, ok := p.cfg.Set.Template(name)
	if !ok {
		p.diag(Diagnostic{
			Code:   CodeValidation,
			Rule:   r.Name,
			Action: actionIdx,
			Coord:  at,
			Detail: fmt.Sprintf("unknown template %q", name),
		})
		return false
	}
	expanding[name] = true
	defer delete(expanding, name)

	childRules := make([]*rules.Rule, len(t.Rules))
	for i := range t.Rules {
		childRules[i] = &t.Rules[i]
	}
	sort.SliceStable(childRules, func(i, j int) bool {
		return childRules[i].Priority > childRules[j].Priority
	})

	stop := false
	for _, child := range childRules {
		ok, _ := p.eval.EvalAll(child.Conditions, at)
		if !ok {
			continue
		}
		if p.applyActions(ruleIdx, child, at, expanding) {
			stop = true
		}
	}
	return stop
}

func (p *pass) diag(d Diagnostic) {
	p.report.Diagnostics = append(p.report.Diagnostics, d)
}

func allCoords(m *world.Map) []hexgrid.Coord {
	coords := make([]hexgrid.Coord, 0, len(m.Hexes))
	for c := range m.Hexes {
		coords = append(coords, c)
	}
	sortCoords(coords)
	return coords
}
