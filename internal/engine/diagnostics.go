// Package engine evaluates condition trees against live world state
// and applies rule actions deterministically: priority scheduling,
// conflict tracking, action execution, and structure layout expansion.
package engine

import (
	"fmt"
	"sort"

	"github.com/Vi1i/rust-harmony/internal/hexgrid"
)

// Diagnostic codes. Everything here is non-fatal: it is recorded and
// the pass continues. Only load errors abort a pass.
const (
	CodeConflict     = "E_CONFLICT"      // cell claimed by a higher-priority rule
	CodeValidation   = "E_VALIDATION"    // action violates world constraints
	CodeCapacity     = "E_CAPACITY"      // scan cap or max_count reached
	CodeNoCandidates = "E_NO_CANDIDATES" // rule matched nothing
)

// Diagnostic records one rejected action, conflict, or vacuous rule.
type Diagnostic struct {
	Code   string        `json:"code"`
	Rule   string        `json:"rule"`
	Action int           `json:"action"` // index within the rule, -1 when not action-scoped
	Coord  hexgrid.Coord `json:"coord"`
	Detail string        `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s rule=%q action=%d at=%v: %s", d.Code, d.Rule, d.Action, d.Coord, d.Detail)
}

// Report is the outcome of one generation pass: which cells changed
// and every non-fatal diagnostic, in deterministic order.
type Report struct {
	Mutated     []hexgrid.Coord `json:"mutated"`
	Diagnostics []Diagnostic    `json:"diagnostics"`

	RulesRun         int `json:"rules_run"`
	StructuresPlaced int `json:"structures_placed"`
}

// CountCode returns how many diagnostics carry the given code.
func (r *Report) CountCode(code string) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Code == code {
			n++
		}
	}
	return n
}

func sortCoords(coords []hexgrid.Coord) {
	sort.Slice(coords, func(i, j int) bool {
		return hexgrid.Less(coords[i], coords[j])
	})
}

// actionError is a non-fatal action failure carrying a diagnostic code.
type actionError struct {
	code   string
	detail string
}

func (e *actionError) Error() string {
	return e.code + ": " + e.detail
}

func conflictErr(format string, args ...any) *actionError {
	return &actionError{code: CodeConflict, detail: fmt.Sprintf(format, args...)}
}

func validationErr(format string, args ...any) *actionError {
	return &actionError{code: CodeValidation, detail: fmt.Sprintf(format, args...)}
}

func capacityErr(format string, args ...any) *actionError {
	return &actionError{code: CodeCapacity, detail: fmt.Sprintf(format, args...)}
}
