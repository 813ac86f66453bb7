// Package resolve drives a PubGrub-style incremental solver over a
// candidate.Universe to compute a complete, conflict-free dependency
// closure for a set of root requirements, or a human-readable explanation
// of why none exists.
//
// deb/list.go's VerifyDependencies/Filter is a simpler fixed-point
// "keep pulling missing deps until none remain" resolver with no conflict
// detection or backjumping. This solver borrows that worklist style for its
// propagation loop but adds real backtracking search, exclusion sets, and
// incompatibility-style derivation text, named after the terminology a
// pubgrub-style solver's interfaces use (Term, Source, Version).
package resolve

import (
	"fmt"
	"sort"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/candidate"
	"github.com/aptprep/aptprep/debver"
)

// Requirement is a root-level request: a package name with an optional
// version constraint, as parsed from Config.Packages.
type Requirement struct {
	Name       string
	Constraint debver.Constraint
}

// Solution is the complete, conflict-free set of packages chosen for one
// architecture.
type Solution struct {
	Architecture string
	chosen       map[string]*candidate.Package
}

// Packages returns every chosen package, sorted by name for deterministic
// output.
func (s *Solution) Packages() []*candidate.Package {
	names := make([]string, 0, len(s.chosen))
	for name := range s.chosen {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*candidate.Package, 0, len(names))
	for _, name := range names {
		result = append(result, s.chosen[name])
	}
	return result
}

// queueItem is a pending dependency clause awaiting satisfaction, tagged
// with the package that introduced it (for conflict derivation text) and,
// for root requirements, a single-alternative synthetic clause.
type queueItem struct {
	owner  string
	clause debver.Clause
}

// state is the search's mutable assignment plus its per-package exclusion
// sets. Why a branch failed is recorded directly as explanation text
// rather than as a structured incompatibility term set, since this
// solver's search is chronological backtracking rather than
// non-chronological backjumping with 1-UIP learning.
type state struct {
	universe *candidate.Universe
	assigned map[string]*candidate.Package
	excluded map[string]map[string]bool // package -> excluded version strings
}

// Solve computes a closure satisfying every requirement over universe, or
// returns an error carrying a PubGrub-style derivation when no solution
// exists. Iteration is deterministic: candidates are always considered in
// (real-before-virtual, highest-version-first) order, per §4.5.
func Solve(universe *candidate.Universe, requirements []Requirement) (*Solution, error) {
	st := &state{
		universe: universe,
		assigned: make(map[string]*candidate.Package),
		excluded: make(map[string]map[string]bool),
	}

	queue := make([]queueItem, 0, len(requirements))
	for _, req := range requirements {
		queue = append(queue, queueItem{
			owner:  "(root)",
			clause: debver.Clause{{Package: req.Name, Constraint: req.Constraint}},
		})
	}

	var derivation []string
	if !st.search(queue, &derivation) {
		return nil, aptlyerrors.NewResolutionError(universe.Architecture, derivation)
	}

	return &Solution{Architecture: universe.Architecture, chosen: st.assigned}, nil
}

// search attempts to satisfy every item in queue, trying candidates for the
// most-constrained pending clause first and backtracking chronologically on
// failure. It mutates st.assigned destructively along the winning path;
// callers on a losing path must restore state themselves (search does this
// for its own decisions before returning false).
func (st *state) search(queue []queueItem, derivation *[]string) bool {
	// Drop clauses already satisfied by the current assignment; this is the
	// unit-propagation step; a clause with no remaining undecided
	// alternative viable is where we branch.
	pending := make([]queueItem, 0, len(queue))
	for _, item := range queue {
		if st.satisfied(item.clause) {
			continue
		}
		pending = append(pending, item)
	}

	if len(pending) == 0 {
		return true
	}

	// Most-constrained-first: pick the pending clause with the fewest viable
	// candidates remaining.
	bestIdx := -1
	var bestCandidates []*candidate.Package
	for i, item := range pending {
		cands := st.viableCandidates(item.clause)
		if bestIdx == -1 || len(cands) < len(bestCandidates) {
			bestIdx, bestCandidates = i, cands
		}
		if len(cands) == 0 {
			bestIdx, bestCandidates = i, cands
			break
		}
	}

	chosen := pending[bestIdx]
	rest := make([]queueItem, 0, len(pending)-1)
	rest = append(rest, pending[:bestIdx]...)
	rest = append(rest, pending[bestIdx+1:]...)

	if len(bestCandidates) == 0 {
		*derivation = append(*derivation, explainFailure(chosen, st.assigned))
		return false
	}

	// Exclusions recorded here only hold under this call's assignment, so
	// they are lifted again before returning false to the caller.
	var excludedHere []*candidate.Package
	defer func() {
		for _, cand := range excludedHere {
			delete(st.excluded[cand.Name], cand.Version.String())
		}
	}()

	for _, cand := range bestCandidates {
		if st.isExcluded(cand) {
			continue
		}
		if conflict, with := st.conflictsWithAssigned(cand); conflict {
			*derivation = append(*derivation, fmt.Sprintf(
				"candidate %s %s for %q (required by %s) conflicts with already-chosen %s %s",
				cand.Name, cand.Version, chosen.clause, chosen.owner, with.Name, with.Version))
			continue
		}

		st.assign(cand)
		next := append(append([]queueItem{}, rest...), st.clausesFor(cand)...)

		if st.search(next, derivation) {
			return true
		}

		st.unassign(cand)
		st.exclude(cand)
		excludedHere = append(excludedHere, cand)
	}

	return false
}

func (st *state) clausesFor(p *candidate.Package) []queueItem {
	items := make([]queueItem, 0, len(p.Depends))
	for _, clause := range p.Depends {
		items = append(items, queueItem{owner: p.Name, clause: clause})
	}
	return items
}

func (st *state) assign(p *candidate.Package) { st.assigned[p.Name] = p }

func (st *state) unassign(p *candidate.Package) { delete(st.assigned, p.Name) }

func (st *state) exclude(p *candidate.Package) {
	if st.excluded[p.Name] == nil {
		st.excluded[p.Name] = make(map[string]bool)
	}
	st.excluded[p.Name][p.Version.String()] = true
}

func (st *state) isExcluded(p *candidate.Package) bool {
	return st.excluded[p.Name] != nil && st.excluded[p.Name][p.Version.String()]
}

// satisfied reports whether the current assignment already satisfies
// clause: some alternative names a package assigned to a version within
// its constraint. There is no separate self-dependency rule; a clause
// naming its own (already assigned) owner counts as satisfied only when
// the owner's version meets the alternative's constraint.
func (st *state) satisfied(clause debver.Clause) bool {
	for _, alt := range clause {
		if p, ok := st.assigned[alt.Package]; ok && alt.Constraint.Satisfies(p.Version) {
			return true
		}
	}
	return false
}

// viableCandidates returns every not-yet-excluded candidate across every
// alternative of clause, in alternative order (leftmost preferred) then
// highest-version-first within each alternative, skipping candidates whose
// name is already assigned to a different package. Conflicts with assigned
// packages are not checked here; search checks them per candidate.
func (st *state) viableCandidates(clause debver.Clause) []*candidate.Package {
	var out []*candidate.Package
	for _, alt := range clause {
		for _, cand := range st.universe.CandidatesForAlternative(alt) {
			if st.isExcluded(cand) {
				continue
			}
			if assigned, ok := st.assigned[cand.Name]; ok && assigned != cand {
				continue
			}
			out = append(out, cand)
		}
	}
	return out
}

// conflictsWithAssigned reports whether p conflicts with any already-chosen
// package, naming the first such conflict by sorted name so the derivation
// text is reproducible across runs: st.assigned is a map, and Go's range
// order over it is randomized, so picking the first conflict found by
// unsorted iteration could name a different package each run when p
// conflicts with two or more assigned packages at once.
func (st *state) conflictsWithAssigned(p *candidate.Package) (bool, *candidate.Package) {
	names := make([]string, 0, len(st.assigned))
	for name := range st.assigned {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		other := st.assigned[name]
		if candidate.ConflictsWith(p, other) {
			return true, other
		}
	}
	return false, nil
}

func explainFailure(item queueItem, assigned map[string]*candidate.Package) string {
	names := make([]string, 0, len(assigned))
	for name := range assigned {
		names = append(names, name)
	}
	sort.Strings(names)

	return fmt.Sprintf("no candidate satisfies %q (required by %s); chosen so far: %v",
		item.clause, item.owner, names)
}
