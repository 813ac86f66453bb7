package candidate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/debver"
)

// Universe is the solver-facing view of a single target architecture: every
// eligible real package indexed by name, plus a virtual-name index built
// from every Provides declaration.
type Universe struct {
	Architecture string

	// byName holds every real candidate for a name, sorted highest version
	// first, with the Ubuntu upstream-version workaround already applied.
	byName map[string][]*Package

	// provides maps a virtual name to the real packages that provide it,
	// sorted highest version first.
	provides map[string][]*Package
}

// NewUniverse builds a Universe for architecture from parsed stanzas,
// applying architecture fan-out (a stanza is eligible if its Architecture
// is architecture or "all") per §4.4.1.
func NewUniverse(architecture string, stanzas []control.Stanza, sourceID string) (*Universe, error) {
	u := &Universe{
		Architecture: architecture,
		byName:       make(map[string][]*Package),
		provides:     make(map[string][]*Package),
	}

	for _, s := range stanzas {
		if arch := s["Architecture"]; arch != architecture && arch != "all" {
			continue
		}

		pkg, err := FromStanza(s, sourceID)
		if err != nil {
			return nil, err
		}

		u.byName[pkg.Name] = append(u.byName[pkg.Name], pkg)
		for _, pv := range pkg.Provides {
			u.provides[pv.Name] = append(u.provides[pv.Name], pkg)
		}
	}

	for name, pkgs := range u.byName {
		u.byName[name] = dedupeAndSort(pkgs)
	}
	for name, pkgs := range u.provides {
		u.provides[name] = dedupeAndSort(pkgs)
	}

	return u, nil
}

// NewUniverseFromStream builds a Universe the same way NewUniverse does,
// but consumes stanzas from a control.StanzaStream as they arrive rather
// than requiring the full slice up front — the bounded-channel handoff
// between a fetch producer and this ingest stage per the concurrency
// model. It returns once the stream is closed, or ctx is canceled.
func NewUniverseFromStream(ctx context.Context, architecture string, stream *control.StanzaStream, sourceID string) (*Universe, error) {
	u := &Universe{
		Architecture: architecture,
		byName:       make(map[string][]*Package),
		provides:     make(map[string][]*Package),
	}

	for {
		select {
		case stanza, ok := <-stream.C():
			if !ok {
				for name, pkgs := range u.byName {
					u.byName[name] = dedupeAndSort(pkgs)
				}
				for name, pkgs := range u.provides {
					u.provides[name] = dedupeAndSort(pkgs)
				}
				return u, nil
			}

			if arch := stanza["Architecture"]; arch != architecture && arch != "all" {
				continue
			}

			pkg, err := FromStanza(stanza, sourceID)
			if err != nil {
				return nil, err
			}

			u.byName[pkg.Name] = append(u.byName[pkg.Name], pkg)
			for _, pv := range pkg.Provides {
				u.provides[pv.Name] = append(u.provides[pv.Name], pkg)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Merge folds another universe's candidates for the same architecture into
// u, used when multiple configured sources contribute to one target
// architecture.
func (u *Universe) Merge(other *Universe) error {
	if other.Architecture != u.Architecture {
		return fmt.Errorf("cannot merge universe for %s into %s", other.Architecture, u.Architecture)
	}
	for name, pkgs := range other.byName {
		u.byName[name] = dedupeAndSort(append(u.byName[name], pkgs...))
	}
	for name, pkgs := range other.provides {
		u.provides[name] = dedupeAndSort(append(u.provides[name], pkgs...))
	}
	return nil
}

// dedupeAndSort applies the Ubuntu upstream-version workaround (when two
// stanzas compare version-equal but have differing upstream strings,
// prefer the lexicographically largest Filename) and sorts the result
// highest version first, then by name, per the determinism-by-sorting
// design note. Packages with different names are never collapsed, so a
// provides list keeps every provider even when their versions are equal.
func dedupeAndSort(pkgs []*Package) []*Package {
	sort.SliceStable(pkgs, func(i, j int) bool {
		cmp := pkgs[i].Version.Compare(pkgs[j].Version)
		if cmp != 0 {
			return cmp > 0
		}
		if pkgs[i].Name != pkgs[j].Name {
			return pkgs[i].Name < pkgs[j].Name
		}
		return pkgs[i].Filename > pkgs[j].Filename
	})

	result := make([]*Package, 0, len(pkgs))
	for _, p := range pkgs {
		if len(result) > 0 && result[len(result)-1].Name == p.Name && result[len(result)-1].Version.Compare(p.Version) == 0 {
			// Same Debian-ordered version as the package we just kept: this
			// is either an exact duplicate stanza or the Ubuntu
			// upstream-version-mismatch defect. Either way the sort above
			// already put the lexicographically-largest Filename first.
			continue
		}
		result = append(result, p)
	}
	return result
}

// RealCandidates returns every real package named name, highest version
// first.
func (u *Universe) RealCandidates(name string) []*Package {
	return u.byName[name]
}

// ProvidingCandidates returns every real package that provides the virtual
// name, highest version first, filtered to those whose Provides constraint
// (if any) is compatible with constraint. An unversioned Provides never
// satisfies a versioned dependency constraint, per §3/§8.
func (u *Universe) ProvidingCandidates(name string, constraint debver.Constraint) []*Package {
	var out []*Package
	for _, p := range u.provides[name] {
		for _, pv := range p.Provides {
			if pv.Name != name {
				continue
			}
			if constraint.Relation != debver.DontCare && pv.Constraint.Relation == debver.DontCare {
				continue
			}
			if constraint.Relation != debver.DontCare && !constraint.Satisfies(pv.Constraint.Version) {
				continue
			}
			out = append(out, p)
			break
		}
	}
	return dedupeAndSort(out)
}

// CandidatesForAlternative resolves a single dependency alternative to the
// ordered set of packages that could satisfy it: real matches first (by
// the "prefer real over provides" tie-break), then virtual/provides
// matches, each group ordered highest-version-first.
func (u *Universe) CandidatesForAlternative(alt debver.Alternative) []*Package {
	var out []*Package

	for _, p := range u.RealCandidates(alt.Package) {
		if !matchesArchitecture(p, alt.Architecture, u.Architecture) {
			continue
		}
		if alt.Constraint.Satisfies(p.Version) {
			out = append(out, p)
		}
	}

	out = append(out, u.ProvidingCandidates(alt.Package, alt.Constraint)...)

	return out
}

// matchesArchitecture implements §4.4.5's Multi-Arch semantics: a
// "foreign"-tagged package satisfies a dependency from any architecture; a
// "same"-tagged or untagged package requires matching architecture unless
// the dependency explicitly qualifies a different one (pkg:arch), which
// this system treats as requiring that literal architecture.
func matchesArchitecture(p *Package, requiredArch, universeArch string) bool {
	if requiredArch != "" {
		return p.Architecture == requiredArch || p.Architecture == "all"
	}
	if p.Architecture == "all" {
		return true
	}
	if strings.EqualFold(p.MultiArch, "foreign") {
		return true
	}
	return p.Architecture == universeArch
}

// SortedNames returns every name with at least one real candidate, sorted,
// for deterministic iteration.
func (u *Universe) SortedNames() []string {
	names := make([]string, 0, len(u.byName))
	for name := range u.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
