package candidate

import "github.com/aptprep/aptprep/debver"

// ConflictsWith reports whether a conflicts with b under the Debian
// Conflicts/Breaks/Replaces rules: a and b conflict if either declares a
// Conflicts/Breaks clause matching the other's (name, version), unless the
// other declares a Replaces clause matching the declaring package's (name,
// version), which cancels it. Provides declarations are not consulted,
// either for matching a Conflicts/Breaks clause or for the Replaces
// cancellation. Conflicts and Breaks are treated uniformly, per §4.4.4.
func ConflictsWith(a, b *Package) bool {
	if a.Name == b.Name {
		return false
	}
	return declaresConflict(a, b) || declaresConflict(b, a)
}

func declaresConflict(a, b *Package) bool {
	for _, clause := range a.Conflicts {
		if clauseNames(clause, b.Name, b.Version) && !replacesCancels(b, a) {
			return true
		}
	}
	return false
}

// clauseNames reports whether clause names target at the given version; a
// Conflicts/Breaks clause is a single alternative in this system's model
// (Debian forbids "|" in Conflicts), but a clause value is still checked
// alternative-by-alternative for robustness against malformed input.
func clauseNames(clause debver.Clause, name string, version debver.Version) bool {
	for _, alt := range clause {
		if alt.Package != name {
			continue
		}
		if alt.Constraint.Relation == debver.DontCare || alt.Constraint.Satisfies(version) {
			return true
		}
	}
	return false
}

// replacesCancels reports whether one of victim's Replaces clauses names
// offender at offender's version, which cancels the conflict. Whether
// victim provides any name is not checked.
func replacesCancels(victim, offender *Package) bool {
	for _, clause := range victim.Replaces {
		if clauseNames(clause, offender.Name, offender.Version) {
			return true
		}
	}
	return false
}
