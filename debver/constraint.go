package debver

import (
	"fmt"
	"strings"
)

// Relation is a version relational operator, as used in dependency clauses.
type Relation int

// Relation values. DontCare means "no version constraint at all".
const (
	DontCare Relation = iota
	Less              // <<
	LessOrEqual       // <=
	Equal             // =
	GreaterOrEqual    // >=
	Greater           // >>
)

func (r Relation) String() string {
	switch r {
	case Less:
		return "<<"
	case LessOrEqual:
		return "<="
	case Equal:
		return "="
	case GreaterOrEqual:
		return ">="
	case Greater:
		return ">>"
	}
	return ""
}

// Constraint is a relational expression over versions: unconstrained, or one
// relation plus the version to compare against.
type Constraint struct {
	Relation Relation
	Version  Version
}

// Satisfies reports whether ver satisfies the constraint.
func (c Constraint) Satisfies(ver Version) bool {
	if c.Relation == DontCare {
		return true
	}

	cmp := ver.Compare(c.Version)
	switch c.Relation {
	case Equal:
		return cmp == 0
	case Less:
		return cmp < 0
	case LessOrEqual:
		return cmp <= 0
	case GreaterOrEqual:
		return cmp >= 0
	case Greater:
		return cmp > 0
	}
	return false
}

func (c Constraint) String() string {
	if c.Relation == DontCare {
		return ""
	}
	return fmt.Sprintf("(%s %s)", c.Relation, c.Version)
}

// Alternative is a single element of a dependency clause: a package name,
// optional architecture qualifier ("pkg:amd64"), and optional constraint.
type Alternative struct {
	Package      string
	Architecture string // empty unless explicitly qualified, e.g. "pkg:amd64"
	Constraint   Constraint
}

func (a Alternative) String() string {
	s := a.Package
	if a.Architecture != "" {
		s += ":" + a.Architecture
	}
	if c := a.Constraint.String(); c != "" {
		s += " " + c
	}
	return s
}

// Clause is a disjunction of alternatives ("a | b | c"); it is satisfied if
// any alternative is satisfied. Order encodes preference: leftmost wins ties.
type Clause []Alternative

func (c Clause) String() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

// ParseClause parses a dependency field value such as
// "default-mta | mail-transport-agent" or "libc6 (>= 2.14)" into a Clause.
func ParseClause(field string) (Clause, error) {
	parts := strings.Split(field, "|")
	clause := make(Clause, 0, len(parts))

	for _, part := range parts {
		alt, err := ParseAlternative(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		clause = append(clause, alt)
	}

	return clause, nil
}

// ParseAlternative parses a single alternative such as
// "libc6:amd64 (>= 2.14)" into its package name, optional architecture
// qualifier, and optional constraint.
func ParseAlternative(alt string) (Alternative, error) {
	var a Alternative

	alt = strings.TrimSpace(alt)

	if strings.HasSuffix(alt, ")") {
		i := strings.Index(alt, "(")
		if i == -1 {
			return a, fmt.Errorf("debver: malformed dependency alternative %q: unmatched )", alt)
		}

		nameAndArch := strings.TrimSpace(alt[:i])
		rel, ver, err := parseRelationAndVersion(strings.TrimSpace(alt[i+1 : len(alt)-1]))
		if err != nil {
			return a, fmt.Errorf("debver: malformed dependency alternative %q: %w", alt, err)
		}

		a.Package, a.Architecture = splitArch(nameAndArch)
		a.Constraint = Constraint{Relation: rel, Version: ver}
		return a, nil
	}

	a.Package, a.Architecture = splitArch(alt)
	a.Constraint = Constraint{Relation: DontCare}
	return a, nil
}

func splitArch(nameAndArch string) (name, arch string) {
	if i := strings.Index(nameAndArch, ":"); i != -1 {
		return nameAndArch[:i], nameAndArch[i+1:]
	}
	return nameAndArch, ""
}

// parseRelationAndVersion parses the inside of the parens of a dependency,
// e.g. ">= 1.2.3" or "= 1.0".
func parseRelationAndVersion(s string) (Relation, Version, error) {
	relStr := ""
	i := 0
	for i < len(s) && (s[i] == '>' || s[i] == '<' || s[i] == '=') {
		relStr += string(s[i])
		i++
	}

	ver := strings.TrimSpace(s[i:])

	var rel Relation
	switch relStr {
	case "", "=":
		rel = Equal
	case "<", "<=":
		rel = LessOrEqual
	case ">", ">=":
		rel = GreaterOrEqual
	case "<<":
		rel = Less
	case ">>":
		rel = Greater
	default:
		return DontCare, Version{}, fmt.Errorf("unknown relation %q", relStr)
	}

	return rel, Parse(ver), nil
}
