// Package candidate bridges Debian's universe (virtual packages,
// alternatives, architecture fan-out) to the solver's plain universe of
// (name, version) pairs with declared dependencies. Grounded on the
// teacher's deb/package.go NewPackageFromControlFile, generalized from a
// mutable collection-backed Package to an immutable value distilled
// straight from a parsed stanza.
package candidate

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/debver"
	"github.com/aptprep/aptprep/utils"
)

// Provide is a single virtual package a real package declares, optionally
// with the version it provides that name at.
type Provide struct {
	Name       string
	Constraint debver.Constraint
}

// Package is the internal (name, version, architecture, repository) tuple
// distilled from a stanza, with its dependency/conflict/provides clauses
// and artifact reference.
type Package struct {
	Name         string
	Version      debver.Version
	Architecture string
	MultiArch    string // "", "same", or "foreign"
	Essential    bool
	Priority     string
	Source       string

	SourceID string // stable id of the repo.Source this stanza came from
	Filename string
	Checksum utils.ChecksumInfo

	Depends   []debver.Clause // Depends + Pre-Depends, merged
	Conflicts []debver.Clause // Conflicts + Breaks, merged
	Replaces  []debver.Clause
	Provides  []Provide

	raw control.Stanza
}

// Key identifies a package independent of version, for indexing.
func (p *Package) Key() string { return p.Name }

// FromStanza distills a parsed Packages stanza into a Package, validating
// that the required fields (Package, Version, Filename, Architecture, and
// at least one checksum) are present, per the Index Parser's strictness
// rule.
func FromStanza(s control.Stanza, sourceID string) (*Package, error) {
	name := s["Package"]
	version := s["Version"]
	arch := s["Architecture"]
	filename := s["Filename"]

	if name == "" || version == "" || arch == "" || filename == "" {
		return nil, aptlyerrors.NewParseError(sourceID, "Package/Version/Architecture/Filename",
			fmt.Errorf("missing required field in stanza"))
	}

	size, _ := strconv.ParseInt(s["Size"], 10, 64)
	checksum := utils.ChecksumInfo{
		Size:   size,
		MD5:    firstNonEmpty(s["MD5sum"], s["MD5Sum"]),
		SHA1:   s["SHA1"],
		SHA256: s["SHA256"],
	}
	if _, _, ok := checksum.Strongest(); !ok {
		return nil, aptlyerrors.NewParseError(sourceID, "checksum", fmt.Errorf("stanza for %s has no checksum", name))
	}

	pkg := &Package{
		Name:         name,
		Version:      debver.Parse(version),
		Architecture: arch,
		MultiArch:    s["Multi-Arch"],
		Essential:    strings.EqualFold(strings.TrimSpace(s["Essential"]), "yes"),
		Priority:     s["Priority"],
		Source:       s["Source"],
		SourceID:     sourceID,
		Filename:     filename,
		Checksum:     checksum,
		raw:          s,
	}

	depends, err := parseClauses(s, "Depends")
	if err != nil {
		return nil, aptlyerrors.NewParseError(sourceID, "Depends", err)
	}
	preDepends, err := parseClauses(s, "Pre-Depends")
	if err != nil {
		return nil, aptlyerrors.NewParseError(sourceID, "Pre-Depends", err)
	}
	pkg.Depends = append(depends, preDepends...)

	conflicts, err := parseClauses(s, "Conflicts")
	if err != nil {
		return nil, aptlyerrors.NewParseError(sourceID, "Conflicts", err)
	}
	breaks, err := parseClauses(s, "Breaks")
	if err != nil {
		return nil, aptlyerrors.NewParseError(sourceID, "Breaks", err)
	}
	pkg.Conflicts = append(conflicts, breaks...)

	pkg.Replaces, err = parseClauses(s, "Replaces")
	if err != nil {
		return nil, aptlyerrors.NewParseError(sourceID, "Replaces", err)
	}

	pkg.Provides, err = parseProvides(s["Provides"])
	if err != nil {
		return nil, aptlyerrors.NewParseError(sourceID, "Provides", err)
	}

	return pkg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseClauses(s control.Stanza, field string) ([]debver.Clause, error) {
	value := strings.TrimSpace(s[field])
	if value == "" {
		return nil, nil
	}

	var clauses []debver.Clause
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		clause, err := debver.ParseClause(part)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func parseProvides(value string) ([]Provide, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	var provides []Provide
	for _, part := range strings.Split(value, ",") {
		alt, err := debver.ParseAlternative(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		provides = append(provides, Provide{Name: alt.Package, Constraint: alt.Constraint})
	}
	return provides, nil
}
