// Package lockfile is the canonical, reproducible serialization of a
// resolved closure: the reproducibility contract handed from `lock` to
// `download`. Modeled after deb/snapshot.go (an immutable,
// named, versioned set of packages), generalized from a reference-list of
// keys into a fully inlined, human-readable entry list.
package lockfile

import (
	"fmt"
	"os"
	"sort"

	"github.com/aptprep/aptprep/candidate"
	"github.com/aptprep/aptprep/debver"
	"github.com/aptprep/aptprep/utils"
	"gopkg.in/yaml.v3"
)

// CurrentFormatVersion is the major version this package writes and the
// newest one it can read. Readers reject any format_version they don't
// recognize.
const CurrentFormatVersion = 1

// Entry is a single locked package, per §4.6.
type Entry struct {
	Name               string   `yaml:"name"`
	Version            string   `yaml:"version"`
	Architecture       string   `yaml:"architecture"`
	SourceRepositoryID string   `yaml:"source_repository_id"`
	Filename           string   `yaml:"filename"`
	Size               int64    `yaml:"size"`
	ChecksumKind       string   `yaml:"checksum_kind"`
	ChecksumValue      string   `yaml:"checksum_value"`
	Depends            []string `yaml:"depends,omitempty"`
}

// Lockfile is the top-level on-disk shape: a format version plus the sorted
// entry list.
type Lockfile struct {
	FormatVersion int     `yaml:"format_version"`
	Entries       []Entry `yaml:"entries"`
}

// EntryFromPackage distills a candidate.Package into its lockfile entry,
// recording the strongest checksum kind/value and the dependency clauses
// as-resolved for audit.
func EntryFromPackage(p *candidate.Package) Entry {
	kind, value, _ := p.Checksum.Strongest()

	depends := make([]string, 0, len(p.Depends))
	for _, clause := range p.Depends {
		depends = append(depends, clause.String())
	}

	return Entry{
		Name:               p.Name,
		Version:            p.Version.String(),
		Architecture:       p.Architecture,
		SourceRepositoryID: p.SourceID,
		Filename:           p.Filename,
		Size:               p.Checksum.Size,
		ChecksumKind:       string(kind),
		ChecksumValue:      value,
		Depends:            depends,
	}
}

// New builds a Lockfile from every resolved architecture's package set,
// sorted by (architecture, name, version) as the canonical form requires.
// Ties among identical (architecture, name, version) from different
// sources are broken by SourceRepositoryID, ascending — the documented
// resolution of the canonical-form open question.
func New(perArch map[string][]*candidate.Package) *Lockfile {
	var entries []Entry
	for _, pkgs := range perArch {
		for _, p := range pkgs {
			entries = append(entries, EntryFromPackage(p))
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Architecture != b.Architecture {
			return a.Architecture < b.Architecture
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		cmp := debver.CompareVersions(a.Version, b.Version)
		if cmp != 0 {
			return cmp < 0
		}
		return a.SourceRepositoryID < b.SourceRepositoryID
	})

	return &Lockfile{FormatVersion: CurrentFormatVersion, Entries: entries}
}

// Write serializes lf as YAML and writes it atomically to path (via a
// <path>.tmp + fsync + rename), per §4.6.
func Write(path string, lf *Lockfile) error {
	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("lockfile: marshaling: %w", err)
	}
	return utils.WriteFileAtomic(path, data, 0o644)
}

// Load reads and parses a lockfile from path, rejecting a format_version
// outside 1..CurrentFormatVersion (including a missing one).
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("lockfile: parsing %s: %w", path, err)
	}

	if lf.FormatVersion < 1 || lf.FormatVersion > CurrentFormatVersion {
		return nil, fmt.Errorf("lockfile: %s has format_version %d, supported is 1 through %d",
			path, lf.FormatVersion, CurrentFormatVersion)
	}

	return &lf, nil
}

// ByArchitecture groups entries by architecture, preserving their existing
// sort order within each group.
func (lf *Lockfile) ByArchitecture() map[string][]Entry {
	result := make(map[string][]Entry)
	for _, e := range lf.Entries {
		result[e.Architecture] = append(result[e.Architecture], e)
	}
	return result
}
