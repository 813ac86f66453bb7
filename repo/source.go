// Package repo models a configured upstream Debian repository: its
// coordinate (source URL, distribution, component, architecture), Release
// metadata, and the URLs to fetch Release/Packages/.deb files from it.
// Grounded on deb/remote.go's RemoteRepo.
package repo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aptprep/aptprep/config"
	"github.com/aptprep/aptprep/fetch"
)

// Coordinate is a single (source_url, distribution, component, architecture)
// tuple, per the data model's Repository coordinate.
type Coordinate struct {
	Source       *Source
	Distribution string
	Component    string
	Architecture string
}

// Source is one configured source_repositories[] entry, expanded into a
// stable identity plus the URL-building logic for its coordinates.
type Source struct {
	// ID is a stable reference to this configured source, assigned once at
	// config load and carried into the lockfile as source_repository_id.
	ID               string
	BaseURL          string
	Architectures    []string
	Distributions    []string
	DistributionPath string
	Components       []string

	root *url.URL
}

// NewSource builds a Source from a config.SourceRepository entry, assigning
// it a stable identity derived from its own coordinates (written into the
// lockfile as source_repository_id). The ID must be reproducible across
// process invocations: a `lock` run and a later `download` run both call
// NewSource against the same config file and need matching IDs to resolve
// a lockfile entry back to the source it came from, so a per-call random
// UUID (the way RemoteRepo.UUID is assigned) is unusable here.
func NewSource(cfg config.SourceRepository) (*Source, error) {
	base, err := fetch.NormalizeBaseURL(cfg.SourceURL)
	if err != nil {
		return nil, err
	}

	root, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing normalized base URL %q: %w", base, err)
	}

	return &Source{
		ID:               deriveSourceID(base, cfg.DistributionPath, cfg.Distributions, cfg.Components),
		BaseURL:          base,
		Architectures:    cfg.Architectures,
		Distributions:    cfg.Distributions,
		DistributionPath: cfg.DistributionPath,
		Components:       cfg.Components,
		root:             root,
	}, nil
}

// deriveSourceID hashes the fields that together identify a configured
// source repository into a stable, filesystem- and YAML-safe token. Two
// NewSource calls against the same config entry, in different processes,
// always produce the same ID.
func deriveSourceID(baseURL, distributionPath string, distributions, components []string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s", baseURL, distributionPath,
		strings.Join(distributions, ","), strings.Join(components, ","))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// IsFlat reports whether this source uses a flat (non-dists/) layout, as
// signaled by an explicit distribution_path override.
func (s *Source) IsFlat() bool {
	return s.DistributionPath != ""
}

// ReleaseURL returns the URL to a named Release-family file (Release,
// InRelease, Release.gpg) for the given distribution.
func (s *Source) ReleaseURL(distribution, name string) string {
	var p string
	if s.IsFlat() {
		p = path.Join(s.DistributionPath, name)
	} else {
		p = fmt.Sprintf("dists/%s/%s", distribution, name)
	}
	return s.resolve(p)
}

// BinaryURL returns the URL to the Packages file for a given distribution,
// component, and architecture.
func (s *Source) BinaryURL(distribution, component, architecture string) string {
	var p string
	if s.IsFlat() {
		p = path.Join(s.DistributionPath, "Packages")
	} else {
		p = fmt.Sprintf("dists/%s/%s/binary-%s/Packages", distribution, component, architecture)
	}
	return s.resolve(p)
}

// ArtifactURL resolves a package stanza's Filename field (relative to the
// archive root) against this source's base URL.
func (s *Source) ArtifactURL(filename string) string {
	return s.resolve(filename)
}

func (s *Source) resolve(relative string) string {
	ref := &url.URL{Path: relative}
	return s.root.ResolveReference(ref).String()
}
