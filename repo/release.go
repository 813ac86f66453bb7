package repo

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/fetch"
	"github.com/aptprep/aptprep/utils"
)

// Release holds the metadata this system cares about from a Release file:
// the architectures and components it advertises, and the authenticated
// file index (relative path -> checksum info) used to verify Packages
// downloads. Signature verification (InRelease/Release.gpg) is out of
// scope; the Release file itself is fetched over HTTPS and trusted as-is.
type Release struct {
	Suite         string
	Codename      string
	Architectures []string
	Components    []string
	Files         map[string]utils.ChecksumInfo
}

// FetchRelease retrieves and parses the Release file for distribution from
// src, populating the per-file checksum table from whichever of
// MD5Sum/SHA1/SHA256/SHA384/SHA512 the Release file advertises.
func FetchRelease(ctx context.Context, fetcher *fetch.Fetcher, src *Source, distribution string) (*Release, error) {
	releaseURL := src.ReleaseURL(distribution, "Release")

	data, err := fetcher.Fetch(ctx, releaseURL)
	if err != nil {
		return nil, err
	}

	reader := control.NewReader(bytes.NewReader(data), true)
	stanza, err := reader.ReadStanza()
	if err != nil {
		return nil, aptlyerrors.NewParseError(releaseURL, "", err)
	}
	if stanza == nil {
		return nil, aptlyerrors.NewParseError(releaseURL, "", fmt.Errorf("empty Release file"))
	}

	release := &Release{
		Suite:    stanza["Suite"],
		Codename: stanza["Codename"],
		Files:    make(map[string]utils.ChecksumInfo),
	}

	if v := strings.TrimSpace(stanza["Architectures"]); v != "" {
		release.Architectures = strings.Fields(v)
	}
	if v := strings.TrimSpace(stanza["Components"]); v != "" {
		release.Components = strings.Fields(v)
	}

	parseSums := func(field string, setter func(sum *utils.ChecksumInfo, value string)) error {
		value, ok := stanza[field]
		if !ok {
			return nil
		}
		for _, line := range strings.Split(value, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			parts := strings.Fields(line)
			if len(parts) != 3 {
				return fmt.Errorf("unparseable %s line %q", field, line)
			}

			size, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return fmt.Errorf("unparseable size in %s line %q: %w", field, line, err)
			}

			sum := release.Files[parts[2]]
			sum.Size = size
			setter(&sum, parts[0])
			release.Files[parts[2]] = sum
		}
		return nil
	}

	for field, setter := range map[string]func(*utils.ChecksumInfo, string){
		"MD5Sum": func(s *utils.ChecksumInfo, v string) { s.MD5 = v },
		"SHA1":   func(s *utils.ChecksumInfo, v string) { s.SHA1 = v },
		"SHA256": func(s *utils.ChecksumInfo, v string) { s.SHA256 = v },
		"SHA384": func(s *utils.ChecksumInfo, v string) { s.SHA384 = v },
		"SHA512": func(s *utils.ChecksumInfo, v string) { s.SHA512 = v },
	} {
		if err := parseSums(field, setter); err != nil {
			return nil, aptlyerrors.NewParseError(releaseURL, field, err)
		}
	}

	return release, nil
}

// ChecksumFor looks up the checksum info for a Release-relative path, e.g.
// "main/binary-amd64/Packages.xz".
func (r *Release) ChecksumFor(relativePath string) (utils.ChecksumInfo, bool) {
	sum, ok := r.Files[relativePath]
	return sum, ok
}
