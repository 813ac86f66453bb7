package repo

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/fetch"
)

// FetchPackages retrieves and parses the Packages file for (distribution,
// component, architecture) from src, probing compressed forms in order of
// preference (.xz, .gz, .bz2, uncompressed) and verifying whichever is
// found against the Release file's authenticated checksum table when an
// entry for it exists.
func FetchPackages(ctx context.Context, fetcher *fetch.Fetcher, src *Source, release *Release, distribution, component, architecture string) ([]control.Stanza, error) {
	base := src.BinaryURL(distribution, component, architecture)
	relBase := fmt.Sprintf("%s/binary-%s/Packages", component, architecture)

	var lastErr error
	for _, candidate := range control.CompressionCandidates(base) {
		relCandidate := relBase + strings.TrimPrefix(candidate, base)

		data, err := fetcher.Fetch(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}

		if release != nil {
			if sum, ok := release.ChecksumFor(relCandidate); ok {
				if int64(len(data)) != sum.Size {
					return nil, aptlyerrors.NewIntegrityError("Packages", distribution, candidate,
						fmt.Sprintf("size %d", sum.Size), fmt.Sprintf("size %d", len(data)))
				}
				if sum.SHA256 != "" {
					got := sha256.Sum256(data)
					if hex.EncodeToString(got[:]) != sum.SHA256 {
						return nil, aptlyerrors.NewIntegrityError("Packages", distribution, candidate, sum.SHA256, hex.EncodeToString(got[:]))
					}
				}
			}
		}

		decompressed, closer, err := control.OpenCompressed(path.Base(candidate), bytes.NewReader(data))
		if err != nil {
			return nil, aptlyerrors.NewParseError(candidate, "", err)
		}

		reader := control.NewReader(decompressed, false)
		stanzas, err := reader.ReadAll()
		closer.Close()
		if err != nil {
			return nil, aptlyerrors.NewParseError(candidate, "", err)
		}

		return stanzas, nil
	}

	return nil, aptlyerrors.NewFetchError(base, 0, fmt.Errorf("no Packages file found among compression candidates: %w", lastErr))
}
