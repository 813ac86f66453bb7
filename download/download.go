// Package download consumes a lockfile and fetches every locked artifact,
// verifying its checksum and placing it deterministically in the output
// tree. Grounded on deb/package.go's DownloadList/VerifyFiles
// (the existing-file skip/mismatch logic), composed with fetch.Fetcher and
// utils.ChecksumsForFile.
package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/fetch"
	"github.com/aptprep/aptprep/lockfile"
	"github.com/aptprep/aptprep/repo"
	"github.com/aptprep/aptprep/utils"
	"github.com/cavaliergopher/grab/v3"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Downloader places every entry of a Lockfile under an output directory.
type Downloader struct {
	fetcher *fetch.Fetcher
	output  string
}

// New constructs a Downloader writing into outputDir.
func New(fetcher *fetch.Fetcher, outputDir string) *Downloader {
	return &Downloader{fetcher: fetcher, output: outputDir}
}

// Result reports what happened to a single lockfile entry.
type Result struct {
	Entry   lockfile.Entry
	Skipped bool // already present on disk with a matching checksum
}

// DownloadAll fetches every entry in lf, resolving each entry's source
// repository via sources (keyed by SourceRepositoryID). Concurrency is
// bounded by the underlying Fetcher's own per-host/global semaphores; this
// loop just fans requests out to it.
func (d *Downloader) DownloadAll(ctx context.Context, lf *lockfile.Lockfile, sources map[string]*repo.Source) ([]Result, error) {
	if err := utils.EnsureDir(d.output); err != nil {
		return nil, aptlyerrors.NewIOError(d.output, err)
	}

	results := make([]Result, len(lf.Entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, entry := range lf.Entries {
		i, entry := i, entry
		g.Go(func() error {
			result, err := d.downloadOne(gctx, entry, sources)
			if err != nil {
				return err
			}
			results[i] = *result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (d *Downloader) downloadOne(ctx context.Context, entry lockfile.Entry, sources map[string]*repo.Source) (*Result, error) {
	source, ok := sources[entry.SourceRepositoryID]
	if !ok {
		return nil, fmt.Errorf("download: entry %s %s: unknown source repository id %s", entry.Name, entry.Version, entry.SourceRepositoryID)
	}

	expected := utils.ChecksumInfo{Size: entry.Size}
	switch utils.Kind(entry.ChecksumKind) {
	case utils.SHA512:
		expected.SHA512 = entry.ChecksumValue
	case utils.SHA384:
		expected.SHA384 = entry.ChecksumValue
	case utils.SHA256:
		expected.SHA256 = entry.ChecksumValue
	case utils.SHA1:
		expected.SHA1 = entry.ChecksumValue
	case utils.MD5:
		expected.MD5 = entry.ChecksumValue
	}

	dest := utils.JoinClean(d.output, entry.Filename)

	if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
		return nil, aptlyerrors.NewIOError(dest, err)
	}

	// Resumption policy per §4.7: matching size+checksum skips; any
	// mismatch (size or checksum) redownloads.
	if ok, err := utils.VerifyFile(dest, expected); err != nil {
		return nil, aptlyerrors.NewIOError(dest, err)
	} else if ok {
		log.Debug().Str("package", entry.Name).Str("path", dest).Msg("artifact already present, skipping")
		return &Result{Entry: entry, Skipped: true}, nil
	}

	// expected flows into grab's checksum verification, which hashes the
	// file once the transfer completes and deletes it on a mismatch; no
	// separate VerifyFile pass runs here afterwards.
	url := source.ArtifactURL(entry.Filename)
	if err := d.fetcher.DownloadWithChecksum(ctx, url, dest, &expected); err != nil {
		utils.RemoveIfExists(dest)
		if errors.Is(err, grab.ErrBadChecksum) {
			return nil, aptlyerrors.NewIntegrityError(entry.Name, entry.Version, dest, entry.ChecksumValue, "mismatch")
		}
		return nil, err
	}

	return &Result{Entry: entry}, nil
}
