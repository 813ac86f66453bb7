package control

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/smira/go-xz"
)

// OpenCompressed wraps r with the decompressor implied by name's extension
// (.gz, .xz, .bz2), or returns r unchanged for an uncompressed name. The
// returned closer must be closed by the caller once done reading; it is a
// no-op for formats (like bzip2) whose stdlib reader has no Close method.
func OpenCompressed(name string, r io.Reader) (io.Reader, io.Closer, error) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("control: ungzip %s: %w", name, err)
		}
		return gz, gz, nil
	case strings.HasSuffix(name, ".xz"):
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("control: unxz %s: %w", name, err)
		}
		return xzr, nopCloser{}, nil
	case strings.HasSuffix(name, ".bz2"):
		return bzip2.NewReader(r), nopCloser{}, nil
	default:
		return r, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// CompressionCandidates returns the relative paths to probe for a given
// uncompressed base name, strongest (smallest, usually .xz) compression
// first, then the uncompressed form last as the universal fallback. This
// mirrors how a repository publishes Packages, Packages.gz, Packages.xz
// side by side.
func CompressionCandidates(base string) []string {
	return []string{base + ".xz", base + ".gz", base + ".bz2", base}
}
