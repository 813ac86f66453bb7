// Package utils holds small, dependency-free helpers shared across aptprep:
// checksum computation, human-readable formatting, and atomic file writes.
package utils

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
)

// ChecksumInfo represents the checksums known for a single file. Debian
// repositories may advertise any subset of these; callers should prefer the
// strongest one present (see Strongest).
type ChecksumInfo struct {
	Size   int64
	MD5    string
	SHA1   string
	SHA256 string
	SHA384 string
	SHA512 string
}

// Kind names a single checksum algorithm, in strongest-first order.
type Kind string

const (
	SHA512 Kind = "SHA512"
	SHA384 Kind = "SHA384"
	SHA256 Kind = "SHA256"
	SHA1   Kind = "SHA1"
	MD5    Kind = "MD5"
)

// hashPreference is SHA512 > SHA384 > SHA256 > SHA1 > MD5, per §3.
var hashPreference = []Kind{SHA512, SHA384, SHA256, SHA1, MD5}

// Value returns the checksum value for the given kind, and whether it is set.
func (c ChecksumInfo) Value(kind Kind) (string, bool) {
	switch kind {
	case SHA512:
		return c.SHA512, c.SHA512 != ""
	case SHA384:
		return c.SHA384, c.SHA384 != ""
	case SHA256:
		return c.SHA256, c.SHA256 != ""
	case SHA1:
		return c.SHA1, c.SHA1 != ""
	case MD5:
		return c.MD5, c.MD5 != ""
	}
	return "", false
}

// Strongest returns the strongest available checksum kind and value.
// It returns ok=false if no checksum is set at all.
func (c ChecksumInfo) Strongest() (kind Kind, value string, ok bool) {
	for _, k := range hashPreference {
		if v, present := c.Value(k); present {
			return k, v, true
		}
	}
	return "", "", false
}

func newHash(kind Kind) hash.Hash {
	switch kind {
	case SHA512:
		return sha512.New()
	case SHA384:
		return sha512.New384()
	case SHA256:
		return sha256.New()
	case SHA1:
		return sha1.New()
	case MD5:
		return md5.New()
	}
	panic("unknown checksum kind: " + kind)
}

// ChecksumsForFile computes size and every supported checksum for a local file.
func ChecksumsForFile(path string) (*ChecksumInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	st, err := file.Stat()
	if err != nil {
		return nil, err
	}

	hashes := map[Kind]hash.Hash{
		SHA512: newHash(SHA512),
		SHA384: newHash(SHA384),
		SHA256: newHash(SHA256),
		SHA1:   newHash(SHA1),
		MD5:    newHash(MD5),
	}

	writers := make([]io.Writer, 0, len(hashes))
	for _, h := range hashes {
		writers = append(writers, h)
	}

	if _, err = io.Copy(io.MultiWriter(writers...), file); err != nil {
		return nil, err
	}

	return &ChecksumInfo{
		Size:   st.Size(),
		MD5:    fmt.Sprintf("%x", hashes[MD5].Sum(nil)),
		SHA1:   fmt.Sprintf("%x", hashes[SHA1].Sum(nil)),
		SHA256: fmt.Sprintf("%x", hashes[SHA256].Sum(nil)),
		SHA384: fmt.Sprintf("%x", hashes[SHA384].Sum(nil)),
		SHA512: fmt.Sprintf("%x", hashes[SHA512].Sum(nil)),
	}, nil
}

// VerifyFile checks whether path matches size+checksum of expected, using the
// strongest checksum kind expected advertises. It returns false, nil on a
// clean mismatch (caller decides what to do), and a non-nil error only for
// I/O failures.
func VerifyFile(path string, expected ChecksumInfo) (bool, error) {
	st, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if st.Size() != expected.Size {
		return false, nil
	}

	kind, want, ok := expected.Strongest()
	if !ok {
		return true, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	h := newHash(kind)
	if _, err = io.Copy(h, file); err != nil {
		return false, err
	}

	got := fmt.Sprintf("%x", h.Sum(nil))
	return got == want, nil
}
