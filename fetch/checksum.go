package fetch

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"

	"github.com/aptprep/aptprep/utils"
	"github.com/cavaliergopher/grab/v3"
)

// maybeSetupChecksum wires the strongest available hash in expected into
// req so grab verifies the downloaded file once the transfer completes,
// deleting it on mismatch. Mirrors GrabDownloader.maybeSetupChecksum, widened to the
// SHA384/SHA512 kinds this system also supports.
func maybeSetupChecksum(req *grab.Request, expected *utils.ChecksumInfo) error {
	if expected == nil {
		return nil
	}

	kind, value, ok := expected.Strongest()
	if !ok {
		return nil
	}

	want, err := hex.DecodeString(value)
	if err != nil {
		return fmt.Errorf("decoding %s checksum %q: %w", kind, value, err)
	}

	switch kind {
	case utils.SHA512:
		req.SetChecksum(sha512.New(), want, true)
	case utils.SHA384:
		req.SetChecksum(sha512.New384(), want, true)
	case utils.SHA256:
		req.SetChecksum(sha256.New(), want, true)
	case utils.SHA1:
		req.SetChecksum(sha1.New(), want, true)
	case utils.MD5:
		req.SetChecksum(md5.New(), want, true)
	}

	return nil
}
