package control

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/mkrautz/goar"
)

// ReadDebControlFile extracts and parses the control stanza from a .deb
// package file's control.tar.gz member. Grounded on deb/deb.go's
// GetControlFileFromDeb — the local indexer needs exactly this to
// re-derive a Packages stanza from a downloaded artifact.
func ReadDebControlFile(path string) (Stanza, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	library := ar.NewReader(file)
	for {
		header, err := library.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("control: no control.tar.gz member in %s", path)
		}
		if err != nil {
			return nil, fmt.Errorf("control: reading ar archive %s: %w", path, err)
		}

		if header.Name != "control.tar.gz" {
			continue
		}

		gz, err := gzip.NewReader(library)
		if err != nil {
			return nil, fmt.Errorf("control: ungzip control.tar.gz in %s: %w", path, err)
		}
		defer gz.Close()

		untar := tar.NewReader(gz)
		for {
			tarHeader, err := untar.Next()
			if err == io.EOF {
				return nil, fmt.Errorf("control: no control file inside control.tar.gz in %s", path)
			}
			if err != nil {
				return nil, fmt.Errorf("control: reading control.tar.gz in %s: %w", path, err)
			}

			if tarHeader.Name == "./control" || tarHeader.Name == "control" {
				reader := NewReader(untar, false)
				stanza, err := reader.ReadStanza()
				if err != nil {
					return nil, err
				}
				return stanza, nil
			}
		}
	}
}
