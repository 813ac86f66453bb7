// Package localindex emits a Packages index over a local output tree,
// suitable for `apt-get update` against a `file://` source. It does not
// write a Release file. Grounded on deb/deb.go's GetControlFileFromDeb for
// re-parsing each .deb's control section.
package localindex

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aptprep/aptprep/aptlyerrors"
	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/utils"
)

// canonicalOrder lists the fields of an emitted stanza in the order they
// are written, matching deb/format.go's canonicalOrderBinary.
var canonicalOrder = []string{
	"Package", "Source", "Version", "Architecture", "Essential", "Priority",
	"Section", "Maintainer", "Multi-Arch", "Depends", "Pre-Depends",
	"Recommends", "Suggests", "Conflicts", "Breaks", "Replaces", "Provides",
	"Installed-Size", "Filename", "Size", "MD5sum", "SHA1", "SHA256",
	"Description", "Homepage",
}

// Generate walks outputDir for *.deb files, re-parses each one's control
// section, recomputes its SHA256 over the file on disk, and writes a
// sorted Packages file at <outputDir>/Packages. The operation is
// idempotent: re-running it over an unchanged tree produces a
// byte-identical file.
func Generate(outputDir string) error {
	var debPaths []string

	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".deb") {
			debPaths = append(debPaths, path)
		}
		return nil
	})
	if err != nil {
		return aptlyerrors.NewIOError(outputDir, err)
	}
	sort.Strings(debPaths)

	stanzas := make([]control.Stanza, 0, len(debPaths))
	for _, path := range debPaths {
		stanza, err := buildStanza(outputDir, path)
		if err != nil {
			return err
		}
		stanzas = append(stanzas, stanza)
	}

	sortStanzas(stanzas)

	data, err := renderStanzas(stanzas)
	if err != nil {
		return err
	}

	return utils.WriteFileAtomic(filepath.Join(outputDir, "Packages"), data, 0o644)
}

func buildStanza(outputDir, path string) (control.Stanza, error) {
	parsed, err := control.ReadDebControlFile(path)
	if err != nil {
		return nil, aptlyerrors.NewParseError(path, "", err)
	}

	sum, err := utils.ChecksumsForFile(path)
	if err != nil {
		return nil, aptlyerrors.NewIOError(path, err)
	}

	rel, err := filepath.Rel(outputDir, path)
	if err != nil {
		return nil, aptlyerrors.NewIOError(path, err)
	}

	stanza := parsed.Copy()
	stanza["Filename"] = filepath.ToSlash(rel)
	stanza["Size"] = strconv.FormatInt(sum.Size, 10)
	stanza["SHA256"] = sum.SHA256
	delete(stanza, "SHA1")
	delete(stanza, "MD5sum")
	delete(stanza, "MD5Sum")

	return stanza, nil
}

func sortStanzas(stanzas []control.Stanza) {
	sort.SliceStable(stanzas, func(i, j int) bool {
		if stanzas[i]["Package"] != stanzas[j]["Package"] {
			return stanzas[i]["Package"] < stanzas[j]["Package"]
		}
		return stanzas[i]["Architecture"] < stanzas[j]["Architecture"]
	})
}

func renderStanzas(stanzas []control.Stanza) ([]byte, error) {
	var buf strings.Builder

	for _, stanza := range stanzas {
		written := make(map[string]bool, len(stanza))

		for _, field := range canonicalOrder {
			value, ok := stanza[field]
			if !ok || value == "" {
				continue
			}
			if err := writeField(&buf, field, value); err != nil {
				return nil, err
			}
			written[field] = true
		}

		remaining := make([]string, 0, len(stanza))
		for field := range stanza {
			if !written[field] {
				remaining = append(remaining, field)
			}
		}
		sort.Strings(remaining)
		for _, field := range remaining {
			if err := writeField(&buf, field, stanza[field]); err != nil {
				return nil, err
			}
		}

		buf.WriteString("\n")
	}

	return []byte(buf.String()), nil
}

func writeField(buf *strings.Builder, field, value string) error {
	if strings.Contains(value, "\n") {
		fmt.Fprintf(buf, "%s: %s", field, value)
		if !strings.HasSuffix(value, "\n") {
			buf.WriteString("\n")
		}
		return nil
	}
	fmt.Fprintf(buf, "%s: %s\n", field, value)
	return nil
}
