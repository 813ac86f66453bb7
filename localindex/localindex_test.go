package localindex

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mkrautz/goar"
)

// writeFakeDeb builds a minimal valid .deb: an ar archive containing
// debian-binary, control.tar.gz (with a ./control member) and an empty
// data.tar.gz, mirroring the shape control.ReadDebControlFile expects.
func writeFakeDeb(t *testing.T, path, controlStanza string) {
	t.Helper()

	var controlTarGz bytes.Buffer
	gz := gzip.NewWriter(&controlTarGz)
	tw := tar.NewWriter(gz)
	body := []byte(controlStanza)
	if err := tw.WriteHeader(&tar.Header{Name: "./control", Size: int64(len(body)), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(body); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := ar.NewWriter(f)
	writeArMember(t, w, "debian-binary", []byte("2.0\n"))
	writeArMember(t, w, "control.tar.gz", controlTarGz.Bytes())
	writeArMember(t, w, "data.tar.gz", []byte{})
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeArMember(t *testing.T, w *ar.Writer, name string, data []byte) {
	t.Helper()
	if err := w.WriteHeader(&ar.Header{Name: name, Size: int64(len(data)), Mode: 0o644}); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateProducesSortedDeterministicPackagesFile(t *testing.T) {
	dir := t.TempDir()

	poolB := filepath.Join(dir, "pool", "b")
	poolA := filepath.Join(dir, "pool", "a")
	if err := os.MkdirAll(poolB, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(poolA, 0o755); err != nil {
		t.Fatal(err)
	}

	writeFakeDeb(t, filepath.Join(poolB, "zebra_1.0_amd64.deb"),
		"Package: zebra\nVersion: 1.0\nArchitecture: amd64\n")
	writeFakeDeb(t, filepath.Join(poolA, "apple_2.0_amd64.deb"),
		"Package: apple\nVersion: 2.0\nArchitecture: amd64\n")

	if err := Generate(dir); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Packages"))
	if err != nil {
		t.Fatalf("reading Packages: %v", err)
	}
	content := string(data)

	appleIdx := strings.Index(content, "Package: apple")
	zebraIdx := strings.Index(content, "Package: zebra")
	if appleIdx == -1 || zebraIdx == -1 || appleIdx > zebraIdx {
		t.Fatalf("expected apple stanza before zebra stanza, got:\n%s", content)
	}
	if !strings.Contains(content, "SHA256:") {
		t.Errorf("expected recomputed SHA256 fields, got:\n%s", content)
	}

	first, err := os.ReadFile(filepath.Join(dir, "Packages"))
	if err != nil {
		t.Fatal(err)
	}
	if err := Generate(dir); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(dir, "Packages"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("expected idempotent output, got differing bytes across runs")
	}
}
