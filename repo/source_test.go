package repo

import (
	"testing"

	"github.com/aptprep/aptprep/config"
)

func TestNewSourceIDIsDeterministicAcrossCalls(t *testing.T) {
	cfg := config.SourceRepository{
		SourceURL:     "https://example.org/debian",
		Architectures: []string{"amd64"},
		Distributions: []string{"bookworm"},
		Components:    []string{"main"},
	}

	a, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	b, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	if a.ID != b.ID {
		t.Errorf("expected two NewSource calls against the same config to agree on ID, got %q and %q", a.ID, b.ID)
	}
}

func TestNewSourceIDDiffersByCoordinate(t *testing.T) {
	base := config.SourceRepository{
		SourceURL:     "https://example.org/debian",
		Architectures: []string{"amd64"},
		Distributions: []string{"bookworm"},
		Components:    []string{"main"},
	}
	other := base
	other.Distributions = []string{"bullseye"}

	a, err := NewSource(base)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	b, err := NewSource(other)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	if a.ID == b.ID {
		t.Errorf("expected differing distributions to produce differing IDs, both got %q", a.ID)
	}
}

func TestSourceURLConstruction(t *testing.T) {
	cfg := config.SourceRepository{
		SourceURL:     "https://example.org/debian/",
		Architectures: []string{"amd64"},
		Distributions: []string{"bookworm"},
		Components:    []string{"main"},
	}

	src, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	want := "https://example.org/debian/dists/bookworm/Release"
	if got := src.ReleaseURL("bookworm", "Release"); got != want {
		t.Errorf("ReleaseURL: got %q, want %q", got, want)
	}

	wantBinary := "https://example.org/debian/dists/bookworm/main/binary-amd64/Packages"
	if got := src.BinaryURL("bookworm", "main", "amd64"); got != wantBinary {
		t.Errorf("BinaryURL: got %q, want %q", got, wantBinary)
	}
}

func TestSourceURLConstructionFlatRepository(t *testing.T) {
	cfg := config.SourceRepository{
		SourceURL:        "https://example.org/flat",
		Architectures:    []string{"amd64"},
		Distributions:    []string{"./"},
		DistributionPath: "./",
		Components:       []string{"main"},
	}

	src, err := NewSource(cfg)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	if !src.IsFlat() {
		t.Fatal("expected IsFlat to report true when distribution_path is set")
	}

	want := "https://example.org/flat/Release"
	if got := src.ReleaseURL("./", "Release"); got != want {
		t.Errorf("ReleaseURL: got %q, want %q", got, want)
	}
}
