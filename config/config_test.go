package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "aptprep.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./out
  target_architectures: [amd64]
source_repositories:
  - source_url: https://example.org/debian
    architectures: [amd64]
    distributions: [bookworm]
packages:
  - curl
  - "libc6 (>= 2.31)"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.SourceRepositories) != 1 {
		t.Fatalf("expected 1 source repository, got %d", len(cfg.SourceRepositories))
	}
	if got := cfg.SourceRepositories[0].Components; len(got) != 1 || got[0] != "main" {
		t.Errorf("expected components to default to [main], got %v", got)
	}

	requests, err := cfg.PackageRequests()
	if err != nil {
		t.Fatalf("PackageRequests: %v", err)
	}
	if len(requests) != 2 || requests[0].Name != "curl" || requests[1].Name != "libc6" {
		t.Errorf("unexpected parsed requests: %+v", requests)
	}
}

func TestLoadRejectsMissingTargetArchitectures(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./out
  target_architectures: []
source_repositories:
  - source_url: https://example.org/debian
    architectures: [amd64]
    distributions: [bookworm]
packages:
  - curl
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject an empty target_architectures list")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./out
  target_architectures: [amd64]
source_repositories:
  - source_url: https://example.org/debian
    architectures: [amd64]
    distributions: [bookworm]
packages:
  - curl
unknown_field: true
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject an unknown top-level field")
	}
}

func TestLoadRejectsEmptyPackages(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./out
  target_architectures: [amd64]
source_repositories:
  - source_url: https://example.org/debian
    architectures: [amd64]
    distributions: [bookworm]
packages: []
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected Load to reject an empty packages list")
	}
}

func TestLoadRejectsUnadvertisedTargetArchitecture(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./out
  target_architectures: [amd64, arm64]
source_repositories:
  - source_url: https://example.org/debian
    architectures: [amd64]
    distributions: [bookworm]
packages:
  - curl
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected Load to reject a target architecture no source repository advertises")
	}
}

func TestLoadDeduplicatesDistributionsAndComponents(t *testing.T) {
	path := writeConfig(t, `
output:
  path: ./out
  target_architectures: [amd64]
source_repositories:
  - source_url: https://example.org/debian
    architectures: [amd64, amd64]
    distributions: [bookworm, bookworm, bookworm-updates]
    components: [main, contrib, main]
packages:
  - curl
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	src := cfg.SourceRepositories[0]
	if got := src.Distributions; len(got) != 2 {
		t.Errorf("expected deduplicated distributions [bookworm bookworm-updates], got %v", got)
	}
	if got := src.Components; len(got) != 2 {
		t.Errorf("expected deduplicated components [main contrib], got %v", got)
	}
}
