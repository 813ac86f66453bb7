package candidate

import (
	"testing"

	"github.com/aptprep/aptprep/control"
	"github.com/aptprep/aptprep/debver"
)

func stanza(fields map[string]string) control.Stanza {
	return control.Stanza(fields)
}

func mustUniverse(t *testing.T, arch string, stanzas []control.Stanza) *Universe {
	t.Helper()
	u, err := NewUniverse(arch, stanzas, "src-1")
	if err != nil {
		t.Fatalf("NewUniverse: %v", err)
	}
	return u
}

func TestArchitectureFanOut(t *testing.T) {
	stanzas := []control.Stanza{
		stanza(map[string]string{"Package": "libfoo-data", "Version": "1.0", "Architecture": "all", "Filename": "libfoo-data_1.0_all.deb", "SHA256": "a"}),
		stanza(map[string]string{"Package": "libfoo", "Version": "1.0", "Architecture": "amd64", "Filename": "libfoo_1.0_amd64.deb", "SHA256": "b"}),
		stanza(map[string]string{"Package": "libfoo", "Version": "1.0", "Architecture": "arm64", "Filename": "libfoo_1.0_arm64.deb", "SHA256": "c"}),
	}

	u := mustUniverse(t, "amd64", stanzas)

	if len(u.RealCandidates("libfoo-data")) != 1 {
		t.Errorf("expected Architecture:all stanza to be eligible for amd64")
	}
	if len(u.RealCandidates("libfoo")) != 1 {
		t.Errorf("expected only the amd64 libfoo stanza, got %d", len(u.RealCandidates("libfoo")))
	}
}

func TestProvidesTieBreakPrefersRealOverVirtual(t *testing.T) {
	stanzas := []control.Stanza{
		stanza(map[string]string{"Package": "mail-transport-agent", "Version": "1.0", "Architecture": "amd64", "Filename": "mta_1.0_amd64.deb", "SHA256": "a"}),
		stanza(map[string]string{"Package": "postfix", "Version": "3.5", "Architecture": "amd64", "Filename": "postfix_3.5_amd64.deb", "SHA256": "b", "Provides": "mail-transport-agent"}),
	}
	u := mustUniverse(t, "amd64", stanzas)

	alt := debver.Alternative{Package: "mail-transport-agent", Constraint: debver.Constraint{Relation: debver.DontCare}}
	candidates := u.CandidatesForAlternative(alt)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Name != "mail-transport-agent" {
		t.Errorf("expected real package first, got %s", candidates[0].Name)
	}
}

func TestVersionedProvidesRejectsUnversioned(t *testing.T) {
	stanzas := []control.Stanza{
		stanza(map[string]string{"Package": "postfix", "Version": "3.5", "Architecture": "amd64", "Filename": "postfix_3.5_amd64.deb", "SHA256": "b", "Provides": "mail-transport-agent"}),
	}
	u := mustUniverse(t, "amd64", stanzas)

	constrained := debver.Constraint{Relation: debver.GreaterOrEqual, Version: debver.Parse("1.0")}
	candidates := u.ProvidingCandidates("mail-transport-agent", constrained)
	if len(candidates) != 0 {
		t.Errorf("expected unversioned Provides to not satisfy a versioned dependency, got %d matches", len(candidates))
	}
}

func TestUbuntuUpstreamVersionWorkaroundKeepsLargestFilename(t *testing.T) {
	stanzas := []control.Stanza{
		stanza(map[string]string{"Package": "foo", "Version": "1.0-1", "Architecture": "amd64", "Filename": "foo_1.0-1_amd64.deb", "SHA256": "a"}),
		stanza(map[string]string{"Package": "foo", "Version": "1.0-1", "Architecture": "amd64", "Filename": "foo_1.0-1ubuntu1_amd64.deb", "SHA256": "b"}),
	}
	u := mustUniverse(t, "amd64", stanzas)

	candidates := u.RealCandidates("foo")
	if len(candidates) != 1 {
		t.Fatalf("expected workaround to dedupe to 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Filename != "foo_1.0-1ubuntu1_amd64.deb" {
		t.Errorf("expected lexicographically-largest Filename to win, got %s", candidates[0].Filename)
	}
}

func TestConflictsWithHonorsReplaces(t *testing.T) {
	a, err := FromStanza(stanza(map[string]string{
		"Package": "a", "Version": "1.0", "Architecture": "amd64", "Filename": "a_1.0_amd64.deb", "SHA256": "x",
		"Conflicts": "b",
	}), "src-1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromStanza(stanza(map[string]string{
		"Package": "b", "Version": "1.0", "Architecture": "amd64", "Filename": "b_1.0_amd64.deb", "SHA256": "y",
	}), "src-1")
	if err != nil {
		t.Fatal(err)
	}

	if !ConflictsWith(a, b) {
		t.Error("expected a and b to conflict")
	}

	bReplacing, err := FromStanza(stanza(map[string]string{
		"Package": "b", "Version": "1.0", "Architecture": "amd64", "Filename": "b_1.0_amd64.deb", "SHA256": "y",
		"Replaces": "a",
	}), "src-1")
	if err != nil {
		t.Fatal(err)
	}

	if ConflictsWith(a, bReplacing) {
		t.Error("expected Replaces to cancel the conflict")
	}
}
