package debver

import "testing"

func TestCompareVersionsBoundaryBehaviors(t *testing.T) {
	cases := []struct {
		v1, v2 string
		want   int
	}{
		// Epoch absence is treated as epoch 0.
		{"1.0-1", "0:1.0-1", 0},
		// Tilde sorts before empty: 1.0~beta < 1.0 < 1.0a
		{"1.0~beta", "1.0", -1},
		{"1.0", "1.0a", -1},
		{"1.0~beta", "1.0a", -1},
		// Missing revision sorts before any non-empty revision.
		{"1.0", "1.0-1", -1},
		// Scenario 6: tilde ordering.
		{"1.0~rc1", "1.0", -1},
		// Straightforward numeric comparison across digit runs.
		{"1.9", "1.10", -1},
		{"2.1", "2.1", 0},
		{"1:1.0", "2.0", 1},
	}

	for _, c := range cases {
		got := CompareVersions(c.v1, c.v2)
		norm := func(x int) int {
			switch {
			case x < 0:
				return -1
			case x > 0:
				return 1
			default:
				return 0
			}
		}
		if norm(got) != c.want {
			t.Errorf("CompareVersions(%q, %q) = %d, want sign %d", c.v1, c.v2, got, c.want)
		}
	}
}

func TestCompareVersionsTotality(t *testing.T) {
	versions := []string{"1.0", "1.0~rc1", "1.0a", "2:1.0", "0.9-2", "0.9-10", "1.0-1", "1.0-1ubuntu1"}

	for _, u := range versions {
		for _, v := range versions {
			uv, vu := CompareVersions(u, v), CompareVersions(v, u)
			lt, eq, gt := uv < 0, uv == 0, uv > 0
			count := 0
			if lt {
				count++
			}
			if eq {
				count++
			}
			if gt {
				count++
			}
			if count != 1 {
				t.Fatalf("totality violated for (%s, %s): got %d", u, v, uv)
			}
			if eq && vu != 0 {
				t.Fatalf("equality not symmetric for (%s, %s)", u, v)
			}
			if lt && vu <= 0 {
				t.Fatalf("antisymmetry violated for (%s, %s)", u, v)
			}
		}
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, raw := range []string{"1.2.3-1", "2:1.2.3-1ubuntu2", "1.0", "1.0~beta1"} {
		v := Parse(raw)
		if v.String() != raw {
			t.Errorf("Parse(%q).String() = %q", raw, v.String())
		}
	}
}

func TestConstraintSatisfies(t *testing.T) {
	c := Constraint{Relation: GreaterOrEqual, Version: Parse("2.14")}
	if !c.Satisfies(Parse("2.35-0ubuntu3")) {
		t.Error("expected 2.35-0ubuntu3 to satisfy >= 2.14")
	}
	if c.Satisfies(Parse("2.10")) {
		t.Error("expected 2.10 to not satisfy >= 2.14")
	}

	exact := Constraint{Relation: Equal, Version: Parse("1.18.0-6ubuntu14")}
	if !exact.Satisfies(Parse("1.18.0-6ubuntu14")) {
		t.Error("expected exact version match")
	}
	if exact.Satisfies(Parse("1.22.0-1")) {
		t.Error("expected non-matching version to fail exact constraint")
	}
}

func TestParseClauseAlternatives(t *testing.T) {
	clause, err := ParseClause("default-mta | mail-transport-agent")
	if err != nil {
		t.Fatal(err)
	}
	if len(clause) != 2 || clause[0].Package != "default-mta" || clause[1].Package != "mail-transport-agent" {
		t.Fatalf("unexpected clause: %+v", clause)
	}

	clause, err = ParseClause("libc6:amd64 (>= 2.14)")
	if err != nil {
		t.Fatal(err)
	}
	if clause[0].Package != "libc6" || clause[0].Architecture != "amd64" {
		t.Fatalf("unexpected alternative: %+v", clause[0])
	}
	if clause[0].Constraint.Relation != GreaterOrEqual {
		t.Fatalf("unexpected relation: %v", clause[0].Constraint.Relation)
	}
}
