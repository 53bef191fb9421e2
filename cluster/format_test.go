package cluster

import (
	"testing"

	"github.com/stratastore/strata/cmn"
)

func TestNewFormat(t *testing.T) {
	f, err := NewFormat(2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if f.SetCount() != 2 || f.DisksPerSet() != 4 {
		t.Fatalf("geometry %dx%d, want 2x4", f.SetCount(), f.DisksPerSet())
	}
	if f.Format != cmn.FormatErasure || f.XL.DistributionAlgo != cmn.DistributionAlgo {
		t.Errorf("unexpected identity fields: %+v", f)
	}
	if _, err := cmn.ParseUUID(f.ID); err != nil {
		t.Errorf("deployment id %q not canonical: %v", f.ID, err)
	}
	seen := make(map[string]bool)
	for _, set := range f.XL.Sets {
		for _, id := range set {
			if seen[id] {
				t.Fatalf("duplicate disk id %s", id)
			}
			seen[id] = true
		}
	}
}

func TestNewFormatInvalid(t *testing.T) {
	for _, geom := range [][2]int{{0, 4}, {2, 0}, {-1, 4}, {2, -2}} {
		if _, err := NewFormat(geom[0], geom[1]); !cmn.IsKind(err, cmn.KindInvalidArg) {
			t.Errorf("NewFormat(%d,%d): got %v, want INVALID_ARG", geom[0], geom[1], err)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	f, _ := NewFormat(3, 2)
	f = f.WithThis(f.XL.Sets[1][0])
	parsed, err := UnmarshalFormat(f.Marshal())
	if err != nil {
		t.Fatal(err)
	}
	if parsed.ID != f.ID || parsed.XL.This != f.XL.This {
		t.Errorf("round trip lost identity: %+v", parsed)
	}
	if parsed.SetCount() != 3 || parsed.DisksPerSet() != 2 {
		t.Errorf("round trip lost geometry")
	}
}

func TestFormatCloneIndependence(t *testing.T) {
	f, _ := NewFormat(1, 2)
	clone := f.Clone()
	clone.XL.Sets[0][0] = "mutated"
	if f.XL.Sets[0][0] == "mutated" {
		t.Error("clone shares storage with original")
	}
}

func TestUnmarshalFormatCorrupt(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing id", `{"version":1,"format":"erasure","xl":{"sets":[["a"]]}}`},
		{"missing sets", `{"version":1,"id":"x","xl":{"version":3}}`},
		{"missing xl", `{"version":1,"id":"x"}`},
		{"non-string uuids", `{"id":"x","xl":{"sets":[[1,2]]}}`},
		{"ragged sets", `{"id":"x","xl":{"sets":[["a","b"],["c"]]}}`},
		{"not json", `{{{`},
	}
	for _, tc := range tests {
		if _, err := UnmarshalFormat([]byte(tc.doc)); !cmn.IsKind(err, cmn.KindCorrupt) {
			t.Errorf("%s: got %v, want CORRUPT", tc.name, err)
		}
	}
}

// Scenario: 4 replicas agree; one diverges; then two diverge and quorum
// is lost.
func TestValidateReplicasQuorum(t *testing.T) {
	ref, _ := NewFormat(2, 2)
	replicas := []*Format{ref.Clone(), ref.Clone(), ref.Clone(), ref.Clone()}
	if err := ValidateReplicas(replicas); err != nil {
		t.Fatalf("identical replicas: %v", err)
	}

	fresh, _ := NewFormat(2, 2) // different deployment id
	replicas[3] = fresh
	if err := ValidateReplicas(replicas); err != nil {
		t.Fatalf("3 of 4 agreeing: %v", err)
	}

	fresh2, _ := NewFormat(2, 2)
	replicas[2] = fresh2
	if err := ValidateReplicas(replicas); !cmn.IsKind(err, cmn.KindQuorum) {
		t.Fatalf("2 of 4 agreeing: got %v, want QUORUM", err)
	}
}

func TestValidateReplicasNils(t *testing.T) {
	ref, _ := NewFormat(1, 4)
	// nils (unreadable disks) do not count toward quorum
	if err := ValidateReplicas([]*Format{nil, ref.Clone(), ref.Clone(), ref.Clone()}); err != nil {
		t.Errorf("3 of 4 with one nil: %v", err)
	}
	if err := ValidateReplicas([]*Format{nil, nil, ref.Clone(), ref.Clone()}); !cmn.IsKind(err, cmn.KindQuorum) {
		t.Errorf("2 of 4 with two nils: got %v, want QUORUM", err)
	}
	if err := ValidateReplicas([]*Format{nil, nil, nil}); !cmn.IsKind(err, cmn.KindQuorum) {
		t.Errorf("all nil: got %v, want QUORUM", err)
	}
}
