package cluster

import (
	"reflect"
	"testing"

	"github.com/stratastore/strata/cmn"
)

func TestExpandEllipsesNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"/mnt/disk{1...4}", []string{"/mnt/disk1", "/mnt/disk2", "/mnt/disk3", "/mnt/disk4"}},
		{"{1...1}", []string{"1"}},
		{"{a...a}", []string{"a"}},
		{"plain", []string{"plain"}},
		{"{0...2}suffix", []string{"0suffix", "1suffix", "2suffix"}},
	}
	for _, tc := range tests {
		got, err := ExpandEllipses(tc.in)
		if err != nil {
			t.Fatalf("ExpandEllipses(%q): %v", tc.in, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ExpandEllipses(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestExpandEllipsesCartesianOrder(t *testing.T) {
	got, err := ExpandEllipses("http://node{1...2}:9000/disk{a...b}")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"http://node1:9000/diska",
		"http://node1:9000/diskb",
		"http://node2:9000/diska",
		"http://node2:9000/diskb",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExpandEllipsesMalformed(t *testing.T) {
	for _, in := range []string{
		"{5...3}",
		"{b...a}",
		"{...3}",
		"{1...}",
		"{1...x}",
		"{ab...cd}",
		"{1..2}",
		"disk{1...4",
	} {
		_, err := ExpandEllipses(in)
		if err == nil {
			t.Errorf("ExpandEllipses(%q): expected error", in)
			continue
		}
		if !cmn.IsKind(err, cmn.KindInvalidArg) {
			t.Errorf("ExpandEllipses(%q): kind %s, want INVALID_ARG", in, cmn.ErrKind(err))
		}
	}
}

func TestGroupIntoSets(t *testing.T) {
	eps, err := NewEndpoints([]string{"http://node{1...2}:9000/disk{a...b}"})
	if err != nil {
		t.Fatal(err)
	}
	if len(eps) != 4 {
		t.Fatalf("expanded to %d endpoints, want 4", len(eps))
	}
	sets, err := eps.GroupIntoSets(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 2 {
		t.Fatalf("got %d sets, want 2", len(sets))
	}
	if sets[0][0].Host != "node1:9000" || sets[0][1].Host != "node1:9000" {
		t.Errorf("set 0 grouped across nodes: %v", sets[0])
	}
	if sets[1][0].Path != "/diska" || sets[1][1].Path != "/diskb" {
		t.Errorf("set 1 disk order wrong: %v", sets[1])
	}
	for i, set := range sets {
		for j, ep := range set {
			if ep.SetIdx != i || ep.DiskIdx != j {
				t.Errorf("endpoint %d/%d has slot %d/%d", i, j, ep.SetIdx, ep.DiskIdx)
			}
		}
	}
}

func TestGroupIntoSetsRemainder(t *testing.T) {
	eps, err := NewEndpoints([]string{"/mnt/disk{1...5}"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eps.GroupIntoSets(2); !cmn.IsKind(err, cmn.KindInvalidArg) {
		t.Errorf("5 disks into sets of 2: got %v, want INVALID_ARG", err)
	}
}
