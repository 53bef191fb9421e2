package placement

import (
	"fmt"
	"testing"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cluster"
)

func testTopology(t *testing.T, sets, disksPerSet int) *cluster.Topology {
	t.Helper()
	f, err := cluster.NewFormat(sets, disksPerSet)
	if err != nil {
		t.Fatal(err)
	}
	return cluster.TopologyFromFormat(f)
}

func TestRingSize(t *testing.T) {
	topo := testTopology(t, 8, 4)
	ring, err := BuildRing(topo)
	if err != nil {
		t.Fatal(err)
	}
	if ring.NumVnodes() != 8*cmn.DefaultVnodeFactor {
		t.Fatalf("ring has %d vnodes, want %d", ring.NumVnodes(), 8*cmn.DefaultVnodeFactor)
	}
}

func TestLookupDeterminism(t *testing.T) {
	topo := testTopology(t, 4, 4)
	r1, err := BuildRing(topo)
	if err != nil {
		t.Fatal(err)
	}
	r2, err := BuildRing(topo.Clone())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		object := fmt.Sprintf("obj-%d", i)
		p1, s1, v1, h1, err := r1.Lookup("bucket1", object)
		if err != nil {
			t.Fatal(err)
		}
		p2, s2, v2, h2, err := r2.Lookup("bucket1", object)
		if err != nil {
			t.Fatal(err)
		}
		if p1 != p2 || s1 != s2 || v1 != v2 || h1 != h2 {
			t.Fatalf("lookup of %q not deterministic", object)
		}
	}
}

func TestLookupEmptyRing(t *testing.T) {
	topo := cluster.NewTopology()
	topo.DeploymentID = cmn.GenDeploymentID()
	ring, err := BuildRing(topo)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := ring.Lookup("b", "o"); !cmn.IsKind(err, cmn.KindNotFound) {
		t.Fatalf("got %v, want NOT_FOUND", err)
	}
}

func TestRingKeyDependsOnDeployment(t *testing.T) {
	t1 := testTopology(t, 2, 2)
	t2 := testTopology(t, 2, 2) // different deployment id
	r1, _ := BuildRing(t1)
	r2, _ := BuildRing(t2)
	same := 0
	for i := 0; i < 100; i++ {
		object := fmt.Sprintf("obj-%d", i)
		_, _, _, h1, _ := r1.Lookup("b", object)
		_, _, _, h2, _ := r2.Lookup("b", object)
		if h1 == h2 {
			same++
		}
	}
	if same == 100 {
		t.Error("hashes identical across deployments; key derivation broken")
	}
}

// Scenario: draining one of 8 sets only moves the keys that set owned;
// every other placement stays identical.
func TestRingStabilityOnDrain(t *testing.T) {
	topo := testTopology(t, 8, 4)
	before, err := BuildRing(topo)
	if err != nil {
		t.Fatal(err)
	}
	type key struct{ pool, set int }
	placements := make(map[string]key)
	var keys []string
	for c := 'a'; c <= 'z'; c++ {
		for i := 0; i < 20; i++ {
			k := fmt.Sprintf("%c-%d", c, i)
			keys = append(keys, k)
			p, s, _, _, err := before.Lookup("bucket1", k)
			if err != nil {
				t.Fatal(err)
			}
			placements[k] = key{p, s}
		}
	}

	if err := topo.MarkDraining(0, 7); err != nil {
		t.Fatal(err)
	}
	after, err := BuildRing(topo)
	if err != nil {
		t.Fatal(err)
	}
	if after.NumVnodes() != 7*cmn.DefaultVnodeFactor {
		t.Fatalf("drained ring has %d vnodes", after.NumVnodes())
	}

	moved := 0
	for _, k := range keys {
		p, s, _, _, err := after.Lookup("bucket1", k)
		if err != nil {
			t.Fatal(err)
		}
		old := placements[k]
		if old.set == 7 {
			moved++
			if s == 7 {
				t.Fatalf("key %q still on drained set", k)
			}
			continue
		}
		if p != old.pool || s != old.set {
			t.Fatalf("key %q moved from %v to (%d,%d) without its set changing state", k, old, p, s)
		}
	}
	// with 8 sets, expect roughly 1/8 of the keyspace to move
	if moved == 0 || moved > len(keys)/3 {
		t.Errorf("%d of %d keys moved; expected roughly 1/8", moved, len(keys))
	}
}

func TestPlacementResultComposition(t *testing.T) {
	topo := testTopology(t, 2, 3)
	for i := range topo.Pools[0].Sets {
		for j := range topo.Pools[0].Sets[i].Disks {
			topo.Pools[0].Sets[i].Disks[j].Endpoint =
				fmt.Sprintf("http://node%d:9000/mnt/disk%d", i+1, j+1)
		}
	}
	plc, err := New(topo, nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := plc.Place("bucket1", "object1")
	if err != nil {
		t.Fatal(err)
	}
	if res.State != cluster.SetActive || res.Generation != topo.Generation {
		t.Errorf("unexpected result header: %+v", res)
	}
	if len(res.Disks) != 3 {
		t.Fatalf("got %d disks, want 3", len(res.Disks))
	}
	for j, d := range res.Disks {
		want := topo.Pools[0].Sets[res.SetIdx].Disks[j]
		if d.UUID != want.UUID || d.Endpoint != want.Endpoint {
			t.Errorf("disk %d out of slot order", j)
		}
		if d.DiskPath != fmt.Sprintf("/mnt/disk%d", j+1) {
			t.Errorf("disk %d path %q", j, d.DiskPath)
		}
		if d.HostURL == "" || d.Local {
			t.Errorf("disk %d should be remote with a host URL", j)
		}
	}
}

func TestPlacementLocalFallback(t *testing.T) {
	topo := testTopology(t, 2, 2)
	local := fakeResolver{
		0: {"/tmp/s0d0", "/tmp/s0d1"},
		1: {"/tmp/s1d0", "/tmp/s1d1"},
	}
	plc, err := New(topo, local)
	if err != nil {
		t.Fatal(err)
	}
	res, err := plc.Place("bucket1", "object1")
	if err != nil {
		t.Fatal(err)
	}
	for j, d := range res.Disks {
		if !d.Local {
			t.Errorf("disk %d should be local", j)
		}
		if d.DiskPath != local[res.SetIdx][j] {
			t.Errorf("disk %d path %q, want %q", j, d.DiskPath, local[res.SetIdx][j])
		}
	}
}

type fakeResolver map[int][]string

func (f fakeResolver) PathsForSet(setIdx int) []string { return f[setIdx] }
