package cluster

import (
	"strconv"

	"github.com/stratastore/strata/cmn"
)

// SetState is the lifecycle state of an erasure set. Transitions are
// one-directional: active -> draining -> removed.
type SetState string

const (
	SetActive   SetState = "active"
	SetDraining SetState = "draining"
	SetRemoved  SetState = "removed"
)

func (s SetState) rank() int {
	switch s {
	case SetActive:
		return 0
	case SetDraining:
		return 1
	case SetRemoved:
		return 2
	}
	return -1
}

func (s SetState) valid() bool { return s.rank() >= 0 }

type (
	// DiskInfo is one disk slot of an erasure set. The slot order within a
	// set is stable; the slot index is meaningful to the erasure codec.
	DiskInfo struct {
		UUID     string        `json:"uuid"`
		Endpoint string        `json:"endpoint"`
		Capacity cmn.StrUint64 `json:"capacity"`
	}

	SetInfo struct {
		Idx   int        `json:"idx"`
		State SetState   `json:"state"`
		Disks []DiskInfo `json:"disks"`
	}

	PoolInfo struct {
		Idx  int       `json:"idx"`
		Sets []SetInfo `json:"sets"`
	}

	// Topology is the mutable, generation-numbered description of pools,
	// erasure sets and disk membership. Every accepted mutation increments
	// the generation by exactly one; generation 0 means unconfigured.
	Topology struct {
		Version      int        `json:"version"`
		Generation   int64      `json:"generation"`
		DeploymentID string     `json:"deploymentId"`
		VnodeFactor  int        `json:"vnodeFactor"`
		Pools        []PoolInfo `json:"pools"`
	}

	topoWire struct {
		Version      *int        `json:"version"`
		Generation   *int64      `json:"generation"`
		DeploymentID *string     `json:"deploymentId"`
		VnodeFactor  *int        `json:"vnodeFactor"`
		Pools        *[]poolWire `json:"pools"`
	}
	poolWire struct {
		Idx  *int       `json:"idx"`
		Sets *[]setWire `json:"sets"`
	}
	setWire struct {
		Idx   *int        `json:"idx"`
		State *SetState   `json:"state"`
		Disks *[]DiskInfo `json:"disks"`
	}
)

// NewTopology returns an unconfigured topology at generation 0.
func NewTopology() *Topology {
	return &Topology{
		Version:     cmn.TopoMetaVersion,
		VnodeFactor: cmn.DefaultVnodeFactor,
	}
}

// TopologyFromFormat produces the one-pool generation-1 topology implied by
// a freshly created format document. Endpoints and capacities are zero;
// the endpoint resolver fills them in later.
func TopologyFromFormat(f *Format) *Topology {
	topo := NewTopology()
	topo.DeploymentID = f.ID
	pool := PoolInfo{Idx: 0, Sets: make([]SetInfo, 0, f.SetCount())}
	for i, set := range f.XL.Sets {
		si := SetInfo{Idx: i, State: SetActive, Disks: make([]DiskInfo, len(set))}
		for j, id := range set {
			si.Disks[j] = DiskInfo{UUID: id}
		}
		pool.Sets = append(pool.Sets, si)
	}
	topo.Pools = []PoolInfo{pool}
	topo.Generation = 1
	return topo
}

func (t *Topology) String() string {
	if t == nil {
		return "Topology <nil>"
	}
	return "Topology v" + strconv.Itoa(t.Version) + " gen" + strconv.FormatInt(t.Generation, 10)
}

// Clone returns a value-deep copy with independent storage.
func (t *Topology) Clone() *Topology {
	clone := *t
	clone.Pools = make([]PoolInfo, len(t.Pools))
	for i, pool := range t.Pools {
		clone.Pools[i] = PoolInfo{Idx: pool.Idx, Sets: make([]SetInfo, len(pool.Sets))}
		for j, set := range pool.Sets {
			cs := SetInfo{Idx: set.Idx, State: set.State, Disks: make([]DiskInfo, len(set.Disks))}
			copy(cs.Disks, set.Disks)
			clone.Pools[i].Sets[j] = cs
		}
	}
	return &clone
}

// GetSet resolves a (pool, set) pair.
func (t *Topology) GetSet(poolIdx, setIdx int) (*SetInfo, error) {
	if poolIdx < 0 || poolIdx >= len(t.Pools) {
		return nil, cmn.NewInvalidArgError("unknown pool %d", poolIdx)
	}
	pool := &t.Pools[poolIdx]
	if setIdx < 0 || setIdx >= len(pool.Sets) {
		return nil, cmn.NewInvalidArgError("unknown set %d in pool %d", setIdx, poolIdx)
	}
	return &pool.Sets[setIdx], nil
}

// CountActiveSets counts sets eligible for placement.
func (t *Topology) CountActiveSets() (count int) {
	for _, pool := range t.Pools {
		for _, set := range pool.Sets {
			if set.State == SetActive {
				count++
			}
		}
	}
	return
}

// AddPool appends a new empty pool and bumps the generation.
func (t *Topology) AddPool() int {
	idx := len(t.Pools)
	t.Pools = append(t.Pools, PoolInfo{Idx: idx})
	t.Generation++
	return idx
}

// AddSet appends an active set with the given disk slots (order preserved)
// to the pool and bumps the generation.
func (t *Topology) AddSet(poolIdx int, disks []DiskInfo) error {
	if poolIdx < 0 || poolIdx >= len(t.Pools) {
		return cmn.NewInvalidArgError("unknown pool %d", poolIdx)
	}
	if len(disks) == 0 {
		return cmn.NewInvalidArgError("empty disk list")
	}
	pool := &t.Pools[poolIdx]
	set := SetInfo{Idx: len(pool.Sets), State: SetActive, Disks: make([]DiskInfo, len(disks))}
	copy(set.Disks, disks)
	pool.Sets = append(pool.Sets, set)
	t.Generation++
	return nil
}

// SetState replaces the state of a set and bumps the generation. A
// same-state call is a no-op and does not bump. Only the forward edge to
// the immediately next state is accepted.
func (t *Topology) SetState(poolIdx, setIdx int, state SetState) error {
	if !state.valid() {
		return cmn.NewInvalidArgError("unknown set state %q", state)
	}
	set, err := t.GetSet(poolIdx, setIdx)
	if err != nil {
		return err
	}
	cur, next := set.State.rank(), state.rank()
	switch {
	case next == cur:
		return nil // no-op, generation unchanged
	case next == cur+1:
		set.State = state
		t.Generation++
		return nil
	default:
		return cmn.NewInvalidArgError(
			"set %d/%d: transition %s -> %s not allowed", poolIdx, setIdx, set.State, state)
	}
}

func (t *Topology) MarkDraining(poolIdx, setIdx int) error {
	return t.SetState(poolIdx, setIdx, SetDraining)
}

func (t *Topology) MarkRemoved(poolIdx, setIdx int) error {
	return t.SetState(poolIdx, setIdx, SetRemoved)
}

func (t *Topology) Marshal() []byte { return cmn.MustMarshal(t) }

// UnmarshalTopology parses and validates a topology document. An empty
// pools array is accepted (unconfigured cluster); a missing one is not.
func UnmarshalTopology(b []byte) (*Topology, error) {
	var w topoWire
	if err := cmn.JSON.Unmarshal(b, &w); err != nil {
		return nil, cmn.NewCorruptError("topology", "document", err)
	}
	if w.DeploymentID == nil || *w.DeploymentID == "" {
		return nil, cmn.NewError(cmn.KindCorrupt, "topology document: missing deploymentId")
	}
	if w.Pools == nil {
		return nil, cmn.NewError(cmn.KindCorrupt, "topology document: missing pools")
	}
	topo := &Topology{DeploymentID: *w.DeploymentID, VnodeFactor: cmn.DefaultVnodeFactor}
	if w.Version != nil {
		topo.Version = *w.Version
	}
	if w.Generation != nil {
		topo.Generation = *w.Generation
	}
	if w.VnodeFactor != nil && *w.VnodeFactor > 0 {
		topo.VnodeFactor = *w.VnodeFactor
	}
	topo.Pools = make([]PoolInfo, 0, len(*w.Pools))
	for i, pw := range *w.Pools {
		if pw.Sets == nil {
			return nil, cmn.NewError(cmn.KindCorrupt, "topology document: pool %d missing sets", i)
		}
		pool := PoolInfo{Idx: i}
		if pw.Idx != nil {
			pool.Idx = *pw.Idx
		}
		for j, sw := range *pw.Sets {
			if sw.Disks == nil {
				return nil, cmn.NewError(cmn.KindCorrupt,
					"topology document: pool %d set %d missing disks", i, j)
			}
			set := SetInfo{Idx: j, State: SetActive, Disks: *sw.Disks}
			if sw.Idx != nil {
				set.Idx = *sw.Idx
			}
			if sw.State != nil {
				if !sw.State.valid() {
					return nil, cmn.NewError(cmn.KindCorrupt,
						"topology document: pool %d set %d state %q", i, j, *sw.State)
				}
				set.State = *sw.State
			}
			pool.Sets = append(pool.Sets, set)
		}
		topo.Pools = append(topo.Pools, pool)
	}
	return topo, nil
}
