package placement

import (
	"sync"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cluster"
)

type (
	// DiskLoc is one ordered disk slot of a placement result.
	DiskLoc struct {
		UUID     string
		Endpoint string // full endpoint string; empty in local-only layouts
		HostURL  string // scheme://host:port of the owning node, "" when local
		DiskPath string // disk root path (local or on the owning node)
		Local    bool
	}

	// Result is the ephemeral value returned per lookup: the owning set,
	// the topology generation it was computed against, and the ordered
	// disk locations in the set's own slot order.
	Result struct {
		PoolIdx    int
		SetIdx     int
		State      cluster.SetState
		Generation int64
		ObjectHash uint64
		VnodeIndex int
		Disks      []DiskLoc
	}

	// LocalResolver supplies local disk paths by set index for topologies
	// whose disk endpoints were never configured (single-node layouts).
	LocalResolver interface {
		PathsForSet(setIdx int) []string
	}

	// Placement owns the current ring and the topology snapshot it was
	// built from. Rebuild swaps both under the exclusive lock; concurrent
	// lookups keep observing the old ring until the swap.
	Placement struct {
		mu    sync.RWMutex
		ring  *Ring
		topo  *cluster.Topology
		local LocalResolver
	}
)

// New builds the initial ring for the given topology.
func New(topo *cluster.Topology, local LocalResolver) (*Placement, error) {
	ring, err := BuildRing(topo)
	if err != nil {
		return nil, err
	}
	return &Placement{ring: ring, topo: topo, local: local}, nil
}

// Rebuild replaces the ring after a topology change. The old ring remains
// observable to concurrent lookups until atomically replaced.
func (p *Placement) Rebuild(topo *cluster.Topology) error {
	ring, err := BuildRing(topo)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.ring, p.topo = ring, topo
	p.mu.Unlock()
	return nil
}

// Generation reports the topology generation of the current ring.
func (p *Placement) Generation() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ring.Generation()
}

// Place computes the owning set for (bucket, object) and composes the
// ordered disk locations of that set.
func (p *Placement) Place(bucket, object string) (*Result, error) {
	p.mu.RLock()
	ring, topo := p.ring, p.topo
	p.mu.RUnlock()

	poolIdx, setIdx, vnodeIdx, objHash, err := ring.Lookup(bucket, object)
	if err != nil {
		return nil, err
	}
	set, err := topo.GetSet(poolIdx, setIdx)
	if err != nil {
		return nil, err
	}
	res := &Result{
		PoolIdx:    poolIdx,
		SetIdx:     setIdx,
		State:      set.State,
		Generation: topo.Generation,
		ObjectHash: objHash,
		VnodeIndex: vnodeIdx,
		Disks:      make([]DiskLoc, len(set.Disks)),
	}
	var localPaths []string
	for i, disk := range set.Disks {
		loc := DiskLoc{UUID: disk.UUID, Endpoint: disk.Endpoint}
		if disk.Endpoint == "" {
			// Unconfigured endpoints: fall back to the locally-configured
			// multi-disk layer, which returns local paths by set index.
			if localPaths == nil && p.local != nil {
				localPaths = p.local.PathsForSet(setIdx)
			}
			if i < len(localPaths) {
				loc.DiskPath = localPaths[i]
				loc.Local = true
			}
			res.Disks[i] = loc
			continue
		}
		ep, err := cluster.NewEndpoint(disk.Endpoint)
		if err != nil {
			return nil, cmn.WrapError(cmn.KindCorrupt, err,
				"set %d/%d disk %d endpoint", poolIdx, setIdx, i)
		}
		loc.DiskPath = ep.Path
		loc.Local = ep.IsLocal()
		loc.HostURL = ep.HostURL()
		res.Disks[i] = loc
	}
	return res, nil
}
