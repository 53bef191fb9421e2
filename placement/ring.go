// Package placement maps (bucket, object) keys onto erasure sets through a
// consistent-hash ring of virtual nodes derived from the topology.
package placement

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/dchest/siphash"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cluster"
)

type (
	vnode struct {
		hash    uint64
		poolIdx int
		setIdx  int
		v       int
	}

	// Ring is an immutable sorted vnode array built for one topology
	// generation. Only ACTIVE sets contribute vnodes; for a fixed key set
	// and topology, placement is a pure function of (bucket, object).
	Ring struct {
		vnodes     []vnode
		k0, k1     uint64
		generation int64
	}
)

// BuildRing derives the SipHash key from the deployment ID bytes (first
// eight bytes -> k0, next eight -> k1) and emits vnode_factor positions per
// active set at SipHash("p:s:v") using decimal formatting. The same key is
// used for object lookups so the ring is cluster-stable.
func BuildRing(topo *cluster.Topology) (*Ring, error) {
	if topo == nil {
		return nil, cmn.NewInvalidArgError("nil topology")
	}
	id, err := cmn.ParseUUID(topo.DeploymentID)
	if err != nil {
		return nil, err
	}
	factor := topo.VnodeFactor
	if factor <= 0 {
		factor = cmn.DefaultVnodeFactor
	}
	r := &Ring{
		k0:         binary.LittleEndian.Uint64(id[0:8]),
		k1:         binary.LittleEndian.Uint64(id[8:16]),
		generation: topo.Generation,
		vnodes:     make([]vnode, 0, topo.CountActiveSets()*factor),
	}
	for _, pool := range topo.Pools {
		for _, set := range pool.Sets {
			if set.State != cluster.SetActive {
				continue
			}
			for v := 0; v < factor; v++ {
				key := strconv.Itoa(pool.Idx) + ":" + strconv.Itoa(set.Idx) + ":" + strconv.Itoa(v)
				r.vnodes = append(r.vnodes, vnode{
					hash:    siphash.Hash(r.k0, r.k1, []byte(key)),
					poolIdx: pool.Idx,
					setIdx:  set.Idx,
					v:       v,
				})
			}
		}
	}
	sort.Slice(r.vnodes, func(i, j int) bool {
		a, b := r.vnodes[i], r.vnodes[j]
		if a.hash != b.hash {
			return a.hash < b.hash
		}
		if a.poolIdx != b.poolIdx {
			return a.poolIdx < b.poolIdx
		}
		if a.setIdx != b.setIdx {
			return a.setIdx < b.setIdx
		}
		return a.v < b.v
	})
	return r, nil
}

func (r *Ring) NumVnodes() int    { return len(r.vnodes) }
func (r *Ring) Generation() int64 { return r.generation }

// Lookup hashes "bucket/object" and binary-searches for the first vnode at
// or after that position, wrapping to index 0 - the ring is circular.
func (r *Ring) Lookup(bucket, object string) (poolIdx, setIdx, vnodeIdx int, objHash uint64, err error) {
	if len(r.vnodes) == 0 {
		return 0, 0, 0, 0, cmn.NewNotFoundError("placement ring is empty")
	}
	objHash = siphash.Hash(r.k0, r.k1, []byte(bucket+"/"+object))
	i := sort.Search(len(r.vnodes), func(i int) bool { return r.vnodes[i].hash >= objHash })
	if i == len(r.vnodes) {
		i = 0
	}
	vn := r.vnodes[i]
	return vn.poolIdx, vn.setIdx, i, objHash, nil
}
