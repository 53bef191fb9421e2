package fs

import (
	"github.com/stratastore/strata/cmn"
)

// LocalDisks is the locally-configured multi-disk layer: the node's own
// disk roots sliced into erasure sets in configuration order. It backs
// placements whose topology carries no disk endpoints (single-node
// layouts) and the RPC server's disk-path validation.
type LocalDisks struct {
	sets  [][]string
	roots map[string]struct{}
}

// NewLocalDisks groups the configured paths into sets of disksPerSet in
// order, mirroring the grouping used at format time.
func NewLocalDisks(paths []string, disksPerSet int) (*LocalDisks, error) {
	if len(paths) == 0 {
		return &LocalDisks{roots: map[string]struct{}{}}, nil
	}
	if disksPerSet <= 0 || len(paths)%disksPerSet != 0 {
		return nil, cmn.NewInvalidArgError(
			"path count %d is not a multiple of set size %d", len(paths), disksPerSet)
	}
	ld := &LocalDisks{
		sets:  make([][]string, 0, len(paths)/disksPerSet),
		roots: make(map[string]struct{}, len(paths)),
	}
	for i := 0; i < len(paths); i += disksPerSet {
		set := make([]string, disksPerSet)
		copy(set, paths[i:i+disksPerSet])
		ld.sets = append(ld.sets, set)
	}
	for _, p := range paths {
		ld.roots[p] = struct{}{}
	}
	return ld, nil
}

// PathsForSet returns the local disk roots of the given set, nil when the
// set is not locally configured.
func (ld *LocalDisks) PathsForSet(setIdx int) []string {
	if setIdx < 0 || setIdx >= len(ld.sets) {
		return nil
	}
	return ld.sets[setIdx]
}

// AllPaths returns every configured disk root in order.
func (ld *LocalDisks) AllPaths() (paths []string) {
	for _, set := range ld.sets {
		paths = append(paths, set...)
	}
	return
}

// Owns reports whether the disk root belongs to this node; the RPC server
// rejects requests naming foreign paths.
func (ld *LocalDisks) Owns(diskRoot string) bool {
	_, ok := ld.roots[diskRoot]
	return ok
}

func (ld *LocalDisks) NumSets() int { return len(ld.sets) }
