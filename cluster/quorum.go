package cluster

import (
	"path/filepath"

	"github.com/OneOfOne/xxhash"
	"github.com/rs/zerolog/log"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/cos"
	"github.com/stratastore/strata/cmn/jsp"
)

// Per-disk document paths.

func FormatPath(diskRoot string) string {
	return filepath.Join(diskRoot, cmn.MetaDirName, cmn.FormatFname)
}

func TopoPath(diskRoot string) string {
	return filepath.Join(diskRoot, cmn.MetaDirName, cmn.TopoFname)
}

// SaveFormat persists a format replica on one disk.
func SaveFormat(diskRoot string, f *Format) error {
	return jsp.Save(FormatPath(diskRoot), f)
}

// LoadFormat reads one disk's format replica.
func LoadFormat(diskRoot string) (*Format, error) {
	b, err := cos.ReadFile(FormatPath(diskRoot))
	if err != nil {
		return nil, err
	}
	return UnmarshalFormat(b)
}

// LoadFormats reads every disk's format replica, keeping nil entries for
// unreadable disks so that ValidateReplicas sees the full replica count.
func LoadFormats(diskRoots []string) []*Format {
	formats := make([]*Format, len(diskRoots))
	for i, root := range diskRoots {
		if root == "" {
			continue
		}
		f, err := LoadFormat(root)
		if err != nil {
			log.Warn().Err(err).Str("disk", root).Msg("unreadable format replica")
			continue
		}
		formats[i] = f
	}
	return formats
}

// SaveTopology writes the topology to every disk independently; a single
// disk failure does not abort the loop. Success requires a strict majority
// of replicas written. Empty disk paths are skipped silently.
func SaveTopology(diskRoots []string, topo *Topology) error {
	n := len(diskRoots)
	if n == 0 {
		return cmn.NewInvalidArgError("no disks")
	}
	b := topo.Marshal()
	successes := 0
	for _, root := range diskRoots {
		if root == "" {
			continue
		}
		if err := cos.WriteFileAtomic(TopoPath(root), b); err != nil {
			log.Error().Err(err).Str("disk", root).Msg("failed to persist topology replica")
			continue
		}
		successes++
	}
	if quorum := cmn.WriteQuorum(n); successes < quorum {
		return cmn.NewQuorumError("topology persisted on %d of %d disks, need %d",
			successes, n, quorum)
	}
	return nil
}

// LoadTopology performs a consensus read: each disk's document is parsed,
// re-serialised to its canonical byte form and hashed; the first hash
// bucket to accumulate read-quorum votes wins. Disk order makes the
// tie-break deterministic.
//
// read_quorum = max(1, N/2) - for a single disk one good copy suffices.
// Competing partitions that never reach quorum are an operator problem;
// this policy is safe (never returns a value lacking quorum) and live
// whenever a strict majority agrees.
func LoadTopology(diskRoots []string) (*Topology, error) {
	n := len(diskRoots)
	if n == 0 {
		return nil, cmn.NewInvalidArgError("no disks")
	}
	type vote struct {
		topo  *Topology
		count int
	}
	var (
		votes      = make(map[uint64]*vote, 2)
		readQuorum = cmn.ReadQuorum(n)
	)
	for _, root := range diskRoots {
		if root == "" {
			continue
		}
		b, err := cos.ReadFile(TopoPath(root))
		if err != nil {
			log.Warn().Err(err).Str("disk", root).Msg("unreadable topology replica")
			continue
		}
		topo, err := UnmarshalTopology(b)
		if err != nil {
			log.Warn().Err(err).Str("disk", root).Msg("corrupt topology replica")
			continue
		}
		h := xxhash.Checksum64(topo.Marshal())
		v, ok := votes[h]
		if !ok {
			v = &vote{topo: topo}
			votes[h] = v
		}
		v.count++
		if v.count >= readQuorum {
			return v.topo, nil
		}
	}
	return nil, cmn.NewQuorumError("no topology value reached read quorum %d of %d disks",
		readQuorum, n)
}
