package cluster

import (
	"github.com/stratastore/strata/cmn"
)

type (
	// Format is the immutable cluster-identity document replicated to every
	// disk at format time. All replicas must agree on the deployment ID,
	// the set geometry and the distribution algorithm.
	Format struct {
		Version int      `json:"version"`
		Format  string   `json:"format"`
		ID      string   `json:"id"` // deployment ID
		XL      FormatXL `json:"xl"`
	}

	FormatXL struct {
		Version          int        `json:"version"`
		This             string     `json:"this"` // disk holding this copy; empty until assigned
		DistributionAlgo string     `json:"distributionAlgo"`
		Sets             [][]string `json:"sets"` // sets[i][j] = identity of slot j of set i
	}

	// wire forms used on load so that missing keys are distinguishable
	// from zero values
	formatWire struct {
		Version *int          `json:"version"`
		Format  *string       `json:"format"`
		ID      *string       `json:"id"`
		XL      *formatXLWire `json:"xl"`
	}
	formatXLWire struct {
		Version          *int        `json:"version"`
		This             *string     `json:"this"`
		DistributionAlgo *string     `json:"distributionAlgo"`
		Sets             *[][]string `json:"sets"`
	}
)

// NewFormat synthesizes a fresh format document: a new deployment ID and
// setCount x disksPerSet freshly generated disk identities.
func NewFormat(setCount, disksPerSet int) (*Format, error) {
	if setCount <= 0 || disksPerSet <= 0 {
		return nil, cmn.NewInvalidArgError("format geometry %dx%d", setCount, disksPerSet)
	}
	sets := make([][]string, setCount)
	for i := range sets {
		sets[i] = make([]string, disksPerSet)
		for j := range sets[i] {
			sets[i][j] = cmn.GenDiskID()
		}
	}
	return &Format{
		Version: cmn.FormatMetaVersion,
		Format:  cmn.FormatErasure,
		ID:      cmn.GenDeploymentID(),
		XL: FormatXL{
			Version:          cmn.ErasureAlgoVer,
			DistributionAlgo: cmn.DistributionAlgo,
			Sets:             sets,
		},
	}, nil
}

func (f *Format) SetCount() int { return len(f.XL.Sets) }

func (f *Format) DisksPerSet() int {
	if len(f.XL.Sets) == 0 {
		return 0
	}
	return len(f.XL.Sets[0])
}

// Clone returns a value-deep copy with independent storage.
func (f *Format) Clone() *Format {
	clone := *f
	clone.XL.Sets = make([][]string, len(f.XL.Sets))
	for i, set := range f.XL.Sets {
		clone.XL.Sets[i] = make([]string, len(set))
		copy(clone.XL.Sets[i], set)
	}
	return &clone
}

// WithThis returns a clone with the holder-disk identity assigned.
func (f *Format) WithThis(diskID string) *Format {
	clone := f.Clone()
	clone.XL.This = diskID
	return clone
}

// FindDisk locates a disk identity in the sets table.
func (f *Format) FindDisk(diskID string) (setIdx, diskIdx int, ok bool) {
	for i, set := range f.XL.Sets {
		for j, id := range set {
			if id == diskID {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func (f *Format) Marshal() []byte { return cmn.MustMarshal(f) }

// UnmarshalFormat parses and validates a format document.
func UnmarshalFormat(b []byte) (*Format, error) {
	var w formatWire
	if err := cmn.JSON.Unmarshal(b, &w); err != nil {
		return nil, cmn.NewCorruptError("format", "document", err)
	}
	if w.ID == nil || *w.ID == "" {
		return nil, cmn.NewError(cmn.KindCorrupt, "format document: missing id")
	}
	if w.XL == nil || w.XL.Sets == nil {
		return nil, cmn.NewError(cmn.KindCorrupt, "format document: missing sets")
	}
	sets := *w.XL.Sets
	for i, set := range sets {
		if len(set) == 0 {
			return nil, cmn.NewError(cmn.KindCorrupt, "format document: empty set %d", i)
		}
		if len(set) != len(sets[0]) {
			return nil, cmn.NewError(cmn.KindCorrupt,
				"format document: ragged set width %d != %d", len(set), len(sets[0]))
		}
	}
	f := &Format{ID: *w.ID, XL: FormatXL{Sets: sets}}
	if w.Version != nil {
		f.Version = *w.Version
	}
	if w.Format != nil {
		f.Format = *w.Format
	}
	if w.XL.Version != nil {
		f.XL.Version = *w.XL.Version
	}
	if w.XL.This != nil {
		f.XL.This = *w.XL.This
	}
	if w.XL.DistributionAlgo != nil {
		f.XL.DistributionAlgo = *w.XL.DistributionAlgo
	}
	return f, nil
}

// matches reports whether the replica agrees with the reference on the
// quorum identity fields.
func (f *Format) matches(ref *Format) bool {
	return f.ID == ref.ID &&
		f.SetCount() == ref.SetCount() &&
		f.DisksPerSet() == ref.DisksPerSet() &&
		f.XL.DistributionAlgo == ref.XL.DistributionAlgo
}

// ValidateReplicas checks N loaded format replicas (nil entries stand for
// unreadable disks) against the first non-nil reference. The cluster is
// considered formatted when a strict majority agrees.
func ValidateReplicas(formats []*Format) error {
	n := len(formats)
	if n == 0 {
		return cmn.NewInvalidArgError("no format replicas")
	}
	var ref *Format
	for _, f := range formats {
		if f != nil {
			ref = f
			break
		}
	}
	if ref == nil {
		return cmn.NewQuorumError("no readable format replica out of %d", n)
	}
	valid := 0
	for _, f := range formats {
		if f != nil && f.matches(ref) {
			valid++
		}
	}
	if quorum := cmn.WriteQuorum(n); valid < quorum {
		return cmn.NewQuorumError("format agreement %d of %d, need %d", valid, n, quorum)
	}
	return nil
}
