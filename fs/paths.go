// Package fs provides the per-disk on-disk layout and path composition for
// stored objects and their chunk files.
package fs

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stratastore/strata/cmn"
)

// Layout per disk:
//
//	<disk_root>/
//	  .buckets.sys/
//	    format.json
//	    topology.json
//	  <bucket>/<object-key-dir>/
//	    xl.meta
//	    part.<i>          i = 1..k+m

// ObjectDir is the directory holding one object's metadata and chunks.
// Object keys may contain slashes; they map to nested directories.
func ObjectDir(diskRoot, bucket, object string) string {
	return filepath.Join(diskRoot, bucket, object)
}

func MetaPath(diskRoot, bucket, object string) string {
	return filepath.Join(ObjectDir(diskRoot, bucket, object), cmn.XlMetaFname)
}

// PartPath composes the chunk file path for 1-indexed chunk i.
func PartPath(diskRoot, bucket, object string, i int) string {
	return filepath.Join(ObjectDir(diskRoot, bucket, object), cmn.PartPrefix+strconv.Itoa(i))
}

// ValidateName rejects bucket/object names that would escape the disk root.
func ValidateName(name string) error {
	if name == "" {
		return cmn.NewInvalidArgError("empty name")
	}
	clean := filepath.Clean(name)
	if clean != name || clean == "." || clean == ".." ||
		filepath.IsAbs(clean) || clean == cmn.MetaDirName {
		return cmn.NewInvalidArgError("invalid name %q", name)
	}
	for _, part := range strings.Split(clean, string(filepath.Separator)) {
		if part == ".." {
			return cmn.NewInvalidArgError("invalid name %q", name)
		}
	}
	return nil
}
