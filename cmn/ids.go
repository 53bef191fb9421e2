// Package cmn provides common low-level types and utilities for all strata projects
package cmn

import (
	"os"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

var (
	sid  *shortid.Shortid
	rtie uint32
)

func InitShortID(seed uint64) {
	sid = shortid.MustNew(4 /*worker*/, shortid.DefaultABC, seed)
}

// GenDeploymentID generates the cluster-unique 128-bit identity rendered
// in canonical 36-character hyphenated form. Generated once at format time.
func GenDeploymentID() string { return uuid.NewString() }

// GenDiskID generates a per-disk slot identity for the format sets table.
func GenDiskID() string { return uuid.NewString() }

// ParseUUID validates and decodes a canonical 36-character UUID.
func ParseUUID(s string) ([16]byte, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return [16]byte{}, NewError(KindInvalidArg, "malformed uuid %q: %v", s, err)
	}
	return u, nil
}

// GenShortID generates short, unique and human-readable IDs (request
// tracing, workfile markers). InitShortID must have been called.
func GenShortID() string { return sid.MustGenerate() }

// GenTie generates a unique suffix for temp filenames: the process id
// plus a process-wide counter, both base36. The pid disambiguates writers
// racing on the same path from different processes, the counter within
// one process.
func GenTie() string {
	tie := atomic.AddUint32(&rtie, 1)
	return strconv.FormatUint(uint64(os.Getpid()), 36) + "." +
		strconv.FormatUint(uint64(tie), 36)
}
