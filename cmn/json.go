// Package cmn provides common low-level types and utilities for all strata projects
package cmn

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// JSON is the process-wide codec for all on-disk documents and RPC bodies.
var JSON = jsoniter.ConfigCompatibleWithStandardLibrary

func MustMarshal(v interface{}) []byte {
	b, err := JSON.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// StrUint64 is an unsigned 64-bit value that marshals as a decimal string
// to avoid precision loss on serialisers that widen u64 through floats.
// Unmarshal accepts both the string and the bare integer form.
type StrUint64 uint64

func (u StrUint64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *StrUint64) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return NewError(KindCorrupt, "capacity %q: %v", s, err)
	}
	*u = StrUint64(v)
	return nil
}
