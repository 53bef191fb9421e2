// Package jsp (JSON persistence) stores and loads JSON-encoded documents
// atomically and durably.
package jsp

import (
	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/cos"
)

// Save serialises v and durably replaces the file at fqn
// (write-temp, fsync, rename, fsync parent).
func Save(fqn string, v interface{}) error {
	b, err := cmn.JSON.Marshal(v)
	if err != nil {
		return cmn.NewError(cmn.KindInvalidArg, "encode %s: %v", fqn, err)
	}
	return cos.WriteFileAtomic(fqn, b)
}

// Load reads the file at fqn and decodes it into v.
func Load(fqn string, v interface{}) error {
	b, err := cos.ReadFile(fqn)
	if err != nil {
		return err
	}
	if err := cmn.JSON.Unmarshal(b, v); err != nil {
		return cmn.NewCorruptError("decode", fqn, err)
	}
	return nil
}
