// Package registry maintains an optional index of object locations. It is
// a collaborator of the object coordinator: its absence - or any failure
// inside it - must never prevent a PUT or GET.
package registry

import (
	"github.com/tidwall/buntdb"

	"github.com/stratastore/strata/cmn"
)

const keyPrefix = "loc:"

// Location records where an object landed at write time.
type Location struct {
	PoolIdx    int   `json:"pool"`
	SetIdx     int   `json:"set"`
	Generation int64 `json:"generation"`
	Size       int64 `json:"size"`
}

// Registry is a buntdb-backed location index, either in-memory
// (path ":memory:") or persisted to a single append-only file.
type Registry struct {
	db *buntdb.DB
}

func Open(path string) (*Registry, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, cmn.NewIOError("open registry", path, err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error { return r.db.Close() }

func key(bucket, object string) string { return keyPrefix + bucket + "/" + object }

func (r *Registry) Record(bucket, object string, loc Location) error {
	val := cmn.MustMarshal(loc)
	err := r.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(key(bucket, object), string(val), nil)
		return err
	})
	if err != nil {
		return cmn.NewIOError("registry set", bucket+"/"+object, err)
	}
	return nil
}

func (r *Registry) Lookup(bucket, object string) (Location, bool) {
	var loc Location
	err := r.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(key(bucket, object))
		if err != nil {
			return err
		}
		return cmn.JSON.Unmarshal([]byte(val), &loc)
	})
	return loc, err == nil
}

func (r *Registry) Remove(bucket, object string) error {
	err := r.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key(bucket, object))
		return err
	})
	if err != nil && err != buntdb.ErrNotFound {
		return cmn.NewIOError("registry delete", bucket+"/"+object, err)
	}
	return nil
}
