// Package cos provides low-level OS and file-system primitives shared by
// all strata packages.
package cos

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/stratastore/strata/cmn"
)

const dirPerm = 0o750

// CreateFile creates a file (and any missing parent directories).
func CreateFile(fqn string) (*os.File, error) {
	if err := CreateDir(filepath.Dir(fqn)); err != nil {
		return nil, err
	}
	fh, err := os.Create(fqn)
	if err != nil {
		return nil, cmn.NewIOError("create", fqn, err)
	}
	return fh, nil
}

func CreateDir(dir string) error {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return cmn.NewIOError("mkdir", dir, err)
	}
	return nil
}

// FlushClose fsyncs and closes the file; the first failure wins.
func FlushClose(file *os.File) error {
	err := file.Sync()
	if errC := file.Close(); errC != nil && err == nil {
		err = errC
	}
	return err
}

func RemoveFile(fqn string) error {
	if err := os.Remove(fqn); err != nil && !os.IsNotExist(err) {
		return cmn.NewIOError("remove", fqn, err)
	}
	return nil
}

// WriteFileAtomic durably replaces fqn with data: write a unique temp
// file in the same directory, fsync it, rename over the target, and
// fsync the parent directory. The rename-then-fsync ordering is the
// durability contract.
func WriteFileAtomic(fqn string, data []byte) (err error) {
	var (
		file *os.File
		tmp  = fqn + cmn.TmpInfix + cmn.GenTie()
	)
	if file, err = CreateFile(tmp); err != nil {
		return
	}
	defer func() {
		if err != nil {
			if nestedErr := RemoveFile(tmp); nestedErr != nil {
				log.Error().Err(nestedErr).Str("tmp", tmp).Msg("failed to remove temp file")
			}
		}
	}()
	if _, err = file.Write(data); err != nil {
		file.Close()
		err = cmn.NewIOError("write", tmp, err)
		return
	}
	if err = FlushClose(file); err != nil {
		err = cmn.NewIOError("fsync", tmp, err)
		return
	}
	if err = os.Rename(tmp, fqn); err != nil {
		err = cmn.NewIOError("rename", fqn, err)
		return
	}
	err = syncDir(filepath.Dir(fqn))
	return
}

// ReadFile returns the full content of fqn.
func ReadFile(fqn string) ([]byte, error) {
	b, err := os.ReadFile(fqn)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cmn.NewNotFoundError("%s", fqn)
		}
		return nil, cmn.NewIOError("read", fqn, err)
	}
	return b, nil
}

func syncDir(dir string) error {
	fh, err := os.Open(dir)
	if err != nil {
		return cmn.NewIOError("open", dir, err)
	}
	err = fh.Sync()
	if errC := fh.Close(); errC != nil && err == nil {
		err = errC
	}
	if err != nil {
		return cmn.NewIOError("fsync", dir, err)
	}
	return nil
}

// DrainReader reads and discards the remainder of r.
func DrainReader(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
