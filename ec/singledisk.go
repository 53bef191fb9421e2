package ec

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/cos"
	"github.com/stratastore/strata/fs"
)

// Single-disk mode: the degenerate layout used when no placement is
// configured or the computed set is too small for the codec geometry.
// Small objects inline into xl.meta; larger ones land whole in part.1
// with a 1+0 erasure stanza so the regular read path understands them.

func (c *Coordinator) dataDir() string { return cmn.GCO.Get().Node.DataDir }

func (c *Coordinator) putSingleDisk(_ context.Context, bucket, object string, data []byte,
	userMeta map[string]string, conf cmn.ErasureConf) error {
	root := c.dataDir()
	md := newMetadata(int64(len(data)), userMeta)
	if int64(len(data)) < conf.InlineThreshold {
		inline := base64.StdEncoding.EncodeToString(data)
		md.Inline = &inline
		return cos.WriteFileAtomic(fs.MetaPath(root, bucket, object), md.Marshal())
	}
	sum, err := hashChunk(conf.CksumAlgo, data)
	if err != nil {
		return err
	}
	md.Erasure = &ErasureInfo{
		Algorithm:    cmn.ErasureAlgorithm,
		Data:         1,
		Parity:       0,
		BlockSize:    int64(len(data)), // single chunk holds the whole payload
		Index:        1,
		Distribution: []int{1},
		Checksums:    []ChunkCksum{{Algo: conf.CksumAlgo, Hash: sum}},
	}
	if err := cos.WriteFileAtomic(fs.PartPath(root, bucket, object, 1), data); err != nil {
		return err
	}
	return cos.WriteFileAtomic(fs.MetaPath(root, bucket, object), md.Marshal())
}

func (c *Coordinator) getSingleDisk(_ context.Context, bucket, object string) ([]byte, *Metadata, error) {
	root := c.dataDir()
	b, err := cos.ReadFile(fs.MetaPath(root, bucket, object))
	if err != nil {
		if cmn.IsKind(err, cmn.KindNotFound) {
			return nil, nil, cmn.NewNotFoundError("%s/%s", bucket, object)
		}
		return nil, nil, err
	}
	md, err := UnmarshalMeta(b)
	if err != nil {
		return nil, nil, err
	}
	if md.IsInline() {
		var data []byte
		if md.Inline != nil && *md.Inline != "" {
			data, err = base64.StdEncoding.DecodeString(*md.Inline)
			if err != nil {
				return nil, nil, cmn.NewCorruptError("inline payload", bucket+"/"+object, err)
			}
		}
		return data, md, nil
	}
	data, err := cos.ReadFile(fs.PartPath(root, bucket, object, 1))
	if err != nil {
		return nil, nil, err
	}
	conf := cmn.GCO.Get().Erasure
	if conf.VerifyCksum && len(md.Erasure.Checksums) > 0 {
		if !verifyChunk(md.Erasure.Checksums[0], data) {
			return nil, nil, cmn.NewError(cmn.KindCorrupt,
				"%s/%s: payload checksum mismatch", bucket, object)
		}
	}
	if int64(len(data)) < md.Stat.Size {
		return nil, nil, cmn.NewError(cmn.KindCorrupt,
			"%s/%s: %d bytes on disk, stat %d", bucket, object, len(data), md.Stat.Size)
	}
	return data[:md.Stat.Size], md, nil
}

func (c *Coordinator) deleteSingleDisk(bucket, object string) error {
	root := c.dataDir()
	b, err := cos.ReadFile(fs.MetaPath(root, bucket, object))
	if err != nil {
		if cmn.IsKind(err, cmn.KindNotFound) {
			return cmn.NewNotFoundError("%s/%s", bucket, object)
		}
		return err
	}
	md, err := UnmarshalMeta(b)
	if err == nil && !md.IsInline() {
		_ = cos.RemoveFile(fs.PartPath(root, bucket, object, 1))
	}
	if err := cos.RemoveFile(fs.MetaPath(root, bucket, object)); err != nil {
		return err
	}
	_ = os.Remove(fs.ObjectDir(root, bucket, object))
	if c.reg != nil {
		_ = c.reg.Remove(bucket, object)
	}
	return nil
}

func (c *Coordinator) statSingleDisk(bucket, object string) (*Metadata, error) {
	b, err := cos.ReadFile(fs.MetaPath(c.dataDir(), bucket, object))
	if err != nil {
		if cmn.IsKind(err, cmn.KindNotFound) {
			return nil, cmn.NewNotFoundError("%s/%s", bucket, object)
		}
		return nil, err
	}
	return UnmarshalMeta(b)
}
