package ec

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/klauspost/reedsolomon"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/stratastore/strata/cmn"
	"github.com/stratastore/strata/cmn/cos"
	"github.com/stratastore/strata/cmn/debug"
	"github.com/stratastore/strata/fs"
	"github.com/stratastore/strata/placement"
	"github.com/stratastore/strata/registry"
)

type (
	// RPCClient performs chunk and metadata I/O against the node owning a
	// non-local disk of a placement.
	RPCClient interface {
		WriteChunk(ctx context.Context, hostURL, diskPath, bucket, object string, idx int, data []byte) error
		ReadChunk(ctx context.Context, hostURL, diskPath, bucket, object string, idx int) ([]byte, error)
		WriteXlMeta(ctx context.Context, hostURL, diskPath, bucket, object string, meta []byte) error
		ReadXlMeta(ctx context.Context, hostURL, diskPath, bucket, object string) ([]byte, error)
	}

	// Registry is the optional object-location collaborator; see package
	// registry. A nil Registry is fully supported.
	Registry interface {
		Record(bucket, object string, loc registry.Location) error
		Lookup(bucket, object string) (registry.Location, bool)
		Remove(bucket, object string) error
	}

	// Coordinator drives object PUT/GET/DELETE/STAT over the placement
	// result: erasure-encode, fan chunks out to the computed set, and
	// reconstruct on read. With no placement configured it degrades to
	// single-disk mode on the node's data directory.
	Coordinator struct {
		plc   *placement.Placement
		local *fs.LocalDisks
		rpc   RPCClient
		reg   Registry
	}
)

func NewCoordinator(plc *placement.Placement, local *fs.LocalDisks, rpc RPCClient, reg Registry) *Coordinator {
	return &Coordinator{plc: plc, local: local, rpc: rpc, reg: reg}
}

// targetDisks resolves the ordered disk list for (bucket, object), or nil
// when the coordinator must fall back to single-disk mode.
func (c *Coordinator) targetDisks(bucket, object string, need int) *placement.Result {
	if c.plc == nil {
		return nil
	}
	res, err := c.plc.Place(bucket, object)
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Str("object", object).Msg("placement unavailable")
		return nil
	}
	if len(res.Disks) < need {
		log.Warn().Int("disks", len(res.Disks)).Int("need", need).Msg("placement set too small")
		return nil
	}
	return res
}

func (c *Coordinator) writeMeta(ctx context.Context, d placement.DiskLoc, bucket, object string, b []byte) error {
	if d.Local {
		return cos.WriteFileAtomic(fs.MetaPath(d.DiskPath, bucket, object), b)
	}
	if c.rpc == nil {
		return cmn.NewNetworkError(nil, "no rpc client for remote disk %s", d.Endpoint)
	}
	return c.rpc.WriteXlMeta(ctx, d.HostURL, d.DiskPath, bucket, object, b)
}

func (c *Coordinator) readMeta(ctx context.Context, d placement.DiskLoc, bucket, object string) ([]byte, error) {
	if d.Local {
		return cos.ReadFile(fs.MetaPath(d.DiskPath, bucket, object))
	}
	if c.rpc == nil {
		return nil, cmn.NewNetworkError(nil, "no rpc client for remote disk %s", d.Endpoint)
	}
	return c.rpc.ReadXlMeta(ctx, d.HostURL, d.DiskPath, bucket, object)
}

func (c *Coordinator) writeChunk(ctx context.Context, d placement.DiskLoc, bucket, object string, idx int, b []byte) error {
	if d.Local {
		return cos.WriteFileAtomic(fs.PartPath(d.DiskPath, bucket, object, idx), b)
	}
	if c.rpc == nil {
		return cmn.NewNetworkError(nil, "no rpc client for remote disk %s", d.Endpoint)
	}
	return c.rpc.WriteChunk(ctx, d.HostURL, d.DiskPath, bucket, object, idx, b)
}

func (c *Coordinator) readChunk(ctx context.Context, d placement.DiskLoc, bucket, object string, idx int) ([]byte, error) {
	if d.Local {
		return cos.ReadFile(fs.PartPath(d.DiskPath, bucket, object, idx))
	}
	if c.rpc == nil {
		return nil, cmn.NewNetworkError(nil, "no rpc client for remote disk %s", d.Endpoint)
	}
	return c.rpc.ReadChunk(ctx, d.HostURL, d.DiskPath, bucket, object, idx)
}

////////////////
// PUT OBJECT //
////////////////

func (c *Coordinator) PutObject(ctx context.Context, bucket, object string, data []byte, userMeta map[string]string) error {
	if err := fs.ValidateName(bucket); err != nil {
		return err
	}
	if err := fs.ValidateName(object); err != nil {
		return err
	}
	conf := cmn.GCO.Get().Erasure
	k, m := conf.DataSlices, conf.ParitySlices

	res := c.targetDisks(bucket, object, k+m)
	if res == nil {
		return c.putSingleDisk(ctx, bucket, object, data, userMeta, conf)
	}
	disks := res.Disks

	if int64(len(data)) < conf.InlineThreshold {
		md := newMetadata(int64(len(data)), userMeta)
		inline := base64.StdEncoding.EncodeToString(data)
		md.Inline = &inline
		if err := c.writeMeta(ctx, disks[0], bucket, object, md.Marshal()); err != nil {
			return err
		}
		c.record(bucket, object, res, int64(len(data)))
		return nil
	}

	enc, err := reedsolomon.New(k, m)
	if err != nil {
		return cmn.NewCryptoError(err, "codec %d+%d", k, m)
	}
	shards, err := enc.Split(data)
	if err != nil {
		return cmn.NewCryptoError(err, "split %d bytes", len(data))
	}
	if err := enc.Encode(shards); err != nil {
		return cmn.NewCryptoError(err, "encode %d+%d", k, m)
	}
	debug.Assert(len(shards) == k+m)

	// actual per-chunk size: ceil(size/k) rounded up to whatever
	// alignment the codec applied when splitting
	chunkSize := int64(len(shards[0]))

	md := newMetadata(int64(len(data)), userMeta)
	md.Erasure = &ErasureInfo{
		Algorithm:    cmn.ErasureAlgorithm,
		Data:         k,
		Parity:       m,
		BlockSize:    chunkSize,
		Index:        1,
		Distribution: make([]int, k+m),
		Checksums:    make([]ChunkCksum, k+m),
	}
	for i := 0; i < k+m; i++ {
		md.Erasure.Distribution[i] = i + 1
		sum, err := hashChunk(conf.CksumAlgo, shards[i])
		if err != nil {
			return err
		}
		md.Erasure.Checksums[i] = ChunkCksum{Algo: conf.CksumAlgo, Hash: sum}
	}

	// Chunk i (1-indexed) goes to disk slot i-1. Any chunk-write failure
	// aborts the PUT; debris left behind is removed by DELETE or scrub.
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < k+m; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return cmn.NewTimeoutError("put %s/%s: %v", bucket, object, err)
			}
			return c.writeChunk(gctx, disks[i], bucket, object, i+1, shards[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	mb := md.Marshal()
	g, gctx = errgroup.WithContext(ctx)
	for i := range disks {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return cmn.NewTimeoutError("put %s/%s: %v", bucket, object, err)
			}
			return c.writeMeta(gctx, disks[i], bucket, object, mb)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	c.record(bucket, object, res, int64(len(data)))
	return nil
}

func (c *Coordinator) record(bucket, object string, res *placement.Result, size int64) {
	if c.reg == nil {
		return
	}
	err := c.reg.Record(bucket, object, registry.Location{
		PoolIdx:    res.PoolIdx,
		SetIdx:     res.SetIdx,
		Generation: res.Generation,
		Size:       size,
	})
	if err != nil {
		log.Warn().Err(err).Str("bucket", bucket).Str("object", object).Msg("registry record failed")
	}
}

////////////////
// GET OBJECT //
////////////////

func (c *Coordinator) GetObject(ctx context.Context, bucket, object string) ([]byte, *Metadata, error) {
	if err := fs.ValidateName(bucket); err != nil {
		return nil, nil, err
	}
	if err := fs.ValidateName(object); err != nil {
		return nil, nil, err
	}
	if c.reg != nil {
		// Location hint only confirms existence cheaply; placement is
		// recomputed to resolve the disk list.
		if _, ok := c.reg.Lookup(bucket, object); ok {
			log.Debug().Str("bucket", bucket).Str("object", object).Msg("registry hit")
		}
	}
	res := c.targetDisks(bucket, object, 1)
	if res == nil {
		return c.getSingleDisk(ctx, bucket, object)
	}
	md, err := c.loadMeta(ctx, res.Disks, bucket, object)
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
	data, err := c.readErasure(ctx, res.Disks, bucket, object, md)
	if err != nil {
		return nil, nil, err
	}
	return data, md, nil
}

// loadMeta reads xl.meta from the first disk that responds; local disks
// are tried before remote ones. NOT_FOUND only after every disk is tried.
func (c *Coordinator) loadMeta(ctx context.Context, disks []placement.DiskLoc, bucket, object string) (*Metadata, error) {
	var lastErr error
	for _, pass := range []bool{true, false} {
		for _, d := range disks {
			if d.Local != pass {
				continue
			}
			b, err := c.readMeta(ctx, d, bucket, object)
			if err != nil {
				lastErr = err
				continue
			}
			md, err := UnmarshalMeta(b)
			if err != nil {
				lastErr = err
				continue
			}
			return md, nil
		}
	}
	if lastErr != nil && !cmn.IsKind(lastErr, cmn.KindNotFound) {
		log.Debug().Err(lastErr).Str("bucket", bucket).Str("object", object).Msg("metadata read errors")
	}
	return nil, cmn.NewNotFoundError("%s/%s", bucket, object)
}

// readErasure reads all k+m chunks in parallel, verifies them when
// configured, and reconstructs the payload from any k of them. Chunk-read
// and checksum failures degrade to missing chunks (erasures); only
// dropping below k chunks surfaces an error.
func (c *Coordinator) readErasure(ctx context.Context, disks []placement.DiskLoc, bucket, object string, md *Metadata) ([]byte, error) {
	var (
		conf   = cmn.GCO.Get().Erasure
		e      = md.Erasure
		n      = e.Data + e.Parity
		shards = make([][]byte, n)
	)
	if len(disks) < n {
		return nil, cmn.NewError(cmn.KindIO, "%s/%s: %d disks for %d chunks", bucket, object, len(disks), n)
	}
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			b, err := c.readChunk(gctx, disks[i], bucket, object, i+1)
			if err != nil {
				log.Debug().Err(err).Int("chunk", i+1).Msg("chunk read failed")
				return nil // missing chunk, not fatal
			}
			if conf.VerifyCksum && i < len(e.Checksums) {
				if !verifyChunk(e.Checksums[i], b) {
					log.Warn().Int("chunk", i+1).Str("object", bucket+"/"+object).
						Msg("chunk checksum mismatch, treating as erasure")
					return nil
				}
			}
			shards[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	avail := 0
	for _, s := range shards {
		if s != nil {
			avail++
		}
	}
	if avail < e.Data {
		return nil, cmn.NewError(cmn.KindIO,
			"%s/%s: %d of %d chunks available, need %d", bucket, object, avail, n, e.Data)
	}
	enc, err := reedsolomon.New(e.Data, e.Parity)
	if err != nil {
		return nil, cmn.NewCryptoError(err, "codec %d+%d", e.Data, e.Parity)
	}
	if err := enc.ReconstructData(shards); err != nil {
		return nil, cmn.NewCryptoError(err, "reconstruct %s/%s", bucket, object)
	}
	out := make([]byte, 0, md.Stat.Size)
	for i := 0; i < e.Data; i++ {
		out = append(out, shards[i]...)
	}
	if int64(len(out)) < md.Stat.Size {
		return nil, cmn.NewError(cmn.KindCorrupt,
			"%s/%s: reconstructed %d bytes, stat %d", bucket, object, len(out), md.Stat.Size)
	}
	return out[:md.Stat.Size], nil
}

///////////////////
// DELETE / STAT //
///////////////////

// DeleteObject unlinks every chunk file and xl.meta on the owning set's
// local disks and removes the (now empty) object directory. Deleting an
// absent object returns NOT_FOUND.
func (c *Coordinator) DeleteObject(ctx context.Context, bucket, object string) error {
	if err := fs.ValidateName(bucket); err != nil {
		return err
	}
	if err := fs.ValidateName(object); err != nil {
		return err
	}
	res := c.targetDisks(bucket, object, 1)
	if res == nil {
		return c.deleteSingleDisk(bucket, object)
	}
	md, err := c.loadMeta(ctx, res.Disks, bucket, object)
	if err != nil {
		return err
	}
	n := 0
	if !md.IsInline() {
		n = md.Erasure.Data + md.Erasure.Parity
	}
	for _, d := range res.Disks {
		if !d.Local {
			// No delete verb in the storage RPC; remote debris is left
			// for the owning node's scrub.
			log.Warn().Str("endpoint", d.Endpoint).Msg("skipping remote disk on delete")
			continue
		}
		for i := 1; i <= n; i++ {
			_ = cos.RemoveFile(fs.PartPath(d.DiskPath, bucket, object, i))
		}
		_ = cos.RemoveFile(fs.MetaPath(d.DiskPath, bucket, object))
		_ = os.Remove(fs.ObjectDir(d.DiskPath, bucket, object))
	}
	if c.reg != nil {
		if err := c.reg.Remove(bucket, object); err != nil {
			log.Warn().Err(err).Msg("registry remove failed")
		}
	}
	return nil
}

// StatObject returns the object metadata without the body.
func (c *Coordinator) StatObject(ctx context.Context, bucket, object string) (*Metadata, error) {
	if err := fs.ValidateName(bucket); err != nil {
		return nil, err
	}
	if err := fs.ValidateName(object); err != nil {
		return nil, err
	}
	res := c.targetDisks(bucket, object, 1)
	if res == nil {
		return c.statSingleDisk(bucket, object)
	}
	return c.loadMeta(ctx, res.Disks, bucket, object)
}
