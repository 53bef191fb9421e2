// Package ec provides the erasure-coded object coordinator: it fans chunks
// out to the disks of the owning erasure set on write and reconstructs the
// object from any k of k+m chunks on read.
package ec

import (
	"time"

	"github.com/stratastore/strata/cmn"
)

const (
	XLMetaVersion = 1
	XLMetaFormat  = "xl"
)

type (
	StatInfo struct {
		Size    int64  `json:"size"`
		ModTime string `json:"modTime"` // ISO-8601
	}

	// ChunkCksum covers one chunk in slot order; Hash is lowercase hex.
	ChunkCksum struct {
		Algo string `json:"algo"`
		Hash string `json:"hash"`
	}

	ErasureInfo struct {
		Algorithm    string       `json:"algorithm"`
		Data         int          `json:"data"`
		Parity       int          `json:"parity"`
		BlockSize    int64        `json:"blockSize"`
		Index        int          `json:"index"`
		Distribution []int        `json:"distribution"`
		Checksums    []ChunkCksum `json:"checksums"`
	}

	VersioningInfo struct {
		VersionID             string `json:"versionId"`
		IsLatest              bool   `json:"isLatest"`
		IsDeleteMarker        bool   `json:"isDeleteMarker"`
		DeleteMarkerVersionID string `json:"deleteMarkerVersionId,omitempty"`
	}

	// Metadata is the xl.meta document, one per object per disk. Inline
	// objects carry their payload base64-encoded and have no chunk files
	// (Erasure is nil).
	Metadata struct {
		Version    int             `json:"version"`
		Format     string          `json:"format"`
		Stat       StatInfo        `json:"stat"`
		Erasure    *ErasureInfo    `json:"erasure,omitempty"`
		Meta       map[string]string `json:"meta,omitempty"`
		Versioning *VersioningInfo `json:"versioning,omitempty"`
		Inline     *string         `json:"inline,omitempty"`
	}
)

func newMetadata(size int64, userMeta map[string]string) *Metadata {
	return &Metadata{
		Version: XLMetaVersion,
		Format:  XLMetaFormat,
		Stat: StatInfo{
			Size:    size,
			ModTime: time.Now().UTC().Format(time.RFC3339Nano),
		},
		Meta: userMeta,
	}
}

func (m *Metadata) IsInline() bool { return m.Erasure == nil }

func (m *Metadata) Marshal() []byte { return cmn.MustMarshal(m) }

// UnmarshalMeta parses and validates an xl.meta document.
func UnmarshalMeta(b []byte) (*Metadata, error) {
	var m Metadata
	if err := cmn.JSON.Unmarshal(b, &m); err != nil {
		return nil, cmn.NewCorruptError("xl.meta", "document", err)
	}
	if m.Format != XLMetaFormat {
		return nil, cmn.NewError(cmn.KindCorrupt, "xl.meta: format %q", m.Format)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metadata) validate() error {
	if m.IsInline() {
		return nil
	}
	e := m.Erasure
	if m.Stat.Size <= 0 {
		return cmn.NewError(cmn.KindCorrupt, "xl.meta: non-inline object with size %d", m.Stat.Size)
	}
	if e.Data <= 0 || e.Parity < 0 {
		return cmn.NewError(cmn.KindCorrupt, "xl.meta: erasure geometry %d+%d", e.Data, e.Parity)
	}
	// chunk_size * data >= size > chunk_size * (data-1)
	if e.BlockSize <= 0 || e.BlockSize*int64(e.Data) < m.Stat.Size ||
		m.Stat.Size <= e.BlockSize*int64(e.Data-1) {
		return cmn.NewError(cmn.KindCorrupt,
			"xl.meta: chunk size %d does not cover size %d with %d data chunks",
			e.BlockSize, m.Stat.Size, e.Data)
	}
	if n := e.Data + e.Parity; len(e.Checksums) != n && len(e.Checksums) != 0 {
		return cmn.NewError(cmn.KindCorrupt,
			"xl.meta: %d checksums for %d chunks", len(e.Checksums), n)
	}
	return nil
}
