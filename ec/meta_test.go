package ec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stratastore/strata/cmn"
)

func TestMetaRoundTrip(t *testing.T) {
	md := newMetadata(1024, map[string]string{
		cmn.HeaderContentType:        "application/octet-stream",
		cmn.AmzMetaPrefix + "origin": "unit-test",
	})
	md.Erasure = &ErasureInfo{
		Algorithm:    cmn.ErasureAlgorithm,
		Data:         4,
		Parity:       2,
		BlockSize:    256, // ceil(1024/4)
		Index:        1,
		Distribution: []int{1, 2, 3, 4, 5, 6},
		Checksums: []ChunkCksum{
			{Algo: "blake2b", Hash: "00"}, {Algo: "blake2b", Hash: "01"},
			{Algo: "blake2b", Hash: "02"}, {Algo: "blake2b", Hash: "03"},
			{Algo: "blake2b", Hash: "04"}, {Algo: "blake2b", Hash: "05"},
		},
	}
	parsed, err := UnmarshalMeta(md.Marshal())
	require.NoError(t, err)
	require.Equal(t, md.Stat, parsed.Stat)
	require.Equal(t, md.Erasure, parsed.Erasure)
	require.Equal(t, md.Meta, parsed.Meta)
	require.False(t, parsed.IsInline())
}

func TestMetaInline(t *testing.T) {
	md := newMetadata(5, nil)
	inline := "aGVsbG8="
	md.Inline = &inline
	parsed, err := UnmarshalMeta(md.Marshal())
	require.NoError(t, err)
	require.True(t, parsed.IsInline())
	require.Equal(t, inline, *parsed.Inline)
}

func TestMetaCorrupt(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"wrong format", `{"version":1,"format":"v2","stat":{"size":1}}`},
		{"not json", `,`},
		{"zero size non-inline", `{"version":1,"format":"xl","stat":{"size":0},` +
			`"erasure":{"algorithm":"rs","data":4,"parity":2}}`},
		{"bad geometry", `{"version":1,"format":"xl","stat":{"size":9},` +
			`"erasure":{"algorithm":"rs","data":0,"parity":2}}`},
		{"missing chunk size", `{"version":1,"format":"xl","stat":{"size":9},` +
			`"erasure":{"algorithm":"rs","data":2,"parity":1}}`},
		{"chunk size too small", `{"version":1,"format":"xl","stat":{"size":9},` +
			`"erasure":{"algorithm":"rs","data":2,"parity":1,"blockSize":4}}`},
		{"chunk size too large", `{"version":1,"format":"xl","stat":{"size":9},` +
			`"erasure":{"algorithm":"rs","data":2,"parity":1,"blockSize":16}}`},
		{"checksum count", `{"version":1,"format":"xl","stat":{"size":9},` +
			`"erasure":{"algorithm":"rs","data":2,"parity":1,"blockSize":5,"checksums":[{"algo":"a","hash":"b"}]}}`},
	}
	for _, tc := range tests {
		_, err := UnmarshalMeta([]byte(tc.doc))
		require.True(t, cmn.IsKind(err, cmn.KindCorrupt), "%s: %v", tc.name, err)
	}
}

func TestHashChunk(t *testing.T) {
	data := []byte("chunk data")
	sum, err := hashChunk(cmn.CksumBlake2b, data)
	require.NoError(t, err)
	require.Len(t, sum, 64) // 32 bytes lowercase hex
	require.True(t, verifyChunk(ChunkCksum{Algo: cmn.CksumBlake2b, Hash: sum}, data))
	require.False(t, verifyChunk(ChunkCksum{Algo: cmn.CksumBlake2b, Hash: sum}, []byte("tampered")))

	sum2, err := hashChunk(cmn.CksumSHA256, data)
	require.NoError(t, err)
	require.NotEqual(t, sum, sum2)

	_, err = hashChunk("md5", data)
	require.True(t, cmn.IsKind(err, cmn.KindUnsupported))
}
