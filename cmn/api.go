// Package cmn provides common low-level types and utilities for all strata projects
package cmn

// On-disk layout. Every disk root carries a hidden metadata directory with
// the cluster identity and topology documents; objects live under
// <disk>/<bucket>/<object>/ next to their chunk files.
const (
	MetaDirName = ".buckets.sys"
	FormatFname = "format.json"
	TopoFname   = "topology.json"
	XlMetaFname = "xl.meta"
	PartPrefix  = "part."
	TmpInfix    = ".tmp."
)

// Format document constants.
const (
	FormatMetaVersion = 1
	FormatErasure     = "erasure"
	ErasureAlgoVer    = 3
	DistributionAlgo  = "SIPMOD+PARITY"
)

// Topology document constants.
const (
	TopoMetaVersion    = 1
	DefaultVnodeFactor = 150
)

// Erasure defaults.
const (
	ErasureAlgorithm       = "rs-vandermonde"
	DefaultBlockSize       = 10 * MiB
	DefaultInlineThreshold = 128 * KiB
	CksumBlake2b           = "blake2b"
	CksumSHA256            = "sha256"
)

const (
	KiB = 1024
	MiB = 1024 * KiB
	GiB = 1024 * MiB
)

// URL paths.
const (
	URLPathRPC     = "/v1/rpc/"
	URLPathAdmin   = "/v1/admin/"
	URLPathHealth  = "/health"
	URLPathMetrics = "/metrics"
)

// RPC method names (appended to URLPathRPC).
const (
	RPCWriteChunk  = "storage.writeChunk"
	RPCReadChunk   = "storage.readChunk"
	RPCWriteXlMeta = "storage.writeXlMeta"
	RPCReadXlMeta  = "storage.readXlMeta"
)

// Standard header keys stored in object metadata.
const (
	HeaderContentType   = "content-type"
	HeaderContentLength = "content-length"
	HeaderETag          = "etag"
	AmzMetaPrefix       = "x-amz-meta-"
)

// WriteQuorum is the strict majority required for metadata writes.
func WriteQuorum(n int) int { return n/2 + 1 }

// ReadQuorum is the number of identical copies required on read.
// Collapses to 1 for a single disk so one good copy is sufficient.
func ReadQuorum(n int) int {
	q := n / 2
	if q < 1 {
		q = 1
	}
	return q
}
