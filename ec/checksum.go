package ec

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/stratastore/strata/cmn"
)

// hashChunk computes the designated checksum over one chunk, rendered as
// lowercase hex.
func hashChunk(algo string, data []byte) (string, error) {
	switch algo {
	case cmn.CksumBlake2b:
		h, err := blake2b.New256(nil)
		if err != nil {
			return "", cmn.NewCryptoError(err, "blake2b init")
		}
		h.Write(data)
		return hex.EncodeToString(h.Sum(nil)), nil
	case cmn.CksumSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:]), nil
	default:
		return "", cmn.NewUnsupportedError("checksum algo %q", algo)
	}
}

// verifyChunk reports whether data matches the recorded checksum. An
// unknown algorithm counts as a failure, not an error - the caller treats
// the chunk as an erasure either way.
func verifyChunk(ck ChunkCksum, data []byte) bool {
	sum, err := hashChunk(ck.Algo, data)
	if err != nil {
		return false
	}
	return sum == ck.Hash
}
