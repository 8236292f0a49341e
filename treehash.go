package treehash

import (
	"encoding/hex"
	"fmt"

	godigest "github.com/opencontainers/go-digest"

	"github.com/distribution/treehash/internal/blake2core"
)

const (
	// HASH_SIZE is the digest length in bytes.
	HASH_SIZE = 32
	// CHUNK_SIZE is the leaf size in bytes.
	CHUNK_SIZE = 4096
	// PARENT_SIZE is the byte length of a concatenated pair of digests.
	PARENT_SIZE = 2 * HASH_SIZE
	// HEADER_SIZE is the byte length of the little-endian total-length suffix.
	HEADER_SIZE = 8
	// MAX_DEPTH bounds the number of simultaneously pending subtrees; it
	// supports inputs up to 2^64-1 bytes.
	MAX_DEPTH = 64
	// MAX_SINGLE_THREADED is the input size below which the one-shot
	// recursive hasher never bothers to parallelize.
	MAX_SINGLE_THREADED = 4 * CHUNK_SIZE

	// treehashAlgorithm is the algorithm name used when a Digest is
	// rendered as an OCI-style "alg:hex" digest string.
	treehashAlgorithm = "blake2btree"
)

// Digest is a 32-byte tree hash root. The zero Digest is never a valid
// hash of any input; it is only returned alongside an error.
type Digest [HASH_SIZE]byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

// String renders the digest as an "alg:hex" string, the same shape as
// github.com/opencontainers/go-digest's Digest.String.
func (d Digest) String() string {
	return fmt.Sprintf("%s:%s", treehashAlgorithm, d.Hex())
}

// Equal reports whether two digests are byte-equal.
func (d Digest) Equal(other Digest) bool {
	return d == other
}

// OCIDigest renders the digest as an opencontainers/go-digest Digest, for
// callers that thread content addresses through go-digest elsewhere in
// their pipeline (e.g. a registry's blob store). The returned value uses
// the same "alg:hex" encoding as String and is not a registered go-digest
// algorithm, so it is only meaningful to code that also understands
// treehash digests.
func (d Digest) OCIDigest() godigest.Digest {
	return godigest.Digest(d.String())
}

func digestFromCore(d blake2core.Digest) Digest {
	return Digest(d)
}

// Hash computes the tree hash root of p in one shot. It is pure,
// deterministic, and length-agnostic: Hash(nil) and Hash([]byte{}) both
// return the root of the empty string.
//
// Above MAX_SINGLE_THREADED, Hash parallelizes the recursive hash using
// goroutines; below it, hashing runs on the calling goroutine. Both paths
// produce bit-identical digests.
func Hash(p []byte) Digest {
	root := Root(uint64(len(p)))
	if len(p) <= MAX_SINGLE_THREADED {
		return hashRecurse(p, root)
	}
	return hashRecurseParallel(p, root)
}
