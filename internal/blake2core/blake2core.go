// Package blake2core adapts github.com/minio/blake2b-simd to the three
// node-hashing primitives the tree hash needs: hashing a chunk, hashing a
// parent, and applying the root finalization rule (length suffix plus the
// Blake2 last-node flag). Everything above this package works in terms of
// Digest and Finalization; nothing above it touches the underlying hasher.
package blake2core

import (
	"encoding/binary"
	"hash"

	"github.com/minio/blake2b-simd"
)

// Size is the digest length produced by every operation in this package.
const Size = 32

// Digest is a fixed-size Blake2b-256 output.
type Digest [Size]byte

// Finalization selects which of the two domain-separated finalization rules
// applies to a node-hashing call. The zero value is Interior.
type Finalization struct {
	root    bool
	rootLen uint64
}

// Interior is the finalization used for every node that is not the overall
// root of the tree.
var Interior = Finalization{}

// Root returns the finalization used for the single node that is the overall
// root, where totalLen is the byte length of the entire hashed input.
func Root(totalLen uint64) Finalization {
	return Finalization{root: true, rootLen: totalLen}
}

func newState(last bool) hash.Hash {
	h, err := blake2b.New(&blake2b.Config{
		Size: Size,
		Tree: &blake2b.Tree{IsLastNode: last},
	})
	if err != nil {
		// Size is a compile-time constant in [1,64]; Config here can never
		// be rejected. A failure means the vendored blake2b-simd build is
		// broken, which is not a condition this package can recover from.
		panic("blake2core: blake2b.New rejected a constant config: " + err.Error())
	}
	return h
}

func finalize(h hash.Hash, f Finalization) Digest {
	if f.root {
		var suffix [8]byte
		binary.LittleEndian.PutUint64(suffix[:], f.rootLen)
		h.Write(suffix[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// HashChunk hashes a leaf-level chunk of at most CHUNK_SIZE bytes (the
// caller enforces that bound; this package has no opinion on chunk size).
func HashChunk(chunk []byte, f Finalization) Digest {
	h := newState(f.root)
	h.Write(chunk)
	return finalize(h, f)
}

// HashParent hashes the 64-byte concatenation of two child digests.
func HashParent(left, right Digest, f Finalization) Digest {
	h := newState(f.root)
	h.Write(left[:])
	h.Write(right[:])
	return finalize(h, f)
}
