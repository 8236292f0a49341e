package treehash

import "github.com/distribution/treehash/internal/blake2core"

// Finalization selects which of the two domain-separated node-hashing
// rules applies: Interior, or Root(total_len) for the single node that is
// the overall root of the tree.
type Finalization = blake2core.Finalization

// Interior is the finalization used for every node that is not the
// overall root.
var Interior = blake2core.Interior

// Root returns the finalization used for the one node that is the
// overall root of a tree covering totalLen bytes.
func Root(totalLen uint64) Finalization {
	return blake2core.Root(totalLen)
}

func hashChunk(chunk []byte, f Finalization) Digest {
	return digestFromCore(blake2core.HashChunk(chunk, f))
}

func hashParent(left, right Digest, f Finalization) Digest {
	return digestFromCore(blake2core.HashParent(
		blake2core.Digest(left), blake2core.Digest(right), f))
}
