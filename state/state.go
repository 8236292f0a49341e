// Package state implements the incremental subtree-merging accumulator at
// the heart of the tree hash: it consumes precomputed subtree digests in
// left-to-right order, along with the byte length each covers, and folds
// them into parent nodes as soon as the binary shape of the tree allows,
// eventually producing the root digest.
//
// Most callers should use treehash.Hash or treehash.Writer instead. This
// package is for callers assembling an encoded tree (who need the
// 64-byte parent-node bytes as they're produced) or driving their own
// parallel subtree hashing and only need somewhere to hand finished
// subtree hashes in order.
package state

import (
	"github.com/distribution/treehash/internal/blake2core"
	"github.com/distribution/treehash/internal/contracterr"
)

// configPanic raises contracterr's typed panic for a programmer-contract
// violation in this package, the same mechanism the root package's
// configPanic uses - kept as a local helper, rather than calling
// contracterr.Panic directly at each call site, to match the root
// package's naming and because this package cannot import the root
// package's configPanic without an import cycle.
func configPanic(format string, args ...any) {
	contracterr.Panic(format, args...)
}

// Digest is a 32-byte subtree or root digest.
type Digest = blake2core.Digest

// chunkSize is CHUNK_SIZE from the root package, duplicated here so this
// package has no dependency on it; the two must never diverge.
const chunkSize = 4096

// maxDepth bounds the number of simultaneously pending subtrees; it
// supports inputs up to 2^64-1 bytes, mirroring MAX_DEPTH.
const maxDepth = 64

// ParentBytes is the 64-byte concatenation of two child digests, in the
// order an encoder would write them: left then right.
type ParentBytes [2 * blake2core.Size]byte

// FinishResult is the outcome of MergeFinish: either one more parent
// node was folded (Parent), or the stack was already down to a single
// digest that is the root (Root).
type FinishResult struct {
	// Parent holds the just-folded parent node bytes when a merge
	// happened. Zero when Done is true with only a Root.
	Parent ParentBytes
	// HasParent reports whether Parent is meaningful.
	HasParent bool
	// Root holds the final root digest once no further merge is
	// possible. Zero when HasParent is true and more pushes/merges are
	// still needed upstream.
	Root Digest
	// Done reports whether Root is meaningful.
	Done bool
}

// State is an incremental subtree-merging accumulator. The zero value is
// not usable; construct one with New. A State is created empty, receives
// one or more pushes in left-to-right input order, then is finalized
// exactly once via Finish or a MergeFinish loop; after finalization it
// must be discarded.
//
// For inputs of one chunk or less, including the empty input, callers
// must finalize that single chunk's hash with Root(length) themselves
// and never push it here — State has no way to tell "the only push so
// far" apart from "the first of several pushes still to come", so it
// always finalizes merges as Interior except for the very last one. A
// lone Interior push still produces a correct-looking root via Finish's
// one-remaining-digest case, but that is incidental, not a recommended
// pattern: it only happens to work because Finish can't distinguish a
// single already-final digest from a single unfinalized one.
type State struct {
	subtrees []Digest
	totalLen uint64
}

// New returns an empty State.
func New() *State {
	return &State{subtrees: make([]Digest, 0, maxDepth)}
}

// Clone returns an independent copy of s, letting a caller snapshot
// in-progress merge state (for example to drive several candidate
// continuations from the same point without re-deriving it).
func (s *State) Clone() *State {
	c := &State{
		subtrees: make([]Digest, len(s.subtrees), maxDepth),
		totalLen: s.totalLen,
	}
	copy(c.subtrees, s.subtrees)
	return c
}

// needsMerge reports whether the top two stack entries must be folded
// before any further push. While pushing fixed chunk-sized subtrees, the
// count of completed subtrees of each power-of-two size mirrors the
// binary representation of the chunk count: a push is the binary
// increment, and each 1->0 carry is one merge.
func (s *State) needsMerge() bool {
	chunks := s.totalLen / chunkSize
	return len(s.subtrees) > popcount(chunks)
}

func popcount(n uint64) int {
	count := 0
	for n != 0 {
		count++
		n &= n - 1
	}
	return count
}

func (s *State) mergeInner(f blake2core.Finalization) ParentBytes {
	n := len(s.subtrees)
	if n < 2 {
		configPanic("treehash/state: mergeInner called with fewer than two subtrees")
	}
	left, right := s.subtrees[n-2], s.subtrees[n-1]
	s.subtrees = s.subtrees[:n-2]

	var pb ParentBytes
	copy(pb[:blake2core.Size], left[:])
	copy(pb[blake2core.Size:], right[:])

	parent := blake2core.HashParent(left, right, f)
	s.subtrees = append(s.subtrees, parent)
	return pb
}

// PushSubtree adds a completed subtree's digest and covered byte length
// to the accumulator, first folding any pending merges that are due.
// Every push except the very last made before finalization must cover a
// power-of-two multiple of CHUNK_SIZE (a single chunk, or a whole
// pipeline job); the last push may cover any positive length. length
// must be positive, and a first push longer than CHUNK_SIZE must be a
// power-of-two multiple of it; later pushes are not checked against the
// power-of-two rule.
func (s *State) PushSubtree(d Digest, length int) {
	if length <= 0 {
		configPanic("treehash/state: PushSubtree length %d must be positive", length)
	}
	if len(s.subtrees) == 0 && length > chunkSize &&
		(length%chunkSize != 0 || popcount(uint64(length/chunkSize)) != 1) {
		configPanic("treehash/state: first PushSubtree length %d must be at most %d or a power-of-two multiple of it", length, chunkSize)
	}
	if len(s.subtrees) >= maxDepth {
		configPanic("treehash/state: subtree stack exceeded MAX_DEPTH")
	}
	for s.needsMerge() {
		s.mergeInner(blake2core.Interior)
	}
	s.subtrees = append(s.subtrees, d)
	s.totalLen += uint64(length)
}

// MergeParent performs one Interior merge if the stack currently holds a
// completed subtree pair, and returns its parent-node bytes. It returns
// ok=false if no merge is currently due; callers building an encoded
// tree should call MergeParent in a loop between pushes until it returns
// ok=false.
func (s *State) MergeParent() (pb ParentBytes, ok bool) {
	if !s.needsMerge() {
		return ParentBytes{}, false
	}
	return s.mergeInner(blake2core.Interior), true
}

// MergeFinish drives one finalizing merge step. It must only be called
// after the final PushSubtree. If more than two digests remain, it folds
// the top two as Interior and returns their parent bytes. If exactly two
// remain, it folds them as Root(total length covered so far), which
// leaves the root digest as the sole remaining entry, and still returns
// the parent bytes (callers building an encoded tree need them). If
// exactly one remains, that is the root.
//
// Callers who need parent-node bytes must call MergeFinish in a loop
// until the result reports Done. Callers who only want the root should
// use Finish instead.
func (s *State) MergeFinish() FinishResult {
	switch len(s.subtrees) {
	case 0:
		configPanic("treehash/state: MergeFinish called before any PushSubtree")
		return FinishResult{}
	case 1:
		return FinishResult{Root: s.subtrees[0], Done: true}
	case 2:
		pb := s.mergeInner(blake2core.Root(s.totalLen))
		return FinishResult{Parent: pb, HasParent: true}
	default:
		pb := s.mergeInner(blake2core.Interior)
		return FinishResult{Parent: pb, HasParent: true}
	}
}

// Finish drives MergeFinish to completion, discarding parent-node bytes
// along the way, and returns the root digest. After Finish returns, s
// must not be used again.
func (s *State) Finish() Digest {
	for {
		res := s.MergeFinish()
		if res.Done {
			return res.Root
		}
	}
}

// Len reports the current number of pending subtree digests on the
// stack. It is exposed for tests asserting the stack-depth invariant;
// ordinary callers have no use for it.
func (s *State) Len() int {
	return len(s.subtrees)
}
