// Package treehash implements a verified-streaming tree hash: a content
// hashing scheme that produces a single 32-byte root digest from an
// arbitrarily large byte string by arranging a Blake2b-keyed binary tree
// over fixed-size chunks of that string.
//
// The root digest commits to both the full content length and a
// deterministic tree shape, so a third party holding only the root can
// later verify a slice of the content without holding the whole input —
// that verification protocol and the on-disk encoded-tree format it
// depends on live above this package, not in it. This package is the
// hashing engine: tree geometry, node finalization, the incremental
// subtree-merging state, and the parallel pipeline that drives both from
// streamed input.
//
// For small inputs, use Hash. For streamed input of unknown or large
// size, use NewWriter. For callers assembling an encoded tree, or driving
// parallelism of their own, use the state subpackage directly.
package treehash
