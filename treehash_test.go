package treehash

import (
	"testing"

	"github.com/distribution/treehash/internal/testscenarios"
	"github.com/distribution/treehash/state"
)

// driveState reproduces the reference drive_state pattern: chunk-sized
// Interior pushes, with the final (possibly short) chunk finalized as
// Root only when the whole input is a single chunk or less.
func driveState(t *testing.T, input []byte) Digest {
	t.Helper()
	if len(input) <= CHUNK_SIZE {
		return hashChunk(input, Root(uint64(len(input))))
	}

	s := state.New()
	for len(input) > CHUNK_SIZE {
		d := hashChunk(input[:CHUNK_SIZE], Interior)
		s.PushSubtree(state.Digest(d), CHUNK_SIZE)
		input = input[CHUNK_SIZE:]
	}
	d := hashChunk(input, Interior)
	s.PushSubtree(state.Digest(d), len(input))
	return Digest(s.Finish())
}

func TestHashAgreesWithRecursiveOracle(t *testing.T) {
	for _, n := range testscenarios.Lengths() {
		input := testscenarios.FillPattern(n)
		want := hashRecurse(input, Root(uint64(n)))
		got := Hash(input)
		if got != want {
			t.Errorf("len=%d: Hash = %x, want %x", n, got, want)
		}
	}
}

func TestHashAgreesWithState(t *testing.T) {
	for _, n := range testscenarios.Lengths() {
		input := testscenarios.FillPattern(n)
		want := Hash(input)
		got := driveState(t, input)
		if got != want {
			t.Errorf("len=%d: state-driven hash = %x, want %x", n, got, want)
		}
	}
}

func TestHashSerialVsParallel(t *testing.T) {
	lengths := append(testscenarios.Lengths(), MAX_SINGLE_THREADED-1, MAX_SINGLE_THREADED, MAX_SINGLE_THREADED+1)
	for _, n := range lengths {
		input := testscenarios.FillPattern(n)
		serial := hashRecurse(input, Root(uint64(n)))
		parallel := hashRecurseParallel(input, Root(uint64(n)))
		if serial != parallel {
			t.Errorf("len=%d: serial %x != parallel %x", n, serial, parallel)
		}
		if got := Hash(input); got != serial {
			t.Errorf("len=%d: Hash %x != serial %x", n, got, serial)
		}
	}
}

// TestCanonicalVectors pins the exact structural construction spec.md
// §8 specifies for a handful of lengths, rather than just cross-path
// agreement.
func TestCanonicalVectors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		got := Hash(nil)
		want := hashChunk(nil, Root(0))
		if got != want {
			t.Errorf("Hash(nil) = %x, want %x", got, want)
		}
	})

	t.Run("one byte", func(t *testing.T) {
		input := []byte{0x42}
		got := Hash(input)
		want := hashChunk(input, Root(1))
		if got != want {
			t.Errorf("got %x, want %x", got, want)
		}
	})

	t.Run("exactly one chunk", func(t *testing.T) {
		input := testscenarios.FillPattern(CHUNK_SIZE)
		got := Hash(input)
		want := hashChunk(input, Root(CHUNK_SIZE))
		if got != want {
			t.Errorf("got %x, want %x", got, want)
		}
	})

	t.Run("one chunk plus one byte", func(t *testing.T) {
		input := testscenarios.FillPattern(CHUNK_SIZE + 1)
		c := hashChunk(input[:CHUNK_SIZE], Interior)
		last := hashChunk(input[CHUNK_SIZE:], Interior)
		want := hashParent(c, last, Root(CHUNK_SIZE+1))
		got := Hash(input)
		if got != want {
			t.Errorf("got %x, want %x", got, want)
		}
	})

	t.Run("four chunks exactly", func(t *testing.T) {
		input := testscenarios.FillPattern(4 * CHUNK_SIZE)
		c := hashChunk(testscenarios.FillPattern(CHUNK_SIZE), Interior)
		left := hashParent(c, c, Interior)
		right := hashParent(c, c, Interior)
		want := hashParent(left, right, Root(4*CHUNK_SIZE))
		got := Hash(input)
		if got != want {
			t.Errorf("got %x, want %x", got, want)
		}
	})

	t.Run("four chunks plus one byte", func(t *testing.T) {
		input := testscenarios.FillPattern(4*CHUNK_SIZE + 1)
		c := hashChunk(testscenarios.FillPattern(CHUNK_SIZE), Interior)
		leftLeft := hashParent(c, c, Interior)
		leftRight := hashParent(c, c, Interior)
		left := hashParent(leftLeft, leftRight, Interior)
		right := hashChunk(input[4*CHUNK_SIZE:], Interior)
		want := hashParent(left, right, Root(4*CHUNK_SIZE+1))
		got := Hash(input)
		if got != want {
			t.Errorf("got %x, want %x", got, want)
		}
	})
}

func TestDigestStringAndHex(t *testing.T) {
	d := Hash([]byte("hello"))
	if len(d.Hex()) != 2*HASH_SIZE {
		t.Fatalf("Hex() length = %d, want %d", len(d.Hex()), 2*HASH_SIZE)
	}
	if got, want := d.String(), treehashAlgorithm+":"+d.Hex(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	if d.OCIDigest().String() != d.String() {
		t.Fatalf("OCIDigest() = %q, want %q", d.OCIDigest().String(), d.String())
	}
	if !d.Equal(d) {
		t.Fatal("digest not equal to itself")
	}
}
