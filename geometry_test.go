package treehash

import "testing"

func TestLargestPowerOfTwo(t *testing.T) {
	cases := []struct {
		n, want uint64
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 4},
		{5, 4},
		{6, 4},
		{7, 4},
		{8, 8},
		{0xffffffffffffffff, 0x8000000000000000},
	}
	for _, c := range cases {
		if got := largestPowerOfTwo(c.n); got != c.want {
			t.Errorf("largestPowerOfTwo(%#x) = %#x, want %#x", c.n, got, c.want)
		}
	}
}

func TestLargestPowerOfTwoPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for n=0")
		}
	}()
	largestPowerOfTwo(0)
}

func TestLeftLen(t *testing.T) {
	s := uint64(CHUNK_SIZE)
	cases := []struct {
		n, want uint64
	}{
		{s + 1, s},
		{2*s - 1, s},
		{2 * s, s},
		{2*s + 1, 2 * s},
	}
	for _, c := range cases {
		if got := leftLen(c.n); got != c.want {
			t.Errorf("leftLen(%d) = %d, want %d", c.n, got, c.want)
		}
	}
}

func TestLeftLenInvariants(t *testing.T) {
	for n := uint64(CHUNK_SIZE + 1); n < uint64(20*CHUNK_SIZE); n++ {
		got := leftLen(n)
		if got >= n {
			t.Fatalf("leftLen(%d) = %d, not < n", n, got)
		}
		if n-got < 1 {
			t.Fatalf("leftLen(%d) = %d leaves no bytes for the right side", n, got)
		}
		if got%CHUNK_SIZE != 0 {
			t.Fatalf("leftLen(%d) = %d is not a multiple of CHUNK_SIZE", n, got)
		}
		chunks := got / CHUNK_SIZE
		if chunks&(chunks-1) != 0 {
			t.Fatalf("leftLen(%d) / CHUNK_SIZE = %d is not a power of two", n, chunks)
		}
	}
}
