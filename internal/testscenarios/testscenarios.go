// Package testscenarios provides the input-length table and fill
// pattern the root package's tests drive the tree hash with, so the
// required scenarios live in one place instead of being retyped (and
// drifting) per _test.go file.
package testscenarios

const chunkSize = 4096

// Lengths returns the required input-length scenarios: 0, 1, 10, and
// C-1/C/C+1 around each of 1, 2, 3, 4, and 16 chunks, where C is the
// chunk size.
func Lengths() []int {
	lengths := []int{0, 1, 10}
	for _, chunks := range []int{1, 2, 3, 4, 16} {
		base := chunks * chunkSize
		lengths = append(lengths, base-1, base, base+1)
	}
	return lengths
}

// PipelineLengths extends Lengths with scenarios around JOB_SIZE and
// MAX_JOBS*JOB_SIZE boundaries, for tests that exercise the Parallel
// Pipeline rather than just tree geometry.
func PipelineLengths(jobSize, maxJobs int) []int {
	lengths := Lengths()
	bounds := []int{jobSize, maxJobs * jobSize, 2 * maxJobs * jobSize}
	for _, b := range bounds {
		lengths = append(lengths, b-1, b, b+1)
	}
	return lengths
}

// FillPattern returns n bytes of the canonical test fill byte, 0x42.
func FillPattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = 0x42
	}
	return p
}
