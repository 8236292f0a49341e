package treehash

import (
	"fmt"

	"github.com/distribution/treehash/internal/contracterr"
)

// ErrWriterClosed is returned when Write or Finish is called on a Writer
// that has already transitioned to Finishing or Done.
var ErrWriterClosed = fmt.Errorf("treehash: writer closed")

// FatalWriteError reports that a worker task in the Parallel Pipeline
// failed to produce a result (it panicked, or the pipeline's goroutine
// group returned an error). The Writer that produced it is left in the
// Done state and is unusable; no partial digest is ever returned
// alongside this error.
type FatalWriteError struct {
	// Reason is the underlying failure: a recovered panic value wrapped
	// as an error, or an error returned by a worker.
	Reason error
}

func (e *FatalWriteError) Error() string {
	return fmt.Sprintf("treehash: fatal error in parallel pipeline worker: %v", e.Reason)
}

func (e *FatalWriteError) Unwrap() error {
	return e.Reason
}

// ConfigError is the typed panic value configPanic raises for a
// programmer-contract violation (an invalid Config, an out-of-range
// PushSubtree length, an over-deep merge stack): conditions spec.md §7
// treats as bugs in the calling code, not input-dependent failures, and
// so signals by panicking rather than by returning an error. Wrapping
// the message in a typed value lets a caller that wraps treehash in its
// own deferred recover() distinguish a configuration panic from any
// other panic via a type assertion. It is a type alias for
// internal/contracterr.Error so the state subpackage - which cannot
// import this package without an import cycle - can raise the same
// typed panic for its own contract violations.
type ConfigError = contracterr.Error

// configPanic panics with a *ConfigError built from format and args, the
// typed-panic counterpart to FatalWriteError's error-return path.
func configPanic(format string, args ...any) {
	contracterr.Panic(format, args...)
}
