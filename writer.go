package treehash

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"

	"github.com/distribution/treehash/internal/dcontext"
	"github.com/distribution/treehash/state"
)

// writerState is the Writer lifecycle: Open -> Finishing -> Done.
type writerState int32

const (
	writerOpen writerState = iota
	writerFinishing
	writerDone
)

// WriterStats reports progress of an in-flight or finished Writer, the
// way the teacher's GCStats accompanies a long-running worker-pool
// operation. It has no effect on hashing; it exists purely for a caller
// that wants to log progress on a large write.
type WriterStats struct {
	// BytesWritten is the total number of bytes accepted by Write so far.
	BytesWritten int64
	// JobsDispatched is the number of pipeline jobs submitted to workers.
	JobsDispatched int64
	// JobsDrained is the number of completed jobs folded into the
	// merging state so far.
	JobsDrained int64
}

// String renders stats for a log line, the way the teacher's GC summary
// log renders stats.BytesDeleted with humanizeBytes.
func (s WriterStats) String() string {
	return fmt.Sprintf("bytes=%s jobs_dispatched=%d jobs_drained=%d",
		humanize.Bytes(uint64(s.BytesWritten)), s.JobsDispatched, s.JobsDrained)
}

// Writer is a streaming tree hash accumulator: write arbitrarily sized
// slices of content to it in order, then call Finish to obtain the root
// digest. It consumes the underlying Parallel Pipeline and Merging
// State, and is itself single-owner: do not call its methods
// concurrently from more than one goroutine.
type Writer struct {
	ctx     context.Context
	cancel  context.CancelFunc
	state   writerState
	pipe    *pipeline
	merge   *state.State
	written int64
}

// Option configures a Writer constructed by NewWriter.
type Option func(*Writer, *Config)

// WithConfig overrides the process-wide default pipeline configuration.
// Intended for benchmarking; ordinary callers should not need it.
func WithConfig(cfg Config) Option {
	return func(_ *Writer, c *Config) { *c = cfg }
}

// WithContext attaches ctx to the Writer, so its logging carries
// whatever fields the caller's context carries, and so Cancel's
// detachment has a parent to detach from. Callers that don't provide
// one get context.Background().
func WithContext(ctx context.Context) Option {
	return func(w *Writer, _ *Config) { w.ctx = ctx }
}

// NewWriter constructs an empty, Open Writer using the process-wide
// default configuration unless overridden with WithConfig.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{ctx: context.Background()}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(w, &cfg)
	}
	cfg.validate()

	ctx, cancel := context.WithCancel(w.ctx)
	w.ctx = ctx
	w.cancel = cancel
	w.pipe = newPipeline(ctx, cfg)
	w.merge = state.New()
	return w
}

// Write accepts any number of bytes and returns the full slice length
// unless the Writer has hit a fatal error, in which case it returns a
// *FatalWriteError and the Writer is unusable afterward. Write is only
// legal while the Writer is Open.
func (w *Writer) Write(p []byte) (int, error) {
	if atomic.LoadInt32((*int32)(&w.state)) != int32(writerOpen) {
		return 0, ErrWriterClosed
	}

	total := len(p)
	for len(p) > 0 {
		n, digest, length, ok, err := w.pipe.write(p)
		if err != nil {
			return total - len(p), w.fail(err)
		}
		if ok {
			w.merge.PushSubtree(state.Digest(digest), length)
		}
		p = p[n:]
	}

	w.written += int64(total)
	return total, nil
}

// WriteString is a convenience wrapper equivalent to Write([]byte(s)),
// matching the shape of io.StringWriter.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Finish drains all outstanding pipeline work, folds it into the
// Merging State, and returns the root digest. When the whole input fit
// in a single job, that job is hashed with Root finalization and its
// digest is returned directly, without passing through the Merging
// State. The Writer transitions
// Open -> Finishing -> Done and is unusable afterward, whether Finish
// succeeds or returns a *FatalWriteError.
func (w *Writer) Finish() (Digest, error) {
	if !atomic.CompareAndSwapInt32((*int32)(&w.state), int32(writerOpen), int32(writerFinishing)) {
		return Digest{}, ErrWriterClosed
	}
	defer atomic.StoreInt32((*int32)(&w.state), int32(writerDone))
	defer w.cancel()

	lone := w.pipe.firstJobNotYetSent
	var root Digest
	for {
		digest, length, ok, err := w.pipe.finishLoop()
		if err != nil {
			return Digest{}, w.fail(err)
		}
		if !ok {
			break
		}
		if lone {
			root = digest
			continue
		}
		w.merge.PushSubtree(state.Digest(digest), length)
	}

	if err := w.pipe.wait(); err != nil {
		return Digest{}, w.fail(err)
	}

	if lone {
		return root, nil
	}
	return Digest(w.merge.Finish()), nil
}

// Cancel abandons the Writer: its pipeline context is canceled so
// drainOldest unblocks instead of waiting on results nobody will read,
// and any already-computed subtree digests are discarded without being
// folded into the Merging State. The Writer transitions to Done and
// must not be used again.
//
// The cancellation log line is written against a detached copy of w's
// context (internal/dcontext.DetachedContext) rather than w.ctx itself,
// since w.ctx is canceled in the same breath and a canceled context's
// deadline can race a logging call on some Logger implementations.
func (w *Writer) Cancel() {
	if !atomic.CompareAndSwapInt32((*int32)(&w.state), int32(writerOpen), int32(writerDone)) {
		if !atomic.CompareAndSwapInt32((*int32)(&w.state), int32(writerFinishing), int32(writerDone)) {
			return
		}
	}
	logCtx := dcontext.DetachedContext(w.ctx)
	w.cancel()
	dcontext.GetLogger(logCtx).Debug("treehash: writer canceled, discarding outstanding pipeline work")
}

// Stats reports the Writer's progress so far.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		BytesWritten:   w.written,
		JobsDispatched: w.pipe.dispatched,
		JobsDrained:    w.pipe.drained,
	}
}

func (w *Writer) fail(err error) error {
	logCtx := dcontext.DetachedContext(w.ctx)
	atomic.StoreInt32((*int32)(&w.state), int32(writerDone))
	w.cancel()
	fwe := &FatalWriteError{Reason: err}
	dcontext.GetLogger(logCtx).WithError(fwe).Error("treehash: fatal pipeline error")
	return fwe
}
