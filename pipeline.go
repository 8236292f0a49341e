package treehash

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// jobResult is what a worker hands back through its receiver channel:
// the subtree digest it computed, and the buffer it borrowed (so the
// producer can reclaim and reuse it), mirroring spec.md's "(hash,
// buffer) from exactly one worker".
type jobResult struct {
	digest Digest
	buf    []byte
}

// pipeline partitions streamed input into JOB_SIZE buffers and farms
// each buffer's subtree hash out to a worker goroutine, draining
// completed (digest, length) pairs to the caller in input order. It
// mirrors the teacher's errgroup-based bounded worker pool
// (registry/storage/garbagecollect.go's g.SetLimit(opts.MaxConcurrency))
// but, unlike a garbage-collection sweep, must preserve the order jobs
// were submitted in - so completion is observed through a FIFO queue of
// per-job channels rather than errgroup.Wait's unordered join.
type pipeline struct {
	ctx context.Context
	cfg Config

	g *errgroup.Group

	buf       []byte
	receivers []chan jobResult

	firstJobNotYetSent bool
	finalJobSent       bool

	dispatched int64
	drained    int64
}

func newPipeline(ctx context.Context, cfg Config) *pipeline {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxJobs)
	return &pipeline{
		ctx:                gctx,
		cfg:                cfg,
		g:                  g,
		buf:                make([]byte, 0, cfg.JobSize),
		firstJobNotYetSent: true,
	}
}

// computeSubtreeHash is the function each worker goroutine calls to hash
// its job buffer. It is a package-level variable, rather than a direct
// call to hashRecurseParallel, purely so tests can substitute a failing
// stand-in to exercise the worker-failure path (spec.md §7) without a
// real panic racing real concurrent hashing.
var computeSubtreeHash = hashRecurseParallel

// sendOne submits buf to a worker goroutine under finalization f and
// enqueues a receiver for its result at the tail of the FIFO queue.
func (p *pipeline) sendOne(buf []byte, f Finalization) {
	recv := make(chan jobResult, 1)
	p.receivers = append(p.receivers, recv)

	p.g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("treehash: pipeline worker panicked: %v", r)
			}
		}()
		digest := computeSubtreeHash(buf, f)
		recv <- jobResult{digest: digest, buf: buf}
		return nil
	})

	p.firstJobNotYetSent = false
	p.dispatched++
}

// drainOldest blocks for the oldest outstanding worker's result,
// reclaiming its buffer, and returns the (digest, length) pair it
// produced. It is the only blocking point in the write path, and only
// triggers once MAX_JOBS are already in flight.
func (p *pipeline) drainOldest() (Digest, int, []byte, error) {
	recv := p.receivers[0]
	p.receivers = p.receivers[1:]

	select {
	case res, ok := <-recv:
		if !ok {
			return Digest{}, 0, nil, fmt.Errorf("treehash: pipeline worker channel closed without a result")
		}
		length := len(res.buf)
		p.drained++
		return res.digest, length, res.buf[:0], nil
	case <-p.ctx.Done():
		return Digest{}, 0, nil, p.ctx.Err()
	}
}

// write implements spec.md's write() streaming contract: it consumes a
// prefix of input (returning how much), and if a worker's result was
// drained to make room for dispatch, returns it as (digest, length, ok).
func (p *pipeline) write(input []byte) (consumed int, digest Digest, length int, ok bool, err error) {
	if len(input) == 0 {
		return 0, Digest{}, 0, false, nil
	}

	if len(p.buf) == p.cfg.JobSize {
		var newBuf []byte
		if len(p.receivers) < p.cfg.MaxJobs {
			newBuf = make([]byte, 0, p.cfg.JobSize)
		} else {
			var reclaimed []byte
			digest, length, reclaimed, err = p.drainOldest()
			if err != nil {
				return 0, Digest{}, 0, false, err
			}
			ok = true
			newBuf = reclaimed
		}

		full := p.buf
		p.buf = newBuf
		p.sendOne(full, Interior)
	}

	want := p.cfg.JobSize - len(p.buf)
	take := want
	if take > len(input) {
		take = len(input)
	}
	p.buf = append(p.buf, input[:take]...)

	return take, digest, length, ok, nil
}

// finishLoop implements spec.md's finish() contract: on the first call
// it dispatches whatever remains in the current buffer (finalized as
// Root if no job was ever sent, else Interior), and every call drains
// one outstanding receiver in FIFO order until none remain.
func (p *pipeline) finishLoop() (digest Digest, length int, ok bool, err error) {
	if !p.finalJobSent {
		p.finalJobSent = true
		f := Interior
		if p.firstJobNotYetSent {
			f = Root(uint64(len(p.buf)))
		}
		final := p.buf
		p.buf = nil
		p.sendOne(final, f)
	}

	if len(p.receivers) == 0 {
		return Digest{}, 0, false, nil
	}

	digest, length, _, err = p.drainOldest()
	if err != nil {
		return Digest{}, 0, false, err
	}
	return digest, length, true, nil
}

// wait joins every spawned worker goroutine and returns the first
// error or recovered panic encountered, if any. Callers must have
// already drained all receivers (via finishLoop) before calling wait,
// so this never blocks on a result nobody will read.
func (p *pipeline) wait() error {
	return p.g.Wait()
}
