// Package system wires the clock, replica, confirmation-list, per-process
// state machine, linearization driver and transport components into one
// embeddable queue instance. It is a library entry point, not a
// command-line harness or process bootstrap mechanism (both are explicit
// non-goals): callers construct a System in-process and drive it directly.
package system

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dsys/vecqueue/config"
	"github.com/dsys/vecqueue/linearize"
	"github.com/dsys/vecqueue/queueproc"
	"github.com/dsys/vecqueue/replica"
	"github.com/dsys/vecqueue/trace"
	"github.com/dsys/vecqueue/transport"
	"github.com/dsys/vecqueue/vqerr"
)

// mailboxBuffer is the per-process channel depth linearize's synchronous
// send-then-immediate-receive pattern needs: at least 1, so Send never
// blocks waiting for a concurrent reader that will never arrive.
const mailboxBuffer = 1

// System is one running instance of the replicated queue across N
// processes, all driven synchronously from whichever goroutine calls
// Enqueue or Dequeue. It is safe for concurrent use: operations are
// serialized internally, matching the fixed-linearization protocol's
// requirement that at most one operation's message sequence is in flight
// at a time from any one driver (spec.md section 4.5's ordering, not a
// true performance concurrency mechanism).
type System struct {
	mu        sync.Mutex
	cfg       config.Config
	net       *transport.Network
	procs     []*queueproc.Process
	recorders []*trace.Recorder
}

// New constructs a System for n processes, using logger for rank's trace
// output (or a discard logger if logger is nil).
func New(n int, logger func(rank int) zerolog.Logger) (*System, error) {
	cfg, err := config.New(n)
	if err != nil {
		return nil, err
	}

	procs := make([]*queueproc.Process, n)
	recorders := make([]*trace.Recorder, n)
	for i := 0; i < n; i++ {
		procs[i] = queueproc.New(i, cfg)
		var l zerolog.Logger
		if logger != nil {
			l = logger(i)
		} else {
			l = trace.NewLogger(io.Discard, i)
		}
		recorders[i] = trace.NewRecorder(i, trace.DefaultCapacity, l)
	}

	return &System{
		cfg:       cfg,
		net:       transport.NewNetwork(n, mailboxBuffer),
		procs:     procs,
		recorders: recorders,
	}, nil
}

// NewDefault constructs a System for n processes logging to stdout.
func NewDefault(n int) (*System, error) {
	return New(n, func(rank int) zerolog.Logger { return trace.DefaultLogger(rank) })
}

// Enqueue invokes an enqueue of value at invoker and blocks until every
// process has acknowledged it.
func (s *System) Enqueue(ctx context.Context, invoker int, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if invoker < 0 || invoker >= s.cfg.N {
		return vqerr.OutOfRange(invoker, s.cfg.N)
	}
	return linearize.Enqueue(ctx, s.net, s.procs, s.recorders, invoker, value)
}

// Dequeue invokes a dequeue at invoker and blocks until the operation
// commits, returning the dequeued value or the bottom result.
func (s *System) Dequeue(ctx context.Context, invoker int) (linearize.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if invoker < 0 || invoker >= s.cfg.N {
		return linearize.Result{}, vqerr.OutOfRange(invoker, s.cfg.N)
	}
	return linearize.Dequeue(ctx, s.net, s.procs, s.recorders, invoker)
}

// N reports the number of participating processes.
func (s *System) N() int {
	return s.cfg.N
}

// Snapshot returns rank's current replica contents, for tests and
// diagnostics that need to inspect convergence directly.
func (s *System) Snapshot(rank int) ([]replica.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rank < 0 || rank >= s.cfg.N {
		return nil, vqerr.OutOfRange(rank, s.cfg.N)
	}
	items := s.procs[rank].Replica().Items()
	out := make([]replica.Item, len(items))
	copy(out, items)
	return out, nil
}

// Trace returns rank's recorded trace dump, followed by a snapshot of its
// confirmation-list store for diagnosing in-flight dequeue votes.
func (s *System) Trace(rank int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rank < 0 || rank >= s.cfg.N {
		return "", vqerr.OutOfRange(rank, s.cfg.N)
	}
	return s.recorders[rank].String() + s.procs[rank].Confirmations().DebugString(rank), nil
}
