// Package linearize implements the fixed linearization drivers for the two
// queue operations (spec.md section 4.5): the deterministic sequence of
// wire messages an enqueue or dequeue invocation must generate, in a fixed
// order, to produce a well-defined point in the happens-before order across
// every process's replica.
//
// Both drivers run synchronously in the invoking goroutine, one phase at a
// time, carrying the timestamp and value fixed at invocation across phases
// exactly as spec.md's per-process message buffer does, but routing every
// hop through a transport.Network rather than calling process state
// directly, so the transport abstraction is genuinely exercised rather than
// bypassed.
package linearize

import (
	"context"
	"fmt"

	"github.com/dsys/vecqueue/queueproc"
	"github.com/dsys/vecqueue/trace"
	"github.com/dsys/vecqueue/transport"
	"github.com/dsys/vecqueue/vqerr"
	"github.com/dsys/vecqueue/wire"
)

// recordTransition appends a trace line for the message handled at rank, if
// recorders is non-nil. Every phase of every linearization passes through
// here, so a trace dump captures all six transition kinds on every
// participating process, not just the top-level invoke at the invoker.
func recordTransition(recorders []*trace.Recorder, procs []*queueproc.Process, rank int, msg wire.Message, action *queueproc.OpNextAction) {
	if recorders == nil || recorders[rank] == nil {
		return
	}
	detail := ""
	if action != nil && action.Committed {
		if action.Empty {
			detail = "commit:empty"
		} else {
			detail = fmt.Sprintf("commit:value=%d", action.Dequeued)
		}
	}
	recorders[rank].Record(msg.Kind.String(), procs[rank].VectorClock(), msg.Value, detail)
}

// deliver sends msg to rank's mailbox over net, immediately receives it
// back (the driver and every process share one goroutine, so there is no
// concurrent reader to race with), hands it to rank's process state
// machine, and records the resulting transition.
func deliver(ctx context.Context, net *transport.Network, procs []*queueproc.Process, recorders []*trace.Recorder, rank int, msg wire.Message) (*queueproc.OpNextAction, error) {
	peer, err := net.Peer(rank)
	if err != nil {
		return nil, err
	}
	if err := peer.Send(ctx, msg); err != nil {
		return nil, err
	}
	box, err := net.Mailbox(rank)
	if err != nil {
		return nil, err
	}
	received, err := box.Recv(ctx)
	if err != nil {
		return nil, err
	}
	action, err := procs[rank].HandleMessage(received)
	if err != nil {
		return nil, err
	}
	recordTransition(recorders, procs, rank, received, action)
	return action, nil
}

// Enqueue drives one enqueue to completion: INVOKE at invoker, ENQ_REQ
// fanned out to every other process, and ENQ_ACK fanned back to invoker as
// each peer responds. Invoker's own replica entry is inserted by its
// ENQ_ACK count reaching N (queueproc.Process.handleEnqAck), so invoker is
// deliberately excluded from the ENQ_REQ fan-out. recorders may be nil; when
// non-nil it must have one entry per process and every transition this
// process emits or receives is recorded into it, not just the invoke.
func Enqueue(ctx context.Context, net *transport.Network, procs []*queueproc.Process, recorders []*trace.Recorder, invoker int, value uint16) error {
	invokeMsg := wire.Message{Kind: wire.EnqInvoke, Value: value}
	invokeAction, err := procs[invoker].HandleMessage(invokeMsg)
	if err != nil {
		return err
	}
	if invokeAction == nil || invokeAction.Kind != wire.EnqReq {
		return vqerr.NewInvariant("linearize: enqueue invoke at process %d produced %v, want ENQ_REQ", invoker, invokeAction)
	}
	recordTransition(recorders, procs, invoker, invokeMsg, invokeAction)
	ts := invokeAction.Timestamp

	n := net.N()
	for r := 0; r < n; r++ {
		if r == invoker {
			continue
		}
		ackAction, err := deliver(ctx, net, procs, recorders, r, wire.Message{Kind: wire.EnqReq, Value: value, Sender: invoker, Timestamp: ts})
		if err != nil {
			return err
		}
		if ackAction == nil || ackAction.Kind != wire.EnqAck {
			return vqerr.NewInvariant("linearize: ENQ_REQ at process %d produced %v, want ENQ_ACK", r, ackAction)
		}
		if _, err := deliver(ctx, net, procs, recorders, invoker, wire.Message{Kind: wire.EnqAck, Value: ackAction.Value, Sender: r, Timestamp: ts}); err != nil {
			return err
		}
	}
	return nil
}

// Result is the outcome of a completed Dequeue.
type Result struct {
	Value uint16
	OK    bool // false is the bottom / empty-dequeue result
}

// Dequeue drives one dequeue to completion: INVOKE at invoker, DEQ_REQ
// fanned out to every process including invoker itself (each replica's own
// vote matters equally, so there is no special self path the way there is
// for enqueue), and each resulting SAFE/UNSAFE verdict broadcast from its
// producer to every process. Every process's state machine converges on the
// same commit independently; Dequeue reports the outcome it observes at
// invoker specifically, since that is the caller the embedder is driving.
// recorders may be nil; when non-nil every transition on every process is
// recorded, not just the invoke.
func Dequeue(ctx context.Context, net *transport.Network, procs []*queueproc.Process, recorders []*trace.Recorder, invoker int) (Result, error) {
	invokeMsg := wire.Message{Kind: wire.DeqInvoke}
	invokeAction, err := procs[invoker].HandleMessage(invokeMsg)
	if err != nil {
		return Result{}, err
	}
	if invokeAction == nil || invokeAction.Kind != wire.DeqReq {
		return Result{}, vqerr.NewInvariant("linearize: dequeue invoke at process %d produced %v, want DEQ_REQ", invoker, invokeAction)
	}
	recordTransition(recorders, procs, invoker, invokeMsg, invokeAction)
	ts := invokeAction.Timestamp

	n := net.N()
	type verdict struct {
		rank   int
		action *queueproc.OpNextAction
	}
	verdicts := make([]verdict, 0, n)
	for r := 0; r < n; r++ {
		verdictAction, err := deliver(ctx, net, procs, recorders, r, wire.Message{Kind: wire.DeqReq, Sender: invoker, Timestamp: ts})
		if err != nil {
			return Result{}, err
		}
		if verdictAction == nil || (verdictAction.Kind != wire.Safe && verdictAction.Kind != wire.Unsafe) {
			return Result{}, vqerr.NewInvariant("linearize: DEQ_REQ at process %d produced %v, want SAFE/UNSAFE", r, verdictAction)
		}
		verdicts = append(verdicts, verdict{rank: r, action: verdictAction})
	}

	var result Result
	var committed bool
	for _, v := range verdicts {
		for s := 0; s < n; s++ {
			votedAction, err := deliver(ctx, net, procs, recorders, s, wire.Message{Kind: v.action.Kind, Sender: v.rank, Timestamp: ts})
			if err != nil {
				return Result{}, err
			}
			if votedAction != nil && votedAction.Committed && s == invoker {
				result = Result{Value: votedAction.Dequeued, OK: !votedAction.Empty}
				committed = true
			}
		}
	}
	if !committed {
		return Result{}, vqerr.NewInvariant("linearize: dequeue at process %d never committed after all votes were cast (ts=%v)", invoker, ts)
	}
	return result, nil
}
