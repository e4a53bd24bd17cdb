// Package queueproc implements the per-process state machine (spec.md
// section 4.4): the component that consumes one wire.Message and produces
// the next action the operation driver should take, mutating this
// process's vector clock, local replica, and confirmation-list store along
// the way.
package queueproc

import (
	"github.com/dsys/vecqueue/clock"
	"github.com/dsys/vecqueue/confirm"
	"github.com/dsys/vecqueue/config"
	"github.com/dsys/vecqueue/replica"
	"github.com/dsys/vecqueue/vqerr"
	"github.com/dsys/vecqueue/wire"
)

// OpNextAction describes what the driver should emit next on this
// process's behalf after handling one message. Kind/Value/Invoker/Timestamp
// mirror spec.md's { next_kind, value, invoker, ts } tuple; Committed,
// Dequeued and Empty make the dequeue outcome of a SAFE/UNSAFE transition
// explicit rather than overloading Value with a placeholder (spec.md
// section 9's second Open Question).
type OpNextAction struct {
	Kind      wire.Kind
	Value     uint16
	Invoker   int
	Timestamp clock.Clock

	// Committed is true only when handling this message caused some
	// confirmation list to commit right now.
	Committed bool
	// Dequeued holds the committed value when Committed && !Empty.
	Dequeued uint16
	// Empty is true when the committed dequeue found nothing at its
	// resolved head position (spec.md's bottom / ⊥ result).
	Empty bool
}

// Process holds one replica's full state: rank, vector clock, local
// replica, confirmation-list store, the enqueue-ack counter, and the
// per-invoker message buffer the operation driver uses to carry a value
// and timestamp across the phases of one linearization (spec.md section 3
// and section 9's "buffer of last action per peer" design note).
//
// MsgBuffer is indexed by invoker rank rather than by peer rank: at most
// one linearization is ever in flight per invoker at a time, so the
// invoker's rank is sufficient to disambiguate concurrently in-flight
// operations from different invokers (scenario 3 of spec.md section 8).
type Process struct {
	Rank int

	vc            clock.Clock
	rep           *replica.Replica
	confirmations *confirm.Store

	pendingEnqAcks int

	MsgBuffer []OpNextAction
}

// New returns a freshly-initialized Process for the given rank under cfg.
func New(rank int, cfg config.Config) *Process {
	return &Process{
		Rank:          rank,
		vc:            clock.New(cfg.N),
		rep:           replica.New(),
		confirmations: confirm.NewStore(cfg.N),
		MsgBuffer:     make([]OpNextAction, cfg.N),
	}
}

// VectorClock returns the process's current vector clock. The returned
// value aliases internal state and must not be mutated by the caller.
func (p *Process) VectorClock() clock.Clock {
	return p.vc
}

// Replica returns the process's local replica, for introspection (e.g.
// convergence tests) and not for direct mutation by callers.
func (p *Process) Replica() *replica.Replica {
	return p.rep
}

// Confirmations returns the process's confirmation-list store.
func (p *Process) Confirmations() *confirm.Store {
	return p.confirmations
}

// HandleMessage consumes one message and returns the next action the
// driver should emit, mutating this process's state per spec.md section
// 4.4. A non-nil error is always a fatal protocol-invariant violation
// (vqerr.Invariant); the core does not return recoverable errors from this
// path since malformed wire input is out of scope (spec.md section 1 treats
// the transport as a trusted, reliable collaborator).
func (p *Process) HandleMessage(msg wire.Message) (*OpNextAction, error) {
	switch msg.Kind {
	case wire.EnqInvoke:
		return p.handleEnqInvoke(msg)
	case wire.EnqReq:
		return p.handleEnqReq(msg)
	case wire.EnqAck:
		return p.handleEnqAck(msg)
	case wire.DeqInvoke:
		return p.handleDeqInvoke(msg)
	case wire.DeqReq:
		return p.handleDeqReq(msg)
	case wire.Safe, wire.Unsafe:
		return p.handleSafeUnsafe(msg)
	default:
		return nil, vqerr.NewInvariant("queueproc: process %d received message of unknown kind %v", p.Rank, msg.Kind)
	}
}

func (p *Process) handleEnqInvoke(msg wire.Message) (*OpNextAction, error) {
	p.vc.Increment(p.Rank)
	p.pendingEnqAcks = 1 // self counts
	ts := p.vc.Copy()
	action := OpNextAction{Kind: wire.EnqReq, Value: msg.Value, Invoker: p.Rank, Timestamp: ts}
	p.MsgBuffer[p.Rank] = action
	return &action, nil
}

func (p *Process) handleEnqReq(msg wire.Message) (*OpNextAction, error) {
	p.vc.Update(msg.Timestamp)
	if err := p.rep.InsertSorted(msg.Sender, msg.Value, msg.Timestamp); err != nil {
		return nil, err
	}

	// The new enqueue may resolve the race for any dequeue whose
	// timestamp this process's updated clock now dominates: from this
	// replica's perspective such a dequeue can no longer be missing an
	// earlier enqueue, so record this process's vote as SAFE for it.
	for _, l := range p.confirmations.Lists() {
		switch clock.Compare(l.DeqTS, p.vc) {
		case clock.StrictlyLess, clock.Less:
			p.confirmations.RecordVote(l.DeqTS, p.Rank, confirm.SafeVote)
		}
	}

	action := OpNextAction{Kind: wire.EnqAck, Value: msg.Value, Invoker: msg.Sender, Timestamp: msg.Timestamp}
	p.MsgBuffer[msg.Sender] = action
	return &action, nil
}

func (p *Process) handleEnqAck(msg wire.Message) (*OpNextAction, error) {
	p.pendingEnqAcks++
	if p.pendingEnqAcks == len(p.vc) {
		if err := p.rep.InsertSorted(p.Rank, msg.Value, msg.Timestamp); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (p *Process) handleDeqInvoke(msg wire.Message) (*OpNextAction, error) {
	p.vc.Increment(p.Rank)
	ts := p.vc.Copy()
	p.confirmations.FindOrInsert(ts)
	action := OpNextAction{Kind: wire.DeqReq, Invoker: p.Rank, Timestamp: ts}
	p.MsgBuffer[p.Rank] = action
	return &action, nil
}

func (p *Process) handleDeqReq(msg wire.Message) (*OpNextAction, error) {
	incoming := msg.Timestamp
	p.vc.Update(incoming)

	verdict := wire.Safe
	// Merging incoming into p.vc forces equality at incoming[sender] (the
	// dequeuer's own just-incremented slot: no peer can have observed a
	// larger value for it), so StrictlyLess can never hold here — it would
	// require every slot strictly less. Less still can: it only requires
	// incoming <= p.vc elementwise with at least one strict slot, which
	// fires exactly when this replica holds an event (e.g. an enqueue) the
	// dequeuer's clock does not reflect. Both orders mean the dequeuer did
	// not dominate at least one event this replica has witnessed, so the
	// head is not yet stable (see handleEnqReq's matching SAFE-marking
	// rule above, which accepts both for the symmetric reason). The
	// all-zeros guard keeps the genesis timestamp (no prior events
	// anywhere) from being flagged as racy.
	cmp := clock.Compare(incoming, p.vc)
	if (cmp == clock.StrictlyLess || cmp == clock.Less) && !incoming.IsZero() {
		verdict = wire.Unsafe
	}
	action := OpNextAction{Kind: verdict, Invoker: msg.Sender, Timestamp: incoming}
	p.MsgBuffer[msg.Sender] = action
	return &action, nil
}

func (p *Process) handleSafeUnsafe(msg wire.Message) (*OpNextAction, error) {
	vote := confirm.SafeVote
	if msg.Kind == wire.Unsafe {
		vote = confirm.UnsafeVote
	}
	p.confirmations.RecordVote(msg.Timestamp, msg.Sender, vote)
	p.confirmations.PropagateEarlierResponses()

	action := OpNextAction{Kind: msg.Kind, Invoker: p.Rank, Timestamp: p.vc.Copy()}

	idx, full := p.confirmations.FirstUnhandledFull()
	if full == nil {
		return &action, nil
	}

	full.Handled = true
	pos := full.HeadIndex()
	item, ok := p.rep.RemoveAt(pos)
	p.confirmations.UpdateUnsafes(idx + 1)

	action.Committed = true
	if ok {
		action.Dequeued = item.Value
	} else {
		action.Empty = true
	}
	return &action, nil
}
