// Package replica implements the sorted local replica: each process's copy
// of the FIFO queue contents, ordered by operation timestamp.
package replica

import (
	"sort"

	"github.com/dsys/vecqueue/clock"
	"github.com/dsys/vecqueue/vqerr"
)

// Item is one entry of the local replica: the rank that originated the
// enqueue, its payload, and the vector timestamp of the enqueue operation.
type Item struct {
	Originator int
	Value      uint16
	Timestamp  clock.Clock
}

// Replica is the ordered sequence of Items, sorted ascending by
// clock.LexCompare on Timestamp (invariant L1: no two items share a
// timestamp). It never stores values this replica has not itself
// acknowledged as part of a completed enqueue (invariant L2).
type Replica struct {
	items []Item
}

// New returns an empty replica.
func New() *Replica {
	return &Replica{}
}

func (r *Replica) search(ts clock.Clock) int {
	return sort.Search(len(r.items), func(i int) bool {
		return clock.LexCompare(r.items[i].Timestamp, ts) >= 0
	})
}

// InsertSorted inserts (originator, value, ts) at the position binary
// search by clock.LexCompare(ts, item.ts) identifies. Inserting a second
// item at a timestamp already present is a protocol bug (invariant L1) and
// returns a fatal vqerr.Invariant instead of silently corrupting order.
func (r *Replica) InsertSorted(originator int, value uint16, ts clock.Clock) error {
	idx := r.search(ts)
	if idx < len(r.items) && clock.Equal(r.items[idx].Timestamp, ts) {
		return vqerr.NewInvariant("replica: duplicate timestamp insertion at %v", ts)
	}
	r.items = append(r.items, Item{})
	copy(r.items[idx+1:], r.items[idx:])
	r.items[idx] = Item{Originator: originator, Value: value, Timestamp: ts.Copy()}
	return nil
}

// RemoveAt removes and returns the item at pos. ok is false if pos is
// negative or past the end of the replica (spec.md's EmptyDequeue case,
// which is not a protocol error — a dequeue against an empty or
// already-drained position simply yields no value).
func (r *Replica) RemoveAt(pos int) (item Item, ok bool) {
	if pos < 0 || pos >= len(r.items) {
		return Item{}, false
	}
	item = r.items[pos]
	r.items = append(r.items[:pos], r.items[pos+1:]...)
	return item, true
}

// Len returns the number of items currently held.
func (r *Replica) Len() int {
	return len(r.items)
}

// Items returns the replica's contents in order. The returned slice aliases
// internal storage and callers must treat it as read-only.
func (r *Replica) Items() []Item {
	return r.items
}
