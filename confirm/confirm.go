// Package confirm implements the confirmation-list store: for each in-flight
// dequeue, an N-slot vote vector keyed by the dequeue's timestamp, kept
// sorted by timestamp so scans proceed in commit order.
package confirm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dsys/vecqueue/clock"
)

// Vote is the three-valued verdict a peer records for one in-flight
// dequeue. It is a named, tagged scalar rather than a bare int or a
// negative sentinel (spec.md section 9).
type Vote int

const (
	Pending Vote = iota
	SafeVote
	UnsafeVote
)

func (v Vote) String() string {
	switch v {
	case Pending:
		return "PENDING"
	case SafeVote:
		return "SAFE"
	case UnsafeVote:
		return "UNSAFE"
	default:
		return fmt.Sprintf("Vote(%d)", int(v))
	}
}

// List is one row of the confirmation-list store: the vote vector for a
// single in-flight dequeue, plus whether it has already committed.
type List struct {
	DeqTS   clock.Clock
	Votes   []Vote
	Handled bool
}

// Full reports whether every slot in the vote vector has moved off PENDING.
func (l *List) Full() bool {
	for _, v := range l.Votes {
		if v == Pending {
			return false
		}
	}
	return true
}

// HeadIndex returns the local-replica index to remove for this list's
// dequeue, per spec.md section 4.2: the number of UNSAFE votes in the vote
// array. Callers must only call this once Full() is true.
func (l *List) HeadIndex() int {
	n := 0
	for _, v := range l.Votes {
		if v == UnsafeVote {
			n++
		}
	}
	return n
}

// Store is the per-process sorted sequence of confirmation lists, keyed by
// deq_ts with clock.LexCompare as the tie-break total order (invariant C1:
// at most one List exists per deq_ts).
type Store struct {
	n     int
	lists []*List
}

// NewStore returns an empty store sized for n-slot vote vectors.
func NewStore(n int) *Store {
	return &Store{n: n}
}

func (s *Store) search(ts clock.Clock) (idx int, found bool) {
	idx = sort.Search(len(s.lists), func(i int) bool {
		return clock.LexCompare(s.lists[i].DeqTS, ts) >= 0
	})
	found = idx < len(s.lists) && clock.Equal(s.lists[idx].DeqTS, ts)
	return idx, found
}

// FindOrInsert returns the List for ts, creating an all-PENDING row at the
// correct sorted position if none exists yet. A confirmation list is
// created lazily this way on first SAFE/UNSAFE arrival for a previously
// unseen deq_ts, or eagerly by the invoker on DEQ_INVOKE.
func (s *Store) FindOrInsert(ts clock.Clock) *List {
	idx, found := s.search(ts)
	if found {
		return s.lists[idx]
	}
	l := &List{DeqTS: ts.Copy(), Votes: make([]Vote, s.n)}
	s.lists = append(s.lists, nil)
	copy(s.lists[idx+1:], s.lists[idx:])
	s.lists[idx] = l
	return l
}

// RecordVote sets the vote for voter in the list keyed by ts, creating the
// list if necessary. A SAFE vote is never downgraded to UNSAFE; an UNSAFE
// vote may later be rewritten to SAFE by UpdateUnsafes once an earlier
// dequeue commits.
func (s *Store) RecordVote(ts clock.Clock, voter int, v Vote) *List {
	l := s.FindOrInsert(ts)
	if l.Votes[voter] == SafeVote {
		return l
	}
	l.Votes[voter] = v
	return l
}

// PropagateEarlierResponses implements spec.md section 4.3: for every voter
// column, scan rows from newest to oldest, and if a row has a non-PENDING
// vote while the row immediately before it is PENDING in that column, copy
// the vote down. A vote for a later dequeue implicitly covers every
// earlier-timestamped in-flight dequeue by that same voter.
func (s *Store) PropagateEarlierResponses() {
	if len(s.lists) == 0 {
		return
	}
	for col := 0; col < s.n; col++ {
		for row := len(s.lists) - 1; row >= 1; row-- {
			v := s.lists[row].Votes[col]
			if v != Pending && s.lists[row-1].Votes[col] == Pending {
				s.lists[row-1].Votes[col] = v
			}
		}
	}
}

// UpdateUnsafes rewrites every UNSAFE vote in rows at or after
// fromRowInclusive back to SAFE: the dequeue that just committed at the row
// before fromRowInclusive resolved the race that made those later votes
// unsafe.
func (s *Store) UpdateUnsafes(fromRowInclusive int) {
	for row := fromRowInclusive; row < len(s.lists); row++ {
		votes := s.lists[row].Votes
		for i, v := range votes {
			if v == UnsafeVote {
				votes[i] = SafeVote
			}
		}
	}
}

// Lists returns the store's rows in ascending deq_ts order. The returned
// slice aliases internal storage and must not be mutated by the caller
// beyond the List fields it already exposes.
func (s *Store) Lists() []*List {
	return s.lists
}

// FirstUnhandledFull returns the index and List of the first row, in
// ascending timestamp order, that is full (no PENDING votes) and not yet
// handled. Returns -1, nil if there is none.
func (s *Store) FirstUnhandledFull() (int, *List) {
	for i, l := range s.lists {
		if !l.Handled && l.Full() {
			return i, l
		}
	}
	return -1, nil
}

// DebugString renders every row for operator diagnostics, restoring the
// original prototype's print_confirmation_lists debug dump.
func (s *Store) DebugString(processIndex int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "confirmation lists for process %d\n", processIndex)
	for _, l := range s.lists {
		fmt.Fprintf(&b, "  ts=%v votes=%v handled=%v\n", l.DeqTS, l.Votes, l.Handled)
	}
	return b.String()
}
