// Package clock implements the vector-clock algebra the replication protocol
// orders operations by: a fixed-length per-process counter array, a
// three-way causal comparison, and a lexicographic tie-break used as a
// total order over clock values.
package clock

import "fmt"

// Order is the result of a three-way causal Compare between two clocks.
type Order int

const (
	// StrictlyLess means every slot of the first clock is strictly less
	// than the corresponding slot of the second.
	StrictlyLess Order = iota
	// Less means the first clock is slotwise less-than-or-equal to the
	// second, with at least one strictly-less slot, but not all.
	Less
	// Greater covers everything else, including equal and incomparable
	// clocks.
	Greater
)

func (o Order) String() string {
	switch o {
	case StrictlyLess:
		return "StrictlyLess"
	case Less:
		return "Less"
	case Greater:
		return "Greater"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// Clock is a fixed-length vector timestamp, one signed counter per process.
// The zero value is not usable; construct with New.
type Clock []int32

// New returns an all-zeros clock sized for n processes.
func New(n int) Clock {
	return make(Clock, n)
}

// Copy returns an independent copy of c.
func (c Clock) Copy() Clock {
	return append(Clock(nil), c...)
}

// IsZero reports whether every slot of c is zero. Used by callers as the
// genesis guard on StrictlyLess and Less verdicts (see queueproc's DEQ_REQ
// handling).
func (c Clock) IsZero() bool {
	for _, v := range c {
		if v != 0 {
			return false
		}
	}
	return true
}

// Increment bumps c's own slot by one, in place. Only the clock's owning
// process should call this, and only when invoking a new operation.
func (c Clock) Increment(self int) {
	c[self]++
}

// Update merges other into c in place, taking the elementwise maximum. The
// owner's own slot is also subject to the max, since update never advances
// a clock past what the owner itself has already recorded; bumping the
// owner's own slot is the separate responsibility of Increment.
func (c Clock) Update(other Clock) {
	for i := range c {
		if other[i] > c[i] {
			c[i] = other[i]
		}
	}
}

// Compare returns the causal relationship of a to b: StrictlyLess if every
// slot of a is strictly less than the corresponding slot of b, Less if a is
// slotwise <= b with at least one strict inequality but not all, and
// Greater otherwise (equal or incomparable clocks both report Greater).
//
// Compare makes a single slotwise pass tracking whether every slot is
// strictly less (allLT), whether any slot is strictly less (anyLT) and
// whether any slot is greater (anyGT); these three flags are enough to
// classify the result without a second pass.
func Compare(a, b Clock) Order {
	allLT := true
	anyLT := false
	anyGT := false
	for i := range a {
		switch {
		case a[i] < b[i]:
			anyLT = true
		case a[i] > b[i]:
			anyGT = true
			allLT = false
		default:
			allLT = false
		}
	}
	switch {
	case allLT:
		return StrictlyLess
	case anyLT && !anyGT:
		return Less
	default:
		return Greater
	}
}

// LexCompare imposes a deterministic total order over clocks by comparing
// slots left to right and returning at the first difference. It carries no
// causal meaning; it exists purely as a tie-break for sorting containers
// keyed by clock value (the local replica, the confirmation-list store) and
// for equality tests on in-flight operation identities.
func LexCompare(a, b Clock) int {
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Equal reports whether a and b compare equal under LexCompare.
func Equal(a, b Clock) bool {
	return LexCompare(a, b) == 0
}
