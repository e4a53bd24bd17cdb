package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare(t *testing.T) {
	cases := []struct {
		name string
		a, b Clock
		want Order
	}{
		{"strictly less", Clock{0, 0, 0}, Clock{1, 1, 1}, StrictlyLess},
		{"equal is greater", Clock{1, 2, 3}, Clock{1, 2, 3}, Greater},
		{"less but not strict", Clock{0, 2, 3}, Clock{1, 2, 3}, Less},
		{"incomparable is greater", Clock{1, 0}, Clock{0, 1}, Greater},
		{"zero vs zero is greater", Clock{0, 0}, Clock{0, 0}, Greater},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compare(tc.a, tc.b))
		})
	}
}

func TestUpdateTakesElementwiseMax(t *testing.T) {
	c := Clock{1, 5, 0}
	c.Update(Clock{3, 2, 9})
	assert.Equal(t, Clock{3, 5, 9}, c)
}

func TestIncrementOnlyBumpsOwnSlot(t *testing.T) {
	c := New(3)
	c.Increment(1)
	require.Equal(t, Clock{0, 1, 0}, c)
	c.Increment(1)
	assert.Equal(t, Clock{0, 2, 0}, c)
}

func TestLexCompareTotalOrder(t *testing.T) {
	assert.Equal(t, 0, LexCompare(Clock{1, 2}, Clock{1, 2}))
	assert.Equal(t, -1, LexCompare(Clock{1, 2}, Clock{1, 3}))
	assert.Equal(t, 1, LexCompare(Clock{2, 0}, Clock{1, 9}))
	assert.True(t, Equal(Clock{4, 4}, Clock{4, 4}))
}

func TestIsZero(t *testing.T) {
	assert.True(t, New(4).IsZero())
	c := New(4)
	c.Increment(2)
	assert.False(t, c.IsZero())
}

func TestCopyIsIndependent(t *testing.T) {
	c := Clock{1, 2, 3}
	d := c.Copy()
	d[0] = 99
	assert.Equal(t, Clock{1, 2, 3}, c)
	assert.Equal(t, Clock{99, 2, 3}, d)
}
