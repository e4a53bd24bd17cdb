package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveN(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)

	_, err = New(-1)
	require.Error(t, err)
}

func TestNewAcceptsPositiveN(t *testing.T) {
	c, err := New(4)
	require.NoError(t, err)
	assert.Equal(t, 4, c.N)
}
