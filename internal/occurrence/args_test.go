package occurrence

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpace(t *testing.T) {
	type spaceName string

	s, err := Space()
	require.NoError(t, err)
	assert.Equal(t, DefaultSpace, s)

	s, err = Space("headers")
	require.NoError(t, err)
	assert.Equal(t, "headers", s)

	s, err = Space(spaceName("named"))
	require.NoError(t, err)
	assert.Equal(t, "named", s)

	s, err = Space("")
	require.NoError(t, err)
	assert.Equal(t, "", s)

	_, err = Space(13)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "name of space must be a string")
}

func TestOccurrence(t *testing.T) {
	valid := []any{1, int8(2), int64(400), uint(3), uint32(7)}
	for _, n := range valid {
		got, err := Occurrence(n)
		require.NoError(t, err, "%T(%v)", n, n)
		assert.Positive(t, got)
	}

	invalid := []any{0, -1, int64(-13), uint(0), 7.7, float32(1), "12", true, nil, []int{1}}
	for _, n := range invalid {
		_, err := Occurrence(n)
		assert.True(t, errors.Is(err, ErrInvalidArgument), "%T(%v)", n, n)
	}
}

func TestOccurrenceMessage(t *testing.T) {
	_, err := Occurrence("12")
	require.Error(t, err)
	assert.Equal(t, `invalid argument: occurrence number must be a positive integer, got string(12)`, err.Error())

	_, err = Occurrence(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "<nil>")
}
