package occurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounterIncrement(t *testing.T) {
	c := newCounter()
	for i := 1; i <= 5; i++ {
		assert.Equal(t, i, c.increment("default", "k"))
	}
	assert.Equal(t, 1, c.increment("other", "k"))
	assert.Equal(t, 1, c.increment("default", "j"))
}

func TestCounterReadDoesNotCreate(t *testing.T) {
	c := newCounter()
	assert.Zero(t, c.read("default", "k"))
	assert.Empty(t, c.counts)

	c.increment("default", "k")
	assert.Zero(t, c.read("default", "missing"))
	assert.Len(t, c.counts["default"], 1)
	assert.Equal(t, 1, c.read("default", "k"))
}

func TestCounterSnapshotSorted(t *testing.T) {
	c := newCounter()
	c.increment("b", "2")
	c.increment("a", "9")
	c.increment("b", "1")
	c.increment("b", "1")

	assert.Equal(t, []Entry{
		{Space: "a", Key: "9", Count: 1},
		{Space: "b", Key: "1", Count: 2},
		{Space: "b", Key: "2", Count: 1},
	}, c.snapshot())
	assert.Equal(t, []string{"a", "b"}, c.spaces())
}
