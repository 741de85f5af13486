package occurrence

import "sort"

// counter is a two-level occurrence table: counts[space][key].
// Spaces and keys are created by increment only and never removed.
// It is not safe for concurrent use; Tracker guards it.
type counter struct {
	counts map[string]map[string]int
}

func newCounter() *counter { return &counter{counts: make(map[string]map[string]int)} }

// increment adds one observation and returns the new count.
func (c *counter) increment(space, key string) int {
	keys, ok := c.counts[space]
	if !ok {
		keys = make(map[string]int)
		c.counts[space] = keys
	}
	keys[key]++
	return keys[key]
}

// read returns the count, or 0 when space or key was never observed.
func (c *counter) read(space, key string) int {
	keys, ok := c.counts[space]
	if !ok {
		return 0
	}
	return keys[key]
}

// Entry is one row of a snapshot.
type Entry struct {
	Space string
	Key   string
	Count int
}

func (c *counter) snapshot() []Entry {
	var out []Entry
	for space, keys := range c.counts {
		for key, n := range keys {
			out = append(out, Entry{Space: space, Key: key, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Space != out[j].Space {
			return out[i].Space < out[j].Space
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (c *counter) spaces() []string {
	out := make([]string, 0, len(c.counts))
	for space := range c.counts {
		out = append(out, space)
	}
	sort.Strings(out)
	return out
}
