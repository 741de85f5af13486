// Package occurrence counts how many times a value has been observed in a
// named space and answers whether the current observation is the n-th.
package occurrence

import (
	"fmt"
	"sync"

	"github.com/luhtaf/onlyonce/internal/identity"
	"github.com/luhtaf/onlyonce/internal/value"
)

// Tracker owns the occurrence counts and the object registry for one
// counting context. Counts live as long as the Tracker; nothing is evicted.
// A Tracker is safe for concurrent use.
type Tracker struct {
	mu   sync.Mutex
	c    *counter
	refs *identity.Registry
}

// NewTracker constructs an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{c: newCounter(), refs: identity.NewRegistry()}
}

// OccurredOnlyOnce records v in space and reports whether this was its first
// observation there. It fails, without recording, when no key can be derived
// for v.
func (t *Tracker) OccurredOnlyOnce(v value.Value, space string) (bool, error) {
	return t.OccurredAt(v, 1, space)
}

// OccurredAt records v in space and reports whether the count is now exactly
// n. The count grows on every call, so only the n-th call returns true.
func (t *Tracker) OccurredAt(v value.Value, n int, space string) (bool, error) {
	if n < 1 {
		return false, fmt.Errorf("%w: occurrence number must be a positive integer, got %d", ErrInvalidArgument, n)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	key, err := identity.Of(v, t.refs)
	if err != nil {
		return false, err
	}
	return t.c.increment(space, key) == n, nil
}

// OnlyOnce is OccurredOnlyOnce for dynamically typed arguments, as passed by
// a template engine. space is optional and must be a string.
func (t *Tracker) OnlyOnce(v any, space ...any) (bool, error) {
	s, err := Space(space...)
	if err != nil {
		return false, err
	}
	return t.observe(v, 1, s)
}

// OnlyOnceWhenOccurs is OccurredAt for dynamically typed arguments. n must be
// a positive Go integer and space, if given, a string.
func (t *Tracker) OnlyOnceWhenOccurs(v any, n any, space ...any) (bool, error) {
	num, err := Occurrence(n)
	if err != nil {
		return false, err
	}
	s, err := Space(space...)
	if err != nil {
		return false, err
	}
	return t.observe(v, num, s)
}

func (t *Tracker) observe(v any, n int, space string) (bool, error) {
	val, err := value.From(v)
	if err != nil {
		return false, err
	}
	return t.OccurredAt(val, n, space)
}

// Count returns how many times v was observed in space without recording an
// observation. Refs never seen before are still tagged in the registry, but no
// count is created.
func (t *Tracker) Count(v value.Value, space string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key, err := identity.Of(v, t.refs)
	if err != nil {
		return 0, err
	}
	return t.c.read(space, key), nil
}

// Key returns the identity key v is counted under.
func (t *Tracker) Key(v value.Value) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return identity.Of(v, t.refs)
}

// Snapshot returns every count, sorted by space then key.
func (t *Tracker) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c.snapshot()
}

// Spaces returns the names of all spaces observed so far, sorted.
func (t *Tracker) Spaces() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.c.spaces()
}
