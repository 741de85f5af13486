package identity

import (
	"strconv"

	"github.com/luhtaf/onlyonce/internal/value"
)

// Registry hands out tokens for reference-identity objects. Each object gets
// a sequential id the first time it is seen; the first id is 1. The registry
// pins every object it has tagged, so an id is never reused for a different
// object during the registry's lifetime.
//
// Registry is not safe for concurrent use.
type Registry struct {
	next   uint64
	tokens map[value.RefID]entry
}

type entry struct {
	id     uint64
	pinned any
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tokens: make(map[value.RefID]entry)}
}

// ID returns the id for r, assigning one on first use.
func (reg *Registry) ID(r value.Ref) uint64 {
	if e, ok := reg.tokens[r.ID()]; ok {
		return e.id
	}
	reg.next++
	reg.tokens[r.ID()] = entry{id: reg.next, pinned: r.Target()}
	return reg.next
}

// RefTokenPrefix starts every object token. The leading NUL keeps tokens
// apart from scalar keys, which are plain text.
const RefTokenPrefix = "\x00ref:"

// Token returns the identity key for r.
func (reg *Registry) Token(r value.Ref) string {
	return RefTokenPrefix + strconv.FormatUint(reg.ID(r), 10)
}

// Len returns the number of tagged objects.
func (reg *Registry) Len() int { return len(reg.tokens) }
