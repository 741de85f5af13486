// Package identity derives the key under which a value is counted.
//
// Scalars are keyed by their plain text, so 1, "1" and true share a key.
// Reference-identity objects are keyed by a NUL-prefixed registry token bound
// to the instance. Lists and maps are keyed by a digest of their canonical encoding.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/luhtaf/onlyonce/internal/value"
)

// DomainComposite separates composite digests from any other use of sha256
// over the same bytes. The version suffix allows the encoding to change.
const DomainComposite = "onlyonce/composite/v1"

// Of returns the identity key for v. Refs, including refs nested inside
// composites, are tagged in reg.
func Of(v value.Value, reg *Registry) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case value.Scalar:
		return val.Text(), nil
	case value.Ref:
		return reg.Token(val), nil
	case value.List, value.Map:
		canonical, err := Canonical(val, reg)
		if err != nil {
			return "", fmt.Errorf("identity: %w", err)
		}
		return hashWithDomain(DomainComposite, canonical), nil
	default:
		return "", fmt.Errorf("identity: %w: %T", value.ErrUnsupported, v)
	}
}

// hashWithDomain computes SHA256(domain || 0x00 || data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
