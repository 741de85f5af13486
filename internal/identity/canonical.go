package identity

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/luhtaf/onlyonce/internal/value"
)

// scalar tags inside the canonical encoding
var kindTags = map[value.ScalarKind]byte{
	value.KindNull:   'n',
	value.KindBool:   'b',
	value.KindInt:    'i',
	value.KindFloat:  'f',
	value.KindString: 's',
}

// Canonical encodes v deterministically. Map entries are sorted by key at
// every level, refs are replaced with their registry id, and scalars keep
// their kind, so [1] and ["1"] encode differently.
//
// Grammar:
//
//	scalar  <tag>:<quoted text>     tag is one of n b i f s
//	ref     r:<id>
//	list    [e1,e2,...]
//	map     {"k1":e1,"k2":e2,...}
func Canonical(v value.Value, reg *Registry) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v, reg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v value.Value, reg *Registry) error {
	switch val := v.(type) {
	case nil:
		writeScalar(buf, value.Null())
	case value.Scalar:
		writeScalar(buf, val)
	case value.Ref:
		buf.WriteString("r:")
		buf.WriteString(strconv.FormatUint(reg.ID(val), 10))
	case value.List:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item, reg); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case value.Map:
		buf.WriteByte('{')
		for i, k := range val.SortedKeys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k], reg); err != nil {
				return fmt.Errorf("[%q]: %w", k, err)
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("%w: %T", value.ErrUnsupported, v)
	}
	return nil
}

// strconv.Quote escapes invalid UTF-8 byte by byte, so distinct texts always
// quote differently.
func writeScalar(buf *bytes.Buffer, s value.Scalar) {
	buf.WriteByte(kindTags[s.Kind()])
	buf.WriteByte(':')
	buf.WriteString(strconv.Quote(s.Text()))
}
