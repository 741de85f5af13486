package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luhtaf/onlyonce/internal/value"
)

type object struct{ Name string }

func mustRef(t *testing.T, target any) value.Ref {
	t.Helper()
	r, err := value.RefOf(target)
	require.NoError(t, err)
	return r
}

func mustKey(t *testing.T, v value.Value, reg *Registry) string {
	t.Helper()
	key, err := Of(v, reg)
	require.NoError(t, err)
	return key
}

func TestScalarKeysAreText(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, "1", mustKey(t, value.Int(1), reg))
	assert.Equal(t, "abc", mustKey(t, value.String("abc"), reg))
	assert.Equal(t, "0.17", mustKey(t, value.Float(0.17), reg))
	assert.Equal(t, "", mustKey(t, value.Null(), reg))
	assert.Equal(t, "", mustKey(t, nil, reg))
}

func TestScalarCoarsening(t *testing.T) {
	reg := NewRegistry()

	one := mustKey(t, value.Int(1), reg)
	assert.Equal(t, one, mustKey(t, value.String("1"), reg))
	assert.Equal(t, one, mustKey(t, value.Bool(true), reg))
	assert.Equal(t, one, mustKey(t, value.Float(1.0), reg))
	assert.Equal(t, mustKey(t, value.Null(), reg), mustKey(t, value.Bool(false), reg))
}

func TestDistinctObjectsHaveDistinctKeys(t *testing.T) {
	reg := NewRegistry()
	a := &object{Name: "same"}
	b := &object{Name: "same"}

	ka := mustKey(t, mustRef(t, a), reg)
	kb := mustKey(t, mustRef(t, b), reg)

	assert.NotEqual(t, ka, kb)
	assert.Equal(t, ka, mustKey(t, mustRef(t, a), reg), "same instance must keep its token")
	assert.Equal(t, RefTokenPrefix+"1", ka)
	assert.Equal(t, RefTokenPrefix+"2", kb)
	assert.Equal(t, 2, reg.Len())
}

func TestMapKeyOrderInvariance(t *testing.T) {
	reg := NewRegistry()

	forward := value.Map{}
	forward["a"] = value.String("apple")
	forward["o"] = value.String("orange")

	reverse := value.Map{}
	reverse["o"] = value.String("orange")
	reverse["a"] = value.String("apple")

	changed := value.Map{"a": value.String("apple"), "o": value.String("apple")}

	assert.Equal(t, mustKey(t, forward, reg), mustKey(t, reverse, reg))
	assert.NotEqual(t, mustKey(t, forward, reg), mustKey(t, changed, reg))
}

func TestNestedMapOrderInvariance(t *testing.T) {
	reg := NewRegistry()

	a := value.List{value.Map{"x": value.Map{"b": value.Int(1), "a": value.Int(2)}}}
	b := value.List{value.Map{"x": value.Map{"a": value.Int(2), "b": value.Int(1)}}}

	assert.Equal(t, mustKey(t, a, reg), mustKey(t, b, reg))
}

func TestCompositeKeysAreDigests(t *testing.T) {
	key := mustKey(t, value.List{value.Int(1)}, NewRegistry())
	assert.Len(t, key, 64, "sha256 hex is 64 characters")
}

func TestCompositeKeysDistinguish(t *testing.T) {
	p := &object{}
	q := &object{}

	groups := map[string][]value.Value{
		"arrays": {
			value.List{value.Int(1), value.Int(2), value.Int(3)},
			value.List{},
			value.List{value.Int(5), value.Int(6), value.Int(7)},
			value.List{value.Int(1), value.Int(2), value.Int(3), value.Int(4)},
			value.List{value.Int(5)},
		},
		"mixed arrays": {
			value.List{value.Int(1), value.Int(2), value.Int(3)},
			value.List{value.Int(1), value.Int(2), value.Int(3), value.Int(4)},
			value.List{value.String("1"), value.String("2"), value.String("3")},
			value.List{mustRef(t, p)},
			value.List{mustRef(t, q)},
		},
		"nested arrays": {
			value.List{value.Int(1), value.Int(2), value.List{value.Int(3)}},
			value.List{value.Int(1), value.List{value.Int(2)}, value.Int(3)},
			value.List{value.Int(1), mustRef(t, p), value.List{value.Int(3)}},
			value.List{value.List{value.Int(1), value.Int(2)}, value.List{mustRef(t, q)}},
			value.List{value.List{value.List{value.Int(1), value.Int(2), value.String("a")}}},
		},
		"dictionary": {
			value.Map{"a": value.String("apple"), "o": value.String("orange")},
			value.Map{"a": value.String("apple"), "o": value.String("apple")},
			value.Map{"a": value.String("apple"), "o": value.String("orange"), "b": value.String("banana")},
			value.Map{"a": value.String("orange"), "o": value.String("apple"), "b": value.String("banana")},
			value.Map{"o": value.String("orange")},
		},
		"list versus map": {
			value.List{value.String("a")},
			value.Map{"0": value.String("a")},
			value.List{value.Null()},
			value.List{value.String("")},
			value.List{value.Bool(false)},
		},
	}

	for name, values := range groups {
		t.Run(name, func(t *testing.T) {
			reg := NewRegistry()
			seen := make(map[string]int)
			for i, v := range values {
				key := mustKey(t, v, reg)
				if prev, dup := seen[key]; dup {
					t.Fatalf("values %d and %d share key %s", prev, i, key)
				}
				seen[key] = i
			}
		})
	}
}

func TestNestedRefsUseRegistryTokens(t *testing.T) {
	reg := NewRegistry()
	p := &object{}

	first := mustKey(t, value.List{mustRef(t, p)}, reg)
	assert.Equal(t, RefTokenPrefix+"1", mustKey(t, mustRef(t, p), reg), "nested ref must be tagged in the registry")
	assert.Equal(t, first, mustKey(t, value.List{mustRef(t, p)}, reg))
}

func TestKeysAreStablePerRegistryOnly(t *testing.T) {
	p := &object{}
	q := &object{}

	r1 := NewRegistry()
	r2 := NewRegistry()
	mustKey(t, mustRef(t, q), r2)

	assert.NotEqual(t, mustKey(t, mustRef(t, p), r1), mustKey(t, mustRef(t, p), r2))
}
