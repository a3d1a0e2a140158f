package hashmap

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestMapCreateEmpty(t *testing.T) {
	m := Immutable[String, int]()
	if m.Len() != 0 {
		t.Errorf("expected empty map to have length 0, has %d", m.Len())
	}
	if m.Has("a") {
		t.Error("expected empty map not to contain 'a', does")
	}
	if _, found := m.Find("a").Get(); found {
		t.Error("expected Find in empty map to be Nothing, isn't")
	}
}

func TestMapZeroValueUsable(t *testing.T) {
	m := Map[String, int]{}.With("one", 1)
	if m.Len() != 1 {
		t.Errorf("expected map to have length 1, has %d", m.Len())
	}
}

func TestMapWithAndFind(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "persistent.hashmap")
	defer teardown()
	//
	m := Immutable[String, int]().With("a", 1).With("b", 2)
	if m.Len() != 2 {
		t.Errorf("expected map to have length 2, has %d", m.Len())
	}
	var v int
	switch mm := m.Find("b").Match(); mm {
	case mm.Just(&v):
		if v != 2 {
			t.Errorf("expected Find('b') to be Just(2), is Just(%d)", v)
		}
	case mm.Nothing():
		t.Error("expected Find('b') to be Just(2), is Nothing")
	}
}

func TestMapWithDeleted(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "persistent.hashmap")
	defer teardown()
	//
	m := Immutable[String, int]().With("a", 1).With("b", 2).WithDeleted("a")
	if m.Len() != 1 {
		t.Errorf("expected map to have length 1 after deletion, has %d", m.Len())
	}
	if m.Has("a") {
		t.Error("expected deleted key 'a' to be absent, isn't")
	}
	if v := m.Find("b").WithDefault(0); v != 2 {
		t.Errorf("expected Find('b') to still be 2, is %d", v)
	}
}

func TestMapImmutability(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "persistent.hashmap")
	defer teardown()
	//
	m1 := Immutable[String, int]().With("a", 1).With("b", 2)
	m2 := m1.With("c", 3)
	m3 := m1.WithDeleted("a")
	m4 := m1.With("a", 100)
	if m1.Len() != 2 {
		t.Errorf("expected original map to keep length 2, has %d", m1.Len())
	}
	if v := m1.Find("a").WithDefault(0); v != 1 {
		t.Errorf("expected original map to keep a=1, has %d", v)
	}
	if m2.Len() != 3 || m3.Len() != 1 || m4.Len() != 2 {
		t.Errorf("expected derived maps to have lengths 3|1|2, have %d|%d|%d",
			m2.Len(), m3.Len(), m4.Len())
	}
	if v := m4.Find("a").WithDefault(0); v != 100 {
		t.Errorf("expected derived map to have a=100, has %d", v)
	}
}

func TestMapReplaceValue(t *testing.T) {
	m := Immutable[String, int]().With("a", 1).With("a", 2)
	if m.Len() != 1 {
		t.Errorf("expected replacement to keep length 1, has %d", m.Len())
	}
	if v := m.Find("a").WithDefault(0); v != 2 {
		t.Errorf("expected replacement to yield a=2, has %d", v)
	}
}

func TestMapValueEqualityReusesIncarnation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "persistent.hashmap")
	defer teardown()
	//
	m := Immutable(ValueEquality[String](func(u, v int) bool {
		return u == v
	})).With("a", 1).With("b", 2)
	m2 := m.With("a", 1)
	if m2.root != m.root {
		t.Error("expected equal-value replacement to reuse the map incarnation, didn't")
	}
	m3 := m.With("a", 7)
	if m3.root == m.root {
		t.Error("expected changed-value replacement to derive a new incarnation, didn't")
	}
}

func TestMapDeleteAbsentKey(t *testing.T) {
	m := Immutable[String, int]().With("a", 1)
	m2 := m.WithDeleted("zzz")
	if m2.root != m.root || m2.Len() != 1 {
		t.Error("expected deletion of absent key to return the map unchanged, didn't")
	}
}

func TestMapEqual(t *testing.T) {
	eqv := func(u, v int) bool { return u == v }
	m1 := Immutable[String, int]().With("a", 1).With("b", 2)
	m2 := Immutable[String, int]().With("b", 2).With("a", 1)
	if !Equal(m1, m2, eqv) {
		t.Error("expected maps with identical content to be equal, aren't")
	}
	if Equal(m1, m2.With("c", 3), eqv) {
		t.Error("expected maps of different size to be unequal, aren't")
	}
	if Equal(m1, m2.With("a", 9), eqv) {
		t.Error("expected maps with different values to be unequal, aren't")
	}
}

// --- Nil arguments ---------------------------------------------------------

// refKey is a nilable key type (see TestMapNilKey*).
type refKey struct {
	name string
}

func (k *refKey) Equal(other *refKey) bool {
	return other != nil && k.name == other.name
}

func (k *refKey) Hash() uint32 {
	return String(k.name).Hash()
}

func expectInvalidArgument(t *testing.T, op string) {
	t.Helper()
	r := recover()
	if r == nil {
		t.Fatalf("expected %s with nil argument to panic, didn't", op)
	}
	if _, ok := r.(*InvalidArgumentError); !ok {
		t.Fatalf("expected %s to panic with *InvalidArgumentError, did with %v", op, r)
	}
}

func TestMapNilKeyFind(t *testing.T) {
	defer expectInvalidArgument(t, "Find")
	m := Immutable[*refKey, int]().With(&refKey{"a"}, 1)
	m.Find(nil)
}

func TestMapNilKeyWith(t *testing.T) {
	defer expectInvalidArgument(t, "With")
	Immutable[*refKey, int]().With(nil, 1)
}

func TestMapNilValueWith(t *testing.T) {
	defer expectInvalidArgument(t, "With")
	Immutable[String, *int]().With("a", nil)
}

func TestMapNilKeyWithDeleted(t *testing.T) {
	defer expectInvalidArgument(t, "WithDeleted")
	Immutable[*refKey, int]().WithDeleted(nil)
}

// --- Bulk construction -----------------------------------------------------

func TestFromPairs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "persistent.hashmap")
	defer teardown()
	//
	m, err := FromPairs([]Entry[String, int]{{"a", 1}, {"b", 2}})
	if err != nil {
		t.Fatalf("expected FromPairs to succeed, failed with %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("expected constructed map to have length 2, has %d", m.Len())
	}
	if v := m.Find("a").WithDefault(0); v != 1 {
		t.Errorf("expected constructed map to have a=1, has %d", v)
	}
}

func TestFromPairsDuplicateKey(t *testing.T) {
	_, err := FromPairs([]Entry[String, int]{{"x", 1}, {"x", 2}})
	if err == nil {
		t.Fatal("expected FromPairs with duplicate key to fail, didn't")
	}
	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected an *InvalidInputError, got %v", err)
	}
	if inputErr.Index != 1 {
		t.Errorf("expected pair #1 to be flagged, is #%d", inputErr.Index)
	}
}

func TestFromPairsNilKey(t *testing.T) {
	_, err := FromPairs([]Entry[*refKey, int]{{&refKey{"a"}, 1}, {nil, 2}})
	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected an *InvalidInputError for nil key, got %v", err)
	}
}

func TestFromPairsNilValue(t *testing.T) {
	one := 1
	_, err := FromPairs([]Entry[String, *int]{{"a", &one}, {"b", nil}})
	var inputErr *InvalidInputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("expected an *InvalidInputError for nil value, got %v", err)
	}
}
