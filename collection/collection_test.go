package collection

import (
	"testing"

	"github.com/arangodb/go-vpack"
)

func buildIntArray(t *testing.T, values []int64) vpack.Slice {
	t.Helper()
	b := vpack.NewBuilder()
	if err := b.OpenArray(false); err != nil {
		t.Fatal(err)
	}
	for _, v := range values {
		if err := b.Add(vpack.IntValue(v)); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestForEach(t *testing.T) {
	s := buildIntArray(t, []int64{1, 2, 3})
	var sum int64
	err := ForEach(s, func(v vpack.Slice, i int) bool {
		n, err := v.Int()
		if err != nil {
			t.Fatal(err)
		}
		sum += n
		return true
	})
	if err != nil {
		t.Fatal(err)
	}
	if sum != 6 {
		t.Fatalf("sum = %d, want 6", sum)
	}
}

func TestFilter(t *testing.T) {
	s := buildIntArray(t, []int64{1, 2, 3, 4, 5, 6})
	b, err := Filter(s, func(v vpack.Slice, i int) bool {
		n, _ := v.Int()
		return n%2 == 0
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	n, err := out.Length()
	if err != nil || n != 3 {
		t.Fatalf("length = %d, %v, want 3", n, err)
	}
}

func TestFindAndContains(t *testing.T) {
	s := buildIntArray(t, []int64{1, 2, 3})
	v, err := Find(s, func(v vpack.Slice, i int) bool {
		n, _ := v.Int()
		return n == 2
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.IsNone() {
		t.Fatal("expected to find 2")
	}
	ok, err := Contains(s, func(v vpack.Slice, i int) bool {
		n, _ := v.Int()
		return n == 42
	})
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected not to contain 42")
	}
}

func TestIndexOf(t *testing.T) {
	s := buildIntArray(t, []int64{10, 20, 30})
	mid, err := s.At(1)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := IndexOf(s, mid)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 1 {
		t.Fatalf("index = %d, want 1", idx)
	}
}

func TestAllAny(t *testing.T) {
	s := buildIntArray(t, []int64{2, 4, 6})
	all, err := All(s, func(v vpack.Slice, i int) bool {
		n, _ := v.Int()
		return n%2 == 0
	})
	if err != nil || !all {
		t.Fatalf("All = %v, %v, want true", all, err)
	}
	any, err := Any(s, func(v vpack.Slice, i int) bool {
		n, _ := v.Int()
		return n == 4
	})
	if err != nil || !any {
		t.Fatalf("Any = %v, %v, want true", any, err)
	}
}

func TestExtract(t *testing.T) {
	s := buildIntArray(t, []int64{0, 1, 2, 3, 4})
	b, err := Extract(s, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	n, err := out.Length()
	if err != nil || n != 3 {
		t.Fatalf("length = %d, %v, want 3", n, err)
	}
	first, err := out.At(0)
	if err != nil {
		t.Fatal(err)
	}
	v, err := first.Int()
	if err != nil || v != 1 {
		t.Fatalf("first = %d, %v, want 1", v, err)
	}
}

func TestConcat(t *testing.T) {
	a := buildIntArray(t, []int64{1, 2})
	c := buildIntArray(t, []int64{3, 4})
	b, err := Concat(a, c)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	n, err := out.Length()
	if err != nil || n != 4 {
		t.Fatalf("length = %d, %v, want 4", n, err)
	}
}

func buildObject(t *testing.T, pairs map[string]int64) vpack.Slice {
	t.Helper()
	b := vpack.NewBuilder()
	if err := b.OpenObject(false); err != nil {
		t.Fatal(err)
	}
	for k, v := range pairs {
		if err := b.AddPair(k, vpack.IntValue(v)); err != nil {
			t.Fatal(err)
		}
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestKeepAndRemove(t *testing.T) {
	s := buildObject(t, map[string]int64{"a": 1, "b": 2, "c": 3})

	kept, err := Keep(s, []string{"a", "c"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := kept.Slice()
	if err != nil {
		t.Fatal(err)
	}
	keys, err := out.Keys()
	if err != nil || len(keys) != 2 {
		t.Fatalf("keys = %v, %v", keys, err)
	}

	removed, err := Remove(s, []string{"b"})
	if err != nil {
		t.Fatal(err)
	}
	out2, err := removed.Slice()
	if err != nil {
		t.Fatal(err)
	}
	if has, _ := out2.HasKey("b"); has {
		t.Fatal("expected b removed")
	}
	if has, _ := out2.HasKey("a"); !has {
		t.Fatal("expected a to remain")
	}
}

func TestValues(t *testing.T) {
	s := buildObject(t, map[string]int64{"a": 1, "b": 2})
	b, err := Values(s)
	if err != nil {
		t.Fatal(err)
	}
	out, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	n, err := out.Length()
	if err != nil || n != 2 {
		t.Fatalf("length = %d, %v, want 2", n, err)
	}
}
