package cbor

import (
	"testing"

	stdcbor "github.com/fxamacker/cbor/v2"

	"github.com/arangodb/go-vpack"
)

func TestMarshalScalar(t *testing.T) {
	b := vpack.NewBuilder()
	if err := b.Add(vpack.StringValue("hi")); err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	data, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var got string
	if err := stdcbor.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got != "hi" {
		t.Fatalf("got = %q, want hi", got)
	}
}

func TestUnmarshalObject(t *testing.T) {
	data, err := stdcbor.Marshal(map[string]any{"a": int64(1), "b": "two"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	if s.Kind() != vpack.ValueKindObject {
		t.Fatalf("kind = %v, want object", s.Kind())
	}
	av, err := s.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	n, err := av.Int()
	if err != nil || n != 1 {
		t.Fatalf("a = %d, %v", n, err)
	}
	bv, err := s.Get("b")
	if err != nil {
		t.Fatal(err)
	}
	str, err := bv.String()
	if err != nil || str != "two" {
		t.Fatalf("b = %q, %v", str, err)
	}
}

func TestRoundTripArray(t *testing.T) {
	b := vpack.NewBuilder()
	if err := b.OpenArray(false); err != nil {
		t.Fatal(err)
	}
	for _, v := range []int64{1, 2, 3} {
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
	data, err := Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	rebuilt, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	out, err := rebuilt.Slice()
	if err != nil {
		t.Fatal(err)
	}
	n, err := out.Length()
	if err != nil || n != 3 {
		t.Fatalf("length = %d, %v, want 3", n, err)
	}
}
