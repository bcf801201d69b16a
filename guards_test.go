package vpack

import (
	"errors"
	"testing"
)

func TestWithObject(t *testing.T) {
	b := NewBuilder()
	err := WithObject(b, false, func() error {
		return b.AddPair("a", IntValue(1))
	})
	if err != nil {
		t.Fatal(err)
	}
	if !b.IsClosed() {
		t.Fatal("expected builder closed after WithObject")
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	n, err := v.Int()
	if err != nil || n != 1 {
		t.Fatalf("Get(a) = %d, %v", n, err)
	}
}

func TestWithObjectPropagatesFnError(t *testing.T) {
	b := NewBuilder()
	sentinel := errors.New("boom")
	err := WithObject(b, false, func() error {
		if err := b.AddPair("a", IntValue(1)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}
	if !b.IsClosed() {
		t.Fatal("expected object closed even though fn errored")
	}
}

func TestObjectScope(t *testing.T) {
	b := NewBuilder()
	var scopeErr error
	closeFn, err := ObjectScope(b, false, &scopeErr)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.AddPair("k", StringValue("v")); err != nil {
		t.Fatal(err)
	}
	closeFn()
	if scopeErr != nil {
		t.Fatal(scopeErr)
	}
	if !b.IsClosed() {
		t.Fatal("expected object closed")
	}
}

func TestArrayScope(t *testing.T) {
	b := NewBuilder()
	var scopeErr error
	closeFn, err := ArrayScope(b, false, &scopeErr)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Add(IntValue(7)); err != nil {
		t.Fatal(err)
	}
	closeFn()
	if scopeErr != nil {
		t.Fatal(scopeErr)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	n, err := s.Length()
	if err != nil || n != 1 {
		t.Fatalf("length = %d, %v", n, err)
	}
}
