package vpack

import "testing"

func TestUnindexedCompactArray(t *testing.T) {
	b := NewBuilder()
	if err := b.OpenArray(true); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := b.Add(IntValue(int64(i))); err != nil {
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
	n, err := s.Length()
	if err != nil || n != 5 {
		t.Fatalf("length = %d, %v, want 5", n, err)
	}
	for i := 0; i < 5; i++ {
		mv, err := s.At(i)
		if err != nil {
			t.Fatal(err)
		}
		v, err := mv.Int()
		if err != nil || v != int64(i) {
			t.Fatalf("At(%d) = %d, %v", i, v, err)
		}
	}
}

func TestUnsortedObjectForcesCompact(t *testing.T) {
	opts := NewOptions()
	opts.SortObjectKeys = false
	b := NewBuilderWithOptions(opts)
	if err := b.OpenObject(false); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPair("z", IntValue(1)); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPair("a", IntValue(2)); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	v, err := s.Get("z")
	if err != nil {
		t.Fatal(err)
	}
	got, err := v.Int()
	if err != nil || got != 1 {
		t.Fatalf("Get(z) = %d, %v", got, err)
	}
}

func TestHasKey(t *testing.T) {
	b := NewBuilder()
	if err := b.OpenObject(false); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPair("present", NullValue()); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	ok, err := s.HasKey("present")
	if err != nil || !ok {
		t.Fatalf("HasKey(present) = %v, %v", ok, err)
	}
	ok, err = s.HasKey("absent")
	if err != nil || ok {
		t.Fatalf("HasKey(absent) = %v, %v", ok, err)
	}
}

func TestByteSizeMatchesEncodedLength(t *testing.T) {
	b := NewBuilder()
	if err := b.OpenObject(false); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPair("a", StringValue("hello")); err != nil {
		t.Fatal(err)
	}
	if err := b.AddPair("b", IntValue(123456)); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := b.Data()
	if err != nil {
		t.Fatal(err)
	}
	s, err := b.Slice()
	if err != nil {
		t.Fatal(err)
	}
	size, err := s.ByteSize()
	if err != nil {
		t.Fatal(err)
	}
	if size != len(data) {
		t.Fatalf("ByteSize = %d, want %d", size, len(data))
	}
}

func TestNoneSlice(t *testing.T) {
	var s Slice
	if !s.IsNone() {
		t.Fatal("expected zero-value Slice to be None")
	}
}

// TestW8ArrayMemberOffsets hand-builds an 8-byte-width indexed array, since
// the Builder only escalates to W=8 for documents far too large for a unit
// test. Layout: header(1) + total(8) + payload(2 one-byte SmallInts) +
// index table(2*8) + trailing count(8), with no padding.
func TestW8ArrayMemberOffsets(t *testing.T) {
	data := make([]byte, 35)
	data[0] = hdrArrayW8
	writeUintLE(data[1:9], 35)
	data[9] = 0x33  // SmallInt 3
	data[10] = 0x34 // SmallInt 4
	writeUintLE(data[11:19], 9)  // offset of member 0
	writeUintLE(data[19:27], 10) // offset of member 1
	writeUintLE(data[27:35], 2)  // trailing member count

	s := NewSlice(data)
	n, err := s.Length()
	if err != nil || n != 2 {
		t.Fatalf("Length = %d, %v, want 2", n, err)
	}
	v0, err := s.At(0)
	if err != nil {
		t.Fatal(err)
	}
	got0, err := v0.Int()
	if err != nil || got0 != 3 {
		t.Fatalf("At(0) = %d, %v, want 3", got0, err)
	}
	v1, err := s.At(1)
	if err != nil {
		t.Fatal(err)
	}
	got1, err := v1.Int()
	if err != nil || got1 != 4 {
		t.Fatalf("At(1) = %d, %v, want 4", got1, err)
	}
}
