package vpack

import "testing"

func TestSinkAppendGrows(t *testing.T) {
	s := newSink()
	defer s.release()
	for i := 0; i < 1000; i++ {
		if err := s.appendByte(byte(i)); err != nil {
			t.Fatalf("appendByte(%d): %v", i, err)
		}
	}
	if s.len() != 1000 {
		t.Fatalf("len = %d, want 1000", s.len())
	}
	for i := 0; i < 1000; i++ {
		if s.buf[i] != byte(i) {
			t.Fatalf("buf[%d] = %d, want %d", i, s.buf[i], byte(i))
		}
	}
}

func TestSinkRollback(t *testing.T) {
	s := newSink()
	defer s.release()
	if err := s.appendBytes([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	s.rollback(2)
	if s.len() != 1 {
		t.Fatalf("len = %d, want 1", s.len())
	}
	if s.buf[0] != 1 {
		t.Fatalf("buf[0] = %d, want 1", s.buf[0])
	}
}

func TestBorrowedSinkRejectsOverflow(t *testing.T) {
	buf := make([]byte, 4)
	s := newBorrowedSink(buf)
	if err := s.appendBytes([]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	if err := s.appendByte(5); err == nil {
		t.Fatal("expected error growing past borrowed capacity")
	}
}

func TestSinkResetAndReset(t *testing.T) {
	s := newSink()
	defer s.release()
	if err := s.appendBytes([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	s.resetTo(1)
	if s.len() != 1 {
		t.Fatalf("len = %d, want 1", s.len())
	}
	s.reset()
	if s.len() != 0 {
		t.Fatalf("len = %d, want 0", s.len())
	}
}
