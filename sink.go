package vpack

import (
	"math/bits"

	"github.com/delaneyj/toolbelt/bytebufferpool"
)

// sink is the growable, cursor-tracked byte buffer described as the Byte
// sink component: callers append monotonically, but the compound closer
// also patches and shifts already-written bytes below the cursor. It is
// backed by a pooled buffer (D1 in SPEC_FULL.md) the same way encode.go
// pulls scratch buffers from bytebufferpool for node bodies.
type sink struct {
	bb       *bytebufferpool.ByteBuffer // nil for a borrowed buffer
	buf      []byte                     // buf[:pos] is written; cap(buf) is reserved
	pos      int
	borrowed bool
}

func newSink() *sink {
	bb := bytebufferpool.Get()
	return &sink{bb: bb, buf: bb.Bytes()[:0]}
}

// newBorrowedSink wraps a caller-owned slice. The sink must never grow
// past cap(buf); reserve fails with ErrOutOfRange instead.
func newBorrowedSink(buf []byte) *sink {
	return &sink{buf: buf[:0], borrowed: true}
}

func (s *sink) release() {
	if s.bb != nil {
		s.bb.Reset()
		bytebufferpool.Put(s.bb)
		s.bb = nil
	}
	s.buf = nil
	s.pos = 0
}

func checkOverflow(v uint64) error {
	if bits.UintSize == 32 && v > 0xffffffff {
		return ErrOutOfRange
	}
	return nil
}

// reserve guarantees at least n more bytes are available without a
// reallocation, refreshing any cached base pointer the caller holds.
func (s *sink) reserve(n int) error {
	need := s.pos + n
	if err := checkOverflow(uint64(need)); err != nil {
		return err
	}
	if need <= cap(s.buf) {
		return nil
	}
	if s.borrowed {
		return withDetail(ErrOutOfRange, "borrowed buffer capacity exceeded")
	}
	newCap := cap(s.buf)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, s.pos, newCap)
	copy(grown, s.buf[:s.pos])
	s.buf = grown
	return nil
}

func (s *sink) appendByteUnchecked(b byte) {
	s.buf = s.buf[:s.pos+1]
	s.buf[s.pos] = b
	s.pos++
}

func (s *sink) appendByte(b byte) error {
	if err := s.reserve(1); err != nil {
		return err
	}
	s.appendByteUnchecked(b)
	return nil
}

func (s *sink) appendBytesUnchecked(p []byte) {
	s.buf = s.buf[:s.pos+len(p)]
	copy(s.buf[s.pos:], p)
	s.pos += len(p)
}

func (s *sink) appendBytes(p []byte) error {
	if err := s.reserve(len(p)); err != nil {
		return err
	}
	s.appendBytesUnchecked(p)
	return nil
}

// advance moves the cursor ahead without writing (the range must already
// be reserved and its bytes meaningfully zeroed or about to be patched).
func (s *sink) advance(n int) {
	s.pos += n
	s.buf = s.buf[:s.pos]
}

// rollback moves the cursor back by a relative byte count, the counterpart
// to resetTo for callers tracking a delta rather than an absolute position.
func (s *sink) rollback(n int) {
	s.pos -= n
	s.buf = s.buf[:s.pos]
}

func (s *sink) resetTo(n int) {
	s.pos = n
	s.buf = s.buf[:n]
}

func (s *sink) reset() {
	s.pos = 0
	s.buf = s.buf[:0]
}

func (s *sink) len() int { return s.pos }
