package vpack

import (
	"encoding/binary"
	"math"
)

// Value is the tagged union accepted by Builder.Add. Construct one with the
// *Value helpers (NullValue, IntValue, StringValue, ...) rather than the
// zero value.
type Value struct {
	kind ValueKind
	b    bool
	i    int64
	u    uint64
	f    float64
	s    string
	bin  []byte
	bcd  BCD
	ext  uintptr
}

func NullValue() Value               { return Value{kind: ValueKindNull} }
func BoolValue(b bool) Value         { return Value{kind: ValueKindBool, b: b} }
func IntValue(v int64) Value         { return Value{kind: ValueKindInt, i: v} }
func UIntValue(v uint64) Value       { return Value{kind: ValueKindUInt, u: v} }
func DoubleValue(v float64) Value    { return Value{kind: ValueKindDouble, f: v} }
func UTCDateValue(msSinceEpoch int64) Value {
	return Value{kind: ValueKindUTCDate, i: msSinceEpoch}
}
func StringValue(s string) Value     { return Value{kind: ValueKindString, s: s} }
func BinaryValue(p []byte) Value     { return Value{kind: ValueKindBinary, bin: p} }
func BCDValue(v BCD) Value           { return Value{kind: ValueKindBCD, bcd: v} }
func ExternalValue(ptr uintptr) Value { return Value{kind: ValueKindExternal, ext: ptr} }

// Kind reports the coarse category of v.
func (v Value) Kind() ValueKind { return v.kind }

// BCD is a binary-coded-decimal number: a sign (Negative), a base-10
// exponent, and mantissa digits as nibbles, most significant first.
type BCD struct {
	Negative bool
	Exponent int32
	Digits   []byte // one decimal digit (0-9) per element, MSD first
}

// intLength returns the minimum number of bytes (1..8) needed to represent
// v in two's complement, excluding the SmallInt range.
func intLength(v int64) int {
	for l := 1; l <= 8; l++ {
		bits := uint(l) * 8
		lo := -(int64(1) << (bits - 1))
		hi := int64(1)<<(bits-1) - 1
		if v >= lo && v <= hi {
			return l
		}
	}
	return 8
}

// uintLength returns the minimum number of bytes (1..8) needed to represent
// v unsigned.
func uintLength(v uint64) int {
	l := 1
	for v>>(uint(l)*8) != 0 && l < 8 {
		l++
	}
	return l
}

func isSmallInt(v int64) (byte, bool) {
	switch {
	case v >= 0 && v <= 9:
		return hdrSmallIntPosBase + byte(v), true
	case v >= -6 && v <= -1:
		return byte(int(hdrSmallIntNegBase) + int(v)), true
	default:
		return 0, false
	}
}

func encodeNull(s *sink) error { return s.appendByte(hdrNull) }

func encodeBool(s *sink, b bool) error {
	if b {
		return s.appendByte(hdrTrue)
	}
	return s.appendByte(hdrFalse)
}

func encodeInt(s *sink, v int64) error {
	if hdr, ok := isSmallInt(v); ok {
		return s.appendByte(hdr)
	}
	l := intLength(v)
	if err := s.reserve(1 + l); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrIntBase + byte(l))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	s.appendBytesUnchecked(tmp[:l])
	return nil
}

func encodeUInt(s *sink, v uint64) error {
	if v <= 9 {
		return s.appendByte(hdrSmallIntPosBase + byte(v))
	}
	l := uintLength(v)
	if err := s.reserve(1 + l); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrUIntBase + byte(l))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	s.appendBytesUnchecked(tmp[:l])
	return nil
}

func encodeDouble(s *sink, v float64) error {
	if err := s.reserve(9); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrDouble)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(v))
	s.appendBytesUnchecked(tmp[:])
	return nil
}

func encodeUTCDate(s *sink, ms int64) error {
	if err := s.reserve(9); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrUTCDate)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(ms))
	s.appendBytesUnchecked(tmp[:])
	return nil
}

func encodeExternal(s *sink, opts *Options, ptr uintptr) error {
	if opts.DisallowExternals {
		return ErrExternalsDisallowed
	}
	const ptrSize = 8
	if err := s.reserve(1 + ptrSize); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrExternal)
	var tmp [ptrSize]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(ptr))
	s.appendBytesUnchecked(tmp[:])
	return nil
}

func encodeString(s *sink, str string) error {
	n := len(str)
	if n < 127 {
		if err := s.reserve(1 + n); err != nil {
			return err
		}
		s.appendByteUnchecked(hdrShortStringBase + byte(n))
		s.appendBytesUnchecked([]byte(str))
		return nil
	}
	if err := s.reserve(9 + n); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrLongString)
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(n))
	s.appendBytesUnchecked(tmp[:])
	s.appendBytesUnchecked([]byte(str))
	return nil
}

func encodeBinary(s *sink, p []byte) error {
	l := uintLength(uint64(len(p)))
	if l == 0 {
		l = 1
	}
	if err := s.reserve(1 + l + len(p)); err != nil {
		return err
	}
	s.appendByteUnchecked(hdrBinaryBase + byte(l-1))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(p)))
	s.appendBytesUnchecked(tmp[:l])
	s.appendBytesUnchecked(p)
	return nil
}

func encodeBCD(s *sink, opts *Options, v BCD) error {
	if opts.DisallowBCD {
		return ErrBCDDisallowed
	}
	m := len(v.Digits)
	byteLen := (m + 1) / 2
	n := uintLength(uint64(byteLen))
	if n == 0 {
		n = 1
	}
	if err := s.reserve(1 + n + 4 + byteLen); err != nil {
		return err
	}
	base := hdrBCDPosBase
	if v.Negative {
		base = hdrBCDNegBase
	}
	s.appendByteUnchecked(base + byte(n-1))
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(byteLen))
	s.appendBytesUnchecked(tmp[:n])
	var exp [4]byte
	binary.LittleEndian.PutUint32(exp[:], uint32(v.Exponent))
	s.appendBytesUnchecked(exp[:])

	digits := v.Digits
	i := 0
	if m%2 == 1 {
		s.appendByteUnchecked(digits[0] & 0x0f)
		i = 1
	}
	for ; i < m; i += 2 {
		hi := digits[i] & 0x0f
		lo := digits[i+1] & 0x0f
		s.appendByteUnchecked(hi<<4 | lo)
	}
	return nil
}

func decodeBCD(payload []byte, byteLen int, exponent int32, negative bool) BCD {
	if len(payload) == 0 {
		return BCD{Negative: negative, Exponent: exponent}
	}
	// The true digit count is 2*byteLen or 2*byteLen-1 and byteLen alone
	// cannot distinguish them (see DESIGN.md); this always yields the even
	// count, which is lossy for a value encoded with an odd digit count.
	digits := make([]byte, 0, byteLen*2)
	for _, b := range payload {
		digits = append(digits, b>>4, b&0x0f)
	}
	return BCD{Negative: negative, Exponent: exponent, Digits: digits}
}

func tagWidth(t uint64) int {
	if t == 0 {
		return 0
	}
	if t <= 0xff {
		return 1
	}
	return 8
}

func encodeTagPrefix(s *sink, t uint64) error {
	switch tagWidth(t) {
	case 0:
		return nil
	case 1:
		if err := s.reserve(2); err != nil {
			return err
		}
		s.appendByteUnchecked(hdrTag1)
		s.appendByteUnchecked(byte(t))
		return nil
	default:
		if err := s.reserve(9); err != nil {
			return err
		}
		s.appendByteUnchecked(hdrTag8)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], t)
		s.appendBytesUnchecked(tmp[:])
		return nil
	}
}
