package vpack

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Slice is a zero-copy, read-only cursor over a run of encoded bytes. The
// member Slices returned by At and Get alias the source bytes; At, Get and
// Keys do allocate a temporary offset table, and String, Keys and ToAny
// return copies.
type Slice struct {
	data []byte
}

// NewSlice wraps b, which must begin with a single complete encoded value.
// The bytes are not copied; the caller must keep b alive and unmodified for
// the Slice's lifetime.
func NewSlice(b []byte) Slice { return Slice{data: b} }

func (s Slice) header() byte {
	if len(s.data) == 0 {
		return hdrNone
	}
	return s.data[0]
}

// IsNone reports whether s wraps no bytes at all.
func (s Slice) IsNone() bool { return len(s.data) == 0 }

// Kind classifies the value s points at.
func (s Slice) Kind() ValueKind {
	h := s.header()
	switch {
	case h == hdrNull:
		return ValueKindNull
	case h == hdrFalse || h == hdrTrue:
		return ValueKindBool
	case h == hdrDouble:
		return ValueKindDouble
	case h == hdrUTCDate:
		return ValueKindUTCDate
	case h == hdrExternal:
		return ValueKindExternal
	case h >= hdrIntBase+1 && h <= hdrIntBase+8:
		return ValueKindInt
	case h >= hdrUIntBase+1 && h <= hdrUIntBase+8:
		return ValueKindUInt
	case h >= hdrSmallIntPosBase && h <= hdrSmallIntPosBase+9:
		return ValueKindInt
	case h >= 0x3a && h <= 0x3f:
		return ValueKindInt
	case h >= hdrShortStringBase && h <= hdrLongString:
		return ValueKindString
	case h >= hdrBinaryBase && h <= hdrBinaryBase+7:
		return ValueKindBinary
	case h >= hdrBCDPosBase && h <= hdrBCDPosBase+7:
		return ValueKindBCD
	case h >= hdrBCDNegBase && h <= hdrBCDNegBase+7:
		return ValueKindBCD
	case isArrayHeader(h):
		return ValueKindArray
	case isObjectHeader(h):
		return ValueKindObject
	case h == hdrTag1 || h == hdrTag8:
		// The kind of a tagged value is the kind of the value it wraps.
		return s.unwrapTag().Kind()
	default:
		return ValueKindNull
	}
}

func (s Slice) unwrapTag() Slice {
	h := s.header()
	switch h {
	case hdrTag1:
		return Slice{data: s.data[2:]}
	case hdrTag8:
		return Slice{data: s.data[9:]}
	default:
		return s
	}
}

// HasTag reports whether s begins with a tag prefix, and if so its value.
func (s Slice) HasTag() (uint64, bool) {
	switch s.header() {
	case hdrTag1:
		return uint64(s.data[1]), true
	case hdrTag8:
		return binary.LittleEndian.Uint64(s.data[1:9]), true
	default:
		return 0, false
	}
}

// Value strips any tag prefix and returns the underlying value's Slice.
func (s Slice) Value() Slice { return s.unwrapTag() }

// ByteSize returns the number of bytes s's value occupies, including any
// tag prefix.
func (s Slice) ByteSize() (int, error) {
	h := s.header()
	switch {
	case h == hdrTag1:
		n, err := s.unwrapTag().ByteSize()
		return n + 2, err
	case h == hdrTag8:
		n, err := s.unwrapTag().ByteSize()
		return n + 9, err
	case h == hdrNull || h == hdrFalse || h == hdrTrue:
		return 1, nil
	case h == hdrDouble || h == hdrUTCDate:
		return 9, nil
	case h == hdrExternal:
		return 9, nil
	case h >= hdrIntBase+1 && h <= hdrIntBase+8:
		return 1 + int(h-hdrIntBase), nil
	case h >= hdrUIntBase+1 && h <= hdrUIntBase+8:
		return 1 + int(h-hdrUIntBase), nil
	case h >= hdrSmallIntPosBase && h <= hdrSmallIntPosBase+9:
		return 1, nil
	case h >= 0x3a && h <= 0x3f:
		return 1, nil
	case h >= hdrShortStringBase && h < hdrLongString:
		return 1 + int(h-hdrShortStringBase), nil
	case h == hdrLongString:
		if len(s.data) < 9 {
			return 0, ErrInternal
		}
		return 9 + int(binary.LittleEndian.Uint64(s.data[1:9])), nil
	case h >= hdrBinaryBase && h <= hdrBinaryBase+7:
		l := int(h-hdrBinaryBase) + 1
		if len(s.data) < 1+l {
			return 0, ErrInternal
		}
		return 1 + l + int(readUintLE(s.data[1:1+l])), nil
	case h >= hdrBCDPosBase && h <= hdrBCDPosBase+7:
		return bcdByteSize(s.data, h-hdrBCDPosBase+1)
	case h >= hdrBCDNegBase && h <= hdrBCDNegBase+7:
		return bcdByteSize(s.data, h-hdrBCDNegBase+1)
	case h == hdrArrayEmpty || h == hdrObjectEmpty:
		return 1, nil
	case h == hdrArrayCompact || h == hdrObjectCompact:
		return compactByteSize(s.data)
	case isArrayHeader(h) || isObjectHeader(h):
		w := widthOf(h)
		if w == 0 {
			return 0, ErrInternal
		}
		if len(s.data) < 1+w {
			return 0, ErrInternal
		}
		return int(readUintLE(s.data[1 : 1+w])), nil
	default:
		return 0, withDetail(ErrInternal, fmt.Sprintf("unknown header 0x%02x", h))
	}
}

func bcdByteSize(data []byte, n byte) (int, error) {
	if len(data) < 1+int(n) {
		return 0, ErrInternal
	}
	byteLen := int(readUintLE(data[1 : 1+int(n)]))
	return 1 + int(n) + 4 + byteLen, nil
}

func compactByteSize(data []byte) (int, error) {
	total, n := readForwardVarint(data[1:])
	if n == 0 {
		return 0, ErrInternal
	}
	return int(total), nil
}

func readUintLE(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * i)
	}
	return v
}

func readForwardVarint(b []byte) (uint64, int) {
	var v uint64
	var shift uint
	for i, x := range b {
		v |= uint64(x&0x7f) << shift
		if x&0x80 == 0 {
			return v, i + 1
		}
		shift += 7
	}
	return 0, 0
}

func readBackwardVarint(b []byte) (uint64, int) {
	// b's last byte is the innermost byte of the varint; walk backward.
	var v uint64
	var shift uint
	i := len(b) - 1
	for i >= 0 {
		x := b[i]
		v |= uint64(x&0x7f) << shift
		i--
		if x&0x80 == 0 {
			return v, len(b) - i - 1
		}
		shift += 7
	}
	return 0, 0
}

// Bool decodes a boolean value.
func (s Slice) Bool() (bool, error) {
	switch s.header() {
	case hdrTrue:
		return true, nil
	case hdrFalse:
		return false, nil
	default:
		return false, withDetail(ErrInternal, "not a bool")
	}
}

// Int decodes an integer value, including the SmallInt and Int ranges.
func (s Slice) Int() (int64, error) {
	h := s.header()
	switch {
	case h >= hdrSmallIntPosBase && h <= hdrSmallIntPosBase+9:
		return int64(h - hdrSmallIntPosBase), nil
	case h >= 0x3a && h <= 0x3f:
		return int64(h) - int64(hdrSmallIntNegBase), nil
	case h >= hdrIntBase+1 && h <= hdrIntBase+8:
		l := int(h - hdrIntBase)
		if len(s.data) < 1+l {
			return 0, ErrInternal
		}
		return signExtend(readUintLE(s.data[1:1+l]), l), nil
	case h >= hdrUIntBase+1 && h <= hdrUIntBase+8:
		u, err := s.UInt()
		return int64(u), err
	default:
		return 0, withDetail(ErrInternal, "not an int")
	}
}

func signExtend(v uint64, l int) int64 {
	bits := uint(l) * 8
	if bits == 64 {
		return int64(v)
	}
	mask := uint64(1) << (bits - 1)
	return int64((v ^ mask) - mask)
}

// UInt decodes an unsigned integer value.
func (s Slice) UInt() (uint64, error) {
	h := s.header()
	switch {
	case h >= hdrSmallIntPosBase && h <= hdrSmallIntPosBase+9:
		return uint64(h - hdrSmallIntPosBase), nil
	case h >= hdrUIntBase+1 && h <= hdrUIntBase+8:
		l := int(h - hdrUIntBase)
		if len(s.data) < 1+l {
			return 0, ErrInternal
		}
		return readUintLE(s.data[1 : 1+l]), nil
	default:
		return 0, withDetail(ErrInternal, "not a uint")
	}
}

// Double decodes an IEEE-754 double.
func (s Slice) Double() (float64, error) {
	if s.header() != hdrDouble || len(s.data) < 9 {
		return 0, withDetail(ErrInternal, "not a double")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(s.data[1:9])), nil
}

// UTCDate decodes a UTC date value as milliseconds since epoch.
func (s Slice) UTCDate() (int64, error) {
	if s.header() != hdrUTCDate || len(s.data) < 9 {
		return 0, withDetail(ErrInternal, "not a utc-date")
	}
	return int64(binary.LittleEndian.Uint64(s.data[1:9])), nil
}

// External decodes the raw pointer bytes of an external value.
func (s Slice) External() (uintptr, error) {
	if s.header() != hdrExternal || len(s.data) < 9 {
		return 0, withDetail(ErrInternal, "not an external")
	}
	return uintptr(binary.LittleEndian.Uint64(s.data[1:9])), nil
}

// String decodes a short or long string value.
func (s Slice) String() (string, error) {
	h := s.header()
	switch {
	case h >= hdrShortStringBase && h < hdrLongString:
		l := int(h - hdrShortStringBase)
		if len(s.data) < 1+l {
			return "", ErrInternal
		}
		return string(s.data[1 : 1+l]), nil
	case h == hdrLongString:
		if len(s.data) < 9 {
			return "", ErrInternal
		}
		l := int(binary.LittleEndian.Uint64(s.data[1:9]))
		if len(s.data) < 9+l {
			return "", ErrInternal
		}
		return string(s.data[9 : 9+l]), nil
	default:
		return "", withDetail(ErrInternal, "not a string")
	}
}

// Binary decodes a binary payload. The returned slice aliases s's storage.
func (s Slice) Binary() ([]byte, error) {
	h := s.header()
	if h < hdrBinaryBase || h > hdrBinaryBase+7 {
		return nil, withDetail(ErrInternal, "not a binary")
	}
	l := int(h-hdrBinaryBase) + 1
	if len(s.data) < 1+l {
		return nil, ErrInternal
	}
	n := int(readUintLE(s.data[1 : 1+l]))
	if len(s.data) < 1+l+n {
		return nil, ErrInternal
	}
	return s.data[1+l : 1+l+n], nil
}

// BCD decodes a binary-coded-decimal value. As in the reference format, the
// wire encoding cannot by itself distinguish an odd digit count from an
// even one; this decode always yields 2*byteLen digits (see DESIGN.md).
func (s Slice) BCD() (BCD, error) {
	h := s.header()
	var negative bool
	var nWidth byte
	switch {
	case h >= hdrBCDPosBase && h <= hdrBCDPosBase+7:
		negative = false
		nWidth = h - hdrBCDPosBase + 1
	case h >= hdrBCDNegBase && h <= hdrBCDNegBase+7:
		negative = true
		nWidth = h - hdrBCDNegBase + 1
	default:
		return BCD{}, withDetail(ErrInternal, "not a bcd")
	}
	if len(s.data) < 1+int(nWidth)+4 {
		return BCD{}, ErrInternal
	}
	byteLen := int(readUintLE(s.data[1 : 1+int(nWidth)]))
	expOff := 1 + int(nWidth)
	exponent := int32(binary.LittleEndian.Uint32(s.data[expOff : expOff+4]))
	payloadOff := expOff + 4
	if len(s.data) < payloadOff+byteLen {
		return BCD{}, ErrInternal
	}
	return decodeBCD(s.data[payloadOff:payloadOff+byteLen], byteLen, exponent, negative), nil
}

// Length returns the member count of an array or object value.
func (s Slice) Length() (int, error) {
	h := s.header()
	switch {
	case h == hdrArrayEmpty || h == hdrObjectEmpty:
		return 0, nil
	case h == hdrArrayCompact || h == hdrObjectCompact:
		total, n := readForwardVarint(s.data[1:])
		if n == 0 {
			return 0, ErrInternal
		}
		count, cn := readBackwardVarint(s.data[:total])
		if cn == 0 {
			return 0, ErrInternal
		}
		return int(count), nil
	case isArrayHeader(h) || isObjectHeader(h):
		w := widthOf(h)
		if w == 0 {
			return 0, ErrInternal
		}
		size, err := s.ByteSize()
		if err != nil {
			return 0, err
		}
		if w == 8 {
			// count is the last W bytes of the value
			if size < w {
				return 0, ErrInternal
			}
			return int(readUintLE(s.data[size-w : size])), nil
		}
		if len(s.data) < 1+2*w {
			return 0, ErrInternal
		}
		return int(readUintLE(s.data[1+w : 1+2*w])), nil
	default:
		return 0, withDetail(ErrInternal, "not a compound")
	}
}

// At returns the i'th member of an array (0-based), decoding the index
// table if present or scanning linearly for compact arrays.
func (s Slice) At(i int) (Slice, error) {
	if s.Kind() != ValueKindArray {
		return Slice{}, withDetail(ErrInternal, "not an array")
	}
	offsets, err := s.memberOffsets()
	if err != nil {
		return Slice{}, err
	}
	if i < 0 || i >= len(offsets) {
		return Slice{}, withDetail(ErrOutOfRange, "array index out of range")
	}
	return Slice{data: s.data[offsets[i]:]}, nil
}

// memberOffsets returns, for any compound, the start offset (relative to
// s.data[0]) of each member in stored order: insertion order for arrays and
// compact objects, index-table (sorted key) order for indexed objects. For
// objects each offset points at the member's key.
func (s Slice) memberOffsets() ([]int, error) {
	h := s.header()
	n, err := s.Length()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	if h == hdrArrayCompact || h == hdrObjectCompact {
		total, hn := readForwardVarint(s.data[1:])
		if hn == 0 {
			return nil, ErrInternal
		}
		_, cn := readBackwardVarint(s.data[:total])
		if cn == 0 {
			return nil, ErrInternal
		}
		var elems []int
		pos := 1 + hn
		end := int(total) - cn
		for pos < end {
			mv := Slice{data: s.data[pos:end]}
			sz, err := mv.ByteSize()
			if err != nil {
				return nil, err
			}
			elems = append(elems, pos)
			pos += sz
		}
		if h == hdrObjectCompact {
			// elems interleaves key,value; only key offsets are members.
			offsets := make([]int, 0, len(elems)/2)
			for i := 0; i < len(elems); i += 2 {
				offsets = append(offsets, elems[i])
			}
			return offsets, nil
		}
		return elems, nil
	}
	w := widthOf(h)
	if w == 0 {
		return nil, ErrInternal
	}
	size, err := s.ByteSize()
	if err != nil {
		return nil, err
	}
	tableLen := n * w
	tableStart := size - tableLen
	if w == 8 {
		// The W=8 form appends the member count as a trailing w-byte field
		// after the index table (see finishIndexed), so the table itself
		// sits w bytes further back than for the narrower widths.
		tableStart -= w
	}
	offsets := make([]int, n)
	for i := 0; i < n; i++ {
		off := int(readUintLE(s.data[tableStart+i*w : tableStart+(i+1)*w]))
		offsets[i] = off
	}
	return offsets, nil
}

// Get looks up an object member by key, returning a None Slice if absent.
// Sorted indexed objects use binary search; compact and unsorted objects
// scan linearly.
func (s Slice) Get(key string) (Slice, error) {
	if s.Kind() != ValueKindObject {
		return Slice{}, withDetail(ErrInternal, "not an object")
	}
	h := s.header()
	offsets, err := s.memberOffsets()
	if err != nil {
		return Slice{}, err
	}
	sorted := h == hdrObjectW1 || h == hdrObjectW2 || h == hdrObjectW4 || h == hdrObjectW8
	if sorted {
		i := sort.Search(len(offsets), func(i int) bool {
			k, _ := Slice{data: s.data[offsets[i]:]}.String()
			return k >= key
		})
		if i < len(offsets) {
			k, err := Slice{data: s.data[offsets[i]:]}.String()
			if err == nil && k == key {
				keySlice := Slice{data: s.data[offsets[i]:]}
				ksz, err := keySlice.ByteSize()
				if err != nil {
					return Slice{}, err
				}
				return Slice{data: s.data[offsets[i]+ksz:]}, nil
			}
		}
		return Slice{}, nil
	}
	for _, off := range offsets {
		keySlice := Slice{data: s.data[off:]}
		k, err := keySlice.String()
		if err != nil {
			return Slice{}, err
		}
		if k == key {
			ksz, err := keySlice.ByteSize()
			if err != nil {
				return Slice{}, err
			}
			return Slice{data: s.data[off+ksz:]}, nil
		}
	}
	return Slice{}, nil
}

// HasKey reports whether an object contains key.
func (s Slice) HasKey(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return !v.IsNone(), nil
}

// Keys returns the object's member keys in index-table order.
func (s Slice) Keys() ([]string, error) {
	if s.Kind() != ValueKindObject {
		return nil, withDetail(ErrInternal, "not an object")
	}
	offsets, err := s.memberOffsets()
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(offsets))
	for i, off := range offsets {
		k, err := (Slice{data: s.data[off:]}).String()
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

// Bytes returns the raw encoded bytes of this value (its exact ByteSize
// prefix of the underlying buffer).
func (s Slice) Bytes() ([]byte, error) {
	n, err := s.ByteSize()
	if err != nil {
		return nil, err
	}
	if len(s.data) < n {
		return nil, ErrInternal
	}
	return s.data[:n], nil
}

// ToAny decodes s into a native Go value: nil, bool, int64/uint64, float64,
// string, []byte, []any, or map[string]any, with BCD and External values
// falling through as their own BCD/uintptr carrier types. It is the bridge
// used by the CBOR interop package rather than a general schema-validation
// facility.
func (s Slice) ToAny() (any, error) {
	switch s.Kind() {
	case ValueKindNull:
		return nil, nil
	case ValueKindBool:
		return s.Bool()
	case ValueKindInt:
		return s.Int()
	case ValueKindUInt:
		return s.UInt()
	case ValueKindDouble:
		return s.Double()
	case ValueKindUTCDate:
		return s.UTCDate()
	case ValueKindString:
		return s.String()
	case ValueKindBinary:
		b, err := s.Binary()
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(b))
		copy(out, b)
		return out, nil
	case ValueKindBCD:
		return s.BCD()
	case ValueKindExternal:
		return s.External()
	case ValueKindArray:
		n, err := s.Length()
		if err != nil {
			return nil, err
		}
		out := make([]any, n)
		for i := 0; i < n; i++ {
			mv, err := s.At(i)
			if err != nil {
				return nil, err
			}
			out[i], err = mv.ToAny()
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	case ValueKindObject:
		keys, err := s.Keys()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			mv, err := s.Get(k)
			if err != nil {
				return nil, err
			}
			out[k], err = mv.ToAny()
			if err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return nil, withDetail(ErrInternal, "unsupported kind for ToAny")
	}
}
