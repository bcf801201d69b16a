package vpack

// Type bytes for the tagged binary format. Every encoded value begins
// with one of these; ranges of contiguous bytes pack a width or length
// variant into the low bits the way tag.go's ValueType/LowBits split does
// for the teacher's tag byte, generalized to this format's wider type
// table.
const (
	hdrNone byte = 0x00

	hdrArrayEmpty byte = 0x01
	// hdrArrayOpen is the provisional header written at OpenArray time,
	// before the final width is known; Close patches it to one of
	// hdrArrayW1..hdrArrayW8.
	hdrArrayOpen byte = 0x06
	hdrArrayW1   byte = 0x02
	hdrArrayW2   byte = 0x03
	hdrArrayW4   byte = 0x04
	hdrArrayW8   byte = 0x05
	hdrArrayCompact byte = 0x13

	hdrObjectEmpty byte = 0x0a
	// hdrObjectOpen is the provisional header for objects, analogous to
	// hdrArrayOpen; Close patches it to one of hdrObjectW1..hdrObjectW8.
	hdrObjectOpen byte = 0x0b
	hdrObjectW1   byte = 0x0b
	hdrObjectW2   byte = 0x0c
	hdrObjectW4   byte = 0x0d
	hdrObjectW8   byte = 0x0e
	hdrObjectCompact byte = 0x14

	hdrNull     byte = 0x18
	hdrFalse    byte = 0x19
	hdrTrue     byte = 0x1a
	hdrDouble   byte = 0x1b
	hdrUTCDate  byte = 0x1c
	hdrExternal byte = 0x1d

	hdrIntBase  byte = 0x1f // + length(1..8)
	hdrUIntBase byte = 0x27 // + length(1..8)

	hdrSmallIntPosBase byte = 0x30 // 0..9
	hdrSmallIntNegBase byte = 0x40 // base+v, v in -6..-1 -> 0x3a..0x3f

	hdrShortStringBase byte = 0x40 // + len, len in 0..126 -> 0x40..0xbe
	hdrLongString      byte = 0xbf

	hdrBinaryBase byte = 0xc0 // + (L-1), L in 1..8 -> 0xc0..0xc7

	hdrBCDPosBase byte = 0xc8 // + (N-1) -> 0xc8..0xcf
	hdrBCDNegBase byte = 0xd0 // + (N-1) -> 0xd0..0xd7

	hdrTag1 byte = 0xee
	hdrTag8 byte = 0xef
)

// ValueKind is the coarse category of an encoded value, used by Slice to
// dispatch decoding and by Value to describe what a caller wants to add.
type ValueKind uint8

const (
	ValueKindNull ValueKind = iota
	ValueKindBool
	ValueKindInt
	ValueKindUInt
	ValueKindDouble
	ValueKindUTCDate
	ValueKindString
	ValueKindBinary
	ValueKindBCD
	ValueKindExternal
	ValueKindArray
	ValueKindObject
)

func (k ValueKind) String() string {
	switch k {
	case ValueKindNull:
		return "null"
	case ValueKindBool:
		return "bool"
	case ValueKindInt:
		return "int"
	case ValueKindUInt:
		return "uint"
	case ValueKindDouble:
		return "double"
	case ValueKindUTCDate:
		return "utc-date"
	case ValueKindString:
		return "string"
	case ValueKindBinary:
		return "binary"
	case ValueKindBCD:
		return "bcd"
	case ValueKindExternal:
		return "external"
	case ValueKindArray:
		return "array"
	case ValueKindObject:
		return "object"
	default:
		return "unknown"
	}
}

func isArrayHeader(b byte) bool {
	switch b {
	case hdrArrayEmpty, hdrArrayOpen, hdrArrayW1, hdrArrayW2, hdrArrayW4, hdrArrayW8, hdrArrayCompact:
		return true
	default:
		return false
	}
}

func isObjectHeader(b byte) bool {
	switch b {
	case hdrObjectEmpty, hdrObjectOpen, hdrObjectW2, hdrObjectW4, hdrObjectW8, hdrObjectCompact:
		return true
	default:
		return false
	}
}

func isCompactHeader(b byte) bool {
	return b == hdrArrayCompact || b == hdrObjectCompact
}

// widthOf returns the index-table width for a closed indexed compound
// header, or 0 if b is not one of those headers.
func widthOf(b byte) int {
	switch b {
	case hdrArrayW1, hdrObjectW1:
		return 1
	case hdrArrayW2, hdrObjectW2:
		return 2
	case hdrArrayW4, hdrObjectW4:
		return 4
	case hdrArrayW8, hdrObjectW8:
		return 8
	default:
		return 0
	}
}
