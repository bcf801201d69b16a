package vpack

import "fmt"

// Kind identifies a class of error a Builder or Slice operation can raise.
// It mirrors the named exception kinds of the format's reference
// implementation so callers can branch on failure class with errors.Is.
type Kind int

const (
	_ Kind = iota
	KindNotSealed
	KindNeedOpenArray
	KindNeedOpenObject
	KindKeyAlreadyWritten
	KindKeyMustBeString
	KindExternalsDisallowed
	KindBCDDisallowed
	KindDuplicateAttributeName
	KindOutOfRange
	KindInternal
	KindAlreadyClosed
)

func (k Kind) String() string {
	switch k {
	case KindNotSealed:
		return "BuilderNotSealed"
	case KindNeedOpenArray:
		return "BuilderNeedOpenArray"
	case KindNeedOpenObject:
		return "BuilderNeedOpenObject"
	case KindKeyAlreadyWritten:
		return "BuilderKeyAlreadyWritten"
	case KindKeyMustBeString:
		return "BuilderKeyMustBeString"
	case KindExternalsDisallowed:
		return "BuilderExternalsDisallowed"
	case KindBCDDisallowed:
		return "BuilderBCDDisallowed"
	case KindDuplicateAttributeName:
		return "DuplicateAttributeName"
	case KindOutOfRange:
		return "OutOfRange"
	case KindInternal:
		return "InternalError"
	case KindAlreadyClosed:
		return "BuilderAlreadyClosed"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by this package. Kind lets
// callers use errors.Is against the sentinel Err* values regardless of
// any detail text appended to Msg.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrNotSealed              = &Error{Kind: KindNotSealed, Msg: "vpack: builder is not sealed"}
	ErrNeedOpenArray          = &Error{Kind: KindNeedOpenArray, Msg: "vpack: not inside an open array"}
	ErrNeedOpenObject         = &Error{Kind: KindNeedOpenObject, Msg: "vpack: not inside an open object"}
	ErrKeyAlreadyWritten      = &Error{Kind: KindKeyAlreadyWritten, Msg: "vpack: key already written, value expected"}
	ErrKeyMustBeString        = &Error{Kind: KindKeyMustBeString, Msg: "vpack: object key must be a string"}
	ErrExternalsDisallowed    = &Error{Kind: KindExternalsDisallowed, Msg: "vpack: external values are disallowed by options"}
	ErrBCDDisallowed          = &Error{Kind: KindBCDDisallowed, Msg: "vpack: BCD values are disallowed by options"}
	ErrDuplicateAttributeName = &Error{Kind: KindDuplicateAttributeName, Msg: "vpack: duplicate attribute name"}
	ErrOutOfRange             = &Error{Kind: KindOutOfRange, Msg: "vpack: value out of representable range"}
	ErrInternal               = &Error{Kind: KindInternal, Msg: "vpack: internal invariant violated"}
	ErrAlreadyClosed          = &Error{Kind: KindAlreadyClosed, Msg: "vpack: builder already holds a sealed top-level value"}
)

// withDetail returns a copy of base carrying additional context, still
// matching base via errors.Is.
func withDetail(base *Error, detail string) error {
	if detail == "" {
		return base
	}
	return &Error{Kind: base.Kind, Msg: fmt.Sprintf("%s: %s", base.Msg, detail)}
}
