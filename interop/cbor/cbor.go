// Package cbor bridges vpack documents and CBOR, so a vpack Slice can be
// re-encoded for wire formats that expect CBOR and vice versa. It builds on
// Slice.ToAny for decode and on Builder.Add/OpenArray/OpenObject for encode, and is an
// external collaborator: the core vpack package never imports it.
package cbor

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/arangodb/go-vpack"
)

// Marshal decodes s to a native Go value and re-encodes it as CBOR.
func Marshal(s vpack.Slice) ([]byte, error) {
	v, err := s.ToAny()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(v)
}

// Unmarshal decodes CBOR bytes into a new vpack document, returning the
// finished Builder. Map keys are always strings; encountering a non-string
// CBOR map key is an error since vpack objects only key on strings.
func Unmarshal(data []byte) (*vpack.Builder, error) {
	var v any
	if err := cbor.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	b := vpack.NewBuilder()
	if err := encodeAny(b, v); err != nil {
		return nil, err
	}
	return b, nil
}

// encodeAny adds v to b, opening a compound frame first when v is a slice
// or map. b must not have an open frame expecting a key when v is added as
// a bare value; callers that need a keyed member should call AddKey first.
func encodeAny(b *vpack.Builder, v any) error {
	switch t := v.(type) {
	case nil:
		return b.Add(vpack.NullValue())
	case bool:
		return b.Add(vpack.BoolValue(t))
	case int64:
		return b.Add(vpack.IntValue(t))
	case uint64:
		return b.Add(vpack.UIntValue(t))
	case float64:
		return b.Add(vpack.DoubleValue(t))
	case string:
		return b.Add(vpack.StringValue(t))
	case []byte:
		return b.Add(vpack.BinaryValue(t))
	case []any:
		if err := b.OpenArray(false); err != nil {
			return err
		}
		for _, elem := range t {
			if err := encodeAny(b, elem); err != nil {
				return err
			}
		}
		return b.Close()
	case map[any]any:
		if err := b.OpenObject(false); err != nil {
			return err
		}
		for k, elem := range t {
			key, ok := k.(string)
			if !ok {
				return vpack.ErrKeyMustBeString
			}
			if err := b.AddKey(key); err != nil {
				return err
			}
			if err := encodeAny(b, elem); err != nil {
				return err
			}
		}
		return b.Close()
	case map[string]any:
		if err := b.OpenObject(false); err != nil {
			return err
		}
		for key, elem := range t {
			if err := b.AddKey(key); err != nil {
				return err
			}
			if err := encodeAny(b, elem); err != nil {
				return err
			}
		}
		return b.Close()
	default:
		return vpack.ErrInternal
	}
}
