package vpack

// Clone appends a structural copy of s into the currently open compound (or
// as the sole top-level value on an empty Builder), rebuilding compounds
// member-by-member rather than copying bytes verbatim. Unlike AddSlice,
// Clone lets the destination Builder choose its own encoding for every
// nested compound, so options such as a different AttributeTranslator or
// SortObjectKeys take effect on the copy. A tag prefix on s is preserved.
func (b *Builder) Clone(s Slice) error {
	f, hasFrame := b.top()
	if hasFrame && f.isObject && !b.keyWritten {
		return ErrKeyMustBeString
	}
	if !hasFrame && !b.IsEmpty() {
		return ErrAlreadyClosed
	}
	var cp checkpoint
	if hasFrame {
		cp, _ = b.reportAdd()
	}
	if err := b.cloneInto(s); err != nil {
		if hasFrame {
			b.cleanupAdd(cp)
		}
		return err
	}
	return nil
}

func (b *Builder) cloneInto(s Slice) error {
	if tag, ok := s.HasTag(); ok {
		if err := encodeTagPrefix(b.sink, tag); err != nil {
			return err
		}
		return b.cloneValueInto(s.Value())
	}
	return b.cloneValueInto(s)
}

func (b *Builder) cloneValueInto(s Slice) error {
	switch s.Kind() {
	case ValueKindArray:
		return b.cloneArrayInto(s)
	case ValueKindObject:
		return b.cloneObjectInto(s)
	default:
		v, err := sliceToValue(s)
		if err != nil {
			return err
		}
		return b.encodeValue(v)
	}
}

// cloneArrayInto and cloneObjectInto push a frame directly (bypassing the
// normal OpenArray/OpenObject add-bookkeeping, since Clone already
// accounted for the whole tagged compound as a single parent member) then
// recurse into Clone for each member, which re-establishes bookkeeping at
// the next level down.
func (b *Builder) cloneArrayInto(s Slice) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	if err := b.openArrayRaw(false); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		mv, err := s.At(i)
		if err != nil {
			return err
		}
		if err := b.Clone(mv); err != nil {
			return err
		}
	}
	return b.Close()
}

func (b *Builder) cloneObjectInto(s Slice) error {
	keys, err := s.Keys()
	if err != nil {
		return err
	}
	if err := b.openObjectRaw(false); err != nil {
		return err
	}
	for _, k := range keys {
		mv, err := s.Get(k)
		if err != nil {
			return err
		}
		if err := b.AddKey(k); err != nil {
			return err
		}
		if err := b.Clone(mv); err != nil {
			return err
		}
	}
	return b.Close()
}

// sliceToValue converts a scalar Slice into a Value carrier for re-adding
// through the normal encode path.
func sliceToValue(s Slice) (Value, error) {
	switch s.Kind() {
	case ValueKindNull:
		return NullValue(), nil
	case ValueKindBool:
		v, err := s.Bool()
		return BoolValue(v), err
	case ValueKindInt:
		v, err := s.Int()
		return IntValue(v), err
	case ValueKindUInt:
		v, err := s.UInt()
		return UIntValue(v), err
	case ValueKindDouble:
		v, err := s.Double()
		return DoubleValue(v), err
	case ValueKindUTCDate:
		v, err := s.UTCDate()
		return UTCDateValue(v), err
	case ValueKindString:
		v, err := s.String()
		return StringValue(v), err
	case ValueKindBinary:
		v, err := s.Binary()
		return BinaryValue(v), err
	case ValueKindBCD:
		v, err := s.BCD()
		return BCDValue(v), err
	case ValueKindExternal:
		v, err := s.External()
		return ExternalValue(v), err
	default:
		return Value{}, withDetail(ErrInternal, "unsupported kind for clone")
	}
}
