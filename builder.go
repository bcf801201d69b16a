package vpack

import "github.com/arangodb/go-vpack/internal/pool"

// frame is an entry on the open-compound stack: the start offset of the
// compound's header byte in the sink, and the base index into the shared
// member-offset index vector owned by this frame.
type frame struct {
	startOffset int
	indexBase   int
	unindexed   bool
	isObject    bool
}

const inlineFrames = 64

// Builder incrementally constructs a single encoded document in a
// contiguous byte buffer. It is append-only except for the in-place header
// patch and payload memmove performed by Close.
//
// A Builder is not safe for concurrent use; it is owned by exactly one
// goroutine at a time.
type Builder struct {
	sink    *sink
	opts    *Options
	stack   []frame // stack[:min(len,inlineFrames)] backed by arena
	arena   [inlineFrames]frame
	index   []int // member start offsets, relative to each owning frame's startOffset
	keyWritten bool
}

// NewBuilder returns an empty Builder using process-default options.
func NewBuilder() *Builder {
	return NewBuilderWithOptions(DefaultOptions)
}

// NewBuilderWithOptions returns an empty Builder governed by opts. opts is
// not copied; do not mutate it while the Builder is in use.
func NewBuilderWithOptions(opts *Options) *Builder {
	b := &Builder{sink: newSink(), opts: opts}
	b.stack = b.arena[:0]
	return b
}

// NewBuilderWithBuffer returns a Builder that writes into buf without
// taking ownership. Growth past cap(buf) fails with ErrOutOfRange.
func NewBuilderWithBuffer(buf []byte, opts *Options) *Builder {
	if opts == nil {
		opts = DefaultOptions
	}
	b := &Builder{sink: newBorrowedSink(buf), opts: opts}
	b.stack = b.arena[:0]
	return b
}

func (b *Builder) pushFrame(f frame) {
	if len(b.stack) < inlineFrames {
		b.arena[len(b.stack)] = f
		b.stack = b.arena[:len(b.stack)+1]
		return
	}
	b.stack = append(b.stack, f)
}

func (b *Builder) popFrame() frame {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return f
}

func (b *Builder) top() (*frame, bool) {
	if len(b.stack) == 0 {
		return nil, false
	}
	return &b.stack[len(b.stack)-1], true
}

// IsEmpty reports whether nothing has been written yet.
func (b *Builder) IsEmpty() bool { return b.sink.len() == 0 && len(b.stack) == 0 }

// IsClosed reports whether the Builder holds one complete, sealed value.
func (b *Builder) IsClosed() bool { return len(b.stack) == 0 && b.sink.len() > 0 }

// IsOpenArray reports whether the innermost open frame is an array.
func (b *Builder) IsOpenArray() bool {
	f, ok := b.top()
	return ok && !f.isObject
}

// IsOpenObject reports whether the innermost open frame is an object.
func (b *Builder) IsOpenObject() bool {
	f, ok := b.top()
	return ok && f.isObject
}

// KeyWritten reports whether, inside the innermost open object, a key has
// been written and a value is now expected.
func (b *Builder) KeyWritten() bool { return b.keyWritten }

// Reserve guarantees at least n more bytes are available without a
// reallocation.
func (b *Builder) Reserve(n int) error { return b.sink.reserve(n) }

// Size returns the total encoded length. Valid only when IsClosed.
func (b *Builder) Size() (int, error) {
	if !b.IsClosed() {
		return 0, ErrNotSealed
	}
	return b.sink.len(), nil
}

// Data returns the encoded bytes. Valid only when IsClosed. The returned
// slice aliases the Builder's internal buffer.
func (b *Builder) Data() ([]byte, error) {
	if !b.IsClosed() {
		return nil, ErrNotSealed
	}
	return b.sink.buf[:b.sink.pos], nil
}

// Slice returns a read-only Slice over the encoded document. Valid only
// when IsClosed.
func (b *Builder) Slice() (Slice, error) {
	data, err := b.Data()
	if err != nil {
		return Slice{}, err
	}
	return NewSlice(data), nil
}

// SharedSlice returns an independent copy of the encoded bytes as a Slice,
// safe to retain after the Builder is cleared or reused.
func (b *Builder) SharedSlice() (Slice, error) {
	data, err := b.Data()
	if err != nil {
		return Slice{}, err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return NewSlice(cp), nil
}

// Steal transfers ownership of the encoded buffer to the caller and leaves
// the Builder unusable until Clear is called.
func (b *Builder) Steal() ([]byte, error) {
	if !b.IsClosed() {
		return nil, ErrNotSealed
	}
	if b.sink.borrowed {
		return nil, withDetail(ErrInternal, "cannot steal a borrowed buffer")
	}
	out := b.sink.buf[:b.sink.pos]
	b.sink.bb = nil
	b.sink.buf = nil
	b.sink.pos = 0
	return out, nil
}

// Clear resets the Builder to empty, reusing its buffer capacity and index
// vector allocation.
func (b *Builder) Clear() {
	if b.sink.bb == nil && !b.sink.borrowed {
		b.sink = newSink()
	} else {
		b.sink.reset()
	}
	b.stack = b.arena[:0]
	b.index = b.index[:0]
	b.keyWritten = false
}

// ResetTo truncates the buffer to n bytes without touching the open-frame
// stack; callers use it to unwind to a previously recorded checkpoint.
func (b *Builder) ResetTo(n int) { b.sink.resetTo(n) }

// Advance moves the write cursor ahead by n bytes without writing,
// mirroring the sink primitive of the same name.
func (b *Builder) Advance(n int) { b.sink.advance(n) }

// checkKeyExpected enforces the object key/value alternation: a compound
// or bare value cannot open where a string key is required.
func (b *Builder) checkKeyExpected(isKeyLike bool) error {
	f, ok := b.top()
	if !ok || !f.isObject {
		return nil
	}
	if !b.keyWritten && !isKeyLike {
		return ErrKeyMustBeString
	}
	if b.keyWritten && isKeyLike {
		return ErrKeyAlreadyWritten
	}
	return nil
}

// reportAdd snapshots the pre-add state and records an index entry for the
// member about to be written, per the exception-safe add discipline.
func (b *Builder) reportAdd() (checkpoint, error) {
	f, ok := b.top()
	cp := checkpoint{
		pos:        b.sink.len(),
		indexLen:   len(b.index),
		keyWritten: b.keyWritten,
	}
	if ok {
		b.index = append(b.index, b.sink.len()-f.startOffset)
		if f.isObject {
			b.keyWritten = !b.keyWritten
		}
	}
	return cp, nil
}

type checkpoint struct {
	pos        int
	indexLen   int
	keyWritten bool
}

// cleanupAdd restores the Builder to cp, undoing a failed add.
func (b *Builder) cleanupAdd(cp checkpoint) {
	b.index = b.index[:cp.indexLen]
	b.keyWritten = cp.keyWritten
	b.sink.resetTo(cp.pos)
}

// translateKey consults the AttributeTranslator, if any, returning the
// pre-encoded replacement bytes and true on a hit.
func (b *Builder) translateKey(key string) ([]byte, bool) {
	if b.opts.AttributeTranslator == nil {
		return nil, false
	}
	return b.opts.AttributeTranslator.Translate(key)
}

func (b *Builder) writeKey(key string) error {
	if tr, ok := b.translateKey(key); ok {
		return b.sink.appendBytes(tr)
	}
	return encodeString(b.sink, key)
}

// OpenArray begins a new array. When unindexed is true, a non-empty array
// is closed in the compact form regardless of member count; an empty one
// still closes to the one-byte empty-array form.
func (b *Builder) OpenArray(unindexed bool) error {
	if err := b.checkKeyExpected(false); err != nil {
		return err
	}
	if _, ok := b.top(); !ok && !b.IsEmpty() {
		return ErrAlreadyClosed
	}
	cp, _ := b.reportAdd()
	if err := b.openArrayRaw(unindexed); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// openArrayRaw pushes an array frame without touching the parent's index
// or keyWritten bookkeeping; callers that already accounted for this
// compound as a single member (Clone) use it directly.
func (b *Builder) openArrayRaw(unindexed bool) error {
	if err := b.sink.reserve(9); err != nil {
		return err
	}
	start := b.sink.len()
	if unindexed {
		b.sink.appendByteUnchecked(hdrArrayCompact)
	} else {
		b.sink.appendByteUnchecked(hdrArrayOpen)
		var zero [8]byte
		b.sink.appendBytesUnchecked(zero[:])
	}
	b.pushFrame(frame{startOffset: start, indexBase: len(b.index), unindexed: unindexed})
	b.keyWritten = false
	return nil
}

// OpenObject begins a new object, analogous to OpenArray.
func (b *Builder) OpenObject(unindexed bool) error {
	if err := b.checkKeyExpected(false); err != nil {
		return err
	}
	if _, ok := b.top(); !ok && !b.IsEmpty() {
		return ErrAlreadyClosed
	}
	cp, _ := b.reportAdd()
	if err := b.openObjectRaw(unindexed); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

func (b *Builder) openObjectRaw(unindexed bool) error {
	if err := b.sink.reserve(9); err != nil {
		return err
	}
	start := b.sink.len()
	if unindexed {
		b.sink.appendByteUnchecked(hdrObjectCompact)
	} else {
		b.sink.appendByteUnchecked(hdrObjectOpen)
		var zero [8]byte
		b.sink.appendBytesUnchecked(zero[:])
	}
	b.pushFrame(frame{startOffset: start, indexBase: len(b.index), unindexed: unindexed, isObject: true})
	b.keyWritten = false
	return nil
}

// Close finalizes the innermost open compound, choosing its most compact
// wire encoding and patching the header in place.
func (b *Builder) Close() error {
	f, ok := b.top()
	if !ok {
		return ErrInternal
	}
	if f.isObject && b.keyWritten {
		return ErrKeyAlreadyWritten
	}
	if err := closeCompound(b, *f); err != nil {
		return err
	}
	b.popFrame()
	b.index = b.index[:f.indexBase]
	if pf, ok := b.top(); ok {
		b.keyWritten = pf.isObject && (len(b.index)-pf.indexBase)%2 == 1
	} else {
		b.keyWritten = false
	}
	return nil
}

// Add appends value inside an open array, or after AddKey inside an open
// object.
func (b *Builder) Add(value Value) error {
	f, ok := b.top()
	if !ok {
		if !b.IsEmpty() {
			return ErrAlreadyClosed
		}
		return b.encodeValue(value)
	}
	if f.isObject && !b.keyWritten {
		return ErrKeyMustBeString
	}
	cp, _ := b.reportAdd()
	if err := b.encodeValue(value); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddKey begins an object member by writing its key; a matching Add or
// AddSlice call must follow before any other structural operation.
func (b *Builder) AddKey(key string) error {
	f, ok := b.top()
	if !ok || !f.isObject {
		return ErrNeedOpenObject
	}
	if b.keyWritten {
		return ErrKeyAlreadyWritten
	}
	cp, _ := b.reportAdd()
	if err := b.writeKey(key); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddPair is a convenience for AddKey(key) followed by Add(value). If the
// value half fails, the key half is rolled back too, so the whole pair
// either lands or leaves no trace.
func (b *Builder) AddPair(key string, value Value) error {
	cp := checkpoint{pos: b.sink.len(), indexLen: len(b.index), keyWritten: b.keyWritten}
	if err := b.AddKey(key); err != nil {
		return err
	}
	if err := b.Add(value); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddSlice copies an already-encoded value verbatim into an open array.
func (b *Builder) AddSlice(s Slice) error {
	f, ok := b.top()
	if !ok {
		if !b.IsEmpty() {
			return ErrAlreadyClosed
		}
		raw, err := s.Bytes()
		if err != nil {
			return err
		}
		return b.sink.appendBytes(raw)
	}
	if f.isObject && !b.keyWritten {
		return ErrKeyMustBeString
	}
	cp, _ := b.reportAdd()
	raw, err := s.Bytes()
	if err != nil {
		b.cleanupAdd(cp)
		return err
	}
	if err := b.sink.appendBytes(raw); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddKeySlice is AddKey(key) followed by AddSlice(s), rolled back together.
func (b *Builder) AddKeySlice(key string, s Slice) error {
	cp := checkpoint{pos: b.sink.len(), indexLen: len(b.index), keyWritten: b.keyWritten}
	if err := b.AddKey(key); err != nil {
		return err
	}
	if err := b.AddSlice(s); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// Serializable is the sole open extension point: a value that knows how to
// append exactly one value to a Builder.
type Serializable interface {
	ToVPack(b *Builder) error
}

// AddSerializable invokes v.ToVPack, applying the same rollback discipline
// as any other add.
func (b *Builder) AddSerializable(v Serializable) error {
	f, ok := b.top()
	if !ok {
		if !b.IsEmpty() {
			return ErrAlreadyClosed
		}
		return v.ToVPack(b)
	}
	if f.isObject && !b.keyWritten {
		return ErrKeyMustBeString
	}
	cp, _ := b.reportAdd()
	if err := v.ToVPack(b); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddKeySerializable is AddKey(key) followed by AddSerializable(v), rolled
// back together.
func (b *Builder) AddKeySerializable(key string, v Serializable) error {
	cp := checkpoint{pos: b.sink.len(), indexLen: len(b.index), keyWritten: b.keyWritten}
	if err := b.AddKey(key); err != nil {
		return err
	}
	if err := b.AddSerializable(v); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddTagged appends a tagged value inside an open array. tag = 0 elides
// the tag prefix entirely.
func (b *Builder) AddTagged(tag uint64, value Value) error {
	f, ok := b.top()
	if !ok {
		if !b.IsEmpty() {
			return ErrAlreadyClosed
		}
		if err := encodeTagPrefix(b.sink, tag); err != nil {
			return err
		}
		return b.encodeValue(value)
	}
	if f.isObject && !b.keyWritten {
		return ErrKeyMustBeString
	}
	cp, _ := b.reportAdd()
	if err := encodeTagPrefix(b.sink, tag); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	if err := b.encodeValue(value); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddKeyTagged is AddKey(key) followed by AddTagged(tag, value), rolled
// back together.
func (b *Builder) AddKeyTagged(key string, tag uint64, value Value) error {
	cp := checkpoint{pos: b.sink.len(), indexLen: len(b.index), keyWritten: b.keyWritten}
	if err := b.AddKey(key); err != nil {
		return err
	}
	if err := b.AddTagged(tag, value); err != nil {
		b.cleanupAdd(cp)
		return err
	}
	return nil
}

// AddExternal appends a raw external pointer value.
func (b *Builder) AddExternal(ptr uintptr) error {
	return b.Add(ExternalValue(ptr))
}

func (b *Builder) encodeValue(v Value) error {
	switch v.kind {
	case ValueKindNull:
		return encodeNull(b.sink)
	case ValueKindBool:
		return encodeBool(b.sink, v.b)
	case ValueKindInt:
		return encodeInt(b.sink, v.i)
	case ValueKindUInt:
		return encodeUInt(b.sink, v.u)
	case ValueKindDouble:
		return encodeDouble(b.sink, v.f)
	case ValueKindUTCDate:
		return encodeUTCDate(b.sink, v.i)
	case ValueKindString:
		return encodeString(b.sink, v.s)
	case ValueKindBinary:
		return encodeBinary(b.sink, v.bin)
	case ValueKindBCD:
		return encodeBCD(b.sink, b.opts, v.bcd)
	case ValueKindExternal:
		return encodeExternal(b.sink, b.opts, v.ext)
	default:
		return withDetail(ErrInternal, "unsupported value kind")
	}
}

// HasKey reports whether the finalized top-level document, which must be
// an object, contains key.
func (b *Builder) HasKey(key string) (bool, error) {
	s, err := b.Slice()
	if err != nil {
		return false, err
	}
	return s.HasKey(key)
}

// GetKey looks up key on the finalized top-level object.
func (b *Builder) GetKey(key string) (Slice, error) {
	s, err := b.Slice()
	if err != nil {
		return Slice{}, err
	}
	return s.Get(key)
}

var builderPool = pool.New(func() *Builder { return NewBuilder() })

// AcquireBuilder returns a Builder from a shared pool, already Cleared.
// Callers that build many short-lived documents (e.g. per request) should
// pair this with ReleaseBuilder to avoid re-allocating the sink and frame
// arena on every call.
func AcquireBuilder() *Builder {
	b := builderPool.Get()
	b.Clear()
	return b
}

// ReleaseBuilder returns b to the shared pool. b must be closed or empty;
// it must not be used again by the caller afterward.
func ReleaseBuilder(b *Builder) {
	builderPool.Put(b)
}

// AppendAll bulk-appends every value in vs into the currently open array.
func (b *Builder) AppendAll(vs ...Value) error {
	for _, v := range vs {
		if err := b.Add(v); err != nil {
			return err
		}
	}
	return nil
}
