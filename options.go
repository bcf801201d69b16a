package vpack

// AttributeTranslator maps an object attribute name to a pre-encoded key
// form (typically a short integer tag into a shared dictionary). When a
// translation exists, the Builder copies the translated bytes verbatim in
// place of the string key encoding; see translator.go for the concrete
// hash-table backed implementation.
type AttributeTranslator interface {
	Translate(name string) ([]byte, bool)
}

// PaddingBehavior selects whether the compound closer inserts zero-byte
// alignment padding ahead of an indexed compound's offset table.
type PaddingBehavior int

const (
	// PaddingAlign inserts the minimum padding needed so the index table
	// starts at an offset evenly divisible by the chosen width W.
	PaddingAlign PaddingBehavior = iota
	// PaddingNone never inserts padding, packing the index table directly
	// after the payload even when reads of table entries would be
	// unaligned relative to the compound's start.
	PaddingNone
)

// Options configures a Builder's behavior. The zero value is not valid;
// use DefaultOptions or NewOptions.
type Options struct {
	// DisallowExternals rejects AddExternal with ErrExternalsDisallowed.
	DisallowExternals bool
	// DisallowBCD rejects BCD emission with ErrBCDDisallowed.
	DisallowBCD bool
	// AttributeTranslator, if non-nil, is consulted for every object key
	// before it is encoded as a string.
	AttributeTranslator AttributeTranslator
	// SortObjectKeys selects the sorted indexed object form (default
	// true). When false, the compound closer never emits an indexed
	// object; see DESIGN.md for why the unsorted-indexed variant is not
	// produced by this Builder.
	SortObjectKeys bool
	// CheckAttributeUniqueness verifies, at each object Close, that no
	// two keys are byte-identical.
	CheckAttributeUniqueness bool
	// Padding controls index-table alignment padding, see PaddingBehavior.
	Padding PaddingBehavior
}

// DefaultOptions is the process-wide immutable default configuration.
// Treat it as a read-only singleton; never mutate its fields.
var DefaultOptions = &Options{
	SortObjectKeys: true,
}

// NewOptions returns a copy of DefaultOptions for callers who want to
// override a handful of fields without touching the shared singleton.
func NewOptions() *Options {
	cp := *DefaultOptions
	return &cp
}
