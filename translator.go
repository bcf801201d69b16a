package vpack

import "github.com/zeebo/xxh3"

// HashTranslator is an AttributeTranslator backed by an open-addressing
// hash table keyed by an xxh3 digest of the attribute name, the same
// hashing choice the reference dictionary indexing uses for its own
// attribute name table.
type HashTranslator struct {
	buckets []translatorEntry
	count   int
}

type translatorEntry struct {
	used  bool
	name  string
	value []byte
}

// NewHashTranslator returns an empty translator sized for approximately
// capacityHint entries before it needs to grow.
func NewHashTranslator(capacityHint int) *HashTranslator {
	n := 16
	for n < capacityHint*2 {
		n *= 2
	}
	return &HashTranslator{buckets: make([]translatorEntry, n)}
}

// Add registers a translation from name to its pre-encoded key bytes.
// value is copied.
func (t *HashTranslator) Add(name string, value []byte) {
	if t.count*2 >= len(t.buckets) {
		t.grow()
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	t.insert(name, cp)
}

func (t *HashTranslator) insert(name string, value []byte) {
	mask := uint64(len(t.buckets) - 1)
	h := xxh3.HashString(name)
	for i := h & mask; ; i = (i + 1) & mask {
		e := &t.buckets[i]
		if !e.used {
			*e = translatorEntry{used: true, name: name, value: value}
			t.count++
			return
		}
		if e.name == name {
			e.value = value
			return
		}
	}
}

func (t *HashTranslator) grow() {
	old := t.buckets
	t.buckets = make([]translatorEntry, len(old)*2)
	t.count = 0
	for _, e := range old {
		if e.used {
			t.insert(e.name, e.value)
		}
	}
}

// Translate implements AttributeTranslator.
func (t *HashTranslator) Translate(name string) ([]byte, bool) {
	if len(t.buckets) == 0 {
		return nil, false
	}
	mask := uint64(len(t.buckets) - 1)
	h := xxh3.HashString(name)
	for i := h & mask; ; i = (i + 1) & mask {
		e := &t.buckets[i]
		if !e.used {
			return nil, false
		}
		if e.name == name {
			return e.value, true
		}
	}
}
