// Package collection provides higher-order helpers over an already
// encoded array or object Slice: forEach, filter, find, keep, remove, and
// friends. It
// is an external collaborator of the core encoder, never imported by the
// vpack package itself, matching how the reference implementation keeps
// Collection a separate header from Builder/Slice.
package collection

import "github.com/arangodb/go-vpack"

// NotFound is returned by IndexOf when no element matches.
const NotFound = -1

// Predicate reports whether the member at index i (0-based) should be
// selected. Index is supplied because some predicates (e.g. "every other
// element") are position-dependent.
type Predicate func(v vpack.Slice, index int) bool

// ForEach calls fn for every member of an array Slice, stopping early if
// fn returns false.
func ForEach(s vpack.Slice, fn func(v vpack.Slice, index int) bool) error {
	n, err := s.Length()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		mv, err := s.At(i)
		if err != nil {
			return err
		}
		if !fn(mv, i) {
			return nil
		}
	}
	return nil
}

// Filter returns a new array Builder containing only members for which
// pred returns true.
func Filter(s vpack.Slice, pred Predicate) (*vpack.Builder, error) {
	b := vpack.NewBuilder()
	if err := b.OpenArray(false); err != nil {
		return nil, err
	}
	var outerErr error
	err := ForEach(s, func(v vpack.Slice, i int) bool {
		if pred(v, i) {
			if err := b.AddSlice(v); err != nil {
				outerErr = err
				return false
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if outerErr != nil {
		return nil, outerErr
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

// Find returns the first member for which pred is true, or a None Slice.
func Find(s vpack.Slice, pred Predicate) (vpack.Slice, error) {
	var found vpack.Slice
	err := ForEach(s, func(v vpack.Slice, i int) bool {
		if pred(v, i) {
			found = v
			return false
		}
		return true
	})
	return found, err
}

// Contains reports whether any member satisfies pred.
func Contains(s vpack.Slice, pred Predicate) (bool, error) {
	v, err := Find(s, pred)
	if err != nil {
		return false, err
	}
	return !v.IsNone(), nil
}

// ContainsSlice reports whether other's bytes exactly match some member.
func ContainsSlice(s vpack.Slice, other vpack.Slice) (bool, error) {
	idx, err := IndexOf(s, other)
	if err != nil {
		return false, err
	}
	return idx != NotFound, nil
}

// IndexOf returns the position of the first member whose bytes exactly
// match other, or NotFound.
func IndexOf(s vpack.Slice, other vpack.Slice) (int, error) {
	target, err := other.Bytes()
	if err != nil {
		return NotFound, err
	}
	result := NotFound
	err = ForEach(s, func(v vpack.Slice, i int) bool {
		b, err := v.Bytes()
		if err != nil {
			return true
		}
		if bytesEqual(b, target) {
			result = i
			return false
		}
		return true
	})
	return result, err
}

// All reports whether every member satisfies pred.
func All(s vpack.Slice, pred Predicate) (bool, error) {
	ok := true
	err := ForEach(s, func(v vpack.Slice, i int) bool {
		if !pred(v, i) {
			ok = false
			return false
		}
		return true
	})
	return ok, err
}

// Any reports whether some member satisfies pred.
func Any(s vpack.Slice, pred Predicate) (bool, error) {
	return Contains(s, pred)
}

// Keys returns an object's keys, sorted in whatever order the object's own
// index table stores them (insertion order for compact objects, sorted
// order for indexed ones).
func Keys(s vpack.Slice) ([]string, error) {
	return s.Keys()
}

// Values returns a new array Builder holding a copy of every value of an
// object Slice, discarding the keys.
func Values(s vpack.Slice) (*vpack.Builder, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	b := vpack.NewBuilder()
	if err := b.OpenArray(false); err != nil {
		return nil, err
	}
	for _, k := range keys {
		mv, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if err := b.AddSlice(mv); err != nil {
			return nil, err
		}
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

// Extract returns a new array Builder holding elements [from, to) of an
// array Slice. Negative indices count from the end, as in from=-1 meaning
// the last element.
func Extract(s vpack.Slice, from, to int) (*vpack.Builder, error) {
	n, err := s.Length()
	if err != nil {
		return nil, err
	}
	from = normalizeIndex(from, n)
	to = normalizeIndex(to, n)
	if from < 0 {
		from = 0
	}
	if to > n {
		to = n
	}
	b := vpack.NewBuilder()
	if err := b.OpenArray(false); err != nil {
		return nil, err
	}
	for i := from; i < to; i++ {
		mv, err := s.At(i)
		if err != nil {
			return nil, err
		}
		if err := b.AddSlice(mv); err != nil {
			return nil, err
		}
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		return n + i
	}
	return i
}

// Concat returns a new array Builder holding every element of s1 followed
// by every element of s2.
func Concat(s1, s2 vpack.Slice) (*vpack.Builder, error) {
	b := vpack.NewBuilder()
	if err := b.OpenArray(false); err != nil {
		return nil, err
	}
	for _, s := range []vpack.Slice{s1, s2} {
		n, err := s.Length()
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			mv, err := s.At(i)
			if err != nil {
				return nil, err
			}
			if err := b.AddSlice(mv); err != nil {
				return nil, err
			}
		}
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

// Keep returns a new object Builder containing only the named keys of an
// object Slice, in the order keys is given.
func Keep(s vpack.Slice, keys []string) (*vpack.Builder, error) {
	b := vpack.NewBuilder()
	if err := b.OpenObject(false); err != nil {
		return nil, err
	}
	for _, k := range keys {
		mv, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if mv.IsNone() {
			continue
		}
		if err := b.AddKeySlice(k, mv); err != nil {
			return nil, err
		}
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

// Remove returns a new object Builder with the named keys omitted.
func Remove(s vpack.Slice, keys []string) (*vpack.Builder, error) {
	drop := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		drop[k] = struct{}{}
	}
	all, err := s.Keys()
	if err != nil {
		return nil, err
	}
	b := vpack.NewBuilder()
	if err := b.OpenObject(false); err != nil {
		return nil, err
	}
	for _, k := range all {
		if _, ok := drop[k]; ok {
			continue
		}
		mv, err := s.Get(k)
		if err != nil {
			return nil, err
		}
		if err := b.AddKeySlice(k, mv); err != nil {
			return nil, err
		}
	}
	if err := b.Close(); err != nil {
		return nil, err
	}
	return b, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
