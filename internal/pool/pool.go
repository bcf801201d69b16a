// Package pool holds the toolbelt-backed object pools shared across the
// vpack packages: reusable Builders for request/response style call sites
// and scratch int slices for the compound closer's offset bookkeeping.
package pool

import "github.com/delaneyj/toolbelt"

var intSlicePool = toolbelt.New(func() []int { return make([]int, 0, 32) })

// GetIntSlice returns a scratch []int with length n, its backing array
// drawn from the pool when large enough.
func GetIntSlice(n int) []int {
	if n <= 0 {
		return nil
	}
	s := intSlicePool.Get()
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}

// PutIntSlice returns s to the pool for reuse.
func PutIntSlice(s []int) {
	if s == nil {
		return
	}
	intSlicePool.Put(s[:0])
}

// Pool wraps toolbelt.Pool[T] for callers, such as vpack.Builder reuse
// across request handlers, that want a generically typed object pool
// without importing toolbelt directly.
type Pool[T any] struct {
	inner toolbelt.Pool[T]
}

// New returns a Pool that constructs new values with newFn when empty.
func New[T any](newFn func() T) *Pool[T] {
	return &Pool[T]{inner: toolbelt.New(newFn)}
}

func (p *Pool[T]) Get() T     { return p.inner.Get() }
func (p *Pool[T]) Put(v T)    { p.inner.Put(v) }
