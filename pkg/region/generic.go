package region

import (
	"unsafe"

	"github.com/flier/region/pkg/xunsafe"
)

// New pushes space for one T and returns a pointer to it, uninitialized.
// It returns nil if the push fails. Alignment follows a.Align(), which may
// be narrower than T's required alignment for types wider than a pointer;
// callers with stricter alignment needs should create the Region with a
// matching Description.Align.
func New[T any](a *Region) *T {
	var zero T
	p := a.Push(uint64(unsafe.Sizeof(zero)))
	if p == nil {
		return nil
	}
	return xunsafe.Cast[T]((*byte)(p))
}

// NewZero is New followed by zeroing the value.
func NewZero[T any](a *Region) *T {
	var zero T
	p := a.PushZero(uint64(unsafe.Sizeof(zero)))
	if p == nil {
		return nil
	}
	return xunsafe.Cast[T]((*byte)(p))
}

// NewSlice pushes space for n contiguous, uninitialized Ts and returns
// them as a slice backed by the arena. It returns nil if n is zero or the
// push fails.
func NewSlice[T any](a *Region, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	p := a.Push(uint64(unsafe.Sizeof(zero)) * uint64(n))
	if p == nil {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}

// NewSliceZero is NewSlice followed by zeroing every element.
func NewSliceZero[T any](a *Region, n int) []T {
	if n <= 0 {
		return nil
	}
	var zero T
	p := a.PushZero(uint64(unsafe.Sizeof(zero)) * uint64(n))
	if p == nil {
		return nil
	}
	return unsafe.Slice((*T)(p), n)
}
