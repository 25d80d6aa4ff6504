package view

import (
	"errors"
	"fmt"
	"math"
)

// Traits is the static configuration a view captures from its property bag.
type Traits struct {
	Layout              Layout
	MemorySpace         MemorySpace
	ExecutionSpace      ExecutionSpace
	WithoutInitializing bool
	AllowPadding        bool
	NoThrow             bool
	Unmanaged           bool
}

// View is a multidimensional array over shared, reference-counted memory.
//
// A View combines an index mapping with a tracker claiming the allocation
// the mapping points into. Copy shares the allocation and bumps its
// reference count; no element is ever duplicated by copying a view. Release
// drops the claim, and the allocation is freed when the last claim goes.
//
// The zero value is the null view: no data, no allocation, rank 0. It needs
// no heap memory and can be declared in a package-level var.
type View[T Scalar] struct {
	mapping Mapping[T]
	tracker Tracker
	traits  Traits
}

// New allocates a view of the given shape. Options may be given in any
// order, each kind at most once. The allocation is zero-filled on the
// execution space unless WithoutInitializing is supplied.
func New[T Scalar](shape []int, opts ...Option) (View[T], error) {
	p, err := NewProps(opts...)
	if err != nil {
		return View[T]{}, err
	}
	return NewWithProps[T](shape, p)
}

// MustNew is like New but panics on error. If NoThrow is among opts, an
// allocation failure returns the null view instead.
func MustNew[T Scalar](shape []int, opts ...Option) View[T] {
	p, err := NewProps(opts...)
	if err != nil {
		panic("view: " + err.Error())
	}
	v, err := NewWithProps[T](shape, p)
	if err != nil {
		if p.noThrow && errors.Is(err, ErrAllocation) {
			return View[T]{}
		}
		panic("view: " + err.Error())
	}
	return v
}

// NewWithProps allocates a view of the given shape configured by p. A
// missing label is filled with the empty label.
func NewWithProps[T Scalar](shape []int, p Props) (View[T], error) {
	if err := checkShape(shape); err != nil {
		return View[T]{}, err
	}
	p = WithIfUnset(p, Label(""))
	traits := traitsOf(p)

	pad := 1
	if traits.AllowPadding {
		pad = padUnit[T]()
	}
	strides, span, err := traits.Layout.Strides(shape, pad)
	if err != nil {
		return View[T]{}, err
	}
	esize := elemSize[T]()
	if span > math.MaxInt/esize {
		return View[T]{}, fmt.Errorf("%w: %v elements of %d bytes overflow", ErrInvalidShape, shape, esize)
	}

	label := MustGet(p, LabelKey)
	tracker, err := newTracker(traits.MemorySpace, label, span*esize)
	if err != nil {
		return View[T]{}, err
	}
	data := bytesAs[T](tracker.rec.data, span)

	if !traits.WithoutInitializing {
		err = traits.ExecutionSpace.ParallelFor(span, func(lo, hi int) error {
			clear(data[lo:hi])
			return nil
		})
		if err != nil {
			tracker.Reset()
			return View[T]{}, fmt.Errorf("initializing %q: %w", label, err)
		}
	}

	return View[T]{
		mapping: newMapping(data, shape, strides, span),
		tracker: tracker,
		traits:  traits,
	}, nil
}

// Wrap builds an unmanaged view over data. Nothing is allocated or tracked;
// the caller keeps data alive. Options that only make sense for an
// allocation (label, memory space, initialisation, padding) are rejected.
func Wrap[T Scalar](data []T, shape []int, opts ...Option) (View[T], error) {
	p, err := NewProps(opts...)
	if err != nil {
		return View[T]{}, err
	}
	for _, k := range []Kind{KindLabel, KindMemorySpace, KindWithoutInitializing, KindAllowPadding} {
		if p.Has(k) {
			return View[T]{}, fmt.Errorf("%w: %s on an unmanaged view", ErrIncompatibleOption, k)
		}
	}
	if err := checkShape(shape); err != nil {
		return View[T]{}, err
	}
	if data == nil {
		return View[T]{}, fmt.Errorf("%w: nil data", ErrInvalidShape)
	}

	traits := traitsOf(p)
	traits.Unmanaged = true
	strides, span, err := traits.Layout.Strides(shape, 1)
	if err != nil {
		return View[T]{}, err
	}
	if span > len(data) {
		return View[T]{}, fmt.Errorf("%w: shape %v needs %d elements, have %d", ErrExtentMismatch, shape, span, len(data))
	}
	return View[T]{mapping: newMapping(data, shape, strides, span), traits: traits}, nil
}

// traitsOf resolves the static configuration of p. The memory space falls
// back to the execution space's default.
func traitsOf(p Props) Traits {
	t := Traits{
		Layout:              LayoutRight{},
		ExecutionSpace:      DefaultExecutionSpace,
		WithoutInitializing: p.noInit,
		AllowPadding:        p.padding,
		NoThrow:             p.noThrow,
	}
	if l, ok := Get(p, LayoutKey); ok && l != nil {
		t.Layout = l
	}
	if e, ok := Get(p, ExecutionSpaceKey); ok && e != nil {
		t.ExecutionSpace = e
	}
	t.MemorySpace = t.ExecutionSpace.DefaultMemorySpace()
	if m, ok := Get(p, MemorySpaceKey); ok && m != nil {
		t.MemorySpace = m
	}
	if t.MemorySpace == nil {
		t.MemorySpace = DefaultMemorySpace
	}
	return t
}

func checkShape(shape []int) error {
	if len(shape) > MaxRank {
		return fmt.Errorf("%w: rank %d exceeds %d", ErrInvalidShape, len(shape), MaxRank)
	}
	size := 1
	for i, e := range shape {
		if e < 0 {
			return fmt.Errorf("%w: extent %d of dimension %d", ErrInvalidShape, e, i)
		}
		if e != 0 && size > math.MaxInt/e {
			return fmt.Errorf("%w: %v elements overflow", ErrInvalidShape, shape)
		}
		size *= e
	}
	return nil
}

// padUnit returns the number of elements of T per cache line, or 1 if T does
// not divide a cache line.
func padUnit[T Scalar]() int {
	s := elemSize[T]()
	if s >= CacheLineSize || CacheLineSize%s != 0 {
		return 1
	}
	return CacheLineSize / s
}

// --------------------------------------------------------------------------
// Ownership
// --------------------------------------------------------------------------

// Copy returns a view sharing v's allocation. The reference count goes up
// by one; no data is copied.
func (v View[T]) Copy() View[T] {
	v.tracker = v.tracker.Copy()
	return v
}

// Move returns v's claim and leaves v null. The reference count does not
// change.
func (v *View[T]) Move() View[T] {
	out := *v
	*v = View[T]{}
	return out
}

// Release drops v's claim and makes v null. Releasing a null view does
// nothing.
func (v *View[T]) Release() {
	v.tracker.Reset()
	*v = View[T]{}
}

// Owned reports whether v holds a claim on a tracked allocation.
func (v View[T]) Owned() bool { return !v.tracker.IsEmpty() }

// UseCount returns the reference count of v's allocation, or 0 if v is not
// owned.
func (v View[T]) UseCount() int64 { return v.tracker.UseCount() }

// Tracker returns v's tracker without adding a claim.
func (v View[T]) Tracker() Tracker { return v.tracker }

// Aliases reports whether a and b share the same allocation.
func Aliases[T, U Scalar](a View[T], b View[U]) bool {
	return a.tracker.SameRecord(b.tracker)
}

// --------------------------------------------------------------------------
// Read access
// --------------------------------------------------------------------------

// Label returns the allocation label, or "" for unmanaged and null views.
func (v View[T]) Label() string { return v.tracker.Label() }

// Traits returns the static configuration of v.
func (v View[T]) Traits() Traits { return v.traits }

// Mapping returns v's index mapping. It carries no claim on the allocation.
func (v View[T]) Mapping() Mapping[T] { return v.mapping }

// IsNull reports whether v has no data.
func (v View[T]) IsNull() bool { return v.mapping.IsNull() }

// Rank returns the number of dimensions.
func (v View[T]) Rank() int { return v.mapping.Rank() }

// Extent returns the extent of dimension i.
func (v View[T]) Extent(i int) int { return v.mapping.Extent(i) }

// Extents returns a copy of the extents.
func (v View[T]) Extents() []int { return v.mapping.Extents() }

// Stride returns the stride of dimension i in elements.
func (v View[T]) Stride(i int) int { return v.mapping.Stride(i) }

// Size returns the number of elements.
func (v View[T]) Size() int { return v.mapping.Size() }

// Span returns the number of elements spanned, padding included.
func (v View[T]) Span() int { return v.mapping.Span() }

// Offset returns the linear offset of idx.
func (v View[T]) Offset(idx ...int) int { return v.mapping.Offset(idx...) }

// Data returns the underlying element slice of length Span.
func (v View[T]) Data() []T { return v.mapping.data }

// At returns the element at idx.
func (v View[T]) At(idx ...int) T {
	return v.mapping.data[v.mapping.Offset(idx...)]
}

// Set stores x at idx.
func (v View[T]) Set(x T, idx ...int) {
	v.mapping.data[v.mapping.Offset(idx...)] = x
}

// String returns a short description such as
// View<float64>("buf", [3 3], owned, uses=2).
func (v View[T]) String() string {
	var zero T
	switch {
	case v.IsNull() && !v.Owned():
		return fmt.Sprintf("View<%T>(null)", zero)
	case !v.Owned():
		return fmt.Sprintf("View<%T>(%v, unmanaged)", zero, v.Extents())
	}
	return fmt.Sprintf("View<%T>(%q, %v, owned, uses=%d)", zero, v.Label(), v.Extents(), v.UseCount())
}
