package view

import (
	"fmt"
	"math"
)

// Layout decides the element strides of a view. Strides returns one stride
// per extent and the span, the number of elements the mapping addresses.
// pad is the padding unit in elements, or 1 for no padding.
type Layout interface {
	Name() string
	Strides(extents []int, pad int) (strides []int, span int, err error)
}

// LayoutRight makes the last index the fastest varying (row-major).
type LayoutRight struct{}

// Name implements Layout.
func (LayoutRight) Name() string { return "LayoutRight" }

// Strides implements Layout.
func (LayoutRight) Strides(extents []int, pad int) ([]int, int, error) {
	r := len(extents)
	strides := make([]int, r)
	if r == 0 {
		return strides, 1, nil
	}
	stride := 1
	for i := r - 1; i >= 0; i-- {
		strides[i] = stride
		n := extents[i]
		if i == r-1 && r > 1 {
			n = padExtent(n, pad)
		}
		var err error
		if stride, err = mulSpan(stride, n, extents); err != nil {
			return nil, 0, err
		}
	}
	return strides, stride, nil
}

// LayoutLeft makes the first index the fastest varying (column-major).
type LayoutLeft struct{}

// Name implements Layout.
func (LayoutLeft) Name() string { return "LayoutLeft" }

// Strides implements Layout.
func (LayoutLeft) Strides(extents []int, pad int) ([]int, int, error) {
	r := len(extents)
	strides := make([]int, r)
	if r == 0 {
		return strides, 1, nil
	}
	stride := 1
	for i := 0; i < r; i++ {
		strides[i] = stride
		n := extents[i]
		if i == 0 && r > 1 {
			n = padExtent(n, pad)
		}
		var err error
		if stride, err = mulSpan(stride, n, extents); err != nil {
			return nil, 0, err
		}
	}
	return strides, stride, nil
}

// LayoutStride uses explicit per-dimension strides, in elements. Padding does
// not apply.
type LayoutStride struct {
	Stride []int
}

// Name implements Layout.
func (LayoutStride) Name() string { return "LayoutStride" }

// Strides implements Layout.
func (l LayoutStride) Strides(extents []int, _ int) ([]int, int, error) {
	if len(l.Stride) != len(extents) {
		return nil, 0, fmt.Errorf("%w: %d strides for rank %d", ErrRankMismatch, len(l.Stride), len(extents))
	}
	strides := make([]int, len(extents))
	span := 1
	for i, s := range l.Stride {
		if s <= 0 {
			return nil, 0, fmt.Errorf("%w: stride %d of dimension %d", ErrInvalidShape, s, i)
		}
		strides[i] = s
		if extents[i] == 0 {
			span = 0
			continue
		}
		if span == 0 {
			continue
		}
		reach, err := mulSpan(extents[i]-1, s, extents)
		if err != nil {
			return nil, 0, err
		}
		if span > math.MaxInt-reach {
			return nil, 0, fmt.Errorf("%w: span of %v overflows", ErrInvalidShape, extents)
		}
		span += reach
	}
	return strides, span, nil
}

// padExtent rounds n up to a multiple of pad once it exceeds one pad unit.
// Extents too close to math.MaxInt to be rounded are left as they are.
func padExtent(n, pad int) int {
	if pad <= 1 || n <= pad || n > math.MaxInt-pad {
		return n
	}
	return (n + pad - 1) / pad * pad
}

// mulSpan returns a*b, or ErrInvalidShape if the product overflows.
func mulSpan(a, b int, extents []int) (int, error) {
	if b != 0 && a > math.MaxInt/b {
		return 0, fmt.Errorf("%w: span of %v overflows", ErrInvalidShape, extents)
	}
	return a * b, nil
}

func layoutName(l Layout) string {
	if l == nil {
		return "<nil>"
	}
	return l.Name()
}
