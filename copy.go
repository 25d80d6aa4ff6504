package view

import (
	"fmt"
	"slices"
)

// DeepCopy copies every element of src into dst. The extents must match;
// layouts may differ. This is the only operation that duplicates elements.
func DeepCopy[T Scalar](dst, src View[T]) error {
	if !slices.Equal(dst.Extents(), src.Extents()) || dst.Size() != src.Size() {
		return fmt.Errorf("%w: %v (%d elements) and %v (%d elements)",
			ErrExtentMismatch, dst.Extents(), dst.Size(), src.Extents(), src.Size())
	}
	if dst.Size() == 0 {
		return nil
	}
	if dst.mapping.Contiguous() && src.mapping.Contiguous() &&
		slices.Equal(dst.mapping.Strides(), src.mapping.Strides()) {
		copy(dst.mapping.data, src.mapping.data)
		return nil
	}
	forEachIndex(dst.mapping, func(idx []int) {
		dst.Set(src.At(idx...), idx...)
	})
	return nil
}

// Fill sets every element of v to x.
func Fill[T Scalar](v View[T], x T) {
	if v.mapping.Contiguous() {
		for i := range v.mapping.data {
			v.mapping.data[i] = x
		}
		return
	}
	forEachIndex(v.mapping, func(idx []int) {
		v.Set(x, idx...)
	})
}

// Each calls fn for every element of v with its index, last index fastest.
// The index slice is reused between calls.
func Each[T Scalar](v View[T], fn func(idx []int, x T)) {
	forEachIndex(v.mapping, func(idx []int) {
		fn(idx, v.mapping.data[v.mapping.Offset(idx...)])
	})
}

// forEachIndex calls fn for every index tuple of m, last index fastest.
// The slice passed to fn is reused between calls.
func forEachIndex[T Scalar](m Mapping[T], fn func(idx []int)) {
	if m.Size() == 0 {
		return
	}
	idx := make([]int, m.rank)
	for {
		fn(idx)
		d := m.rank - 1
		for ; d >= 0; d-- {
			idx[d]++
			if idx[d] < m.extents[d] {
				break
			}
			idx[d] = 0
		}
		if d < 0 {
			return
		}
	}
}
