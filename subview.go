package view

import "slices"

// Subview returns a view of part of v. Each selector narrows one dimension,
// in order; Index drops its dimension, and dimensions without a selector are
// kept whole. The result shares v's allocation and holds its own claim on
// it.
func Subview[T Scalar](v View[T], sel ...Selector) (View[T], error) {
	m, err := v.mapping.sub(sel)
	if err != nil {
		return View[T]{}, err
	}
	traits := v.traits
	traits.Layout = classifyLayout(m.Extents(), m.Strides())
	return View[T]{
		mapping: m,
		tracker: v.tracker.Copy(),
		traits:  traits,
	}, nil
}

// classifyLayout names the layout that produces strides for extents,
// falling back to LayoutStride.
func classifyLayout(extents, strides []int) Layout {
	if s, _, _ := (LayoutRight{}).Strides(extents, 1); slices.Equal(s, strides) {
		return LayoutRight{}
	}
	if s, _, _ := (LayoutLeft{}).Strides(extents, 1); slices.Equal(s, strides) {
		return LayoutLeft{}
	}
	return LayoutStride{Stride: strides}
}
