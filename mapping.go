package view

import (
	"fmt"
	"unsafe"
)

// MaxRank is the largest number of dimensions a view can have.
const MaxRank = 8

// Scalar is the set of element types a view can hold. Elements live in raw
// byte buffers, so only pointer-free fixed-size types are allowed.
type Scalar interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64 | ~complex64 | ~complex128
}

// Mapping translates multidimensional indices into offsets of a non-owning
// element slice. The zero value is the null mapping: no handle, rank 0. It
// holds no heap memory of its own and may be used in package-level vars.
type Mapping[T Scalar] struct {
	data    []T
	rank    int
	extents [MaxRank]int
	strides [MaxRank]int
	span    int
}

// newMapping builds a mapping over data. data must hold at least span
// elements.
func newMapping[T Scalar](data []T, extents, strides []int, span int) Mapping[T] {
	m := Mapping[T]{data: data[:span:span], rank: len(extents), span: span}
	copy(m.extents[:], extents)
	copy(m.strides[:], strides)
	return m
}

// bytesAs reinterprets buf as a slice of n elements of T.
func bytesAs[T Scalar](buf []byte, n int) []T {
	if buf == nil {
		return nil
	}
	if n == 0 {
		return []T{}
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(buf))), n)
}

// elemSize returns the size of T in bytes.
func elemSize[T Scalar]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// IsNull reports whether the mapping has no handle.
func (m Mapping[T]) IsNull() bool { return m.data == nil }

// Rank returns the number of dimensions.
func (m Mapping[T]) Rank() int { return m.rank }

// Extent returns the extent of dimension i. Dimensions at or beyond the rank
// have extent 1.
func (m Mapping[T]) Extent(i int) int {
	if i < 0 || i >= MaxRank {
		panic(fmt.Sprintf("view: dimension %d out of range [0,%d)", i, MaxRank))
	}
	if i >= m.rank {
		return 1
	}
	return m.extents[i]
}

// Extents returns a copy of the extents.
func (m Mapping[T]) Extents() []int {
	return append([]int(nil), m.extents[:m.rank]...)
}

// Stride returns the stride of dimension i in elements, or 0 beyond the rank.
func (m Mapping[T]) Stride(i int) int {
	if i < 0 || i >= m.rank {
		return 0
	}
	return m.strides[i]
}

// Strides returns a copy of the strides.
func (m Mapping[T]) Strides() []int {
	return append([]int(nil), m.strides[:m.rank]...)
}

// Size returns the number of addressable elements: the product of the
// extents. The null rank-0 mapping has size 0.
func (m Mapping[T]) Size() int {
	if m.rank == 0 {
		if m.data == nil {
			return 0
		}
		return 1
	}
	n := 1
	for _, e := range m.extents[:m.rank] {
		n *= e
	}
	return n
}

// Span returns the number of elements between the first and one past the
// last addressable element, padding included.
func (m Mapping[T]) Span() int { return m.span }

// Data returns the handle: the element slice of length Span.
func (m Mapping[T]) Data() []T { return m.data }

// Contiguous reports whether the span equals the size.
func (m Mapping[T]) Contiguous() bool { return m.span == m.Size() }

// OffsetChecked returns the linear offset of idx, or an error if idx does
// not have one entry per dimension or an entry is out of range.
func (m Mapping[T]) OffsetChecked(idx ...int) (int, error) {
	if len(idx) != m.rank {
		return 0, fmt.Errorf("%w: %d indices for rank %d", ErrRankMismatch, len(idx), m.rank)
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= m.extents[i] {
			return 0, fmt.Errorf("%w: index %d of dimension %d, extent %d", ErrIndexOutOfRange, x, i, m.extents[i])
		}
		off += x * m.strides[i]
	}
	return off, nil
}

// Offset is like OffsetChecked but panics on a bad index, like slice
// indexing does.
func (m Mapping[T]) Offset(idx ...int) int {
	off, err := m.OffsetChecked(idx...)
	if err != nil {
		panic("view: " + err.Error())
	}
	return off
}

// --------------------------------------------------------------------------
// Sub-ranges
// --------------------------------------------------------------------------

type selectorKind uint8

const (
	selectAll selectorKind = iota
	selectIndex
	selectRange
)

// Selector picks part of one dimension when taking a subview.
type Selector struct {
	kind   selectorKind
	lo, hi int
}

// All selects the whole dimension.
func All() Selector { return Selector{kind: selectAll} }

// Index selects a single index and drops the dimension.
func Index(i int) Selector { return Selector{kind: selectIndex, lo: i, hi: i + 1} }

// Range selects the half-open interval [lo, hi).
func Range(lo, hi int) Selector { return Selector{kind: selectRange, lo: lo, hi: hi} }

// sub returns the mapping narrowed by sel. Dimensions without a selector
// are kept whole.
func (m Mapping[T]) sub(sel []Selector) (Mapping[T], error) {
	if len(sel) > m.rank {
		return Mapping[T]{}, fmt.Errorf("%w: %d selectors for rank %d", ErrRankMismatch, len(sel), m.rank)
	}
	var (
		extents = make([]int, 0, m.rank)
		strides = make([]int, 0, m.rank)
		offset  int
	)
	for i := 0; i < m.rank; i++ {
		s := All()
		if i < len(sel) {
			s = sel[i]
		}
		ext := m.extents[i]
		switch s.kind {
		case selectAll:
			extents = append(extents, ext)
			strides = append(strides, m.strides[i])
		case selectIndex:
			if s.lo < 0 || s.lo >= ext {
				return Mapping[T]{}, fmt.Errorf("%w: index %d of dimension %d, extent %d", ErrIndexOutOfRange, s.lo, i, ext)
			}
			offset += s.lo * m.strides[i]
		case selectRange:
			if s.lo < 0 || s.hi < s.lo || s.hi > ext {
				return Mapping[T]{}, fmt.Errorf("%w: range [%d,%d) of dimension %d, extent %d", ErrIndexOutOfRange, s.lo, s.hi, i, ext)
			}
			offset += s.lo * m.strides[i]
			extents = append(extents, s.hi-s.lo)
			strides = append(strides, m.strides[i])
		}
	}

	span := 1
	for i, e := range extents {
		if e == 0 {
			span = 0
			break
		}
		span += (e - 1) * strides[i]
	}
	if span == 0 || m.data == nil {
		offset = 0
	}
	var data []T
	if m.data != nil {
		data = m.data[offset:]
	}
	if data == nil {
		return Mapping[T]{rank: len(extents), extents: toArray(extents), strides: toArray(strides)}, nil
	}
	return newMapping(data, extents, strides, span), nil
}

func toArray(s []int) [MaxRank]int {
	var a [MaxRank]int
	copy(a[:], s)
	return a
}
