// Package view implements shared-ownership multidimensional arrays for Go.
//
// # Overview
//
// A View is a cheap value made of three parts:
//
//   - an index Mapping translating a multidimensional index into an offset
//     of a non-owning element slice,
//   - a Tracker holding one counted claim on the Record that owns the
//     allocation,
//   - the Traits captured from the options the view was built with.
//
// Copying a view with Copy shares the allocation and bumps the reference
// count. The allocation is handed back to its MemorySpace exactly once,
// when the last claim is released. Elements are never duplicated by copying;
// DeepCopy is the explicit element-wise path.
//
// # Basic Usage
//
//	v, err := view.New[float64]([]int{3, 3}, view.Label("buf"))
//	if err != nil {
//		return err
//	}
//	defer v.Release()
//
//	v.Set(1.5, 0, 2)
//	w := v.Copy()          // shares the allocation, UseCount() == 2
//	row, _ := view.Subview(v, view.Index(1), view.All())
//	defer row.Release()
//	defer w.Release()
//
// # Options
//
// Constructor options are typed values of a closed set of kinds: Label,
// InSpace, OnExec, WithLayout, WithoutInitializing, AllowPadding and
// NoThrow. They can be given in any order, each kind at most once; a
// repeated kind is rejected with ErrDuplicateOption before anything is
// allocated. Options compose into a Props value, which can also be built
// incrementally:
//
//	p, _ := view.ViewAlloc()                   // empty bag
//	p = view.WithIfUnset(p, view.Label("x"))   // p now declares a label
//	label := view.MustGet(p, view.LabelKey)    // "x"
//
// A label has no default. Widening a bag to a set of kinds fills in the
// defaults of missing kinds but fails with ErrNoDefault if the label is
// missing, and LabeledProps can only be obtained with a label in hand.
//
// # Memory and Execution Spaces
//
// A MemorySpace decides how bytes are obtained and returned. HostSpace uses
// cache line aligned heap buffers; ArenaSpace carves allocations out of a
// chunked bump arena and rewinds it when every allocation has been released.
// An ExecutionSpace zero-fills new views: Serial inline, Threads across
// goroutines.
//
// # Thread Safety
//
// Reference counts are atomic, so copies of a view may be created and
// released from any goroutine; the goroutine releasing the last claim runs
// the deallocation. Element access is not synchronised.
//
// # Zero Values
//
// The zero Tracker, Mapping, Props and View are valid, allocate nothing and
// have no side effects, so they may be used in package-level vars and
// inspected before any view has been allocated.
package view
