package view

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// MemorySpace is an allocation strategy. Allocate returns a buffer of exactly
// size bytes; Deallocate is called once with that buffer when the last view
// referring to it is released.
type MemorySpace interface {
	Name() string
	Allocate(label string, size int) ([]byte, error)
	Deallocate(label string, buf []byte)
}

// ExecutionSpace runs view initialisation. ParallelFor calls fn over
// disjoint subranges covering [0, n).
type ExecutionSpace interface {
	Name() string
	Concurrency() int
	DefaultMemorySpace() MemorySpace
	ParallelFor(n int, fn func(lo, hi int) error) error
}

var (
	// DefaultMemorySpace is used when neither a memory space nor an
	// execution space is supplied.
	DefaultMemorySpace MemorySpace = HostSpace{}

	// DefaultExecutionSpace is used when no execution space is supplied.
	DefaultExecutionSpace ExecutionSpace = Serial{}
)

// CacheLineSize is the alignment of HostSpace buffers and the padding unit
// used by AllowPadding.
const CacheLineSize = 64

// HostSpace allocates cache line aligned buffers from the Go heap. A non-zero
// Limit caps the size of a single allocation.
type HostSpace struct {
	Limit int
}

// Name implements MemorySpace.
func (HostSpace) Name() string { return "Host" }

// Allocate implements MemorySpace.
func (h HostSpace) Allocate(label string, size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("host space: negative size %d for %q", size, label)
	}
	if h.Limit > 0 && size > h.Limit {
		return nil, fmt.Errorf("host space: %d bytes for %q exceeds limit of %d", size, label, h.Limit)
	}
	buf, err := alignedBytes(size)
	if err != nil {
		return nil, fmt.Errorf("host space: %d bytes for %q: %w", size, label, err)
	}
	return buf, nil
}

// Deallocate implements MemorySpace. The buffer is left to the garbage
// collector.
func (HostSpace) Deallocate(string, []byte) {}

// alignedBytes returns a zeroed slice whose backing array starts on a cache
// line boundary. Sizes the runtime cannot allocate are reported as errors.
func alignedBytes(size int) (_ []byte, err error) {
	if size == 0 {
		return []byte{}, nil
	}
	if size > math.MaxInt-(CacheLineSize-1) {
		return nil, errors.New("size exceeds the address space")
	}
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			err = re
		}
	}()
	buf := make([]byte, size+CacheLineSize-1)
	ptr := uintptr(unsafe.Pointer(&buf[0]))
	offset := 0
	if mod := ptr % CacheLineSize; mod != 0 {
		offset = int(CacheLineSize - mod)
	}
	return buf[offset : offset+size : offset+size], nil
}

// Serial runs everything on the calling goroutine.
type Serial struct{}

// Name implements ExecutionSpace.
func (Serial) Name() string { return "Serial" }

// Concurrency implements ExecutionSpace.
func (Serial) Concurrency() int { return 1 }

// DefaultMemorySpace implements ExecutionSpace.
func (Serial) DefaultMemorySpace() MemorySpace { return HostSpace{} }

// ParallelFor implements ExecutionSpace.
func (Serial) ParallelFor(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	return fn(0, n)
}

// ThreadsSpace splits work across a fixed number of goroutines.
type ThreadsSpace struct {
	n      int
	memory MemorySpace
}

// Threads returns an execution space using n goroutines. If n <= 0,
// runtime.GOMAXPROCS(0) is used.
func Threads(n int) ThreadsSpace {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return ThreadsSpace{n: n}
}

// WithMemorySpace returns a copy of t whose default memory space is m.
func (t ThreadsSpace) WithMemorySpace(m MemorySpace) ThreadsSpace {
	t.memory = m
	return t
}

// Name implements ExecutionSpace.
func (ThreadsSpace) Name() string { return "Threads" }

// Concurrency implements ExecutionSpace.
func (t ThreadsSpace) Concurrency() int {
	if t.n <= 0 {
		return 1
	}
	return t.n
}

// DefaultMemorySpace implements ExecutionSpace.
func (t ThreadsSpace) DefaultMemorySpace() MemorySpace {
	if t.memory == nil {
		return HostSpace{}
	}
	return t.memory
}

// ParallelFor implements ExecutionSpace. The first error returned by fn is
// reported after all goroutines finish.
func (t ThreadsSpace) ParallelFor(n int, fn func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers := min(t.Concurrency(), n)
	per := (n + workers - 1) / workers

	var g errgroup.Group
	for lo := 0; lo < n; lo += per {
		hi := min(lo+per, n)
		g.Go(func() error { return fn(lo, hi) })
	}
	return g.Wait()
}

func spaceName(m MemorySpace) string {
	if m == nil {
		return "<nil>"
	}
	return m.Name()
}

func execName(e ExecutionSpace) string {
	if e == nil {
		return "<nil>"
	}
	return e.Name()
}
