// Package arena implements the chunked bump allocator behind view.ArenaSpace.
// Memory is handed out from large chunks; individual blocks are never freed,
// the whole arena is rewound with Reset once nothing refers to it any more.
package arena

import (
	"math"
	"runtime"
	"unsafe"

	gometrics "github.com/rcrowley/go-metrics"
)

// DefaultChunkSize is the default chunk size for new arenas (64 KiB).
const DefaultChunkSize = 1 << 16

// Align is the alignment of every block handed out by the arena.
const Align = 64

// chunk represents a single memory chunk within an arena.
type chunk struct {
	buf    []byte // backing memory
	offset int    // allocation offset within buf
}

// Arena is a chunked bump allocator. Not goroutine-safe; see Safe.
type Arena struct {
	chunks    []chunk
	chunkSize int
	limit     int // cap on total chunk capacity, 0 = unlimited
	current   int // index of the chunk currently bumped
	released  bool

	sizes  gometrics.Histogram
	resets int64
}

// New creates an Arena. If chunkSize <= 0, DefaultChunkSize is used. A
// positive limit caps the total capacity the arena may grow to.
func New(chunkSize, limit int) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Arena{
		chunkSize: chunkSize,
		limit:     limit,
		sizes:     gometrics.NewHistogram(gometrics.NewUniformSample(1028)),
	}
}

// Alloc returns n bytes aligned to Align. The contents are whatever the
// chunk last held. It returns false if the arena would exceed its limit.
// Alloc(0) returns an empty, non-nil block.
func (a *Arena) Alloc(n int) ([]byte, bool) {
	a.panicIfReleased()
	if n < 0 {
		return nil, false
	}

	// Fast path: current chunk, then any later chunk kept across Reset.
	for i := a.current; i < len(a.chunks); i++ {
		if b, ok := a.chunks[i].take(n); ok {
			a.current = i
			a.sizes.Update(int64(n))
			return b, true
		}
	}

	// Slow path: need new chunk
	if !a.grow(n) {
		return nil, false
	}
	b, _ := a.chunks[a.current].take(n)
	a.sizes.Update(int64(n))
	return b, true
}

// take bumps the chunk offset by n aligned bytes if they fit.
func (c *chunk) take(n int) ([]byte, bool) {
	base := uintptr(unsafe.Pointer(unsafe.SliceData(c.buf)))
	off := int(alignUp(base+uintptr(c.offset)) - base)
	if off > len(c.buf) || n > len(c.buf)-off {
		return nil, false
	}
	c.offset = off + n
	return c.buf[off : off+n : off+n], true
}

// Reset rewinds every chunk but keeps them for reuse.
func (a *Arena) Reset() {
	a.panicIfReleased()
	for i := range a.chunks {
		a.chunks[i].offset = 0
	}
	a.current = 0
	a.resets++
}

// Release drops all chunks and makes the arena unusable.
// Any subsequent allocation panics.
func (a *Arena) Release() {
	a.chunks = nil
	a.current = 0
	a.released = true
}

// Released reports whether Release has been called.
func (a *Arena) Released() bool { return a.released }

// grow appends a new chunk of at least min bytes, respecting the limit. It
// fails if the chunk is larger than the runtime can allocate.
func (a *Arena) grow(min int) bool {
	if min > math.MaxInt-Align {
		return false
	}
	size := a.chunkSize
	if need := min + Align; need > size {
		size = need
	}
	if a.limit > 0 && size > a.limit-a.Capacity() {
		return false
	}
	buf, ok := makeChunk(size)
	if !ok {
		return false
	}
	a.chunks = append(a.chunks, chunk{buf: buf})
	a.current = len(a.chunks) - 1
	return true
}

// makeChunk allocates size bytes, turning the runtime's out-of-range panic
// into a failed allocation.
func makeChunk(size int) (buf []byte, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isRuntime := r.(runtime.Error); !isRuntime {
				panic(r)
			}
			buf, ok = nil, false
		}
	}()
	return make([]byte, size), true
}

// panicIfReleased panics if the arena has been released.
func (a *Arena) panicIfReleased() {
	if a.released {
		panic("arena: use after Release()")
	}
}

// alignUp rounds addr up to the next multiple of Align.
func alignUp(addr uintptr) uintptr {
	const mask = Align - 1
	return (addr + mask) &^ mask
}
