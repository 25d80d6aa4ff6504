package view

import (
	"fmt"

	"github.com/pavanmanishd/view/internal/arena"
)

// ArenaSpace is a MemorySpace that carves allocations out of a chunked bump
// arena. Individual deallocations do not return memory; once every
// allocation made from the space has been released the arena is rewound and
// its chunks are reused. Buffers handed out after a rewind are not zeroed.
type ArenaSpace struct {
	name  string
	arena *arena.Safe
}

// ArenaMetrics is a snapshot of an ArenaSpace.
type ArenaMetrics = arena.Metrics

// NewArenaSpace creates an arena-backed memory space. If chunkSize <= 0 the
// arena default of 64 KiB is used. A positive limit caps the total bytes the
// arena may reserve; allocations beyond it fail with ErrAllocation.
func NewArenaSpace(name string, chunkSize, limit int) *ArenaSpace {
	if name == "" {
		name = "Arena"
	}
	return &ArenaSpace{name: name, arena: arena.NewSafe(chunkSize, limit)}
}

// Name implements MemorySpace.
func (s *ArenaSpace) Name() string { return s.name }

// Allocate implements MemorySpace.
func (s *ArenaSpace) Allocate(label string, size int) ([]byte, error) {
	b, ok := s.arena.Alloc(size)
	if !ok {
		return nil, fmt.Errorf("%s: cannot reserve %d bytes for %q", s.name, size, label)
	}
	return b, nil
}

// Deallocate implements MemorySpace.
func (s *ArenaSpace) Deallocate(label string, _ []byte) {
	if s.arena.Free() {
		plog.Debugf("%s: all allocations released after %q, arena rewound", s.name, label)
	}
}

// Metrics returns a snapshot of the underlying arena.
func (s *ArenaSpace) Metrics() ArenaMetrics { return s.arena.Metrics() }

// Close releases the arena's chunks. Views still referring to the space
// must not be used afterwards.
func (s *ArenaSpace) Close() { s.arena.Release() }
