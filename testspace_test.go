package view

import (
	"errors"
	"sync/atomic"
)

// countingSpace is a MemorySpace that counts calls and can be told to fail.
type countingSpace struct {
	name   string
	fail   bool
	allocs atomic.Int64
	frees  atomic.Int64
}

var errSpaceFull = errors.New("space full")

func newCountingSpace(name string) *countingSpace {
	return &countingSpace{name: name}
}

func (s *countingSpace) Name() string { return s.name }

func (s *countingSpace) Allocate(_ string, size int) ([]byte, error) {
	if s.fail {
		return nil, errSpaceFull
	}
	s.allocs.Add(1)
	return make([]byte, size), nil
}

func (s *countingSpace) Deallocate(string, []byte) {
	s.frees.Add(1)
}
