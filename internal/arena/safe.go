package arena

import "sync"

// Safe is a mutex-protected Arena that counts outstanding blocks and rewinds
// the arena when the last one is freed.
type Safe struct {
	mu   sync.Mutex
	a    *Arena
	live int
}

// NewSafe creates a goroutine-safe arena. See New for the arguments.
func NewSafe(chunkSize, limit int) *Safe {
	return &Safe{a: New(chunkSize, limit)}
}

// Alloc thread-safely allocates n bytes and counts the block as live. It
// fails instead of panicking once the arena has been released.
func (s *Safe) Alloc(n int) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.a.Released() {
		return nil, false
	}
	b, ok := s.a.Alloc(n)
	if ok {
		s.live++
	}
	return b, ok
}

// Free marks one block as no longer used. When no live blocks remain the
// arena is reset. It reports whether a reset happened.
func (s *Safe) Free() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.live == 0 {
		panic("arena: Free without matching Alloc")
	}
	s.live--
	if s.live > 0 || s.a.Released() {
		return false
	}
	s.a.Reset()
	return true
}

// Live thread-safely returns the number of outstanding blocks.
func (s *Safe) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// Release thread-safely drops all chunks and makes the arena unusable.
func (s *Safe) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *Safe) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.a.Metrics()
	m.Live = s.live
	return m
}
