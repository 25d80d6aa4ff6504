package view

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"

	vmetrics "github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	_ "github.com/pavanmanishd/view/internal/logging"
)

var plog = logger.GetLogger("view")

// --------------------------------------------------------------------------
// Allocation record
// --------------------------------------------------------------------------

// Record is the sole owner of one allocation. It is reachable only through a
// Tracker and is destroyed when its reference count drops to zero.
type Record struct {
	id    uint64
	label string
	size  int
	space MemorySpace
	data  []byte
	count atomic.Int64

	dealloc func()
}

// AllocationInfo describes a live record for diagnostics.
type AllocationInfo struct {
	ID       uint64
	Label    string
	Size     int
	Space    string
	UseCount int64
}

var (
	nextRecordID atomic.Uint64

	// records indexes every live record by id.
	records = xsync.NewMapOf[uint64, *Record]()
)

// newRecord allocates size bytes from space and returns a record holding
// one reference.
func newRecord(space MemorySpace, label string, size int) (*Record, error) {
	buf, err := space.Allocate(label, size)
	if err == nil && len(buf) != size {
		space.Deallocate(label, buf)
		err = fmt.Errorf("returned %d bytes, want %d", len(buf), size)
	}
	if err != nil {
		plog.Warningf("allocation of %d bytes for %q in %s failed: %v", size, label, space.Name(), err)
		spaceStats(space.Name()).failures.Inc()
		return nil, fmt.Errorf("%w: %q (%d bytes in %s): %w", ErrAllocation, label, size, space.Name(), err)
	}

	r := &Record{
		id:    nextRecordID.Add(1),
		label: label,
		size:  size,
		space: space,
		data:  buf,
	}
	r.dealloc = func() { space.Deallocate(label, buf) }
	r.count.Store(1)

	records.Store(r.id, r)
	st := spaceStats(space.Name())
	st.allocs.Inc()
	st.bytes.Add(size)
	st.live.Add(int64(size))
	plog.Debugf("allocated %q: %d bytes in %s (record %d)", label, size, space.Name(), r.id)
	return r, nil
}

// retain adds one reference.
func (r *Record) retain() {
	if r.count.Add(1) <= 1 {
		panic(fmt.Sprintf("view: retain of released allocation %q", r.label))
	}
}

// release drops one reference. The caller that drops the last reference
// runs the deallocation.
func (r *Record) release() {
	n := r.count.Add(-1)
	switch {
	case n > 0:
		return
	case n < 0:
		panic(fmt.Sprintf("view: reference count underflow on %q", r.label))
	}

	records.Delete(r.id)
	r.dealloc()
	r.data = nil

	st := spaceStats(r.space.Name())
	st.frees.Inc()
	st.live.Add(-int64(r.size))
	plog.Debugf("deallocated %q: %d bytes in %s (record %d)", r.label, r.size, r.space.Name(), r.id)
}

// ID returns the record's process-unique id.
func (r *Record) ID() uint64 { return r.id }

// Label returns the allocation label.
func (r *Record) Label() string { return r.label }

// Size returns the allocation extent in bytes.
func (r *Record) Size() int { return r.size }

// Space returns the memory space the allocation came from.
func (r *Record) Space() MemorySpace { return r.space }

// UseCount returns the current reference count.
func (r *Record) UseCount() int64 { return r.count.Load() }

// LiveAllocations returns every allocation that has not yet been released,
// ordered by id.
func LiveAllocations() []AllocationInfo {
	out := make([]AllocationInfo, 0, records.Size())
	records.Range(func(id uint64, r *Record) bool {
		out = append(out, AllocationInfo{
			ID:       id,
			Label:    r.label,
			Size:     r.size,
			Space:    r.space.Name(),
			UseCount: r.count.Load(),
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --------------------------------------------------------------------------
// Metrics
// --------------------------------------------------------------------------

var (
	metricSet = vmetrics.NewSet()
	stats     = xsync.NewMapOf[string, *allocStats]()
)

// allocStats holds the counters of one memory space.
type allocStats struct {
	allocs   *vmetrics.Counter
	frees    *vmetrics.Counter
	failures *vmetrics.Counter
	bytes    *vmetrics.Counter
	live     atomic.Int64
}

func spaceStats(space string) *allocStats {
	st, _ := stats.LoadOrCompute(space, func() *allocStats {
		s := &allocStats{
			allocs:   metricSet.GetOrCreateCounter(fmt.Sprintf(`view_allocations_total{space=%q}`, space)),
			frees:    metricSet.GetOrCreateCounter(fmt.Sprintf(`view_deallocations_total{space=%q}`, space)),
			failures: metricSet.GetOrCreateCounter(fmt.Sprintf(`view_allocation_failures_total{space=%q}`, space)),
			bytes:    metricSet.GetOrCreateCounter(fmt.Sprintf(`view_allocated_bytes_total{space=%q}`, space)),
		}
		metricSet.GetOrCreateGauge(fmt.Sprintf(`view_live_bytes{space=%q}`, space), func() float64 {
			return float64(s.live.Load())
		})
		return s
	})
	return st
}

// LiveBytes returns the number of bytes currently held by live allocations
// in the named memory space.
func LiveBytes(space string) int64 {
	st, ok := stats.Load(space)
	if !ok {
		return 0
	}
	return st.live.Load()
}

// WriteMetrics writes allocation counters in Prometheus text format.
func WriteMetrics(w io.Writer) {
	metricSet.WritePrometheus(w)
}
