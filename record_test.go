package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriteMetrics(t *testing.T) {
	space := newCountingSpace("metrics")
	v := MustNew[float64]([]int{4}, Label("m"), InSpace(space))
	v.Release()

	space.fail = true
	if _, err := New[float64]([]int{4}, InSpace(space)); err == nil {
		t.Fatal("allocation from a failing space succeeded")
	}

	var buf bytes.Buffer
	WriteMetrics(&buf)
	out := buf.String()
	for _, want := range []string{
		`view_allocations_total{space="metrics"} 1`,
		`view_deallocations_total{space="metrics"} 1`,
		`view_allocation_failures_total{space="metrics"} 1`,
		`view_allocated_bytes_total{space="metrics"} 32`,
		`view_live_bytes{space="metrics"} 0`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q:\n%s", want, out)
		}
	}
}

func TestRecordRetainAfterReleasePanics(t *testing.T) {
	r, err := newRecord(newCountingSpace("retain"), "gone", 8)
	if err != nil {
		t.Fatal(err)
	}
	r.release()
	defer func() {
		if recover() == nil {
			t.Error("retain of a released record did not panic")
		}
	}()
	r.retain()
}

func TestRecordShortBufferRejected(t *testing.T) {
	space := &shortSpace{}
	failures := spaceStats("short").failures.Get()
	if _, err := newRecord(space, "short", 16); !errors.Is(err, ErrAllocation) {
		t.Fatalf("err = %v, want ErrAllocation", err)
	}
	if space.freed != 1 {
		t.Errorf("short buffer freed %d times, want 1", space.freed)
	}
	if got := spaceStats("short").failures.Get(); got != failures+1 {
		t.Errorf("failures counter = %d, want %d", got, failures+1)
	}
}

// shortSpace hands out one byte less than asked for.
type shortSpace struct{ freed int }

func (*shortSpace) Name() string { return "short" }

func (*shortSpace) Allocate(_ string, size int) ([]byte, error) {
	return make([]byte, size-1), nil
}

func (s *shortSpace) Deallocate(string, []byte) { s.freed++ }
