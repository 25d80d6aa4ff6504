package view

import (
	"errors"
	"math"
	"math/bits"
	"strings"
	"sync"
	"testing"
	"unsafe"
)

var zeroView View[float64]

func TestZeroView(t *testing.T) {
	v := zeroView
	if !v.IsNull() || v.Owned() || v.UseCount() != 0 || v.Label() != "" || v.Rank() != 0 || v.Size() != 0 {
		t.Errorf("zero view = %v", v)
	}
	c := v.Copy()
	if c.Owned() {
		t.Error("copy of the null view is owned")
	}
	c.Release()
	v.Release()
	if Aliases(v, c) {
		t.Error("null views alias")
	}
	if got := v.String(); got != "View<float64>(null)" {
		t.Errorf("String = %q", got)
	}
}

func TestViewCopySharesAllocation(t *testing.T) {
	space := newCountingSpace("M")
	v, err := New[float64]([]int{3, 3}, Label("buf"), InSpace(space))
	if err != nil {
		t.Fatal(err)
	}
	v.Set(7, 1, 1)

	c := v.Copy()
	if v.Label() != "buf" || c.Label() != "buf" {
		t.Errorf("labels = %q, %q", v.Label(), c.Label())
	}
	if v.UseCount() != 2 || c.UseCount() != 2 {
		t.Errorf("use counts = %d, %d, want 2", v.UseCount(), c.UseCount())
	}
	if !Aliases(v, c) {
		t.Error("copy does not alias the original")
	}
	if space.allocs.Load() != 1 {
		t.Errorf("allocs = %d, want 1", space.allocs.Load())
	}

	v.Release()
	if !v.IsNull() {
		t.Error("released view is not null")
	}
	if c.UseCount() != 1 || c.Label() != "buf" || c.At(1, 1) != 7 {
		t.Errorf("after release: count %d label %q value %v", c.UseCount(), c.Label(), c.At(1, 1))
	}
	if space.frees.Load() != 0 {
		t.Fatal("deallocated while a copy is alive")
	}

	c.Release()
	if space.frees.Load() != 1 {
		t.Errorf("frees = %d, want 1", space.frees.Load())
	}
}

func TestViewMove(t *testing.T) {
	v := MustNew[int32]([]int{4}, Label("move"))
	w := v.Move()
	if v.Owned() || !v.IsNull() {
		t.Error("moved-from view still owns")
	}
	if w.UseCount() != 1 || w.Label() != "move" {
		t.Errorf("moved view: count %d label %q", w.UseCount(), w.Label())
	}
	w.Release()
}

func TestViewDefaults(t *testing.T) {
	v, err := New[float64]([]int{2, 5})
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	tr := v.Traits()
	if tr.Layout.Name() != "LayoutRight" || tr.MemorySpace.Name() != "Host" || tr.ExecutionSpace.Name() != "Serial" {
		t.Errorf("traits = %s/%s/%s", tr.Layout.Name(), tr.MemorySpace.Name(), tr.ExecutionSpace.Name())
	}
	if tr.WithoutInitializing || tr.AllowPadding || tr.NoThrow || tr.Unmanaged {
		t.Errorf("unexpected flags %+v", tr)
	}
	if v.Label() != "" {
		t.Errorf("label = %q, want empty", v.Label())
	}
	for _, x := range v.Data() {
		if x != 0 {
			t.Fatal("new view not zero-filled")
		}
	}
}

func TestViewLayoutLeft(t *testing.T) {
	v := MustNew[int]([]int{2, 3}, WithLayout(LayoutLeft{}))
	defer v.Release()
	v.Set(42, 1, 0)
	if v.Data()[1] != 42 {
		t.Errorf("data = %v, want 42 at offset 1", v.Data())
	}
	if v.Stride(0) != 1 || v.Stride(1) != 2 {
		t.Errorf("strides = %d, %d", v.Stride(0), v.Stride(1))
	}
}

func TestViewPadding(t *testing.T) {
	v := MustNew[float64]([]int{4, 10}, AllowPadding())
	defer v.Release()
	if v.Stride(0) != 16 || v.Span() != 64 || v.Size() != 40 {
		t.Errorf("stride %d span %d size %d", v.Stride(0), v.Span(), v.Size())
	}
	if v.Tracker().Size() != 64*8 {
		t.Errorf("allocation = %d bytes, want %d", v.Tracker().Size(), 64*8)
	}

	small := MustNew[float64]([]int{3, 3}, AllowPadding())
	defer small.Release()
	if small.Stride(0) != 3 || small.Span() != 9 {
		t.Errorf("small: stride %d span %d", small.Stride(0), small.Span())
	}
}

func TestViewRank0(t *testing.T) {
	v := MustNew[float64](nil, Label("scalar"))
	defer v.Release()
	if v.IsNull() || v.Rank() != 0 || v.Size() != 1 {
		t.Fatalf("rank 0 view: null %v rank %d size %d", v.IsNull(), v.Rank(), v.Size())
	}
	v.Set(3.5)
	if v.At() != 3.5 {
		t.Errorf("At() = %v", v.At())
	}
}

func TestViewZeroExtent(t *testing.T) {
	v := MustNew[float64]([]int{0, 4}, Label("empty"))
	defer v.Release()
	if v.IsNull() || !v.Owned() || v.Size() != 0 || v.Span() != 0 {
		t.Errorf("empty view: null %v owned %v size %d span %d", v.IsNull(), v.Owned(), v.Size(), v.Span())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		opts  []Option
		want  error
	}{
		{"duplicate label", []int{2}, []Option{Label("a"), Label("b")}, ErrDuplicateOption},
		{"duplicate layout", []int{2}, []Option{WithLayout(LayoutLeft{}), WithLayout(LayoutRight{})}, ErrDuplicateOption},
		{"negative extent", []int{2, -1}, nil, ErrInvalidShape},
		{"rank too large", make([]int, MaxRank+1), nil, ErrInvalidShape},
		{"stride rank", []int{2, 2}, []Option{WithLayout(LayoutStride{Stride: []int{1}})}, ErrRankMismatch},
		{"over limit", []int{100}, []Option{InSpace(HostSpace{Limit: 64})}, ErrAllocation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := New[float64](tt.shape, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if !v.IsNull() || v.Owned() {
				t.Error("failed New returned a non-null view")
			}
		})
	}
}

func TestNewOverflowingShape(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
		opts  []Option
	}{
		{"elements", []int{math.MaxInt/2 + 1, 2}, nil},
		{"bytes", []int{math.MaxInt / 4}, nil},
		{"left", []int{3, math.MaxInt / 2}, []Option{WithLayout(LayoutLeft{})}},
		{"padded", []int{2, math.MaxInt / 2}, []Option{AllowPadding()}},
		{"stride", []int{math.MaxInt / 4, 2}, []Option{WithLayout(LayoutStride{Stride: []int{8, 1}})}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(LiveAllocations())
			v, err := New[float64](tt.shape, tt.opts...)
			if !errors.Is(err, ErrInvalidShape) {
				t.Errorf("err = %v, want ErrInvalidShape", err)
			}
			if v.Owned() || !v.IsNull() {
				t.Errorf("overflowing shape returned %v", v)
			}
			if got := len(LiveAllocations()); got != before {
				t.Errorf("live allocations %d -> %d", before, got)
			}
		})
	}

	data := make([]float64, 4)
	if _, err := Wrap(data, []int{math.MaxInt/2 + 1, 2}); !errors.Is(err, ErrInvalidShape) {
		t.Errorf("Wrap: err = %v, want ErrInvalidShape", err)
	}
}

func TestNewBeyondRuntimeLimit(t *testing.T) {
	if bits.UintSize != 64 {
		t.Skip("needs a 64-bit address space")
	}
	huge := []int{math.MaxInt >> 16}

	if _, err := New[float64](huge, Label("huge")); !errors.Is(err, ErrAllocation) {
		t.Errorf("host: err = %v, want ErrAllocation", err)
	}

	arena := NewArenaSpace("huge", 0, 0)
	defer arena.Close()
	if _, err := New[float64](huge, InSpace(arena)); !errors.Is(err, ErrAllocation) {
		t.Errorf("arena: err = %v, want ErrAllocation", err)
	}

	v := MustNew[float64](huge, NoThrow())
	if v.Owned() || !v.IsNull() {
		t.Errorf("NoThrow returned %v", v)
	}
}

func TestNewAllocationFailureNoLeak(t *testing.T) {
	space := newCountingSpace("failing")
	space.fail = true
	before := len(LiveAllocations())
	if _, err := New[float64]([]int{8}, Label("fail"), InSpace(space)); !errors.Is(err, ErrAllocation) {
		t.Fatalf("err = %v", err)
	}
	if got := len(LiveAllocations()); got != before {
		t.Errorf("live allocations %d -> %d", before, got)
	}
}

func TestMustNewNoThrow(t *testing.T) {
	v := MustNew[float64]([]int{100}, InSpace(HostSpace{Limit: 64}), NoThrow())
	if !v.IsNull() || v.Owned() {
		t.Errorf("NoThrow failure returned %v", v)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustNew without NoThrow did not panic")
		}
	}()
	MustNew[float64]([]int{100}, InSpace(HostSpace{Limit: 64}))
}

func TestMustNewNoThrowStillPanicsOnBadOptions(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate options did not panic")
		}
	}()
	MustNew[float64]([]int{1}, NoThrow(), NoThrow())
}

func TestWrap(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4, 5}
	v, err := Wrap(data, []int{2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if v.At(1, 2) != 5 {
		t.Errorf("At(1,2) = %v", v.At(1, 2))
	}
	if v.Owned() || v.UseCount() != 0 || v.Label() != "" || !v.Traits().Unmanaged {
		t.Errorf("wrapped view: %v", v)
	}
	v.Set(9, 0, 0)
	if data[0] != 9 {
		t.Error("wrapped view does not write through")
	}
	c := v.Copy()
	if c.UseCount() != 0 || Aliases(v, c) {
		t.Error("copying an unmanaged view counted a reference")
	}
	if got := v.String(); got != "View<float64>([2 3], unmanaged)" {
		t.Errorf("String = %q", got)
	}

	left, err := Wrap(data, []int{2, 3}, WithLayout(LayoutLeft{}))
	if err != nil {
		t.Fatal(err)
	}
	if left.At(1, 0) != 1 {
		t.Errorf("LayoutLeft At(1,0) = %v", left.At(1, 0))
	}
}

func TestWrapErrors(t *testing.T) {
	data := make([]float64, 4)
	tests := []struct {
		name string
		data []float64
		opts []Option
		want error
	}{
		{"label", data, []Option{Label("x")}, ErrIncompatibleOption},
		{"memory space", data, []Option{InSpace(HostSpace{})}, ErrIncompatibleOption},
		{"no init", data, []Option{WithoutInitializing()}, ErrIncompatibleOption},
		{"padding", data, []Option{AllowPadding()}, ErrIncompatibleOption},
		{"short", data[:3], nil, ErrExtentMismatch},
		{"nil", nil, nil, ErrInvalidShape},
	}
	for _, tt := range tests {
		if _, err := Wrap(tt.data, []int{2, 2}, tt.opts...); !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestViewThreadsInitialises(t *testing.T) {
	space := newCountingSpace("threaded")
	exec := Threads(4).WithMemorySpace(space)
	v, err := New[int32]([]int{1000}, OnExec(exec))
	if err != nil {
		t.Fatal(err)
	}
	defer v.Release()

	tr := v.Traits()
	if tr.ExecutionSpace.Name() != "Threads" || tr.MemorySpace.Name() != "threaded" {
		t.Errorf("spaces = %s/%s", tr.ExecutionSpace.Name(), tr.MemorySpace.Name())
	}
	for i, x := range v.Data() {
		if x != 0 {
			t.Fatalf("element %d = %d", i, x)
		}
	}
}

func TestThreadsParallelFor(t *testing.T) {
	var mu sync.Mutex
	seen := make([]int, 103)
	err := Threads(4).ParallelFor(len(seen), func(lo, hi int) error {
		mu.Lock()
		defer mu.Unlock()
		for i := lo; i < hi; i++ {
			seen[i]++
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("index %d visited %d times", i, n)
		}
	}

	boom := errors.New("boom")
	if err := Threads(3).ParallelFor(10, func(lo, hi int) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestHostSpaceRejectsOversize(t *testing.T) {
	for _, n := range []int{-1, math.MaxInt, math.MaxInt - CacheLineSize} {
		if buf, err := (HostSpace{}).Allocate("big", n); err == nil {
			t.Errorf("Allocate(%d) returned %d bytes", n, len(buf))
		}
	}
	buf, err := (HostSpace{}).Allocate("aligned", 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != 100 || uintptr(unsafe.Pointer(&buf[0]))%CacheLineSize != 0 {
		t.Errorf("buffer len %d not aligned", len(buf))
	}
}

func TestViewArenaSpaceReuse(t *testing.T) {
	arena := NewArenaSpace("reuse", 1024, 0)
	defer arena.Close()

	v := MustNew[uint8]([]int{64}, Label("first"), InSpace(arena))
	Fill(v, 0xAB)
	v.Release()

	dirty := MustNew[uint8]([]int{64}, Label("dirty"), InSpace(arena), WithoutInitializing())
	if dirty.At(0) != 0xAB {
		t.Errorf("WithoutInitializing buffer = %#x, want reused 0xab", dirty.At(0))
	}
	dirty.Release()

	clean := MustNew[uint8]([]int{64}, Label("clean"), InSpace(arena))
	defer clean.Release()
	if clean.At(0) != 0 {
		t.Errorf("initialised buffer = %#x, want 0", clean.At(0))
	}

	m := arena.Metrics()
	if m.Resets != 2 || m.NumChunks != 1 || m.Allocations != 3 {
		t.Errorf("arena metrics = %+v", m)
	}
}

func TestViewArenaSpaceLimit(t *testing.T) {
	arena := NewArenaSpace("", 256, 256)
	defer arena.Close()
	if arena.Name() != "Arena" {
		t.Errorf("name = %q", arena.Name())
	}
	if _, err := New[float64]([]int{1024}, InSpace(arena)); !errors.Is(err, ErrAllocation) {
		t.Errorf("err = %v, want ErrAllocation", err)
	}
}

func TestViewConcurrentCopyRelease(t *testing.T) {
	space := newCountingSpace("shared")
	v := MustNew[float64]([]int{16}, Label("shared"), InSpace(space))

	const workers = 32
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		c := v.Copy()
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer c.Release()
			for j := 0; j < 100; j++ {
				x := c.Copy()
				_ = x.At(j % 16)
				x.Release()
			}
		}()
	}
	v.Release()
	wg.Wait()

	if got := space.frees.Load(); got != 1 {
		t.Errorf("frees = %d, want 1", got)
	}
}

func TestViewString(t *testing.T) {
	v := MustNew[float64]([]int{3, 3}, Label("buf"))
	defer v.Release()
	c := v.Copy()
	defer c.Release()
	if got := v.String(); got != `View<float64>("buf", [3 3], owned, uses=2)` {
		t.Errorf("String = %q", got)
	}
}

func TestViewAccessPanics(t *testing.T) {
	v := MustNew[float64]([]int{2, 2})
	defer v.Release()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("At out of range did not panic")
		}
		if s, _ := r.(string); !strings.HasPrefix(s, "view: ") {
			t.Errorf("panic = %v", r)
		}
	}()
	v.At(2, 0)
}
