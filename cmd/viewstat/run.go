package main

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"gopkg.in/yaml.v3"

	"github.com/pavanmanishd/view"
	"github.com/pavanmanishd/view/internal/logging"
)

var plog = logger.GetLogger("viewstat")

// report is the outcome of one scenario.
type report struct {
	View              string    `yaml:"view"`
	Label             string    `yaml:"label"`
	Shape             []int     `yaml:"shape,flow"`
	Strides           []int     `yaml:"strides,flow"`
	Size              int       `yaml:"size"`
	Span              int       `yaml:"span"`
	Layout            string    `yaml:"layout"`
	MemorySpace       string    `yaml:"memory_space"`
	ExecutionSpace    string    `yaml:"execution_space"`
	PeakUseCount      int64     `yaml:"peak_use_count"`
	UseCountAfterJoin int64     `yaml:"use_count_after_join"`
	ReaderSums        []float64 `yaml:"reader_sums,flow"`
	LiveAllocations   int       `yaml:"live_allocations"`

	Arena   *arenaReport `yaml:"arena,omitempty"`
	Metrics string       `yaml:"metrics,omitempty"`
}

type arenaReport struct {
	Capacity      int     `yaml:"capacity"`
	NumChunks     int     `yaml:"chunks"`
	Live          int     `yaml:"live_blocks"`
	Resets        int64   `yaml:"resets"`
	Allocations   int64   `yaml:"allocations"`
	MeanAllocSize float64 `yaml:"mean_alloc_size"`
	MaxAllocSize  int64   `yaml:"max_alloc_size"`
}

// runScenario allocates the configured view, hands c.Copies copies to
// concurrent readers and writes a report to w.
func runScenario(c *Config, w io.Writer) error {
	r, err := scenario(c)
	if err != nil {
		return err
	}
	if c.Format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	}
	writeText(w, r)
	return nil
}

func scenario(c *Config) (*report, error) {
	if err := logging.SetLevel(c.LogLevel); err != nil {
		return nil, err
	}

	opts := []view.Option{view.Label(c.Label)}
	var arenaSpace *view.ArenaSpace
	if c.Space == "arena" {
		arenaSpace = view.NewArenaSpace("Arena", c.ChunkSize, c.SpaceLimit)
		defer arenaSpace.Close()
		opts = append(opts, view.InSpace(arenaSpace))
	}
	if c.Exec == "threads" {
		opts = append(opts, view.OnExec(view.Threads(c.Threads)))
	}
	if c.Padding {
		opts = append(opts, view.AllowPadding())
	}
	if c.NoInit {
		opts = append(opts, view.WithoutInitializing())
	}

	v, err := view.New[float64](c.Shape, opts...)
	if err != nil {
		return nil, err
	}
	data := v.Data()
	for i := range data {
		data[i] = float64(i)
	}
	plog.Infof("allocated %s", v)

	var (
		wg   sync.WaitGroup
		peak atomic.Int64
		sums = make([]float64, c.Copies)
	)
	for i := 0; i < c.Copies; i++ {
		cp := v.Copy()
		wg.Add(1)
		go func(i int, cp view.View[float64]) {
			defer wg.Done()
			defer cp.Release()

			target := cp
			if c.Subviews && cp.Rank() > 0 && cp.Extent(0) > 0 {
				row, err := view.Subview(cp, view.Index(i%cp.Extent(0)))
				if err != nil {
					plog.Errorf("subview of copy %d: %v", i, err)
					return
				}
				defer row.Release()
				target = row
			}
			for n := target.UseCount(); ; {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			view.Each(target, func(_ []int, x float64) { sums[i] += x })
		}(i, cp)
	}
	wg.Wait()

	t := v.Traits()
	r := &report{
		View:              v.String(),
		Label:             v.Label(),
		Shape:             v.Extents(),
		Strides:           v.Mapping().Strides(),
		Size:              v.Size(),
		Span:              v.Span(),
		Layout:            t.Layout.Name(),
		MemorySpace:       t.MemorySpace.Name(),
		ExecutionSpace:    t.ExecutionSpace.Name(),
		PeakUseCount:      peak.Load(),
		UseCountAfterJoin: v.UseCount(),
		ReaderSums:        sums,
	}
	plog.Debugf("readers done, %d claim(s) left on %q", r.UseCountAfterJoin, r.Label)

	v.Release()
	r.LiveAllocations = len(view.LiveAllocations())

	if arenaSpace != nil {
		m := arenaSpace.Metrics()
		r.Arena = &arenaReport{
			Capacity:      m.Capacity,
			NumChunks:     m.NumChunks,
			Live:          m.Live,
			Resets:        m.Resets,
			Allocations:   m.Allocations,
			MeanAllocSize: m.MeanAllocSize,
			MaxAllocSize:  m.MaxAllocSize,
		}
	}
	if c.Prometheus {
		var buf bytes.Buffer
		view.WriteMetrics(&buf)
		r.Metrics = buf.String()
	}
	return r, nil
}

// writeText prints r in the sectioned layout used by Config.String.
func writeText(w io.Writer, r *report) {
	field := func(name string, value any) {
		fmt.Fprintf(w, "  %-22s: %v\n", name, value)
	}

	fmt.Fprintf(w, "\nRESULT\n")
	field("View", r.View)
	field("Strides", r.Strides)
	field("Size", fmt.Sprintf("%d elements (%d spanned)", r.Size, r.Span))
	field("Layout", r.Layout)
	field("Memory Space", r.MemorySpace)
	field("Execution Space", r.ExecutionSpace)
	field("Peak Use Count", r.PeakUseCount)
	field("Use Count After Join", r.UseCountAfterJoin)
	for i, s := range r.ReaderSums {
		field(fmt.Sprintf("Reader %d Sum", i), s)
	}
	field("Live Allocations", r.LiveAllocations)

	if a := r.Arena; a != nil {
		fmt.Fprintf(w, "\nARENA\n")
		field("Capacity", fmt.Sprintf("%d bytes in %d chunks", a.Capacity, a.NumChunks))
		field("Live Blocks", a.Live)
		field("Resets", a.Resets)
		field("Allocations", fmt.Sprintf("%d (mean %.0f bytes, max %d)", a.Allocations, a.MeanAllocSize, a.MaxAllocSize))
	}

	if r.Metrics != "" {
		fmt.Fprintf(w, "\nMETRICS\n")
		io.WriteString(w, r.Metrics)
	}
}
