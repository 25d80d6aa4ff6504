package view

// Option is one named view constructor argument. The set of option kinds is
// closed; see Kind.
type Option interface {
	Kind() Kind
	apply(p *Props)
}

type labelOption string

func (labelOption) Kind() Kind { return KindLabel }

func (o labelOption) apply(p *Props) { p.label = string(o) }

// Label names the allocation. The value is copied, so later changes to a
// []byte argument do not affect the label.
func Label[S LabelLike](s S) Option {
	return labelOption(string(s))
}

type memorySpaceOption struct{ space MemorySpace }

func (memorySpaceOption) Kind() Kind { return KindMemorySpace }

func (o memorySpaceOption) apply(p *Props) { p.memSpace = o.space }

// InSpace selects the memory space the view allocates from.
func InSpace(space MemorySpace) Option {
	return memorySpaceOption{space: space}
}

type execSpaceOption struct{ space ExecutionSpace }

func (execSpaceOption) Kind() Kind { return KindExecutionSpace }

func (o execSpaceOption) apply(p *Props) { p.execSpace = o.space }

// OnExec selects the execution space used to initialise the view.
func OnExec(space ExecutionSpace) Option {
	return execSpaceOption{space: space}
}

type layoutOption struct{ layout Layout }

func (layoutOption) Kind() Kind { return KindLayout }

func (o layoutOption) apply(p *Props) { p.layout = o.layout }

// WithLayout selects the index layout. The default is LayoutRight.
func WithLayout(l Layout) Option {
	return layoutOption{layout: l}
}

// flagOption carries one of the boolean allocation flags.
type flagOption Kind

func (o flagOption) Kind() Kind { return Kind(o) }

func (o flagOption) apply(p *Props) {
	switch Kind(o) {
	case KindWithoutInitializing:
		p.noInit = true
	case KindAllowPadding:
		p.padding = true
	case KindNoThrow:
		p.noThrow = true
	}
}

// WithoutInitializing skips zero-filling the allocation.
func WithoutInitializing() Option { return flagOption(KindWithoutInitializing) }

// AllowPadding lets the layout pad the fastest-varying dimension to a cache
// line multiple.
func AllowPadding() Option { return flagOption(KindAllowPadding) }

// NoThrow makes MustNew return an empty view instead of panicking when the
// allocation fails.
func NoThrow() Option { return flagOption(KindNoThrow) }
