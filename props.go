package view

import (
	"fmt"
	"strings"
)

// Props is a composed set of view constructor options: at most one value per
// Kind, plus the set of kinds it declares.
//
// Props is a plain value. Copying it copies every option value, and the zero
// value is the empty bag. It never touches the heap on its own, so a Props
// can be declared in a package-level var.
type Props struct {
	declared KindSet

	label     string
	memSpace  MemorySpace
	execSpace ExecutionSpace
	layout    Layout
	noInit    bool
	padding   bool
	noThrow   bool
}

// NewProps composes opts, in any order, into a property bag. Supplying the
// same kind twice returns ErrDuplicateOption.
func NewProps(opts ...Option) (Props, error) {
	var p Props
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := CheckKind(p.declared, o.Kind()); err != nil {
			return Props{}, err
		}
		p.set(o)
	}
	return p, nil
}

// ViewAlloc is the entry point for building allocation properties. With no
// arguments it returns the empty bag.
func ViewAlloc(opts ...Option) (Props, error) {
	return NewProps(opts...)
}

func (p *Props) set(o Option) {
	o.apply(p)
	p.declared = p.declared.With(o.Kind())
}

// Has reports whether the bag declares k.
func (p Props) Has(k Kind) bool { return p.declared.Has(k) }

// HasLabel reports whether the bag declares a label.
func (p Props) HasLabel() bool { return p.declared.Has(KindLabel) }

// Kinds returns the set of declared kinds.
func (p Props) Kinds() KindSet { return p.declared }

// Len returns the number of declared kinds.
func (p Props) Len() int { return p.declared.Len() }

// TakeLabel moves the label out of the bag. The label stays declared but is
// left empty.
func (p *Props) TakeLabel() string {
	l := p.label
	p.label = ""
	return l
}

// WithIfUnset returns a copy of p in which every kind supplied in opts that p
// does not already declare is set. Kinds p already declares keep their
// values, and no other kind is filled. p itself is not modified.
func WithIfUnset(p Props, opts ...Option) Props {
	out := p
	for _, o := range opts {
		if o == nil || !o.Kind().Valid() || out.declared.Has(o.Kind()) {
			continue
		}
		out.set(o)
	}
	return out
}

// Widen converts p into a bag declaring every kind in kinds as well as the
// kinds p already declares. Kinds p lacks are filled with their default.
// A missing kind that has no default returns ErrNoDefault.
func (p Props) Widen(kinds ...Kind) (Props, error) {
	out := p
	for _, k := range kinds {
		if !k.Valid() {
			return Props{}, fmt.Errorf("%w: %s", ErrUnknownKind, k)
		}
		if out.declared.Has(k) {
			continue
		}
		if !k.HasDefault() {
			return Props{}, fmt.Errorf("%w: %s", ErrNoDefault, k)
		}
		out.set(defaultOption(k))
	}
	return out, nil
}

// defaultOption returns the option a bag is filled with when widened to k.
func defaultOption(k Kind) Option {
	switch k {
	case KindMemorySpace:
		return InSpace(DefaultMemorySpace)
	case KindExecutionSpace:
		return OnExec(DefaultExecutionSpace)
	case KindLayout:
		return WithLayout(LayoutRight{})
	}
	return flagDefault(k)
}

// flagDefault declares a flag kind without turning it on.
type flagDefault Kind

func (o flagDefault) Kind() Kind { return Kind(o) }

func (flagDefault) apply(*Props) {}

// String formats the declared options for diagnostics.
func (p Props) String() string {
	parts := make([]string, 0, p.Len())
	for _, k := range p.declared.Kinds() {
		switch k {
		case KindLabel:
			parts = append(parts, fmt.Sprintf("label=%q", p.label))
		case KindMemorySpace:
			parts = append(parts, "memory="+spaceName(p.memSpace))
		case KindExecutionSpace:
			parts = append(parts, "exec="+execName(p.execSpace))
		case KindLayout:
			parts = append(parts, "layout="+layoutName(p.layout))
		case KindWithoutInitializing:
			parts = append(parts, fmt.Sprintf("without_initializing=%t", p.noInit))
		case KindAllowPadding:
			parts = append(parts, fmt.Sprintf("allow_padding=%t", p.padding))
		case KindNoThrow:
			parts = append(parts, fmt.Sprintf("no_throw=%t", p.noThrow))
		}
	}
	return "Props{" + strings.Join(parts, ", ") + "}"
}

// --------------------------------------------------------------------------
// Typed accessors
// --------------------------------------------------------------------------

// Key is a typed handle for reading one kind out of a Props.
type Key[T any] struct {
	kind Kind
	get  func(*Props) T
}

// Kind returns the kind the key reads.
func (k Key[T]) Kind() Kind { return k.kind }

var (
	LabelKey               = Key[string]{KindLabel, func(p *Props) string { return p.label }}
	MemorySpaceKey         = Key[MemorySpace]{KindMemorySpace, func(p *Props) MemorySpace { return p.memSpace }}
	ExecutionSpaceKey      = Key[ExecutionSpace]{KindExecutionSpace, func(p *Props) ExecutionSpace { return p.execSpace }}
	LayoutKey              = Key[Layout]{KindLayout, func(p *Props) Layout { return p.layout }}
	WithoutInitializingKey = Key[bool]{KindWithoutInitializing, func(p *Props) bool { return p.noInit }}
	AllowPaddingKey        = Key[bool]{KindAllowPadding, func(p *Props) bool { return p.padding }}
	NoThrowKey             = Key[bool]{KindNoThrow, func(p *Props) bool { return p.noThrow }}
)

// Get returns the value p holds for key and whether p declares it.
func Get[T any](p Props, key Key[T]) (T, bool) {
	if key.get == nil || !p.declared.Has(key.kind) {
		var zero T
		return zero, false
	}
	return key.get(&p), true
}

// MustGet is like Get but panics if p does not declare the key's kind.
func MustGet[T any](p Props, key Key[T]) T {
	v, ok := Get(p, key)
	if !ok {
		panic(fmt.Errorf("view: %w: %s", ErrUndeclaredKind, key.kind))
	}
	return v
}

// --------------------------------------------------------------------------
// LabeledProps
// --------------------------------------------------------------------------

// LabeledProps is a property bag that is guaranteed to carry a label. It can
// only be obtained from NewLabeledProps or Props.Labeled; the zero value is
// not a usable bag and reports Valid() == false.
type LabeledProps struct {
	props Props
	valid bool
}

// NewLabeledProps composes a labeled bag from label and the remaining opts.
func NewLabeledProps[S LabelLike](label S, opts ...Option) (LabeledProps, error) {
	p, err := NewProps(append([]Option{Label(label)}, opts...)...)
	if err != nil {
		return LabeledProps{}, err
	}
	return LabeledProps{props: p, valid: true}, nil
}

// Labeled narrows p to a LabeledProps. It fails with ErrNoDefault if p has
// no label, since a label cannot be defaulted.
func (p Props) Labeled() (LabeledProps, error) {
	if !p.HasLabel() {
		return LabeledProps{}, fmt.Errorf("%w: %s", ErrNoDefault, KindLabel)
	}
	return LabeledProps{props: p, valid: true}, nil
}

// Valid reports whether l was built with a label.
func (l LabeledProps) Valid() bool { return l.valid }

// Label returns the label. It panics on the zero LabeledProps.
func (l LabeledProps) Label() string {
	if !l.valid {
		panic("view: LabeledProps used without a label")
	}
	return l.props.label
}

// Props returns the underlying bag.
func (l LabeledProps) Props() Props { return l.props }
