package view

import (
	"fmt"
	"math/bits"
	"strings"
)

// Kind identifies one category of view constructor option.
type Kind uint8

const (
	KindLabel Kind = iota
	KindMemorySpace
	KindExecutionSpace
	KindLayout
	KindWithoutInitializing
	KindAllowPadding
	KindNoThrow

	numKinds
)

var kindNames = [numKinds]string{
	KindLabel:               "label",
	KindMemorySpace:         "memory space",
	KindExecutionSpace:      "execution space",
	KindLayout:              "layout",
	KindWithoutInitializing: "without initializing",
	KindAllowPadding:        "allow padding",
	KindNoThrow:             "no throw",
}

// String returns the human readable name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// Valid reports whether k is a catalogued kind.
func (k Kind) Valid() bool {
	return k < numKinds
}

// HasDefault reports whether a property bag may fill k with a default value
// when widening. The label is the one kind that must always be supplied.
func (k Kind) HasDefault() bool {
	return k.Valid() && k != KindLabel
}

// KindSet is a set of option kinds. The zero value is the empty set.
type KindSet uint8

// NewKindSet returns the set containing kinds.
func NewKindSet(kinds ...Kind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// Has reports whether k is in the set.
func (s KindSet) Has(k Kind) bool {
	return k.Valid() && s&(1<<k) != 0
}

// With returns the set with k added.
func (s KindSet) With(k Kind) KindSet {
	if !k.Valid() {
		return s
	}
	return s | 1<<k
}

// Without returns the set with k removed.
func (s KindSet) Without(k Kind) KindSet {
	if !k.Valid() {
		return s
	}
	return s &^ (1 << k)
}

// Len returns the number of kinds in the set.
func (s KindSet) Len() int {
	return bits.OnesCount8(uint8(s))
}

// Kinds returns the members of the set in catalogue order.
func (s KindSet) Kinds() []Kind {
	if s == 0 {
		return nil
	}
	out := make([]Kind, 0, s.Len())
	for k := Kind(0); k < numKinds; k++ {
		if s.Has(k) {
			out = append(out, k)
		}
	}
	return out
}

// String formats the set as {label, layout}.
func (s KindSet) String() string {
	names := make([]string, 0, s.Len())
	for _, k := range s.Kinds() {
		names = append(names, k.String())
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// CheckKind reports whether k may be added to a bag already declaring set.
func CheckKind(set KindSet, k Kind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
	if set.Has(k) {
		return fmt.Errorf("%w: %s", ErrDuplicateOption, k)
	}
	return nil
}

// LabelLike is satisfied by text values that can be owned as a label.
// Pointer types are deliberately excluded: a *byte carries no length and
// cannot be copied into a self-owned label.
type LabelLike interface {
	~string | ~[]byte
}
