package view

// Tracker is a view's claim on an allocation record. The zero value refers
// to nothing, needs no allocation and may be used in package-level vars.
//
// Copy, Move and Reset only ever change the record's reference count; the
// allocated bytes are never duplicated. Plain assignment of a Tracker
// borrows the claim without counting it.
type Tracker struct {
	rec *Record
}

// newTracker allocates a record and returns the tracker holding its single
// reference.
func newTracker(space MemorySpace, label string, size int) (Tracker, error) {
	r, err := newRecord(space, label, size)
	if err != nil {
		return Tracker{}, err
	}
	return Tracker{rec: r}, nil
}

// Copy returns a second claim on the same record. Copying an empty tracker
// returns an empty tracker.
func (t Tracker) Copy() Tracker {
	if t.rec != nil {
		t.rec.retain()
	}
	return t
}

// Move transfers the claim to the returned tracker and leaves t empty. The
// reference count is unchanged.
func (t *Tracker) Move() Tracker {
	out := *t
	t.rec = nil
	return out
}

// Reset drops the claim. The last claim on a record deallocates it. Reset on
// an empty tracker does nothing.
func (t *Tracker) Reset() {
	r := t.rec
	if r == nil {
		return
	}
	t.rec = nil
	r.release()
}

// IsEmpty reports whether t refers to no record.
func (t Tracker) IsEmpty() bool { return t.rec == nil }

// Record returns the referenced record, or nil.
func (t Tracker) Record() *Record { return t.rec }

// UseCount returns the record's reference count, or 0 when empty.
func (t Tracker) UseCount() int64 {
	if t.rec == nil {
		return 0
	}
	return t.rec.UseCount()
}

// Label returns the record's label, or "" when empty.
func (t Tracker) Label() string {
	if t.rec == nil {
		return ""
	}
	return t.rec.label
}

// Size returns the allocation extent in bytes, or 0 when empty.
func (t Tracker) Size() int {
	if t.rec == nil {
		return 0
	}
	return t.rec.size
}

// SameRecord reports whether t and o refer to the same record. Two empty
// trackers do not alias.
func (t Tracker) SameRecord(o Tracker) bool {
	return t.rec != nil && t.rec == o.rec
}
