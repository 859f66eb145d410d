/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package field defines the coordinate space used to address individual
// TBC fields within a capture: a monotonic FieldID and the half-open
// ranges built from it.
package field

import "fmt"

// ID is a monotonic coordinate into a capture's field sequence. It is not
// a timestamp and carries no unit; only order and difference are
// meaningful. The zero value is a valid, addressable field.
type ID uint64

// Invalid is the sentinel ID used where no field applies, e.g. an empty
// range's exclusive bound or a not-yet-known reference point.
const Invalid ID = ^ID(0)

// Valid reports whether id is an addressable field coordinate.
func (id ID) Valid() bool { return id != Invalid }

// Add returns id+n, saturating at Invalid-1 rather than wrapping.
func (id ID) Add(n uint64) ID {
	if !id.Valid() {
		return id
	}
	if uint64(Invalid)-uint64(id) <= n {
		return Invalid - 1
	}
	return id + ID(n)
}

// Sub returns the number of fields from other to id, i.e. id-other. It
// panics if other > id; callers that can't guarantee ordering should
// compare with Range.Len or check order first.
func (id ID) Sub(other ID) uint64 {
	if other > id {
		panic(fmt.Sprintf("field: Sub underflow: %d - %d", id, other))
	}
	return uint64(id - other)
}

func (id ID) String() string {
	if !id.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%d", uint64(id))
}

// Range is a half-open interval [Start, End) of field IDs. An empty range
// has Start == End.
type Range struct {
	Start, End ID
}

// NewRange builds the half-open range [start, end). It returns an empty
// range (Start==End==start) if end precedes start.
func NewRange(start, end ID) Range {
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// Len reports the number of fields covered by r.
func (r Range) Len() uint64 {
	if r.End < r.Start {
		return 0
	}
	return uint64(r.End - r.Start)
}

// Empty reports whether r covers no fields.
func (r Range) Empty() bool { return r.Len() == 0 }

// Contains reports whether id falls within r.
func (r Range) Contains(id ID) bool {
	return id >= r.Start && id < r.End
}

// Overlaps reports whether r and o share any field.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

// Intersect returns the overlapping portion of r and o, which is empty if
// they do not overlap.
func (r Range) Intersect(o Range) Range {
	start := r.Start
	if o.Start > start {
		start = o.Start
	}
	end := r.End
	if o.End < end {
		end = o.End
	}
	return NewRange(start, end)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s,%s)", r.Start, r.End)
}
