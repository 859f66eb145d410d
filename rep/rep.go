/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rep defines FieldRepresentation, the polymorphic accessor used
// by observers and the DAG executor to read a field's samples and
// metadata without caring whether the field came straight from a TBC
// file, from cache, or through a non-mutating override wrapper.
package rep

import (
	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/video"
)

// Line holds one video line's worth of raw 16-bit composite samples.
type Line []uint16

// FieldRepresentation is the read accessor for one or more contiguous
// fields' samples and associated video parameters/metadata.
// Implementations must be safe for concurrent reads by multiple observers
// within the same DAG step.
//
// A representation always addresses at least one field (ID, reachable
// via Line/LineCount for backward-compatible single-field callers) but
// may span a contiguous run, e.g. a frame built from a first/second field
// pair, or a padded run synthesised to fill an unmappable gap. FieldRange,
// FieldCount, HasField, GetLine, and GetField are the range-addressable
// accessors; callers that only ever work with a single field can keep
// using ID/Line/LineCount.
type FieldRepresentation interface {
	// ID returns the field's coordinate. For a multi-field
	// representation this is FieldRange().Start.
	ID() field.ID

	// Descriptor returns the parity/position descriptor for ID().
	Descriptor() video.Descriptor

	// Parameters returns the video parameters in effect for this
	// representation's fields.
	Parameters() video.Parameters

	// Metadata returns the sidecar metadata for ID().
	Metadata() video.Metadata

	// Line returns the raw samples for the given 1-based line number of
	// ID(). It returns an error if n is outside [1, LineCount()].
	Line(n int) (Line, error)

	// LineCount returns the number of lines available via Line for
	// ID().
	LineCount() int

	// FieldRange returns the half-open range of field ids this
	// representation covers. A single-field representation returns a
	// range of length 1 starting at ID().
	FieldRange() field.Range

	// FieldCount returns FieldRange().Len(), as a convenience.
	FieldCount() int

	// HasField reports whether id falls within FieldRange.
	HasField(id field.ID) bool

	// GetLine returns line n (1-based) of the given field, absent once n
	// exceeds that field's Descriptor().Height (when Height is
	// declared; a zero Height imposes no bound). It returns an error if
	// id is outside FieldRange or n is absent.
	GetLine(id field.ID, n int) (Line, error)

	// GetField returns every line of the given field up to its
	// Descriptor().Height (or LineCount() if Height is undeclared).
	GetField(id field.ID) ([]Line, error)
}

// VideoParamsOverride wraps a FieldRepresentation, substituting a
// different video.Parameters without copying or mutating the underlying
// field's samples. Used when an observer needs to re-interpret a field
// under hypothesised parameters, e.g. during system auto-detection.
type VideoParamsOverride struct {
	FieldRepresentation
	Override video.Parameters

	// DescriptorOverride, if non-nil, replaces the wrapped field's own
	// Descriptor() too, e.g. filling in Height once system auto-detection
	// resolves a previously-unknown System via video.DescriptorFor.
	DescriptorOverride *video.Descriptor
}

// Parameters returns the override, not the wrapped field's own
// parameters.
func (w VideoParamsOverride) Parameters() video.Parameters { return w.Override }

// Descriptor returns DescriptorOverride if set, else the wrapped field's
// own Descriptor().
func (w VideoParamsOverride) Descriptor() video.Descriptor {
	if w.DescriptorOverride != nil {
		return *w.DescriptorOverride
	}
	return w.FieldRepresentation.Descriptor()
}

// ObservationAttachment wraps a FieldRepresentation, attaching an
// arbitrary value retrievable via Attachment without altering any other
// accessor. Used to thread scratch state (e.g. a decoded VBI payload)
// from one observer to another within the same DAG step without routing
// it through the shared ObservationContext.
type ObservationAttachment struct {
	FieldRepresentation
	Key   string
	Value interface{}
}

// Attachment returns (value, true) if key matches w.Key; otherwise it
// asks the wrapped representation, if that carries attachments too, and
// returns (nil, false) when none matches. An outer wrap shadows an inner
// attachment for a matching key.
func (w ObservationAttachment) Attachment(key string) (interface{}, bool) {
	if key == w.Key {
		return w.Value, true
	}
	if inner, ok := w.FieldRepresentation.(interface {
		Attachment(string) (interface{}, bool)
	}); ok {
		return inner.Attachment(key)
	}
	return nil, false
}
