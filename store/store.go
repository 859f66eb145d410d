/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package store defines the interfaces through which the coordinator
// reads raw field samples and sidecar metadata from a TBC capture
// container, independent of the on-disk format.
package store

import (
	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

// SampleReader gives random access to a capture's decoded field
// representations.
type SampleReader interface {
	// Field returns the representation for id.
	Field(id field.ID) (rep.FieldRepresentation, error)

	// Range returns the full span of field IDs available.
	Range() field.Range

	// Close releases any underlying resources (open files, mmaps).
	Close() error
}

// MetadataReader gives access to a capture's sidecar metadata: the
// video parameters in force and any per-field capture-time hints.
type MetadataReader interface {
	// Parameters returns the video parameters for id. Parameters may
	// vary across a capture (e.g. a system auto-detected late).
	Parameters(id field.ID) (video.Parameters, error)

	// Metadata returns the sidecar metadata for id.
	Metadata(id field.ID) (video.Metadata, error)
}
