/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package leadinout flags fields carrying the biphase lead-in, lead-out,
// or stop codes, and disambiguates whether a lead code seen early in a
// capture is the disc's genuine start-of-programme marker versus a
// stray repeat, by position within the capture when Observer.TotalFields
// is known ahead of time.
package leadinout

import (
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/observer/biphase"
	"github.com/ausocean/orc/rep"
)

const Namespace = "leadinout"

var (
	KeyInLeadIn  = obs.Key{Namespace: Namespace, Name: "in_lead_in"}
	KeyInLeadOut = obs.Key{Namespace: Namespace, Name: "in_lead_out"}
	KeyIsStop    = obs.Key{Namespace: Namespace, Name: "is_stop_code"}
)

// seenWindow bounds how many fields from the start/end of a capture a
// lead code is still considered the genuine boundary marker rather than
// a stray mid-programme repeat (which biphase noise can occasionally
// produce).
const seenWindow = 2000

type Observer struct {
	// TotalFields, if known ahead of time, lets late lead-out codes be
	// distinguished from early ones by position. Zero means unknown, in
	// which case every lead code is accepted at face value.
	TotalFields uint64
}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyInLeadIn, Type: obs.TypeBool, Optional: true},
		{Key: KeyInLeadOut, Type: obs.TypeBool, Optional: true},
		{Key: KeyIsStop, Type: obs.TypeBool, Optional: true},
	}
}

func (Observer) Requires() []obs.Key {
	return []obs.Key{biphase.KeyLeadIn, biphase.KeyLeadOut, biphase.KeyStopCode}
}

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	id := uint64(f.ID())

	if v, ok := ctx.Get(f.ID(), biphase.KeyLeadIn); ok && v.(bool) {
		if o.TotalFields == 0 || id < seenWindow {
			ctx.Set(f.ID(), KeyInLeadIn, true)
		}
	}
	if v, ok := ctx.Get(f.ID(), biphase.KeyLeadOut); ok && v.(bool) {
		if o.TotalFields == 0 || id+seenWindow >= o.TotalFields {
			ctx.Set(f.ID(), KeyInLeadOut, true)
		}
	}
	if v, ok := ctx.Get(f.ID(), biphase.KeyStopCode); ok && v.(bool) {
		ctx.Set(f.ID(), KeyIsStop, true)
	}
	return nil
}
