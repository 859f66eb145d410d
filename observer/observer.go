/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package observer defines the pluggable per-field analysis unit run by
// the DAG executor: an Observer declares which observation keys it
// produces and which it requires, reads a read-only snapshot of prior
// fields' observations, and writes its findings into the live
// ObservationContext for the current field.
package observer

import (
	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/rep"
)

// Observer analyses one field at a time. Implementations must not retain
// state between ProcessField calls; any cross-field memory must be read
// back out of History, never kept in the Observer's own fields, so a
// single Observer value can be shared safely across concurrent DAG
// branches.
type Observer interface {
	// Name identifies the observer and is used as the default namespace
	// for the observations it writes.
	Name() string

	// Provides lists the observation keys this observer writes.
	Provides() []obs.SchemaEntry

	// Requires lists the observation keys this observer reads, either
	// from the current field's context (already-run upstream observers)
	// or from History (prior fields).
	Requires() []obs.Key

	// ProcessField analyses f, writing its findings into ctx under
	// f.ID(). It may read History for prior-field context.
	ProcessField(f rep.FieldRepresentation, ctx *obs.Context, history *History) error
}

// History is a read-only view of observations recorded for fields
// processed before the one currently being analysed. It never exposes
// the live, still-being-written context for the current field, so
// observers cannot accidentally read another observer's not-yet-run
// output for the same field and mistake it for history.
type History struct {
	ctx   *obs.Context
	fresh field.Range // fields considered "in history" relative to the run.
}

// NewHistory builds a History backed by ctx, exposing only fields whose
// ID falls within window.
func NewHistory(ctx *obs.Context, window field.Range) *History {
	return &History{ctx: ctx, fresh: window}
}

// Get returns the value for k at id, or (nil, false) if id falls outside
// the history window or the observation was never recorded.
func (h *History) Get(id field.ID, k obs.Key) (interface{}, bool) {
	if !h.fresh.Contains(id) {
		return nil, false
	}
	return h.ctx.Get(id, k)
}

// Has reports whether k is recorded at id within the history window.
func (h *History) Has(id field.ID, k obs.Key) bool {
	_, ok := h.Get(id, k)
	return ok
}

// Window returns the field range this History exposes.
func (h *History) Window() field.Range { return h.fresh }
