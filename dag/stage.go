/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dag

import (
	"fmt"

	"github.com/ausocean/orc/orcerr"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

// Artifact is a unit of data flowing through a Stage pipeline: a field
// representation plus the name of the stage that most recently produced
// it, for diagnostics. This is the data-flow half of the DAG model,
// distinct from the Observer/Node graph above: a Stage transforms
// representations themselves (wrapping them with overridden parameters
// or attached scratch values), while a Node only reads a representation
// to produce observations.
type Artifact struct {
	Field     rep.FieldRepresentation
	FromStage string
}

// Stage is one step of a data-flow pipeline. Process consumes a batch of
// inputs and produces a batch of outputs; implementations typically wrap
// (never copy) each input's Field via rep.VideoParamsOverride or
// rep.ObservationAttachment, so downstream stages and observers see the
// original samples unchanged but reinterpreted or annotated.
type Stage interface {
	Name() string
	Process(inputs []Artifact) ([]Artifact, error)
}

// RunStages feeds in through every stage in sequence, each stage's
// outputs becoming the next stage's inputs.
func RunStages(stages []Stage, in []Artifact) ([]Artifact, error) {
	cur := in
	for _, s := range stages {
		out, err := s.Process(cur)
		if err != nil {
			return nil, orcerr.InvalidState("dag.RunStages", fmt.Errorf("stage %q: %w", s.Name(), err))
		}
		cur = out
	}
	return cur, nil
}

// SystemDetectStage resolves a field whose declared video.System is
// SystemUnknown by comparing its line count against each candidate
// system's nominal per-field line count and picking the closest match.
// Fields with a known system pass through unchanged. The substituted
// Parameters are applied via rep.VideoParamsOverride, never by mutating
// the field's own samples.
type SystemDetectStage struct {
	// Candidates lists the systems to consider. Defaults to
	// {NTSC, PAL, PAL-M} if empty.
	Candidates []video.System
}

func (s SystemDetectStage) Name() string { return "system_detect" }

func (s SystemDetectStage) Process(inputs []Artifact) ([]Artifact, error) {
	candidates := s.Candidates
	if len(candidates) == 0 {
		candidates = []video.System{video.SystemNTSC, video.SystemPAL, video.SystemPALM}
	}

	out := make([]Artifact, len(inputs))
	for i, a := range inputs {
		f := a.Field
		params := f.Parameters()
		if params.System != video.SystemUnknown {
			out[i] = a
			continue
		}

		lines := f.LineCount()
		best := video.SystemUnknown
		bestDiff := -1
		for _, c := range candidates {
			want := c.LinesPerFrame() / 2
			if want == 0 {
				continue
			}
			diff := lines - want
			if diff < 0 {
				diff = -diff
			}
			if bestDiff < 0 || diff < bestDiff {
				bestDiff, best = diff, c
			}
		}
		if best == video.SystemUnknown {
			out[i] = a
			continue
		}

		override := params
		override.System = best
		desc := video.DescriptorFor(best, f.Descriptor().IsFirstField)
		out[i] = Artifact{
			Field: rep.VideoParamsOverride{
				FieldRepresentation: f,
				Override:            override,
				DescriptorOverride:  &desc,
			},
			FromStage: s.Name(),
		}
	}
	return out, nil
}

// AttachmentStage tags every artifact with a key/value pair computed from
// it, via rep.ObservationAttachment, e.g. recording per-field diagnostic
// state for a later stage or observer to retrieve without threading it
// through the shared ObservationContext.
type AttachmentStage struct {
	StageName string
	Key       string
	Value     func(Artifact) interface{}
}

func (s AttachmentStage) Name() string {
	if s.StageName != "" {
		return s.StageName
	}
	return "attach:" + s.Key
}

func (s AttachmentStage) Process(inputs []Artifact) ([]Artifact, error) {
	out := make([]Artifact, len(inputs))
	for i, a := range inputs {
		out[i] = Artifact{
			Field: rep.ObservationAttachment{
				FieldRepresentation: a.Field,
				Key:                 s.Key,
				Value:               s.Value(a),
			},
			FromStage: s.Name(),
		}
	}
	return out, nil
}
