/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package whiteflag detects the white-flag signal: a full-field,
// full-white line 11 used by some CAV pressings to mark still-frame
// (freeze-frame capable) picture pairs.
package whiteflag

import (
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
)

const Namespace = "whiteflag"

const flagLine = 11

var KeyPresent = obs.Key{Namespace: Namespace, Name: "present"}

// whiteThresholdIRE is the minimum IRE a flag line's active video must
// average to be counted as a white flag rather than picture content.
const whiteThresholdIRE = 90

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{{Key: KeyPresent, Type: obs.TypeBool}}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	ctx.Set(f.ID(), KeyPresent, Detect(f))
	return nil
}

// Detect reports whether line flagLine's active video is, on average,
// at or above whiteThresholdIRE.
func Detect(f rep.FieldRepresentation) bool {
	p := f.Parameters()
	line, err := f.Line(flagLine)
	if err != nil {
		return false
	}
	start, end := p.ActiveVideoStart, p.ActiveVideoEnd
	if start < 0 || end > len(line) || start >= end {
		return false
	}
	var sum float64
	for _, s := range line[start:end] {
		sum += p.IRE(s)
	}
	mean := sum / float64(end-start)
	return mean >= whiteThresholdIRE
}
