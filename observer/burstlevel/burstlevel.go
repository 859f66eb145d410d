/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package burstlevel measures colour burst amplitude on a small, fixed
// set of lines per field and reports the median as an IRE-normalised
// quality figure, per the three-line sampling scheme used elsewhere in
// this module for cheap per-field signal-health checks.
package burstlevel

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
)

const Namespace = "burstlevel"

var KeyMedianIRE = obs.Key{Namespace: Namespace, Name: "median_ire"}

// sampleLines are the three fixed lines sampled, chosen to avoid VBI
// data lines and to spread across the field.
var sampleLines = [3]int{20, 150, 280}

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{{Key: KeyMedianIRE, Type: obs.TypeFloat64}}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	level, ok := Measure(f)
	if !ok {
		return nil
	}
	ctx.Set(f.ID(), KeyMedianIRE, level)
	return nil
}

// Measure returns the median colour-burst amplitude, in IRE, across
// sampleLines. ok is false if none of the sample lines were available
// (e.g. a field shorter than the highest sample line).
func Measure(f rep.FieldRepresentation) (median float64, ok bool) {
	params := f.Parameters()
	start, end := params.ColourBurstStart, params.ColourBurstEnd
	if start < 0 || start >= end {
		return 0, false
	}

	var levels []float64
	for _, n := range sampleLines {
		if n > f.LineCount() {
			continue
		}
		line, err := f.Line(n)
		if err != nil || end > len(line) {
			continue
		}
		seg := line[start:end]
		vals := make([]float64, len(seg))
		maxV, minV := seg[0], seg[0]
		for i, s := range seg {
			vals[i] = float64(s)
			if s > maxV {
				maxV = s
			}
			if s < minV {
				minV = s
			}
		}
		amplitudeIRE := params.IRE(maxV) - params.IRE(minV)
		levels = append(levels, amplitudeIRE)
	}
	if len(levels) == 0 {
		return 0, false
	}
	floats.Sort(levels)
	return stat.Quantile(0.5, stat.Empirical, levels, nil), true
}
