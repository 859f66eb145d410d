/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fmcode reports whether a field's FM carrier (the frequency
// that the composite signal was demodulated from during capture)
// appears locked, using the stability of the measured line period as a
// proxy: an FM capture with tracking problems shows line-to-line period
// jitter well above what a stable TBC-corrected source should have.
package fmcode

import (
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
)

const Namespace = "fmcode"

var (
	KeyLocked       = obs.Key{Namespace: Namespace, Name: "locked"}
	KeyJitterStddev = obs.Key{Namespace: Namespace, Name: "jitter_stddev_samples"}
)

// jitterThresholdSamples above which the field is considered unlocked.
const jitterThresholdSamples = 2.0

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyLocked, Type: obs.TypeBool},
		{Key: KeyJitterStddev, Type: obs.TypeFloat64},
	}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	stddev, ok := Jitter(f)
	if !ok {
		return nil
	}
	ctx.Set(f.ID(), KeyJitterStddev, stddev)
	ctx.Set(f.ID(), KeyLocked, stddev <= jitterThresholdSamples)
	return nil
}

// Jitter measures the sample-level stddev of the line-to-line change in
// HSYNC leading-edge position across all lines in f, as a proxy for FM
// carrier lock stability.
func Jitter(f rep.FieldRepresentation) (float64, bool) {
	p := f.Parameters()
	threshold := (float64(p.White16bIRE) + float64(p.Black16bIRE)) / 2

	var edges []float64
	for n := 1; n <= f.LineCount(); n++ {
		line, err := f.Line(n)
		if err != nil {
			continue
		}
		for i := 1; i < len(line); i++ {
			if float64(line[i-1]) >= threshold && float64(line[i]) < threshold {
				edges = append(edges, float64(i))
				break
			}
		}
	}
	if len(edges) < 2 {
		return 0, false
	}
	diffs := make([]float64, len(edges)-1)
	for i := 1; i < len(edges); i++ {
		diffs[i-1] = edges[i] - edges[i-1]
	}
	return stat.StdDev(diffs, nil), true
}
