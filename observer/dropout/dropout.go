/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dropout flags sample runs within a field's active video that
// fall below a noise-floor threshold for long enough to indicate an RF
// dropout (a momentary loss of laser tracking), merging capture-tool
// hints with its own threshold scan.
package dropout

import (
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

const Namespace = "dropout"

var (
	KeyCount      = obs.Key{Namespace: Namespace, Name: "count"}
	KeyTotalSpan  = obs.Key{Namespace: Namespace, Name: "total_span_samples"}
)

// minRunSamples is the shortest sample run, below threshold, counted as
// a dropout rather than ordinary sync/blanking.
const minRunSamples = 4

// thresholdIRE is the IRE level below which active-video samples are
// suspected dropouts.
const thresholdIRE = 5

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyCount, Type: obs.TypeInt32},
		{Key: KeyTotalSpan, Type: obs.TypeInt64},
	}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	ranges := Detect(f)
	total := int64(0)
	for _, r := range ranges {
		total += int64(r.End - r.Start)
	}
	for _, hint := range f.Metadata().DropoutHint {
		if !coveredBy(ranges, hint) {
			ranges = append(ranges, hint)
			total += int64(hint.End - hint.Start)
		}
	}
	ctx.Set(f.ID(), KeyCount, int32(len(ranges)))
	ctx.Set(f.ID(), KeyTotalSpan, total)
	return nil
}

func coveredBy(ranges []video.SampleRange, hint video.SampleRange) bool {
	for _, r := range ranges {
		if r.Start <= hint.Start && hint.End <= r.End {
			return true
		}
	}
	return false
}

// Detect scans every active-video line of f for sample runs at or below
// thresholdIRE, at least minRunSamples long.
func Detect(f rep.FieldRepresentation) []video.SampleRange {
	p := f.Parameters()
	var out []video.SampleRange
	for n := p.FirstActiveLine; n <= p.LastActiveLine; n++ {
		if n <= 0 {
			continue
		}
		line, err := f.Line(n)
		if err != nil {
			continue
		}
		start := -1
		for i, s := range line {
			if p.IRE(s) <= thresholdIRE {
				if start < 0 {
					start = i
				}
			} else if start >= 0 {
				if i-start >= minRunSamples {
					out = append(out, video.SampleRange{Start: start, End: i})
				}
				start = -1
			}
		}
		if start >= 0 && len(line)-start >= minRunSamples {
			out = append(out, video.SampleRange{Start: start, End: len(line)})
		}
	}
	return out
}
