/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fieldparity classifies a field as first or second (top or
// bottom) by locating its HSYNC/equalising/VSYNC pulse train and
// measuring the half-line offset between the vertical sync edges, per
// the PAL/NTSC gap-ratio formulas used in broadcast sync generation.
// Where the sync train can't be classified, it falls back to the
// previous field's parity (flipped) and finally to field_id parity.
package fieldparity

import (
	"math"

	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

const Namespace = "fieldparity"

var (
	KeyIsFirstField = obs.Key{Namespace: Namespace, Name: "is_first_field"}
	KeyConfidence   = obs.Key{Namespace: Namespace, Name: "confidence_pct"}
)

// pulse widths, in line-sync units (microseconds), per IEC 60857/CCIR.
const (
	hsyncUS  = 4.7
	eqplUS   = 2.3
	vsyncUS  = 27.1
)

type pulseKind int

const (
	pulseNone pulseKind = iota
	pulseHSYNC
	pulseEQPL
	pulseVSYNC
)

// Observer implements observer.Observer for field parity classification.
type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyIsFirstField, Type: obs.TypeBool},
		{Key: KeyConfidence, Type: obs.TypeInt32},
	}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, history *observer.History) error {
	isFirst, confidence := Classify(f)

	if confidence == 0 {
		// Fall back to the previous field's parity, flipped.
		id := f.ID()
		if id.Valid() && id != 0 {
			if v, ok := history.Get(id-1, KeyIsFirstField); ok {
				isFirst = !v.(bool)
				confidence = 60
			}
		}
	}
	if confidence == 0 {
		isFirst = uint64(f.ID())%2 == 0
		confidence = 50
	}

	ctx.Set(f.ID(), KeyIsFirstField, isFirst)
	ctx.Set(f.ID(), KeyConfidence, int32(confidence))
	return nil
}

// Classify attempts to determine field parity directly from the sync
// pulse train on the first several lines. It returns confidence 0 if no
// reliable classification could be made from the pulses alone.
func Classify(f rep.FieldRepresentation) (isFirst bool, confidencePct int) {
	params := f.Parameters()
	samplesPerUS := params.SampleRate / 1e6
	if samplesPerUS <= 0 {
		return false, 0
	}

	pulses := findSyncPulses(f, samplesPerUS)
	if len(pulses) == 0 {
		return false, 0
	}

	firstVSYNC := -1
	for i, p := range pulses {
		if p.kind == pulseVSYNC {
			firstVSYNC = i
			break
		}
	}
	if firstVSYNC < 0 {
		return false, 0
	}

	lineUS := 64.0
	if params.System == video.SystemNTSC {
		lineUS = 63.5
	}

	// Measure the gap, in line units, between the blanking-interval start
	// and the first two vertical sync edges.
	blankIdx := firstVSYNC - 4
	if blankIdx < 0 {
		blankIdx = 0
	}
	if blankIdx >= len(pulses) {
		return false, 0
	}
	gap1 := float64(pulses[firstVSYNC].startSample-pulses[blankIdx].startSample) / samplesPerUS / lineUS
	var gap2 float64
	if firstVSYNC+1 < len(pulses) {
		gap2 = float64(pulses[firstVSYNC+1].startSample-pulses[firstVSYNC].startSample) / samplesPerUS / lineUS
	}

	switch params.System {
	case video.SystemPAL, video.SystemPALM:
		if math.Abs(gap2-gap1) <= 0.3 && gap1 >= 0.45 && gap1 <= 0.55 {
			return true, 40
		}
		return false, 25
	case video.SystemNTSC:
		sum := gap1 + gap2
		if sum >= 1.4 && sum <= 1.6 && gap1 >= 0.95 && gap1 <= 1.05 {
			return true, 40
		}
		return false, 25
	default:
		return false, 0
	}
}

type pulse struct {
	kind        pulseKind
	startSample int
	widthUS     float64
}

// findSyncPulses scans the leading edge of every line in f for a
// below-threshold run and classifies its width against the HSYNC/EQPL/
// VSYNC nominal widths.
func findSyncPulses(f rep.FieldRepresentation, samplesPerUS float64) []pulse {
	params := f.Parameters()
	threshold := (float64(params.White16bIRE) + float64(params.Black16bIRE)) / 2
	var pulses []pulse
	for n := 1; n <= f.LineCount(); n++ {
		line, err := f.Line(n)
		if err != nil {
			continue
		}
		start := -1
		for i, s := range line {
			if float64(s) < threshold {
				if start < 0 {
					start = i
				}
			} else if start >= 0 {
				width := float64(i-start) / samplesPerUS
				pulses = append(pulses, pulse{kind: classifyWidth(width), startSample: start, widthUS: width})
				start = -1
			}
		}
	}
	return pulses
}

func classifyWidth(widthUS float64) pulseKind {
	switch {
	case widthUS >= hsyncUS-1.75 && widthUS <= hsyncUS+2.0:
		return pulseHSYNC
	case widthUS >= eqplUS-0.5 && widthUS <= eqplUS+0.5:
		return pulseEQPL
	case widthUS >= vsyncUS*0.5-1.0 && widthUS <= vsyncUS+1.0:
		return pulseVSYNC
	default:
		return pulseNone
	}
}
