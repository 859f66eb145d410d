/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package palphase determines the 8-step PAL colour subcarrier phase
// sequence position of a field from colour burst presence and polarity
// on a handful of fixed lines, per the PAL delay-line (SECAM-avoidance)
// phase rotation scheme.
package palphase

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/observer/fieldparity"
	"github.com/ausocean/orc/rep"
)

const Namespace = "palphase"

var KeyPhase = obs.Key{Namespace: Namespace, Name: "phase_id"} // 1-8

var burstLines4 = [4]int{7, 11, 15, 19}

// phase4Table[isFirstField][hasBurstLine6] gives the 1-4 phase.
var phase4Table = [2][2]int{
	{1, 3}, // second field: no burst line6 -> 1, burst -> 3
	{2, 4}, // first field:  no burst line6 -> 2, burst -> 4
}

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{{Key: KeyPhase, Type: obs.TypeInt32}}
}

func (Observer) Requires() []obs.Key {
	return []obs.Key{fieldparity.KeyIsFirstField}
}

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, history *observer.History) error {
	isFirst, ok := ctx.Get(f.ID(), fieldparity.KeyIsFirstField)
	if !ok {
		var confidence int
		isFirst, confidence = fieldparity.Classify(f)
		if confidence < 25 {
			isFirst = uint64(f.ID())%2 == 0
		}
	}
	first := isFirst.(bool)
	phaseID := Classify(f, first)
	ctx.Set(f.ID(), KeyPhase, int32(phaseID))
	return nil
}

// Classify derives the 1-8 PAL phase for f given its parity.
func Classify(f rep.FieldRepresentation, isFirstField bool) int {
	lineOffset := 3
	if isFirstField {
		lineOffset = 2
	}

	median := medianBurstLevel(f)

	line6 := lineOffset + 6
	has6 := burstPresent(f, line6, median)

	idx4 := phase4Table[0]
	if isFirstField {
		idx4 = phase4Table[1]
	}
	has6Idx := 0
	if has6 {
		has6Idx = 1
	}
	phase4 := idx4[has6Idx]

	rising := 0
	fallingCount := 0
	for _, base := range burstLines4 {
		dir, ok := burstRisingFalling(f, base+lineOffset, median)
		if !ok {
			continue
		}
		if dir {
			rising++
		} else {
			fallingCount++
		}
	}
	isFirstFour := true
	if phase4 == 2 {
		// Phase 2's rising/falling convention is inverted relative to the
		// others.
		isFirstFour = fallingCount >= rising
	} else {
		isFirstFour = rising >= fallingCount
	}

	if isFirstFour {
		return phase4
	}
	return phase4 + 4
}

func medianBurstLevel(f rep.FieldRepresentation) float64 {
	var levels []float64
	n := f.LineCount()
	last := n
	if last > 300 {
		last = 300
	}
	for line := 11; line <= last; line++ {
		l, err := f.Line(line)
		if err != nil {
			continue
		}
		levels = append(levels, burstLevel(f, l))
	}
	if len(levels) == 0 {
		return 0
	}
	cp := append([]float64(nil), levels...)
	floats.Sort(cp)
	return stat.Quantile(0.5, stat.Empirical, cp, nil)
}

func burstLevel(f rep.FieldRepresentation, line rep.Line) float64 {
	p := f.Parameters()
	start, end := p.ColourBurstStart, p.ColourBurstEnd
	if start < 0 || end > len(line) || start >= end {
		return 0
	}
	seg := line[start:end]
	vals := make([]float64, len(seg))
	for i, s := range seg {
		vals[i] = float64(s)
	}
	mean := stat.Mean(vals, nil)
	var sumSq float64
	for _, v := range vals {
		d := v - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(vals))
	return variance // proportional to RMS^2 of the burst about its mean.
}

func burstPresent(f rep.FieldRepresentation, lineNum int, median float64) bool {
	l, err := f.Line(lineNum)
	if err != nil || median == 0 {
		return false
	}
	level := burstLevel(f, l)
	return level >= 0.8*median && level <= 1.2*median
}

// burstRisingFalling reports whether the colour burst zero-crossing
// pattern on lineNum is predominantly rising (true) or falling (false),
// and whether a significant burst was present at all.
func burstRisingFalling(f rep.FieldRepresentation, lineNum int, median float64) (rising bool, ok bool) {
	p := f.Parameters()
	l, err := f.Line(lineNum)
	if err != nil {
		return false, false
	}
	start, end := p.ColourBurstStart, p.ColourBurstEnd
	if start < 0 || end > len(l) || start >= end {
		return false, false
	}
	seg := l[start:end]
	vals := make([]float64, len(seg))
	for i, s := range seg {
		vals[i] = float64(s)
	}
	mean := stat.Mean(vals, nil)
	threshold := median

	risingCount, fallingCount, total := 0, 0, 0
	for i := 1; i < len(vals); i++ {
		a, b := vals[i-1]-mean, vals[i]-mean
		if a < 0 && b >= 0 && b > threshold*0.3 {
			risingCount++
			total++
		} else if a >= 0 && b < 0 && -b > threshold*0.3 {
			fallingCount++
			total++
		}
	}
	if total < 8 {
		return false, false
	}
	return risingCount > fallingCount, true
}

