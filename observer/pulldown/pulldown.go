/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pulldown detects 3:2 telecine pulldown fields on NTSC CAV
// discs: fields that repeat the previous field's film frame to convert
// 24fps film to the 59.94 field/s NTSC rate. It combines two kinds of
// evidence -- PAL-phase-style repetition in the colour subcarrier phase
// sequence, and VBI picture-number repetition -- and flags disagreement
// between them as a pattern break.
package pulldown

import (
	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/observer/biphase"
	"github.com/ausocean/orc/observer/palphase"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

const Namespace = "pulldown"

var (
	KeyIsPulldown      = obs.Key{Namespace: Namespace, Name: "is_pulldown"}
	KeyPatternPosition = obs.Key{Namespace: Namespace, Name: "pattern_position"} // 0-4
	KeyPatternBreak    = obs.Key{Namespace: Namespace, Name: "pattern_break"}
)

const lookback = 10

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyIsPulldown, Type: obs.TypeBool},
		{Key: KeyPatternPosition, Type: obs.TypeInt32, Optional: true},
		{Key: KeyPatternBreak, Type: obs.TypeBool, Optional: true},
	}
}

func (Observer) Requires() []obs.Key {
	return []obs.Key{biphase.KeyPictureNumber, palphase.KeyPhase}
}

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, history *observer.History) error {
	if f.Parameters().System != video.SystemNTSC {
		return nil
	}

	pictureNumberVal, isCAV := ctx.Get(f.ID(), biphase.KeyPictureNumber)
	if !isCAV {
		return nil
	}
	currentPhaseVal, havePhase := ctx.Get(f.ID(), palphase.KeyPhase)
	if !havePhase {
		return nil
	}
	pictureNumber := pictureNumberVal.(int32)
	currentPhase := currentPhaseVal.(int32)

	hasPhaseEvidence := phaseRepeats(f.ID(), currentPhase, history)
	hasVBIEvidence := vbiRepeats(f.ID(), pictureNumber, history)

	isPulldown := hasPhaseEvidence || hasVBIEvidence
	patternBreak := hasPhaseEvidence != hasVBIEvidence

	ctx.Set(f.ID(), KeyIsPulldown, isPulldown)
	ctx.Set(f.ID(), KeyPatternPosition, pictureNumber%5)
	ctx.Set(f.ID(), KeyPatternBreak, patternBreak)
	return nil
}

// phaseRepeats reports whether id's colour phase looks like a pulldown
// repeat: either an immediate repeat of the previous field's phase, or a
// phase that recurs with a +0/+2 offset against a field 10 back, with at
// least two such recurrences among the last five fields.
func phaseRepeats(id field.ID, currentPhase int32, history *observer.History) bool {
	if id == 0 {
		return false
	}
	if prev, ok := history.Get(id-1, palphase.KeyPhase); ok && prev.(int32) == currentPhase {
		return true
	}

	var patternPhase int32
	if id >= lookback {
		if v, ok := history.Get(id-lookback, palphase.KeyPhase); ok {
			patternPhase = v.(int32)
		} else {
			return false
		}
	} else {
		return false
	}

	diff := ((currentPhase - patternPhase) % 4 + 4) % 4
	if diff != 0 && diff != 2 {
		return false
	}

	repetitions := 0
	for back := field.ID(1); back <= 5 && back <= id; back++ {
		cur, ok1 := history.Get(id-back, palphase.KeyPhase)
		if !ok1 {
			continue
		}
		var ref int32
		if id-back >= lookback {
			if v, ok := history.Get(id-back-lookback, palphase.KeyPhase); ok {
				ref = v.(int32)
			} else {
				continue
			}
		} else {
			continue
		}
		d := ((cur.(int32) - ref) % 4 + 4) % 4
		if d == 0 || d == 2 {
			repetitions++
		}
	}
	return repetitions >= 2
}

// vbiRepeats reports whether the previous field's VBI picture number is
// missing or identical to this field's, the hallmark of a 3:2 pulldown
// repeat frame.
func vbiRepeats(id field.ID, pictureNumber int32, history *observer.History) bool {
	if id == 0 {
		return false
	}
	prev, ok := history.Get(id-1, biphase.KeyPictureNumber)
	if !ok {
		return true // Missing picture number on the prior field counts as evidence.
	}
	return prev.(int32) == pictureNumber
}
