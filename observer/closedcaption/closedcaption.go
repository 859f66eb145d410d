/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package closedcaption decodes the EIA-608 biphase-coded caption byte
// pair carried on line 21 of NTSC fields. Its output is exploratory: the
// field-mapping analyzer does not depend on it, but it is retained as
// useful per-field data for downstream tooling (caption extraction,
// search-by-dialogue).
package closedcaption

import (
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

const Namespace = "closedcaption"

const line21 = 21

var (
	KeyPresent = obs.Key{Namespace: Namespace, Name: "present"}
	KeyByte1   = obs.Key{Namespace: Namespace, Name: "byte1"}
	KeyByte2   = obs.Key{Namespace: Namespace, Name: "byte2"}
)

type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyPresent, Type: obs.TypeBool},
		{Key: KeyByte1, Type: obs.TypeInt32, Optional: true},
		{Key: KeyByte2, Type: obs.TypeInt32, Optional: true},
	}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	if f.Parameters().System != video.SystemNTSC {
		return nil
	}
	b1, b2, ok := Decode(f)
	ctx.Set(f.ID(), KeyPresent, ok)
	if ok {
		ctx.Set(f.ID(), KeyByte1, int32(b1))
		ctx.Set(f.ID(), KeyByte2, int32(b2))
	}
	return nil
}

// Decode recovers the two 7-bit-plus-parity caption bytes from line 21.
// Decoding anchors on the first rising crossing of the white/black
// mid-level, skips two bit periods, then samples 16 bit cells at their
// midpoints against that mid-level, each byte least-significant bit
// first.
func Decode(f rep.FieldRepresentation) (b1, b2 byte, ok bool) {
	line, err := f.Line(line21)
	if err != nil {
		return 0, 0, false
	}
	p := f.Parameters()
	if p.SampleRate <= 0 {
		return 0, 0, false
	}
	samplesPerBit := p.SampleRate * (1.0 / 32000) // EIA-608 bit rate is ~32 kbit/s.
	if samplesPerBit < 2 {
		return 0, 0, false
	}
	threshold := (float64(p.White16bIRE) + float64(p.Black16bIRE)) / 2

	start := -1
	for i := 1; i < len(line); i++ {
		if float64(line[i-1]) < threshold && float64(line[i]) >= threshold {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, 0, false
	}

	readByte := func(pos float64) (byte, float64, bool) {
		var v byte
		for bit := 0; bit < 8; bit++ {
			idx := int(pos + samplesPerBit*(float64(bit)+0.5))
			if idx >= len(line) {
				return 0, pos, false
			}
			if float64(line[idx]) >= threshold {
				v |= 1 << uint(bit)
			}
		}
		return v, pos + samplesPerBit*8, true
	}

	startCodeEnd := float64(start) + samplesPerBit*2
	var good1, good2 bool
	b1, startCodeEnd, good1 = readByte(startCodeEnd)
	b2, _, good2 = readByte(startCodeEnd)
	return b1, b2, good1 && good2
}
