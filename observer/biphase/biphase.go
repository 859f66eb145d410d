/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package biphase decodes the Manchester-coded (biphase) 24-bit VBI data
// words carried on lines 16-18 of a LaserDisc field, per the bit layouts
// defined by IEC 60857-1986: CAV picture numbers, CLV timecodes, chapter
// numbers, lead-in/lead-out/stop codes, programme status, and user code.
package biphase

import (
	"github.com/pkg/errors"

	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
)

const (
	// Namespace is the observation namespace this observer writes under.
	Namespace = "biphase"

	firstLine   = 16
	lastLine    = 18
	bitsPerWord = 24
	bitPeriodUS = 2.0 // Manchester bit period, per IEC 60857.
)

// Keys published by this observer.
var (
	KeyPictureNumber   = obs.Key{Namespace: Namespace, Name: "picture_number"}
	KeyChapterNumber   = obs.Key{Namespace: Namespace, Name: "chapter_number"}
	KeyCLVHours        = obs.Key{Namespace: Namespace, Name: "clv_hours"}
	KeyCLVMinutes      = obs.Key{Namespace: Namespace, Name: "clv_minutes"}
	KeyCLVSeconds      = obs.Key{Namespace: Namespace, Name: "clv_seconds"}
	KeyCLVPictureIndex = obs.Key{Namespace: Namespace, Name: "clv_picture_index"}
	KeyLeadIn          = obs.Key{Namespace: Namespace, Name: "lead_in"}
	KeyLeadOut         = obs.Key{Namespace: Namespace, Name: "lead_out"}
	KeyStopCode        = obs.Key{Namespace: Namespace, Name: "stop_code"}
	KeyUserCode        = obs.Key{Namespace: Namespace, Name: "user_code"}
	KeyProgrammeStatus = obs.Key{Namespace: Namespace, Name: "programme_status_raw"}
)

// Decoded is the result of interpreting the words recovered from lines
// 16-18 of a single field. Fields are zero-valued/false when the
// corresponding code was not present.
type Decoded struct {
	HasPictureNumber bool
	PictureNumber    int32 // CAV frame number, 0-79999.

	HasChapterNumber bool
	ChapterNumber    int32

	HasCLVTime bool
	CLVHours   int32
	CLVMinutes int32

	HasCLVPicture   bool
	CLVSeconds      int32
	CLVPictureIndex int32 // 0-9, low digit of the picture-within-second count.

	LeadIn, LeadOut, StopCode bool

	HasUserCode bool
	UserCode    uint32

	HasProgrammeStatus bool
	ProgrammeStatusRaw uint32
}

// Observer implements observer.Observer for biphase VBI decoding.
type Observer struct{}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyPictureNumber, Type: obs.TypeInt32, Optional: true, Description: "CAV picture number"},
		{Key: KeyChapterNumber, Type: obs.TypeInt32, Optional: true},
		{Key: KeyCLVHours, Type: obs.TypeInt32, Optional: true},
		{Key: KeyCLVMinutes, Type: obs.TypeInt32, Optional: true},
		{Key: KeyCLVSeconds, Type: obs.TypeInt32, Optional: true},
		{Key: KeyCLVPictureIndex, Type: obs.TypeInt32, Optional: true},
		{Key: KeyLeadIn, Type: obs.TypeBool, Optional: true},
		{Key: KeyLeadOut, Type: obs.TypeBool, Optional: true},
		{Key: KeyStopCode, Type: obs.TypeBool, Optional: true},
		{Key: KeyUserCode, Type: obs.TypeInt64, Optional: true},
		{Key: KeyProgrammeStatus, Type: obs.TypeInt64, Optional: true},
	}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	d, err := Decode(f)
	if err != nil {
		return errors.Wrap(err, "biphase: decode")
	}
	id := f.ID()
	if d.HasPictureNumber {
		ctx.Set(id, KeyPictureNumber, d.PictureNumber)
	}
	if d.HasChapterNumber {
		ctx.Set(id, KeyChapterNumber, d.ChapterNumber)
	}
	if d.HasCLVTime {
		ctx.Set(id, KeyCLVHours, d.CLVHours)
		ctx.Set(id, KeyCLVMinutes, d.CLVMinutes)
	}
	if d.HasCLVPicture {
		ctx.Set(id, KeyCLVSeconds, d.CLVSeconds)
		ctx.Set(id, KeyCLVPictureIndex, d.CLVPictureIndex)
	}
	if d.LeadIn {
		ctx.Set(id, KeyLeadIn, true)
	}
	if d.LeadOut {
		ctx.Set(id, KeyLeadOut, true)
	}
	if d.StopCode {
		ctx.Set(id, KeyStopCode, true)
	}
	if d.HasUserCode {
		ctx.Set(id, KeyUserCode, int64(d.UserCode))
	}
	if d.HasProgrammeStatus {
		ctx.Set(id, KeyProgrammeStatus, int64(d.ProgrammeStatusRaw))
	}
	return nil
}

// Decode recovers VBI data words from lines 16-18 of f and interprets
// them per the IEC 60857 bit layouts.
func Decode(f rep.FieldRepresentation) (Decoded, error) {
	params := f.Parameters()
	var words [lastLine - firstLine + 1]int32
	var ok [lastLine - firstLine + 1]bool
	for n := firstLine; n <= lastLine; n++ {
		line, err := f.Line(n)
		if err != nil {
			continue // Line not present for this system; leave ok[n] false.
		}
		w, good := decodeManchesterLine(line, params.SampleRate, params.White16bIRE, params.Black16bIRE, params.ActiveVideoStart)
		words[n-firstLine] = w
		ok[n-firstLine] = good
	}
	line16, line16ok := words[0], ok[0]
	line17, line17ok := words[1], ok[1]
	line18, line18ok := words[2], ok[2]

	// Only a fully-decoded (24-transition) word carries real data: the
	// blank (0) and lost-sync (-1) sentinels never match a bit pattern,
	// since every real VBI word has its top marker bit set.
	line16Data := line16ok && line16 > 0
	line17Data := line17ok && line17 > 0
	line18Data := line18ok && line18 > 0

	var d Decoded

	if line17Data && (uint32(line17)&0xF00000) == 0xF00000 {
		d.HasPictureNumber = true
		// Bit 19 is reserved for the stop-code pattern, so it's masked
		// out here: picture numbers top out at 79999.
		d.PictureNumber = bcd(uint32(line17)&0x07FFFF, 5)
	} else if line18Data && (uint32(line18)&0xF00000) == 0xF00000 {
		d.HasPictureNumber = true
		d.PictureNumber = bcd(uint32(line18)&0x07FFFF, 5)
	}

	for _, w := range []struct {
		word uint32
		ok   bool
	}{{uint32(line17), line17Data}, {uint32(line18), line18Data}} {
		if !w.ok {
			continue
		}
		switch {
		case w.word&0xF00FFF == 0x800DDD:
			d.HasChapterNumber = true
			d.ChapterNumber = bcd((w.word>>12)&0xF, 1)
		case w.word&0xF0FF00 == 0xF0DD00:
			d.HasCLVTime = true
			d.CLVHours = bcd((w.word>>16)&0xF, 1)
			d.CLVMinutes = bcd(w.word&0xFF, 2)
		case w.word == 0x88FFFF:
			d.LeadIn = true
		case w.word == 0x80EEEE:
			d.LeadOut = true
		case w.word == 0x82CFFF:
			d.StopCode = true
		}
	}

	if line16Data {
		word := uint32(line16)
		switch {
		case word&0xF0F000 == 0x80E000:
			d.HasCLVPicture = true
			d.CLVSeconds = bcd((word>>16)&0xF, 1)
			d.CLVPictureIndex = bcd(word&0xFFF, 2) % 10
		case word&0xFFF000 == 0x8DC000 || word&0xFFF000 == 0x8BA000:
			d.HasProgrammeStatus = true
			d.ProgrammeStatusRaw = word & 0xFFF
		case word&0xF0F000 == 0x80D000:
			d.HasUserCode = true
			d.UserCode = word & 0xFFF
		}
	}

	return d, nil
}

// bcd interprets the low digits*4 bits of v as packed BCD digits and
// returns the decimal value. Invalid (>9) nibbles are treated as 0.
func bcd(v uint32, digits int) int32 {
	var out int32
	mult := int32(1)
	for i := 0; i < digits; i++ {
		nibble := (v >> (4 * uint(i))) & 0xF
		if nibble > 9 {
			nibble = 0
		}
		out += int32(nibble) * mult
		mult *= 10
	}
	return out
}

// manchesterTransition is a debounced level change found in a line's raw
// samples: index is the first sample of the new, settled level.
type manchesterTransition struct {
	index  int
	rising bool
}

// debouncedTransitions walks samples from start, comparing each against
// threshold, and records a transition only once four consecutive samples
// agree on the new level. This rejects single-sample noise blips that
// would otherwise be read as spurious bit edges.
func debouncedTransitions(samples rep.Line, threshold float64, start int) []manchesterTransition {
	if start < 0 || start >= len(samples) {
		return nil
	}
	state := float64(samples[start]) >= threshold
	var out []manchesterTransition
	runStart := -1
	for i := start + 1; i < len(samples); i++ {
		cur := float64(samples[i]) >= threshold
		if cur == state {
			runStart = -1
			continue
		}
		if runStart < 0 {
			runStart = i
		}
		if i-runStart+1 >= 4 {
			out = append(out, manchesterTransition{index: runStart, rising: cur})
			state = cur
			runStart = -1
		}
	}
	return out
}

// nearestTransition returns the transition closest to target, provided
// it's within tolerance samples of it.
func nearestTransition(transitions []manchesterTransition, target, tolerance float64) (manchesterTransition, bool) {
	best := -1
	bestDist := tolerance
	for i, tr := range transitions {
		dist := target - float64(tr.index)
		if dist < 0 {
			dist = -dist
		}
		if dist <= bestDist {
			best = i
			bestDist = dist
		}
	}
	if best < 0 {
		return manchesterTransition{}, false
	}
	return transitions[best], true
}

// decodeManchesterLine recovers a bitsPerWord-bit Manchester-coded word
// from one VBI line's raw samples. It builds a debounced transition map
// starting at activeVideoStart, anchors on the first transition found
// (the data train's own bit-0 cell midpoint, since nothing before
// activeVideoStart is considered), then steps forward one bit period
// (bitPeriodUS, 2us, converted via sampleRate) at a time looking for the nearest
// transition to each expected bit-cell midpoint: a falling transition
// decodes to 1, a rising transition to 0.
//
// The number of bit cells for which a transition was actually found
// distinguishes three outcomes: exactly bitsPerWord is a fully decoded
// word; bitsPerWord-1 means one cell lost sync, reported as the sentinel
// -1; anything else (in particular zero transitions at all) means no
// VBI signal is present on this line, reported as 0.
func decodeManchesterLine(samples rep.Line, sampleRate float64, white, black uint16, activeVideoStart int) (int32, bool) {
	if len(samples) < 4 || sampleRate <= 0 {
		return 0, false
	}
	samplesPerBit := sampleRate * bitPeriodUS / 1e6
	if samplesPerBit < 2 {
		return 0, false
	}
	threshold := (float64(white) + float64(black)) / 2

	start := activeVideoStart
	if start < 0 || start >= len(samples)-1 {
		start = 0
	}

	transitions := debouncedTransitions(samples, threshold, start)
	if len(transitions) == 0 {
		return 0, true // Blank: no VBI signal on this line.
	}

	anchor := float64(transitions[0].index)
	tolerance := samplesPerBit / 4
	var word uint32
	found := 0
	for bit := 0; bit < bitsPerWord; bit++ {
		word <<= 1
		target := anchor + float64(bit)*samplesPerBit
		tr, ok := nearestTransition(transitions, target, tolerance)
		if !ok {
			continue
		}
		if !tr.rising {
			word |= 1 // Falling transition decodes to 1, rising to 0.
		}
		found++
	}

	switch found {
	case bitsPerWord:
		return int32(word), true
	case bitsPerWord - 1:
		return -1, true // One bit cell lost sync: a recognized decode error.
	default:
		return 0, false
	}
}
