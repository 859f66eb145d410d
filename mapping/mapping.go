/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mapping reconstructs a disc's logical programme sequence from
// raw per-field VBI/pulldown/lead-in-out observations: it pairs fields
// into frames, discards lead-in/lead-out/unmappable frames, corrects
// misreads against their neighbours, deduplicates repeats, orders the
// result, pads unrecoverable gaps, and finally emits the gap-aware
// mapping spec string consumed by the rest of the pipeline.
package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/video"
)

// FrameInfo is one candidate output frame: a pair of fields (or a single
// field, for formats that don't interlace in a fixed pairing) carrying
// the VBI-derived frame number used to order the programme.
type FrameInfo struct {
	FirstField, SecondField field.ID // SecondField is field.Invalid if unpaired.

	// VBIFrameNumber is the frame number recovered from CAV picture
	// number or CLV timecode. -1 means not yet known.
	VBIFrameNumber int

	// FirstFieldPhase/SecondFieldPhase are each field's own phase hint:
	// 1-8 PAL phase, or 1-4 NTSC field phase, as reported by palphase; 0
	// if unknown.
	FirstFieldPhase, SecondFieldPhase int

	IsPulldown   bool
	IsPadded     bool    // Synthesized by padGaps to fill an unrecoverable gap.
	QualityScore float64 // Higher is better; used to pick among duplicates.

	// genuineRepeat is set by correctVBIUsingSequenceAnalysis when a
	// repeated VBI number is confirmed (rather than corrected) against
	// neighbouring frames.
	genuineRepeat bool
}

// Observation is the minimal per-field input the analyzer needs, read
// out of an obs.Context by the caller (coordinator) before calling
// Analyze, keeping this package free of a dependency on the live
// context/observer machinery.
type Observation struct {
	ID             field.ID
	VBIFrameNumber int // -1 if not decoded.
	IsCLV          bool
	CLVHours       int
	CLVMinutes     int
	CLVSeconds     int
	Phase          int
	IsPulldown     bool
	InLeadIn       bool
	InLeadOut      bool
	IsStopCode     bool
	QualityScore   float64
}

// Result is the outcome of Analyze: the ordered, padded frame sequence
// plus the grammar string and a short human-readable rationale.
type Result struct {
	Frames      []FrameInfo
	MappingSpec string
	Rationale   []string
}

const (
	padToken          = "PAD"
	maxSaneGapFrames  = 1000
	scanDistance      = 10
)

// Analyze runs the full reconstruction pipeline over per-field
// observations, which must be sorted by field.ID ascending and paired
// two-per-frame (first field, second field) in system order.
func Analyze(system video.System, fieldsPerFrame int, obsByField map[field.ID]Observation, order []field.ID) (Result, error) {
	frames := pairFrames(order, fieldsPerFrame, obsByField)

	var rationale []string
	frames = removeLeadInOut(frames, obsByField)
	rationale = append(rationale, fmt.Sprintf("removed lead-in/lead-out: %d frames remain", len(frames)))

	frames = removeInvalidFramesByPhase(frames, system)
	rationale = append(rationale, fmt.Sprintf("removed phase-wrap invalid frames: %d frames remain", len(frames)))

	frames = correctVBIUsingSequenceAnalysis(frames)
	rationale = append(rationale, "corrected VBI numbers using neighbour sequence analysis")

	frames = removeDuplicateFrames(frames)
	rationale = append(rationale, fmt.Sprintf("removed duplicate frames: %d frames remain", len(frames)))

	if system == video.SystemNTSC {
		frames = numberPulldownFrames(frames)
		rationale = append(rationale, "numbered pulldown frames from their preceding CAV frame")
	}

	frames = verifyFrameNumbers(frames)
	frames = deleteUnmappableFrames(frames)
	rationale = append(rationale, fmt.Sprintf("deleted unmappable frames: %d frames remain", len(frames)))

	frames = reorderFrames(frames)

	frames = padGaps(frames)
	rationale = append(rationale, fmt.Sprintf("padded gaps: %d total frames", len(frames)))

	if system == video.SystemNTSC {
		frames = renumberForPulldown(frames)
	}

	spec := generateMappingSpec(frames)

	return Result{Frames: frames, MappingSpec: spec, Rationale: rationale}, nil
}

func pairFrames(order []field.ID, fieldsPerFrame int, obsByField map[field.ID]Observation) []FrameInfo {
	var frames []FrameInfo
	for i := 0; i < len(order); i += fieldsPerFrame {
		fi := FrameInfo{FirstField: order[i], VBIFrameNumber: -1, SecondField: field.Invalid}
		if fieldsPerFrame == 2 && i+1 < len(order) {
			fi.SecondField = order[i+1]
		}
		first, firstOK := obsByField[fi.FirstField]
		if firstOK {
			fi.FirstFieldPhase = first.Phase
		}
		var second Observation
		var secondOK bool
		if fi.SecondField.Valid() {
			second, secondOK = obsByField[fi.SecondField]
			if secondOK {
				fi.SecondFieldPhase = second.Phase
			}
		}
		o, ok := first, firstOK
		if !ok && secondOK {
			o, ok = second, secondOK
		}
		if ok {
			fi.VBIFrameNumber = frameNumberFromObservation(o)
			fi.IsPulldown = o.IsPulldown
			fi.QualityScore = o.QualityScore
		}
		frames = append(frames, fi)
	}
	return frames
}

func frameNumberFromObservation(o Observation) int {
	if o.VBIFrameNumber >= 0 {
		return o.VBIFrameNumber
	}
	if o.IsCLV {
		return convertCLVTimecodeToFrame(o.CLVHours, o.CLVMinutes, o.CLVSeconds, 0, fpsFor(o))
	}
	return -1
}

func fpsFor(o Observation) int {
	if o.IsCLV {
		return 25 // CLV discs are PAL/PAL-M only in practice; NTSC is CAV-only here.
	}
	return 30
}

// convertCLVTimecodeToFrame converts an hours:minutes:seconds+picture
// CLV timecode into a single monotonic frame number.
func convertCLVTimecodeToFrame(hours, minutes, seconds, picture, fps int) int {
	return hours*3600*fps + minutes*60*fps + seconds*fps + picture
}

func removeLeadInOut(frames []FrameInfo, obsByField map[field.ID]Observation) []FrameInfo {
	out := frames[:0:0]
	for _, fr := range frames {
		o, ok := obsByField[fr.FirstField]
		if ok && (o.InLeadIn || o.InLeadOut || o.IsStopCode) {
			continue
		}
		out = append(out, fr)
	}
	return out
}

// removeInvalidFramesByPhase drops frames whose two fields disagree about
// where they sit in the phase cycle: the second field's phase must be one
// more than the first's, wrapping at 8 (PAL) or 4 (NTSC). A frame with
// either phase unknown (0) can't be checked and is kept.
func removeInvalidFramesByPhase(frames []FrameInfo, system video.System) []FrameInfo {
	wrap := 8
	if system == video.SystemNTSC {
		wrap = 4
	}
	out := frames[:0:0]
	for _, fr := range frames {
		if fr.FirstFieldPhase == 0 || fr.SecondFieldPhase == 0 {
			out = append(out, fr)
			continue
		}
		expected := fr.FirstFieldPhase + 1
		if expected > wrap {
			expected -= wrap
		}
		if fr.SecondFieldPhase != expected {
			continue // Phase sequence invalid within this frame; drop.
		}
		out = append(out, fr)
	}
	return out
}

// correctVBIUsingSequenceAnalysis scans each frame's VBI number against
// a scanDistance window of neighbours; if the run of neighbours on both
// sides agrees on a monotonic sequence that this frame breaks, the
// frame's number is corrected to fit. A frame whose apparent repeat
// matches both phase and VBI number against its neighbour is treated as
// a genuine repeat (e.g. a still frame) and left alone.
func correctVBIUsingSequenceAnalysis(frames []FrameInfo) []FrameInfo {
	for i := range frames {
		if frames[i].VBIFrameNumber < 0 {
			continue
		}
		if i == 0 || i == len(frames)-1 {
			continue
		}
		prev := frames[i-1]
		next := frames[i+1]
		if prev.VBIFrameNumber < 0 || next.VBIFrameNumber < 0 {
			continue
		}

		if frames[i].VBIFrameNumber == prev.VBIFrameNumber &&
			frames[i].FirstFieldPhase == prev.FirstFieldPhase &&
			frames[i].SecondFieldPhase == prev.SecondFieldPhase {
			frames[i].genuineRepeat = true
			continue
		}

		expected := prev.VBIFrameNumber + 1
		if frames[i].VBIFrameNumber != expected && next.VBIFrameNumber-prev.VBIFrameNumber == 2 {
			check1, check2 := 0, 0
			lo := i - scanDistance
			if lo < 0 {
				lo = 0
			}
			hi := i + scanDistance
			if hi >= len(frames) {
				hi = len(frames) - 1
			}
			for j := lo; j < i; j++ {
				if frames[j].VBIFrameNumber >= 0 && frames[j].VBIFrameNumber == prev.VBIFrameNumber-(i-j) {
					check1++
				}
			}
			for j := i + 1; j <= hi; j++ {
				if frames[j].VBIFrameNumber >= 0 && frames[j].VBIFrameNumber == next.VBIFrameNumber+(j-i-1) {
					check2++
				}
			}
			if check1 > 0 && check2 > 0 {
				frames[i].VBIFrameNumber = expected
			}
		}
	}
	return frames
}

func removeDuplicateFrames(frames []FrameInfo) []FrameInfo {
	best := make(map[int]int) // vbi number -> index of best-quality frame seen.
	for i, fr := range frames {
		if fr.VBIFrameNumber < 0 {
			continue
		}
		if bi, ok := best[fr.VBIFrameNumber]; !ok || fr.QualityScore > frames[bi].QualityScore {
			best[fr.VBIFrameNumber] = i
		}
	}
	out := make([]FrameInfo, 0, len(frames))
	for i, fr := range frames {
		if fr.VBIFrameNumber < 0 || best[fr.VBIFrameNumber] == i {
			out = append(out, fr)
		}
	}
	return out
}

func numberPulldownFrames(frames []FrameInfo) []FrameInfo {
	if len(frames) > 1 && frames[0].IsPulldown {
		frames[0].VBIFrameNumber = frames[1].VBIFrameNumber - 1
	}
	lastKnown := -1
	for i := range frames {
		if !frames[i].IsPulldown && frames[i].VBIFrameNumber >= 0 {
			lastKnown = frames[i].VBIFrameNumber
			continue
		}
		if frames[i].IsPulldown && lastKnown >= 0 {
			frames[i].VBIFrameNumber = lastKnown
		}
	}
	return frames
}

func verifyFrameNumbers(frames []FrameInfo) []FrameInfo {
	for i := range frames {
		if frames[i].VBIFrameNumber > 99999 {
			frames[i].VBIFrameNumber = -1
		}
	}
	return frames
}

func deleteUnmappableFrames(frames []FrameInfo) []FrameInfo {
	out := frames[:0:0]
	for _, fr := range frames {
		if fr.VBIFrameNumber < 0 {
			continue
		}
		out = append(out, fr)
	}
	return out
}

func reorderFrames(frames []FrameInfo) []FrameInfo {
	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].VBIFrameNumber != frames[j].VBIFrameNumber {
			return frames[i].VBIFrameNumber < frames[j].VBIFrameNumber
		}
		// Equal numbers: non-pulldown (the original CAV frame) sorts first.
		return !frames[i].IsPulldown && frames[j].IsPulldown
	})
	return frames
}

func padGaps(frames []FrameInfo) []FrameInfo {
	if len(frames) == 0 {
		return frames
	}
	out := make([]FrameInfo, 0, len(frames))
	out = append(out, frames[0])
	for i := 1; i < len(frames); i++ {
		prev := out[len(out)-1]
		cur := frames[i]
		gap := cur.VBIFrameNumber - prev.VBIFrameNumber - 1
		if gap > 0 && gap < maxSaneGapFrames {
			for g := 1; g <= gap; g++ {
				out = append(out, FrameInfo{
					FirstField:     field.Invalid,
					SecondField:    field.Invalid,
					VBIFrameNumber: prev.VBIFrameNumber + g,
					IsPadded:       true,
				})
			}
		}
		out = append(out, cur)
	}
	return out
}

// renumberForPulldown assigns dense sequential frame numbers once
// pulldown frames have been interleaved in, since numberPulldownFrames
// leaves each pulldown frame sharing its source CAV frame's number.
func renumberForPulldown(frames []FrameInfo) []FrameInfo {
	if len(frames) == 0 {
		return frames
	}
	hasPulldown := false
	for _, fr := range frames {
		if fr.IsPulldown {
			hasPulldown = true
			break
		}
	}
	if !hasPulldown {
		return frames
	}
	next := frames[0].VBIFrameNumber
	for i := range frames {
		frames[i].VBIFrameNumber = next
		next++
	}
	return frames
}

// generateMappingSpec walks the ordered, padded frame sequence and
// emits the contiguous-range-vs-PAD grammar: "R1-R2,PAD_N,R3-R4,...".
// Contiguous runs of real (non-padded) fields collapse to a single
// "start-end" range token; runs of padded frames collapse to a single
// "PAD_N" token where N is the padded field count (2 fields per frame).
func generateMappingSpec(frames []FrameInfo) string {
	var b strings.Builder
	i := 0
	first := true
	for i < len(frames) {
		if !frames[i].FirstField.Valid() {
			n := 0
			for i < len(frames) && !frames[i].FirstField.Valid() {
				n += fieldsInFrame(frames[i])
				i++
			}
			writeSep(&b, &first)
			fmt.Fprintf(&b, "%s_%d", padToken, n)
			continue
		}
		start := frames[i].FirstField
		end := frames[i].lastField()
		j := i + 1
		for j < len(frames) && frames[j].FirstField.Valid() && contiguous(frames[j-1], frames[j]) {
			end = frames[j].lastField()
			j++
		}
		writeSep(&b, &first)
		fmt.Fprintf(&b, "%s-%s", start, end)
		i = j
	}
	return b.String()
}

func fieldsInFrame(fr FrameInfo) int {
	// A padded frame always stands in for a full two-field frame, even
	// though it carries no real field ids of its own.
	if fr.IsPadded || fr.SecondField.Valid() {
		return 2
	}
	return 1
}

func contiguous(a, b FrameInfo) bool {
	af := a.lastField()
	return af.Valid() && b.FirstField.Valid() && b.FirstField == af.Add(1)
}

func (fr FrameInfo) lastField() field.ID {
	if fr.SecondField.Valid() {
		return fr.SecondField
	}
	return fr.FirstField
}

func writeSep(b *strings.Builder, first *bool) {
	if !*first {
		b.WriteByte(',')
	}
	*first = false
}
