/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package video holds the passive data types describing a TBC capture's
// video standard, per-field layout, and decode-time hints.
package video

// System identifies the analogue video standard a capture was recorded
// against.
type System int

const (
	SystemUnknown System = iota
	SystemNTSC
	SystemPAL
	SystemPALM
)

func (s System) String() string {
	switch s {
	case SystemNTSC:
		return "NTSC"
	case SystemPAL:
		return "PAL"
	case SystemPALM:
		return "PAL-M"
	default:
		return "Unknown"
	}
}

// LinesPerFrame returns the nominal total line count per frame for s,
// or 0 if unknown.
func (s System) LinesPerFrame() int {
	switch s {
	case SystemNTSC, SystemPALM:
		return 525
	case SystemPAL:
		return 625
	default:
		return 0
	}
}

// FieldsPerSecond returns the nominal field rate for s, or 0 if unknown.
func (s System) FieldsPerSecond() float64 {
	switch s {
	case SystemNTSC, SystemPALM:
		return 59.94
	case SystemPAL:
		return 50
	default:
		return 0
	}
}

// FPS returns the nominal whole-frame rate used by VBI CAV/CLV timecodes,
// per the conventions in the IEC 60857 standard: 25 for PAL-family
// systems, 30 for NTSC.
func (s System) FPS() int {
	switch s {
	case SystemPAL, SystemPALM:
		return 25
	default:
		return 30
	}
}

// Parameters describes the sample geometry and signal levels used to
// interpret the raw 16-bit samples of a field.
type Parameters struct {
	System System

	// SampleRate is the composite sample rate in Hz.
	SampleRate float64

	// SamplesPerLine is the number of samples captured per video line.
	SamplesPerLine int

	// ActiveVideoStart/End bound the active picture region within a line,
	// in samples.
	ActiveVideoStart int
	ActiveVideoEnd   int

	// ColourBurstStart/End bound the colour burst region within a line,
	// in samples.
	ColourBurstStart int
	ColourBurstEnd   int

	// White16bIRE and Black16bIRE give the 16-bit sample codes
	// corresponding to 100 IRE white and 0 IRE (blanking) black.
	White16bIRE uint16
	Black16bIRE uint16

	// FirstActiveLine/LastActiveLine bound the active picture lines
	// within a field (1-based, matching the VBI line numbering
	// convention used throughout this module).
	FirstActiveLine int
	LastActiveLine  int
}

// IRE converts a raw 16-bit sample to an IRE value using the white/black
// reference codes in p. Returns 0 if White16bIRE == Black16bIRE.
func (p Parameters) IRE(sample uint16) float64 {
	span := int(p.White16bIRE) - int(p.Black16bIRE)
	if span == 0 {
		return 0
	}
	return 100 * float64(int(sample)-int(p.Black16bIRE)) / float64(span)
}

// Descriptor identifies a field's position within a disc side, its
// parity, and its declared line count.
type Descriptor struct {
	// IsFirstField is true for the first field of an interlaced frame
	// pair (top field in NTSC/PAL convention).
	IsFirstField bool

	// LineOffset is the VBI line-numbering offset applied for this
	// field's parity: 2 for first fields, 3 for second, matching the
	// half-line shift between field types.
	LineOffset int

	// Height is the field's declared total line count: lines are
	// numbered 1..Height, and line numbers above Height are absent
	// regardless of how much sample data is
	// actually stored. Zero means unbounded (no declared height), the
	// case for the package-level FirstFieldDescriptor/
	// SecondFieldDescriptor convenience values, which predate any
	// particular video.System.
	Height int
}

// FirstFieldDescriptor and SecondFieldDescriptor are the two canonical
// Descriptor values used throughout the observer set when no particular
// video.System is in play (tests, and callers that only care about
// parity). Real pipeline code should prefer DescriptorFor, which fills
// in Height.
var (
	FirstFieldDescriptor  = Descriptor{IsFirstField: true, LineOffset: 2}
	SecondFieldDescriptor = Descriptor{IsFirstField: false, LineOffset: 3}
)

// DescriptorFor builds the Descriptor for one field of an interlaced
// frame pair under system s, with Height set to the per-field line count
// (half of LinesPerFrame, rounded to account for the extra half-line
// carried by the first field in interlaced scanning).
func DescriptorFor(s System, isFirstField bool) Descriptor {
	d := FirstFieldDescriptor
	if !isFirstField {
		d = SecondFieldDescriptor
	}
	lines := s.LinesPerFrame()
	if lines == 0 {
		return d
	}
	half := lines / 2
	if isFirstField {
		half++ // The first field of an odd-line-count frame carries the extra line.
	}
	d.Height = half
	return d
}

// Metadata is the sidecar, per-field information accompanying raw
// samples: capture-time hints that are not derived by any observer but
// describe how the field was produced.
type Metadata struct {
	// DiscSide is "A", "B", or empty if unknown.
	DiscSide string

	// IsCLV is true if the disc encodes CLV (constant linear velocity)
	// timecodes rather than CAV (constant angular velocity) picture
	// numbers.
	IsCLV bool

	// DropoutHint, if non-nil, carries capture-tool-reported sample
	// ranges suspected to be RF dropouts, prior to any analysis.
	DropoutHint []SampleRange

	// SyncHint, if non-nil, carries capture-tool-reported pulse
	// locations. No observer reads it; sync detection always scans the
	// samples.
	SyncHint []int

	// SourceHint names the capture tool or pipeline stage that produced
	// this field, for provenance in diagnostics.
	SourceHint string
}

// SampleRange is a half-open [Start, End) interval of sample indices
// within a single field's active line data.
type SampleRange struct {
	Start, End int
}
