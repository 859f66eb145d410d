/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vits estimates signal quality from the VITS (vertical
// interval test signal) white and black reference slices carried in a
// field's blanking interval: white-level SNR from the white flag line's
// flat-field noise, and black-level PSNR from the back-porch/black
// level. It cross-checks the white-slice estimate against a spectral
// noise-floor figure computed via FFT, flagging cases where the two
// disagree sharply enough to suggest the time-domain slice was itself
// corrupted.
package vits

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

const Namespace = "vits"

var (
	KeyWhiteSNRdB    = obs.Key{Namespace: Namespace, Name: "white_snr_db"}
	KeyBlackPSNRdB   = obs.Key{Namespace: Namespace, Name: "black_psnr_db"}
	KeySpectralFloor = obs.Key{Namespace: Namespace, Name: "spectral_noise_floor_db"}
	KeySpectralDisagree = obs.Key{Namespace: Namespace, Name: "spectral_disagreement"}
)

// whiteLine/blackLine are the nominal VITS reference line numbers;
// actual disc mastering varies, so callers needing precision should
// supply an explicit line via Observer.
const (
	defaultWhiteLine = 19
	defaultBlackLine = 19
)

// disagreementThresholdDB marks a gap between the time-domain and
// spectral estimates large enough to flag for review.
const disagreementThresholdDB = 10

type Observer struct {
	WhiteLine int
	BlackLine int
}

func (Observer) Name() string { return Namespace }

func (Observer) Provides() []obs.SchemaEntry {
	return []obs.SchemaEntry{
		{Key: KeyWhiteSNRdB, Type: obs.TypeFloat64, Optional: true},
		{Key: KeyBlackPSNRdB, Type: obs.TypeFloat64, Optional: true},
		{Key: KeySpectralFloor, Type: obs.TypeFloat64, Optional: true},
		{Key: KeySpectralDisagree, Type: obs.TypeBool, Optional: true},
	}
}

func (Observer) Requires() []obs.Key { return nil }

func (o Observer) ProcessField(f rep.FieldRepresentation, ctx *obs.Context, _ *observer.History) error {
	whiteLine := o.WhiteLine
	if whiteLine == 0 {
		whiteLine = defaultWhiteLine
	}
	blackLine := o.BlackLine
	if blackLine == 0 {
		blackLine = defaultBlackLine
	}

	if snr, ok := WhiteSNR(f, whiteLine); ok {
		ctx.Set(f.ID(), KeyWhiteSNRdB, snr)

		if floorDB, ok := SpectralNoiseFloor(f, whiteLine); ok {
			ctx.Set(f.ID(), KeySpectralFloor, floorDB)
			ctx.Set(f.ID(), KeySpectralDisagree, math.Abs(snr-(-floorDB)) > disagreementThresholdDB)
		}
	}
	if psnr, ok := BlackPSNR(f, blackLine); ok {
		ctx.Set(f.ID(), KeyBlackPSNRdB, psnr)
	}
	return nil
}

// WhiteSNR estimates SNR, in dB, from the flatness of the active-video
// white slice of lineNum: signal power is the white reference level
// squared, noise power is the sample variance about that level.
func WhiteSNR(f rep.FieldRepresentation, lineNum int) (float64, bool) {
	p := f.Parameters()
	line, err := f.Line(lineNum)
	if err != nil {
		return 0, false
	}
	seg := activeSegment(line, p)
	if len(seg) == 0 {
		return 0, false
	}
	vals := toFloats(seg)
	mean := stat.Mean(vals, nil)
	variance := stat.Variance(vals, nil)
	if variance <= 0 {
		return 120, true // Perfectly flat slice: report a high ceiling SNR rather than +Inf.
	}
	signal := mean - float64(p.Black16bIRE)
	return 20 * math.Log10(math.Abs(signal)/math.Sqrt(variance)), true
}

// BlackPSNR estimates PSNR, in dB, from the black-level reference slice:
// peak is the white/black span, noise power is the sample variance of
// the (nominally flat) black slice.
func BlackPSNR(f rep.FieldRepresentation, lineNum int) (float64, bool) {
	p := f.Parameters()
	line, err := f.Line(lineNum)
	if err != nil {
		return 0, false
	}
	seg := activeSegment(line, p)
	if len(seg) == 0 {
		return 0, false
	}
	vals := toFloats(seg)
	variance := stat.Variance(vals, nil)
	if variance <= 0 {
		return 120, true
	}
	peak := float64(p.White16bIRE) - float64(p.Black16bIRE)
	return 20 * math.Log10(math.Abs(peak)/math.Sqrt(variance)), true
}

// SpectralNoiseFloor returns an estimate, in dB relative to full scale,
// of the out-of-band noise floor of lineNum's active segment, using a
// flat-top windowed FFT. Energy in the top quarter of the spectrum
// (well above any legitimate luma content) is averaged and reported as
// the floor.
func SpectralNoiseFloor(f rep.FieldRepresentation, lineNum int) (float64, bool) {
	p := f.Parameters()
	line, err := f.Line(lineNum)
	if err != nil {
		return 0, false
	}
	seg := activeSegment(line, p)
	if len(seg) < 8 {
		return 0, false
	}
	vals := toFloats(seg)
	win := window.FlatTop(len(vals))
	for i := range vals {
		vals[i] *= win[i]
	}
	spectrum := fft.FFTReal(vals)

	n := len(spectrum)
	hiStart := n - n/4
	var sumSq float64
	count := 0
	for i := n / 2; i < hiStart; i++ {
		mag := abs(spectrum[i])
		sumSq += mag * mag
		count++
	}
	if count == 0 {
		return 0, false
	}
	meanSq := sumSq / float64(count)
	full := float64(p.White16bIRE) - float64(p.Black16bIRE)
	if full == 0 {
		return 0, false
	}
	return 20 * math.Log10(math.Sqrt(meanSq)/full), true
}

func abs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func activeSegment(line rep.Line, p video.Parameters) []uint16 {
	start, end := p.ActiveVideoStart, p.ActiveVideoEnd
	if start < 0 || end > len(line) || start >= end {
		return nil
	}
	return line[start:end]
}

func toFloats(v []uint16) []float64 {
	out := make([]float64, len(v))
	for i, s := range v {
		out[i] = float64(s)
	}
	return out
}
