package closedcaption

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

const (
	ccSamplesPerBit  = 10
	ccSampleRate     = 32000.0 * ccSamplesPerBit // so SampleRate*(1/32000) == ccSamplesPerBit
	ccWhite          = 60000
	ccBlack          = 10000
	ccSamplesPerLine = 220
	ccStart          = 20
)

// buildCCField lays down a line-21 waveform matching the shape Decode
// expects: a leading low run, a rising transition marking the start code,
// then two 8-bit cells sampled at their midpoints.
func buildCCField(t *testing.T, b1, b2 byte) rep.FieldRepresentation {
	t.Helper()
	const lines = 21
	data := make([]uint16, ccSamplesPerLine*lines)
	for i := range data {
		data[i] = ccBlack
	}
	line21 := ccSamplesPerLine * (lines - 1)
	data[line21+ccStart] = ccWhite // the rising transition Decode scans for.

	startCodeEnd := float64(ccStart) + ccSamplesPerBit*2
	setBit := func(pos float64, bit int, v byte) {
		idx := int(pos + ccSamplesPerBit*(float64(bit)+0.5))
		if (v>>uint(bit))&1 == 1 {
			data[line21+idx] = ccWhite
		} else {
			data[line21+idx] = ccBlack
		}
	}
	for bit := 0; bit < 8; bit++ {
		setBit(startCodeEnd, bit, b1)
	}
	for bit := 0; bit < 8; bit++ {
		setBit(startCodeEnd+ccSamplesPerBit*8, bit, b2)
	}

	params := video.Parameters{
		System:         video.SystemNTSC,
		SampleRate:     ccSampleRate,
		SamplesPerLine: ccSamplesPerLine,
		White16bIRE:    ccWhite,
		Black16bIRE:    ccBlack,
	}
	f, err := rep.NewRawField(field.ID(0), video.FirstFieldDescriptor, params, video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	return f
}

func TestDecodeRecoversBothBytes(t *testing.T) {
	f := buildCCField(t, 0x41, 0x5a)
	b1, b2, ok := Decode(f)
	if !ok {
		t.Fatal("expected Decode to succeed")
	}
	if b1 != 0x41 || b2 != 0x5a {
		t.Errorf("Decode = (%#x, %#x), want (0x41, 0x5a)", b1, b2)
	}
}

func TestDecodeNoTransitionFails(t *testing.T) {
	params := video.Parameters{
		System:         video.SystemNTSC,
		SampleRate:     ccSampleRate,
		SamplesPerLine: ccSamplesPerLine,
		White16bIRE:    ccWhite,
		Black16bIRE:    ccBlack,
	}
	data := make([]uint16, ccSamplesPerLine*21)
	for i := range data {
		data[i] = ccBlack
	}
	f, err := rep.NewRawField(field.ID(0), video.FirstFieldDescriptor, params, video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	if _, _, ok := Decode(f); ok {
		t.Error("expected Decode to fail on an all-black line with no transition")
	}
}

func TestObserverProcessFieldSkipsNonNTSC(t *testing.T) {
	params := video.Parameters{
		System:         video.SystemPAL,
		SampleRate:     ccSampleRate,
		SamplesPerLine: ccSamplesPerLine,
		White16bIRE:    ccWhite,
		Black16bIRE:    ccBlack,
	}
	pal, err := rep.NewRawField(field.ID(1), video.FirstFieldDescriptor, params, video.Metadata{}, make([]uint16, ccSamplesPerLine*21))
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}

	ctx := obs.NewContext(nil)
	if err := (Observer{}).ProcessField(pal, ctx, nil); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	if ctx.Has(field.ID(1), KeyPresent) {
		t.Error("expected no observation for a non-NTSC field")
	}
}

func TestObserverProcessFieldWritesDecodedBytes(t *testing.T) {
	f := buildCCField(t, 0x12, 0x34)
	ctx := obs.NewContext(nil)
	if err := (Observer{}).ProcessField(f, ctx, nil); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	present, ok := ctx.Get(field.ID(0), KeyPresent)
	if !ok || !present.(bool) {
		t.Fatal("expected caption presence to be recorded true")
	}
	b1, ok := ctx.Get(field.ID(0), KeyByte1)
	if !ok || b1.(int32) != 0x12 {
		t.Errorf("byte1 = %v, want 0x12", b1)
	}
	b2, ok := ctx.Get(field.ID(0), KeyByte2)
	if !ok || b2.(int32) != 0x34 {
		t.Errorf("byte2 = %v, want 0x34", b2)
	}
}
