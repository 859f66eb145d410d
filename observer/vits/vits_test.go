package vits

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

func flatField(t *testing.T, level uint16) rep.FieldRepresentation {
	t.Helper()
	params := video.Parameters{
		System:           video.SystemPAL,
		SamplesPerLine:   32,
		ActiveVideoStart: 4,
		ActiveVideoEnd:   28,
		White16bIRE:      60000,
		Black16bIRE:      10000,
	}
	data := make([]uint16, params.SamplesPerLine*20)
	for i := range data {
		data[i] = level
	}
	f, err := rep.NewRawField(field.ID(0), video.FirstFieldDescriptor, params, video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	return f
}

func TestWhiteSNRFlatSliceReportsCeiling(t *testing.T) {
	f := flatField(t, 60000)
	snr, ok := WhiteSNR(f, 5)
	if !ok {
		t.Fatal("expected WhiteSNR to succeed")
	}
	if snr != 120 {
		t.Errorf("WhiteSNR on perfectly flat slice = %v, want 120", snr)
	}
}

func TestBlackPSNRMissingLine(t *testing.T) {
	f := flatField(t, 10000)
	if _, ok := BlackPSNR(f, 999); ok {
		t.Fatal("expected BlackPSNR to fail for out-of-range line")
	}
}
