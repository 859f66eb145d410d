package rep

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/video"
)

func testParams() video.Parameters {
	return video.Parameters{System: video.SystemPAL, SamplesPerLine: 4}
}

func TestRawFieldLine(t *testing.T) {
	data := []uint16{1, 2, 3, 4, 5, 6, 7, 8}
	f, err := NewRawField(field.ID(1), video.FirstFieldDescriptor, testParams(), video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	if got := f.LineCount(); got != 2 {
		t.Fatalf("LineCount = %d, want 2", got)
	}
	line, err := f.Line(2)
	if err != nil {
		t.Fatalf("Line(2): %v", err)
	}
	want := Line{5, 6, 7, 8}
	for i := range want {
		if line[i] != want[i] {
			t.Errorf("Line(2)[%d] = %d, want %d", i, line[i], want[i])
		}
	}
	if _, err := f.Line(3); err == nil {
		t.Error("Line(3) should error, out of range")
	}
}

func TestNewRawFieldRejectsMisalignedData(t *testing.T) {
	_, err := NewRawField(field.ID(0), video.FirstFieldDescriptor, testParams(), video.Metadata{}, []uint16{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for misaligned sample data")
	}
}

func TestRawFieldFieldRangeAndBounds(t *testing.T) {
	data := []uint16{1, 2, 3, 4, 5, 6, 7, 8}
	f, err := NewRawField(field.ID(3), video.FirstFieldDescriptor, testParams(), video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	if got := f.FieldCount(); got != 1 {
		t.Fatalf("FieldCount = %d, want 1", got)
	}
	if !f.HasField(field.ID(3)) {
		t.Error("HasField(3) should be true")
	}
	if f.HasField(field.ID(4)) {
		t.Error("HasField(4) should be false")
	}
	if _, err := f.GetLine(field.ID(4), 1); err == nil {
		t.Error("GetLine with wrong field ID should error")
	}
	lines, err := f.GetField(field.ID(3))
	if err != nil {
		t.Fatalf("GetField: %v", err)
	}
	if len(lines) != f.LineCount() {
		t.Fatalf("GetField returned %d lines, want %d", len(lines), f.LineCount())
	}
}

func TestRawFieldGetLinePadsToDescriptorHeight(t *testing.T) {
	data := []uint16{1, 2, 3, 4}
	desc := video.FirstFieldDescriptor
	desc.Height = 3
	f, err := NewRawField(field.ID(0), desc, testParams(), video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	if got := f.FieldRange().Len(); got != 1 {
		t.Fatalf("FieldRange().Len() = %d, want 1", got)
	}
	if _, err := f.GetLine(field.ID(0), 2); err != nil {
		t.Fatalf("GetLine(2) within declared height should succeed: %v", err)
	}
	if _, err := f.GetLine(field.ID(0), 4); err == nil {
		t.Error("GetLine(4) beyond declared height should error")
	}
}

func TestVideoParamsOverride(t *testing.T) {
	f, _ := NewRawField(field.ID(0), video.FirstFieldDescriptor, testParams(), video.Metadata{}, []uint16{1, 2, 3, 4})
	override := video.Parameters{System: video.SystemNTSC, SamplesPerLine: 4}
	wrapped := VideoParamsOverride{FieldRepresentation: f, Override: override}
	if wrapped.Parameters().System != video.SystemNTSC {
		t.Errorf("override not applied")
	}
	if wrapped.ID() != field.ID(0) {
		t.Errorf("ID should pass through to wrapped field")
	}
}

func TestObservationAttachment(t *testing.T) {
	f, _ := NewRawField(field.ID(0), video.FirstFieldDescriptor, testParams(), video.Metadata{}, []uint16{1, 2, 3, 4})
	w1 := ObservationAttachment{FieldRepresentation: f, Key: "a", Value: 1}
	w2 := ObservationAttachment{FieldRepresentation: w1, Key: "b", Value: 2}

	if v, ok := w2.Attachment("b"); !ok || v != 2 {
		t.Errorf("Attachment(b) = %v,%v want 2,true", v, ok)
	}
	if v, ok := w2.Attachment("a"); !ok || v != 1 {
		t.Errorf("Attachment(a) should shadow through to inner wrap, got %v,%v", v, ok)
	}
	if _, ok := w2.Attachment("missing"); ok {
		t.Errorf("Attachment(missing) should be false")
	}
}
