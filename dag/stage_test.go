package dag

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

func unknownSystemField(t *testing.T, lines int) rep.FieldRepresentation {
	t.Helper()
	params := video.Parameters{System: video.SystemUnknown, SamplesPerLine: 2}
	data := make([]uint16, lines*2)
	f, err := rep.NewRawField(field.ID(0), video.FirstFieldDescriptor, params, video.Metadata{}, data)
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}
	return f
}

func TestSystemDetectStageResolvesUnknownSystem(t *testing.T) {
	want := video.SystemNTSC
	f := unknownSystemField(t, want.LinesPerFrame()/2)

	out, err := RunStages([]Stage{SystemDetectStage{}}, []Artifact{{Field: f}})
	if err != nil {
		t.Fatalf("RunStages: %v", err)
	}
	if got := out[0].Field.Parameters().System; got != want {
		t.Errorf("resolved System = %v, want %v", got, want)
	}
	if out[0].FromStage != "system_detect" {
		t.Errorf("FromStage = %q, want %q", out[0].FromStage, "system_detect")
	}
	if got := out[0].Field.Descriptor().Height; got != want.LinesPerFrame()/2+1 {
		t.Errorf("Descriptor().Height = %d, want %d", got, want.LinesPerFrame()/2+1)
	}
}

func TestSystemDetectStagePassesThroughKnownSystem(t *testing.T) {
	params := video.Parameters{System: video.SystemPAL, SamplesPerLine: 2}
	f, err := rep.NewRawField(field.ID(0), video.FirstFieldDescriptor, params, video.Metadata{}, []uint16{0, 0})
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}

	out, err := RunStages([]Stage{SystemDetectStage{}}, []Artifact{{Field: f}})
	if err != nil {
		t.Fatalf("RunStages: %v", err)
	}
	if got := out[0].Field.Parameters().System; got != video.SystemPAL {
		t.Errorf("System = %v, want unchanged %v", got, video.SystemPAL)
	}
}

func TestAttachmentStageAttachesValue(t *testing.T) {
	params := video.Parameters{System: video.SystemPAL, SamplesPerLine: 2}
	f, err := rep.NewRawField(field.ID(0), video.FirstFieldDescriptor, params, video.Metadata{}, []uint16{0, 0})
	if err != nil {
		t.Fatalf("NewRawField: %v", err)
	}

	stage := AttachmentStage{
		Key: "resolved_system",
		Value: func(a Artifact) interface{} {
			return a.Field.Parameters().System.String()
		},
	}
	out, err := RunStages([]Stage{stage}, []Artifact{{Field: f}})
	if err != nil {
		t.Fatalf("RunStages: %v", err)
	}
	wrapped, ok := out[0].Field.(rep.ObservationAttachment)
	if !ok {
		t.Fatalf("expected result field to be an ObservationAttachment, got %T", out[0].Field)
	}
	v, ok := wrapped.Attachment("resolved_system")
	if !ok || v != "PAL" {
		t.Errorf("Attachment(resolved_system) = %v,%v want %q,true", v, ok, "PAL")
	}
}

func TestRunStagesChainsSystemDetectThenAttachment(t *testing.T) {
	f := unknownSystemField(t, video.SystemNTSC.LinesPerFrame()/2)
	stages := []Stage{
		SystemDetectStage{},
		AttachmentStage{
			Key:   "resolved_system",
			Value: func(a Artifact) interface{} { return a.Field.Parameters().System.String() },
		},
	}
	out, err := RunStages(stages, []Artifact{{Field: f}})
	if err != nil {
		t.Fatalf("RunStages: %v", err)
	}
	wrapped, ok := out[0].Field.(rep.ObservationAttachment)
	if !ok {
		t.Fatalf("expected ObservationAttachment, got %T", out[0].Field)
	}
	if got := wrapped.Parameters().System; got != video.SystemNTSC {
		t.Errorf("System = %v, want %v", got, video.SystemNTSC)
	}
	if v, ok := wrapped.Attachment("resolved_system"); !ok || v != "NTSC" {
		t.Errorf("Attachment(resolved_system) = %v,%v want %q,true", v, ok, "NTSC")
	}
}
