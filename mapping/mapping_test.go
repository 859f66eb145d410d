package mapping

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/video"
)

func buildObs(frameNums []int) (map[field.ID]Observation, []field.ID) {
	obsByField := make(map[field.ID]Observation)
	var order []field.ID
	id := field.ID(0)
	for _, n := range frameNums {
		obsByField[id] = Observation{ID: id, VBIFrameNumber: n, QualityScore: 1}
		order = append(order, id)
		id = id.Add(1)
		obsByField[id] = Observation{ID: id, VBIFrameNumber: n, QualityScore: 1}
		order = append(order, id)
		id = id.Add(1)
	}
	return obsByField, order
}

func TestAnalyzeContiguousSequence(t *testing.T) {
	obsByField, order := buildObs([]int{1, 2, 3, 4, 5})
	res, err := Analyze(video.SystemPAL, 2, obsByField, order)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.Frames) != 5 {
		t.Fatalf("got %d frames, want 5", len(res.Frames))
	}
	want := "0-9"
	if res.MappingSpec != want {
		t.Errorf("MappingSpec = %q, want %q", res.MappingSpec, want)
	}
}

func TestAnalyzePadsGap(t *testing.T) {
	obsByField, order := buildObs([]int{1, 2, 5, 6})
	res, err := Analyze(video.SystemPAL, 2, obsByField, order)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	// Frames for 1,2 occupy fields 0-3; a 2-frame gap (3,4) is padded
	// before frames for 5,6 which occupy fields 4-7.
	wantFrames := 6 // 2 real + 2 pad + 2 real
	if len(res.Frames) != wantFrames {
		t.Fatalf("got %d frames, want %d: %+v", len(res.Frames), wantFrames, res.Frames)
	}
	if res.MappingSpec == "" {
		t.Error("expected non-empty mapping spec")
	}
}

func TestRemoveDuplicateFramesKeepsBestQuality(t *testing.T) {
	frames := []FrameInfo{
		{FirstField: 0, SecondField: 1, VBIFrameNumber: 1, QualityScore: 0.5},
		{FirstField: 2, SecondField: 3, VBIFrameNumber: 1, QualityScore: 0.9},
	}
	out := removeDuplicateFrames(frames)
	if len(out) != 1 {
		t.Fatalf("got %d frames, want 1", len(out))
	}
	if out[0].QualityScore != 0.9 {
		t.Errorf("kept frame quality = %v, want 0.9", out[0].QualityScore)
	}
}

func TestConvertCLVTimecodeToFrame(t *testing.T) {
	got := convertCLVTimecodeToFrame(0, 1, 0, 5, 25)
	want := 1*60*25 + 5
	if got != want {
		t.Errorf("convertCLVTimecodeToFrame = %d, want %d", got, want)
	}
}

// TestAnalyzeMappingSpecLiteralPadScenario reproduces the exact scenario
// from spec.md §8.4: frames 0-1,2-3,4-5, a gap of two frames, then
// 10-11,12-13 must emit "0-5,PAD_4,10-13".
func TestAnalyzeMappingSpecLiteralPadScenario(t *testing.T) {
	ids := []field.ID{0, 1, 2, 3, 4, 5, 10, 11, 12, 13}
	vbi := []int{1, 1, 2, 2, 3, 3, 6, 6, 7, 7}
	obsByField := make(map[field.ID]Observation, len(ids))
	for i, id := range ids {
		obsByField[id] = Observation{ID: id, VBIFrameNumber: vbi[i], QualityScore: 1}
	}

	res, err := Analyze(video.SystemPAL, 2, obsByField, ids)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := "0-5,PAD_4,10-13"
	if res.MappingSpec != want {
		t.Fatalf("MappingSpec = %q, want %q", res.MappingSpec, want)
	}
}

func TestRemoveInvalidFramesByPhaseDropsMismatchedFrame(t *testing.T) {
	frames := []FrameInfo{
		{FirstField: 0, SecondField: 1, VBIFrameNumber: 1, FirstFieldPhase: 1, SecondFieldPhase: 2}, // 1+1=2: valid.
		{FirstField: 2, SecondField: 3, VBIFrameNumber: 2, FirstFieldPhase: 3, SecondFieldPhase: 3}, // expected 4: invalid.
		{FirstField: 4, SecondField: 5, VBIFrameNumber: 3, FirstFieldPhase: 8, SecondFieldPhase: 1}, // PAL wrap 8->1: valid.
	}
	out := removeInvalidFramesByPhase(frames, video.SystemPAL)
	if len(out) != 2 {
		t.Fatalf("got %d frames, want 2: %+v", len(out), out)
	}
	if out[0].VBIFrameNumber != 1 || out[1].VBIFrameNumber != 3 {
		t.Fatalf("unexpected surviving frames: %+v", out)
	}
}

func TestNumberPulldownFramesHandlesLeadingPulldown(t *testing.T) {
	frames := []FrameInfo{
		{VBIFrameNumber: -1, IsPulldown: true},
		{VBIFrameNumber: 5, IsPulldown: false},
	}
	out := numberPulldownFrames(frames)
	if out[0].VBIFrameNumber != 4 {
		t.Fatalf("leading pulldown frame VBIFrameNumber = %d, want 4", out[0].VBIFrameNumber)
	}
}

func TestRenumberForPulldownAssignsDenseSequence(t *testing.T) {
	frames := []FrameInfo{
		{VBIFrameNumber: 10},
		{VBIFrameNumber: 10, IsPulldown: true},
		{VBIFrameNumber: 11},
	}
	out := renumberForPulldown(frames)
	want := []int{10, 11, 12}
	for i, w := range want {
		if out[i].VBIFrameNumber != w {
			t.Errorf("frame %d VBIFrameNumber = %d, want %d", i, out[i].VBIFrameNumber, w)
		}
	}
}

func TestRenumberForPulldownNoopWithoutPulldown(t *testing.T) {
	frames := []FrameInfo{{VBIFrameNumber: 10}, {VBIFrameNumber: 11}}
	out := renumberForPulldown(frames)
	if out[0].VBIFrameNumber != 10 || out[1].VBIFrameNumber != 11 {
		t.Fatalf("expected unchanged frames, got %+v", out)
	}
}
