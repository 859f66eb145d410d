package leadinout

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/obs"
	"github.com/ausocean/orc/observer/biphase"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

func blankField(id field.ID) rep.FieldRepresentation {
	params := video.Parameters{SamplesPerLine: 4}
	f, _ := rep.NewRawField(id, video.FirstFieldDescriptor, params, video.Metadata{}, make([]uint16, 4))
	return f
}

func TestLeadInAcceptedWhenTotalUnknown(t *testing.T) {
	ctx := obs.NewContext(nil)
	id := field.ID(50000)
	ctx.Set(id, biphase.KeyLeadIn, true)

	o := Observer{} // TotalFields zero: every lead code accepted at face value.
	if err := o.ProcessField(blankField(id), ctx, nil); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	v, ok := ctx.Get(id, KeyInLeadIn)
	if !ok || !v.(bool) {
		t.Error("expected lead-in to be accepted when TotalFields is unknown")
	}
}

func TestLeadInRejectedWhenFarFromStart(t *testing.T) {
	ctx := obs.NewContext(nil)
	id := field.ID(5000) // not < seenWindow (2000), so with TotalFields known this is stray.
	ctx.Set(id, biphase.KeyLeadIn, true)

	o := Observer{TotalFields: 10000}
	if err := o.ProcessField(blankField(id), ctx, nil); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	if ctx.Has(id, KeyInLeadIn) {
		t.Error("expected a mid-capture lead-in repeat to be rejected as stray")
	}
}

func TestLeadOutAcceptedNearEnd(t *testing.T) {
	ctx := obs.NewContext(nil)
	id := field.ID(9500)
	ctx.Set(id, biphase.KeyLeadOut, true)

	o := Observer{TotalFields: 10000} // id+seenWindow(2000) = 11500 >= 10000.
	if err := o.ProcessField(blankField(id), ctx, nil); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	v, ok := ctx.Get(id, KeyInLeadOut)
	if !ok || !v.(bool) {
		t.Error("expected lead-out near the capture's end to be accepted")
	}
}

func TestStopCodePassesThroughUnconditionally(t *testing.T) {
	ctx := obs.NewContext(nil)
	id := field.ID(1234)
	ctx.Set(id, biphase.KeyStopCode, true)

	o := Observer{TotalFields: 10000}
	if err := o.ProcessField(blankField(id), ctx, nil); err != nil {
		t.Fatalf("ProcessField: %v", err)
	}
	v, ok := ctx.Get(id, KeyIsStop)
	if !ok || !v.(bool) {
		t.Error("expected stop code to be recorded regardless of position")
	}
}
