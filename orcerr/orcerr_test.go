package orcerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIs(t *testing.T) {
	err := New("store.Read", KindNotFound, errors.New("no such field"))
	if !errors.Is(err, NotFound("", nil)) {
		t.Error("expected errors.Is to match another NotFound-kind error")
	}
	if errors.Is(err, IO("", nil)) {
		t.Error("expected errors.Is to not match an IO-kind error")
	}
}

func TestKindOf(t *testing.T) {
	err := InvalidArgument("obs.Context.Set", errors.New("bad type"))
	if got := KindOf(err); got != KindInvalidArgument {
		t.Errorf("KindOf(err) = %v, want %v", got, KindInvalidArgument)
	}
	wrapped := fmt.Errorf("wrapping: %w", err)
	if got := KindOf(wrapped); got != KindInvalidArgument {
		t.Errorf("KindOf(wrapped) = %v, want %v", got, KindInvalidArgument)
	}
	if got := KindOf(errors.New("plain")); got != KindUnknown {
		t.Errorf("KindOf(plain) = %v, want KindUnknown", got)
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := New("store.Write", KindIO, cause)
	if !errors.Is(err, cause) {
		t.Error("expected Unwrap to expose cause")
	}
}

func TestErrorString(t *testing.T) {
	err := New("mapping.Analyze", KindInvalidFormat, nil)
	want := "mapping.Analyze: invalid_format"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
