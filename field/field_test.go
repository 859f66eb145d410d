package field

import "testing"

func TestRangeContains(t *testing.T) {
	r := NewRange(10, 20)
	cases := []struct {
		id   ID
		want bool
	}{
		{9, false},
		{10, true},
		{15, true},
		{19, true},
		{20, false},
	}
	for _, c := range cases {
		if got := r.Contains(c.id); got != c.want {
			t.Errorf("Contains(%d) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestRangeEmptyOnInverted(t *testing.T) {
	r := NewRange(20, 10)
	if !r.Empty() {
		t.Fatalf("expected inverted range to collapse to empty, got %v", r)
	}
}

func TestRangeIntersect(t *testing.T) {
	a := NewRange(0, 10)
	b := NewRange(5, 15)
	got := a.Intersect(b)
	want := NewRange(5, 10)
	if got != want {
		t.Errorf("Intersect = %v, want %v", got, want)
	}

	c := NewRange(100, 200)
	if got := a.Intersect(c); !got.Empty() {
		t.Errorf("expected empty intersection, got %v", got)
	}
}

func TestIDAddSaturates(t *testing.T) {
	id := Invalid - 1
	if got := id.Add(5); got != Invalid-1 {
		t.Errorf("Add overflow: got %v, want %v", got, Invalid-1)
	}
}

func TestIDSubPanicsOnUnderflow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on Sub underflow")
		}
	}()
	ID(1).Sub(ID(2))
}

func TestInvalidNotValid(t *testing.T) {
	if Invalid.Valid() {
		t.Fatal("Invalid.Valid() should be false")
	}
	if !ID(0).Valid() {
		t.Fatal("zero ID should be valid")
	}
}
