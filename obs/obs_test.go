package obs

import (
	"testing"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/orcerr"
)

func TestContextSetGet(t *testing.T) {
	c := NewContext(nil)
	k := Key{Namespace: "biphase", Name: "picture_number"}
	if err := c.Set(field.ID(1), k, int32(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := c.Get(field.ID(1), k)
	if !ok || v.(int32) != 42 {
		t.Fatalf("Get = %v,%v want 42,true", v, ok)
	}
	if c.Has(field.ID(2), k) {
		t.Fatal("Has should be false for unset field")
	}
}

func TestContextSchemaValidation(t *testing.T) {
	s := NewSchema()
	k := Key{Namespace: "biphase", Name: "picture_number"}
	s.Register(SchemaEntry{Key: k, Type: TypeInt32})

	c := NewContext(s)
	err := c.Set(field.ID(0), k, "not an int32")
	if err == nil {
		t.Fatal("expected type mismatch error")
	}
	if got := orcerr.KindOf(err); got != orcerr.KindInvalidArgument {
		t.Errorf("KindOf(err) = %v, want %v", got, orcerr.KindInvalidArgument)
	}
	if err := c.Set(field.ID(0), k, int32(1)); err != nil {
		t.Fatalf("Set with correct type should succeed: %v", err)
	}
}

func TestContextClearField(t *testing.T) {
	c := NewContext(nil)
	k := Key{Namespace: "a", Name: "b"}
	c.Set(field.ID(1), k, true)
	c.ClearField(field.ID(1))
	if c.Has(field.ID(1), k) {
		t.Fatal("ClearField should remove observations")
	}
}

func TestContextAll(t *testing.T) {
	c := NewContext(nil)
	c.Set(field.ID(1), Key{Namespace: "a", Name: "x"}, 1)
	c.Set(field.ID(1), Key{Namespace: "b", Name: "y"}, 2)
	all := c.All(field.ID(1))
	if len(all) != 2 {
		t.Fatalf("All() len = %d, want 2", len(all))
	}
}

func TestSchemaClearNamespace(t *testing.T) {
	s := NewSchema()
	s.Register(SchemaEntry{Key: Key{Namespace: "a", Name: "x"}, Type: TypeBool})
	s.Register(SchemaEntry{Key: Key{Namespace: "b", Name: "y"}, Type: TypeBool})
	s.Clear("a")
	if _, ok := s.Lookup(Key{Namespace: "a", Name: "x"}); ok {
		t.Fatal("expected namespace a to be cleared")
	}
	if _, ok := s.Lookup(Key{Namespace: "b", Name: "y"}); !ok {
		t.Fatal("expected namespace b to remain")
	}
}
