/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package obs implements ObservationContext, the typed, namespaced store
// that observers read and write as the DAG processes each field, plus
// the schema that validates keys before a pipeline runs.
package obs

import (
	"fmt"
	"sync"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/orcerr"
)

// Type identifies the kind of value an observation key holds.
type Type int

const (
	TypeInt32 Type = iota
	TypeInt64
	TypeFloat64
	TypeString
	TypeBool
	TypeCustom
)

func (t Type) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeBool:
		return "bool"
	case TypeCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Key names an observation: a namespace (typically the observer's name)
// plus a field within it, e.g. namespace "biphase", name "picture_number".
type Key struct {
	Namespace string
	Name      string
}

// Full returns "namespace.name".
func (k Key) Full() string { return k.Namespace + "." + k.Name }

// SchemaEntry declares one observation an observer may produce.
type SchemaEntry struct {
	Key         Key
	Type        Type
	Description string
	Optional    bool
}

// Schema is the set of declared observation keys and their types, used to
// validate writes and to let the DAG executor check dependency
// satisfaction before running.
type Schema struct {
	mu      sync.RWMutex
	entries map[Key]SchemaEntry
}

// NewSchema returns an empty Schema.
func NewSchema() *Schema {
	return &Schema{entries: make(map[Key]SchemaEntry)}
}

// Register adds or replaces the schema entry for e.Key.
func (s *Schema) Register(e SchemaEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.Key] = e
}

// Clear removes all schema entries in namespace ns, or all entries if ns
// is empty.
func (s *Schema) Clear(ns string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ns == "" {
		s.entries = make(map[Key]SchemaEntry)
		return
	}
	for k := range s.entries {
		if k.Namespace == ns {
			delete(s.entries, k)
		}
	}
}

// Lookup returns the schema entry for k, if declared.
func (s *Schema) Lookup(k Key) (SchemaEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[k]
	return e, ok
}

// Context is the per-run store of field observations: a nested map from
// field → namespace → key → value. It optionally validates writes
// against a Schema.
type Context struct {
	mu     sync.RWMutex
	schema *Schema
	data   map[field.ID]map[string]map[string]interface{}
}

// NewContext builds a Context. schema may be nil to skip validation.
func NewContext(schema *Schema) *Context {
	return &Context{
		schema: schema,
		data:   make(map[field.ID]map[string]map[string]interface{}),
	}
}

// Set records value for k at id. If a schema is attached and k is
// declared, Set returns an error when value's dynamic type does not
// match the declared Type (TypeCustom accepts anything).
func (c *Context) Set(id field.ID, k Key, value interface{}) error {
	if c.schema != nil {
		if e, ok := c.schema.Lookup(k); ok {
			if err := checkType(e.Type, value); err != nil {
				return orcerr.InvalidArgument("obs.Context.Set", fmt.Errorf("%s: %w", k.Full(), err))
			}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ns, ok := c.data[id]
	if !ok {
		ns = make(map[string]map[string]interface{})
		c.data[id] = ns
	}
	m, ok := ns[k.Namespace]
	if !ok {
		m = make(map[string]interface{})
		ns[k.Namespace] = m
	}
	m[k.Name] = value
	return nil
}

// Get returns the value for k at id.
func (c *Context) Get(id field.ID, k Key) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.data[id]
	if !ok {
		return nil, false
	}
	m, ok := ns[k.Namespace]
	if !ok {
		return nil, false
	}
	v, ok := m[k.Name]
	return v, ok
}

// Has reports whether k is set at id.
func (c *Context) Has(id field.ID, k Key) bool {
	_, ok := c.Get(id, k)
	return ok
}

// Namespaces returns the namespaces with at least one observation at id.
func (c *Context) Namespaces(id field.ID) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ns, ok := c.data[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(ns))
	for n := range ns {
		out = append(out, n)
	}
	return out
}

// Keys returns the keys set within namespace ns at id.
func (c *Context) Keys(id field.ID, ns string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.data[id][ns]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	return out
}

// All returns a flattened copy of every observation recorded at id.
func (c *Context) All(id field.ID) map[Key]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[Key]interface{})
	for ns, m := range c.data[id] {
		for name, v := range m {
			out[Key{Namespace: ns, Name: name}] = v
		}
	}
	return out
}

// ClearField discards every observation recorded at id.
func (c *Context) ClearField(id field.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, id)
}

// Clear discards all observations across all fields.
func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[field.ID]map[string]map[string]interface{})
}

func checkType(t Type, v interface{}) error {
	if t == TypeCustom {
		return nil
	}
	ok := false
	switch t {
	case TypeInt32:
		_, ok = v.(int32)
	case TypeInt64:
		_, ok = v.(int64)
	case TypeFloat64:
		_, ok = v.(float64)
	case TypeString:
		_, ok = v.(string)
	case TypeBool:
		_, ok = v.(bool)
	}
	if !ok {
		return fmt.Errorf("value %v (%T) does not match declared type %s", v, v, t)
	}
	return nil
}
