/*
LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package memstore is an in-memory store.SampleReader/MetadataReader,
// used by tests and by short-lived analyses that have already loaded a
// capture into memory.
package memstore

import (
	"fmt"
	"sync"

	"github.com/ausocean/orc/field"
	"github.com/ausocean/orc/rep"
	"github.com/ausocean/orc/video"
)

// Store holds an in-memory capture: a set of fields keyed by ID plus
// their video parameters and metadata.
type Store struct {
	mu     sync.RWMutex
	fields map[field.ID]rep.FieldRepresentation
	params map[field.ID]video.Parameters
	meta   map[field.ID]video.Metadata
	rng    field.Range
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		fields: make(map[field.ID]rep.FieldRepresentation),
		params: make(map[field.ID]video.Parameters),
		meta:   make(map[field.ID]video.Metadata),
	}
}

// Put inserts or replaces f, using its own Parameters/Metadata accessors
// for the MetadataReader side.
func (s *Store) Put(f rep.FieldRepresentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := f.ID()
	s.fields[id] = f
	s.params[id] = f.Parameters()
	s.meta[id] = f.Metadata()
	if s.rng.Empty() {
		s.rng = field.NewRange(id, id.Add(1))
		return
	}
	if id < s.rng.Start {
		s.rng = field.NewRange(id, s.rng.End)
	}
	if id.Add(1) > s.rng.End {
		s.rng = field.NewRange(s.rng.Start, id.Add(1))
	}
}

func (s *Store) Field(id field.ID) (rep.FieldRepresentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.fields[id]
	if !ok {
		return nil, fmt.Errorf("memstore: no field %s", id)
	}
	return f, nil
}

func (s *Store) Range() field.Range {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rng
}

func (s *Store) Close() error { return nil }

func (s *Store) Parameters(id field.ID) (video.Parameters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.params[id]
	if !ok {
		return video.Parameters{}, fmt.Errorf("memstore: no parameters for field %s", id)
	}
	return p, nil
}

func (s *Store) Metadata(id field.ID) (video.Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[id]
	if !ok {
		return video.Metadata{}, fmt.Errorf("memstore: no metadata for field %s", id)
	}
	return m, nil
}
