// Package memstore keeps documents and objects in process memory. It backs
// the "memory" drivers and lets tests inject failures.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

// Op names a store operation for fault injection.
type Op string

const (
	OpInsert Op = "insert"
	OpList   Op = "list"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpPing   Op = "ping"
	OpPut    Op = "put"
	OpURL    Op = "url"
)

// Fault is consulted before every operation; a non-nil error fails the
// operation without touching state.
type Fault func(ctx context.Context, op Op, key string) error

// Documents is an in-memory remote.DocumentStore. Timestamps come from the
// store's clock and strictly increase, like a server clock would.
type Documents struct {
	mu    sync.Mutex
	order []string
	docs  map[string]remote.Document
	now   func() time.Time
	last  time.Time
	fault Fault
}

func NewDocuments() *Documents {
	return &Documents{docs: make(map[string]remote.Document), now: time.Now}
}

// SetClock replaces the time source used for server timestamps.
func (s *Documents) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Documents) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Seed stores doc verbatim, bypassing timestamp assignment. Used to load
// records in legacy shapes.
func (s *Documents) Seed(doc remote.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := doc.ID()
	if _, ok := s.docs[id]; !ok {
		s.order = append(s.order, id)
	}
	s.docs[id] = doc.Clone()
}

// Get returns a copy of the stored record.
func (s *Documents) Get(id string) (remote.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return d.Clone(), true
}

func (s *Documents) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// check runs before the store lock is taken, so a fault may block one
// call while others proceed.
func (s *Documents) check(ctx context.Context, op Op, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	fault := s.fault
	s.mu.Unlock()
	if fault != nil {
		return fault(ctx, op, key)
	}
	return nil
}

func (s *Documents) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Documents) Insert(ctx context.Context, doc remote.Document) (remote.Document, error) {
	id := doc.ID()
	if err := s.check(ctx, OpInsert, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		return nil, fmt.Errorf("memstore: insert: missing %s", remote.FieldID)
	}
	if _, exists := s.docs[id]; exists {
		return nil, fmt.Errorf("memstore: insert %s: already exists", id)
	}

	stored := doc.Clone()
	ts := s.tick()
	stored[remote.FieldCreatedAt] = ts
	stored[remote.FieldUpdatedAt] = ts

	s.docs[id] = stored
	s.order = append(s.order, id)
	return stored.Clone(), nil
}

func (s *Documents) List(ctx context.Context) ([]remote.Document, error) {
	if err := s.check(ctx, OpList, ""); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]remote.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id].Clone())
	}
	return out, nil
}

func (s *Documents) Update(ctx context.Context, id string, set remote.Document) (remote.Document, error) {
	if err := s.check(ctx, OpUpdate, id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("memstore: update %s: %w", id, remote.ErrNotFound)
	}
	for k, v := range set.Clone() {
		if k == remote.FieldID || k == remote.FieldCreatedAt {
			continue
		}
		doc[k] = v
	}
	doc[remote.FieldUpdatedAt] = s.tick()
	return doc.Clone(), nil
}

func (s *Documents) Delete(ctx context.Context, id string) error {
	if err := s.check(ctx, OpDelete, id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return fmt.Errorf("memstore: delete %s: %w", id, remote.ErrNotFound)
	}
	delete(s.docs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Documents) Ping(ctx context.Context) error {
	return s.check(ctx, OpPing, "")
}
