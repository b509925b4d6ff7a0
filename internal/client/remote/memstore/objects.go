package memstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

// DefaultObjectBaseURL is the public prefix of objects kept in memory.
const DefaultObjectBaseURL = "https://objects.memstore.invalid"

type object struct {
	data        []byte
	contentType string
}

// Objects is an in-memory remote.ObjectStore.
type Objects struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]object
	puts    []string
	fault   Fault
}

func NewObjects(baseURL string) *Objects {
	if baseURL == "" {
		baseURL = DefaultObjectBaseURL
	}
	return &Objects{baseURL: strings.TrimRight(baseURL, "/"), objects: make(map[string]object)}
}

func (s *Objects) SetFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// check runs unlocked so a test can block one upload while others proceed.
func (s *Objects) check(ctx context.Context, op Op, key string) error {
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

func (s *Objects) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := s.check(ctx, OpPut, key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("memstore: put %s: key already written", key)
	}
	s.objects[key] = object{data: append([]byte(nil), data...), contentType: contentType}
	s.puts = append(s.puts, key)
	return nil
}

func (s *Objects) URL(ctx context.Context, key string) (string, error) {
	if err := s.check(ctx, OpURL, key); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("memstore: url %s: %w", key, remote.ErrNotFound)
	}
	return s.baseURL + "/" + escapeKey(key), nil
}

// Object returns the stored bytes and content type of key.
func (s *Objects) Object(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[key]
	return o.data, o.contentType, ok
}

// Keys returns every written key in write order.
func (s *Objects) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.puts...)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
