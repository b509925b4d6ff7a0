// Package remote defines what the client needs from the managed backend: a
// document store holding listing records and an object store holding image
// bytes. Adapters live in the sub-packages.
package remote

import (
	"context"
	"errors"
	"maps"
	"slices"
	"time"
)

var (
	// ErrUnavailable means the backend could not be reached; the call may be retried.
	ErrUnavailable = errors.New("remote store unavailable")
	ErrNotFound    = errors.New("document not found")
)

// Persisted field names of a listing record.
const (
	FieldID           = "id"
	FieldOwnerID      = "ownerId"
	FieldTitle        = "title"
	FieldCategory     = "category"
	FieldFlatType     = "flatType"
	FieldPrice        = "price"
	FieldCity         = "city"
	FieldLocality     = "locality"
	FieldContactPhone = "contactPhone"
	FieldAmenities    = "amenities"
	FieldImages       = "images"
	FieldStatus       = "status"
	FieldCreatedAt    = "createdAt"
	FieldUpdatedAt    = "updatedAt"

	// FieldLegacyImages is read as a fallback for old records and never written.
	FieldLegacyImages = "imageUrls"
)

// Document is a listing record as stored. Values keep whatever loose shape
// the backend returned: arrays as []any, numbers as int/int64/float64,
// timestamps as time.Time.
type Document map[string]any

// Clone returns a copy whose top-level slices and maps are not shared.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	case []string:
		return slices.Clone(t)
	case map[string]any:
		return maps.Clone(t)
	default:
		return v
	}
}

// ID returns the string id of the record, or "".
func (d Document) ID() string {
	s, _ := d[FieldID].(string)
	return s
}

// Time returns the timestamp stored under key, or the zero time.
func (d Document) Time(key string) time.Time {
	switch t := d[key].(type) {
	case time.Time:
		return t
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// DocumentStore persists listing records. Implementations assign createdAt
// on Insert and updatedAt on Insert and Update from the backend's clock.
type DocumentStore interface {
	// Insert writes a new record keyed by doc[FieldID] and returns it as stored.
	Insert(ctx context.Context, doc Document) (Document, error)
	// List returns every record in creation order.
	List(ctx context.Context) ([]Document, error)
	// Update sets the given fields on record id and returns the full record.
	Update(ctx context.Context, id string, set Document) (Document, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ObjectStore holds uploaded bytes.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// URL returns a durable, publicly dereferenceable reference to key.
	URL(ctx context.Context, key string) (string, error)
}
