// Package events announces confirmed listing changes to other clients.
package events

import (
	"context"
	"time"
)

// Kind doubles as the NATS subject of a change.
type Kind string

const (
	KindCreated Kind = "listings.created"
	KindUpdated Kind = "listings.updated"
	KindDeleted Kind = "listings.deleted"

	// SubjectAll matches every listing change subject.
	SubjectAll = "listings.>"
)

// Change is published after a write has been confirmed by the backend.
type Change struct {
	Kind      Kind      `json:"kind"`
	ListingID string    `json:"listing_id"`
	OwnerID   string    `json:"owner_id"`
	Status    string    `json:"status,omitempty"`
	Origin    string    `json:"origin"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, c Change) error
}

// Nop discards every change.
type Nop struct{}

func (Nop) Publish(context.Context, Change) error { return nil }
