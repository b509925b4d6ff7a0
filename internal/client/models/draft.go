package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DraftIDPrefix marks temporary identifiers so they cannot be mistaken for
// persisted listing ids.
const DraftIDPrefix = "draft-"

var ErrInvalidDraft = errors.New("invalid draft")

// Draft is the working copy held by the create screen. Images may mix
// durable references and local handles until ingestion has run.
type Draft struct {
	TempID       string    `json:"temp_id"`
	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	FlatType     string    `json:"flat_type"`
	Price        float64   `json:"price"`
	City         string    `json:"city"`
	Locality     string    `json:"locality"`
	ContactPhone string    `json:"contact_phone"`
	Amenities    []string  `json:"amenities,omitempty"`
	Images       []string  `json:"images,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewDraft() *Draft {
	return &Draft{TempID: DraftIDPrefix + uuid.NewString(), CreatedAt: time.Now().UTC()}
}

// IsTemporaryID reports whether id was issued for a draft.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, DraftIDPrefix)
}

// Validate checks the fields a listing cannot be created without.
func (d *Draft) Validate() error {
	var problems []string
	if d.TempID == "" {
		problems = append(problems, "missing temporary id")
	}
	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "title is required")
	}
	if d.Category == "" {
		problems = append(problems, "category is required")
	}
	if d.Price < 0 {
		problems = append(problems, "price must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(problems, "; "))
	}
	return nil
}

// PendingImages returns the local handles that still need ingestion.
func (d *Draft) PendingImages() []string {
	_, local := SplitImages(d.Images)
	return local
}

// ToListing builds the listing this draft becomes once persisted under id.
// Status always starts active.
func (d *Draft) ToListing(id, ownerID string) Listing {
	return Listing{
		ID:           id,
		OwnerID:      ownerID,
		Title:        strings.TrimSpace(d.Title),
		Category:     d.Category,
		FlatType:     d.FlatType,
		Price:        d.Price,
		City:         d.City,
		Locality:     d.Locality,
		ContactPhone: d.ContactPhone,
		Amenities:    slices.Clone(d.Amenities),
		Images:       slices.Clone(d.Images),
		Status:       StatusActive,
	}
}
