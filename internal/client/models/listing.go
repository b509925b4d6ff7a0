// Package models defines the client-side listing model: persisted listings,
// local drafts and edits, and the rules that tell a durable image reference
// from an ephemeral local handle.
package models

import (
	"regexp"
	"slices"
	"strconv"
	"time"
)

// Status is the lifecycle flag of a listing.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Opposite returns the status a toggle moves to.
func (s Status) Opposite() Status {
	if s == StatusInactive {
		return StatusActive
	}
	return StatusInactive
}

// ParseStatus accepts exactly "active" or "inactive". Anything else,
// including other strings, numbers and nil, is reported as not ok.
func ParseStatus(raw any) (Status, bool) {
	s, ok := raw.(string)
	if !ok {
		return "", false
	}
	switch Status(s) {
	case StatusActive, StatusInactive:
		return Status(s), true
	}
	return "", false
}

// ResolveStatus turns a persisted status field into a Status. present tells
// whether the field existed at all. A valid persisted value is always used
// verbatim; the active default only fills in for a missing or unusable value.
func ResolveStatus(raw any, present bool) Status {
	if present {
		if s, ok := ParseStatus(raw); ok {
			return s
		}
	}
	return StatusActive
}

// Category classifies a listing.
type Category string

const (
	CategoryFlat   Category = "flat"
	CategoryHostel Category = "hostel"
	CategoryRoom   Category = "room"
	CategoryPG     Category = "pg"
)

// Listing is a persisted rental listing as held in the canonical set.
type Listing struct {
	ID           string
	OwnerID      string
	Title        string
	Category     Category
	FlatType     string
	Price        float64
	City         string
	Locality     string
	ContactPhone string
	Amenities    []string
	Images       []string
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Clone returns a copy that shares no slices with l.
func (l Listing) Clone() Listing {
	l.Amenities = slices.Clone(l.Amenities)
	l.Images = slices.Clone(l.Images)
	return l
}

// Bhk is the bedroom count encoded in FlatType.
func (l Listing) Bhk() int {
	return ParseBhk(l.FlatType)
}

var firstNumber = regexp.MustCompile(`\d+`)

// ParseBhk returns the first integer token of flatType ("2 BHK" -> 2,
// "3bhk flat" -> 3) or 0 when there is none.
func ParseBhk(flatType string) int {
	m := firstNumber.FindString(flatType)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}
