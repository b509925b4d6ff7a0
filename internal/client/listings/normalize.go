package listings

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"

	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/remote"
)

// Normalize maps a stored record of any known shape onto a Listing.
//
// Images come from the modern field, or from the legacy field when the
// modern one is missing or holds no usable entry; only non-empty strings
// that are not local device handles survive. Status is taken verbatim when it is exactly "active" or
// "inactive" and defaults to active otherwise.
func Normalize(doc remote.Document) models.Listing {
	raw, present := doc[remote.FieldStatus]

	return models.Listing{
		ID:           doc.ID(),
		OwnerID:      str(doc[remote.FieldOwnerID]),
		Title:        str(doc[remote.FieldTitle]),
		Category:     models.Category(str(doc[remote.FieldCategory])),
		FlatType:     str(doc[remote.FieldFlatType]),
		Price:        number(doc[remote.FieldPrice]),
		City:         str(doc[remote.FieldCity]),
		Locality:     str(doc[remote.FieldLocality]),
		ContactPhone: str(doc[remote.FieldContactPhone]),
		Amenities:    stringList(doc[remote.FieldAmenities]),
		Images:       resolveImages(doc),
		Status:       models.ResolveStatus(raw, present),
		CreatedAt:    doc.Time(remote.FieldCreatedAt),
		UpdatedAt:    doc.Time(remote.FieldUpdatedAt),
	}
}

func resolveImages(doc remote.Document) []string {
	if imgs := imageList(doc[remote.FieldImages]); len(imgs) > 0 {
		return imgs
	}
	return imageList(doc[remote.FieldLegacyImages])
}

// imageList drops local handles persisted by older clients.
func imageList(v any) []string {
	return slices.DeleteFunc(stringList(v), models.IsLocalHandle)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

// stringList keeps the non-empty string entries of an array value.
func stringList(v any) []string {
	out := []string{}
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

// ToDocument is the record written when l is created. Timestamps are left
// to the store.
func ToDocument(l models.Listing) remote.Document {
	return remote.Document{
		remote.FieldID:           l.ID,
		remote.FieldOwnerID:      l.OwnerID,
		remote.FieldTitle:        l.Title,
		remote.FieldCategory:     string(l.Category),
		remote.FieldFlatType:     l.FlatType,
		remote.FieldPrice:        l.Price,
		remote.FieldCity:         l.City,
		remote.FieldLocality:     l.Locality,
		remote.FieldContactPhone: l.ContactPhone,
		remote.FieldAmenities:    nonNil(l.Amenities),
		remote.FieldImages:       nonNil(l.Images),
		remote.FieldStatus:       string(l.Status),
	}
}

// diff returns the fields that differ between before and after. Identity,
// ownership and timestamps are never part of an update.
func diff(before, after models.Listing) remote.Document {
	full := ToDocument(after)
	prev := ToDocument(before)
	set := remote.Document{}
	for k, v := range full {
		switch k {
		case remote.FieldID, remote.FieldOwnerID:
			continue
		}
		if !equalValue(prev[k], v) {
			set[k] = v
		}
	}
	return set
}

func equalValue(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if aok && bok {
		return slices.Equal(as, bs)
	}
	return a == b
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
