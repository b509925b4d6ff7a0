package models

import "slices"

// Edit describes a change to a persisted listing. Nil fields are left
// untouched. AddImages may contain local handles; they are ingested before
// the edit is written. Images are only removed when named in RemoveImages.
type Edit struct {
	ID           string
	Title        *string
	Category     *Category
	FlatType     *string
	Price        *float64
	City         *string
	Locality     *string
	ContactPhone *string
	Amenities    []string
	AddImages    []string
	RemoveImages []string
	Status       *Status
}

// Apply returns l with the scalar fields of e applied and the image set
// merged: existing durable references minus RemoveImages, followed by added
// refs that are not already present. Images are not taken from e.AddImages
// directly since those may still be local handles.
func (e Edit) Apply(l Listing, added []string) Listing {
	out := l.Clone()
	if e.Title != nil {
		out.Title = *e.Title
	}
	if e.Category != nil {
		out.Category = *e.Category
	}
	if e.FlatType != nil {
		out.FlatType = *e.FlatType
	}
	if e.Price != nil {
		out.Price = *e.Price
	}
	if e.City != nil {
		out.City = *e.City
	}
	if e.Locality != nil {
		out.Locality = *e.Locality
	}
	if e.ContactPhone != nil {
		out.ContactPhone = *e.ContactPhone
	}
	if e.Amenities != nil {
		out.Amenities = slices.Clone(e.Amenities)
	}
	if e.Status != nil {
		out.Status = *e.Status
	}
	previous, _ := SplitImages(l.Images)
	out.Images = MergeImages(previous, added, e.RemoveImages)
	return out
}

// MergeImages keeps previous in order (minus removed) and appends each added
// reference that is not already in the result.
func MergeImages(previous, added, removed []string) []string {
	out := make([]string, 0, len(previous)+len(added))
	seen := make(map[string]struct{}, len(previous)+len(added))
	for _, r := range previous {
		if slices.Contains(removed, r) {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	for _, r := range added {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func Ptr[T any](v T) *T { return &v }
