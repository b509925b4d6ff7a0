package listings

import (
	"strings"

	"github.com/rentsaathi/listingsync/internal/client/models"
)

// The projections below are pure: they never modify set and return copies
// in canonical order.

// OwnedBy returns the listings whose owner is identity. An empty identity
// owns nothing.
func OwnedBy(set []models.Listing, identity string) []models.Listing {
	if identity == "" {
		return []models.Listing{}
	}
	return selectWhere(set, func(l models.Listing) bool { return l.OwnerID == identity })
}

// PubliclyVisible returns every listing that is not inactive.
func PubliclyVisible(set []models.Listing) []models.Listing {
	return selectWhere(set, func(l models.Listing) bool { return l.Status != models.StatusInactive })
}

// ByBhk returns the flats whose flat type encodes n bedrooms. Other
// categories never match.
func ByBhk(set []models.Listing, n int) []models.Listing {
	return Filter{Bhk: n}.Apply(set)
}

// Filter narrows a feed. Zero-valued fields are not applied; set fields
// combine with AND.
type Filter struct {
	// Query matches title, city, locality, flat type or category, case-insensitively.
	Query    string
	Category models.Category
	MinPrice float64
	MaxPrice float64
	Locality string
	// Amenities must all be present on a listing.
	Amenities []string
	// Bhk restricts the feed to flats with this bedroom count.
	Bhk int
}

func (f Filter) IsZero() bool {
	return f.Query == "" && f.Category == "" && f.MinPrice == 0 && f.MaxPrice == 0 &&
		f.Locality == "" && len(f.Amenities) == 0 && f.Bhk == 0
}

func (f Filter) Apply(set []models.Listing) []models.Listing {
	return selectWhere(set, f.Match)
}

func (f Filter) Match(l models.Listing) bool {
	if q := strings.TrimSpace(f.Query); q != "" && !matchesQuery(l, q) {
		return false
	}
	if f.Category != "" && !strings.EqualFold(string(l.Category), string(f.Category)) {
		return false
	}
	if f.MinPrice > 0 && l.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && l.Price > f.MaxPrice {
		return false
	}
	if f.Locality != "" && !strings.EqualFold(strings.TrimSpace(l.Locality), strings.TrimSpace(f.Locality)) {
		return false
	}
	for _, want := range f.Amenities {
		if !hasFold(l.Amenities, want) {
			return false
		}
	}
	if f.Bhk > 0 && (l.Category != models.CategoryFlat || l.Bhk() != f.Bhk) {
		return false
	}
	return true
}

func matchesQuery(l models.Listing, q string) bool {
	q = strings.ToLower(q)
	for _, field := range []string{l.Title, l.City, l.Locality, l.FlatType, string(l.Category)} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func hasFold(list []string, want string) bool {
	want = strings.TrimSpace(want)
	for _, s := range list {
		if strings.EqualFold(strings.TrimSpace(s), want) {
			return true
		}
	}
	return false
}

func selectWhere(set []models.Listing, keep func(models.Listing) bool) []models.Listing {
	out := make([]models.Listing, 0, len(set))
	for _, l := range set {
		if keep(l) {
			out = append(out, l.Clone())
		}
	}
	return out
}
