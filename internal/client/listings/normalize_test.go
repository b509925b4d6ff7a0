package listings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/client/remote"
)

func TestNormalize_Status(t *testing.T) {
	cases := []struct {
		name string
		doc  remote.Document
		want models.Status
	}{
		{"inactive kept", remote.Document{remote.FieldStatus: "inactive"}, models.StatusInactive},
		{"active kept", remote.Document{remote.FieldStatus: "active"}, models.StatusActive},
		{"absent", remote.Document{}, models.StatusActive},
		{"null", remote.Document{remote.FieldStatus: nil}, models.StatusActive},
		{"unknown string", remote.Document{remote.FieldStatus: "Inactive"}, models.StatusActive},
		{"boolean", remote.Document{remote.FieldStatus: false}, models.StatusActive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.doc).Status)
		})
	}
}

func TestNormalize_Images(t *testing.T) {
	cases := []struct {
		name string
		doc  remote.Document
		want []string
	}{
		{
			name: "legacy only",
			doc:  remote.Document{remote.FieldLegacyImages: []any{"url1", "url2"}},
			want: []string{"url1", "url2"},
		},
		{
			name: "modern preferred",
			doc:  remote.Document{remote.FieldImages: []string{"new"}, remote.FieldLegacyImages: []any{"old"}},
			want: []string{"new"},
		},
		{
			name: "empty modern falls back",
			doc:  remote.Document{remote.FieldImages: []any{}, remote.FieldLegacyImages: []any{"old"}},
			want: []string{"old"},
		},
		{
			name: "non strings dropped",
			doc:  remote.Document{remote.FieldImages: []any{"a", "", 3, nil, map[string]any{}, "b"}},
			want: []string{"a", "b"},
		},
		{
			name: "local handles dropped",
			doc: remote.Document{remote.FieldImages: []any{
				"https://cdn/x/1.jpg", "file:///data/cache/ImagePicker/2.jpg", "/storage/3.jpg", "content://media/4",
			}},
			want: []string{"https://cdn/x/1.jpg"},
		},
		{
			name: "only local handles falls back to legacy",
			doc:  remote.Document{remote.FieldImages: []any{"file:///tmp/1.jpg"}, remote.FieldLegacyImages: []any{"url1"}},
			want: []string{"url1"},
		},
		{
			name: "wrong shape",
			doc:  remote.Document{remote.FieldImages: "a"},
			want: []string{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.doc).Images)
		})
	}
}

func TestNormalize_Fields(t *testing.T) {
	ts := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	l := Normalize(remote.Document{
		remote.FieldID:           "l1",
		remote.FieldOwnerID:      "u1",
		remote.FieldTitle:        "Flat",
		remote.FieldCategory:     "flat",
		remote.FieldFlatType:     "2 BHK",
		remote.FieldPrice:        int64(18000),
		remote.FieldCity:         "Pokhara",
		remote.FieldLocality:     "Lakeside",
		remote.FieldContactPhone: "9800000000",
		remote.FieldAmenities:    []any{"wifi"},
		remote.FieldCreatedAt:    ts,
		remote.FieldUpdatedAt:    ts,
	})

	assert.Equal(t, models.Listing{
		ID: "l1", OwnerID: "u1", Title: "Flat", Category: models.CategoryFlat, FlatType: "2 BHK",
		Price: 18000, City: "Pokhara", Locality: "Lakeside", ContactPhone: "9800000000",
		Amenities: []string{"wifi"}, Images: []string{}, Status: models.StatusActive,
		CreatedAt: ts, UpdatedAt: ts,
	}, l)
}

func TestNumber(t *testing.T) {
	assert.Equal(t, 1.5, number(1.5))
	assert.Equal(t, 7.0, number(int32(7)))
	assert.Equal(t, 9.0, number(json.Number("9")))
	assert.Equal(t, 12000.0, number(" 12000 "))
	assert.Equal(t, 0.0, number("n/a"))
	assert.Equal(t, 0.0, number(nil))
}

func TestDiff(t *testing.T) {
	before := models.Listing{ID: "l1", OwnerID: "u1", Title: "a", Images: []string{"x"}, Status: models.StatusActive}

	after := before.Clone()
	after.Status = models.StatusInactive
	after.OwnerID = "u2"
	assert.Equal(t, remote.Document{remote.FieldStatus: "inactive"}, diff(before, after))

	after = before.Clone()
	after.Images = append(after.Images, "y")
	assert.Equal(t, remote.Document{remote.FieldImages: []string{"x", "y"}}, diff(before, after))

	assert.Empty(t, diff(before, before.Clone()))
}

func TestToDocument_NeverWritesLegacyField(t *testing.T) {
	doc := ToDocument(models.Listing{ID: "l1", Status: models.StatusActive})
	assert.NotContains(t, doc, remote.FieldLegacyImages)
	assert.Equal(t, []string{}, doc[remote.FieldImages])
	assert.NotContains(t, doc, remote.FieldCreatedAt)
}
