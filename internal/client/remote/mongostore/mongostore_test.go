package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

func TestToBSON_DropsServerFields(t *testing.T) {
	in := remote.Document{
		remote.FieldID:        "l1",
		remote.FieldTitle:     "2BHK Flat",
		remote.FieldCreatedAt: time.Now(),
		remote.FieldUpdatedAt: time.Now(),
		remote.FieldImages:    []string{"https://cdn/x.jpg"},
	}
	out := toBSON(in)

	assert.Equal(t, bson.M{
		remote.FieldTitle:  "2BHK Flat",
		remote.FieldImages: []string{"https://cdn/x.jpg"},
	}, out)
}

func TestFromBSON_ConvertsDriverTypes(t *testing.T) {
	ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	oid := primitive.NewObjectID()

	cases := []struct {
		name string
		in   bson.M
		want remote.Document
	}{
		{
			name: "string id and arrays",
			in: bson.M{
				"_id":                    "l1",
				remote.FieldLegacyImages: primitive.A{"url1", int32(7), "url2"},
				remote.FieldCreatedAt:    primitive.NewDateTimeFromTime(ts),
				remote.FieldPrice:        int32(12000),
			},
			want: remote.Document{
				remote.FieldID:           "l1",
				remote.FieldLegacyImages: []any{"url1", int64(7), "url2"},
				remote.FieldCreatedAt:    ts,
				remote.FieldPrice:        int64(12000),
			},
		},
		{
			name: "object id and nested doc",
			in:   bson.M{"_id": oid, "meta": primitive.M{"k": "v"}},
			want: remote.Document{remote.FieldID: oid.Hex(), "meta": map[string]any{"k": "v"}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, fromBSON(tc.in))
		})
	}
}

func TestMapErr(t *testing.T) {
	require.ErrorIs(t, mapErr(mongo.ErrNoDocuments), remote.ErrNotFound)
	require.ErrorIs(t, mapErr(context.DeadlineExceeded), remote.ErrUnavailable)

	other := errors.New("bad query")
	require.Equal(t, other, mapErr(other))
}
