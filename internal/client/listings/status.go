package listings

import (
	"context"
	"fmt"

	"github.com/rentsaathi/listingsync/internal/client/models"
)

// SetStatus writes status exactly. The canonical set shows the new value
// at once and goes back to the previous one if the write fails.
func (r *Repository) SetStatus(ctx context.Context, id string, status models.Status) (models.Listing, error) {
	if _, ok := models.ParseStatus(string(status)); !ok {
		return models.Listing{}, fmt.Errorf("invalid status %q", status)
	}
	defer r.begin(OpStatus)()

	if _, err := r.authorize(ctx, id); err != nil {
		return models.Listing{}, err
	}
	return r.mutate(ctx, OpStatus, id, func(l models.Listing) models.Listing {
		l.Status = status
		return l
	})
}

// Toggle flips a listing between active and inactive. The opposite is taken
// of the canonical value at the time the write starts.
func (r *Repository) Toggle(ctx context.Context, id string) (models.Listing, error) {
	defer r.begin(OpStatus)()

	if _, err := r.authorize(ctx, id); err != nil {
		return models.Listing{}, err
	}
	return r.mutate(ctx, OpStatus, id, func(l models.Listing) models.Listing {
		l.Status = l.Status.Opposite()
		return l
	})
}
