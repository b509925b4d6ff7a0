// Package drafts keeps unsubmitted listing drafts in the local database so
// a failed create can be retried without entering the data again.
package drafts

import (
	"context"

	"github.com/rentsaathi/listingsync/internal/client/models"
)

type Repository interface {
	Save(ctx context.Context, d *models.Draft) error
	// Get returns common.ErrNotFound when no draft has tempID.
	Get(ctx context.Context, tempID string) (*models.Draft, error)
	// List returns drafts oldest first.
	List(ctx context.Context) ([]*models.Draft, error)
	Delete(ctx context.Context, tempID string) error
}
