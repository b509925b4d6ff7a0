package drafts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rentsaathi/listingsync/internal/client/models"
	"github.com/rentsaathi/listingsync/internal/common"
	"github.com/rentsaathi/listingsync/internal/dbx"
)

type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func (r *SQLiteRepository) Save(ctx context.Context, d *models.Draft) error {
	if d == nil || d.TempID == "" {
		return fmt.Errorf("save draft: %w: missing temporary id", models.ErrInvalidDraft)
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", d.TempID, err)
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = r.now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO drafts (temp_id, payload, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(temp_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, d.TempID, string(payload), created, r.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save draft[%s]: %w", d.TempID, err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, tempID string) (*models.Draft, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE temp_id = ?`, tempID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("draft[%s]: %w", tempID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft[%s]: %w", tempID, err)
	}
	return decode(tempID, payload)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Draft, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT temp_id, payload FROM drafts ORDER BY created_at, temp_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var out []*models.Draft
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan draft row: %w", err)
		}
		d, err := decode(id, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft rows: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, tempID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE temp_id = ?`, tempID); err != nil {
		return fmt.Errorf("failed to delete draft[%s]: %w", tempID, err)
	}
	return nil
}

func decode(tempID, payload string) (*models.Draft, error) {
	var d models.Draft
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", tempID, err)
	}
	d.TempID = tempID
	return &d, nil
}
