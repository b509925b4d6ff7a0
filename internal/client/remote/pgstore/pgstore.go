// Package pgstore is a remote.DocumentStore keeping each listing record as a
// jsonb document in PostgreSQL. Timestamps are columns set by the database.
package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the pgx driver and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(ctx context.Context, doc remote.Document) (remote.Document, error) {
	id := doc.ID()
	if id == "" {
		return nil, fmt.Errorf("pgstore: insert: missing %s", remote.FieldID)
	}
	payload, err := encode(doc)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO listings (id, doc) VALUES ($1, $2::jsonb) RETURNING id, doc, created_at, updated_at`,
		id, payload)
	out, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("pgstore: insert %s: %w", id, mapErr(err))
	}
	return out, nil
}

func (s *Store) List(ctx context.Context) ([]remote.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, doc, created_at, updated_at FROM listings ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list: %w", mapErr(err))
	}
	defer rows.Close()

	var docs []remote.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("pgstore: list: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgstore: list: %w", mapErr(err))
	}
	return docs, nil
}

func (s *Store) Update(ctx context.Context, id string, set remote.Document) (remote.Document, error) {
	payload, err := encode(set)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`UPDATE listings SET doc = doc || $2::jsonb, updated_at = now() WHERE id = $1 RETURNING id, doc, created_at, updated_at`,
		id, payload)
	out, err := scanDocument(row)
	if err != nil {
		return nil, fmt.Errorf("pgstore: update %s: %w", id, mapErr(err))
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", id, mapErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgstore: delete %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("pgstore: delete %s: %w", id, remote.ErrNotFound)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return mapErr(err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (remote.Document, error) {
	var (
		id                   string
		raw                  []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc := remote.Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode doc %s: %w", id, err)
		}
	}
	doc[remote.FieldID] = id
	doc[remote.FieldCreatedAt] = createdAt.UTC()
	doc[remote.FieldUpdatedAt] = updatedAt.UTC()
	return doc, nil
}

// encode serializes the client-writable fields of d.
func encode(d remote.Document) ([]byte, error) {
	fields := make(map[string]any, len(d))
	for k, v := range d {
		switch k {
		case remote.FieldID, remote.FieldCreatedAt, remote.FieldUpdatedAt:
			continue
		}
		fields[k] = v
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("pgstore: encode: %w", err)
	}
	return b, nil
}

func mapErr(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return remote.ErrNotFound
	case pgconn.Timeout(err), pgconn.SafeToRetry(err), errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", remote.ErrUnavailable, err)
	}
	return err
}
