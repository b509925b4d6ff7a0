package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

func newStoreWithMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

var (
	insertQ = `(?s)^INSERT\s+INTO\s+listings\s*\(id,\s*doc\)\s*VALUES\s*\(\$1,\s*\$2::jsonb\)\s*RETURNING\s+id,\s*doc,\s*created_at,\s*updated_at$`
	listQ   = `(?s)^SELECT\s+id,\s*doc,\s*created_at,\s*updated_at\s+FROM\s+listings\s+ORDER\s+BY\s+created_at,\s*id$`
	updateQ = `(?s)^UPDATE\s+listings\s+SET\s+doc\s*=\s*doc\s*\|\|\s*\$2::jsonb,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+id,\s*doc,\s*created_at,\s*updated_at$`
	deleteQ = `(?s)^DELETE\s+FROM\s+listings\s+WHERE\s+id\s*=\s*\$1$`
	columns = []string{"id", "doc", "created_at", "updated_at"}
)

func TestInsert_WritesClientFieldsAndReadsServerTimestamps(t *testing.T) {
	s, mock := newStoreWithMock(t)
	ts := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(insertQ).
		WithArgs("l1", []byte(`{"ownerId":"u1","status":"active"}`)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("l1", []byte(`{"ownerId":"u1","status":"active"}`), ts, ts))

	got, err := s.Insert(context.Background(), remote.Document{
		remote.FieldID:        "l1",
		remote.FieldOwnerID:   "u1",
		remote.FieldStatus:    "active",
		remote.FieldCreatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.Equal(t, "l1", got.ID())
	require.Equal(t, "u1", got[remote.FieldOwnerID])
	require.Equal(t, ts, got.Time(remote.FieldCreatedAt))
	require.Equal(t, ts, got.Time(remote.FieldUpdatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_DecodesRowsInOrder(t *testing.T) {
	s, mock := newStoreWithMock(t)
	ts := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(listQ).WillReturnRows(sqlmock.NewRows(columns).
		AddRow("a", []byte(`{"imageUrls":["url1","url2"]}`), ts, ts).
		AddRow("b", []byte(`{"status":"inactive","price":1500}`), ts.Add(time.Second), ts.Add(time.Second)))

	docs, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	require.Equal(t, "a", docs[0].ID())
	require.Equal(t, []any{"url1", "url2"}, docs[0][remote.FieldLegacyImages])
	require.Equal(t, "inactive", docs[1][remote.FieldStatus])
	require.Equal(t, float64(1500), docs[1][remote.FieldPrice])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectQuery(updateQ).
		WithArgs("missing", []byte(`{"status":"inactive"}`)).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Update(context.Background(), "missing", remote.Document{remote.FieldStatus: "inactive"})
	require.ErrorIs(t, err, remote.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_MergesFields(t *testing.T) {
	s, mock := newStoreWithMock(t)
	created := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)

	mock.ExpectQuery(updateQ).
		WithArgs("l1", []byte(`{"status":"inactive"}`)).
		WillReturnRows(sqlmock.NewRows(columns).AddRow("l1", []byte(`{"title":"x","status":"inactive"}`), created, updated))

	got, err := s.Update(context.Background(), "l1", remote.Document{remote.FieldStatus: "inactive", remote.FieldUpdatedAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, "x", got[remote.FieldTitle])
	require.Equal(t, updated, got.Time(remote.FieldUpdatedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	s, mock := newStoreWithMock(t)

	mock.ExpectExec(deleteQ).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(context.Background(), "l1"))

	mock.ExpectExec(deleteQ).WithArgs("l1").WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, s.Delete(context.Background(), "l1"), remote.ErrNotFound)

	boom := errors.New("db down")
	mock.ExpectExec(deleteQ).WithArgs("l2").WillReturnError(boom)
	require.ErrorIs(t, s.Delete(context.Background(), "l2"), boom)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMapErr_NetworkIsUnavailable(t *testing.T) {
	err := mapErr(&timeoutErr{})
	require.ErrorIs(t, err, remote.ErrUnavailable)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
