package listings

import (
	"errors"
	"fmt"

	"github.com/rentsaathi/listingsync/internal/client/remote"
)

var (
	// ErrIdentityUnavailable is returned by mutations attempted without a
	// signed-in identity. The caller should route the user to sign in.
	ErrIdentityUnavailable = errors.New("identity unavailable")
	ErrNotFound            = errors.New("listing not found")
	ErrForbidden           = errors.New("listing belongs to another owner")
)

// SyncError is a failed Refresh. The canonical set keeps its previous
// contents.
type SyncError struct {
	Retryable bool
	Cause     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync failed: %v", e.Cause)
}

func (e *SyncError) Unwrap() error { return e.Cause }

// PersistenceError is a failed create, update, status change or delete.
// RolledBack reports that an optimistic in-memory change was reverted.
type PersistenceError struct {
	Op         Op
	ListingID  string
	RolledBack bool
	Retryable  bool
	Cause      error
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %v", e.Op, e.ListingID, e.Cause)
	if e.RolledBack {
		msg += " (local change reverted)"
	}
	return msg
}

func (e *PersistenceError) Unwrap() error { return e.Cause }

func persistenceErr(op Op, id string, rolledBack bool, cause error) *PersistenceError {
	return &PersistenceError{
		Op:         op,
		ListingID:  id,
		RolledBack: rolledBack,
		Retryable:  !errors.Is(cause, remote.ErrNotFound),
		Cause:      cause,
	}
}
