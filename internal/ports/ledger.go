package ports

import (
	"context"
	"errors"

	"towerdefense/internal/domain"
)

var (
	// ErrAccountNotFound is returned by Load when the owner has no record yet.
	ErrAccountNotFound = errors.New("account not found")
	// ErrVersionConflict is returned by Commit when the record changed since Load.
	ErrVersionConflict = errors.New("account record version conflict")
)

// LedgerPort is the durable per-owner record store plus its append-only
// history log.
type LedgerPort interface {
	// Load returns the owner's account and an opaque version token.
	// Returns ErrAccountNotFound when no record exists.
	Load(ctx context.Context, ownerID string) (*domain.Account, string, error)

	// Commit writes acct and appends records in a single all-or-nothing step.
	// expectedVersion is the token from Load, or "" to create a new record.
	// appended records occupy history positions
	// acct.HistoryCount-len(appended) .. acct.HistoryCount-1.
	// Returns ErrVersionConflict if the stored version no longer matches.
	Commit(ctx context.Context, ownerID, expectedVersion string, acct *domain.Account, appended []domain.GameRecord) error

	// History returns every history entry for the owner, oldest first.
	History(ctx context.Context, ownerID string) ([]domain.GameRecord, error)
}
