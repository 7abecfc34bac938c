package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// NakamaLedgerAdapter implements ports.LedgerPort with Nakama storage
// objects. The account object is server-only so the deck and hidden card
// never reach clients; history objects are owner-readable.
type NakamaLedgerAdapter struct {
	nk runtime.NakamaModule
}

// NewNakamaLedgerAdapter creates a new ledger adapter.
func NewNakamaLedgerAdapter(nk runtime.NakamaModule) *NakamaLedgerAdapter {
	return &NakamaLedgerAdapter{nk: nk}
}

// Load reads the account object and returns its storage version.
func (a *NakamaLedgerAdapter) Load(ctx context.Context, ownerID string) (*domain.Account, string, error) {
	objects, err := a.nk.StorageRead(ctx, []*runtime.StorageRead{
		{Collection: accountCollection, Key: accountKey, UserID: ownerID},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read account: %w", err)
	}
	if len(objects) == 0 {
		return nil, "", ports.ErrAccountNotFound
	}

	var acct domain.Account
	if err := json.Unmarshal([]byte(objects[0].Value), &acct); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &acct, objects[0].Version, nil
}

// Commit writes the account and history objects in one MultiUpdate. The
// account write is conditional on expectedVersion ("*" when creating) and
// every history write is create-only.
func (a *NakamaLedgerAdapter) Commit(ctx context.Context, ownerID, expectedVersion string, acct *domain.Account, appended []domain.GameRecord) error {
	value, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	version := expectedVersion
	if version == "" {
		version = "*"
	}
	writes := []*runtime.StorageWrite{
		{
			Collection:      accountCollection,
			Key:             accountKey,
			UserID:          ownerID,
			Value:           string(value),
			Version:         version,
			PermissionRead:  runtime.STORAGE_PERMISSION_NO_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		},
	}

	start := acct.HistoryCount - uint64(len(appended))
	for i, record := range appended {
		b, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal history record: %w", err)
		}
		writes = append(writes, &runtime.StorageWrite{
			Collection:      historyCollection,
			Key:             fmt.Sprintf(historyKeyFormat, start+uint64(i)),
			UserID:          ownerID,
			Value:           string(b),
			Version:         "*",
			PermissionRead:  runtime.STORAGE_PERMISSION_OWNER_READ,
			PermissionWrite: runtime.STORAGE_PERMISSION_NO_WRITE,
		})
	}

	if _, _, err := a.nk.MultiUpdate(ctx, nil, writes, nil, nil, false); err != nil {
		if errors.Is(err, runtime.ErrStorageRejectedVersion) {
			return ports.ErrVersionConflict
		}
		return fmt.Errorf("failed to commit account: %w", err)
	}
	return nil
}

// History pages through the owner's history collection.
func (a *NakamaLedgerAdapter) History(ctx context.Context, ownerID string) ([]domain.GameRecord, error) {
	var (
		objects []*api.StorageObject
		cursor  string
	)
	for {
		page, next, err := a.nk.StorageList(ctx, "", ownerID, historyCollection, historyPageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("failed to list history: %w", err)
		}
		objects = append(objects, page...)
		if next == "" || len(page) == 0 {
			break
		}
		cursor = next
	}

	// Keys are zero-padded round numbers, so key order is append order.
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	out := make([]domain.GameRecord, 0, len(objects))
	for _, obj := range objects {
		var record domain.GameRecord
		if err := json.Unmarshal([]byte(obj.Value), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history record %s: %w", obj.Key, err)
		}
		out = append(out, record)
	}
	return out, nil
}

var _ ports.LedgerPort = (*NakamaLedgerAdapter)(nil)
