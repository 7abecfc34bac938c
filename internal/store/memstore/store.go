// Package memstore provides an in-memory LedgerPort.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"
)

type entry struct {
	version int
	account []byte
	history [][]byte
}

// Store keeps accounts as JSON so callers never share memory with it.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Load returns the owner's account.
func (s *Store) Load(ctx context.Context, ownerID string) (*domain.Account, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[ownerID]
	if !ok {
		return nil, "", ports.ErrAccountNotFound
	}
	var acct domain.Account
	if err := json.Unmarshal(e.account, &acct); err != nil {
		return nil, "", fmt.Errorf("decode account: %w", err)
	}
	return &acct, strconv.Itoa(e.version), nil
}

// Commit writes the account and appends history if the version matches.
func (s *Store) Commit(ctx context.Context, ownerID, expectedVersion string, acct *domain.Account, appended []domain.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	records := make([][]byte, 0, len(appended))
	for _, r := range appended {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		records = append(records, b)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[ownerID]
	switch {
	case expectedVersion == "" && exists:
		return ports.ErrVersionConflict
	case expectedVersion != "" && (!exists || strconv.Itoa(e.version) != expectedVersion):
		return ports.ErrVersionConflict
	}
	if !exists {
		e = &entry{}
	}
	if start := int(acct.HistoryCount) - len(records); start != len(e.history) {
		return fmt.Errorf("history position %d, log has %d entries: %w", start, len(e.history), ports.ErrVersionConflict)
	}
	s.entries[ownerID] = e
	e.version++
	e.account = data
	e.history = append(e.history, records...)
	return nil
}

// History returns the owner's history, oldest first.
func (s *Store) History(ctx context.Context, ownerID string) ([]domain.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[ownerID]
	if !ok {
		return nil, nil
	}
	out := make([]domain.GameRecord, 0, len(e.history))
	for _, b := range e.history {
		var r domain.GameRecord
		if err := json.Unmarshal(b, &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

var _ ports.LedgerPort = (*Store)(nil)
