// Package storetest holds the behaviour every LedgerPort must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh ledger returned by newLedger for each subtest.
func Run(t *testing.T, newLedger func(t *testing.T) ports.LedgerPort) {
	t.Run("missing owner", func(t *testing.T) {
		ledger := newLedger(t)
		ctx := context.Background()

		_, _, err := ledger.Load(ctx, "nobody")
		require.ErrorIs(t, err, ports.ErrAccountNotFound)

		history, err := ledger.History(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("create then load", func(t *testing.T) {
		ledger := newLedger(t)
		ctx := context.Background()
		acct := dealtAccount("alice")

		require.NoError(t, ledger.Commit(ctx, "alice", "", acct, nil))

		got, version, err := ledger.Load(ctx, "alice")
		require.NoError(t, err)
		assert.NotEmpty(t, version)
		assert.Equal(t, acct, got)

		err = ledger.Commit(ctx, "alice", "", acct, nil)
		require.ErrorIs(t, err, ports.ErrVersionConflict)
	})

	t.Run("versioned update", func(t *testing.T) {
		ledger := newLedger(t)
		ctx := context.Background()
		acct := domain.NewAccount("alice", 500, 1)
		require.NoError(t, ledger.Commit(ctx, "alice", "", acct, nil))

		_, v1, err := ledger.Load(ctx, "alice")
		require.NoError(t, err)

		acct.GoldBalance = 600
		require.NoError(t, ledger.Commit(ctx, "alice", v1, acct, nil))

		got, v2, err := ledger.Load(ctx, "alice")
		require.NoError(t, err)
		assert.NotEqual(t, v1, v2)
		assert.Equal(t, uint64(600), got.GoldBalance)

		acct.GoldBalance = 1
		err = ledger.Commit(ctx, "alice", v1, acct, nil)
		require.ErrorIs(t, err, ports.ErrVersionConflict)

		got, _, err = ledger.Load(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, uint64(600), got.GoldBalance, "stale commit must not write")
	})

	t.Run("update of missing owner conflicts", func(t *testing.T) {
		ledger := newLedger(t)
		err := ledger.Commit(context.Background(), "alice", "7", domain.NewAccount("alice", 500, 1), nil)
		require.ErrorIs(t, err, ports.ErrVersionConflict)
	})

	t.Run("history appends in order", func(t *testing.T) {
		ledger := newLedger(t)
		ctx := context.Background()
		acct := domain.NewAccount("alice", 500, 1)

		acct.HistoryCount = 1
		require.NoError(t, ledger.Commit(ctx, "alice", "", acct, []domain.GameRecord{record("r0")}))

		_, version, err := ledger.Load(ctx, "alice")
		require.NoError(t, err)
		acct.HistoryCount = 3
		require.NoError(t, ledger.Commit(ctx, "alice", version, acct, []domain.GameRecord{record("r1"), record("r2")}))

		history, err := ledger.History(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, history, 3)
		for i, want := range []string{"r0", "r1", "r2"} {
			assert.Equal(t, want, history[i].RoundID)
		}
		assert.Equal(t, record("r1"), history[1])
	})

	t.Run("history position mismatch conflicts", func(t *testing.T) {
		ledger := newLedger(t)
		ctx := context.Background()
		acct := domain.NewAccount("alice", 500, 1)
		require.NoError(t, ledger.Commit(ctx, "alice", "", acct, nil))

		_, version, err := ledger.Load(ctx, "alice")
		require.NoError(t, err)
		acct.HistoryCount = 5
		err = ledger.Commit(ctx, "alice", version, acct, []domain.GameRecord{record("r4")})
		require.ErrorIs(t, err, ports.ErrVersionConflict)

		history, err := ledger.History(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("owners are independent", func(t *testing.T) {
		ledger := newLedger(t)
		ctx := context.Background()
		require.NoError(t, ledger.Commit(ctx, "alice", "", domain.NewAccount("alice", 500, 1), nil))
		require.NoError(t, ledger.Commit(ctx, "bob", "", domain.NewAccount("bob", 700, 1), nil))

		alice, _, err := ledger.Load(ctx, "alice")
		require.NoError(t, err)
		bob, _, err := ledger.Load(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, uint64(500), alice.GoldBalance)
		assert.Equal(t, uint64(700), bob.GoldBalance)
	})
}

// dealtAccount returns an account in the middle of a round so every field
// is populated.
func dealtAccount(owner string) *domain.Account {
	acct := domain.NewAccount(owner, 495, 42)
	deck := domain.NewShuffledDeck(acct.BumpSeed())
	draw := func() domain.Card {
		c, _ := deck.Draw()
		return c
	}
	hidden := draw()
	acct.Phase = domain.PhaseBattleInProgress
	acct.CurrentWager = 5
	acct.PlayerCards = []domain.Card{draw(), draw()}
	acct.OpponentCards = []domain.Card{draw()}
	acct.HiddenCard = &hidden
	acct.Deck = deck
	last := domain.OutcomeDefeat
	acct.LastResult = &last
	return acct
}

func record(id string) domain.GameRecord {
	return domain.GameRecord{
		RoundID:         id,
		PlayerCards:     []domain.Card{domain.NewCard(domain.CardTypeMagic, "10"), domain.NewCard(domain.CardTypeSiege, "9")},
		OpponentCards:   []domain.Card{domain.NewCard(domain.CardTypeRanged, "10"), domain.NewCard(domain.CardTypeRanged, "8")},
		PlayerPower:     19,
		OpponentPower:   18,
		Wager:           2,
		Outcome:         domain.OutcomeVictory,
		Payout:          4,
		TimestampMicros: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro(),
	}
}
