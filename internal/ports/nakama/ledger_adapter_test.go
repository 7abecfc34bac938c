package nakama

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

func testRecord(id string) domain.GameRecord {
	return domain.GameRecord{RoundID: id, Wager: 1, Outcome: domain.OutcomeDefeat}
}

func TestLedgerAdapterLoadMissing(t *testing.T) {
	adapter := NewNakamaLedgerAdapter(newFakeNakama())
	if _, _, err := adapter.Load(context.Background(), "alice"); !errors.Is(err, ports.ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}

func TestLedgerAdapterCommitAndLoad(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaLedgerAdapter(nk)
	ctx := context.Background()

	acct := domain.NewAccount("alice", 500, 1)
	if err := adapter.Commit(ctx, "alice", "", acct, nil); err != nil {
		t.Fatalf("create error: %v", err)
	}
	obj, ok := nk.object(accountCollection, accountKey, "alice")
	if !ok {
		t.Fatal("account object not written")
	}
	if obj.PermissionRead != runtime.STORAGE_PERMISSION_NO_READ || obj.PermissionWrite != runtime.STORAGE_PERMISSION_NO_WRITE {
		t.Fatalf("account permissions = %d/%d", obj.PermissionRead, obj.PermissionWrite)
	}

	got, version, err := adapter.Load(ctx, "alice")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if got.GoldBalance != 500 || version != obj.Version {
		t.Fatalf("loaded %+v version %q", got, version)
	}

	if err := adapter.Commit(ctx, "alice", "", acct, nil); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("second create err = %v, want ErrVersionConflict", err)
	}
	if err := adapter.Commit(ctx, "alice", "stale", acct, nil); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("stale update err = %v, want ErrVersionConflict", err)
	}
}

func TestLedgerAdapterHistoryIsAppendOnly(t *testing.T) {
	nk := newFakeNakama()
	adapter := NewNakamaLedgerAdapter(nk)
	ctx := context.Background()

	acct := domain.NewAccount("alice", 500, 1)
	acct.HistoryCount = 1
	if err := adapter.Commit(ctx, "alice", "", acct, []domain.GameRecord{testRecord("r0")}); err != nil {
		t.Fatalf("commit error: %v", err)
	}
	obj, ok := nk.object(historyCollection, fmt.Sprintf(historyKeyFormat, 0), "alice")
	if !ok {
		t.Fatal("history object not written")
	}
	if obj.PermissionRead != runtime.STORAGE_PERMISSION_OWNER_READ {
		t.Fatalf("history read permission = %d", obj.PermissionRead)
	}

	// Rewriting position 0 must fail even with a valid account version, and
	// the account must stay untouched.
	_, version, _ := adapter.Load(ctx, "alice")
	acct.GoldBalance = 1
	if err := adapter.Commit(ctx, "alice", version, acct, []domain.GameRecord{testRecord("again")}); !errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("overwrite err = %v, want ErrVersionConflict", err)
	}
	got, _, _ := adapter.Load(ctx, "alice")
	if got.GoldBalance != 500 {
		t.Fatal("rejected commit changed the account")
	}
}

func TestLedgerAdapterHistoryPagesInOrder(t *testing.T) {
	nk := newFakeNakama()
	nk.pageSize = 2
	adapter := NewNakamaLedgerAdapter(nk)
	ctx := context.Background()

	acct := domain.NewAccount("alice", 500, 1)
	var records []domain.GameRecord
	for i := 0; i < 5; i++ {
		records = append(records, testRecord(fmt.Sprintf("r%d", i)))
	}
	acct.HistoryCount = uint64(len(records))
	if err := adapter.Commit(ctx, "alice", "", acct, records); err != nil {
		t.Fatalf("commit error: %v", err)
	}

	history, err := adapter.History(ctx, "alice")
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("history length = %d, want 5", len(history))
	}
	for i, r := range history {
		if r.RoundID != fmt.Sprintf("r%d", i) {
			t.Fatalf("history[%d] = %s", i, r.RoundID)
		}
	}
}

func TestLedgerAdapterWrapsStorageErrors(t *testing.T) {
	nk := newFakeNakama()
	nk.updateErr = errors.New("db down")
	err := NewNakamaLedgerAdapter(nk).Commit(context.Background(), "alice", "", domain.NewAccount("alice", 1, 1), nil)
	if err == nil || errors.Is(err, ports.ErrVersionConflict) {
		t.Fatalf("err = %v, want a wrapped storage error", err)
	}
}

func TestNotifierAdapter(t *testing.T) {
	nk := newFakeNakama()
	n := ports.Notification{Subject: "Gold received", Code: 2, Content: map[string]interface{}{"amount": 100}}
	if err := NewNakamaNotifierAdapter(nk).Notify(context.Background(), "alice", n); err != nil {
		t.Fatalf("notify error: %v", err)
	}
	if len(nk.notifications) != 1 || nk.notifications[0].userID != "alice" || nk.notifications[0].code != 2 {
		t.Fatalf("notifications = %+v", nk.notifications)
	}

	nk.notifyErr = errors.New("offline")
	if err := NewNakamaNotifierAdapter(nk).Notify(context.Background(), "alice", n); err == nil {
		t.Fatal("expected notify error")
	}
}
