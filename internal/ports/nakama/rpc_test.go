package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"towerdefense/internal/app"
	"towerdefense/internal/config"
	"towerdefense/internal/domain"
	"towerdefense/internal/ports"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

func newTestModule(t *testing.T) (*fakeInitializer, *fakeNakama) {
	t.Helper()
	cfg := config.Default()
	cfg.MasterSeed = 42
	module := NewModule(cfg, ports.FixedClock(time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)))

	reg := &fakeInitializer{}
	if err := module.RegisterRPCs(reg); err != nil {
		t.Fatalf("RegisterRPCs error: %v", err)
	}
	return reg, newFakeNakama()
}

func callRPC(t *testing.T, reg *fakeInitializer, nk *fakeNakama, ctx context.Context, id, payload string) (string, error) {
	t.Helper()
	fn, ok := reg.rpcs[id]
	if !ok {
		t.Fatalf("rpc %s not registered", id)
	}
	return fn(ctx, noopLogger{}, nil, nk, payload)
}

func runtimeCode(t *testing.T, err error) int {
	t.Helper()
	var rerr *runtime.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %v, want *runtime.Error", err)
	}
	return rerr.Code
}

func TestRegisterRPCs(t *testing.T) {
	reg, _ := newTestModule(t)
	for _, id := range []string{RpcReset, RpcStartGame, RpcBattle, RpcEndWave, RpcRequestGold, RpcPlayerState, RpcGameInfo} {
		if _, ok := reg.rpcs[id]; !ok {
			t.Errorf("rpc %s not registered", id)
		}
	}
	if reg.afterAuth == nil {
		t.Error("after authenticate hook not registered")
	}
}

func TestRpcGameInfo(t *testing.T) {
	reg, nk := newTestModule(t)
	out, err := callRPC(t, reg, nk, userCtx("alice"), RpcGameInfo, "")
	if err != nil {
		t.Fatalf("rpc error: %v", err)
	}
	var info app.GameInfo
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if info.DefaultGold != config.DefaultStartingGold || info.RequestGoldAmount != config.DefaultRequestGoldAmount {
		t.Fatalf("info = %+v", info)
	}
}

func TestRpcPlayerStateForNewUser(t *testing.T) {
	reg, nk := newTestModule(t)
	out, err := callRPC(t, reg, nk, userCtx("alice"), RpcPlayerState, "")
	if err != nil {
		t.Fatalf("rpc error: %v", err)
	}
	var view app.PlayerView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.Phase != domain.PhaseWaitingForWave || view.GoldBalance != config.DefaultStartingGold {
		t.Fatalf("view = %+v", view)
	}
	if _, ok := nk.object(accountCollection, accountKey, "alice"); ok {
		t.Fatal("reading state must not provision the account")
	}
}

func TestRpcErrors(t *testing.T) {
	reg, nk := newTestModule(t)
	tests := []struct {
		name    string
		ctx     context.Context
		rpc     string
		payload string
		code    int
	}{
		{"unauthenticated", context.Background(), RpcRequestGold, "", codeUnauthenticated},
		{"missing payload", userCtx("alice"), RpcStartGame, "", codeInvalidArgument},
		{"malformed payload", userCtx("alice"), RpcStartGame, "{", codeInvalidArgument},
		{"bad wager", userCtx("alice"), RpcStartGame, `{"wager": 9}`, codeInvalidArgument},
		{"battle before start", userCtx("alice"), RpcBattle, "", codeFailedPrecondition},
		{"end wave before start", userCtx("alice"), RpcEndWave, "", codeFailedPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := callRPC(t, reg, nk, tt.ctx, tt.rpc, tt.payload)
			if got := runtimeCode(t, err); got != tt.code {
				t.Fatalf("code = %d, want %d (%v)", got, tt.code, err)
			}
		})
	}
	if len(nk.objects) != 0 {
		t.Fatal("rejected calls must not write storage")
	}
}

func TestRpcInternalError(t *testing.T) {
	reg, nk := newTestModule(t)
	nk.updateErr = errors.New("db down")
	_, err := callRPC(t, reg, nk, userCtx("alice"), RpcRequestGold, "")
	if got := runtimeCode(t, err); got != codeInternal {
		t.Fatalf("code = %d, want %d", got, codeInternal)
	}
}

func TestRpcRoundFlow(t *testing.T) {
	reg, nk := newTestModule(t)
	ctx := userCtx("alice")

	out, err := callRPC(t, reg, nk, ctx, RpcStartGame, `{"wager": 5}`)
	if err != nil {
		t.Fatalf("start error: %v", err)
	}
	var resp ActionResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Events) == 0 || resp.Events[0].Kind != app.EventRoundStarted {
		t.Fatalf("events = %+v", resp.Events)
	}

	if resp.State.Phase == domain.PhaseBattleInProgress {
		if len(resp.State.OpponentCards) != 1 {
			t.Fatal("hidden card leaked into the state")
		}
		if _, err := callRPC(t, reg, nk, ctx, RpcReset, ""); runtimeCode(t, err) != codeFailedPrecondition {
			t.Fatal("reset during battle should be rejected")
		}
		out, err = callRPC(t, reg, nk, ctx, RpcEndWave, "")
		if err != nil {
			t.Fatalf("end wave error: %v", err)
		}
		resp = ActionResponse{}
		if err := json.Unmarshal([]byte(out), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
	}

	if resp.State.Phase != domain.PhaseWaveComplete || len(resp.State.GameHistory) != 1 {
		t.Fatalf("state = %+v", resp.State)
	}
	record := resp.State.GameHistory[0]
	if resp.State.GoldBalance != config.DefaultStartingGold-5+record.Payout {
		t.Fatalf("balance = %d, payout = %d", resp.State.GoldBalance, record.Payout)
	}
	if record.TimestampMicros != time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC).UnixMicro() {
		t.Fatalf("timestamp = %d", record.TimestampMicros)
	}

	if len(nk.notifications) != 1 || nk.notifications[0].code != app.NotificationCodeRoundResolved {
		t.Fatalf("notifications = %+v", nk.notifications)
	}

	if _, err := callRPC(t, reg, nk, ctx, RpcRequestGold, ""); err != nil {
		t.Fatalf("request gold error: %v", err)
	}
	out, err = callRPC(t, reg, nk, ctx, RpcPlayerState, "")
	if err != nil {
		t.Fatalf("state error: %v", err)
	}
	var view app.PlayerView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if view.Phase != domain.PhaseWaitingForWave || view.GoldBalance != resp.State.GoldBalance+config.DefaultRequestGoldAmount {
		t.Fatalf("view after grant = %+v", view)
	}
	if len(view.GameHistory) != 1 {
		t.Fatalf("history length = %d", len(view.GameHistory))
	}
}

func TestAfterAuthenticateDeviceProvisionsNewUser(t *testing.T) {
	reg, nk := newTestModule(t)
	ctx := userCtx("alice")

	if err := reg.afterAuth(ctx, noopLogger{}, nil, nk, &api.Session{Created: true}, &api.AuthenticateDeviceRequest{}); err != nil {
		t.Fatalf("hook error: %v", err)
	}
	if _, ok := nk.object(accountCollection, accountKey, "alice"); !ok {
		t.Fatal("account should be provisioned")
	}
	if nk.profiles["alice"] == "" {
		t.Fatal("display name should be set")
	}

	// Returning users are left alone.
	if err := reg.afterAuth(userCtx("bob"), noopLogger{}, nil, nk, &api.Session{Created: false}, &api.AuthenticateDeviceRequest{}); err != nil {
		t.Fatalf("hook error: %v", err)
	}
	if _, ok := nk.object(accountCollection, accountKey, "bob"); ok {
		t.Fatal("existing sessions must not provision")
	}
}

func TestExtractUserIDFromToken(t *testing.T) {
	// {"uid":"user-123"}
	token := "eyJhbGciOiJIUzI1NiJ9.eyJ1aWQiOiJ1c2VyLTEyMyJ9.sig"
	uid, err := extractUserIDFromToken(token)
	if err != nil || uid != "user-123" {
		t.Fatalf("extractUserIDFromToken() = %q, %v", uid, err)
	}
	if _, err := extractUserIDFromToken("not-a-token"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}

func TestLoadGameConfig(t *testing.T) {
	cfg, err := loadGameConfig(map[string]string{config.EnvStartingGold: "1000"})
	if err != nil || cfg.StartingGold != 1000 {
		t.Fatalf("loadGameConfig() = %+v, %v", cfg, err)
	}
	if _, err := loadGameConfig(map[string]string{config.EnvRequestGoldAmount: "0"}); err == nil {
		t.Fatal("zero request gold should be rejected")
	}
	if _, err := loadGameConfig(map[string]string{config.EnvConfigPath: "/does/not/exist.json"}); err == nil {
		t.Fatal("missing config file should be rejected")
	}
}

func TestInitModule(t *testing.T) {
	reg := &fakeInitializer{}
	ctx := context.WithValue(context.Background(), runtime.RUNTIME_CTX_ENV, map[string]string{config.EnvMasterSeed: "7"})
	if err := InitModule(ctx, noopLogger{}, nil, newFakeNakama(), reg); err != nil {
		t.Fatalf("InitModule error: %v", err)
	}
	if len(reg.rpcs) != 7 {
		t.Fatalf("registered %d rpcs, want 7", len(reg.rpcs))
	}
}
