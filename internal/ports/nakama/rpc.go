package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"towerdefense/internal/app"
	"towerdefense/internal/config"
	"towerdefense/internal/ports"

	"github.com/heroiclabs/nakama-common/runtime"
)

// rpcFunc matches runtime.Initializer.RegisterRpc.
type rpcFunc func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error)

// ActionResponse is returned by every mutating RPC.
type ActionResponse struct {
	State  app.PlayerView `json:"state"`
	Events []app.Event    `json:"events"`
}

// StartGameRequest is the td_start_game payload.
type StartGameRequest struct {
	Wager uint64 `json:"wager"`
}

// Module holds what the RPC handlers share across calls.
type Module struct {
	cfg   config.GameConfig
	clock ports.Clock
}

// NewModule creates the RPC module. clock may be nil to use the system clock.
func NewModule(cfg config.GameConfig, clock ports.Clock) *Module {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Module{cfg: cfg, clock: clock}
}

// RegisterRPCs registers Nakama RPC endpoints and the onboarding hook.
func (m *Module) RegisterRPCs(initializer runtime.Initializer) error {
	rpcs := []struct {
		id string
		fn rpcFunc
	}{
		{RpcReset, m.actionRPC(app.ActionReset)},
		{RpcStartGame, m.actionRPC(app.ActionStartGame)},
		{RpcBattle, m.actionRPC(app.ActionBattle)},
		{RpcEndWave, m.actionRPC(app.ActionEndWave)},
		{RpcRequestGold, m.actionRPC(app.ActionRequestGold)},
		{RpcPlayerState, m.rpcPlayerState},
		{RpcGameInfo, m.rpcGameInfo},
	}
	for _, rpc := range rpcs {
		if err := initializer.RegisterRpc(rpc.id, rpc.fn); err != nil {
			return err
		}
	}
	return initializer.RegisterAfterAuthenticateDevice(m.afterAuthenticateDevice)
}

func (m *Module) executor(nk runtime.NakamaModule) *app.Executor {
	return app.NewExecutor(
		app.NewService(m.cfg.RequestGoldAmount, nil),
		NewNakamaLedgerAdapter(nk),
		NewNakamaNotifierAdapter(nk),
		app.Settings{StartingGold: m.cfg.StartingGold, MasterSeed: m.cfg.MasterSeed, Deployer: m.cfg.Deployer},
	)
}

func (m *Module) actionRPC(kind app.ActionKind) rpcFunc {
	return func(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
		userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

		action, err := parseAction(kind, payload)
		if err != nil {
			logger.Warn("Rpc %s [User:%s]: Bad payload: %v", kind, userID, err)
			return "", runtime.NewError(err.Error(), codeInvalidArgument)
		}

		call := app.Call{CallerID: userID, Now: m.clock.Now()}
		result, err := m.executor(nk).Execute(ctx, call, action)
		if err != nil {
			return "", toRuntimeError(logger, string(kind), userID, err)
		}
		if result.NotifyErr != nil {
			logger.Warn("Rpc %s [User:%s]: Notification failed: %v", kind, userID, result.NotifyErr)
		}
		logger.Debug("Rpc %s [User:%s]: phase=%s balance=%d", kind, userID, result.View.Phase, result.View.GoldBalance)

		events := result.Events
		if events == nil {
			events = []app.Event{}
		}
		return marshalResponse(ActionResponse{State: result.View, Events: events})
	}
}

func (m *Module) rpcPlayerState(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)
	view, err := m.executor(nk).View(ctx, userID)
	if err != nil {
		return "", toRuntimeError(logger, RpcPlayerState, userID, err)
	}
	return marshalResponse(view)
}

func (m *Module) rpcGameInfo(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	return marshalResponse(m.executor(nk).Info())
}

func parseAction(kind app.ActionKind, payload string) (app.Action, error) {
	action := app.Action{Kind: kind}
	if kind != app.ActionStartGame {
		return action, nil
	}
	if strings.TrimSpace(payload) == "" {
		return action, errors.New("payload with wager is required")
	}
	var req StartGameRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return action, errors.New("payload must be {\"wager\": <1-5>}")
	}
	action.Wager = req.Wager
	return action, nil
}

func marshalResponse(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", runtime.NewError("failed to marshal response", codeInternal)
	}
	return string(b), nil
}

// toRuntimeError maps app errors to Nakama RPC errors and logs them.
func toRuntimeError(logger runtime.Logger, rpc, userID string, err error) error {
	switch {
	case errors.Is(err, app.ErrUnauthenticated):
		logger.Warn("Rpc %s: Rejected unauthenticated call", rpc)
		return runtime.NewError(err.Error(), codeUnauthenticated)
	case errors.Is(err, app.ErrInvalidWager), errors.Is(err, app.ErrUnknownAction):
		logger.Warn("Rpc %s [User:%s]: %v", rpc, userID, err)
		return runtime.NewError(err.Error(), codeInvalidArgument)
	case errors.Is(err, app.ErrInsufficientGold), errors.Is(err, app.ErrPhaseViolation):
		logger.Warn("Rpc %s [User:%s]: %v", rpc, userID, err)
		return runtime.NewError(err.Error(), codeFailedPrecondition)
	case app.IsExhaustion(err):
		logger.Warn("Rpc %s [User:%s]: %v", rpc, userID, err)
		return runtime.NewError(err.Error(), codeResourceExhausted)
	case errors.Is(err, ports.ErrVersionConflict):
		logger.Warn("Rpc %s [User:%s]: Concurrent update: %v", rpc, userID, err)
		return runtime.NewError("account changed concurrently, retry", codeAborted)
	default:
		logger.Error("Rpc %s [User:%s]: %v", rpc, userID, err)
		return runtime.NewError("internal error", codeInternal)
	}
}
