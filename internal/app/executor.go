package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"towerdefense/internal/domain"
	"towerdefense/internal/ports"
)

// ActionKind names one of the player actions.
type ActionKind string

const (
	ActionReset       ActionKind = "reset"
	ActionStartGame   ActionKind = "start_game"
	ActionBattle      ActionKind = "battle"
	ActionEndWave     ActionKind = "end_wave"
	ActionRequestGold ActionKind = "request_gold"
)

// Action is a single player request. Wager is only read by ActionStartGame.
type Action struct {
	Kind  ActionKind
	Wager uint64
}

// Call carries what the host knows about the current invocation.
type Call struct {
	CallerID string
	Now      time.Time
}

// Settings configures account provisioning.
type Settings struct {
	StartingGold uint64
	MasterSeed   uint64
	// Deployer identifies who operates this game instance. Informational only.
	Deployer string
}

// Result is returned by a committed action.
type Result struct {
	View   PlayerView
	Events []Event
	// NotifyErr is set when the action committed but a notification failed.
	NotifyErr error
}

// Executor runs actions against the ledger: load, act on a copy, commit
// everything at once. Nothing is written when the action fails.
type Executor struct {
	service  *Service
	ledger   ports.LedgerPort
	notifier ports.NotifierPort
	settings Settings
}

// NewExecutor wires an Executor. notifier may be nil.
func NewExecutor(service *Service, ledger ports.LedgerPort, notifier ports.NotifierPort, settings Settings) *Executor {
	return &Executor{
		service:  service,
		ledger:   ledger,
		notifier: notifier,
		settings: settings,
	}
}

// Execute applies action for the caller and commits the result.
func (e *Executor) Execute(ctx context.Context, call Call, action Action) (Result, error) {
	if call.CallerID == "" {
		return Result{}, ErrUnauthenticated
	}

	acct, version, err := e.load(ctx, call.CallerID)
	if err != nil {
		return Result{}, err
	}
	history, err := e.history(ctx, call.CallerID, version)
	if err != nil {
		return Result{}, err
	}

	work := acct.Clone()
	events, err := e.service.Dispatch(work, action, call.Now)
	if err != nil {
		return Result{}, err
	}

	// The commit is the last ledger call; the view is built from what was
	// read before it.
	records := Records(events)
	if err := e.ledger.Commit(ctx, call.CallerID, version, work, records); err != nil {
		return Result{}, fmt.Errorf("commit %s: %w", action.Kind, err)
	}

	history = append(history, records...)
	result := Result{View: NewPlayerView(work, history), Events: events}
	result.NotifyErr = e.notify(ctx, call.CallerID, events)
	return result, nil
}

// Provision writes a fresh account for ownerID if none exists yet. It
// reports whether this call created it.
func (e *Executor) Provision(ctx context.Context, ownerID string) (bool, error) {
	if ownerID == "" {
		return false, ErrUnauthenticated
	}
	acct, version, err := e.load(ctx, ownerID)
	if err != nil {
		return false, err
	}
	if version != "" {
		return false, nil
	}
	err = e.ledger.Commit(ctx, ownerID, "", acct, nil)
	if errors.Is(err, ports.ErrVersionConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("provision account: %w", err)
	}
	return true, nil
}

// View builds the read projection for ownerID. Owners without a record see
// a provisional fresh account that is not persisted.
func (e *Executor) View(ctx context.Context, ownerID string) (PlayerView, error) {
	if ownerID == "" {
		return PlayerView{}, ErrUnauthenticated
	}
	acct, version, err := e.load(ctx, ownerID)
	if err != nil {
		return PlayerView{}, err
	}
	history, err := e.history(ctx, ownerID, version)
	if err != nil {
		return PlayerView{}, err
	}
	return NewPlayerView(acct, history), nil
}

// Info describes the game's fixed parameters.
func (e *Executor) Info() GameInfo {
	return GameInfo{
		DefaultGold:       e.settings.StartingGold,
		Deployer:          e.settings.Deployer,
		RequestGoldAmount: e.service.requestGold,
		AllowedWagers:     append([]uint64(nil), AllowedWagers...),
	}
}

func (e *Executor) load(ctx context.Context, ownerID string) (*domain.Account, string, error) {
	acct, version, err := e.ledger.Load(ctx, ownerID)
	if errors.Is(err, ports.ErrAccountNotFound) {
		return domain.NewAccount(ownerID, e.settings.StartingGold, e.settings.MasterSeed), "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load account: %w", err)
	}
	if err := acct.Validate(); err != nil {
		return nil, "", fmt.Errorf("corrupt account record for %s: %w", ownerID, err)
	}
	return acct, version, nil
}

// history reads the owner's log. Owners without a stored record have none.
func (e *Executor) history(ctx context.Context, ownerID, version string) ([]domain.GameRecord, error) {
	if version == "" {
		return nil, nil
	}
	history, err := e.ledger.History(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history, nil
}

func (e *Executor) notify(ctx context.Context, ownerID string, events []Event) error {
	if e.notifier == nil {
		return nil
	}
	var errs []error
	for _, ev := range events {
		n, ok := notificationFor(ev)
		if !ok {
			continue
		}
		if err := e.notifier.Notify(ctx, ownerID, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const (
	NotificationCodeRoundResolved = 1
	NotificationCodeGoldGranted   = 2
)

func notificationFor(ev Event) (ports.Notification, bool) {
	switch p := ev.Payload.(type) {
	case RoundResolvedPayload:
		return ports.Notification{
			Subject: "Wave complete: " + string(p.Record.Outcome),
			Code:    NotificationCodeRoundResolved,
			Content: map[string]interface{}{
				"round_id": p.Record.RoundID,
				"outcome":  string(p.Record.Outcome),
				"wager":    p.Record.Wager,
				"payout":   p.Record.Payout,
				"balance":  p.Balance,
			},
		}, true
	case GoldGrantedPayload:
		return ports.Notification{
			Subject: "Gold received",
			Code:    NotificationCodeGoldGranted,
			Content: map[string]interface{}{
				"amount":  p.Amount,
				"balance": p.Balance,
			},
		}, true
	}
	return ports.Notification{}, false
}
