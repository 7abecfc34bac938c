package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"towerdefense/internal/app"
	"towerdefense/internal/config"
	"towerdefense/internal/domain"
	"towerdefense/internal/logging"
	"towerdefense/internal/ports"
	"towerdefense/internal/store/memstore"
	"towerdefense/internal/store/sqlstore"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

const (
	optBattle      = "Battle (draw a reinforcement)"
	optEndWave     = "End wave (let the boss play)"
	optNextWave    = "Start another wave"
	optRequestGold = "Request gold"
	optQuit        = "Quit"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s play --wager N --owner ID [--db path] [--log-level level]\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 || os.Args[1] != "play" {
		usage()
		os.Exit(2)
	}

	fs := flag.NewFlagSet("play", flag.ExitOnError)
	wager := fs.Uint64("wager", 1, "gold to stake on each wave (1-5)")
	owner := fs.String("owner", "local-player", "owner id to play as")
	dbPath := fs.String("db", "", "sqlite file to keep the account in (empty keeps it in memory)")
	logLevel := fs.String("log-level", "warn", "log level")
	_ = fs.Parse(os.Args[2:])

	logger, err := logging.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Default()
	if err := cfg.ApplyProcessEnv(); err != nil {
		logger.Fatal("invalid environment", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid game config", zap.Error(err))
	}

	ledger, closeLedger, err := openLedger(*dbPath)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer closeLedger()

	exec := app.NewExecutor(app.NewService(cfg.RequestGoldAmount, nil), ledger, logging.NewNotifier(logger), app.Settings{
		StartingGold: cfg.StartingGold,
		MasterSeed:   cfg.MasterSeed,
		Deployer:     cfg.Deployer,
	})

	if err := play(context.Background(), exec, *owner, *wager); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.Println("Thank you for defending the tower...")
}

func openLedger(path string) (ports.LedgerPort, func(), error) {
	if path == "" {
		return memstore.New(), func() {}, nil
	}
	store, err := sqlstore.Open(sqlstore.SQLite, path)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func play(ctx context.Context, exec *app.Executor, owner string, wager uint64) error {
	view, err := exec.View(ctx, owner)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Commander %s, treasury: %d gold", pterm.LightCyan(owner), view.GoldBalance)

	action := app.Action{Kind: app.ActionStartGame, Wager: wager}
	if view.Phase == domain.PhaseBattleInProgress {
		pterm.Info.Println("Resuming the wave in progress.")
		action, err = chooseAction(view, wager)
		if err != nil {
			return err
		}
	}

	for {
		if action.Kind == "" {
			return nil
		}
		result, err := exec.Execute(ctx, app.Call{CallerID: owner, Now: time.Now()}, action)
		switch {
		case err == nil:
		case app.IsValidation(err):
			pterm.Warning.Println(err)
			action, err = chooseAction(view, wager)
			if err != nil {
				return err
			}
			continue
		case errors.Is(err, ports.ErrVersionConflict):
			pterm.Warning.Println("The account changed underneath us, reloading.")
			if view, err = exec.View(ctx, owner); err != nil {
				return err
			}
			action, err = chooseAction(view, wager)
			if err != nil {
				return err
			}
			continue
		default:
			return err
		}

		view = result.View
		printEvents(result.Events)
		printState(view)

		action, err = chooseAction(view, wager)
		if err != nil {
			return err
		}
	}
}

func chooseAction(view app.PlayerView, wager uint64) (app.Action, error) {
	var options []string
	if view.Phase == domain.PhaseBattleInProgress {
		options = []string{optBattle, optEndWave}
	} else {
		options = []string{optNextWave, optRequestGold, optQuit}
	}
	selected, err := pterm.DefaultInteractiveSelect.WithDefaultText("Select your next order").WithOptions(options).Show()
	if err != nil {
		return app.Action{}, err
	}
	switch selected {
	case optBattle:
		return app.Action{Kind: app.ActionBattle}, nil
	case optEndWave:
		return app.Action{Kind: app.ActionEndWave}, nil
	case optRequestGold:
		return app.Action{Kind: app.ActionRequestGold}, nil
	case optNextWave:
		return app.Action{Kind: app.ActionStartGame, Wager: chooseWager(view, wager)}, nil
	}
	return app.Action{}, nil
}

func chooseWager(view app.PlayerView, current uint64) uint64 {
	options := make([]string, 0, len(view.AllowedWagers))
	for _, w := range view.AllowedWagers {
		options = append(options, strconv.FormatUint(w, 10))
	}
	selected, err := pterm.DefaultInteractiveSelect.
		WithDefaultText("Gold to stake").
		WithOptions(options).
		WithDefaultOption(strconv.FormatUint(current, 10)).
		Show()
	if err != nil {
		return current
	}
	w, err := strconv.ParseUint(selected, 10, 64)
	if err != nil {
		return current
	}
	return w
}
