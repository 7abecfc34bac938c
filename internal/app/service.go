package app

import (
	"errors"
	"fmt"
	"time"

	"towerdefense/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrUnauthenticated  = errors.New("caller is not authenticated")
	ErrInvalidWager     = errors.New("wager must be one of 1,2,3,4,5")
	ErrInsufficientGold = errors.New("insufficient gold to place wager")
	ErrPhaseViolation   = errors.New("action not allowed in current phase")
	ErrUnknownAction    = errors.New("unknown action")
)

// IsValidation reports whether err rejects the call without touching state.
func IsValidation(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrInvalidWager) ||
		errors.Is(err, ErrInsufficientGold) ||
		errors.Is(err, ErrPhaseViolation) ||
		errors.Is(err, ErrUnknownAction)
}

// IsExhaustion reports whether err is a fatal resource exhaustion.
func IsExhaustion(err error) bool {
	return errors.Is(err, domain.ErrDeckExhausted)
}

// Service is the round state machine. It validates actions against the
// account's phase and applies them. A failed action leaves the account
// exactly as it was.
type Service struct {
	requestGold uint64
	newRoundID  func() string
}

// NewService constructs a Service. A zero requestGold uses
// DefaultRequestGoldAmount; a nil newRoundID uses random UUIDs.
func NewService(requestGold uint64, newRoundID func() string) *Service {
	if requestGold == 0 {
		requestGold = DefaultRequestGoldAmount
	}
	if newRoundID == nil {
		newRoundID = uuid.NewString
	}
	return &Service{requestGold: requestGold, newRoundID: newRoundID}
}

// apply runs fn on a copy of acct and keeps the copy only on success.
func (s *Service) apply(acct *domain.Account, fn func(a *domain.Account) ([]Event, error)) ([]Event, error) {
	work := acct.Clone()
	events, err := fn(work)
	if err != nil {
		return nil, err
	}
	*acct = *work
	return events, nil
}

// Reset returns a finished or idle account to WaitingForWave.
func (s *Service) Reset(acct *domain.Account) ([]Event, error) {
	return s.apply(acct, func(a *domain.Account) ([]Event, error) {
		switch a.Phase {
		case domain.PhaseWaitingForWave, domain.PhaseWaveComplete:
		default:
			return nil, fmt.Errorf("cannot reset during active battle: %w", ErrPhaseViolation)
		}
		a.Phase = domain.PhaseWaitingForWave
		a.ClearRound()
		return []Event{{Kind: EventRoundReset}}, nil
	})
}

// StartGame stakes wager, shuffles a fresh deck and deals the opening hands.
// A dealt 21 resolves the round immediately.
func (s *Service) StartGame(acct *domain.Account, wager uint64, now time.Time) ([]Event, error) {
	return s.apply(acct, func(a *domain.Account) ([]Event, error) {
		if !IsAllowedWager(wager) {
			return nil, fmt.Errorf("wager %d: %w", wager, ErrInvalidWager)
		}
		switch a.Phase {
		case domain.PhaseWaitingForWave, domain.PhasePlacingWager, domain.PhaseWaveComplete:
		default:
			return nil, fmt.Errorf("cannot start wave during active battle: %w", ErrPhaseViolation)
		}
		if a.GoldBalance < wager {
			return nil, fmt.Errorf("balance %d, wager %d: %w", a.GoldBalance, wager, ErrInsufficientGold)
		}

		deck := domain.NewShuffledDeck(a.BumpSeed())
		var dealt [4]domain.Card
		for i := range dealt {
			card, err := deck.Draw()
			if err != nil {
				return nil, err
			}
			dealt[i] = card
		}
		hidden := dealt[3]

		a.GoldBalance -= wager
		a.CurrentWager = wager
		a.Deck = deck
		a.PlayerCards = []domain.Card{dealt[0], dealt[1]}
		a.OpponentCards = []domain.Card{dealt[2]}
		a.HiddenCard = &hidden
		a.LastResult = nil

		playerPower := domain.Power(a.PlayerCards)
		events := []Event{{
			Kind: EventRoundStarted,
			Payload: RoundStartedPayload{
				Wager:          wager,
				PlayerCards:    append([]domain.Card(nil), a.PlayerCards...),
				OpponentUpCard: dealt[2],
				PlayerPower:    playerPower,
			},
		}}

		if playerPower != domain.CriticalPower {
			a.Phase = domain.PhaseBattleInProgress
			return events, nil
		}

		events = append(events, revealHidden(a)...)
		outcome := domain.OutcomeCriticalVictory
		if domain.Power(a.OpponentCards) == domain.CriticalPower {
			outcome = domain.OutcomeStalemate
		}
		return append(events, s.settle(a, outcome, now)), nil
	})
}

// Battle draws one card for the player. Going over 21 ends the round.
func (s *Service) Battle(acct *domain.Account, now time.Time) ([]Event, error) {
	return s.apply(acct, func(a *domain.Account) ([]Event, error) {
		if a.Phase != domain.PhaseBattleInProgress {
			return nil, fmt.Errorf("you can only battle during the battle phase: %w", ErrPhaseViolation)
		}
		card, err := a.Deck.Draw()
		if err != nil {
			return nil, err
		}
		a.PlayerCards = append(a.PlayerCards, card)

		power := domain.Power(a.PlayerCards)
		events := []Event{{
			Kind:    EventCardDrawn,
			Payload: CardDrawnPayload{Card: card, PlayerPower: power},
		}}
		if power <= domain.CriticalPower {
			return events, nil
		}

		events = append(events, revealHidden(a)...)
		return append(events, s.settle(a, domain.OutcomeOverwhelmed, now)), nil
	})
}

// EndWave stands on the player's hand and plays out the boss turn.
func (s *Service) EndWave(acct *domain.Account, now time.Time) ([]Event, error) {
	return s.apply(acct, func(a *domain.Account) ([]Event, error) {
		if a.Phase != domain.PhaseBattleInProgress {
			return nil, fmt.Errorf("you can only end wave during the battle phase: %w", ErrPhaseViolation)
		}
		a.Phase = domain.PhaseBossTurn

		events := revealHidden(a)
		for domain.Power(a.OpponentCards) < domain.BossStandPower {
			card, err := a.Deck.Draw()
			if err != nil {
				return nil, err
			}
			a.OpponentCards = append(a.OpponentCards, card)
			events = append(events, Event{
				Kind:    EventBossDrew,
				Payload: BossDrewPayload{Card: card, OpponentPower: domain.Power(a.OpponentCards)},
			})
		}

		outcome := domain.DetermineOutcome(a.PlayerCards, a.OpponentCards)
		return append(events, s.settle(a, outcome, now)), nil
	})
}

// RequestGold grants the configured amount in any phase. A positive balance
// also clears a finished round back to WaitingForWave.
func (s *Service) RequestGold(acct *domain.Account) []Event {
	acct.GoldBalance = domain.SaturatingAdd(acct.GoldBalance, s.requestGold)
	if acct.GoldBalance > 0 && acct.Phase == domain.PhaseWaveComplete {
		acct.Phase = domain.PhaseWaitingForWave
	}
	return []Event{{
		Kind:    EventGoldGranted,
		Payload: GoldGrantedPayload{Amount: s.requestGold, Balance: acct.GoldBalance},
	}}
}

// Dispatch applies action to acct.
func (s *Service) Dispatch(acct *domain.Account, action Action, now time.Time) ([]Event, error) {
	switch action.Kind {
	case ActionReset:
		return s.Reset(acct)
	case ActionStartGame:
		return s.StartGame(acct, action.Wager, now)
	case ActionBattle:
		return s.Battle(acct, now)
	case ActionEndWave:
		return s.EndWave(acct, now)
	case ActionRequestGold:
		return s.RequestGold(acct), nil
	default:
		return nil, fmt.Errorf("%q: %w", action.Kind, ErrUnknownAction)
	}
}

func (s *Service) settle(a *domain.Account, outcome domain.Outcome, now time.Time) Event {
	record := a.Settle(outcome, s.newRoundID(), now)
	return Event{
		Kind:    EventRoundResolved,
		Payload: RoundResolvedPayload{Record: record, Balance: a.GoldBalance},
	}
}

func revealHidden(a *domain.Account) []Event {
	card, ok := a.RevealHidden()
	if !ok {
		return nil
	}
	return []Event{{
		Kind:    EventHiddenRevealed,
		Payload: HiddenRevealedPayload{Card: card, OpponentPower: domain.Power(a.OpponentCards)},
	}}
}
