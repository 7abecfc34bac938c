package domain

import (
	"fmt"
	"time"
)

// Phase represents the lifecycle stage of a player's round.
type Phase string

const (
	// PhaseWaitingForWave is the initial state; a wager may be placed.
	PhaseWaitingForWave Phase = "waiting_for_wave"
	// PhasePlacingWager is accepted as a pre-start state but never entered.
	PhasePlacingWager Phase = "placing_wager"
	// PhaseBattleInProgress is the state where the player may draw or stand.
	PhaseBattleInProgress Phase = "battle_in_progress"
	// PhaseBossTurn only exists while the boss resolves its hand.
	PhaseBossTurn Phase = "boss_turn"
	// PhaseWaveComplete is terminal until a reset or a new round.
	PhaseWaveComplete Phase = "wave_complete"
)

// Outcome is the result of a finished round from the player's side.
type Outcome string

const (
	OutcomeCriticalVictory Outcome = "critical_victory"
	OutcomeVictory         Outcome = "victory"
	OutcomeDefeat          Outcome = "defeat"
	OutcomeOverwhelmed     Outcome = "overwhelmed"
	OutcomeEnemyRetreat    Outcome = "enemy_retreat"
	OutcomeStalemate       Outcome = "stalemate"
)

// GameRecord is an immutable entry in a player's history.
type GameRecord struct {
	RoundID         string  `json:"round_id"`
	PlayerCards     []Card  `json:"player_cards"`
	OpponentCards   []Card  `json:"opponent_cards"`
	PlayerPower     uint8   `json:"player_power"`
	OpponentPower   uint8   `json:"opponent_power"`
	Wager           uint64  `json:"wager"`
	Outcome         Outcome `json:"outcome"`
	Payout          uint64  `json:"payout"`
	TimestampMicros int64   `json:"timestamp_micros"`
}

// Account is the durable per-owner record. History entries live in the
// ledger's append log; HistoryCount tracks how many have been written.
type Account struct {
	OwnerID       string   `json:"owner_id"`
	GoldBalance   uint64   `json:"gold_balance"`
	RNGSeed       uint64   `json:"rng_seed"`
	Phase         Phase    `json:"phase"`
	CurrentWager  uint64   `json:"current_wager"`
	Deck          Deck     `json:"deck"`
	PlayerCards   []Card   `json:"player_cards"`
	OpponentCards []Card   `json:"opponent_cards"`
	HiddenCard    *Card    `json:"opponent_hidden_card,omitempty"`
	LastResult    *Outcome `json:"last_result,omitempty"`
	HistoryCount  uint64   `json:"history_count"`
}

// NewAccount provisions a fresh account for ownerID.
func NewAccount(ownerID string, startingGold, masterSeed uint64) *Account {
	return &Account{
		OwnerID:     ownerID,
		GoldBalance: startingGold,
		RNGSeed:     DeriveSeed(masterSeed, ownerID),
		Phase:       PhaseWaitingForWave,
	}
}

// Clone returns a deep copy so a failed action can be discarded.
func (a *Account) Clone() *Account {
	out := *a
	out.Deck = append(Deck(nil), a.Deck...)
	out.PlayerCards = append([]Card(nil), a.PlayerCards...)
	out.OpponentCards = append([]Card(nil), a.OpponentCards...)
	if a.HiddenCard != nil {
		c := *a.HiddenCard
		out.HiddenCard = &c
	}
	if a.LastResult != nil {
		r := *a.LastResult
		out.LastResult = &r
	}
	return &out
}

// ClearRound drops every transient round field. Balance, seed and history
// are kept.
func (a *Account) ClearRound() {
	a.Deck = nil
	a.PlayerCards = nil
	a.OpponentCards = nil
	a.HiddenCard = nil
	a.CurrentWager = 0
}

// BumpSeed advances the stored seed and returns the new value.
func (a *Account) BumpSeed() uint64 {
	a.RNGSeed = AdvanceSeed(a.RNGSeed)
	return a.RNGSeed
}

// RevealHidden moves the hidden opponent card into the opponent's hand.
func (a *Account) RevealHidden() (Card, bool) {
	if a.HiddenCard == nil {
		return Card{}, false
	}
	card := *a.HiddenCard
	a.OpponentCards = append(a.OpponentCards, card)
	a.HiddenCard = nil
	return card, true
}

// Settle pays out the outcome, closes the round and returns the history
// entry to append.
func (a *Account) Settle(outcome Outcome, roundID string, now time.Time) GameRecord {
	payout := Payout(outcome, a.CurrentWager)
	record := GameRecord{
		RoundID:         roundID,
		PlayerCards:     append([]Card(nil), a.PlayerCards...),
		OpponentCards:   append([]Card(nil), a.OpponentCards...),
		PlayerPower:     Power(a.PlayerCards),
		OpponentPower:   Power(a.OpponentCards),
		Wager:           a.CurrentWager,
		Outcome:         outcome,
		Payout:          payout,
		TimestampMicros: now.UnixMicro(),
	}

	a.GoldBalance = SaturatingAdd(a.GoldBalance, payout)
	a.CurrentWager = 0
	a.Phase = PhaseWaveComplete
	a.LastResult = &outcome
	a.HistoryCount++
	return record
}

// Validate checks a record loaded from storage.
func (a *Account) Validate() error {
	switch a.Phase {
	case PhaseWaitingForWave, PhasePlacingWager, PhaseBattleInProgress, PhaseBossTurn, PhaseWaveComplete:
	default:
		return fmt.Errorf("unknown phase %q", a.Phase)
	}
	piles := [][]Card{a.Deck, a.PlayerCards, a.OpponentCards}
	if a.HiddenCard != nil {
		piles = append(piles, []Card{*a.HiddenCard})
	}
	seen := make(map[string]bool, DeckSize)
	for _, pile := range piles {
		for _, c := range pile {
			if !c.Valid() {
				return fmt.Errorf("invalid card %+v", c)
			}
			if seen[c.ID] {
				return fmt.Errorf("duplicate card %s", c.ID)
			}
			seen[c.ID] = true
		}
	}
	return nil
}
