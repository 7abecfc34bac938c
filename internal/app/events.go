package app

import "towerdefense/internal/domain"

// EventKind identifies emitted domain events for adapter dispatch.
type EventKind string

const (
	EventRoundReset     EventKind = "round_reset"
	EventRoundStarted   EventKind = "round_started"
	EventCardDrawn      EventKind = "card_drawn"
	EventHiddenRevealed EventKind = "hidden_revealed"
	EventBossDrew       EventKind = "boss_drew"
	EventRoundResolved  EventKind = "round_resolved"
	EventGoldGranted    EventKind = "gold_granted"
)

// Event is a domain/app event produced by a single action.
type Event struct {
	Kind    EventKind `json:"kind"`
	Payload any       `json:"payload,omitempty"`
}

// RoundStartedPayload never carries the hidden opponent card.
type RoundStartedPayload struct {
	Wager          uint64        `json:"wager"`
	PlayerCards    []domain.Card `json:"player_cards"`
	OpponentUpCard domain.Card   `json:"opponent_up_card"`
	PlayerPower    uint8         `json:"player_power"`
}

type CardDrawnPayload struct {
	Card        domain.Card `json:"card"`
	PlayerPower uint8       `json:"player_power"`
}

type HiddenRevealedPayload struct {
	Card          domain.Card `json:"card"`
	OpponentPower uint8       `json:"opponent_power"`
}

type BossDrewPayload struct {
	Card          domain.Card `json:"card"`
	OpponentPower uint8       `json:"opponent_power"`
}

type RoundResolvedPayload struct {
	Record  domain.GameRecord `json:"record"`
	Balance uint64            `json:"balance"`
}

type GoldGrantedPayload struct {
	Amount  uint64 `json:"amount"`
	Balance uint64 `json:"balance"`
}

// Records returns the history entries carried by round_resolved events.
func Records(events []Event) []domain.GameRecord {
	var out []domain.GameRecord
	for _, ev := range events {
		if p, ok := ev.Payload.(RoundResolvedPayload); ok && ev.Kind == EventRoundResolved {
			out = append(out, p.Record)
		}
	}
	return out
}
