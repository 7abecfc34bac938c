package app

import "towerdefense/internal/domain"

// PlayerView is the read projection exposed to clients. It never contains
// the deck or an unrevealed opponent card.
type PlayerView struct {
	OwnerID       string              `json:"owner_id"`
	GoldBalance   uint64              `json:"gold_balance"`
	CurrentWager  uint64              `json:"current_wager"`
	Phase         domain.Phase        `json:"phase"`
	LastResult    *domain.Outcome     `json:"last_result"`
	PlayerCards   []domain.Card       `json:"player_cards"`
	OpponentCards []domain.Card       `json:"opponent_cards"`
	PlayerPower   uint8               `json:"player_power"`
	OpponentPower uint8               `json:"opponent_power"`
	DeckRemaining int                 `json:"deck_remaining"`
	AllowedWagers []uint64            `json:"allowed_wagers"`
	GameHistory   []domain.GameRecord `json:"game_history"`
}

// GameInfo describes the game's fixed parameters.
type GameInfo struct {
	DefaultGold       uint64   `json:"default_gold"`
	Deployer          string   `json:"deployer"`
	RequestGoldAmount uint64   `json:"request_gold_amount"`
	AllowedWagers     []uint64 `json:"allowed_wagers"`
}

// NewPlayerView projects acct and its history.
func NewPlayerView(acct *domain.Account, history []domain.GameRecord) PlayerView {
	view := PlayerView{
		OwnerID:       acct.OwnerID,
		GoldBalance:   acct.GoldBalance,
		CurrentWager:  acct.CurrentWager,
		Phase:         acct.Phase,
		PlayerCards:   append([]domain.Card{}, acct.PlayerCards...),
		OpponentCards: append([]domain.Card{}, acct.OpponentCards...),
		PlayerPower:   domain.Power(acct.PlayerCards),
		OpponentPower: domain.Power(acct.OpponentCards),
		DeckRemaining: len(acct.Deck),
		AllowedWagers: append([]uint64{}, AllowedWagers...),
		GameHistory:   append([]domain.GameRecord{}, history...),
	}
	if acct.LastResult != nil {
		r := *acct.LastResult
		view.LastResult = &r
	}
	return view
}
