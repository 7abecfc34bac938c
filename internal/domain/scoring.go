package domain

const (
	// CriticalPower is the best possible total; above it a hand is busted.
	CriticalPower uint8 = 21
	// BossStandPower is the total at which the boss stops drawing.
	BossStandPower uint8 = 17
)

// Power returns the blackjack-style total of a hand. Aces count 11 and drop
// to 1 one at a time while the total is over CriticalPower. Labels outside
// the deck count as zero; records are validated on load.
func Power(cards []Card) uint8 {
	var total, aces uint8
	for _, c := range cards {
		value, ace, _ := c.Power.Value()
		if ace {
			aces++
		}
		total = saturatingAdd8(total, value)
	}
	for total > CriticalPower && aces > 0 {
		total -= 10
		aces--
	}
	return total
}

// IsBust reports whether a hand is over CriticalPower.
func IsBust(cards []Card) bool {
	return Power(cards) > CriticalPower
}

// DetermineOutcome compares final hands from the player's point of view.
// A busted player loses even when the boss also busted.
func DetermineOutcome(playerCards, opponentCards []Card) Outcome {
	player := Power(playerCards)
	opponent := Power(opponentCards)

	switch {
	case player > CriticalPower:
		return OutcomeOverwhelmed
	case opponent > CriticalPower:
		return OutcomeEnemyRetreat
	case player > opponent:
		return OutcomeVictory
	case opponent > player:
		return OutcomeDefeat
	default:
		return OutcomeStalemate
	}
}

func saturatingAdd8(a, b uint8) uint8 {
	if a > 255-b {
		return 255
	}
	return a + b
}
