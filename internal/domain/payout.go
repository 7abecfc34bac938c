package domain

import "math"

// Payout returns the gold credited for an outcome. The wager has already been
// taken from the balance, so a stalemate returns it and a loss pays nothing.
// Critical victories pay 2.5x rounded down.
func Payout(outcome Outcome, wager uint64) uint64 {
	switch outcome {
	case OutcomeCriticalVictory:
		return SaturatingMul(wager, 5) / 2
	case OutcomeVictory, OutcomeEnemyRetreat:
		return SaturatingMul(wager, 2)
	case OutcomeStalemate:
		return wager
	default:
		return 0
	}
}

// SaturatingAdd adds without wrapping past math.MaxUint64.
func SaturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// SaturatingSub subtracts without going below zero.
func SaturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

// SaturatingMul multiplies without wrapping past math.MaxUint64.
func SaturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
