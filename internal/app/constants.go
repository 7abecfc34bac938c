package app

// AllowedWagers are the only stakes a round can be started with.
var AllowedWagers = []uint64{1, 2, 3, 4, 5}

// DefaultRequestGoldAmount is granted by RequestGold when no override is configured.
const DefaultRequestGoldAmount uint64 = 100

// IsAllowedWager reports whether wager is one of AllowedWagers.
func IsAllowedWager(wager uint64) bool {
	for _, w := range AllowedWagers {
		if w == wager {
			return true
		}
	}
	return false
}
