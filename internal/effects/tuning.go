package effects

import "time"

// Tuning collects game-balance and client behavior constants. These are
// hand-tuned values, kept configurable rather than hard-coded.
type Tuning struct {
	FeedXPPerItem int // experience granted per fed item
	PlayXPPerItem int // experience granted per toy use

	// StreakWindow is the inactivity threshold: a care action more than this
	// long after the previous one of its category extends the care streak.
	StreakWindow time.Duration

	QueryTimeout   time.Duration // per-fetch deadline against the provider
	PublishTimeout time.Duration // per-publish deadline against the provider

	StartingCoins    int // coins granted on first profile publish
	NewbornStatValue int // initial value of each core stat for adopted pets
}

// DefaultTuning returns the shipped balance values.
func DefaultTuning() Tuning {
	return Tuning{
		FeedXPPerItem:  5,
		PlayXPPerItem:  3,
		StreakWindow:   20 * time.Hour,
		QueryTimeout:   5 * time.Second,
		PublishTimeout: 5 * time.Second,

		StartingCoins:    100,
		NewbornStatValue: 80,
	}
}
