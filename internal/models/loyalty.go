package models

import "time"

// LoyaltyRank is the consumer loyalty tier, recomputed whenever points
// change.
type LoyaltyRank string

const (
	RankBronze   LoyaltyRank = "BRONZE"
	RankSilver   LoyaltyRank = "SILVER"
	RankGold     LoyaltyRank = "GOLD"
	RankPlatinum LoyaltyRank = "PLATINUM"
)

// LoyaltyProfile tracks reward points for an account. Points never go
// negative; deductions clamp at zero.
type LoyaltyProfile struct {
	UserID    string
	Points    int
	Rank      LoyaltyRank
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Deduct removes up to n points, clamping at zero, and recomputes the rank.
func (lp *LoyaltyProfile) Deduct(n int) {
	lp.Points -= n
	if lp.Points < 0 {
		lp.Points = 0
	}
	lp.UpdateRank()
}

// Add grants n points and recomputes the rank.
func (lp *LoyaltyProfile) Add(n int) {
	lp.Points += n
	lp.UpdateRank()
}

// UpdateRank recomputes the tier from the current point balance.
func (lp *LoyaltyProfile) UpdateRank() {
	switch {
	case lp.Points >= 3000:
		lp.Rank = RankPlatinum
	case lp.Points >= 1500:
		lp.Rank = RankGold
	case lp.Points >= 500:
		lp.Rank = RankSilver
	default:
		lp.Rank = RankBronze
	}
}
