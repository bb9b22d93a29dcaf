package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoyaltyProfile_DeductClampsAtZero(t *testing.T) {
	lp := &LoyaltyProfile{UserID: "u1", Points: 150, Rank: RankBronze}

	lp.Deduct(100)
	assert.Equal(t, 50, lp.Points)

	lp.Deduct(100)
	assert.Equal(t, 0, lp.Points)
	assert.Equal(t, RankBronze, lp.Rank)
}

func TestLoyaltyProfile_UpdateRank(t *testing.T) {
	tests := []struct {
		points int
		want   LoyaltyRank
	}{
		{0, RankBronze},
		{499, RankBronze},
		{500, RankSilver},
		{1499, RankSilver},
		{1500, RankGold},
		{2999, RankGold},
		{3000, RankPlatinum},
	}

	for _, tt := range tests {
		lp := &LoyaltyProfile{Points: tt.points}
		lp.UpdateRank()
		assert.Equal(t, tt.want, lp.Rank, "points=%d", tt.points)
	}
}

func TestLoyaltyProfile_AddRecomputesRank(t *testing.T) {
	lp := &LoyaltyProfile{Points: 450, Rank: RankBronze}

	lp.Add(100)

	assert.Equal(t, 550, lp.Points)
	assert.Equal(t, RankSilver, lp.Rank)
}
