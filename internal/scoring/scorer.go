// Package scoring ranks competing shift claims. Scores are pure and
// deterministic so two resolvers ranking the same claim set always agree;
// ties are broken by submission order at resolution time, not here.
package scoring

import "math"

// Weighting constants for claim priority.
const (
	DirectEmployeeBonus  = 1000
	PrimaryTierBonus     = 100
	ReputationStarWeight = 100
	HighReliabilityBonus = 50
	NoShowPenalty        = 25
	MaxClaimTimeBonus    = 60
	ReliabilityThreshold = 4.5
)

// Factors carries everything the scorer weighs for a single claim.
type Factors struct {
	// DirectEmployee is true when the worker is employed by the tenant that
	// owns the shift, as opposed to borrowed through the network.
	DirectEmployee bool `json:"directEmployee" bson:"directEmployee"`

	// PrimaryTier is true when the worker's tier at the owning tenant is
	// "primary".
	PrimaryTier bool `json:"primaryTier" bson:"primaryTier"`

	// ReputationStars is the worker's star rating in [0,5].
	ReputationStars float64 `json:"reputationStars" bson:"reputationStars"`

	// Reliability is the worker's rolling reliability metric on a 5-point
	// scale.
	Reliability float64 `json:"reliability" bson:"reliability"`

	// NoShowCount is the caller-supplied no-show count.
	NoShowCount int `json:"noShowCount" bson:"noShowCount"`

	// ClaimTimeBonusMinutes rewards claiming early relative to shift start.
	ClaimTimeBonusMinutes int `json:"claimTimeBonusMinutes" bson:"claimTimeBonusMinutes"`
}

// Score computes the priority score for a claim. The result is never
// negative.
func Score(f Factors) int {
	score := 0

	if f.DirectEmployee {
		score += DirectEmployeeBonus
	}
	if f.PrimaryTier {
		score += PrimaryTierBonus
	}

	score += int(math.Round(ReputationStarWeight * f.ReputationStars))

	if f.Reliability > ReliabilityThreshold {
		score += HighReliabilityBonus
	}

	score -= NoShowPenalty * f.NoShowCount

	bonus := f.ClaimTimeBonusMinutes
	if bonus > MaxClaimTimeBonus {
		bonus = MaxClaimTimeBonus
	}
	score += bonus

	if score < 0 {
		return 0
	}
	return score
}
