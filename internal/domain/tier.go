package domain

// Tier is a named reputation bucket derived purely from score.
type Tier string

const (
	TierNew      Tier = "NEW"
	TierEmerging Tier = "EMERGING"
	TierTrusted  Tier = "TRUSTED"
	TierElite    Tier = "ELITE"
)

const (
	eliteThreshold    = 1600
	trustedThreshold  = 1200
	emergingThreshold = 700
)

// TierForScore maps a score into its tier. Boundaries are closed-open:
// a score equal to a threshold lands in the higher bucket.
func TierForScore(score int) Tier {
	switch {
	case score >= eliteThreshold:
		return TierElite
	case score >= trustedThreshold:
		return TierTrusted
	case score >= emergingThreshold:
		return TierEmerging
	default:
		return TierNew
	}
}

// Rank orders tiers NEW < EMERGING < TRUSTED < ELITE.
func (t Tier) Rank() int {
	switch t {
	case TierElite:
		return 3
	case TierTrusted:
		return 2
	case TierEmerging:
		return 1
	default:
		return 0
	}
}
