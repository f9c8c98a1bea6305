package domain

import "testing"

func TestTierBoundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		score int
		want  Tier
	}{
		{0, TierNew},
		{699, TierNew},
		{700, TierEmerging},
		{1199, TierEmerging},
		{1200, TierTrusted},
		{1599, TierTrusted},
		{1600, TierElite},
		{2500, TierElite},
	}
	for _, tc := range cases {
		if got := TierForScore(tc.score); got != tc.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestTierMonotonicity(t *testing.T) {
	t.Parallel()

	prev := TierForScore(0)
	for score := 1; score <= 2500; score++ {
		cur := TierForScore(score)
		if cur.Rank() < prev.Rank() {
			t.Fatalf("tier rank decreased at score %d: %s -> %s", score, prev, cur)
		}
		prev = cur
	}
}
