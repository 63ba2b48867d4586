package attendance

import (
	"testing"

	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTier_Boundaries(t *testing.T) {
	cases := []struct {
		rate string
		want attendance.Tier
	}{
		{"100", attendance.TierBlue},
		{"90", attendance.TierBlue},
		{"89.9", attendance.TierGreen},
		{"75", attendance.TierGreen},
		{"74.9", attendance.TierOrange},
		{"60", attendance.TierOrange},
		{"59.9", attendance.TierRed},
		{"0", attendance.TierRed},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyTier(decimal.RequireFromString(c.rate)), c.rate)
	}
}

func TestClassifyTier_Monotonic(t *testing.T) {
	prev := ClassifyTier(decimal.Zero)
	for i := 1; i <= 1000; i++ {
		rate := decimal.New(int64(i), -1)
		tier := ClassifyTier(rate)
		assert.GreaterOrEqual(t, tier.Rank(), prev.Rank(), rate.String())
		prev = tier
	}
}
