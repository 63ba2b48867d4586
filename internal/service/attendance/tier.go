package attendance

import (
	"github.com/cmlabs-hris/attendance-insights/internal/domain/attendance"
	"github.com/shopspring/decimal"
)

var (
	blueThreshold   = decimal.NewFromInt(90)
	greenThreshold  = decimal.NewFromInt(75)
	orangeThreshold = decimal.NewFromInt(60)
)

// ClassifyTier maps an attendance rate (0-100) to its rank tier.
func ClassifyTier(rate decimal.Decimal) attendance.Tier {
	switch {
	case rate.GreaterThanOrEqual(blueThreshold):
		return attendance.TierBlue
	case rate.GreaterThanOrEqual(greenThreshold):
		return attendance.TierGreen
	case rate.GreaterThanOrEqual(orangeThreshold):
		return attendance.TierOrange
	default:
		return attendance.TierRed
	}
}
