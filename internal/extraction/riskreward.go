package extraction

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RiskReward returns reward/risk for one take-profit, rounded half-even to two places.
// BUY and LONG measure risk below the entry; every other direction is treated as a short.
// The ratio is absent without a stop loss or when the stop sits on the entry.
func RiskReward(entry decimal.Decimal, stopLoss *decimal.Decimal, takeProfit decimal.Decimal, direction string) (decimal.Decimal, bool) {
	if stopLoss == nil {
		return decimal.Zero, false
	}
	var risk, reward decimal.Decimal
	switch strings.ToUpper(direction) {
	case "BUY", "LONG":
		risk = entry.Sub(*stopLoss)
		reward = takeProfit.Sub(entry)
	default:
		risk = stopLoss.Sub(entry)
		reward = entry.Sub(takeProfit)
	}
	if risk.IsZero() {
		return decimal.Zero, false
	}
	return reward.DivRound(risk, 16).RoundBank(2), true
}
