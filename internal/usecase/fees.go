package usecase

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundredPercent = decimal.NewFromInt(100)

// SplitAmount divides a gross charge amount between the platform and the
// seller. The platform fee is feePercent of the gross, rounded half-up to
// the nearest cent. The seller always receives the exact remainder so the
// two parts sum to the gross. A negative gross or a fee percentage outside
// [0, 100] is an error.
func SplitAmount(grossCents int64, feePercent decimal.Decimal) (platformFee int64, sellerAmount int64, err error) {
	if grossCents < 0 {
		return 0, 0, fmt.Errorf("gross amount must not be negative, got %d", grossCents)
	}
	if feePercent.IsNegative() || feePercent.GreaterThan(hundredPercent) {
		return 0, 0, fmt.Errorf("fee percentage must be between 0 and 100, got %s", feePercent)
	}
	if grossCents == 0 || feePercent.IsZero() {
		return 0, grossCents, nil
	}

	fee := decimal.NewFromInt(grossCents).
		Mul(feePercent).
		Div(hundredPercent).
		Round(0)

	platformFee = fee.IntPart()
	if platformFee > grossCents {
		platformFee = grossCents
	}
	return platformFee, grossCents - platformFee, nil
}

// ProportionalFee computes the platform's share of a partial refund,
// proportional to the refunded fraction of the original charge and rounded
// half-up. The share never exceeds the original platform fee.
func ProportionalFee(refundCents, totalCents, platformFeeCents int64) int64 {
	if refundCents <= 0 || totalCents <= 0 || platformFeeCents <= 0 {
		return 0
	}
	if refundCents >= totalCents {
		return platformFeeCents
	}

	share := decimal.NewFromInt(platformFeeCents).
		Mul(decimal.NewFromInt(refundCents)).
		Div(decimal.NewFromInt(totalCents)).
		Round(0).
		IntPart()

	if share > platformFeeCents {
		share = platformFeeCents
	}
	return share
}
