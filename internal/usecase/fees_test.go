package usecase_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/linkstack-app/payment-service/internal/usecase"
)

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name       string
		gross      int64
		feePercent string
		wantFee    int64
		wantSeller int64
	}{
		{"four percent of 19.99 rounds up", 1999, "4", 80, 1919},
		{"exact split", 10000, "10", 1000, 9000},
		{"half cent rounds up", 1050, "5", 53, 997},
		{"one cent charge", 1, "4", 0, 1},
		{"zero fee percent", 1999, "0", 0, 1999},
		{"hundred percent fee", 500, "100", 500, 0},
		{"fractional percent", 2499, "2.9", 72, 2427},
		{"zero gross", 0, "4", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct := decimal.RequireFromString(tt.feePercent)
			fee, seller, err := usecase.SplitAmount(tt.gross, pct)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantFee, fee)
			assert.Equal(t, tt.wantSeller, seller)
		})
	}
}

func TestSplitAmount_RejectsInvalidInputs(t *testing.T) {
	tests := []struct {
		name       string
		gross      int64
		feePercent string
	}{
		{"negative gross", -100, "4"},
		{"negative fee percent", 1999, "-1"},
		{"fee percent above hundred", 1999, "100.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pct := decimal.RequireFromString(tt.feePercent)
			fee, seller, err := usecase.SplitAmount(tt.gross, pct)
			assert.Error(t, err)
			assert.Zero(t, fee)
			assert.Zero(t, seller)
		})
	}
}

func TestSplitAmount_PartsAlwaysSumToGross(t *testing.T) {
	percents := []string{"0", "1", "2.9", "4", "7.25", "10", "15", "50", "100"}
	for _, p := range percents {
		pct := decimal.RequireFromString(p)
		for gross := int64(1); gross <= 3000; gross++ {
			fee, seller, err := usecase.SplitAmount(gross, pct)
			assert.NoError(t, err)
			assert.Equal(t, gross, fee+seller, "gross=%d pct=%s", gross, p)
			assert.GreaterOrEqual(t, fee, int64(0))
			assert.GreaterOrEqual(t, seller, int64(0))
		}
	}
}

func TestProportionalFee(t *testing.T) {
	tests := []struct {
		name        string
		refund      int64
		total       int64
		platformFee int64
		want        int64
	}{
		{"quarter refund of 19.99", 500, 1999, 80, 20},
		{"full refund returns full fee", 1999, 1999, 80, 80},
		{"over total still capped at fee", 5000, 1999, 80, 80},
		{"half refund", 1000, 2000, 100, 50},
		{"rounding half up", 333, 1000, 50, 17},
		{"zero refund", 0, 1999, 80, 0},
		{"zero fee", 500, 1999, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecase.ProportionalFee(tt.refund, tt.total, tt.platformFee)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProportionalFee_SequentialRefundsNeverExceedFee(t *testing.T) {
	total := int64(1999)
	platformFee := int64(80)

	refunded := int64(0)
	feeRefunded := int64(0)
	for _, step := range []int64{500, 500, 500, 499} {
		share := usecase.ProportionalFee(step, total, platformFee)
		refunded += step
		feeRefunded += share
		assert.LessOrEqual(t, feeRefunded, platformFee+1, "accumulated fee share drifted too far")
	}
	assert.Equal(t, total, refunded)
}
