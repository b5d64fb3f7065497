package aggregator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estensen/wallet-credit-score/internal/config"
	"github.com/estensen/wallet-credit-score/internal/label"
	"github.com/estensen/wallet-credit-score/internal/models"
)

func ts(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC).Unix()
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	transactions := []models.Transaction{
		{Wallet: "w2", Action: models.ActionLiquidationCall, Timestamp: ts(2021, 8, 3, 12)},
		{Wallet: "w1", Action: models.ActionDeposit, Timestamp: ts(2021, 8, 1, 0), USDValue: 2000},
		{Wallet: "w2", Action: models.ActionBorrow, Timestamp: ts(2021, 8, 2, 12), USDValue: 500},
		{Wallet: "w2", Action: models.ActionDeposit, Timestamp: ts(2021, 8, 1, 12), USDValue: 1000},
	}

	features := NewAggregator().Aggregate(transactions)
	require.Len(t, features, 2)

	w1, w2 := features[0], features[1]
	assert.Equal(t, "w1", w1.Wallet)
	assert.Equal(t, "w2", w2.Wallet)

	assert.Equal(t, 2000.0, w1.TotalDepositedUSD)
	assert.Equal(t, 0, w1.NumLiquidations)
	assert.Equal(t, 2000.0, w1.NetFlowUSD)
	assert.Zero(t, w1.BorrowToDepositRatio)
	assert.Zero(t, w1.RepaymentRatio)

	assert.Equal(t, 1000.0, w2.TotalDepositedUSD)
	assert.Equal(t, 500.0, w2.TotalBorrowedUSD)
	assert.Equal(t, 500.0, w2.NetFlowUSD)
	assert.Equal(t, 0.5, w2.BorrowToDepositRatio)
	assert.Zero(t, w2.RepaymentRatio)
	assert.Equal(t, 1, w2.NumLiquidations)
	assert.Equal(t, 3, w2.NumTransactions)
	assert.Equal(t, 3, w2.UniqueActions)
	assert.Equal(t, 3, w2.NumDaysActive)
	assert.InDelta(t, float64(24*3600), w2.AvgTimeBetweenTx, 1e-9)
}

func TestAggregateSortsByWallet(t *testing.T) {
	transactions := []models.Transaction{
		{Wallet: "0xc", Action: "deposit", Timestamp: 1},
		{Wallet: "0xa", Action: "deposit", Timestamp: 1},
		{Wallet: "0xb", Action: "deposit", Timestamp: 1},
	}

	features := NewAggregator().Aggregate(transactions)
	wallets := make([]string, 0, len(features))
	for _, f := range features {
		wallets = append(wallets, f.Wallet)
	}
	assert.Equal(t, []string{"0xa", "0xb", "0xc"}, wallets)
}

func TestComputeFeatures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		transactions []models.Transaction
		check        func(t *testing.T, f models.WalletFeatures)
	}{
		{
			name: "Single transaction defaults",
			transactions: []models.Transaction{
				{Action: models.ActionDeposit, Timestamp: ts(2021, 8, 1, 0), USDValue: 10},
			},
			check: func(t *testing.T, f models.WalletFeatures) {
				assert.Zero(t, f.AvgTimeBetweenTx)
				assert.Equal(t, 1, f.NumDaysActive)
				assert.Equal(t, 1, f.NumTransactions)
				assert.Equal(t, 1, f.UniqueActions)
			},
		},
		{
			name: "No borrows takes the zero guard",
			transactions: []models.Transaction{
				{Action: models.ActionRepay, Timestamp: 1, USDValue: 50},
				{Action: models.ActionRepay, Timestamp: 2, USDValue: 50},
			},
			check: func(t *testing.T, f models.WalletFeatures) {
				assert.Equal(t, 100.0, f.TotalRepaidUSD)
				assert.Zero(t, f.RepaymentRatio)
				assert.Zero(t, f.BorrowToDepositRatio)
				assert.Equal(t, 1, f.UniqueActions)
			},
		},
		{
			name: "Repayment and leverage ratios",
			transactions: []models.Transaction{
				{Action: models.ActionDeposit, Timestamp: 1, USDValue: 400},
				{Action: models.ActionBorrow, Timestamp: 2, USDValue: 100},
				{Action: models.ActionBorrow, Timestamp: 3, USDValue: 100},
				{Action: models.ActionRepay, Timestamp: 4, USDValue: 150},
			},
			check: func(t *testing.T, f models.WalletFeatures) {
				assert.InDelta(t, 0.75, f.RepaymentRatio, 1e-12)
				assert.InDelta(t, 0.5, f.BorrowToDepositRatio, 1e-12)
				assert.InDelta(t, 200.0, f.NetFlowUSD, 1e-12)
			},
		},
		{
			name: "Unsorted timestamps and shared days",
			transactions: []models.Transaction{
				{Action: "deposit", Timestamp: ts(2021, 8, 2, 23)},
				{Action: "deposit", Timestamp: ts(2021, 8, 1, 1)},
				{Action: "deposit", Timestamp: ts(2021, 8, 1, 5)},
			},
			check: func(t *testing.T, f models.WalletFeatures) {
				assert.Equal(t, 2, f.NumDaysActive)
				assert.InDelta(t, float64(46*3600)/2, f.AvgTimeBetweenTx, 1e-9)
			},
		},
		{
			name: "Duplicate timestamps on one day",
			transactions: []models.Transaction{
				{Action: "deposit", Timestamp: 100},
				{Action: "borrow", Timestamp: 100},
			},
			check: func(t *testing.T, f models.WalletFeatures) {
				assert.Zero(t, f.AvgTimeBetweenTx)
				assert.Equal(t, 1, f.NumDaysActive)
			},
		},
		{
			name: "Unknown actions count but add no totals",
			transactions: []models.Transaction{
				{Action: "redeemunderlying", Timestamp: 1, USDValue: 10},
				{Action: "liquidationcall", Timestamp: 2, USDValue: 5},
				{Action: "liquidationcall", Timestamp: 3, USDValue: 5},
			},
			check: func(t *testing.T, f models.WalletFeatures) {
				assert.Equal(t, 2, f.NumLiquidations)
				assert.Equal(t, 2, f.UniqueActions)
				assert.Zero(t, f.TotalDepositedUSD)
				assert.Zero(t, f.NetFlowUSD)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ComputeFeatures("w", tt.transactions)
			assert.InDelta(t, f.TotalDepositedUSD-f.TotalBorrowedUSD, f.NetFlowUSD, 1e-9)
			tt.check(t, f)
		})
	}
}

func TestComputeFeaturesZeroFillsNaN(t *testing.T) {
	transactions := []models.Transaction{
		{Action: models.ActionDeposit, Timestamp: 1, USDValue: math.Inf(1)},
		{Action: models.ActionBorrow, Timestamp: 2, USDValue: math.Inf(1)},
		{Action: models.ActionRepay, Timestamp: 3, USDValue: math.NaN()},
	}

	f := ComputeFeatures("w", transactions)
	for i, v := range f.Vector() {
		assert.False(t, math.IsNaN(v), "feature %s is NaN", models.FeatureNames[i])
	}
	assert.Zero(t, f.NetFlowUSD)
	assert.Zero(t, f.BorrowToDepositRatio)
	assert.Zero(t, f.RepaymentRatio)
	assert.Zero(t, f.TotalRepaidUSD)

	score := label.FromConfig(config.Default().Label).Label(f)
	assert.Equal(t, 1000.0, score)
}

func TestSafeRatio(t *testing.T) {
	assert.Equal(t, 0.0, safeRatio(10, 0))
	assert.Equal(t, 0.0, safeRatio(10, -5))
	assert.Equal(t, 2.5, safeRatio(10, 4))
}
