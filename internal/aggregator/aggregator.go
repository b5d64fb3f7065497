package aggregator

import (
	"math"
	"sort"
	"time"

	"github.com/estensen/wallet-credit-score/internal/models"
)

type Aggregator interface {
	Aggregate(transactions []models.Transaction) []models.WalletFeatures
}

type WalletAggregator struct{}

func NewAggregator() *WalletAggregator {
	return &WalletAggregator{}
}

// Aggregate groups transactions by wallet and returns one feature vector per
// wallet, sorted by wallet identifier.
func (a *WalletAggregator) Aggregate(transactions []models.Transaction) []models.WalletFeatures {
	groups := make(map[string][]models.Transaction)
	for _, txn := range transactions {
		groups[txn.Wallet] = append(groups[txn.Wallet], txn)
	}

	wallets := make([]string, 0, len(groups))
	for wallet := range groups {
		wallets = append(wallets, wallet)
	}
	sort.Strings(wallets)

	features := make([]models.WalletFeatures, 0, len(wallets))
	for _, wallet := range wallets {
		features = append(features, ComputeFeatures(wallet, groups[wallet]))
	}
	return features
}

// ComputeFeatures reduces the transactions of a single wallet to its feature
// vector. The slice is sorted in place by timestamp.
func ComputeFeatures(wallet string, transactions []models.Transaction) models.WalletFeatures {
	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Timestamp < transactions[j].Timestamp
	})

	actionCounts := make(map[string]int)
	actionSums := make(map[string]float64)
	for _, txn := range transactions {
		actionCounts[txn.Action]++
		actionSums[txn.Action] += txn.USDValue
	}

	f := models.WalletFeatures{
		Wallet:            wallet,
		TotalDepositedUSD: actionSums[models.ActionDeposit],
		TotalBorrowedUSD:  actionSums[models.ActionBorrow],
		TotalRepaidUSD:    actionSums[models.ActionRepay],
		NumLiquidations:   actionCounts[models.ActionLiquidationCall],
		NumTransactions:   len(transactions),
		UniqueActions:     len(actionCounts),
	}
	f.NetFlowUSD = finite(f.TotalDepositedUSD - f.TotalBorrowedUSD)
	f.RepaymentRatio = finite(safeRatio(f.TotalRepaidUSD, f.TotalBorrowedUSD))
	f.BorrowToDepositRatio = finite(safeRatio(f.TotalBorrowedUSD, f.TotalDepositedUSD))
	f.AvgTimeBetweenTx = finite(avgTimeBetween(transactions))
	f.NumDaysActive = daysActive(transactions)

	f.TotalDepositedUSD = finite(f.TotalDepositedUSD)
	f.TotalBorrowedUSD = finite(f.TotalBorrowedUSD)
	f.TotalRepaidUSD = finite(f.TotalRepaidUSD)

	return f
}

// finite zero-fills NaN so no missing value reaches labeling or training.
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// safeRatio returns 0 when the denominator is not positive.
func safeRatio(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}

// avgTimeBetween expects transactions sorted by timestamp.
func avgTimeBetween(transactions []models.Transaction) float64 {
	if len(transactions) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(transactions); i++ {
		total += float64(transactions[i].Timestamp - transactions[i-1].Timestamp)
	}
	return total / float64(len(transactions)-1)
}

// daysActive counts distinct UTC calendar dates.
func daysActive(transactions []models.Transaction) int {
	if len(transactions) < 2 {
		return 1
	}

	days := make(map[string]struct{})
	for _, txn := range transactions {
		days[time.Unix(txn.Timestamp, 0).UTC().Format("2006-01-02")] = struct{}{}
	}
	return len(days)
}
