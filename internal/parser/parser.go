package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/estensen/wallet-credit-score/internal/models"
)

// Token amounts are fixed-point integers with 18 decimals.
const amountDecimals = 18

var (
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrMissingActionData = errors.New("missing actionData")
	ErrInvalidActionData = errors.New("actionData is not an object")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidPrice      = errors.New("invalid assetPriceUSD")
)

// Stats counts what normalization did with the input.
type Stats struct {
	Transactions   int
	InvalidAmounts int
}

// Normalize maps every raw transaction to a normalized row, preserving input
// order. A record whose USD value cannot be computed keeps a value of zero and
// is counted in Stats.InvalidAmounts. Missing identity fields fail the run.
func Normalize(raws []models.RawTransaction) ([]models.Transaction, Stats, error) {
	stats := Stats{}
	transactions := make([]models.Transaction, 0, len(raws))

	for i, raw := range raws {
		txn, err := parseFields(raw)
		if err != nil {
			return nil, stats, fmt.Errorf("record %d: %w", i, err)
		}

		usdValue, err := ParseUSDValue(raw.ActionData)
		if err != nil {
			stats.InvalidAmounts++
			usdValue = 0
		}
		txn.USDValue = usdValue

		transactions = append(transactions, txn)
		stats.Transactions++
	}

	return transactions, stats, nil
}

func parseFields(raw models.RawTransaction) (models.Transaction, error) {
	var txn models.Transaction

	if raw.UserWallet == nil {
		return txn, fmt.Errorf("%w: userWallet", ErrMissingField)
	}
	if raw.Action == nil {
		return txn, fmt.Errorf("%w: action", ErrMissingField)
	}

	timestamp, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return txn, err
	}

	txn.Wallet = *raw.UserWallet
	txn.Action = strings.ToLower(*raw.Action)
	txn.Timestamp = timestamp
	return txn, nil
}

func parseTimestamp(v any) (int64, error) {
	switch ts := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: timestamp", ErrMissingField)
	case json.Number:
		if n, err := ts.Int64(); err == nil {
			return n, nil
		}
		f, err := ts.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts.String())
		}
		return int64(f), nil
	case float64:
		return int64(ts), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unexpected type %T", ErrInvalidTimestamp, v)
	}
}

// ParseUSDValue converts actionData.amount from its 18-decimal fixed-point
// form and multiplies it by actionData.assetPriceUSD. A missing amount counts
// as zero and a missing price as one.
func ParseUSDValue(v any) (float64, error) {
	if v == nil {
		return 0, ErrMissingActionData
	}
	actionData, ok := v.(map[string]any)
	if !ok {
		return 0, fmt.Errorf("%w: got %T", ErrInvalidActionData, v)
	}

	amount := decimal.Zero
	if raw, ok := actionData["amount"]; ok {
		v, err := parseDecimal(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		amount = v
	}

	price := decimal.NewFromInt(1)
	if raw, ok := actionData["assetPriceUSD"]; ok {
		v, err := parseDecimal(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, err)
		}
		price = v
	}

	return amount.Shift(-amountDecimals).Mul(price).InexactFloat64(), nil
}

func parseDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("non-finite value %v", n)
		}
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	default:
		return decimal.Zero, fmt.Errorf("unexpected type %T", v)
	}
}
