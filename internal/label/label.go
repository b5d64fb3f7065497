// Package label computes the synthetic training target for each wallet.
//
// No ground-truth credit score exists for the input data, so the target is a
// fixed affine combination of a few features. It is a stand-in, and the
// weights carry no calibration.
package label

import (
	"github.com/estensen/wallet-credit-score/internal/config"
	"github.com/estensen/wallet-credit-score/internal/models"
)

// Labeler assigns a training target to a wallet.
type Labeler interface {
	Label(f models.WalletFeatures) float64
}

// Linear is a weighted sum of features clamped to [Min, Max].
type Linear struct {
	Base                 float64
	BorrowToDepositRatio float64
	NumLiquidations      float64
	RepaymentRatio       float64
	NetFlowUSD           float64
	Min                  float64
	Max                  float64
}

func FromConfig(cfg config.LabelConfig) Linear {
	return Linear{
		Base:                 cfg.Base,
		BorrowToDepositRatio: cfg.BorrowToDepositRatio,
		NumLiquidations:      cfg.NumLiquidations,
		RepaymentRatio:       cfg.RepaymentRatio,
		NetFlowUSD:           cfg.NetFlowUSD,
		Min:                  cfg.Min,
		Max:                  cfg.Max,
	}
}

func (l Linear) Label(f models.WalletFeatures) float64 {
	score := l.Base +
		l.BorrowToDepositRatio*f.BorrowToDepositRatio +
		l.NumLiquidations*float64(f.NumLiquidations) +
		l.RepaymentRatio*f.RepaymentRatio +
		l.NetFlowUSD*f.NetFlowUSD
	return Clamp(score, l.Min, l.Max)
}

// Apply sets TrueScore on every wallet.
func Apply(labeler Labeler, features []models.WalletFeatures) {
	for i := range features {
		features[i].TrueScore = labeler.Label(features[i])
	}
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if v != v || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
