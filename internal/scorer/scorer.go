package scorer

import (
	"github.com/estensen/wallet-credit-score/internal/label"
	"github.com/estensen/wallet-credit-score/internal/models"
)

const (
	MinScore = 0
	MaxScore = 1000
)

// Predictor maps a feature row to a raw score.
type Predictor interface {
	Predict(row []float64) float64
}

// Score predicts every wallet, including the ones used for training, and
// rescales the predictions into [MinScore, MaxScore]. Output keeps the order
// of features.
func Score(model Predictor, features []models.WalletFeatures) []models.WalletScore {
	predicted := make([]float64, len(features))
	for i, f := range features {
		predicted[i] = model.Predict(f.Vector())
	}

	scaled := MinMaxScale(predicted, MinScore, MaxScore)

	scores := make([]models.WalletScore, len(features))
	for i, f := range features {
		scores[i] = models.WalletScore{
			Wallet:         f.Wallet,
			PredictedScore: predicted[i],
			CreditScore:    scaled[i],
		}
	}
	return scores
}

// MinMaxScale maps values linearly so the smallest becomes lo and the
// largest hi. When every value is equal they all map to lo.
func MinMaxScale(values []float64, lo, hi float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	minV, maxV := values[0], values[0]
	for _, v := range values[1:] {
		minV = min(minV, v)
		maxV = max(maxV, v)
	}

	span := maxV - minV
	for i, v := range values {
		if span == 0 {
			out[i] = lo
			continue
		}
		out[i] = label.Clamp(lo+(v-minV)/span*(hi-lo), lo, hi)
	}
	return out
}
