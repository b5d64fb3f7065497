package trainer

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"github.com/estensen/wallet-credit-score/internal/config"
	"github.com/estensen/wallet-credit-score/internal/forest"
	"github.com/estensen/wallet-credit-score/internal/models"
)

var ErrInsufficientData = errors.New("need at least two wallets to train")

// Result is a fitted model together with its diagnostic fit scores.
type Result struct {
	Model     *forest.Forest
	TrainR2   float64
	TestR2    float64
	TrainRows int
	TestRows  int
}

type Trainer struct {
	Config config.ModelConfig
}

func NewTrainer(cfg config.ModelConfig) *Trainer {
	return &Trainer{Config: cfg}
}

// Train fits a forest on a seeded split of the wallets and reports R² on
// both partitions. The scores are informational only.
func (t *Trainer) Train(features []models.WalletFeatures) (*Result, error) {
	x := Matrix(features)
	y := Targets(features)

	trainIdx, testIdx, err := Split(len(features), t.Config.TestSize, t.Config.RandomSeed)
	if err != nil {
		return nil, err
	}

	xTrain, yTrain := subset(x, y, trainIdx)
	xTest, yTest := subset(x, y, testIdx)

	model, err := forest.Fit(xTrain, yTrain, models.FeatureNames, forest.Params{
		NEstimators:     t.Config.NEstimators,
		MinSamplesSplit: t.Config.MinSamplesSplit,
		MinSamplesLeaf:  t.Config.MinSamplesLeaf,
		MaxDepth:        t.Config.MaxDepth,
		Seed:            t.Config.RandomSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("error fitting model: %w", err)
	}

	result := &Result{
		Model:     model,
		TrainR2:   RSquared(model.PredictAll(xTrain), yTrain),
		TestR2:    RSquared(model.PredictAll(xTest), yTest),
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
	}

	log.Info().
		Int("train_rows", result.TrainRows).
		Int("test_rows", result.TestRows).
		Int("trees", len(model.Trees)).
		Msg("Model trained")
	return result, nil
}

// Matrix returns the model input rows in FeatureNames column order.
func Matrix(features []models.WalletFeatures) [][]float64 {
	x := make([][]float64, len(features))
	for i, f := range features {
		x[i] = f.Vector()
	}
	return x
}

func Targets(features []models.WalletFeatures) []float64 {
	y := make([]float64, len(features))
	for i, f := range features {
		y[i] = f.TrueScore
	}
	return y
}

// Split shuffles row indices with a seeded PRNG and holds out
// ceil(testSize*n) of them for testing.
func Split(n int, testSize float64, seed uint64) (train, test []int, err error) {
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, fmt.Errorf("%w: got %d", ErrInsufficientData, n)
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

func subset(x [][]float64, y []float64, idx []int) ([][]float64, []float64) {
	xs := make([][]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}

// RSquared is the coefficient of determination of predicted against actual.
// It is NaN for fewer than two samples. When actual is constant the result
// is 1 for a perfect fit and 0 otherwise.
func RSquared(predicted, actual []float64) float64 {
	if len(actual) < 2 || len(predicted) != len(actual) {
		return math.NaN()
	}

	if stat.Variance(actual, nil) == 0 {
		for i := range actual {
			if predicted[i] != actual[i] {
				return 0
			}
		}
		return 1
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}
