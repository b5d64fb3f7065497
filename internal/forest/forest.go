// Package forest implements a random forest regressor: bagged CART trees
// grown on the squared-error criterion, averaged at prediction time.
package forest

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	ErrEmptyTrainingSet = errors.New("empty training set")
	ErrShapeMismatch    = errors.New("feature matrix and target length differ")
	ErrInvalidParams    = errors.New("invalid forest parameters")
)

type Params struct {
	NEstimators     int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxDepth        int // 0 means unlimited
	Seed            uint64
}

// Forest is a fitted model. It is immutable once Fit returns.
type Forest struct {
	NFeatures    int
	FeatureNames []string
	Trees        []Tree
}

// Fit grows params.NEstimators trees, each on a bootstrap sample of the rows.
// The same inputs and seed always produce the same forest.
func Fit(x [][]float64, y []float64, featureNames []string, params Params) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d rows, %d targets", ErrShapeMismatch, len(x), len(y))
	}
	if params.NEstimators < 1 || params.MinSamplesSplit < 2 || params.MinSamplesLeaf < 1 || params.MaxDepth < 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidParams, params)
	}

	nFeatures := len(x[0])
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("%w: row %d has %d features, want %d", ErrShapeMismatch, i, len(row), nFeatures)
		}
	}

	f := &Forest{
		NFeatures:    nFeatures,
		FeatureNames: featureNames,
		Trees:        make([]Tree, 0, params.NEstimators),
	}

	n := len(x)
	for t := 0; t < params.NEstimators; t++ {
		rng := rand.New(rand.NewPCG(params.Seed, uint64(t)))
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.IntN(n)
		}
		f.Trees = append(f.Trees, buildTree(x, y, sample, params))
	}
	return f, nil
}

// Predict returns the mean of the tree predictions for one row.
func (f *Forest) Predict(row []float64) float64 {
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].Predict(row)
	}
	return sum / float64(len(f.Trees))
}

func (f *Forest) PredictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i, row := range x {
		out[i] = f.Predict(row)
	}
	return out
}
