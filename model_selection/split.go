// Package model_selection provides dataset splitting utilities: a
// train/test splitter and (stratified) k-fold generators.
//
// Dynamic selection needs three partitions: one to train the pool, the DSEL
// partition to estimate competence on, and a held-out test partition.
// TrainTestSplit applied twice produces them.
package model_selection

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/pkg/errors"
)

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitConfig)

type splitConfig struct {
	testSize float64
	seed     int64
	shuffle  bool
	stratify bool
}

// WithTestSize sets the fraction of samples placed in the test partition.
// Must be in (0, 1). Default 0.25.
func WithTestSize(fraction float64) SplitOption {
	return func(c *splitConfig) { c.testSize = fraction }
}

// WithSplitSeed fixes the shuffling seed for reproducible splits.
func WithSplitSeed(seed int64) SplitOption {
	return func(c *splitConfig) { c.seed = seed }
}

// WithShuffle controls whether samples are shuffled before splitting.
// Default true.
func WithShuffle(shuffle bool) SplitOption {
	return func(c *splitConfig) { c.shuffle = shuffle }
}

// WithStratify preserves the per-class proportions of y in both partitions.
func WithStratify(stratify bool) SplitOption {
	return func(c *splitConfig) { c.stratify = stratify }
}

// TrainTestSplit splits X and y into train and test partitions.
func TrainTestSplit(X, y mat.Matrix, opts ...SplitOption) (XTrain, XTest, yTrain, yTest *mat.Dense, err error) {
	cfg := &splitConfig{
		testSize: 0.25,
		seed:     -1,
		shuffle:  true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples != yRows {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "y must be a column vector (n×1 matrix)")
	}
	if cfg.testSize <= 0 || cfg.testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", cfg.testSize)
	}

	nTest := int(float64(nSamples) * cfg.testSize)
	if nTest < 1 || nTest >= nSamples {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit", "test partition would be empty; need more samples")
	}

	var testIdx, trainIdx []int
	if cfg.stratify {
		testIdx, trainIdx = stratifiedIndices(y, nSamples, nTest, cfg)
	} else {
		indices := permutation(nSamples, cfg)
		testIdx = indices[:nTest]
		trainIdx = indices[nTest:]
	}

	XTrain, yTrain = takeRows(X, y, nFeatures, trainIdx)
	XTest, yTest = takeRows(X, y, nFeatures, testIdx)
	return XTrain, XTest, yTrain, yTest, nil
}

func newRand(cfg *splitConfig) *rand.Rand {
	seed := cfg.seed
	if seed < 0 {
		seed = rand.Int64()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}

func permutation(n int, cfg *splitConfig) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if cfg.shuffle {
		r := newRand(cfg)
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}
	return indices
}

// stratifiedIndices draws a proportional number of test samples from every
// class. Rounding leftovers are taken from the largest classes first.
func stratifiedIndices(y mat.Matrix, nSamples, nTest int, cfg *splitConfig) (testIdx, trainIdx []int) {
	classIndices := make(map[float64][]int)
	var labels []float64
	for i := 0; i < nSamples; i++ {
		label := y.At(i, 0)
		if _, ok := classIndices[label]; !ok {
			labels = append(labels, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}
	sort.Float64s(labels)

	r := newRand(cfg)
	if cfg.shuffle {
		for _, label := range labels {
			idx := classIndices[label]
			r.Shuffle(len(idx), func(i, j int) {
				idx[i], idx[j] = idx[j], idx[i]
			})
		}
	}

	testFraction := float64(nTest) / float64(nSamples)
	taken := 0
	perClass := make(map[float64]int, len(labels))
	for _, label := range labels {
		count := int(float64(len(classIndices[label])) * testFraction)
		perClass[label] = count
		taken += count
	}
	// Distribute the rounding remainder across the largest classes.
	order := append([]float64(nil), labels...)
	sort.Slice(order, func(i, j int) bool {
		return len(classIndices[order[i]]) > len(classIndices[order[j]])
	})
	for i := 0; taken < nTest && i < len(order); i++ {
		label := order[i]
		if perClass[label] < len(classIndices[label])-1 {
			perClass[label]++
			taken++
		}
	}

	for _, label := range labels {
		idx := classIndices[label]
		n := perClass[label]
		testIdx = append(testIdx, idx[:n]...)
		trainIdx = append(trainIdx, idx[n:]...)
	}
	return testIdx, trainIdx
}

func takeRows(X, y mat.Matrix, nFeatures int, indices []int) (*mat.Dense, *mat.Dense) {
	xOut := mat.NewDense(len(indices), nFeatures, nil)
	yOut := mat.NewDense(len(indices), 1, nil)
	for row, idx := range indices {
		for j := 0; j < nFeatures; j++ {
			xOut.Set(row, j, X.At(idx, j))
		}
		yOut.Set(row, 0, y.At(idx, 0))
	}
	return xOut, yOut
}
