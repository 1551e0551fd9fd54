package ensemble

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/core/parallel"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// BaggingClassifier trains copies of an arbitrary base classifier on
// bootstrap samples. This is the classical way to build heterogeneous or
// linear pools for dynamic selection (e.g. bagged perceptrons).
type BaggingClassifier struct {
	state *model.StateManager

	newBase     func() model.Classifier
	nEstimators int
	maxSamples  float64 // fraction of the training set per bag
	randomState int64

	estimators []model.Classifier
	classes_   []int
	nFeatures_ int
}

// BaggingOption is a functional option for BaggingClassifier.
type BaggingOption func(*BaggingClassifier)

// WithBaggingNEstimators sets the number of bagged members. Default 10.
func WithBaggingNEstimators(n int) BaggingOption {
	return func(b *BaggingClassifier) { b.nEstimators = n }
}

// WithBaggingMaxSamples sets the bag size as a fraction of the training
// set, in (0, 1]. Default 1.0.
func WithBaggingMaxSamples(fraction float64) BaggingOption {
	return func(b *BaggingClassifier) { b.maxSamples = fraction }
}

// WithBaggingRandomState fixes the resampling seed.
func WithBaggingRandomState(seed int64) BaggingOption {
	return func(b *BaggingClassifier) { b.randomState = seed }
}

// NewBaggingClassifier creates a BaggingClassifier whose members are built
// by newBase.
func NewBaggingClassifier(newBase func() model.Classifier, opts ...BaggingOption) *BaggingClassifier {
	b := &BaggingClassifier{
		state:       model.NewStateManager(),
		newBase:     newBase,
		nEstimators: 10,
		maxSamples:  1.0,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Fit trains all bagged members in parallel.
func (b *BaggingClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("BaggingClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("BaggingClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("BaggingClassifier.Fit", "y must be a column vector (n×1 matrix)")
	}
	if b.newBase == nil {
		return errors.NewValidationError("newBase", "base classifier factory must not be nil", nil)
	}
	if b.maxSamples <= 0 || b.maxSamples > 1 {
		return errors.NewValidationError("max_samples", "must be in (0, 1]", b.maxSamples)
	}

	b.classes_ = extractClasses(y, nSamples)
	b.nFeatures_ = nFeatures

	bagSize := int(float64(nSamples) * b.maxSamples)
	if bagSize < 1 {
		bagSize = 1
	}

	baseSeed := b.randomState
	if baseSeed < 0 {
		baseSeed = int64(rand.Uint64() >> 1)
	}

	b.estimators = make([]model.Classifier, b.nEstimators)
	errs := make([]error, b.nEstimators)

	parallel.Parallelize(b.nEstimators, func(start, end int) {
		for i := start; i < end; i++ {
			seed := baseSeed + int64(i)
			r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b9))

			XBag := mat.NewDense(bagSize, nFeatures, nil)
			yBag := mat.NewDense(bagSize, 1, nil)
			for s := 0; s < bagSize; s++ {
				idx := r.IntN(nSamples)
				for j := 0; j < nFeatures; j++ {
					XBag.Set(s, j, X.At(idx, j))
				}
				yBag.Set(s, 0, y.At(idx, 0))
			}

			member := b.newBase()
			if err := member.Fit(XBag, yBag); err != nil {
				errs[i] = errors.Wrapf(err, "estimator %d", i)
				continue
			}
			b.estimators[i] = member
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	b.state.SetDimensions(nFeatures, nSamples)
	b.state.SetFitted()
	return nil
}

// Predict returns the soft-voting label for each sample.
func (b *BaggingClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := b.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxLabels(proba, b.classes_), nil
}

// PredictProba averages the probability estimates of all members.
func (b *BaggingClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !b.state.IsFitted() {
		return nil, errors.NewNotFittedError("BaggingClassifier", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != b.nFeatures_ {
		return nil, errors.NewDimensionError("BaggingClassifier.PredictProba", b.nFeatures_, nFeatures, 1)
	}
	return aggregateProba(b.estimators, X, nSamples, b.classes_)
}

// Score returns the mean accuracy on X against y.
func (b *BaggingClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := b.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels seen during fitting.
func (b *BaggingClassifier) Classes() []int {
	return b.classes_
}

// Estimators returns the trained pool.
func (b *BaggingClassifier) Estimators() []model.Classifier {
	return b.estimators
}

// IsFitted reports whether Fit completed.
func (b *BaggingClassifier) IsFitted() bool {
	return b.state.IsFitted()
}
