// Package ensemble provides pool builders for dynamic selection: a random
// forest and a generic bagging ensemble. Both expose their members through
// Estimators(), which is the pool handed to the ds methods.
package ensemble

import (
	"log/slog"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/core/parallel"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
	"github.com/mathematixy/deslib/pkg/log"
	"github.com/mathematixy/deslib/tree"
)

// RandomForestClassifier trains a pool of decision trees on bootstrap
// samples with random feature subsampling, compatible with scikit-learn's
// RandomForestClassifier.
type RandomForestClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nEstimators int
	maxDepth    int
	criterion   string
	maxFeatures string
	bootstrap   bool
	randomState int64

	// Fitted state
	estimators []model.Classifier
	classes_   []int
	nFeatures_ int
}

// RandomForestOption is a functional option for RandomForestClassifier.
type RandomForestOption func(*RandomForestClassifier)

// WithForestNEstimators sets the number of trees. Default 100.
func WithForestNEstimators(n int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.nEstimators = n }
}

// WithForestMaxDepth limits the depth of each tree. 0 means unlimited.
func WithForestMaxDepth(depth int) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.maxDepth = depth }
}

// WithForestCriterion sets the split criterion for each tree.
func WithForestCriterion(criterion string) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.criterion = criterion }
}

// WithForestMaxFeatures sets per-split feature subsampling ("sqrt", "log2",
// "all"). Default "sqrt".
func WithForestMaxFeatures(mode string) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.maxFeatures = mode }
}

// WithForestBootstrap toggles bootstrap resampling. Default true.
func WithForestBootstrap(bootstrap bool) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.bootstrap = bootstrap }
}

// WithForestRandomState fixes the seed for reproducible forests.
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForestClassifier) { rf.randomState = seed }
}

// NewRandomForestClassifier creates a new RandomForestClassifier.
func NewRandomForestClassifier(opts ...RandomForestOption) *RandomForestClassifier {
	rf := &RandomForestClassifier{
		state:       model.NewStateManager(),
		nEstimators: 100,
		maxDepth:    0,
		criterion:   "gini",
		maxFeatures: "sqrt",
		bootstrap:   true,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(rf)
	}
	return rf
}

// Fit trains all trees, in parallel across CPU cores.
func (rf *RandomForestClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("RandomForestClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("RandomForestClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("RandomForestClassifier.Fit", "y must be a column vector (n×1 matrix)")
	}
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be at least 1", rf.nEstimators)
	}

	rf.classes_ = extractClasses(y, nSamples)
	rf.nFeatures_ = nFeatures

	baseSeed := rf.randomState
	if baseSeed < 0 {
		baseSeed = int64(rand.Uint64() >> 1)
	}

	rf.estimators = make([]model.Classifier, rf.nEstimators)
	errs := make([]error, rf.nEstimators)

	parallel.Parallelize(rf.nEstimators, func(start, end int) {
		for i := start; i < end; i++ {
			seed := baseSeed + int64(i)
			dt := tree.NewDecisionTreeClassifier(
				tree.WithCriterion(rf.criterion),
				tree.WithMaxDepth(rf.maxDepth),
				tree.WithMaxFeatures(rf.maxFeatures),
				tree.WithTreeRandomState(seed),
			)

			XFit, yFit := X, y
			if rf.bootstrap {
				XFit, yFit = bootstrapSample(X, y, nSamples, nFeatures, seed)
			}
			if err := dt.Fit(XFit, yFit); err != nil {
				errs[i] = errors.Wrapf(err, "estimator %d", i)
				continue
			}
			rf.estimators[i] = dt
		}
	})

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	rf.state.SetDimensions(nFeatures, nSamples)
	rf.state.SetFitted()

	slog.Debug("random forest trained",
		log.ModelNameKey, "RandomForestClassifier",
		log.OperationKey, "fit",
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.PoolSizeKey, rf.nEstimators,
	)
	return nil
}

// Predict returns the soft-voting (mean probability) label for each sample.
func (rf *RandomForestClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := rf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return argmaxLabels(proba, rf.classes_), nil
}

// PredictProba averages the probability estimates of all trees.
func (rf *RandomForestClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !rf.state.IsFitted() {
		return nil, errors.NewNotFittedError("RandomForestClassifier", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != rf.nFeatures_ {
		return nil, errors.NewDimensionError("RandomForestClassifier.PredictProba", rf.nFeatures_, nFeatures, 1)
	}
	return aggregateProba(rf.estimators, X, nSamples, rf.classes_)
}

// Score returns the mean accuracy on X against y.
func (rf *RandomForestClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := rf.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels seen during fitting.
func (rf *RandomForestClassifier) Classes() []int {
	return rf.classes_
}

// Estimators returns the trained pool. The slice is the forest's own; do not
// mutate it.
func (rf *RandomForestClassifier) Estimators() []model.Classifier {
	return rf.estimators
}

// IsFitted reports whether Fit completed.
func (rf *RandomForestClassifier) IsFitted() bool {
	return rf.state.IsFitted()
}

// GetParams returns the hyperparameters.
func (rf *RandomForestClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators": rf.nEstimators,
		"max_depth":    rf.maxDepth,
		"criterion":    rf.criterion,
		"max_features": rf.maxFeatures,
		"bootstrap":    rf.bootstrap,
	}
}

// extractClasses returns the sorted unique labels of y.
func extractClasses(y mat.Matrix, nSamples int) []int {
	seen := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	classes := make([]int, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}

// bootstrapSample draws nSamples rows with replacement.
func bootstrapSample(X, y mat.Matrix, nSamples, nFeatures int, seed int64) (*mat.Dense, *mat.Dense) {
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b9))
	XBoot := mat.NewDense(nSamples, nFeatures, nil)
	yBoot := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		idx := r.IntN(nSamples)
		for j := 0; j < nFeatures; j++ {
			XBoot.Set(i, j, X.At(idx, j))
		}
		yBoot.Set(i, 0, y.At(idx, 0))
	}
	return XBoot, yBoot
}

// aggregateProba averages member probabilities, aligning each member's class
// columns with the ensemble's label universe. Bootstrap resampling can leave
// individual members unaware of rare classes.
func aggregateProba(pool []model.Classifier, X mat.Matrix, nSamples int, classes []int) (*mat.Dense, error) {
	columnOf := make(map[int]int, len(classes))
	for i, class := range classes {
		columnOf[class] = i
	}

	sum := mat.NewDense(nSamples, len(classes), nil)
	for _, member := range pool {
		proba, err := member.PredictProba(X)
		if err != nil {
			return nil, err
		}
		memberClasses := member.Classes()
		for i := 0; i < nSamples; i++ {
			for c, class := range memberClasses {
				col := columnOf[class]
				sum.Set(i, col, sum.At(i, col)+proba.At(i, c))
			}
		}
	}

	scale := 1.0 / float64(len(pool))
	sum.Scale(scale, sum)
	return sum, nil
}

// argmaxLabels converts a probability matrix into a label column.
func argmaxLabels(proba mat.Matrix, classes []int) *mat.Dense {
	nSamples, nClasses := proba.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < nClasses; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, float64(classes[best]))
	}
	return predictions
}
