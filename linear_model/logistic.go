package linear_model

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// LogisticRegression implements L2-regularized logistic regression trained
// by full-batch gradient descent, one-vs-rest for more than two classes.
// Its calibrated probabilities make it a useful pool member for competence
// estimators that read posteriors.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c            float64 // inverse regularization strength
	fitIntercept bool
	maxIter      int
	tol          float64
	randomState  int64

	// Model parameters. For two classes a single weight vector separates
	// classes_[1] from classes_[0]; otherwise one vector per class.
	coef_      [][]float64
	intercept_ []float64
	classes_   []int
	nClasses_  int
	nFeatures_ int
	nIter_     int

	rand *rand.Rand
}

// LogisticRegressionOption is a functional option for LogisticRegression.
type LogisticRegressionOption func(*LogisticRegression)

// WithLogisticC sets the inverse regularization strength. Default 1.0.
func WithLogisticC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.c = c }
}

// WithLogisticFitIntercept controls the intercept term. Default true.
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.fitIntercept = fit }
}

// WithLogisticMaxIter sets the gradient-descent iteration cap. Default 100.
func WithLogisticMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.maxIter = maxIter }
}

// WithLogisticTol sets the gradient-norm stopping tolerance. Default 1e-4.
func WithLogisticTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.tol = tol }
}

// WithLogisticRandomState fixes the weight-initialization seed.
func WithLogisticRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) { lr.randomState = seed }
}

// NewLogisticRegression creates a new LogisticRegression classifier.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		fitIntercept: true,
		maxIter:      100,
		tol:          1e-4,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}

	if lr.randomState >= 0 {
		lr.rand = rand.New(rand.NewPCG(uint64(lr.randomState), uint64(lr.randomState)))
	} else {
		lr.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return lr
}

// Fit trains the model. Hitting maxIter before the gradient norm drops
// below tol raises a ConvergenceWarning, not an error.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector (n×1 matrix)")
	}
	if lr.c <= 0 {
		return errors.NewValidationError("C", "must be positive", lr.c)
	}

	classSet := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		classSet[int(y.At(i, 0))] = true
	}
	lr.classes_ = make([]int, 0, len(classSet))
	for class := range classSet {
		lr.classes_ = append(lr.classes_, class)
	}
	sort.Ints(lr.classes_)
	lr.nClasses_ = len(lr.classes_)
	if lr.nClasses_ < 2 {
		return errors.NewValueError("LogisticRegression.Fit", "need at least 2 classes")
	}
	lr.nFeatures_ = nFeatures

	nVectors := lr.nClasses_
	if lr.nClasses_ == 2 {
		nVectors = 1
	}
	lr.coef_ = make([][]float64, nVectors)
	lr.intercept_ = make([]float64, nVectors)
	for v := range lr.coef_ {
		lr.coef_[v] = make([]float64, nFeatures)
		for j := range lr.coef_[v] {
			lr.coef_[v][j] = lr.rand.NormFloat64() * 0.01
		}
	}

	converged := true
	if lr.nClasses_ == 2 {
		converged = lr.descend(X, binaryTargets(y, lr.classes_[1]), 0)
	} else {
		for v, class := range lr.classes_ {
			if !lr.descend(X, binaryTargets(y, class), v) {
				converged = false
			}
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.maxIter,
			"gradient descent did not reach tol; consider increasing maxIter"))
	}

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

// binaryTargets maps y to 1 for positive and 0 for every other label.
func binaryTargets(y mat.Matrix, positive int) []float64 {
	nSamples, _ := y.Dims()
	targets := make([]float64, nSamples)
	for i := 0; i < nSamples; i++ {
		if int(y.At(i, 0)) == positive {
			targets[i] = 1
		}
	}
	return targets
}

// descend runs gradient descent for weight vector v against the 0/1
// targets and reports whether the gradient norm reached tol.
func (lr *LogisticRegression) descend(X mat.Matrix, targets []float64, v int) bool {
	nSamples, nFeatures := X.Dims()
	weights := lr.coef_[v]
	lambda := 1.0 / lr.c

	gradWeights := make([]float64, nFeatures)
	for iter := 0; iter < lr.maxIter; iter++ {
		for j := range gradWeights {
			gradWeights[j] = 0
		}
		gradIntercept := 0.0

		for i := 0; i < nSamples; i++ {
			z := lr.intercept_[v]
			for j := 0; j < nFeatures; j++ {
				z += X.At(i, j) * weights[j]
			}
			residual := sigmoid(z) - targets[i]
			gradIntercept += residual
			for j := 0; j < nFeatures; j++ {
				gradWeights[j] += residual * X.At(i, j)
			}
		}

		maxGrad := math.Abs(gradIntercept) / float64(nSamples)
		for j := range gradWeights {
			gradWeights[j] = gradWeights[j]/float64(nSamples) + lambda*weights[j]/float64(nSamples)
			if g := math.Abs(gradWeights[j]); g > maxGrad {
				maxGrad = g
			}
		}
		gradIntercept /= float64(nSamples)

		// Decaying step size keeps full-batch updates stable without a
		// line search.
		step := 1.0 / (1.0 + 0.1*float64(iter))
		for j := range weights {
			weights[j] -= step * gradWeights[j]
		}
		if lr.fitIntercept {
			lr.intercept_[v] -= step * gradIntercept
		}

		lr.nIter_ = iter + 1
		if maxGrad < lr.tol {
			return true
		}
	}
	return false
}

// decision returns the raw score of each weight vector for one sample.
func (lr *LogisticRegression) decision(X mat.Matrix, i int) []float64 {
	scores := make([]float64, len(lr.coef_))
	for v := range lr.coef_ {
		z := lr.intercept_[v]
		for j := 0; j < lr.nFeatures_; j++ {
			z += X.At(i, j) * lr.coef_[v][j]
		}
		scores[v] = z
	}
	return scores
}

// Predict returns the most probable class for each sample.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := proba.Dims()
	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		best := 0
		for c := 1; c < lr.nClasses_; c++ {
			if proba.At(i, c) > proba.At(i, best) {
				best = c
			}
		}
		predictions.Set(i, 0, float64(lr.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns class probabilities: the sigmoid pair for binary
// problems, softmax over the one-vs-rest scores otherwise.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "PredictProba")
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != lr.nFeatures_ {
		return nil, errors.NewDimensionError("LogisticRegression.PredictProba", lr.nFeatures_, nFeatures, 1)
	}

	proba := mat.NewDense(nSamples, lr.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		scores := lr.decision(X, i)
		if lr.nClasses_ == 2 {
			p1 := sigmoid(scores[0])
			proba.Set(i, 0, 1-p1)
			proba.Set(i, 1, p1)
			continue
		}

		maxScore := scores[0]
		for _, s := range scores[1:] {
			if s > maxScore {
				maxScore = s
			}
		}
		sum := 0.0
		for c, s := range scores {
			scores[c] = math.Exp(s - maxScore)
			sum += scores[c]
		}
		for c := range scores {
			proba.Set(i, c, scores[c]/sum)
		}
	}
	return proba, nil
}

// Score returns the mean accuracy on X against y.
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels seen during fitting.
func (lr *LogisticRegression) Classes() []int { return lr.classes_ }

// NIter returns the iteration count of the last fitted weight vector.
func (lr *LogisticRegression) NIter() int { return lr.nIter_ }

// IsFitted reports whether Fit completed.
func (lr *LogisticRegression) IsFitted() bool { return lr.state.IsFitted() }

// GetParams returns the hyperparameters.
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.c,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"random_state":  lr.randomState,
	}
}

// sigmoid computes the logistic function.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
