// Package linear_model provides linear classifiers. The Perceptron is the
// classical base learner for bagged dynamic-selection pools: cheap to train,
// individually weak, diverse across bootstrap samples.
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

// Perceptron implements the multiclass perceptron with one weight vector per
// class, compatible with scikit-learn's Perceptron.
type Perceptron struct {
	state *model.StateManager

	// Hyperparameters
	maxIter     int
	eta0        float64 // learning rate
	shuffle     bool
	randomState int64

	// Model parameters
	coef_      [][]float64 // (n_classes x n_features)
	intercept_ []float64
	classes_   []int
	nClasses_  int
	nFeatures_ int
	nIter_     int

	rand *rand.Rand
}

// PerceptronOption is a functional option for Perceptron.
type PerceptronOption func(*Perceptron)

// WithPerceptronMaxIter sets the maximum number of epochs. Default 100.
func WithPerceptronMaxIter(maxIter int) PerceptronOption {
	return func(p *Perceptron) { p.maxIter = maxIter }
}

// WithPerceptronEta0 sets the learning rate. Default 1.0.
func WithPerceptronEta0(eta float64) PerceptronOption {
	return func(p *Perceptron) { p.eta0 = eta }
}

// WithPerceptronShuffle controls per-epoch sample shuffling. Default true.
func WithPerceptronShuffle(shuffle bool) PerceptronOption {
	return func(p *Perceptron) { p.shuffle = shuffle }
}

// WithPerceptronRandomState fixes the shuffling seed.
func WithPerceptronRandomState(seed int64) PerceptronOption {
	return func(p *Perceptron) { p.randomState = seed }
}

// NewPerceptron creates a new Perceptron classifier.
func NewPerceptron(opts ...PerceptronOption) *Perceptron {
	p := &Perceptron{
		state:       model.NewStateManager(),
		maxIter:     100,
		eta0:        1.0,
		shuffle:     true,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.randomState >= 0 {
		p.rand = rand.New(rand.NewPCG(uint64(p.randomState), uint64(p.randomState)))
	} else {
		p.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return p
}

// Fit trains the perceptron with online updates until an epoch makes no
// mistakes or maxIter epochs elapse. Non-convergence raises a
// ConvergenceWarning, not an error.
func (p *Perceptron) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("Perceptron.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("Perceptron.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("Perceptron.Fit", "y must be a column vector (n×1 matrix)")
	}

	p.extractClasses(y, nSamples)
	p.nFeatures_ = nFeatures

	p.coef_ = make([][]float64, p.nClasses_)
	for i := range p.coef_ {
		p.coef_[i] = make([]float64, nFeatures)
	}
	p.intercept_ = make([]float64, p.nClasses_)

	classIdx := make(map[int]int, p.nClasses_)
	for i, class := range p.classes_ {
		classIdx[class] = i
	}

	rows := make([][]float64, nSamples)
	targets := make([]int, nSamples)
	for i := 0; i < nSamples; i++ {
		rows[i] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			rows[i][j] = X.At(i, j)
		}
		targets[i] = classIdx[int(y.At(i, 0))]
	}

	order := make([]int, nSamples)
	for i := range order {
		order[i] = i
	}

	converged := false
	for epoch := 0; epoch < p.maxIter; epoch++ {
		if p.shuffle {
			p.rand.Shuffle(nSamples, func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}

		mistakes := 0
		for _, idx := range order {
			predicted := p.argmaxScore(rows[idx])
			target := targets[idx]
			if predicted != target {
				mistakes++
				for j := 0; j < nFeatures; j++ {
					p.coef_[target][j] += p.eta0 * rows[idx][j]
					p.coef_[predicted][j] -= p.eta0 * rows[idx][j]
				}
				p.intercept_[target] += p.eta0
				p.intercept_[predicted] -= p.eta0
			}
		}

		p.nIter_ = epoch + 1
		if mistakes == 0 {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("Perceptron", p.nIter_, ""))
	}

	p.state.SetDimensions(nFeatures, nSamples)
	p.state.SetFitted()
	return nil
}

func (p *Perceptron) extractClasses(y mat.Matrix, nSamples int) {
	seen := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		seen[int(y.At(i, 0))] = true
	}
	p.classes_ = make([]int, 0, len(seen))
	for class := range seen {
		p.classes_ = append(p.classes_, class)
	}
	sort.Ints(p.classes_)
	p.nClasses_ = len(p.classes_)
}

func (p *Perceptron) argmaxScore(row []float64) int {
	best := 0
	bestScore := math.Inf(-1)
	for c := 0; c < p.nClasses_; c++ {
		score := p.intercept_[c]
		for j, v := range row {
			score += p.coef_[c][j] * v
		}
		if score > bestScore {
			bestScore = score
			best = c
		}
	}
	return best
}

// Predict returns the highest-scoring class for each sample.
func (p *Perceptron) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Perceptron", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != p.nFeatures_ {
		return nil, errors.NewDimensionError("Perceptron.Predict", p.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}
		predictions.Set(i, 0, float64(p.classes_[p.argmaxScore(row)]))
	}
	return predictions, nil
}

// PredictProba returns the softmax of the decision scores. The perceptron
// has no probabilistic model; these are pseudo-probabilities suitable for
// soft voting and output profiles.
func (p *Perceptron) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Perceptron", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != p.nFeatures_ {
		return nil, errors.NewDimensionError("Perceptron.PredictProba", p.nFeatures_, nFeatures, 1)
	}

	proba := mat.NewDense(nSamples, p.nClasses_, nil)
	row := make([]float64, nFeatures)
	scores := make([]float64, p.nClasses_)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}

		maxScore := math.Inf(-1)
		for c := 0; c < p.nClasses_; c++ {
			scores[c] = p.intercept_[c]
			for j, v := range row {
				scores[c] += p.coef_[c][j] * v
			}
			if scores[c] > maxScore {
				maxScore = scores[c]
			}
		}

		sum := 0.0
		for c := 0; c < p.nClasses_; c++ {
			scores[c] = math.Exp(scores[c] - maxScore)
			sum += scores[c]
		}
		for c := 0; c < p.nClasses_; c++ {
			proba.Set(i, c, scores[c]/sum)
		}
	}
	return proba, nil
}

// Score returns the mean accuracy on X against y.
func (p *Perceptron) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels seen during fitting.
func (p *Perceptron) Classes() []int {
	return p.classes_
}

// NIter returns the number of epochs actually run.
func (p *Perceptron) NIter() int {
	return p.nIter_
}

// IsFitted reports whether Fit completed.
func (p *Perceptron) IsFitted() bool {
	return p.state.IsFitted()
}
