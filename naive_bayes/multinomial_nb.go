// Package naive_bayes implements the multinomial naive Bayes classifier.
// It is the default meta-classifier for META-DES: the meta-features are
// nonnegative (hit counts, probabilities), which is exactly the regime the
// multinomial likelihood models.
package naive_bayes

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// MultinomialNB implements naive Bayes for multinomially distributed data,
// compatible with scikit-learn's MultinomialNB. Supports incremental
// training through PartialFit.
type MultinomialNB struct {
	state *model.StateManager

	// Hyperparameters
	alpha    float64 // additive (Laplace/Lidstone) smoothing
	fitPrior bool    // learn class priors from data; false means uniform

	// Sufficient statistics
	classCount_   []float64   // samples per class
	featureCount_ [][]float64 // (n_classes x n_features) summed feature values
	classes_      []int
	nClasses_     int
	nFeatures_    int
	nSamplesSeen_ int
}

// MultinomialNBOption is a functional option for MultinomialNB.
type MultinomialNBOption func(*MultinomialNB)

// WithAlpha sets the additive smoothing parameter. Default 1.0.
func WithAlpha(alpha float64) MultinomialNBOption {
	return func(nb *MultinomialNB) { nb.alpha = alpha }
}

// WithFitPrior controls whether class priors are learned from the data.
// When false a uniform prior is used. Default true.
func WithFitPrior(fitPrior bool) MultinomialNBOption {
	return func(nb *MultinomialNB) { nb.fitPrior = fitPrior }
}

// NewMultinomialNB creates a new MultinomialNB classifier.
func NewMultinomialNB(opts ...MultinomialNBOption) *MultinomialNB {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    1.0,
		fitPrior: true,
	}
	for _, opt := range opts {
		opt(nb)
	}
	// alpha=0 leads to log(0) on unseen features; clamp like scikit-learn.
	if nb.alpha < 1e-10 {
		nb.alpha = 1e-10
	}
	return nb
}

// Fit trains the classifier from scratch on X and y.
func (nb *MultinomialNB) Fit(X, y mat.Matrix) error {
	nSamples, _ := X.Dims()
	if nSamples == 0 {
		return errors.NewModelError("MultinomialNB.Fit", "empty data", errors.ErrEmptyData)
	}

	classes := make(map[int]bool)
	for i := 0; i < nSamples; i++ {
		classes[int(y.At(i, 0))] = true
	}
	sorted := make([]int, 0, len(classes))
	for class := range classes {
		sorted = append(sorted, class)
	}
	sort.Ints(sorted)

	nb.reset()
	return nb.PartialFit(X, y, sorted)
}

// PartialFit updates the sufficient statistics with one batch. The full
// class list must be supplied on the first call; later calls may pass nil.
func (nb *MultinomialNB) PartialFit(X, y mat.Matrix, classes []int) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()

	if nSamples == 0 {
		return errors.NewModelError("MultinomialNB.PartialFit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("MultinomialNB.PartialFit", "y must be a column vector (n×1 matrix)")
	}

	if nb.classes_ == nil {
		if classes == nil {
			return errors.NewValidationError("classes", "must be provided on the first PartialFit call", nil)
		}
		nb.classes_ = append([]int(nil), classes...)
		sort.Ints(nb.classes_)
		nb.nClasses_ = len(nb.classes_)
		nb.nFeatures_ = nFeatures
		nb.classCount_ = make([]float64, nb.nClasses_)
		nb.featureCount_ = make([][]float64, nb.nClasses_)
		for c := range nb.featureCount_ {
			nb.featureCount_[c] = make([]float64, nFeatures)
		}
	} else if nFeatures != nb.nFeatures_ {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nb.nFeatures_, nFeatures, 1)
	}

	classIdx := make(map[int]int, nb.nClasses_)
	for i, class := range nb.classes_ {
		classIdx[class] = i
	}

	for i := 0; i < nSamples; i++ {
		label := int(y.At(i, 0))
		c, ok := classIdx[label]
		if !ok {
			return errors.NewValueError("MultinomialNB.PartialFit", "label outside the declared class list")
		}
		nb.classCount_[c]++
		for j := 0; j < nFeatures; j++ {
			v := X.At(i, j)
			if v < 0 {
				return errors.NewValueError("MultinomialNB.PartialFit", "multinomial NB requires nonnegative features")
			}
			nb.featureCount_[c][j] += v
		}
	}
	nb.nSamplesSeen_ += nSamples

	nb.state.SetDimensions(nFeatures, nb.nSamplesSeen_)
	nb.state.SetFitted()
	return nil
}

func (nb *MultinomialNB) reset() {
	nb.classes_ = nil
	nb.nClasses_ = 0
	nb.nFeatures_ = 0
	nb.classCount_ = nil
	nb.featureCount_ = nil
	nb.nSamplesSeen_ = 0
	nb.state.Reset()
}

// jointLogLikelihood returns log P(c) + Σ_j x_j log θ_cj for one sample.
func (nb *MultinomialNB) jointLogLikelihood(row []float64) []float64 {
	jll := make([]float64, nb.nClasses_)
	totalSamples := 0.0
	for _, count := range nb.classCount_ {
		totalSamples += count
	}

	for c := 0; c < nb.nClasses_; c++ {
		// Empty classes keep a uniform prior contribution via smoothing.
		prior := -math.Log(float64(nb.nClasses_))
		if nb.fitPrior {
			prior = math.Log((nb.classCount_[c] + nb.alpha) / (totalSamples + nb.alpha*float64(nb.nClasses_)))
		}

		total := 0.0
		for _, v := range nb.featureCount_[c] {
			total += v
		}
		denom := math.Log(total + nb.alpha*float64(nb.nFeatures_))

		jll[c] = prior
		for j, v := range row {
			if v == 0 {
				continue
			}
			jll[c] += v * (math.Log(nb.featureCount_[c][j]+nb.alpha) - denom)
		}
	}
	return jll
}

// Predict returns the maximum-posterior class for each sample.
func (nb *MultinomialNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("MultinomialNB", "Predict")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != nb.nFeatures_ {
		return nil, errors.NewDimensionError("MultinomialNB.Predict", nb.nFeatures_, nFeatures, 1)
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}
		jll := nb.jointLogLikelihood(row)
		best := 0
		for c := 1; c < nb.nClasses_; c++ {
			if jll[c] > jll[best] {
				best = c
			}
		}
		predictions.Set(i, 0, float64(nb.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns normalized posterior probabilities.
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("MultinomialNB", "PredictProba")
	}

	nSamples, nFeatures := X.Dims()
	if nFeatures != nb.nFeatures_ {
		return nil, errors.NewDimensionError("MultinomialNB.PredictProba", nb.nFeatures_, nFeatures, 1)
	}

	proba := mat.NewDense(nSamples, nb.nClasses_, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for j := 0; j < nFeatures; j++ {
			row[j] = X.At(i, j)
		}
		jll := nb.jointLogLikelihood(row)

		maxJLL := math.Inf(-1)
		for _, v := range jll {
			if v > maxJLL {
				maxJLL = v
			}
		}
		sum := 0.0
		for c := range jll {
			jll[c] = math.Exp(jll[c] - maxJLL)
			sum += jll[c]
		}
		for c := range jll {
			proba.Set(i, c, jll[c]/sum)
		}
	}
	return proba, nil
}

// PredictLogProba returns log posterior probabilities.
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (mat.Matrix, error) {
	proba, err := nb.PredictProba(X)
	if err != nil {
		return nil, err
	}
	nSamples, nClasses := proba.Dims()
	logProba := mat.NewDense(nSamples, nClasses, nil)
	for i := 0; i < nSamples; i++ {
		for c := 0; c < nClasses; c++ {
			logProba.Set(i, c, math.Log(proba.At(i, c)))
		}
	}
	return logProba, nil
}

// Score returns the mean accuracy on X against y.
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, predictions)
}

// Classes returns the sorted unique labels declared during fitting.
func (nb *MultinomialNB) Classes() []int {
	return nb.classes_
}

// NSamplesSeen returns the total number of samples accumulated so far.
func (nb *MultinomialNB) NSamplesSeen() int {
	return nb.nSamplesSeen_
}

// IsFitted reports whether any fitting call completed.
func (nb *MultinomialNB) IsFitted() bool {
	return nb.state.IsFitted()
}
