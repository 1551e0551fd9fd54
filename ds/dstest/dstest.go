// Package dstest provides deterministic rule-based classifiers for testing
// the dynamic selection methods. A RuleClassifier applies a fixed function
// to each row, so pools of perfect oracles, constant guessers and regional
// specialists can be built by hand.
package dstest

import (
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/metrics"
	"github.com/mathematixy/deslib/pkg/errors"
)

// RuleClassifier is a pre-fitted classifier whose predictions come from a
// deterministic rule over the feature vector.
type RuleClassifier struct {
	classes []int
	rule    func(row []float64) int
	fitted  bool
}

// NewRuleClassifier builds an already-fitted classifier. classes must list
// every label the rule can return, sorted.
func NewRuleClassifier(classes []int, rule func(row []float64) int) *RuleClassifier {
	return &RuleClassifier{classes: classes, rule: rule, fitted: true}
}

// NewUnfitted builds a classifier that reports itself unfitted, for
// validation tests.
func NewUnfitted(classes []int) *RuleClassifier {
	return &RuleClassifier{classes: classes, fitted: false}
}

// Fit marks the classifier fitted; the rule is fixed at construction.
func (r *RuleClassifier) Fit(X, y mat.Matrix) error {
	r.fitted = true
	return nil
}

// Predict applies the rule to each row of X.
func (r *RuleClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.fitted {
		return nil, errors.NewNotFittedError("RuleClassifier", "Predict")
	}
	nSamples, nFeatures := X.Dims()
	out := mat.NewDense(nSamples, 1, nil)
	row := make([]float64, nFeatures)
	for i := 0; i < nSamples; i++ {
		for f := 0; f < nFeatures; f++ {
			row[f] = X.At(i, f)
		}
		out.Set(i, 0, float64(r.rule(row)))
	}
	return out, nil
}

// PredictProba puts all probability mass on the predicted label.
func (r *RuleClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return nil, err
	}
	nSamples, _ := X.Dims()
	proba := mat.NewDense(nSamples, len(r.classes), nil)
	for i := 0; i < nSamples; i++ {
		label := int(pred.At(i, 0))
		for c, class := range r.classes {
			if class == label {
				proba.Set(i, c, 1)
			}
		}
	}
	return proba, nil
}

// Score returns the rule's accuracy on X against y.
func (r *RuleClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyScore(y, pred)
}

// Classes returns the labels declared at construction.
func (r *RuleClassifier) Classes() []int { return r.classes }

// IsFitted reports the fitted flag.
func (r *RuleClassifier) IsFitted() bool { return r.fitted }
