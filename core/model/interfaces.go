// Package model provides the estimator interfaces and state management shared
// by every classifier and dynamic-selection technique in the library.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for estimators that learn from labeled data.
type Fitter interface {
	// Fit trains the estimator on X (n_samples x n_features) and
	// y (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for estimators that predict labels.
type Predictor interface {
	// Predict returns an (n_samples x 1) matrix of predicted labels.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for estimators that can score themselves.
type Scorer interface {
	// Score returns the mean accuracy of the predictions on X against y.
	Score(X, y mat.Matrix) (float64, error)
}

// Estimator is the minimal supervised-learning contract.
type Estimator interface {
	Fitter
	Predictor
	IsFitted() bool
}

// Classifier is the contract every pool member must satisfy. A pool of
// classifiers is an ordered slice of independently trained Classifiers that
// agree on the feature count and, by convention, on the label universe.
type Classifier interface {
	Estimator
	Scorer

	// PredictProba returns an (n_samples x n_classes) matrix of class
	// membership probabilities, columns ordered as Classes().
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the sorted unique labels seen during fitting.
	Classes() []int
}

// Transformer is the interface for stateless-after-fit data transformations
// such as feature scaling.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is implemented by estimators that expose hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Persistable is implemented by estimators that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
