package ensemble

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/datasets"
	"github.com/mathematixy/deslib/linear_model"
)

func separableData(t *testing.T) (*mat.Dense, *mat.Dense) {
	t.Helper()
	X, y := datasets.GenClassification(120, 4, 2,
		datasets.WithGenSeed(7),
		datasets.WithClassSep(3.0),
	)
	return X, y
}

func TestRandomForestFitPredict(t *testing.T) {
	X, y := separableData(t)

	rf := NewRandomForestClassifier(
		WithForestNEstimators(20),
		WithForestMaxDepth(5),
		WithForestRandomState(42),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !rf.IsFitted() {
		t.Error("forest should be fitted after Fit()")
	}

	if diff := cmp.Diff([]int{0, 1}, rf.Classes()); diff != "" {
		t.Errorf("Classes mismatch (-want +got):\n%s", diff)
	}

	score, err := rf.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.9 {
		t.Errorf("Training accuracy should be high on separable data, got %f", score)
	}
}

func TestRandomForestEstimators(t *testing.T) {
	X, y := separableData(t)

	rf := NewRandomForestClassifier(
		WithForestNEstimators(10),
		WithForestMaxDepth(3),
		WithForestRandomState(1),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pool := rf.Estimators()
	if len(pool) != 10 {
		t.Fatalf("Expected 10 estimators, got %d", len(pool))
	}

	// Each member must stand on its own as a fitted classifier over
	// the same feature space.
	nSamples, _ := X.Dims()
	for i, clf := range pool {
		pred, err := clf.Predict(X)
		if err != nil {
			t.Fatalf("Estimator %d Predict failed: %v", i, err)
		}
		rows, cols := pred.Dims()
		if rows != nSamples || cols != 1 {
			t.Errorf("Estimator %d prediction shape (%d, %d), want (%d, 1)", i, rows, cols, nSamples)
		}
	}
}

func TestRandomForestPredictProba(t *testing.T) {
	X, y := separableData(t)

	rf := NewRandomForestClassifier(
		WithForestNEstimators(15),
		WithForestRandomState(3),
	)
	if err := rf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := rf.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	rows, cols := proba.Dims()
	nSamples, _ := X.Dims()
	if rows != nSamples || cols != 2 {
		t.Fatalf("Proba shape (%d, %d), want (%d, 2)", rows, cols, nSamples)
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			p := proba.At(i, j)
			if p < 0 || p > 1 {
				t.Errorf("Probability out of range at (%d, %d): %f", i, j, p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-10 {
			t.Errorf("Row %d probabilities sum to %f, want 1", i, sum)
		}
	}
}

func TestRandomForestReproducibility(t *testing.T) {
	X, y := separableData(t)

	predict := func() *mat.Dense {
		rf := NewRandomForestClassifier(
			WithForestNEstimators(10),
			WithForestRandomState(99),
		)
		if err := rf.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		pred, err := rf.Predict(X)
		if err != nil {
			t.Fatalf("Predict failed: %v", err)
		}
		return pred.(*mat.Dense)
	}

	first := predict()
	second := predict()
	if !mat.Equal(first, second) {
		t.Error("Same random state should give identical predictions")
	}
}

func TestRandomForestUnfitted(t *testing.T) {
	rf := NewRandomForestClassifier()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if _, err := rf.Predict(X); err == nil {
		t.Error("Predict should fail on unfitted forest")
	}
	if _, err := rf.PredictProba(X); err == nil {
		t.Error("PredictProba should fail on unfitted forest")
	}
}

func TestBaggingClassifier(t *testing.T) {
	X, y := separableData(t)

	bag := NewBaggingClassifier(
		func() model.Classifier {
			return linear_model.NewPerceptron(
				linear_model.WithPerceptronMaxIter(50),
				linear_model.WithPerceptronRandomState(5),
			)
		},
		WithBaggingNEstimators(8),
		WithBaggingRandomState(11),
	)
	if err := bag.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if len(bag.Estimators()) != 8 {
		t.Fatalf("Expected 8 estimators, got %d", len(bag.Estimators()))
	}

	score, err := bag.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score < 0.8 {
		t.Errorf("Bagged perceptrons should fit separable data, got %f", score)
	}
}

func TestBaggingMaxSamples(t *testing.T) {
	X, y := separableData(t)

	bag := NewBaggingClassifier(
		func() model.Classifier {
			return linear_model.NewPerceptron(linear_model.WithPerceptronMaxIter(30))
		},
		WithBaggingNEstimators(4),
		WithBaggingMaxSamples(0.5),
		WithBaggingRandomState(2),
	)
	if err := bag.Fit(X, y); err != nil {
		t.Fatalf("Fit with half-sized bags failed: %v", err)
	}

	pred, err := bag.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	rows, _ := pred.Dims()
	nSamples, _ := X.Dims()
	if rows != nSamples {
		t.Errorf("Prediction rows %d, want %d", rows, nSamples)
	}
}
