package linear_model

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/pkg/errors"
)

func TestPerceptronLinearlySeparable(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		5, 5,
		5, 6,
		6, 5,
		6, 6,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	p := NewPerceptron(WithPerceptronRandomState(42))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	acc, err := p.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if acc != 1.0 {
		t.Errorf("training accuracy = %v, want 1.0 on separable data", acc)
	}

	// Converged before the epoch limit.
	if p.NIter() >= 100 {
		t.Errorf("expected early convergence, ran %d epochs", p.NIter())
	}
}

func TestPerceptronMulticlass(t *testing.T) {
	X := mat.NewDense(9, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		10, 10,
		10, 11,
		11, 10,
		0, 10,
		1, 10,
		0, 11,
	})
	y := mat.NewDense(9, 1, []float64{0, 0, 0, 1, 1, 1, 2, 2, 2})

	p := NewPerceptron(WithPerceptronRandomState(7))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	classes := p.Classes()
	if len(classes) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(classes))
	}

	acc, err := p.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if acc != 1.0 {
		t.Errorf("training accuracy = %v, want 1.0", acc)
	}
}

func TestPerceptronPredictProba(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	p := NewPerceptron(WithPerceptronRandomState(1))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := p.PredictProba(X)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}

	rows, cols := proba.Dims()
	if rows != 4 || cols != 2 {
		t.Fatalf("proba shape = (%d, %d), want (4, 2)", rows, cols)
	}
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += proba.At(i, j)
		}
		if math.Abs(sum-1) > 1e-10 {
			t.Errorf("sample %d: probabilities sum to %v", i, sum)
		}
	}
	// The extreme negative sample should lean towards class 0.
	if proba.At(0, 0) <= proba.At(0, 1) {
		t.Errorf("sample at -2 should favor class 0, proba = (%v, %v)",
			proba.At(0, 0), proba.At(0, 1))
	}
}

func TestPerceptronConvergenceWarning(t *testing.T) {
	var captured error
	errors.SetWarningHandler(func(w error) { captured = w })
	defer errors.SetWarningHandler(func(error) {})

	// XOR is not linearly separable: the perceptron cannot converge.
	X := mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1})
	y := mat.NewDense(4, 1, []float64{0, 1, 1, 0})

	p := NewPerceptron(WithPerceptronMaxIter(5), WithPerceptronRandomState(3))
	if err := p.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	var convWarning *errors.ConvergenceWarning
	if !errors.As(captured, &convWarning) {
		t.Fatalf("expected ConvergenceWarning, got %v", captured)
	}
	if convWarning.Iterations != 5 {
		t.Errorf("warning iterations = %d, want 5", convWarning.Iterations)
	}
}

func TestPerceptronNotFitted(t *testing.T) {
	p := NewPerceptron()
	if _, err := p.Predict(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("expected error before Fit")
	}
}
