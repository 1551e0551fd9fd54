package static_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds/dstest"
	"github.com/mathematixy/deslib/ds/static"
)

// validation set: six samples, three per class, linearly separated on the
// first feature.
func validationData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		1, 0,
		0, 1,
		10, 10,
		11, 10,
		10, 11,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func oracle() *dstest.RuleClassifier {
	return dstest.NewRuleClassifier([]int{0, 1}, func(row []float64) int {
		if row[0] < 5 {
			return 0
		}
		return 1
	})
}

func constant(label int) *dstest.RuleClassifier {
	return dstest.NewRuleClassifier([]int{0, 1}, func([]float64) int { return label })
}

func TestSingleBestPicksHighestAccuracy(t *testing.T) {
	X, y := validationData()
	// accuracies: 0.5, 1.0, 0.5
	pool := []model.Classifier{constant(0), oracle(), constant(1)}

	sb := static.NewSingleBest(pool)
	if err := sb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if sb.BestIndex() != 1 {
		t.Errorf("BestIndex = %d, want 1", sb.BestIndex())
	}
	if sb.ValidationAccuracy() != 1.0 {
		t.Errorf("ValidationAccuracy = %f, want 1.0", sb.ValidationAccuracy())
	}

	pred, err := sb.Predict(mat.NewDense(2, 2, []float64{0.5, 0.5, 10.5, 10.5}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 0 || pred.At(1, 0) != 1 {
		t.Errorf("Delegated predictions = (%v, %v), want (0, 1)", pred.At(0, 0), pred.At(1, 0))
	}
}

func TestSingleBestTieBreaksByPoolOrder(t *testing.T) {
	X, y := validationData()
	pool := []model.Classifier{constant(0), constant(0)}

	sb := static.NewSingleBest(pool)
	if err := sb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if sb.BestIndex() != 0 {
		t.Errorf("BestIndex = %d, want 0 on a tie", sb.BestIndex())
	}
}

func TestSingleBestErrors(t *testing.T) {
	X, y := validationData()

	sb := static.NewSingleBest(nil)
	if err := sb.Fit(X, y); err == nil {
		t.Error("Fit should reject an empty pool")
	}

	sb = static.NewSingleBest([]model.Classifier{oracle()})
	if _, err := sb.Predict(X); err == nil {
		t.Error("Predict should fail before Fit")
	}
}

func TestStaticSelectionKeepsTopFraction(t *testing.T) {
	X, y := validationData()
	// accuracies: 0.5, 0.5, 1.0, 1.0
	pool := []model.Classifier{constant(0), constant(1), oracle(), oracle()}

	ss := static.NewStaticSelection(pool, static.WithPctClassifiers(0.5))
	if err := ss.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if diff := cmp.Diff([]int{2, 3}, ss.Selected()); diff != "" {
		t.Errorf("Selected mismatch (-want +got):\n%s", diff)
	}

	score, err := ss.Score(X, y)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 1.0 {
		t.Errorf("Score = %f, want 1.0", score)
	}
}

func TestStaticSelectionKeepsAtLeastOne(t *testing.T) {
	X, y := validationData()
	pool := []model.Classifier{constant(0), oracle()}

	ss := static.NewStaticSelection(pool, static.WithPctClassifiers(0.01))
	if err := ss.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(ss.Selected()) != 1 {
		t.Fatalf("Selected %d members, want 1", len(ss.Selected()))
	}
	// The single kept member must be the most accurate one.
	if ss.Selected()[0] != 1 {
		t.Errorf("Selected = %v, want [1]", ss.Selected())
	}
}

func TestStaticSelectionValidation(t *testing.T) {
	X, y := validationData()

	ss := static.NewStaticSelection([]model.Classifier{oracle()}, static.WithPctClassifiers(1.5))
	if err := ss.Fit(X, y); err == nil {
		t.Error("Fit should reject pctClassifiers > 1")
	}

	ss = static.NewStaticSelection(nil)
	if err := ss.Fit(X, y); err == nil {
		t.Error("Fit should reject an empty pool")
	}
}

func TestStaticSelectionPredictProba(t *testing.T) {
	X, y := validationData()
	pool := []model.Classifier{oracle(), constant(0)}

	ss := static.NewStaticSelection(pool, static.WithPctClassifiers(1.0))
	if err := ss.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := ss.PredictProba(mat.NewDense(1, 2, []float64{10.5, 10.5}))
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	// One member says class 1, the other class 0: averaged 0.5 each.
	if proba.At(0, 0) != 0.5 || proba.At(0, 1) != 0.5 {
		t.Errorf("Averaged proba = (%f, %f), want (0.5, 0.5)", proba.At(0, 0), proba.At(0, 1))
	}
}
