package dcs_test

import (
	"sync"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mathematixy/deslib/core/model"
	"github.com/mathematixy/deslib/ds"
	"github.com/mathematixy/deslib/ds/dcs"
	"github.com/mathematixy/deslib/ds/dstest"
	"github.com/mathematixy/deslib/pkg/errors"
)

// twoClusters builds a DSEL with two well-separated clusters: five points
// around the origin labeled 0 and five around (10, 10) labeled 1.
func twoClusters() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(10, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		0.5, 0.5,
		10, 10,
		10, 11,
		11, 10,
		11, 11,
		10.5, 10.5,
	})
	y := mat.NewDense(10, 1, []float64{0, 0, 0, 0, 0, 1, 1, 1, 1, 1})
	return X, y
}

func constant(label int, classes ...int) *dstest.RuleClassifier {
	if classes == nil {
		classes = []int{0, 1}
	}
	return dstest.NewRuleClassifier(classes, func([]float64) int { return label })
}

func testQueries() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(2, 2, []float64{0.3, 0.3, 10.3, 10.3})
	y := mat.NewDense(2, 1, []float64{0, 1})
	return X, y
}

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var mu sync.Mutex
	var captured []error
	errors.SetWarningHandler(func(w error) {
		mu.Lock()
		captured = append(captured, w)
		mu.Unlock()
	})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &captured
}

func TestOLASelectsLocallyAccurate(t *testing.T) {
	X, y := twoClusters()
	pool := []model.Classifier{constant(0), constant(1)}

	ola := dcs.NewOLA(pool, ds.WithK(5))
	if err := ola.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	XTest, yTest := testQueries()
	score, err := ola.Score(XTest, yTest)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 1.0 {
		t.Errorf("The local specialist should answer each query, score = %f, want 1.0", score)
	}
}

func TestOLATieBreaksByPoolOrder(t *testing.T) {
	X, y := twoClusters()
	// Two identical members tie on every region; the first must win.
	pool := []model.Classifier{constant(0), constant(0)}

	ola := dcs.NewOLA(pool, ds.WithK(3))
	if err := ola.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := ola.Predict(mat.NewDense(1, 2, []float64{0.3, 0.3}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 0 {
		t.Errorf("Predict = %v, want 0", pred.At(0, 0))
	}
}

func TestLCASelectsByClassAccuracy(t *testing.T) {
	X, y := twoClusters()
	pool := []model.Classifier{constant(0), constant(1)}

	lca := dcs.NewLCA(pool, ds.WithK(5))
	if err := lca.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	XTest, yTest := testQueries()
	score, err := lca.Score(XTest, yTest)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// Near cluster 0 the class-0 guesser has perfect accuracy on the
	// neighbors labeled 0 while the class-1 guesser has no neighbor of
	// its predicted class at all.
	if score != 1.0 {
		t.Errorf("Score = %f, want 1.0", score)
	}
}

func TestLCAFallbackNoSharedClass(t *testing.T) {
	X, y := twoClusters()
	// Both members predict a label absent from the DSEL, so no region
	// sample ever shares the predicted class.
	pool := []model.Classifier{constant(2, 0, 1, 2), constant(2, 0, 1, 2)}

	captured := captureWarnings(t)

	lca := dcs.NewLCA(pool, ds.WithK(5))
	if err := lca.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := lca.Predict(mat.NewDense(1, 2, []float64{0.3, 0.3}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	// The whole-pool fallback votes 2 unanimously.
	if pred.At(0, 0) != 2 {
		t.Errorf("Fallback vote = %v, want 2", pred.At(0, 0))
	}
	if len(*captured) == 0 {
		t.Error("Expected an empty-region warning")
	}
}

func TestMCBSelectsWithClearMargin(t *testing.T) {
	X, y := twoClusters()
	pool := []model.Classifier{constant(0), constant(1)}

	mcb := dcs.NewMCB(pool,
		dcs.WithMCBK(5),
		dcs.WithSimilarityThreshold(0.5),
		dcs.WithDiffThreshold(0.1),
	)
	if err := mcb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	XTest, yTest := testQueries()
	score, err := mcb.Score(XTest, yTest)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// Accuracy margin between the specialists is 1.0, far above the
	// difference threshold.
	if score != 1.0 {
		t.Errorf("Score = %f, want 1.0", score)
	}
}

func TestMCBNoMarginFallsBackToPoolVote(t *testing.T) {
	X, y := twoClusters()
	// Identical members: zero margin, so the whole pool votes and both
	// agree on 0 near cluster 0.
	pool := []model.Classifier{constant(0), constant(0)}

	mcb := dcs.NewMCB(pool, dcs.WithMCBK(3))
	if err := mcb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := mcb.Predict(mat.NewDense(1, 2, []float64{0.3, 0.3}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 0 {
		t.Errorf("Pool vote = %v, want 0", pred.At(0, 0))
	}
}

func TestRankConsecutiveCorrect(t *testing.T) {
	X, y := twoClusters()
	pool := []model.Classifier{constant(0), constant(1)}

	rank := dcs.NewRank(pool, ds.WithK(5))
	if err := rank.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	XTest, yTest := testQueries()
	score, err := rank.Score(XTest, yTest)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	// Near each cluster the specialist is correct on every consecutive
	// neighbor while the other member fails on the first.
	if score != 1.0 {
		t.Errorf("Score = %f, want 1.0", score)
	}
}

func TestDCSPredictProbaShape(t *testing.T) {
	X, y := twoClusters()
	pool := []model.Classifier{constant(0), constant(1)}

	ola := dcs.NewOLA(pool, ds.WithK(5))
	if err := ola.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	proba, err := ola.PredictProba(mat.NewDense(1, 2, []float64{0.3, 0.3}))
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	rows, cols := proba.Dims()
	if rows != 1 || cols != 2 {
		t.Fatalf("Proba shape (%d, %d), want (1, 2)", rows, cols)
	}
	if proba.At(0, 0) != 1.0 {
		t.Errorf("Selected specialist puts all mass on class 0, got %f", proba.At(0, 0))
	}
}
