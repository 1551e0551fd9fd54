package model_selection

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func makeDataset(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64(i)*2)
		// 1/4 of samples in class 1.
		if i%4 == 0 {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestTrainTestSplitSizes(t *testing.T) {
	X, y := makeDataset(100)

	XTrain, XTest, yTrain, yTest, err := TrainTestSplit(X, y,
		WithTestSize(0.25), WithSplitSeed(42))
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}

	trainRows, _ := XTrain.Dims()
	testRows, _ := XTest.Dims()
	if trainRows != 75 || testRows != 25 {
		t.Errorf("expected 75/25 split, got %d/%d", trainRows, testRows)
	}
	if r, _ := yTrain.Dims(); r != 75 {
		t.Errorf("yTrain rows = %d, want 75", r)
	}
	if r, _ := yTest.Dims(); r != 25 {
		t.Errorf("yTest rows = %d, want 25", r)
	}
}

func TestTrainTestSplitNoOverlap(t *testing.T) {
	X, y := makeDataset(40)

	XTrain, XTest, _, _, err := TrainTestSplit(X, y, WithSplitSeed(7))
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}

	// Feature 0 is the original row index, so partitions can be compared.
	seen := make(map[float64]bool)
	trainRows, _ := XTrain.Dims()
	for i := 0; i < trainRows; i++ {
		seen[XTrain.At(i, 0)] = true
	}
	testRows, _ := XTest.Dims()
	for i := 0; i < testRows; i++ {
		if seen[XTest.At(i, 0)] {
			t.Fatalf("sample %v appears in both partitions", XTest.At(i, 0))
		}
	}
	if trainRows+testRows != 40 {
		t.Errorf("partitions lose samples: %d + %d != 40", trainRows, testRows)
	}
}

func TestTrainTestSplitReproducible(t *testing.T) {
	X, y := makeDataset(50)

	_, XTest1, _, _, err := TrainTestSplit(X, y, WithSplitSeed(123))
	if err != nil {
		t.Fatalf("first split failed: %v", err)
	}
	_, XTest2, _, _, err := TrainTestSplit(X, y, WithSplitSeed(123))
	if err != nil {
		t.Fatalf("second split failed: %v", err)
	}

	if !mat.Equal(XTest1, XTest2) {
		t.Error("same seed must produce identical splits")
	}
}

func TestTrainTestSplitStratified(t *testing.T) {
	X, y := makeDataset(100) // 25% class 1

	_, _, yTrain, yTest, err := TrainTestSplit(X, y,
		WithTestSize(0.2), WithSplitSeed(42), WithStratify(true))
	if err != nil {
		t.Fatalf("TrainTestSplit failed: %v", err)
	}

	frac := func(y *mat.Dense) float64 {
		rows, _ := y.Dims()
		count := 0
		for i := 0; i < rows; i++ {
			if y.At(i, 0) == 1 {
				count++
			}
		}
		return float64(count) / float64(rows)
	}

	if math.Abs(frac(yTrain)-0.25) > 0.05 {
		t.Errorf("train class-1 fraction %v too far from 0.25", frac(yTrain))
	}
	if math.Abs(frac(yTest)-0.25) > 0.05 {
		t.Errorf("test class-1 fraction %v too far from 0.25", frac(yTest))
	}
}

func TestTrainTestSplitValidation(t *testing.T) {
	X, y := makeDataset(10)

	if _, _, _, _, err := TrainTestSplit(X, y, WithTestSize(1.5)); err == nil {
		t.Error("expected error for test_size > 1")
	}
	if _, _, _, _, err := TrainTestSplit(X, mat.NewDense(5, 1, nil)); err == nil {
		t.Error("expected error for mismatched rows")
	}
}

func TestKFoldCoversAllSamples(t *testing.T) {
	X, y := makeDataset(23)
	kf := NewKFold(5, true, 42)

	folds := kf.Split(X, y)
	if len(folds) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(folds))
	}

	var all []int
	for _, fold := range folds {
		all = append(all, fold.TestIndices...)
		if len(fold.TrainIndices)+len(fold.TestIndices) != 23 {
			t.Errorf("fold does not partition the dataset")
		}
	}
	sort.Ints(all)

	want := make([]int, 23)
	for i := range want {
		want[i] = i
	}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("test folds do not cover dataset (-want +got):\n%s", diff)
	}
}

func TestStratifiedKFoldProportions(t *testing.T) {
	X, y := makeDataset(100) // 25% class 1
	skf := NewStratifiedKFold(5, true, 42)

	folds := skf.Split(X, y)
	for i, fold := range folds {
		count := 0
		for _, idx := range fold.TestIndices {
			if y.At(idx, 0) == 1 {
				count++
			}
		}
		frac := float64(count) / float64(len(fold.TestIndices))
		if math.Abs(frac-0.25) > 0.06 {
			t.Errorf("fold %d class-1 fraction %v too far from 0.25", i, frac)
		}
	}
}
