package metrics

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func col(values ...float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

func TestAccuracyScore(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   *mat.Dense
		yPred   *mat.Dense
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect predictions",
			yTrue: col(0, 1, 1, 0),
			yPred: col(0, 1, 1, 0),
			want:  1.0,
		},
		{
			name:  "all wrong",
			yTrue: col(0, 1, 1, 0),
			yPred: col(1, 0, 0, 1),
			want:  0.0,
		},
		{
			name:  "half correct",
			yTrue: col(0, 1, 1, 0),
			yPred: col(0, 1, 0, 1),
			want:  0.5,
		},
		{
			name:  "multiclass",
			yTrue: col(0, 1, 2, 2, 1),
			yPred: col(0, 1, 2, 0, 1),
			want:  0.8,
		},
		{
			name:    "dimension mismatch",
			yTrue:   col(0, 1),
			yPred:   col(0, 1, 1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccuracyScore(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AccuracyScore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("AccuracyScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := col(2, 0, 2, 2, 0, 1)
	yPred := col(0, 0, 2, 2, 0, 2)

	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("ConfusionMatrix() error = %v", err)
	}

	if diff := cmp.Diff([]int{0, 1, 2}, labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	// Rows: true label, columns: predicted label.
	want := mat.NewDense(3, 3, []float64{
		2, 0, 0,
		0, 0, 1,
		1, 0, 2,
	})
	if !mat.EqualApprox(cm, want, 1e-12) {
		t.Errorf("confusion matrix mismatch:\ngot:\n%v\nwant:\n%v",
			mat.Formatted(cm), mat.Formatted(want))
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	// Binary case with hand-computed values:
	// class 0: tp=2 fp=1 fn=0 -> precision 2/3, recall 1
	// class 1: tp=2 fp=0 fn=1 -> precision 1,   recall 2/3
	yTrue := col(0, 0, 1, 1, 1)
	yPred := col(0, 0, 0, 1, 1)

	precision, err := PrecisionScore(yTrue, yPred)
	if err != nil {
		t.Fatalf("PrecisionScore() error = %v", err)
	}
	wantPrecision := (2.0/3.0 + 1.0) / 2
	if math.Abs(precision-wantPrecision) > 1e-12 {
		t.Errorf("PrecisionScore() = %v, want %v", precision, wantPrecision)
	}

	recall, err := RecallScore(yTrue, yPred)
	if err != nil {
		t.Fatalf("RecallScore() error = %v", err)
	}
	wantRecall := (1.0 + 2.0/3.0) / 2
	if math.Abs(recall-wantRecall) > 1e-12 {
		t.Errorf("RecallScore() = %v, want %v", recall, wantRecall)
	}

	f1, err := F1Score(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1Score() error = %v", err)
	}
	wantF1 := 2 * wantPrecision * wantRecall / (wantPrecision + wantRecall)
	if math.Abs(f1-wantF1) > 1e-12 {
		t.Errorf("F1Score() = %v, want %v", f1, wantF1)
	}
}

func TestErrorRate(t *testing.T) {
	yTrue := col(0, 1, 1, 0)
	yPred := col(0, 1, 0, 0)

	rate, err := ErrorRate(yTrue, yPred)
	if err != nil {
		t.Fatalf("ErrorRate() error = %v", err)
	}
	if math.Abs(rate-0.25) > 1e-12 {
		t.Errorf("ErrorRate() = %v, want 0.25", rate)
	}
}
