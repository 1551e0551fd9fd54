package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "deslib: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "deslib: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 8, 1)

	want := "deslib: Predict: dimension mismatch on axis 1 (features). Expected 10, got 8"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}
	if dimErr.Expected != 10 || dimErr.Got != 8 {
		t.Errorf("unexpected fields: %+v", dimErr)
	}
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("KNORAU", "Predict")

	if !strings.Contains(err.Error(), "KNORAU") {
		t.Errorf("Error() should mention model name, got %v", err.Error())
	}
	if !strings.Contains(err.Error(), "Call Fit() before using Predict()") {
		t.Errorf("Error() should instruct to call Fit, got %v", err.Error())
	}

	var nfErr *NotFittedError
	if !As(err, &nfErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewEmptyPoolError(t *testing.T) {
	err := NewEmptyPoolError("Base.Fit", 0, "pool contains no classifiers")

	want := "deslib: Base.Fit: invalid pool of classifiers (size=0): pool contains no classifiers"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var poolErr *EmptyPoolError
	if !As(err, &poolErr) {
		t.Error("Error should be castable to *EmptyPoolError")
	}
}

func TestWarningHandler(t *testing.T) {
	var captured error
	SetWarningHandler(func(w error) { captured = w })
	defer SetWarningHandler(nil)

	warning := NewEmptyRegionWarning("MCB", 7, "majority vote of the whole pool")
	Warn(warning)

	if captured == nil {
		t.Fatal("warning handler was not invoked")
	}
	if !strings.Contains(captured.Error(), "falling back to majority vote") {
		t.Errorf("unexpected warning message: %v", captured.Error())
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("k", "must be at least 1", 0)

	var valErr *ValidationError
	if !As(err, &valErr) {
		t.Fatal("Error should be castable to *ValidationError")
	}
	if valErr.ParamName != "k" {
		t.Errorf("ParamName = %v, want k", valErr.ParamName)
	}
}

func TestWrapPreservesType(t *testing.T) {
	base := NewNotFittedError("OLA", "PredictProba")
	wrapped := Wrap(base, "scoring failed")

	var nfErr *NotFittedError
	if !As(wrapped, &nfErr) {
		t.Error("wrapped error should still be castable to *NotFittedError")
	}
	if !strings.Contains(wrapped.Error(), "scoring failed") {
		t.Errorf("wrapped message lost: %v", wrapped.Error())
	}
}
