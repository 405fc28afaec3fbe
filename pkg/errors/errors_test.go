package errors

import (
	"fmt"
	"math"
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
			wantMsg:  "scigo: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "scigo: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
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

			// ModelError型にキャスト可能か確認
			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}

			// ModelError型へのキャストのみ確認
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 10, 0)

	// 基本的なエラーメッセージの確認
	want := "scigo: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 10"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// DimensionError型にキャスト可能か確認
	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}

	// DimensionError型へのキャストのみ確認
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("DecisionTreeClassifier", "Predict")

	// 基本的なエラーメッセージの確認
	want := "scigo: DecisionTreeClassifier: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// NotFittedError型にキャスト可能か確認
	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		param   string
		value   interface{}
		message string
		wantMsg string
	}{
		{
			name:    "with message",
			op:      "SetParam",
			param:   "ccp_alpha",
			value:   -0.5,
			message: "must be non-negative",
			wantMsg: "scigo: SetParam: ccp_alpha: -0.5 (must be non-negative)",
		},
		{
			name:    "without message",
			op:      "SetParam",
			param:   "max_leaf_nodes",
			value:   0,
			message: "",
			wantMsg: "scigo: SetParam: max_leaf_nodes: 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.message != "" {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v (%s)", tt.param, tt.value, tt.message))
			} else {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v", tt.param, tt.value))
			}

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// ValueError型にキャスト可能か確認
			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestNewCapacityError(t *testing.T) {
	err := NewCapacityError("Tree.AddNode", 7, 7, 14)

	want := "scigo: Tree.AddNode: node capacity exhausted (nodes=7, capacity=7, requested=14)"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	var capErr *CapacityError
	if !As(err, &capErr) {
		t.Fatal("Error should be castable to *CapacityError")
	}
	if capErr.Requested != 14 {
		t.Errorf("Requested = %d, want 14", capErr.Requested)
	}
}

func TestCheckMatrix(t *testing.T) {
	m := grid{{1, 2}, {3, math.NaN()}}
	err := CheckMatrix("Fit", m, 2, 2)
	if err == nil {
		t.Fatal("expected error for NaN input")
	}
	var nf *NonFiniteError
	if !As(err, &nf) {
		t.Fatalf("expected *NonFiniteError, got %T", err)
	}
	if nf.Row != 1 || nf.Col != 1 {
		t.Errorf("position = (%d, %d), want (1, 1)", nf.Row, nf.Col)
	}

	if err := CheckMatrix("Fit", grid{{1, 2}}, 1, 2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckWeights(t *testing.T) {
	if err := CheckWeights("Fit", nil, 3); err != nil {
		t.Errorf("nil weights should be accepted: %v", err)
	}
	if err := CheckWeights("Fit", []float64{1, 0, 2}, 3); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	var dimErr *DimensionError
	if !As(CheckWeights("Fit", []float64{1}, 3), &dimErr) {
		t.Error("length mismatch should be a DimensionError")
	}
	var valErr *ValidationError
	if !As(CheckWeights("Fit", []float64{1, -1, 1}, 3), &valErr) {
		t.Error("negative weight should be a ValidationError")
	}
	if !As(CheckWeights("Fit", []float64{0, 0}, 2), &valErr) {
		t.Error("zero total weight should be a ValidationError")
	}
}

type grid [][]float64

func (g grid) At(i, j int) float64 { return g[i][j] }

func TestWrapAndIs(t *testing.T) {
	// 元のエラー
	baseErr := ErrCorruptTree

	// ラップ
	wrapped := Wrap(baseErr, "in Tree.UnmarshalJSON")

	// Is関数でチェック
	if !Is(wrapped, ErrCorruptTree) {
		t.Error("Expected Is(wrapped, ErrCorruptTree) to be true")
	}

	// エラーメッセージの確認
	if !strings.Contains(wrapped.Error(), "in Tree.UnmarshalJSON") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	// 元のエラー
	baseErr := ErrEmptyData

	// フォーマット付きラップ
	wrapped := Wrapf(baseErr, "in %s: expected %d, got %d", "Predict", 10, 5)

	// Is関数でチェック
	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	// エラーメッセージの確認
	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	// エラーチェーンの作成
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	// チェーン全体を確認
	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}
