// Package preprocessing provides target encoders used by the tree estimators.
package preprocessing

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/scigo-cart/core/model"
	"github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// LabelEncoder はscikit-learn互換のラベルエンコーダー
// 任意の数値ラベルを 0..nClasses-1 の密な整数インデックスに変換する
type LabelEncoder struct {
	state *model.StateManager

	// Classes_ は昇順に並んだユニークなラベル
	Classes_ []float64
	index    map[float64]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{state: model.NewStateManager()}
}

// Fit learns the sorted set of distinct labels. NaN labels are rejected.
func (e *LabelEncoder) Fit(y []float64) error {
	if len(y) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	seen := make(map[float64]struct{}, 8)
	for i, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewNonFiniteError("LabelEncoder.Fit", i, 0, v)
		}
		seen[v] = struct{}{}
	}

	classes := make([]float64, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Float64s(classes)

	e.setClasses(classes)
	e.state.SetDimensions(1, len(y))
	e.state.SetFitted()
	return nil
}

func (e *LabelEncoder) setClasses(classes []float64) {
	e.Classes_ = classes
	e.index = make(map[float64]int, len(classes))
	for i, c := range classes {
		e.index[c] = i
	}
}

// SetClasses restores a fitted encoder from a previously learned label set.
func (e *LabelEncoder) SetClasses(classes []float64) error {
	if len(classes) == 0 {
		return errors.NewValueError("LabelEncoder.SetClasses", "no classes")
	}
	if !sort.Float64sAreSorted(classes) {
		return errors.NewValueError("LabelEncoder.SetClasses", "classes must be sorted ascending")
	}
	e.setClasses(append([]float64(nil), classes...))
	e.state.SetFitted()
	return nil
}

// Transform は各ラベルをクラスインデックスに変換する
func (e *LabelEncoder) Transform(y []float64) ([]int, error) {
	if err := e.state.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	out := make([]int, len(y))
	for i, v := range y {
		k, ok := e.index[v]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform", "y contains previously unseen label")
		}
		out[i] = k
	}
	return out, nil
}

// FitTransform は Fit と Transform を連続して実行する
func (e *LabelEncoder) FitTransform(y []float64) ([]int, error) {
	if err := e.Fit(y); err != nil {
		return nil, err
	}
	return e.Transform(y)
}

// InverseTransform maps class indices back to the original labels.
func (e *LabelEncoder) InverseTransform(idx []int) ([]float64, error) {
	if err := e.state.RequireFitted("LabelEncoder", "InverseTransform"); err != nil {
		return nil, err
	}
	out := make([]float64, len(idx))
	for i, k := range idx {
		if k < 0 || k >= len(e.Classes_) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform", "class index out of range")
		}
		out[i] = e.Classes_[k]
	}
	return out, nil
}

// NClasses returns the number of distinct labels seen during Fit.
func (e *LabelEncoder) NClasses() int {
	return len(e.Classes_)
}

// IsFitted reports whether Fit or SetClasses has been called.
func (e *LabelEncoder) IsFitted() bool {
	return e.state.IsFitted()
}
