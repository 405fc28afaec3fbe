package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// WeightedFitter is a Fitter that also accepts per-sample weights.
// A nil weight slice means every sample has weight 1.
type WeightedFitter interface {
	Fitter
	FitWeighted(X, y mat.Matrix, sampleWeight []float64) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator is a fittable model with sklearn style parameter access.
type Estimator interface {
	Fitter
	ParameterGetter
	ParameterSetter
}
