package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer computes a goodness-of-fit score: accuracy for classifiers and
// R^2 for regressors. Unfitted models and shape mismatches score 0.
type Scorer interface {
	Score(X, y mat.Matrix) float64
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Estimator
	Predictor
	Scorer
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns probability estimates for each class, one
	// column per entry of Classes.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique classes seen during fitting, ascending.
	Classes() []int
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
