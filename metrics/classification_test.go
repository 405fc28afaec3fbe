package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

func TestAccuracyAndClassificationError(t *testing.T) {
	tests := []struct {
		name     string
		yTrue    []float64
		yPred    []float64
		accuracy float64
	}{
		{name: "perfect", yTrue: []float64{0, 1, 2, 1, 0}, yPred: []float64{0, 1, 2, 1, 0}, accuracy: 1},
		{name: "one miss", yTrue: []float64{0, 1, 2, 1, 0}, yPred: []float64{0, 1, 1, 1, 0}, accuracy: 0.8},
		{name: "all wrong", yTrue: []float64{0, 0, 0}, yPred: []float64{1, 1, 1}, accuracy: 0},
		{name: "arbitrary labels", yTrue: []float64{-1, 3, 3, 7}, yPred: []float64{-1, 3, 7, 3}, accuracy: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			acc, err := Accuracy(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.accuracy, acc, 1e-12)

			rate, err := ClassificationError(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, 1-tt.accuracy, rate, 1e-12)
		})
	}
}

func TestClassificationErrorRejectsBadInput(t *testing.T) {
	_, err := ClassificationError(nil, nil)
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	_, err = ClassificationError(mat.NewVecDense(2, []float64{0, 1}), mat.NewVecDense(1, []float64{0}))
	var de *errors.DimensionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 2, de.Expected)
	assert.Equal(t, 1, de.Got)
}

func TestAccuracyMatrix(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{2, 7, 7, 2})
	yPred := mat.NewDense(1, 4, []float64{2, 7, 2, 2})

	got, err := AccuracyMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, got, 1e-12)

	_, err = AccuracyMatrix(mat.NewDense(2, 2, nil), yPred)
	assert.Error(t, err)
}
