package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// Accuracy returns the fraction of positions where yPred equals yTrue.
// Labels are compared exactly, which is what classifiers produce since
// predictions are drawn from the training labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - Accuracy) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// AccuracyMatrix computes Accuracy for n×1 matrices.
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, err := ColumnVector("AccuracyMatrix", yTrue)
	if err != nil {
		return 0, err
	}
	p, err := ColumnVector("AccuracyMatrix", yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}
