package tree

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-cart/metrics"
	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// fitInput is validated training data.
type fitInput struct {
	X            *mat.Dense
	y            []float64
	sampleWeight []float64
	nSamples     int
	nFeatures    int
	totalWeight  float64
}

// prepareFitInput checks shapes and finiteness and copies X into a dense
// matrix. y may be n×1 or 1×n.
func prepareFitInput(op string, X, y mat.Matrix, sampleWeight []float64) (*fitInput, error) {
	if X == nil || y == nil {
		return nil, scigoErrors.NewModelError(op, "empty data", scigoErrors.ErrEmptyData)
	}
	nSamples, nFeatures := X.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return nil, scigoErrors.NewModelError(op, "empty data", scigoErrors.ErrEmptyData)
	}
	if err := scigoErrors.CheckMatrix(op, X, nSamples, nFeatures); err != nil {
		return nil, err
	}

	yv, err := metrics.ColumnVector(op, y)
	if err != nil {
		return nil, err
	}
	if yv.Len() != nSamples {
		return nil, scigoErrors.NewDimensionError(op, nSamples, yv.Len(), 0)
	}
	target := make([]float64, nSamples)
	for i := range target {
		target[i] = yv.AtVec(i)
	}
	if err := scigoErrors.CheckMatrix(op, yv, nSamples, 1); err != nil {
		return nil, err
	}

	if err := scigoErrors.CheckWeights(op, sampleWeight, nSamples); err != nil {
		return nil, err
	}
	totalWeight := float64(nSamples)
	if sampleWeight != nil {
		totalWeight = floats.Sum(sampleWeight)
	}

	return &fitInput{
		X:            mat.DenseCopyOf(X),
		y:            target,
		sampleWeight: sampleWeight,
		nSamples:     nSamples,
		nFeatures:    nFeatures,
		totalWeight:  totalWeight,
	}, nil
}

// growTree builds a tree for the input with p's stopping rules, then
// prunes it when ccp_alpha is positive.
func (p *treeParams) growTree(in *fitInput, y []float64, nClass int) (*Tree, error) {
	criterion, err := NewCriterion(p.criterion, nClass)
	if err != nil {
		return nil, err
	}
	tree := NewTree(in.nFeatures, nClass)
	builder := p.newBuilder(criterion, in.nFeatures, in.totalWeight)
	if err := builder.Build(tree, in.X, y, in.sampleWeight); err != nil {
		return nil, err
	}
	if p.ccpAlpha > 0 {
		return BuildPrunedTree(tree, p.ccpAlpha)
	}
	return tree, nil
}
