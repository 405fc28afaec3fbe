package tree

import (
	"math"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// CriterionType selects an impurity measure.
type CriterionType string

const (
	Gini    CriterionType = "gini"
	Entropy CriterionType = "entropy"
	MSE     CriterionType = "mse"
)

// IsClassification reports whether the criterion works on class histograms.
func (c CriterionType) IsClassification() bool {
	return c == Gini || c == Entropy
}

// Criterion keeps the impurity statistics of one node's sample range
// [start, end) and of the split of that range at a cursor pos: samples in
// [start, pos) go left, [pos, end) go right.
//
// The samples slice is the splitter's permutation and is read, never
// written. It must not be modified between Init and the last query.
type Criterion interface {
	// Init sums the statistics of samples[start:end] and resets the cursor.
	Init(y, sampleWeight []float64, samples []int, weightedNSamples float64, start, end int)
	// Reset moves the cursor to start (everything on the right).
	Reset()
	// ReverseReset moves the cursor to end (everything on the left).
	ReverseReset()
	// Update moves the cursor forward to newPos.
	Update(newPos int)

	NodeImpurity() float64
	ChildrenImpurity() (left, right float64)
	// ProxyImpurityImprovement ranks candidate splits of the same node.
	ProxyImpurityImprovement() float64
	// ImpurityImprovement is the weighted impurity decrease of the split,
	// comparable across nodes.
	ImpurityImprovement(impurityParent, impurityLeft, impurityRight float64) float64
	// NodeValue writes the node's prediction into dest.
	NodeValue(dest []float64)

	WeightedNNodeSamples() float64
	WeightedNLeft() float64
	WeightedNRight() float64
}

// NewCriterion builds the criterion for kind. nClasses is ignored for MSE.
func NewCriterion(kind CriterionType, nClasses int) (Criterion, error) {
	switch kind {
	case Gini:
		return newClassificationCriterion(nClasses, giniImpurity), nil
	case Entropy:
		return newClassificationCriterion(nClasses, entropyImpurity), nil
	case MSE:
		return &mseCriterion{}, nil
	default:
		return nil, scigoErrors.NewValidationError("criterion", "must be one of gini, entropy, mse", string(kind))
	}
}

// nodeRange holds the state shared by every criterion.
type nodeRange struct {
	y            []float64
	sampleWeight []float64
	samples      []int
	start, end   int
	pos          int

	weightedNSamples     float64
	weightedNNodeSamples float64
	weightedNLeft        float64
	weightedNRight       float64
}

func (r *nodeRange) bind(y, sampleWeight []float64, samples []int, weightedNSamples float64, start, end int) {
	r.y = y
	r.sampleWeight = sampleWeight
	r.samples = samples
	r.weightedNSamples = weightedNSamples
	r.start = start
	r.end = end
	r.weightedNNodeSamples = 0
}

func (r *nodeRange) weight(i int) float64 {
	if r.sampleWeight == nil {
		return 1
	}
	return r.sampleWeight[i]
}

// forward reports whether reaching newPos from pos is cheaper than
// rescanning backward from end.
func (r *nodeRange) forward(newPos int) bool {
	return newPos-r.pos <= r.end-newPos
}

func (r *nodeRange) WeightedNNodeSamples() float64 { return r.weightedNNodeSamples }
func (r *nodeRange) WeightedNLeft() float64        { return r.weightedNLeft }
func (r *nodeRange) WeightedNRight() float64       { return r.weightedNRight }

func (r *nodeRange) ImpurityImprovement(impurityParent, impurityLeft, impurityRight float64) float64 {
	return (r.weightedNNodeSamples / r.weightedNSamples) *
		(impurityParent -
			r.weightedNRight/r.weightedNNodeSamples*impurityRight -
			r.weightedNLeft/r.weightedNNodeSamples*impurityLeft)
}

func proxyImprovement(wLeft, wRight, impurityLeft, impurityRight float64) float64 {
	return -wLeft*impurityLeft - wRight*impurityRight
}

// classificationCriterion tracks weighted class histograms. Gini and
// Entropy differ only in impurityFn.
type classificationCriterion struct {
	nodeRange
	nClasses   int
	sumTotal   []float64
	sumLeft    []float64
	sumRight   []float64
	impurityFn func(counts []float64, weight float64) float64
}

func newClassificationCriterion(nClasses int, fn func([]float64, float64) float64) *classificationCriterion {
	return &classificationCriterion{
		nClasses:   nClasses,
		sumTotal:   make([]float64, nClasses),
		sumLeft:    make([]float64, nClasses),
		sumRight:   make([]float64, nClasses),
		impurityFn: fn,
	}
}

func giniImpurity(counts []float64, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	sq := 0.0
	for _, c := range counts {
		sq += c * c
	}
	return 1 - sq/(weight*weight)
}

// entropyImpurity uses the natural logarithm.
func entropyImpurity(counts []float64, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c > 0 {
			p := c / weight
			h -= p * math.Log(p)
		}
	}
	return h
}

func (c *classificationCriterion) Init(y, sampleWeight []float64, samples []int, weightedNSamples float64, start, end int) {
	c.bind(y, sampleWeight, samples, weightedNSamples, start, end)
	for k := range c.sumTotal {
		c.sumTotal[k] = 0
	}
	for p := start; p < end; p++ {
		i := samples[p]
		w := c.weight(i)
		c.sumTotal[int(y[i])] += w
		c.weightedNNodeSamples += w
	}
	c.Reset()
}

func (c *classificationCriterion) Reset() {
	c.pos = c.start
	c.weightedNLeft = 0
	c.weightedNRight = c.weightedNNodeSamples
	for k := range c.sumTotal {
		c.sumLeft[k] = 0
		c.sumRight[k] = c.sumTotal[k]
	}
}

func (c *classificationCriterion) ReverseReset() {
	c.pos = c.end
	c.weightedNLeft = c.weightedNNodeSamples
	c.weightedNRight = 0
	for k := range c.sumTotal {
		c.sumLeft[k] = c.sumTotal[k]
		c.sumRight[k] = 0
	}
}

func (c *classificationCriterion) Update(newPos int) {
	if c.forward(newPos) {
		for p := c.pos; p < newPos; p++ {
			i := c.samples[p]
			w := c.weight(i)
			c.sumLeft[int(c.y[i])] += w
			c.weightedNLeft += w
		}
	} else {
		c.ReverseReset()
		for p := c.end - 1; p >= newPos; p-- {
			i := c.samples[p]
			w := c.weight(i)
			c.sumLeft[int(c.y[i])] -= w
			c.weightedNLeft -= w
		}
	}

	c.weightedNRight = c.weightedNNodeSamples - c.weightedNLeft
	for k := range c.sumTotal {
		c.sumRight[k] = c.sumTotal[k] - c.sumLeft[k]
	}
	c.pos = newPos
}

func (c *classificationCriterion) NodeImpurity() float64 {
	return c.impurityFn(c.sumTotal, c.weightedNNodeSamples)
}

func (c *classificationCriterion) ChildrenImpurity() (float64, float64) {
	return c.impurityFn(c.sumLeft, c.weightedNLeft), c.impurityFn(c.sumRight, c.weightedNRight)
}

func (c *classificationCriterion) ProxyImpurityImprovement() float64 {
	left, right := c.ChildrenImpurity()
	return proxyImprovement(c.weightedNLeft, c.weightedNRight, left, right)
}

// NodeValue writes the weighted class counts.
func (c *classificationCriterion) NodeValue(dest []float64) {
	copy(dest, c.sumTotal)
}

// mseCriterion is variance reduction over a scalar target.
type mseCriterion struct {
	nodeRange
	sumTotal, sqSumTotal float64
	sumLeft, sqSumLeft   float64
}

func (c *mseCriterion) Init(y, sampleWeight []float64, samples []int, weightedNSamples float64, start, end int) {
	c.bind(y, sampleWeight, samples, weightedNSamples, start, end)
	c.sumTotal, c.sqSumTotal = 0, 0
	for p := start; p < end; p++ {
		i := samples[p]
		w := c.weight(i)
		wy := w * y[i]
		c.sumTotal += wy
		c.sqSumTotal += wy * y[i]
		c.weightedNNodeSamples += w
	}
	c.Reset()
}

func (c *mseCriterion) Reset() {
	c.pos = c.start
	c.weightedNLeft = 0
	c.weightedNRight = c.weightedNNodeSamples
	c.sumLeft, c.sqSumLeft = 0, 0
}

func (c *mseCriterion) ReverseReset() {
	c.pos = c.end
	c.weightedNLeft = c.weightedNNodeSamples
	c.weightedNRight = 0
	c.sumLeft, c.sqSumLeft = c.sumTotal, c.sqSumTotal
}

func (c *mseCriterion) Update(newPos int) {
	if c.forward(newPos) {
		for p := c.pos; p < newPos; p++ {
			i := c.samples[p]
			w := c.weight(i)
			c.sumLeft += w * c.y[i]
			c.sqSumLeft += w * c.y[i] * c.y[i]
			c.weightedNLeft += w
		}
	} else {
		c.ReverseReset()
		for p := c.end - 1; p >= newPos; p-- {
			i := c.samples[p]
			w := c.weight(i)
			c.sumLeft -= w * c.y[i]
			c.sqSumLeft -= w * c.y[i] * c.y[i]
			c.weightedNLeft -= w
		}
	}
	c.weightedNRight = c.weightedNNodeSamples - c.weightedNLeft
	c.pos = newPos
}

func variance(sum, sqSum, weight float64) float64 {
	if weight <= 0 {
		return 0
	}
	mean := sum / weight
	return math.Max(sqSum/weight-mean*mean, 0)
}

func (c *mseCriterion) NodeImpurity() float64 {
	return variance(c.sumTotal, c.sqSumTotal, c.weightedNNodeSamples)
}

func (c *mseCriterion) ChildrenImpurity() (float64, float64) {
	left := variance(c.sumLeft, c.sqSumLeft, c.weightedNLeft)
	right := variance(c.sumTotal-c.sumLeft, c.sqSumTotal-c.sqSumLeft, c.weightedNRight)
	return left, right
}

func (c *mseCriterion) ProxyImpurityImprovement() float64 {
	left, right := c.ChildrenImpurity()
	return proxyImprovement(c.weightedNLeft, c.weightedNRight, left, right)
}

// NodeValue writes the weighted mean target.
func (c *mseCriterion) NodeValue(dest []float64) {
	dest[0] = 0
	if c.weightedNNodeSamples > 0 {
		dest[0] = c.sumTotal / c.weightedNNodeSamples
	}
}
