package tree

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// FeatureThreshold is the tolerance below which two feature values are
// treated as equal.
const FeatureThreshold = 1e-7

// SplitRecord describes the best split found for one node.
type SplitRecord struct {
	Feature       int
	Threshold     float64
	Pos           int
	ImpurityLeft  float64
	ImpurityRight float64
	Improvement   float64
}

// noSplit is the record returned when no admissible split exists.
func noSplit(end int) SplitRecord {
	return SplitRecord{
		Feature:       TreeUndefined,
		Threshold:     TreeUndefined,
		Pos:           end,
		ImpurityLeft:  math.Inf(1),
		ImpurityRight: math.Inf(1),
		Improvement:   math.Inf(-1),
	}
}

// BestSplitter searches every drawn feature for the threshold with the
// best proxy improvement.
//
// The samples array is a permutation of the usable sample ids. Each node
// owns a contiguous range of it, and NodeSplit partitions that range in
// place so that the children own [start, pos) and [pos, end).
//
// The features array holds three zones for the current node:
//
//	[0, nKnown)          constant in an ancestor, never re-examined
//	[nKnown, nTotal)     found constant while splitting this node
//	[nTotal, nFeatures)  not yet proven constant
type BestSplitter struct {
	criterion      Criterion
	maxFeatures    int
	minSamplesLeaf int
	minWeightLeaf  float64
	rng            *rand.Rand

	// columns holds X feature-major: columns[f*nSamplesTotal+i] is X[i, f].
	columns       []float64
	nSamplesTotal int
	y             []float64
	sampleWeight  []float64

	samples          []int
	weightedNSamples float64

	features         []int
	constantFeatures []int
	featureValues    []float64

	start, end int
}

// NewBestSplitter creates a splitter. maxFeatures <= 0 examines every
// feature. A nil rng uses a fixed seed of 0.
func NewBestSplitter(criterion Criterion, maxFeatures, minSamplesLeaf int, minWeightLeaf float64, rng *rand.Rand) *BestSplitter {
	if rng == nil {
		rng = rand.New(rand.NewSource(0))
	}
	return &BestSplitter{
		criterion:      criterion,
		maxFeatures:    maxFeatures,
		minSamplesLeaf: minSamplesLeaf,
		minWeightLeaf:  minWeightLeaf,
		rng:            rng,
	}
}

// Init prepares the working set for one build. Samples with zero weight are
// left out of the permutation.
func (s *BestSplitter) Init(X mat.Matrix, y, sampleWeight []float64) error {
	n, nFeatures := X.Dims()
	if len(y) != n {
		return scigoErrors.NewDimensionError("BestSplitter.Init", n, len(y), 0)
	}
	if sampleWeight != nil && len(sampleWeight) != n {
		return scigoErrors.NewDimensionError("BestSplitter.Init", n, len(sampleWeight), 0)
	}

	s.samples = s.samples[:0]
	s.weightedNSamples = 0
	for i := 0; i < n; i++ {
		w := 1.0
		if sampleWeight != nil {
			w = sampleWeight[i]
		}
		if w == 0 {
			continue
		}
		s.samples = append(s.samples, i)
		s.weightedNSamples += w
	}
	if len(s.samples) == 0 {
		return scigoErrors.Wrap(scigoErrors.ErrEmptyData, "no samples with positive weight")
	}

	s.nSamplesTotal = n
	s.columns = make([]float64, n*nFeatures)
	for f := 0; f < nFeatures; f++ {
		mat.Col(s.columns[f*n:(f+1)*n], f, X)
	}

	if s.maxFeatures <= 0 || s.maxFeatures > nFeatures {
		s.maxFeatures = nFeatures
	}
	s.features = make([]int, nFeatures)
	for f := range s.features {
		s.features[f] = f
	}
	s.constantFeatures = make([]int, nFeatures)
	s.featureValues = make([]float64, len(s.samples))
	s.y = y
	s.sampleWeight = sampleWeight
	return nil
}

// NSamples returns the number of samples in the permutation.
func (s *BestSplitter) NSamples() int { return len(s.samples) }

// WeightedNSamples returns the total weight of the permutation.
func (s *BestSplitter) WeightedNSamples() float64 { return s.weightedNSamples }

// Samples exposes the current sample permutation. Callers must not modify it.
func (s *BestSplitter) Samples() []int { return s.samples }

// NodeReset points the criterion at samples[start:end] and returns the
// node's weighted sample count.
func (s *BestSplitter) NodeReset(start, end int) float64 {
	s.start, s.end = start, end
	s.criterion.Init(s.y, s.sampleWeight, s.samples, s.weightedNSamples, start, end)
	return s.criterion.WeightedNNodeSamples()
}

// NodeImpurity returns the impurity of the current node.
func (s *BestSplitter) NodeImpurity() float64 {
	return s.criterion.NodeImpurity()
}

// NodeValue writes the current node's prediction into dest.
func (s *BestSplitter) NodeValue(dest []float64) {
	s.criterion.NodeValue(dest)
}

func (s *BestSplitter) column(f int) []float64 {
	return s.columns[f*s.nSamplesTotal : (f+1)*s.nSamplesTotal]
}

// NodeSplit finds the best split of the current node. nConstantFeatures is
// the number of features already known to be constant here. It returns the
// split and the updated constant count for the children. When no split is
// admissible the record has Pos == end and Feature == TreeUndefined, and
// the sample order is left unspecified but within the node's range.
func (s *BestSplitter) NodeSplit(impurity float64, nConstantFeatures int) (SplitRecord, int) {
	samples := s.samples
	features := s.features
	constantFeatures := s.constantFeatures
	xf := s.featureValues
	start, end := s.start, s.end
	nFeatures := len(features)

	best := noSplit(end)
	bestProxy := math.Inf(-1)

	fi := nFeatures
	nKnown := nConstantFeatures
	nTotal := nKnown
	nFound := 0
	nDrawn := 0
	nVisited := 0

	for fi > nTotal && (nVisited < s.maxFeatures || nVisited <= nFound+nDrawn) {
		nVisited++

		// Draw from [nDrawn, fi - nFound), then shift past the
		// features found constant at this node.
		fj := nDrawn + s.rng.Intn(fi-nFound-nDrawn)

		if fj < nKnown {
			features[nDrawn], features[fj] = features[fj], features[nDrawn]
			nDrawn++
			continue
		}
		fj += nFound

		col := s.column(features[fj])
		for p := start; p < end; p++ {
			xf[p-start] = col[samples[p]]
		}
		nodeXf := xf[:end-start]
		sortColumn(nodeXf, samples[start:end])

		if nodeXf[len(nodeXf)-1] <= nodeXf[0]+FeatureThreshold {
			features[fj], features[nTotal] = features[nTotal], features[fj]
			nFound++
			nTotal++
			continue
		}

		fi--
		features[fi], features[fj] = features[fj], features[fi]
		feature := features[fi]

		s.criterion.Reset()
		p := start
		for p < end {
			for p+1 < end && xf[p+1-start] <= xf[p-start]+FeatureThreshold {
				p++
			}
			p++
			if p >= end {
				break
			}

			if p-start < s.minSamplesLeaf || end-p < s.minSamplesLeaf {
				continue
			}
			s.criterion.Update(p)
			if s.criterion.WeightedNLeft() < s.minWeightLeaf || s.criterion.WeightedNRight() < s.minWeightLeaf {
				continue
			}

			proxy := s.criterion.ProxyImpurityImprovement()
			if proxy > bestProxy {
				bestProxy = proxy
				lo, hi := xf[p-1-start], xf[p-start]
				threshold := lo/2 + hi/2
				if threshold == hi || math.IsInf(threshold, 0) || math.IsNaN(threshold) {
					threshold = lo
				}
				best.Feature = feature
				best.Pos = p
				best.Threshold = threshold
			}
		}
	}

	if best.Pos < end {
		col := s.column(best.Feature)
		p, partitionEnd := start, end
		for p < partitionEnd {
			if col[samples[p]] <= best.Threshold {
				p++
			} else {
				partitionEnd--
				samples[p], samples[partitionEnd] = samples[partitionEnd], samples[p]
			}
		}

		s.criterion.Reset()
		s.criterion.Update(best.Pos)
		best.ImpurityLeft, best.ImpurityRight = s.criterion.ChildrenImpurity()
		best.Improvement = s.criterion.ImpurityImprovement(impurity, best.ImpurityLeft, best.ImpurityRight)
	}

	// Children see the known constants in their original order followed
	// by the ones found here.
	copy(features[:nKnown], constantFeatures[:nKnown])
	copy(constantFeatures[nKnown:nTotal], features[nKnown:nTotal])

	return best, nTotal
}
