package tree

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
	"github.com/YuminosukeSato/scigo-cart/pkg/log"
)

const (
	// Epsilon is the impurity at or below which a node counts as pure.
	Epsilon = 1e-10
	// DefaultInitCapacity is the initial node capacity for deep or
	// unbounded trees.
	DefaultInitCapacity = 2047

	initialStackCapacity = 10
)

// Splitter is what the builders need from a split search.
type Splitter interface {
	Init(X mat.Matrix, y, sampleWeight []float64) error
	NSamples() int
	NodeReset(start, end int) float64
	NodeImpurity() float64
	NodeValue(dest []float64)
	NodeSplit(impurity float64, nConstantFeatures int) (SplitRecord, int)
}

// TreeBuilder grows a tree from training data.
type TreeBuilder interface {
	Build(tree *Tree, X mat.Matrix, y, sampleWeight []float64) error
}

// BuildParams holds the stopping rules shared by the builders.
type BuildParams struct {
	MaxDepth            int
	MinSamplesSplit     int
	MinSamplesLeaf      int
	MinWeightLeaf       float64
	MinImpurityDecrease float64
	// MaxLeafNodes is only used by BestFirstTreeBuilder.
	MaxLeafNodes int
}

// initialCapacity sizes the node array for a full tree of maxDepth, capped
// at DefaultInitCapacity.
func initialCapacity(maxDepth int) int {
	if maxDepth <= 10 {
		return (1 << (maxDepth + 1)) - 1
	}
	return DefaultInitCapacity
}

// structuralLeaf applies the stopping rules that do not need a split search.
func (p BuildParams) structuralLeaf(depth, nNodeSamples int, weightedNNodeSamples float64) bool {
	return depth >= p.MaxDepth ||
		nNodeSamples < p.MinSamplesSplit ||
		nNodeSamples < 2*p.MinSamplesLeaf ||
		weightedNNodeSamples < 2*p.MinWeightLeaf
}

func logBuild(builder string, tree *Tree, started time.Time) {
	logger := log.GetLoggerWithName("tree.builder")
	logger.Debug("tree built",
		log.BuilderKey, builder,
		log.NodeCountKey, tree.NodeCount(),
		log.LeavesKey, tree.NLeaves(),
		log.DepthKey, tree.MaxDepth(),
		log.DurationMsKey, time.Since(started).Milliseconds(),
	)
}

// DepthFirstTreeBuilder grows the tree in pre-order from an explicit stack.
type DepthFirstTreeBuilder struct {
	splitter Splitter
	params   BuildParams
}

// NewDepthFirstTreeBuilder returns a depth-first builder.
func NewDepthFirstTreeBuilder(splitter Splitter, params BuildParams) *DepthFirstTreeBuilder {
	return &DepthFirstTreeBuilder{splitter: splitter, params: params}
}

// Build fills tree, which must be empty. Running out of node capacity
// aborts the build with a CapacityError.
func (b *DepthFirstTreeBuilder) Build(tree *Tree, X mat.Matrix, y, sampleWeight []float64) error {
	started := time.Now()
	if err := tree.Resize(initialCapacity(b.params.MaxDepth)); err != nil {
		return err
	}
	splitter := b.splitter
	if err := splitter.Init(X, y, sampleWeight); err != nil {
		return err
	}

	value := make([]float64, tree.NClass())
	stack := NewStack(initialStackCapacity)
	stack.Push(StackRecord{
		Start:    0,
		End:      splitter.NSamples(),
		Depth:    0,
		Parent:   TreeUndefined,
		Impurity: math.Inf(1),
	})

	first := true
	maxDepthSeen := 0
	for !stack.IsEmpty() {
		rec := stack.Pop()
		nNodeSamples := rec.End - rec.Start
		weighted := splitter.NodeReset(rec.Start, rec.End)

		isLeaf := b.params.structuralLeaf(rec.Depth, nNodeSamples, weighted)

		impurity := rec.Impurity
		if first {
			impurity = splitter.NodeImpurity()
			first = false
		}
		isLeaf = isLeaf || impurity <= Epsilon

		split := noSplit(rec.End)
		nConstant := rec.NConstantFeatures
		if !isLeaf {
			split, nConstant = splitter.NodeSplit(impurity, rec.NConstantFeatures)
			isLeaf = split.Pos >= rec.End || split.Improvement+Epsilon < b.params.MinImpurityDecrease
		}

		splitter.NodeValue(value)
		id := tree.AddNode(rec.Parent, rec.IsLeft, isLeaf, split.Feature, split.Threshold,
			impurity, nNodeSamples, weighted, value)
		if id == SizeMax {
			return scigoErrors.NewCapacityError("DepthFirstTreeBuilder.Build", tree.NodeCount(), tree.Capacity(), tree.NodeCount()+1)
		}

		if !isLeaf {
			stack.Push(StackRecord{
				Start:             split.Pos,
				End:               rec.End,
				Depth:             rec.Depth + 1,
				Parent:            id,
				IsLeft:            false,
				Impurity:          split.ImpurityRight,
				NConstantFeatures: nConstant,
			})
			stack.Push(StackRecord{
				Start:             rec.Start,
				End:               split.Pos,
				Depth:             rec.Depth + 1,
				Parent:            id,
				IsLeft:            true,
				Impurity:          split.ImpurityLeft,
				NConstantFeatures: nConstant,
			})
		}

		if rec.Depth > maxDepthSeen {
			maxDepthSeen = rec.Depth
		}
	}

	if err := tree.Resize(tree.NodeCount()); err != nil {
		return err
	}
	tree.maxDepth = maxDepthSeen
	logBuild("depth_first", tree, started)
	return nil
}

// BestFirstTreeBuilder always expands the frontier node whose split has the
// largest impurity improvement, stopping at MaxLeafNodes leaves.
type BestFirstTreeBuilder struct {
	splitter Splitter
	params   BuildParams
}

// NewBestFirstTreeBuilder returns a best-first builder. params.MaxLeafNodes
// must be at least 2.
func NewBestFirstTreeBuilder(splitter Splitter, params BuildParams) *BestFirstTreeBuilder {
	return &BestFirstTreeBuilder{splitter: splitter, params: params}
}

// Build fills tree, which must be empty.
func (b *BestFirstTreeBuilder) Build(tree *Tree, X mat.Matrix, y, sampleWeight []float64) error {
	started := time.Now()
	splitter := b.splitter
	if err := splitter.Init(X, y, sampleWeight); err != nil {
		return err
	}

	maxSplitNodes := b.params.MaxLeafNodes - 1
	if err := tree.Resize(maxSplitNodes + b.params.MaxLeafNodes); err != nil {
		return err
	}

	value := make([]float64, tree.NClass())
	queue := NewPriorityHeap(b.params.MaxLeafNodes)

	root, err := b.addSplitNode(tree, value, 0, splitter.NSamples(), math.Inf(1), true, false, TreeUndefined, 0)
	if err != nil {
		return err
	}
	queue.Push(root)

	maxDepthSeen := 0
	for !queue.IsEmpty() {
		rec := queue.Pop()

		if rec.IsLeaf || maxSplitNodes <= 0 {
			tree.markLeaf(rec.NodeID)
		} else {
			maxSplitNodes--
			left, err := b.addSplitNode(tree, value, rec.Start, rec.Pos, rec.ImpurityLeft, false, true, rec.NodeID, rec.Depth+1)
			if err != nil {
				return err
			}
			right, err := b.addSplitNode(tree, value, rec.Pos, rec.End, rec.ImpurityRight, false, false, rec.NodeID, rec.Depth+1)
			if err != nil {
				return err
			}
			queue.Push(left)
			queue.Push(right)
		}

		if rec.Depth > maxDepthSeen {
			maxDepthSeen = rec.Depth
		}
	}

	if err := tree.Resize(tree.NodeCount()); err != nil {
		return err
	}
	tree.maxDepth = maxDepthSeen
	logBuild("best_first", tree, started)
	return nil
}

// addSplitNode adds the node for samples[start:end] and, unless it is a
// leaf, searches its split eagerly so the heap can rank it.
func (b *BestFirstTreeBuilder) addSplitNode(tree *Tree, value []float64, start, end int, impurity float64,
	isFirst, isLeft bool, parent, depth int) (FrontierRecord, error) {
	splitter := b.splitter
	nNodeSamples := end - start
	weighted := splitter.NodeReset(start, end)
	if isFirst {
		impurity = splitter.NodeImpurity()
	}

	isLeaf := b.params.structuralLeaf(depth, nNodeSamples, weighted) || impurity <= Epsilon

	split := noSplit(end)
	if !isLeaf {
		split, _ = splitter.NodeSplit(impurity, 0)
		isLeaf = split.Pos >= end || split.Improvement+Epsilon < b.params.MinImpurityDecrease
	}

	splitter.NodeValue(value)
	id := tree.AddNode(parent, isLeft, isLeaf, split.Feature, split.Threshold, impurity, nNodeSamples, weighted, value)
	if id == SizeMax {
		return FrontierRecord{}, scigoErrors.NewCapacityError("BestFirstTreeBuilder.Build", tree.NodeCount(), tree.Capacity(), tree.NodeCount()+1)
	}

	rec := FrontierRecord{
		NodeID:   id,
		Start:    start,
		End:      end,
		Depth:    depth,
		Impurity: impurity,
	}
	if isLeaf {
		rec.IsLeaf = true
		rec.Pos = end
		rec.ImpurityLeft = impurity
		rec.ImpurityRight = impurity
		return rec, nil
	}
	rec.Pos = split.Pos
	rec.Improvement = split.Improvement
	rec.ImpurityLeft = split.ImpurityLeft
	rec.ImpurityRight = split.ImpurityRight
	return rec, nil
}
