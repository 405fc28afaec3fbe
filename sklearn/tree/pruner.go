package tree

import (
	"math"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
	"github.com/YuminosukeSato/scigo-cart/pkg/log"
)

// PruneController steers CostComplexityPrune.
type PruneController interface {
	// StopPruning reports whether the weakest link, with the given
	// effective alpha, should be kept.
	StopPruning(effectiveAlpha float64) bool
	// SaveMetrics observes the tree after each step. subtreeImpurity is the
	// total weighted impurity of the current leaves.
	SaveMetrics(effectiveAlpha, subtreeImpurity float64)
	// AfterPruning receives the mask of nodes that remain in the tree.
	AfterPruning(inSubtree []bool)
}

// AlphaPruner prunes every subtree whose effective alpha is at most Alpha.
// After pruning, Capacity holds the number of retained nodes.
type AlphaPruner struct {
	Alpha    float64
	Capacity int
}

// NewAlphaPruner returns a controller for ccpAlpha.
func NewAlphaPruner(ccpAlpha float64) *AlphaPruner {
	return &AlphaPruner{Alpha: ccpAlpha}
}

func (p *AlphaPruner) StopPruning(effectiveAlpha float64) bool {
	return p.Alpha < effectiveAlpha
}

func (p *AlphaPruner) SaveMetrics(float64, float64) {}

func (p *AlphaPruner) AfterPruning(inSubtree []bool) {
	for _, in := range inSubtree {
		if in {
			p.Capacity++
		}
	}
}

// PruningPath lists, for each pruning step, the effective alpha at which it
// happens and the total leaf impurity after it. The first entry is the
// unpruned tree at alpha 0; the last is the root alone.
type PruningPath struct {
	CCPAlphas  []float64 `json:"ccp_alphas"`
	Impurities []float64 `json:"impurities"`
}

// PathFinder prunes all the way to the root, recording the path.
type PathFinder struct {
	path PruningPath
}

func (p *PathFinder) StopPruning(float64) bool { return false }

func (p *PathFinder) SaveMetrics(effectiveAlpha, subtreeImpurity float64) {
	p.path.CCPAlphas = append(p.path.CCPAlphas, effectiveAlpha)
	p.path.Impurities = append(p.path.Impurities, subtreeImpurity)
}

func (p *PathFinder) AfterPruning([]bool) {}

// Path returns the recorded path.
func (p *PathFinder) Path() PruningPath { return p.path }

// CostComplexityPrune runs minimal cost-complexity pruning on tree without
// modifying it. The returned mask is true exactly for the nodes that are
// leaves of the pruned tree.
func CostComplexityPrune(tree *Tree, controller PruneController) ([]bool, error) {
	n := tree.NodeCount()
	if n == 0 {
		return nil, scigoErrors.NewValueError("CostComplexityPrune", "tree has no nodes")
	}
	nodes := tree.nodes[:n]
	totalWeight := nodes[0].WeightedNNodeSamples
	if totalWeight <= 0 {
		return nil, scigoErrors.NewValueError("CostComplexityPrune", "root has no weighted samples")
	}

	rNode := make([]float64, n)
	rBranch := make([]float64, n)
	nLeaves := make([]int, n)
	leavesInSubtree := make([]bool, n)
	inSubtree := make([]bool, n)
	candidates := make([]bool, n)

	for i := range nodes {
		rNode[i] = nodes[i].WeightedNNodeSamples * nodes[i].Impurity / totalWeight
		inSubtree[i] = true
		if nodes[i].IsLeaf() {
			leavesInSubtree[i] = true
		} else {
			candidates[i] = true
		}
	}

	// Every leaf adds its cost and a leaf count to all of its ancestors.
	for leaf := range nodes {
		if !leavesInSubtree[leaf] {
			continue
		}
		rBranch[leaf] = rNode[leaf]
		for id := leaf; id != 0; {
			parent := nodes[id].Parent
			rBranch[parent] += rNode[leaf]
			nLeaves[parent]++
			id = parent
		}
	}

	controller.SaveMetrics(0, rBranch[0])

	stack := make([]int, 0, n)
	for candidates[0] {
		weakest := -1
		effectiveAlpha := math.MaxFloat64
		for i := range nodes {
			if !candidates[i] {
				continue
			}
			alpha := (rNode[i] - rBranch[i]) / float64(nLeaves[i]-1)
			if alpha < effectiveAlpha {
				effectiveAlpha = alpha
				weakest = i
			}
		}
		if weakest < 0 || controller.StopPruning(effectiveAlpha) {
			break
		}

		stack = append(stack[:0], weakest)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !inSubtree[id] {
				continue
			}
			candidates[id] = false
			leavesInSubtree[id] = false
			inSubtree[id] = false
			if !nodes[id].IsLeaf() {
				stack = append(stack, nodes[id].LeftChild, nodes[id].RightChild)
			}
		}
		leavesInSubtree[weakest] = true
		inSubtree[weakest] = true

		removedLeaves := nLeaves[weakest] - 1
		nLeaves[weakest] = 0
		delta := rNode[weakest] - rBranch[weakest]
		rBranch[weakest] = rNode[weakest]
		for id := nodes[weakest].Parent; id != TreeUndefined; id = nodes[id].Parent {
			nLeaves[id] -= removedLeaves
			rBranch[id] += delta
		}

		controller.SaveMetrics(effectiveAlpha, rBranch[0])
	}

	controller.AfterPruning(inSubtree)
	return leavesInSubtree, nil
}

// BuildPrunedTreeByLeaves copies orig into a new tree that keeps only the
// nodes on a path from the root to a marked leaf. Ids are renumbered in the
// new tree's creation order.
func BuildPrunedTreeByLeaves(orig *Tree, leavesInSubtree []bool, capacity int) (*Tree, error) {
	if len(leavesInSubtree) != orig.NodeCount() {
		return nil, scigoErrors.NewDimensionError("BuildPrunedTreeByLeaves", orig.NodeCount(), len(leavesInSubtree), 0)
	}
	pruned := NewTree(orig.NFeature(), orig.NClass())
	if err := pruned.Resize(capacity); err != nil {
		return nil, err
	}

	type pending struct {
		origID int
		depth  int
		parent int
		isLeft bool
	}
	stack := []pending{{origID: 0, parent: TreeUndefined}}
	maxDepthSeen := 0
	for len(stack) > 0 {
		rec := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &orig.nodes[rec.origID]
		isLeaf := leavesInSubtree[rec.origID]
		if !isLeaf && node.IsLeaf() {
			return nil, scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d is a leaf but not marked", rec.origID)
		}
		id := pruned.AddNode(rec.parent, rec.isLeft, isLeaf, node.Feature, node.Threshold,
			node.Impurity, node.NNodeSamples, node.WeightedNNodeSamples, node.Value)
		if id == SizeMax {
			return nil, scigoErrors.NewCapacityError("BuildPrunedTreeByLeaves", pruned.NodeCount(), pruned.Capacity(), pruned.NodeCount()+1)
		}

		if !isLeaf {
			stack = append(stack,
				pending{origID: node.RightChild, depth: rec.depth + 1, parent: id},
				pending{origID: node.LeftChild, depth: rec.depth + 1, parent: id, isLeft: true},
			)
		}
		if rec.depth > maxDepthSeen {
			maxDepthSeen = rec.depth
		}
	}

	if err := pruned.Resize(pruned.NodeCount()); err != nil {
		return nil, err
	}
	pruned.maxDepth = maxDepthSeen
	return pruned, nil
}

// BuildPrunedTree returns a copy of orig pruned at ccpAlpha. orig is not
// modified, so it can be pruned again at other alphas.
func BuildPrunedTree(orig *Tree, ccpAlpha float64) (*Tree, error) {
	if ccpAlpha < 0 || math.IsNaN(ccpAlpha) {
		return nil, scigoErrors.NewValidationError("ccp_alpha", "must be non-negative", ccpAlpha)
	}
	controller := NewAlphaPruner(ccpAlpha)
	leaves, err := CostComplexityPrune(orig, controller)
	if err != nil {
		return nil, err
	}
	pruned, err := BuildPrunedTreeByLeaves(orig, leaves, controller.Capacity)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("tree.pruner").Debug("tree pruned",
		log.CCPAlphaKey, ccpAlpha,
		log.NodeCountKey, pruned.NodeCount(),
		log.LeavesKey, pruned.NLeaves(),
	)
	return pruned, nil
}

// CostComplexityPruningPath returns the effective alphas and leaf
// impurities of every step of pruning tree down to its root.
func CostComplexityPruningPath(tree *Tree) (PruningPath, error) {
	finder := &PathFinder{}
	if _, err := CostComplexityPrune(tree, finder); err != nil {
		return PruningPath{}, err
	}
	return finder.Path(), nil
}
