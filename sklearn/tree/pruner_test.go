package tree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

func TestPruneAlphaZeroKeepsFullTree(t *testing.T) {
	X, y := alternatingData(15)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 0)
	require.Equal(t, 15, tree.NLeaves())

	pruned, err := BuildPrunedTree(tree, 0)
	require.NoError(t, err)
	assert.Equal(t, tree.Nodes(), pruned.Nodes())
	assert.Equal(t, tree.MaxDepth(), pruned.MaxDepth())
}

func TestPruneLargeAlphaCollapsesToRoot(t *testing.T) {
	X, y := alternatingData(15)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 0)

	path, err := CostComplexityPruningPath(tree)
	require.NoError(t, err)
	rootAlpha := path.CCPAlphas[len(path.CCPAlphas)-1]

	pruned, err := BuildPrunedTree(tree, rootAlpha+1e-3)
	require.NoError(t, err)
	assert.Equal(t, 1, pruned.NodeCount())
	assert.Equal(t, 0, pruned.MaxDepth())

	root := pruned.Node(0)
	assert.True(t, root.IsLeaf())
	assert.Equal(t, TreeUndefined, root.Parent)
	assert.Equal(t, tree.Node(0).Value, root.Value)
	assert.Equal(t, 15, root.NNodeSamples)
}

func TestPruneDoesNotModifyOriginal(t *testing.T) {
	X, y := randomData(3, 120, 4, 2)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 1)
	before := tree.Nodes()

	_, err := BuildPrunedTree(tree, 0.01)
	require.NoError(t, err)
	assert.Equal(t, before, tree.Nodes())
}

func TestPruneMonotonicAndIdempotent(t *testing.T) {
	X, y := randomData(8, 150, 4, 3)
	tree := buildClassificationTree(t, X, y, 3, defaultBuildParams(), 2)

	prevLeaves := math.MaxInt
	for _, alpha := range []float64{0.0013, 0.0037, 0.0071, 0.013, 0.027, 0.063, 1} {
		pruned, err := BuildPrunedTree(tree, alpha)
		require.NoError(t, err)
		assertTreeInvariants(t, pruned, math.MaxInt32)
		assert.LessOrEqual(t, pruned.NLeaves(), prevLeaves, "alpha %v", alpha)
		prevLeaves = pruned.NLeaves()

		again, err := BuildPrunedTree(pruned, alpha)
		require.NoError(t, err)
		assert.Equal(t, pruned.Nodes(), again.Nodes(), "alpha %v", alpha)
	}
}

func TestPrunedTreeKeepsSplitsAndRenumbers(t *testing.T) {
	X, y := randomData(21, 100, 3, 2)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 4)
	path, err := CostComplexityPruningPath(tree)
	require.NoError(t, err)
	pruned, err := BuildPrunedTree(tree, path.CCPAlphas[len(path.CCPAlphas)/2])
	require.NoError(t, err)
	require.Less(t, pruned.NodeCount(), tree.NodeCount())

	// Every sample lands in a pruned leaf whose counts match the matching
	// node of the original tree on the same path.
	prunedPaths, err := pruned.DecisionPath(X)
	require.NoError(t, err)
	origPaths, err := tree.DecisionPath(X)
	require.NoError(t, err)
	for i := range prunedPaths {
		p := prunedPaths[i]
		require.LessOrEqual(t, len(p), len(origPaths[i]))
		leaf := pruned.Node(p[len(p)-1])
		orig := tree.Node(origPaths[i][len(p)-1])
		assert.Equal(t, orig.NNodeSamples, leaf.NNodeSamples)
		assert.Equal(t, orig.Value, leaf.Value)
	}
}

func TestCostComplexityPruneMask(t *testing.T) {
	X, y := alternatingData(15)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 0)

	controller := NewAlphaPruner(0)
	leaves, err := CostComplexityPrune(tree, controller)
	require.NoError(t, err)
	require.Len(t, leaves, tree.NodeCount())
	for i, isLeaf := range leaves {
		assert.Equal(t, tree.Node(i).IsLeaf(), isLeaf)
	}
	assert.Equal(t, tree.NodeCount(), controller.Capacity)

	controller = NewAlphaPruner(math.MaxFloat64)
	leaves, err = CostComplexityPrune(tree, controller)
	require.NoError(t, err)
	assert.True(t, leaves[0])
	assert.Equal(t, 1, controller.Capacity)
	for _, isLeaf := range leaves[1:] {
		assert.False(t, isLeaf)
	}
}

func TestCostComplexityPruningPath(t *testing.T) {
	X, y := randomData(13, 120, 3, 2)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 6)

	path, err := CostComplexityPruningPath(tree)
	require.NoError(t, err)
	require.Equal(t, len(path.CCPAlphas), len(path.Impurities))
	require.GreaterOrEqual(t, len(path.CCPAlphas), 2)

	assert.Equal(t, 0.0, path.CCPAlphas[0])
	for i := 1; i < len(path.CCPAlphas); i++ {
		assert.GreaterOrEqual(t, path.CCPAlphas[i], path.CCPAlphas[i-1]-1e-12)
		assert.GreaterOrEqual(t, path.Impurities[i], path.Impurities[i-1]-1e-12)
	}
	root := tree.Node(0)
	assert.InDelta(t, root.Impurity, path.Impurities[len(path.Impurities)-1], 1e-9)
}

func TestBuildPrunedTreeRejectsNegativeAlpha(t *testing.T) {
	X, y := alternatingData(4)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 0)

	_, err := BuildPrunedTree(tree, -0.1)
	var ve *scigoErrors.ValidationError
	require.True(t, scigoErrors.As(err, &ve))
	assert.Equal(t, "ccp_alpha", ve.ParamName)
}

func TestBuildPrunedTreeByLeavesChecksMask(t *testing.T) {
	X, y := alternatingData(4)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 0)

	_, err := BuildPrunedTreeByLeaves(tree, []bool{true}, 1)
	assert.Error(t, err)
}

func TestPruningPathEffectiveAlpha(t *testing.T) {
	// A two-leaf subtree collapses once alpha reaches R(node) - R(branch).
	path, err := CostComplexityPruningPath(stumpTree(t))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.5}, path.CCPAlphas, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.5}, path.Impurities, 1e-12)

	// root -> (leaf, split -> (leaf, leaf)): the root's gain is spread over
	// the two leaves it removes, so it is weaker than its child.
	tree := NewTree(1, 2)
	root := tree.AddNode(TreeUndefined, false, false, 0, 0.5, 0.375, 4, 4, []float64{3, 1})
	tree.AddNode(root, true, true, 0, 0, 0, 2, 2, []float64{2, 0})
	right := tree.AddNode(root, false, false, 0, 1.5, 0.5, 2, 2, []float64{1, 1})
	tree.AddNode(right, true, true, 0, 0, 0, 1, 1, []float64{1, 0})
	tree.AddNode(right, false, true, 0, 0, 0, 1, 1, []float64{0, 1})

	path, err = CostComplexityPruningPath(tree)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0.1875}, path.CCPAlphas, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.375}, path.Impurities, 1e-12)
}
