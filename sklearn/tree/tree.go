// Package tree implements CART decision trees: the flat node store, the
// impurity criteria, the best-split search, depth-first and best-first
// builders, minimal cost-complexity pruning, and the sklearn style
// DecisionTreeClassifier and DecisionTreeRegressor estimators built on them.
package tree

import (
	"context"
	"encoding/json"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-cart/core/parallel"
	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

const (
	// TreeLeaf marks an absent child. A node is a leaf iff both children are TreeLeaf.
	TreeLeaf = -1
	// TreeUndefined is the parent of the root and the feature/threshold of a leaf.
	TreeUndefined = -2
	// SizeMax is returned by AddNode when the node store cannot grow. Passed
	// to Resize it requests the default doubling policy.
	SizeMax = math.MaxInt
)

// Node is one element of the tree's flat node array.
type Node struct {
	Parent               int       `json:"parent"`
	LeftChild            int       `json:"left_child"`
	RightChild           int       `json:"right_child"`
	Feature              int       `json:"feature"`
	Threshold            float64   `json:"threshold"`
	Impurity             float64   `json:"impurity"`
	NNodeSamples         int       `json:"n_node_samples"`
	WeightedNNodeSamples float64   `json:"weighted_n_node_samples"`
	Value                []float64 `json:"value"`
	IsLeft               bool      `json:"is_left"`
}

// IsLeaf reports whether n has no children.
func (n Node) IsLeaf() bool {
	return n.LeftChild == TreeLeaf
}

// Tree is an append-only array of nodes in creation order. Node 0 is the
// root and every node's parent has a smaller id.
//
// Node storage may move when the tree grows. Callers must not keep a
// *Node across AddNode; use ids instead.
type Tree struct {
	nFeature int
	nClass   int
	maxDepth int

	nodes       []Node
	nodeCount   int
	capacity    int
	maxCapacity int
}

// NewTree creates an empty tree for nFeature inputs. nClass is the width
// of each node's Value: the number of classes, or 1 for regression.
func NewTree(nFeature, nClass int) *Tree {
	return &Tree{nFeature: nFeature, nClass: nClass}
}

// NFeature returns the number of input features.
func (t *Tree) NFeature() int { return t.nFeature }

// NClass returns the width of node values.
func (t *Tree) NClass() int { return t.nClass }

// MaxDepth returns the depth of the deepest node (root = 0).
func (t *Tree) MaxDepth() int { return t.maxDepth }

// NodeCount returns the number of nodes in the tree.
func (t *Tree) NodeCount() int { return t.nodeCount }

// Capacity returns the allocated node slots.
func (t *Tree) Capacity() int { return t.capacity }

// SetMaxCapacity caps how far the node store may grow. Zero removes the cap.
func (t *Tree) SetMaxCapacity(n int) { t.maxCapacity = n }

// Node returns a copy of node id.
func (t *Tree) Node(id int) Node {
	return t.nodes[id]
}

// Nodes returns a copy of the live nodes.
func (t *Tree) Nodes() []Node {
	out := make([]Node, t.nodeCount)
	copy(out, t.nodes[:t.nodeCount])
	return out
}

// Resize sets the allocated capacity. SizeMax doubles the current
// capacity (3 when empty). Capacity never drops below NodeCount and never
// exceeds the ceiling set by SetMaxCapacity.
func (t *Tree) Resize(capacity int) error {
	if capacity == SizeMax {
		if t.capacity == 0 {
			capacity = 3
		} else {
			capacity = 2 * t.capacity
		}
	}
	if t.maxCapacity > 0 && capacity > t.maxCapacity {
		if t.capacity >= t.maxCapacity && t.nodeCount >= t.capacity {
			return scigoErrors.NewCapacityError("Tree.Resize", t.nodeCount, t.capacity, capacity)
		}
		capacity = t.maxCapacity
	}
	if capacity < t.nodeCount {
		capacity = t.nodeCount
	}
	if capacity == t.capacity {
		return nil
	}

	nodes := make([]Node, capacity)
	copy(nodes, t.nodes[:t.nodeCount])
	t.nodes = nodes
	t.capacity = capacity
	return nil
}

// AddNode appends a node and links it into its parent. Leaves get
// TreeUndefined feature and threshold. Internal nodes start with TreeLeaf
// children until their own children are added. Returns the new id, or
// SizeMax if the store could not grow.
func (t *Tree) AddNode(parent int, isLeft, isLeaf bool, feature int, threshold, impurity float64,
	nNodeSamples int, weightedNNodeSamples float64, value []float64) int {
	if t.nodeCount >= t.capacity {
		if err := t.Resize(SizeMax); err != nil || t.nodeCount >= t.capacity {
			return SizeMax
		}
	}

	id := t.nodeCount
	node := &t.nodes[id]
	node.Parent = parent
	node.IsLeft = isLeft
	node.Impurity = impurity
	node.NNodeSamples = nNodeSamples
	node.WeightedNNodeSamples = weightedNNodeSamples
	node.LeftChild = TreeLeaf
	node.RightChild = TreeLeaf
	node.Value = make([]float64, t.nClass)
	copy(node.Value, value)

	if parent != TreeUndefined {
		if isLeft {
			t.nodes[parent].LeftChild = id
		} else {
			t.nodes[parent].RightChild = id
		}
	}

	if isLeaf {
		node.Feature = TreeUndefined
		node.Threshold = TreeUndefined
	} else {
		node.Feature = feature
		node.Threshold = threshold
	}

	t.nodeCount++
	return id
}

// markLeaf turns a node added as internal, but never expanded, into a leaf.
func (t *Tree) markLeaf(id int) {
	node := &t.nodes[id]
	node.Feature = TreeUndefined
	node.Threshold = TreeUndefined
}

// NLeaves counts leaf nodes.
func (t *Tree) NLeaves() int {
	n := 0
	for i := 0; i < t.nodeCount; i++ {
		if t.nodes[i].IsLeaf() {
			n++
		}
	}
	return n
}

func (t *Tree) checkInput(op string, X mat.Matrix) (int, error) {
	if t.nodeCount == 0 {
		return 0, scigoErrors.NewValueError(op, "tree has no nodes")
	}
	r, c := X.Dims()
	if c != t.nFeature {
		return 0, scigoErrors.NewDimensionError(op, t.nFeature, c, 1)
	}
	return r, nil
}

// leafOf walks sample i of X from the root to its leaf. A sample goes left
// iff X[i, feature] <= threshold.
func (t *Tree) leafOf(X mat.Matrix, i int) int {
	id := 0
	for {
		node := &t.nodes[id]
		if node.IsLeaf() {
			return id
		}
		if X.At(i, node.Feature) <= node.Threshold {
			id = node.LeftChild
		} else {
			id = node.RightChild
		}
	}
}

// Apply returns the leaf id reached by each sample.
func (t *Tree) Apply(X mat.Matrix) ([]int, error) {
	n, err := t.checkInput("Tree.Apply", X)
	if err != nil {
		return nil, err
	}
	out := make([]int, n)
	err = parallel.ParallelizeWithThreshold(context.Background(), n, parallel.DefaultThreshold,
		func(_ context.Context, start, end int) error {
			for i := start; i < end; i++ {
				out[i] = t.leafOf(X, i)
			}
			return nil
		})
	return out, err
}

// Predict returns, per sample, the Value of the leaf it reaches.
// The result has NClass columns.
func (t *Tree) Predict(X mat.Matrix) (*mat.Dense, error) {
	leaves, err := t.Apply(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(leaves), t.nClass, nil)
	for i, leaf := range leaves {
		out.SetRow(i, t.nodes[leaf].Value)
	}
	return out, nil
}

// DecisionPath returns the node ids visited by each sample, root first
// and leaf last.
func (t *Tree) DecisionPath(X mat.Matrix) ([][]int, error) {
	n, err := t.checkInput("Tree.DecisionPath", X)
	if err != nil {
		return nil, err
	}
	paths := make([][]int, n)
	err = parallel.ParallelizeWithThreshold(context.Background(), n, parallel.DefaultThreshold,
		func(_ context.Context, start, end int) error {
			for i := start; i < end; i++ {
				path := make([]int, 0, t.maxDepth+1)
				id := 0
				for {
					path = append(path, id)
					node := &t.nodes[id]
					if node.IsLeaf() {
						break
					}
					if X.At(i, node.Feature) <= node.Threshold {
						id = node.LeftChild
					} else {
						id = node.RightChild
					}
				}
				paths[i] = path
			}
			return nil
		})
	return paths, err
}

// DecisionPathMatrix is DecisionPath as an indicator matrix: entry (i, j)
// is 1 iff sample i passes through node j.
func (t *Tree) DecisionPathMatrix(X mat.Matrix) (*mat.Dense, error) {
	paths, err := t.DecisionPath(X)
	if err != nil {
		return nil, err
	}
	out := mat.NewDense(len(paths), t.nodeCount, nil)
	for i, path := range paths {
		for _, id := range path {
			out.Set(i, id, 1)
		}
	}
	return out, nil
}

// ComputeFeatureImportance returns the total weighted impurity decrease
// contributed by each feature, divided by the root's weighted sample count.
// With normalize the result is scaled to sum to 1 unless it is all zero.
func (t *Tree) ComputeFeatureImportance(normalize bool) []float64 {
	importances := make([]float64, t.nFeature)
	if t.nodeCount == 0 {
		return importances
	}

	for i := 0; i < t.nodeCount; i++ {
		node := &t.nodes[i]
		if node.IsLeaf() {
			continue
		}
		left := &t.nodes[node.LeftChild]
		right := &t.nodes[node.RightChild]
		importances[node.Feature] += node.WeightedNNodeSamples*node.Impurity -
			left.WeightedNNodeSamples*left.Impurity -
			right.WeightedNNodeSamples*right.Impurity
	}
	floats.Scale(1/t.nodes[0].WeightedNNodeSamples, importances)

	if normalize {
		if sum := floats.Sum(importances); sum > 0 {
			floats.Scale(1/sum, importances)
		}
	}
	return importances
}

// computeMaxDepth derives the depth of the deepest node from parent links.
func (t *Tree) computeMaxDepth() int {
	if t.nodeCount == 0 {
		return 0
	}
	depth := make([]int, t.nodeCount)
	maxDepth := 0
	for i := 1; i < t.nodeCount; i++ {
		depth[i] = depth[t.nodes[i].Parent] + 1
		if depth[i] > maxDepth {
			maxDepth = depth[i]
		}
	}
	return maxDepth
}

// Validate checks the structural invariants: node 0 is the root, parents
// precede children, child links agree with parent links, leaves have both
// children unset, and internal sample counts add up.
func (t *Tree) Validate() error {
	if t.nodeCount == 0 {
		return nil
	}
	if t.nodes[0].Parent != TreeUndefined {
		return scigoErrors.Wrap(scigoErrors.ErrCorruptTree, "root has a parent")
	}
	for i := 0; i < t.nodeCount; i++ {
		node := &t.nodes[i]
		if len(node.Value) != t.nClass {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: value has %d entries, want %d", i, len(node.Value), t.nClass)
		}
		if i > 0 && (node.Parent < 0 || node.Parent >= i) {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: parent %d not created earlier", i, node.Parent)
		}
		if (node.LeftChild == TreeLeaf) != (node.RightChild == TreeLeaf) {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: exactly one child set", i)
		}
		if node.IsLeaf() {
			continue
		}
		if node.Feature < 0 || node.Feature >= t.nFeature {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: feature %d out of range", i, node.Feature)
		}
		for _, c := range []int{node.LeftChild, node.RightChild} {
			if c <= i || c >= t.nodeCount || t.nodes[c].Parent != i {
				return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: bad child link %d", i, c)
			}
		}
		if !t.nodes[node.LeftChild].IsLeft || t.nodes[node.RightChild].IsLeft {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: children have wrong side flags", i)
		}
		if node.NNodeSamples != t.nodes[node.LeftChild].NNodeSamples+t.nodes[node.RightChild].NNodeSamples {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node %d: sample counts do not add up", i)
		}
	}
	return nil
}

type treeJSON struct {
	NodeCount int    `json:"node_count"`
	Capacity  int    `json:"capacity"`
	MaxDepth  int    `json:"max_depth"`
	NFeature  int    `json:"n_feature"`
	NClass    int    `json:"n_class"`
	Nodes     []Node `json:"nodes"`
}

// MarshalJSON encodes the live nodes and scalar metadata.
func (t *Tree) MarshalJSON() ([]byte, error) {
	return json.Marshal(treeJSON{
		NodeCount: t.nodeCount,
		Capacity:  t.capacity,
		MaxDepth:  t.maxDepth,
		NFeature:  t.nFeature,
		NClass:    t.nClass,
		Nodes:     t.nodes[:t.nodeCount],
	})
}

// UnmarshalJSON decodes a tree written by MarshalJSON and validates it.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var raw treeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return scigoErrors.Wrap(err, "decode tree")
	}
	if raw.NodeCount != len(raw.Nodes) {
		return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "node_count %d but %d nodes", raw.NodeCount, len(raw.Nodes))
	}
	capacity := raw.Capacity
	if capacity < raw.NodeCount {
		capacity = raw.NodeCount
	}

	decoded := Tree{
		nFeature:  raw.NFeature,
		nClass:    raw.NClass,
		maxDepth:  raw.MaxDepth,
		nodes:     make([]Node, capacity),
		nodeCount: raw.NodeCount,
		capacity:  capacity,
	}
	copy(decoded.nodes, raw.Nodes)
	if err := decoded.Validate(); err != nil {
		return err
	}
	*t = decoded
	return nil
}
