package tree

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// ExportText renders tree as indented decision rules:
//
//	|--- feature_0 <= 5.00
//	|   |--- class: 0
//	|--- feature_0 >  5.00
//	|   |--- class: 1
//
// featureNames defaults to feature_<i>. With classNames each leaf shows
// its majority class, otherwise its value.
func ExportText(tree *Tree, featureNames, classNames []string, decimals int) (string, error) {
	if tree == nil || tree.NodeCount() == 0 {
		return "", scigoErrors.NewValueError("ExportText", "tree has no nodes")
	}
	if featureNames != nil && len(featureNames) != tree.NFeature() {
		return "", scigoErrors.NewDimensionError("ExportText", tree.NFeature(), len(featureNames), 1)
	}
	if classNames != nil && len(classNames) != tree.NClass() {
		return "", scigoErrors.NewDimensionError("ExportText", tree.NClass(), len(classNames), 1)
	}
	if decimals < 0 {
		decimals = 0
	}

	e := &textExporter{
		tree:         tree,
		featureNames: featureNames,
		classNames:   classNames,
		decimals:     decimals,
	}
	e.write(0, 1)
	return e.sb.String(), nil
}

type textExporter struct {
	tree         *Tree
	featureNames []string
	classNames   []string
	decimals     int
	sb           strings.Builder
}

func (e *textExporter) feature(f int) string {
	if e.featureNames != nil {
		return e.featureNames[f]
	}
	return fmt.Sprintf("feature_%d", f)
}

func (e *textExporter) write(id, depth int) {
	node := e.tree.Node(id)
	indent := strings.Repeat("|   ", depth-1) + "|--- "
	if node.IsLeaf() {
		e.sb.WriteString(indent + e.leaf(node) + "\n")
		return
	}

	name := e.feature(node.Feature)
	fmt.Fprintf(&e.sb, "%s%s <= %.*f\n", indent, name, e.decimals, node.Threshold)
	e.write(node.LeftChild, depth+1)
	fmt.Fprintf(&e.sb, "%s%s >  %.*f\n", indent, name, e.decimals, node.Threshold)
	e.write(node.RightChild, depth+1)
}

func (e *textExporter) leaf(node Node) string {
	if e.classNames != nil {
		return "class: " + e.classNames[floats.MaxIdx(node.Value)]
	}
	parts := make([]string, len(node.Value))
	for i, v := range node.Value {
		parts[i] = fmt.Sprintf("%.*f", e.decimals, v)
	}
	return "value: [" + strings.Join(parts, ", ") + "]"
}
