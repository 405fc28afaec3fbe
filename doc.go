// Package cart is the root of a CART decision tree library for Go.
//
// The trees live in sklearn/tree and follow scikit-learn's
// DecisionTreeClassifier and DecisionTreeRegressor: gini, entropy and mse
// criteria, depth-first or best-first growth, and minimal cost-complexity
// pruning.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//
//	    "github.com/YuminosukeSato/scigo-cart/sklearn/tree"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 1, []float64{1, 2, 3, 6, 7, 8})
//	    y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
//
//	    clf := tree.NewDecisionTreeClassifier(tree.WithMaxDepth(3))
//	    if err := clf.Fit(X, y); err != nil {
//	        panic(err)
//	    }
//	    rules, _ := clf.ExportText([]string{"x"})
//	    fmt.Print(rules)
//	}
//
// # Packages
//
//   - sklearn/tree: node store, criteria, splitter, builders, pruning and estimators
//   - config: viper based hyperparameter files with environment overrides
//   - core/model: estimator interfaces, fitted state and gob persistence
//   - core/parallel: chunked parallel prediction
//   - metrics: accuracy, MSE and R² scoring
//   - preprocessing: label encoding for class targets
//   - pkg/errors, pkg/log: typed errors and structured logging
//
// # Error Handling
//
// Invalid hyperparameters and inputs are rejected by Fit with typed errors
// from pkg/errors before any tree is grown. Degenerate data such as
// constant features produces leaves, not errors.
package cart
