package tree

import (
	"math"
	"math/rand"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

// treeParams holds the hyperparameters shared by DecisionTreeClassifier and
// DecisionTreeRegressor.
type treeParams struct {
	criterion             CriterionType // "gini", "entropy" or "mse"
	splitter              string        // only "best"
	maxDepth              int           // <= 0 means unbounded
	minSamplesSplit       int           // minimum samples to split an internal node
	minSamplesLeaf        int           // minimum samples in each leaf
	minWeightFractionLeaf float64       // minimum fraction of total weight in each leaf
	maxFeatures           int           // features drawn per split, 0 means all
	maxFeaturesMode       string        // "sqrt", "log2" or "auto" override maxFeatures
	maxLeafNodes          int           // > 0 switches to best-first growth
	minImpurityDecrease   float64       // a split must decrease impurity by at least this
	ccpAlpha              float64       // cost-complexity pruning strength, 0 disables
	randomState           int64         // < 0 draws a fresh seed per fit
}

func defaultTreeParams(criterion CriterionType) treeParams {
	return treeParams{
		criterion:       criterion,
		splitter:        "best",
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		randomState:     -1,
	}
}

// Option configures a decision tree estimator.
type Option func(*treeParams)

// WithCriterion sets the impurity criterion: "gini" or "entropy" for
// classification, "mse" for regression.
func WithCriterion(criterion string) Option {
	return func(p *treeParams) {
		p.criterion = CriterionType(criterion)
	}
}

// WithSplitter sets the split strategy. Only "best" is supported.
func WithSplitter(splitter string) Option {
	return func(p *treeParams) {
		p.splitter = splitter
	}
}

// WithMaxDepth limits the depth of the tree. Zero or negative means no limit.
func WithMaxDepth(depth int) Option {
	return func(p *treeParams) {
		p.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(p *treeParams) {
		p.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of samples in each leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(p *treeParams) {
		p.minSamplesLeaf = n
	}
}

// WithMinWeightFractionLeaf sets the minimum fraction of the total sample
// weight required in each leaf.
func WithMinWeightFractionLeaf(fraction float64) Option {
	return func(p *treeParams) {
		p.minWeightFractionLeaf = fraction
	}
}

// WithMaxFeatures sets how many features are examined per split.
func WithMaxFeatures(n int) Option {
	return func(p *treeParams) {
		p.maxFeatures = n
		p.maxFeaturesMode = ""
	}
}

// WithMaxFeaturesMode derives the features examined per split from the
// feature count: "sqrt", "log2" or "auto" (same as "sqrt").
func WithMaxFeaturesMode(mode string) Option {
	return func(p *treeParams) {
		p.maxFeaturesMode = mode
	}
}

// WithMaxLeafNodes grows the tree best-first up to n leaves.
func WithMaxLeafNodes(n int) Option {
	return func(p *treeParams) {
		p.maxLeafNodes = n
	}
}

// WithMinImpurityDecrease sets the minimum weighted impurity decrease of a split.
func WithMinImpurityDecrease(v float64) Option {
	return func(p *treeParams) {
		p.minImpurityDecrease = v
	}
}

// WithCCPAlpha sets the cost-complexity pruning parameter.
func WithCCPAlpha(alpha float64) Option {
	return func(p *treeParams) {
		p.ccpAlpha = alpha
	}
}

// WithRandomState fixes the seed of the feature draw order.
func WithRandomState(seed int64) Option {
	return func(p *treeParams) {
		p.randomState = seed
	}
}

// validate rejects configuration errors before any tree work starts.
func (p *treeParams) validate(classification bool) error {
	switch {
	case classification && !p.criterion.IsClassification():
		return scigoErrors.NewValidationError("criterion", "must be gini or entropy", string(p.criterion))
	case !classification && p.criterion != MSE:
		return scigoErrors.NewValidationError("criterion", "must be mse", string(p.criterion))
	case p.splitter != "best":
		return scigoErrors.NewValidationError("splitter", "must be best", p.splitter)
	case p.minSamplesSplit < 2:
		return scigoErrors.NewValidationError("min_samples_split", "must be at least 2", p.minSamplesSplit)
	case p.minSamplesLeaf < 1:
		return scigoErrors.NewValidationError("min_samples_leaf", "must be at least 1", p.minSamplesLeaf)
	case p.minWeightFractionLeaf < 0 || p.minWeightFractionLeaf > 0.5 || math.IsNaN(p.minWeightFractionLeaf):
		return scigoErrors.NewValidationError("min_weight_fraction_leaf", "must be in [0, 0.5]", p.minWeightFractionLeaf)
	case p.maxFeatures < 0:
		return scigoErrors.NewValidationError("max_features", "must be non-negative", p.maxFeatures)
	case p.maxFeaturesMode != "" && p.maxFeaturesMode != "sqrt" && p.maxFeaturesMode != "log2" && p.maxFeaturesMode != "auto":
		return scigoErrors.NewValidationError("max_features", "must be sqrt, log2 or auto", p.maxFeaturesMode)
	case p.maxLeafNodes < 0 || p.maxLeafNodes == 1:
		return scigoErrors.NewValidationError("max_leaf_nodes", "must be 0 or at least 2", p.maxLeafNodes)
	case p.minImpurityDecrease < 0 || math.IsNaN(p.minImpurityDecrease):
		return scigoErrors.NewValidationError("min_impurity_decrease", "must be non-negative", p.minImpurityDecrease)
	case p.ccpAlpha < 0 || math.IsNaN(p.ccpAlpha):
		return scigoErrors.NewValidationError("ccp_alpha", "must be non-negative", p.ccpAlpha)
	}
	return nil
}

func (p *treeParams) resolveMaxFeatures(nFeatures int) int {
	n := p.maxFeatures
	switch p.maxFeaturesMode {
	case "sqrt", "auto":
		n = int(math.Sqrt(float64(nFeatures)))
	case "log2":
		n = int(math.Log2(float64(nFeatures)))
	}
	if n < 1 || n > nFeatures {
		if p.maxFeaturesMode != "" {
			return 1
		}
		return nFeatures
	}
	return n
}

func (p *treeParams) newRand() *rand.Rand {
	if p.randomState >= 0 {
		return rand.New(rand.NewSource(p.randomState))
	}
	return rand.New(rand.NewSource(rand.Int63()))
}

// newBuilder wires a splitter and builder for one fit. totalWeight is the
// sum of sample weights, used to turn the leaf weight fraction into a weight.
func (p *treeParams) newBuilder(criterion Criterion, nFeatures int, totalWeight float64) TreeBuilder {
	maxDepth := p.maxDepth
	if maxDepth <= 0 {
		maxDepth = math.MaxInt32
	}
	minWeightLeaf := p.minWeightFractionLeaf * totalWeight
	splitter := NewBestSplitter(criterion, p.resolveMaxFeatures(nFeatures), p.minSamplesLeaf, minWeightLeaf, p.newRand())

	params := BuildParams{
		MaxDepth:            maxDepth,
		MinSamplesSplit:     p.minSamplesSplit,
		MinSamplesLeaf:      p.minSamplesLeaf,
		MinWeightLeaf:       minWeightLeaf,
		MinImpurityDecrease: p.minImpurityDecrease,
		MaxLeafNodes:        p.maxLeafNodes,
	}
	if p.maxLeafNodes > 0 {
		return NewBestFirstTreeBuilder(splitter, params)
	}
	return NewDepthFirstTreeBuilder(splitter, params)
}

func (p *treeParams) getParams() map[string]interface{} {
	var maxFeatures interface{} = p.maxFeatures
	if p.maxFeaturesMode != "" {
		maxFeatures = p.maxFeaturesMode
	}
	return map[string]interface{}{
		"criterion":                string(p.criterion),
		"splitter":                 p.splitter,
		"max_depth":                p.maxDepth,
		"min_samples_split":        p.minSamplesSplit,
		"min_samples_leaf":         p.minSamplesLeaf,
		"min_weight_fraction_leaf": p.minWeightFractionLeaf,
		"max_features":             maxFeatures,
		"max_leaf_nodes":           p.maxLeafNodes,
		"min_impurity_decrease":    p.minImpurityDecrease,
		"ccp_alpha":                p.ccpAlpha,
		"random_state":             p.randomState,
	}
}

// setParams applies params atomically: on error nothing is changed.
// Numbers may be given as any Go integer or float type, which is what
// decoded JSON produces.
func (p *treeParams) setParams(params map[string]interface{}) error {
	next := *p
	for key, value := range params {
		var err error
		switch key {
		case "criterion":
			var s string
			s, err = asString(key, value)
			next.criterion = CriterionType(s)
		case "splitter":
			next.splitter, err = asString(key, value)
		case "max_depth":
			next.maxDepth, err = asInt(key, value)
		case "min_samples_split":
			next.minSamplesSplit, err = asInt(key, value)
		case "min_samples_leaf":
			next.minSamplesLeaf, err = asInt(key, value)
		case "min_weight_fraction_leaf":
			next.minWeightFractionLeaf, err = asFloat(key, value)
		case "max_features":
			if s, ok := value.(string); ok {
				next.maxFeaturesMode = s
			} else {
				next.maxFeatures, err = asInt(key, value)
				next.maxFeaturesMode = ""
			}
		case "max_leaf_nodes":
			next.maxLeafNodes, err = asInt(key, value)
		case "min_impurity_decrease":
			next.minImpurityDecrease, err = asFloat(key, value)
		case "ccp_alpha":
			next.ccpAlpha, err = asFloat(key, value)
		case "random_state":
			var seed int
			seed, err = asInt(key, value)
			next.randomState = int64(seed)
		default:
			err = scigoErrors.NewValidationError(key, "unknown parameter", value)
		}
		if err != nil {
			return err
		}
	}
	*p = next
	return nil
}

func asString(key string, value interface{}) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", scigoErrors.NewValidationError(key, "must be a string", value)
	}
	return s, nil
}

func asInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, scigoErrors.NewValidationError(key, "must be an integer", value)
		}
		return int(v), nil
	}
	return 0, scigoErrors.NewValidationError(key, "must be an integer", value)
}

func asFloat(key string, value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, scigoErrors.NewValidationError(key, "must be a number", value)
}
