package tree

import (
	"encoding/json"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-cart/core/model"
	"github.com/YuminosukeSato/scigo-cart/metrics"
	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
	"github.com/YuminosukeSato/scigo-cart/pkg/log"
)

const regressorModelType = "DecisionTreeRegressor"

var (
	_ model.Regressor      = (*DecisionTreeRegressor)(nil)
	_ model.WeightedFitter = (*DecisionTreeRegressor)(nil)
)

// DecisionTreeRegressor is a CART regression tree using variance reduction.
type DecisionTreeRegressor struct {
	treeParams
	state *model.StateManager

	tree_               *Tree
	featureImportances_ []float64
}

// NewDecisionTreeRegressor creates a regressor with the mse criterion.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		treeParams: defaultTreeParams(MSE),
		state:      model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit builds the tree from X and continuous targets y (n×1).
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	return dt.FitWeighted(X, y, nil)
}

// FitWeighted is Fit with per-sample weights.
func (dt *DecisionTreeRegressor) FitWeighted(X, y mat.Matrix, sampleWeight []float64) (err error) {
	defer scigoErrors.Recover(&err, "DecisionTreeRegressor.Fit")

	if err := dt.validate(false); err != nil {
		return err
	}
	in, err := prepareFitInput("DecisionTreeRegressor.Fit", X, y, sampleWeight)
	if err != nil {
		return err
	}
	tree, err := dt.growTree(in, in.y, 1)
	if err != nil {
		return err
	}

	dt.state.Reset()
	dt.tree_ = tree
	dt.featureImportances_ = tree.ComputeFeatureImportance(true)
	dt.state.SetDimensions(in.nFeatures, in.nSamples)
	dt.state.SetFitted()

	log.GetLoggerWithName("tree.regressor").Debug("fit finished",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, in.nSamples,
		log.FeaturesKey, in.nFeatures,
		log.NodeCountKey, tree.NodeCount(),
		log.DepthKey, tree.MaxDepth(),
	)
	return nil
}

func (dt *DecisionTreeRegressor) checkPredict(method string, X mat.Matrix) error {
	if err := dt.state.RequireFitted(regressorModelType, method); err != nil {
		return err
	}
	_, c := X.Dims()
	return dt.state.RequireFeatures(regressorModelType+"."+method, c)
}

// Predict returns the mean target of each sample's leaf as an n×1 matrix.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	pred, err := dt.tree_.Predict(X)
	if err != nil {
		return nil, err
	}
	return pred, nil
}

// Score returns R² of Predict on X against y, or 0 when it is undefined.
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	yTrue, err := metrics.ColumnVector("DecisionTreeRegressor.Score", y)
	if err != nil {
		return 0
	}
	yPred, err := metrics.ColumnVector("DecisionTreeRegressor.Score", pred)
	if err != nil {
		return 0
	}
	r2, err := metrics.R2Score(yTrue, yPred)
	if err != nil {
		return 0
	}
	return r2
}

// Apply returns the id of the leaf each sample ends up in.
func (dt *DecisionTreeRegressor) Apply(X mat.Matrix) ([]int, error) {
	if err := dt.checkPredict("Apply", X); err != nil {
		return nil, err
	}
	return dt.tree_.Apply(X)
}

// DecisionPath returns the node ids visited by each sample, root first.
func (dt *DecisionTreeRegressor) DecisionPath(X mat.Matrix) ([][]int, error) {
	if err := dt.checkPredict("DecisionPath", X); err != nil {
		return nil, err
	}
	return dt.tree_.DecisionPath(X)
}

// Tree returns the fitted tree, or nil before Fit.
func (dt *DecisionTreeRegressor) Tree() *Tree { return dt.tree_ }

// GetFeatureImportances returns the normalized importance of each feature.
func (dt *DecisionTreeRegressor) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeRegressor) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.MaxDepth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeRegressor) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.NLeaves()
}

// CostComplexityPruningPath fits an unpruned tree on X, y and returns its
// pruning path.
func (dt *DecisionTreeRegressor) CostComplexityPruningPath(X, y mat.Matrix) (PruningPath, error) {
	unpruned := &DecisionTreeRegressor{treeParams: dt.treeParams, state: model.NewStateManager()}
	unpruned.ccpAlpha = 0
	if err := unpruned.Fit(X, y); err != nil {
		return PruningPath{}, err
	}
	return CostComplexityPruningPath(unpruned.tree_)
}

// ExportText renders the fitted tree as indented rules.
func (dt *DecisionTreeRegressor) ExportText(featureNames []string) (string, error) {
	if err := dt.state.RequireFitted(regressorModelType, "ExportText"); err != nil {
		return "", err
	}
	return ExportText(dt.tree_, featureNames, nil, 2)
}

// GetParams returns the hyperparameters keyed by their scikit-learn names.
func (dt *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return dt.getParams()
}

// SetParams updates hyperparameters; unknown keys are rejected.
func (dt *DecisionTreeRegressor) SetParams(params map[string]interface{}) error {
	return dt.setParams(params)
}

// MarshalJSON encodes hyperparameters, fitted state and tree.
func (dt *DecisionTreeRegressor) MarshalJSON() ([]byte, error) {
	env := model.ModelEnvelope{
		ModelType:       regressorModelType,
		Version:         model.EnvelopeVersion,
		Hyperparameters: dt.getParams(),
		State:           dt.state.GetState(),
	}
	if dt.state.IsFitted() {
		payload, err := json.Marshal(dt.tree_)
		if err != nil {
			return nil, scigoErrors.Wrap(err, "encode regressor payload")
		}
		env.Payload = payload
	}
	return json.Marshal(env)
}

// UnmarshalJSON restores a regressor written by MarshalJSON.
func (dt *DecisionTreeRegressor) UnmarshalJSON(data []byte) error {
	var env model.ModelEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return scigoErrors.Wrap(err, "decode regressor")
	}
	if err := env.Validate(regressorModelType); err != nil {
		return err
	}

	restored := DecisionTreeRegressor{treeParams: defaultTreeParams(MSE), state: model.NewStateManager()}
	if err := restored.setParams(env.Hyperparameters); err != nil {
		return err
	}
	if env.State.Fitted {
		tree := &Tree{}
		if err := json.Unmarshal(env.Payload, tree); err != nil {
			return err
		}
		restored.tree_ = tree
		restored.featureImportances_ = tree.ComputeFeatureImportance(true)
	}
	restored.state.SetState(env.State)
	*dt = restored
	return nil
}

// GobEncode lets model.SaveModel persist the regressor.
func (dt *DecisionTreeRegressor) GobEncode() ([]byte, error) {
	return dt.MarshalJSON()
}

// GobDecode restores a regressor written by GobEncode.
func (dt *DecisionTreeRegressor) GobDecode(data []byte) error {
	return dt.UnmarshalJSON(data)
}
