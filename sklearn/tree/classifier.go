package tree

import (
	"encoding/json"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/scigo-cart/core/model"
	"github.com/YuminosukeSato/scigo-cart/metrics"
	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
	"github.com/YuminosukeSato/scigo-cart/pkg/log"
	"github.com/YuminosukeSato/scigo-cart/preprocessing"
)

const classifierModelType = "DecisionTreeClassifier"

var (
	_ model.Classifier     = (*DecisionTreeClassifier)(nil)
	_ model.WeightedFitter = (*DecisionTreeClassifier)(nil)
)

// DecisionTreeClassifier is a CART classification tree, compatible with
// scikit-learn's DecisionTreeClassifier.
type DecisionTreeClassifier struct {
	treeParams
	state *model.StateManager

	tree_               *Tree
	encoder             *preprocessing.LabelEncoder
	nClasses_           int
	featureImportances_ []float64
}

// NewDecisionTreeClassifier creates a classifier. The default criterion is gini.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		treeParams: defaultTreeParams(Gini),
		state:      model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(&dt.treeParams)
	}
	return dt
}

// Fit builds the tree from X (n_samples × n_features) and labels y (n×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	return dt.FitWeighted(X, y, nil)
}

// FitWeighted is Fit with per-sample weights. Samples with zero weight are
// ignored. A nil sampleWeight weights every sample 1.
func (dt *DecisionTreeClassifier) FitWeighted(X, y mat.Matrix, sampleWeight []float64) (err error) {
	defer scigoErrors.Recover(&err, "DecisionTreeClassifier.Fit")
	logger := log.GetLoggerWithName("tree.classifier")

	if err := dt.validate(true); err != nil {
		return err
	}
	in, err := prepareFitInput("DecisionTreeClassifier.Fit", X, y, sampleWeight)
	if err != nil {
		return err
	}

	for _, v := range in.y {
		if v != math.Trunc(v) {
			scigoErrors.Warn(scigoErrors.NewDataConversionWarning("float64", "int",
				"non-integer class labels are truncated by Classes"))
			break
		}
	}

	encoder := preprocessing.NewLabelEncoder()
	idx, err := encoder.FitTransform(in.y)
	if err != nil {
		return err
	}
	encoded := make([]float64, len(idx))
	for i, k := range idx {
		encoded[i] = float64(k)
	}

	tree, err := dt.growTree(in, encoded, encoder.NClasses())
	if err != nil {
		return err
	}

	dt.state.Reset()
	dt.tree_ = tree
	dt.encoder = encoder
	dt.nClasses_ = encoder.NClasses()
	dt.featureImportances_ = tree.ComputeFeatureImportance(true)
	dt.state.SetDimensions(in.nFeatures, in.nSamples)
	dt.state.SetFitted()

	logger.Debug("fit finished",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, in.nSamples,
		log.FeaturesKey, in.nFeatures,
		log.ClassesKey, dt.nClasses_,
		log.CriterionKey, string(dt.criterion),
		log.NodeCountKey, tree.NodeCount(),
		log.DepthKey, tree.MaxDepth(),
	)
	return nil
}

func (dt *DecisionTreeClassifier) checkPredict(method string, X mat.Matrix) error {
	if err := dt.state.RequireFitted(classifierModelType, method); err != nil {
		return err
	}
	_, c := X.Dims()
	return dt.state.RequireFeatures(classifierModelType+"."+method, c)
}

// PredictProba returns, per sample, the weighted class fractions of the
// leaf it reaches. Columns follow Classes.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}
	proba, err := dt.tree_.Predict(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	for i := 0; i < rows; i++ {
		row := proba.RawRowView(i)
		if sum := floats.Sum(row); sum > 0 {
			floats.Scale(1/sum, row)
		}
	}
	return proba, nil
}

// Predict returns the most probable original label per sample as an n×1
// matrix. Ties go to the smaller label.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	values, err := dt.tree_.Predict(X)
	if err != nil {
		return nil, err
	}
	rows, _ := values.Dims()
	idx := make([]int, rows)
	for i := range idx {
		idx[i] = floats.MaxIdx(values.RawRowView(i))
	}
	labels, err := dt.encoder.InverseTransform(idx)
	if err != nil {
		return nil, err
	}
	return mat.NewDense(rows, 1, labels), nil
}

// Score returns the accuracy of Predict on X against y, or 0 when the
// model is unfitted or the shapes do not match.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) float64 {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0
	}
	acc, err := metrics.AccuracyMatrix(y, pred)
	if err != nil {
		return 0
	}
	return acc
}

// Apply returns the id of the leaf each sample ends up in.
func (dt *DecisionTreeClassifier) Apply(X mat.Matrix) ([]int, error) {
	if err := dt.checkPredict("Apply", X); err != nil {
		return nil, err
	}
	return dt.tree_.Apply(X)
}

// DecisionPath returns the node ids visited by each sample, root first.
func (dt *DecisionTreeClassifier) DecisionPath(X mat.Matrix) ([][]int, error) {
	if err := dt.checkPredict("DecisionPath", X); err != nil {
		return nil, err
	}
	return dt.tree_.DecisionPath(X)
}

// Classes returns the class labels seen during Fit, ascending.
func (dt *DecisionTreeClassifier) Classes() []int {
	if dt.encoder == nil {
		return nil
	}
	classes := make([]int, len(dt.encoder.Classes_))
	for i, c := range dt.encoder.Classes_ {
		classes[i] = int(c)
	}
	return classes
}

// NClasses returns the number of classes seen during Fit.
func (dt *DecisionTreeClassifier) NClasses() int { return dt.nClasses_ }

// Tree returns the fitted tree, or nil before Fit.
func (dt *DecisionTreeClassifier) Tree() *Tree { return dt.tree_ }

// GetFeatureImportances returns the normalized impurity-based importance
// of each feature.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	return append([]float64(nil), dt.featureImportances_...)
}

// GetDepth returns the depth of the fitted tree.
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.MaxDepth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.NLeaves()
}

// CostComplexityPruningPath fits an unpruned tree on X, y with the current
// hyperparameters and returns its pruning path. The receiver is unchanged.
func (dt *DecisionTreeClassifier) CostComplexityPruningPath(X, y mat.Matrix) (PruningPath, error) {
	unpruned := &DecisionTreeClassifier{treeParams: dt.treeParams, state: model.NewStateManager()}
	unpruned.ccpAlpha = 0
	if err := unpruned.Fit(X, y); err != nil {
		return PruningPath{}, err
	}
	path, err := CostComplexityPruningPath(unpruned.tree_)
	if err != nil {
		return PruningPath{}, err
	}
	log.GetLoggerWithName("tree.classifier").Debug("pruning path computed",
		log.OperationKey, log.OperationPrune,
		log.PathLengthKey, len(path.CCPAlphas),
	)
	return path, nil
}

// ExportText renders the fitted tree as indented rules. featureNames may
// be nil.
func (dt *DecisionTreeClassifier) ExportText(featureNames []string) (string, error) {
	if err := dt.state.RequireFitted(classifierModelType, "ExportText"); err != nil {
		return "", err
	}
	classNames := make([]string, len(dt.encoder.Classes_))
	for i, c := range dt.encoder.Classes_ {
		classNames[i] = strconv.FormatFloat(c, 'g', -1, 64)
	}
	return ExportText(dt.tree_, featureNames, classNames, 2)
}

// GetParams returns the hyperparameters keyed by their scikit-learn names.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return dt.getParams()
}

// SetParams updates hyperparameters. Unknown keys are rejected and leave
// the model unchanged. A fitted model keeps its tree until the next Fit.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	return dt.setParams(params)
}

type classifierPayload struct {
	Classes []float64 `json:"classes"`
	Tree    *Tree     `json:"tree"`
}

// MarshalJSON encodes hyperparameters, fitted state, classes and tree.
func (dt *DecisionTreeClassifier) MarshalJSON() ([]byte, error) {
	env := model.ModelEnvelope{
		ModelType:       classifierModelType,
		Version:         model.EnvelopeVersion,
		Hyperparameters: dt.getParams(),
		State:           dt.state.GetState(),
	}
	if dt.state.IsFitted() {
		payload, err := json.Marshal(classifierPayload{Classes: dt.encoder.Classes_, Tree: dt.tree_})
		if err != nil {
			return nil, scigoErrors.Wrap(err, "encode classifier payload")
		}
		env.Payload = payload
		env.Classes = dt.Classes()
	}
	return json.Marshal(env)
}

// UnmarshalJSON restores a classifier written by MarshalJSON.
func (dt *DecisionTreeClassifier) UnmarshalJSON(data []byte) error {
	var env model.ModelEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return scigoErrors.Wrap(err, "decode classifier")
	}
	if err := env.Validate(classifierModelType); err != nil {
		return err
	}

	restored := DecisionTreeClassifier{treeParams: defaultTreeParams(Gini), state: model.NewStateManager()}
	if err := restored.setParams(env.Hyperparameters); err != nil {
		return err
	}
	if env.State.Fitted {
		var payload classifierPayload
		if err := json.Unmarshal(env.Payload, &payload); err != nil {
			return scigoErrors.Wrap(err, "decode classifier payload")
		}
		if payload.Tree == nil {
			return scigoErrors.Wrap(scigoErrors.ErrCorruptTree, "classifier payload has no tree")
		}
		encoder := preprocessing.NewLabelEncoder()
		if err := encoder.SetClasses(payload.Classes); err != nil {
			return err
		}
		if payload.Tree.NClass() != encoder.NClasses() {
			return scigoErrors.Wrapf(scigoErrors.ErrCorruptTree, "tree has %d classes, encoder %d", payload.Tree.NClass(), encoder.NClasses())
		}
		restored.encoder = encoder
		restored.tree_ = payload.Tree
		restored.nClasses_ = encoder.NClasses()
		restored.featureImportances_ = payload.Tree.ComputeFeatureImportance(true)
	}
	restored.state.SetState(env.State)
	*dt = restored
	return nil
}

// GobEncode lets model.SaveModel persist the classifier.
func (dt *DecisionTreeClassifier) GobEncode() ([]byte, error) {
	return dt.MarshalJSON()
}

// GobDecode restores a classifier written by GobEncode.
func (dt *DecisionTreeClassifier) GobDecode(data []byte) error {
	return dt.UnmarshalJSON(data)
}
