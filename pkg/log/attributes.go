package log

// Common attribute keys. Keys are dotted so that JSON output groups
// naturally in log viewers.
const (
	ModelNameKey = "model.name"
	OperationKey = "ml.operation"
	ComponentKey = "ml.component"
)

// Data shape keys.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
)

// Tree structure keys.
const (
	NodeCountKey  = "tree.nodes"
	LeavesKey     = "tree.leaves"
	DepthKey      = "tree.depth"
	CapacityKey   = "tree.capacity"
	CriterionKey  = "tree.criterion"
	BuilderKey    = "tree.builder"
	CCPAlphaKey   = "tree.ccp_alpha"
	PathLengthKey = "tree.pruning_path_len"
)

const (
	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"
	R2ScoreKey    = "metrics.r2_score"
	RandomSeedKey = "config.random_seed"
)

// Operation values for OperationKey.
const (
	OperationFit     = "fit"
	OperationPredict = "predict"
	OperationPrune   = "prune"
	OperationScore   = "score"
)
