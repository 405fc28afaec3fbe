// Package config loads decision tree hyperparameters and logging settings
// from a YAML, TOML or JSON file, with SCIGO_TREE_* environment overrides.
//
//	# tree.yaml
//	tree:
//	  criterion: entropy
//	  max_depth: 6
//	  ccp_alpha: 0.01
//	log:
//	  level: debug
//
// SCIGO_TREE_TREE_MAX_DEPTH=4 overrides tree.max_depth.
package config

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
	"github.com/YuminosukeSato/scigo-cart/pkg/log"
	"github.com/YuminosukeSato/scigo-cart/sklearn/tree"
)

// EnvPrefix is prepended to environment overrides.
const EnvPrefix = "SCIGO_TREE"

// Config is the top-level configuration.
type Config struct {
	Tree TreeConfig `mapstructure:"tree"`
	Log  LogConfig  `mapstructure:"log"`
}

// TreeConfig mirrors the estimator options using scikit-learn names.
type TreeConfig struct {
	Criterion             string  `mapstructure:"criterion"                validate:"oneof=gini entropy mse"`
	MaxDepth              int     `mapstructure:"max_depth"                validate:"gte=0"`
	MinSamplesSplit       int     `mapstructure:"min_samples_split"        validate:"gte=2"`
	MinSamplesLeaf        int     `mapstructure:"min_samples_leaf"         validate:"gte=1"`
	MinWeightFractionLeaf float64 `mapstructure:"min_weight_fraction_leaf" validate:"gte=0,lte=0.5"`
	MaxFeatures           string  `mapstructure:"max_features"             validate:"omitempty,oneof=sqrt log2 auto|number"` // empty means all features
	MaxLeafNodes          int     `mapstructure:"max_leaf_nodes"           validate:"gte=0,ne=1"`
	MinImpurityDecrease   float64 `mapstructure:"min_impurity_decrease"    validate:"gte=0"`
	CCPAlpha              float64 `mapstructure:"ccp_alpha"                validate:"gte=0"`
	RandomState           int64   `mapstructure:"random_state"` // negative draws a fresh seed per fit
}

// LogConfig selects the level of the process-wide logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("tree.criterion", "gini")
	v.SetDefault("tree.max_depth", 0)
	v.SetDefault("tree.min_samples_split", 2)
	v.SetDefault("tree.min_samples_leaf", 1)
	v.SetDefault("tree.min_weight_fraction_leaf", 0.0)
	v.SetDefault("tree.max_features", "")
	v.SetDefault("tree.max_leaf_nodes", 0)
	v.SetDefault("tree.min_impurity_decrease", 0.0)
	v.SetDefault("tree.ccp_alpha", 0.0)
	v.SetDefault("tree.random_state", -1)
	v.SetDefault("log.level", "info")
}

// Load reads path, applies environment overrides and validates the
// result. An empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, scigoErrors.Wrapf(err, "read config %s", path)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, scigoErrors.Wrap(err, "unmarshal config")
	}
	if err := validator.New().Struct(&conf); err != nil {
		return nil, scigoErrors.Wrap(err, "config validation failed")
	}

	log.GetLoggerWithName("config").Debug("config loaded",
		log.OperationKey, "config",
		"path", path,
		log.CriterionKey, conf.Tree.Criterion,
	)
	return &conf, nil
}

// Options converts the tree section into estimator options.
func (c TreeConfig) Options() []tree.Option {
	opts := []tree.Option{
		tree.WithCriterion(c.Criterion),
		tree.WithMaxDepth(c.MaxDepth),
		tree.WithMinSamplesSplit(c.MinSamplesSplit),
		tree.WithMinSamplesLeaf(c.MinSamplesLeaf),
		tree.WithMinWeightFractionLeaf(c.MinWeightFractionLeaf),
		tree.WithMaxLeafNodes(c.MaxLeafNodes),
		tree.WithMinImpurityDecrease(c.MinImpurityDecrease),
		tree.WithCCPAlpha(c.CCPAlpha),
		tree.WithRandomState(c.RandomState),
	}
	if c.MaxFeatures != "" {
		if n, err := strconv.Atoi(c.MaxFeatures); err == nil {
			opts = append(opts, tree.WithMaxFeatures(n))
		} else {
			opts = append(opts, tree.WithMaxFeaturesMode(c.MaxFeatures))
		}
	}
	return opts
}

// NewClassifier builds an unfitted classifier from the tree section.
func (c TreeConfig) NewClassifier() *tree.DecisionTreeClassifier {
	return tree.NewDecisionTreeClassifier(c.Options()...)
}

// NewRegressor builds an unfitted regressor from the tree section.
func (c TreeConfig) NewRegressor() *tree.DecisionTreeRegressor {
	return tree.NewDecisionTreeRegressor(c.Options()...)
}

// ApplyLogging sets the process-wide log level.
func (c LogConfig) ApplyLogging() error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}
