package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scigoErrors "github.com/YuminosukeSato/scigo-cart/pkg/errors"
)

func TestTestLogger_LevelsAndFields(t *testing.T) {
	logger, buf := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.Info("build finished", NodeCountKey, 15, DepthKey, 3)
	logger.Error("build failed", fmt.Errorf("capacity"), OperationKey, OperationFit)

	assert.NotContains(t, buf.String(), "hidden")
	assert.True(t, logger.ContainsMessage("build finished"))
	assert.True(t, logger.ContainsField(NodeCountKey, 15.0))
	assert.True(t, logger.ContainsField(ErrAttrKey, "capacity"))
	assert.True(t, logger.ContainsField(OperationKey, OperationFit))

	entries, err := logger.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestTestLogger_WithSharesBuffer(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	child := logger.With(ModelNameKey, "DecisionTreeClassifier")
	child.Debug("fit started", SamplesKey, 8)

	assert.True(t, logger.ContainsField(ModelNameKey, "DecisionTreeClassifier"))
	assert.True(t, logger.ContainsField(SamplesKey, 8.0))
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestTestLoggerProvider_SetLevel(t *testing.T) {
	provider := NewTestLoggerProvider(LevelDebug)
	named := provider.GetLoggerWithName("tree.builder")

	provider.SetLevel(LevelWarn)
	named.Info("dropped")
	named.Warn("kept")

	assert.False(t, provider.Logger.ContainsMessage("dropped"))
	assert.True(t, provider.Logger.ContainsField(ComponentFieldKey, "tree.builder"))
}

func TestZerologProvider_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelDebug)

	logger := provider.GetLoggerWithName("tree.pruner").With(CCPAlphaKey, 0.01)
	logger.Info("pruned", LeavesKey, 4)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "pruned", rec["message"])
	assert.Equal(t, "tree.pruner", rec[ComponentFieldKey])
	assert.Equal(t, 0.01, rec[CCPAlphaKey])
	assert.Equal(t, 4.0, rec[LeavesKey])
}

func TestZerologProvider_LevelFilterAndError(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelWarn)
	logger := provider.GetLogger()

	logger.Info("quiet")
	assert.Zero(t, buf.Len())
	assert.False(t, logger.Enabled(context.Background(), LevelInfo))

	logger.Error("fit failed", fmt.Errorf("boom"))
	assert.Contains(t, buf.String(), `"error":"boom"`)

	provider.SetLevel(LevelDebug)
	assert.True(t, logger.Enabled(context.Background(), LevelDebug))
}

func TestZerologProvider_ObjectMarshaler(t *testing.T) {
	var buf bytes.Buffer
	provider := NewZerologProvider(&buf, LevelDebug)

	err := scigoErrors.NewCapacityError("Tree.AddNode", 3, 3, 6)
	var capErr *scigoErrors.CapacityError
	require.True(t, scigoErrors.As(err, &capErr))

	provider.GetLogger().Warn("capacity", "detail", capErr)
	assert.Contains(t, buf.String(), `"type":"CapacityError"`)
}

func TestSetProviderRoutesPackageLoggers(t *testing.T) {
	provider := NewTestLoggerProvider(LevelDebug)
	prev := SetProvider(provider)
	defer SetProvider(prev)

	GetLoggerWithName("tree.classifier").Info("hello")
	assert.True(t, provider.Logger.ContainsField(ComponentFieldKey, "tree.classifier"))

	scigoErrors.Warn(scigoErrors.NewUndefinedMetricWarning("r2", "constant target", 0))
	assert.True(t, provider.Logger.ContainsMessage("'r2' is ill-defined"))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
	assert.Equal(t, "WARN", LevelWarn.String())
}

func TestConcurrentLogging(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				logger.Info("chunk", "worker", id)
			}
		}(g)
	}
	wg.Wait()

	entries, err := logger.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 200)
}

func TestErrFmtHandlerAddsStacktrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil)))

	logger.Error("failed", ErrAttr(scigoErrors.NewValueError("Fit", "bad")))
	assert.True(t, strings.Contains(buf.String(), StacktraceAttrKey))
}
