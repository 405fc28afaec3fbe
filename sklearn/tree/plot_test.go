package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlotPruningPath(t *testing.T) {
	X, y := randomData(2, 60, 2, 2)
	tree := buildClassificationTree(t, X, y, 2, defaultBuildParams(), 0)
	path, err := CostComplexityPruningPath(tree)
	require.NoError(t, err)

	for _, name := range []string{"path.png", "path.svg"} {
		filename := filepath.Join(t.TempDir(), name)
		require.NoError(t, PlotPruningPath(path, filename))

		info, err := os.Stat(filename)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestPlotPruningPathRejectsEmpty(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "empty.png")
	assert.Error(t, PlotPruningPath(PruningPath{}, filename))
	assert.Error(t, PlotPruningPath(PruningPath{CCPAlphas: []float64{0}}, filename))

	_, err := os.Stat(filename)
	assert.True(t, os.IsNotExist(err))
}
