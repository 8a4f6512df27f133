package model_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/autodiff"
	"github.com/born-ml/bbsga/internal/model"
	"github.com/born-ml/bbsga/internal/tensor"
)

func smallConfig() model.Config {
	return model.Config{NumFilters: 4, Hidden: 8, PriorFilters: []int{3, 3, 3}, InitScale: 10}
}

func TestNewRandom_Shapes(t *testing.T) {
	m, err := model.NewRandom(smallConfig(), 1)
	require.NoError(t, err)
	b := autodiff.New()

	tests := []struct {
		name       string
		in         tensor.Shape
		wantY      tensor.Shape
		wantZ      tensor.Shape
		wantRecon  tensor.Shape
		wantParams tensor.Shape
	}{
		{"aligned", tensor.Shape{1, 8, 8, 3}, tensor.Shape{1, 2, 2, 4}, tensor.Shape{1, 1, 1, 8}, tensor.Shape{1, 8, 8, 3}, tensor.Shape{1, 2, 2, 8}},
		{"padded", tensor.Shape{2, 10, 6, 3}, tensor.Shape{2, 3, 2, 4}, tensor.Shape{2, 2, 1, 8}, tensor.Shape{2, 12, 8, 3}, tensor.Shape{2, 4, 2, 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := tensor.Full(tt.in, 0.5)
			y := m.Analysis.Forward(b, x)
			assert.Equal(t, tt.wantY, y.Shape())

			zParams := m.HyperAnalysis.Forward(b, y)
			assert.Equal(t, tt.wantZ, zParams.Shape())

			assert.Equal(t, tt.wantRecon, m.Synthesis.Forward(b, y).Shape())

			zMean := tensor.SliceChannels(zParams, 0, 4)
			assert.Equal(t, tt.wantParams, m.HyperSynthesis.Forward(b, zMean).Shape())

			l := m.Prior.Likelihood(b, zMean)
			assert.Equal(t, zMean.Shape(), l.Shape())
		})
	}
}

func TestNewRandom_Deterministic(t *testing.T) {
	a, err := model.NewRandom(smallConfig(), 3)
	require.NoError(t, err)
	b, err := model.NewRandom(smallConfig(), 3)
	require.NoError(t, err)

	sa, err := a.StateDict()
	require.NoError(t, err)
	sb, err := b.StateDict()
	require.NoError(t, err)
	require.Equal(t, len(sa), len(sb))
	for name, ta := range sa {
		assert.Equal(t, ta.Data(), sb[name].Data(), name)
	}
	assert.Contains(t, sa, "analysis.2.kernel")
	assert.Contains(t, sa, "hyper_synthesis.2.bias")
	assert.Contains(t, sa, "prior.matrix.0")
}

func TestConfig_Validate(t *testing.T) {
	cfg := smallConfig()
	cfg.Hidden = 0
	_, err := model.NewRandom(cfg, 0)
	assert.Error(t, err)

	cfg = smallConfig()
	cfg.PriorFilters = nil
	assert.Error(t, cfg.Validate())

	assert.NoError(t, model.DefaultConfig().Validate())
}

func TestCheckpoint_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	m, err := model.NewRandom(smallConfig(), 5)
	require.NoError(t, err)

	for _, step := range []int{10, 200, 30} {
		_, err := model.SaveCheckpoint(dir, step, m)
		require.NoError(t, err)
	}
	// Files that are not checkpoints are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ckpt-notes.txt"), []byte("x"), 0o600))

	path, step, err := model.LatestCheckpoint(dir)
	require.NoError(t, err)
	assert.Equal(t, 200, step)
	assert.Equal(t, model.CheckpointPath(dir, 200), path)

	loaded, step, err := model.LoadLatest(dir)
	require.NoError(t, err)
	assert.Equal(t, 200, step)
	assert.Equal(t, m.Config, loaded.Config)

	want, err := m.StateDict()
	require.NoError(t, err)
	got, err := loaded.StateDict()
	require.NoError(t, err)
	for name, w := range want {
		g := got[name].Data()
		for i, v := range w.Data() {
			require.InDelta(t, v, g[i], 1e-6, "%s[%d]", name, i)
		}
	}
}

func TestLoadLatest_NoCheckpoint(t *testing.T) {
	_, _, err := model.LoadLatest(t.TempDir())
	assert.ErrorIs(t, err, model.ErrNoCheckpoint)

	_, _, err = model.LoadLatest(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, model.ErrNoCheckpoint)
}

func TestLoadCheckpoint_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(model.CheckpointPath(dir, 1), []byte("garbage"), 0o600))
	_, _, err := model.LoadLatest(dir)
	assert.Error(t, err)
}

func TestSequential_LoadStateDict(t *testing.T) {
	m, err := model.NewRandom(smallConfig(), 1)
	require.NoError(t, err)
	state, err := m.StateDict()
	require.NoError(t, err)

	delete(state, "synthesis.0.kernel")
	other, err := model.NewRandom(smallConfig(), 2)
	require.NoError(t, err)
	assert.Error(t, other.LoadStateDict(state))
}
