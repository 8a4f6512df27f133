package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/bbsga/internal/config"
	"github.com/born-ml/bbsga/internal/sga"
)

func TestResolveLambda(t *testing.T) {
	tests := []struct {
		name    string
		lambda  float64
		runName string
		want    float64
		wantErr bool
	}{
		{"explicit", 0.05, "bmshj2018-lmbda=0.01-last_step=1000", 0.05, false},
		{"explicit zero", 0, "", 0, false},
		{"from run name", -1, "bmshj2018-num_filters=192-lmbda=0.01-last_step=1000", 0.01, false},
		{"at end of name", -1, "mbt2018-lmbda=0.0016", 0.0016, false},
		{"exponent cut at dash", -1, "run-lmbda=2e-3", 0, true},
		{"positive exponent", -1, "run-lmbda=1e+1-x", 10, false},
		{"missing key", -1, "bmshj2018-num_filters=192", 0, true},
		{"garbage", -1, "run-lmbda=abc-x", 0, true},
		{"empty", -1, "run-lmbda=", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.ResolveLambda(tt.lambda, tt.runName)
			if tt.wantErr {
				assert.ErrorIs(t, err, config.ErrInvalidLambda)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, 0.005, cfg.RDLR)
	assert.Equal(t, 0.003, cfg.RateLR)
	assert.Equal(t, 100, cfg.RateIterations)
	assert.Equal(t, 100, cfg.LogInterval)
	assert.Equal(t, uint64(0), cfg.Seed)
	assert.Equal(t, sga.DefaultSchedule(), cfg.Schedule)

	// The lambda sentinel must be resolved before validation passes.
	assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidLambda)
	cfg.Lambda = 0.01
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	mutations := map[string]func(*config.Config){
		"negative rd iterations": func(c *config.Config) { c.RDIterations = -1 },
		"zero rate lr":           func(c *config.Config) { c.RateLR = 0 },
		"zero log interval":      func(c *config.Config) { c.LogInterval = 0 },
		"negative batch":         func(c *config.Config) { c.BatchSize = -2 },
		"no jobs":                func(c *config.Config) { c.Jobs = 0 },
		"optimizer":              func(c *config.Config) { c.Optimizer = "rmsprop" },
		"scheme":                 func(c *config.Config) { c.Schedule.Scheme = "cosine" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Lambda = 0.01
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
