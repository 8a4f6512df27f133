package envconfig

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"false": slog.LevelInfo,
		"0":     slog.LevelInfo,
		"1":     slog.LevelDebug,
		"true":  slog.LevelDebug,
		"2":     slog.Level(-8),
		"'1'":   slog.LevelDebug,
	}
	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("BBSGA_DEBUG", value)
			assert.Equal(t, want, LogLevel())
		})
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("BBSGA_CHECKPOINT_DIR", "")
	t.Setenv("BBSGA_RESULTS_DIR", "")
	assert.Equal(t, filepath.Join(".", "checkpoints"), CheckpointDir())
	assert.Equal(t, filepath.Join(".", "results"), ResultsDir())

	t.Setenv("BBSGA_CHECKPOINT_DIR", " \"/data/ckpt\" ")
	t.Setenv("BBSGA_RESULTS_DIR", "/data/out")
	assert.Equal(t, "/data/ckpt", CheckpointDir())
	assert.Equal(t, "/data/out", ResultsDir())
}

func TestJobs(t *testing.T) {
	t.Setenv("BBSGA_JOBS", "")
	assert.Equal(t, uint(1), Jobs())

	t.Setenv("BBSGA_JOBS", "2")
	assert.Equal(t, uint(2), Jobs())

	t.Setenv("BBSGA_JOBS", "zero")
	assert.Equal(t, uint(1), Jobs())

	t.Setenv("BBSGA_JOBS", "0")
	assert.Equal(t, uint(1), Jobs())
}

func TestValues(t *testing.T) {
	t.Setenv("BBSGA_JOBS", "2")
	vals := Values()
	assert.Equal(t, "2", vals["BBSGA_JOBS"])
	assert.Contains(t, vals, "BBSGA_DEBUG")
}
