// Package envconfig reads process-wide settings from environment variables.
//
// Settings:
//   - BBSGA_DEBUG: log level (1/true = debug, 2 = trace)
//   - BBSGA_CHECKPOINT_DIR: root directory of training runs
//   - BBSGA_RESULTS_DIR: directory receiving result files
//   - BBSGA_JOBS: number of batches refined concurrently
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// LogLevel returns the log level.
// Configurable via BBSGA_DEBUG.
// Values: 0/false = INFO (default), 1/true = DEBUG, 2 = TRACE.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("BBSGA_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// CheckpointDir returns the directory holding one subdirectory per
// training run.
// Configurable via BBSGA_CHECKPOINT_DIR. Default: ./checkpoints
func CheckpointDir() string {
	if s := Var("BBSGA_CHECKPOINT_DIR"); s != "" {
		return s
	}
	return filepath.Join(".", "checkpoints")
}

// ResultsDir returns the directory receiving result files.
// Configurable via BBSGA_RESULTS_DIR. Default: ./results
func ResultsDir() string {
	if s := Var("BBSGA_RESULTS_DIR"); s != "" {
		return s
	}
	return filepath.Join(".", "results")
}

// Jobs returns the number of batches refined concurrently.
// Configurable via BBSGA_JOBS. Default: 1
var Jobs = Uint("BBSGA_JOBS", 1)

// Uint returns a function reading a positive integer with a default value.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil || n == 0 {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(min(n, uint64(runtime.NumCPU()*4)))
			}
		}
		return defaultValue
	}
}

// Var returns an environment variable stripped of surrounding quotes and
// whitespace.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

// EnvVar describes one setting.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"BBSGA_DEBUG":          {"BBSGA_DEBUG", LogLevel(), "Show additional debug information (e.g. BBSGA_DEBUG=1)"},
		"BBSGA_CHECKPOINT_DIR": {"BBSGA_CHECKPOINT_DIR", CheckpointDir(), "Root directory of training runs (default ./checkpoints)"},
		"BBSGA_RESULTS_DIR":    {"BBSGA_RESULTS_DIR", ResultsDir(), "Directory for result files (default ./results)"},
		"BBSGA_JOBS":           {"BBSGA_JOBS", Jobs(), "Number of batches refined concurrently (default 1)"},
	}
}

// Values returns every setting's current value as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
