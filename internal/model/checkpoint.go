package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/born-ml/bbsga/internal/serialization"
)

// ErrNoCheckpoint is returned when a run directory holds no checkpoint.
var ErrNoCheckpoint = errors.New("no checkpoint found")

const (
	checkpointPrefix = "ckpt-"
	checkpointExt    = ".safetensors"
)

// Metadata keys stored in every checkpoint.
const (
	metaStep         = "step"
	metaNumFilters   = "num_filters"
	metaHidden       = "hidden"
	metaPriorFilters = "prior_filters"
	metaInitScale    = "init_scale"
)

// CheckpointPath returns dir/ckpt-<step>.safetensors.
func CheckpointPath(dir string, step int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%d%s", checkpointPrefix, step, checkpointExt))
}

// SaveCheckpoint writes m to dir/ckpt-<step>.safetensors, creating dir if
// needed, and returns the file path. The architecture is stored in the
// file metadata.
func SaveCheckpoint(dir string, step int, m *Model) (string, error) {
	stateDict, err := m.StateDict()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create checkpoint dir: %w", err)
	}

	filters := make([]string, len(m.Config.PriorFilters))
	for i, f := range m.Config.PriorFilters {
		filters[i] = strconv.Itoa(f)
	}
	metadata := map[string]string{
		metaStep:         strconv.Itoa(step),
		metaNumFilters:   strconv.Itoa(m.Config.NumFilters),
		metaHidden:       strconv.Itoa(m.Config.Hidden),
		metaPriorFilters: strings.Join(filters, ","),
		metaInitScale:    strconv.FormatFloat(m.Config.InitScale, 'g', -1, 64),
	}

	path := CheckpointPath(dir, step)
	if err := serialization.WriteFile(path, stateDict, serialization.F32, metadata); err != nil {
		return "", fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return path, nil
}

// LatestCheckpoint returns the checkpoint in dir with the largest step.
func LatestCheckpoint(dir string) (string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", 0, fmt.Errorf("%w in %s", ErrNoCheckpoint, dir)
		}
		return "", 0, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	best, bestStep := "", -1
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, checkpointPrefix) || !strings.HasSuffix(name, checkpointExt) {
			continue
		}
		step, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, checkpointPrefix), checkpointExt))
		if err != nil || step < 0 {
			continue
		}
		if step > bestStep {
			best, bestStep = filepath.Join(dir, name), step
		}
	}
	if bestStep < 0 {
		return "", 0, fmt.Errorf("%w in %s", ErrNoCheckpoint, dir)
	}
	return best, bestStep, nil
}

// LoadLatest restores the latest checkpoint in dir.
func LoadLatest(dir string) (*Model, int, error) {
	path, step, err := LatestCheckpoint(dir)
	if err != nil {
		return nil, 0, err
	}
	m, err := LoadCheckpoint(path)
	if err != nil {
		return nil, 0, err
	}
	return m, step, nil
}

// LoadCheckpoint restores a model from a checkpoint file.
func LoadCheckpoint(path string) (*Model, error) {
	f, err := serialization.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	cfg, err := configFromMetadata(f.Metadata)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	m, err := NewRandom(cfg, 0)
	if err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	if err := m.LoadStateDict(f.Tensors); err != nil {
		return nil, fmt.Errorf("checkpoint %s: %w", path, err)
	}
	return m, nil
}

func configFromMetadata(meta map[string]string) (Config, error) {
	var cfg Config
	var err error
	if cfg.NumFilters, err = strconv.Atoi(meta[metaNumFilters]); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", metaNumFilters, err)
	}
	if cfg.Hidden, err = strconv.Atoi(meta[metaHidden]); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", metaHidden, err)
	}
	if cfg.InitScale, err = strconv.ParseFloat(meta[metaInitScale], 64); err != nil {
		return cfg, fmt.Errorf("invalid %s: %w", metaInitScale, err)
	}
	for _, s := range strings.Split(meta[metaPriorFilters], ",") {
		f, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", metaPriorFilters, err)
		}
		cfg.PriorFilters = append(cfg.PriorFilters, f)
	}
	return cfg, cfg.Validate()
}
