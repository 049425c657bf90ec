package cmd

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ginjaninja78/prealert-engine/internal/config"
	"github.com/ginjaninja78/prealert-engine/internal/loader"
	"github.com/ginjaninja78/prealert-engine/internal/shipment"
)

// =============================================================================
// INPUT LOADING
// =============================================================================

// datasetPicker matches input files to dataset configurations. Files no
// dataset claims are loaded with the default dataset.
type datasetPicker struct {
	datasets map[string]*config.DatasetConfig
	only     string
	loaders  map[string]*loader.Loader
}

// newDatasetPicker loads every dataset in the configured datasets directory.
// When only is set, files must match that dataset code.
func newDatasetPicker(only string) (*datasetPicker, error) {
	datasets, err := config.LoadDatasetConfigs(appConfig.DatasetsDir)
	if err != nil {
		return nil, err
	}
	if only != "" {
		if _, ok := datasets[only]; !ok {
			return nil, eris.Errorf("unknown dataset %q", only)
		}
	}
	logger.Debug("datasets loaded", zap.Int("count", len(datasets)), zap.String("dir", appConfig.DatasetsDir))

	return &datasetPicker{
		datasets: datasets,
		only:     only,
		loaders:  make(map[string]*loader.Loader),
	}, nil
}

// dataset returns the dataset for a path.
func (p *datasetPicker) dataset(path string) (*config.DatasetConfig, error) {
	if p.only != "" {
		cfg := p.datasets[p.only]
		if config.MatchDataset(path, map[string]*config.DatasetConfig{p.only: cfg}) == nil {
			return nil, eris.Errorf("%s does not match dataset %q", filepath.Base(path), p.only)
		}
		return cfg, nil
	}
	if cfg := config.MatchDataset(path, p.datasets); cfg != nil {
		return cfg, nil
	}
	return config.DefaultDatasetConfig(), nil
}

// pick builds or reuses the loader for a path. It is called before the
// concurrent load starts, see prepare.
func (p *datasetPicker) pick(path string) (*loader.Loader, error) {
	cfg, err := p.dataset(path)
	if err != nil {
		return nil, err
	}
	if l, ok := p.loaders[cfg.Code]; ok {
		return l, nil
	}
	l, err := loader.New(cfg, loader.WithLogger(logger))
	if err != nil {
		return nil, eris.Wrapf(err, "dataset %q", cfg.Code)
	}
	p.loaders[cfg.Code] = l
	return l, nil
}

// prepare resolves the loaders of every path up front and returns a
// PickFunc that only reads. Files that match nothing usable keep their
// error for the batch to report.
func (p *datasetPicker) prepare(paths []string) loader.PickFunc {
	resolved := make(map[string]*loader.Loader, len(paths))
	failed := make(map[string]error)
	for _, path := range paths {
		l, err := p.pick(path)
		if err != nil {
			failed[path] = err
			continue
		}
		resolved[path] = l
	}
	return func(path string) (*loader.Loader, error) {
		if err, ok := failed[path]; ok {
			return nil, err
		}
		return resolved[path], nil
	}
}

// loadCollection loads every line item of one file.
func loadCollection(ctx context.Context, path string) (*loader.Result, error) {
	picker, err := newDatasetPicker("")
	if err != nil {
		return nil, err
	}
	l, err := picker.pick(path)
	if err != nil {
		return nil, err
	}
	result, err := l.LoadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	for _, rowErr := range result.Errors {
		logger.Warn("row skipped", zap.String("file", rowErr.File), zap.Int("row", rowErr.Row), zap.String("rule", rowErr.Rule), zap.String("message", rowErr.Message))
	}
	return result, nil
}

// parseFieldList parses a comma-separated field list such as
// "dnNo,partNo,qty".
func parseFieldList(s string) ([]shipment.Field, error) {
	var names []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return shipment.ParseFields(names)
}
