package loader

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// BATCH LOADING
// =============================================================================

// BatchOptions controls LoadFiles.
type BatchOptions struct {
	// MaxConcurrency bounds the number of files loaded at once. Values
	// below 1 mean 1.
	MaxConcurrency int

	// ContinueOnError records per-file failures in FileResult.Err and keeps
	// going. When false the first failure cancels the remaining files.
	ContinueOnError bool

	Logger *zap.Logger
}

// FileResult is the outcome for one input path.
type FileResult struct {
	Path   string
	Result *Result
	Err    error
}

// PickFunc returns the loader for a path, or an error when no dataset
// matches it.
type PickFunc func(path string) (*Loader, error)

// LoadFiles loads paths concurrently. Results are returned in input order.
//
// RETURNS:
//   - One FileResult per path.
//   - The first error when ContinueOnError is false, or the context error.
func LoadFiles(ctx context.Context, paths []string, pick PickFunc, opts BatchOptions) ([]FileResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := opts.MaxConcurrency
	if limit < 1 {
		limit = 1
	}

	results := make([]FileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		results[i].Path = path
		g.Go(func() error {
			res, err := loadOne(gctx, path, pick)
			if err != nil {
				logger.Warn("failed to load file", zap.String("file", path), zap.Error(err))
				results[i].Err = err
				if opts.ContinueOnError {
					return nil
				}
				return eris.Wrapf(err, "load %s", path)
			}
			results[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func loadOne(ctx context.Context, path string, pick PickFunc) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, err := pick(path)
	if err != nil {
		return nil, err
	}
	return l.LoadFile(ctx, path)
}
