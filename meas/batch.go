package meas

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ApplyBatch applies one algorithm instance to many seeds concurrently, at most
// limit at a time (no limit when limit <= 0). Results keep the order of seeds.
// The first failure cancels the seeds not started yet and is returned wrapped
// with the seed index; no partial results are returned.
func ApplyBatch[T Pixel, R any](ctx context.Context, alg Algorithm[T, R], img Raster[T], seeds []Point, limit int, options ...ApplyOption) ([]R, error) {
	results := make([]R, len(seeds))
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}
	for i, seed := range seeds {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			result, err := alg.Apply(img, seed.X, seed.Y, options...)
			if err != nil {
				return errors.Wrapf(err, "Can't measure seed #%d at (%f, %f) with %s", i, seed.X, seed.Y, alg.GetName())
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
