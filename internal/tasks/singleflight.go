package tasks

import (
	"context"

	"golang.org/x/sync/singleflight"
)

var listBuildGroup singleflight.Group

// singleflightList collapses concurrent identical list builds so a burst of
// requests for the same page hits the service once.
func singleflightList(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	resultChan := listBuildGroup.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}
