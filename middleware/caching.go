package middleware

import (
	"context"
	"fmt"

	"github.com/hupe1980/flowmesh/contextstore"
	"github.com/hupe1980/flowmesh/core"
	"github.com/hupe1980/flowmesh/flow"
	"github.com/hupe1980/flowmesh/hashing"
)

// CacheScope is the scope Caching keeps its entries in.
const CacheScope = "__cache__"

// Caching returns the stored output of a previous invocation when the input,
// the described configuration and the type of the node are unchanged.
// Failed calls are never cached. The cache outlives runs; when cache is nil
// a private in-memory store is used.
func Caching(cache core.ContextStore) flow.Middleware {
	if cache == nil {
		cache = contextstore.NewInMemoryStore()
	}
	return func(owner *flow.Base, next flow.Handler) flow.Handler {
		return func(ctx context.Context, in flow.Input) (any, error) {
			key, err := cacheKey(owner, in)
			if err == nil {
				err = cache.CreateScope(CacheScope, true)
			}
			if err != nil {
				owner.Logger().Warn("caching disabled for call", "path", owner.AbsPath(), "error", err)
				return next(ctx, in)
			}

			if v, ok, err := cache.Get(key, CacheScope); err == nil && ok {
				owner.Logger().Debug("cache hit", "path", owner.AbsPath(), "key", key)
				_ = owner.Store().Set(KeyStatus, StatusCached, owner.AbsPath())
				return v, nil
			}

			out, err := next(ctx, in)
			if err != nil {
				return out, err
			}
			if serr := cache.Set(key, out, CacheScope); serr != nil {
				owner.Logger().Warn("failed to store cache entry", "path", owner.AbsPath(), "error", serr)
			}
			return out, nil
		}
	}
}

func cacheKey(owner *flow.Base, in flow.Input) (string, error) {
	desc, err := owner.Describe()
	if err != nil {
		return "", fmt.Errorf("describe %s: %w", owner.TypeName(), err)
	}
	return hashing.Sum(map[string]any{
		"input":      in,
		"definition": desc,
		"type":       owner.TypeName(),
	}), nil
}
