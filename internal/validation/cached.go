package validation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"contractcreator/internal/metrics"
	"contractcreator/internal/types"
)

// CachedValidator memoizes successful results by contract text. Validator
// failures are never cached.
type CachedValidator struct {
	next    Validator
	cache   *lru.Cache[string, []types.StructuredError]
	metrics *metrics.Metrics
}

func NewCachedValidator(next Validator, size int, m *metrics.Metrics) (*CachedValidator, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []types.StructuredError](size)
	if err != nil {
		return nil, err
	}
	return &CachedValidator{next: next, cache: cache, metrics: m}, nil
}

func (c *CachedValidator) Validate(ctx context.Context, contractJSON string) ([]types.StructuredError, error) {
	key := cacheKey(contractJSON)
	if errs, ok := c.cache.Get(key); ok {
		c.metrics.AddValidatorCacheLookup(true)
		return append([]types.StructuredError(nil), errs...), nil
	}
	c.metrics.AddValidatorCacheLookup(false)

	errs, err := c.next.Validate(ctx, contractJSON)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, append([]types.StructuredError(nil), errs...))
	return errs, nil
}

func (c *CachedValidator) Len() int { return c.cache.Len() }

func cacheKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
