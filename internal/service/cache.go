package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ledgerline/covtrace/internal/covenant"
	"github.com/ledgerline/covtrace/internal/logging"
	"github.com/ledgerline/covtrace/internal/temporal"
)

// predictionCache memoizes facility predictions keyed by facility id and
// snapshot fingerprint. It is invalidated wholesale whenever the pattern
// library changes.
type predictionCache struct {
	lru    *lru.Cache[string, temporal.FacilityPrediction]
	logger *logging.Logger

	hits   uint64
	misses uint64
}

func newPredictionCache(size int, logger *logging.Logger) (*predictionCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}

	cache, err := lru.New[string, temporal.FacilityPrediction](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction cache: %w", err)
	}

	return &predictionCache{lru: cache, logger: logger}, nil
}

func (c *predictionCache) get(key string) (temporal.FacilityPrediction, bool) {
	p, ok := c.lru.Get(key)
	if ok {
		atomic.AddUint64(&c.hits, 1)
	} else {
		atomic.AddUint64(&c.misses, 1)
	}
	return p, ok
}

func (c *predictionCache) put(key string, p temporal.FacilityPrediction) {
	c.lru.Add(key, p)
}

func (c *predictionCache) purge() {
	c.lru.Purge()
	c.logger.Debug("prediction cache purged")
}

func (c *predictionCache) stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}

// cacheKey fingerprints a facility snapshot together with the pattern
// library generation, so any state, duration, status or library change
// produces a new key. Folding the generation in means a prediction
// computed against an old library can never be served after a reload,
// even when its put lands after the purge.
func cacheKey(fac covenant.FacilitySnapshot, generation uint64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d", fac.FacilityID, fac.Status, generation)
	for _, c := range fac.Covenants {
		fmt.Fprintf(h, "|%s:%s:%.2f", c.CovenantID, c.State, c.DaysInState)
	}
	return fac.FacilityID + "-" + hex.EncodeToString(h.Sum(nil)[:8])
}
