// Package service orchestrates the temporal engine over a loaded
// portfolio: per-facility predictions with caching, portfolio-wide
// fan-out, graph queries, cascade analysis and analytics rollups.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/covtrace/internal/covenant"
	"github.com/ledgerline/covtrace/internal/logging"
	"github.com/ledgerline/covtrace/internal/patternlib"
	"github.com/ledgerline/covtrace/internal/temporal"
)

// Options configures a Predictor.
type Options struct {
	// CacheSize is the maximum number of memoized predictions. Default 256.
	CacheSize int

	// Concurrency bounds parallel facility predictions in portfolio
	// runs. Default 8.
	Concurrency int

	// Metrics is optional; nil records nothing.
	Metrics *Metrics
}

// Predictor runs the engine pipeline for facilities of one portfolio.
// The engine itself is stateless; the predictor only holds the immutable
// inputs (portfolio, seeded pattern library) and a prediction cache.
type Predictor struct {
	portfolio   *covenant.Portfolio
	cache       *predictionCache
	metrics     *Metrics
	logger      *logging.Logger
	concurrency int

	// seeded is swapped wholesale on pattern library reload.
	mu     sync.RWMutex
	seeded []temporal.CausalPattern

	// generation counts library swaps and is folded into cache keys so
	// in-flight predictions cannot reinsert stale entries after a purge.
	generation uint64
}

// NewPredictor creates a predictor over the given portfolio and seeded
// pattern library.
func NewPredictor(portfolio *covenant.Portfolio, seeded []temporal.CausalPattern, opts Options) (*Predictor, error) {
	if portfolio == nil {
		return nil, fmt.Errorf("portfolio cannot be nil")
	}
	if opts.CacheSize == 0 {
		opts.CacheSize = 256
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = 8
	}

	logger := logging.GetLogger("service.predictor")
	cache, err := newPredictionCache(opts.CacheSize, logger)
	if err != nil {
		return nil, err
	}

	return &Predictor{
		portfolio:   portfolio,
		seeded:      seeded,
		cache:       cache,
		metrics:     opts.Metrics,
		logger:      logger,
		concurrency: opts.Concurrency,
	}, nil
}

// SetPatterns swaps the seeded pattern library and invalidates every
// cached prediction. Called by the pattern file watcher on reload.
func (p *Predictor) SetPatterns(patterns []temporal.CausalPattern) {
	p.mu.Lock()
	p.seeded = patterns
	p.mu.Unlock()

	atomic.AddUint64(&p.generation, 1)
	p.cache.purge()
	p.metrics.observeReload()
	p.logger.InfoWithFields("pattern library swapped",
		logging.Field("seeded_patterns", len(patterns)),
	)
}

// Predict computes the full prediction artifact for one facility:
// detected chains, active pattern matches, risk assessment and
// recommended interventions. Results are memoized until the facility
// snapshot or the pattern library changes.
func (p *Predictor) Predict(ctx context.Context, facilityID string) (temporal.FacilityPrediction, error) {
	start := time.Now()
	prediction, err := p.predict(ctx, facilityID)
	p.metrics.observePrediction(time.Since(start).Seconds(), err)
	return prediction, err
}

func (p *Predictor) predict(ctx context.Context, facilityID string) (temporal.FacilityPrediction, error) {
	if err := ctx.Err(); err != nil {
		return temporal.FacilityPrediction{}, err
	}

	fac, err := p.portfolio.Facility(facilityID)
	if err != nil {
		return temporal.FacilityPrediction{}, err
	}

	key := cacheKey(fac, atomic.LoadUint64(&p.generation))
	if cached, ok := p.cache.get(key); ok {
		p.metrics.observeCache(true)
		return cached, nil
	}
	p.metrics.observeCache(false)

	// Read the clock once so every derived timestamp in this prediction
	// agrees.
	now := time.Now()

	chains, err := temporal.DetectCausalChains(p.facilityHistories(fac), temporal.DefaultMinChainLength)
	if err != nil {
		return temporal.FacilityPrediction{}, fmt.Errorf("chain detection for %s: %w", facilityID, err)
	}

	library := p.library(chains)

	var detections []temporal.ActivePatternDetection
	for _, c := range fac.Covenants {
		detections = append(detections, temporal.DetectActivePatterns(c, library, now)...)
	}
	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].MatchConfidence > detections[j].MatchConfidence
	})

	risk := temporal.AssessRisk(fac, detections)
	interventions := temporal.RecommendInterventions(risk, detections, now)

	var transitions []temporal.PredictedNode
	for _, d := range detections {
		transitions = append(transitions, d.PredictedRemaining...)
	}

	prediction := temporal.FacilityPrediction{
		FacilityID:            facilityID,
		GeneratedAt:           now,
		ActivePatterns:        detections,
		PredictedTransitions:  transitions,
		RiskAssessment:        risk,
		Interventions:         interventions,
		OverallConfidence:     overallConfidence(detections, transitions),
		PredictionHorizonDays: temporal.PredictionHorizonDays,
	}

	p.cache.put(key, prediction)
	p.logger.DebugWithFields("prediction computed",
		logging.Field("facility_id", facilityID),
		logging.Field("active_patterns", len(detections)),
		logging.Field("risk_level", risk.RiskLevel),
	)
	return prediction, nil
}

// PredictPortfolio fans out per-facility predictions with bounded
// concurrency. Each engine call is independent and stateless, so no
// coordination beyond the error group is needed.
func (p *Predictor) PredictPortfolio(ctx context.Context) ([]temporal.FacilityPrediction, error) {
	facilities := p.portfolio.Facilities
	predictions := make([]temporal.FacilityPrediction, len(facilities))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for i, fac := range facilities {
		g.Go(func() error {
			prediction, err := p.Predict(gctx, fac.FacilityID)
			if err != nil {
				return fmt.Errorf("facility %s: %w", fac.FacilityID, err)
			}
			predictions[i] = prediction
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.logger.WithField("facilities", len(facilities)).Debug("portfolio prediction complete")
	return predictions, nil
}

// Graph materializes the full temporal graph for the portfolio.
func (p *Predictor) Graph() ([]temporal.TemporalNode, []temporal.TemporalEdge, error) {
	var nodes []temporal.TemporalNode
	var edges []temporal.TemporalEdge

	for _, fac := range p.portfolio.Facilities {
		for _, c := range fac.Covenants {
			history := p.portfolio.Histories[c.CovenantID]
			if len(history) == 0 {
				continue
			}
			n, e, err := temporal.BuildEntityGraph(history, c.Name, fac.FacilityID)
			if err != nil {
				return nil, nil, fmt.Errorf("graph for covenant %s: %w", c.CovenantID, err)
			}
			nodes = append(nodes, n...)
			edges = append(edges, e...)
		}
	}

	return nodes, edges, nil
}

// Query applies a declarative filter to the portfolio graph.
func (p *Predictor) Query(q temporal.TemporalGraphQuery) (temporal.QueryResult, error) {
	nodes, edges, err := p.Graph()
	if err != nil {
		return temporal.QueryResult{}, err
	}
	return temporal.ApplyQuery(q, nodes, edges), nil
}

// Cascade analyzes downstream impact of one trigger node over the
// portfolio graph.
func (p *Predictor) Cascade(triggerID string) (temporal.EventCascade, error) {
	nodes, edges, err := p.Graph()
	if err != nil {
		return temporal.EventCascade{}, err
	}
	return temporal.AnalyzeCascade(triggerID, nodes, edges)
}

// Analytics rolls the whole portfolio up into summary statistics.
func (p *Predictor) Analytics(ctx context.Context) (temporal.PortfolioAnalytics, error) {
	nodes, edges, err := p.Graph()
	if err != nil {
		return temporal.PortfolioAnalytics{}, err
	}

	chains, err := temporal.DetectCausalChains(p.allHistories(), temporal.DefaultMinChainLength)
	if err != nil {
		return temporal.PortfolioAnalytics{}, err
	}

	predictions, err := p.PredictPortfolio(ctx)
	if err != nil {
		return temporal.PortfolioAnalytics{}, err
	}

	return temporal.Aggregate(nodes, edges, chains, p.library(chains), predictions, time.Now()), nil
}

// library merges the seeded patterns with ones derived from detected
// chains into a fresh immutable value for this call.
func (p *Predictor) library(chains []temporal.CausalChain) []temporal.CausalPattern {
	p.mu.RLock()
	seeded := p.seeded
	p.mu.RUnlock()

	return patternlib.Merge(seeded, temporal.DerivePatterns(chains))
}

func (p *Predictor) facilityHistories(fac covenant.FacilitySnapshot) []temporal.EntityHistory {
	var histories []temporal.EntityHistory
	for _, c := range fac.Covenants {
		if transitions, ok := p.portfolio.Histories[c.CovenantID]; ok {
			histories = append(histories, temporal.EntityHistory{
				EntityID:    c.CovenantID,
				EntityName:  c.Name,
				FacilityID:  fac.FacilityID,
				Transitions: transitions,
			})
		}
	}
	return histories
}

func (p *Predictor) allHistories() []temporal.EntityHistory {
	var histories []temporal.EntityHistory
	for _, fac := range p.portfolio.Facilities {
		histories = append(histories, p.facilityHistories(fac)...)
	}
	return histories
}

// CacheStats reports prediction cache hit/miss counts.
func (p *Predictor) CacheStats() (hits, misses uint64) {
	return p.cache.stats()
}

// overallConfidence is the mean of every contributing confidence in the
// prediction. No contributors means no confidence to report.
func overallConfidence(detections []temporal.ActivePatternDetection, transitions []temporal.PredictedNode) float64 {
	var sum float64
	var count int
	for _, d := range detections {
		sum += d.MatchConfidence
		count++
	}
	for _, t := range transitions {
		sum += t.Confidence
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
