// Package discover orchestrates one prospecting request end to end: plan,
// search, extract with fallback, score, enrich, rank, cache.
package discover

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/signal-scout/internal/cost"
	"github.com/sells-group/signal-scout/internal/extract"
	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/internal/planner"
	"github.com/sells-group/signal-scout/internal/rank"
	"github.com/sells-group/signal-scout/internal/store"
)

// defaultResultCount is used when the request doesn't specify one.
const defaultResultCount = 5

// minQueryLen is the shortest accepted query after trimming.
const minQueryLen = 3

// Request is one discovery request.
type Request struct {
	Query           string `json:"query"`
	ExcludedDomain  string `json:"excluded_domain,omitempty"`
	ResultCount     int    `json:"result_count,omitempty"`
	IncludeContacts *bool  `json:"include_contacts,omitempty"`
}

// Meta carries per-request accounting alongside the results.
type Meta struct {
	Query       string      `json:"query"`
	ResultCount int         `json:"result_count"`
	LatencyMs   int64       `json:"latency_ms"`
	Cached      bool        `json:"cached"`
	Costs       model.Costs `json:"costs"`
}

// Response is the external result envelope. Success with zero results is a
// legitimate outcome; Error is set only when Success is false.
type Response struct {
	Success bool           `json:"success"`
	Results []model.Result `json:"results"`
	Meta    *Meta          `json:"meta,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// QueryPlanner expands the caller's query into search queries.
type QueryPlanner interface {
	Plan(ctx context.Context, query string) planner.Plan
}

// Searcher runs the fanned-out semantic search.
type Searcher interface {
	Run(ctx context.Context, queries []string, resultsPerQuery int) ([]model.SearchHit, float64, error)
}

// CandidateProducer runs extraction with its fallback tiers.
type CandidateProducer interface {
	Run(ctx context.Context, hits []model.SearchHit, query, excludedDomain string, descriptive bool) extract.Outcome
}

// ContactEnricher resolves contacts for a result batch.
type ContactEnricher interface {
	EnrichAll(ctx context.Context, results []model.Result) (float64, bool)
}

// Options are the orchestration tunables.
type Options struct {
	DescriptiveResultCount int
	LiteralResultCount     int
	CacheTTL               time.Duration
	ScoreConfig            extract.ScoreConfig
}

// Service runs discovery requests.
type Service struct {
	planner  QueryPlanner
	searcher Searcher
	producer CandidateProducer
	enricher ContactEnricher // nil when enrichment is not configured
	cache    store.Store     // nil disables caching
	caps     *Capabilities
	opts     Options
	now      func() time.Time
}

// NewService wires the pipeline together. enricher and cache may be nil.
func NewService(p QueryPlanner, s Searcher, producer CandidateProducer, enricher ContactEnricher, cache store.Store, caps *Capabilities, opts Options) *Service {
	if opts.DescriptiveResultCount <= 0 {
		opts.DescriptiveResultCount = 12
	}
	if opts.LiteralResultCount <= 0 {
		opts.LiteralResultCount = 25
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 24 * time.Hour
	}
	return &Service{
		planner:  p,
		searcher: s,
		producer: producer,
		enricher: enricher,
		cache:    cache,
		caps:     caps,
		opts:     opts,
		now:      time.Now,
	}
}

// Capabilities exposes the capability registry, for the health endpoint.
func (s *Service) Capabilities() *Capabilities {
	return s.caps
}

// Run executes one discovery request. It always returns a response, never
// panics: any pipeline panic is converted to a failed response.
func (s *Service) Run(ctx context.Context, req Request) (resp *Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("discover: panic recovered", zap.Any("panic", r))
			resp = s.fail(req, start, "internal error")
		}
	}()

	query := strings.TrimSpace(req.Query)
	if len(query) < minQueryLen {
		return s.fail(req, start, fmt.Sprintf("query must be at least %d characters", minQueryLen))
	}
	if !s.caps.Enabled(CapabilitySearch) {
		return s.fail(req, start, "search capability "+string(s.caps.Snapshot()[CapabilitySearch]))
	}
	if !s.caps.Enabled(CapabilityExtraction) {
		return s.fail(req, start, "extraction capability "+string(s.caps.Snapshot()[CapabilityExtraction]))
	}

	resultCount := req.ResultCount
	if resultCount <= 0 {
		resultCount = defaultResultCount
	}
	includeContacts := req.IncludeContacts == nil || *req.IncludeContacts
	wantContacts := includeContacts && s.enricher != nil && s.caps.Enabled(CapabilityEnrichment)

	log := zap.L().With(zap.String("query", query))
	key := store.CacheKey(query, req.ExcludedDomain)

	if cached := s.readCache(ctx, log, key, wantContacts); cached != nil {
		return &Response{
			Success: true,
			Results: truncate(cached.Results, resultCount),
			Meta: &Meta{
				Query:       query,
				ResultCount: len(truncate(cached.Results, resultCount)),
				LatencyMs:   time.Since(start).Milliseconds(),
				Cached:      true,
			},
		}
	}

	tracker := cost.NewTracker()

	plan := s.planner.Plan(ctx, query)
	tracker.AddModel(plan.CostUSD)

	perQuery := s.opts.LiteralResultCount
	if plan.Descriptive {
		perQuery = s.opts.DescriptiveResultCount
	}
	hits, searchCost, err := s.searcher.Run(ctx, plan.Queries, perQuery)
	tracker.AddSearch(searchCost)
	if err != nil {
		s.caps.MarkRejected(CapabilitySearch)
		return s.fail(req, start, "search provider rejected credentials")
	}

	// No hits at all is a successful empty result: there is nothing to
	// extract, so no fallback tier can apply.
	if len(hits) == 0 {
		return &Response{
			Success: true,
			Results: []model.Result{},
			Meta:    s.meta(query, 0, start, tracker.Costs()),
		}
	}

	outcome := s.producer.Run(ctx, hits, query, req.ExcludedDomain, plan.Descriptive)
	tracker.AddModel(outcome.ModelCost)
	tracker.AddSearch(outcome.SearchCost)

	batch := outcome.Candidates
	extract.ScoreAll(batch, s.opts.ScoreConfig, s.now())
	deduped := extract.Dedup(batch)

	results := make([]model.Result, 0, len(deduped))
	for _, c := range deduped {
		results = append(results, model.Result{Company: c})
	}

	if wantContacts && len(results) > 0 {
		enrichCost, rejected := s.enricher.EnrichAll(ctx, results)
		tracker.AddEnrichment(enrichCost)
		if rejected {
			s.caps.MarkRejected(CapabilityEnrichment)
		}
	}

	ranked := rank.Rank(results)
	s.writeCache(ctx, log, key, query, ranked)

	final := truncate(ranked, resultCount)
	return &Response{
		Success: true,
		Results: final,
		Meta:    s.meta(query, len(final), start, tracker.Costs()),
	}
}

func (s *Service) readCache(ctx context.Context, log *zap.Logger, key string, wantContacts bool) *store.CachedDiscovery {
	if s.cache == nil {
		return nil
	}
	cached, err := s.cache.GetCachedDiscovery(ctx, key, wantContacts)
	if err != nil {
		log.Warn("discover: cache read failed", zap.Error(err))
		return nil
	}
	return cached
}

// writeCache persists the full ranked list so later requests with a higher
// result count still hit. Failures are logged, never surfaced.
func (s *Service) writeCache(ctx context.Context, log *zap.Logger, key, query string, ranked []model.Result) {
	if s.cache == nil || len(ranked) == 0 {
		return
	}
	if err := s.cache.SetCachedDiscovery(ctx, key, query, ranked, s.opts.CacheTTL); err != nil {
		log.Warn("discover: cache write failed", zap.Error(err))
	}
}

func (s *Service) meta(query string, n int, start time.Time, costs model.Costs) *Meta {
	return &Meta{
		Query:       query,
		ResultCount: n,
		LatencyMs:   time.Since(start).Milliseconds(),
		Costs:       costs,
	}
}

func (s *Service) fail(req Request, start time.Time, msg string) *Response {
	return &Response{
		Success: false,
		Results: []model.Result{},
		Meta: &Meta{
			Query:     strings.TrimSpace(req.Query),
			LatencyMs: time.Since(start).Milliseconds(),
		},
		Error: msg,
	}
}

func truncate(results []model.Result, n int) []model.Result {
	if len(results) > n {
		return results[:n]
	}
	return results
}
