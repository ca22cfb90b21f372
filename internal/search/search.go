// Package search fans sub-queries out to the semantic-search service,
// merges the hits, and drops domains that can never be a prospect.
package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/signal-scout/internal/domainutil"
	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/internal/resilience"
	"github.com/sells-group/signal-scout/pkg/exa"
)

// socialPlatforms are hosting/UGC domains that never identify a company of
// their own. Hits on these are dropped outright.
var socialPlatforms = []string{
	"linkedin.com", "twitter.com", "x.com", "facebook.com", "youtube.com",
	"medium.com", "substack.com", "github.com", "reddit.com", "instagram.com",
}

// Searcher runs semantic searches and normalizes the results.
type Searcher struct {
	client       exa.Client
	perQueryCost float64 // fallback estimate when the provider reports no cost
	maxChars     int
}

// New creates a Searcher. perQueryCost is the flat estimate used when the
// provider response carries no cost of its own.
func New(client exa.Client, perQueryCost float64) *Searcher {
	return &Searcher{client: client, perQueryCost: perQueryCost, maxChars: 1500}
}

// Run issues all queries concurrently, merges hits, dedups by domain
// (keeping the higher-relevance hit) and drops social/UGC platforms.
// Individual query failures degrade to zero hits for that query; zero hits
// overall is a successful, empty result, not an error. The one exception is
// a rejected credential with nothing to show for it: that comes back as an
// error so the caller can disable the capability.
func (s *Searcher) Run(ctx context.Context, queries []string, resultsPerQuery int) ([]model.SearchHit, float64, error) {
	log := zap.L().With(zap.Int("queries", len(queries)))

	var mu sync.Mutex
	var all []model.SearchHit
	var totalCost float64
	var authErr error

	g, gCtx := errgroup.WithContext(ctx)
	for _, q := range queries {
		query := q
		g.Go(func() error {
			resp, err := s.client.Search(gCtx, exa.SearchRequest{
				Query:      query,
				NumResults: resultsPerQuery,
				Contents:   &exa.Contents{Text: exa.TextContents{MaxCharacters: s.maxChars}},
			})
			if err != nil {
				log.Warn("search: sub-query failed", zap.String("query", query), zap.Error(err))
				if resilience.IsAuthRejected(err) {
					mu.Lock()
					authErr = err
					mu.Unlock()
				}
				return nil
			}

			cost := s.perQueryCost
			if resp.CostDollars != nil && resp.CostDollars.Total > 0 {
				cost = resp.CostDollars.Total
			}

			hits := make([]model.SearchHit, 0, len(resp.Results))
			for _, r := range resp.Results {
				hits = append(hits, toHit(r))
			}

			mu.Lock()
			all = append(all, hits...)
			totalCost += cost
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	merged := Merge(all)
	log.Info("search: complete",
		zap.Int("raw_hits", len(all)),
		zap.Int("merged_hits", len(merged)),
	)
	if len(merged) == 0 && authErr != nil {
		return nil, totalCost, authErr
	}
	return merged, totalCost, nil
}

// Merge dedups hits by domain, keeping the higher-relevance hit per domain,
// and drops hits on social/UGC platforms or with no resolvable domain.
func Merge(hits []model.SearchHit) []model.SearchHit {
	best := make(map[string]model.SearchHit)
	var order []string

	for _, h := range hits {
		domain := domainutil.ExtractDomain(h.URL)
		if domain == "" || isSocialPlatform(domain) {
			continue
		}
		existing, seen := best[domain]
		if !seen {
			order = append(order, domain)
			best[domain] = h
			continue
		}
		if h.Relevance > existing.Relevance {
			best[domain] = h
		}
	}

	out := make([]model.SearchHit, 0, len(order))
	for _, d := range order {
		out = append(out, best[d])
	}
	return out
}

func isSocialPlatform(domain string) bool {
	for _, p := range socialPlatforms {
		if domain == p || strings.HasSuffix(domain, "."+p) {
			return true
		}
	}
	return false
}

func toHit(r exa.Result) model.SearchHit {
	h := model.SearchHit{
		ID:        r.ID,
		URL:       r.URL,
		Title:     r.Title,
		Relevance: r.Score,
		Snippet:   r.Text,
	}
	if r.PublishedDate != "" {
		if ts, err := time.Parse(time.RFC3339, r.PublishedDate); err == nil {
			h.PublishedAt = &ts
		} else if ts, err := time.Parse("2006-01-02", r.PublishedDate); err == nil {
			h.PublishedAt = &ts
		}
	}
	return h
}
