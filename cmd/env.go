package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/signal-scout/internal/discover"
	"github.com/sells-group/signal-scout/internal/enrich"
	"github.com/sells-group/signal-scout/internal/extract"
	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/internal/planner"
	"github.com/sells-group/signal-scout/internal/search"
	"github.com/sells-group/signal-scout/internal/store"
	"github.com/sells-group/signal-scout/pkg/apollo"
	"github.com/sells-group/signal-scout/pkg/exa"
	"github.com/sells-group/signal-scout/pkg/llm"
)

// initStore opens the cache backend selected by store.driver.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "", "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initService builds the discovery pipeline from configuration. A missing
// search or model credential leaves that capability disabled rather than
// failing construction; requests report the state.
func initService(st store.Store) *discover.Service {
	log := zap.L()

	var backend llm.Backend
	if cfg.LLM.SelectedKey() != "" {
		b, err := llm.New(llm.Config{
			Provider:        cfg.LLM.Provider,
			OpenAIKey:       cfg.LLM.OpenAIKey,
			OpenAIModel:     cfg.LLM.OpenAIModel,
			AzureKey:        cfg.LLM.AzureKey,
			AzureEndpoint:   cfg.LLM.AzureEndpoint,
			AzureDeployment: cfg.LLM.AzureDeployment,
			AnthropicKey:    cfg.LLM.AnthropicKey,
			AnthropicModel:  cfg.LLM.AnthropicModel,
			MaxTokens:       cfg.LLM.MaxTokens,
			Rates:           modelRates(),
		})
		if err != nil {
			log.Warn("llm backend unavailable", zap.Error(err))
		} else {
			backend = b
		}
	}

	var searcher *search.Searcher
	if cfg.Exa.Key != "" {
		client := exa.NewClient(cfg.Exa.Key, exa.WithBaseURL(cfg.Exa.BaseURL))
		searcher = search.New(client, cfg.Pricing.SearchPerQuery)
	}

	var producer discover.CandidateProducer
	var plan discover.QueryPlanner
	if backend != nil {
		plan = planner.New(backend, cfg.Discover.DescriptiveMinWords)
		extractor := extract.NewExtractor(backend, cfg.Discover.MaxExtractHits)
		var retry extract.SearchFunc
		if searcher != nil {
			retry = func(ctx context.Context, query string, n int) ([]model.SearchHit, float64) {
				hits, searchCost, err := searcher.Run(ctx, []string{query}, n)
				if err != nil {
					return nil, searchCost
				}
				return hits, searchCost
			}
		}
		producer = extract.NewController(extractor, retry,
			cfg.Discover.Tier2Threshold, cfg.Discover.Tier3Threshold, cfg.Discover.LiteralResultCount)
	}

	var enricher discover.ContactEnricher
	if cfg.Apollo.Key != "" {
		tiers, err := enrich.LoadTiers(cfg.Enrich.TiersPath)
		if err != nil {
			log.Warn("enrichment tiers unavailable, using defaults", zap.Error(err))
			tiers = enrich.DefaultTiers()
		}
		client := apollo.NewClient(cfg.Apollo.Key,
			apollo.WithBaseURL(cfg.Apollo.BaseURL),
			apollo.WithRateLimit(cfg.Apollo.RequestsPerSecond),
		)
		enricher = enrich.New(client, tiers, cfg.Pricing.EnrichPerLookup, cfg.Discover.EnrichConcurrency)
	}

	caps := discover.NewCapabilities(
		cfg.Exa.Key != "",
		backend != nil,
		enricher != nil,
	)

	var searchIface discover.Searcher
	if searcher != nil {
		searchIface = searcher
	}

	return discover.NewService(plan, searchIface, producer, enricher, st, caps, discover.Options{
		DescriptiveResultCount: cfg.Discover.DescriptiveResultCount,
		LiteralResultCount:     cfg.Discover.LiteralResultCount,
		CacheTTL:               time.Duration(cfg.Discover.CacheTTLHours) * time.Hour,
		ScoreConfig:            extract.DefaultScoreConfig(),
	})
}

func modelRates() llm.Rates {
	rates := make(llm.Rates, len(cfg.Pricing.Models))
	for name, r := range cfg.Pricing.Models {
		rates[name] = llm.Rate{Input: r.Input, Output: r.Output}
	}
	return rates
}
