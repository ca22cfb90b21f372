package extract

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/pkg/llm"
)

// mockBackend implements llm.Backend with canned output.
type mockBackend struct {
	text  string
	cost  float64
	err   error
	calls int
}

func (m *mockBackend) Name() string { return "mock" }
func (m *mockBackend) Complete(_ context.Context, _ llm.Request) (*llm.Response, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &llm.Response{Text: m.text, CostUSD: m.cost}, nil
}

func sampleHits() []model.SearchHit {
	return []model.SearchHit{
		{URL: "https://acme.com/blog/series-a", Title: "Acme raises Series A", Relevance: 0.9},
		{URL: "https://techcrunch.com/2026/08/acme-raises", Title: "Acme raises $12M", Relevance: 0.8},
		{URL: "https://bigco.io/careers", Title: "BigCo is hiring", Relevance: 0.7},
	}
}

func TestExtractDomainComesFromHitURL(t *testing.T) {
	// The model claims acme.com for both items; the domain must come from
	// each item's hit URL, so the techcrunch-sourced one is dropped as a
	// news domain, not credited to Acme.
	backend := &mockBackend{text: `[
		{"hit_index": 0, "company_name": "Acme", "company_domain": "acme.com", "signal_type": "funding", "signal_headline": "Acme raises Series A", "source_type": "company_page", "confidence": 0.9},
		{"hit_index": 1, "company_name": "Acme", "company_domain": "acme.com", "signal_type": "funding", "signal_headline": "Acme raises $12M", "source_type": "news", "confidence": 0.9}
	]`, cost: 0.01}

	e := NewExtractor(backend, 25)
	candidates, cost := e.Extract(context.Background(), sampleHits(), "")

	require.Len(t, candidates, 1)
	assert.Equal(t, "acme.com", candidates[0].CompanyDomain)
	assert.Equal(t, "https://acme.com/blog/series-a", candidates[0].SourceURL)
	assert.InDelta(t, 0.01, cost, 1e-9)
}

func TestExtractDropsInvalidIndex(t *testing.T) {
	backend := &mockBackend{text: `[
		{"company_name": "NoIndex Co", "signal_type": "hiring", "confidence": 0.8},
		{"hit_index": 99, "company_name": "OutOfRange Co", "signal_type": "hiring", "confidence": 0.8},
		{"hit_index": 2, "company_name": "BigCo", "signal_type": "hiring", "signal_headline": "BigCo is hiring", "source_type": "job_posting", "confidence": 0.8}
	]`}

	e := NewExtractor(backend, 25)
	candidates, _ := e.Extract(context.Background(), sampleHits(), "")

	require.Len(t, candidates, 1)
	assert.Equal(t, "BigCo", candidates[0].CompanyName)
}

func TestExtractDropsNameDomainMismatch(t *testing.T) {
	// Model attributes a candidate to a hit whose URL belongs to a
	// different company entirely.
	backend := &mockBackend{text: `[
		{"hit_index": 2, "company_name": "Acme Robotics", "signal_type": "funding", "confidence": 0.9}
	]`}

	e := NewExtractor(backend, 25)
	candidates, _ := e.Extract(context.Background(), sampleHits(), "")
	assert.Empty(t, candidates)
}

func TestExtractDropsMediaBrandName(t *testing.T) {
	hits := []model.SearchHit{{URL: "https://example-aggregator.net/post", Title: "Roundup"}}
	backend := &mockBackend{text: `[
		{"hit_index": 0, "company_name": "TechCrunch", "signal_type": "other", "confidence": 0.9}
	]`}

	e := NewExtractor(backend, 25)
	candidates, _ := e.Extract(context.Background(), hits, "")
	assert.Empty(t, candidates)
}

func TestExtractHonorsExcludedDomain(t *testing.T) {
	backend := &mockBackend{text: `[
		{"hit_index": 0, "company_name": "Acme", "signal_type": "funding", "confidence": 0.9}
	]`}

	e := NewExtractor(backend, 25)
	candidates, _ := e.Extract(context.Background(), sampleHits(), "acme.com")
	assert.Empty(t, candidates)
}

func TestExtractModelFailureIsNotFatal(t *testing.T) {
	e := NewExtractor(&mockBackend{err: eris.New("model down")}, 25)
	candidates, cost := e.Extract(context.Background(), sampleHits(), "")
	assert.Empty(t, candidates)
	assert.Zero(t, cost)
}

func TestExtractGarbageOutputStillReportsCost(t *testing.T) {
	e := NewExtractor(&mockBackend{text: "no json here", cost: 0.004}, 25)
	candidates, cost := e.Extract(context.Background(), sampleHits(), "")
	assert.Empty(t, candidates)
	assert.InDelta(t, 0.004, cost, 1e-9)
}

func TestExtractCapsHits(t *testing.T) {
	hits := make([]model.SearchHit, 40)
	for i := range hits {
		hits[i] = model.SearchHit{URL: "https://acme.com", Title: "Acme"}
	}
	backend := &mockBackend{text: `[]`}
	e := NewExtractor(backend, 25)
	_, _ = e.Extract(context.Background(), hits, "")
	assert.Equal(t, 1, backend.calls)
}

func TestExtractFallsBackToHitDate(t *testing.T) {
	hits := sampleHits()
	ts := mustDate(t, "2026-08-01")
	hits[0].PublishedAt = &ts
	backend := &mockBackend{text: `[
		{"hit_index": 0, "company_name": "Acme", "signal_type": "funding", "signal_date": null, "confidence": 0.9}
	]`}

	e := NewExtractor(backend, 25)
	candidates, _ := e.Extract(context.Background(), hits, "")
	require.Len(t, candidates, 1)
	require.NotNil(t, candidates[0].SignalDate)
	assert.Equal(t, ts, *candidates[0].SignalDate)
}

func TestTruncateSnippetKeepsRunesWhole(t *testing.T) {
	// 2-byte runes with an odd byte limit: the cut must back off to the
	// rune boundary instead of emitting half a rune.
	s := strings.Repeat("é", 100)
	out := truncateSnippet(s, 101)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, 100, len(out))

	assert.Equal(t, "short", truncateSnippet("short", 100))
	assert.Equal(t, "abc", truncateSnippet("abcdef", 3))
}
