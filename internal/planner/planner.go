// Package planner turns the caller's free-text query into one or more
// search queries. Short queries pass through literally; descriptive ones
// are expanded by a language model into complementary angles.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/signal-scout/pkg/llm"
)

// queryPrompt asks for exactly five complementary queries. The angles are
// fixed so one expansion covers hiring, funding, growth, news and industry
// coverage without overlapping.
const queryPrompt = `You are a B2B prospecting researcher. Given a description of an ideal target company, produce exactly 5 complementary web search queries that will surface REAL COMPANIES currently showing buying signals, not commentary or listicles.

Cover these angles, one query each:
1. hiring (job postings, team growth)
2. funding (rounds, investments)
3. growth (expansion, new markets, new offices)
4. recent news (announcements, press releases)
5. industry activity (partnerships, acquisitions, certifications)

Prefer recent, event-driven phrasing ("just raised", "is hiring", "announced", "opened"). Respond with ONLY a JSON array of 5 strings, no other text.`

// Plan is the outcome of query planning.
type Plan struct {
	Queries     []string
	Descriptive bool
	CostUSD     float64
}

// Planner decides literal vs. descriptive and expands descriptive queries.
type Planner struct {
	backend  llm.Backend
	minWords int
}

// New creates a Planner. minWords is the descriptive-query threshold.
func New(backend llm.Backend, minWords int) *Planner {
	if minWords <= 0 {
		minWords = 5
	}
	return &Planner{backend: backend, minWords: minWords}
}

// IsDescriptive reports whether a query reads like a description of a
// company rather than a literal search term.
func (p *Planner) IsDescriptive(query string) bool {
	return len(strings.Fields(query)) >= p.minWords
}

// Plan expands a descriptive query into several search queries via the
// model, or returns the query as a single literal one. Planning never
// fails: any model or parse error falls back to the literal query.
func (p *Planner) Plan(ctx context.Context, query string) Plan {
	literal := Plan{Queries: []string{query}}

	if !p.IsDescriptive(query) {
		return literal
	}
	literal.Descriptive = true

	resp, err := p.backend.Complete(ctx, llm.Request{
		System:    queryPrompt,
		Prompt:    fmt.Sprintf("Ideal target company description:\n%s", query),
		MaxTokens: 512,
	})
	if err != nil {
		zap.L().Warn("planner: query generation failed, using literal query", zap.Error(err))
		return literal
	}
	literal.CostUSD = resp.CostUSD

	queries, err := parseQueries(resp.Text)
	if err != nil {
		zap.L().Warn("planner: could not parse generated queries", zap.Error(err))
		return literal
	}

	return Plan{Queries: queries, Descriptive: true, CostUSD: resp.CostUSD}
}

// parseQueries extracts the first JSON array of strings from model output.
func parseQueries(text string) ([]string, error) {
	cleaned := llm.StripFences(text)

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var queries []string
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &queries); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(queries))
	for _, q := range queries {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty query array")
	}
	return out, nil
}
