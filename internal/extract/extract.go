// Package extract turns search hits into validated company candidates. The
// model proposes candidates; everything that matters for correctness, the
// company domain above all, is re-derived or checked locally.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/sells-group/signal-scout/internal/domainutil"
	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/pkg/llm"
)

// extractPrompt is the system prompt for candidate extraction. The model is
// told to be generous: weak candidates are cheaper to filter here than to
// re-search.
const extractPrompt = `You are extracting company prospects from web search results. For each result that mentions a REAL company showing a business signal (funding, hiring, expansion, exec_change, acquisition, partnership, certification), emit one JSON object:

{"hit_index": <index of the search result>, "company_name": "...", "company_domain": "...", "signal_type": "funding|hiring|expansion|exec_change|acquisition|partnership|certification|other", "signal_headline": "...", "signal_date": "YYYY-MM-DD or null", "source_type": "company_page|news|job_posting|press_release", "confidence": 0.0-1.0}

Rules:
- company_domain must be the company's OWN website, never the publication that reported the story.
- One object per company per result; a result may mention several companies.
- Include candidates down to confidence 0.3 — filtering happens downstream, so be generous.
- Respond with ONLY a JSON array, no other text.`

// maxSnippetChars bounds per-hit body text sent to the model.
const maxSnippetChars = 1500

// extractedItem is the model's raw per-candidate output.
type extractedItem struct {
	HitIndex       *int     `json:"hit_index"`
	CompanyName    string   `json:"company_name"`
	CompanyDomain  string   `json:"company_domain"` // discarded; kept only for logging
	SignalType     string   `json:"signal_type"`
	SignalHeadline string   `json:"signal_headline"`
	SignalDate     string   `json:"signal_date"`
	SourceType     string   `json:"source_type"`
	Confidence     *float64 `json:"confidence"`
}

// Extractor runs model extraction over search hits.
type Extractor struct {
	backend llm.Backend
	maxHits int
}

// NewExtractor creates an Extractor. maxHits caps the hits per model call.
func NewExtractor(backend llm.Backend, maxHits int) *Extractor {
	if maxHits <= 0 {
		maxHits = 25
	}
	return &Extractor{backend: backend, maxHits: maxHits}
}

// Extract sends hits to the model and returns validated, unscored
// candidates plus the model cost. A model or parse failure returns zero
// candidates and no error: the fallback controller treats that as an
// under-producing tier, not a request failure.
func (e *Extractor) Extract(ctx context.Context, hits []model.SearchHit, excludedDomain string) ([]model.Candidate, float64) {
	if len(hits) == 0 {
		return nil, 0
	}
	if len(hits) > e.maxHits {
		hits = hits[:e.maxHits]
	}

	resp, err := e.backend.Complete(ctx, llm.Request{
		System:    extractPrompt,
		Prompt:    buildHitContext(hits, excludedDomain),
		MaxTokens: 4096,
	})
	if err != nil {
		zap.L().Warn("extract: model call failed", zap.Error(err))
		return nil, 0
	}

	items, err := parseItems(resp.Text)
	if err != nil {
		zap.L().Warn("extract: unparseable model output", zap.Error(err))
		return nil, resp.CostUSD
	}

	return validate(items, hits, excludedDomain), resp.CostUSD
}

// buildHitContext renders the numbered hit list the prompt references.
func buildHitContext(hits []model.SearchHit, excludedDomain string) string {
	var b strings.Builder
	if excludedDomain != "" {
		fmt.Fprintf(&b, "Exclude any candidate whose own domain is %s.\n\n", excludedDomain)
	}
	fmt.Fprintf(&b, "Search results (%d):\n\n", len(hits))
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s\nURL: %s\n", i, h.Title, h.URL)
		if h.PublishedAt != nil {
			fmt.Fprintf(&b, "Published: %s\n", h.PublishedAt.Format("2006-01-02"))
		}
		if h.Snippet != "" {
			fmt.Fprintf(&b, "Content: %s\n", truncateSnippet(h.Snippet, maxSnippetChars))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// truncateSnippet bounds s to max bytes without splitting a rune.
func truncateSnippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// parseItems extracts the first JSON array from model output.
func parseItems(text string) ([]extractedItem, error) {
	cleaned := llm.StripFences(text)
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in response")
	}
	var items []extractedItem
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// validate applies the correctness gates to each parsed item. Failures drop
// the item silently; they are logged, never surfaced as user errors.
func validate(items []extractedItem, hits []model.SearchHit, excludedDomain string) []model.Candidate {
	log := zap.L()
	excluded := domainutil.RegistrableDomain(excludedDomain)

	var out []model.Candidate
	for _, item := range items {
		// Index sanity. A missing index is dropped, never defaulted to hit 0:
		// defaulting attributes the candidate to an arbitrary source URL.
		if item.HitIndex == nil || *item.HitIndex < 0 || *item.HitIndex >= len(hits) {
			log.Debug("extract: dropped item with invalid hit index", zap.String("company", item.CompanyName))
			continue
		}
		hit := hits[*item.HitIndex]

		name := strings.TrimSpace(item.CompanyName)
		if name == "" {
			continue
		}

		// The domain comes from the hit URL, never from the model. This is
		// the guard against crediting a signal to the reporting publication.
		domain := domainutil.ExtractDomain(hit.URL)

		if domainutil.IsNewsDomain(domain) || domainutil.IsMediaCompanyName(name) {
			log.Debug("extract: dropped media candidate",
				zap.String("company", name),
				zap.String("domain", domain),
			)
			continue
		}
		if !domainutil.DomainMatchesCompany(domain, name) {
			log.Debug("extract: dropped name/domain mismatch",
				zap.String("company", name),
				zap.String("domain", domain),
			)
			continue
		}
		if excluded != "" && domainutil.RegistrableDomain(domain) == excluded {
			continue
		}

		confidence := 0.5
		if item.Confidence != nil {
			confidence = *item.Confidence
		}
		if confidence < 0 {
			confidence = 0
		}
		if confidence > 1 {
			confidence = 1
		}

		headline := strings.TrimSpace(item.SignalHeadline)
		if headline == "" {
			headline = hit.Title
		}

		c := model.Candidate{
			CompanyName:    name,
			CompanyDomain:  domain,
			Signal:         model.ParseSignalType(item.SignalType),
			SignalHeadline: headline,
			SourceURL:      hit.URL,
			SourceType:     model.ParseSourceType(item.SourceType),
			MatchScore:     hit.Relevance,
			Confidence:     confidence,
		}
		if item.SignalDate != "" && item.SignalDate != "null" {
			if ts, err := time.Parse("2006-01-02", item.SignalDate); err == nil {
				c.SignalDate = &ts
			}
		}
		if c.SignalDate == nil {
			c.SignalDate = hit.PublishedAt
		}
		out = append(out, c)
	}
	return out
}
