package extract

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/signal-scout/internal/domainutil"
	"github.com/sells-group/signal-scout/internal/model"
)

// SearchFunc runs one literal search and returns hits plus its cost. The
// controller uses it for the tier-2 retry so it never depends on the search
// package directly.
type SearchFunc func(ctx context.Context, query string, n int) ([]model.SearchHit, float64)

// Controller escalates through up to three extraction tiers until enough
// companies survive validation. Tier 1 is normal extraction, tier 2 adds a
// literal re-search, tier 3 derives candidates straight from hit URLs with
// no model call. As long as search found at least one hit, the controller
// produces at least one candidate.
type Controller struct {
	extractor      *Extractor
	search         SearchFunc
	tier2Threshold int
	tier3Threshold int
	literalCount   int
}

// NewController builds a Controller. tier2Threshold and tier3Threshold are
// the survivor counts below which the next tier runs.
func NewController(extractor *Extractor, search SearchFunc, tier2Threshold, tier3Threshold, literalCount int) *Controller {
	return &Controller{
		extractor:      extractor,
		search:         search,
		tier2Threshold: tier2Threshold,
		tier3Threshold: tier3Threshold,
		literalCount:   literalCount,
	}
}

// Outcome is the controller's result: unscored candidates plus the costs
// the escalation incurred and the highest tier that ran.
type Outcome struct {
	Candidates []model.Candidate
	ModelCost  float64
	SearchCost float64
	TierRan    int
}

// Run executes the tier ladder. hits are the primary search results, query
// is the caller's original text (used verbatim for the tier-2 re-search),
// and descriptive gates tier 2: a literal query was already searched
// literally, so re-searching it buys nothing.
func (c *Controller) Run(ctx context.Context, hits []model.SearchHit, query, excludedDomain string, descriptive bool) Outcome {
	log := zap.L()
	var out Outcome

	candidates, cost := c.extractor.Extract(ctx, hits, excludedDomain)
	out.Candidates = candidates
	out.ModelCost = cost
	out.TierRan = 1

	if companyCount(out.Candidates) < c.tier2Threshold && descriptive && c.search != nil {
		log.Info("fallback: escalating to literal re-search",
			zap.Int("survivors", companyCount(out.Candidates)),
		)
		out.TierRan = 2
		literalHits, searchCost := c.search(ctx, query, c.literalCount)
		out.SearchCost += searchCost
		if len(literalHits) > 0 {
			more, moreCost := c.extractor.Extract(ctx, literalHits, excludedDomain)
			out.ModelCost += moreCost
			out.Candidates = mergeCandidates(out.Candidates, more)
			hits = mergeHits(hits, literalHits)
		}
	}

	if companyCount(out.Candidates) < c.tier3Threshold {
		log.Info("fallback: deriving candidates from hit URLs",
			zap.Int("survivors", companyCount(out.Candidates)),
		)
		out.TierRan = 3
		out.Candidates = mergeCandidates(out.Candidates, DeriveFromHits(hits, excludedDomain))
	}

	return out
}

// companyCount counts distinct companies in a candidate batch.
func companyCount(batch []model.Candidate) int {
	seen := make(map[string]bool, len(batch))
	for _, c := range batch {
		seen[c.DedupKey()] = true
	}
	return len(seen)
}

// mergeCandidates appends extras, skipping exact (company, signal)
// duplicates. Same-company candidates with different signals are kept: the
// multi-signal bonus needs them.
func mergeCandidates(base, extra []model.Candidate) []model.Candidate {
	type pair struct {
		key    string
		signal model.SignalType
	}
	seen := make(map[pair]bool, len(base))
	for _, c := range base {
		seen[pair{c.DedupKey(), c.Signal}] = true
	}
	for _, c := range extra {
		p := pair{c.DedupKey(), c.Signal}
		if seen[p] {
			continue
		}
		seen[p] = true
		base = append(base, c)
	}
	return base
}

func mergeHits(base, extra []model.SearchHit) []model.SearchHit {
	seen := make(map[string]bool, len(base))
	for _, h := range base {
		seen[domainutil.ExtractDomain(h.URL)] = true
	}
	for _, h := range extra {
		d := domainutil.ExtractDomain(h.URL)
		if d == "" || seen[d] {
			continue
		}
		seen[d] = true
		base = append(base, h)
	}
	return base
}

var titleCaser = cases.Title(language.English)

// DeriveFromHits builds candidates directly from hit URLs with no model
// call. The company name is the domain's first label, title-cased; news and
// media domains are skipped. Signal type is inferred from title keywords
// and defaults to other.
func DeriveFromHits(hits []model.SearchHit, excludedDomain string) []model.Candidate {
	excluded := domainutil.RegistrableDomain(excludedDomain)

	var out []model.Candidate
	for _, h := range hits {
		domain := domainutil.ExtractDomain(h.URL)
		if domain == "" || domainutil.IsNewsDomain(domain) {
			continue
		}
		if excluded != "" && domainutil.RegistrableDomain(domain) == excluded {
			continue
		}

		label, _, _ := strings.Cut(domain, ".")
		if label == "" {
			continue
		}
		name := titleCaser.String(strings.ReplaceAll(label, "-", " "))
		if domainutil.IsMediaCompanyName(name) {
			continue
		}

		headline := strings.TrimSpace(h.Title)
		if headline == "" {
			headline = placeholderHeadline
		}

		out = append(out, model.Candidate{
			CompanyName:    name,
			CompanyDomain:  domain,
			Signal:         inferSignalFromTitle(h.Title),
			SignalHeadline: headline,
			SignalDate:     h.PublishedAt,
			SourceURL:      h.URL,
			SourceType:     model.SourceCompanyPage,
			MatchScore:     h.Relevance,
			Confidence:     0.4,
		})
	}
	return out
}

// inferSignalFromTitle is a keyword guess, good enough for a tier that
// exists only to keep results non-empty.
func inferSignalFromTitle(title string) model.SignalType {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "raise") || strings.Contains(t, "funding") || strings.Contains(t, "series "):
		return model.SignalFunding
	case strings.Contains(t, "hiring") || strings.Contains(t, "job") || strings.Contains(t, "career"):
		return model.SignalHiring
	case strings.Contains(t, "acqui"):
		return model.SignalAcquisition
	case strings.Contains(t, "expan") || strings.Contains(t, "opens") || strings.Contains(t, "new office"):
		return model.SignalExpansion
	case strings.Contains(t, "partner"):
		return model.SignalPartnership
	case strings.Contains(t, "appoint") || strings.Contains(t, "names ") || strings.Contains(t, "joins"):
		return model.SignalExecChange
	case strings.Contains(t, "certif") || strings.Contains(t, "soc 2") || strings.Contains(t, "iso 27001"):
		return model.SignalCertification
	default:
		return model.SignalOther
	}
}
