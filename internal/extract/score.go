package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/sells-group/signal-scout/internal/model"
)

// placeholderHeadline is the generic headline assigned when a source carried
// no usable title. Its presence means we know almost nothing about the
// signal, so it is penalized.
const placeholderHeadline = "Signal detected"

// ScoreConfig holds the opportunity-scoring weights.
type ScoreConfig struct {
	FundingBase        float64
	FundingStaleBase   float64
	FundingStaleDays   int
	HiringBase         float64
	HiringExecBonus    float64
	AcquisitionBase    float64
	ExpansionBase      float64
	ExecChangeBase     float64
	PartnershipBase    float64
	CertificationBase  float64
	RecencyDays        int
	RecencyBonus       float64
	PlaceholderPenalty float64
	LowConfPenalty     float64
	LowConfThreshold   float64
	MultiSignalBonus   float64
}

// DefaultScoreConfig returns the standard weights.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		FundingBase:        30,
		FundingStaleBase:   15,
		FundingStaleDays:   90,
		HiringBase:         25,
		HiringExecBonus:    10,
		AcquisitionBase:    25,
		ExpansionBase:      20,
		ExecChangeBase:     15,
		PartnershipBase:    10,
		CertificationBase:  5,
		RecencyDays:        30,
		RecencyBonus:       10,
		PlaceholderPenalty: 15,
		LowConfPenalty:     20,
		LowConfThreshold:   0.7,
		MultiSignalBonus:   15,
	}
}

// execTitleTerms mark a hiring headline as executive-level.
var execTitleTerms = []string{
	"chief", "ceo", "cto", "cfo", "coo", "cro", "cmo",
	"vp", "vice president", "president", "director", "head of", "executive",
}

// Score fills in OpportunityScore and OpportunityReason on c. now anchors
// the recency and staleness windows.
func Score(c *model.Candidate, cfg ScoreConfig, now time.Time) {
	var score float64
	var reasons []string

	switch c.Signal {
	case model.SignalFunding:
		base := cfg.FundingBase
		label := "funding"
		if c.SignalDate != nil && now.Sub(*c.SignalDate) > time.Duration(cfg.FundingStaleDays)*24*time.Hour {
			base = cfg.FundingStaleBase
			label = "older funding"
		}
		score += base
		reasons = append(reasons, fmt.Sprintf("%s (+%.0f)", label, base))
	case model.SignalHiring:
		score += cfg.HiringBase
		reasons = append(reasons, fmt.Sprintf("hiring (+%.0f)", cfg.HiringBase))
		if isExecHeadline(c.SignalHeadline) {
			score += cfg.HiringExecBonus
			reasons = append(reasons, fmt.Sprintf("executive role (+%.0f)", cfg.HiringExecBonus))
		}
	case model.SignalAcquisition:
		score += cfg.AcquisitionBase
		reasons = append(reasons, fmt.Sprintf("acquisition (+%.0f)", cfg.AcquisitionBase))
	case model.SignalExpansion:
		score += cfg.ExpansionBase
		reasons = append(reasons, fmt.Sprintf("expansion (+%.0f)", cfg.ExpansionBase))
	case model.SignalExecChange:
		score += cfg.ExecChangeBase
		reasons = append(reasons, fmt.Sprintf("leadership change (+%.0f)", cfg.ExecChangeBase))
	case model.SignalPartnership:
		score += cfg.PartnershipBase
		reasons = append(reasons, fmt.Sprintf("partnership (+%.0f)", cfg.PartnershipBase))
	case model.SignalCertification:
		score += cfg.CertificationBase
		reasons = append(reasons, fmt.Sprintf("certification (+%.0f)", cfg.CertificationBase))
	}

	if c.SignalDate != nil && now.Sub(*c.SignalDate) <= time.Duration(cfg.RecencyDays)*24*time.Hour {
		score += cfg.RecencyBonus
		reasons = append(reasons, fmt.Sprintf("recent (+%.0f)", cfg.RecencyBonus))
	}
	if strings.EqualFold(strings.TrimSpace(c.SignalHeadline), placeholderHeadline) {
		score -= cfg.PlaceholderPenalty
		reasons = append(reasons, fmt.Sprintf("generic headline (-%.0f)", cfg.PlaceholderPenalty))
	}
	if c.SourceType == model.SourceNews && c.Confidence < cfg.LowConfThreshold {
		score -= cfg.LowConfPenalty
		reasons = append(reasons, fmt.Sprintf("low-confidence news (-%.0f)", cfg.LowConfPenalty))
	}

	if score < 0 {
		score = 0
	}
	c.OpportunityScore = score
	c.OpportunityReason = strings.Join(reasons, ", ")
}

func isExecHeadline(headline string) bool {
	h := strings.ToLower(headline)
	for _, term := range execTitleTerms {
		if strings.Contains(h, term) {
			return true
		}
	}
	return false
}

// ScoreAll scores every candidate and applies the multi-signal bonus to
// companies that surfaced with two or more distinct signal types. It must
// run on the full batch before any dedup pass that could discard siblings.
func ScoreAll(batch []model.Candidate, cfg ScoreConfig, now time.Time) {
	for i := range batch {
		Score(&batch[i], cfg, now)
	}

	types := make(map[string]map[model.SignalType]bool)
	for _, c := range batch {
		key := c.DedupKey()
		if types[key] == nil {
			types[key] = make(map[model.SignalType]bool)
		}
		types[key][c.Signal] = true
	}
	for i := range batch {
		if len(types[batch[i].DedupKey()]) >= 2 {
			batch[i].OpportunityScore += cfg.MultiSignalBonus
			reason := fmt.Sprintf("multiple signals (+%.0f)", cfg.MultiSignalBonus)
			if batch[i].OpportunityReason != "" {
				batch[i].OpportunityReason += ", " + reason
			} else {
				batch[i].OpportunityReason = reason
			}
		}
	}
}

// Dedup keeps one candidate per company, the highest-scoring one, in
// first-seen order.
func Dedup(batch []model.Candidate) []model.Candidate {
	best := make(map[string]model.Candidate)
	var order []string

	for _, c := range batch {
		key := c.DedupKey()
		existing, seen := best[key]
		if !seen {
			order = append(order, key)
			best[key] = c
			continue
		}
		if c.OpportunityScore > existing.OpportunityScore {
			best[key] = c
		}
	}

	out := make([]model.Candidate, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}
