package model

import (
	"strings"
	"time"
)

// SignalType classifies the business event that surfaced a company.
type SignalType string

// Known signal types, roughly ordered by how actionable they are.
const (
	SignalFunding       SignalType = "funding"
	SignalHiring        SignalType = "hiring"
	SignalExpansion     SignalType = "expansion"
	SignalExecChange    SignalType = "exec_change"
	SignalAcquisition   SignalType = "acquisition"
	SignalPartnership   SignalType = "partnership"
	SignalCertification SignalType = "certification"
	SignalOther         SignalType = "other"
)

// ParseSignalType maps free-text model output onto a known signal type.
// Unknown values collapse to SignalOther rather than failing the item.
func ParseSignalType(s string) SignalType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "funding", "investment", "fundraise":
		return SignalFunding
	case "hiring", "job_posting", "recruiting":
		return SignalHiring
	case "expansion", "growth":
		return SignalExpansion
	case "exec_change", "execchange", "leadership_change", "leadership":
		return SignalExecChange
	case "acquisition", "merger", "m&a":
		return SignalAcquisition
	case "partnership", "alliance":
		return SignalPartnership
	case "certification", "compliance":
		return SignalCertification
	default:
		return SignalOther
	}
}

// SourceType classifies where a signal was observed.
type SourceType string

// Known source types.
const (
	SourceCompanyPage  SourceType = "company_page"
	SourceNews         SourceType = "news"
	SourceJobPosting   SourceType = "job_posting"
	SourcePressRelease SourceType = "press_release"
)

// ParseSourceType maps free-text model output onto a known source type,
// defaulting to news since most hits come from coverage.
func ParseSourceType(s string) SourceType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "company_page", "companypage", "website":
		return SourceCompanyPage
	case "job_posting", "jobposting", "job":
		return SourceJobPosting
	case "press_release", "pressrelease", "pr":
		return SourcePressRelease
	default:
		return SourceNews
	}
}

// Candidate is a company plus the business signal that surfaced it.
// CompanyDomain is derived exclusively from the source URL, never from
// model output, so a signal can't be attributed to the outlet that
// reported it.
type Candidate struct {
	CompanyName       string     `json:"company_name"`
	CompanyDomain     string     `json:"company_domain,omitempty"`
	Signal            SignalType `json:"signal_type"`
	SignalHeadline    string     `json:"signal_headline"`
	SignalDate        *time.Time `json:"signal_date,omitempty"`
	SourceURL         string     `json:"source_url"`
	SourceType        SourceType `json:"source_type"`
	MatchScore        float64    `json:"match_score"`
	Confidence        float64    `json:"confidence"`
	OpportunityScore  float64    `json:"opportunity_score"`
	OpportunityReason string     `json:"opportunity_reason,omitempty"`
}

// DedupKey groups candidates that refer to the same company: the
// normalized domain when present, otherwise the lowercased name.
func (c Candidate) DedupKey() string {
	if c.CompanyDomain != "" {
		return strings.ToLower(c.CompanyDomain)
	}
	return strings.ToLower(strings.TrimSpace(c.CompanyName))
}
