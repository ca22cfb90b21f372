package model

// Result is the externally visible unit: a scored company with at most one
// resolved contact.
type Result struct {
	Company Candidate        `json:"company"`
	Contact *EnrichedContact `json:"contact"`
}

// ContactBonus is the ranking bonus a result earns from contact quality:
// +20 with an email, +10 with a contact but no email, 0 otherwise.
func (r Result) ContactBonus() float64 {
	switch {
	case r.Contact == nil:
		return 0
	case r.Contact.Email != "":
		return 20
	default:
		return 10
	}
}

// CombinedScore is the final ranking key.
func (r Result) CombinedScore() float64 {
	return r.Company.OpportunityScore + r.ContactBonus()
}

// Costs tracks running dollar estimates per capability for one request.
// These are estimates from provider-reported usage, not billed amounts.
type Costs struct {
	Search     float64 `json:"search"`
	Model      float64 `json:"model"`
	Enrichment float64 `json:"enrichment"`
	Total      float64 `json:"total"`
}
