// Package cost accumulates per-request dollar estimates by capability.
package cost

import (
	"sync"

	"github.com/sells-group/signal-scout/internal/model"
)

// Tracker sums estimated USD spend for one discovery request. Stages run
// concurrently, so all methods are safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	search     float64
	model      float64
	enrichment float64
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// AddSearch records semantic-search spend.
func (t *Tracker) AddSearch(usd float64) {
	t.mu.Lock()
	t.search += usd
	t.mu.Unlock()
}

// AddModel records language-model spend.
func (t *Tracker) AddModel(usd float64) {
	t.mu.Lock()
	t.model += usd
	t.mu.Unlock()
}

// AddEnrichment records contact-enrichment spend.
func (t *Tracker) AddEnrichment(usd float64) {
	t.mu.Lock()
	t.enrichment += usd
	t.mu.Unlock()
}

// Costs returns a snapshot with the total filled in.
func (t *Tracker) Costs() model.Costs {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.Costs{
		Search:     t.search,
		Model:      t.model,
		Enrichment: t.enrichment,
		Total:      t.search + t.model + t.enrichment,
	}
}
