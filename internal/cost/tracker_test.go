package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerAccumulates(t *testing.T) {
	tr := NewTracker()
	tr.AddSearch(0.005)
	tr.AddSearch(0.005)
	tr.AddModel(0.012)
	tr.AddEnrichment(0.02)

	c := tr.Costs()
	assert.InDelta(t, 0.010, c.Search, 1e-9)
	assert.InDelta(t, 0.012, c.Model, 1e-9)
	assert.InDelta(t, 0.020, c.Enrichment, 1e-9)
	assert.InDelta(t, 0.042, c.Total, 1e-9)
}

func TestTrackerConcurrent(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.AddModel(0.001)
		}()
	}
	wg.Wait()
	assert.InDelta(t, 0.1, tr.Costs().Model, 1e-9)
}
