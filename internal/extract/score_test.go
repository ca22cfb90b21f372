package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/signal-scout/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return ts
}

func TestScoreTable(t *testing.T) {
	cfg := DefaultScoreConfig()
	now := mustDate(t, "2026-08-25")
	recent := mustDate(t, "2026-08-10")
	stale := mustDate(t, "2026-04-01")

	tests := []struct {
		name string
		c    model.Candidate
		want float64
	}{
		{"fresh funding", model.Candidate{Signal: model.SignalFunding, SignalHeadline: "Raised $10M", SignalDate: &recent, Confidence: 0.9}, 40},
		{"stale funding", model.Candidate{Signal: model.SignalFunding, SignalHeadline: "Raised $10M", SignalDate: &stale, Confidence: 0.9}, 15},
		{"undated funding", model.Candidate{Signal: model.SignalFunding, SignalHeadline: "Raised $10M", Confidence: 0.9}, 30},
		{"hiring", model.Candidate{Signal: model.SignalHiring, SignalHeadline: "Hiring account managers", Confidence: 0.9}, 25},
		{"exec hiring", model.Candidate{Signal: model.SignalHiring, SignalHeadline: "Hiring VP of Sales", Confidence: 0.9}, 35},
		{"acquisition", model.Candidate{Signal: model.SignalAcquisition, SignalHeadline: "Acquired rival", Confidence: 0.9}, 25},
		{"expansion", model.Candidate{Signal: model.SignalExpansion, SignalHeadline: "Opens Berlin office", Confidence: 0.9}, 20},
		{"exec change", model.Candidate{Signal: model.SignalExecChange, SignalHeadline: "New CRO joins", Confidence: 0.9}, 15},
		{"partnership", model.Candidate{Signal: model.SignalPartnership, SignalHeadline: "Partners with Acme", Confidence: 0.9}, 10},
		{"certification", model.Candidate{Signal: model.SignalCertification, SignalHeadline: "SOC 2 Type II", Confidence: 0.9}, 5},
		{"other", model.Candidate{Signal: model.SignalOther, SignalHeadline: "Something", Confidence: 0.9}, 0},
		{"placeholder headline", model.Candidate{Signal: model.SignalExpansion, SignalHeadline: "Signal detected", Confidence: 0.9}, 5},
		{"low-confidence news", model.Candidate{Signal: model.SignalHiring, SignalHeadline: "Hiring reps", SourceType: model.SourceNews, Confidence: 0.5}, 5},
		{"floored at zero", model.Candidate{Signal: model.SignalOther, SignalHeadline: "Signal detected", SourceType: model.SourceNews, Confidence: 0.1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Score(&tt.c, cfg, now)
			assert.Equal(t, tt.want, tt.c.OpportunityScore)
			if tt.want > 0 {
				assert.NotEmpty(t, tt.c.OpportunityReason)
			}
		})
	}
}

func TestScoreAllMultiSignalBonus(t *testing.T) {
	// Two distinct signals for acme.com, one for bigco.io. Both acme
	// entries get the bonus before dedup keeps the stronger one.
	cfg := DefaultScoreConfig()
	now := mustDate(t, "2026-08-25")

	batch := []model.Candidate{
		{CompanyName: "Acme", CompanyDomain: "acme.com", Signal: model.SignalFunding, SignalHeadline: "Raised $12M", Confidence: 0.9},
		{CompanyName: "Acme", CompanyDomain: "acme.com", Signal: model.SignalHiring, SignalHeadline: "Hiring engineers", Confidence: 0.9},
		{CompanyName: "BigCo", CompanyDomain: "bigco.io", Signal: model.SignalHiring, SignalHeadline: "Hiring reps", Confidence: 0.9},
	}
	ScoreAll(batch, cfg, now)

	assert.Equal(t, 45.0, batch[0].OpportunityScore) // 30 + 15
	assert.Equal(t, 40.0, batch[1].OpportunityScore) // 25 + 15
	assert.Equal(t, 25.0, batch[2].OpportunityScore)
	assert.Contains(t, batch[0].OpportunityReason, "multiple signals")

	deduped := Dedup(batch)
	require.Len(t, deduped, 2)
	assert.Equal(t, "acme.com", deduped[0].CompanyDomain)
	assert.Equal(t, 45.0, deduped[0].OpportunityScore)
}

func TestScoreAllSameSignalTwiceIsNotMulti(t *testing.T) {
	cfg := DefaultScoreConfig()
	batch := []model.Candidate{
		{CompanyDomain: "acme.com", Signal: model.SignalHiring, SignalHeadline: "Hiring reps", Confidence: 0.9},
		{CompanyDomain: "acme.com", Signal: model.SignalHiring, SignalHeadline: "Hiring more reps", Confidence: 0.9},
	}
	ScoreAll(batch, cfg, mustDate(t, "2026-08-25"))
	assert.Equal(t, 25.0, batch[0].OpportunityScore)
}

func TestDedupKeepsHighestInFirstSeenOrder(t *testing.T) {
	batch := []model.Candidate{
		{CompanyDomain: "a.com", OpportunityScore: 10},
		{CompanyDomain: "b.com", OpportunityScore: 50},
		{CompanyDomain: "a.com", OpportunityScore: 40},
	}
	out := Dedup(batch)
	require.Len(t, out, 2)
	assert.Equal(t, "a.com", out[0].CompanyDomain)
	assert.Equal(t, 40.0, out[0].OpportunityScore)
	assert.Equal(t, "b.com", out[1].CompanyDomain)
}

func TestDedupFallsBackToName(t *testing.T) {
	batch := []model.Candidate{
		{CompanyName: "Acme Inc", OpportunityScore: 10},
		{CompanyName: "acme inc", OpportunityScore: 30},
	}
	out := Dedup(batch)
	require.Len(t, out, 1)
	assert.Equal(t, 30.0, out[0].OpportunityScore)
}
