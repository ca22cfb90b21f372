package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/signal-scout/internal/model"
)

func result(domain string, score float64, contact *model.EnrichedContact) model.Result {
	return model.Result{
		Company: model.Candidate{CompanyName: domain, CompanyDomain: domain, OpportunityScore: score},
		Contact: contact,
	}
}

func TestRankOrdersByCombinedScore(t *testing.T) {
	in := []model.Result{
		result("low.com", 10, nil),
		result("contact.com", 20, &model.EnrichedContact{FullName: "Pat Doe", Email: "pat@contact.com"}),
		result("high.com", 35, nil),
	}
	out := Rank(in)

	require.Len(t, out, 3)
	// 20 + 20 email bonus beats 35.
	assert.Equal(t, "contact.com", out[0].Company.CompanyDomain)
	assert.Equal(t, "high.com", out[1].Company.CompanyDomain)
	assert.Equal(t, "low.com", out[2].Company.CompanyDomain)
}

func TestRankDedupsPreferringContact(t *testing.T) {
	in := []model.Result{
		result("acme.com", 30, nil),
		result("acme.com", 30, &model.EnrichedContact{FullName: "Pat Doe"}),
	}
	out := Rank(in)

	require.Len(t, out, 1)
	require.NotNil(t, out[0].Contact)
}

func TestRankIsIdempotent(t *testing.T) {
	in := []model.Result{
		result("a.com", 30, nil),
		result("b.com", 30, nil),
		result("c.com", 45, &model.EnrichedContact{Email: "x@c.com"}),
	}
	once := Rank(in)
	twice := Rank(once)
	assert.Equal(t, once, twice)
}

func TestRankEmpty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
