package enrich

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/internal/resilience"
	"github.com/sells-group/signal-scout/pkg/apollo"
)

// mockApollo scripts people-search responses per call and records requests.
type mockApollo struct {
	mu          sync.Mutex
	searches    []apollo.SearchPeopleRequest
	respond     func(req apollo.SearchPeopleRequest) []apollo.Person
	searchErr   error
	matchPerson *apollo.Person
	matchErr    error
}

func (m *mockApollo) SearchPeople(_ context.Context, req apollo.SearchPeopleRequest) (*apollo.SearchPeopleResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, req)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if m.respond != nil {
		return &apollo.SearchPeopleResponse{People: m.respond(req)}, nil
	}
	return &apollo.SearchPeopleResponse{}, nil
}

func (m *mockApollo) MatchPerson(_ context.Context, _ string) (*apollo.Person, error) {
	if m.matchErr != nil {
		return nil, m.matchErr
	}
	return m.matchPerson, nil
}

func companyResult(name, domain string) model.Result {
	return model.Result{Company: model.Candidate{CompanyName: name, CompanyDomain: domain}}
}

func TestEnrichStopsAtFirstTierHit(t *testing.T) {
	client := &mockApollo{
		respond: func(req apollo.SearchPeopleRequest) []apollo.Person {
			return []apollo.Person{{ID: "p1", Name: "Pat Doe", FirstName: "Pat", Title: "CEO"}}
		},
		matchPerson: &apollo.Person{ID: "p1", Email: "pat@acme.com"},
	}
	e := New(client, DefaultTiers(), 0.02, 1)

	results := []model.Result{companyResult("Acme", "acme.com")}
	cost, rejected := e.EnrichAll(context.Background(), results)

	require.NotNil(t, results[0].Contact)
	assert.Equal(t, "Pat Doe", results[0].Contact.FullName)
	assert.Equal(t, "pat@acme.com", results[0].Contact.Email)
	assert.Equal(t, model.SeniorityCSuite, results[0].Contact.Seniority)
	assert.Equal(t, "apollo", results[0].Contact.Source)
	assert.Len(t, client.searches, 1)
	assert.InDelta(t, 0.02, cost, 1e-9)
	assert.False(t, rejected)
}

func TestEnrichWaterfallAndNameFallback(t *testing.T) {
	// Every domain-keyed tier misses; the name retry on the second tier
	// finally finds someone.
	client := &mockApollo{
		respond: func(req apollo.SearchPeopleRequest) []apollo.Person {
			if len(req.OrganizationNames) > 0 && req.Titles[0] == "Chief Investment Officer" {
				return []apollo.Person{{ID: "p2", Name: "Sam Roe", Title: "VP of Corporate Development"}}
			}
			return nil
		},
	}
	e := New(client, DefaultTiers(), 0.02, 1)

	results := []model.Result{companyResult("Acme", "acme.com")}
	cost, rejected := e.EnrichAll(context.Background(), results)

	require.NotNil(t, results[0].Contact)
	assert.Equal(t, model.SeniorityVP, results[0].Contact.Seniority)
	// 4 domain tiers + 2 name tiers.
	assert.Len(t, client.searches, 6)
	assert.InDelta(t, 0.12, cost, 1e-9)
	assert.False(t, rejected)

	for _, req := range client.searches[:4] {
		assert.Equal(t, []string{"acme.com"}, req.OrganizationDomains)
	}
	for _, req := range client.searches[4:] {
		assert.Equal(t, []string{"Acme"}, req.OrganizationNames)
		assert.Empty(t, req.OrganizationDomains)
	}
}

func TestEnrichNoContactKeepsCompany(t *testing.T) {
	client := &mockApollo{}
	e := New(client, DefaultTiers(), 0.02, 2)

	results := []model.Result{
		companyResult("Ghost Co", "ghost.example"),
		companyResult("Acme", "acme.com"),
	}
	_, _ = e.EnrichAll(context.Background(), results)

	assert.Nil(t, results[0].Contact)
	assert.Nil(t, results[1].Contact)
	assert.Equal(t, "Ghost Co", results[0].Company.CompanyName)
}

func TestEnrichDetailFailureFallsBackToSearchResult(t *testing.T) {
	client := &mockApollo{
		respond: func(apollo.SearchPeopleRequest) []apollo.Person {
			return []apollo.Person{{ID: "p3", Name: "Lee Chu", Title: "Director of Partnerships", LinkedInURL: "https://linkedin.com/in/leechu"}}
		},
		matchErr: eris.New("match quota exceeded"),
	}
	e := New(client, DefaultTiers(), 0.02, 1)

	results := []model.Result{companyResult("Acme", "acme.com")}
	_, _ = e.EnrichAll(context.Background(), results)

	require.NotNil(t, results[0].Contact)
	assert.Empty(t, results[0].Contact.Email)
	assert.Equal(t, "Lee Chu", results[0].Contact.FullName)
	assert.Equal(t, "https://linkedin.com/in/leechu", results[0].Contact.ProfileURL)
	assert.Equal(t, model.SeniorityDirector, results[0].Contact.Seniority)
}

func TestEnrichNormalizesDomain(t *testing.T) {
	client := &mockApollo{}
	e := New(client, DefaultTiers()[:1], 0.02, 1)

	results := []model.Result{companyResult("Acme", "careers.acme.co.uk")}
	_, _ = e.EnrichAll(context.Background(), results)

	require.NotEmpty(t, client.searches)
	assert.Equal(t, []string{"acme.co.uk"}, client.searches[0].OrganizationDomains)
}

func TestEnrichReportsCredentialRejection(t *testing.T) {
	client := &mockApollo{
		searchErr: resilience.NewAuthError(eris.New("apollo: credential rejected with status 401"), 401),
	}
	e := New(client, DefaultTiers(), 0.02, 1)

	results := []model.Result{companyResult("Acme", "acme.com")}
	_, rejected := e.EnrichAll(context.Background(), results)

	assert.True(t, rejected)
	assert.Nil(t, results[0].Contact)
	// The first rejection short-circuits the remaining tiers.
	assert.Less(t, len(client.searches), 6)
}

func TestLoadTiersDefaults(t *testing.T) {
	tiers, err := LoadTiers("")
	require.NoError(t, err)
	require.Len(t, tiers, 4)
	assert.Equal(t, "executives", tiers[0].Name)
}

func TestLoadTiersFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	content := `tiers:
  - name: only_founders
    titles: ["Founder"]
    seniorities: ["founder"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tiers, err := LoadTiers(path)
	require.NoError(t, err)
	require.Len(t, tiers, 1)
	assert.Equal(t, "only_founders", tiers[0].Name)
	assert.Equal(t, []string{"Founder"}, tiers[0].Titles)
}

func TestLoadTiersRejectsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiers: []\n"), 0o644))

	_, err := LoadTiers(path)
	assert.Error(t, err)
}
