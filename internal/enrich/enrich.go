// Package enrich resolves one decision-maker contact per company through a
// tiered people-search waterfall.
package enrich

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/signal-scout/internal/domainutil"
	"github.com/sells-group/signal-scout/internal/model"
	"github.com/sells-group/signal-scout/internal/resilience"
	"github.com/sells-group/signal-scout/pkg/apollo"
)

// nameFallbackTiers is how many top tiers are retried by organization name
// when every domain-keyed lookup misses.
const nameFallbackTiers = 2

// Enricher runs the contact waterfall for a batch of companies.
type Enricher struct {
	client        apollo.Client
	tiers         []Tier
	perLookupCost float64
	concurrency   int
}

// New creates an Enricher. perLookupCost is the flat estimate charged per
// people-search call; concurrency bounds simultaneous companies in flight.
func New(client apollo.Client, tiers []Tier, perLookupCost float64, concurrency int) *Enricher {
	if len(tiers) == 0 {
		tiers = DefaultTiers()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Enricher{
		client:        client,
		tiers:         tiers,
		perLookupCost: perLookupCost,
		concurrency:   concurrency,
	}
}

// EnrichAll resolves contacts for every result in place and returns the
// total enrichment cost plus whether the provider rejected our credential.
// A company whose waterfall comes up empty keeps a nil contact; enrichment
// failures never drop a company or fail the batch.
func (e *Enricher) EnrichAll(ctx context.Context, results []model.Result) (float64, bool) {
	var lookups atomic.Int64
	var rejected atomic.Bool

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range results {
		idx := i
		g.Go(func() error {
			contact, n := e.resolve(gCtx, results[idx].Company, &rejected)
			lookups.Add(n)
			results[idx].Contact = contact
			return nil
		})
	}
	_ = g.Wait()

	return float64(lookups.Load()) * e.perLookupCost, rejected.Load()
}

// resolve walks the waterfall for one company. It returns the contact (nil
// when nothing was found) and the number of people-search calls made.
func (e *Enricher) resolve(ctx context.Context, company model.Candidate, rejected *atomic.Bool) (*model.EnrichedContact, int64) {
	log := zap.L().With(zap.String("company", company.CompanyName))
	var lookups int64

	domain := domainutil.RegistrableDomain(company.CompanyDomain)

	if domain != "" {
		for _, tier := range e.tiers {
			if rejected.Load() {
				return nil, lookups
			}
			lookups++
			person, ok := e.searchTier(ctx, log, tier, rejected, apollo.SearchPeopleRequest{
				OrganizationDomains: []string{domain},
				Titles:              tier.Titles,
				Seniorities:         tier.Seniorities,
			})
			if ok {
				return e.toContact(ctx, log, person), lookups
			}
		}
	}

	// Domain lookups all missed (or there was no domain). Retry the top
	// tiers keyed on the company name, which is fuzzier but sometimes the
	// only handle we have.
	if company.CompanyName != "" {
		for _, tier := range e.tiers[:min(nameFallbackTiers, len(e.tiers))] {
			if rejected.Load() {
				return nil, lookups
			}
			lookups++
			person, ok := e.searchTier(ctx, log, tier, rejected, apollo.SearchPeopleRequest{
				OrganizationNames: []string{company.CompanyName},
				Titles:            tier.Titles,
				Seniorities:       tier.Seniorities,
			})
			if ok {
				return e.toContact(ctx, log, person), lookups
			}
		}
	}

	log.Debug("enrich: no contact found")
	return nil, lookups
}

func (e *Enricher) searchTier(ctx context.Context, log *zap.Logger, tier Tier, rejected *atomic.Bool, req apollo.SearchPeopleRequest) (apollo.Person, bool) {
	resp, err := e.client.SearchPeople(ctx, req)
	if err != nil {
		log.Warn("enrich: people search failed", zap.String("tier", tier.Name), zap.Error(err))
		if resilience.IsAuthRejected(err) {
			rejected.Store(true)
		}
		return apollo.Person{}, false
	}
	if len(resp.People) == 0 {
		return apollo.Person{}, false
	}
	return resp.People[0], true
}

// toContact upgrades a search-result person to full detail for the email
// address, falling back to the search result when the detail call fails.
func (e *Enricher) toContact(ctx context.Context, log *zap.Logger, person apollo.Person) *model.EnrichedContact {
	if detail, err := e.client.MatchPerson(ctx, person.ID); err == nil {
		if detail.Email != "" {
			person.Email = detail.Email
		}
		if detail.Title != "" {
			person.Title = detail.Title
		}
		if detail.LinkedInURL != "" {
			person.LinkedInURL = detail.LinkedInURL
		}
	} else {
		log.Debug("enrich: person detail fetch failed, using search result", zap.Error(err))
	}

	return &model.EnrichedContact{
		FullName:   person.Name,
		FirstName:  person.FirstName,
		Title:      person.Title,
		Email:      person.Email,
		ProfileURL: person.LinkedInURL,
		Seniority:  model.InferSeniority(person.Title),
		Source:     "apollo",
	}
}
