package domainutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"full url", "https://www.acme.com/about", "acme.com"},
		{"no scheme", "acme.com/news/funding", "acme.com"},
		{"blog subdomain", "https://blog.acme.com/post", "acme.com"},
		{"careers subdomain", "http://careers.acme.io/jobs/42", "acme.io"},
		{"news subdomain", "https://news.bigco.com", "bigco.com"},
		{"keeps other subdomains", "https://app.acme.com", "app.acme.com"},
		{"uppercase host", "https://WWW.Acme.COM", "acme.com"},
		{"empty", "", ""},
		{"garbage", "ht tp://%%%", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDomain(tt.url))
		})
	}
}

func TestRegistrableDomain(t *testing.T) {
	assert.Equal(t, "acme.com", RegistrableDomain("https://www.acme.com/x"))
	assert.Equal(t, "acme.com", RegistrableDomain("sub.deep.acme.com"))
	assert.Equal(t, "acme.co.uk", RegistrableDomain("https://shop.acme.co.uk"))
	assert.Equal(t, "acme.com.au", RegistrableDomain("portal.acme.com.au"))
	assert.Equal(t, "", RegistrableDomain(""))
}

func TestIsNewsDomain(t *testing.T) {
	assert.True(t, IsNewsDomain("techcrunch.com"))
	assert.True(t, IsNewsDomain("forbes.com"))
	assert.True(t, IsNewsDomain("wsj.com"))
	assert.True(t, IsNewsDomain("uk.finance.yahoo.com"))
	assert.False(t, IsNewsDomain("acme.com"))
	// Short publication names must not match by substring.
	assert.False(t, IsNewsDomain("vincent.com"))
	assert.False(t, IsNewsDomain(""))
}

func TestIsMediaCompanyName(t *testing.T) {
	assert.True(t, IsMediaCompanyName("TechCrunch"))
	assert.True(t, IsMediaCompanyName("Business Insider"))
	assert.True(t, IsMediaCompanyName("The Wall Street Journal"))
	assert.False(t, IsMediaCompanyName("Acme Inc"))
	assert.False(t, IsMediaCompanyName(""))
}

func TestDomainMatchesCompany(t *testing.T) {
	tests := []struct {
		name    string
		domain  string
		company string
		want    bool
	}{
		{"exact label", "acme.com", "Acme Inc", true},
		{"label inside name", "acme.com", "Acme Robotics Inc.", true},
		{"name inside label", "acmerobotics.io", "Acme", true},
		{"shared significant word", "acmerobotics.io", "Robotics Holdings LLC", true},
		{"mismatch", "technews.example", "Acme Inc", false},
		{"empty domain fails open", "", "Acme Inc", true},
		{"short domain fails open", "a.b", "Totally Unrelated", true},
		{"empty name", "acme.com", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DomainMatchesCompany(tt.domain, tt.company))
		})
	}
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "acme", NormalizeName("Acme, Inc."))
	assert.Equal(t, "acme robotics", NormalizeName("Acme Robotics LLC"))
	assert.Equal(t, "", NormalizeName("  "))
}
