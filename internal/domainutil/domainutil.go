// Package domainutil holds the URL and company-name heuristics the
// discovery pipeline relies on: deriving a company's domain from a source
// URL, recognizing publications so a signal is never attributed to the
// outlet that reported it, and sanity-checking that a name and a domain
// plausibly belong to the same company.
package domainutil

import (
	"net/url"
	"regexp"
	"strings"
)

// suffixPattern matches common business entity suffixes for fuzzy name matching.
var suffixPattern = regexp.MustCompile(`(?i),?\s*(inc\.?|llc\.?|ltd\.?|co\.?|corp\.?|corporation|company|llp|lp|pllc|pc|p\.?c\.?)$`)

// strippedPrefixes are subdomain labels that don't identify the company.
var strippedPrefixes = []string{"www.", "blog.", "news.", "careers."}

// newsBases are publication base names checked by substring against the
// candidate domain. Longer, unambiguous names only; short names that could
// collide with company domains live in newsExact.
var newsBases = []string{
	"techcrunch", "forbes", "bloomberg", "reuters", "businessinsider",
	"nytimes", "washingtonpost", "theguardian", "cnbc", "venturebeat",
	"businesswire", "prnewswire", "globenewswire", "marketwatch",
	"fastcompany", "fortune", "theinformation", "axios", "crunchbase",
	"pitchbook", "yahoo", "finance.yahoo", "seekingalpha", "theregister",
	"arstechnica", "wired", "zdnet", "engadget", "geekwire", "siliconangle",
	"thenextweb", "benzinga", "barrons", "morningstar",
}

// newsExact are short or ambiguous publication domains matched exactly.
var newsExact = map[string]bool{
	"wsj.com":    true,
	"ft.com":     true,
	"inc.com":    true,
	"vox.com":    true,
	"cnn.com":    true,
	"bbc.com":    true,
	"bbc.co.uk":  true,
	"npr.org":    true,
	"time.com":   true,
	"vice.com":   true,
	"msn.com":    true,
	"axios.com":  true,
	"sifted.eu":  true,
	"tech.eu":    true,
	"theverge.com": true,
}

// mediaBrands are publication names a model sometimes returns as the
// "company" behind a signal. Compared against the normalized company name.
var mediaBrands = map[string]bool{
	"techcrunch":                true,
	"forbes":                    true,
	"bloomberg":                 true,
	"reuters":                   true,
	"business insider":          true,
	"the wall street journal":   true,
	"wall street journal":       true,
	"the new york times":        true,
	"financial times":           true,
	"cnbc":                      true,
	"cnn":                       true,
	"bbc":                       true,
	"venturebeat":               true,
	"the information":           true,
	"axios":                     true,
	"fortune":                   true,
	"fast company":              true,
	"wired":                     true,
	"the verge":                 true,
	"yahoo finance":             true,
	"pr newswire":               true,
	"business wire":             true,
	"globenewswire":             true,
	"crunchbase":                true,
	"crunchbase news":           true,
	"pitchbook":                 true,
	"marketwatch":               true,
	"geekwire":                  true,
}

// twoLabelTLDs are public suffixes made of two labels; a registrable domain
// under these keeps three labels (acme.co.uk) instead of two.
var twoLabelTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true,
	"com.au": true, "net.au": true, "org.au": true,
	"co.nz": true, "co.jp": true, "co.kr": true, "co.in": true,
	"com.br": true, "com.mx": true, "com.sg": true, "com.hk": true,
	"com.cn": true, "co.za": true, "com.tr": true,
}

// ExtractDomain derives a bare domain from a URL: hostname only, lowercased,
// with non-identifying subdomain prefixes stripped. Returns "" when the URL
// has no usable host.
func ExtractDomain(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	for _, prefix := range strippedPrefixes {
		host = strings.TrimPrefix(host, prefix)
	}
	return host
}

// RegistrableDomain collapses a domain or URL down to its registrable form
// (acme.com, acme.co.uk). Enrichment lookups key on this.
func RegistrableDomain(raw string) string {
	host := ExtractDomain(raw)
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	lastTwo := strings.Join(labels[len(labels)-2:], ".")
	if twoLabelTLDs[lastTwo] {
		return strings.Join(labels[len(labels)-3:], ".")
	}
	return lastTwo
}

// IsNewsDomain reports whether a domain belongs to a known publication.
func IsNewsDomain(domain string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" {
		return false
	}
	if newsExact[d] {
		return true
	}
	for _, base := range newsBases {
		if strings.Contains(d, base) {
			return true
		}
	}
	return false
}

// IsMediaCompanyName reports whether a company name is actually a known
// publication brand.
func IsMediaCompanyName(name string) bool {
	return mediaBrands[NormalizeName(name)]
}

// NormalizeName strips business suffixes and lowercases the name.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	stripped := suffixPattern.ReplaceAllString(name, "")
	return strings.ToLower(strings.TrimSpace(stripped))
}

// DomainMatchesCompany checks that a domain plausibly belongs to a company
// name. It fails open (returns true) when the domain is absent or too short
// to verify; otherwise it requires the domain's first label and the name to
// contain each other in either direction, or to share a significant word.
func DomainMatchesCompany(domain, name string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	if len(d) <= 3 {
		return true // unverifiable
	}

	label := d
	if idx := strings.Index(d, "."); idx > 0 {
		label = d[:idx]
	}

	normalized := NormalizeName(name)
	if normalized == "" {
		return false
	}
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' || r == '.' || r == ',' || r == '\'' || r == '&' {
			return -1
		}
		return r
	}, normalized)

	if compact != "" && (strings.Contains(compact, label) || strings.Contains(label, compact)) {
		return true
	}

	// Shared significant word: any name word of 4+ chars inside the label.
	for _, word := range strings.Fields(normalized) {
		if len(word) >= 4 && strings.Contains(label, word) {
			return true
		}
	}
	return false
}
