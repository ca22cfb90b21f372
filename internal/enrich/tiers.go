package enrich

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Tier is one rung of the contact waterfall: a set of titles and
// seniorities tried together. Tiers run in order and the first person found
// wins.
type Tier struct {
	Name        string   `yaml:"name"`
	Titles      []string `yaml:"titles"`
	Seniorities []string `yaml:"seniorities"`
}

// tiersFile is the on-disk override format.
type tiersFile struct {
	Tiers []Tier `yaml:"tiers"`
}

// DefaultTiers returns the built-in waterfall, ordered from the people most
// likely to own a buying decision down to day-to-day dealmakers.
func DefaultTiers() []Tier {
	return []Tier{
		{
			Name:        "executives",
			Titles:      []string{"CEO", "Chief Executive Officer", "Founder", "Co-Founder", "Owner", "President"},
			Seniorities: []string{"owner", "founder", "c_suite"},
		},
		{
			Name:        "investment_leadership",
			Titles:      []string{"Chief Investment Officer", "Head of Corporate Development", "VP of Corporate Development", "Chief Financial Officer"},
			Seniorities: []string{"c_suite", "vp"},
		},
		{
			Name:        "functional_leadership",
			Titles:      []string{"VP of Sales", "VP of Business Development", "Director of Partnerships", "Director of Strategy"},
			Seniorities: []string{"vp", "director"},
		},
		{
			Name:        "business_development",
			Titles:      []string{"Business Development Manager", "Partnerships Manager", "Strategic Partnerships Lead"},
			Seniorities: []string{"manager", "senior"},
		},
	}
}

// LoadTiers reads a tier override file, or returns the defaults when path
// is empty. A present-but-broken file is an error rather than a silent fall
// back: a misconfigured waterfall should be fixed, not papered over.
func LoadTiers(path string) ([]Tier, error) {
	if path == "" {
		return DefaultTiers(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read tiers file %s", path)
	}

	var f tiersFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "enrich: parse tiers file %s", path)
	}
	if len(f.Tiers) == 0 {
		return nil, eris.Errorf("enrich: tiers file %s defines no tiers", path)
	}
	return f.Tiers, nil
}
