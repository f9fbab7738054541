package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds the keyword and domain tables that drive URL scoring and
// candidate verification. The compiled-in defaults describe the nonprofit's
// mission (education, leadership, AI); deployments can override any table
// from a YAML file.
type Profile struct {
	GrantKeywords     []string `yaml:"grant_keywords"`
	EducationKeywords []string `yaml:"education_keywords"`
	TechKeywords      []string `yaml:"tech_keywords"`

	// TrustedDomains maps known funder/government/aggregator domains to a
	// fixed quality score.
	TrustedDomains map[string]float64 `yaml:"trusted_domains"`

	// Regex sources matched against the full URL.
	HighValuePatterns []string `yaml:"high_value_patterns"`
	UrgencyPatterns   []string `yaml:"urgency_patterns"`
	// Regex sources matched against the URL path only.
	QualityPathPatterns []string `yaml:"quality_path_patterns"`

	// Path fragments that suggest current content.
	FreshPathSegments []string `yaml:"fresh_path_segments"`

	// Verifier tables.
	RedFlagTerms       []string `yaml:"red_flag_terms"`
	KnownOrganizations []string `yaml:"known_organizations"`
}

// DefaultProfile returns the built-in mission profile.
func DefaultProfile() *Profile {
	return &Profile{
		GrantKeywords: []string{
			"funding", "grant", "awards", "fellowship", "scholarship",
			"opportunities", "rfp", "solicitation", "application",
			"proposal", "submission", "deadline", "open-call",
		},
		EducationKeywords: []string{
			"education", "leadership", "curriculum", "learning", "training",
			"development", "capacity", "institutional", "transformation",
			"innovation", "research", "academic", "university", "school",
		},
		TechKeywords: []string{
			"artificial-intelligence", "ai", "machine-learning", "technology",
			"digital", "computational", "algorithm", "automation", "future",
			"emerging", "advanced", "intelligent", "cognitive",
		},
		TrustedDomains: map[string]float64{
			// Government agencies
			"nsf.gov":    10.0,
			"nih.gov":    10.0,
			"ed.gov":     9.5,
			"energy.gov": 9.0,
			"neh.gov":    9.0,
			"nea.gov":    8.5,
			"state.gov":  8.0,

			// Major foundations
			"gatesfoundation.org":       10.0,
			"fordfoundation.org":        9.5,
			"rockefellerfoundation.org": 9.5,
			"kresge.org":                9.0,
			"macfound.org":              9.5,
			"rwjf.org":                  9.0,
			"carnegie.org":              9.5,
			"knightfoundation.org":      9.0,

			// Tech philanthropy
			"chanzuckerberg.com":   10.0,
			"mozilla.org":          8.5,
			"omidyar.com":          8.5,
			"templeton.org":        9.0,
			"simonsfoundation.org": 9.5,

			// Research institutions
			"harvard.edu":   8.0,
			"mit.edu":       8.0,
			"stanford.edu":  8.0,
			"berkeley.edu":  7.5,
			"princeton.edu": 8.0,
			"yale.edu":      8.0,

			// Grant aggregators and databases
			"grants.gov":               10.0,
			"fundingalerts.com":        7.0,
			"pivot.cos.com":            7.5,
			"researchprofessional.com": 7.0,
			"candid.org":               8.0,
			"grantspace.org":           7.5,
		},
		HighValuePatterns: []string{
			`\$\d{1,3}(?:,\d{3})*`,
			`\d+\s*million`,
			`\d+M`,
			`multi-year`,
			`transformative`,
			`breakthrough`,
			`revolutionary`,
			`innovative`,
			`cutting-edge`,
		},
		UrgencyPatterns: []string{
			`deadline`,
			`due\s+\w+\s+\d{1,2}`,
			`closes?\s+\w+\s+\d{1,2}`,
			`application\s+period`,
			`limited\s+time`,
			`expires?`,
			`final\s+call`,
		},
		QualityPathPatterns: []string{
			`/funding`,
			`/grants`,
			`/opportunities`,
			`/awards`,
			`/apply`,
			`/application`,
			`/rfp`,
			`/solicitation`,
		},
		FreshPathSegments: []string{"/2025/", "/2026/", "current", "active"},
		RedFlagTerms: []string{
			"guaranteed", "no application", "instant approval", "fee required",
			"wire transfer", "processing fee",
		},
		KnownOrganizations: []string{
			"National Science Foundation", "Mozilla Foundation",
			"Chan Zuckerberg Initiative", "John Templeton Foundation",
			"Simons Foundation", "Ford Foundation", "Gates Foundation",
			"Knight Foundation", "Kresge Foundation", "Carnegie Corporation",
		},
	}
}

// LoadProfile reads a YAML mission profile. Only the tables present in the
// file override the defaults.
func LoadProfile(path string) (*Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mission profile: %w", err)
	}

	var override Profile
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return nil, fmt.Errorf("failed to parse mission profile: %w", err)
	}

	if len(override.GrantKeywords) > 0 {
		p.GrantKeywords = override.GrantKeywords
	}
	if len(override.EducationKeywords) > 0 {
		p.EducationKeywords = override.EducationKeywords
	}
	if len(override.TechKeywords) > 0 {
		p.TechKeywords = override.TechKeywords
	}
	if len(override.TrustedDomains) > 0 {
		p.TrustedDomains = override.TrustedDomains
	}
	if len(override.HighValuePatterns) > 0 {
		p.HighValuePatterns = override.HighValuePatterns
	}
	if len(override.UrgencyPatterns) > 0 {
		p.UrgencyPatterns = override.UrgencyPatterns
	}
	if len(override.QualityPathPatterns) > 0 {
		p.QualityPathPatterns = override.QualityPathPatterns
	}
	if len(override.FreshPathSegments) > 0 {
		p.FreshPathSegments = override.FreshPathSegments
	}
	if len(override.RedFlagTerms) > 0 {
		p.RedFlagTerms = override.RedFlagTerms
	}
	if len(override.KnownOrganizations) > 0 {
		p.KnownOrganizations = override.KnownOrganizations
	}

	return p, nil
}
