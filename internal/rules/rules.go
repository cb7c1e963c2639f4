package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidRules is returned when a rules file parses but cannot be used.
var ErrInvalidRules = errors.New("invalid rules")

// Thresholds holds the numeric cut-offs of the extractors.
type Thresholds struct {
	LongToken             int     `yaml:"long_token"`
	ConsonantRun          int     `yaml:"consonant_run"`
	EntropyHigh           float64 `yaml:"entropy_high"`
	EntropyBaseline       float64 `yaml:"entropy_baseline"`
	EntropyMinLabel       int     `yaml:"entropy_min_label"`
	SubdomainDepth        int     `yaml:"subdomain_depth"`
	SimilarityMaxDistance int     `yaml:"similarity_max_distance"`
	SimilarityMinLength   int     `yaml:"similarity_min_length"`
}

type document struct {
	Brands           []string   `yaml:"brands"`
	SuspiciousTLDs   []string   `yaml:"suspicious_tlds"`
	Shorteners       []string   `yaml:"shorteners"`
	Lookalikes       []string   `yaml:"lookalikes"`
	ProtectedDomains []string   `yaml:"protected_domains"`
	Thresholds       Thresholds `yaml:"thresholds"`
}

// Rules is the read-only rule set shared by all extractors.
// Ordered slices keep first-match reporting deterministic; sets back exact lookups.
type Rules struct {
	Brands           []string
	BrandSet         mapset.Set[string]
	SuspiciousTLDs   mapset.Set[string]
	Shorteners       mapset.Set[string]
	Lookalikes       []string
	ProtectedDomains []string
	Thresholds       Thresholds
}

// Default returns the embedded rule set.
func Default() *Rules {
	r, err := parse(defaultYAML, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded rules: %v", err))
	}
	return r
}

// Load reads a YAML rules file layered over the embedded defaults.
// Lists present in the file replace the default lists; absent keys keep their defaults.
// An empty path returns the defaults.
func Load(path string) (*Rules, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return parse(defaultYAML, data)
}

func parse(base, overlay []byte) (*Rules, error) {
	var doc document
	if err := yaml.Unmarshal(base, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if overlay != nil {
		if err := yaml.Unmarshal(overlay, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse rules: %w", err)
		}
	}
	if err := doc.Thresholds.validate(); err != nil {
		return nil, err
	}

	brands := normalize(doc.Brands)
	sort.Strings(brands)
	return &Rules{
		Brands:           brands,
		BrandSet:         mapset.NewSet(brands...),
		SuspiciousTLDs:   mapset.NewSet(normalizeTLDs(doc.SuspiciousTLDs)...),
		Shorteners:       mapset.NewSet(normalize(doc.Shorteners)...),
		Lookalikes:       normalize(doc.Lookalikes),
		ProtectedDomains: normalize(doc.ProtectedDomains),
		Thresholds:       doc.Thresholds,
	}, nil
}

func (t Thresholds) validate() error {
	switch {
	case t.LongToken <= 0:
		return fmt.Errorf("%w: long_token must be positive", ErrInvalidRules)
	case t.ConsonantRun <= 0:
		return fmt.Errorf("%w: consonant_run must be positive", ErrInvalidRules)
	case t.EntropyHigh <= 0:
		return fmt.Errorf("%w: entropy_high must be positive", ErrInvalidRules)
	case t.EntropyBaseline > t.EntropyHigh:
		return fmt.Errorf("%w: entropy_baseline exceeds entropy_high", ErrInvalidRules)
	case t.SubdomainDepth <= 0:
		return fmt.Errorf("%w: subdomain_depth must be positive", ErrInvalidRules)
	case t.SimilarityMaxDistance < 1:
		return fmt.Errorf("%w: similarity_max_distance must be at least 1", ErrInvalidRules)
	}
	return nil
}

func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func normalizeTLDs(in []string) []string {
	out := normalize(in)
	for i, s := range out {
		out[i] = strings.TrimPrefix(s, ".")
	}
	return out
}
