// Package features holds the lexical extractors. Every extractor is a pure
// function of the URL string: no I/O, no randomness, no shared mutable state.
package features

import (
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"

	"aegis/internal/rules"
	"aegis/internal/urlutil"
)

// Result is the outcome of one extractor.
type Result struct {
	Name    string `json:"name"`
	Matched bool   `json:"matched"`
	Detail  string `json:"detail,omitempty"`
}

// Extractor is a single named check.
type Extractor struct {
	Name  string
	Check func(in *Input) Result
}

// Run executes the check and stamps the extractor name on the result.
func (e Extractor) Run(in *Input) Result {
	r := e.Check(in)
	r.Name = e.Name
	return r
}

func match(detail string) Result { return Result{Matched: true, Detail: detail} }

func noMatch() Result { return Result{} }

// Input is a URL prepared once per scan and shared read-only by all extractors.
type Input struct {
	Raw   string
	Lower string
	Parts urlutil.Parts

	IsIP      bool
	Domain    string   // registrable domain (eTLD+1), or the host when there is none
	Subdomain []string // labels in front of Domain
	Suffix    string   // public suffix of the host
}

// NewInput splits raw into the pieces the extractors need. It never fails;
// sections that cannot be found are left empty.
func NewInput(raw string) *Input {
	raw = strings.TrimSpace(raw)
	in := &Input{
		Raw:   raw,
		Lower: strings.ToLower(raw),
		Parts: urlutil.Split(raw),
	}

	host := in.Parts.Host
	if host == "" {
		return in
	}
	if net.ParseIP(host) != nil {
		in.IsIP = true
		in.Domain = host
		return in
	}

	in.Suffix, _ = publicsuffix.PublicSuffix(host)
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// the host is itself a suffix ("localhost", "co.uk"); treat it as the domain
		in.Domain, in.Suffix = host, ""
		return in
	}
	in.Domain = domain
	if sub := strings.TrimSuffix(strings.TrimSuffix(host, domain), "."); sub != "" {
		in.Subdomain = strings.Split(sub, ".")
	}
	return in
}

// HasHost reports whether a host could be extracted at all.
func (in *Input) HasHost() bool { return in.Parts.Host != "" }

// DomainLabel is the registrable domain without its public suffix
// ("paypal" for "www.paypal.co.uk").
func (in *Input) DomainLabel() string {
	if in.IsIP || in.Suffix == "" {
		return in.Domain
	}
	return strings.TrimSuffix(strings.TrimSuffix(in.Domain, in.Suffix), ".")
}

// TLD is the last label of the host.
func (in *Input) TLD() string {
	host := in.Parts.Host
	if in.IsIP || host == "" {
		return ""
	}
	if i := strings.LastIndex(host, "."); i >= 0 {
		return host[i+1:]
	}
	return ""
}

// Catalog bundles the rule-dependent extractors built from one rule set.
type Catalog struct {
	IPLiteralHost      Extractor
	ExplicitPort       Extractor
	InsecureScheme     Extractor
	LongOpaqueToken    Extractor
	ConsonantCluster   Extractor
	HighEntropy        Extractor
	BrandImpersonation Extractor
	Punycode           Extractor
	Lookalike          Extractor
	SimilarDomain      Extractor
	Shortener          Extractor
	AtObfuscation      Extractor
	FakeExtension      Extractor
	SubdomainDepth     Extractor
	SuspiciousTLD      Extractor
}

// NewCatalog binds every extractor to r.
func NewCatalog(r *rules.Rules) *Catalog {
	t := r.Thresholds
	return &Catalog{
		IPLiteralHost:      Extractor{Name: "IP-literal host", Check: ipLiteralHost},
		ExplicitPort:       Extractor{Name: "Explicit port", Check: explicitPort},
		InsecureScheme:     Extractor{Name: "Insecure scheme", Check: insecureScheme},
		LongOpaqueToken:    Extractor{Name: "Long opaque token", Check: longOpaqueToken(t.LongToken)},
		ConsonantCluster:   Extractor{Name: "Consonant cluster", Check: consonantCluster(t.ConsonantRun)},
		HighEntropy:        Extractor{Name: "High entropy", Check: highEntropy(t.EntropyMinLabel, t.EntropyBaseline, t.EntropyHigh)},
		BrandImpersonation: Extractor{Name: "Brand impersonation", Check: brandImpersonation(r)},
		Punycode:           Extractor{Name: "Punycode domain", Check: punycode},
		Lookalike:          Extractor{Name: "Lookalike domain", Check: lookalike(r.Lookalikes)},
		SimilarDomain:      Extractor{Name: "Similar domain", Check: similarDomain(r.ProtectedDomains, t.SimilarityMinLength, t.SimilarityMaxDistance)},
		Shortener:          Extractor{Name: "URL shortener", Check: shortener(r)},
		AtObfuscation:      Extractor{Name: "@ obfuscation", Check: atObfuscation},
		FakeExtension:      Extractor{Name: "Fake extension", Check: fakeExtension},
		SubdomainDepth:     Extractor{Name: "Subdomain depth", Check: subdomainDepth(t.SubdomainDepth)},
		SuspiciousTLD:      Extractor{Name: "Suspicious TLD", Check: suspiciousTLD(r)},
	}
}
