package features

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/net/idna"

	"aegis/internal/rules"
)

func brandImpersonation(r *rules.Rules) func(*Input) Result {
	return func(in *Input) Result {
		if in.IsIP || !in.HasHost() {
			return noMatch()
		}
		for _, brand := range r.Brands {
			for _, label := range in.Subdomain {
				if strings.Contains(label, brand) {
					return match(fmt.Sprintf("%s in subdomain of %s", brand, in.Domain))
				}
			}
		}
		label := in.DomainLabel()
		if r.BrandSet.Contains(label) {
			return noMatch()
		}
		for _, brand := range r.Brands {
			if strings.Contains(label, brand) {
				return match(fmt.Sprintf("%s inside %s", brand, in.Domain))
			}
		}
		return noMatch()
	}
}

func punycode(in *Input) Result {
	host := in.Parts.Host
	for _, label := range strings.Split(host, ".") {
		if !strings.HasPrefix(label, "xn--") {
			continue
		}
		if u, err := idna.Punycode.ToUnicode(host); err == nil && u != "" && u != host {
			return match(fmt.Sprintf("%s (%s)", host, u))
		}
		return match(host)
	}
	return noMatch()
}

func lookalike(names []string) func(*Input) Result {
	return func(in *Input) Result {
		host := in.Parts.Host
		for _, name := range names {
			if strings.Contains(host, name) {
				return match(name)
			}
		}
		return noMatch()
	}
}

func similarDomain(protected []string, minLen, maxDist int) func(*Input) Result {
	return func(in *Input) Result {
		d := in.Domain
		if in.IsIP || len(d) < minLen {
			return noMatch()
		}
		for _, p := range protected {
			if p == d {
				return noMatch()
			}
		}
		for _, p := range protected {
			if dist := levenshtein.ComputeDistance(d, p); dist >= 1 && dist <= maxDist {
				return match(fmt.Sprintf("%s resembles %s (distance %d)", d, p, dist))
			}
		}
		return noMatch()
	}
}

func shortener(r *rules.Rules) func(*Input) Result {
	return func(in *Input) Result {
		if r.Shorteners.Contains(in.Parts.Host) {
			return match(in.Parts.Host)
		}
		if in.Domain != "" && r.Shorteners.Contains(in.Domain) {
			return match(in.Domain)
		}
		return noMatch()
	}
}

func atObfuscation(in *Input) Result {
	if strings.Contains(in.Parts.Authority, "@") {
		return match(fmt.Sprintf("credentials %q before host", in.Parts.Userinfo))
	}
	return noMatch()
}

var (
	fakeSuffix     = regexp.MustCompile(`([a-z0-9-]+\.(?:com|net|org|info|biz|gov|edu|co|io))-([a-z0-9-]+)`)
	commonTLDLabel = map[string]bool{"com": true, "net": true, "org": true, "gov": true, "edu": true}
)

// fakeExtension catches hosts dressed up as another domain: "paypal.com-verify.info"
// or "paypal.com.account-check.ru".
func fakeExtension(in *Input) Result {
	if m := fakeSuffix.FindStringSubmatch(in.Parts.Host); m != nil && !strings.HasPrefix(m[1], "www.") {
		return match(fmt.Sprintf("%s posing with suffix -%s", m[1], m[2]))
	}
	for i := 1; i < len(in.Subdomain); i++ {
		if commonTLDLabel[in.Subdomain[i]] {
			return match(fmt.Sprintf("embedded %s.%s", in.Subdomain[i-1], in.Subdomain[i]))
		}
	}
	return noMatch()
}

func subdomainDepth(limit int) func(*Input) Result {
	return func(in *Input) Result {
		if n := len(in.Subdomain); n >= limit {
			return match(fmt.Sprintf("%d subdomain levels", n))
		}
		return noMatch()
	}
}

func suspiciousTLD(r *rules.Rules) func(*Input) Result {
	return func(in *Input) Result {
		if tld := in.TLD(); tld != "" && r.SuspiciousTLDs.Contains(tld) {
			return match("." + tld)
		}
		return noMatch()
	}
}
