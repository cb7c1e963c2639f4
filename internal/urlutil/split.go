package urlutil

import "strings"

// Parts is a tolerant split of a raw URL string. Fields are empty when the
// corresponding section is absent; nothing here ever fails.
type Parts struct {
	Scheme    string // lowercased, without "://"
	Authority string // userinfo@host:port as written
	Userinfo  string
	Host      string // lowercased, without port or trailing dot
	Port      string
	Rest      string // path, query and fragment
}

// Split breaks rawURL into its sections without validating it. Missing schemes,
// missing hosts and trailing garbage are tolerated.
func Split(rawURL string) Parts {
	var p Parts
	s := strings.TrimSpace(rawURL)

	if i := schemeEnd(s); i >= 0 {
		p.Scheme = strings.ToLower(s[:i])
		s = s[i+3:]
	} else if strings.HasPrefix(s, "//") {
		s = s[2:]
	}

	end := strings.IndexAny(s, "/?#\\")
	if end < 0 {
		end = len(s)
	}
	p.Authority, p.Rest = s[:end], s[end:]

	hostport := p.Authority
	if at := strings.LastIndex(hostport, "@"); at >= 0 {
		p.Userinfo, hostport = hostport[:at], hostport[at+1:]
	}

	if strings.HasPrefix(hostport, "[") {
		// IPv6 literal; an unterminated bracket leaves the host empty
		if rb := strings.Index(hostport, "]"); rb > 0 {
			p.Host = strings.ToLower(hostport[1:rb])
			p.Port = strings.TrimPrefix(hostport[rb+1:], ":")
		}
		return p
	}
	if c := strings.LastIndex(hostport, ":"); c >= 0 {
		hostport, p.Port = hostport[:c], hostport[c+1:]
	}
	p.Host = strings.TrimSuffix(strings.ToLower(hostport), ".")
	return p
}

// schemeEnd returns the index of the "://" that ends a leading scheme, or -1.
// A "://" inside the path or query does not count, so "host/r?to=https://x"
// is a scheme-less URL for "host".
func schemeEnd(s string) int {
	i := strings.Index(s, "://")
	if i <= 0 {
		return -1
	}
	for j, c := range s[:i] {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case j > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return -1
		}
	}
	return i
}
