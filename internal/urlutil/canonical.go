package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize parses a raw URL string and returns its canonical form.
// The canonicalization rules are:
// 1. A missing scheme is treated as http.
// 2. Scheme and host are lowercased.
// 3. Default ports (80 for http, 443 for https) are stripped.
// 4. The URL fragment (#...) is removed.
// 5. A trailing slash is removed, unless it's the root path.
// 6. An empty path becomes the root path.
// Returns an error if the URL cannot be parsed as an HTTP/HTTPS URL with a host.
func Canonicalize(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if schemeEnd(rawURL) < 0 {
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse url: %w", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url must be an http or https url")
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url has no host")
	}

	u.Host = strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Hostname()
	}
	u.Fragment = ""
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	if u.Path == "" && u.Opaque == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return u.String(), nil
}
