package features

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var dottedQuad = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)

func ipLiteralHost(in *Input) Result {
	host := in.Parts.Host
	if m := dottedQuad.FindStringSubmatch(host); m != nil {
		for _, octet := range m[1:] {
			if n, _ := strconv.Atoi(octet); n > 255 {
				return noMatch()
			}
		}
		return match(host)
	}
	// bracketed IPv6 literal
	if strings.Contains(host, ":") && net.ParseIP(host) != nil {
		return match(host)
	}
	return noMatch()
}

func explicitPort(in *Input) Result {
	port := in.Parts.Port
	if len(port) < 4 || len(port) > 5 {
		return noMatch()
	}
	for _, c := range port {
		if c < '0' || c > '9' {
			return noMatch()
		}
	}
	return match(fmt.Sprintf("port %s", port))
}

func insecureScheme(in *Input) Result {
	if strings.HasPrefix(in.Lower, "http://") {
		return match("http://")
	}
	return noMatch()
}
