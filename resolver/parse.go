package resolver

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/miekg/dns"
)

var domainRegex = regexp.MustCompile(
	`^` + // match beginning
		`(` + // start subdomain group
		`(xn--)?` + // idn prefix
		`[a-z0-9_-]{1,63}` + // main chunk
		`\.` + // ending with a dot
		`)*` + // end subdomain group, allow any number of subdomains
		`(xn--)?` + // TLD idn prefix
		`[a-z0-9_-]{1,63}` + // TLD main chunk with at least one character
		`\.` + // ending with a dot
		`$`, // match end
)

// ParseServerAddress parses a textual DNS server address. Only plain IP
// addresses are accepted, IPv6 addresses may carry a zone suffix.
func ParseServerAddress(text string) (*Server, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty server address")
	}

	// strip zone from link-local IPv6 addresses, eg. "fe80::1%eth0"
	addr := text
	if at := strings.IndexByte(addr, '%'); at >= 0 {
		addr = addr[:at]
	}

	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, fmt.Errorf("%q is not a valid IP address", text)
	}

	return NewServer(ip, ""), nil
}

// ParseSearchDomain parses and validates a single search domain token.
// The domain is returned in its normalized form, without a trailing dot.
func ParseSearchDomain(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("empty search domain")
	}

	fqdn := dns.Fqdn(strings.ToLower(token))
	if _, ok := dns.IsDomainName(fqdn); !ok {
		return "", fmt.Errorf("%q is not a valid domain name", token)
	}
	if fqdn == "." {
		return "", fmt.Errorf("refusing the root domain as search domain")
	}
	if !domainRegex.MatchString(fqdn) {
		return "", fmt.Errorf("%q is not a valid domain name", token)
	}

	return strings.TrimSuffix(fqdn, "."), nil
}
