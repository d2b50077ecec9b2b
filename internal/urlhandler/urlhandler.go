package urlhandler

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

var (
	protocolTypoRegex = regexp.MustCompile(`(?i)^(ht+tps?|ttps?):/*`)
	unsafeDirChars    = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
)

// NormalizeURL normalizes a raw target URL: common protocol typos are
// repaired, a scheme is inferred when missing (http for IP addresses,
// localhost and .local hosts, https otherwise), the fragment is dropped and a
// trailing slash is trimmed.
func NormalizeURL(rawURL string) (string, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(rawURL), " ", "")
	if trimmed == "" {
		return "", errors.New("URL is empty or only whitespace")
	}

	if m := protocolTypoRegex.FindString(trimmed); m != "" {
		scheme := "http://"
		if strings.Contains(strings.ToLower(m), "s") {
			scheme = "https://"
		}
		trimmed = scheme + trimmed[len(m):]
	}

	if !strings.Contains(trimmed, "://") {
		trimmed = inferScheme(trimmed) + "://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmed, err)
	}
	if parsed.Host == "" {
		return "", errors.New("URL lacks a valid hostname")
	}

	parsed.Fragment = ""
	return strings.TrimRight(parsed.String(), "/"), nil
}

// inferScheme picks http for IPs, localhost and .local hosts, https otherwise.
func inferScheme(hostAndPath string) string {
	host := hostAndPath
	if idx := strings.IndexByte(host, '/'); idx >= 0 {
		host = host[:idx]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return "http"
	}
	if strings.HasPrefix(host, "localhost") || strings.HasSuffix(host, ".local") {
		return "http"
	}
	return "https"
}

// DomainOf extracts the host (including any port) of a URL.
func DomainOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", rawURL, err)
	}
	if parsed.Host == "" {
		return "", errors.New("URL lacks a hostname")
	}
	return parsed.Host, nil
}

// RegistrableDomain returns the effective TLD plus one label for a host,
// e.g. "example.co.uk" for "cdn.example.co.uk". Hosts without a registrable
// suffix (IPs, localhost) are returned unchanged, minus any port.
func RegistrableDomain(host string) string {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	if net.ParseIP(hostname) != nil {
		return hostname
	}
	if etld, err := publicsuffix.EffectiveTLDPlusOne(hostname); err == nil {
		return etld
	}
	return hostname
}

// PathOf returns a URL's path component, or the raw string when parsing
// fails. Used for edit-distance tie-breaking between rename candidates.
func PathOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Path
}

// SafeDomainDir sanitizes a domain for use as a directory name. Port colons
// and any other unsafe characters are replaced with underscores.
func SafeDomainDir(domain string) string {
	return unsafeDirChars.ReplaceAllString(domain, "_")
}
