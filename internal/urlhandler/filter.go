package urlhandler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"

	"github.com/rs/zerolog"
)

// ScopeFilter applies include/exclude domain and URL-pattern filters to
// discovered script URLs before they enter a snapshot.
type ScopeFilter struct {
	logger          zerolog.Logger
	includeDomains  []string
	excludeDomains  []string
	includePatterns []*regexp.Regexp
	excludePatterns []*regexp.Regexp
}

// NewScopeFilter compiles the configured filter patterns. Uncompilable URL
// patterns are an error; filters gate what gets tracked and should fail loud.
func NewScopeFilter(cfg config.FilterConfig, logger zerolog.Logger) (*ScopeFilter, error) {
	sf := &ScopeFilter{
		logger:         logger.With().Str("component", "ScopeFilter").Logger(),
		includeDomains: cfg.IncludeDomains,
		excludeDomains: cfg.ExcludeDomains,
	}

	var err error
	if sf.includePatterns, err = compilePatterns(cfg.IncludeURLPatterns); err != nil {
		return nil, errorwrapper.WrapError(err, "invalid include URL pattern")
	}
	if sf.excludePatterns, err = compilePatterns(cfg.ExcludeURLPatterns); err != nil {
		return nil, errorwrapper.WrapError(err, "invalid exclude URL pattern")
	}
	return sf, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

// Allows reports whether the given URL passes all configured filters.
// Invalid URLs never pass.
func (sf *ScopeFilter) Allows(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host

	if len(sf.includeDomains) > 0 && !matchesAnyDomain(host, sf.includeDomains) {
		return false
	}
	if matchesAnyDomain(host, sf.excludeDomains) {
		return false
	}
	if len(sf.includePatterns) > 0 && !matchesAnyPattern(rawURL, sf.includePatterns) {
		return false
	}
	if matchesAnyPattern(rawURL, sf.excludePatterns) {
		return false
	}
	return true
}

func matchesAnyDomain(host string, domains []string) bool {
	for _, d := range domains {
		if d != "" && strings.Contains(host, d) {
			return true
		}
	}
	return false
}

func matchesAnyPattern(rawURL string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}
