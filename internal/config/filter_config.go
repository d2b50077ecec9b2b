package config

// FilterConfig defines scope filters applied to discovered script URLs
// before they are tracked. Domain entries are matched as substrings of the
// URL host; URL entries are regular expressions.
type FilterConfig struct {
	IncludeDomains     []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`
	ExcludeDomains     []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`
	IncludeURLPatterns []string `json:"include_url_patterns,omitempty" yaml:"include_url_patterns,omitempty"`
	ExcludeURLPatterns []string `json:"exclude_url_patterns,omitempty" yaml:"exclude_url_patterns,omitempty"`
}

// NewDefaultFilterConfig creates default (empty, allow-everything) filter configuration.
func NewDefaultFilterConfig() FilterConfig {
	return FilterConfig{}
}
