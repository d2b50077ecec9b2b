package config

// PatternGroup is one named, ordered set of endpoint extraction regexes.
// Category names are caller-defined; declaration order is preserved so that
// extraction output stays deterministic.
type PatternGroup struct {
	Category string   `json:"category" yaml:"category" validate:"required"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// ExtractorConfig defines configuration for endpoint extraction.
// Zero pattern groups is legal and simply yields zero regex-based endpoints.
type ExtractorConfig struct {
	PatternGroups       []PatternGroup `json:"pattern_groups,omitempty" yaml:"pattern_groups,omitempty" validate:"omitempty,dive"`
	EnableASTExtraction bool           `json:"enable_ast_extraction" yaml:"enable_ast_extraction"`
}

// NewDefaultExtractorConfig creates default extractor configuration.
func NewDefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		PatternGroups:       []PatternGroup{},
		EnableASTExtraction: true,
	}
}
