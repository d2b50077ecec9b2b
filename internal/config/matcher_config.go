package config

// MatcherConfig defines configuration for rename inference and the
// fingerprint engine feeding it.
type MatcherConfig struct {
	Enabled             bool    `json:"enabled" yaml:"enabled"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty" yaml:"similarity_threshold,omitempty" validate:"omitempty,gt=0,lte=1"`
	ShingleSize         int     `json:"shingle_size,omitempty" yaml:"shingle_size,omitempty" validate:"omitempty,min=2"`
	SignatureSize       int     `json:"signature_size,omitempty" yaml:"signature_size,omitempty" validate:"omitempty,min=16"`
}

// NewDefaultMatcherConfig creates default matcher configuration.
func NewDefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		Enabled:             true,
		SimilarityThreshold: DefaultSimilarityThreshold,
		ShingleSize:         DefaultShingleSize,
		SignatureSize:       DefaultSignatureSize,
	}
}
