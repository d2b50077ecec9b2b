package config

import "time"

// MonitorConfig defines configuration for the scan loop and the fetch boundary.
type MonitorConfig struct {
	TargetURLs          []string `json:"target_urls,omitempty" yaml:"target_urls,omitempty"`
	LiveMode            bool     `json:"live_mode" yaml:"live_mode"`
	IntervalSeconds     int      `json:"interval_seconds,omitempty" yaml:"interval_seconds,omitempty" validate:"omitempty,min=1"`
	HTTPTimeoutSeconds  int      `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	MaxContentSize      int      `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"`
	MaxParallelExtracts int      `json:"max_parallel_extracts,omitempty" yaml:"max_parallel_extracts,omitempty" validate:"omitempty,min=1"`
	InsecureSkipVerify  bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// NewDefaultMonitorConfig creates default monitor configuration.
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		TargetURLs:          []string{},
		LiveMode:            false,
		IntervalSeconds:     DefaultIntervalSeconds,
		HTTPTimeoutSeconds:  DefaultHTTPTimeoutSeconds,
		MaxContentSize:      DefaultMaxContentSize,
		MaxParallelExtracts: DefaultMaxParallelExtracts,
		InsecureSkipVerify:  false,
	}
}

// Interval returns the live-mode scan interval as a duration.
func (c MonitorConfig) Interval() time.Duration {
	if c.IntervalSeconds <= 0 {
		return DefaultIntervalSeconds * time.Second
	}
	return time.Duration(c.IntervalSeconds) * time.Second
}

// HTTPTimeout returns the per-request fetch timeout as a duration.
func (c MonitorConfig) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeoutSeconds * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}
