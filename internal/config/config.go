package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"

	"gopkg.in/yaml.v3"
)

const (
	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Monitor Defaults
	DefaultIntervalSeconds     = 300
	DefaultHTTPTimeoutSeconds  = 15
	DefaultMaxContentSize      = 10 * 1024 * 1024
	DefaultMaxParallelExtracts = 4

	// Matcher Defaults
	DefaultSimilarityThreshold = 0.85
	DefaultShingleSize         = 5
	DefaultSignatureSize       = 512

	// Storage Defaults
	DefaultStorageBasePath   = "data"
	DefaultScanLedgerPath    = "data/scan_ledger.db"
	DefaultCompressionCodec  = "zstd"
	DefaultStoreContent      = true
	DefaultConfigEnvVariable = "SCRIPTWATCH_CONFIG_PATH"
)

// GlobalConfig aggregates all per-concern configuration sections.
type GlobalConfig struct {
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	FilterConfig       FilterConfig       `json:"filter_config,omitempty" yaml:"filter_config,omitempty"`
	ExtractorConfig    ExtractorConfig    `json:"extractor_config,omitempty" yaml:"extractor_config,omitempty"`
	MatcherConfig      MatcherConfig      `json:"matcher_config,omitempty" yaml:"matcher_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
}

// NewDefaultGlobalConfig returns a GlobalConfig populated with defaults.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:          NewDefaultLogConfig(),
		MonitorConfig:      NewDefaultMonitorConfig(),
		FilterConfig:       NewDefaultFilterConfig(),
		ExtractorConfig:    NewDefaultExtractorConfig(),
		MatcherConfig:      NewDefaultMatcherConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
	}
}

// GetConfigPath determines the configuration file path.
// Priority: explicit flag value, then the SCRIPTWATCH_CONFIG_PATH environment
// variable, then config.yaml / config.json in the working directory.
func GetConfigPath(configFilePathFlag string) string {
	if configFilePathFlag != "" {
		if _, err := os.Stat(configFilePathFlag); err == nil {
			return configFilePathFlag
		}
	}

	if envPath := os.Getenv(DefaultConfigEnvVariable); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, file := range []string{"config.yaml", "config.yml", "config.json"} {
		path := filepath.Join(cwd, file)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadGlobalConfig loads the configuration from the given path or default
// locations. A missing config file is not an error; defaults are returned.
// YAML and JSON formats are supported, selected by file extension.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errorwrapper.WrapError(err, "failed to read config file '"+filePath+"'")
	}

	if err := parseConfigContent(data, filePath, cfg); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to parse config content")
	}

	return cfg, nil
}

// parseConfigContent parses the config content based on file extension.
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errorwrapper.NewError("failed to unmarshal YAML from '%s': %w", filePath, err)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return errorwrapper.NewError("failed to unmarshal JSON from '%s': %w", filePath, err)
	}
	return nil
}
