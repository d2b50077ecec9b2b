package config

// StorageConfig defines configuration for persisted snapshots, endpoint sets
// and the scan-session ledger.
type StorageConfig struct {
	BasePath         string `json:"base_path,omitempty" yaml:"base_path,omitempty"`
	CompressionCodec string `json:"compression_codec,omitempty" yaml:"compression_codec,omitempty" validate:"omitempty,oneof=zstd snappy gzip none"`
	ScanLedgerPath   string `json:"scan_ledger_path,omitempty" yaml:"scan_ledger_path,omitempty"`
	StoreContent     bool   `json:"store_content" yaml:"store_content"`
}

// NewDefaultStorageConfig creates default storage configuration.
func NewDefaultStorageConfig() StorageConfig {
	return StorageConfig{
		BasePath:         DefaultStorageBasePath,
		CompressionCodec: DefaultCompressionCodec,
		ScanLedgerPath:   DefaultScanLedgerPath,
		StoreContent:     DefaultStoreContent,
	}
}
