package datastore

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"
	"github.com/scriptwatch/scriptwatch/internal/models"
	"github.com/scriptwatch/scriptwatch/internal/urlhandler"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const endpointsFileName = "endpoints.parquet"

// EndpointRecord is the Parquet row format for one cumulative endpoint.
type EndpointRecord struct {
	NormalizedPath  string `parquet:"normalized_path"`
	Category        string `parquet:"category"`
	SourceURL       string `parquet:"source_url"`
	FirstSeenScanID int64  `parquet:"first_seen_scan_id"`
}

// EndpointStore persists the append-only cumulative endpoint set per domain.
type EndpointStore struct {
	cfg    *config.StorageConfig
	logger zerolog.Logger
}

// NewEndpointStore creates an EndpointStore rooted at the configured base path.
func NewEndpointStore(cfg *config.StorageConfig, logger zerolog.Logger) (*EndpointStore, error) {
	if cfg == nil {
		return nil, errorwrapper.NewValidationError("storage_config", cfg, "storage config cannot be nil")
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to ensure storage base directory '"+cfg.BasePath+"'")
	}
	return &EndpointStore{
		cfg:    cfg,
		logger: logger.With().Str("component", "EndpointStore").Logger(),
	}, nil
}

func (s *EndpointStore) endpointsPath(domain string) string {
	return filepath.Join(s.cfg.BasePath, urlhandler.SafeDomainDir(domain), endpointsFileName)
}

// Load reads a domain's cumulative endpoint set keyed by normalized path.
// A missing or unreadable file yields an empty set.
func (s *EndpointStore) Load(domain string) (map[string]models.Endpoint, error) {
	cumulative := make(map[string]models.Endpoint)

	path := s.endpointsPath(domain)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cumulative, nil
	}

	records, err := parquet.ReadFile[EndpointRecord](path)
	if err != nil {
		s.logger.Warn().Err(err).Str("domain", domain).Str("path", path).
			Msg("Could not read cumulative endpoint set, starting empty")
		return cumulative, nil
	}

	for _, rec := range records {
		cumulative[rec.NormalizedPath] = models.Endpoint{
			NormalizedPath:  rec.NormalizedPath,
			Category:        rec.Category,
			SourceURL:       rec.SourceURL,
			FirstSeenScanID: rec.FirstSeenScanID,
		}
	}
	return cumulative, nil
}

// Save atomically replaces a domain's cumulative endpoint set. Rows are
// written sorted by normalized path so files are reproducible.
func (s *EndpointStore) Save(domain string, cumulative map[string]models.Endpoint) error {
	keys := make([]string, 0, len(cumulative))
	for k := range cumulative {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]EndpointRecord, 0, len(keys))
	for _, k := range keys {
		ep := cumulative[k]
		records = append(records, EndpointRecord{
			NormalizedPath:  ep.NormalizedPath,
			Category:        ep.Category,
			SourceURL:       ep.SourceURL,
			FirstSeenScanID: ep.FirstSeenScanID,
		})
	}

	path := s.endpointsPath(domain)
	if err := writeParquetAtomic(path, records, compressionOption(s.cfg.CompressionCodec)); err != nil {
		return errorwrapper.WrapError(err, "failed to persist endpoint set for domain '"+domain+"'")
	}

	s.logger.Debug().
		Str("domain", domain).
		Int("endpoints", len(records)).
		Msg("Cumulative endpoint set persisted")
	return nil
}
