package datastore

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"
	"github.com/scriptwatch/scriptwatch/internal/models"
	"github.com/scriptwatch/scriptwatch/internal/urlhandler"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const snapshotFileName = "snapshot.parquet"

// SnapshotRecord is the Parquet row format for one tracked file of a
// persisted snapshot.
type SnapshotRecord struct {
	ScanID      int64     `parquet:"scan_id"`
	Timestamp   time.Time `parquet:"timestamp"`
	URL         string    `parquet:"url"`
	Domain      string    `parquet:"domain"`
	ContentHash string    `parquet:"content_hash"`
	Size        int64     `parquet:"size"`
	ETag        string    `parquet:"etag"`
	Fingerprint []uint64  `parquet:"fingerprint,list"`
	Content     []byte    `parquet:"content"`
}

// SnapshotStore persists the latest ScanSnapshot per domain as a Parquet
// file. Writes go through a temp file plus rename so a partially written
// snapshot is never visible.
type SnapshotStore struct {
	cfg    *config.StorageConfig
	logger zerolog.Logger
}

// NewSnapshotStore creates a SnapshotStore rooted at the configured base path.
func NewSnapshotStore(cfg *config.StorageConfig, logger zerolog.Logger) (*SnapshotStore, error) {
	if cfg == nil {
		return nil, errorwrapper.NewValidationError("storage_config", cfg, "storage config cannot be nil")
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, errorwrapper.WrapError(err, "failed to ensure storage base directory '"+cfg.BasePath+"'")
	}
	return &SnapshotStore{
		cfg:    cfg,
		logger: logger.With().Str("component", "SnapshotStore").Logger(),
	}, nil
}

func (s *SnapshotStore) snapshotPath(domain string) string {
	return filepath.Join(s.cfg.BasePath, urlhandler.SafeDomainDir(domain), snapshotFileName)
}

// LoadPrevious reads a domain's last persisted snapshot and, when content was
// stored, the per-URL content bytes. A missing or unreadable snapshot is the
// bootstrap case, not an error: it returns (nil, nil, nil) and the caller
// treats every current URL as Added.
func (s *SnapshotStore) LoadPrevious(domain string) (*models.ScanSnapshot, map[string][]byte, error) {
	path := s.snapshotPath(domain)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil, nil
	}

	records, err := parquet.ReadFile[SnapshotRecord](path)
	if err != nil {
		s.logger.Warn().Err(err).Str("domain", domain).Str("path", path).
			Msg("Could not read previous snapshot, treating as first scan")
		return nil, nil, nil
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	snapshot := models.NewScanSnapshot(records[0].ScanID, records[0].Timestamp)
	contents := make(map[string][]byte)
	for _, rec := range records {
		snapshot.Files[rec.URL] = models.TrackedFile{
			URL:            rec.URL,
			Domain:         rec.Domain,
			ContentHash:    rec.ContentHash,
			Fingerprint:    rec.Fingerprint,
			Size:           rec.Size,
			ETag:           rec.ETag,
			LastSeenScanID: rec.ScanID,
		}
		if len(rec.Content) > 0 {
			contents[rec.URL] = rec.Content
		}
	}
	return snapshot, contents, nil
}

// Save atomically replaces a domain's persisted snapshot. File content is
// only written when the store is configured to keep it.
func (s *SnapshotStore) Save(domain string, snapshot *models.ScanSnapshot, contents map[string][]byte) error {
	if snapshot == nil {
		return errorwrapper.NewValidationError("snapshot", snapshot, "snapshot cannot be nil")
	}

	records := make([]SnapshotRecord, 0, len(snapshot.Files))
	for _, url := range sortedURLs(snapshot) {
		file := snapshot.Files[url]
		rec := SnapshotRecord{
			ScanID:      snapshot.ScanID,
			Timestamp:   snapshot.Timestamp,
			URL:         file.URL,
			Domain:      file.Domain,
			ContentHash: file.ContentHash,
			Size:        file.Size,
			ETag:        file.ETag,
			Fingerprint: file.Fingerprint,
		}
		if s.cfg.StoreContent {
			rec.Content = contents[url]
		}
		records = append(records, rec)
	}

	path := s.snapshotPath(domain)
	if err := writeParquetAtomic(path, records, compressionOption(s.cfg.CompressionCodec)); err != nil {
		return errorwrapper.WrapError(err, "failed to persist snapshot for domain '"+domain+"'")
	}

	s.logger.Debug().
		Str("domain", domain).
		Int64("scan_id", snapshot.ScanID).
		Int("files", len(records)).
		Msg("Snapshot persisted")
	return nil
}

func sortedURLs(snapshot *models.ScanSnapshot) []string {
	urls := snapshot.URLs()
	sort.Strings(urls)
	return urls
}

// compressionOption maps the configured codec name onto a Parquet writer
// option. Unknown names fall back to zstd.
func compressionOption(codec string) parquet.WriterOption {
	switch codec {
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "none":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// writeParquetAtomic writes rows to a temp file in the target directory and
// renames it over the destination, so readers never observe a partial file.
func writeParquetAtomic[T any](path string, rows []T, opts ...parquet.WriterOption) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*.parquet")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	writer := parquet.NewGenericWriter[T](tmp, opts...)
	if _, err := writer.Write(rows); err != nil {
		writer.Close()
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
