package models

// Endpoint is a normalized API path extracted from file content.
// NormalizedPath is the identity key: case-sensitive, query string stripped,
// single trailing slash collapsed. The cumulative endpoint set for a domain
// is append-only across scans.
type Endpoint struct {
	NormalizedPath  string `json:"normalized_path"`
	Category        string `json:"category"`
	SourceURL       string `json:"source_url"`
	FirstSeenScanID int64  `json:"first_seen_scan_id"`
}
