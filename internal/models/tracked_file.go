package models

import "time"

// TrackedFile is the identity record for one remote script file inside a
// snapshot. Two files with an equal ContentHash are considered byte-identical
// regardless of URL.
type TrackedFile struct {
	URL            string   `json:"url"`
	Domain         string   `json:"domain"`
	ContentHash    string   `json:"content_hash"`
	Fingerprint    []uint64 `json:"fingerprint,omitempty"`
	Size           int64    `json:"size"`
	ETag           string   `json:"etag,omitempty"`
	LastSeenScanID int64    `json:"last_seen_scan_id"`
}

// ScanSnapshot holds the complete tracked state of one scan cycle for a
// domain, keyed by URL. A snapshot is immutable once built; the detector and
// matcher only read from it.
type ScanSnapshot struct {
	ScanID    int64                  `json:"scan_id"`
	Timestamp time.Time              `json:"timestamp"`
	Files     map[string]TrackedFile `json:"files"`
}

// NewScanSnapshot creates an empty snapshot for the given scan session.
func NewScanSnapshot(scanID int64, timestamp time.Time) *ScanSnapshot {
	return &ScanSnapshot{
		ScanID:    scanID,
		Timestamp: timestamp,
		Files:     make(map[string]TrackedFile),
	}
}

// URLs returns the snapshot's tracked URLs in unspecified order.
func (s *ScanSnapshot) URLs() []string {
	if s == nil {
		return nil
	}
	urls := make([]string, 0, len(s.Files))
	for u := range s.Files {
		urls = append(urls, u)
	}
	return urls
}
