package models

import "time"

// DomainCounts summarizes one domain's scan cycle for reporting.
type DomainCounts struct {
	Processed    int `json:"processed"`
	Filtered     int `json:"filtered"`
	Failed       int `json:"failed"`
	Added        int `json:"added"`
	Modified     int `json:"modified"`
	Removed      int `json:"removed"`
	Renamed      int `json:"renamed"`
	NewEndpoints int `json:"new_endpoints"`
}

// ScanReport is the immutable per-domain outcome of one scan cycle, handed to
// the notifier and persistence after the cycle's Persisting step completes.
type ScanReport struct {
	ScanID       int64          `json:"scan_id"`
	Domain       string         `json:"domain"`
	StartedAt    time.Time      `json:"started_at"`
	Duration     time.Duration  `json:"duration"`
	Changes      []ChangeRecord `json:"changes"`
	NewEndpoints []Endpoint     `json:"new_endpoints"`
	Counts       DomainCounts   `json:"counts"`
}

// HasFindings reports whether the cycle produced anything worth notifying.
func (r *ScanReport) HasFindings() bool {
	return len(r.Changes) > 0 || len(r.NewEndpoints) > 0
}
