package models

// ChangeType classifies how a tracked URL changed between two snapshots.
type ChangeType string

const (
	// ChangeAdded indicates a URL present in the current snapshot but not the previous one.
	ChangeAdded ChangeType = "added"
	// ChangeModified indicates a URL present in both snapshots with differing content hashes.
	ChangeModified ChangeType = "modified"
	// ChangeRemoved indicates a URL present in the previous snapshot but not the current one.
	ChangeRemoved ChangeType = "removed"
	// ChangeRenamed indicates a removed/added pair inferred to be the same file at a new URL.
	ChangeRenamed ChangeType = "renamed"
)

// ChangeRecord is one classified change produced by a scan cycle.
// URL carries the current URL for added/modified/renamed records and the
// vanished URL for removed records. OldURL and Score are set only for
// renames; OldHash/NewHash and the line counters only for modifications.
type ChangeRecord struct {
	Type         ChangeType `json:"type"`
	URL          string     `json:"url"`
	OldURL       string     `json:"old_url,omitempty"`
	OldHash      string     `json:"old_hash,omitempty"`
	NewHash      string     `json:"new_hash,omitempty"`
	Score        float64    `json:"score,omitempty"`
	LinesAdded   int        `json:"lines_added,omitempty"`
	LinesRemoved int        `json:"lines_removed,omitempty"`
}
