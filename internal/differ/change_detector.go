package differ

import (
	"sort"

	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/rs/zerolog"
)

// ModifiedFile pairs a URL present in both snapshots with its old and new
// content hashes.
type ModifiedFile struct {
	URL     string
	OldHash string
	NewHash string
}

// DiffResult holds the three disjoint change sets between two snapshots.
// URLs present in both snapshots with equal hashes are unchanged and not
// reported. Slices are sorted for deterministic downstream output.
type DiffResult struct {
	Added    []string
	Modified []ModifiedFile
	Removed  []string
}

// IsEmpty reports whether the diff found no changes at all.
func (r DiffResult) IsEmpty() bool {
	return len(r.Added) == 0 && len(r.Modified) == 0 && len(r.Removed) == 0
}

// ChangeDetector diffs a current snapshot against the last persisted one.
type ChangeDetector struct {
	logger zerolog.Logger
}

// NewChangeDetector creates a new ChangeDetector.
func NewChangeDetector(logger zerolog.Logger) *ChangeDetector {
	return &ChangeDetector{
		logger: logger.With().Str("component", "ChangeDetector").Logger(),
	}
}

// Diff compares two snapshots by URL and content hash. Both snapshots are
// read-only views; no TrackedFile is mutated. A nil previous snapshot is the
// bootstrap case: every current URL is Added and nothing is Removed or
// Modified.
func (cd *ChangeDetector) Diff(previous, current *models.ScanSnapshot) DiffResult {
	var result DiffResult

	var prevFiles map[string]models.TrackedFile
	if previous != nil {
		prevFiles = previous.Files
	}

	for url, file := range current.Files {
		prevFile, existed := prevFiles[url]
		switch {
		case !existed:
			result.Added = append(result.Added, url)
		case prevFile.ContentHash != file.ContentHash:
			result.Modified = append(result.Modified, ModifiedFile{
				URL:     url,
				OldHash: prevFile.ContentHash,
				NewHash: file.ContentHash,
			})
		}
	}

	for url := range prevFiles {
		if _, present := current.Files[url]; !present {
			result.Removed = append(result.Removed, url)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Slice(result.Modified, func(i, j int) bool {
		return result.Modified[i].URL < result.Modified[j].URL
	})

	cd.logger.Debug().
		Int("added", len(result.Added)).
		Int("modified", len(result.Modified)).
		Int("removed", len(result.Removed)).
		Msg("Snapshot diff completed")

	return result
}
