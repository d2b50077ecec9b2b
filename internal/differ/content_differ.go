package differ

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ContentDiffStats summarizes a line-level content diff between two versions
// of a modified file.
type ContentDiffStats struct {
	LinesAdded   int
	LinesRemoved int
	IsIdentical  bool
}

// ContentDiffer computes line-level statistics for modified file content.
type ContentDiffer struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewContentDiffer creates a new ContentDiffer.
func NewContentDiffer() *ContentDiffer {
	return &ContentDiffer{
		dmp: diffmatchpatch.New(),
	}
}

// DiffStats compares two content versions line by line and counts added and
// removed lines.
func (cd *ContentDiffer) DiffStats(previous, current string) ContentDiffStats {
	prevChars, currChars, lineArray := cd.dmp.DiffLinesToChars(previous, current)
	diffs := cd.dmp.DiffMain(prevChars, currChars, false)
	diffs = cd.dmp.DiffCharsToLines(diffs, lineArray)

	stats := ContentDiffStats{IsIdentical: true}
	for _, diff := range diffs {
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			stats.LinesAdded += countLines(diff.Text)
			stats.IsIdentical = false
		case diffmatchpatch.DiffDelete:
			stats.LinesRemoved += countLines(diff.Text)
			stats.IsIdentical = false
		}
	}
	return stats
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
