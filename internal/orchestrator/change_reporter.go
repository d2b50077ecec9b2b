package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/scriptwatch/scriptwatch/internal/differ"
	"github.com/scriptwatch/scriptwatch/internal/matcher"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"golang.org/x/sync/errgroup"
)

// buildChangeRecords turns the diff and rename results into the cycle's
// change records, in a fixed order: adds, modifications, renames, removes.
// Modification records get line-level diff stats when the previous content
// survived in the snapshot store.
func (so *ScanOrchestrator) buildChangeRecords(
	diff differ.DiffResult,
	match matcher.MatchResult,
	prevContents map[string][]byte,
	currContents map[string][]byte,
	counts *models.DomainCounts,
) []models.ChangeRecord {
	var changes []models.ChangeRecord

	for _, url := range match.RemainingAdded {
		changes = append(changes, models.ChangeRecord{Type: models.ChangeAdded, URL: url})
		counts.Added++
	}

	for _, mod := range diff.Modified {
		rec := models.ChangeRecord{
			Type:    models.ChangeModified,
			URL:     mod.URL,
			OldHash: mod.OldHash,
			NewHash: mod.NewHash,
		}
		if prev, ok := prevContents[mod.URL]; ok {
			stats := so.contentDiffer.DiffStats(string(prev), string(currContents[mod.URL]))
			rec.LinesAdded = stats.LinesAdded
			rec.LinesRemoved = stats.LinesRemoved
		}
		changes = append(changes, rec)
		counts.Modified++
	}

	for _, rename := range match.Renamed {
		changes = append(changes, models.ChangeRecord{
			Type:   models.ChangeRenamed,
			URL:    rename.NewURL,
			OldURL: rename.OldURL,
			Score:  rename.Score,
		})
		counts.Renamed++
	}

	for _, url := range match.RemainingRemoved {
		changes = append(changes, models.ChangeRecord{Type: models.ChangeRemoved, URL: url})
		counts.Removed++
	}

	return changes
}

// extractNewEndpoints runs the extractor over every added, modified and
// renamed file's current content, merges the results against the cumulative
// set and returns the endpoints first seen this scan. Extraction runs with
// bounded parallelism; results are merged single-threaded in sorted URL
// order so the cumulative set grows deterministically.
func (so *ScanOrchestrator) extractNewEndpoints(
	ctx context.Context,
	diff differ.DiffResult,
	match matcher.MatchResult,
	currContents map[string][]byte,
	scanID int64,
	cumulative map[string]models.Endpoint,
) []models.Endpoint {
	if !so.extractor.HasPatterns() {
		return nil
	}

	targets := extractionTargets(diff, match)
	if len(targets) == 0 {
		return nil
	}

	perURL := make([][]models.Endpoint, len(targets))
	var mu sync.Mutex

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(so.parallelism())
	for i, url := range targets {
		i, url := i, url
		g.Go(func() error {
			endpoints := so.extractor.Extract(url, string(currContents[url]), scanID)
			mu.Lock()
			perURL[i] = endpoints
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	var newEndpoints []models.Endpoint
	for _, endpoints := range perURL {
		for _, ep := range endpoints {
			if _, known := cumulative[ep.NormalizedPath]; known {
				continue
			}
			cumulative[ep.NormalizedPath] = ep
			newEndpoints = append(newEndpoints, ep)
		}
	}
	return newEndpoints
}

// extractionTargets collects the URLs whose content changed this cycle:
// genuine adds, modifications and the new side of every rename.
func extractionTargets(diff differ.DiffResult, match matcher.MatchResult) []string {
	seen := make(map[string]struct{})
	var targets []string

	add := func(url string) {
		if _, dup := seen[url]; dup {
			return
		}
		seen[url] = struct{}{}
		targets = append(targets, url)
	}

	for _, url := range match.RemainingAdded {
		add(url)
	}
	for _, mod := range diff.Modified {
		add(mod.URL)
	}
	for _, rename := range match.Renamed {
		add(rename.NewURL)
	}

	sort.Strings(targets)
	return targets
}
