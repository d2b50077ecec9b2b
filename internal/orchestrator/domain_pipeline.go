package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"
	"github.com/scriptwatch/scriptwatch/internal/fetcher"
	"github.com/scriptwatch/scriptwatch/internal/fingerprint"
	"github.com/scriptwatch/scriptwatch/internal/matcher"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"golang.org/x/sync/errgroup"
)

// scanDomain runs the full pipeline for one domain's target URLs and returns
// its scan report. Failures of individual URLs are isolated: the URL is
// counted as failed and left out of the snapshot, which lets the next cycle
// rediscover it instead of wrongly reporting a removal against stale state.
func (so *ScanOrchestrator) scanDomain(ctx context.Context, domain string, urls []string) (*models.ScanReport, error) {
	startedAt := time.Now()

	scanID, err := so.ledger.BeginScan(ctx, domain)
	if err != nil {
		return nil, err
	}
	logger := so.logger.With().Str("domain", domain).Int64("scan_id", scanID).Logger()

	previous, prevContents, err := so.snapshotStore.LoadPrevious(domain)
	if err != nil {
		return nil, err
	}
	if previous == nil {
		if hasHistory, herr := so.ledger.HasHistory(ctx, domain); herr == nil && hasHistory {
			logger.Warn().Msg("Previous snapshot is missing despite scan history, rebuilding baseline")
		}
	}

	so.setState(StateFetching)
	current, currContents, failed, counts := so.fetchSnapshot(ctx, domain, urls, scanID, previous, prevContents)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	so.setState(StateDetecting)
	diff := so.detector.Diff(previous, current)
	// A transient fetch failure keeps the URL out of the snapshot; do not
	// report it removed on top of that.
	diff.Removed = dropFailed(diff.Removed, failed)

	so.setState(StateMatching)
	match := so.matchRenames(previous, current, diff.Added, diff.Removed)

	changes := so.buildChangeRecords(diff, match, prevContents, currContents, &counts)

	so.setState(StateExtracting)
	cumulative, err := so.endpointStore.Load(domain)
	if err != nil {
		return nil, err
	}
	newEndpoints := so.extractNewEndpoints(ctx, diff, match, currContents, scanID, cumulative)
	counts.NewEndpoints = len(newEndpoints)

	so.setState(StateReporting)
	report := &models.ScanReport{
		ScanID:       scanID,
		Domain:       domain,
		StartedAt:    startedAt,
		Duration:     time.Since(startedAt),
		Changes:      changes,
		NewEndpoints: newEndpoints,
		Counts:       counts,
	}

	so.setState(StatePersisting)
	// The endpoint set commits before the snapshot. It is append-only, so a
	// failure between the two writes leaves the old snapshot in place and
	// the next cycle re-detects and re-extracts; committing the snapshot
	// first would lose this cycle's endpoints on an endpoint-write failure.
	if err := so.endpointStore.Save(domain, cumulative); err != nil {
		return nil, err
	}
	if err := so.snapshotStore.Save(domain, current, currContents); err != nil {
		return nil, err
	}
	if err := so.ledger.CompleteScan(ctx, scanID, counts); err != nil {
		return nil, err
	}

	logger.Info().
		Int("processed", counts.Processed).
		Int("added", counts.Added).
		Int("modified", counts.Modified).
		Int("removed", counts.Removed).
		Int("renamed", counts.Renamed).
		Int("new_endpoints", counts.NewEndpoints).
		Msg("Domain scan finished")
	return report, nil
}

// fetchSnapshot fetches every in-scope URL concurrently and assembles the
// current snapshot. A 304 answer carries the previous record and content
// forward unchanged. A URL answering 404/410 is definitively gone and left
// out of the snapshot so the diff reports it removed; any other failure is
// transient and lands in the failed set instead.
func (so *ScanOrchestrator) fetchSnapshot(
	ctx context.Context,
	domain string,
	urls []string,
	scanID int64,
	previous *models.ScanSnapshot,
	prevContents map[string][]byte,
) (*models.ScanSnapshot, map[string][]byte, map[string]struct{}, models.DomainCounts) {
	current := models.NewScanSnapshot(scanID, time.Now().UTC())
	currContents := make(map[string][]byte)
	failed := make(map[string]struct{})
	var counts models.DomainCounts

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(so.parallelism())

	for _, url := range urls {
		if !so.scopeFilter.Allows(url) {
			counts.Filtered++
			continue
		}

		url := url
		g.Go(func() error {
			file, content, err := so.fetchOne(gctx, domain, url, scanID, previous, prevContents)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				current.Files[url] = *file
				currContents[url] = content
				counts.Processed++
			case isGone(err):
				so.logger.Info().Str("url", url).Msg("URL is no longer served")
			default:
				failed[url] = struct{}{}
				counts.Failed++
				so.logger.Warn().Err(err).Str("url", url).Msg("Fetch failed, excluding URL from snapshot")
			}
			return nil
		})
	}
	g.Wait()

	return current, currContents, failed, counts
}

// isGone reports whether a fetch error means the URL definitively no longer
// exists, as opposed to a transient failure.
func isGone(err error) bool {
	var httpErr *errorwrapper.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusNotFound || httpErr.StatusCode == http.StatusGone
	}
	return false
}

func dropFailed(removed []string, failed map[string]struct{}) []string {
	if len(failed) == 0 {
		return removed
	}
	kept := removed[:0]
	for _, url := range removed {
		if _, ok := failed[url]; !ok {
			kept = append(kept, url)
		}
	}
	return kept
}

// fetchOne fetches a single URL, hashing and fingerprinting its content.
func (so *ScanOrchestrator) fetchOne(
	ctx context.Context,
	domain string,
	url string,
	scanID int64,
	previous *models.ScanSnapshot,
	prevContents map[string][]byte,
) (*models.TrackedFile, []byte, error) {
	var prevFile models.TrackedFile
	var hadPrev bool
	if previous != nil {
		prevFile, hadPrev = previous.Files[url]
	}

	req := fetcher.Request{URL: url}
	if hadPrev {
		req.PreviousETag = prevFile.ETag
	}

	result, err := so.fetcher.FetchContent(ctx, req)
	if errors.Is(err, fetcher.ErrNotModified) {
		carried := prevFile
		carried.LastSeenScanID = scanID
		return &carried, prevContents[url], nil
	}
	if err != nil {
		return nil, nil, err
	}

	content := result.Content
	hash := sha256.Sum256(content)
	contentHash := hex.EncodeToString(hash[:])

	var fp fingerprint.Vector
	if hadPrev && prevFile.ContentHash == contentHash {
		fp = prevFile.Fingerprint
	} else {
		fp = so.engine.Fingerprint(string(content))
	}

	return &models.TrackedFile{
		URL:            url,
		Domain:         domain,
		ContentHash:    contentHash,
		Fingerprint:    fp,
		Size:           int64(len(content)),
		ETag:           result.ETag,
		LastSeenScanID: scanID,
	}, content, nil
}

// matchRenames runs rename inference over the added/removed sets. Removed
// URLs are scored with their last known fingerprint, added URLs with the
// fresh one.
func (so *ScanOrchestrator) matchRenames(previous, current *models.ScanSnapshot, added, removed []string) matcher.MatchResult {
	if !so.cfg.MatcherConfig.Enabled || len(added) == 0 || len(removed) == 0 {
		return matcher.MatchResult{RemainingAdded: added, RemainingRemoved: removed}
	}

	fingerprints := make(map[string]fingerprint.Vector, len(added)+len(removed))
	for _, url := range added {
		fingerprints[url] = current.Files[url].Fingerprint
	}
	for _, url := range removed {
		fingerprints[url] = previous.Files[url].Fingerprint
	}
	return so.matcher.Match(added, removed, fingerprints)
}

// parallelism returns the bounded concurrency for fetch and extraction work.
func (so *ScanOrchestrator) parallelism() int {
	if n := so.cfg.MonitorConfig.MaxParallelExtracts; n > 0 {
		return n
	}
	return config.DefaultMaxParallelExtracts
}
