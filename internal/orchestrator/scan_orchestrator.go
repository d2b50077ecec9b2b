package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/datastore"
	"github.com/scriptwatch/scriptwatch/internal/differ"
	"github.com/scriptwatch/scriptwatch/internal/extractor"
	"github.com/scriptwatch/scriptwatch/internal/fetcher"
	"github.com/scriptwatch/scriptwatch/internal/fingerprint"
	"github.com/scriptwatch/scriptwatch/internal/matcher"
	"github.com/scriptwatch/scriptwatch/internal/models"
	"github.com/scriptwatch/scriptwatch/internal/notifier"
	"github.com/scriptwatch/scriptwatch/internal/urlhandler"

	"github.com/rs/zerolog"
)

// State names the pipeline phase the orchestrator is currently in. Domains
// are scanned sequentially, so the state always reflects the active one.
type State string

const (
	StateIdle       State = "idle"
	StateFetching   State = "fetching"
	StateDetecting  State = "detecting"
	StateMatching   State = "matching"
	StateExtracting State = "extracting"
	StateReporting  State = "reporting"
	StatePersisting State = "persisting"
)

// ScanOrchestrator drives the full pipeline for every configured target:
// fetch, snapshot, change detection, rename inference, endpoint extraction,
// reporting, persistence. One instance owns the stores and the scan ledger.
type ScanOrchestrator struct {
	logger        zerolog.Logger
	cfg           *config.GlobalConfig
	fetcher       fetcher.ContentFetcher
	engine        *fingerprint.Engine
	detector      *differ.ChangeDetector
	contentDiffer *differ.ContentDiffer
	matcher       *matcher.SimilarityMatcher
	extractor     *extractor.EndpointExtractor
	scopeFilter   *urlhandler.ScopeFilter
	snapshotStore *datastore.SnapshotStore
	endpointStore *datastore.EndpointStore
	ledger        *datastore.ScanLedger
	notifyHelper  *notifier.NotificationHelper

	mu    sync.Mutex
	state State
}

// NewScanOrchestrator wires the full pipeline from configuration. A nil
// contentFetcher gets the default HTTP fetcher; tests inject their own.
func NewScanOrchestrator(gCfg *config.GlobalConfig, contentFetcher fetcher.ContentFetcher, appLogger zerolog.Logger) (*ScanOrchestrator, error) {
	engine := fingerprint.NewEngine(gCfg.MatcherConfig, appLogger)

	endpointExtractor, patternErrors := extractor.NewEndpointExtractor(gCfg.ExtractorConfig, appLogger)
	for _, pe := range patternErrors {
		appLogger.Warn().Err(pe.Err).
			Str("category", pe.Category).
			Str("pattern", pe.Pattern).
			Msg("Extraction pattern rejected")
	}

	scopeFilter, err := urlhandler.NewScopeFilter(gCfg.FilterConfig, appLogger)
	if err != nil {
		return nil, err
	}
	snapshotStore, err := datastore.NewSnapshotStore(&gCfg.StorageConfig, appLogger)
	if err != nil {
		return nil, err
	}
	endpointStore, err := datastore.NewEndpointStore(&gCfg.StorageConfig, appLogger)
	if err != nil {
		return nil, err
	}
	ledger, err := datastore.NewScanLedger(gCfg.StorageConfig.ScanLedgerPath, appLogger)
	if err != nil {
		return nil, err
	}

	if contentFetcher == nil {
		contentFetcher = fetcher.NewHTTPFetcher(&gCfg.MonitorConfig, appLogger)
	}

	discordNotifier := notifier.NewDiscordNotifier(appLogger, nil)

	return &ScanOrchestrator{
		logger:        appLogger.With().Str("component", "ScanOrchestrator").Logger(),
		cfg:           gCfg,
		fetcher:       contentFetcher,
		engine:        engine,
		detector:      differ.NewChangeDetector(appLogger),
		contentDiffer: differ.NewContentDiffer(),
		matcher:       matcher.NewSimilarityMatcher(engine, gCfg.MatcherConfig, appLogger),
		extractor:     endpointExtractor,
		scopeFilter:   scopeFilter,
		snapshotStore: snapshotStore,
		endpointStore: endpointStore,
		ledger:        ledger,
		notifyHelper:  notifier.NewNotificationHelper(discordNotifier, gCfg.NotificationConfig, appLogger),
	}, nil
}

// State returns the current pipeline phase.
func (so *ScanOrchestrator) State() State {
	so.mu.Lock()
	defer so.mu.Unlock()
	if so.state == "" {
		return StateIdle
	}
	return so.state
}

func (so *ScanOrchestrator) setState(s State) {
	so.mu.Lock()
	so.state = s
	so.mu.Unlock()
	so.logger.Debug().Str("state", string(s)).Msg("Pipeline state changed")
}

// Close releases the scan ledger.
func (so *ScanOrchestrator) Close() error {
	return so.ledger.Close()
}

// Run executes scan cycles until the context is cancelled. In one-shot mode a
// single cycle runs and its first error is returned. In live mode cycles
// never overlap: the next one starts when the interval has elapsed since the
// previous cycle began, or immediately if the cycle ran longer than that.
func (so *ScanOrchestrator) Run(ctx context.Context) error {
	interval := so.cfg.MonitorConfig.Interval()

	for {
		cycleStart := time.Now()
		if _, err := so.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !so.cfg.MonitorConfig.LiveMode {
				return err
			}
			so.logger.Error().Err(err).Msg("Scan cycle failed")
		}

		if !so.cfg.MonitorConfig.LiveMode {
			return nil
		}

		wait := interval - time.Since(cycleStart)
		if wait < 0 {
			wait = 0
		}
		so.logger.Info().Dur("wait", wait).Msg("Cycle complete, waiting for next interval")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// RunCycle runs one complete scan cycle over every configured target URL,
// grouped per domain, and dispatches the cycle summary notification. A
// failing domain is logged and skipped; it does not abort the cycle.
func (so *ScanOrchestrator) RunCycle(ctx context.Context) ([]*models.ScanReport, error) {
	cycleStart := time.Now()
	defer so.setState(StateIdle)

	byDomain := so.groupTargetsByDomain()
	if len(byDomain) == 0 {
		so.logger.Warn().Msg("No valid target URLs configured, nothing to scan")
		return nil, nil
	}

	domains := make([]string, 0, len(byDomain))
	for d := range byDomain {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	reports := make([]*models.ScanReport, 0, len(domains))
	for _, domain := range domains {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := so.scanDomain(ctx, domain, byDomain[domain])
		if err != nil {
			so.logger.Error().Err(err).Str("domain", domain).Msg("Domain scan failed")
			continue
		}
		reports = append(reports, report)
	}

	so.setState(StateReporting)
	if err := so.notifyHelper.SendScanSummary(ctx, reports, time.Since(cycleStart)); err != nil {
		so.logger.Error().Err(err).Msg("Failed to send scan summary notification")
	}

	so.logger.Info().
		Int("domains", len(reports)).
		Dur("duration", time.Since(cycleStart)).
		Msg("Scan cycle finished")
	return reports, nil
}

// groupTargetsByDomain normalizes the configured target URLs and buckets
// them by registrable domain, so sibling hosts of one site share a snapshot
// and endpoint set. Unparsable targets are logged and dropped; URLs within
// a bucket are sorted and deduplicated.
func (so *ScanOrchestrator) groupTargetsByDomain() map[string][]string {
	byDomain := make(map[string][]string)
	seen := make(map[string]struct{})

	for _, raw := range so.cfg.MonitorConfig.TargetURLs {
		normalized, err := urlhandler.NormalizeURL(raw)
		if err != nil {
			so.logger.Warn().Err(err).Str("url", raw).Msg("Skipping invalid target URL")
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}

		host, err := urlhandler.DomainOf(normalized)
		if err != nil {
			so.logger.Warn().Err(err).Str("url", normalized).Msg("Skipping target URL without a host")
			continue
		}
		domain := urlhandler.RegistrableDomain(host)
		byDomain[domain] = append(byDomain[domain], normalized)
	}

	for domain := range byDomain {
		sort.Strings(byDomain[domain])
	}
	return byDomain
}
