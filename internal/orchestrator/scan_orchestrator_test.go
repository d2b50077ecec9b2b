package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"
	"github.com/scriptwatch/scriptwatch/internal/fetcher"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned content keyed by URL and honors conditional GETs
// against its current ETags.
type fakeFetcher struct {
	mu    sync.Mutex
	files map[string]fakeFile
}

type fakeFile struct {
	content string
	etag    string
	fail    bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{files: make(map[string]fakeFile)}
}

func (f *fakeFetcher) set(url, content, etag string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[url] = fakeFile{content: content, etag: etag}
}

func (f *fakeFetcher) setFailing(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[url] = fakeFile{fail: true}
}

func (f *fakeFetcher) remove(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, url)
}

func (f *fakeFetcher) FetchContent(_ context.Context, req fetcher.Request) (*fetcher.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, ok := f.files[req.URL]
	if !ok {
		return nil, errorwrapper.NewHTTPErrorWithURL(http.StatusNotFound, "not found", req.URL)
	}
	if file.fail {
		return nil, fmt.Errorf("connection reset for %s", req.URL)
	}
	if file.etag != "" && req.PreviousETag == file.etag {
		return &fetcher.Result{URL: req.URL, ETag: file.etag, StatusCode: 304}, fetcher.ErrNotModified
	}
	return &fetcher.Result{
		URL:        req.URL,
		Content:    []byte(file.content),
		ETag:       file.etag,
		StatusCode: 200,
	}, nil
}

func newTestOrchestrator(t *testing.T, fake *fakeFetcher, targets ...string) *ScanOrchestrator {
	t.Helper()

	baseDir := t.TempDir()
	gCfg := config.NewDefaultGlobalConfig()
	gCfg.MonitorConfig.TargetURLs = targets
	gCfg.StorageConfig.BasePath = baseDir
	gCfg.StorageConfig.ScanLedgerPath = filepath.Join(baseDir, "ledger.db")
	gCfg.ExtractorConfig.EnableASTExtraction = false
	gCfg.ExtractorConfig.PatternGroups = []config.PatternGroup{
		{Category: "fetch_calls", Patterns: []string{`fetch\(["']([^"']+)["']`}},
	}

	so, err := NewScanOrchestrator(gCfg, fake, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { so.Close() })
	return so
}

func TestRunCycle_BootstrapReportsEverythingAdded(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/app.js", `fetch("/api/users");`, `"e1"`)
	fake.set("https://example.com/lib.js", `fetch("/api/items");`, `"e2"`)
	so := newTestOrchestrator(t, fake, "https://example.com/app.js", "https://example.com/lib.js")

	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	assert.Equal(t, "example.com", report.Domain)
	assert.Equal(t, 2, report.Counts.Processed)
	assert.Equal(t, 2, report.Counts.Added)
	assert.Len(t, report.Changes, 2)
	assert.Len(t, report.NewEndpoints, 2)
}

func TestRunCycle_UnchangedContentIsQuiet(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/app.js", `fetch("/api/users");`, `"e1"`)
	so := newTestOrchestrator(t, fake, "https://example.com/app.js")

	_, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	// Second cycle answers 304 and must report nothing.
	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	assert.Equal(t, 1, report.Counts.Processed)
	assert.Empty(t, report.Changes)
	assert.Empty(t, report.NewEndpoints)
	assert.False(t, report.HasFindings())
}

func TestRunCycle_ModifiedContentGetsDiffStats(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/app.js", "fetch(\"/api/users\");\nconsole.log(1);\n", "")
	so := newTestOrchestrator(t, fake, "https://example.com/app.js")

	_, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	fake.set("https://example.com/app.js", "fetch(\"/api/users\");\nfetch(\"/api/orders\");\nconsole.log(1);\n", "")
	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	require.Len(t, report.Changes, 1)
	change := report.Changes[0]
	assert.Equal(t, models.ChangeModified, change.Type)
	assert.Equal(t, "https://example.com/app.js", change.URL)
	assert.NotEqual(t, change.OldHash, change.NewHash)
	assert.Equal(t, 1, change.LinesAdded)
	assert.Equal(t, 0, change.LinesRemoved)

	// The endpoint added by the modification is new; the old one is not.
	require.Len(t, report.NewEndpoints, 1)
	assert.Equal(t, "/api/orders", report.NewEndpoints[0].NormalizedPath)
}

func TestRunCycle_RenameInferred(t *testing.T) {
	content := `
function fetchUsers() { return fetch("/api/users"); }
function fetchOrders() { return fetch("/api/orders"); }
function render(list) { for (const item of list) { draw(item); } }
`
	fake := newFakeFetcher()
	fake.set("https://example.com/app.v1.js", content, "")
	so := newTestOrchestrator(t, fake, "https://example.com/app.v1.js", "https://example.com/app.v2.js")

	_, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	fake.remove("https://example.com/app.v1.js")
	fake.set("https://example.com/app.v2.js", content, "")

	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	require.Len(t, report.Changes, 1)
	change := report.Changes[0]
	assert.Equal(t, models.ChangeRenamed, change.Type)
	assert.Equal(t, "https://example.com/app.v1.js", change.OldURL)
	assert.Equal(t, "https://example.com/app.v2.js", change.URL)
	assert.Equal(t, 1.0, change.Score)
	assert.Equal(t, 1, report.Counts.Renamed)
	assert.Zero(t, report.Counts.Added)
	assert.Zero(t, report.Counts.Removed)

	// Identical content carries no new endpoints.
	assert.Empty(t, report.NewEndpoints)
}

func TestRunCycle_FailedFetchIsIsolated(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/good.js", `fetch("/api/ok");`, "")
	fake.setFailing("https://example.com/flaky.js")
	so := newTestOrchestrator(t, fake, "https://example.com/good.js", "https://example.com/flaky.js")

	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	assert.Equal(t, 1, report.Counts.Processed)
	assert.Equal(t, 1, report.Counts.Failed)
	assert.Equal(t, 1, report.Counts.Added)

	// The failed URL never entered the snapshot, so its recovery next cycle
	// is an add, not a modification.
	fake.set("https://example.com/flaky.js", `fetch("/api/recovered");`, "")
	reports, err = so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Changes, 1)
	assert.Equal(t, models.ChangeAdded, reports[0].Changes[0].Type)
	assert.Equal(t, "https://example.com/flaky.js", reports[0].Changes[0].URL)
}

func TestRunCycle_TransientFailureIsNotARemoval(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/good.js", `let a = 1;`, "")
	fake.set("https://example.com/flaky.js", `let b = 2;`, "")
	so := newTestOrchestrator(t, fake, "https://example.com/good.js", "https://example.com/flaky.js")

	_, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	// A timeout-style failure keeps the URL out of the snapshot without
	// flagging it removed.
	fake.setFailing("https://example.com/flaky.js")
	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	report := reports[0]
	assert.Empty(t, report.Changes)
	assert.Equal(t, 1, report.Counts.Failed)
	assert.Zero(t, report.Counts.Removed)
}

func TestRunCycle_RemovedFileReported(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/stays.js", `fetch("/api/stays");`, "")
	fake.set("https://example.com/goes.js", `let x = 1;`, "")
	so := newTestOrchestrator(t, fake, "https://example.com/stays.js", "https://example.com/goes.js")

	_, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	fake.remove("https://example.com/goes.js")
	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	// A 404 means the file is definitively gone and the diff reports it
	// removed.
	report := reports[0]
	require.Len(t, report.Changes, 1)
	assert.Equal(t, models.ChangeRemoved, report.Changes[0].Type)
	assert.Equal(t, "https://example.com/goes.js", report.Changes[0].URL)
}

func TestRunCycle_MultipleDomains(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://a.com/app.js", `fetch("/api/a");`, "")
	fake.set("https://b.com/app.js", `fetch("/api/b");`, "")
	so := newTestOrchestrator(t, fake, "https://a.com/app.js", "https://b.com/app.js")

	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "a.com", reports[0].Domain)
	assert.Equal(t, "b.com", reports[1].Domain)
	for _, report := range reports {
		assert.Len(t, report.NewEndpoints, 1)
	}
}

func TestRunCycle_ScanIDsIncreaseAcrossCycles(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/app.js", `let x = 1;`, "")
	so := newTestOrchestrator(t, fake, "https://example.com/app.js")

	first, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	second, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Greater(t, second[0].ScanID, first[0].ScanID)
}

func TestRunCycle_EndpointsSurvivePartialPersist(t *testing.T) {
	fake := newFakeFetcher()
	fake.set("https://example.com/app.js", `fetch("/api/one");`, "")
	so := newTestOrchestrator(t, fake, "https://example.com/app.js")

	_, err := so.RunCycle(context.Background())
	require.NoError(t, err)

	// Wedge the endpoint store: a directory in place of the Parquet file
	// makes its atomic rename fail while the snapshot write would succeed.
	endpointsPath := filepath.Join(so.cfg.StorageConfig.BasePath, "example.com", "endpoints.parquet")
	require.NoError(t, os.Remove(endpointsPath))
	require.NoError(t, os.Mkdir(endpointsPath, 0o755))

	fake.set("https://example.com/app.js", `fetch("/api/one");fetch("/api/two");`, "")
	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)

	// With the endpoint set committed first, the failed cycle left the old
	// snapshot in place. The next cycle re-detects the modification and the
	// new endpoint lands in the cumulative set instead of vanishing.
	require.NoError(t, os.Remove(endpointsPath))

	reports, err = so.RunCycle(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)

	endpoints, err := so.endpointStore.Load("example.com")
	require.NoError(t, err)
	assert.Contains(t, endpoints, "/api/one")
	assert.Contains(t, endpoints, "/api/two")
}

func TestRunCycle_NoTargets(t *testing.T) {
	so := newTestOrchestrator(t, newFakeFetcher())

	reports, err := so.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestGroupTargetsByDomain(t *testing.T) {
	so := newTestOrchestrator(t, newFakeFetcher(),
		"https://a.com/one.js",
		"https://a.com/two.js",
		"https://a.com/one.js", // duplicate
		"https://b.com/x.js",
		"https://bad:port/x",
	)

	byDomain := so.groupTargetsByDomain()

	require.Len(t, byDomain, 2)
	assert.Equal(t, []string{"https://a.com/one.js", "https://a.com/two.js"}, byDomain["a.com"])
	assert.Equal(t, []string{"https://b.com/x.js"}, byDomain["b.com"])
}

func TestGroupTargetsByDomain_SiblingHostsShareBucket(t *testing.T) {
	so := newTestOrchestrator(t, newFakeFetcher(),
		"https://cdn.example.com/app.js",
		"https://www.example.com/main.js",
	)

	byDomain := so.groupTargetsByDomain()

	require.Len(t, byDomain, 1)
	assert.Equal(t,
		[]string{"https://cdn.example.com/app.js", "https://www.example.com/main.js"},
		byDomain["example.com"])
}
