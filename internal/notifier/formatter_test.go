package notifier

import (
	"testing"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDomainField_ChangesAndEndpoints(t *testing.T) {
	report := &models.ScanReport{
		Domain: "example.com",
		Changes: []models.ChangeRecord{
			{Type: models.ChangeAdded, URL: "https://example.com/new.js"},
			{Type: models.ChangeModified, URL: "https://example.com/app.js", LinesAdded: 12, LinesRemoved: 3},
			{Type: models.ChangeRenamed, URL: "https://example.com/app.v2.js", OldURL: "https://example.com/app.v1.js", Score: 0.97},
			{Type: models.ChangeRemoved, URL: "https://example.com/gone.js"},
		},
		NewEndpoints: []models.Endpoint{
			{NormalizedPath: "/api/users", Category: "fetch_calls"},
		},
	}

	field := formatDomainField(report)

	assert.Contains(t, field, "Changes (4)")
	assert.Contains(t, field, "`ADDED`: `/new.js`")
	assert.Contains(t, field, "`MODIFIED`: `/app.js` (+12 / -3)")
	assert.Contains(t, field, "`RENAMED`: `/app.v1.js` -> `/app.v2.js` (97%)")
	assert.Contains(t, field, "`REMOVED`: `/gone.js`")
	assert.Contains(t, field, "New Endpoints (1)")
	assert.Contains(t, field, "`/api/users`")
}

func TestFormatDomainField_TruncatesLongLists(t *testing.T) {
	report := &models.ScanReport{Domain: "example.com"}
	for i := 0; i < maxChangesPerDomain+3; i++ {
		report.Changes = append(report.Changes, models.ChangeRecord{
			Type: models.ChangeAdded,
			URL:  "https://example.com/file.js",
		})
	}
	for i := 0; i < maxEndpointsPerDomain+2; i++ {
		report.NewEndpoints = append(report.NewEndpoints, models.Endpoint{NormalizedPath: "/api/x"})
	}

	field := formatDomainField(report)

	assert.Contains(t, field, "...and 3 more.")
	assert.Contains(t, field, "...and 2 more.")
}

func TestShortenURL(t *testing.T) {
	assert.Equal(t, "/assets/app.js", shortenURL("example.com", "https://example.com/assets/app.js"))
	assert.Equal(t, "https://other.org/x.js", shortenURL("example.com", "https://other.org/x.js"))
}

func TestEmbedBuilder(t *testing.T) {
	now := time.Now()
	embed := NewDiscordEmbedBuilder().
		WithTitle("Scan Summary").
		WithDescription("details").
		WithColor(colorGreen).
		WithTimestamp(now).
		WithFooter("done").
		AddField("example.com", "content", false).
		Build()

	assert.Equal(t, "Scan Summary", embed.Title)
	assert.Equal(t, "details", embed.Description)
	assert.Equal(t, colorGreen, embed.Color)
	require.Len(t, embed.Fields, 1)
	assert.Equal(t, "example.com", embed.Fields[0].Name)
	require.NotNil(t, embed.Footer)
	assert.Equal(t, "done", embed.Footer.Text)
}
