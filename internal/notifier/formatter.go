package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/config"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/rs/zerolog"
)

// Per-domain excerpt limits, to keep embeds readable.
const (
	maxChangesPerDomain   = 5
	maxEndpointsPerDomain = 5
)

// NotificationHelper formats scan reports into Discord payloads and sends
// them through the DiscordNotifier.
type NotificationHelper struct {
	logger   zerolog.Logger
	notifier *DiscordNotifier
	cfg      config.NotificationConfig
}

// NewNotificationHelper creates a new NotificationHelper.
func NewNotificationHelper(notifier *DiscordNotifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		logger:   logger.With().Str("component", "NotificationHelper").Logger(),
		notifier: notifier,
		cfg:      cfg,
	}
}

// SendScanSummary sends one batched summary embed covering every domain's
// report for a cycle. Cycles with no findings send nothing.
func (nh *NotificationHelper) SendScanSummary(ctx context.Context, reports []*models.ScanReport, duration time.Duration) error {
	if nh.cfg.DiscordWebhookURL == "" {
		return nil
	}

	var totalChanges, totalEndpoints, domainsWithFindings int
	for _, r := range reports {
		totalChanges += len(r.Changes)
		totalEndpoints += len(r.NewEndpoints)
		if r.HasFindings() {
			domainsWithFindings++
		}
	}
	if totalChanges == 0 && totalEndpoints == 0 {
		nh.logger.Debug().Msg("No findings this cycle, skipping notification")
		return nil
	}

	builder := NewDiscordEmbedBuilder().
		WithTitle("Scan Summary").
		WithDescription(fmt.Sprintf("Detected **%d** changes and **%d** new endpoints across **%d** domain(s).",
			totalChanges, totalEndpoints, domainsWithFindings)).
		WithColor(colorBlue).
		WithTimestamp(time.Now()).
		WithFooter(fmt.Sprintf("Scan completed in %.2f seconds", duration.Seconds()))

	for _, report := range reports {
		if !report.HasFindings() {
			continue
		}
		builder.AddField(report.Domain, formatDomainField(report), false)
	}

	payload := models.DiscordMessagePayload{
		Username: nh.cfg.Username,
		Embeds:   []models.DiscordEmbed{builder.Build()},
	}
	return nh.notifier.SendNotification(ctx, nh.cfg.DiscordWebhookURL, payload)
}

// SendTestMessage sends a simple message to verify webhook configuration.
func (nh *NotificationHelper) SendTestMessage(ctx context.Context) error {
	embed := NewDiscordEmbedBuilder().
		WithTitle("Webhook Test Successful").
		WithDescription("If you can see this, your Discord webhook is configured correctly.").
		WithColor(colorGreen).
		WithTimestamp(time.Now()).
		Build()

	payload := models.DiscordMessagePayload{
		Username: nh.cfg.Username,
		Embeds:   []models.DiscordEmbed{embed},
	}
	return nh.notifier.SendNotification(ctx, nh.cfg.DiscordWebhookURL, payload)
}

// formatDomainField renders one domain's changes and new endpoints, truncated
// to the per-domain limits.
func formatDomainField(report *models.ScanReport) string {
	var b strings.Builder

	if len(report.Changes) > 0 {
		fmt.Fprintf(&b, "**Changes (%d):**\n", len(report.Changes))
		for i, change := range report.Changes {
			if i == maxChangesPerDomain {
				fmt.Fprintf(&b, "*...and %d more.*\n", len(report.Changes)-maxChangesPerDomain)
				break
			}
			b.WriteString(formatChangeLine(report.Domain, change))
		}
	}

	if len(report.NewEndpoints) > 0 {
		fmt.Fprintf(&b, "\n**New Endpoints (%d):**\n", len(report.NewEndpoints))
		for i, ep := range report.NewEndpoints {
			if i == maxEndpointsPerDomain {
				fmt.Fprintf(&b, "*...and %d more.*\n", len(report.NewEndpoints)-maxEndpointsPerDomain)
				break
			}
			fmt.Fprintf(&b, "`%s`\n", ep.NormalizedPath)
		}
	}

	return b.String()
}

func formatChangeLine(domain string, change models.ChangeRecord) string {
	shortURL := shortenURL(domain, change.URL)
	switch change.Type {
	case models.ChangeModified:
		return fmt.Sprintf("`MODIFIED`: `%s` (+%d / -%d)\n", shortURL, change.LinesAdded, change.LinesRemoved)
	case models.ChangeRenamed:
		return fmt.Sprintf("`RENAMED`: `%s` -> `%s` (%.0f%%)\n", shortenURL(domain, change.OldURL), shortURL, change.Score*100)
	default:
		return fmt.Sprintf("`%s`: `%s`\n", strings.ToUpper(string(change.Type)), shortURL)
	}
}

// shortenURL strips everything up to and including the domain, to keep embed
// lines compact.
func shortenURL(domain, rawURL string) string {
	if idx := strings.Index(rawURL, domain); idx >= 0 {
		return rawURL[idx+len(domain):]
	}
	return rawURL
}
