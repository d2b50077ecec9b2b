package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/scriptwatch/scriptwatch/internal/errorwrapper"
	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/rs/zerolog"
)

const (
	defaultHTTPTimeout = 20 * time.Second
	retryAttempts      = 2
	retryDelay         = 5 * time.Second
)

// DiscordNotifier sends message payloads to a Discord webhook.
type DiscordNotifier struct {
	logger     zerolog.Logger
	httpClient *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(logger zerolog.Logger, httpClient *http.Client) *DiscordNotifier {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &DiscordNotifier{
		logger:     logger.With().Str("component", "DiscordNotifier").Logger(),
		httpClient: httpClient,
	}
}

// SendNotification posts a payload to the given webhook URL. An empty webhook
// URL silently skips the send. Rate-limited or failed sends are retried a
// couple of times before giving up.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, webhookURL string, payload models.DiscordMessagePayload) error {
	if webhookURL == "" {
		dn.logger.Debug().Msg("Webhook URL is empty, skipping notification")
		return nil
	}
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return errorwrapper.WrapError(err, "invalid Discord webhook URL")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errorwrapper.WrapError(err, "failed to marshal Discord payload")
	}

	var lastErr error
	for attempt := 0; attempt <= retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		lastErr = dn.post(ctx, webhookURL, body)
		if lastErr == nil {
			return nil
		}
		dn.logger.Warn().Err(lastErr).Int("attempt", attempt+1).Msg("Discord notification attempt failed")
	}
	return errorwrapper.WrapError(lastErr, "failed to send Discord notification")
}

func (dn *DiscordNotifier) post(ctx context.Context, webhookURL string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return errorwrapper.WrapError(err, "failed to create Discord request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := dn.httpClient.Do(req)
	if err != nil {
		return errorwrapper.NewNetworkError(webhookURL, "webhook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorwrapper.NewHTTPErrorWithURL(resp.StatusCode, "webhook rejected payload", webhookURL)
	}
	return nil
}
