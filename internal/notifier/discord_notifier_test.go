package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/scriptwatch/scriptwatch/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendNotification_PostsPayload(t *testing.T) {
	var received models.DiscordMessagePayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	dn := NewDiscordNotifier(zerolog.Nop(), server.Client())
	payload := models.DiscordMessagePayload{
		Username: "scriptwatch",
		Embeds:   []models.DiscordEmbed{{Title: "Scan Summary"}},
	}

	require.NoError(t, dn.SendNotification(context.Background(), server.URL, payload))
	assert.Equal(t, "scriptwatch", received.Username)
	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "Scan Summary", received.Embeds[0].Title)
}

func TestSendNotification_EmptyWebhookSkips(t *testing.T) {
	dn := NewDiscordNotifier(zerolog.Nop(), nil)

	assert.NoError(t, dn.SendNotification(context.Background(), "", models.DiscordMessagePayload{}))
}

func TestSendNotification_InvalidWebhookURL(t *testing.T) {
	dn := NewDiscordNotifier(zerolog.Nop(), nil)

	assert.Error(t, dn.SendNotification(context.Background(), "not-a-webhook", models.DiscordMessagePayload{}))
}
