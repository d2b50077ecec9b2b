package config

// NotificationConfig defines configuration for Discord notifications.
// An empty webhook URL disables notifications entirely.
type NotificationConfig struct {
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty" yaml:"discord_webhook_url,omitempty" validate:"omitempty,url"`
	Username          string `json:"username,omitempty" yaml:"username,omitempty"`
}

// NewDefaultNotificationConfig creates default notification configuration.
func NewDefaultNotificationConfig() NotificationConfig {
	return NotificationConfig{
		DiscordWebhookURL: "",
		Username:          "scriptwatch",
	}
}
