package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// alertColor is the embed accent, the amber Discord renders for warnings.
const alertColor = 0xF1C40F

// DiscordSender delivers opportunity alerts through a channel webhook.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordSender creates a sender for the given webhook URL.
func NewDiscordSender(webhookURL string) *DiscordSender {
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Send posts the alert as a single embed. Discord answers 204 on success.
func (s *DiscordSender) Send(ctx context.Context, title, message string) error {
	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       title,
			Description: message,
			Color:       alertColor,
		}},
	}
	if err := postJSON(ctx, s.client, s.webhookURL, payload); err != nil {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

// Name returns the sender identifier used in dispatch errors.
func (s *DiscordSender) Name() string {
	return "discord"
}
