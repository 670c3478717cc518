package main

import (
	"log"

	"github.com/slack-go/slack"
)

// Notifier posts delta-check alerts and scheduled dashboard summaries to a
// Slack channel. A nil Notifier is valid and silently drops messages, so
// callers never have to branch on whether Slack is configured.
type Notifier struct {
	api       *slack.Client
	channelID string
}

// NewNotifier returns nil when Slack is not configured.
func NewNotifier(cfg Config) *Notifier {
	if cfg.SlackBotToken == "" || cfg.AlertChannelID == "" {
		return nil
	}
	return &Notifier{
		api:       slack.New(cfg.SlackBotToken),
		channelID: cfg.AlertChannelID,
	}
}

func (n *Notifier) Post(text string) {
	if n == nil {
		return
	}
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("slack post error: %v", err)
	}
}
