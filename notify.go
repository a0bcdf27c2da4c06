package main

import (
	"fmt"
	"log"

	"github.com/slack-go/slack"
)

// SlackNotifier posts a short alert when a prediction crosses the
// configured churn-risk threshold. Alerts are best-effort: a post failure
// is logged and never fails the pipeline.
type SlackNotifier struct {
	api       *slack.Client
	channelID string
}

// NewSlackNotifier returns nil when alerting is not configured.
func NewSlackNotifier(cfg Config) *SlackNotifier {
	if cfg.SlackBotToken == "" || cfg.SlackAlertChannelID == "" {
		return nil
	}
	return &SlackNotifier{
		api:       slack.New(cfg.SlackBotToken),
		channelID: cfg.SlackAlertChannelID,
	}
}

func (n *SlackNotifier) AlertHighRisk(rec PredictionRecord) {
	msg := fmt.Sprintf(
		"High churn risk: %s / %s salary employee scored %.2f (satisfaction %.2f, %d hours/month, %d years).",
		rec.Record.Department, rec.Record.SalaryBand, rec.Probability,
		rec.Record.SatisfactionLevel, rec.Record.AverageMonthlyHours, rec.Record.TimeSpendCompany,
	)
	_, _, err := n.api.PostMessage(n.channelID, slack.MsgOptionText(msg, false))
	if err != nil {
		log.Printf("slack alert error: %v", err)
	} else {
		log.Printf("Sent high-risk alert to %s", n.channelID)
	}
}
