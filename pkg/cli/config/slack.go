package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/service/notifier"
)

type Slack struct {
	oauthToken string
	channelID  string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-oauth-token",
			Usage:       "Slack Bot OAuth token",
			Category:    "Slack",
			Sources:     cli.EnvVars("LIFELINE_SLACK_OAUTH_TOKEN"),
			Destination: &x.oauthToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel for alert fan-out",
			Category:    "Slack",
			Sources:     cli.EnvVars("LIFELINE_SLACK_CHANNEL_ID"),
			Destination: &x.channelID,
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("oauth_token_configured", x.oauthToken != ""),
		slog.String("channel_id", x.channelID),
	)
}

// Configure returns the Slack notifier, or nil when not configured.
func (x *Slack) Configure() interfaces.Notifier {
	if x.oauthToken == "" || x.channelID == "" {
		return nil
	}
	return notifier.NewSlack(x.oauthToken, x.channelID)
}
