package config

import (
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/engine"
)

// Engine carries the escalation tuning knobs.
type Engine struct {
	policyPath    string
	maxTier       int
	renotifyEvery time.Duration
}

func (x *Engine) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-file",
			Usage:       "YAML file with per-urgency tier timeout durations",
			Category:    "Escalation",
			Sources:     cli.EnvVars("LIFELINE_POLICY_FILE"),
			Destination: &x.policyPath,
		},
		&cli.IntFlag{
			Name:        "max-tier",
			Usage:       "Highest escalation tier",
			Category:    "Escalation",
			Sources:     cli.EnvVars("LIFELINE_MAX_TIER"),
			Value:       engine.DefaultMaxTier,
			Destination: &x.maxTier,
		},
		&cli.DurationFlag{
			Name:        "renotify-interval",
			Usage:       "Re-notification interval once an alert reaches the highest tier",
			Category:    "Escalation",
			Sources:     cli.EnvVars("LIFELINE_RENOTIFY_INTERVAL"),
			Value:       engine.DefaultRenotifyInterval,
			Destination: &x.renotifyEvery,
		},
	}
}

func (x Engine) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("policy_file", x.policyPath),
		slog.Int("max_tier", x.maxTier),
		slog.Duration("renotify_interval", x.renotifyEvery),
	)
}

// PolicyTable loads the configured table, or the built-in defaults when no
// file is given.
func (x *Engine) PolicyTable() (*engine.PolicyTable, error) {
	if x.policyPath == "" {
		return engine.DefaultPolicyTable(), nil
	}
	return engine.LoadPolicyTable(x.policyPath)
}

func (x *Engine) Options() []engine.Option {
	return []engine.Option{
		engine.WithMaxTier(x.maxTier),
		engine.WithRenotifyInterval(x.renotifyEvery),
	}
}
