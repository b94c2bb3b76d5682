package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/engine"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

func cmdPolicy() *cli.Command {
	return &cli.Command{
		Name:  "policy",
		Usage: "Escalation policy utilities",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate a timeout policy file",
				ArgsUsage: "<policy.yml>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return goerr.New("expected exactly one policy file path")
					}
					path := c.Args().First()
					table, err := engine.LoadPolicyTable(path)
					if err != nil {
						return err
					}

					logging.From(ctx).Info("policy file is valid",
						"path", path, "urgencies", len(table.Urgencies), "default_tiers", len(table.Default))
					return nil
				},
			},
		},
	}
}
