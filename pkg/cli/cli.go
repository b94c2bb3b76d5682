package cli

import (
	"context"

	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/cli/config"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

func Run(ctx context.Context, args []string) error {
	var loggerCfg config.Logger
	app := &cli.Command{
		Name:  "lifeline",
		Usage: "hospital alert escalation service",
		Flags: loggerCfg.Flags(),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := loggerCfg.Configure(); err != nil {
				return ctx, err
			}

			logging.Default().Info("base options", "logger", loggerCfg)
			return ctx, nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdAlert(),
			cmdPolicy(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		logging.Default().Error("failed to run app", "error", err)
		return err
	}

	return nil
}
