package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/cli/config"
	"github.com/wardops-lab/lifeline/pkg/domain/model/alert"
	"github.com/wardops-lab/lifeline/pkg/domain/model/auth"
	"github.com/wardops-lab/lifeline/pkg/domain/model/staff"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/engine"
	"github.com/wardops-lab/lifeline/pkg/repository"
	"github.com/wardops-lab/lifeline/pkg/service/notifier"
	"github.com/wardops-lab/lifeline/pkg/service/roster"
	"github.com/wardops-lab/lifeline/pkg/usecase"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

// cmdAlert raises one alert against an in-memory deployment and prints each
// escalation to the console. Useful for demoing a policy file without a
// database or Slack workspace.
func cmdAlert() *cli.Command {
	var (
		engineCfg config.Engine
		room      string
		alertType string
		urgency   int
	)

	flags := engineCfg.Flags()
	flags = append(flags,
		&cli.StringFlag{
			Name:        "room",
			Usage:       "Room number",
			Value:       "301",
			Destination: &room,
		},
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Alert type [cardiac_arrest|code_blue|fall|assistance|general]",
			Value:       "general",
			Destination: &alertType,
		},
		&cli.IntFlag{
			Name:        "urgency",
			Usage:       "Urgency (1 most urgent, 5 least)",
			Value:       3,
			Destination: &urgency,
		},
	)

	return &cli.Command{
		Name:  "alert",
		Usage: "Raise a demo alert and watch it escalate (Ctrl-C to stop)",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo := repository.NewMemory()
			for _, s := range demoRoster() {
				if err := repo.PutStaff(ctx, s); err != nil {
					return err
				}
			}

			policy, err := engineCfg.PolicyTable()
			if err != nil {
				return err
			}

			eng := engine.New(repo, roster.New(repo), notifier.NewConsole(os.Stdout),
				policy.Duration, engineCfg.Options()...)
			defer eng.Stop()

			uc := usecase.New(repo, eng)
			operator := &auth.Principal{ID: "demo-operator", Role: types.RoleOperator, HospitalID: "demo"}

			a, err := uc.CreateAlert(ctx, operator, alert.CreateInput{
				RoomNumber: room,
				Type:       types.AlertType(alertType),
				Urgency:    types.Urgency(urgency),
			})
			if err != nil {
				return err
			}
			logging.From(ctx).Info("demo alert raised", "alert_id", a.ID)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case <-ctx.Done():
			}
			return nil
		},
	}
}

func demoRoster() []staff.Staff {
	return []staff.Staff{
		{ID: "rn-1", Name: "Asha Patel", Role: types.RoleNurse, HospitalID: "demo", OnDuty: true},
		{ID: "rn-2", Name: "Miguel Sanz", Role: types.RoleNurse, HospitalID: "demo", OnDuty: true},
		{ID: "dr-1", Name: "Ines Oliveira", Role: types.RoleDoctor, HospitalID: "demo", OnDuty: true},
		{ID: "hd-1", Name: "Tomasz Nowak", Role: types.RoleHeadDoctor, HospitalID: "demo", OnDuty: true},
	}
}
