package cli

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"github.com/wardops-lab/lifeline/pkg/cli/config"
	server "github.com/wardops-lab/lifeline/pkg/controller/http"
	websocket_controller "github.com/wardops-lab/lifeline/pkg/controller/websocket"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
	"github.com/wardops-lab/lifeline/pkg/engine"
	"github.com/wardops-lab/lifeline/pkg/service/notifier"
	"github.com/wardops-lab/lifeline/pkg/service/roster"
	"github.com/wardops-lab/lifeline/pkg/usecase"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var (
		serverCfg   config.Server
		postgresCfg config.Postgres
		engineCfg   config.Engine
		slackCfg    config.Slack
		sentryCfg   config.Sentry
	)

	flags := serverCfg.Flags()
	flags = append(flags, postgresCfg.Flags()...)
	flags = append(flags, engineCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the alert escalation service",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.From(ctx).Info("starting lifeline",
				"server", serverCfg, "postgres", postgresCfg,
				"engine", engineCfg, "slack", slackCfg, "sentry", sentryCfg)

			if err := sentryCfg.Configure(); err != nil {
				return err
			}

			repo, closeRepo, err := postgresCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeRepo()

			policy, err := engineCfg.PolicyTable()
			if err != nil {
				return err
			}

			notifiers := []interfaces.Notifier{notifier.NewConsole(os.Stdout)}
			if slackNotifier := slackCfg.Configure(); slackNotifier != nil {
				notifiers = append(notifiers, slackNotifier)
			}

			wsHub := websocket_controller.NewHub(ctx)
			go wsHub.Run()
			defer wsHub.Stop()

			metricsReg := prometheus.NewRegistry()

			engineOpts := append(engineCfg.Options(),
				engine.WithMetrics(engine.NewMetrics(metricsReg)),
				engine.WithStream(wsHub),
			)
			eng := engine.New(repo, roster.New(repo), notifier.NewMulti(notifiers...),
				policy.Duration, engineOpts...)
			defer eng.Stop()

			// re-arm timers for alerts that were active before a restart
			if err := eng.Recover(ctx); err != nil {
				return err
			}

			verifier, err := serverCfg.TokenVerifier()
			if err != nil {
				return err
			}

			uc := usecase.New(repo, eng)
			httpServer := http.Server{
				Addr: serverCfg.Addr(),
				Handler: server.New(uc,
					server.WithTokenVerifier(verifier),
					server.WithWebSocketHandler(websocket_controller.NewHandler(wsHub)),
					server.WithMetricsRegistry(metricsReg),
				),
				ReadTimeout:       30 * time.Second,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(l net.Listener) context.Context {
					return ctx
				},
			}

			errCh := make(chan error, 1)
			go func() {
				defer close(errCh)
				if err := httpServer.ListenAndServe(); err != nil {
					errCh <- err
				}
			}()

			logging.From(ctx).Info("listening", "addr", serverCfg.Addr())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			}
		},
	}
}
