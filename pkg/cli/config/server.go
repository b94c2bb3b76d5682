package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
	server "github.com/wardops-lab/lifeline/pkg/controller/http"
)

type Server struct {
	addr       string
	authSecret string
}

func (x *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Category:    "Server",
			Sources:     cli.EnvVars("LIFELINE_ADDR"),
			Value:       "127.0.0.1:8080",
			Destination: &x.addr,
		},
		&cli.StringFlag{
			Name:        "auth-secret",
			Usage:       "HS256 secret for bearer token verification (empty trusts identity headers, development only)",
			Category:    "Server",
			Sources:     cli.EnvVars("LIFELINE_AUTH_SECRET"),
			Destination: &x.authSecret,
		},
	}
}

func (x Server) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", x.addr),
		slog.Bool("auth_configured", x.authSecret != ""),
	)
}

func (x *Server) Addr() string {
	return x.addr
}

// TokenVerifier returns nil when no secret is configured, which makes the
// server fall back to identity headers.
func (x *Server) TokenVerifier() (*server.TokenVerifier, error) {
	if x.authSecret == "" {
		return nil, nil
	}
	return server.NewTokenVerifier([]byte(x.authSecret))
}
