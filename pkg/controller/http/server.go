package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	websocket_controller "github.com/wardops-lab/lifeline/pkg/controller/websocket"
	"github.com/wardops-lab/lifeline/pkg/domain/interfaces"
)

// UseCase is the full API surface the server fronts.
type UseCase interface {
	interfaces.AlertUsecases
	interfaces.RosterUsecases
}

type Server struct {
	router        *chi.Mux
	verifier      *TokenVerifier
	websocketCtrl *websocket_controller.Handler
	metricsReg    *prometheus.Registry
}

type Options func(*Server)

// WithTokenVerifier enables bearer token authentication. Without it the
// server trusts identity headers, for local development only.
func WithTokenVerifier(verifier *TokenVerifier) Options {
	return func(s *Server) {
		s.verifier = verifier
	}
}

func WithWebSocketHandler(handler *websocket_controller.Handler) Options {
	return func(s *Server) {
		s.websocketCtrl = handler
	}
}

func WithMetricsRegistry(reg *prometheus.Registry) Options {
	return func(s *Server) {
		s.metricsReg = reg
	}
}

func New(uc UseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{router: r}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	if s.metricsReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metricsReg, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware(s.verifier))

		r.Route("/alerts", func(r chi.Router) {
			r.Post("/", createAlertHandler(uc))
			r.Get("/", listActiveAlertsHandler(uc))

			r.Route("/{alertID}", func(r chi.Router) {
				r.Get("/", getAlertHandler(uc))
				r.Get("/events", listEscalationEventsHandler(uc))
				r.Post("/ack", acknowledgeAlertHandler(uc))
				r.Post("/resolve", resolveAlertHandler(uc))
				r.Post("/escalate", escalateAlertHandler(uc))
			})
		})

		r.Route("/staff", func(r chi.Router) {
			r.Put("/{userID}/duty", setStaffDutyHandler(uc))
		})
	})

	if s.websocketCtrl != nil {
		r.Route("/ws", func(r chi.Router) {
			r.Use(authMiddleware(s.verifier))
			r.Get("/alerts", s.websocketCtrl.HandleAlerts)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
