package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/m-mizutani/goerr/v2"
	"github.com/wardops-lab/lifeline/pkg/domain/model/auth"
	"github.com/wardops-lab/lifeline/pkg/domain/model/errs"
	"github.com/wardops-lab/lifeline/pkg/domain/types"
	"github.com/wardops-lab/lifeline/pkg/utils/logging"
)

type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.From(r.Context()).With("request_id", uuid.New().String())

		sw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r.WithContext(logging.With(r.Context(), logger)))

		logger.Info("Access Log",
			slog.Any("method", r.Method),
			slog.Any("path", r.URL.Path),
			slog.Int("status", sw.status),
		)
	})
}

func panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				panicErr := goerr.New("panic recovered",
					goerr.V("panic", fmt.Sprintf("%v", err)),
					goerr.V("stack", string(debug.Stack())),
					goerr.V("method", r.Method),
					goerr.V("path", r.URL.Path),
				)
				handleError(w, r, panicErr)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// TokenVerifier validates a bearer token and extracts the principal claims.
type TokenVerifier struct {
	key jwk.Key
}

// NewTokenVerifier builds a verifier for HS256 tokens signed with secret.
// Tokens carry the principal in the sub, role, and hospital_id claims.
func NewTokenVerifier(secret []byte) (*TokenVerifier, error) {
	key, err := jwk.FromRaw(secret)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build verification key")
	}
	return &TokenVerifier{key: key}, nil
}

func (v *TokenVerifier) verify(r *http.Request) (*auth.Principal, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, goerr.New("missing bearer token", goerr.T(errs.TagUnauthorized))
	}

	token, err := jwt.ParseString(raw, jwt.WithKey(jwa.HS256, v.key), jwt.WithValidate(true))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid token", goerr.T(errs.TagUnauthorized))
	}

	p := &auth.Principal{ID: types.UserID(token.Subject())}
	if role, ok := token.Get("role"); ok {
		if s, ok := role.(string); ok {
			p.Role = types.Role(s)
		}
	}
	if hospital, ok := token.Get("hospital_id"); ok {
		if s, ok := hospital.(string); ok {
			p.HospitalID = types.HospitalID(s)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, goerr.Wrap(err, "token claims do not form a valid principal", goerr.T(errs.TagUnauthorized))
	}
	return p, nil
}

// authMiddleware resolves the request principal. With a verifier configured
// it requires a valid bearer token; without one it falls back to plain
// identity headers, which is only acceptable for local development.
func authMiddleware(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var p *auth.Principal
			var err error

			if verifier != nil {
				p, err = verifier.verify(r)
			} else {
				p = &auth.Principal{
					ID:         types.UserID(r.Header.Get("X-Lifeline-User")),
					Role:       types.Role(r.Header.Get("X-Lifeline-Role")),
					HospitalID: types.HospitalID(r.Header.Get("X-Lifeline-Hospital")),
				}
				if vErr := p.Validate(); vErr != nil {
					err = goerr.Wrap(vErr, "missing identity headers", goerr.T(errs.TagUnauthorized))
				}
			}
			if err != nil {
				handleError(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.With(r.Context(), p)))
		})
	}
}
