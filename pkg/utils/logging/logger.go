package logging

import (
	"io"
	"log/slog"
	"sync"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/clog/hooks"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/masq"
)

type Format int

const (
	FormatConsole Format = iota + 1
	FormatJSON
)

var (
	defaultLogger = slog.Default()
	loggerMutex   sync.Mutex
)

func Default() *slog.Logger {
	return defaultLogger
}

// Quiet drops all output. Used by the CLI's --quiet flag.
func Quiet() {
	loggerMutex.Lock()
	defaultLogger = slog.New(slog.DiscardHandler)
	loggerMutex.Unlock()
}

func SetDefault(logger *slog.Logger) {
	loggerMutex.Lock()
	defaultLogger = logger
	loggerMutex.Unlock()
}

// compactGoErr renders a goerr value as its cause plus attached values,
// without the stack trace. Alert handling logs errors on hot request paths
// where a full trace per line is noise.
func compactGoErr(_ []string, attr slog.Attr) *clog.HandleAttr {
	gErr, ok := attr.Value.Any().(*goerr.Error)
	if !ok {
		return nil
	}

	attrs := []any{slog.String("cause", gErr.Error())}
	for k, v := range gErr.Values() {
		attrs = append(attrs, slog.Any(k, v))
	}
	grouped := slog.Group(attr.Key, attrs...)
	return &clog.HandleAttr{NewAttr: &grouped}
}

// secretFilter masks credential material before it reaches any handler:
// struct fields tagged `masq:"secret"`, auth secrets, and bearer headers.
var secretFilter = masq.New(
	masq.WithTag("secret"),
	masq.WithFieldName("Authorization"),
	masq.WithFieldName("oauthToken"),
	masq.WithFieldName("authSecret"),
)

func New(w io.Writer, level slog.Level, format Format, stacktrace bool) *slog.Logger {
	if format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource:   true,
			Level:       level,
			ReplaceAttr: secretFilter,
		}))
	}

	attrHook := hooks.GoErr()
	if !stacktrace {
		attrHook = compactGoErr
	}
	return slog.New(clog.New(
		clog.WithWriter(w),
		clog.WithLevel(level),
		clog.WithReplaceAttr(secretFilter),
		clog.WithAttrHook(attrHook),
	))
}
