package observability

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// InitLogger installs the global logger. level is a zerolog level name; an
// empty or unknown one means debug in development and info elsewhere.
func InitLogger(serviceName, env, level string) {
	log.Logger = NewLogger(os.Stdout, serviceName, env, level)
}

// NewLogger builds the logger InitLogger installs, writing to w. Development
// gets the console writer, other envs JSON with caller info.
func NewLogger(w io.Writer, serviceName, env, level string) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	dev := env == "development"

	var ctx zerolog.Context
	if dev {
		ctx = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With()
	} else {
		ctx = zerolog.New(w).With().Caller().Str("env", env)
	}

	return ctx.Timestamp().
		Str("service", serviceName).
		Logger().
		Level(parseLevel(level, dev)).
		Hook(newLogHook())
}

func parseLevel(level string, dev bool) zerolog.Level {
	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		return lvl
	}
	if dev {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// LoggerFromContext returns the logger attached to ctx, or the global one,
// annotated with the active trace.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	base := zerolog.Ctx(ctx)
	if base.GetLevel() == zerolog.Disabled {
		base = &log.Logger
	}

	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		logger := base.With().Logger()
		return &logger
	}
	logger := base.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &logger
}
