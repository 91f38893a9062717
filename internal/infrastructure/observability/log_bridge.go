package observability

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// logHook forwards zerolog entries to the OpenTelemetry log pipeline. Until
// Setup installs a provider the global one drops them.
type logHook struct {
	provider func() otellog.LoggerProvider
}

func newLogHook() logHook {
	return logHook{provider: global.GetLoggerProvider}
}

func (h logHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.NoLevel || level == zerolog.Disabled {
		return
	}

	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetSeverity(severity(level))
	rec.SetSeverityText(level.String())
	rec.SetBody(otellog.StringValue(msg))

	h.provider().Logger(instrumentationName).Emit(context.Background(), rec)
}

func severity(level zerolog.Level) otellog.Severity {
	switch level {
	case zerolog.TraceLevel:
		return otellog.SeverityTrace
	case zerolog.DebugLevel:
		return otellog.SeverityDebug
	case zerolog.InfoLevel:
		return otellog.SeverityInfo
	case zerolog.WarnLevel:
		return otellog.SeverityWarn
	case zerolog.ErrorLevel:
		return otellog.SeverityError
	case zerolog.FatalLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityFatal4
	}
}
