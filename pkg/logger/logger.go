package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type Options struct {
	Service     string
	Environment string
	Level       string
	Output      io.Writer
}

// New builds the process logger. Non-production environments get a console
// writer with caller info at debug level unless Level says otherwise.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	production := opts.Environment == "production"
	if !production {
		out = zerolog.ConsoleWriter{Out: out}
	}

	level := parseLevel(opts.Level)
	if !production && opts.Level == "" {
		level = zerolog.DebugLevel
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if !production {
		ctx = ctx.Caller()
	}
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// Ctx returns base enriched with the trace and span ids of the span in ctx.
func Ctx(ctx context.Context, base zerolog.Logger) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &base
	}
	l := base.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
