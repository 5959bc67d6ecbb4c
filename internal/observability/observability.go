// Package observability sets up the process-wide logger and trace propagation.
package observability

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// instrumentationName identifies log records emitted through the OpenTelemetry bridge.
const instrumentationName = "github.com/securevault/svault"

// Exporter selects where log records go.
type Exporter string

const (
	ExporterNone     Exporter = "none"
	ExporterStdout   Exporter = "stdout"
	ExporterOTLPHTTP Exporter = "otlp-http"
	ExporterOTLPGRPC Exporter = "otlp-grpc"
)

// Format selects the local log encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// LogConfig configures the default logger.
type LogConfig struct {
	Level    string
	Format   Format
	Exporter Exporter

	// Writer receives locally formatted logs. Defaults to os.Stderr.
	Writer io.Writer
}

// Instrument installs the default slog logger and the global W3C trace context propagator.
// The returned shutdown flushes any OpenTelemetry pipeline and must be called before exit.
func Instrument(ctx context.Context, cfg LogConfig) (shutdown func(context.Context) error, err error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	exporter, err := newExporter(ctx, cfg.Exporter, writer)
	if err != nil {
		return nil, err
	}

	if exporter == nil {
		slog.SetDefault(slog.New(localHandler(writer, cfg.Format, level)))
		return func(context.Context) error { return nil }, nil
	}

	processor := minsev.NewLogProcessor(sdklog.NewBatchProcessor(exporter), severity(level))
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(processor))

	slog.SetDefault(slog.New(otelslog.NewHandler(instrumentationName, otelslog.WithLoggerProvider(provider))))

	return provider.Shutdown, nil
}

func newExporter(ctx context.Context, exporter Exporter, w io.Writer) (sdklog.Exporter, error) {
	switch exporter {
	case "", ExporterNone:
		return nil, nil
	case ExporterStdout:
		e, err := stdoutlog.New(stdoutlog.WithWriter(w))
		if err != nil {
			return nil, fmt.Errorf("creating stdout log exporter: %w", err)
		}
		return e, nil
	case ExporterOTLPHTTP:
		e, err := otlploghttp.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP/HTTP log exporter: %w", err)
		}
		return e, nil
	case ExporterOTLPGRPC:
		e, err := otlploggrpc.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating OTLP/gRPC log exporter: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown log exporter %q", exporter)
	}
}

func localHandler(w io.Writer, format Format, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == FormatJSON {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel parses debug, info, warn or error, case-insensitively. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func severity(level slog.Level) minsev.Severity {
	switch {
	case level <= slog.LevelDebug:
		return minsev.SeverityDebug
	case level <= slog.LevelInfo:
		return minsev.SeverityInfo
	case level <= slog.LevelWarn:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
