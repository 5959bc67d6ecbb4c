package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "", want: slog.LevelInfo},
		{input: "debug", want: slog.LevelDebug},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "verbose", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSeverity(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  minsev.Severity
	}{
		{slog.LevelDebug, minsev.SeverityDebug},
		{slog.LevelInfo, minsev.SeverityInfo},
		{slog.LevelWarn, minsev.SeverityWarn},
		{slog.LevelError, minsev.SeverityError},
	}

	for _, tt := range tests {
		if got := severity(tt.level); got != tt.want {
			t.Errorf("severity(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestInstrumentLocalHandler(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	shutdown, err := Instrument(context.Background(), LogConfig{Level: "warn", Format: FormatJSON, Writer: &buf})
	if err != nil {
		t.Fatalf("Instrument() error: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	slog.Info("hidden")
	slog.Warn("shown", "key", "value")

	out := buf.String()
	if bytes.Contains(buf.Bytes(), []byte("hidden")) {
		t.Errorf("info record logged at warn level: %s", out)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"shown"`)) {
		t.Errorf("expected JSON warn record, got: %s", out)
	}

	fields := otel.GetTextMapPropagator().Fields()
	if len(fields) == 0 || fields[0] != "traceparent" {
		t.Errorf("expected trace context propagator, got fields %v", fields)
	}
}

func TestInstrumentStdoutExporter(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var buf bytes.Buffer
	shutdown, err := Instrument(context.Background(), LogConfig{Level: "info", Exporter: ExporterStdout, Writer: &buf})
	if err != nil {
		t.Fatalf("Instrument() error: %v", err)
	}

	slog.Debug("filtered")
	slog.Info("exported")

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("exported")) {
		t.Errorf("expected exported record, got: %s", buf.String())
	}
	if bytes.Contains(buf.Bytes(), []byte("filtered")) {
		t.Errorf("debug record passed the severity filter: %s", buf.String())
	}
}

func TestInstrumentRejectsInvalidConfig(t *testing.T) {
	if _, err := Instrument(context.Background(), LogConfig{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := Instrument(context.Background(), LogConfig{Exporter: "kafka"}); err == nil {
		t.Error("expected error for unknown exporter")
	}
}
