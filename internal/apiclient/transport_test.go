package apiclient

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type captureTransport struct {
	req *http.Request
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.req = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestTransportSetsRequestID(t *testing.T) {
	base := &captureTransport{}
	transport := &Transport{Base: base, Propagator: propagation.TraceContext{}}

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/me", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.NoError(t, err)

	assert.NotEmpty(t, base.req.Header.Get(HeaderRequestID))
	assert.Empty(t, req.Header.Get(HeaderRequestID), "original request must not be modified")
}

func TestTransportKeepsCallerRequestID(t *testing.T) {
	base := &captureTransport{}
	transport := &Transport{Base: base}

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/me", nil)
	require.NoError(t, err)
	req.Header.Set(HeaderRequestID, "fixed")

	_, err = transport.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "fixed", base.req.Header.Get(HeaderRequestID))
}

func TestTransportInjectsTraceContext(t *testing.T) {
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	base := &captureTransport{}
	transport := &Transport{Base: base, Propagator: propagation.TraceContext{}}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.example.com/files", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.NoError(t, err)

	assert.Equal(t, "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", base.req.Header.Get("Traceparent"))
}

func TestTransportWithoutSpanAddsNoTraceparent(t *testing.T) {
	base := &captureTransport{}
	transport := &Transport{Base: base, Propagator: propagation.TraceContext{}}

	req, err := http.NewRequest(http.MethodGet, "https://api.example.com/files", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	require.NoError(t, err)

	assert.Empty(t, base.req.Header.Get("Traceparent"))
}
