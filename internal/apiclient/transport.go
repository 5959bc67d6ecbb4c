package apiclient

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// HeaderRequestID correlates a request with API-side logs.
const HeaderRequestID = "X-Request-Id"

// Transport is an http.RoundTripper that stamps outgoing requests with a request ID
// and W3C trace context.
type Transport struct {
	Base http.RoundTripper

	// Propagator injects trace context. If nil, the global OpenTelemetry propagator is used.
	Propagator propagation.TextMapPropagator
}

// Compile-time check that Transport implements http.RoundTripper.
var _ http.RoundTripper = (*Transport)(nil)

// RoundTrip implements http.RoundTripper interface.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	propagator := t.Propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}

	// RoundTrippers must not modify the caller's request
	newReq := req.Clone(req.Context())
	if newReq.Header.Get(HeaderRequestID) == "" {
		newReq.Header.Set(HeaderRequestID, uuid.NewString())
	}
	propagator.Inject(newReq.Context(), propagation.HeaderCarrier(newReq.Header))

	return base.RoundTrip(newReq)
}
