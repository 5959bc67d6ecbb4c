package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ResponseType governs how a response body is parsed. It never affects request encoding.
type ResponseType string

const (
	ResponseJSON ResponseType = "json"
	ResponseText ResponseType = "text"
	ResponseBlob ResponseType = "blob"
)

// Blob is a raw binary response body.
type Blob struct {
	ContentType string
	Data        []byte
}

// parseResponse reads resp.Body per responseType.
//
// JSON responses: an empty body yields nil. A body that fails to parse yields the raw
// text together with an error wrapping ErrMalformedJSON, which callers may tolerate.
func (c *Client) parseResponse(ctx context.Context, resp *http.Response, responseType ResponseType) (any, error) {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch responseType {
	case ResponseBlob:
		return &Blob{ContentType: resp.Header.Get(headerContentType), Data: data}, nil
	case ResponseText:
		return string(data), nil
	}

	if len(data) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.ErrorContext(ctx, "failed to parse JSON response", "status", resp.StatusCode, "error", err)
		return string(data), fmt.Errorf("%w: %w", ErrMalformedJSON, err)
	}
	return v, nil
}
