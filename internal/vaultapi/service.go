package vaultapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"github.com/securevault/svault/internal/apiclient"
	"github.com/securevault/svault/internal/credential"
)

var (
	// ErrUnverified is returned when uploading before the email address is verified.
	ErrUnverified = errors.New("email address not verified")

	// ErrSamePassword is returned when a reset reuses the current password.
	ErrSamePassword = errors.New("new password must be different from the old one")

	// ErrNotAdmin is returned by admin operations when the session lacks the admin role.
	ErrNotAdmin = errors.New("admin role required")

	// ErrFileNotFound is returned when an audit entry names no existing file.
	ErrFileNotFound = errors.New("file not found")
)

// SessionStore is the subset of *credential.Store the service depends on.
type SessionStore interface {
	Credential() string
	SetCredential(ctx context.Context, token string)
	ClearCredential(ctx context.Context)
	Mode() credential.Mode
}

// Compile-time check that *credential.Store satisfies SessionStore
var _ SessionStore = (*credential.Store)(nil)

// Option configures a Service.
type Option func(*serviceConfig)

type serviceConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *serviceConfig) {
		c.logger = logger
	}
}

// Service exposes the vault API operations.
type Service struct {
	client   *apiclient.Client
	store    SessionStore
	logger   *slog.Logger
	validate *validator.Validate
}

// New creates a Service issuing requests through client.
func New(client *apiclient.Client, store SessionStore, opts ...Option) *Service {
	cfg := &serviceConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Service{
		client:   client,
		store:    store,
		logger:   cfg.logger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// get issues a GET and decodes the JSON response into out.
func (s *Service) get(ctx context.Context, path string, out any) error {
	data, err := s.client.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := apiclient.Decode(data, out); err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	return nil
}

// pathParam styles a path segment the way generated OpenAPI clients do.
func pathParam(name string, value any) (string, error) {
	p, err := runtime.StyleParamWithLocation("simple", false, name, runtime.ParamLocationPath, value)
	if err != nil {
		return "", fmt.Errorf("invalid path parameter %s: %w", name, err)
	}
	return p, nil
}

// queryParam adds a form-styled, exploded query parameter to q.
func queryParam(q url.Values, name string, value any) error {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
	if err != nil {
		return fmt.Errorf("invalid query parameter %s: %w", name, err)
	}
	parsed, err := url.ParseQuery(frag)
	if err != nil {
		return fmt.Errorf("invalid query parameter %s: %w", name, err)
	}
	for k, vs := range parsed {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return nil
}

// withQuery appends q to path when it is non-empty.
func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

// message extracts a human-readable message from an acknowledgement body.
func message(data any) string {
	switch v := data.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		for _, key := range []string{"message", "detail", "msg"} {
			if m, ok := v[key].(string); ok {
				return m
			}
		}
	}
	return ""
}
