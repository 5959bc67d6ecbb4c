package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/securevault/svault/internal/apiclient"
	"github.com/securevault/svault/internal/credential"
	"github.com/securevault/svault/internal/vaultapi"
)

// Option configures an App.
type Option func(*appConfig)

type appConfig struct {
	transport http.RoundTripper
	logger    *slog.Logger
}

// WithTransport sets the base HTTP transport. If not provided, http.DefaultTransport is used.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *appConfig) {
		c.transport = transport
	}
}

// WithLogger sets the logger shared by all components. If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *appConfig) {
		c.logger = logger
	}
}

// App wires storage, credential store, request client and vault operations together.
type App struct {
	cfg    *Config
	logger *slog.Logger
	store  *credential.Store
	client *apiclient.Client
	vault  *vaultapi.Service

	// jar is set in cookie mode only
	jar *SessionJar
}

// New creates a new App instance. Storage is probed once here.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	o := &appConfig{
		transport: http.DefaultTransport,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	storage, err := cfg.Session.NewStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to create session storage: %w", err)
	}

	store := credential.NewStore(ctx, cfg.Session.Mode, storage, cfg.Session.Key, credential.WithLogger(o.logger))

	clientOpts := []apiclient.Option{
		apiclient.WithTransport(o.transport),
		apiclient.WithTimeout(cfg.API.Timeout),
		apiclient.WithLogger(o.logger),
	}
	if cfg.API.StrictJSON {
		clientOpts = append(clientOpts, apiclient.WithStrictJSON())
	}

	var jar *SessionJar
	if cfg.Session.Mode == credential.ModeCookie {
		// Cookies follow the credential store's view of storage health
		jarStorage := storage
		if !store.StorageAvailable() {
			jarStorage = nil
		}
		jar, err = NewSessionJar(cfg.API.BaseURL, jarStorage, cfg.Session.CookieKey())
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		if err := jar.Load(ctx); err != nil {
			o.logger.WarnContext(ctx, "failed to restore session cookies, starting without a session", "error", err)
		}
		clientOpts = append(clientOpts, apiclient.WithCookieJar(jar))
	}

	client, err := apiclient.New(cfg.API.BaseURL, store, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}

	a := &App{
		cfg:    cfg,
		logger: o.logger,
		store:  store,
		client: client,
		vault:  vaultapi.New(client, store, vaultapi.WithLogger(o.logger)),
		jar:    jar,
	}

	// A forced logout also drops the session cookies
	if jar != nil {
		store.SubscribeUnauthorized(func() {
			if err := jar.Clear(context.WithoutCancel(ctx)); err != nil {
				a.logger.WarnContext(ctx, "failed to clear session cookies", "error", err)
			}
		})
	}

	return a, nil
}

// Vault returns the API operations.
func (a *App) Vault() *vaultapi.Service {
	return a.vault
}

// Store returns the credential store.
func (a *App) Store() *credential.Store {
	return a.store
}

// Config returns the configuration the app was built with.
func (a *App) Config() *Config {
	return a.cfg
}

// OnUnauthorized registers fn to run whenever the API rejects the session.
func (a *App) OnUnauthorized(fn func()) (unsubscribe func()) {
	return a.store.SubscribeUnauthorized(fn)
}

// ClearSession drops the local session: the credential and, in cookie mode, the cookies.
func (a *App) ClearSession(ctx context.Context) error {
	a.store.ClearCredential(ctx)
	if a.jar != nil {
		return a.jar.Clear(ctx)
	}
	return nil
}

// Close persists session state that lives outside the credential store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.jar != nil {
		if err := a.jar.Save(ctx); err != nil {
			errs = append(errs, fmt.Errorf("saving session cookies: %w", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
