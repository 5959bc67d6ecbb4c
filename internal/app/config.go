package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/securevault/svault/internal/credential"
	"github.com/securevault/svault/internal/observability"
	"github.com/securevault/svault/internal/tokenstore"
)

// StorageType represents the durable storage backends for the session.
type StorageType string

const (
	StorageTypeFile    StorageType = "file"
	StorageTypeKeyring StorageType = "keyring"
	StorageTypeNone    StorageType = "none"
)

// Default configuration values
const (
	DefaultConfigLogFormat      = observability.FormatText
	DefaultConfigLogExporter    = observability.ExporterNone
	DefaultConfigAPIBaseURL     = "http://127.0.0.1:8000"
	DefaultConfigSessionMode    = credential.ModeToken
	DefaultConfigSessionStorage = StorageTypeFile
	DefaultConfigSessionKey     = "secure-vault-token"
	DefaultConfigKeyringService = "svault"
)

// APIConfig holds API origin configuration.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`
	// Timeout bounds each request including the response body. Zero leaves
	// requests bounded only by their context.
	Timeout time.Duration `json:"timeout"`
	// StrictJSON rejects successful responses whose body is not valid JSON.
	StrictJSON bool `json:"strict_json"`
}

// SessionConfig describes how the session is carried and where it is kept.
type SessionConfig struct {
	Mode    credential.Mode `json:"mode" validate:"required,oneof=token cookie"`
	Storage StorageType     `json:"storage" validate:"required,oneof=file keyring none"`

	// Storage-specific settings
	Dir            string `json:"dir,omitempty"`             // For file storage: directory holding one file per key
	KeyringService string `json:"keyring_service,omitempty"` // For keyring storage: service name

	// Key under which the credential is stored.
	Key string `json:"key" validate:"required"`
}

// CookieKey is the storage key for the persisted session cookies in cookie mode.
func (s *SessionConfig) CookieKey() string {
	return s.Key + "-cookies"
}

// NewStorage creates the durable storage backend. Returns nil for StorageTypeNone,
// which keeps the session in memory for the lifetime of the process.
func (s *SessionConfig) NewStorage() (tokenstore.Storage, error) {
	switch s.Storage {
	case StorageTypeFile:
		return tokenstore.NewFileStore(s.Dir)
	case StorageTypeKeyring:
		return tokenstore.NewKeyringStore(s.KeyringService)
	case StorageTypeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level             `json:"log_level"`
	LogFormat   observability.Format   `json:"log_format" validate:"oneof=text json"`
	LogExporter observability.Exporter `json:"log_exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	API         APIConfig              `json:"api"`
	Session     SessionConfig          `json:"session"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.LogExporter == "" {
		c.LogExporter = DefaultConfigLogExporter
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.Session.Mode == "" {
		c.Session.Mode = DefaultConfigSessionMode
	}
	if c.Session.Storage == "" {
		c.Session.Storage = DefaultConfigSessionStorage
	}
	if c.Session.Key == "" {
		c.Session.Key = DefaultConfigSessionKey
	}

	// Dynamic defaults based on storage type
	switch c.Session.Storage {
	case StorageTypeFile:
		if c.Session.Dir == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("session.dir required (auto-detect failed: %w)", err)
			}
			c.Session.Dir = filepath.Join(configDir, "svault")
		}
	case StorageTypeKeyring:
		if c.Session.KeyringService == "" {
			c.Session.KeyringService = DefaultConfigKeyringService
		}
	case StorageTypeNone:
		// nothing is persisted
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}

	switch c.Session.Storage {
	case StorageTypeFile:
		if c.Session.Dir == "" {
			return errors.New("session.dir required for file storage")
		}
	case StorageTypeKeyring:
		if c.Session.KeyringService == "" {
			return errors.New("session.keyring_service required for keyring storage")
		}
	}

	return nil
}
