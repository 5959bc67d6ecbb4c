package app

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/securevault/svault/internal/credential"
	"github.com/securevault/svault/internal/tokenstore"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error: %v", err)
	}

	if cfg.API.BaseURL != "http://127.0.0.1:8000" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 0 {
		t.Errorf("API.Timeout = %v, want no timeout", cfg.API.Timeout)
	}
	if cfg.Session.Mode != credential.ModeToken {
		t.Errorf("Session.Mode = %q", cfg.Session.Mode)
	}
	if cfg.Session.Storage != StorageTypeFile {
		t.Errorf("Session.Storage = %q", cfg.Session.Storage)
	}
	if cfg.Session.Key != "secure-vault-token" {
		t.Errorf("Session.Key = %q", cfg.Session.Key)
	}
	if !strings.HasSuffix(cfg.Session.Dir, "svault") {
		t.Errorf("Session.Dir = %q, want default under the user config dir", cfg.Session.Dir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestApplyDefaultsKeyring(t *testing.T) {
	cfg := &Config{Session: SessionConfig{Storage: StorageTypeKeyring}}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error: %v", err)
	}
	if cfg.Session.KeyringService != "svault" {
		t.Errorf("KeyringService = %q", cfg.Session.KeyringService)
	}
	if cfg.Session.Dir != "" {
		t.Errorf("Dir = %q, want empty for keyring storage", cfg.Session.Dir)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Session: SessionConfig{Storage: StorageTypeNone}}
		if err := cfg.ApplyDefaults(); err != nil {
			t.Fatalf("ApplyDefaults() error: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "cookie mode", mutate: func(c *Config) { c.Session.Mode = credential.ModeCookie }},
		{name: "unknown mode", mutate: func(c *Config) { c.Session.Mode = "header" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Session.Storage = "s3" }, wantErr: true},
		{name: "bad url", mutate: func(c *Config) { c.API.BaseURL = "not a url" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.API.Timeout = -time.Second }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "bad exporter", mutate: func(c *Config) { c.LogExporter = "kafka" }, wantErr: true},
		{name: "empty key", mutate: func(c *Config) { c.Session.Key = "" }, wantErr: true},
		{
			name: "file storage without dir",
			mutate: func(c *Config) {
				c.Session.Storage = StorageTypeFile
				c.Session.Dir = ""
			},
			wantErr: true,
		},
		{
			name: "keyring storage without service",
			mutate: func(c *Config) {
				c.Session.Storage = StorageTypeKeyring
				c.Session.KeyringService = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewStorage(t *testing.T) {
	keyring.MockInit()

	tests := []struct {
		name    string
		session SessionConfig
		check   func(t *testing.T, s tokenstore.Storage)
	}{
		{
			name:    "file",
			session: SessionConfig{Storage: StorageTypeFile, Dir: filepath.Join(t.TempDir(), "svault")},
			check: func(t *testing.T, s tokenstore.Storage) {
				if _, ok := s.(*tokenstore.FileStore); !ok {
					t.Errorf("got %T, want *tokenstore.FileStore", s)
				}
			},
		},
		{
			name:    "keyring",
			session: SessionConfig{Storage: StorageTypeKeyring, KeyringService: "svault-test"},
			check: func(t *testing.T, s tokenstore.Storage) {
				if _, ok := s.(*tokenstore.KeyringStore); !ok {
					t.Errorf("got %T, want *tokenstore.KeyringStore", s)
				}
			},
		},
		{
			name:    "none",
			session: SessionConfig{Storage: StorageTypeNone},
			check: func(t *testing.T, s tokenstore.Storage) {
				if s != nil {
					t.Errorf("got %T, want nil", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.session.NewStorage()
			if err != nil {
				t.Fatalf("NewStorage() error: %v", err)
			}
			tt.check(t, s)
		})
	}

	if _, err := (&SessionConfig{Storage: "s3"}).NewStorage(); err == nil {
		t.Error("expected error for unsupported storage")
	}
}
