package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/securevault/svault/internal/app"
	"github.com/securevault/svault/internal/credential"
)

func environ(vars ...string) func() []string {
	return func() []string { return vars }
}

// runProbe parses args with the real root flags and loads the config from inside a
// subcommand, the way every session action does.
func runProbe(t *testing.T, env func() []string, args ...string) (*app.Config, map[string]any, error) {
	t.Helper()

	var (
		cfg     *app.Config
		flags   map[string]any
		loadErr error
	)
	root := newRootCommand(strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	root.Commands = append(root.Commands, &cli.Command{
		Name: "probe",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "search"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			flags = flagValues(cmd)
			cfg, loadErr = loadConfig(cmd.String("config"), cmd, env)
			return nil
		},
	})

	require.NoError(t, root.Run(context.Background(), append([]string{"svault"}, args...)))
	return cfg, flags, loadErr
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadConfig("", nil, environ("SVAULT_SESSION__DIR="+dir))
	require.NoError(t, err)

	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, app.DefaultConfigAPIBaseURL, cfg.API.BaseURL)
	assert.Zero(t, cfg.API.Timeout)
	assert.Equal(t, credential.ModeToken, cfg.Session.Mode)
	assert.Equal(t, app.StorageTypeFile, cfg.Session.Storage)
	assert.Equal(t, dir, cfg.Session.Dir)
	assert.Equal(t, app.DefaultConfigSessionKey, cfg.Session.Key)
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svault.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[api]
base_url = "http://file.example:8000"
timeout = "10s"

[session]
mode = "cookie"
storage = "none"
key = "from-file"
`), 0o600))

	env := environ(
		"SVAULT_API__BASE_URL=http://env.example:8000",
		"SVAULT_API__TIMEOUT=20s",
		"SVAULT_SESSION__KEY=from-env",
		"UNRELATED=1",
	)

	cfg, _, err := runProbe(t, env, "--config", path, "--api--timeout", "5s", "probe")
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel, "file value survives unset flag default")
	assert.Equal(t, "http://env.example:8000", cfg.API.BaseURL, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.API.Timeout, "flag overrides env")
	assert.Equal(t, credential.ModeCookie, cfg.Session.Mode)
	assert.Equal(t, app.StorageTypeNone, cfg.Session.Storage)
	assert.Equal(t, "from-env", cfg.Session.Key)
}

func TestLoadConfigPathFromEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "svault.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\nstorage = \"none\"\nmode = \"cookie\"\n"), 0o600))

	cfg, err := loadConfig("", nil, environ(configPathEnv+"="+path))
	require.NoError(t, err)
	assert.Equal(t, credential.ModeCookie, cfg.Session.Mode)
	assert.Equal(t, app.StorageTypeNone, cfg.Session.Storage)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  []string
		path string
	}{
		{
			name: "unknown session mode",
			env:  []string{"SVAULT_SESSION__MODE=carrier-pigeon", "SVAULT_SESSION__STORAGE=none"},
		},
		{
			name: "unknown storage",
			env:  []string{"SVAULT_SESSION__STORAGE=floppy"},
		},
		{
			name: "base url is not a url",
			env:  []string{"SVAULT_API__BASE_URL=not a url", "SVAULT_SESSION__STORAGE=none"},
		},
		{
			name: "missing config file",
			env:  []string{"SVAULT_SESSION__STORAGE=none"},
			path: filepath.Join(t.TempDir(), "missing.toml"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.path, nil, environ(tt.env...))
			assert.Error(t, err)
		})
	}
}

func TestFlagValues(t *testing.T) {
	_, flags, err := runProbe(t, environ(),
		"--session--storage", "none",
		"--session--keyring-service", "vault-test",
		"--log-format", "json",
		"--api--strict-json",
		"probe", "--search", "report",
	)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"session.storage":         "none",
		"session.keyring_service": "vault-test",
		"log_format":              "json",
		"api.strict_json":         true,
	}, flags)
}

func TestIsConfigFlag(t *testing.T) {
	tests := map[string]bool{
		"log-level":        true,
		"api--base-url":    true,
		"session--mode":    true,
		"config":           false,
		"search":           false,
		"output":           false,
		"sessions":         false,
		"api-key-for-test": false,
	}

	for name, want := range tests {
		assert.Equal(t, want, isConfigFlag(name), name)
	}
}
