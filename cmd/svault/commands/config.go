package commands

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/securevault/svault/internal/app"
)

// envPrefix namespaces environment overrides. A double underscore nests:
// SVAULT_SESSION__MODE sets session.mode.
const envPrefix = "SVAULT_"

// configPathEnv names the config file when --config is not given.
const configPathEnv = envPrefix + "CONFIG"

// configFlagPrefixes marks the flags that map onto configuration keys.
// Command-local flags such as --search never reach the config.
var configFlagPrefixes = []string{"log-", "api--", "session--"}

// configLayer is one configuration source. Later layers override earlier ones.
type configLayer struct {
	name     string
	provider koanf.Provider
	parser   koanf.Parser
}

// loadConfig merges the config file, SVAULT_* variables and explicitly set
// flags, in that order of increasing priority, then fills defaults and validates.
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string) (*app.Config, error) {
	environ := environFunc()
	if configPath == "" {
		configPath = lookupEnv(environ, configPathEnv)
	}

	var layers []configLayer
	if configPath != "" {
		layers = append(layers, configLayer{"config file", file.Provider(configPath), toml.Parser()})
	}
	layers = append(layers, configLayer{"environment variables", env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: envKey,
		EnvironFunc:   func() []string { return environ },
	}), nil})
	if cmd != nil {
		layers = append(layers, configLayer{"CLI flags", confmap.Provider(flagValues(cmd), "."), nil})
	}

	k := koanf.New(".")
	for _, l := range layers {
		if err := k.Load(l.provider, l.parser); err != nil {
			return nil, fmt.Errorf("loading %s: %w", l.name, err)
		}
	}

	cfg := &app.Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func envKey(key, value string) (string, any) {
	if key == configPathEnv {
		// Selects the file, not a setting
		return "", nil
	}
	key = strings.TrimPrefix(key, envPrefix)
	return strings.ToLower(strings.ReplaceAll(key, "__", ".")), value
}

func lookupEnv(environ []string, name string) string {
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k == name {
			return v
		}
	}
	return ""
}

// flagValues maps explicitly set config flags, including those of parent commands,
// onto config keys: --session--keyring-service becomes session.keyring_service.
// Unset flags are left out so their defaults never mask the file or environment.
func flagValues(cmd *cli.Command) map[string]any {
	values := make(map[string]any)
	for _, name := range cmd.FlagNames() {
		if !isConfigFlag(name) || !cmd.IsSet(name) {
			continue
		}
		value := cmd.Value(name)
		if value == nil {
			continue
		}
		key := strings.ReplaceAll(strings.ReplaceAll(name, "--", "."), "-", "_")
		values[key] = value
	}
	return values
}

func isConfigFlag(name string) bool {
	for _, prefix := range configFlagPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
