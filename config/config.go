package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment variables the loader reads,
// e.g. CIRRUS_AUTH_APIKEY maps to auth.apikey.
const EnvPrefix = "CIRRUS_"

// DefaultConfigFile is the YAML file consulted when no path is given.
const DefaultConfigFile = "cirrus.yaml"

// Load builds the configuration with the usual priority:
// environment variables over the YAML file at path (optional; falls back to
// DefaultConfigFile) over built-in defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = DefaultConfigFile
	}
	// The YAML file is optional
	_ = k.Load(file.Provider(path), yaml.Parser())

	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadFromBytes builds the configuration from in-memory YAML layered over the
// defaults; environment variables still take priority.
func LoadFromBytes(content []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config bytes: %w", err)
	}
	if err := loadEnv(k); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"auth.grant_type":    "urn:cirrus:params:oauth:grant-type:apikey",
		"auth.refresh_ahead": "0s",

		"http.timeout":    "30s",
		"http.rate_limit": 0.0,

		"retry.max_attempts": 1,
		"retry.interval":     "1s",
		"retry.exponential":  true,
		"retry.on":           []string{"transport", "timeout", "server_error"},

		"log.level":  "info",
		"log.pretty": false,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

func loadEnv(k *koanf.Koanf) error {
	return k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			// CIRRUS_AUTH_TOKEN_URL -> auth.token_url; only the first
			// underscore separates the section from the key.
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return strings.Replace(key, "_", ".", 1), value
		},
	}), nil)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
