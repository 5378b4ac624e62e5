// Package config loads the runtime settings of the turing binaries from an
// optional YAML file and TURING_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TURING_"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "turing.yaml"

// Config is the decoded configuration.
type Config struct {
	LogLevel         string `mapstructure:"log_level"`
	LogFormat        string `mapstructure:"log_format"`
	MaxSteps         int    `mapstructure:"max_steps"`
	StrictDirections bool   `mapstructure:"strict_directions"`
	ExplicitInitial  bool   `mapstructure:"explicit_initial"`
	MachinesDir      string `mapstructure:"machines_dir"`

	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// RedisConfig configures the session store. An empty Addr selects the in-memory store.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// keys lists every setting, dotted for nesting. Each one can be overridden by
// EnvPrefix + the upper-cased key with dots replaced by underscores.
var keys = []string{
	"log_level",
	"log_format",
	"max_steps",
	"strict_directions",
	"explicit_initial",
	"machines_dir",
	"server.addr",
	"redis.addr",
	"redis.password",
	"redis.db",
	"redis.prefix",
	"redis.ttl",
}

func defaults() map[string]any {
	return map[string]any{
		"log_level":    "info",
		"log_format":   "text",
		"max_steps":    10000,
		"machines_dir": ".",
		"server": map[string]any{
			"addr": ":8080",
		},
		"redis": map[string]any{
			"prefix": "turing:",
			"ttl":    "24h",
		},
	}
}

// Load reads path (DefaultFile when empty), overlays the environment and decodes
// the result. A missing file is not an error unless path was given explicitly.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := defaults()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var file map[string]any
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		merge(raw, file)
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	for _, key := range keys {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := lookup(name); ok {
			set(raw, key, v)
		}
	}

	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.MaxSteps <= 0 {
		return nil, fmt.Errorf("invalid config: max_steps must be positive, got %d", cfg.MaxSteps)
	}
	return &cfg, nil
}

// merge copies src into dst, descending into nested maps.
func merge(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				merge(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}

func set(m map[string]any, key, value string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		sub, ok := m[p].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[p] = sub
		}
		m = sub
	}
	m[parts[len(parts)-1]] = value
}
