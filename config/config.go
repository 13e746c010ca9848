package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the configuration file read by Load.
const DefaultFile = "config.yaml"

// envSections lists the top-level keys environment variables may set.
var envSections = []string{"app", "api", "request", "log", "observability"}

// Load loads configuration from DefaultFile in the working directory.
func Load() (*Config, error) {
	return LoadFrom(DefaultFile)
}

// LoadOption adjusts how configuration is loaded.
type LoadOption func(*loadOptions)

type loadOptions struct {
	env string
}

// WithEnv forces the environment. It selects config.<env>.yaml and wins over
// APP_ENV and app.env from files.
func WithEnv(env string) LoadOption {
	return func(o *loadOptions) {
		o.env = env
	}
}

func applyLoadOptions(opts []LoadOption) loadOptions {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// LoadFrom loads configuration from multiple sources with priority:
// 0. WithEnv, which only sets app.env
// 1. Environment variables (highest priority)
// 2. The environment-specific YAML file (config.<env>.yaml next to path)
// 3. The YAML file at path
// 4. Default values (lowest priority)
//
// Missing YAML files are skipped.
func LoadFrom(path string, opts ...LoadOption) (*Config, error) {
	o := applyLoadOptions(opts)
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, path); err != nil {
		return nil, err
	}

	// APP_ENV may select the environment file, so peek at it before the
	// full environment pass.
	appEnv := k.String("app.env")
	if v := os.Getenv("APP_ENV"); v != "" {
		appEnv = v
	}
	if o.env != "" {
		appEnv = o.env
	}
	if appEnv != "" {
		envFile := filepath.Join(filepath.Dir(path), fmt.Sprintf("config.%s.yaml", appEnv))
		if err := loadOptionalFile(k, envFile); err != nil {
			return nil, err
		}
	}

	return finish(k, o)
}

// LoadBytes loads configuration from YAML data instead of a file, for
// configuration piped on stdin. Defaults and environment variables apply as in
// LoadFrom; environment-specific files are not read.
func LoadBytes(data []byte, opts ...LoadOption) (*Config, error) {
	o := applyLoadOptions(opts)
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return finish(k, o)
}

// finish applies environment variables and the forced environment, then
// unmarshals and validates.
func finish(k *koanf.Koanf, o loadOptions) (*Config, error) {
	if err := k.Load(env.Provider(".", env.Opt{TransformFunc: transformEnv}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if o.env != "" {
		if err := k.Set("app.env", o.env); err != nil {
			return nil, fmt.Errorf("failed to set environment: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Observability.ApplyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// transformEnv maps UPPER_CASE variables to lower.case keys. Variables outside
// the known sections are dropped so unrelated process settings never leak in.
func transformEnv(key, value string) (string, any) {
	key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
	section, _, _ := strings.Cut(key, ".")
	for _, s := range envSections {
		if section == s && key != s {
			return key, value
		}
	}
	return "", nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":    "apiclient",
		"app.version": "v1.0.0",
		"app.env":     EnvProduction,

		"api.host":         "",
		"api.hosts.local":  DefaultLocalHost,
		"api.hosts.remote": DefaultRemoteHost,

		"request.timeout":            "5s",
		"request.readtimeout":        "5s",
		"request.retrydelay":         "500ms",
		"request.ratelimit":          0,
		"request.burst":              1,
		"request.logpayloads":        false,
		"request.maxpayloadlogbytes": 1024,
		"request.w3ctrace":           true,

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":  false,
		"observability.service":  "apiclient",
		"observability.endpoint": "stdout",
		"observability.protocol": "http",
		"observability.insecure": false,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
