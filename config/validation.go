package config

import (
	"fmt"
	"net/url"
	"slices"
)

// Default base hosts.
const (
	DefaultLocalHost  = "http://localhost:8085"
	DefaultRemoteHost = "https://api.lamassu.is"
)

// Environment constants
const (
	EnvTest        = "test"
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic"}

// IsLocalEnv reports whether env targets the local backend.
func IsLocalEnv(env string) bool {
	return env == EnvTest || env == EnvDevelopment
}

func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return fmt.Errorf("app config: %w", err)
	}

	if err := validateAPI(&cfg.API); err != nil {
		return fmt.Errorf("api config: %w", err)
	}

	if err := validateRequest(&cfg.Request); err != nil {
		return fmt.Errorf("request config: %w", err)
	}

	if err := validateLog(&cfg.Log); err != nil {
		return fmt.Errorf("log config: %w", err)
	}

	if err := cfg.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config: %w", NewValidationError("observability", err.Error()))
	}

	return nil
}

// validateApp requires a name and an environment. Unknown environments are
// accepted and resolve to the remote host.
func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name", "APP_NAME", "app.name")
	}
	if cfg.Env == "" {
		return NewMissingFieldError("app.env", "APP_ENV", "app.env")
	}
	return nil
}

func validateAPI(cfg *APIConfig) error {
	for field, raw := range map[string]string{
		"api.host":         cfg.Host,
		"api.hosts.local":  cfg.Hosts.Local,
		"api.hosts.remote": cfg.Hosts.Remote,
	} {
		if raw == "" {
			if field == "api.host" {
				continue
			}
			return NewMissingFieldError(field, envVarFor(field), field)
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return NewInvalidFieldError(field, fmt.Sprintf("not an absolute url: %q", raw), nil)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return NewInvalidFieldError(field, fmt.Sprintf("unsupported scheme %q", u.Scheme), []string{"http", "https"})
		}
	}
	return nil
}

func validateRequest(cfg *RequestConfig) error {
	if cfg.Timeout < 0 {
		return NewValidationError("request.timeout", "must not be negative")
	}
	if cfg.ReadTimeout < 0 {
		return NewValidationError("request.readtimeout", "must not be negative")
	}
	if cfg.RetryDelay < 0 {
		return NewValidationError("request.retrydelay", "must not be negative")
	}
	if cfg.Retries != nil && *cfg.Retries < 0 {
		return NewValidationError("request.retries", "must not be negative")
	}
	if cfg.RateLimit < 0 {
		return NewValidationError("request.ratelimit", "must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.Burst < 1 {
		return NewValidationError("request.burst", "must be at least 1 when rate limiting is enabled")
	}
	if cfg.MaxPayloadLogBytes < 0 {
		return NewValidationError("request.maxpayloadlogbytes", "must not be negative")
	}
	return nil
}

func validateLog(cfg *LogConfig) error {
	if !slices.Contains(validLogLevels, cfg.Level) {
		return NewInvalidFieldError("log.level", fmt.Sprintf("invalid log level: %s", cfg.Level), validLogLevels)
	}
	return nil
}
