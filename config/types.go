package config

import (
	"time"

	"github.com/lamassu/apiclient/observability"
)

// Config represents the overall application configuration structure.
type Config struct {
	App           AppConfig            `koanf:"app" json:"app" yaml:"app"`
	API           APIConfig            `koanf:"api" json:"api" yaml:"api"`
	Request       RequestConfig        `koanf:"request" json:"request" yaml:"request"`
	Log           LogConfig            `koanf:"log" json:"log" yaml:"log"`
	Observability observability.Config `koanf:"observability" json:"observability" yaml:"observability"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string `koanf:"name" json:"name" yaml:"name"`
	Version string `koanf:"version" json:"version" yaml:"version"`
	Env     string `koanf:"env" json:"env" yaml:"env"`
}

// APIConfig selects the backend the client talks to.
type APIConfig struct {
	// Host overrides environment-based host selection when set.
	Host  string     `koanf:"host" json:"host" yaml:"host"`
	Hosts HostConfig `koanf:"hosts" json:"hosts" yaml:"hosts"`
}

// HostConfig holds the per-environment base hosts.
type HostConfig struct {
	Local  string `koanf:"local" json:"local" yaml:"local"`
	Remote string `koanf:"remote" json:"remote" yaml:"remote"`
}

// RequestConfig holds per-request defaults.
type RequestConfig struct {
	Timeout     time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
	ReadTimeout time.Duration `koanf:"readtimeout" json:"readtimeout" yaml:"readtimeout"`
	RetryDelay  time.Duration `koanf:"retrydelay" json:"retrydelay" yaml:"retrydelay"`
	// Retries is the default retry budget. Nil retries connectivity failures
	// without bound.
	Retries            *int    `koanf:"retries" json:"retries" yaml:"retries"`
	RateLimit          float64 `koanf:"ratelimit" json:"ratelimit" yaml:"ratelimit"` // attempts per second, 0 disables
	Burst              int     `koanf:"burst" json:"burst" yaml:"burst"`
	LogPayloads        bool    `koanf:"logpayloads" json:"logpayloads" yaml:"logpayloads"`
	MaxPayloadLogBytes int     `koanf:"maxpayloadlogbytes" json:"maxpayloadlogbytes" yaml:"maxpayloadlogbytes"`
	W3CTrace           bool    `koanf:"w3ctrace" json:"w3ctrace" yaml:"w3ctrace"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty"`
}

// BaseHost returns the configured override or the host for App.Env.
func (c *Config) BaseHost() string {
	if c.API.Host != "" {
		return c.API.Host
	}
	if IsLocalEnv(c.App.Env) {
		return c.API.Hosts.Local
	}
	return c.API.Hosts.Remote
}
