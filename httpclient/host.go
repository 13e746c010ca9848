package httpclient

import (
	"fmt"
	"net/url"
)

const (
	// LocalHost serves the test and development environments.
	LocalHost = "http://localhost:8085"
	// RemoteHost serves every other environment.
	RemoteHost = "https://api.lamassu.is"
)

// ResolveHost returns the base host for env.
func ResolveHost(env string) string {
	switch env {
	case "test", "development":
		return LocalHost
	default:
		return RemoteHost
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", raw, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: must be absolute", raw)
	}
	return base, nil
}

// resolveURL resolves path against base as a browser would resolve a link.
func resolveURL(base *url.URL, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
