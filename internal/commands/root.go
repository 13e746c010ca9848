// Package commands implements the apiclient command line tool.
package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lamassu/apiclient/config"
	"github.com/lamassu/apiclient/httpclient"
	"github.com/lamassu/apiclient/logger"
	"github.com/lamassu/apiclient/observability"
)

const stdinConfig = "-"

// GlobalOptions holds flags shared by all commands
type GlobalOptions struct {
	ConfigFile string
	Env        string
	Host       string
}

// NewRootCommand creates the apiclient command tree
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "apiclient",
		Short: "Call the Lamassu API with connectivity retries",
		Long: `Issues requests against the Lamassu API.

Connectivity failures (408, 502, 503, 504, timeouts and dropped connections)
are retried after a fixed delay; every other failure is reported at once.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", config.DefaultFile, "Configuration file (\"-\" reads YAML from stdin)")
	rootCmd.PersistentFlags().StringVarP(&opts.Env, "env", "e", "", "Environment (overrides app.env)")
	rootCmd.PersistentFlags().StringVar(&opts.Host, "host", "", "Base URL (overrides api.host)")

	rootCmd.AddCommand(
		NewRequestCommand(opts),
		NewFetchCommand(opts),
		NewVersionCommand(version),
	)

	return rootCmd
}

// session holds what a command needs to talk to the API.
type session struct {
	client   httpclient.Client
	logger   logger.Logger
	provider observability.Provider
}

// openSession loads configuration and builds the client. Logs go to logOut so
// stdout carries only payloads.
func openSession(opts *GlobalOptions, stdin io.Reader, logOut io.Writer) (*session, error) {
	cfg, err := loadConfig(opts.ConfigFile, opts.Env, stdin)
	if err != nil {
		return nil, err
	}
	if opts.Host != "" {
		cfg.API.Host = opts.Host
	}

	log := logger.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Pretty, logger.DefaultFilterConfig()).
		WithFields(map[string]any{"service": cfg.App.Name, "env": cfg.App.Env})

	provider, err := observability.NewProvider(&cfg.Observability)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	client, err := httpclient.NewFromConfig(cfg, log)
	if err != nil {
		_ = observability.Shutdown(provider, 0)
		return nil, err
	}

	return &session{client: client, logger: log, provider: provider}, nil
}

// loadConfig reads the YAML configuration from stdin when path is "-". A
// non-empty env selects the environment before any file is read.
func loadConfig(path, env string, stdin io.Reader) (*config.Config, error) {
	var opts []config.LoadOption
	if env != "" {
		opts = append(opts, config.WithEnv(env))
	}
	if path != stdinConfig {
		return config.LoadFrom(path, opts...)
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration from stdin: %w", err)
	}
	return config.LoadBytes(data, opts...)
}

func (s *session) Close() {
	if err := observability.Shutdown(s.provider, 0); err != nil {
		s.logger.Warn().Err(err).Msg("Observability shutdown failed")
	}
}
