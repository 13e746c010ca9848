package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// FetchOptions holds options for the fetch command
type FetchOptions struct {
	Concurrency int
}

type fetchResult struct {
	payload json.RawMessage
	err     error
}

// NewFetchCommand creates the fetch command
func NewFetchCommand(global *GlobalOptions) *cobra.Command {
	opts := &FetchOptions{}

	cmd := &cobra.Command{
		Use:   "fetch <path>...",
		Short: "GET several paths concurrently",
		Long: `Issues a GET for every path at the same time, each with its own retry
budget, and prints one line per path in argument order.`,
		Example: `  apiclient fetch /ticker /rates /status --concurrency 2`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}

			s, err := openSession(global, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			results := make([]fetchResult, len(args))
			g := new(errgroup.Group)
			g.SetLimit(opts.Concurrency)
			for i, path := range args {
				g.Go(func() error {
					resp, err := s.client.Get(cmd.Context(), path)
					if err != nil {
						results[i] = fetchResult{err: err}
						return nil
					}
					results[i] = fetchResult{payload: resp.Payload}
					return nil
				})
			}
			_ = g.Wait()

			var errs []error
			out := cmd.OutOrStdout()
			for i, path := range args {
				if results[i].err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, describeError(results[i].err)))
					fmt.Fprintf(out, "%s\terror\n", path)
					continue
				}
				var line bytes.Buffer
				if err := json.Compact(&line, results[i].payload); err != nil {
					return fmt.Errorf("%s: failed to format payload: %w", path, err)
				}
				fmt.Fprintf(out, "%s\t%s\n", path, line.Bytes())
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().IntVarP(&opts.Concurrency, "concurrency", "n", 4, "Maximum requests in flight")

	return cmd
}
