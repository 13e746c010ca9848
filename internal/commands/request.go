package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lamassu/apiclient/httpclient"
)

// RequestOptions holds options for the request command
type RequestOptions struct {
	Data    string
	Retries int
	Timeout time.Duration
	Headers []string
}

// NewRequestCommand creates the request command
func NewRequestCommand(global *GlobalOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request <method> <path>",
		Short: "Send one request and print the JSON payload",
		Example: `  # Fetch the ticker from the local backend
  apiclient request GET /ticker --env development

  # Create an order, giving up after three retries
  apiclient request POST /orders --data '{"amount": 1}' --retries 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqOpts, err := opts.toOptions(args[0], args[1], cmd.Flags().Changed("retries"))
			if err != nil {
				return err
			}

			s, err := openSession(global, cmd.InOrStdin(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.Close()

			resp, err := s.client.Request(cmd.Context(), reqOpts)
			if err != nil {
				return describeError(err)
			}
			return printPayload(cmd.OutOrStdout(), resp.Payload)
		},
	}

	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "JSON request body")
	cmd.Flags().IntVarP(&opts.Retries, "retries", "r", 0, "Retry budget for connectivity failures (default: unbounded)")
	cmd.Flags().DurationVarP(&opts.Timeout, "timeout", "t", 0, "Request timeout (default: from config)")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Extra header as key=value (repeatable)")

	return cmd
}

func (o *RequestOptions) toOptions(method, path string, retriesSet bool) (httpclient.Options, error) {
	reqOpts := httpclient.Options{
		Method:  strings.ToUpper(method),
		Path:    path,
		Timeout: o.Timeout,
	}
	if retriesSet {
		reqOpts.Retries = httpclient.Retries(o.Retries)
	}
	if o.Data != "" {
		if !json.Valid([]byte(o.Data)) {
			return reqOpts, fmt.Errorf("--data is not valid JSON")
		}
		reqOpts.Payload = json.RawMessage(o.Data)
	}
	if len(o.Headers) > 0 {
		reqOpts.Headers = make(map[string]string, len(o.Headers))
		for _, h := range o.Headers {
			key, value, ok := strings.Cut(h, "=")
			if !ok || key == "" {
				return reqOpts, fmt.Errorf("invalid header %q: expected key=value", h)
			}
			reqOpts.Headers[key] = value
		}
	}
	return reqOpts, nil
}

func printPayload(w io.Writer, payload json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, payload, "", "  "); err != nil {
		return fmt.Errorf("failed to format payload: %w", err)
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

// describeError adds the failure kind to err for the terminal.
func describeError(err error) error {
	switch {
	case httpclient.IsMaxRetry(err):
		return fmt.Errorf("gave up: %w", err)
	case httpclient.IsConnectivity(err):
		return fmt.Errorf("connectivity failure: %w", err)
	default:
		return fmt.Errorf("request failed: %w", err)
	}
}
