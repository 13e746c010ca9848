package httpclient

import (
	"context"
	"encoding/json"
)

// Decode unmarshals the JSON payload into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return NewDecodeError("failed to decode payload", err)
	}
	return nil
}

// RunInto performs opts with c and decodes the payload into a T.
func RunInto[T any](ctx context.Context, c Client, opts Options) (T, *Response, error) {
	var out T
	resp, err := c.Request(ctx, opts)
	if err != nil {
		return out, nil, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, resp, err
	}
	return out, resp, nil
}
