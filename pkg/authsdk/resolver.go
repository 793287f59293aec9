package authsdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// request carries one protocol call through the resolver. The payload is a
// byte slice rather than a reader so each endpoint attempt (and a wrapper
// retry) can replay it.
type request struct {
	method  string
	path    string
	query   url.Values
	header  http.Header
	payload []byte
}

// resolve tries each candidate endpoint strictly in sequence, racing every
// attempt against the attempt timeout. There is never more than one
// outstanding attempt. The first response obtained wins regardless of its
// HTTP status; status handling belongs to the caller. Only exhausting all
// candidates is a resolver-level failure.
func (c *SDKClient) resolve(ctx context.Context, r request) (*http.Response, error) {
	if len(c.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	timeout := c.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	var (
		attempts int
		lastErr  error
	)
	for _, base := range c.Endpoints {
		attempts++

		resp, err := c.attempt(ctx, timeout, base, r)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		c.logger().Warn("endpoint attempt failed",
			"base_url", base,
			"path", r.path,
			"error", err.Error(),
		)

		// The parent being done means the caller abandoned the call, not
		// that the next candidate deserves a try.
		if ctx.Err() != nil {
			break
		}
	}

	return nil, &EndpointsError{Attempts: attempts, Last: lastErr}
}

func (c *SDKClient) attempt(
	parent context.Context,
	timeout time.Duration,
	base string,
	r request,
) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)

	u := base + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if len(r.payload) > 0 {
		body = bytes.NewReader(r.payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range r.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		cancel()
		return nil, err
	}

	// The attempt deadline also covers reading the body; cancel fires when
	// the caller closes it.
	resp.Body = &deadlineBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type deadlineBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *deadlineBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
