package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/openclinic/medrec/pkg/idx"
)

// Transport is an http.RoundTripper that logs every outbound request and
// stamps it with an X-Request-ID so client and backend logs can be joined.
// The logger comes from the request context (FromContext) unless Logger is
// set, so callers that attach a logger high up get it on every request line.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTransport wraps base (or http.DefaultTransport when nil) with logging.
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	return &Transport{Base: base, Logger: logger}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	ctx := WithContext(req.Context(), t.Logger)

	reqID := req.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = idx.New().String()
	}

	// Per-request clone: RoundTrippers must not mutate the caller's request.
	// The clone also carries the correlation ID down to the base transport.
	req = req.Clone(WithRequestID(ctx, reqID))
	req.Header.Set("X-Request-ID", reqID)

	logger := FromContext(req.Context()).With(
		"method", req.Method,
		"url", req.URL.Redacted(),
	)

	start := time.Now()
	resp, err := base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()

	if err != nil {
		logger.Warn("http_request_failed",
			"duration_ms", duration,
			"error", err.Error(),
		)
		return nil, err
	}

	logger.Debug("http_request",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)
	return resp, nil
}
