package authsdk

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openclinic/medrec/pkg/slogx"
)

// DefaultAttemptTimeout bounds a single endpoint attempt. The resolver moves
// on to the next candidate once it elapses.
const DefaultAttemptTimeout = 10 * time.Second

// Wire paths are a contract with the backend and must not drift.
const (
	loginPath              = "/api/auth/login"
	registerPath           = "/api/auth/register"
	refreshPath            = "/api/auth/refresh"
	logoutPath             = "/api/auth/logout"
	ssoConfigPath          = "/api/auth/sso/config"
	ssoLoginPath           = "/api/auth/sso/login"
	ssoCallbackPath        = "/api/auth/sso/callback"
	ssoResolvePath         = "/api/auth/sso/resolve-conflict"
	registrationStatusPath = "/api/auth/registration-status"
)

// SDKClient is a client for the medrec backend's authentication endpoints.
// It holds no session state; authenticated calls go through a Manager.
type SDKClient struct {
	// Endpoints is the ordered, immutable list of candidate base URLs.
	// Typically the direct backend candidate comes before the proxied one.
	Endpoints []string

	HTTPClient *http.Client

	// AttemptTimeout bounds each single endpoint attempt.
	// Defaults to DefaultAttemptTimeout.
	AttemptTimeout time.Duration

	// Logger receives endpoint fallback warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewSDKClient creates a client that resolves requests against the given
// candidate base URLs in order. Trailing slashes and blank entries are
// dropped.
func NewSDKClient(endpoints ...string) *SDKClient {
	cleaned := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		if s := strings.TrimSuffix(strings.TrimSpace(e), "/"); s != "" {
			cleaned = append(cleaned, s)
		}
	}

	return &SDKClient{
		Endpoints: cleaned,
		HTTPClient: &http.Client{
			Transport: slogx.NewTransport(nil, nil),
		},
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

func (c *SDKClient) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *SDKClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func formHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	return h
}

func jsonHeader() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return h
}

func bearerHeader(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

// decodeJSON reads the response body, mapping non-2xx statuses to typed
// protocol errors and decoding successful bodies into target (which may be
// nil when the caller only cares about the status).
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, body)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
