package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoEndpoints is returned when the client was built with no candidate
	// base URLs.
	ErrNoEndpoints = errors.New("authsdk: no endpoints configured")

	// ErrNoAccessToken is returned when the server answered 2xx to an
	// authentication operation but the body carried no access token.
	ErrNoAccessToken = errors.New("no access token received")

	// ErrUnauthenticated marks an authenticated call that could not be
	// completed: no stored credential, or the single refresh attempt failed.
	ErrUnauthenticated = errors.New("authsdk: authentication required")
)

// EndpointsError is the aggregated connectivity failure produced when every
// candidate endpoint erred or timed out.
type EndpointsError struct {
	// Attempts is how many candidates were actually tried.
	Attempts int

	// Last is the final underlying error.
	Last error
}

func (e *EndpointsError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("all endpoints failed: %s", e.Last)
	}
	return "all endpoints failed"
}

func (e *EndpointsError) Unwrap() error { return e.Last }

// APIError is a protocol failure: a non-2xx response with a structured error
// body. Error() is the server's message verbatim so callers can show it to
// users unchanged; StatusCode is kept for callers that branch on it.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string { return e.Detail }

// RegistrationDisabledError is the one protocol failure with its own name:
// the server refusing to create accounts. It must never be flattened into a
// generic message, so SSO and registration callers can branch on it.
type RegistrationDisabledError struct {
	Detail string
}

func (e *RegistrationDisabledError) Error() string { return e.Detail }

const registrationDisabledCode = "registration_disabled"

// parseAPIError maps a non-2xx body to a typed protocol error. The backend
// reports errors as {"detail": "..."}; {"error": ..., "message": ...} shapes
// from proxies are tolerated. Unparseable bodies fall back to a generic
// message derived from the status code.
func parseAPIError(status int, body []byte) error {
	var errResp struct {
		Detail  string `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	var detail string
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Detail != "":
			detail = errResp.Detail
		case errResp.Message != "":
			detail = errResp.Message
		}

		if errResp.Error == registrationDisabledCode ||
			strings.EqualFold(strings.TrimSpace(detail), "registration is disabled") {
			if detail == "" {
				detail = "registration is disabled"
			}
			return &RegistrationDisabledError{Detail: detail}
		}

		if detail == "" && errResp.Error != "" {
			detail = errResp.Error
		}
	}

	if detail == "" {
		detail = fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status))
	}

	return &APIError{StatusCode: status, Detail: detail}
}
