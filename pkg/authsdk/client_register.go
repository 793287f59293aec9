package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Register creates a new account via a JSON POST. A missing role defaults to
// DefaultRole. Registration never persists a credential; a successful
// registration is followed by an ordinary login.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisteredUser, error) {
	if strings.TrimSpace(req.Role) == "" {
		req.Role = DefaultRole
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration payload: %w", err)
	}

	resp, err := c.resolve(ctx, request{
		method:  http.MethodPost,
		path:    registerPath,
		header:  jsonHeader(),
		payload: payload,
	})
	if err != nil {
		return nil, err
	}

	var created RegisteredUser
	if err := decodeJSON(resp, &created); err != nil {
		return nil, err
	}

	return &created, nil
}

// RegistrationStatus probes whether the backend currently accepts new
// accounts.
func (c *SDKClient) RegistrationStatus(ctx context.Context) (*RegistrationStatus, error) {
	resp, err := c.resolve(ctx, request{
		method: http.MethodGet,
		path:   registrationStatusPath,
	})
	if err != nil {
		return nil, err
	}

	var status RegistrationStatus
	if err := decodeJSON(resp, &status); err != nil {
		return nil, err
	}

	return &status, nil
}
