package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// Login executes the password login protocol: a form-encoded POST of the
// credentials through the endpoint resolver. Non-2xx responses come back as
// typed protocol errors carrying the server's detail message.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{
		"username": {username},
		"password": {password},
	}

	resp, err := c.resolve(ctx, request{
		method:  http.MethodPost,
		path:    loginPath,
		header:  formHeader(),
		payload: []byte(form.Encode()),
	})
	if err != nil {
		return nil, err
	}

	var tr TokenResponse
	if err := decodeJSON(resp, &tr); err != nil {
		return nil, err
	}

	return &tr, nil
}

// Refresh exchanges the current bearer credential for a fresh one. The
// backend accepts a recently expired token here, so the wrapper can recover
// from a 401 without a second persisted secret.
func (c *SDKClient) Refresh(ctx context.Context, token string) (*TokenResponse, error) {
	resp, err := c.resolve(ctx, request{
		method: http.MethodPost,
		path:   refreshPath,
		header: bearerHeader(token),
	})
	if err != nil {
		return nil, err
	}

	var tr TokenResponse
	if err := decodeJSON(resp, &tr); err != nil {
		return nil, err
	}

	return &tr, nil
}

// NotifyLogout tells the backend the session is over. Callers treat this as
// best-effort; local teardown must not depend on it.
func (c *SDKClient) NotifyLogout(ctx context.Context, token string) error {
	resp, err := c.resolve(ctx, request{
		method: http.MethodPost,
		path:   logoutPath,
		header: bearerHeader(token),
	})
	if err != nil {
		return err
	}

	return decodeJSON(resp, nil)
}
