package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SSOConfig fetches provider availability and configuration. Pure read.
func (c *SDKClient) SSOConfig(ctx context.Context) (*SSOConfig, error) {
	resp, err := c.resolve(ctx, request{
		method: http.MethodGet,
		path:   ssoConfigPath,
	})
	if err != nil {
		return nil, err
	}

	var cfg SSOConfig
	if err := decodeJSON(resp, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SSOInitiate asks the backend for a provider authorization URL. The actual
// redirect is the caller's responsibility.
func (c *SDKClient) SSOInitiate(ctx context.Context, returnURL string) (*SSOInitiation, error) {
	var query url.Values
	if strings.TrimSpace(returnURL) != "" {
		query = url.Values{"return_url": {returnURL}}
	}

	resp, err := c.resolve(ctx, request{
		method: http.MethodPost,
		path:   ssoLoginPath,
		query:  query,
	})
	if err != nil {
		return nil, err
	}

	var init SSOInitiation
	if err := decodeJSON(resp, &init); err != nil {
		return nil, err
	}

	return &init, nil
}

// SSOCallback exchanges the provider's code and state. The response is
// dual-shaped: a credential, or a conflict ticket. A registration-disabled
// refusal surfaces as *RegistrationDisabledError with the server's message
// verbatim.
func (c *SDKClient) SSOCallback(ctx context.Context, code, state string) (*SSOCallbackResponse, error) {
	resp, err := c.resolve(ctx, request{
		method: http.MethodPost,
		path:   ssoCallbackPath,
		query: url.Values{
			"code":  {code},
			"state": {state},
		},
	})
	if err != nil {
		return nil, err
	}

	var cb SSOCallbackResponse
	if err := decodeJSON(resp, &cb); err != nil {
		return nil, err
	}

	return &cb, nil
}

// SSOResolveConflict redeems a conflict ticket. The ticket is single-use
// server-side; every call round-trips, nothing is cached.
func (c *SDKClient) SSOResolveConflict(
	ctx context.Context,
	tempToken, action string,
	preference any,
) (*SSOCallbackResponse, error) {
	payload, err := json.Marshal(map[string]any{
		"temp_token": tempToken,
		"action":     action,
		"preference": preference,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode conflict resolution payload: %w", err)
	}

	resp, err := c.resolve(ctx, request{
		method:  http.MethodPost,
		path:    ssoResolvePath,
		header:  jsonHeader(),
		payload: payload,
	})
	if err != nil {
		return nil, err
	}

	var cb SSOCallbackResponse
	if err := decodeJSON(resp, &cb); err != nil {
		return nil, err
	}

	return &cb, nil
}
