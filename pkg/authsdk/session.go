package authsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Do executes an authenticated request against the backend through the
// endpoint resolver. The stored credential is attached when it is present
// and locally valid. On a 401 the manager performs exactly one refresh and
// one retry; a retried request that fails again is returned as-is, never
// retried further. Two total attempts is the hard ceiling.
func (m *Manager) Do(
	ctx context.Context,
	method, path string,
	query url.Values,
	payload []byte,
) (*http.Response, error) {
	st, err := m.store.State(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load session state: %w", err)
	}

	header := http.Header{}
	if len(payload) > 0 {
		header.Set("Content-Type", "application/json")
	}
	if st.Token != "" && tokenLive(st.Token) {
		header.Set("Authorization", "Bearer "+st.Token)
	}

	req := request{method: method, path: path, query: query, header: header, payload: payload}

	resp, err := m.client.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	_ = resp.Body.Close()

	token, err := m.refreshSession(ctx, st)
	if err != nil {
		// The session is now effectively unauthenticated; whether to force a
		// logout is the caller's decision.
		return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	m.log.Debug("retrying request with refreshed credential", "method", method, "path", path)
	req.header = header.Clone()
	req.header.Set("Authorization", "Bearer "+token)
	return m.client.resolve(ctx, req)
}

// DoJSON is Do plus body handling: in is JSON-encoded, non-2xx statuses map
// to typed protocol errors, and 2xx bodies decode into out (which may be
// nil).
func (m *Manager) DoJSON(
	ctx context.Context,
	method, path string,
	query url.Values,
	in, out any,
) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request payload: %w", err)
		}
	}

	resp, err := m.Do(ctx, method, path, query, payload)
	if err != nil {
		return err
	}

	return decodeJSON(resp, out)
}

// refreshSession performs the single transparent refresh backing Do's 401
// recovery. The write back to the store is generation-guarded: a logout that
// happened while the refresh was in flight wins, and the refreshed
// credential is discarded rather than resurrecting the cleared session.
func (m *Manager) refreshSession(ctx context.Context, st SessionState) (string, error) {
	if st.Token == "" {
		return "", errors.New("no stored credential")
	}

	// Only failed refreshes drain the throttle budget: a 401 always gets its
	// one refresh attempt until repeated failures exhaust the burst. A
	// successful refresh never counts against it.
	if m.refreshLimit.Tokens() < 1 {
		return "", errors.New("refresh attempts throttled")
	}

	tr, err := m.client.Refresh(ctx, st.Token)
	if err != nil {
		m.refreshLimit.Allow()
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	if tr.AccessToken == "" {
		m.refreshLimit.Allow()
		return "", ErrNoAccessToken
	}

	// The refreshed credential proves the same identity the old one did, so
	// the auth method carries over.
	method := AuthMethodPassword
	if st.User != nil && st.User.AuthMethod != "" {
		method = st.User.AuthMethod
	}

	gen := st.Generation
	if _, _, err := m.adopt(ctx, &gen, tr.AccessToken, method); err != nil {
		if errors.Is(err, ErrStaleWrite) {
			m.log.Info("discarding refreshed credential, session changed while refresh was in flight")
			return "", errors.New("session was cleared during refresh")
		}
		return "", err
	}

	return tr.AccessToken, nil
}
