package authsdk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/openclinic/medrec/pkg/jwtx"
)

// Refresh throttle: failed refresh attempts drain a small budget that
// replenishes every couple of seconds, so a backend rejecting refreshes is
// not hammered. Successful refreshes are never throttled.
const (
	refreshInterval = 2 * time.Second
	refreshBurst    = 3
)

// Manager is the session manager consumed by UI and data-layer collaborators.
// It wraps the stateless SDKClient with a SessionStore and turns protocol
// outcomes into discriminated results.
type Manager struct {
	client *SDKClient
	store  SessionStore
	log    *slog.Logger

	refreshLimit *rate.Limiter
}

// NewManager wires a session manager. A nil store gets an in-memory one and
// a nil logger falls back to slog.Default().
func NewManager(client *SDKClient, store SessionStore, logger *slog.Logger) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		client:       client,
		store:        store,
		log:          logger,
		refreshLimit: rate.NewLimiter(rate.Every(refreshInterval), refreshBurst),
	}
}

// Login runs the password protocol and, on success, persists the credential
// and its derived user projection. Expected failures land on the result's
// Err; the server's detail message is preserved verbatim.
func (m *Manager) Login(ctx context.Context, username, password string) AuthResult {
	tr, err := m.client.Login(ctx, username, password)
	if err != nil {
		return AuthResult{Err: err}
	}

	if tr.AccessToken == "" {
		return AuthResult{Err: ErrNoAccessToken}
	}

	user, expiry, err := m.adopt(ctx, nil, tr.AccessToken, AuthMethodPassword)
	if err != nil {
		return AuthResult{Err: err}
	}

	m.log.Info("login succeeded", "username", user.Username, "auth_method", user.AuthMethod)
	return AuthResult{
		Success:     true,
		User:        user,
		Token:       tr.AccessToken,
		TokenExpiry: expiry,
	}
}

// Register creates an account. It persists nothing: registration is not
// login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) RegisterResult {
	created, err := m.client.Register(ctx, req)
	if err != nil {
		return RegisterResult{Err: err}
	}

	return RegisterResult{Success: true, Data: created}
}

// InitiateSSOLogin requests a provider authorization URL. The caller
// performs the redirect.
func (m *Manager) InitiateSSOLogin(ctx context.Context, returnURL string) (*SSOInitiation, error) {
	return m.client.SSOInitiate(ctx, returnURL)
}

// GetSSOConfig reads provider availability. Never mutates session state.
func (m *Manager) GetSSOConfig(ctx context.Context) (*SSOConfig, error) {
	return m.client.SSOConfig(ctx)
}

// CompleteSSOAuth exchanges the provider code/state. Three outcomes:
// authenticated (credential persisted exactly like Login), conflict (ticket
// returned, nothing persisted), or failure.
func (m *Manager) CompleteSSOAuth(ctx context.Context, code, state string) SSOResult {
	cb, err := m.client.SSOCallback(ctx, code, state)
	if err != nil {
		return SSOResult{Err: err}
	}

	if cb.Conflict {
		m.log.Info("sso completion returned an account conflict")
		return SSOResult{
			Success:  true,
			Conflict: true,
			Ticket: &ConflictTicket{
				TempToken:        cb.TempToken,
				ExistingUserInfo: cb.ExistingUserInfo,
				SSOUserInfo:      cb.SSOUserInfo,
			},
		}
	}

	return m.ssoAuthenticated(ctx, cb)
}

// ResolveSSOConflict redeems a conflict ticket. Success persists a credential
// exactly like Login. The ticket is single-use: this call always reaches the
// server, so a replayed ticket surfaces the server's rejection.
func (m *Manager) ResolveSSOConflict(
	ctx context.Context,
	tempToken, action string,
	preference any,
) SSOResult {
	cb, err := m.client.SSOResolveConflict(ctx, tempToken, action, preference)
	if err != nil {
		return SSOResult{Err: err}
	}

	return m.ssoAuthenticated(ctx, cb)
}

func (m *Manager) ssoAuthenticated(ctx context.Context, cb *SSOCallbackResponse) SSOResult {
	if cb.AccessToken == "" {
		return SSOResult{Err: ErrNoAccessToken}
	}

	user, expiry, err := m.adopt(ctx, nil, cb.AccessToken, AuthMethodSSO)
	if err != nil {
		return SSOResult{Err: err}
	}

	m.log.Info("sso authentication succeeded", "username", user.Username, "is_new_user", cb.IsNewUser)
	return SSOResult{
		Success:     true,
		User:        user,
		Token:       cb.AccessToken,
		TokenExpiry: expiry,
		IsNewUser:   cb.IsNewUser,
	}
}

// Logout clears the persisted session unconditionally. The server
// notification is best-effort: its failure is logged, never surfaced, and
// never blocks the local clear.
func (m *Manager) Logout(ctx context.Context) {
	st, err := m.store.State(ctx)
	if err == nil && st.Token != "" {
		if err := m.client.NotifyLogout(ctx, st.Token); err != nil {
			m.log.Warn("logout notification failed", "error", err.Error())
		}
	}

	if err := m.store.Clear(ctx); err != nil {
		m.log.Error("failed to clear session state", "error", err.Error())
	}
}

// CurrentUser returns the stored user projection, or nil when there is no
// session or the stored credential no longer passes the local expiry check.
func (m *Manager) CurrentUser(ctx context.Context) *User {
	st, err := m.store.State(ctx)
	if err != nil {
		m.log.Error("failed to load session state", "error", err.Error())
		return nil
	}

	if st.Token == "" || !tokenLive(st.Token) {
		return nil
	}

	return st.User
}

// Token returns the stored credential, valid or not. Callers wanting the
// expiry check use IsTokenValid.
func (m *Manager) Token(ctx context.Context) string {
	st, err := m.store.State(ctx)
	if err != nil {
		return ""
	}
	return st.Token
}

// IsTokenValid reports whether token (or the stored credential when token is
// empty) decodes and has an exp claim strictly in the future. Purely local;
// no network round-trip.
func (m *Manager) IsTokenValid(ctx context.Context, token string) bool {
	if token == "" {
		st, err := m.store.State(ctx)
		if err != nil {
			return false
		}
		token = st.Token
	}

	return tokenLive(token)
}

// adopt validates and persists a freshly issued credential together with the
// user projection derived from it. A token failing local validation is
// rejected even though the server answered 2xx. expect generation-guards
// refresh writes; direct authentication events pass nil.
func (m *Manager) adopt(
	ctx context.Context,
	expect *uint64,
	token, method string,
) (*User, time.Time, error) {
	claims, err := jwtx.Decode(token)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("server returned an unusable token: %w", err)
	}

	if err := claims.ValidateExpiry(time.Now()); err != nil {
		return nil, time.Time{}, fmt.Errorf("server returned an invalid token: %w", err)
	}

	user := userFromClaims(claims, method)
	if err := m.store.Write(ctx, expect, token, user); err != nil {
		return nil, time.Time{}, err
	}

	return user, claims.Expiry(), nil
}

// userFromClaims recomputes the session user projection from a credential's
// claims. The projection is never mixed from two credentials.
func userFromClaims(c *jwtx.Claims, method string) *User {
	id := c.UserID
	if id == "" {
		id = c.Subject
	}

	return &User{
		ID:         id,
		Username:   c.Subject,
		Role:       c.Role,
		FullName:   c.FullName,
		Email:      c.Email,
		AuthMethod: method,
		IsAdmin:    IsAdminRole(c.Role),
	}
}

// tokenLive is the local credential check: decodable and exp > now.
func tokenLive(token string) bool {
	claims, err := jwtx.Decode(token)
	return err == nil && claims.ValidateExpiry(time.Now()) == nil
}
