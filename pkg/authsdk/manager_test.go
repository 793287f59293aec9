package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/medrec/pkg/jwtx"
)

func TestLoginSuccessPersistsCredential(t *testing.T) {
	t.Parallel()

	token := testToken(t, nil)
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		require.NoError(t, r.ParseForm())
		require.Equal(t, "alice", r.PostForm.Get("username"))
		require.Equal(t, "secret", r.PostForm.Get("password"))
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"access_token":%q,"token_type":"bearer"}`, token))
	}))

	m, store := newTestManager(t, srv.URL)
	res := m.Login(context.Background(), "alice", "secret")

	require.NoError(t, res.Err)
	require.True(t, res.Success)
	require.Equal(t, token, res.Token)
	require.Equal(t, "alice", res.User.Username)
	require.Equal(t, "u-1", res.User.ID)
	require.Equal(t, AuthMethodPassword, res.User.AuthMethod)
	require.False(t, res.User.IsAdmin)
	require.WithinDuration(t, time.Now().Add(time.Hour), res.TokenExpiry, 5*time.Second)

	st, err := store.State(context.Background())
	require.NoError(t, err)
	require.Equal(t, token, st.Token)
	require.Equal(t, "alice", st.User.Username)
}

func TestLoginFailureCarriesServerDetailVerbatim(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, `{"detail":"Invalid credentials"}`)
	}))

	m, store := newTestManager(t, srv.URL)
	res := m.Login(context.Background(), "alice", "wrong")

	require.False(t, res.Success)
	require.EqualError(t, res.Err, "Invalid credentials")

	st, err := store.State(context.Background())
	require.NoError(t, err)
	require.Empty(t, st.Token, "nothing may be persisted on failure")
}

func TestLoginWithoutAccessTokenFails(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"token_type":"bearer"}`)
	}))

	m, store := newTestManager(t, srv.URL)
	res := m.Login(context.Background(), "alice", "secret")

	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, ErrNoAccessToken)

	st, _ := store.State(context.Background())
	require.Empty(t, st.Token)
}

func TestLoginRejectsExpiredTokenFromServer(t *testing.T) {
	t.Parallel()

	// The server says 2xx but hands over a token that fails the local expiry
	// check (skewed or malformed server clock).
	stale := testToken(t, func(c *jwtx.Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	})
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, stale))
	}))

	m, store := newTestManager(t, srv.URL)
	res := m.Login(context.Background(), "alice", "secret")

	require.False(t, res.Success)
	require.Error(t, res.Err)

	st, _ := store.State(context.Background())
	require.Empty(t, st.Token)
}

func TestLoginAllEndpointsDown(t *testing.T) {
	t.Parallel()

	m, _ := newTestManager(t, "http://127.0.0.1:1", "http://127.0.0.1:2")
	res := m.Login(context.Background(), "alice", "secret")

	require.False(t, res.Success)
	var endpointsErr *EndpointsError
	require.ErrorAs(t, res.Err, &endpointsErr)
	require.Contains(t, res.Err.Error(), "all endpoints failed")
}

func TestIsAdminRoleMembership(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"admin":         true,
		"Admin":         true,
		"ADMINISTRATOR": true,
		"administrator": true,
		" admin ":       true,
		"user":          false,
		"admins":        false,
		"":              false,
	}
	for role, want := range cases {
		require.Equal(t, want, IsAdminRole(role), "role %q", role)
	}
}

func TestAdminUserDerivedFromAdministratorRole(t *testing.T) {
	t.Parallel()

	token := testToken(t, func(c *jwtx.Claims) { c.Role = "administrator" })
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, fmt.Sprintf(`{"access_token":%q}`, token))
	}))

	m, _ := newTestManager(t, srv.URL)
	res := m.Login(context.Background(), "alice", "secret")
	require.True(t, res.Success)
	require.True(t, res.User.IsAdmin)
}

func TestIsTokenValid(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t, "http://127.0.0.1:1")
	ctx := context.Background()

	require.False(t, m.IsTokenValid(ctx, "garbage"))
	require.False(t, m.IsTokenValid(ctx, ""), "no stored token")

	expired := testToken(t, func(c *jwtx.Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Second))
	})
	require.False(t, m.IsTokenValid(ctx, expired))

	live := testToken(t, nil)
	require.True(t, m.IsTokenValid(ctx, live))

	require.NoError(t, store.Write(ctx, nil, live, &User{Username: "alice"}))
	require.True(t, m.IsTokenValid(ctx, ""), "stored token used when none given")
}

func TestCurrentUserHidesExpiredSession(t *testing.T) {
	t.Parallel()

	m, store := newTestManager(t, "http://127.0.0.1:1")
	ctx := context.Background()

	require.Nil(t, m.CurrentUser(ctx))

	live := testToken(t, nil)
	require.NoError(t, store.Write(ctx, nil, live, &User{Username: "alice"}))
	require.NotNil(t, m.CurrentUser(ctx))

	expired := testToken(t, func(c *jwtx.Claims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Second))
	})
	require.NoError(t, store.Write(ctx, nil, expired, &User{Username: "alice"}))
	require.Nil(t, m.CurrentUser(ctx), "expired credential means no current user")
}

func TestLogoutClearsSessionEvenWhenNotifyFails(t *testing.T) {
	t.Parallel()

	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, `{"detail":"backend down"}`)
	}))

	m, store := newTestManager(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, nil, testToken(t, nil), &User{Username: "alice"}))

	m.Logout(ctx)

	st, err := store.State(ctx)
	require.NoError(t, err)
	require.Empty(t, st.Token)
	require.Nil(t, st.User)
}

func TestLogoutNotifiesServerWithBearer(t *testing.T) {
	t.Parallel()

	token := testToken(t, nil)
	notified := make(chan string, 1)
	srv := newServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/logout", r.URL.Path)
		notified <- r.Header.Get("Authorization")
		writeJSON(t, w, http.StatusOK, `{}`)
	}))

	m, store := newTestManager(t, srv.URL)
	ctx := context.Background()
	require.NoError(t, store.Write(ctx, nil, token, &User{Username: "alice"}))

	m.Logout(ctx)
	require.Equal(t, "Bearer "+token, <-notified)
}
