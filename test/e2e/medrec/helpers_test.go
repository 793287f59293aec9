package medrec_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/medrec/internal/session/sqlite"
	"github.com/openclinic/medrec/pkg/authsdk"
	"github.com/openclinic/medrec/pkg/jwtx"
)

/*
 * Common helpers for client end-to-end tests. The backend is an in-process
 * fake implementing the wire contract: credential login, registration, token
 * refresh, SSO with account conflicts and one protected data endpoint.
 */

const (
	signingKey = "e2e-signing-key"
	sealSecret = "e2e-seal-secret"

	aliceUsername = "alice"
	alicePassword = "Alice123!"
)

// fakeBackend is a minimal in-memory rendition of the real service.
type fakeBackend struct {
	mu sync.Mutex

	tokenTTL            time.Duration
	registrationEnabled bool

	accounts map[string]string // username -> password
	roles    map[string]string // username -> role

	revoked  map[string]bool // tokens invalidated server-side
	tickets  map[string]bool // outstanding conflict tickets
	refreshs int
	mints    int // distinct jti per issued token, like a real issuer
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		tokenTTL:            time.Hour,
		registrationEnabled: true,
		accounts:            map[string]string{aliceUsername: alicePassword},
		roles:               map[string]string{aliceUsername: "user"},
		revoked:             map[string]bool{},
		tickets:             map[string]bool{},
	}
}

func (b *fakeBackend) mint(t *testing.T, username string) string {
	t.Helper()

	b.mu.Lock()
	role := b.roles[username]
	ttl := b.tokenTTL
	b.mints++
	serial := b.mints
	b.mu.Unlock()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        fmt.Sprintf("jti-%d", serial),
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
		Role:   role,
		UserID: "id-" + username,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString([]byte(signingKey))
	require.NoError(t, err)
	return token
}

// revoke invalidates every currently issued token, as a server-side session
// purge would.
func (b *fakeBackend) revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

func (b *fakeBackend) refreshCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshs
}

func (b *fakeBackend) handler(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		username := r.PostForm.Get("username")

		b.mu.Lock()
		ok := b.accounts[username] == r.PostForm.Get("password") && r.PostForm.Get("password") != ""
		b.mu.Unlock()
		if !ok {
			reply(t, w, http.StatusUnauthorized, map[string]any{"detail": "Invalid credentials"})
			return
		}
		reply(t, w, http.StatusOK, map[string]any{"access_token": b.mint(t, username), "token_type": "bearer"})
	})

	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		enabled := b.registrationEnabled
		b.mu.Unlock()
		if !enabled {
			reply(t, w, http.StatusForbidden, map[string]any{
				"error":  "registration_disabled",
				"detail": "Registration is disabled",
			})
			return
		}

		var req authsdk.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		b.mu.Lock()
		b.accounts[req.Username] = req.Password
		b.roles[req.Username] = req.Role
		b.mu.Unlock()

		reply(t, w, http.StatusCreated, map[string]any{"username": req.Username, "role": req.Role})
	})

	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		username, ok := b.authenticate(r, true)
		if !ok {
			reply(t, w, http.StatusUnauthorized, map[string]any{"detail": "Refresh rejected"})
			return
		}

		b.mu.Lock()
		b.refreshs++
		b.mu.Unlock()
		reply(t, w, http.StatusOK, map[string]any{"access_token": b.mint(t, username)})
	})

	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, http.StatusOK, map[string]any{})
	})

	mux.HandleFunc("GET /api/auth/registration-status", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		enabled := b.registrationEnabled
		b.mu.Unlock()
		reply(t, w, http.StatusOK, map[string]any{"registration_enabled": enabled})
	})

	mux.HandleFunc("GET /api/auth/sso/config", func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, http.StatusOK, map[string]any{"enabled": true, "provider_type": "oidc"})
	})

	mux.HandleFunc("POST /api/auth/sso/login", func(w http.ResponseWriter, r *http.Request) {
		reply(t, w, http.StatusOK, map[string]any{
			"auth_url": "https://idp.example.com/authorize?state=xyz",
			"provider": "oidc",
		})
	})

	mux.HandleFunc("POST /api/auth/sso/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")

		// A code naming an existing local account triggers the conflict path.
		if code == "conflict" {
			ticket := fmt.Sprintf("tmp-%d", time.Now().UnixNano())
			b.mu.Lock()
			b.tickets[ticket] = true
			b.mu.Unlock()

			reply(t, w, http.StatusOK, map[string]any{
				"conflict":           true,
				"temp_token":         ticket,
				"existing_user_info": map[string]any{"username": aliceUsername, "auth_method": "password"},
				"sso_user_info":      map[string]any{"email": "alice@idp.example.com"},
			})
			return
		}

		b.mu.Lock()
		b.roles["sso-"+code] = "user"
		b.mu.Unlock()
		reply(t, w, http.StatusOK, map[string]any{
			"access_token": b.mint(t, "sso-"+code),
			"is_new_user":  true,
		})
	})

	mux.HandleFunc("POST /api/auth/sso/resolve-conflict", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TempToken string `json:"temp_token"`
			Action    string `json:"action"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		b.mu.Lock()
		live := b.tickets[req.TempToken]
		delete(b.tickets, req.TempToken)
		b.mu.Unlock()
		if !live {
			reply(t, w, http.StatusUnauthorized, map[string]any{"detail": "Conflict token already used"})
			return
		}

		reply(t, w, http.StatusOK, map[string]any{"access_token": b.mint(t, aliceUsername)})
	})

	mux.HandleFunc("GET /api/patients", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := b.authenticate(r, false); !ok {
			reply(t, w, http.StatusUnauthorized, map[string]any{"detail": "Token expired"})
			return
		}
		reply(t, w, http.StatusOK, map[string]any{"patients": []string{"Jo", "Sam"}})
	})

	return mux
}

// authenticate checks the bearer token. allowRevoked lets the refresh
// endpoint accept a token whose session was purged for data access but can
// still prove identity.
func (b *fakeBackend) authenticate(r *http.Request, allowRevoked bool) (string, bool) {
	auth := r.Header.Get("Authorization")
	if len(auth) < 8 || auth[:7] != "Bearer " {
		return "", false
	}
	raw := auth[7:]

	b.mu.Lock()
	revoked := b.revoked[raw]
	b.mu.Unlock()
	if revoked && !allowRevoked {
		return "", false
	}

	claims, err := jwtx.Decode(raw)
	if err != nil || claims.ValidateExpiry(time.Now()) != nil {
		return "", false
	}
	return claims.Subject, true
}

func reply(t *testing.T, w http.ResponseWriter, status int, body map[string]any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

// testEnv wires a fake backend to a manager backed by a real sqlite session
// file, the same shape the CLI runs with.
type testEnv struct {
	backend   *fakeBackend
	server    *httptest.Server
	store     *sqlite.Store
	storePath string
	manager   *authsdk.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newFakeBackend()
	server := httptest.NewServer(backend.handler(t))
	t.Cleanup(server.Close)

	storePath := filepath.Join(t.TempDir(), "session.db")
	store, err := sqlite.NewStore(storePath, []byte(sealSecret))
	require.NoError(t, err)
	require.NoError(t, store.ApplyMigrations())
	t.Cleanup(func() { _ = store.Close() })

	client := authsdk.NewSDKClient(server.URL)
	client.HTTPClient = &http.Client{}
	client.AttemptTimeout = 5 * time.Second

	return &testEnv{
		backend:   backend,
		server:    server,
		store:     store,
		storePath: storePath,
		manager:   authsdk.NewManager(client, store, nil),
	}
}
