package authsdk

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/openclinic/medrec/pkg/jwtx"
)

// testToken mints a signed HS256 token shaped like the backend's. mutate
// tweaks the default claim set (alice, role user, exp now+1h).
func testToken(t *testing.T, mutate func(*jwtx.Claims)) string {
	t.Helper()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:     "user",
		UserID:   "u-1",
		FullName: "Alice Nguyen",
		Email:    "alice@example.com",
	}
	if mutate != nil {
		mutate(&claims)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestClient builds an SDKClient that stays silent and skips the logging
// transport so test output is not flooded by deliberate failures.
func newTestClient(endpoints ...string) *SDKClient {
	c := NewSDKClient(endpoints...)
	c.Logger = quietLogger()
	c.HTTPClient = &http.Client{}
	c.AttemptTimeout = 2 * time.Second
	return c
}

func newTestManager(t *testing.T, endpoints ...string) (*Manager, *MemoryStore) {
	t.Helper()

	store := NewMemoryStore()
	return NewManager(newTestClient(endpoints...), store, quietLogger()), store
}

func newServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}
