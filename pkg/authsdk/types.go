package authsdk

import (
	"strings"
	"time"
)

// Authentication methods recorded on the user projection.
const (
	AuthMethodPassword = "password"
	AuthMethodSSO      = "sso"
)

// DefaultRole is injected into registration payloads that carry no role.
const DefaultRole = "user"

// Conflict resolution actions accepted by the backend.
const (
	ConflictActionMerge        = "merge"
	ConflictActionKeepSeparate = "keep_separate"
)

// User is the session user projection. It is derived exclusively from the
// credential that produced it and recomputed, never patched, on each
// successful authentication event.
type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	FullName   string `json:"fullName"`
	Email      string `json:"email,omitempty"`
	AuthMethod string `json:"authMethod"`
	IsAdmin    bool   `json:"isAdmin"`
}

// IsAdminRole reports whether role names an administrator. Matching is
// case-insensitive membership, not raw equality: "Administrator" counts.
func IsAdminRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin", "administrator":
		return true
	}
	return false
}

// TokenResponse is the body of a successful login or refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// RegisterRequest is the JSON payload for account registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

// RegisteredUser is the backend's echo of a created account. Registration is
// not login: no credential is involved.
type RegisteredUser struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role"`
}

// RegistrationStatus is the body of the registration-status probe.
type RegistrationStatus struct {
	RegistrationEnabled bool `json:"registration_enabled"`
}

// SSOConfig describes provider availability. Reading it never mutates
// session state.
type SSOConfig struct {
	Enabled             bool   `json:"enabled"`
	ProviderType        string `json:"provider_type,omitempty"`
	RegistrationEnabled *bool  `json:"registration_enabled,omitempty"`
}

// SSOInitiation is the backend's answer to an SSO initiation: the provider
// authorization URL the caller must redirect to.
type SSOInitiation struct {
	AuthURL  string `json:"auth_url"`
	Provider string `json:"provider"`
}

// SSOCallbackResponse is the dual-shaped body of the SSO callback and
// conflict-resolution endpoints: either a credential or a conflict ticket.
type SSOCallbackResponse struct {
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	IsNewUser   bool   `json:"is_new_user,omitempty"`

	Conflict         bool           `json:"conflict,omitempty"`
	TempToken        string         `json:"temp_token,omitempty"`
	ExistingUserInfo map[string]any `json:"existing_user_info,omitempty"`
	SSOUserInfo      map[string]any `json:"sso_user_info,omitempty"`
}

// ConflictTicket is the single-use ticket returned when an SSO identity maps
// to more than one possible local account. Redeeming it is never retried or
// cached client-side.
type ConflictTicket struct {
	TempToken        string         `json:"temp_token"`
	ExistingUserInfo map[string]any `json:"existing_user_info"`
	SSOUserInfo      map[string]any `json:"sso_user_info"`
}

// AuthResult is the discriminated outcome of Login: Success with a persisted
// credential, or a failure whose Err carries the reason.
type AuthResult struct {
	Success     bool
	User        *User
	Token       string
	TokenExpiry time.Time
	Err         error
}

// RegisterResult is the discriminated outcome of Register.
type RegisterResult struct {
	Success bool
	Data    *RegisteredUser
	Err     error
}

// SSOResult is the three-way outcome of SSO completion and conflict
// resolution. Exactly one branch applies: authenticated (Success && !Conflict),
// conflict (Success && Conflict, Ticket set, nothing persisted), or failure
// (Err set). Conflict is an expected branch, not an error.
type SSOResult struct {
	Success     bool
	Conflict    bool
	User        *User
	Token       string
	TokenExpiry time.Time
	IsNewUser   bool
	Ticket      *ConflictTicket
	Err         error
}
