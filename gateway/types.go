package gateway

import (
	"bytes"
	"encoding/json"
)

// RoleList tolerates the gateway's role field being either a plain string or
// an array of strings. Older gateway builds send a string, newer ones a list.
type RoleList []string

// UnmarshalJSON accepts "student", ["student", ...], and null.
func (r *RoleList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = nil
		return nil
	}

	if trimmed[0] == '"' {
		var single string
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		if single == "" {
			*r = nil
			return nil
		}
		*r = RoleList{single}
		return nil
	}

	var list []string
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return err
	}
	*r = RoleList(list)
	return nil
}

// First returns the first non-empty role, or "".
func (r RoleList) First() string {
	for _, role := range r {
		if role != "" {
			return role
		}
	}
	return ""
}

// Profile is the user object carried by auth responses, either flattened at
// the top level or nested under "user".
type Profile struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	AvatarURL     string   `json:"avatar_url,omitempty"`
	Role          RoleList `json:"role"`
	Permissions   []string `json:"permissions"`
	EmailVerified *bool    `json:"email_verified"`
}

// AuthResponse is the union-shaped payload returned by login and quick-login.
// Two shapes are accepted and must stay accepted:
//
//	flat:   {id, email, ..., access_token, refresh_token}
//	nested: {user: {...}, token, session_id}
//
// Callers must go through the accessor methods instead of reading fields, so
// the shape difference never leaks past this type.
type AuthResponse struct {
	Profile

	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	User      *Profile `json:"user"`
	Token     string   `json:"token"`
	SessionID string   `json:"session_id"`

	QuickLoginKey string `json:"quick_login_key,omitempty"`
}

// UserProfile returns the nested profile when present, the flat one otherwise.
func (r *AuthResponse) UserProfile() Profile {
	if r == nil {
		return Profile{}
	}
	if r.User != nil {
		return *r.User
	}
	return r.Profile
}

// AccessTokenValue resolves the access token across both shapes.
func (r *AuthResponse) AccessTokenValue() string {
	if r == nil {
		return ""
	}
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}

// RefreshTokenValue resolves the refresh token across both shapes. The nested
// shape reuses session_id as the refresh handle.
func (r *AuthResponse) RefreshTokenValue() string {
	if r == nil {
		return ""
	}
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.SessionID
}

// EmailUnverified reports whether the gateway explicitly flagged the account
// as unverified. Absent email_verified means verified; only an explicit false
// routes the caller into the OTP flow.
func (r *AuthResponse) EmailUnverified() bool {
	if r == nil {
		return false
	}
	verified := r.UserProfile().EmailVerified
	return verified != nil && !*verified
}

// HasCredentials reports whether the payload is complete enough to build a
// session from: a resolvable token plus a user id. Registration verifications
// carry partial payloads that fail this check and require a re-login.
func (r *AuthResponse) HasCredentials() bool {
	return r.AccessTokenValue() != "" && r.UserProfile().ID != ""
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PhoneNumber is a country-qualified phone entry on registration.
type PhoneNumber struct {
	Country string `json:"country"`
	Number  string `json:"number"`
}

// RegisterMeta carries profile metadata that is not a first-class column.
type RegisterMeta struct {
	AgeGroup string `json:"age_group,omitempty"`
}

// RegisterRequest is the body of POST /v1/auth/register. A successful
// registration leaves the account pending email verification.
type RegisterRequest struct {
	FullName     string        `json:"full_name"`
	Email        string        `json:"email"`
	Password     string        `json:"password"`
	PhoneNumbers []PhoneNumber `json:"phone_numbers"`
	AgreeTerms   bool          `json:"agree_terms"`
	Role         []string      `json:"role"`
	Meta         RegisterMeta  `json:"meta"`
}

// VerifyEmailRequest is the body of POST /v1/auth/verify-email.
type VerifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResendVerificationRequest is the body of POST /v1/auth/resend-verification.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// QuickLoginRequest is the body of POST /v1/auth/quick-login.
type QuickLoginRequest struct {
	Email         string `json:"email"`
	QuickLoginKey string `json:"quick_login_key"`
}

// OAuthExchangeRequest finalizes a popup-based OAuth redirect. Provider is
// the lowercase provider name ("google", "github").
type OAuthExchangeRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	State    string `json:"state"`
}

// OAuthResponse is an AuthResponse plus the OAuth-only flags.
type OAuthResponse struct {
	AuthResponse

	IsNewUser     bool `json:"is_new_user"`
	AccountMerged bool `json:"account_merged"`
}
