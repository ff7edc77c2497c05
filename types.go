package authkit

import (
	"context"
	"time"

	"github.com/studyhall/authkit/gateway"
)

// Credential is the single normalized session credential every component
// downstream of the gateway consumes. Both accepted gateway response shapes
// collapse into this type at the boundary (see NormalizeCredential).
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Permissions  []string  `json:"permissions,omitempty"`
	IssuedAt     time.Time `json:"issued_at"`
}

// Valid reports whether the credential can back a session. The only
// requirement is a non-empty access token.
func (c Credential) Valid() bool { return c.AccessToken != "" }

// RememberedAccount is one entry of the on-device account picker. At most
// one entry exists per email.
type RememberedAccount struct {
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	AvatarURL     string    `json:"avatar_url,omitempty"`
	Role          string    `json:"role"`
	Provider      string    `json:"provider"`
	LastLoginAt   time.Time `json:"last_login_at"`
	QuickLoginKey string    `json:"quick_login_key,omitempty"`
	KeyIssuedAt   time.Time `json:"key_issued_at,omitempty"`
	BiometricRef  string    `json:"biometric_ref,omitempty"`
}

// NeedsPassword reports whether quick login is unavailable for this account:
// no key, or a key older than the freshness window.
func (a RememberedAccount) NeedsPassword(now time.Time, window time.Duration) bool {
	if a.QuickLoginKey == "" {
		return true
	}
	if a.KeyIssuedAt.IsZero() {
		return true
	}
	return now.Sub(a.KeyIssuedAt) > window
}

// AccountListEntry is a RememberedAccount annotated for rendering the
// account-selection screen.
type AccountListEntry struct {
	RememberedAccount

	// NeedsPassword disables the quick-login submit path for this entry.
	NeedsPassword bool
	// MostRecent flags the most-recently-used account.
	MostRecent bool
}

// CredentialStore is the single seam in front of on-device storage. All
// reads and writes of session and remembered-account state go through it;
// no component touches storage keys directly.
//
// Implementations are last-write-wins across concurrent processes. That is
// an accepted property of the product, not something stores must prevent.
type CredentialStore interface {
	Credential(ctx context.Context) (Credential, error)
	SaveCredential(ctx context.Context, cred Credential) error
	ClearCredential(ctx context.Context) error

	RememberedAccounts(ctx context.Context) ([]RememberedAccount, error)
	UpsertRememberedAccount(ctx context.Context, account RememberedAccount) error
	RemoveRememberedAccount(ctx context.Context, email string) error

	RememberMe(ctx context.Context) (enabled bool, email string, err error)
	SetRememberMe(ctx context.Context, enabled bool, email string) error
}

// Gateway is the remote auth gateway contract the flows consume. The
// production implementation is [gateway.Client]; tests substitute fakes.
type Gateway interface {
	Login(ctx context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error)
	Register(ctx context.Context, req gateway.RegisterRequest) error
	VerifyEmail(ctx context.Context, email, otp string) error
	ResendVerification(ctx context.Context, email string) error
	QuickLogin(ctx context.Context, email, key string) (*gateway.AuthResponse, error)
	ExchangeOAuth(ctx context.Context, req gateway.OAuthExchangeRequest) (*gateway.OAuthResponse, error)
}

// BiometricAuthenticator abstracts the platform authenticator. Available
// reports capability; Authenticate runs the ceremony against the account's
// bound credential reference and returns quick-login key material.
type BiometricAuthenticator interface {
	Available(ctx context.Context) bool
	Authenticate(ctx context.Context, credentialRef string) (string, error)
}

// LoginState is the tagged state of a finished login attempt. Modeling the
// outcome as one enum keeps illegal flag combinations unrepresentable.
type LoginState uint8

const (
	// LoginAuthenticated means a credential was persisted and a destination
	// resolved.
	LoginAuthenticated LoginState = iota
	// LoginVerificationRequired means the flow branched into an OTP
	// verification session.
	LoginVerificationRequired
	// LoginLocked means the gateway reported a lockout condition.
	LoginLocked
)

// LoginOutcome is returned by Login, QuickLogin, and verification
// completion. Exactly the fields of the tagged state are set.
type LoginOutcome struct {
	State LoginState

	// Credential and Destination are set when State is LoginAuthenticated.
	Credential  Credential
	Destination string

	// Verification is set when State is LoginVerificationRequired.
	Verification *VerificationSession

	// UnlockAt optionally accompanies LoginLocked.
	UnlockAt *time.Time
}

// LoginInput is the primary login form.
type LoginInput struct {
	Email    string
	Password string

	AcceptedTerms bool
	// CaptchaToken is the single-use human-verification token. When empty,
	// the token cached via CacheCaptchaToken is used.
	CaptchaToken string

	RememberMe bool

	// Redirect, when well-formed, overrides role-based routing.
	Redirect string
	// DemoIntent routes to the role-specific demo-booking page when no
	// explicit redirect is present.
	DemoIntent bool
}

// RegisterInput is the registration form.
type RegisterInput struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string

	// PhoneCountryCode is the country calling code ("1", "91", "+44").
	PhoneCountryCode string
	PhoneNumber      string

	AgeGroup      string
	AcceptedTerms bool
	CaptchaToken  string

	Redirect   string
	DemoIntent bool
}

// OAuthOutcome is the result of a completed OAuth exchange. OAuth providers
// pre-verify email, so the OTP flow is bypassed entirely.
type OAuthOutcome struct {
	Credential  Credential
	Destination string

	IsNewUser     bool
	AccountMerged bool
}
