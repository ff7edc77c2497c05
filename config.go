package authkit

import (
	"errors"
	"time"
)

// Config groups per-concern settings. Configure once, pass to
// [Builder.WithConfig], and treat as immutable afterwards.
type Config struct {
	Gateway      GatewayConfig
	Login        LoginConfig
	QuickLogin   QuickLoginConfig
	Verification VerificationConfig
	RememberMe   RememberMeConfig
	Roles        RolesConfig
	Analytics    AnalyticsConfig
	Metrics      MetricsConfig
}

/*
====================================
GATEWAY CONFIG
====================================
*/

// GatewayConfig configures the built-in HTTP gateway client. Ignored when a
// Gateway implementation is injected via [Builder.WithGateway].
type GatewayConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig holds the client-side preconditions of the primary login form.
type LoginConfig struct {
	MinPasswordLength int
	RequireCaptcha    bool
	RequireTerms      bool
}

/*
====================================
QUICK LOGIN CONFIG
====================================
*/

// QuickLoginConfig controls the key-based login path.
type QuickLoginConfig struct {
	// KeyFreshnessWindow is how long a quick-login key stays usable. An
	// account with an older key needs password entry again. The 30-day
	// default is product policy; change only when directed.
	KeyFreshnessWindow time.Duration
}

/*
====================================
VERIFICATION CONFIG
====================================
*/

// VerificationConfig controls the email OTP flow.
type VerificationConfig struct {
	CodeLength     int
	ResendCooldown time.Duration
}

/*
====================================
REMEMBER ME CONFIG
====================================
*/

// RememberMeConfig controls the long-lived remembered-login window. The
// 30-day default mirrors the product's remember-me cookie duration.
type RememberMeConfig struct {
	Window time.Duration
}

/*
====================================
ROLES CONFIG
====================================
*/

// RolesConfig controls role normalization fallbacks.
type RolesConfig struct {
	// DefaultRole is assigned when the gateway reports no recognizable
	// role.
	DefaultRole string

	// LegacyAdminUserIDs grants the admin role to specific user IDs whose
	// accounts predate the role claim. This is a compatibility shim for a
	// missing server-side claim, pending product confirmation; do not add
	// IDs for any other purpose.
	LegacyAdminUserIDs []string
}

/*
====================================
ANALYTICS / METRICS CONFIG
====================================
*/

// AnalyticsConfig controls the async analytics dispatcher.
type AnalyticsConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking flows on a slow sink.
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

const (
	defaultMinPasswordLength  = 8
	defaultCodeLength         = 6
	defaultResendCooldown     = 30 * time.Second
	defaultKeyFreshnessWindow = 30 * 24 * time.Hour
	defaultRememberMeWindow   = 30 * 24 * time.Hour
	defaultGatewayTimeout     = 15 * time.Second
)

// DefaultConfig returns the product-policy defaults. Callers adjust fields
// and pass the result to [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Timeout: defaultGatewayTimeout,
		},
		Login: LoginConfig{
			MinPasswordLength: defaultMinPasswordLength,
			RequireCaptcha:    true,
			RequireTerms:      true,
		},
		QuickLogin: QuickLoginConfig{
			KeyFreshnessWindow: defaultKeyFreshnessWindow,
		},
		Verification: VerificationConfig{
			CodeLength:     defaultCodeLength,
			ResendCooldown: defaultResendCooldown,
		},
		RememberMe: RememberMeConfig{
			Window: defaultRememberMeWindow,
		},
		Roles: RolesConfig{
			DefaultRole: RoleStudent,
		},
		Analytics: AnalyticsConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the flows cannot honor.
func (c Config) Validate() error {
	if c.Login.MinPasswordLength < 1 {
		return errors.New("login: MinPasswordLength must be at least 1")
	}
	if c.Verification.CodeLength < 4 || c.Verification.CodeLength > 10 {
		return errors.New("verification: CodeLength must be between 4 and 10")
	}
	if c.Verification.ResendCooldown <= 0 {
		return errors.New("verification: ResendCooldown must be positive")
	}
	if c.QuickLogin.KeyFreshnessWindow <= 0 {
		return errors.New("quicklogin: KeyFreshnessWindow must be positive")
	}
	if c.RememberMe.Window <= 0 {
		return errors.New("rememberme: Window must be positive")
	}
	if c.Roles.DefaultRole == "" {
		return errors.New("roles: DefaultRole required")
	}
	if c.Analytics.Enabled && c.Analytics.BufferSize <= 0 {
		return errors.New("analytics: BufferSize must be positive when enabled")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	if len(cfg.Roles.LegacyAdminUserIDs) > 0 {
		out.Roles.LegacyAdminUserIDs = append([]string(nil), cfg.Roles.LegacyAdminUserIDs...)
	}
	return out
}
