package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the subset of access-token claims the client reads. The
// token is opaque by contract; this is best-effort introspection only.
type tokenClaims struct {
	Subject string
	Role    string
	Email   string
	Expiry  time.Time
}

// inspectToken parses the access token WITHOUT signature verification. The
// client holds no gateway keys and must not pretend to validate; claims are
// used only for role/expiry fallbacks, never for authorization decisions.
func inspectToken(tokenStr string) (tokenClaims, bool) {
	if tokenStr == "" {
		return tokenClaims{}, false
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenStr, claims); err != nil {
		return tokenClaims{}, false
	}

	out := tokenClaims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.Expiry = exp.Time
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if email, ok := claims["email"].(string); ok {
		out.Email = email
	}

	return out, true
}

// tokenExpired reports whether the token carries an expiry claim that has
// passed. Tokens without a parseable expiry are treated as live; the
// gateway remains the authority.
func tokenExpired(tokenStr string, now time.Time) bool {
	claims, ok := inspectToken(tokenStr)
	if !ok || claims.Expiry.IsZero() {
		return false
	}
	return now.After(claims.Expiry)
}
