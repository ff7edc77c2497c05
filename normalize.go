package authkit

import (
	"time"

	"github.com/studyhall/authkit/gateway"
)

// NormalizeCredential is the single adapter from any accepted gateway
// response shape to the internal Credential. The token may arrive as
// access_token or token; the refresh handle as refresh_token or session_id;
// the profile flat or nested under user. Downstream components consume only
// the result, never the raw response.
func NormalizeCredential(resp *gateway.AuthResponse, now time.Time) Credential {
	if resp == nil {
		return Credential{}
	}

	profile := resp.UserProfile()

	return Credential{
		AccessToken:  resp.AccessTokenValue(),
		RefreshToken: resp.RefreshTokenValue(),
		UserID:       profile.ID,
		Email:        profile.Email,
		FullName:     profile.FullName,
		Role:         NormalizeRole(profile.Role.First()),
		Permissions:  append([]string(nil), profile.Permissions...),
		IssuedAt:     now,
	}
}

// applyRoleFallbacks fills in a role the profile did not carry. Order:
// the unverified role claim of the access token, then the legacy admin-ID
// list, then the configured default. The profile's own role always wins.
func (c *Client) applyRoleFallbacks(cred Credential, rawProfileRole string) Credential {
	if rawProfileRole != "" {
		return cred
	}

	if claims, ok := inspectToken(cred.AccessToken); ok {
		if claims.Role != "" {
			cred.Role = NormalizeRole(claims.Role)
			return cred
		}
	}

	// Legacy accounts predate the role claim entirely. Matching on a
	// hard-coded ID list is a product-approved compatibility shim, not a
	// pattern to extend.
	for _, id := range c.config.Roles.LegacyAdminUserIDs {
		if id != "" && id == cred.UserID {
			cred.Role = RoleAdmin
			return cred
		}
	}

	cred.Role = NormalizeRole(c.config.Roles.DefaultRole)
	return cred
}
