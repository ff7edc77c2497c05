package authkit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studyhall/authkit/gateway"
)

func TestNormalizeCredentialFlatShape(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	resp := flatAuthResponse("u1", "a@example.com", "teacher", "tok-1")

	cred := NormalizeCredential(resp, now)

	if cred.AccessToken != "tok-1" {
		t.Errorf("AccessToken = %q", cred.AccessToken)
	}
	if cred.RefreshToken != "refresh-u1" {
		t.Errorf("RefreshToken = %q", cred.RefreshToken)
	}
	if cred.UserID != "u1" || cred.Email != "a@example.com" {
		t.Errorf("identity = %q/%q", cred.UserID, cred.Email)
	}
	if cred.Role != RoleInstructor {
		t.Errorf("Role = %q, want normalized instructor", cred.Role)
	}
	if !cred.IssuedAt.Equal(now) {
		t.Errorf("IssuedAt = %v", cred.IssuedAt)
	}
}

func TestNormalizeCredentialNestedShape(t *testing.T) {
	now := time.Now()
	resp := nestedAuthResponse("u2", "b@example.com", "student", "tok-2")

	cred := NormalizeCredential(resp, now)

	if cred.AccessToken != "tok-2" {
		t.Errorf("AccessToken = %q, want session token", cred.AccessToken)
	}
	if cred.RefreshToken != "session-u2" {
		t.Errorf("RefreshToken = %q, want session_id reuse", cred.RefreshToken)
	}
	if cred.UserID != "u2" {
		t.Errorf("UserID = %q", cred.UserID)
	}
}

func TestNormalizeCredentialNil(t *testing.T) {
	cred := NormalizeCredential(nil, time.Now())
	if cred.Valid() {
		t.Fatal("nil response should not produce a valid credential")
	}
}

func TestRoleListUnmarshalShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{`"admin"`, "admin"},
		{`["teacher","student"]`, "teacher"},
		{`null`, ""},
		{`""`, ""},
		{`[]`, ""},
	}

	for _, tc := range cases {
		var roles gateway.RoleList
		if err := roles.UnmarshalJSON([]byte(tc.raw)); err != nil {
			t.Errorf("unmarshal %s: %v", tc.raw, err)
			continue
		}
		if got := roles.First(); got != tc.want {
			t.Errorf("First() after %s = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestApplyRoleFallbacksProfileWins(t *testing.T) {
	client := newTestClient(t, &fakeGateway{}, newTestClock())

	cred := Credential{UserID: "u1", AccessToken: "x", Role: RoleInstructor}
	out := client.applyRoleFallbacks(cred, "teacher")

	if out.Role != RoleInstructor {
		t.Fatalf("profile role should win, got %q", out.Role)
	}
}

func TestApplyRoleFallbacksTokenClaim(t *testing.T) {
	clock := newTestClock()
	client := newTestClient(t, &fakeGateway{}, clock)

	token := signedToken(t, jwt.MapClaims{
		"sub":  "u1",
		"role": "super-admin",
		"exp":  clock.Now().Add(time.Hour).Unix(),
	})

	cred := Credential{UserID: "u1", AccessToken: token}
	out := client.applyRoleFallbacks(cred, "")

	if out.Role != RoleAdmin {
		t.Fatalf("token claim fallback = %q, want admin", out.Role)
	}
}

func TestApplyRoleFallbacksLegacyAdminList(t *testing.T) {
	cfg := testConfig()
	cfg.Roles.LegacyAdminUserIDs = []string{"legacy-7"}
	client := newTestClientWithConfig(t, &fakeGateway{}, newTestClock(), cfg)

	cred := Credential{UserID: "legacy-7", AccessToken: "opaque-token"}
	out := client.applyRoleFallbacks(cred, "")

	if out.Role != RoleAdmin {
		t.Fatalf("legacy admin fallback = %q, want admin", out.Role)
	}
}

func TestApplyRoleFallbacksDefault(t *testing.T) {
	client := newTestClient(t, &fakeGateway{}, newTestClock())

	cred := Credential{UserID: "u9", AccessToken: "opaque-token"}
	out := client.applyRoleFallbacks(cred, "")

	if out.Role != RoleStudent {
		t.Fatalf("default fallback = %q, want student", out.Role)
	}
}
