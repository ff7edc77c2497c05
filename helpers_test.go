package authkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studyhall/authkit/gateway"
)

// fakeGateway lets each test script the gateway per operation. Unscripted
// operations fail loudly.
type fakeGateway struct {
	loginFn    func(ctx context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error)
	registerFn func(ctx context.Context, req gateway.RegisterRequest) error
	verifyFn   func(ctx context.Context, email, otp string) error
	resendFn   func(ctx context.Context, email string) error
	quickFn    func(ctx context.Context, email, key string) (*gateway.AuthResponse, error)
	oauthFn    func(ctx context.Context, req gateway.OAuthExchangeRequest) (*gateway.OAuthResponse, error)

	mu          sync.Mutex
	loginCalls  int
	verifyCalls int
	resendCalls int
	quickCalls  int
}

var errUnscripted = errors.New("fake gateway: operation not scripted")

func (g *fakeGateway) Login(ctx context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error) {
	g.mu.Lock()
	g.loginCalls++
	g.mu.Unlock()
	if g.loginFn == nil {
		return nil, errUnscripted
	}
	return g.loginFn(ctx, req)
}

func (g *fakeGateway) Register(ctx context.Context, req gateway.RegisterRequest) error {
	if g.registerFn == nil {
		return errUnscripted
	}
	return g.registerFn(ctx, req)
}

func (g *fakeGateway) VerifyEmail(ctx context.Context, email, otp string) error {
	g.mu.Lock()
	g.verifyCalls++
	g.mu.Unlock()
	if g.verifyFn == nil {
		return errUnscripted
	}
	return g.verifyFn(ctx, email, otp)
}

func (g *fakeGateway) ResendVerification(ctx context.Context, email string) error {
	g.mu.Lock()
	g.resendCalls++
	g.mu.Unlock()
	if g.resendFn == nil {
		return errUnscripted
	}
	return g.resendFn(ctx, email)
}

func (g *fakeGateway) QuickLogin(ctx context.Context, email, key string) (*gateway.AuthResponse, error) {
	g.mu.Lock()
	g.quickCalls++
	g.mu.Unlock()
	if g.quickFn == nil {
		return nil, errUnscripted
	}
	return g.quickFn(ctx, email, key)
}

func (g *fakeGateway) ExchangeOAuth(ctx context.Context, req gateway.OAuthExchangeRequest) (*gateway.OAuthResponse, error) {
	if g.oauthFn == nil {
		return nil, errUnscripted
	}
	return g.oauthFn(ctx, req)
}

func (g *fakeGateway) callCounts() (login, verify, resend, quick int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loginCalls, g.verifyCalls, g.resendCalls, g.quickCalls
}

// testClock is a settable time source shared between the test and the
// client under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// testConfig relaxes captcha and terms so flow tests do not have to satisfy
// them; dedicated tests turn them back on.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Login.RequireCaptcha = false
	cfg.Login.RequireTerms = false
	return cfg
}

func newTestClient(t *testing.T, gw Gateway, clock *testClock) *Client {
	t.Helper()
	return newTestClientWithConfig(t, gw, clock, testConfig())
}

func newTestClientWithConfig(t *testing.T, gw Gateway, clock *testClock, cfg Config) *Client {
	t.Helper()

	client, err := New().
		WithConfig(cfg).
		WithGateway(gw).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("build client: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func flatAuthResponse(id, email, role, token string) *gateway.AuthResponse {
	return &gateway.AuthResponse{
		Profile: gateway.Profile{
			ID:       id,
			Email:    email,
			FullName: "Test User",
			Role:     gateway.RoleList{role},
		},
		AccessToken:  token,
		RefreshToken: "refresh-" + id,
	}
}

func nestedAuthResponse(id, email, role, token string) *gateway.AuthResponse {
	return &gateway.AuthResponse{
		User: &gateway.Profile{
			ID:       id,
			Email:    email,
			FullName: "Test User",
			Role:     gateway.RoleList{role},
		},
		Token:     token,
		SessionID: "session-" + id,
	}
}

// signedToken builds a real HS256 token so unverified claim inspection has
// something to parse.
func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func mustLogin(t *testing.T, client *Client, input LoginInput) *LoginOutcome {
	t.Helper()

	outcome, err := client.Login(context.Background(), input)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return outcome
}
