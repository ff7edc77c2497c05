package authkit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studyhall/authkit/gateway"
)

func TestLogoutClearsCredentialKeepsAccounts(t *testing.T) {
	clock := newTestClock()
	gw := &fakeGateway{
		loginFn: func(_ context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error) {
			return flatAuthResponse("u1", req.Email, "student", "tok-1"), nil
		},
	}
	client := newTestClient(t, gw, clock)

	mustLogin(t, client, LoginInput{Email: "a@b.co", Password: "longenough", RememberMe: true})

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	cred, _ := client.store.Credential(context.Background())
	if cred.Valid() {
		t.Fatal("credential must be cleared")
	}
	accounts, _ := client.store.RememberedAccounts(context.Background())
	if len(accounts) != 1 {
		t.Fatal("remembered accounts must survive logout")
	}
}

func TestRestoreSessionNoSession(t *testing.T) {
	client := newTestClient(t, &fakeGateway{}, newTestClock())

	_, err := client.RestoreSession(context.Background())
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v", err)
	}
}

func TestRestoreSessionLiveToken(t *testing.T) {
	clock := newTestClock()
	client := newTestClient(t, &fakeGateway{}, clock)

	token := signedToken(t, jwt.MapClaims{
		"sub": "u1",
		"exp": clock.Now().Add(time.Hour).Unix(),
	})
	cred := Credential{AccessToken: token, UserID: "u1", Email: "a@b.co", Role: RoleStudent}
	if err := client.store.SaveCredential(context.Background(), cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := client.RestoreSession(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.UserID != "u1" {
		t.Fatalf("restored = %+v", restored)
	}
}

func TestRestoreSessionExpiredTokenClears(t *testing.T) {
	clock := newTestClock()
	client := newTestClient(t, &fakeGateway{}, clock)

	token := signedToken(t, jwt.MapClaims{
		"sub": "u1",
		"exp": clock.Now().Add(-time.Hour).Unix(),
	})
	cred := Credential{AccessToken: token, UserID: "u1"}
	if err := client.store.SaveCredential(context.Background(), cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err := client.RestoreSession(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("got %v", err)
	}

	stored, _ := client.store.Credential(context.Background())
	if stored.Valid() {
		t.Fatal("expired credential must be cleared")
	}
}

func TestRestoreSessionOpaqueTokenTreatedLive(t *testing.T) {
	client := newTestClient(t, &fakeGateway{}, newTestClock())

	cred := Credential{AccessToken: "not-a-jwt", UserID: "u1"}
	if err := client.store.SaveCredential(context.Background(), cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := client.RestoreSession(context.Background()); err != nil {
		t.Fatalf("opaque tokens are the gateway's problem, got %v", err)
	}
}

func TestAnalyticsEventsCarryContextMetadata(t *testing.T) {
	sink := NewChannelSink(16)
	gw := &fakeGateway{
		loginFn: func(_ context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error) {
			return flatAuthResponse("u1", req.Email, "student", "tok-1"), nil
		},
	}

	client, err := New().
		WithConfig(testConfig()).
		WithGateway(gw).
		WithClock(newTestClock().Now).
		WithAnalyticsSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	ctx := WithLocale(WithDeviceID(context.Background(), "device-42"), "en-GB")
	if _, err := client.Login(ctx, LoginInput{Email: "a@b.co", Password: "longenough"}); err != nil {
		t.Fatalf("login: %v", err)
	}
	client.Close() // drains the dispatcher

	select {
	case event := <-sink.Events():
		if event.EventType != "login" || !event.Success {
			t.Fatalf("event = %+v", event)
		}
		if event.UserID != "u1" || event.EventID == "" {
			t.Errorf("event identity = %+v", event)
		}
		if event.Metadata["device_id"] != "device-42" || event.Metadata["locale"] != "en-GB" {
			t.Errorf("metadata = %+v", event.Metadata)
		}
	default:
		t.Fatal("no analytics event emitted")
	}
}

func TestAnalyticsDisabledEmitsNothing(t *testing.T) {
	cfg := testConfig()
	cfg.Analytics.Enabled = false

	sink := NewChannelSink(16)
	gw := &fakeGateway{
		loginFn: func(_ context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error) {
			return flatAuthResponse("u1", req.Email, "student", "tok-1"), nil
		},
	}

	client, err := New().
		WithConfig(cfg).
		WithGateway(gw).
		WithClock(newTestClock().Now).
		WithAnalyticsSink(sink).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer client.Close()

	mustLogin(t, client, LoginInput{Email: "a@b.co", Password: "longenough"})

	select {
	case event := <-sink.Events():
		t.Fatalf("unexpected event %+v", event)
	default:
	}
}

func TestMetricsSnapshotCountsFlows(t *testing.T) {
	gw := &fakeGateway{
		loginFn: func(_ context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error) {
			return flatAuthResponse("u1", req.Email, "student", "tok-1"), nil
		},
	}
	client := newTestClient(t, gw, newTestClock())

	mustLogin(t, client, LoginInput{Email: "a@b.co", Password: "longenough"})
	mustLogin(t, client, LoginInput{Email: "a@b.co", Password: "longenough"})

	snap := client.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("success counter = %d", snap.Counters[MetricLoginSuccess])
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false

	gw := &fakeGateway{
		loginFn: func(_ context.Context, req gateway.LoginRequest) (*gateway.AuthResponse, error) {
			return flatAuthResponse("u1", req.Email, "student", "tok-1"), nil
		},
	}
	client := newTestClientWithConfig(t, gw, newTestClock(), cfg)

	mustLogin(t, client, LoginInput{Email: "a@b.co", Password: "longenough"})

	snap := client.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 0 {
		t.Fatalf("disabled metrics must stay zero, got %d", snap.Counters[MetricLoginSuccess])
	}
}

func TestBuilderSingleUse(t *testing.T) {
	builder := New().WithGateway(&fakeGateway{})

	if _, err := builder.Build(); err != nil {
		t.Fatalf("first build: %v", err)
	}
	if _, err := builder.Build(); err == nil {
		t.Fatal("second build must fail")
	}
}

func TestBuilderRequiresGatewayOrBaseURL(t *testing.T) {
	if _, err := New().Build(); err == nil {
		t.Fatal("build without gateway must fail")
	}
}

func TestBuilderRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Verification.CodeLength = 0

	_, err := New().WithConfig(cfg).WithGateway(&fakeGateway{}).Build()
	if err == nil {
		t.Fatal("invalid config must fail validation")
	}
}
