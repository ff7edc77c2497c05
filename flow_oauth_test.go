package authkit

import (
	"context"
	"errors"
	"testing"

	"github.com/studyhall/authkit/gateway"
)

func scriptedOAuth(t *testing.T, wantState *string) *fakeGateway {
	t.Helper()
	return &fakeGateway{
		oauthFn: func(_ context.Context, req gateway.OAuthExchangeRequest) (*gateway.OAuthResponse, error) {
			if wantState != nil && req.State != *wantState {
				t.Errorf("state = %q, want %q", req.State, *wantState)
			}
			resp := &gateway.OAuthResponse{IsNewUser: true}
			resp.AuthResponse = *flatAuthResponse("u1", "ada@example.com", "student", "tok-oauth")
			resp.QuickLoginKey = "qk-oauth"
			return resp, nil
		},
	}
}

func TestOAuthExchangeSuccess(t *testing.T) {
	var state string
	gw := scriptedOAuth(t, &state)
	client := newTestClient(t, gw, newTestClock())

	var err error
	state, err = client.BeginOAuth("Google")
	if err != nil || state == "" {
		t.Fatalf("begin: %v %q", err, state)
	}

	outcome, err := client.ExchangeOAuth(context.Background(), "google", "auth-code", state)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if !outcome.IsNewUser || outcome.AccountMerged {
		t.Errorf("flags = %+v", outcome)
	}
	if outcome.Destination != "/dashboard" {
		t.Errorf("destination = %q", outcome.Destination)
	}

	// OAuth logins are remembered with the provider's quick key; no OTP
	// step ran.
	accounts, _ := client.store.RememberedAccounts(context.Background())
	if len(accounts) != 1 || accounts[0].Provider != "google" {
		t.Fatalf("accounts = %+v", accounts)
	}
	if accounts[0].QuickLoginKey != "qk-oauth" {
		t.Errorf("quick key = %q", accounts[0].QuickLoginKey)
	}
}

func TestOAuthStateMismatch(t *testing.T) {
	client := newTestClient(t, scriptedOAuth(t, nil), newTestClock())

	if _, err := client.BeginOAuth("google"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	_, err := client.ExchangeOAuth(context.Background(), "google", "auth-code", "forged-state")
	if !errors.Is(err, ErrOAuthStateMismatch) {
		t.Fatalf("got %v", err)
	}

	// The pending token was consumed; even the correct state is now dead.
	_, err = client.ExchangeOAuth(context.Background(), "google", "auth-code", "anything")
	if !errors.Is(err, ErrOAuthStateMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestOAuthExchangeWithoutBegin(t *testing.T) {
	client := newTestClient(t, scriptedOAuth(t, nil), newTestClock())

	_, err := client.ExchangeOAuth(context.Background(), "github", "code", "state")
	if !errors.Is(err, ErrOAuthStateMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestOAuthStateIsPerProvider(t *testing.T) {
	var state string
	client := newTestClient(t, scriptedOAuth(t, &state), newTestClock())

	googleState, err := client.BeginOAuth("google")
	if err != nil {
		t.Fatalf("begin google: %v", err)
	}
	githubState, err := client.BeginOAuth("github")
	if err != nil {
		t.Fatalf("begin github: %v", err)
	}
	if googleState == githubState {
		t.Fatal("state tokens must be unique")
	}

	// A github exchange cannot spend google's token.
	_, err = client.ExchangeOAuth(context.Background(), "github", "code", googleState)
	if !errors.Is(err, ErrOAuthStateMismatch) {
		t.Fatalf("got %v", err)
	}

	state = googleState
	if _, err := client.ExchangeOAuth(context.Background(), "google", "code", googleState); err != nil {
		t.Fatalf("google exchange: %v", err)
	}
}

func TestOAuthGatewayFailure(t *testing.T) {
	gw := &fakeGateway{
		oauthFn: func(context.Context, gateway.OAuthExchangeRequest) (*gateway.OAuthResponse, error) {
			return nil, &gateway.APIError{Status: 502, Message: "upstream provider error"}
		},
	}
	client := newTestClient(t, gw, newTestClock())

	state, err := client.BeginOAuth("google")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	_, err = client.ExchangeOAuth(context.Background(), "google", "code", state)
	if !errors.Is(err, ErrServerUnavailable) {
		t.Fatalf("got %v", err)
	}
	if got := client.MetricsSnapshot().Counters[MetricOAuthFailure]; got != 1 {
		t.Errorf("failure counter = %d", got)
	}
}
