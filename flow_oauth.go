package authkit

import (
	"context"
	"strings"

	"github.com/studyhall/authkit/gateway"
	"github.com/studyhall/authkit/internal"
)

// BeginOAuth issues the anti-forgery state token for a provider redirect.
// The token must come back unchanged through ExchangeOAuth; one pending
// token exists per provider, and starting over replaces it.
func (c *Client) BeginOAuth(provider string) (string, error) {
	if c == nil {
		return "", ErrClientNotReady
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return "", ErrValidation
	}

	state, err := internal.NewStateToken()
	if err != nil {
		return "", err
	}

	c.oauthMu.Lock()
	c.oauthStates[provider] = state
	c.oauthMu.Unlock()

	return state, nil
}

// ExchangeOAuth finalizes a provider redirect: the state token is checked
// against the pending one, the code is exchanged at the gateway, and the
// resulting credential is persisted. Providers pre-verify email, so this
// path never enters the OTP flow.
func (c *Client) ExchangeOAuth(ctx context.Context, provider, code, state string) (*OAuthOutcome, error) {
	if c == nil || c.gateway == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	provider = strings.ToLower(strings.TrimSpace(provider))

	c.oauthMu.Lock()
	pending, ok := c.oauthStates[provider]
	delete(c.oauthStates, provider)
	c.oauthMu.Unlock()

	// The token is consumed either way; a mismatch forces a fresh
	// BeginOAuth.
	if !ok || state == "" || pending != state {
		c.metricInc(MetricOAuthFailure)
		c.emitAnalytics(ctx, "oauth", false, "", "", provider, ErrOAuthStateMismatch, nil)
		return nil, ErrOAuthStateMismatch
	}

	epoch := c.currentEpoch()

	start := c.clock()
	resp, err := c.gateway.ExchangeOAuth(ctx, gateway.OAuthExchangeRequest{
		Provider: provider,
		Code:     code,
		State:    state,
	})
	c.observeGateway(start)

	if err != nil {
		classified := classifyGatewayError(err)
		c.metricInc(MetricOAuthFailure)
		c.emitAnalytics(ctx, "oauth", false, "", "", provider, classified, nil)
		return nil, classified
	}

	outcome, err := c.completeAuthentication(ctx, epoch, authCompletion{
		resp:       &resp.AuthResponse,
		provider:   provider,
		rememberMe: true,
		eventType:  "oauth",
		successID:  MetricOAuthSuccess,
		failureID:  MetricOAuthFailure,
	})
	if err != nil {
		return nil, err
	}

	return &OAuthOutcome{
		Credential:    outcome.Credential,
		Destination:   outcome.Destination,
		IsNewUser:     resp.IsNewUser,
		AccountMerged: resp.AccountMerged,
	}, nil
}
