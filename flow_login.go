package authkit

import (
	"context"
	"errors"

	"github.com/studyhall/authkit/gateway"
)

// Login runs the primary email+password flow. The returned outcome is one
// of authenticated, verification-required, or locked; rejections and
// network failures come back as classified errors with stored state
// untouched. Retries are user-initiated only.
func (c *Client) Login(ctx context.Context, input LoginInput) (*LoginOutcome, error) {
	if c == nil || c.gateway == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	if !c.loginBusy.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.loginBusy.Store(false)

	epoch := c.currentEpoch()

	if err := c.validateLoginInput(&input); err != nil {
		return nil, err
	}
	captcha := c.takeCaptchaToken(input.CaptchaToken)
	if c.config.Login.RequireCaptcha && captcha == "" {
		return nil, ErrCaptchaRequired
	}

	start := c.clock()
	resp, err := c.gateway.Login(ctx, gateway.LoginRequest{
		Email:    input.Email,
		Password: input.Password,
	})
	c.observeGateway(start)

	if err != nil {
		classified := classifyGatewayError(err)

		switch {
		case errors.Is(classified, ErrVerificationRequired):
			return c.loginVerificationBranch(ctx, epoch, input, nil)

		case errors.Is(classified, ErrAccountLocked):
			c.metricInc(MetricLoginLocked)
			c.emitAnalytics(ctx, "login", false, "", input.Email, "", classified, func() map[string]string {
				return map[string]string{"reason": "account_locked"}
			})
			outcome := &LoginOutcome{State: LoginLocked}
			if lockErr := lockoutTime(classified); lockErr != nil {
				outcome.UnlockAt = lockErr.UnlockAt
			}
			return outcome, nil

		default:
			c.metricInc(MetricLoginFailure)
			c.emitAnalytics(ctx, "login", false, "", input.Email, "", classified, nil)
			return nil, classified
		}
	}

	if resp.EmailUnverified() {
		return c.loginVerificationBranch(ctx, epoch, input, resp)
	}

	return c.completeAuthentication(ctx, epoch, authCompletion{
		resp:       resp,
		provider:   providerPassword,
		rememberMe: input.RememberMe,
		redirect:   input.Redirect,
		demoIntent: input.DemoIntent,
		eventType:  "login",
		successID:  MetricLoginSuccess,
		failureID:  MetricLoginFailure,
		clearCaptcha: true,
	})
}

// loginVerificationBranch converts an unverified-email answer into an OTP
// verification session, firing one resend call so the user has a fresh code
// waiting.
func (c *Client) loginVerificationBranch(ctx context.Context, epoch uint64, input LoginInput, pending *gateway.AuthResponse) (*LoginOutcome, error) {
	if c.stale(epoch) {
		c.metricInc(MetricFlowAbandoned)
		return nil, ErrFlowAbandoned
	}

	session := c.newVerificationSession(verificationParams{
		email:   input.Email,
		pending: pending,
		relogin: &gateway.LoginRequest{
			Email:    input.Email,
			Password: input.Password,
		},
		rememberMe: input.RememberMe,
		redirect:   input.Redirect,
		demoIntent: input.DemoIntent,
		epoch:      epoch,
	})

	// Best-effort: the user still lands on the OTP screen and can resend
	// manually if this send failed.
	if err := c.gateway.ResendVerification(ctx, input.Email); err == nil {
		c.metricInc(MetricVerifyResend)
	}

	c.metricInc(MetricLoginVerificationRequired)
	c.emitAnalytics(ctx, "login", false, "", input.Email, "", ErrVerificationRequired, func() map[string]string {
		return map[string]string{"reason": "verification_required"}
	})

	return &LoginOutcome{
		State:        LoginVerificationRequired,
		Verification: session,
	}, nil
}

const (
	providerPassword = "password"
)

// authCompletion captures everything needed to turn a successful gateway
// answer into persisted state plus a destination. Login, quick login, OTP
// completion, and OAuth all funnel through it.
type authCompletion struct {
	resp       *gateway.AuthResponse
	provider   string
	rememberMe bool
	redirect   string
	demoIntent bool

	eventType string
	successID MetricID
	failureID MetricID

	clearCaptcha bool
	// keepQuickKey preserves the stored quick-login key when the response
	// carries none (quick login re-uses its key rather than rotating it).
	keepQuickKey bool
}

func (c *Client) completeAuthentication(ctx context.Context, epoch uint64, done authCompletion) (*LoginOutcome, error) {
	cred := NormalizeCredential(done.resp, c.clock())
	cred = c.applyRoleFallbacks(cred, done.resp.UserProfile().Role.First())

	if !cred.Valid() {
		c.metricInc(done.failureID)
		c.emitAnalytics(ctx, done.eventType, false, cred.UserID, cred.Email, done.provider, ErrBadGatewayResponse, nil)
		return nil, ErrBadGatewayResponse
	}

	// Abandonment check happens before the first write, so a late response
	// is a pure no-op.
	if c.stale(epoch) {
		c.metricInc(MetricFlowAbandoned)
		return nil, ErrFlowAbandoned
	}

	if err := c.store.SaveCredential(ctx, cred); err != nil {
		c.metricInc(done.failureID)
		return nil, err
	}

	if done.rememberMe {
		if err := c.rememberAccount(ctx, cred, done.provider, done.resp.QuickLoginKey, done.keepQuickKey); err == nil {
			_ = c.store.SetRememberMe(ctx, true, cred.Email)
		}
	}

	if done.clearCaptcha {
		c.clearCaptchaToken()
	}

	c.metricInc(done.successID)
	c.emitAnalytics(ctx, done.eventType, true, cred.UserID, cred.Email, done.provider, nil, nil)

	return &LoginOutcome{
		State:       LoginAuthenticated,
		Credential:  cred,
		Destination: ResolveDestination(cred.Role, done.redirect, done.demoIntent),
	}, nil
}

// rememberAccount upserts the per-email remembered entry. A fresh quick
// login key from the gateway replaces the stored one; otherwise the stored
// key survives only when the caller asked for it.
func (c *Client) rememberAccount(ctx context.Context, cred Credential, provider, freshKey string, keepExistingKey bool) error {
	now := c.clock()

	account := RememberedAccount{
		Email:       cred.Email,
		FullName:    cred.FullName,
		Role:        cred.Role,
		Provider:    provider,
		LastLoginAt: now,
	}

	existing, err := c.findRememberedAccount(ctx, cred.Email)
	if err == nil && existing != nil {
		account.AvatarURL = existing.AvatarURL
		account.BiometricRef = existing.BiometricRef
		if keepExistingKey {
			account.QuickLoginKey = existing.QuickLoginKey
			account.KeyIssuedAt = existing.KeyIssuedAt
		}
	}

	if freshKey != "" {
		account.QuickLoginKey = freshKey
		account.KeyIssuedAt = now
	}

	return c.store.UpsertRememberedAccount(ctx, account)
}

func (c *Client) findRememberedAccount(ctx context.Context, email string) (*RememberedAccount, error) {
	accounts, err := c.store.RememberedAccounts(ctx)
	if err != nil {
		return nil, err
	}

	key := accountKey(email)
	for i := range accounts {
		if accountKey(accounts[i].Email) == key {
			return &accounts[i], nil
		}
	}
	return nil, nil
}
