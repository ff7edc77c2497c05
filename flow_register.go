package authkit

import (
	"context"
	"errors"

	"github.com/studyhall/authkit/gateway"
)

// Register creates an account and returns the verification session for the
// OTP step that always follows. A conflict on an existing email surfaces as
// ErrAccountExists with the form state untouched, so the user can switch to
// login without retyping.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*VerificationSession, error) {
	if c == nil || c.gateway == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	if !c.registerBusy.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.registerBusy.Store(false)

	epoch := c.currentEpoch()

	if err := c.validateRegisterInput(&input); err != nil {
		return nil, err
	}
	captcha := c.takeCaptchaToken(input.CaptchaToken)
	if c.config.Login.RequireCaptcha && captcha == "" {
		return nil, ErrCaptchaRequired
	}

	req := gateway.RegisterRequest{
		FullName: input.FullName,
		Email:    input.Email,
		Password: input.Password,
		PhoneNumbers: []gateway.PhoneNumber{{
			Country: digitsOnly(input.PhoneCountryCode),
			Number:  normalizePhone(input.PhoneCountryCode, input.PhoneNumber),
		}},
		AgreeTerms: input.AcceptedTerms,
		// Self-service signup always creates a learner; elevated roles are
		// provisioned elsewhere.
		Role: []string{RoleStudent},
		Meta: gateway.RegisterMeta{
			AgeGroup: input.AgeGroup,
		},
	}

	start := c.clock()
	err := c.gateway.Register(ctx, req)
	c.observeGateway(start)

	if err != nil {
		classified := classifyGatewayError(err)

		if errors.Is(classified, ErrAccountExists) {
			c.metricInc(MetricRegisterConflict)
			c.emitAnalytics(ctx, "register", false, "", input.Email, "", classified, func() map[string]string {
				return map[string]string{"reason": "account_exists"}
			})
			return nil, ErrAccountExists
		}

		c.metricInc(MetricRegisterFailure)
		c.emitAnalytics(ctx, "register", false, "", input.Email, "", classified, nil)
		return nil, classified
	}

	if c.stale(epoch) {
		c.metricInc(MetricFlowAbandoned)
		return nil, ErrFlowAbandoned
	}

	c.clearCaptchaToken()
	c.metricInc(MetricRegisterSuccess)
	c.emitAnalytics(ctx, "register", true, "", input.Email, "", nil, nil)

	// The gateway sends the first code as part of registration, so the
	// session starts with the resend cooldown already running.
	return c.newVerificationSession(verificationParams{
		email: input.Email,
		relogin: &gateway.LoginRequest{
			Email:    input.Email,
			Password: input.Password,
		},
		rememberMe: true,
		redirect:   input.Redirect,
		demoIntent: input.DemoIntent,
		epoch:      epoch,
	}), nil
}
