package authkit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/authkit/gateway"
)

// VerificationState is the tagged state of an OTP verification session.
type VerificationState uint8

const (
	// VerificationEntering accepts digit input.
	VerificationEntering VerificationState = iota
	// VerificationSubmitting has a code submission in flight.
	VerificationSubmitting
	// VerificationVerified is terminal: the email is verified and a
	// credential was persisted.
	VerificationVerified
	// VerificationCancelled is terminal: the user left the flow.
	VerificationCancelled
)

// VerificationSession is the email OTP step reached from login or
// registration. Digits accumulate in a fixed-length buffer; filling the
// buffer submits the code exactly once. An invalid code keeps the entered
// digits so the user can see and correct them, and any edit re-arms
// auto-submission.
type VerificationSession struct {
	client *Client

	// ID identifies the session in analytics events.
	ID    string
	email string

	// pending is the login answer that triggered verification, when the
	// gateway returned tokens alongside the unverified flag. relogin
	// re-authenticates after verification when it did not.
	pending *gateway.AuthResponse
	relogin *gateway.LoginRequest

	rememberMe bool
	redirect   string
	demoIntent bool
	epoch      uint64

	mu             sync.Mutex
	state          VerificationState
	buffer         []rune
	attempted      bool
	resendDeadline time.Time
}

type verificationParams struct {
	email      string
	pending    *gateway.AuthResponse
	relogin    *gateway.LoginRequest
	rememberMe bool
	redirect   string
	demoIntent bool
	epoch      uint64
}

func (c *Client) newVerificationSession(p verificationParams) *VerificationSession {
	return &VerificationSession{
		client:     c,
		ID:         uuid.NewString(),
		email:      p.email,
		pending:    p.pending,
		relogin:    p.relogin,
		rememberMe: p.rememberMe,
		redirect:   p.redirect,
		demoIntent: p.demoIntent,
		epoch:      p.epoch,
		buffer:     make([]rune, 0, c.config.Verification.CodeLength),
		// One code is already on its way when the session starts, so the
		// cooldown begins immediately.
		resendDeadline: c.clock().Add(c.config.Verification.ResendCooldown),
	}
}

// Email returns the address being verified.
func (s *VerificationSession) Email() string { return s.email }

// State returns the current session state.
func (s *VerificationSession) State() VerificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Code returns the digits entered so far.
func (s *VerificationSession) Code() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buffer)
}

// ResendCooldown reports how long until Resend is allowed again. Zero means
// resend is available now.
func (s *VerificationSession) ResendCooldown() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.resendDeadline.Sub(s.client.clock())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EnterDigit appends one digit. Filling the buffer submits the code; the
// returned outcome is non-nil only when a submission completed successfully.
func (s *VerificationSession) EnterDigit(ctx context.Context, digit rune) (*LoginOutcome, error) {
	s.mu.Lock()

	if err := s.acceptsInputLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if digit < '0' || digit > '9' {
		s.mu.Unlock()
		return nil, ErrCodeInvalid
	}
	if len(s.buffer) >= s.codeLength() {
		s.mu.Unlock()
		return nil, ErrCodeBufferFull
	}

	s.buffer = append(s.buffer, digit)
	s.attempted = false
	return s.maybeSubmitLocked(ctx)
}

// Paste fills the buffer from pasted text, ignoring everything but digits.
// Clipboard content routinely carries whitespace or the whole email, so
// non-digits are skipped rather than rejected.
func (s *VerificationSession) Paste(ctx context.Context, text string) (*LoginOutcome, error) {
	s.mu.Lock()

	if err := s.acceptsInputLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	changed := false
	for _, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		if len(s.buffer) >= s.codeLength() {
			break
		}
		s.buffer = append(s.buffer, r)
		changed = true
	}
	if changed {
		s.attempted = false
	}
	return s.maybeSubmitLocked(ctx)
}

// Backspace removes the last entered digit.
func (s *VerificationSession) Backspace() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.acceptsInputLocked(); err != nil {
		return err
	}
	if len(s.buffer) == 0 {
		return nil
	}
	s.buffer = s.buffer[:len(s.buffer)-1]
	s.attempted = false
	return nil
}

// Resend requests a fresh code. Blocked while the cooldown is running; on
// success the entered digits are cleared because they belong to the
// superseded code.
func (s *VerificationSession) Resend(ctx context.Context) error {
	s.mu.Lock()

	if err := s.acceptsInputLocked(); err != nil {
		s.mu.Unlock()
		return err
	}

	now := s.client.clock()
	if now.Before(s.resendDeadline) {
		s.mu.Unlock()
		s.client.metricInc(MetricVerifyResendBlocked)
		return ErrResendCooldown
	}
	s.mu.Unlock()

	if err := s.client.gateway.ResendVerification(ctx, s.email); err != nil {
		return classifyGatewayError(err)
	}

	s.mu.Lock()
	s.buffer = s.buffer[:0]
	s.attempted = false
	s.resendDeadline = s.client.clock().Add(s.client.config.Verification.ResendCooldown)
	s.mu.Unlock()

	s.client.metricInc(MetricVerifyResend)
	s.client.emitAnalytics(ctx, "verify_email", true, "", s.email, "", nil, func() map[string]string {
		return map[string]string{"action": "resend", "session_id": s.ID}
	})
	return nil
}

// Submit forces a submission of the current buffer, for UIs with an explicit
// confirm button. A partially filled buffer returns ErrCodeIncomplete.
// Unlike auto-submission, Submit retries even when this buffer content was
// already attempted.
func (s *VerificationSession) Submit(ctx context.Context) (*LoginOutcome, error) {
	s.mu.Lock()

	if err := s.acceptsInputLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if len(s.buffer) < s.codeLength() {
		s.mu.Unlock()
		return nil, ErrCodeIncomplete
	}

	s.attempted = false
	return s.maybeSubmitLocked(ctx)
}

// Cancel terminates the session. All later calls return ErrFlowFinished.
func (s *VerificationSession) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == VerificationVerified || s.state == VerificationCancelled {
		return
	}
	s.state = VerificationCancelled
	s.client.metricInc(MetricFlowAbandoned)
}

func (s *VerificationSession) codeLength() int {
	return s.client.config.Verification.CodeLength
}

func (s *VerificationSession) acceptsInputLocked() error {
	switch s.state {
	case VerificationEntering:
		return nil
	case VerificationSubmitting:
		return ErrSubmissionInFlight
	default:
		return ErrFlowFinished
	}
}

// maybeSubmitLocked submits when the buffer is full and this exact buffer
// content has not been attempted yet. Called with s.mu held; always unlocks.
func (s *VerificationSession) maybeSubmitLocked(ctx context.Context) (*LoginOutcome, error) {
	if len(s.buffer) < s.codeLength() || s.attempted {
		s.mu.Unlock()
		return nil, nil
	}

	s.attempted = true
	s.state = VerificationSubmitting
	code := string(s.buffer)
	s.mu.Unlock()

	outcome, err := s.submit(ctx, code)

	s.mu.Lock()
	if s.state == VerificationSubmitting {
		if err == nil && outcome != nil {
			s.state = VerificationVerified
		} else {
			// Back to entry with the digits intact; the user corrects them
			// or resends.
			s.state = VerificationEntering
		}
	}
	s.mu.Unlock()

	return outcome, err
}

func (s *VerificationSession) submit(ctx context.Context, code string) (*LoginOutcome, error) {
	c := s.client

	start := c.clock()
	err := c.gateway.VerifyEmail(ctx, s.email, code)
	c.observeGateway(start)
	if err != nil {
		classified := classifyGatewayError(err)
		c.metricInc(MetricVerifyFailure)
		c.emitAnalytics(ctx, "verify_email", false, "", s.email, "", classified, func() map[string]string {
			return map[string]string{"session_id": s.ID}
		})
		return nil, classified
	}

	resp := s.pending
	if resp == nil || !resp.HasCredentials() {
		// Verification succeeded but we hold no tokens; authenticate again
		// with the captured credentials.
		if s.relogin == nil {
			return nil, ErrBadGatewayResponse
		}
		start = c.clock()
		relogged, loginErr := c.gateway.Login(ctx, *s.relogin)
		c.observeGateway(start)
		if loginErr != nil {
			return nil, classifyGatewayError(loginErr)
		}
		resp = relogged
	}

	outcome, err := c.completeAuthentication(ctx, s.epoch, authCompletion{
		resp:       resp,
		provider:   providerPassword,
		rememberMe: s.rememberMe,
		redirect:   s.redirect,
		demoIntent: s.demoIntent,
		eventType:  "verify_email",
		successID:  MetricVerifySuccess,
		failureID:  MetricVerifyFailure,
	})
	if err != nil {
		if errors.Is(err, ErrFlowAbandoned) {
			s.mu.Lock()
			s.state = VerificationCancelled
			s.mu.Unlock()
		}
		return nil, err
	}
	return outcome, nil
}
