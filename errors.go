package authkit

import (
	"errors"
	"fmt"
	"time"
)

// Base classes of the client error taxonomy. Specific sentinels below wrap
// one of these, so callers can branch either on the exact condition or on
// the class with errors.Is.
var (
	// ErrNetwork groups failures that happened before the gateway answered.
	// They never imply anything about credentials.
	ErrNetwork = errors.New("network failure")
	// ErrValidation groups malformed input caught before submission.
	ErrValidation = errors.New("validation failed")
)

var (
	// ErrOffline means the gateway host could not be resolved or reached.
	ErrOffline = fmt.Errorf("%w: offline", ErrNetwork)
	// ErrConnectionFailed means the connection was refused or reset.
	ErrConnectionFailed = fmt.Errorf("%w: connection failed", ErrNetwork)
	// ErrTimeout means the request deadline expired.
	ErrTimeout = fmt.Errorf("%w: request timed out", ErrNetwork)

	// ErrEmailInvalid is returned when the email fails the format check.
	ErrEmailInvalid = fmt.Errorf("%w: invalid email address", ErrValidation)
	// ErrPasswordTooShort is returned when the password is under the minimum.
	ErrPasswordTooShort = fmt.Errorf("%w: password too short", ErrValidation)
	// ErrPasswordMismatch is returned when the confirmation does not match.
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)
	// ErrNameInvalid is returned when the full name is not letters and
	// spaces of length two or more.
	ErrNameInvalid = fmt.Errorf("%w: invalid full name", ErrValidation)
	// ErrPhoneRequired is returned when the phone number is empty.
	ErrPhoneRequired = fmt.Errorf("%w: phone number required", ErrValidation)
	// ErrTermsNotAccepted is returned when the terms checkbox is unset.
	ErrTermsNotAccepted = fmt.Errorf("%w: terms must be accepted", ErrValidation)
	// ErrCaptchaRequired is returned when no human-verification token is
	// available. Submission is blocked until the challenge is resolved.
	ErrCaptchaRequired = fmt.Errorf("%w: human verification required", ErrValidation)

	// ErrInvalidCredentials is the generic credential-class rejection. It is
	// deliberately identical for wrong password and unknown email.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountExists is the conflict-class registration rejection,
	// distinct from generic validation so the UI can offer sign-in instead.
	ErrAccountExists = errors.New("account already registered")
	// ErrAccountLocked is the lockout-class rejection. A *LockoutError
	// carrying the optional unlock estimate matches this sentinel.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrVerificationRequired signals the unverified-email redirect. It is
	// a flow branch, not a failure; Login converts it into an outcome.
	ErrVerificationRequired = errors.New("email verification required")
	// ErrServerUnavailable covers 5xx answers. No automatic retry.
	ErrServerUnavailable = errors.New("service unavailable, try again later")
	// ErrRequestRejected covers remaining 4xx answers with no better class.
	ErrRequestRejected = errors.New("request rejected")

	// ErrCodeInvalid is returned for a wrong OTP. The entered digits are
	// preserved.
	ErrCodeInvalid = errors.New("invalid verification code")
	// ErrCodeIncomplete is returned when submitting with fewer than six
	// digits entered.
	ErrCodeIncomplete = errors.New("verification code incomplete")
	// ErrCodeBufferFull is returned when entering a digit into a full code
	// buffer that already triggered its submission.
	ErrCodeBufferFull = errors.New("verification code buffer full")
	// ErrResendCooldown is returned while the resend cooldown is running.
	ErrResendCooldown = errors.New("resend is cooling down")

	// ErrQuickKeyExpired flags a remembered account whose quick-login key is
	// missing or older than the freshness window; password entry is needed.
	ErrQuickKeyExpired = errors.New("quick login key expired")
	// ErrAccountNotRemembered is returned when quick login targets an email
	// with no remembered account.
	ErrAccountNotRemembered = errors.New("account not remembered on this device")
	// ErrBiometricUnavailable means no platform authenticator or no bound
	// biometric credential for the selected account.
	ErrBiometricUnavailable = errors.New("biometric authentication unavailable")
	// ErrBiometricFallback means the ceremony ran and failed; the caller
	// falls back to manual key or password entry. Nothing is persisted.
	ErrBiometricFallback = errors.New("biometric ceremony failed, fall back to manual entry")

	// ErrOAuthStateMismatch rejects an exchange whose state token does not
	// match the one issued by BeginOAuth.
	ErrOAuthStateMismatch = errors.New("oauth state mismatch")

	// ErrSubmissionInFlight gates duplicate concurrent submissions of the
	// same flow.
	ErrSubmissionInFlight = errors.New("submission already in flight")
	// ErrFlowAbandoned marks a late response arriving after the caller left
	// the step. The result is discarded without touching stored state.
	ErrFlowAbandoned = errors.New("flow abandoned")
	// ErrFlowFinished is returned when operating on a verification session
	// that already completed or was cancelled.
	ErrFlowFinished = errors.New("flow already finished")

	// ErrNoSession is returned by RestoreSession when nothing usable is
	// persisted.
	ErrNoSession = errors.New("no stored session")
	// ErrSessionExpired is returned when the stored token's expiry claim is
	// in the past. The credential is cleared.
	ErrSessionExpired = errors.New("stored session expired")
	// ErrBadGatewayResponse means a 2xx answer that cannot be normalized
	// into a valid credential.
	ErrBadGatewayResponse = errors.New("malformed gateway response")

	// ErrClientNotReady is returned by methods on an unbuilt Client.
	ErrClientNotReady = errors.New("client not initialized")
)

// LockoutError carries the gateway's optional unlock time estimate. It
// matches ErrAccountLocked under errors.Is.
type LockoutError struct {
	UnlockAt *time.Time
}

func (e *LockoutError) Error() string {
	if e.UnlockAt != nil {
		return fmt.Sprintf("account temporarily locked until %s", e.UnlockAt.Format(time.RFC3339))
	}
	return ErrAccountLocked.Error()
}

func (e *LockoutError) Is(target error) bool { return target == ErrAccountLocked }
