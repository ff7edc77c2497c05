package authkit

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/studyhall/authkit/gateway"
)

// Structured error codes of the current gateway. Preferred over message
// matching whenever present.
const (
	codeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	codeAccountLocked      = "ACCOUNT_LOCKED"
	codeTooManyAttempts    = "TOO_MANY_ATTEMPTS"
	codeAlreadyExists      = "ALREADY_EXISTS"
	codeDuplicateEmail     = "DUPLICATE_EMAIL"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeInvalidOTP         = "INVALID_OTP"
	codeOTPExpired         = "OTP_EXPIRED"
)

// classifyGatewayError converts any error surfaced by the Gateway into the
// client taxonomy, exactly once and at one place. Raw transport and API
// errors never propagate past this function.
//
// Classification order: transport kind, structured code, HTTP status, and
// finally message substrings. The substring pass exists only for gateway
// builds that predate structured codes; keep it minimal.
func classifyGatewayError(err error) error {
	if err == nil {
		return nil
	}

	var transportErr *gateway.TransportError
	if errors.As(err, &transportErr) {
		switch transportErr.Kind {
		case gateway.KindOffline:
			return ErrOffline
		case gateway.KindTimeout:
			return ErrTimeout
		default:
			return ErrConnectionFailed
		}
	}

	var apiErr *gateway.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	switch apiErr.Code {
	case codeEmailNotVerified:
		return ErrVerificationRequired
	case codeAccountLocked, codeTooManyAttempts:
		return &LockoutError{UnlockAt: apiErr.UnlockAt}
	case codeAlreadyExists, codeDuplicateEmail:
		return ErrAccountExists
	case codeInvalidCredentials:
		return ErrInvalidCredentials
	case codeInvalidOTP, codeOTPExpired:
		return ErrCodeInvalid
	}

	if apiErr.Status >= 500 {
		return ErrServerUnavailable
	}

	if classified := classifyByMessage(apiErr); classified != nil {
		return classified
	}

	if apiErr.Status == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}

	return fmt.Errorf("%w: %s", ErrRequestRejected, apiErr.Message)
}

// classifyByMessage is the compatibility fallback for gateways without a
// code field. Substring matching is brittle; add nothing here that a
// structured code can express.
func classifyByMessage(apiErr *gateway.APIError) error {
	msg := strings.ToLower(apiErr.Message)

	switch {
	case strings.Contains(msg, "locked"):
		return &LockoutError{UnlockAt: apiErr.UnlockAt}
	case strings.Contains(msg, "already exists"),
		strings.Contains(msg, "already registered"),
		strings.Contains(msg, "already in use"):
		return ErrAccountExists
	case strings.Contains(msg, "not verified"),
		strings.Contains(msg, "verify your email"):
		return ErrVerificationRequired
	case strings.Contains(msg, "invalid otp"),
		strings.Contains(msg, "invalid code"),
		strings.Contains(msg, "incorrect code"):
		return ErrCodeInvalid
	}

	return nil
}

// isCredentialRejection reports whether the gateway rejected the presented
// credential itself, as opposed to failing for transport or server reasons.
func isCredentialRejection(classified error) bool {
	return errors.Is(classified, ErrInvalidCredentials) ||
		errors.Is(classified, ErrRequestRejected)
}

// lockoutTime extracts the optional unlock estimate from a classified
// lockout error.
func lockoutTime(err error) *LockoutError {
	var lockErr *LockoutError
	if errors.As(err, &lockErr) {
		return lockErr
	}
	return nil
}
