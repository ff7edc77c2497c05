package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// TransportKind partitions network failures the way the UI reports them.
// The split never implies anything about credentials.
type TransportKind int

const (
	// KindConnection covers refused or reset connections.
	KindConnection TransportKind = iota
	// KindOffline covers DNS failures and unreachable networks.
	KindOffline
	// KindTimeout covers deadline and timeout expiries.
	KindTimeout
)

// TransportError wraps a failure that happened before the gateway answered.
type TransportError struct {
	Kind TransportKind
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case KindOffline:
		return fmt.Sprintf("gateway unreachable (offline): %v", e.Err)
	case KindTimeout:
		return fmt.Sprintf("gateway timeout: %v", e.Err)
	default:
		return fmt.Sprintf("gateway connection failed: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx answer from the gateway. Code is the structured
// error code when the gateway supplies one; Message is its human wording.
// UnlockAt is populated on lockout answers that include an estimate.
type APIError struct {
	Status   int
	Code     string
	Message  string
	UnlockAt *time.Time
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway error %d: %s", e.Status, e.Message)
}

func wrapTransport(ctx context.Context, err error) error {
	kind := KindConnection

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = KindTimeout
	case isTimeout(err):
		kind = KindTimeout
	case isOffline(err):
		kind = KindOffline
	}

	return &TransportError{Kind: kind, Err: err}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isOffline(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ENETUNREACH) || errors.Is(err, syscall.EHOSTUNREACH)
}
