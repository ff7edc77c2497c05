package authkit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Client orchestrates all authentication flows against one gateway and one
// credential store. Configure through [Builder.Build]; safe for concurrent
// use afterwards.
type Client struct {
	config    Config
	gateway   Gateway
	store     CredentialStore
	biometric BiometricAuthenticator
	clock     func() time.Time
	analytics *analyticsDispatcher
	metrics   *Metrics

	// flowEpoch invalidates in-flight flows when the caller navigates
	// away; see AbandonFlows.
	flowEpoch atomic.Uint64

	// Per-flow submission gates. One submission per flow at a time.
	loginBusy    atomic.Bool
	registerBusy atomic.Bool
	quickBusy    atomic.Bool

	// captchaMu guards the cached single-use human-verification token.
	captchaMu     sync.Mutex
	cachedCaptcha string

	// oauthMu guards the pending per-provider OAuth state tokens.
	oauthMu     sync.Mutex
	oauthStates map[string]string
}

// Close flushes and stops the analytics dispatcher.
func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.analytics != nil {
		c.analytics.Close()
	}
}

// AbandonFlows marks every in-flight flow as abandoned. A response arriving
// afterwards is discarded without touching stored state. The UI calls this
// when the user navigates away from an authentication step.
func (c *Client) AbandonFlows() {
	if c == nil {
		return
	}
	c.flowEpoch.Add(1)
}

func (c *Client) currentEpoch() uint64 {
	return c.flowEpoch.Load()
}

func (c *Client) stale(epoch uint64) bool {
	return c.flowEpoch.Load() != epoch
}

// CacheCaptchaToken stores a solved human-verification token for the next
// submission. The token is single-use: a successful login clears it.
func (c *Client) CacheCaptchaToken(token string) {
	if c == nil {
		return
	}
	c.captchaMu.Lock()
	c.cachedCaptcha = token
	c.captchaMu.Unlock()
}

func (c *Client) takeCaptchaToken(explicit string) string {
	if explicit != "" {
		return explicit
	}
	c.captchaMu.Lock()
	defer c.captchaMu.Unlock()
	return c.cachedCaptcha
}

func (c *Client) clearCaptchaToken() {
	c.captchaMu.Lock()
	c.cachedCaptcha = ""
	c.captchaMu.Unlock()
}

// MetricsSnapshot returns a deep copy of all flow metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// AnalyticsDropped reports how many analytics events were shed under
// backpressure.
func (c *Client) AnalyticsDropped() uint64 {
	if c == nil || c.analytics == nil {
		return 0
	}
	return c.analytics.Dropped()
}

func (c *Client) metricInc(id MetricID) {
	if c == nil || c.metrics == nil {
		return
	}
	c.metrics.Inc(id)
}

func (c *Client) observeGateway(start time.Time) {
	if c == nil || c.metrics == nil || !c.metrics.LatencyEnabled() {
		return
	}
	c.metrics.Observe(MetricGatewayLatency, c.clock().Sub(start))
}

// emitAnalytics builds and dispatches one event. The metadata closure is
// only invoked when analytics is enabled.
func (c *Client) emitAnalytics(ctx context.Context, eventType string, success bool, userID, email, provider string, failure error, metadata func() map[string]string) {
	if c == nil || c.analytics == nil {
		return
	}

	event := AnalyticsEvent{
		Timestamp: c.clock(),
		EventID:   uuid.NewString(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		Provider:  provider,
		Success:   success,
	}
	if failure != nil {
		event.Error = failure.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}
	if deviceID := deviceIDFromContext(ctx); deviceID != "" {
		if event.Metadata == nil {
			event.Metadata = make(map[string]string, 2)
		}
		event.Metadata["device_id"] = deviceID
	}
	if locale := localeFromContext(ctx); locale != "" {
		if event.Metadata == nil {
			event.Metadata = make(map[string]string, 1)
		}
		event.Metadata["locale"] = locale
	}

	c.analytics.Emit(ctx, event)
}

// Logout clears the persisted credential. Remembered accounts survive; only
// RemoveRememberedAccount deletes those.
func (c *Client) Logout(ctx context.Context) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}

	cred, err := c.store.Credential(ctx)
	if err != nil {
		return err
	}
	if err := c.store.ClearCredential(ctx); err != nil {
		return err
	}

	c.metricInc(MetricLogout)
	c.emitAnalytics(ctx, "logout", true, cred.UserID, cred.Email, "", nil, nil)
	return nil
}

// RestoreSession loads the persisted credential at startup. It returns
// ErrNoSession when nothing usable is stored and ErrSessionExpired (after
// clearing) when the token's expiry claim has passed.
func (c *Client) RestoreSession(ctx context.Context) (*Credential, error) {
	if c == nil || c.store == nil {
		return nil, ErrClientNotReady
	}

	cred, err := c.store.Credential(ctx)
	if err != nil {
		return nil, err
	}
	if !cred.Valid() {
		return nil, ErrNoSession
	}
	if tokenExpired(cred.AccessToken, c.clock()) {
		_ = c.store.ClearCredential(ctx)
		return nil, ErrSessionExpired
	}

	c.metricInc(MetricSessionRestored)
	return &cred, nil
}
