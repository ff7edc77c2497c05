package authkit

import (
	"context"
	"sort"
)

const providerQuick = "quick"

// RememberedAccounts lists the on-device account picker entries, most
// recently used first. Entries whose quick-login key is missing or stale are
// flagged NeedsPassword and must go through the full login form.
func (c *Client) RememberedAccounts(ctx context.Context) ([]AccountListEntry, error) {
	if c == nil || c.store == nil {
		return nil, ErrClientNotReady
	}

	accounts, err := c.store.RememberedAccounts(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].LastLoginAt.After(accounts[j].LastLoginAt)
	})

	now := c.clock()
	window := c.config.QuickLogin.KeyFreshnessWindow

	entries := make([]AccountListEntry, len(accounts))
	for i, account := range accounts {
		entries[i] = AccountListEntry{
			RememberedAccount: account,
			NeedsPassword:     account.NeedsPassword(now, window),
			MostRecent:        i == 0,
		}
	}
	return entries, nil
}

// ForgetAccount removes one remembered account from the picker. The active
// credential, if any, is untouched.
func (c *Client) ForgetAccount(ctx context.Context, email string) error {
	if c == nil || c.store == nil {
		return ErrClientNotReady
	}
	return c.store.RemoveRememberedAccount(ctx, email)
}

// QuickLogin signs in a remembered account with its stored quick-login key,
// skipping password entry. A stale or missing key returns
// ErrQuickKeyExpired and the caller falls back to the password form; the
// remembered entry itself is never removed on failure.
func (c *Client) QuickLogin(ctx context.Context, email string) (*LoginOutcome, error) {
	if c == nil || c.gateway == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	if !c.quickBusy.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.quickBusy.Store(false)

	epoch := c.currentEpoch()

	account, err := c.findRememberedAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotRemembered
	}
	if account.NeedsPassword(c.clock(), c.config.QuickLogin.KeyFreshnessWindow) {
		c.metricInc(MetricQuickLoginFailure)
		return nil, ErrQuickKeyExpired
	}

	return c.quickLoginWithKey(ctx, epoch, *account, account.QuickLoginKey)
}

// QuickLoginWithKey is the manual-entry variant: the user typed the key
// instead of relying on the stored one. The account does not need to be
// remembered beforehand; a success remembers it.
func (c *Client) QuickLoginWithKey(ctx context.Context, email, key string) (*LoginOutcome, error) {
	if c == nil || c.gateway == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	if email == "" || key == "" {
		return nil, ErrValidation
	}
	if !c.quickBusy.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.quickBusy.Store(false)

	epoch := c.currentEpoch()

	account, err := c.findRememberedAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = &RememberedAccount{Email: email}
	}

	return c.quickLoginWithKey(ctx, epoch, *account, key)
}

// QuickLoginBiometric is the biometric variant: the platform authenticator
// releases the key material after a successful ceremony. A failed or
// unavailable ceremony returns ErrBiometricFallback or
// ErrBiometricUnavailable and the caller offers the key-based or password
// path instead.
func (c *Client) QuickLoginBiometric(ctx context.Context, email string) (*LoginOutcome, error) {
	if c == nil || c.gateway == nil || c.store == nil {
		return nil, ErrClientNotReady
	}
	if c.biometric == nil || !c.biometric.Available(ctx) {
		return nil, ErrBiometricUnavailable
	}
	if !c.quickBusy.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.quickBusy.Store(false)

	epoch := c.currentEpoch()

	account, err := c.findRememberedAccount(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotRemembered
	}
	if account.BiometricRef == "" {
		return nil, ErrBiometricUnavailable
	}

	key, err := c.biometric.Authenticate(ctx, account.BiometricRef)
	if err != nil {
		c.metricInc(MetricBiometricFallback)
		c.emitAnalytics(ctx, "quick_login", false, "", email, providerQuick, ErrBiometricFallback, func() map[string]string {
			return map[string]string{"reason": "biometric_failed"}
		})
		return nil, ErrBiometricFallback
	}

	return c.quickLoginWithKey(ctx, epoch, *account, key)
}

func (c *Client) quickLoginWithKey(ctx context.Context, epoch uint64, account RememberedAccount, key string) (*LoginOutcome, error) {
	start := c.clock()
	resp, err := c.gateway.QuickLogin(ctx, account.Email, key)
	c.observeGateway(start)

	if err != nil {
		classified := classifyGatewayError(err)
		c.metricInc(MetricQuickLoginFailure)
		c.emitAnalytics(ctx, "quick_login", false, "", account.Email, providerQuick, classified, nil)

		// A rejected key means it expired server-side. Keep the account but
		// demand a password next time.
		if isCredentialRejection(classified) {
			if !c.stale(epoch) {
				account.QuickLoginKey = ""
				_ = c.store.UpsertRememberedAccount(ctx, account)
			}
			return nil, ErrQuickKeyExpired
		}
		return nil, classified
	}

	return c.completeAuthentication(ctx, epoch, authCompletion{
		resp:       resp,
		provider:   providerQuick,
		rememberMe: true,
		redirect:   "",
		demoIntent: false,
		eventType:  "quick_login",
		successID:  MetricQuickLoginSuccess,
		failureID:  MetricQuickLoginFailure,
		// The gateway only rotates keys it chooses to; keep ours otherwise.
		keepQuickKey: true,
	})
}
