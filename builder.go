package authkit

import (
	"errors"
	"time"

	"github.com/studyhall/authkit/gateway"
)

// Builder assembles an immutable Client. A Builder is single-use.
type Builder struct {
	config Config

	gateway   Gateway
	store     CredentialStore
	sink      AnalyticsSink
	biometric BiometricAuthenticator
	clock     func() time.Time

	built bool
}

// New starts a Builder with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithGateway injects a Gateway implementation. When absent, Build
// constructs a gateway.Client from Config.Gateway.BaseURL.
func (b *Builder) WithGateway(gw Gateway) *Builder {
	b.gateway = gw
	return b
}

// WithStore injects the CredentialStore. Defaults to NewMemoryStore.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithAnalyticsSink injects the sink receiving analytics events.
func (b *Builder) WithAnalyticsSink(sink AnalyticsSink) *Builder {
	b.sink = sink
	return b
}

// WithBiometric injects the platform authenticator for the biometric
// quick-login variant.
func (b *Builder) WithBiometric(authenticator BiometricAuthenticator) *Builder {
	b.biometric = authenticator
	return b
}

// WithClock overrides the time source. Tests use this to drive the resend
// cooldown and the key freshness window.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithMetricsEnabled toggles the in-process metrics system.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles gateway latency observation.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and produces the Client.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gw := b.gateway
	if gw == nil {
		if cfg.Gateway.BaseURL == "" {
			return nil, errors.New("gateway required: set Config.Gateway.BaseURL or use WithGateway")
		}
		built, err := gateway.New(gateway.Config{
			BaseURL:   cfg.Gateway.BaseURL,
			Timeout:   cfg.Gateway.Timeout,
			UserAgent: cfg.Gateway.UserAgent,
		})
		if err != nil {
			return nil, err
		}
		gw = built
	}

	store := b.store
	if store == nil {
		store = NewMemoryStore()
	}

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	client := &Client{
		config:    cfg,
		gateway:   gw,
		store:     store,
		biometric: b.biometric,
		clock:     clock,
		analytics: newAnalyticsDispatcher(cfg.Analytics, b.sink),
		metrics:   NewMetrics(cfg.Metrics),
	}
	client.oauthStates = make(map[string]string)

	b.built = true

	return client, nil
}
