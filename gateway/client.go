package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	pathLogin              = "/v1/auth/login"
	pathRegister           = "/v1/auth/register"
	pathVerifyEmail        = "/v1/auth/verify-email"
	pathResendVerification = "/v1/auth/resend-verification"
	pathQuickLogin         = "/v1/auth/quick-login"
	pathOAuthExchange      = "/v1/auth/oauth/exchange"

	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "authkit-go"

	// Error bodies are small; anything larger is not a gateway we know.
	maxErrorBodySize = 64 << 10
)

// Config configures a gateway Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

// Client issues requests against the remote auth gateway. It is stateless
// and safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base url required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		http:      httpClient,
	}, nil
}

// Login exchanges credentials for a union-shaped auth payload.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, pathLogin, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account pending email verification.
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.post(ctx, pathRegister, req, nil)
}

// VerifyEmail submits a 6-digit OTP for the given email.
func (c *Client) VerifyEmail(ctx context.Context, email, otp string) error {
	return c.post(ctx, pathVerifyEmail, VerifyEmailRequest{Email: email, OTP: otp}, nil)
}

// ResendVerification asks the gateway to send a fresh OTP.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.post(ctx, pathResendVerification, ResendVerificationRequest{Email: email}, nil)
}

// QuickLogin performs a key-based login. The response shape matches Login.
func (c *Client) QuickLogin(ctx context.Context, email, key string) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.post(ctx, pathQuickLogin, QuickLoginRequest{Email: email, QuickLoginKey: key}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeOAuth finalizes a popup-based OAuth redirect.
func (c *Client) ExchangeOAuth(ctx context.Context, req OAuthExchangeRequest) (*OAuthResponse, error) {
	var resp OAuthResponse
	if err := c.post(ctx, pathOAuthExchange, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type errorBody struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Error       string `json:"error"`
	UnlockAt    string `json:"unlock_at"`
	LockedUntil int64  `json:"locked_until"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "malformed gateway response"}
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return apiErr
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}

	apiErr.Code = body.Code
	apiErr.Message = body.Message
	if apiErr.Message == "" {
		apiErr.Message = body.Error
	}

	if body.UnlockAt != "" {
		if t, err := time.Parse(time.RFC3339, body.UnlockAt); err == nil {
			apiErr.UnlockAt = &t
		}
	} else if body.LockedUntil > 0 {
		t := time.Unix(body.LockedUntil, 0)
		apiErr.UnlockAt = &t
	}

	return apiErr
}
