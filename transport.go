package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultLoginPath is appended to the endpoint to build the login URL.
const DefaultLoginPath = "/login"

const maxResponseBytes = 1 << 20

// LoginRequest is the body sent to the authentication endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by the authentication endpoint. Token
// is set on success, Message on failure.
type LoginResponse struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client performs the login round trip against the authentication endpoint.
// It makes exactly one request per call and never retries.
type Client struct {
	endpoint  string
	loginPath string
	doer      HTTPDoer
	logger    Logger
	userAgent string
}

var _ Authenticator = (*Client)(nil)

// ClientOption customizes the Client.
type ClientOption func(*Client)

// WithHTTPDoer replaces the HTTP client used for the round trip.
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.doer = &http.Client{Timeout: timeout}
		}
	}
}

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(path string) ClientOption {
	return func(c *Client) {
		if path != "" {
			c.loginPath = "/" + strings.TrimLeft(path, "/")
		}
	}
}

// WithClientLogger sets the logger used by the client.
func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient returns a client for the authentication service at endpoint,
// e.g. "http://192.168.0.190:9999".
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		loginPath: DefaultLoginPath,
		doer:      &http.Client{Timeout: 30 * time.Second},
		logger:    defLogger{},
		userAgent: "go-auth-client",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// LoginURL returns the URL the login request is posted to.
func (c *Client) LoginURL() string {
	return c.endpoint + c.loginPath
}

// Login posts the credentials and returns the issued token.
//
// A transport failure yields ErrNetworkFailure. A non-success status yields
// ErrRejected with the server message, or "Login failed." when none was
// sent. A success status without a token yields ErrMalformedResponse.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return "", withCause(ErrNetworkFailure, err, nil)
	}

	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.LoginURL(), bytes.NewReader(body))
	if err != nil {
		return "", withCause(ErrNetworkFailure, err, map[string]any{"url": c.LoginURL()})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("login request", "url", c.LoginURL(), "username", username, "request_id", requestID)

	res, err := c.doer.Do(req)
	if err != nil {
		c.logger.Error("login request failed", "request_id", requestID, "error", err)
		return "", withCause(ErrNetworkFailure, err, map[string]any{
			"url":        c.LoginURL(),
			"request_id": requestID,
		})
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return "", withCause(ErrNetworkFailure, err, map[string]any{
			"status":     res.StatusCode,
			"request_id": requestID,
		})
	}

	var payload LoginResponse
	decodeErr := json.Unmarshal(raw, &payload)

	if res.StatusCode/100 != 2 {
		message := strings.TrimSpace(payload.Message)
		if decodeErr != nil || message == "" {
			message = MessageLoginFailed
		}
		c.logger.Info("login rejected", "status", res.StatusCode, "request_id", requestID, "message", message)
		return "", detailed(ErrRejected, message, map[string]any{
			"status":     res.StatusCode,
			"request_id": requestID,
		})
	}

	if decodeErr != nil {
		return "", withCause(ErrMalformedResponse, decodeErr, map[string]any{
			"status":     res.StatusCode,
			"request_id": requestID,
		})
	}

	if payload.Token == "" {
		return "", detailed(ErrMalformedResponse, "", map[string]any{
			"status":     res.StatusCode,
			"request_id": requestID,
		})
	}

	return payload.Token, nil
}
