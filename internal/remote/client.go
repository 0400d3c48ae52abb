package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dghubble/sling"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"

	"github.com/forrev/forrev-cli/internal/logger"
)

const (
	// DefaultBaseURL is where the forrev API listens in development
	DefaultBaseURL = "http://127.0.0.1:8000/"
	timeout        = 10 * time.Second

	CSRFCookieName    = "csrftoken"
	CSRFHeaderName    = "X-CSRFToken"
	SessionCookieName = "sessionid"
)

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Cookies restores a previously persisted session into the jar
	Cookies []*http.Cookie
	// Transport overrides the HTTP transport (tests)
	Transport http.RoundTripper
}

// Client talks to the forrev service. A Client is owned by one root scope
// (one CLI invocation or one TUI session) and passed explicitly to the
// components that need it.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        http.CookieJar
	base       *sling.Sling

	primeMu sync.Mutex
}

// NormalizeBaseURL returns raw with a trailing slash, or DefaultBaseURL when
// raw is empty. It fails unless raw is an http(s) URL.
func NormalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL must be http or https, got %q", raw)
	}
	return u.String(), nil
}

// NewClient creates a new forrev API client with its own cookie jar
func NewClient(opts Options) (*Client, error) {
	raw, err := NormalizeBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	baseURL, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	if len(opts.Cookies) > 0 {
		jar.SetCookies(baseURL, opts.Cookies)
	}

	clientTimeout := opts.Timeout
	if clientTimeout <= 0 {
		clientTimeout = timeout
	}

	httpClient := &http.Client{
		Timeout:   clientTimeout,
		Jar:       jar,
		Transport: opts.Transport,
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		jar:        jar,
		base: sling.New().
			Client(httpClient).
			Base(baseURL.String()).
			Set("Accept", "application/json").
			ResponseDecoder(responseDecoder{}),
	}, nil
}

// BaseURL returns the service root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the cookies currently held for the service, for persistence
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// ClearCookies drops the session and CSRF cookies from the jar
func (c *Client) ClearCookies() {
	expired := make([]*http.Cookie, 0, 2)
	for _, name := range []string{SessionCookieName, CSRFCookieName} {
		expired = append(expired, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.baseURL, expired)
}

// csrfToken returns the anti-forgery token held in the jar, if any
func (c *Client) csrfToken() string {
	for _, cookie := range c.jar.Cookies(c.baseURL) {
		if cookie.Name == CSRFCookieName {
			return cookie.Value
		}
	}
	return ""
}

// ensureCSRF primes the anti-forgery token unless the jar already holds one
func (c *Client) ensureCSRF(ctx context.Context) (string, error) {
	c.primeMu.Lock()
	defer c.primeMu.Unlock()

	if token := c.csrfToken(); token != "" {
		return token, nil
	}
	if err := c.primeCSRF(ctx); err != nil {
		return "", err
	}
	token := c.csrfToken()
	if token == "" {
		return "", &AuthError{Status: http.StatusForbidden, Message: "service did not issue a CSRF token"}
	}
	return token, nil
}

// mutating returns a request builder carrying the CSRF header
func (c *Client) mutating(ctx context.Context) (*sling.Sling, error) {
	token, err := c.ensureCSRF(ctx)
	if err != nil {
		return nil, fmt.Errorf("priming CSRF token: %w", err)
	}
	return c.base.New().Set(CSRFHeaderName, token), nil
}

// do executes one request built from s. A nil success skips decoding the
// body. Non-2xx responses are classified into AuthError or ServerError.
func (c *Client) do(ctx context.Context, op string, s *sling.Sling, success interface{}) error {
	defer logger.Timed("remote."+op, time.Now())

	requestID := uuid.NewString()
	req, err := s.Set("X-Request-ID", requestID).Request()
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req = req.WithContext(ctx)

	logger.Debug("Sending request", logger.Fields{
		"op":         op,
		"method":     req.Method,
		"url":        req.URL.String(),
		"request_id": requestID,
	})

	var failure []byte
	resp, err := s.Do(req, success, &failure)
	if resp == nil {
		logger.Warn("Request did not complete", logger.Fields{"op": op, "request_id": requestID})
		return &NetworkError{Op: op, Err: err}
	}
	if err != nil && !code2xx(resp.StatusCode) {
		// Body could not be read; classify on status alone
		failure = nil
	} else if err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}

	if code2xx(resp.StatusCode) {
		return nil
	}

	apiErr := newStatusError(resp.StatusCode, resp.Header.Get("Content-Type"), failure)
	logger.Info("Request rejected", logger.Fields{
		"op":         op,
		"status":     resp.StatusCode,
		"request_id": requestID,
	})
	return apiErr
}

func code2xx(code int) bool {
	return code >= 200 && code < 300
}

// responseDecoder decodes JSON success bodies and captures raw failure bodies
// so their message can be extracted whatever the content type.
type responseDecoder struct{}

func (responseDecoder) Decode(resp *http.Response, v interface{}) error {
	if raw, ok := v.(*[]byte); ok {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		*raw = body
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
