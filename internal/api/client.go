// Package api is the client for the posting backend. Every method returns
// its result or an *Error; nothing is retried or cached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dyike/xagent/internal/session"
)

const (
	DefaultTimeout = 30 * time.Second
	userAgent      = "xagent/1.0"
)

// Client is the transport shared by the auth, content and payment clients.
type Client struct {
	http   *resty.Client
	creds  session.Store
	logger *zap.Logger

	mu      sync.RWMutex
	baseURL string

	auth    *AuthClient
	content *ContentClient
	payment *PaymentClient
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = resty.NewWithClient(hc).SetTimeout(hc.Timeout)
		}
	}
}

// New returns a client for the backend at baseURL. creds is consulted for
// the bearer credential on every authenticated call.
func New(baseURL string, creds session.Store, opts ...Option) *Client {
	c := &Client{
		http:    resty.New().SetTimeout(DefaultTimeout),
		creds:   creds,
		logger:  zap.NewNop(),
		baseURL: normalizeBaseURL(baseURL),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("component", "api"))
	c.http.SetHeader("User-Agent", userAgent)
	c.http.SetLogger(c.logger.Sugar())
	// The default backend is plain http on localhost.
	c.http.SetDisableWarn(true)

	c.auth = &AuthClient{c: c}
	c.content = &ContentClient{c: c}
	c.payment = &PaymentClient{c: c}
	return c
}

func (c *Client) Auth() *AuthClient       { return c.auth }
func (c *Client) Content() *ContentClient { return c.content }
func (c *Client) Payment() *PaymentClient { return c.payment }

// Credentials exposes the session store the client reads from.
func (c *Client) Credentials() session.Store {
	return c.creds
}

func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SetBaseURL points subsequent requests at a different backend. Requests
// already in flight are unaffected.
func (c *Client) SetBaseURL(u string) {
	c.mu.Lock()
	c.baseURL = normalizeBaseURL(u)
	c.mu.Unlock()
}

func normalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/")
}

// call describes one backend request.
type call struct {
	op       string
	method   string
	path     string
	auth     bool
	form     map[string]string
	body     any
	query    url.Values
	fallback string
	out      any
}

func (c *Client) do(ctx context.Context, cl call) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("X-Request-ID", uuid.NewString())

	if cl.auth {
		token, ok := c.creds.Read()
		if !ok {
			return &Error{Kind: KindNoCredential, Op: cl.op, Message: NoCredentialMessage}
		}
		req.SetAuthToken(token)
	}
	switch {
	case cl.form != nil:
		req.SetFormData(cl.form)
	case cl.body != nil:
		req.SetHeader("Content-Type", "application/json").SetBody(cl.body)
	}
	if len(cl.query) > 0 {
		req.SetQueryParamsFromValues(cl.query)
	}

	target := c.BaseURL() + cl.path
	start := time.Now()
	resp, err := req.Execute(cl.method, target)
	if err != nil {
		c.logger.Warn("request failed",
			zap.String("op", cl.op), zap.String("url", target), zap.Error(err))
		return &Error{Kind: KindRequestFailed, Op: cl.op, Message: err.Error()}
	}

	status := resp.StatusCode()
	c.logger.Debug("request",
		zap.String("op", cl.op),
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)))

	if status == http.StatusUnauthorized && cl.auth {
		if err := c.creds.Clear(); err != nil {
			c.logger.Error("clear credential", zap.Error(err))
		}
		return &Error{Kind: KindSessionExpired, Status: status, Op: cl.op, Message: SessionExpiredMessage}
	}
	if status < 200 || status >= 300 {
		msg := serverMessage(resp.Header().Get("Content-Type"), resp.Body())
		if msg == "" {
			msg = cl.fallback
		}
		return &Error{Kind: KindRequestFailed, Status: status, Op: cl.op, Message: msg}
	}

	if cl.out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), cl.out); err != nil {
		return &Error{
			Kind:    KindRequestFailed,
			Status:  status,
			Op:      cl.op,
			Message: fmt.Sprintf("%s: invalid response: %v", cl.fallback, err),
		}
	}
	return nil
}

// serverMessage extracts a human readable message from an error body.
// Empty means the caller's fallback applies.
func serverMessage(contentType string, body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	if body[0] == '{' {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(body, &doc); err == nil {
			return jsonMessage(doc)
		}
	}

	if strings.Contains(contentType, "html") || body[0] == '<' {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return ""
		}
		return strings.TrimSpace(doc.Find("title").First().Text())
	}
	return ""
}

func jsonMessage(doc map[string]json.RawMessage) string {
	if raw, ok := doc["detail"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
		// FastAPI validation errors: [{"loc": [...], "msg": "...", "type": "..."}]
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(raw, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	for _, key := range []string{"message", "title", "error"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			return s
		}
	}
	return ""
}

func requireText(op, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return Validation(op, field+" must not be empty")
	}
	return nil
}

func requirePositive(op, field string, n int) error {
	if n < 1 {
		return Validation(op, fmt.Sprintf("%s must be at least 1", field))
	}
	return nil
}
