// Package apiclient talks to the venue booking REST API.  Every screen of
// the portal goes through it; the collaborator owns availability, pricing
// authority and persistence.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// number encodes an amount as a bare JSON number, which the collaborator
// expects for money.  It leaves decimal's package-wide setting alone.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

const maxBodyBytes = 1 << 20

// TokenSource yields the bearer credential to attach to a request.  An
// empty string means no Authorization header.
type TokenSource interface {
	Token() string
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

// Client is safe for concurrent use.  The With* methods return copies and
// never modify the receiver.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// New returns an unauthenticated client for baseURL (e.g.
// "http://localhost:8080/api").  A nil httpClient gets a 10s timeout client.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// WithTokenSource returns a client that reads the credential from src on
// every call.
func (c *Client) WithTokenSource(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// WithToken returns a client pinned to a fixed credential.
func (c *Client) WithToken(token string) *Client {
	return c.WithTokenSource(staticToken(token))
}

// BaseURL returns the collaborator base URL without trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) token() string {
	if c.tokens == nil {
		return ""
	}
	return c.tokens.Token()
}

type call struct {
	op      string
	method  string
	path    string
	query   url.Values
	body    any
	headers http.Header
}

// do executes one request/response pair.  Non-2xx statuses become *Error
// with the body parsed for messages; a nil out discards the body.
func (c *Client) do(ctx context.Context, in call, out any) error {
	target := c.baseURL + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var reader io.Reader
	if in.body != nil {
		raw, err := json.Marshal(in.body)
		if err != nil {
			return &Error{Op: in.op, Kind: KindTransport, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, reader)
	if err != nil {
		return &Error{Op: in.op, Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vals := range in.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: in.op, Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &Error{Op: in.op, Status: resp.StatusCode, Kind: KindTransport, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(in.op, resp.StatusCode, body)
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Op: in.op, Status: resp.StatusCode, Kind: KindDecode, Err: err}
	}
	return nil
}
