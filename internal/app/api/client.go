/*
Package api is the client side of the remote chat service's HTTP surface.

This file defines Client, the resilient request wrapper every resource call goes through.
It attaches the ambient credential (the cookies in the client's jar), tags each attempt
with a request id, and on an authorization failure performs exactly one credential
renewal followed by at most one replay of the original request.
*/
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"livesync/internal/pkg/logx"
	"livesync/internal/pkg/randx"
	"livesync/internal/pkg/req"
)

const (
	// RenewPath is the fixed credential renewal endpoint.
	RenewPath = "/auth/refresh"

	// DefaultTimeout bounds a single attempt when Options.Timeout is zero.
	DefaultTimeout = 15 * time.Second

	// maxResponseSize caps how much of a response body is buffered.
	maxResponseSize = 16 << 20
)

// Response is a fully buffered HTTP response. The client never interprets Body.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Options configures a Client.
type Options struct {
	// BaseURL is the REST root, e.g. "https://example.com/api".
	BaseURL string

	// Timeout bounds each attempt (the original call, the renewal, the replay).
	Timeout time.Duration

	// Jar holds the ambient credential. A fresh in-memory jar is created when nil.
	Jar http.CookieJar

	// Transport is wrapped by the logging transport. http.DefaultTransport when nil.
	Transport http.RoundTripper
}

// Client performs requests against the service. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  zerolog.Logger
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", opts.BaseURL)
	}

	jar := opts.Jar
	if jar == nil {
		jar, err = cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: logx.NewTransport(opts.Transport),
		},
		logger: logx.Component("api"),
	}, nil
}

// Jar returns the cookie jar holding the ambient credential.
func (c *Client) Jar() http.CookieJar {
	return c.http.Jar
}

// BaseURL returns a copy of the REST root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Perform sends the request and handles credential renewal.
//
// On a 401 the client calls RenewPath once. If renewal succeeds the original request
// is replayed exactly once and its response returned as-is, even when it is another
// 401. If renewal fails the original 401 response is returned unchanged. A non-nil
// error means the transport failed; body is marshalled to JSON once and reused.
func (c *Client) Perform(ctx context.Context, method, path string, body any) (*Response, error) {
	payload, err := req.EncodeJSON(body)
	if err != nil {
		return nil, err
	}

	res, err := c.send(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}

	if res.Status != http.StatusUnauthorized {
		return res, nil
	}

	if !c.renew(ctx) {
		return res, nil
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("Credential renewed, replaying request")

	return c.send(ctx, method, path, payload)
}

// performOnce sends the request without renewal handling. Used by the calls that
// establish a credential in the first place.
func (c *Client) performOnce(ctx context.Context, method, path string, body any) (*Response, error) {
	payload, err := req.EncodeJSON(body)
	if err != nil {
		return nil, err
	}

	return c.send(ctx, method, path, payload)
}

// renew calls the renewal endpoint and reports whether it succeeded.
func (c *Client) renew(ctx context.Context) bool {
	res, err := c.send(ctx, http.MethodPost, RenewPath, nil)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Credential renewal failed")
		return false
	}

	if !res.OK() {
		c.logger.Info().Int("status", res.Status).Msg("Credential renewal rejected")
		return false
	}

	return true
}

// send performs a single attempt and buffers the response.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	r.Header.Set("Accept", "application/json")
	r.Header.Set(logx.RequestIDHeader, randx.RequestID())
	if payload != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	return &Response{
		Status: res.StatusCode,
		Header: res.Header,
		Body:   data,
	}, nil
}
