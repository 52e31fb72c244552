/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains Transport, an http.RoundTripper that logs every outbound call the
client makes to the remote service.
*/
package logx

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// RequestIDHeader carries the per-attempt request id on outbound calls.
const RequestIDHeader = "X-Request-ID"

// Transport wraps another RoundTripper and logs method, path, status and latency.
type Transport struct {
	// Base is the wrapped transport; http.DefaultTransport when nil.
	Base http.RoundTripper

	logger zerolog.Logger
}

// NewTransport returns a logging transport around base.
func NewTransport(base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &Transport{
		Base:   base,
		logger: Component("http-client"),
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	started := time.Now()

	res, err := t.Base.RoundTrip(r)

	logger := t.logger.With().
		Str("request_id", r.Header.Get(RequestIDHeader)).
		Str("request_method", r.Method).
		Str("request_path", r.URL.Path).
		Dur("latency", time.Since(started)).
		Logger()

	if err != nil {
		logger.Warn().Err(err).Msg("Request failed")
		return nil, err
	}

	logEvent := logger.Debug()
	if res.StatusCode >= 500 {
		logEvent = logger.Error()
	} else if res.StatusCode >= 400 {
		logEvent = logger.Info()
	}

	logEvent.Int("status", res.StatusCode).Msg("Request completed")

	return res, nil
}
