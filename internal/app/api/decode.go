package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"livesync/internal/pkg/errs"
)

// Decode turns the result of Perform into a typed value or a *errs.CustomError.
//
// A body shaped like {"code": ..., "error": ...} is a domain error and is surfaced
// verbatim whatever the status. Transport failures, non-JSON bodies and any other
// non-2xx response are normalized with errs.Internal.
func Decode[T any](res *Response, err error) (T, *errs.CustomError) {
	var zero T

	if err != nil {
		return zero, errs.Internal(err)
	}

	if p, ok := errorPayload(res.Body); ok {
		return zero, errs.FromPayload(p, res.Status)
	}

	if !res.OK() {
		return zero, errs.Internal(fmt.Errorf("unexpected status %d", res.Status))
	}

	var v T
	if err := json.Unmarshal(res.Body, &v); err != nil {
		return zero, errs.Internal(err)
	}

	return v, nil
}

// errorPayload reports whether body is a domain error payload.
func errorPayload(body []byte) (errs.Payload, bool) {
	var p errs.Payload

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return p, false
	}

	_, hasCode := fields["code"]
	_, hasError := fields["error"]
	if !hasCode || !hasError {
		return p, false
	}

	if err := json.Unmarshal(trimmed, &p); err != nil {
		return p, false
	}

	return p, true
}
