/*
Package req provides helpers for building outbound requests to the remote service.

It escapes path segments, assembles query strings, and encodes JSON bodies once so a
request can be replayed byte-for-byte.
*/
package req

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Path joins segments into an absolute path, escaping each one.
// Path("chat", id, "messages") -> "/chat/<id>/messages".
func Path(segments ...string) string {
	var b strings.Builder

	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}

	return b.String()
}

// WithQuery appends key/value pairs to p as a query string. Pairs with an empty
// value are kept so the service sees the parameter. An odd number of arguments drops
// the trailing key.
func WithQuery(p string, kv ...string) string {
	if len(kv) < 2 {
		return p
	}

	values := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		values.Set(kv[i], kv[i+1])
	}

	return p + "?" + values.Encode()
}

// EncodeJSON marshals v for use as a request body. A nil v yields a nil body.
func EncodeJSON(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
