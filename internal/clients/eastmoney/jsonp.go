package eastmoney

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// RealtimeCallback is the callback name the realtime endpoint wraps its payload in.
const RealtimeCallback = "jsonpgz"

var (
	// ErrMalformedJSONP is returned when the body is not wrapped in the expected callback
	// or the wrapped payload is not a JSON object.
	ErrMalformedJSONP = errors.New("malformed JSONP response")

	// ErrEmptyJSONP is returned for a well-formed wrapper with nothing inside, which is
	// how the upstream reports a fund without an intraday estimate.
	ErrEmptyJSONP = errors.New("empty JSONP payload")
)

// ParseJSONP strips callback(...) from body and returns the JSON object inside.
// Surrounding whitespace and a trailing semicolon are tolerated.
func ParseJSONP(body []byte, callback string) ([]byte, error) {
	s := bytes.TrimSpace(body)
	s = bytes.TrimSpace(bytes.TrimSuffix(s, []byte(";")))

	prefix := []byte(callback + "(")
	if !bytes.HasPrefix(s, prefix) || !bytes.HasSuffix(s, []byte(")")) {
		return nil, fmt.Errorf("%w: missing %s(...) wrapper", ErrMalformedJSONP, callback)
	}

	inner := bytes.TrimSpace(s[len(prefix) : len(s)-1])
	if len(inner) == 0 {
		return nil, ErrEmptyJSONP
	}
	if inner[0] != '{' || !json.Valid(inner) {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedJSONP)
	}

	return inner, nil
}
