// Package snapshot encodes the durable mirror of the client store as a
// versioned JSON document: {"version": <int>, "state": {...}}.
package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed reports data that is not a snapshot document.
var ErrMalformed = errors.New("malformed snapshot")

// Envelope wraps every persisted state with its schema version. State is kept
// raw so callers can migrate it before decoding into their own types.
type Envelope struct {
	Version int             `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Encode marshals state under version.
func Encode(version int, state any) (string, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encode snapshot state: %w", err)
	}
	data, err := json.Marshal(Envelope{Version: version, State: raw})
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(data), nil
}

// Decode parses data into an Envelope. A missing version means the document
// predates versioning and is reported as version 0.
func Decode(data string) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Version < 0 {
		return Envelope{}, fmt.Errorf("%w: negative version %d", ErrMalformed, env.Version)
	}
	if len(env.State) == 0 || bytes.Equal(env.State, []byte("null")) {
		return Envelope{}, fmt.Errorf("%w: missing state", ErrMalformed)
	}
	return env, nil
}

// Object decodes the envelope state as a generic JSON object, the shape
// migrations operate on.
func (e Envelope) Object() (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(e.State, &obj); err != nil {
		return nil, fmt.Errorf("%w: state is not an object: %v", ErrMalformed, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: state is not an object", ErrMalformed)
	}
	return obj, nil
}

// Into decodes the envelope state into dst.
func (e Envelope) Into(dst any) error {
	if err := json.Unmarshal(e.State, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
