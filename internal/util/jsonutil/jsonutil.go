package jsonutil

import (
	"bytes"
	"encoding/json"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Equal reports structural equality of two values through their JSON form.
func Equal(a, b any) bool {
	am, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bm, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(am, bm)
}

// Clone deep-copies src into dst through its JSON form.
func Clone[T any](src T) (T, error) {
	var dst T
	b, err := json.Marshal(src)
	if err != nil {
		return dst, err
	}
	if err := json.Unmarshal(b, &dst); err != nil {
		return dst, err
	}
	return dst, nil
}
