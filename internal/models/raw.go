package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// RawResponse is the backend's analysis payload. Every field is optional.
// The original bytes are kept so downloads reproduce the payload as sent,
// and the first-row column order of each dataset is captured at decode time
// because Go maps do not keep key order.
type RawResponse struct {
	Fields  map[string]any
	columns map[string][]string
	raw     []byte
}

// ParseRawResponse decodes a stored payload, preserving numbers as json.Number.
// Anything other than a JSON object is an error.
func ParseRawResponse(data []byte) (*RawResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode raw response: %w", err)
	}
	if fields == nil {
		return nil, errors.New("raw response is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("raw response has trailing data")
	}

	columns, err := firstRowColumns(data)
	if err != nil {
		return nil, err
	}

	return &RawResponse{Fields: fields, columns: columns, raw: append([]byte(nil), data...)}, nil
}

// NewRawResponse wraps an already-decoded payload. Column order falls back
// to sorted keys.
func NewRawResponse(fields map[string]any) *RawResponse {
	if fields == nil {
		fields = map[string]any{}
	}
	return &RawResponse{Fields: fields}
}

// Get returns a top-level field.
func (r *RawResponse) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.Fields[key]
	return v, ok && v != nil
}

// Object returns a top-level field when it is a JSON object.
func (r *RawResponse) Object(key string) (map[string]any, bool) {
	v, ok := r.Get(key)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Columns returns the key order of the first row of dataset.
func (r *RawResponse) Columns(dataset string) []string {
	if r == nil {
		return nil
	}
	if cols, ok := r.columns[dataset]; ok {
		return cols
	}
	rows := AsSlice(r.Fields[dataset])
	if len(rows) == 0 {
		return nil
	}
	first, ok := rows[0].(map[string]any)
	if !ok {
		return nil
	}
	return SortedKeys(first)
}

// JSON returns the payload bytes; payloads built in memory are re-encoded.
func (r *RawResponse) JSON() ([]byte, error) {
	if r == nil {
		return nil, errors.New("no raw response")
	}
	if len(r.raw) > 0 {
		return r.raw, nil
	}
	return json.Marshal(r.Fields)
}

// Indented returns the payload pretty-printed with two-space indentation.
func (r *RawResponse) Indented() ([]byte, error) {
	data, err := r.JSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent raw response: %w", err)
	}
	return buf.Bytes(), nil
}

// firstRowColumns walks the top-level object and records, for each dataset
// key, the key order of the first row.
func firstRowColumns(data []byte) (map[string][]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("failed to scan raw response: %w", err)
	}

	out := make(map[string][]string)
	for _, key := range DatasetKeys {
		msg, ok := top[key]
		if !ok {
			continue
		}
		var rows []json.RawMessage
		if err := json.Unmarshal(msg, &rows); err != nil || len(rows) == 0 {
			continue
		}
		cols, err := objectKeys(rows[0])
		if err != nil {
			continue
		}
		out[key] = cols
	}
	return out, nil
}

func objectKeys(msg json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(msg))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("not an object")
	}

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New("unexpected object key")
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
