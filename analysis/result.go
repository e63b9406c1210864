package analysis

import (
	"bytes"
	"encoding/json"
)

// Result is the outcome of coercing one model reply to JSON.
//
// It is either the parsed object, kept verbatim (key order and number
// literals included) alongside a leniently decoded view of type T, or the
// fallback record {"error": "Failed to parse response", "raw_response": ...}.
// The zero Result is unset and marshals as {}.
type Result[T any] struct {
	raw    json.RawMessage
	fields map[string]any
	typed  *T

	failed      bool
	rawResponse string
}

// ParseResult builds a Result from a model reply using the ExtractJSON rules.
func ParseResult[T any](text string) Result[T] {
	raw, ok := extractObject(text)
	if !ok {
		return fallbackResult[T](text)
	}
	r, err := resultFromRaw[T](raw)
	if err != nil {
		return fallbackResult[T](text)
	}
	return r
}

func resultFromRaw[T any](raw json.RawMessage) (Result[T], error) {
	fields, err := decodeFields(raw)
	if err != nil {
		return Result[T]{}, err
	}

	r := Result[T]{raw: raw, fields: fields}
	var typed T
	if err := json.Unmarshal(raw, &typed); err == nil {
		r.typed = &typed
	}
	return r, nil
}

func fallbackResult[T any](text string) Result[T] {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a map of two strings cannot fail.
	_ = enc.Encode(map[string]string{
		FallbackErrorKey: FallbackErrorMessage,
		FallbackRawKey:   text,
	})

	return Result[T]{
		raw:         bytes.TrimRight(buf.Bytes(), "\n"),
		fields:      fallbackRecord(text),
		failed:      true,
		rawResponse: text,
	}
}

// IsZero reports whether the Result has not been written yet.
func (r Result[T]) IsZero() bool {
	return r.raw == nil
}

// Failed reports whether the reply could not be parsed and the Result
// holds the fallback record.
func (r Result[T]) Failed() bool {
	return r.failed
}

// RawResponse returns the unparsed reply when Failed is true.
func (r Result[T]) RawResponse() string {
	return r.rawResponse
}

// Fields returns the mapping: the parsed object, or the fallback record.
// Numbers are json.Number. The map is shared; callers must not modify it.
func (r Result[T]) Fields() map[string]any {
	if r.fields == nil {
		return map[string]any{}
	}
	return r.fields
}

// Typed returns the schema view, or nil when the reply failed to parse
// or its shape could not be decoded at all.
func (r Result[T]) Typed() *T {
	return r.typed
}

// Raw returns the compact JSON encoding of the mapping.
func (r Result[T]) Raw() json.RawMessage {
	if r.raw == nil {
		return json.RawMessage("{}")
	}
	return r.raw
}

// Indented returns the mapping pretty-printed with two-space indentation.
func (r Result[T]) Indented() string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, r.Raw(), "", "  "); err != nil {
		return string(r.Raw())
	}
	return buf.String()
}

// MarshalJSON emits the mapping verbatim.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	return r.Raw(), nil
}

// UnmarshalJSON restores a Result from its marshaled form. An empty
// object restores the unset Result; the fallback record restores a
// failed Result.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return err
	}
	compact := buf.Bytes()

	if bytes.Equal(compact, []byte("{}")) || bytes.Equal(compact, []byte("null")) {
		*r = Result[T]{}
		return nil
	}

	restored, err := resultFromRaw[T](compact)
	if err != nil {
		return err
	}
	if text, ok := isFallbackRecord(restored.fields); ok {
		restored = fallbackResult[T](text)
	}
	*r = restored
	return nil
}
