package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// Fallback record keys and message written when a reply is not a JSON object.
const (
	FallbackErrorKey    = "error"
	FallbackRawKey      = "raw_response"
	FallbackErrorMessage = "Failed to parse response"
)

// fencePattern matches the first ``` fenced block, with or without a
// language tag, and captures its interior.
var fencePattern = regexp.MustCompile("(?s)```[\\w+.-]*[ \\t]*\\r?\\n(.*?)\\r?\\n[ \\t]*```")

// ExtractJSON coerces a model reply into a mapping.
//
//  1. If the text contains a fenced block, its interior is parsed.
//  2. Otherwise, or if that fails, the whole trimmed text is parsed.
//  3. Otherwise the fallback record is returned:
//     {"error": "Failed to parse response", "raw_response": text}
//
// Only the first fenced block is tried. JSON surrounded by prose without
// fences is not recovered. Numbers are kept as json.Number so they are
// re-emitted unchanged. ExtractJSON never panics and never returns nil.
func ExtractJSON(text string) map[string]any {
	raw, ok := extractObject(text)
	if !ok {
		return fallbackRecord(text)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return fallbackRecord(text)
	}
	return fields
}

// extractObject returns the compacted bytes of the JSON object found in
// text, following the ExtractJSON rules.
func extractObject(text string) (json.RawMessage, bool) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		if raw, ok := parseObject(m[1]); ok {
			return raw, true
		}
	}
	return parseObject(text)
}

// parseObject accepts s only if, once trimmed, it is exactly one JSON
// object with nothing after it.
func parseObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}

	dec := json.NewDecoder(strings.NewReader(s))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

func decodeFields(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errors.New("not an object")
	}
	return fields, nil
}

func fallbackRecord(text string) map[string]any {
	return map[string]any{
		FallbackErrorKey: FallbackErrorMessage,
		FallbackRawKey:   text,
	}
}

// isFallbackRecord reports whether fields is exactly the fallback record.
func isFallbackRecord(fields map[string]any) (string, bool) {
	if len(fields) != 2 || fields[FallbackErrorKey] != FallbackErrorMessage {
		return "", false
	}
	raw, ok := fields[FallbackRawKey].(string)
	return raw, ok
}
