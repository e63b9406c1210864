package analysis

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseResult(t *testing.T) {
	t.Run("parsed reply keeps key order and literals", func(t *testing.T) {
		r := ParseResult[Analysis]("```json\n{\"zeta\": 1.50, \"alpha\": {\"b\": 2, \"a\": 1}}\n```")

		if r.Failed() || r.IsZero() {
			t.Fatalf("unexpected state: failed=%v zero=%v", r.Failed(), r.IsZero())
		}
		if got, want := string(r.Raw()), `{"zeta":1.50,"alpha":{"b":2,"a":1}}`; got != want {
			t.Errorf("Raw = %s, want %s", got, want)
		}
		if r.Typed() == nil {
			t.Error("expected a typed view")
		}
	})

	t.Run("unparseable reply becomes fallback", func(t *testing.T) {
		r := ParseResult[Analysis]("I can't do that <b>now</b>")

		if !r.Failed() {
			t.Fatal("expected Failed")
		}
		if r.Typed() != nil {
			t.Error("fallback must not have a typed view")
		}
		if r.RawResponse() != "I can't do that <b>now</b>" {
			t.Errorf("RawResponse = %q", r.RawResponse())
		}
		want := `{"error":"Failed to parse response","raw_response":"I can't do that <b>now</b>"}`
		if string(r.Raw()) != want {
			t.Errorf("Raw = %s, want %s", r.Raw(), want)
		}
		if diff := cmp.Diff(fallbackRecord("I can't do that <b>now</b>"), r.Fields()); diff != "" {
			t.Errorf("Fields mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("zero value", func(t *testing.T) {
		var r Result[Comparison]
		if !r.IsZero() {
			t.Error("expected IsZero")
		}
		if string(r.Raw()) != "{}" {
			t.Errorf("Raw = %s, want {}", r.Raw())
		}
		if len(r.Fields()) != 0 {
			t.Errorf("Fields = %v, want empty", r.Fields())
		}
	})
}

// TestResult_JSONRoundTrip checks that a state snapshot written to the
// journal restores the same results.
func TestResult_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Result[Analysis]
	}{
		{"parsed", ParseResult[Analysis](`{"qualityAssessment": {"score": 81}}`)},
		{"fallback", ParseResult[Analysis]("plain prose")},
		{"zero", Result[Analysis]{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}

			var out Result[Analysis]
			if err := json.Unmarshal(data, &out); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}

			if string(out.Raw()) != string(tt.in.Raw()) {
				t.Errorf("Raw = %s, want %s", out.Raw(), tt.in.Raw())
			}
			if out.Failed() != tt.in.Failed() {
				t.Errorf("Failed = %v, want %v", out.Failed(), tt.in.Failed())
			}
			if out.IsZero() != tt.in.IsZero() {
				t.Errorf("IsZero = %v, want %v", out.IsZero(), tt.in.IsZero())
			}
			if out.RawResponse() != tt.in.RawResponse() {
				t.Errorf("RawResponse = %q, want %q", out.RawResponse(), tt.in.RawResponse())
			}
		})
	}
}

func TestResult_Indented(t *testing.T) {
	r := ParseResult[Analysis](`{"a":{"b":1}}`)
	want := "{\n  \"a\": {\n    \"b\": 1\n  }\n}"
	if got := r.Indented(); got != want {
		t.Errorf("Indented = %q, want %q", got, want)
	}
}
