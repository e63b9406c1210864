package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/article-analyzer/analysis"
	"github.com/dshills/article-analyzer/model"
	"github.com/dshills/article-analyzer/pipeline"
)

type fakeAnalyzer struct {
	resp analysis.Response
	err  error
	got  []analysis.Request
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req analysis.Request) (analysis.Response, error) {
	f.got = append(f.got, req)
	if err := req.Validate(); err != nil {
		return analysis.Response{}, err
	}
	return f.resp, f.err
}

func newTestServer(t *testing.T, a Analyzer, g prometheus.Gatherer) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(a, g, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

var longText = strings.Repeat("Go is a statically typed language. ", 3)

func TestRoot(t *testing.T) {
	srv := newTestServer(t, &fakeAnalyzer{}, nil)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"message": "Article Analysis Agent API",
		"usage":   "Send a POST request to /analyze with your article text",
	}
	if diff := cmp.Diff(want, decodeBody(t, resp)); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze(t *testing.T) {
	okResp := analysis.Response{
		AnalysisA:       analysis.ParseResult[analysis.Analysis](`{"qualityAssessment":{"score":80}}`),
		AnalysisB:       analysis.ParseResult[analysis.Analysis]("no json <here>"),
		FinalComparison: analysis.ParseResult[analysis.Comparison](`{"finalAssessment":{"combinedQualityScore":77}}`),
	}
	stepErr := &pipeline.StepError{
		RunID:  "r1",
		Step:   2,
		StepID: analysis.StepAnalysisB,
		Cause:  &model.ProviderError{Provider: "anthropic", Code: "server_error", Message: "overloaded"},
	}

	tests := []struct {
		name       string
		analyzer   *fakeAnalyzer
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			analyzer:   &fakeAnalyzer{resp: okResp},
			body:       `{"text": "` + longText + `", "topic": null}`,
			wantStatus: http.StatusOK,
			wantBody: `{"analysisA":{"qualityAssessment":{"score":80}},` +
				`"analysisB":{"error":"Failed to parse response","raw_response":"no json <here>"},` +
				`"finalComparison":{"finalAssessment":{"combinedQualityScore":77}}}`,
		},
		{
			name:       "too short",
			analyzer:   &fakeAnalyzer{},
			body:       `{"text": "short"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"detail":"Article text is too short. Please provide at least 50 characters."}`,
		},
		{
			name:       "pipeline failure",
			analyzer:   &fakeAnalyzer{err: stepErr},
			body:       `{"text": "` + longText + `"}`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"detail":"Analysis failed: analysis_b: anthropic: server_error: overloaded"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.analyzer, nil)

			resp, err := http.Post(srv.URL+"/analyze", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}
			data, _ := io.ReadAll(resp.Body)
			if got := strings.TrimSpace(string(data)); got != tt.wantBody {
				t.Errorf("body = %s\nwant   %s", got, tt.wantBody)
			}
		})
	}
}

func TestAnalyze_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"text":`},
		{"wrong type", `{"text": 42}`},
		{"too large", `{"text": "` + strings.Repeat("a", MaxBodyBytes) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &fakeAnalyzer{}
			handler := New(a, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Routes()

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(tt.body)))

			resp := rec.Result()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
			detail, _ := decodeBody(t, resp)["detail"].(string)
			if !strings.HasPrefix(detail, "invalid request body:") {
				t.Errorf("detail = %q", detail)
			}
			if len(a.got) != 0 {
				t.Error("analyzer must not be called")
			}
		})
	}
}

func TestAnalyze_PassesTopic(t *testing.T) {
	a := &fakeAnalyzer{}
	srv := newTestServer(t, a, nil)

	resp, err := http.Post(srv.URL+"/analyze", "application/json",
		strings.NewReader(`{"text": "`+longText+`", "topic": "static typing"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if len(a.got) != 1 || a.got[0].Topic != "static typing" {
		t.Errorf("requests = %+v", a.got)
	}
}

func TestMetricsAndHealth(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := pipeline.NewMetrics(registry)
	metrics.IncrementRuns("success")

	srv := newTestServer(t, &fakeAnalyzer{}, registry)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(data), `article_analyzer_runs_total{status="success"} 1`) {
		t.Errorf("metrics output missing runs_total:\n%s", data)
	}

	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeBody(t, resp)["status"]; got != "ok" {
		t.Errorf("status = %v", got)
	}

	noMetrics := newTestServer(t, &fakeAnalyzer{}, nil)
	resp, err = http.Get(noMetrics.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a gatherer", resp.StatusCode)
	}
}

func TestAnalyze_ErrorIsLogged(t *testing.T) {
	var logs strings.Builder
	a := &fakeAnalyzer{err: errors.New("boom")}
	handler := New(a, nil, slog.New(slog.NewTextHandler(&logs, nil))).Routes()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{"text": "`+longText+`"}`)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
	for _, want := range []string{"analysis failed", "boom", "http request", "status=500"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs missing %q:\n%s", want, logs.String())
		}
	}
}
