package analysis

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestScore_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Score
	}{
		{`78`, Score{Value: 78, Valid: true}},
		{`72.5`, Score{Value: 72.5, Valid: true}},
		{`"78/100"`, Score{Value: 78, Valid: true}},
		{`"about 6.5 out of 10"`, Score{Value: 6.5, Valid: true}},
		{`"n/a"`, Score{}},
		{`{"score": 80, "explanation": "weighted"}`, Score{Value: 80, Valid: true}},
		{`{"value": "75"}`, Score{Value: 75, Valid: true}},
		{`{"explanation": "no number"}`, Score{}},
		{`null`, Score{}},
		{`true`, Score{}},
		{`[1, 2]`, Score{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got Score
			if err := json.Unmarshal([]byte(tt.in), &got); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestScore_MarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Score{{Value: 81, Valid: true}, {}})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "[81,null]" {
		t.Errorf("got %s", data)
	}
}

func TestTextAndTextList(t *testing.T) {
	var v struct {
		A Text     `json:"a"`
		B Text     `json:"b"`
		C TextList `json:"c"`
		D TextList `json:"d"`
		E TextList `json:"e"`
	}
	in := `{"a": "plain", "b": {"k": [1, 2]}, "c": ["x", 2, {"y": true}], "d": "single", "e": null}`
	if err := json.Unmarshal([]byte(in), &v); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if v.A != "plain" {
		t.Errorf("A = %q", v.A)
	}
	if v.B != `{"k":[1,2]}` {
		t.Errorf("B = %q", v.B)
	}
	if diff := cmp.Diff([]string{"x", "2", `{"y":true}`}, v.C.Strings()); diff != "" {
		t.Errorf("C mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"single"}, v.D.Strings()); diff != "" {
		t.Errorf("D mismatch (-want +got):\n%s", diff)
	}
	if v.E != nil {
		t.Errorf("E = %v, want nil", v.E)
	}
}

// TestAnalysis_Lenient checks that a malformed section does not discard
// the rest of the analysis.
func TestAnalysis_Lenient(t *testing.T) {
	in := `{
		"contentQuality": "this should have been an object",
		"searchRankingAnalysis": {"relevanceScore": "7/10", "keywordGaps": "go generics"},
		"improvementActions": [
			{"priority": "High", "action": "Add examples", "impact": "Better engagement"},
			{"priority": "Low", "action": "Fix typos"}
		],
		"qualityAssessment": {"score": "78", "strengths": ["clear", "concise", "current"]},
		"extraKey": 1
	}`

	var a Analysis
	if err := json.Unmarshal([]byte(in), &a); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if a.ContentQuality != nil {
		t.Errorf("ContentQuality = %+v, want nil", a.ContentQuality)
	}
	if a.SearchRankingAnalysis == nil || a.SearchRankingAnalysis.RelevanceScore != (Score{Value: 7, Valid: true}) {
		t.Errorf("SearchRankingAnalysis = %+v", a.SearchRankingAnalysis)
	}
	if len(a.ImprovementActions) != 2 || a.ImprovementActions[0].Action != "Add examples" {
		t.Errorf("ImprovementActions = %+v", a.ImprovementActions)
	}
	if got := a.QualityScore(); got != (Score{Value: 78, Valid: true}) {
		t.Errorf("QualityScore = %+v", got)
	}
	if len(a.QualityAssessment.Strengths) != 3 {
		t.Errorf("Strengths = %v", a.QualityAssessment.Strengths)
	}
}

func TestComparison_CombinedScore(t *testing.T) {
	in := `{
		"keyInsights": {"agreement": ["structure"], "mostActionableFeedback": "B"},
		"finalAssessment": {"combinedQualityScore": {"score": 74, "explanation": "avg of 70 and 78"}}
	}`

	var c Comparison
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got := c.CombinedScore(); got != (Score{Value: 74, Valid: true}) {
		t.Errorf("CombinedScore = %+v", got)
	}
	if c.KeyInsights.MostActionableFeedback != "B" {
		t.Errorf("MostActionableFeedback = %q", c.KeyInsights.MostActionableFeedback)
	}

	var nilComparison *Comparison
	if nilComparison.CombinedScore().Valid {
		t.Error("nil Comparison must give an invalid score")
	}
}
