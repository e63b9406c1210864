package analysis

import (
	"bytes"
	"encoding/json"
	"reflect"
	"regexp"
	"strconv"
)

// Text is a string field that also accepts numbers, booleans, arrays and
// objects from the model; non-string values keep their compact JSON text.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = Text(buf.String())
	}
	return nil
}

// TextList is a list field that also accepts a single value.
type TextList []Text

// UnmarshalJSON implements json.Unmarshaler.
func (l *TextList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []Text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var one Text
	if err := one.UnmarshalJSON(data); err != nil {
		return err
	}
	*l = TextList{one}
	return nil
}

// Strings returns the items as plain strings.
func (l TextList) Strings() []string {
	out := make([]string, len(l))
	for i, t := range l {
		out[i] = string(t)
	}
	return out
}

// Score is a numeric rating. Models return it as a number, as a string
// such as "78/100" or "about 72", or as an object carrying a "score" or
// "value" key. Valid is false when no number could be found.
type Score struct {
	Value float64
	Valid bool
}

var firstNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// UnmarshalJSON implements json.Unmarshaler. It never fails on a
// well-formed JSON value.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if m := firstNumber.FindString(str); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				*s = Score{Value: v, Valid: true}
			}
		}
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		for _, key := range []string{"score", "value", "combinedScore"} {
			if raw, ok := obj[key]; ok {
				return s.UnmarshalJSON(raw)
			}
		}
	case 'n', 't', 'f', '[':
		// null, booleans and arrays carry no score
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = Score{Value: v, Valid: true}
	}
	return nil
}

// MarshalJSON emits the number, or null when the score is not valid.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// Rating is one graded criterion of an analysis. Each criterion fills
// only the detail fields its prompt asks for.
type Rating struct {
	Rating          Text     `json:"rating,omitempty"`
	Analysis        Text     `json:"analysis,omitempty"`
	MissingElements TextList `json:"missingElements,omitempty"`
	LogicalIssues   TextList `json:"logicalIssues,omitempty"`
	UniqueElements  TextList `json:"uniqueElements,omitempty"`
	Limitations     TextList `json:"limitations,omitempty"`
	Issues          TextList `json:"issues,omitempty"`
	Weaknesses      TextList `json:"weaknesses,omitempty"`
}

// ContentQuality grades depth, accuracy and originality.
type ContentQuality struct {
	Depth       *Rating `json:"depth,omitempty"`
	Accuracy    *Rating `json:"accuracy,omitempty"`
	Originality *Rating `json:"originality,omitempty"`
}

// WritingStyle grades clarity, engagement and flow.
type WritingStyle struct {
	Clarity    *Rating `json:"clarity,omitempty"`
	Engagement *Rating `json:"engagement,omitempty"`
	Flow       *Rating `json:"flow,omitempty"`
}

type ContentEnhancement struct {
	KeyTermsNeeded           TextList `json:"keyTermsNeeded,omitempty"`
	ExamplesNeeded           TextList `json:"examplesNeeded,omitempty"`
	CounterArgumentsNeeded   TextList `json:"counterArgumentsNeeded,omitempty"`
	SupportingEvidenceNeeded TextList `json:"supportingEvidenceNeeded,omitempty"`
}

type SearchRankingAnalysis struct {
	RelevanceScore           Score    `json:"relevanceScore"`
	CurrentRankingPrediction Text     `json:"currentRankingPrediction,omitempty"`
	CompetitorAnalysis       Text     `json:"competitorAnalysis,omitempty"`
	RankingImprovement       TextList `json:"rankingImprovement,omitempty"`
	SearchIntent             Text     `json:"searchIntent,omitempty"`
	KeywordGaps              TextList `json:"keywordGaps,omitempty"`
}

// ImprovementAction is one prioritized step of an analysis.
type ImprovementAction struct {
	Priority Text `json:"priority,omitempty"`
	Action   Text `json:"action,omitempty"`
	Impact   Text `json:"impact,omitempty"`
}

type QualityAssessment struct {
	Score                 Score    `json:"score"`
	Explanation           Text     `json:"explanation,omitempty"`
	Strengths             TextList `json:"strengths,omitempty"`
	ImmediateImprovements TextList `json:"immediateImprovements,omitempty"`
}

// Analysis is the typed view of one provider's article analysis. Every
// section is optional; a section whose shape does not match is left nil
// without affecting the others.
type Analysis struct {
	ContentQuality        *ContentQuality        `json:"contentQuality,omitempty"`
	WritingStyle          *WritingStyle          `json:"writingStyle,omitempty"`
	ContentEnhancement    *ContentEnhancement    `json:"contentEnhancement,omitempty"`
	SearchRankingAnalysis *SearchRankingAnalysis `json:"searchRankingAnalysis,omitempty"`
	ImprovementActions    []ImprovementAction    `json:"improvementActions,omitempty"`
	QualityAssessment     *QualityAssessment     `json:"qualityAssessment,omitempty"`
}

// UnmarshalJSON decodes section by section.
func (a *Analysis) UnmarshalJSON(data []byte) error {
	var out Analysis
	err := decodeSections(data, map[string]any{
		"contentQuality":        &out.ContentQuality,
		"writingStyle":          &out.WritingStyle,
		"contentEnhancement":    &out.ContentEnhancement,
		"searchRankingAnalysis": &out.SearchRankingAnalysis,
		"improvementActions":    &out.ImprovementActions,
		"qualityAssessment":     &out.QualityAssessment,
	})
	if err != nil {
		return err
	}
	*a = out
	return nil
}

// QualityScore returns qualityAssessment.score.
func (a *Analysis) QualityScore() Score {
	if a == nil || a.QualityAssessment == nil {
		return Score{}
	}
	return a.QualityAssessment.Score
}

type KeyInsights struct {
	Agreement              TextList `json:"agreement,omitempty"`
	Disagreement           TextList `json:"disagreement,omitempty"`
	MostActionableFeedback Text     `json:"mostActionableFeedback,omitempty"`
}

type SearchRankingStrategy struct {
	CurrentPosition  Text     `json:"currentPosition,omitempty"`
	TopCompetitors   TextList `json:"topCompetitors,omitempty"`
	QuickWins        TextList `json:"quickWins,omitempty"`
	LongTermStrategy TextList `json:"longTermStrategy,omitempty"`
	ContentGaps      TextList `json:"contentGaps,omitempty"`
}

type PrioritizedImprovementPlan struct {
	ImmediateActions      TextList `json:"immediateActions,omitempty"`
	SecondaryImprovements TextList `json:"secondaryImprovements,omitempty"`
	OptionalEnhancements  TextList `json:"optionalEnhancements,omitempty"`
}

type ContentPositioning struct {
	BestAspectsToPreserve TextList `json:"bestAspectsToPreserve,omitempty"`
	CriticalAreasToRevise TextList `json:"criticalAreasToRevise,omitempty"`
	UniqueAngle           Text     `json:"uniqueAngle,omitempty"`
	TargetAudience        Text     `json:"targetAudience,omitempty"`
}

type FinalAssessment struct {
	CombinedQualityScore      Score `json:"combinedQualityScore"`
	CombinedRankingPrediction Text  `json:"combinedRankingPrediction,omitempty"`
	ConfidenceLevel           Text  `json:"confidenceLevel,omitempty"`
	ExpectedTimeToRank        Text  `json:"expectedTimeToRank,omitempty"`
}

// Comparison is the typed view of the synthesis reply.
type Comparison struct {
	KeyInsights                *KeyInsights                `json:"keyInsights,omitempty"`
	SearchRankingStrategy      *SearchRankingStrategy      `json:"searchRankingStrategy,omitempty"`
	PrioritizedImprovementPlan *PrioritizedImprovementPlan `json:"prioritizedImprovementPlan,omitempty"`
	ContentPositioning         *ContentPositioning         `json:"contentPositioning,omitempty"`
	FinalAssessment            *FinalAssessment            `json:"finalAssessment,omitempty"`
}

// UnmarshalJSON decodes section by section.
func (c *Comparison) UnmarshalJSON(data []byte) error {
	var out Comparison
	err := decodeSections(data, map[string]any{
		"keyInsights":                &out.KeyInsights,
		"searchRankingStrategy":      &out.SearchRankingStrategy,
		"prioritizedImprovementPlan": &out.PrioritizedImprovementPlan,
		"contentPositioning":         &out.ContentPositioning,
		"finalAssessment":            &out.FinalAssessment,
	})
	if err != nil {
		return err
	}
	*c = out
	return nil
}

// CombinedScore returns finalAssessment.combinedQualityScore.
func (c *Comparison) CombinedScore() Score {
	if c == nil || c.FinalAssessment == nil {
		return Score{}
	}
	return c.FinalAssessment.CombinedQualityScore
}

// decodeSections decodes each known top-level key of the object in data
// into its target, a pointer. A section that fails to decode is reset to
// its zero value.
func decodeSections(data []byte, targets map[string]any) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return err
	}
	for name, target := range targets {
		raw, ok := sections[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, target); err != nil {
			v := reflect.ValueOf(target).Elem()
			v.Set(reflect.Zero(v.Type()))
		}
	}
	return nil
}
