package analysis

import (
	"fmt"
	"strings"
)

// Topic placeholders used when the caller gives no topic.
const (
	DefaultAnalysisTopic   = "the main theme suggested by this content"
	DefaultComparisonTopic = "the main theme"
)

const analysisTemplate = `Analyze the following article and provide detailed, actionable feedback:

Article:
%s

Target Topic/Search Term: %s

Please provide a structured analysis covering:

1. contentQuality:
   - depth:
     * rating: (Excellent/Good/Fair/Poor)
     * analysis: How well does it explore the main ideas? What key aspects are missing?
     * missingElements: List specific missing elements
   - accuracy:
     * rating: (Excellent/Good/Fair/Poor)
     * logicalIssues: Are the arguments logically sound? Any unsupported claims?
   - originality:
     * rating: (Excellent/Good/Fair/Poor)
     * uniqueElements: What makes this perspective unique or valuable?
     * limitations: What prevents it from being more original?

2. writingStyle:
   - clarity:
     * rating: (Excellent/Good/Fair/Poor)
     * issues: Are ideas presented logically? Any confusing sections?
   - engagement:
     * rating: (Excellent/Good/Fair/Poor)
     * weaknesses: What specific elements make it compelling or where does it fall flat?
   - flow:
     * rating: (Excellent/Good/Fair/Poor)
     * issues: How well do paragraphs connect? Where are transitions weak?

3. contentEnhancement:
   - keyTermsNeeded: What important concepts should be better explained?
   - examplesNeeded: Where could specific examples strengthen arguments?
   - counterArgumentsNeeded: What opposing viewpoints should be addressed?
   - supportingEvidenceNeeded: What data or research could reinforce points?

4. searchRankingAnalysis:
   - relevanceScore: (0-10) How well does this match the target topic?
   - currentRankingPrediction: Where would this rank on page 1-10+ for the topic?
   - competitorAnalysis: What type of content currently ranks well for this topic?
   - rankingImprovement: Specific changes needed to rank higher
   - searchIntent: Does this match what people searching for this topic want?
   - keywordGaps: What important keywords/phrases are missing?

5. improvementActions:
   - Each item should have: priority (High/Medium/Low), action, impact
   - Provide at least 5 concrete, actionable steps
   - Focus on changes that would improve search ranking AND content quality

6. qualityAssessment:
   - score: (0-100)
   - explanation: Brief explanation of the score
   - strengths: Top 3 strengths
   - immediateImprovements: Top 3 areas needing immediate improvement

Format your response as a JSON object with these exact keys. Do not wrap the JSON in code blocks. Be specific and actionable in your suggestions, especially for search ranking improvements.`

const comparisonTemplate = `Compare the following two analyses of an article and provide a comprehensive improvement plan:

%s

%s

Target Topic: %s

Please provide:

1. keyInsights:
   - agreement: Where do the analyses agree?
   - disagreement: Where do they differ significantly?
   - mostActionableFeedback: Which model provided more specific, actionable advice?

2. searchRankingStrategy:
   - currentPosition: Based on both analyses, where would this content likely rank?
   - topCompetitors: What type of content would outrank this?
   - quickWins: 3 fastest changes to improve ranking
   - longTermStrategy: Major content additions needed for top 3 ranking
   - contentGaps: What's missing compared to top-ranking content?

3. prioritizedImprovementPlan:
   - immediateActions: (High impact, both models agree)
     * List specific changes with exact implementation steps
   - secondaryImprovements: (High value from either analysis)
     * Include specific examples and recommendations
   - optionalEnhancements: (Lower priority but still valuable)

4. contentPositioning:
   - bestAspectsToPreserve: What should definitely be kept?
   - criticalAreasToRevise: What must be changed for better ranking?
   - uniqueAngle: How to differentiate from competitors?
   - targetAudience: Who should this content serve?

5. finalAssessment:
   - combinedQualityScore: (Weighted average with explanation)
   - combinedRankingPrediction: Realistic ranking expectation after improvements
   - confidenceLevel: How confident are you in these recommendations?
   - expectedTimeToRank: How long might improvements take to show results?

Format your response as a JSON object. Do not wrap the JSON in code blocks. Focus on specific, actionable improvements that will help with both content quality and search ranking.`

// BuildAnalysisPrompt renders the analysis prompt sent to both analysis
// providers. An empty topic is replaced by DefaultAnalysisTopic. The
// result depends only on its arguments.
func BuildAnalysisPrompt(article, topic string) string {
	if topic == "" {
		topic = DefaultAnalysisTopic
	}
	return fmt.Sprintf(analysisTemplate, article, topic)
}

// LabeledAnalysis is an analysis result together with the provider name
// shown above it in the comparison prompt.
type LabeledAnalysis struct {
	Label  string
	Result Result[Analysis]
}

// BuildComparisonPrompt renders the synthesis prompt embedding both
// analyses as two-space indented JSON. An empty topic is replaced by
// DefaultComparisonTopic.
func BuildComparisonPrompt(a, b LabeledAnalysis, topic string) string {
	if topic == "" {
		topic = DefaultComparisonTopic
	}
	return fmt.Sprintf(comparisonTemplate, a.section("A"), b.section("B"), topic)
}

func (l LabeledAnalysis) section(slot string) string {
	var sb strings.Builder
	sb.WriteString("Analysis ")
	sb.WriteString(slot)
	if l.Label != "" {
		sb.WriteString(" (")
		sb.WriteString(l.Label)
		sb.WriteString(")")
	}
	sb.WriteString(":\n")
	sb.WriteString(l.Result.Indented())
	return sb.String()
}
