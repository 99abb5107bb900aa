package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/strategos-ai/orchestrator/internal/research"
)

const evaluationRubric = `You are a strategy evaluator. Given a SWOT analysis, score it on a scale of 1 to 10.

Scoring Criteria:
- Does it cite at least 2 specific facts or numbers?
- Are all 4 SWOT sections present?
- Are strengths/opportunities clearly distinct from weaknesses/threats?
- Does it align with the given strategic focus?

Respond in this JSON format:
{
  "score": <int>,
  "reasoning": "<string>"
}`

// draftPrompt builds the initial-draft prompt from the research bundle
// and the strategy focus guidance.
func draftPrompt(company string, focusContext string, bundle research.Bundle) string {
	return fmt.Sprintf(`Use the following data to draft a SWOT analysis of %s.

Strategic Focus: %s

Data:
%s

Return only the SWOT in this format:
- Strengths:
- Weaknesses:
- Opportunities:
- Threats:
`, company, focusContext, renderBundle(bundle))
}

// evaluatePrompt builds the scoring prompt for the current draft.
func evaluatePrompt(draft string, focusContext string) string {
	return fmt.Sprintf(`SWOT Draft:
%s

Rubric:
%s

Strategic Focus: %s
`, draft, evaluationRubric, focusContext)
}

// revisePrompt builds the revision prompt conditioned on the previous
// draft and the evaluation critique.
func revisePrompt(draft string, critique string, focusContext string) string {
	return fmt.Sprintf(`Revise this SWOT draft based on the following critique:

Draft:
%s

Critique:
%s

Strategic Focus: %s

Please improve the draft by:
1. Adding specific facts and numbers if missing
2. Ensuring all 4 SWOT sections are present and complete
3. Making sure strengths/opportunities are distinct from weaknesses/threats
4. Aligning with the strategic focus

Return only the improved SWOT analysis in the same format.
`, draft, critique, focusContext)
}

// renderBundle flattens the research bundle into prompt text, basket by
// basket in a stable order, noting failed baskets so the model does not
// invent data for them.
func renderBundle(bundle research.Bundle) string {
	var b strings.Builder

	names := make([]string, 0, len(bundle.Baskets))
	for name := range bundle.Baskets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", name, bundle.Baskets[name])
	}
	if len(bundle.Failed) > 0 {
		failed := make([]string, 0, len(bundle.Failed))
		for name := range bundle.Failed {
			failed = append(failed, name)
		}
		sort.Strings(failed)
		fmt.Fprintf(&b, "(no data available for: %s)\n", strings.Join(failed, ", "))
	}
	return strings.TrimSpace(b.String())
}
