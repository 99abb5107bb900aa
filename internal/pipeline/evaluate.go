package pipeline

import (
	"encoding/json"
	"strings"
)

// evaluation is the parsed output of the evaluate stage.
type evaluation struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

const (
	// fallbackScore is recorded when the evaluator response cannot be
	// parsed. A middling score keeps the loop moving instead of either
	// exiting early or failing the workflow on a formatting slip.
	fallbackScore    = 5
	fallbackCritique = "Evaluation failed - could not parse response"
)

// parseEvaluation extracts {score, reasoning} from the evaluator
// response. Models often wrap JSON in prose or code fences, so the
// parser scans for the outermost object before decoding.
func parseEvaluation(response string) evaluation {
	raw := extractJSON(response)
	if raw != "" {
		var ev evaluation
		if err := json.Unmarshal([]byte(raw), &ev); err == nil && ev.Score > 0 {
			if ev.Score > 10 {
				ev.Score = 10
			}
			if ev.Reasoning == "" {
				ev.Reasoning = "No reasoning provided"
			}
			return ev
		}
	}
	return evaluation{Score: fallbackScore, Reasoning: fallbackCritique}
}

// extractJSON returns the first top-level {...} object in s, or "".
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
