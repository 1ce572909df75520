package engine

import (
	"encoding/json"
	"strings"
)

// gradeResult is the grader's structured output.
type gradeResult struct {
	BinaryScore string `json:"binary_score"`
}

// parseGradeLabel normalizes the grader's response to "yes" or "no". The
// judgment is delegated to the model, but anything that is not an
// unambiguous "yes" counts as not relevant.
func parseGradeLabel(content string) string {
	var result gradeResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &result); err == nil {
		if strings.EqualFold(strings.TrimSpace(result.BinaryScore), "yes") {
			return "yes"
		}
		return "no"
	}

	// Backends without a JSON response mode sometimes wrap the object in
	// prose; fall back to a substring check.
	lower := strings.ToLower(content)
	if strings.Contains(lower, `"binary_score": "yes"`) || strings.Contains(lower, `"binary_score":"yes"`) {
		return "yes"
	}
	return "no"
}
