package classifier

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// parseJudgment extracts the JSON verdict from a model response, which
// may wrap the object in markdown fences or surrounding prose.
func parseJudgment(text string) (*Judgment, error) {
	cleaned := cleanJSON(text)

	var j Judgment
	if err := json.Unmarshal([]byte(cleaned), &j); err != nil {
		return nil, eris.Wrap(err, "classifier: parse judgment")
	}

	switch j.Winner {
	case "A", "B", "Tie":
	default:
		return nil, eris.Errorf("classifier: unexpected winner %q", j.Winner)
	}

	if j.Confidence < 0.5 {
		j.Confidence = 0.5
	}
	if j.Confidence > 1.0 {
		j.Confidence = 1.0
	}

	return &j, nil
}

// cleanJSON strips markdown fences and any prose around the outermost
// JSON object.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
