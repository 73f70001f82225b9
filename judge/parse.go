package judge

import (
	"math"
	"strconv"
	"strings"

	"github.com/spboyer/agentra/models"
)

const (
	scoreMarker  = "SCORE:"
	reasonMarker = "REASON:"

	unparsedReason = "Could not parse evaluation"
	emptyReason    = "No reason provided"
)

// ParseResponse turns a judge reply into a score. It tolerates any input:
//   - the last parseable "SCORE:" line wins, clamped to [0, 1]; without one the score is 0.5
//   - the last "REASON:" line gives the reason
//   - without a reason line, the text after the first score line is used as the reason
func ParseResponse(reply string) models.Score {
	lines := strings.Split(strings.TrimSpace(reply), "\n")

	value := NeutralScore
	reason := unparsedReason
	foundReason := false

	for _, raw := range lines {
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, scoreMarker):
			if v, ok := parseScore(strings.TrimPrefix(line, scoreMarker)); ok {
				value = v
			}
		case strings.HasPrefix(line, reasonMarker):
			reason = strings.TrimSpace(strings.TrimPrefix(line, reasonMarker))
			foundReason = true
		}
	}

	if !foundReason {
		if tail, ok := textAfterScore(lines); ok {
			reason = tail
		}
	}

	if reason == "" {
		reason = emptyReason
	}

	return models.NewScore(value, reason, map[string]any{
		"raw_response": reply,
	})
}

func parseScore(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return models.Clamp(v), true
}

// textAfterScore joins the lines that follow the first line mentioning the score marker.
func textAfterScore(lines []string) (string, bool) {
	for i, line := range lines {
		if !strings.Contains(line, scoreMarker) {
			continue
		}
		if i == len(lines)-1 {
			return "", false
		}

		tail := strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
		if strings.HasPrefix(tail, reasonMarker) {
			tail = strings.TrimSpace(strings.TrimPrefix(tail, reasonMarker))
		}
		return tail, true
	}
	return "", false
}
