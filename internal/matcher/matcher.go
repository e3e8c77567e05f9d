package matcher

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/khrees2412/mockly/pkg/models"
)

// OfflineFeedback is returned with every fallback score
const OfflineFeedback = "Scored by the offline evaluator because the AI reviewer was unavailable. The score reflects question difficulty, answer length and technical keywords."

// Keywords are the recognized domain terms, matched case-insensitively as substrings
var Keywords = []string{
	"react", "node", "javascript", "typescript", "api", "database",
	"performance", "testing", "state", "component", "async", "cache",
	"scalab", "security", "architecture", "latency", "index", "queue",
}

// fullLengthChars is the answer length that earns the whole length bonus
const fullLengthChars = 400

// BaseScore is the starting score for a difficulty
func BaseScore(d models.Difficulty) float64 {
	switch d {
	case models.DifficultyHard:
		return 6
	case models.DifficultyMedium:
		return 5
	case models.DifficultyEasy:
		return 4
	default:
		return 5
	}
}

// MatchKeywords counts how many recognized keywords appear in the answer
func MatchKeywords(answer string) int {
	answerLower := strings.ToLower(answer)
	matched := 0
	for _, kw := range Keywords {
		if strings.Contains(answerLower, kw) {
			matched++
		}
	}
	return matched
}

// lengthBonus scales up to 3 points with answer length
func lengthBonus(answer string) float64 {
	ratio := float64(utf8.RuneCountInString(answer)) / fullLengthChars
	return math.Min(1, ratio) * 3
}

// FallbackScore scores an answer without the AI reviewer.
// A blank answer always scores exactly 1; otherwise the result is clamped to [0, 10].
func FallbackScore(d models.Difficulty, answer string) float64 {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 1
	}

	score := BaseScore(d) + float64(MatchKeywords(answer)) + lengthBonus(answer)
	return math.Max(0, math.Min(10, score))
}

// FallbackEvaluation pairs the fallback score with the fixed offline feedback
func FallbackEvaluation(d models.Difficulty, answer string) models.Evaluation {
	return models.Evaluation{
		Score:    FallbackScore(d, answer),
		Feedback: OfflineFeedback,
	}
}
