package generation

import "regexp"

const (
	// NoResponseText replaces a missing or blank model answer.
	NoResponseText = "No response generated."

	// FallbackAnswer replaces answers that hedge instead of answering.
	FallbackAnswer = "I'm unable to answer that right now. Try asking something else."
)

var hedgingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)not enough information`),
	regexp.MustCompile(`(?i)please provide more context`),
	regexp.MustCompile(`(?i)could you rephrase`),
	regexp.MustCompile(`(?i)based on the`),
	regexp.MustCompile(`(?i)according to the`),
}

// IsHedging reports whether answer contains any of the hedging phrases.
func IsHedging(answer string) bool {
	for _, p := range hedgingPatterns {
		if p.MatchString(answer) {
			return true
		}
	}
	return false
}

// FilterAnswer returns FallbackAnswer for hedging answers and answer otherwise.
func FilterAnswer(answer string) string {
	if IsHedging(answer) {
		return FallbackAnswer
	}
	return answer
}
