package routing

import "strings"

const maxTopicLen = 100

// ExtractTopic derives a branch summary from message content: whitespace is
// collapsed, and anything past 100 characters is truncated at 97 with an
// ellipsis. Truncation is rune-aware so multibyte content never splits.
func ExtractTopic(content string) string {
	collapsed := strings.Join(strings.Fields(content), " ")
	runes := []rune(collapsed)
	if len(runes) <= maxTopicLen {
		return collapsed
	}
	return string(runes[:maxTopicLen-3]) + "…"
}
