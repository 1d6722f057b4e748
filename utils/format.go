package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// RelativeTime renders then relative to now, e.g. "3 days ago".
func RelativeTime(then, now time.Time) string {
	return humanize.RelTime(then, now, "ago", "from now")
}

// MessageLink is the deep link to a guild message.
func MessageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// Mention renders a user mention.
func Mention(userID string) string {
	return "<@" + userID + ">"
}

// InlineCode wraps s in backticks so it cannot break out of the code span.
func InlineCode(s string) string {
	s = strings.ReplaceAll(s, "`", "ˋ")
	s = strings.ReplaceAll(s, "\n", " ")
	return "`" + s + "`"
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	return string(runes[:n-1]) + "…"
}
