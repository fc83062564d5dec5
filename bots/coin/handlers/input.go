package handlers

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// parseAmount accepts a non-empty run of ASCII digits that fits in int64.
// Signs, spaces and separators are rejected.
func parseAmount(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// messageText returns the text body of the update. Captions of media do not
// count, so a photo with a numeric caption is still non-numeric input.
func messageText(c tele.Context) string {
	if m := c.Message(); m != nil {
		return m.Text
	}
	return ""
}
