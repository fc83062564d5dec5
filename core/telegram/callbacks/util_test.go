package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name         string
		cb           *tele.Callback
		key, payload string
	}{
		{"nil", nil, "", ""},
		{"telebot encoded", &tele.Callback{Data: "\fadmin_money|add"}, "admin_money", "add"},
		{"no payload", &tele.Callback{Data: "\fadmin_broadcast"}, "admin_broadcast", ""},
		{"raw data", &tele.Callback{Data: "legacy"}, "legacy", ""},
		{"unique resolved", &tele.Callback{Unique: "admin_money", Data: "remove"}, "admin_money", "remove"},
		{"payload with pipe", &tele.Callback{Data: "\fk|a|b"}, "k", "a|b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key, payload := Parse(tc.cb)
			if key != tc.key || payload != tc.payload {
				t.Fatalf("Parse = (%q, %q), want (%q, %q)", key, payload, tc.key, tc.payload)
			}
		})
	}
}
