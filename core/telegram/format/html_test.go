package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		"<b>x</b>":     "&lt;b&gt;x&lt;/b&gt;",
		"Tom & Jerry":  "Tom &amp; Jerry",
		`quote "kept"`: `quote "kept"`,
		"&lt; is text": "&amp;lt; is text",
	}
	for in, want := range cases {
		if got := EscapeHTML(in); got != want {
			t.Fatalf("EscapeHTML(%q) = %q, want %q", in, got, want)
		}
	}
}
