package keyboard

import "testing"

func TestInlineButtonsRows(t *testing.T) {
	markup := InlineButtonsRows(
		[]InlineBtn{{Text: "a", Unique: "k", Data: "1"}, {Text: "b", Unique: "k", Data: "2"}},
		[]InlineBtn{{Text: "c", Unique: "other"}},
	)
	kb := markup.InlineKeyboard
	if len(kb) != 2 || len(kb[0]) != 2 || len(kb[1]) != 1 {
		t.Fatalf("layout = %+v", kb)
	}
	if kb[0][1].Text != "b" || kb[0][1].Unique != "k" || kb[0][1].Data != "2" {
		t.Fatalf("button = %+v", kb[0][1])
	}
	if kb[1][0].Unique != "other" || kb[1][0].Data != "" {
		t.Fatalf("button = %+v", kb[1][0])
	}
}
