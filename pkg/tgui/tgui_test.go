package tgui

import (
	"errors"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestTruncRunes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Poli Anak", 60, "Poli Anak"},
		{"abcdef", 3, "abc"},
		{"ĀĀĀĀ", 2, "ĀĀ"},
		{"abc", 3, "abc"},
		{"abc", 0, ""},
	}
	for _, tc := range tests {
		if got := TruncRunes(tc.in, tc.n); got != tc.want {
			t.Errorf("TruncRunes(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestData(t *testing.T) {
	t.Parallel()
	d, err := Data("poli", "U01")
	if err != nil || d != "poli:U01" {
		t.Fatalf("Data = %q, %v", d, err)
	}
	kind, payload := ParseData("dok:dr. A:B")
	if kind != "dok" || payload != "dr. A:B" {
		t.Fatalf("ParseData = %q %q", kind, payload)
	}
	if kind, payload := ParseData("noop"); kind != "noop" || payload != "" {
		t.Fatalf("ParseData(noop) = %q %q", kind, payload)
	}
	if _, err := Data("dok", strings.Repeat("x", 70)); !errors.Is(err, ErrCallbackDataTooLong) {
		t.Fatalf("long data err = %v", err)
	}
}

func TestColumn(t *testing.T) {
	t.Parallel()
	kb := Column([]tele.Btn{Btn("A", "poli:a"), Btn("B", "poli:b")})
	if kb.Len() != 2 {
		t.Fatalf("rows = %d", kb.Len())
	}
	rows := kb.Markup().InlineKeyboard
	if len(rows) != 2 || rows[1][0].Data != "poli:b" || rows[0][0].Text != "A" {
		t.Fatalf("keyboard = %+v", rows)
	}
}
