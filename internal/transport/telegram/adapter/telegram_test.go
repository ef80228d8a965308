package adapter

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	kit "antrianbot/internal/transport"
)

func TestSplitText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		in    string
		limit int
		want  []string
	}{
		{"short", "hello", 10, []string{"hello"}},
		{"hard cut", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"newline preferred", "aaaa\nbbbbbb", 8, []string{"aaaa", "bbbbbb"}},
		{"multibyte runes", "ééééé", 2, []string{"éé", "éé", "é"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := SplitText(tc.in, tc.limit)
			if strings.Join(got, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("SplitText(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
			}
		})
	}
}

func TestSplitTextRespectsLimit(t *testing.T) {
	t.Parallel()
	in := strings.Repeat("baris antrian A-010\n", 400)
	for i, c := range SplitText(in, TextLimit) {
		if n := len([]rune(c)); n > TextLimit || n == 0 {
			t.Fatalf("chunk %d has %d runes", i, n)
		}
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	if err := classify(nil); err != nil {
		t.Fatalf("nil: %v", err)
	}
	blocked := classify(tele.ErrBlockedByUser)
	if !errors.Is(blocked, kit.ErrPermanent) || !errors.Is(blocked, tele.ErrBlockedByUser) {
		t.Fatalf("blocked = %v", blocked)
	}
	if err := classify(fmt.Errorf("send: %w", tele.ErrChatNotFound)); !errors.Is(err, kit.ErrPermanent) {
		t.Fatalf("chat not found = %v", err)
	}
	transient := errors.New("connection reset")
	if err := classify(transient); errors.Is(err, kit.ErrPermanent) {
		t.Fatalf("transient marked permanent: %v", err)
	}
}

func TestUpdateConversion(t *testing.T) {
	t.Parallel()
	up, ok := messageUpdate(&tele.Message{ID: 7, Chat: &tele.Chat{ID: 42}, Sender: &tele.User{ID: 9, Username: "budi"}, Text: "/start"})
	if !ok || up.Kind != kit.UpdateMessage || up.Message.ChatID != 42 || up.Message.FromUsername != "budi" {
		t.Fatalf("message update = %+v", up)
	}
	if _, ok := messageUpdate(&tele.Message{ID: 1}); ok {
		t.Fatal("message without chat accepted")
	}

	up, ok = callbackUpdate(&tele.Callback{ID: "cb1", Data: "\fpoli:U01", Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 42}}})
	if !ok || up.Callback.Data != "poli:U01" || up.Callback.MessageID != 3 {
		t.Fatalf("callback update = %+v", up.Callback)
	}
}
