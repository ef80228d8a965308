package bot

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
)

func TestCommandWord(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"/start", "start", true},
		{"/Status@AntrianBot", "status", true},
		{"/stop now", "stop", true},
		{"28", "", false},
		{"/", "", false},
	}
	for _, tc := range tests {
		got, ok := commandWord(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("commandWord(%q) = %q, %v", tc.in, got, ok)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRouterDispatch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	r := NewRouter(h.ad, logx.Nop())
	r.SetAdmin(1)
	h.bot.Register(r)

	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan kit.Update, 8)
	done := make(chan error, 1)
	go func() { done <- r.DispatchLoop(ctx, updates) }()

	msg := func(chat int64, text string) kit.Update {
		return kit.Update{Kind: kit.UpdateMessage, Message: &kit.Message{ChatID: chat, FromID: chat, Text: text}}
	}
	updates <- msg(42, "/help")
	waitFor(t, func() bool { return len(h.ad.messages()) == 1 })
	help := h.ad.messages()[0].Text
	if !strings.Contains(help, "/start") || strings.Contains(help, "/health") {
		t.Fatalf("help = %q", help)
	}

	updates <- msg(42, "/nope")
	waitFor(t, func() bool { return len(h.ad.messages()) == 2 })
	updates <- msg(42, "/health")
	waitFor(t, func() bool { return len(h.ad.messages()) == 3 })
	if got := lastText(t, h.ad); got != "Tidak diizinkan." {
		t.Fatalf("non-admin health = %q", got)
	}
	updates <- msg(1, "/health")
	waitFor(t, func() bool { return len(h.ad.messages()) == 4 })
	if got := lastText(t, h.ad); !strings.HasPrefix(got, "🩺 Health") {
		t.Fatalf("admin health = %q", got)
	}

	updates <- kit.Update{Kind: kit.UpdateCallback, Callback: &kit.Callback{ID: "cb-1", ChatID: 42, Data: "noop"}}
	waitFor(t, func() bool {
		h.ad.mu.Lock()
		defer h.ad.mu.Unlock()
		return slices.Contains(h.ad.answered, "cb-1")
	})

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("DispatchLoop = %v", err)
	}
}

func TestMenuCommandsSkipAdmin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	r := NewRouter(h.ad, logx.Nop())
	h.bot.Register(r)
	var names []string
	for _, c := range r.MenuCommands() {
		names = append(names, c.Command)
	}
	if want := []string{"help", "start", "status", "stop"}; !slices.Equal(names, want) {
		t.Fatalf("menu = %v, want %v", names, want)
	}
}
