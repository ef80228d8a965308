package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	kit "antrianbot/internal/transport"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"INFO", zerolog.InfoLevel},
		{"debug", zerolog.DebugLevel},
		{" Warning ", zerolog.WarnLevel},
		{"ERROR", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerWithFieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With(String("comp", "monitor"))

	l.Debug("hidden")
	l.Warn("fetch failed", Int64("chat_id", 42), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["comp"] != "monitor" || m["message"] != "fetch failed" {
		t.Fatalf("unexpected event: %v", m)
	}
	if m["chat_id"] != float64(42) {
		t.Fatalf("chat_id = %v", m["chat_id"])
	}
}

func TestZeroLoggerIsNoop(t *testing.T) {
	var l Logger
	if !l.IsZero() {
		t.Fatal("zero logger should report IsZero")
	}
	l.Info("nothing happens")
}

func TestFormatEvent(t *testing.T) {
	t.Parallel()
	got := formatEvent([]byte(`{"level":"warn","time":"x","message":"tick failed","chat_id":7,"comp":"monitor"}` + "\n"))
	want := "[WARN] tick failed\nchat_id=7\ncomp=monitor"
	if got != want {
		t.Fatalf("formatEvent = %q, want %q", got, want)
	}
	if got := formatEvent([]byte("not json")); got != "not json" {
		t.Fatalf("raw line = %q", got)
	}
}

func TestClipKeepsRunes(t *testing.T) {
	t.Parallel()
	got := clip(strings.Repeat("é", 10), 9)
	if !utf8.ValidString(got) || !strings.HasSuffix(got, "…") || len(got) > 9 {
		t.Fatalf("clip = %q (%d bytes)", got, len(got))
	}
	if clip("short", 10) != "short" {
		t.Fatal("short strings must be untouched")
	}
}

type captureAdapter struct {
	mu   sync.Mutex
	msgs []string
	to   []int64
}

func (c *captureAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (c *captureAdapter) Stop(context.Context) error                     { return nil }
func (c *captureAdapter) AnswerCallback(context.Context, string, string) error {
	return nil
}

func (c *captureAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
	c.to = append(c.to, to.ChatID)
	return kit.MessageRef{}, nil
}

func TestTelegramSinkForwardsAboveMinLevel(t *testing.T) {
	ad := &captureAdapter{}
	svc, log := New(Config{
		Level:    "debug",
		Telegram: TelegramConfig{Enabled: true, ChatID: 99, MinLevel: "warn", RatePerSec: 5},
	}, ad)

	log.Info("routine")
	log.Error("delivery failed", Int64("chat_id", 42))
	if err := svc.Close(); err != nil {
		t.Fatal(err)
	}

	ad.mu.Lock()
	defer ad.mu.Unlock()
	if len(ad.msgs) != 1 || ad.to[0] != 99 {
		t.Fatalf("sent %d messages to %v: %q", len(ad.msgs), ad.to, ad.msgs)
	}
	if !strings.HasPrefix(ad.msgs[0], "[ERROR] delivery failed") || strings.Contains(ad.msgs[0], "routine") {
		t.Fatalf("message = %q", ad.msgs[0])
	}
}

func TestServiceLoggerFollowsApply(t *testing.T) {
	svc, log := New(Config{Level: "error", Console: true}, nil)
	defer svc.Close()
	if log.Enabled(LevelInfo) {
		t.Fatal("info enabled at error level")
	}
	svc.Apply(Config{Level: "debug", Console: true})
	if !log.Enabled(LevelDebug) {
		t.Fatal("logger did not pick up the new level")
	}
}
