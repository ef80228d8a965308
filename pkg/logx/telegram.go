package logx

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	kit "antrianbot/internal/transport"
)

const (
	tgMaxMessage = 3500
	tgMaxValue   = 400
	tgFlushEvery = 3 * time.Second
)

type tgState struct {
	chatID   int64
	minLevel zerolog.Level
	limiter  *rate.Limiter
}

// telegramSink batches events into chat messages. Writes never block: when
// the queue is full or the rate limit is hit, events are counted as
// suppressed and the count is reported with the next message.
type telegramSink struct {
	sender kit.Adapter
	state  atomic.Pointer[tgState]
	queue  chan string

	suppressed atomic.Uint64

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

func newTelegramSink(sender kit.Adapter) *telegramSink {
	t := &telegramSink{sender: sender, queue: make(chan string, 256), done: make(chan struct{})}
	t.state.Store(&tgState{minLevel: zerolog.ErrorLevel, limiter: rate.NewLimiter(1, 1)})
	return t
}

func (t *telegramSink) configure(cfg TelegramConfig) {
	rps := max(1, cfg.RatePerSec)
	t.state.Store(&tgState{
		chatID:   cfg.ChatID,
		minLevel: ParseLevel(cfg.MinLevel, zerolog.WarnLevel),
		limiter:  rate.NewLimiter(rate.Limit(rps), rps),
	})
	if cfg.Enabled {
		t.startOnce.Do(func() {
			ctx, cancel := context.WithCancel(context.Background())
			t.cancel = cancel
			go t.run(ctx)
		})
	}
}

func (t *telegramSink) Write(p []byte) (int, error) {
	return t.WriteLevel(zerolog.InfoLevel, p)
}

func (t *telegramSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	st := t.state.Load()
	if st.chatID == 0 || level < st.minLevel {
		return len(p), nil
	}
	line := formatEvent(p)
	if line == "" {
		return len(p), nil
	}
	select {
	case t.queue <- line:
	default:
		t.suppressed.Add(1)
	}
	return len(p), nil
}

func (t *telegramSink) run(ctx context.Context) {
	defer close(t.done)
	tick := time.NewTicker(tgFlushEvery)
	defer tick.Stop()

	var batch []string
	size := 0
	flush := func(sendCtx context.Context) {
		if len(batch) == 0 {
			return
		}
		msg := strings.Join(batch, "\n\n")
		batch, size = batch[:0], 0

		st := t.state.Load()
		if st.chatID == 0 || !st.limiter.Allow() {
			t.suppressed.Add(1)
			return
		}
		if n := t.suppressed.Swap(0); n > 0 {
			msg += fmt.Sprintf("\n\n(+%d suppressed)", n)
		}
		sctx, cancel := context.WithTimeout(sendCtx, 10*time.Second)
		defer cancel()
		_, _ = t.sender.SendText(sctx, kit.ChatTarget{ChatID: st.chatID}, msg, &kit.SendOptions{DisablePreview: true})
	}

	for {
		select {
		case <-ctx.Done():
			// drain what is already queued, best effort
			for {
				select {
				case line := <-t.queue:
					batch = append(batch, line)
				default:
					flush(context.Background())
					return
				}
			}
		case line := <-t.queue:
			if size+len(line) > tgMaxMessage {
				flush(ctx)
			}
			batch = append(batch, line)
			size += len(line) + 2
		case <-tick.C:
			flush(ctx)
		}
	}
}

func (t *telegramSink) close() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	select {
	case <-t.done:
	case <-time.After(5 * time.Second):
	}
}

// formatEvent renders a JSON event as "[LEVEL] message" followed by sorted
// key=value lines.
func formatEvent(p []byte) string {
	raw := strings.TrimSpace(string(p))
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return clip(raw, tgMaxMessage)
	}

	var b strings.Builder
	if lvl, _ := m[zerolog.LevelFieldName].(string); lvl != "" {
		b.WriteString("[" + strings.ToUpper(lvl) + "] ")
	}
	msg, _ := m[zerolog.MessageFieldName].(string)
	b.WriteString(msg)

	keys := make([]string, 0, len(m))
	for k := range m {
		switch k {
		case zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName:
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s=%s", k, clip(fmt.Sprint(m[k]), tgMaxValue))
	}
	return clip(b.String(), tgMaxMessage)
}

// clip cuts s to at most n bytes without splitting a rune.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - len("…")
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
