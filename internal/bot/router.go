package bot

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
)

type Access int

const (
	AccessEveryone Access = iota
	AccessAdminOnly
)

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

// Command is a slash command. Hidden commands are routable but left out of
// /help and the Telegram menu.
type Command struct {
	Name        string
	Description string
	Access      Access
	Hidden      bool
	Timeout     time.Duration
	Handle      HandlerFunc
}

// CallbackRoute handles inline button presses whose data is "<Kind>:<payload>".
type CallbackRoute struct {
	Kind    string
	Timeout time.Duration
	Handle  HandlerFunc
}

type Request struct {
	Update  kit.Update
	Chat    kit.ChatTarget
	FromID  int64
	Command string
	Text    string // message text, trimmed
	Payload string // callback payload
	ReqID   string
	Log     logx.Logger
}

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func mwTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func mwPanicRecover() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					req.Log.Error("panic recovered", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, req)
		}
	}
}

func mwRequestLog() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			err := next(ctx, req)
			fields := []logx.Field{
				logx.String("kind", string(req.Update.Kind)),
				logx.Duration("dur", time.Since(start)),
			}
			if err != nil {
				req.Log.Warn("request failed", append(fields, logx.Err(err))...)
			} else {
				req.Log.Debug("request ok", fields...)
			}
			return err
		}
	}
}

// Router dispatches updates onto a bounded worker pool.
type Router struct {
	log     logx.Logger
	adapter kit.Adapter

	mu        sync.RWMutex
	commands  map[string]Command
	callbacks map[string]CallbackRoute
	fallback  HandlerFunc

	admin atomic.Int64
	jobs  chan func()
}

func NewRouter(adapter kit.Adapter, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		log:       log,
		adapter:   adapter,
		commands:  map[string]Command{},
		callbacks: map[string]CallbackRoute{},
		jobs:      make(chan func(), 256),
	}
}

// SetAdmin sets the chat allowed to run admin commands. Zero disables them.
// Safe to call during hot-reload.
func (r *Router) SetAdmin(chatID int64) { r.admin.Store(chatID) }

// SetRegistry replaces the routing table. fallback receives plain text
// messages that are not commands.
func (r *Router) SetRegistry(cmds []Command, cbs []CallbackRoute, fallback HandlerFunc) {
	cm := make(map[string]Command, len(cmds))
	for _, c := range cmds {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if name == "" || c.Handle == nil {
			continue
		}
		c.Name = name
		cm[name] = c
	}
	cb := make(map[string]CallbackRoute, len(cbs))
	for _, c := range cbs {
		if c.Kind == "" || c.Handle == nil {
			continue
		}
		cb[c.Kind] = c
	}
	r.mu.Lock()
	r.commands, r.callbacks, r.fallback = cm, cb, fallback
	r.mu.Unlock()
}

// Commands returns the visible commands sorted by name.
func (r *Router) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// MenuCommands is the command list published to the Telegram menu.
func (r *Router) MenuCommands() []kit.BotCommand {
	var out []kit.BotCommand
	for _, c := range r.Commands() {
		if c.Access == AccessAdminOnly {
			continue
		}
		out = append(out, kit.BotCommand{Command: c.Name, Description: c.Description})
	}
	return out
}

// DispatchLoop consumes updates until ctx is done or updates is closed, then
// waits for in-flight handlers.
func (r *Router) DispatchLoop(ctx context.Context, updates <-chan kit.Update) error {
	workers := max(2, runtime.NumCPU())
	r.log.Info("dispatcher started", logx.Int("workers", workers), logx.Int("job_queue_cap", cap(r.jobs)))

	var wg sync.WaitGroup
	jobs := r.jobs
	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-jobs:
					job()
				}
			}
		}()
	}
	defer func() {
		wg.Wait()
		r.log.Info("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			r.route(ctx, up)
		}
	}
}

func (r *Router) route(ctx context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		r.routeMessage(ctx, up)
	case kit.UpdateCallback:
		r.routeCallback(ctx, up)
	}
}

// commandWord extracts "start" from "/start@SomeBot arg".
func commandWord(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "@")
	return strings.ToLower(word), word != ""
}

func (r *Router) newRequest(up kit.Update, chat kit.ChatTarget, from int64, cmd string) *Request {
	rid := uuid.NewString()[:8]
	return &Request{
		Update:  up,
		Chat:    chat,
		FromID:  from,
		Command: cmd,
		ReqID:   rid,
		Log: r.log.With(
			logx.String("rid", rid),
			logx.Int64("chat_id", chat.ChatID),
			logx.Int64("from_id", from),
			logx.String("cmd", cmd),
		),
	}
}

func (r *Router) routeMessage(ctx context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	chat := kit.ChatTarget{ChatID: msg.ChatID}

	r.mu.RLock()
	cmds, fallback := r.commands, r.fallback
	r.mu.RUnlock()

	word, isCmd := commandWord(text)
	if !isCmd {
		if fallback == nil || text == "" {
			return
		}
		req := r.newRequest(up, chat, msg.FromID, "text")
		req.Text = text
		r.enqueue(ctx, req, fallback, 0, nil)
		return
	}

	cmd, ok := cmds[word]
	if !ok {
		_, _ = r.adapter.SendText(ctx, chat, "Perintah tidak dikenal. Coba /help", nil)
		return
	}
	if cmd.Access == AccessAdminOnly {
		admin := r.admin.Load()
		if admin == 0 || (msg.ChatID != admin && msg.FromID != admin) {
			_, _ = r.adapter.SendText(ctx, chat, "Tidak diizinkan.", nil)
			return
		}
	}
	req := r.newRequest(up, chat, msg.FromID, cmd.Name)
	req.Text = text
	r.enqueue(ctx, req, cmd.Handle, cmd.Timeout, func() {
		_, _ = r.adapter.SendText(ctx, chat, "Sedang sibuk, coba lagi sebentar.", nil)
	})
}

func (r *Router) routeCallback(ctx context.Context, up kit.Update) {
	cb := up.Callback
	if cb == nil {
		return
	}
	kind, payload, _ := strings.Cut(strings.TrimSpace(cb.Data), ":")

	r.mu.RLock()
	route, ok := r.callbacks[kind]
	r.mu.RUnlock()

	// the button spinner is stopped before any slow work
	_ = r.adapter.AnswerCallback(ctx, cb.ID, "")
	if !ok {
		return
	}
	req := r.newRequest(up, kit.ChatTarget{ChatID: cb.ChatID}, cb.FromID, "cb:"+kind)
	req.Payload = payload
	r.enqueue(ctx, req, route.Handle, route.Timeout, nil)
}

func (r *Router) enqueue(ctx context.Context, req *Request, h HandlerFunc, timeout time.Duration, busy func()) {
	final := Chain(h, mwPanicRecover(), mwRequestLog(), mwTimeout(timeout))
	select {
	case r.jobs <- func() { _ = final(ctx, req) }:
	default:
		req.Log.Warn("dispatcher queue full, update dropped")
		if busy != nil {
			busy()
		}
	}
}
