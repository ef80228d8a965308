// Package adapter connects the bot to Telegram through telebot.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tele "gopkg.in/telebot.v4"

	rtsup "antrianbot/internal/runtime/supervisor"
	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
	// APIURL overrides the Bot API endpoint (local Bot API server).
	APIURL string
}

type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	out     atomic.Value // chan<- kit.Update
	runMu   sync.Mutex
	running bool
	sup     *rtsup.Supervisor

	// updates dropped because the consumer fell behind; reported periodically
	dropped atomic.Uint64

	menuMu   sync.Mutex
	menuHash uint64
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		URL:    cfg.APIURL,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.registerHandlers()
	return a, nil
}

// Username is the bot's @handle as reported by getMe.
func (a *Adapter) Username() string {
	if a.bot.Me == nil {
		return ""
	}
	return a.bot.Me.Username
}

func (a *Adapter) registerHandlers() {
	// Commands without a dedicated handler also arrive as OnText.
	a.bot.Handle(tele.OnText, func(c tele.Context) error {
		if up, ok := messageUpdate(c.Message()); ok {
			a.forward(up)
		}
		return nil
	})
	a.bot.Handle(tele.OnCallback, func(c tele.Context) error {
		if up, ok := callbackUpdate(c.Callback()); ok {
			a.forward(up)
		}
		return nil
	})
}

func messageUpdate(m *tele.Message) (kit.Update, bool) {
	if m == nil || m.Chat == nil {
		return kit.Update{}, false
	}
	msg := &kit.Message{ID: m.ID, ChatID: m.Chat.ID, Text: m.Text}
	if m.Sender != nil {
		msg.FromID = m.Sender.ID
		msg.FromUsername = m.Sender.Username
	}
	return kit.Update{Kind: kit.UpdateMessage, Message: msg}, true
}

func callbackUpdate(cb *tele.Callback) (kit.Update, bool) {
	if cb == nil || cb.Message == nil || cb.Message.Chat == nil {
		return kit.Update{}, false
	}
	// telebot strips the "\f<unique>" prefix only for registered buttons
	data := strings.TrimPrefix(cb.Data, "\f")
	c := &kit.Callback{ID: cb.ID, ChatID: cb.Message.Chat.ID, MessageID: cb.Message.ID, Data: data}
	if cb.Sender != nil {
		c.FromID = cb.Sender.ID
	}
	return kit.Update{Kind: kit.UpdateCallback, Callback: c}, true
}

func (a *Adapter) forward(up kit.Update) {
	out, _ := a.out.Load().(chan<- kit.Update)
	if out == nil {
		return
	}
	select {
	case out <- up:
	default:
		a.dropped.Add(1)
	}
}

func (a *Adapter) Start(ctx context.Context, out chan<- kit.Update) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.out.Store(out)
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log))
	sup := a.sup
	a.runMu.Unlock()

	sup.Go0("telegram.drop_report", func(c context.Context) {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-c.Done():
				a.reportDropped(cap(out))
				return
			case <-ticker.C:
				a.reportDropped(cap(out))
			}
		}
	})
	sup.Go0("telegram.stop_on_cancel", func(c context.Context) {
		<-c.Done()
		// Stop blocks until the poll loop acknowledges it
		go a.bot.Stop()
	})
	// bot.Start blocks until Stop; an early return while still running is
	// treated as a failure and restarted.
	sup.GoRestart("telegram.poll", func(c context.Context) error {
		a.log.Info("polling started")
		a.bot.Start()
		a.log.Info("polling stopped")
		if c.Err() != nil {
			return nil
		}
		return errors.New("poller exited")
	}, rtsup.WithRestartBackoff(500*time.Millisecond, 10*time.Second))
	return nil
}

func (a *Adapter) reportDropped(capacity int) {
	if n := a.dropped.Swap(0); n > 0 {
		a.log.Warn("incoming updates dropped (channel full)", logx.Uint64("count", n), logx.Int("chan_cap", capacity))
	}
}

// Stop never blocks shutdown longer than a short grace window, since a
// long poll may still be waiting on Telegram.
func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	sup, wasRunning := a.sup, a.running
	a.sup, a.running = nil, false
	var nilOut chan<- kit.Update
	a.out.Store(nilOut)
	a.runMu.Unlock()
	if !wasRunning || sup == nil {
		return nil
	}

	sup.Cancel()

	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		grace = min(grace, time.Until(dl))
	}
	wctx, cancel := context.WithTimeout(ctx, max(grace, 0))
	defer cancel()
	if err := sup.Wait(wctx); err != nil {
		a.log.Warn("telegram stop incomplete", logx.Err(err))
	}
	return nil
}

func (a *Adapter) SendText(ctx context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	if opt == nil {
		opt = &kit.SendOptions{}
	}
	chat := &tele.Chat{ID: to.ChatID}

	var first kit.MessageRef
	for i, chunk := range SplitText(text, TextLimit) {
		if err := ctx.Err(); err != nil {
			return first, err
		}
		so := &tele.SendOptions{
			ParseMode:             opt.ParseMode,
			DisableWebPagePreview: opt.DisablePreview,
			ThreadID:              to.ThreadID,
		}
		// markup goes on the first chunk only
		if rm, ok := opt.ReplyMarkupAdapter.(*tele.ReplyMarkup); ok && i == 0 {
			so.ReplyMarkup = rm
		}
		msg, err := a.bot.Send(chat, chunk, so)
		if err != nil {
			return first, classify(err)
		}
		if i == 0 {
			first = kit.MessageRef{ChatID: to.ChatID, MessageID: msg.ID}
		}
	}
	return first, nil
}

func (a *Adapter) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(a.bot.Respond(&tele.Callback{ID: callbackID}, &tele.CallbackResponse{Text: text}))
}

// UpdateMenuCommands publishes the command menu (setMyCommands). It only
// calls Telegram when the list changed since the last successful call.
func (a *Adapter) UpdateMenuCommands(ctx context.Context, cmds []kit.BotCommand) error {
	a.menuMu.Lock()
	defer a.menuMu.Unlock()

	h := fnv.New64a()
	list := make([]tele.Command, 0, len(cmds))
	for _, c := range cmds {
		if c.Command == "" {
			continue
		}
		d := c.Description
		if d == "" {
			d = c.Command
		}
		list = append(list, tele.Command{Text: c.Command, Description: truncateRunes(d, 256)})
		fmt.Fprintf(h, "%s\x00%s\x00", c.Command, d)
	}
	sum := h.Sum64()
	if sum == a.menuHash {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.bot.SetCommands(list); err != nil {
		return fmt.Errorf("telegram setMyCommands: %w", err)
	}
	a.menuHash = sum
	a.log.Info("menu commands updated", logx.Int("count", len(list)))
	return nil
}

// classify marks errors that will never succeed on retry.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated),
		errors.Is(err, tele.ErrChatNotFound),
		errors.Is(err, tele.ErrKickedFromGroup),
		errors.Is(err, tele.ErrKickedFromSuperGroup):
		return fmt.Errorf("%w: %w", kit.ErrPermanent, err)
	}
	var te *tele.Error
	if errors.As(err, &te) && te.Code == 403 {
		return fmt.Errorf("%w: %w", kit.ErrPermanent, err)
	}
	return err
}
