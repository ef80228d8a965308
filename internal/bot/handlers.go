package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"antrianbot/internal/monitor"
	"antrianbot/internal/notifier"
	"antrianbot/internal/queue"
	"antrianbot/internal/remote"
	"antrianbot/internal/storage"
	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
	"antrianbot/pkg/tgui"
)

const (
	maxPoliButtons   = 40
	maxDoctorButtons = 50
	buttonLabelRunes = 60

	remoteTimeout = 60 * time.Second
)

const (
	msgFetchingPoli  = "Mengambil daftar poli..."
	msgChoosePoli    = "Pilih poliklinik:"
	msgPoliTruncated = "(Daftar dipotong 40 opsi pertama)"
	msgNoPoli        = "Tidak ada poliklinik yang tersedia saat ini."
	msgChooseDoctor  = "Pilih dokter/praktek:"
	msgNoDoctor      = "Tidak ada dokter/praktek untuk poli ini."
	msgAskNumber     = "Masukkan nomor antrian kamu (angka saja, misal 28):"
	msgPickPoliFirst = "Pilih poliklinik dulu dengan /start."
	msgActive        = "Monitoring aktif ✅"
	msgNoSub         = "Belum ada monitoring. Kirim /start dulu."
	msgStopped       = "Monitoring dihentikan."
	msgNothingToStop = "Tidak ada monitoring aktif."
	msgRemoteFailed  = "Gagal mengambil data antrian dari rumah sakit. Coba lagi nanti."
	msgStoreFailed   = "Gagal menyimpan data monitoring. Coba lagi nanti."
)

// Remote is the hospital site client.
type Remote interface {
	PoliOptions(ctx context.Context) ([]remote.Option, error)
	DoctorOptions(ctx context.Context, poliValue string) ([]remote.Option, error)
	FetchSnapshot(ctx context.Context, poliValue, doctorValue string) (queue.Snapshot, error)
}

// Store is the subset of storage.Store the handlers use.
type Store interface {
	List(ctx context.Context) ([]queue.Subscription, error)
	Get(ctx context.Context, chatID int64) (queue.Subscription, error)
	Put(ctx context.Context, sub queue.Subscription) error
	Delete(ctx context.Context, chatID int64) error
}

// Monitor exposes the poller's last tick for /health.
type Monitor interface {
	LastTick() monitor.TickReport
}

// Deliveries exposes notifier counters for /health.
type Deliveries interface {
	Stats() notifier.Stats
	History() []notifier.HistoryItem
}

type Deps struct {
	Remote     Remote
	Store      Store
	Adapter    kit.Adapter
	Monitor    Monitor    // optional
	Deliveries Deliveries // optional
}

// Bot owns the conversation state and the command handlers.
type Bot struct {
	deps    Deps
	log     logx.Logger
	pending *pendingSet
	now     func() time.Time
}

func New(deps Deps, log logx.Logger) *Bot {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Bot{deps: deps, log: log, pending: newPendingSet(), now: time.Now}
}

// Register installs the bot's handlers on r.
func (b *Bot) Register(r *Router) {
	cmds := []Command{
		{Name: "start", Description: "pilih poli, dokter, dan nomor antrian", Timeout: remoteTimeout, Handle: b.cmdStart},
		{Name: "status", Description: "status antrian yang dipantau", Timeout: remoteTimeout, Handle: b.cmdStatus},
		{Name: "stop", Description: "hentikan monitoring", Timeout: 10 * time.Second, Handle: b.cmdStop},
		{Name: "health", Description: "kondisi bot (admin)", Access: AccessAdminOnly, Timeout: 10 * time.Second, Handle: b.cmdHealth},
	}
	help := Command{Name: "help", Description: "daftar perintah", Handle: func(ctx context.Context, req *Request) error {
		return b.send(ctx, req.Chat, helpText(r.Commands()), nil)
	}}
	cbs := []CallbackRoute{
		{Kind: "poli", Timeout: remoteTimeout, Handle: b.onPoli},
		{Kind: "dok", Timeout: 10 * time.Second, Handle: b.onDoctor},
		{Kind: "noop", Handle: func(context.Context, *Request) error { return nil }},
	}
	r.SetRegistry(append(cmds, help), cbs, b.onNumber)
}

func helpText(cmds []Command) string {
	lines := []string{"📚 Perintah:"}
	for _, c := range cmds {
		if c.Access == AccessAdminOnly {
			continue
		}
		lines = append(lines, "/"+c.Name+" - "+c.Description)
	}
	return strings.Join(lines, "\n")
}

func (b *Bot) send(ctx context.Context, to kit.ChatTarget, text string, markup *tele.ReplyMarkup) error {
	opt := &kit.SendOptions{DisablePreview: true}
	if markup != nil {
		opt.ReplyMarkupAdapter = markup
	}
	_, err := b.deps.Adapter.SendText(ctx, to, text, opt)
	return err
}

// fail tells the user an action failed and returns err for the request log.
func (b *Bot) fail(ctx context.Context, req *Request, userMsg string, err error) error {
	if sendErr := b.send(ctx, req.Chat, userMsg, nil); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

// keyboard renders options as one button per row with "<kind>:<value>" data.
func (b *Bot) keyboard(req *Request, kind string, opts []remote.Option, limit int) *tgui.Inline {
	kb := tgui.NewInline()
	for _, o := range opts[:min(limit, len(opts))] {
		data, err := tgui.Data(kind, o.Value)
		if err != nil {
			req.Log.Warn("option skipped", logx.String("value", o.Value), logx.Err(err))
			continue
		}
		kb.Row(tgui.Btn(tgui.TruncRunes(o.Label, buttonLabelRunes), data))
	}
	return kb
}

func (b *Bot) cmdStart(ctx context.Context, req *Request) error {
	chatID := req.Chat.ChatID
	if err := b.send(ctx, req.Chat, msgFetchingPoli, nil); err != nil {
		return err
	}
	polis, err := b.deps.Remote.PoliOptions(ctx)
	if err != nil {
		return b.fail(ctx, req, msgRemoteFailed, err)
	}
	b.pending.clear(chatID)
	if len(polis) == 0 {
		return b.send(ctx, req.Chat, msgNoPoli, nil)
	}

	kb := b.keyboard(req, "poli", polis, maxPoliButtons)
	if len(polis) > maxPoliButtons {
		kb.Row(tgui.Btn(msgPoliTruncated, "noop"))
	}
	return b.send(ctx, req.Chat, msgChoosePoli, kb.Markup())
}

func (b *Bot) onPoli(ctx context.Context, req *Request) error {
	poli := req.Payload
	if poli == "" {
		return nil
	}
	b.pending.setPoli(req.Chat.ChatID, poli)

	doctors, err := b.deps.Remote.DoctorOptions(ctx, poli)
	if err != nil {
		return b.fail(ctx, req, msgRemoteFailed, err)
	}
	if len(doctors) == 0 {
		return b.send(ctx, req.Chat, msgNoDoctor, nil)
	}
	kb := b.keyboard(req, "dok", doctors, maxDoctorButtons)
	return b.send(ctx, req.Chat, msgChooseDoctor, kb.Markup())
}

func (b *Bot) onDoctor(ctx context.Context, req *Request) error {
	if req.Payload == "" {
		return nil
	}
	if !b.pending.setDoctor(req.Chat.ChatID, req.Payload) {
		return b.send(ctx, req.Chat, msgPickPoliFirst, nil)
	}
	return b.send(ctx, req.Chat, msgAskNumber, nil)
}

// parseTicket accepts decimal digits only.
func parseTicket(text string) (int, bool) {
	if text == "" || strings.TrimLeft(text, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// onNumber handles free text. Only a ticket number with a complete pending
// selection does anything; other text is ignored.
func (b *Bot) onNumber(ctx context.Context, req *Request) error {
	number, ok := parseTicket(req.Text)
	if !ok {
		return nil
	}
	chatID := req.Chat.ChatID
	sel := b.pending.get(chatID)
	if !sel.complete() {
		return nil
	}

	snap, err := b.deps.Remote.FetchSnapshot(ctx, sel.PoliValue, sel.DoctorValue)
	if err != nil {
		return b.fail(ctx, req, msgRemoteFailed, err)
	}
	sub := queue.Subscription{
		ChatID:          chatID,
		PoliValue:       sel.PoliValue,
		PoliLabel:       snap.PoliLabel,
		DoctorValue:     sel.DoctorValue,
		DoctorLabel:     snap.DoctorLabel,
		MyNumber:        number,
		LastFingerprint: queue.Fingerprint(snap),
		LastNotifiedAt:  b.now(),
	}
	if err := b.deps.Store.Put(ctx, sub); err != nil {
		return b.fail(ctx, req, msgStoreFailed, err)
	}
	req.Log.Info("subscription created",
		logx.String("poli", sub.PoliValue),
		logx.String("doctor", sub.DoctorValue),
		logx.Int("number", number),
	)

	if err := b.send(ctx, req.Chat, msgActive, nil); err != nil {
		return err
	}
	return b.send(ctx, req.Chat, queue.RenderStatus(sub, snap), nil)
}

func (b *Bot) cmdStatus(ctx context.Context, req *Request) error {
	sub, err := b.deps.Store.Get(ctx, req.Chat.ChatID)
	if errors.Is(err, storage.ErrNotFound) {
		return b.send(ctx, req.Chat, msgNoSub, nil)
	}
	if err != nil {
		return b.fail(ctx, req, msgStoreFailed, err)
	}
	snap, err := b.deps.Remote.FetchSnapshot(ctx, sub.PoliValue, sub.DoctorValue)
	if err != nil {
		return b.fail(ctx, req, msgRemoteFailed, err)
	}
	return b.send(ctx, req.Chat, queue.RenderStatus(sub, snap), nil)
}

func (b *Bot) cmdStop(ctx context.Context, req *Request) error {
	chatID := req.Chat.ChatID
	_, err := b.deps.Store.Get(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		return b.send(ctx, req.Chat, msgNothingToStop, nil)
	}
	if err == nil {
		err = b.deps.Store.Delete(ctx, chatID)
	}
	if err != nil {
		return b.fail(ctx, req, msgStoreFailed, err)
	}
	req.Log.Info("subscription removed")
	return b.send(ctx, req.Chat, msgStopped, nil)
}

func (b *Bot) cmdHealth(ctx context.Context, req *Request) error {
	var sb strings.Builder
	sb.WriteString("🩺 Health\n")

	subs, err := b.deps.Store.List(ctx)
	if err != nil {
		fmt.Fprintf(&sb, "Subscriptions: error (%v)\n", err)
	} else {
		fmt.Fprintf(&sb, "Subscriptions: %d\n", len(subs))
	}

	if b.deps.Monitor != nil {
		t := b.deps.Monitor.LastTick()
		if t.ID == "" {
			sb.WriteString("Last tick: belum ada\n")
		} else {
			fmt.Fprintf(&sb, "Last tick: %s (%s ago, took %s)\n  checked=%d notified=%d failed=%d busy=%d\n",
				t.ID, b.now().Sub(t.Started).Round(time.Second), t.Took.Round(time.Millisecond),
				t.Checked, t.Notified, t.Failed, t.Busy)
		}
	}

	if b.deps.Deliveries != nil {
		st := b.deps.Deliveries.Stats()
		fmt.Fprintf(&sb, "Notifier: queued=%d sent=%d failed=%d dropped=%d\n", st.Queued, st.Sent, st.Failed, st.Dropped)
		hist := b.deps.Deliveries.History()
		if n := len(hist); n > 0 {
			sb.WriteString("Recent deliveries:\n")
			for _, h := range hist[max(0, n-5):] {
				status := "ok"
				if h.Err != "" {
					status = tgui.TruncRunes(h.Err, 80)
				}
				fmt.Fprintf(&sb, "  %s chat=%d %s\n", h.At.Format("15:04:05"), h.ChatID, status)
			}
		}
	}
	return b.send(ctx, req.Chat, strings.TrimRight(sb.String(), "\n"), nil)
}
