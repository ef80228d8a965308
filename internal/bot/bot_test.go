package bot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"antrianbot/internal/monitor"
	"antrianbot/internal/notifier"
	"antrianbot/internal/queue"
	"antrianbot/internal/remote"
	"antrianbot/internal/storage"
	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
)

type sent struct {
	ChatID int64
	Text   string
	Markup *tele.ReplyMarkup
}

type fakeAdapter struct {
	mu       sync.Mutex
	sent     []sent
	answered []string
}

func (a *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (a *fakeAdapter) Stop(context.Context) error                     { return nil }

func (a *fakeAdapter) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := sent{ChatID: to.ChatID, Text: text}
	if opt != nil {
		s.Markup, _ = opt.ReplyMarkupAdapter.(*tele.ReplyMarkup)
	}
	a.sent = append(a.sent, s)
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(a.sent)}, nil
}

func (a *fakeAdapter) AnswerCallback(_ context.Context, id string, _ string) error {
	a.mu.Lock()
	a.answered = append(a.answered, id)
	a.mu.Unlock()
	return nil
}

func (a *fakeAdapter) messages() []sent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]sent(nil), a.sent...)
}

func (a *fakeAdapter) texts() []string {
	var out []string
	for _, s := range a.messages() {
		out = append(out, s.Text)
	}
	return out
}

type fakeRemote struct {
	polis   []remote.Option
	doctors map[string][]remote.Option
	snap    queue.Snapshot
	err     error

	mu      sync.Mutex
	fetched [][2]string
}

func (f *fakeRemote) PoliOptions(context.Context) ([]remote.Option, error) {
	return f.polis, f.err
}

func (f *fakeRemote) DoctorOptions(_ context.Context, poli string) ([]remote.Option, error) {
	return f.doctors[poli], f.err
}

func (f *fakeRemote) FetchSnapshot(_ context.Context, poli, doctor string) (queue.Snapshot, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, [2]string{poli, doctor})
	f.mu.Unlock()
	return f.snap, f.err
}

type harness struct {
	bot    *Bot
	ad     *fakeAdapter
	remote *fakeRemote
	store  storage.Store
	clock  time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := storage.Open(storage.Config{Path: filepath.Join(t.TempDir(), "subs.json")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = st.Close() })
	h := &harness{
		ad: &fakeAdapter{},
		remote: &fakeRemote{
			polis: []remote.Option{{Value: "U01", Label: "Poli Anak"}, {Value: "U02", Label: "Poli Gigi"}},
			doctors: map[string][]remote.Option{
				"U01": {{Value: "D1", Label: "dr. Budi, Sp.A"}},
			},
			snap: queue.Snapshot{
				PoliLabel:   "Poli Anak",
				DoctorLabel: "dr. Budi, Sp.A",
				Total:       30,
				Current:     "A-010",
				Upcoming: []queue.Entry{
					{Label: "A-011", Number: 11, CheckedIn: true},
					{Label: "A-012*", Number: 12, CheckedIn: false},
				},
			},
		},
		store: st,
		clock: time.Unix(1_700_000_000, 0),
	}
	h.bot = New(Deps{Remote: h.remote, Store: st, Adapter: h.ad}, logx.Nop())
	h.bot.now = func() time.Time { return h.clock }
	return h
}

func req(chatID int64) *Request {
	return &Request{Chat: kit.ChatTarget{ChatID: chatID}, FromID: chatID, Log: logx.Nop()}
}

func withText(r *Request, text string) *Request { r.Text = text; return r }
func withPayload(r *Request, p string) *Request { r.Payload = p; return r }
func lastText(t *testing.T, ad *fakeAdapter) string {
	t.Helper()
	msgs := ad.messages()
	if len(msgs) == 0 {
		t.Fatal("nothing sent")
	}
	return msgs[len(msgs)-1].Text
}

func TestStartListsClinics(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if err := h.bot.cmdStart(ctx, req(42)); err != nil {
		t.Fatal(err)
	}
	msgs := h.ad.messages()
	if len(msgs) != 2 || msgs[0].Text != msgFetchingPoli || msgs[1].Text != msgChoosePoli {
		t.Fatalf("sent = %+v", msgs)
	}
	rows := msgs[1].Markup.InlineKeyboard
	if len(rows) != 2 || rows[0][0].Data != "poli:U01" || rows[1][0].Text != "Poli Gigi" {
		t.Fatalf("keyboard = %+v", rows)
	}
}

func TestStartTruncatesLongLists(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.remote.polis = nil
	for i := range 45 {
		h.remote.polis = append(h.remote.polis, remote.Option{
			Value: "U" + string(rune('A'+i%26)) + string(rune('a'+i/26)),
			Label: strings.Repeat("x", 70),
		})
	}
	if err := h.bot.cmdStart(context.Background(), req(42)); err != nil {
		t.Fatal(err)
	}
	rows := h.ad.messages()[1].Markup.InlineKeyboard
	if len(rows) != maxPoliButtons+1 {
		t.Fatalf("rows = %d, want %d", len(rows), maxPoliButtons+1)
	}
	if got := len([]rune(rows[0][0].Text)); got != buttonLabelRunes {
		t.Fatalf("label runes = %d", got)
	}
	last := rows[len(rows)-1][0]
	if last.Text != msgPoliTruncated || last.Data != "noop" {
		t.Fatalf("last row = %+v", last)
	}
}

func TestFullSelectionCreatesSubscription(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if err := h.bot.onPoli(ctx, withPayload(req(42), "U01")); err != nil {
		t.Fatal(err)
	}
	msgs := h.ad.messages()
	if msgs[0].Text != msgChooseDoctor || msgs[0].Markup.InlineKeyboard[0][0].Data != "dok:D1" {
		t.Fatalf("doctor prompt = %+v", msgs[0])
	}
	if err := h.bot.onDoctor(ctx, withPayload(req(42), "D1")); err != nil {
		t.Fatal(err)
	}
	if got := lastText(t, h.ad); got != msgAskNumber {
		t.Fatalf("prompt = %q", got)
	}
	if err := h.bot.onNumber(ctx, withText(req(42), "12")); err != nil {
		t.Fatal(err)
	}

	sub, err := h.store.Get(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	want := queue.Subscription{
		ChatID:          42,
		PoliValue:       "U01",
		PoliLabel:       "Poli Anak",
		DoctorValue:     "D1",
		DoctorLabel:     "dr. Budi, Sp.A",
		MyNumber:        12,
		LastFingerprint: queue.Fingerprint(h.remote.snap),
	}
	if !sub.SameTarget(want) || sub.LastFingerprint != want.LastFingerprint || sub.PoliLabel != want.PoliLabel {
		t.Fatalf("stored = %+v", sub)
	}
	if !sub.LastNotifiedAt.Equal(h.clock) {
		t.Fatalf("LastNotifiedAt = %v", sub.LastNotifiedAt)
	}

	texts := h.ad.texts()
	if texts[len(texts)-2] != msgActive || !strings.Contains(texts[len(texts)-1], "🎟️ Antrian kamu: 12") {
		t.Fatalf("replies = %q", texts)
	}
}

func TestNumberIgnoredWithoutSelection(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	for _, text := range []string{"12", "abc", "12a", "-5", ""} {
		if err := h.bot.onNumber(ctx, withText(req(42), text)); err != nil {
			t.Fatalf("%q: %v", text, err)
		}
	}
	h.bot.pending.setPoli(42, "U01")
	if err := h.bot.onNumber(ctx, withText(req(42), "12")); err != nil {
		t.Fatal(err)
	}
	if msgs := h.ad.messages(); len(msgs) != 0 {
		t.Fatalf("unexpected replies %+v", msgs)
	}
	if _, err := h.store.Get(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Get err = %v", err)
	}
}

func TestDoctorWithoutClinic(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	if err := h.bot.onDoctor(context.Background(), withPayload(req(42), "D1")); err != nil {
		t.Fatal(err)
	}
	if got := lastText(t, h.ad); got != msgPickPoliFirst {
		t.Fatalf("reply = %q", got)
	}
}

func TestNewClinicResetsDoctor(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	h.bot.pending.setPoli(42, "U01")
	h.bot.pending.setDoctor(42, "D1")
	if err := h.bot.onPoli(ctx, withPayload(req(42), "U02")); err != nil {
		t.Fatal(err)
	}
	if got := lastText(t, h.ad); got != msgNoDoctor {
		t.Fatalf("reply = %q", got)
	}
	if sel := h.bot.pending.get(42); sel.PoliValue != "U02" || sel.DoctorValue != "" {
		t.Fatalf("pending = %+v", sel)
	}
}

func TestStatusAndStop(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()

	if err := h.bot.cmdStatus(ctx, req(42)); err != nil {
		t.Fatal(err)
	}
	if got := lastText(t, h.ad); got != msgNoSub {
		t.Fatalf("status without sub = %q", got)
	}
	if err := h.bot.cmdStop(ctx, req(42)); err != nil {
		t.Fatal(err)
	}
	if got := lastText(t, h.ad); got != msgNothingToStop {
		t.Fatalf("stop without sub = %q", got)
	}

	sub := queue.Subscription{ChatID: 42, PoliValue: "U01", PoliLabel: "Poli Anak", DoctorValue: "D1", DoctorLabel: "dr. Budi, Sp.A", MyNumber: 12}
	if err := h.store.Put(ctx, sub); err != nil {
		t.Fatal(err)
	}
	if err := h.bot.cmdStatus(ctx, req(42)); err != nil {
		t.Fatal(err)
	}
	if got, want := lastText(t, h.ad), queue.RenderStatus(sub, h.remote.snap); got != want {
		t.Fatalf("status = %q, want %q", got, want)
	}
	if err := h.bot.cmdStop(ctx, req(42)); err != nil {
		t.Fatal(err)
	}
	if got := lastText(t, h.ad); got != msgStopped {
		t.Fatalf("stop = %q", got)
	}
	if _, err := h.store.Get(ctx, 42); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("after stop Get err = %v", err)
	}
}

func TestRemoteFailureIsReported(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.remote.err = remote.ErrNetwork
	err := h.bot.cmdStart(context.Background(), req(42))
	if !errors.Is(err, remote.ErrNetwork) {
		t.Fatalf("err = %v", err)
	}
	if got := lastText(t, h.ad); got != msgRemoteFailed {
		t.Fatalf("reply = %q", got)
	}
}

type fakeMonitor struct{ rep monitor.TickReport }

func (f fakeMonitor) LastTick() monitor.TickReport { return f.rep }

type fakeDeliveries struct{}

func (fakeDeliveries) Stats() notifier.Stats { return notifier.Stats{Queued: 3, Sent: 2, Failed: 1} }
func (fakeDeliveries) History() []notifier.HistoryItem {
	return []notifier.HistoryItem{{At: time.Unix(1_700_000_000, 0), ChatID: 7, Err: "blocked"}}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.bot.deps.Monitor = fakeMonitor{rep: monitor.TickReport{ID: "tick-1", Started: h.clock.Add(-30 * time.Second), Checked: 4, Notified: 1}}
	h.bot.deps.Deliveries = fakeDeliveries{}
	if err := h.bot.cmdHealth(context.Background(), req(1)); err != nil {
		t.Fatal(err)
	}
	got := lastText(t, h.ad)
	for _, want := range []string{"Subscriptions: 0", "tick-1 (30s ago", "checked=4 notified=1", "sent=2 failed=1", "chat=7 blocked"} {
		if !strings.Contains(got, want) {
			t.Errorf("health missing %q:\n%s", want, got)
		}
	}
}

func TestParseTicket(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"28", 28, true},
		{"007", 7, true},
		{"0", 0, true},
		{"2 8", 0, false},
		{"+3", 0, false},
		{"99999999999999999999999", 0, false},
	}
	for _, tc := range tests {
		got, ok := parseTicket(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseTicket(%q) = %d, %v", tc.in, got, ok)
		}
	}
}
