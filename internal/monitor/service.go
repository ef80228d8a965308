package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"antrianbot/internal/queue"
	"antrianbot/internal/storage"
	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
)

const (
	DefaultPollInterval  = 60 * time.Second
	DefaultInitialDelay  = 10 * time.Second
	DefaultForceInterval = 600 * time.Second
	DefaultConcurrency   = 4
	DefaultCheckTimeout  = 90 * time.Second
)

// ErrBusy is returned by CheckNow while a check for the same chat is running.
var ErrBusy = errors.New("monitor: check already in progress")

type Config struct {
	PollInterval  time.Duration
	InitialDelay  time.Duration
	ForceInterval time.Duration
	Concurrency   int
	CheckTimeout  time.Duration // whole check: fetch + deliver + persist
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.InitialDelay < 0 {
		c.InitialDelay = 0
	}
	if c.ForceInterval <= 0 {
		c.ForceInterval = DefaultForceInterval
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = DefaultCheckTimeout
	}
	return c
}

// Fetcher loads the current queue for a clinic and doctor.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, poliValue, doctorValue string) (queue.Snapshot, error)
}

// Sender delivers a message and reports whether it reached the chat.
type Sender interface {
	Deliver(ctx context.Context, n kit.Notification) error
}

// Store is the subset of storage.Store the monitor uses.
type Store interface {
	List(ctx context.Context) ([]queue.Subscription, error)
	Get(ctx context.Context, chatID int64) (queue.Subscription, error)
	Update(ctx context.Context, chatID int64, fn storage.UpdateFunc) error
}

// Result describes one subscriber check.
type Result struct {
	ChatID   int64
	Decision Decision
	// Stale is set when the subscription changed while the check ran; the
	// tracking update was discarded.
	Stale bool
	Err   error
}

// TickReport summarizes one poll over all subscriptions.
type TickReport struct {
	ID       string
	Started  time.Time
	Took     time.Duration
	Checked  int
	Notified int
	Failed   int
	Busy     int
}

type Service struct {
	log   logx.Logger
	fetch Fetcher
	send  Sender
	store Store
	now   func() time.Time

	mu     sync.Mutex
	cfg    Config
	c      *cron.Cron
	entry  cron.EntryID
	runCtx context.Context
	last   TickReport

	ifMu     sync.Mutex
	inflight map[int64]struct{}
}

func New(cfg Config, fetch Fetcher, send Sender, store Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:      cfg.withDefaults(),
		fetch:    fetch,
		send:     send,
		store:    store,
		log:      log,
		now:      time.Now,
		inflight: map[int64]struct{}{},
	}
}

func (s *Service) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// LastTick returns the report of the most recent completed tick.
func (s *Service) LastTick() TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Start schedules ticks: the first after InitialDelay, then every PollInterval.
// Ticks never overlap.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return
	}
	cl := logx.CronLogger(s.log)
	s.c = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s.runCtx = ctx
	s.scheduleLocked(s.cfg.InitialDelay)
	s.c.Start()
	s.log.Info("monitor started",
		logx.Duration("poll", s.cfg.PollInterval),
		logx.Duration("first_in", s.cfg.InitialDelay),
		logx.Duration("force", s.cfg.ForceInterval),
	)
}

func (s *Service) scheduleLocked(delay time.Duration) {
	ctx := s.runCtx
	job := cron.FuncJob(func() { s.Tick(ctx) })
	s.entry = s.c.Schedule(newDelayedEvery(s.now(), delay, s.cfg.PollInterval), job)
}

// Stop halts scheduling and waits for a running tick until ctx ends.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
		s.log.Info("monitor stopped")
	case <-ctx.Done():
		s.log.Warn("monitor stop timed out", logx.Err(ctx.Err()))
	}
}

// Apply swaps the configuration. A changed poll interval reschedules the
// next tick one full interval from now.
func (s *Service) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cfg
	s.cfg = cfg
	if s.c == nil || old.PollInterval == cfg.PollInterval {
		return
	}
	s.c.Remove(s.entry)
	s.scheduleLocked(cfg.PollInterval)
	s.log.Info("poll interval changed", logx.Duration("old", old.PollInterval), logx.Duration("new", cfg.PollInterval))
}

// Tick checks every subscription once. Subscribers are independent: a
// failure is logged with its chat id and never aborts the tick.
func (s *Service) Tick(ctx context.Context) TickReport {
	cfg := s.config()
	rep := TickReport{ID: uuid.NewString()[:8], Started: s.now()}
	log := s.log.With(logx.String("tick", rep.ID))

	subs, err := s.store.List(ctx)
	if err != nil {
		log.Error("list subscriptions failed", logx.Err(err))
		return rep
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, cfg.Concurrency)
	)
	for _, sub := range subs {
		if !s.acquire(sub.ChatID) {
			rep.Busy++
			log.Debug("subscriber busy, skipped", logx.Int64("chat_id", sub.ChatID))
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			s.release(sub.ChatID)
			wg.Wait()
			return rep
		}
		wg.Add(1)
		go func(sub queue.Subscription) {
			defer wg.Done()
			defer func() { <-sem }()
			defer s.release(sub.ChatID)

			res := s.check(ctx, cfg, sub)
			s.logResult(log, res)

			mu.Lock()
			rep.Checked++
			if res.Err != nil {
				rep.Failed++
			} else if res.Decision.Notify() && !res.Stale {
				rep.Notified++
			}
			mu.Unlock()
		}(sub)
	}
	wg.Wait()

	rep.Took = time.Since(rep.Started)
	log.Debug("tick done",
		logx.Int("subscriptions", len(subs)),
		logx.Int("notified", rep.Notified),
		logx.Int("failed", rep.Failed),
		logx.Int("busy", rep.Busy),
		logx.Duration("took", rep.Took),
	)
	s.mu.Lock()
	s.last = rep
	s.mu.Unlock()
	return rep
}

// CheckNow runs one check for chatID outside the cadence.
func (s *Service) CheckNow(ctx context.Context, chatID int64) (Result, error) {
	sub, err := s.store.Get(ctx, chatID)
	if err != nil {
		return Result{ChatID: chatID}, err
	}
	if !s.acquire(chatID) {
		return Result{ChatID: chatID}, ErrBusy
	}
	defer s.release(chatID)

	res := s.check(ctx, s.config(), sub)
	s.logResult(s.log, res)
	return res, res.Err
}

func (s *Service) check(ctx context.Context, cfg Config, sub queue.Subscription) Result {
	res := Result{ChatID: sub.ChatID}
	ctx, cancel := context.WithTimeout(ctx, cfg.CheckTimeout)
	defer cancel()

	snap, err := s.fetch.FetchSnapshot(ctx, sub.PoliValue, sub.DoctorValue)
	if err != nil {
		res.Err = fmt.Errorf("fetch: %w", err)
		return res
	}
	fp := queue.Fingerprint(snap)
	now := s.now()
	res.Decision = Decide(sub, fp, now, cfg.ForceInterval)
	if !res.Decision.Notify() {
		return res
	}

	n := kit.Notification{
		Target:  kit.ChatTarget{ChatID: sub.ChatID},
		Text:    queue.RenderStatus(sub, snap),
		Options: &kit.SendOptions{DisablePreview: true},
	}
	if err := s.send.Deliver(ctx, n); err != nil {
		res.Err = fmt.Errorf("deliver: %w", err)
		return res
	}

	err = s.store.Update(ctx, sub.ChatID, func(cur queue.Subscription, ok bool) (queue.Subscription, error) {
		if !ok || !cur.SameTarget(sub) {
			res.Stale = true
			return queue.Subscription{}, storage.ErrNoChange
		}
		return cur.WithNotified(fp, now), nil
	})
	if err != nil {
		res.Err = fmt.Errorf("persist: %w", err)
	}
	return res
}

func (s *Service) logResult(log logx.Logger, res Result) {
	fields := []logx.Field{logx.Int64("chat_id", res.ChatID), logx.String("decision", res.Decision.String())}
	switch {
	case res.Err != nil:
		log.Warn("subscriber check failed", append(fields, logx.Err(res.Err))...)
	case res.Stale:
		log.Info("subscription changed during check, tracking discarded", fields...)
	case res.Decision.Notify():
		log.Info("status sent", fields...)
	default:
		log.Debug("no change", fields...)
	}
}

func (s *Service) acquire(chatID int64) bool {
	s.ifMu.Lock()
	defer s.ifMu.Unlock()
	if _, busy := s.inflight[chatID]; busy {
		return false
	}
	s.inflight[chatID] = struct{}{}
	return true
}

func (s *Service) release(chatID int64) {
	s.ifMu.Lock()
	delete(s.inflight, chatID)
	s.ifMu.Unlock()
}
