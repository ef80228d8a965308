package notifier

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	rtsup "antrianbot/internal/runtime/supervisor"
	kit "antrianbot/internal/transport"
	logx "antrianbot/pkg/logx"
)

var (
	ErrDisabled  = errors.New("notifier disabled")
	ErrQueueFull = errors.New("notifier queue full")
	ErrStopped   = errors.New("notifier stopped")
)

const historySize = 100

type job struct {
	n kit.Notification
	// done receives the final outcome when the caller waits for it.
	done chan error
}

// Service is a queue + worker pool + rate limit + retry pipeline.
// It is safe for concurrent use.
type Service struct {
	mu sync.Mutex

	log     logx.Logger
	adapter kit.Adapter

	cfg     Config
	limiter *rate.Limiter

	accepting bool
	sendWG    sync.WaitGroup

	queue    chan job
	sup      *rtsup.Supervisor
	stopDone chan struct{} // non-nil while stopping

	queued, sent, failed, dropped atomic.Uint64

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, adapter kit.Adapter, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{adapter: adapter, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Apply updates rate and retry settings. Worker count and queue size take
// effect on the next Start.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 20
	}
	cfg.RetryMax = max(cfg.RetryMax, 0)
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	s.cfg = cfg
	// burst = rate so short spikes are not delayed
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Start launches the workers. It is idempotent.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
		s.mu.Lock()
	}
	if s.queue != nil || !s.cfg.Enabled {
		s.mu.Unlock()
		return
	}
	s.queue = make(chan job, s.cfg.QueueSize)
	s.accepting = true
	s.sup = rtsup.New(ctx, rtsup.WithLogger(s.log))
	sup, q, workers := s.sup, s.queue, s.cfg.Workers
	s.mu.Unlock()

	for i := range workers {
		sup.GoRestart(fmt.Sprintf("notifier.worker.%d", i), func(c context.Context) error {
			s.workerLoop(c, q)
			if s.stopping() || c.Err() != nil {
				return nil
			}
			return errors.New("worker exited unexpectedly")
		})
	}
	s.log.Info("notifier started", logx.Int("workers", workers))
}

func (s *Service) stopping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopDone != nil
}

// Stop refuses new messages and drains the queue until ctx expires.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	q, sup := s.queue, s.sup
	if q == nil {
		s.mu.Unlock()
		return
	}
	if s.stopDone != nil {
		done := s.stopDone
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
		}
		return
	}
	done := make(chan struct{})
	s.stopDone = done
	s.accepting = false
	s.mu.Unlock()

	go func() {
		defer close(done)
		// In-flight Notify calls finish their enqueue before the queue closes.
		s.sendWG.Wait()
		close(q)
		_ = sup.Wait(context.Background())

		s.mu.Lock()
		s.queue, s.sup, s.stopDone = nil, nil, nil
		s.mu.Unlock()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		sup.Cancel()
	}
}

// Notify enqueues n and returns without waiting for delivery.
func (s *Service) Notify(ctx context.Context, n kit.Notification) error {
	return s.enqueue(ctx, job{n: n})
}

// Deliver enqueues n and waits until it was sent, finally failed or ctx ended.
func (s *Service) Deliver(ctx context.Context, n kit.Notification) error {
	j := job{n: n, done: make(chan error, 1)}
	if err := s.enqueue(ctx, j); err != nil {
		return err
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) enqueue(ctx context.Context, j job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if !s.cfg.Enabled {
		s.mu.Unlock()
		return ErrDisabled
	}
	if !s.accepting || s.queue == nil {
		s.mu.Unlock()
		return ErrStopped
	}
	q := s.queue
	s.sendWG.Add(1)
	s.mu.Unlock()
	defer s.sendWG.Done()

	select {
	case q <- j:
		s.queued.Add(1)
		return nil
	default:
		s.dropped.Add(1)
		return ErrQueueFull
	}
}

func (s *Service) workerLoop(ctx context.Context, q <-chan job) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-q:
			if !ok {
				return
			}
			err := s.sendWithRetry(ctx, j.n)
			if j.done != nil {
				j.done <- err
			}
		}
	}
}

func (s *Service) sendWithRetry(ctx context.Context, n kit.Notification) error {
	s.mu.Lock()
	cfg, lim, ad := s.cfg, s.limiter, s.adapter
	s.mu.Unlock()

	if ad == nil {
		return ErrDisabled
	}
	if n.Text == "" {
		return nil
	}

	attempts := 1 + cfg.RetryMax
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := lim.Wait(ctx); err != nil {
			return err
		}
		callCtx, cancel := context.WithTimeout(ctx, cfg.SendTimeout)
		_, err := ad.SendText(callCtx, n.Target, n.Text, n.Options)
		cancel()
		if err == nil {
			s.sent.Add(1)
			s.appendHistory(n, nil)
			return nil
		}
		lastErr = err
		s.log.Debug("notify send failed",
			logx.Int64("chat_id", n.Target.ChatID),
			logx.Int("attempt", attempt),
			logx.Int("max", attempts),
			logx.Err(err),
		)
		if errors.Is(err, kit.ErrPermanent) || attempt == attempts {
			break
		}

		t := time.NewTimer(retryDelay(cfg, attempt))
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}

	s.failed.Add(1)
	s.appendHistory(n, lastErr)
	s.log.Warn("notify failed", logx.Int64("chat_id", n.Target.ChatID), logx.Err(lastErr))
	return lastErr
}

// retryDelay is base * 2^(attempt-1), capped, with 0.7..1.3 jitter.
func retryDelay(cfg Config, attempt int) time.Duration {
	d := cfg.RetryBase
	for i := 1; i < attempt && d < cfg.RetryMaxDelay; i++ {
		d *= 2
	}
	d = time.Duration(float64(d) * (0.7 + rand.Float64()*0.6))
	return min(max(d, 0), cfg.RetryMaxDelay)
}

func (s *Service) appendHistory(n kit.Notification, err error) {
	it := HistoryItem{At: time.Now(), ChatID: n.Target.ChatID, Text: n.Text}
	if err != nil {
		it.Err = err.Error()
	}
	s.hmu.Lock()
	s.history = append(s.history, it)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.hmu.Unlock()
}

// History returns the most recent deliveries, oldest first.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	return append([]HistoryItem(nil), s.history...)
}

func (s *Service) Stats() Stats {
	return Stats{
		Queued:  s.queued.Load(),
		Sent:    s.sent.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
	}
}
