// Package app wires configuration, storage, the queue site client, the
// Telegram adapter and the background services into one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"antrianbot/internal/bot"
	"antrianbot/internal/config"
	"antrianbot/internal/monitor"
	"antrianbot/internal/notifier"
	"antrianbot/internal/remote"
	rtsup "antrianbot/internal/runtime/supervisor"
	"antrianbot/internal/storage"
	kit "antrianbot/internal/transport"
	telegram "antrianbot/internal/transport/telegram/adapter"
	logx "antrianbot/pkg/logx"
	"antrianbot/pkg/systemd"
)

type App struct {
	cfgm *config.Manager
	sup  *rtsup.Supervisor

	log  logx.Logger
	logs *logx.Service

	store   storage.Store
	remote  *remoteHolder
	adapter *telegram.Adapter

	notif  *notifier.Service
	mon    *monitor.Service
	router *bot.Router

	updates chan kit.Update
}

func New(cfgPath string) (_ *App, err error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole(cfg.Logging.Level)
	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, bootLog.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	logSvc, log := logx.New(mapLogConfig(cfg), ad)
	defer func() {
		if err != nil {
			_ = logSvc.Close()
		}
	}()

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = store.Close()
		}
	}()

	rc, err := mapRemoteConfig(cfg)
	if err != nil {
		return nil, err
	}
	client, err := remote.New(rc, log.With(logx.String("comp", "remote")))
	if err != nil {
		return nil, err
	}
	rh := newRemoteHolder(client)

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(ncfg, ad, log.With(logx.String("comp", "notifier")))

	mcfg, err := mapMonitorConfig(cfg)
	if err != nil {
		return nil, err
	}
	mon := monitor.New(mcfg, rh, notif, store, log.With(logx.String("comp", "monitor")))

	router := bot.NewRouter(ad, log.With(logx.String("comp", "bot")))
	router.SetAdmin(cfg.Telegram.AdminChatID)
	bot.New(bot.Deps{
		Remote:     rh,
		Store:      store,
		Adapter:    ad,
		Monitor:    mon,
		Deliveries: notif,
	}, log.With(logx.String("comp", "bot"))).Register(router)

	log = log.With(logx.String("comp", "app"))
	log.Info("app configured",
		logx.String("config", cfgm.Path()),
		logx.String("storage", sc.Driver),
		logx.String("remote", rc.BaseURL),
		logx.Duration("poll", mcfg.PollInterval),
		logx.Duration("force", mcfg.ForceInterval),
	)

	return &App{
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		remote:  rh,
		adapter: ad,
		notif:   notif,
		mon:     mon,
		router:  router,
		updates: make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = rtsup.New(ctx, rtsup.WithLogger(a.log), rtsup.WithCancelOnError(true))
	run := a.sup.Context()

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))

	if err := a.adapter.Start(run, a.updates); err != nil {
		return err
	}
	a.notif.Start(run)
	a.mon.Start(run)

	a.sup.Go("bot.dispatch", func(c context.Context) error {
		return a.router.DispatchLoop(c, a.updates)
	})
	a.sup.Go0("telegram.menu", func(c context.Context) {
		mctx, cancel := context.WithTimeout(c, 15*time.Second)
		defer cancel()
		if err := a.adapter.UpdateMenuCommands(mctx, a.router.MenuCommands()); err != nil {
			a.log.Warn("menu commands not published", logx.Err(err))
		}
	})

	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		last := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				// coalesce bursts; only the newest config matters
				for drained := false; !drained; {
					select {
					case newer := <-sub:
						if newer != nil {
							next = newer
						}
					default:
						drained = true
					}
				}
				a.applyConfig(last, next)
				last = next
			}
		}
	})
	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})
	a.sup.Go0("systemd.watchdog", func(c context.Context) {
		systemd.Watchdog(c, func() bool { return a.sup.Err() == nil })
	})

	if _, err := systemd.Ready(); err != nil {
		a.log.Warn("systemd notify failed", logx.Err(err))
	}
	a.log.Info("app started")
	return nil
}

// applyConfig pushes a reloaded config into the running services.
func (a *App) applyConfig(prev, next *config.Config) {
	changed, fields := config.SummarizeChange(prev, next)
	if len(changed) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	if restart := config.RestartRequired(changed); len(restart) > 0 {
		a.log.Warn("config change requires restart to take effect", logx.String("sections", strings.Join(restart, ",")))
	}

	a.logs.Apply(mapLogConfig(next))
	a.router.SetAdmin(next.Telegram.AdminChatID)

	if slices.Contains(changed, "remote") {
		if err := a.swapRemote(next); err != nil {
			a.log.Warn("invalid remote config; keeping previous", logx.Err(err))
		}
	}
	if mc, err := mapMonitorConfig(next); err != nil {
		a.log.Warn("invalid monitor config; keeping previous", logx.Err(err))
	} else {
		a.mon.Apply(mc)
	}
	if nc, err := mapNotifierConfig(next); err != nil {
		a.log.Warn("invalid notifier config; keeping previous", logx.Err(err))
	} else {
		a.notif.Apply(nc)
	}

	a.log.Info("config reloaded", append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, fields...)...)
}

func (a *App) swapRemote(cfg *config.Config) error {
	rc, err := mapRemoteConfig(cfg)
	if err != nil {
		return err
	}
	client, err := remote.New(rc, a.log.With(logx.String("comp", "remote")))
	if err != nil {
		return err
	}
	if old := a.remote.swap(client); old != nil {
		_ = old.Close()
	}
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))
	if _, err := systemd.Stopping(); err != nil {
		a.log.Debug("systemd notify failed", logx.Err(err))
	}

	// cancel first so background loops start unwinding immediately
	a.sup.Cancel()

	var errs []error
	step := func(name string, limit time.Duration, fn func(context.Context) error) {
		if err := a.runStep(ctx, name, limit, fn); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	step("monitor", 3*time.Second, func(c context.Context) error { a.mon.Stop(c); return nil })
	step("notifier", 2*time.Second, func(c context.Context) error { a.notif.Stop(c); return nil })
	step("adapter", 2*time.Second, a.adapter.Stop)
	step("supervisor", 2*time.Second, a.sup.Wait)
	step("storage", time.Second, func(context.Context) error { return a.store.Close() })
	step("remote", time.Second, func(context.Context) error { return a.remote.Close() })

	a.log.Info("stopped")
	_ = a.logs.Close()
	return errors.Join(errs...)
}

// runStep bounds one shutdown step so a stuck component cannot stall the
// whole stop. It never extends the caller's deadline.
func (a *App) runStep(ctx context.Context, name string, limit time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	if dl, ok := ctx.Deadline(); ok {
		limit = min(limit, time.Until(dl))
	}
	stepCtx, cancel := context.WithTimeout(ctx, max(limit, 0))
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic in stop step %s: %v", name, r)
			}
		}()
		done <- fn(stepCtx)
	}()

	select {
	case err := <-done:
		took := time.Since(start)
		if err != nil {
			a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
		} else if took >= 500*time.Millisecond {
			a.log.Info("stop step end", logx.String("name", name), logx.Duration("took", took))
		} else {
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", took))
		}
		return err
	case <-stepCtx.Done():
		a.log.Warn("stop step deadline reached (continuing)",
			logx.String("name", name),
			logx.Duration("elapsed", time.Since(start)),
		)
		go func() {
			if err := <-done; err != nil {
				a.log.Warn("stop step finished after deadline", logx.String("name", name), logx.Err(err))
			}
		}()
		return stepCtx.Err()
	}
}
