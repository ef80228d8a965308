package app

import (
	"errors"
	"strings"
	"time"

	"antrianbot/internal/config"
	"antrianbot/internal/monitor"
	"antrianbot/internal/notifier"
	"antrianbot/internal/remote"
	"antrianbot/internal/storage"
	logx "antrianbot/pkg/logx"
)

func mapLogConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ChatID:     cfg.Telegram.AdminChatID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func mapRemoteConfig(cfg *config.Config) (remote.Config, error) {
	timeout, err := config.ParseDurationOrDefault("remote.timeout", cfg.Remote.Timeout, remote.DefaultTimeout)
	if err != nil {
		return remote.Config{}, err
	}
	return remote.Config{
		BaseURL:   cfg.Remote.BaseURL,
		Timeout:   timeout,
		UserAgent: cfg.Remote.UserAgent,
	}, nil
}

func mapMonitorConfig(cfg *config.Config) (monitor.Config, error) {
	mc := cfg.Monitor
	poll, err1 := config.ParseDurationOrDefault("monitor.poll_interval", mc.PollInterval, monitor.DefaultPollInterval)
	// an explicit "0s" starts polling right away
	delay, err2 := config.ParseDurationField("monitor.initial_delay", mc.InitialDelay)
	if strings.TrimSpace(mc.InitialDelay) == "" {
		delay = monitor.DefaultInitialDelay
	}
	force, err3 := config.ParseDurationOrDefault("monitor.force_interval", mc.ForceInterval, monitor.DefaultForceInterval)
	check, err4 := config.ParseDurationOrDefault("monitor.check_timeout", mc.CheckTimeout, monitor.DefaultCheckTimeout)
	if err := errors.Join(err1, err2, err3, err4); err != nil {
		return monitor.Config{}, err
	}
	return monitor.Config{
		PollInterval:  poll,
		InitialDelay:  delay,
		ForceInterval: force,
		Concurrency:   mc.Concurrency,
		CheckTimeout:  check,
	}, nil
}

func mapNotifierConfig(cfg *config.Config) (notifier.Config, error) {
	nc := cfg.Notifier
	base, err1 := config.ParseDurationOrDefault("notifier.retry_base", nc.RetryBase, 500*time.Millisecond)
	maxDelay, err2 := config.ParseDurationOrDefault("notifier.retry_max_delay", nc.RetryMaxDelay, 10*time.Second)
	if err := errors.Join(err1, err2); err != nil {
		return notifier.Config{}, err
	}
	return notifier.Config{
		// subscribers always get their updates; there is no switch for it
		Enabled:       true,
		Workers:       nc.Workers,
		QueueSize:     nc.QueueSize,
		RatePerSec:    nc.RatePerSec,
		RetryMax:      nc.RetryMax,
		RetryBase:     base,
		RetryMaxDelay: maxDelay,
	}, nil
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	sc := cfg.Storage
	busy, err := config.ParseDurationField("storage.busy_timeout", sc.BusyTimeout)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      sc.Driver,
		Path:        sc.Path,
		BusyTimeout: busy,
		Redis: storage.RedisConfig{
			Addr:     sc.Redis.Addr,
			Password: sc.Redis.Password,
			DB:       sc.Redis.DB,
			Key:      sc.Redis.Key,
		},
	}, nil
}
