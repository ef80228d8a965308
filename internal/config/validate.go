package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate rejects configurations the bot cannot run with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	var errs []error
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		errs = append(errs, errors.New("telegram.token is required (or set TELEGRAM_BOT_TOKEN)"))
	}
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		errs = append(errs, err)
	}

	if u, err := url.Parse(strings.TrimSpace(cfg.Remote.BaseURL)); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("remote.base_url: want an http(s) URL, got %q", cfg.Remote.BaseURL))
	}
	errs = append(errs,
		requirePositive("remote.timeout", cfg.Remote.Timeout),
		requirePositive("monitor.poll_interval", cfg.Monitor.PollInterval),
		requirePositive("monitor.force_interval", cfg.Monitor.ForceInterval),
	)
	if _, err := ParseDurationField("monitor.initial_delay", cfg.Monitor.InitialDelay); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseDurationField("monitor.check_timeout", cfg.Monitor.CheckTimeout); err != nil {
		errs = append(errs, err)
	}
	if cfg.Monitor.Concurrency < 0 {
		errs = append(errs, errors.New("monitor.concurrency must be >= 0"))
	}

	for path, raw := range map[string]string{
		"notifier.retry_base":      cfg.Notifier.RetryBase,
		"notifier.retry_max_delay": cfg.Notifier.RetryMaxDelay,
		"storage.busy_timeout":     cfg.Storage.BusyTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			errs = append(errs, err)
		}
	}
	if cfg.Notifier.RetryMax < 0 {
		errs = append(errs, errors.New("notifier.retry_max must be >= 0"))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Storage.Driver)) {
	case "", "file", "json", "sqlite", "sqlite3":
	case "redis":
		if strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
			errs = append(errs, errors.New("storage.redis.addr is required when storage.driver=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver))
	}
	return errors.Join(errs...)
}
