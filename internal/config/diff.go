package config

import (
	"reflect"

	logx "antrianbot/pkg/logx"
)

// SummarizeChange lists the sections that differ between two configs and
// returns log fields describing the new values. Secrets are never included.
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}
	var (
		changed []string
		fields  []logx.Field
	)
	if !reflect.DeepEqual(oldCfg.Telegram, newCfg.Telegram) {
		changed = append(changed, "telegram")
		fields = append(fields,
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
			logx.Bool("telegram.admin_set", newCfg.Telegram.AdminChatID != 0),
		)
	}
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, "logging")
		fields = append(fields,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.file", newCfg.Logging.File.Enabled),
			logx.Bool("logging.telegram", newCfg.Logging.Telegram.Enabled),
		)
	}
	if !reflect.DeepEqual(oldCfg.Remote, newCfg.Remote) {
		changed = append(changed, "remote")
		fields = append(fields,
			logx.String("remote.base_url", newCfg.Remote.BaseURL),
			logx.String("remote.timeout", newCfg.Remote.Timeout),
		)
	}
	if !reflect.DeepEqual(oldCfg.Monitor, newCfg.Monitor) {
		changed = append(changed, "monitor")
		fields = append(fields,
			logx.String("monitor.poll_interval", newCfg.Monitor.PollInterval),
			logx.String("monitor.force_interval", newCfg.Monitor.ForceInterval),
			logx.Int("monitor.concurrency", newCfg.Monitor.Concurrency),
		)
	}
	if !reflect.DeepEqual(oldCfg.Notifier, newCfg.Notifier) {
		changed = append(changed, "notifier")
		fields = append(fields,
			logx.Int("notifier.rate_per_sec", newCfg.Notifier.RatePerSec),
			logx.Int("notifier.retry_max", newCfg.Notifier.RetryMax),
		)
	}
	if !reflect.DeepEqual(oldCfg.Storage, newCfg.Storage) {
		changed = append(changed, "storage")
		fields = append(fields,
			logx.String("storage.driver", newCfg.Storage.Driver),
			logx.String("storage.path", newCfg.Storage.Path),
		)
	}
	return changed, fields
}

// RestartRequired reports sections whose changes only apply after a restart.
func RestartRequired(changed []string) []string {
	var out []string
	for _, s := range changed {
		switch s {
		case "telegram", "storage":
			out = append(out, s)
		}
	}
	return out
}
