package app

import (
	"strings"
	"testing"
	"time"

	"antrianbot/internal/config"
	"antrianbot/internal/monitor"
	"antrianbot/internal/remote"
	logx "antrianbot/pkg/logx"
)

func TestMapDefaults(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Telegram.AdminChatID = 99
	cfg.Logging.Telegram.Enabled = true

	mc, err := mapMonitorConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := monitor.Config{
		PollInterval:  time.Minute,
		InitialDelay:  10 * time.Second,
		ForceInterval: 10 * time.Minute,
		Concurrency:   4,
		CheckTimeout:  90 * time.Second,
	}
	if mc != want {
		t.Fatalf("monitor = %+v, want %+v", mc, want)
	}

	rc, err := mapRemoteConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if rc.Timeout != 25*time.Second || rc.BaseURL != remote.DefaultBaseURL {
		t.Fatalf("remote = %+v", rc)
	}

	nc, err := mapNotifierConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !nc.Enabled || nc.RetryBase != 500*time.Millisecond || nc.RetryMaxDelay != 10*time.Second {
		t.Fatalf("notifier = %+v", nc)
	}

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if sc.Driver != "file" || sc.Path != "subscriptions.json" || sc.BusyTimeout != 0 {
		t.Fatalf("storage = %+v", sc)
	}

	lc := mapLogConfig(cfg)
	if lc.Telegram.ChatID != 99 || !lc.Telegram.Enabled || lc.Level != "INFO" {
		t.Fatalf("logging = %+v", lc)
	}
}

func TestMapRejectsBadDurations(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Monitor.PollInterval = "soon"
	cfg.Monitor.ForceInterval = "later"
	_, err := mapMonitorConfig(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	for _, field := range []string{"monitor.poll_interval", "monitor.force_interval"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not name %s", err, field)
		}
	}

	cfg = config.Default()
	cfg.Storage.BusyTimeout = "x"
	if _, err := mapStorageConfig(cfg); err == nil {
		t.Fatal("expected storage error")
	}
}

func TestRemoteHolderSwap(t *testing.T) {
	t.Parallel()
	first, err := remote.New(remote.Config{BaseURL: "http://one.example/"}, nopLog())
	if err != nil {
		t.Fatal(err)
	}
	second, err := remote.New(remote.Config{BaseURL: "http://two.example/"}, nopLog())
	if err != nil {
		t.Fatal(err)
	}
	h := newRemoteHolder(first)
	if old := h.swap(second); old != first {
		t.Fatal("swap did not return the previous client")
	}
	if h.cur.Load() != second {
		t.Fatal("holder does not point at the new client")
	}
}

func nopLog() logx.Logger { return logx.Nop() }
