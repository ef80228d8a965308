package notifier

import "time"

// Config controls the async notification pipeline.
type Config struct {
	Enabled       bool
	Workers       int
	QueueSize     int
	RatePerSec    int
	RetryMax      int
	RetryBase     time.Duration
	RetryMaxDelay time.Duration
	SendTimeout   time.Duration
}

type HistoryItem struct {
	At     time.Time
	ChatID int64
	Text   string
	Err    string
}

// Stats are best-effort counters since Start.
type Stats struct {
	Queued  uint64
	Sent    uint64
	Failed  uint64
	Dropped uint64
}
