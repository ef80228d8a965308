package monitor

import (
	"time"

	"antrianbot/internal/queue"
)

type Decision int

const (
	Skip Decision = iota
	// NotifyChanged: the fingerprint differs from the last notified one.
	NotifyChanged
	// NotifyHeartbeat: content is unchanged but the force interval elapsed.
	NotifyHeartbeat
)

func (d Decision) String() string {
	switch d {
	case NotifyChanged:
		return "changed"
	case NotifyHeartbeat:
		return "heartbeat"
	default:
		return "skip"
	}
}

// Notify reports whether a message is due.
func (d Decision) Notify() bool { return d != Skip }

// Decide is the notification rule. A zero LastNotifiedAt always counts as
// elapsed.
func Decide(sub queue.Subscription, fingerprint string, now time.Time, forceInterval time.Duration) Decision {
	if fingerprint != sub.LastFingerprint {
		return NotifyChanged
	}
	if sub.LastNotifiedAt.IsZero() || now.Sub(sub.LastNotifiedAt) >= forceInterval {
		return NotifyHeartbeat
	}
	return Skip
}
