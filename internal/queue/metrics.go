package queue

// Metrics describes a subscriber's position relative to the upcoming list.
type Metrics struct {
	CheckedIn    int
	NotCheckedIn int
	// RemainingFastest counts checked-in entries ahead of the subscriber
	// (best case: only they are called first).
	RemainingFastest int
	// RemainingSlowest counts every entry ahead of the subscriber.
	RemainingSlowest int
	IsUpcoming       bool
}

// ComputeMetrics derives position metrics for myNumber.
// The current ticket does not participate; only Upcoming is considered.
func ComputeMetrics(s Snapshot, myNumber int) Metrics {
	var m Metrics
	for _, e := range s.Upcoming {
		if e.CheckedIn {
			m.CheckedIn++
		}
		if e.Number < myNumber {
			m.RemainingSlowest++
			if e.CheckedIn {
				m.RemainingFastest++
			}
		}
		if e.Number == myNumber {
			m.IsUpcoming = true
		}
	}
	m.NotCheckedIn = len(s.Upcoming) - m.CheckedIn
	return m
}
