package queue

import (
	"bytes"
	"encoding/json"
	"time"
)

// Snapshot is the queue state of one clinic/doctor pair at FetchedAt.
// It is built once per fetch and treated as immutable.
type Snapshot struct {
	PoliLabel   string
	DoctorLabel string
	Total       int
	Current     string
	Upcoming    []Entry
	Skipped     []string
	Finished    []string
	FetchedAt   time.Time
}

// fingerprintPayload fixes key order: total, current, upcoming, skipped, finished.
type fingerprintPayload struct {
	Total    int      `json:"total"`
	Current  string   `json:"current"`
	Upcoming [][2]any `json:"upcoming"`
	Skipped  []string `json:"skipped"`
	Finished []string `json:"finished"`
}

// Fingerprint is a canonical serialization of the snapshot's meaningful content.
// Equal content yields byte-identical output; labels and FetchedAt are excluded.
func Fingerprint(s Snapshot) string {
	p := fingerprintPayload{
		Total:    s.Total,
		Current:  s.Current,
		Upcoming: make([][2]any, 0, len(s.Upcoming)),
		Skipped:  nonNil(s.Skipped),
		Finished: nonNil(s.Finished),
	}
	for _, e := range s.Upcoming {
		p.Upcoming = append(p.Upcoming, [2]any{e.Label, e.CheckedIn})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		// Only strings, ints and bools are encoded.
		panic(err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
