package queue

import (
	"encoding/json"
	"math"
	"time"
)

// Subscription is one monitored (chat, clinic, doctor, ticket) tuple plus the
// tracking state of the last notification sent for it.
type Subscription struct {
	ChatID      int64
	PoliValue   string
	PoliLabel   string
	DoctorValue string
	DoctorLabel string
	MyNumber    int

	LastFingerprint string
	LastNotifiedAt  time.Time
}

// SameTarget reports whether o monitors the same clinic, doctor and ticket as s.
func (s Subscription) SameTarget(o Subscription) bool {
	return s.ChatID == o.ChatID &&
		s.PoliValue == o.PoliValue &&
		s.DoctorValue == o.DoctorValue &&
		s.MyNumber == o.MyNumber
}

// WithNotified returns a copy of s carrying the new tracking state.
func (s Subscription) WithNotified(fingerprint string, at time.Time) Subscription {
	s.LastFingerprint = fingerprint
	s.LastNotifiedAt = at
	return s
}

// record is the persisted shape. last_notified_at is unix seconds as a float.
type record struct {
	ChatID          int64   `json:"chat_id"`
	PoliValue       string  `json:"poli_value"`
	PoliLabel       string  `json:"poli_label"`
	DoctorValue     string  `json:"doctor_value"`
	DoctorLabel     string  `json:"doctor_label"`
	MyNumber        int     `json:"my_number"`
	LastFingerprint string  `json:"last_fingerprint"`
	LastNotifiedAt  float64 `json:"last_notified_at"`
}

func (s Subscription) MarshalJSON() ([]byte, error) {
	r := record{
		ChatID:          s.ChatID,
		PoliValue:       s.PoliValue,
		PoliLabel:       s.PoliLabel,
		DoctorValue:     s.DoctorValue,
		DoctorLabel:     s.DoctorLabel,
		MyNumber:        s.MyNumber,
		LastFingerprint: s.LastFingerprint,
	}
	if !s.LastNotifiedAt.IsZero() {
		r.LastNotifiedAt = float64(s.LastNotifiedAt.Unix()) + float64(s.LastNotifiedAt.Nanosecond())/1e9
	}
	return json.Marshal(r)
}

func (s *Subscription) UnmarshalJSON(b []byte) error {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}
	*s = Subscription{
		ChatID:          r.ChatID,
		PoliValue:       r.PoliValue,
		PoliLabel:       r.PoliLabel,
		DoctorValue:     r.DoctorValue,
		DoctorLabel:     r.DoctorLabel,
		MyNumber:        r.MyNumber,
		LastFingerprint: r.LastFingerprint,
	}
	if r.LastNotifiedAt > 0 {
		sec, frac := math.Modf(r.LastNotifiedAt)
		s.LastNotifiedAt = time.Unix(int64(sec), int64(frac*1e9))
	}
	return nil
}
