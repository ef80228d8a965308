package queue

import (
	"fmt"
	"strings"
)

// RenderStatus formats the status block sent to a subscriber.
func RenderStatus(sub Subscription, snap Snapshot) string {
	m := ComputeMetrics(snap, sub.MyNumber)
	current := snap.Current
	if current == "" {
		current = "-"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📍 %s\n", sub.PoliLabel)
	fmt.Fprintf(&b, "👨‍⚕️ %s\n", sub.DoctorLabel)
	fmt.Fprintf(&b, "🎟️ Antrian kamu: %d\n\n", sub.MyNumber)
	fmt.Fprintf(&b, "Total antrian: %d\n", snap.Total)
	fmt.Fprintf(&b, "Antrian saat ini: %s\n", current)
	fmt.Fprintf(&b, "Menunggu (Antrian Selanjutnya): %d\n", len(snap.Upcoming))
	fmt.Fprintf(&b, "✅ Sudah check-in (tanpa *): %d\n", m.CheckedIn)
	fmt.Fprintf(&b, "⏳ Belum check-in (dengan *): %d\n", m.NotCheckedIn)
	fmt.Fprintf(&b, "🚀 Sisa tercepat (asumsi semua yg check-in duluan): %d\n", m.RemainingFastest)
	fmt.Fprintf(&b, "🐢 Sisa terlama (asumsi semua sebelum nomor kamu dipanggil): %d", m.RemainingSlowest)
	if !m.IsUpcoming && len(snap.Upcoming) > 0 {
		b.WriteString("\n\nℹ️ Nomor kamu tidak ada di daftar Antrian Selanjutnya.")
	}
	return b.String()
}
