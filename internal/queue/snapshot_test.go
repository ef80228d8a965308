package queue

import (
	"testing"
	"time"
)

func TestFingerprintDeterministic(t *testing.T) {
	t.Parallel()
	a := exampleSnapshot()
	b := exampleSnapshot()
	b.FetchedAt = time.Now()
	b.PoliLabel = "relabelled"

	if Fingerprint(a) != Fingerprint(a) {
		t.Fatal("fingerprint is not deterministic")
	}
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("labels and fetch time must not affect the fingerprint")
	}
}

func TestFingerprintFormat(t *testing.T) {
	t.Parallel()
	want := `{"total":30,"current":"A-009","upcoming":[["A-010",true],["A-015",false],["A-020",true]],"skipped":["A-004"],"finished":["A-001","A-002"]}`
	if got := Fingerprint(exampleSnapshot()); got != want {
		t.Fatalf("Fingerprint =\n%s\nwant\n%s", got, want)
	}
	if got := Fingerprint(Snapshot{}); got != `{"total":0,"current":"","upcoming":[],"skipped":[],"finished":[]}` {
		t.Fatalf("empty Fingerprint = %s", got)
	}
}

func TestFingerprintSensitiveToCheckIn(t *testing.T) {
	t.Parallel()
	a := exampleSnapshot()
	b := exampleSnapshot()
	b.Upcoming = append([]Entry(nil), a.Upcoming...)
	b.Upcoming[1].CheckedIn = true
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("flipping a checked-in flag must change the fingerprint")
	}
}

func TestFingerprintOrderMatters(t *testing.T) {
	t.Parallel()
	a := exampleSnapshot()
	b := exampleSnapshot()
	b.Finished = []string{"A-002", "A-001"}
	if Fingerprint(a) == Fingerprint(b) {
		t.Fatal("server order must be preserved in the fingerprint")
	}
}
