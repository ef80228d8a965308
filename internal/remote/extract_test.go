package remote

import (
	"net/url"
	"os"
	"testing"
	"time"

	"antrianbot/internal/queue"
)

func loadPage(t *testing.T, path string) *Page {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	u, _ := url.Parse("https://antrian.example.test/")
	p, err := ParsePage(u, b)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

func mustPage(t *testing.T, html string) *Page {
	t.Helper()
	u, _ := url.Parse("https://antrian.example.test/")
	p, err := ParsePage(u, []byte(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

func TestExtractFixture(t *testing.T) {
	t.Parallel()
	p := loadPage(t, "testdata/queue.html")
	at := time.Unix(1700000000, 0)
	snap := Extract(p, "U02", "D7", at)

	if snap.PoliLabel != "Poli Penyakit Dalam" {
		t.Fatalf("PoliLabel = %q", snap.PoliLabel)
	}
	if snap.DoctorLabel != "dr. Rina, Sp.PD" {
		t.Fatalf("DoctorLabel = %q", snap.DoctorLabel)
	}
	if snap.Total != 42 || snap.Current != "A-019" {
		t.Fatalf("Total/Current = %d/%q", snap.Total, snap.Current)
	}
	want := []queue.Entry{
		{Label: "A-020", Number: 20, CheckedIn: true},
		{Label: "A-021", Number: 21, CheckedIn: false},
		{Label: "A- 022", Number: 22, CheckedIn: true},
		{Label: "A-023", Number: 23, CheckedIn: false},
	}
	if len(snap.Upcoming) != len(want) {
		t.Fatalf("Upcoming = %+v", snap.Upcoming)
	}
	for i := range want {
		if snap.Upcoming[i] != want[i] {
			t.Fatalf("Upcoming[%d] = %+v, want %+v", i, snap.Upcoming[i], want[i])
		}
	}
	if len(snap.Skipped) != 2 || snap.Skipped[0] != "A-005" || snap.Skipped[1] != "A-011" {
		t.Fatalf("Skipped = %v", snap.Skipped)
	}
	if len(snap.Finished) != 3 || snap.Finished[2] != "A-003" {
		t.Fatalf("Finished = %v", snap.Finished)
	}
	if !snap.FetchedAt.Equal(at) {
		t.Fatalf("FetchedAt = %v", snap.FetchedAt)
	}
}

func TestExtractLabelFallsBackToValue(t *testing.T) {
	t.Parallel()
	p := loadPage(t, "testdata/queue.html")
	snap := Extract(p, "U99", "D99", time.Now())
	if snap.PoliLabel != "U99" || snap.DoctorLabel != "D99" {
		t.Fatalf("labels = %q/%q, want raw values", snap.PoliLabel, snap.DoctorLabel)
	}
}

func TestExtractEmptyPageIsTolerated(t *testing.T) {
	t.Parallel()
	p := mustPage(t, `<html><body><p>Sedang pemeliharaan</p></body></html>`)
	snap := Extract(p, "U01", "D1", time.Now())
	if snap.Total != 0 || snap.Current != "" {
		t.Fatalf("Total/Current = %d/%q", snap.Total, snap.Current)
	}
	if len(snap.Upcoming) != 0 || len(snap.Skipped) != 0 || len(snap.Finished) != 0 {
		t.Fatalf("expected empty sections: %+v", snap)
	}
}

func TestSectionMissingHeading(t *testing.T) {
	t.Parallel()
	p := loadPage(t, "testdata/queue.html")
	got := Section(p, "Antrian Ditunda")
	if got == nil || len(got) != 0 {
		t.Fatalf("Section(missing) = %#v, want empty non-nil", got)
	}
}

func TestSectionHeadingWithoutContainer(t *testing.T) {
	t.Parallel()
	p := mustPage(t, `<div><h4>Antrian Dilewati</h4></div>`)
	if got := Section(p, TitleSkipped); len(got) != 0 {
		t.Fatalf("Section = %+v, want empty", got)
	}
}

func TestNonNumericTotal(t *testing.T) {
	t.Parallel()
	p := mustPage(t, `<span id="lblTotal">-</span><span id="lblCurrent"></span>`)
	if snap := Extract(p, "", "", time.Now()); snap.Total != 0 {
		t.Fatalf("Total = %d", snap.Total)
	}
}

func TestOptions(t *testing.T) {
	t.Parallel()
	p := loadPage(t, "testdata/queue.html")
	opts := Options(p, FieldPoli)
	if len(opts) != 2 {
		t.Fatalf("Options = %+v", opts)
	}
	if opts[0] != (Option{Value: "U01", Label: "Poli Anak"}) {
		t.Fatalf("opts[0] = %+v", opts[0])
	}
	if got := Options(p, "ddMissing"); len(got) != 0 {
		t.Fatalf("missing select gave %+v", got)
	}
}
