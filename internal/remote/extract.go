package remote

import (
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"antrianbot/internal/queue"
)

const (
	TotalID   = "lblTotal"
	CurrentID = "lblCurrent"

	TitleUpcoming = "Antrian Selanjutnya"
	TitleSkipped  = "Antrian Dilewati"
	TitleFinished = "Antrian Selesai"
)

// Extract builds a snapshot from the page rendered after both selections.
// Clinic and doctor labels come from the page's own option lists, falling back
// to the requested values. Missing elements yield zero values, never errors.
func Extract(p *Page, poliValue, doctorValue string, fetchedAt time.Time) queue.Snapshot {
	return queue.Snapshot{
		PoliLabel:   LabelFor(Options(p, FieldPoli), poliValue),
		DoctorLabel: LabelFor(Options(p, FieldDoctor), doctorValue),
		Total:       parseTotal(textOf(byID(p, TotalID), "")),
		Current:     strings.TrimSpace(textOf(byID(p, CurrentID), "")),
		Upcoming:    Section(p, TitleUpcoming),
		Skipped:     queue.Labels(Section(p, TitleSkipped)),
		Finished:    queue.Labels(Section(p, TitleFinished)),
		FetchedAt:   fetchedAt,
	}
}

func byID(p *Page, id string) *goquery.Selection {
	return p.Doc.Find(`[id="` + id + `"]`).First()
}

func parseTotal(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// Section reads the entries listed under the h4/h5 heading titled title
// (case-insensitive). The entries live in the div that follows the heading's
// enclosing div, one h1 per line. A missing heading or container is an empty list.
func Section(p *Page, title string) []queue.Entry {
	heading := findHeading(p, title)
	if heading == nil {
		return []queue.Entry{}
	}
	container := heading.ParentsFiltered("div").First()
	if container.Length() == 0 {
		return []queue.Entry{}
	}
	values := container.NextAllFiltered("div").First()
	if values.Length() == 0 {
		return []queue.Entry{}
	}

	var lines []string
	values.Find("h1").Each(func(_ int, s *goquery.Selection) {
		lines = append(lines, textOf(s, " "))
	})
	return queue.ParseEntries(lines)
}

func findHeading(p *Page, title string) *goquery.Selection {
	want := strings.TrimSpace(title)
	var found *goquery.Selection
	p.Doc.Find("h4, h5").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(strings.Join(strings.Fields(textOf(s, " ")), " "), want) {
			found = s
			return false
		}
		return true
	})
	return found
}
