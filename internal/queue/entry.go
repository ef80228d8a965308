package queue

import (
	"strconv"
	"strings"
)

// CheckInMarker flags an entry whose holder has not checked in at the counter yet.
const CheckInMarker = "*"

// LabelSeparator separates the ticket prefix from its number ("A-028").
const LabelSeparator = "-"

// Entry is one ticket in a queue section.
type Entry struct {
	Label string
	// Number is parsed from the digits after the last LabelSeparator.
	Number int
	// CheckedIn is true when the rendered line carries no CheckInMarker.
	CheckedIn bool
}

// ParseEntry parses a rendered queue line such as "A-015*".
// ok is false for empty lines and lines whose suffix is not an integer;
// callers drop those rows.
func ParseEntry(text string) (Entry, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, false
	}
	label := strings.TrimSpace(strings.ReplaceAll(text, CheckInMarker, ""))
	suffix := label
	if i := strings.LastIndex(label, LabelSeparator); i >= 0 {
		suffix = label[i+len(LabelSeparator):]
	}
	n, err := strconv.Atoi(strings.TrimSpace(suffix))
	if err != nil {
		return Entry{}, false
	}
	return Entry{
		Label:     label,
		Number:    n,
		CheckedIn: !strings.Contains(text, CheckInMarker),
	}, true
}

// ParseEntries parses lines in order, silently skipping malformed ones.
func ParseEntries(lines []string) []Entry {
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if e, ok := ParseEntry(line); ok {
			out = append(out, e)
		}
	}
	return out
}

// Labels returns the labels of entries, preserving order.
func Labels(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Label)
	}
	return out
}
