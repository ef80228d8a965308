package remote

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Option is one selectable dropdown entry.
type Option struct {
	Value string
	Label string
}

// Options returns the non-empty options of <select id=selectID> in document order.
// A missing select yields no options.
func Options(p *Page, selectID string) []Option {
	var out []Option
	p.Doc.Find(`select[id="` + selectID + `"] option`).Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("value")
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		out = append(out, Option{Value: v, Label: strings.Join(strings.Fields(textOf(s, " ")), " ")})
	})
	return out
}

// LabelFor returns the label of value in opts, or value itself when absent.
func LabelFor(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}
