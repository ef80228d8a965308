package remote

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Page is one rendered response of the site.
type Page struct {
	URL *url.URL
	Doc *goquery.Document

	sess *session
}

// ParsePage parses an HTML document fetched from u.
func ParsePage(u *url.URL, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc.Url = u
	return &Page{URL: u, Doc: doc}, nil
}

// textOf joins the trimmed, non-empty text nodes under sel with sep.
func textOf(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}
