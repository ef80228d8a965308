package remote

import (
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	FormID           = "frm"
	FieldEventTarget = "__EVENTTARGET"
	FieldPoli        = "ddUNIT"
	FieldDoctor      = "ddDaftarDokter"
)

// FormState is the full set of field values the next postback must carry.
// It is a value: Apply returns a new state and never modifies the receiver.
type FormState struct {
	Action *url.URL

	names  []string
	values map[string]string
}

// FieldUpdate overrides fields for one postback. EventTarget names the control
// that triggered it and is written to __EVENTTARGET.
type FieldUpdate struct {
	EventTarget string
	Fields      map[string]string
}

// ParseForm reads every successful control of form#frm: named inputs (except
// buttons and unchecked checkboxes/radios), and the selected option of each select.
func ParseForm(p *Page) (FormState, error) {
	form := p.Doc.Find(`form[id="` + FormID + `"]`).First()
	if form.Length() == 0 {
		return FormState{}, &RemoteFormatError{What: "form#" + FormID, Err: ErrFormNotFound}
	}

	st := FormState{Action: resolveAction(p.URL, form), values: map[string]string{}}
	form.Find("input, select").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		if name == "" {
			return
		}
		if goquery.NodeName(s) == "select" {
			st.set(name, selectedValue(s))
			return
		}
		typ := strings.ToLower(strings.TrimSpace(s.AttrOr("type", "text")))
		switch typ {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := s.Attr("checked"); !checked {
				return
			}
			st.set(name, s.AttrOr("value", "on"))
			return
		}
		st.set(name, s.AttrOr("value", ""))
	})
	return st, nil
}

func resolveAction(base *url.URL, form *goquery.Selection) *url.URL {
	action := strings.TrimSpace(form.AttrOr("action", ""))
	if base == nil {
		u, _ := url.Parse(action)
		return u
	}
	if action == "" {
		cp := *base
		cp.Fragment = ""
		return &cp
	}
	ref, err := url.Parse(action)
	if err != nil {
		cp := *base
		return &cp
	}
	u := base.ResolveReference(ref)
	u.Fragment = ""
	return u
}

func selectedValue(s *goquery.Selection) string {
	opt := s.Find("option[selected]").First()
	if opt.Length() == 0 {
		opt = s.Find("option").First()
	}
	if opt.Length() == 0 {
		return ""
	}
	if v, ok := opt.Attr("value"); ok {
		return v
	}
	return textOf(opt, " ")
}

func (s *FormState) set(name, value string) {
	if s.values == nil {
		s.values = map[string]string{}
	}
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = value
}

// Apply returns a copy of s with u overlaid.
func (s FormState) Apply(u FieldUpdate) FormState {
	next := FormState{
		Action: s.Action,
		names:  append([]string(nil), s.names...),
		values: make(map[string]string, len(s.values)+len(u.Fields)+1),
	}
	for k, v := range s.values {
		next.values[k] = v
	}
	if u.EventTarget != "" {
		next.set(FieldEventTarget, u.EventTarget)
	}
	// Overrides keep a stable order for a given update.
	for _, k := range sortedKeys(u.Fields) {
		next.set(k, u.Fields[k])
	}
	return next
}

// Get returns a field value.
func (s FormState) Get(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Names returns field names in form order; overridden fields that were not in
// the form are appended.
func (s FormState) Names() []string { return append([]string(nil), s.names...) }

// Encode renders the state as an application/x-www-form-urlencoded body,
// fields in form order.
func (s FormState) Encode() string {
	var b strings.Builder
	for i, name := range s.names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(s.values[name]))
	}
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
