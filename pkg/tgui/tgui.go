package tgui

import (
	tele "gopkg.in/telebot.v4"
)

// Inline is a small builder for inline keyboards.
type Inline struct {
	rm   *tele.ReplyMarkup
	rows []tele.Row
}

func NewInline() *Inline {
	return &Inline{rm: &tele.ReplyMarkup{}}
}

// Row appends a row of buttons. Empty rows are ignored.
func (i *Inline) Row(btn ...tele.Btn) *Inline {
	if len(btn) == 0 {
		return i
	}
	i.rows = append(i.rows, i.rm.Row(btn...))
	i.rm.Inline(i.rows...)
	return i
}

// Len is the number of rows added so far.
func (i *Inline) Len() int { return len(i.rows) }

// Markup returns the underlying reply markup.
func (i *Inline) Markup() *tele.ReplyMarkup { return i.rm }

// Btn creates a callback button with raw callback_data.
func Btn(text, data string) tele.Btn {
	return tele.Btn{Text: text, Data: data}
}

// Column builds a keyboard with one button per row.
func Column(buttons []tele.Btn) *Inline {
	kb := NewInline()
	for _, b := range buttons {
		kb.Row(b)
	}
	return kb
}
