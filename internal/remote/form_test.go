package remote

import (
	"errors"
	"net/url"
	"strings"
	"testing"
)

const formHTML = `<form id="frm" method="post" action="Default.aspx#top">
<input type="hidden" name="__EVENTTARGET" value="" />
<input type="hidden" name="__VIEWSTATE" value="abc+/=" />
<input type="text" name="txtCari" value="x" />
<input type="checkbox" name="chkOn" checked />
<input type="checkbox" name="chkOff" value="1" />
<input type="submit" name="btnCari" value="Cari" />
<input type="hidden" value="anonymous" />
<select name="ddUNIT"><option value="">-</option><option value="U01" selected>A</option></select>
<select name="ddDaftarDokter"><option value="">-</option></select>
</form>`

func TestParseFormSuccessfulControls(t *testing.T) {
	t.Parallel()
	u, _ := url.Parse("https://antrian.example.test/app/")
	p, err := ParsePage(u, []byte(formHTML))
	if err != nil {
		t.Fatal(err)
	}
	st, err := ParseForm(p)
	if err != nil {
		t.Fatalf("ParseForm: %v", err)
	}
	want := []string{"__EVENTTARGET", "__VIEWSTATE", "txtCari", "chkOn", "ddUNIT", "ddDaftarDokter"}
	if got := st.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	if v, _ := st.Get("chkOn"); v != "on" {
		t.Fatalf("chkOn = %q", v)
	}
	if v, _ := st.Get("ddUNIT"); v != "U01" {
		t.Fatalf("ddUNIT = %q", v)
	}
	if st.Action.String() != "https://antrian.example.test/app/Default.aspx" {
		t.Fatalf("Action = %s", st.Action)
	}
}

func TestFormStateApplyIsPure(t *testing.T) {
	t.Parallel()
	p := mustPage(t, formHTML)
	st, err := ParseForm(p)
	if err != nil {
		t.Fatal(err)
	}
	next := st.Apply(FieldUpdate{EventTarget: FieldPoli, Fields: map[string]string{FieldPoli: "U02", FieldDoctor: "", "extra": "1"}})

	if v, _ := st.Get(FieldPoli); v != "U01" {
		t.Fatalf("receiver mutated: ddUNIT = %q", v)
	}
	if v, _ := st.Get(FieldEventTarget); v != "" {
		t.Fatalf("receiver mutated: __EVENTTARGET = %q", v)
	}
	if _, ok := st.Get("extra"); ok {
		t.Fatal("receiver gained a field")
	}
	if v, _ := next.Get(FieldEventTarget); v != FieldPoli {
		t.Fatalf("__EVENTTARGET = %q", v)
	}
	if v, _ := next.Get("__VIEWSTATE"); v != "abc+/=" {
		t.Fatalf("hidden field not echoed: %q", v)
	}

	body, err := url.ParseQuery(next.Encode())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if body.Get("__VIEWSTATE") != "abc+/=" || body.Get(FieldPoli) != "U02" || body.Get("extra") != "1" {
		t.Fatalf("encoded body = %v", body)
	}
	if !strings.HasPrefix(next.Encode(), "__EVENTTARGET=ddUNIT&__VIEWSTATE=") {
		t.Fatalf("form order not kept: %s", next.Encode())
	}
}

func TestParseFormMissing(t *testing.T) {
	t.Parallel()
	p := mustPage(t, `<form id="other"></form>`)
	_, err := ParseForm(p)
	if !errors.Is(err, ErrFormNotFound) || !errors.Is(err, ErrRemoteFormat) {
		t.Fatalf("err = %v, want form-not-found remote format error", err)
	}
	var rf *RemoteFormatError
	if !errors.As(err, &rf) || rf.What != "form#frm" {
		t.Fatalf("err = %#v", err)
	}
}
