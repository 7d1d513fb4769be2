package sanitize

import (
	"strings"
	"sync"
	"testing"

	"github.com/iw2rmb/potluck/document"
)

var corpus = []string{
	"",
	"plain text",
	"<div>Two cups <strong>flour</strong></div>",
	`<div><a href="https://example.com/pie">pie</a> &amp; tart</div>`,
	"<script>alert(1)</script><div>ok</div>",
	`<img src="/x.png" onerror="alert(1)">`,
	`<a href="javascript:alert(1)">click</a>`,
	`<div onclick="steal()" style="color:red">styled</div>`,
	"<ul><li>a<ul><li>b</li></ul></li></ul>",
	"<figure><figcaption>caption</figcaption></figure>",
	`<div contenteditable="false">locked</div>`,
	"<div><b>unclosed <i>tags</div>",
	"<<<>>>&&&",
	`<iframe src="https://evil.example"></iframe><object data="x"></object>`,
	`<figure data-trix-attachment='{"url":"javascript:alert(1)"}'>x</figure>`,
}

func TestSanitize_Idempotent(t *testing.T) {
	for _, h := range corpus {
		once := Sanitize(h)
		if twice := Sanitize(once); twice != once {
			t.Fatalf("Sanitize(%q) not idempotent:\n once: %q\ntwice: %q", h, once, twice)
		}
	}
}

func TestSanitize_StripsActiveContent(t *testing.T) {
	cases := []string{
		"<script>alert(1)</script><div>ok</div>",
		`<img src="/x.png" onerror="alert(1)">`,
		`<a href="javascript:alert(1)">click</a>`,
		`<div onmouseover="alert(1)">hover</div>`,
		`<SCRIPT SRC="//evil.example/x.js"></SCRIPT>`,
		`<a href="JaVaScRiPt:alert(1)">mixed case</a>`,
		`<figure data-trix-attachment='{"url":"javascript:alert(1)"}'>x</figure>`,
		`<figure data-trix-attachment='{"href":" vbscript:msgbox(1)","url":"/a.png"}'>x</figure>`,
		`<figure data-trix-attachment='{"url":"javascript\u003aalert(1)"}'>x</figure>`,
		`<figure data-trix-attachment='{"url":"data:text/html,&lt;b&gt;"}'>x</figure>`,
	}
	for _, h := range cases {
		got := strings.ToLower(Sanitize(h))
		for _, bad := range []string{"<script", "onerror", "onmouseover", "javascript", "vbscript", "data:text/html"} {
			if strings.Contains(got, bad) {
				t.Fatalf("Sanitize(%q)=%q contains %q", h, got, bad)
			}
		}
	}
}

func TestSanitize_KeepsFigureStructure(t *testing.T) {
	in := "<figure><figcaption>caption</figcaption></figure>"
	if got := Sanitize(in); got != in {
		t.Fatalf("figure: got %q, want %q", got, in)
	}

	in = `<div contenteditable="false">locked</div>`
	if got := Sanitize(in); got != in {
		t.Fatalf("contenteditable: got %q, want %q", got, in)
	}
}

func TestSanitize_AttachmentMarkupStillParses(t *testing.T) {
	d := document.New(document.Options{})
	d.InsertText("Crust ")
	d.InsertAttachment(document.NewAttachment(map[string]string{
		document.AttachmentURL:         "/blobs/crust.png",
		document.AttachmentContentType: "image/png",
		document.AttachmentFilename:    "crust.png",
	}))

	clean := Sanitize(d.HTML())
	for _, want := range []string{`data-trix-content-type="image/png"`, `contenteditable="false"`, "<figcaption>crust.png</figcaption>"} {
		if !strings.Contains(clean, want) {
			t.Fatalf("sanitized=%q, want substring %q", clean, want)
		}
	}

	back, err := document.ParseHTML(clean, document.Options{})
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	atts := back.Attachments()
	if len(atts) != 1 {
		t.Fatalf("attachments=%d, want 1", len(atts))
	}
	if got := atts[0].URL(); got != "/blobs/crust.png" {
		t.Fatalf("url=%q, want %q", got, "/blobs/crust.png")
	}
}

func TestHTML_MatchesSanitize(t *testing.T) {
	in := "<div><em>x</em><script>y</script></div>"
	if got := string(HTML(in)); got != Sanitize(in) {
		t.Fatalf("HTML=%q, want %q", got, Sanitize(in))
	}
}

func TestSanitize_UnsafeAttachmentDropsOnlyItsJSON(t *testing.T) {
	in := `<figure data-trix-attachment="{&quot;url&quot;:&quot;javascript:alert(1)&quot;}" data-trix-content-type="image/png">x</figure>`
	want := `<figure data-trix-content-type="image/png">x</figure>`
	if got := Sanitize(in); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	back, err := document.ParseHTML(Sanitize(in), document.Options{})
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	for _, a := range back.Attachments() {
		if a.URL() != "" {
			t.Fatalf("url=%q, want none", a.URL())
		}
	}
}

func TestSafeURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"/blobs/a.png", true},
		{"pie.png", true},
		{"https://example.com/a.png", true},
		{"HTTP://example.com", true},
		{"mailto:cook@example.com", true},
		{"javascript:alert(1)", false},
		{"JavaScript:alert(1)", false},
		{"java\tscript:alert(1)", false},
		{" javascript:alert(1)", false},
		{"vbscript:msgbox(1)", false},
		{"data:text/html,<b>", false},
	}
	for _, c := range cases {
		if got := SafeURL(c.in); got != c.want {
			t.Fatalf("SafeURL(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestSanitize_SharedPolicyConcurrentUse(t *testing.T) {
	if policy() != policy() {
		t.Fatalf("policy should be built once")
	}
	in := `<div onclick="x()"><strong>pie</strong></div>`
	want := Sanitize(in)

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Sanitize(in); got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)
	for got := range errs {
		t.Fatalf("concurrent Sanitize=%q, want %q", got, want)
	}
}
