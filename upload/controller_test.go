package upload

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func mount(t *testing.T, cfg Config) (*engine.Editor, *Controller) {
	t.Helper()
	el := engine.NewElement()
	ed := el.Connect()
	c := New(cfg)
	c.Attach(el)
	t.Cleanup(func() {
		c.Detach()
		c.Wait()
	})
	return ed, c
}

func TestController_RejectsBeforeEmbedding(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var rejected error
	ed, _ := mount(t, Config{
		Policy:   Policy{MaxFileSize: 1000},
		Logger:   zap.New(core),
		OnReject: func(_ *document.File, err error) { rejected = err },
		Upload:   func(context.Context, *document.File, Callbacks) error { return nil },
	})

	if ed.InsertFile(&document.File{Name: "huge.png", Type: "image/png", Size: 1001}) {
		t.Fatalf("expected rejection")
	}
	if got := len(ed.Attachments()); got != 0 {
		t.Fatalf("attachments=%d, want 0", got)
	}
	if !errors.Is(rejected, ErrFileTooLarge) {
		t.Fatalf("OnReject err=%v, want ErrFileTooLarge", rejected)
	}

	entries := logs.FilterMessage("attachment rejected").All()
	if len(entries) != 1 {
		t.Fatalf("warnings=%d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["file"]; got != "huge.png" {
		t.Fatalf("logged file=%v, want huge.png", got)
	}
}

func TestController_UploadResolvesAttachment(t *testing.T) {
	var progress []int
	var mu sync.Mutex
	ed, c := mount(t, Config{
		Policy: Policy{MaxFileSize: 1000, AllowedTypes: []string{"image/*"}},
		Upload: func(_ context.Context, f *document.File, cb Callbacks) error {
			for _, p := range []int{30, 100} {
				cb.SetProgress(p)
				mu.Lock()
				progress = append(progress, p)
				mu.Unlock()
			}
			cb.SetAttributes(map[string]string{"url": "/x", "href": "/x"})
			return nil
		},
	})

	if !ed.InsertFile(&document.File{Name: "pie.png", Type: "image/png", Size: 999}) {
		t.Fatalf("expected acceptance")
	}
	c.Wait()

	att := ed.Attachments()[0]
	if st, ok := c.State(att); !ok || st != Resolved {
		t.Fatalf("state=%v ok=%v, want resolved", st, ok)
	}
	if got := att.UploadProgress(); got != 100 {
		t.Fatalf("progress=%d, want 100", got)
	}
	if html := ed.HTML(); !strings.Contains(html, `src="/x"`) {
		t.Fatalf("html=%q, want resolved url", html)
	}
}

func TestController_SkipsAttachmentsWithoutFile(t *testing.T) {
	calls := 0
	ed, c := mount(t, Config{
		Upload: func(context.Context, *document.File, Callbacks) error {
			calls++
			return nil
		},
	})

	att := document.NewAttachment(map[string]string{document.AttachmentURL: "/stored.png", document.AttachmentContentType: "image/png"})
	ed.InsertAttachment(att)
	c.Wait()

	if calls != 0 {
		t.Fatalf("upload calls=%d, want 0", calls)
	}
	if _, ok := c.State(att); ok {
		t.Fatalf("stored attachment should not be tracked")
	}
}

func TestController_FailureLeavesProgress(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	ed, c := mount(t, Config{
		Logger: zap.New(core),
		Upload: func(_ context.Context, _ *document.File, cb Callbacks) error {
			cb.SetProgress(40)
			return errors.New("503 from storage")
		},
	})

	ed.InsertFile(&document.File{Name: "pie.png", Type: "image/png", Size: 10})
	c.Wait()

	att := ed.Attachments()[0]
	if st, _ := c.State(att); st != Failed {
		t.Fatalf("state=%v, want failed", st)
	}
	if got := att.UploadProgress(); got != 40 {
		t.Fatalf("progress=%d, want 40", got)
	}
	if att.IsResolved() {
		t.Fatalf("failed attachment should not be resolved")
	}
	if got := logs.FilterMessage("upload failed").Len(); got != 1 {
		t.Fatalf("error logs=%d, want 1", got)
	}
}

func TestController_PanicIsContained(t *testing.T) {
	ed, c := mount(t, Config{
		Upload: func(context.Context, *document.File, Callbacks) error { panic("nil storage") },
	})

	ed.InsertFile(&document.File{Name: "pie.png", Size: 10})
	c.Wait()

	if st, _ := c.State(ed.Attachments()[0]); st != Failed {
		t.Fatalf("state=%v, want failed", st)
	}
}

func TestController_RemovalCancelsUpload(t *testing.T) {
	started := make(chan Callbacks, 1)
	var mu sync.Mutex
	var states []State
	ed, c := mount(t, Config{
		Upload: func(ctx context.Context, _ *document.File, cb Callbacks) error {
			started <- cb
			<-ctx.Done()
			return ctx.Err()
		},
		OnStateChange: func(_ *document.Attachment, s State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})

	ed.InsertFile(&document.File{Name: "pie.png", Type: "image/png", Size: 10})
	att := ed.Attachments()[0]
	cb := <-started

	ed.DeleteInDirection(engine.Backward)
	c.Wait()

	mu.Lock()
	last := states[len(states)-1]
	mu.Unlock()
	if last != Canceled {
		t.Fatalf("last state=%v, want canceled", last)
	}
	if _, ok := c.State(att); ok {
		t.Fatalf("removed attachment should not be tracked")
	}
	cb.SetAttributes(map[string]string{"url": "/late"})
	if att.URL() != "" {
		t.Fatalf("callbacks should be inert after removal")
	}
}

func TestController_UndoRestoresAndUploadsAgain(t *testing.T) {
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	calls := 0
	ed, c := mount(t, Config{
		Upload: func(ctx context.Context, _ *document.File, cb Callbacks) error {
			mu.Lock()
			calls++
			n := calls
			mu.Unlock()
			if n == 1 {
				started <- struct{}{}
				<-ctx.Done()
				return ctx.Err()
			}
			cb.SetProgress(100)
			cb.SetAttributes(map[string]string{"url": "/pie.png", "href": "/pie.png"})
			return nil
		},
	})

	ed.InsertFile(&document.File{Name: "pie.png", Type: "image/png", Size: 10})
	att := ed.Attachments()[0]
	<-started

	ed.DeleteInDirection(engine.Backward)
	ed.Undo()
	c.Wait()

	if got := len(ed.Attachments()); got != 1 {
		t.Fatalf("attachments after undo=%d, want 1", got)
	}
	if ed.Attachments()[0] != att {
		t.Fatalf("undo should restore the same attachment")
	}
	if st, _ := c.State(att); st != Resolved {
		t.Fatalf("state=%v, want resolved", st)
	}
	if html := ed.HTML(); !strings.Contains(html, `src="/pie.png"`) {
		t.Fatalf("html=%q, want resolved url", html)
	}

	// Removal forgets the job; a resolved attachment that comes back is not
	// uploaded again.
	ed.DeleteInDirection(engine.Backward)
	if _, ok := c.State(att); ok {
		t.Fatalf("removed attachment should not be tracked")
	}
	ed.Undo()
	c.Wait()
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("upload calls=%d, want 2", calls)
	}
}

func TestController_ConcurrentUploadsIsolated(t *testing.T) {
	seqs := map[string][]int{
		"a.png": {10, 50, 100},
		"b.png": {20, 90},
	}
	release := make(chan struct{})
	var mu sync.Mutex
	seen := map[*document.Attachment][]int{}

	ed, c := mount(t, Config{
		Upload: func(_ context.Context, f *document.File, cb Callbacks) error {
			<-release
			for _, p := range seqs[f.Name] {
				cb.SetProgress(p)
			}
			cb.SetAttributes(map[string]string{"url": "/" + f.Name, "href": "/" + f.Name})
			return nil
		},
		OnStateChange: func(a *document.Attachment, s State) {
			if a == nil || s != Resolved {
				return
			}
			mu.Lock()
			seen[a] = append(seen[a], a.UploadProgress())
			mu.Unlock()
		},
	})

	ed.InsertFile(&document.File{Name: "a.png", Type: "image/png", Size: 1})
	ed.InsertFile(&document.File{Name: "b.png", Type: "image/png", Size: 1})
	close(release)
	c.Wait()

	atts := ed.Attachments()
	if len(atts) != 2 {
		t.Fatalf("attachments=%d, want 2", len(atts))
	}
	for _, att := range atts {
		name := att.File().Name
		if got, want := att.URL(), "/"+name; got != want {
			t.Fatalf("%s url=%q, want %q", name, got, want)
		}
		if got, want := att.Attribute(document.AttachmentHref), "/"+name; got != want {
			t.Fatalf("%s href=%q, want %q", name, got, want)
		}
		seq := seqs[name]
		if got, want := att.UploadProgress(), seq[len(seq)-1]; got != want {
			t.Fatalf("%s progress=%d, want %d", name, got, want)
		}
		if st, _ := c.State(att); st != Resolved {
			t.Fatalf("%s state=%v, want resolved", name, st)
		}
	}
	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("resolved notifications=%d, want 2", len(seen))
	}
}

func TestState_String(t *testing.T) {
	if got, want := Uploading.String(), "uploading"; got != want {
		t.Fatalf("string=%q, want %q", got, want)
	}
}
