// Package upload vets files offered to an editor and uploads accepted
// attachments in the background.
package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/iw2rmb/potluck/document"
	"github.com/iw2rmb/potluck/engine"
	"github.com/iw2rmb/potluck/events"
	"go.uber.org/zap"
)

// State is the lifecycle position of one attachment upload.
type State int

const (
	Proposed State = iota
	Rejected
	Accepted
	Uploading
	Resolved
	Failed
	Canceled
)

func (s State) String() string {
	switch s {
	case Proposed:
		return "proposed"
	case Rejected:
		return "rejected"
	case Accepted:
		return "accepted"
	case Uploading:
		return "uploading"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Callbacks are scoped to one attachment. After the attachment leaves the
// document they do nothing.
type Callbacks struct {
	SetProgress   func(percent int)
	SetAttributes func(attrs map[string]string)
}

// Func stores f and reports progress and the resolved location through cb,
// typically SetAttributes({"url": ..., "href": ...}). ctx is canceled when
// the attachment is removed or the controller detaches.
type Func func(ctx context.Context, f *document.File, cb Callbacks) error

type Config struct {
	Policy Policy
	Upload Func

	// Logger defaults to a no-op logger.
	Logger *zap.Logger

	// OnReject is called after a file is refused.
	OnReject func(f *document.File, err error)

	// OnStateChange observes upload state transitions. a is nil for
	// Rejected, since a refused file never becomes an attachment.
	OnStateChange func(a *document.Attachment, s State)
}

type job struct {
	state  State
	cancel context.CancelFunc
}

// Controller applies a Policy on file-accept and runs uploads for attachments
// that carry a raw file.
type Controller struct {
	cfg    Config
	logger *zap.Logger
	sub    *events.Subscriber

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	jobs   map[*document.Attachment]*job

	wg sync.WaitGroup
}

func New(cfg Config) *Controller {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	c := &Controller{
		cfg:    cfg,
		logger: l,
		jobs:   map[*document.Attachment]*job{},
	}
	c.sub = events.NewSubscriber(events.Handlers{
		engine.EventFileAccept:       c.onFileAccept,
		engine.EventAttachmentAdd:    c.onAttachmentAdd,
		engine.EventAttachmentRemove: c.onAttachmentRemove,
	})
	return c
}

// Attach starts handling events from el.
func (c *Controller) Attach(el *engine.Element) {
	c.mu.Lock()
	if c.ctx == nil {
		c.ctx, c.cancel = context.WithCancel(context.Background())
	}
	c.mu.Unlock()
	c.sub.Attach(el)
}

// Detach stops handling events and cancels uploads in flight.
func (c *Controller) Detach() {
	c.sub.Detach()
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = nil, nil
	c.mu.Unlock()
}

// Wait blocks until every started upload has returned.
func (c *Controller) Wait() { c.wg.Wait() }

// State returns the upload state of a while it is in the document.
func (c *Controller) State(a *document.Attachment) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	j, ok := c.jobs[a]
	if !ok {
		return Proposed, false
	}
	return j.state, true
}

func (c *Controller) onFileAccept(ev *engine.Event) {
	err := c.cfg.Policy.Check(ev.File)
	if err == nil {
		return
	}
	ev.PreventDefault()

	name := ""
	if ev.File != nil {
		name = ev.File.Name
	}
	c.logger.Warn("attachment rejected", zap.String("file", name), zap.Error(err))
	if c.cfg.OnReject != nil {
		c.cfg.OnReject(ev.File, err)
	}
	c.notify(nil, Rejected)
}

func (c *Controller) onAttachmentAdd(ev *engine.Event) {
	a := ev.Attachment
	if a == nil || a.File() == nil || a.IsResolved() || c.cfg.Upload == nil {
		return
	}

	c.mu.Lock()
	if _, seen := c.jobs[a]; seen || c.ctx == nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	j := &job{state: Accepted, cancel: cancel}
	c.jobs[a] = j
	c.mu.Unlock()
	c.notify(a, Accepted)

	c.wg.Add(1)
	go c.run(ctx, a, j)
}

// onAttachmentRemove cancels the upload and forgets the attachment. Undo can
// put the same attachment back; it then starts a fresh upload unless it was
// already resolved.
func (c *Controller) onAttachmentRemove(ev *engine.Event) {
	a := ev.Attachment
	c.mu.Lock()
	j, ok := c.jobs[a]
	if ok {
		j.cancel()
		delete(c.jobs, a)
	}
	c.mu.Unlock()
}

func (c *Controller) run(ctx context.Context, a *document.Attachment, j *job) {
	defer c.wg.Done()
	defer j.cancel()

	f := a.File()
	log := c.logger.With(zap.String("file", f.Name), zap.Uint64("attachment", a.ID()))

	c.setState(a, j, Uploading)
	err := c.call(ctx, f, Callbacks{
		SetProgress: func(n int) {
			if ctx.Err() != nil {
				return
			}
			a.SetUploadProgress(n)
		},
		SetAttributes: func(attrs map[string]string) {
			if ctx.Err() != nil {
				return
			}
			a.SetAttributes(attrs)
		},
	})

	switch {
	case ctx.Err() != nil:
		log.Info("upload canceled")
		c.setState(a, j, Canceled)
	case err != nil:
		log.Error("upload failed", zap.Int("progress", a.UploadProgress()), zap.Error(err))
		c.setState(a, j, Failed)
	default:
		c.setState(a, j, Resolved)
	}
}

// call runs the upload function, turning a panic into an error.
func (c *Controller) call(ctx context.Context, f *document.File, cb Callbacks) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("upload panicked: %v", r)
		}
	}()
	return c.cfg.Upload(ctx, f, cb)
}

func (c *Controller) setState(a *document.Attachment, j *job, s State) {
	c.mu.Lock()
	j.state = s
	c.mu.Unlock()
	c.notify(a, s)
}

func (c *Controller) notify(a *document.Attachment, s State) {
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(a, s)
	}
}
