package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/iw2rmb/potluck"
	"github.com/iw2rmb/potluck/document"
	"golang.org/x/sync/errgroup"
)

// Result is the upload endpoint response body.
type Result struct {
	URL  string `json:"url"`
	Href string `json:"href"`
}

// HTTPUploader posts files as multipart forms to an upload endpoint that
// answers with a Result.
type HTTPUploader struct {
	Endpoint string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	// Field is the multipart field name; default "file".
	Field string
}

// Func returns the uploader as an upload Func.
func (u *HTTPUploader) Func() Func { return u.Upload }

// Upload sends f and merges the returned location into the attachment.
// Progress tracks bytes handed to the transport and reaches 100 only after
// the endpoint accepts the file.
func (u *HTTPUploader) Upload(ctx context.Context, f *document.File, cb Callbacks) error {
	if f.Open == nil {
		return fmt.Errorf("upload %s: file has no content", f.Name)
	}
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("upload %s: open: %w", f.Name, err)
	}
	defer src.Close()

	field := u.Field
	if field == "" {
		field = "file"
	}
	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.Endpoint, pr)
	if err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", potluck.UserAgent())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := writeForm(mw, field, f, &progressReader{r: src, total: f.Size, report: cb.SetProgress})
		pw.CloseWithError(err)
		if errors.Is(err, io.ErrClosedPipe) {
			// The response arrived first; its goroutine reports the outcome.
			return nil
		}
		return err
	})

	var res Result
	g.Go(func() error {
		resp, err := client.Do(req.WithContext(gctx))
		if err != nil {
			pr.CloseWithError(err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			pr.CloseWithError(io.ErrClosedPipe)
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("status %d: %s", resp.StatusCode, body)
		}
		if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("upload %s: %w", f.Name, err)
	}
	if res.URL == "" {
		return fmt.Errorf("upload %s: response has no url", f.Name)
	}
	if res.Href == "" {
		res.Href = res.URL
	}

	if cb.SetProgress != nil {
		cb.SetProgress(100)
	}
	if cb.SetAttributes != nil {
		cb.SetAttributes(map[string]string{
			document.AttachmentURL:  res.URL,
			document.AttachmentHref: res.Href,
		})
	}
	return nil
}

func writeForm(mw *multipart.Writer, field string, f *document.File, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.Name))
	if f.Type != "" {
		h.Set("Content-Type", f.Type)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}

// progressReader reports the percentage of total read so far, capped at 99.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.report != nil && p.total > 0 {
		p.read += int64(n)
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct != p.last {
			p.last = pct
			p.report(pct)
		}
	}
	return n, err
}
