package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
)

// ProgressFunc receives upload progress as a whole percentage, 0 to 100
type ProgressFunc func(percent int)

// File is one file part of a multipart upload
type File struct {
	Field    string
	Name     string
	Content  io.Reader
	MimeType string
}

// Upload POSTs a multipart form with one file part and optional text fields,
// reporting progress as the request body is consumed
func (c *Client) Upload(ctx context.Context, path string, file File, fields map[string]string, progress ProgressFunc, result any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to write form field: %w", err)
		}
	}

	field := file.Field
	if field == "" {
		field = "file"
	}
	part, err := createFilePart(mw, field, file)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish form: %w", err)
	}

	total := int64(buf.Len())
	body := &progressReader{r: &buf, total: total, report: progress, last: -1}

	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body.emit(0)
	if err := c.send(req, result); err != nil {
		return err
	}
	body.emit(100)
	return nil
}

// createFilePart is multipart.Writer.CreateFormFile with the file's own content type
func createFilePart(mw *multipart.Writer, field string, file File) (io.Writer, error) {
	if file.MimeType == "" {
		return mw.CreateFormFile(field, file.Name)
	}
	escape := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escape.Replace(field), escape.Replace(file.Name)))
	h.Set("Content-Type", file.MimeType)
	return mw.CreatePart(h)
}

// progressReader reports each new whole percentage once. The transport reads
// the body on its own goroutine, which can still be running when the caller
// emits the final 100, so emit is serialized.
type progressReader struct {
	r      io.Reader
	read   int64
	total  int64
	report ProgressFunc

	mu   sync.Mutex
	last int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		// Hold 100 back until the server has answered
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		p.emit(pct)
	}
	return n, err
}

func (p *progressReader) emit(pct int) {
	if p.report == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if pct <= p.last {
		return
	}
	p.last = pct
	p.report(pct)
}
