// Package upload sends files to the backend's multipart upload endpoint.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"client_go/internal/domain"
)

// DefaultMaxBytes is the largest file the backend accepts.
const DefaultMaxBytes = 10 << 20

var acceptedExact = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"text/plain": true,
}

var acceptedExt = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// Accepted reports whether a MIME type may be uploaded.
func Accepted(mimeType string) bool {
	mt, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	switch {
	case strings.HasPrefix(mt, "image/"), strings.HasPrefix(mt, "video/"), strings.HasPrefix(mt, "audio/"):
		return true
	}
	return acceptedExact[mt]
}

// DetectType picks the MIME type from the extension, falling back to sniffing.
func DetectType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := acceptedExt[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return http.DetectContentType(head)
}

type Options struct {
	URL        string
	MaxBytes   int64
	HTTPClient *http.Client
}

// Client implements domain.Uploader.
type Client struct {
	url      string
	maxBytes int64
	http     *http.Client
}

func New(opts Options) *Client {
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{url: opts.URL, maxBytes: opts.MaxBytes, http: opts.HTTPClient}
}

// Upload validates path and posts it as the "file" field. Relative URLs in
// the response are resolved against the upload endpoint.
func (c *Client) Upload(ctx context.Context, path string) (domain.FileRef, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.FileRef{}, err
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return domain.FileRef{}, err
	}
	if st.Size() > c.maxBytes {
		return domain.FileRef{}, fmt.Errorf("%w: %s is %d bytes", domain.ErrFileTooLarge, st.Name(), st.Size())
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	mimeType := DetectType(st.Name(), head[:n])
	if !Accepted(mimeType) {
		return domain.FileRef{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, mimeType)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return domain.FileRef{}, err
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, st.Name()))
		h.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, f)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, pr)
	if err != nil {
		pr.Close()
		return domain.FileRef{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return domain.FileRef{}, domain.ErrFileTooLarge
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.FileRef{}, fmt.Errorf("%w: %s: %s", domain.ErrUploadFailed, resp.Status, strings.TrimSpace(string(body)))
	}

	var ref domain.FileRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return domain.FileRef{}, fmt.Errorf("%w: decode response: %v", domain.ErrUploadFailed, err)
	}
	if ref.OriginalName == "" {
		ref.OriginalName = st.Name()
	}
	if ref.MimeType == "" {
		ref.MimeType = mimeType
	}
	ref.URL = c.resolve(ref.URL)
	return ref, nil
}

func (c *Client) resolve(ref string) string {
	base, err := url.Parse(c.url)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
