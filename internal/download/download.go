package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/snabb/httpreaderat"
)

const (
	defaultUserAgent  = "bafb/1.0"
	defaultBufferSize = 1 << 20
)

// ErrStatus is returned for non-2xx responses.
var ErrStatus = errors.New("unexpected http status")

// Progress receives byte counts while a download runs. total is -1 when the
// server does not report a length. Start is called again, resetting the
// count, when a transfer falls back to a plain GET.
type Progress interface {
	Start(name string, total int64)
	Add(n int64)
	Finish(err error)
}

// Downloader fetches URLs into files. Transfers go through HTTP range requests
// when the server supports them and fall back to a single streaming GET.
type Downloader struct {
	Client     *http.Client
	UserAgent  string
	Progress   Progress
	Logger     *slog.Logger
	BufferSize int
	Headers    map[string]string
}

// New returns a downloader with default client settings.
func New(logger *slog.Logger, progress Progress) *Downloader {
	return &Downloader{
		Client:   &http.Client{},
		Progress: progress,
		Logger:   logger,
	}
}

// Download writes url to dest, always replacing any previous file. The body is
// staged in a temp file beside dest and renamed into place once complete.
func (d *Downloader) Download(ctx context.Context, url, dest string) (err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("prepare download destination: %w", err)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+"-*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	progress := d.progress()
	defer func() { progress.Finish(err) }()

	started := time.Now()
	written, err := d.fetchRanged(ctx, url, tmpFile, progress)
	if err != nil {
		d.logger().Debug("range download unavailable, streaming", "url", url, "error", err)
		if _, seekErr := tmpFile.Seek(0, io.SeekStart); seekErr != nil {
			tmpFile.Close()
			return fmt.Errorf("rewind temp file: %w", seekErr)
		}
		if truncErr := tmpFile.Truncate(0); truncErr != nil {
			tmpFile.Close()
			return fmt.Errorf("reset temp file: %w", truncErr)
		}
		written, err = d.fetchStream(ctx, url, tmpFile, progress)
		if err != nil {
			tmpFile.Close()
			return err
		}
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("finalize download: %w", err)
	}
	d.logger().Debug("download complete", "url", url, "bytes", written, "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func (d *Downloader) fetchRanged(ctx context.Context, url string, out io.Writer, progress Progress) (int64, error) {
	req, err := d.newRequest(ctx, url)
	if err != nil {
		return 0, err
	}

	// httpreaderat issues Range requests for every read; the buffered reader
	// turns the sequential copy below into 1 MiB chunks.
	ra, err := httpreaderat.New(d.client(), req, nil)
	if err != nil {
		return 0, fmt.Errorf("open range reader: %w", err)
	}
	size := ra.Size()
	progress.Start(filepath.Base(req.URL.Path), size)

	bufSize := d.BufferSize
	if bufSize <= 0 {
		bufSize = defaultBufferSize
	}
	section := io.NewSectionReader(bufra.NewBufReaderAt(ra, bufSize), 0, size)

	n, err := io.Copy(out, io.TeeReader(section, progressWriter{progress}))
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	return n, nil
}

func (d *Downloader) fetchStream(ctx context.Context, url string, out io.Writer, progress Progress) (int64, error) {
	req, err := d.newRequest(ctx, url)
	if err != nil {
		return 0, err
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("download %s: %w %s", url, ErrStatus, resp.Status)
	}
	progress.Start(filepath.Base(req.URL.Path), resp.ContentLength)

	n, err := io.Copy(out, io.TeeReader(resp.Body, progressWriter{progress}))
	if err != nil {
		return n, fmt.Errorf("download %s: %w", url, err)
	}
	return n, nil
}

// Fetch reads a small response body into memory, e.g. API metadata.
func (d *Downloader) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := d.newRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("get %s: %w %s", url, ErrStatus, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

func (d *Downloader) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	ua := d.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	for k, v := range d.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (d *Downloader) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

func (d *Downloader) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (d *Downloader) progress() Progress {
	if d.Progress != nil {
		return d.Progress
	}
	return nopProgress{}
}

type progressWriter struct {
	p Progress
}

func (w progressWriter) Write(b []byte) (int, error) {
	w.p.Add(int64(len(b)))
	return len(b), nil
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Add(int64)           {}
func (nopProgress) Finish(error)        {}
