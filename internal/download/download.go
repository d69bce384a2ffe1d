// Package download streams remote elevation tiles to the local cache and
// classifies HTTP failures so the caller can decide whether to memoize
// absence.
package download

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasttemplate"

	"github.com/ashgrove-labs/terrarium/internal/errs"
	"github.com/ashgrove-labs/terrarium/internal/signature"
)

const userAgent = "terrarium/1.0 (+elevation-tile-client)"

// urlTemplate renders a signature's remote URL relative to the configured
// server root.
const urlTemplate = "{server}/{path}"

// maxRedirects bounds redirect-following; anything deeper is handed back
// as the last response's status.
const maxRedirects = 5

// copyBufSize is the chunk size for streamed body writes.
const copyBufSize = 32 * 1024

// Downloader streams tiles from serverURL into local files.
type Downloader struct {
	client     *http.Client
	serverURL  string
	extension  string
	connectTO  time.Duration
	inactiveTO time.Duration
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithTimeouts overrides the default 30s connect / 60s inactivity
// durations. The client applies their sum as one overall timeout per
// request; there is no separate connect or inactivity deadline.
func WithTimeouts(connect, inactivity time.Duration) Option {
	return func(d *Downloader) {
		d.connectTO = connect
		d.inactiveTO = inactivity
	}
}

// New constructs a Downloader pointed at serverURL, downloading files with
// the given extension.
func New(serverURL, extension string, opts ...Option) *Downloader {
	d := &Downloader{
		serverURL:  serverURL,
		extension:  extension,
		connectTO:  30 * time.Second,
		inactiveTO: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}
	d.client = &http.Client{
		Transport: transport,
		Timeout:   d.connectTO + d.inactiveTO,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}
	return d
}

// URLFor renders the remote URL for sig.
func (d *Downloader) URLFor(sig signature.Signature) string {
	t := fasttemplate.New(urlTemplate, "{", "}")
	return t.ExecuteString(map[string]interface{}{
		"server": d.serverURL,
		"path":   sig.URL(signature.DefaultPathTemplate, d.extension),
	})
}

// Download streams the remote tile for sig into localPath, creating parent
// directories as needed. Writes go to "localPath.part" followed by an
// atomic rename, so a concurrent reader never observes a half-written
// file. 404 and 410 map to KindTileAbsentUpstream; other non-2xx statuses
// and transport failures map to KindNetworkError.
func (d *Downloader) Download(ctx context.Context, sig signature.Signature, localPath string) error {
	remoteURL := d.URLFor(sig)

	if _, err := url.Parse(remoteURL); err != nil {
		return errs.NewNetworkError(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return errs.NewNetworkError(0, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return errs.NewNetworkError(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return errs.NewTileAbsentUpstream(sig.String())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errs.NewNetworkError(resp.StatusCode, nil)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return errs.NewFilesystemError("creating parent directories", err)
	}

	tmpPath := localPath + ".part"
	out, err := os.Create(tmpPath)
	if err != nil {
		return errs.NewFilesystemError("creating temp file", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if cap(buf.B) < copyBufSize {
		buf.B = make([]byte, copyBufSize)
	}

	_, copyErr := io.CopyBuffer(out, resp.Body, buf.B[:copyBufSize])
	closeErr := out.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return errs.NewNetworkError(0, copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return errs.NewFilesystemError("closing temp file", closeErr)
	}

	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return errs.NewFilesystemError("renaming temp file into place", err)
	}
	return nil
}
