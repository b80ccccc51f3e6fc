// Package fetch downloads media assets from the origin site into local
// storage, with per-host rate limiting, an allow-list of transferable
// types and idempotent re-runs.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"wpmigrate/internal/entities"
	"wpmigrate/internal/utils"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxBytes  = 50 << 20
	defaultMediaDir  = "media"
	defaultUserAgent = "wpmigrate/1.0"
)

// DefaultAllowedTypes is the stock transfer allow-list: common image
// types, PDF, office documents and zip archives.
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/svg+xml",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/zip",
}

// Storage is the slice of the storage facility the fetcher uses.
type Storage interface {
	Exists(path string) bool
	WriteFile(path string, content io.Reader) error
	Remove(path string) error
}

// Config carries the fetcher tunables.
type Config struct {
	MediaDir        string
	UserAgent       string
	Timeout         time.Duration
	PerHostInterval time.Duration
	MaxBytes        int64
	AllowedTypes    []string
}

// Result is the outcome for one asset. Exactly one of the three shapes
// occurs: a fresh download (LocalPath set), an idempotent skip (LocalPath
// + Skipped) or a failure (Failure holds the reason).
type Result struct {
	LocalPath string
	Skipped   bool
	Failure   string
}

// OK reports whether the asset is available locally.
func (r Result) OK() bool {
	return r.Failure == ""
}

// Fetcher transfers assets one at a time. Safe for concurrent use; the
// limiter serializes per-host access.
type Fetcher struct {
	store   Storage
	limiter *HostLimiter
	client  *http.Client
	cfg     Config
	allowed map[string]bool
}

func NewFetcher(store Storage, cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = defaultMediaDir
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if len(cfg.AllowedTypes) == 0 {
		cfg.AllowedTypes = DefaultAllowedTypes
	}
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Fetcher{
		store:   store,
		limiter: NewHostLimiter(cfg.PerHostInterval),
		client:  &http.Client{Timeout: cfg.Timeout},
		cfg:     cfg,
		allowed: allowed,
	}
}

// Fetch runs the policy gates in order (downloadable, type allow-list,
// already-present, rate limit) and then transfers the asset. It never
// returns an error; every way to fail folds into Result.Failure so one
// bad asset cannot abort a batch. On success the media's byte size is
// filled in from the transfer.
func (f *Fetcher) Fetch(ctx context.Context, m *entities.Media) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = failure("transfer panicked: %v", r)
		}
	}()

	if !m.IsDownloadable() {
		return failure("not downloadable: origin URL or file name missing")
	}
	if !f.allowed[strings.ToLower(m.MIMEType)] {
		return failure("type %s is not in the allow-list", m.MIMEType)
	}

	local := f.localPath(m)
	if f.store.Exists(local) {
		return Result{LocalPath: local, Skipped: true}
	}

	u, err := url.Parse(m.OriginURL)
	if err != nil || u.Host == "" {
		return failure("unusable origin URL %q", m.OriginURL)
	}
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return failure("canceled while waiting for host %s: %v", u.Host, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.OriginURL, nil)
	if err != nil {
		return failure("building request: %v", err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return failure("transfer failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return failure("origin returned HTTP %d", resp.StatusCode)
	}

	body := &countingReader{r: io.LimitReader(resp.Body, f.cfg.MaxBytes+1)}
	if err := f.store.WriteFile(local, body); err != nil {
		return failure("storing %s: %v", local, err)
	}
	switch {
	case body.n == 0:
		f.discard(local)
		return failure("origin returned an empty body")
	case body.n > f.cfg.MaxBytes:
		f.discard(local)
		return failure("file exceeds the %d byte limit", f.cfg.MaxBytes)
	}

	m.ByteSize = body.n
	return Result{LocalPath: local}
}

// localPath nests the sanitized file name under year/month taken from
// the upload date, or from the current time when the date is unknown.
func (f *Fetcher) localPath(m *entities.Media) string {
	ts := m.UploadedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	name := utils.SanitizeFileName(m.FileName)
	if name == "" {
		name = fmt.Sprintf("media_%d", m.SourceID)
	}
	return path.Join(f.cfg.MediaDir, fmt.Sprintf("%04d/%02d", ts.Year(), int(ts.Month())), name)
}

func (f *Fetcher) discard(local string) {
	if err := f.store.Remove(local); err != nil {
		log.Printf("fetch: failed to remove rejected file %s: %v", local, err)
	}
}

func failure(format string, args ...any) Result {
	return Result{Failure: fmt.Sprintf(format, args...)}
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
