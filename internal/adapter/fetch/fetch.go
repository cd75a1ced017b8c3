// Package fetch materializes resume files on the local filesystem, either by
// downloading a remote URL to a temporary file or by using a local path in
// place.
package fetch

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

const copyChunkSize = 8192

// Fetcher implements domain.FileFetcher.
type Fetcher struct {
	client  *http.Client
	tempDir string
}

// New creates a Fetcher with the configured download timeout.
func New(cfg config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout:   cfg.DownloadTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Fetch downloads fileURL to a temporary file when it is an HTTP(S) URL, or
// resolves it as a local path used in place. The returned cleanup flag is
// true only for downloaded temporaries.
func (f *Fetcher) Fetch(ctx domain.Context, fileURL string) (string, bool, error) {
	if strings.HasPrefix(fileURL, "http://") || strings.HasPrefix(fileURL, "https://") {
		return f.download(ctx, fileURL)
	}

	path := expandUser(fileURL)
	if _, err := os.Stat(path); err != nil {
		return "", false, fmt.Errorf("op=fetch.Fetch path=%s: %w", fileURL, domain.ErrFileNotFound)
	}
	return path, false, nil
}

func (f *Fetcher) download(ctx domain.Context, fileURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("op=fetch.download url=%s: %w", fileURL, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("op=fetch.download url=%s: %w", fileURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, fmt.Errorf("op=fetch.download url=%s: unexpected status %d", fileURL, resp.StatusCode)
	}

	path, err := f.writeTemp(ctx, fileURL, resp.Body)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// writeTemp streams body into a uniquely named temp file. The suffix comes
// from the URL path; when the URL has none the written bytes are sniffed and
// ".dat" is the last resort.
func (f *Fetcher) writeTemp(ctx domain.Context, fileURL string, body io.Reader) (string, error) {
	suffix := urlSuffix(fileURL)

	dir := f.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "resume-"+uuid.NewString()+suffix)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("op=fetch.writeTemp: %w", err)
	}

	written, err := io.CopyBuffer(file, body, make([]byte, copyChunkSize))
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("op=fetch.writeTemp url=%s: %w", fileURL, err)
	}
	if closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("op=fetch.writeTemp url=%s: %w", fileURL, closeErr)
	}

	if suffix == "" {
		path, err = renameBySniff(path)
		if err != nil {
			return "", err
		}
	}

	observability.LoggerFromContext(ctx).Debug("downloaded resume",
		slog.String("url", fileURL),
		slog.String("path", path),
		slog.Int64("bytes", written))
	return path, nil
}

// urlSuffix extracts the extension from the URL path, ignoring query strings.
func urlSuffix(fileURL string) string {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}
	return filepath.Ext(parsed.Path)
}

// renameBySniff detects the content type of the written file and renames it
// with the matching extension, falling back to ".dat".
func renameBySniff(path string) (string, error) {
	ext := ".dat"
	if mt, err := mimetype.DetectFile(path); err == nil && mt.Extension() != "" {
		ext = mt.Extension()
	}
	renamed := path + ext
	if err := os.Rename(path, renamed); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("op=fetch.renameBySniff: %w", err)
	}
	return renamed, nil
}

// expandUser resolves a leading "~" the way shells do.
func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// Cleanup removes a downloaded temporary. Errors are logged, not returned;
// a leaked temp file must never fail a job.
func Cleanup(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove temp file",
			slog.String("path", path),
			slog.Any("error", err))
	}
}
