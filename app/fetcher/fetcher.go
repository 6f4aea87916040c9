package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// ErrDownloadFailed indicates a specific audio resource could not be
// fetched. The candidate is skipped; the pass continues.
var ErrDownloadFailed = errors.New("download failed")

// Fetcher downloads audio resources into a local directory. Downloads are
// idempotent per derived path: an existing file is never re-fetched and
// never re-verified.
type Fetcher struct {
	client    *http.Client
	audioDir  string
	userAgent string
}

func New(client *http.Client, audioDir, userAgent string) *Fetcher {
	return &Fetcher{
		client:    client,
		audioDir:  audioDir,
		userAgent: userAgent,
	}
}

// DerivePath returns the local destination for the given audio URL: the
// audio directory joined with the final path segment, query string ignored.
func (f *Fetcher) DerivePath(audioURL string) (string, error) {
	parsed, err := url.Parse(audioURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse audio URL: %w", err)
	}

	fileName := filepath.Base(parsed.Path)
	if fileName == "." || fileName == "/" || fileName == "" {
		return "", fmt.Errorf("audio URL has no usable file name: %s", audioURL)
	}

	return filepath.Join(f.audioDir, fileName), nil
}

// Fetch downloads the resource to its derived path and returns that path.
// The transfer streams into a temporary file in the same directory and is
// renamed into place only on full success, so a crash or transport error
// never leaves a partial file at the final path.
func (f *Fetcher) Fetch(ctx context.Context, audioURL string) (string, error) {
	filePath, err := f.DerivePath(audioURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	if _, err := os.Stat(filePath); err == nil {
		slog.Debug("Audio file already exists, skipping download", "path", filePath)
		return filePath, nil
	}

	if err := os.MkdirAll(f.audioDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: failed to create audio directory: %v", ErrDownloadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", audioURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrDownloadFailed, err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP error %d for %s", ErrDownloadFailed, resp.StatusCode, audioURL)
	}

	if err := f.writeAtomic(filePath, resp.Body); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	slog.Info("Audio file downloaded", "path", filePath)
	return filePath, nil
}

func (f *Fetcher) writeAtomic(filePath string, body io.Reader) error {
	tmp, err := os.CreateTemp(f.audioDir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write audio data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filePath); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move audio file into place: %w", err)
	}

	return nil
}
