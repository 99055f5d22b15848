package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/hbomb79/Glimpse/pkg/logger"
)

var log = logger.Get("Fetch")

// Config customises the download transports.
type Config struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"FETCH_TIMEOUT" env-default:"60"`
}

type classifier interface {
	Classify(ctx context.Context, url string) media.Type
}

// Fetcher downloads a URL's bytes to a destination path using a
// primary streaming transport, falling back to a minimal secondary
// transport when the primary fails. Both clients are owned by the
// fetcher so parallel workers can share pooled connections without
// relying on ambient process-wide state.
type Fetcher struct {
	primary    *http.Client
	fallback   *http.Client
	classifier classifier
}

func New(config Config, classifier classifier) *Fetcher {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Fetcher{
		primary: &http.Client{Timeout: timeout},
		fallback: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{DisableKeepAlives: true, DisableCompression: true},
		},
		classifier: classifier,
	}
}

// Fetch streams the URL's bytes to dest and settles the media type
// for the job. Transport truth wins: a conclusive Content-Type header
// overrides the classifier's extension-based guess, and failing that
// the downloaded bytes themselves are sniffed. Fetch never panics; on
// failure the caller receives a descriptive error alongside the
// classifier's best-effort offline guess. Partial writes at dest are
// tolerated as dest is expected to live in a reclaimed scratch area.
func (fetcher *Fetcher) Fetch(ctx context.Context, url string, dest string) (media.Type, error) {
	contentType, primaryErr := download(ctx, fetcher.primary, url, dest)
	if primaryErr == nil {
		return fetcher.settleType(ctx, url, contentType, dest), nil
	}

	log.Emit(logger.WARNING, "Primary transport failed for %s (%s), retrying with fallback transport\n", url, primaryErr.Error())
	contentType, fallbackErr := download(ctx, fetcher.fallback, url, dest)
	if fallbackErr == nil {
		return fetcher.settleType(ctx, url, contentType, dest), nil
	}

	return fetcher.classifier.Classify(ctx, url), fallbackErr
}

// settleType reconciles the provisional classification of a
// successfully downloaded file with the transport-level signals.
func (fetcher *Fetcher) settleType(ctx context.Context, url string, contentType string, dest string) media.Type {
	if settled, ok := media.TypeFromContentType(contentType); ok {
		return settled
	}

	if mime, err := mimetype.DetectFile(dest); err == nil {
		if settled, ok := media.TypeFromContentType(mime.String()); ok {
			log.Emit(logger.DEBUG, "Content-Type header for %s was inconclusive, sniffed %s from payload\n", url, mime.String())
			return settled
		}
	}

	return fetcher.classifier.Classify(ctx, url)
}

// download performs a single streaming GET of the URL to the
// destination path, returning the response's Content-Type header.
func download(ctx context.Context, client *http.Client, url string, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	file, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file %s: %w", dest, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return "", fmt.Errorf("failed to stream response body: %w", err)
	}

	return resp.Header.Get("Content-Type"), nil
}
