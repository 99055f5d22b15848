package classify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/hbomb79/Glimpse/pkg/logger"
)

var log = logger.Get("Classify")

// Extension sets recognised without touching the network. Matching is
// substring containment over the query-stripped path, which also
// catches URLs that bury the extension mid-path (CDN variants).
var (
	imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".tiff", ".tif"}
	videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".flv", ".wmv", ".m4v", ".3gp"}
)

// Config customises how URLs are classified when their extension is
// not conclusive.
type Config struct {
	// The media type assumed when neither the extension nor a probe
	// can settle the question. The historical input corpus is mostly
	// video, hence the default.
	DefaultType string `yaml:"default_type" env:"CLASSIFY_DEFAULT_TYPE" env-default:"video"`

	// Bounds the metadata-only network probe performed for
	// extension-less URLs.
	ProbeTimeoutSeconds int `yaml:"probe_timeout_seconds" env:"CLASSIFY_PROBE_TIMEOUT" env-default:"10"`
}

// Classifier decides whether a URL points at an image or a video. It
// owns its own HTTP client for probing so that parallel workers never
// share ambient state.
type Classifier struct {
	fallback    media.Type
	probeClient *http.Client
}

func New(config Config) *Classifier {
	fallback, err := media.ParseType(config.DefaultType)
	if err != nil {
		log.Emit(logger.WARNING, "Configured default type is invalid (%s), assuming video\n", err.Error())
		fallback = media.Video
	}

	timeout := config.ProbeTimeoutSeconds
	if timeout <= 0 {
		timeout = 10
	}

	return &Classifier{
		fallback:    fallback,
		probeClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Classify inspects the URL path for a known image extension, then a
// known video extension, and only if both checks fail performs a
// metadata-only HEAD probe of the URL. Probe failures and ambiguous
// content types resolve to the configured fallback type;
// classification never fails.
func (classifier *Classifier) Classify(ctx context.Context, url string) media.Type {
	pathPart := stripQuery(strings.ToLower(url))
	for _, ext := range imageExtensions {
		if strings.Contains(pathPart, ext) {
			return media.Image
		}
	}
	for _, ext := range videoExtensions {
		if strings.Contains(pathPart, ext) {
			return media.Video
		}
	}

	if probed, ok := classifier.probe(ctx, url); ok {
		return probed
	}

	return classifier.fallback
}

// probe performs a HEAD request against the URL and attempts to
// classify the response's Content-Type header.
func (classifier *Classifier) probe(ctx context.Context, url string) (media.Type, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return classifier.fallback, false
	}

	resp, err := classifier.probeClient.Do(req)
	if err != nil {
		log.Emit(logger.DEBUG, "HEAD probe of %s failed (%s), using fallback type\n", url, err.Error())
		return classifier.fallback, false
	}
	defer resp.Body.Close()

	return media.TypeFromContentType(resp.Header.Get("Content-Type"))
}

// stripQuery drops the query and fragment portions of a URL, leaving
// only the scheme/host/path part for extension matching.
func stripQuery(url string) string {
	if idx := strings.IndexAny(url, "?#"); idx != -1 {
		return url[:idx]
	}

	return url
}
