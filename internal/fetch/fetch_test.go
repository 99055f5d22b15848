package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/hbomb79/Glimpse/internal/fetch"
	"github.com/hbomb79/Glimpse/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// A 1x1 transparent PNG, used when a test needs sniffable image bytes.
var pngPayload = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Classify(ctx context.Context, url string) media.Type {
	args := m.Called(url)
	//nolint:forcetypeassert
	return args.Get(0).(media.Type)
}

func serveBytes(contentType string, payload []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.Write(payload)
	}))
}

func Test_Fetch_ContentTypeHeaderOverridesClassifier(t *testing.T) {
	server := serveBytes("video/mp4", []byte("fake video payload"))
	defer server.Close()

	classifier := new(mockClassifier)
	fetcher := fetch.New(fetch.Config{}, classifier)

	dest := filepath.Join(t.TempDir(), "media.raw")
	// The URL extension says image, the transport says video; the
	// transport must win, and the classifier must not even be asked.
	mediaType, err := fetcher.Fetch(context.Background(), server.URL+"/asset.jpg", dest)
	assert.NoError(t, err)
	assert.Equal(t, media.Video, mediaType)
	classifier.AssertNotCalled(t, "Classify")

	contents, err := os.ReadFile(dest)
	assert.NoError(t, err)
	assert.Equal(t, "fake video payload", string(contents))
}

func Test_Fetch_AmbiguousHeaderSniffsPayload(t *testing.T) {
	server := serveBytes("application/octet-stream", pngPayload)
	defer server.Close()

	classifier := new(mockClassifier)
	fetcher := fetch.New(fetch.Config{}, classifier)

	mediaType, err := fetcher.Fetch(context.Background(), server.URL+"/asset", filepath.Join(t.TempDir(), "media.raw"))
	assert.NoError(t, err)
	assert.Equal(t, media.Image, mediaType)
	classifier.AssertNotCalled(t, "Classify")
}

func Test_Fetch_UnsniffablePayloadDefersToClassifier(t *testing.T) {
	server := serveBytes("", []byte("some plain text nobody can place"))
	defer server.Close()

	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything).Return(media.Video)
	fetcher := fetch.New(fetch.Config{}, classifier)

	mediaType, err := fetcher.Fetch(context.Background(), server.URL+"/asset", filepath.Join(t.TempDir(), "media.raw"))
	assert.NoError(t, err)
	assert.Equal(t, media.Video, mediaType)
	classifier.AssertExpectations(t)
}

func Test_Fetch_ErrorStatusFailsWithOfflineGuess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything).Return(media.Image)
	fetcher := fetch.New(fetch.Config{}, classifier)

	mediaType, err := fetcher.Fetch(context.Background(), server.URL+"/gone", filepath.Join(t.TempDir(), "media.raw"))
	assert.Error(t, err)
	assert.Equal(t, media.Image, mediaType, "failed fetches should still report the classifier's best-effort type")
}

func Test_Fetch_UnreachableHostFailsWithOfflineGuess(t *testing.T) {
	server := serveBytes("video/mp4", nil)
	server.Close() // both transports will fail to connect

	classifier := new(mockClassifier)
	classifier.On("Classify", mock.Anything).Return(media.Video)
	fetcher := fetch.New(fetch.Config{}, classifier)

	mediaType, err := fetcher.Fetch(context.Background(), server.URL+"/asset", filepath.Join(t.TempDir(), "media.raw"))
	assert.Error(t, err)
	assert.Equal(t, media.Video, mediaType)
	classifier.AssertExpectations(t)
}
