package embed_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hbomb79/Glimpse/internal/embed"
	"github.com/stretchr/testify/assert"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func providerStub(t *testing.T, vector []float32, requests *[]embeddingRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
			"usage": map[string]int{"prompt_tokens": 0, "total_tokens": 0},
		})
	}))
}

func writeStill(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "still.png")
	assert.NoError(t, os.WriteFile(path, []byte("png bytes stand-in"), os.ModePerm))
	return path
}

func Test_NewOpenAICompatible_RequiresBaseURLAndModel(t *testing.T) {
	_, err := embed.NewOpenAICompatible(embed.Config{Model: "clip"})
	assert.Error(t, err)

	_, err = embed.NewOpenAICompatible(embed.Config{BaseURL: "http://localhost:9999"})
	assert.Error(t, err)

	embedder, err := embed.NewOpenAICompatible(embed.Config{BaseURL: "http://localhost:9999", Model: "clip"})
	assert.NoError(t, err)
	assert.Equal(t, "clip", embedder.Model())
}

func Test_EmbedImage_SubmitsStillAndReturnsVector(t *testing.T) {
	var requests []embeddingRequest
	server := providerStub(t, []float32{0.5, -0.25, 1}, &requests)
	defer server.Close()

	embedder, err := embed.NewOpenAICompatible(embed.Config{BaseURL: server.URL, Model: "openai/clip-vit-base-patch32"})
	assert.NoError(t, err)

	still := writeStill(t)
	vector, err := embedder.EmbedImage(context.Background(), still)
	assert.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, vector)

	assert.Len(t, requests, 1)
	assert.Equal(t, "openai/clip-vit-base-patch32", requests[0].Model)
	assert.Len(t, requests[0].Input, 1)

	payload, err := os.ReadFile(still)
	assert.NoError(t, err)
	expected := "data:image/png;base64," + base64.StdEncoding.EncodeToString(payload)
	assert.Equal(t, expected, requests[0].Input[0], "the still must be submitted as a base64 data URI")
}

func Test_EmbedImage_ProviderFailureSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "model exploded"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	embedder, err := embed.NewOpenAICompatible(embed.Config{BaseURL: server.URL, Model: "clip"})
	assert.NoError(t, err)

	_, err = embedder.EmbedImage(context.Background(), writeStill(t))
	assert.Error(t, err)
}

func Test_EmbedImage_MissingStillIsAnError(t *testing.T) {
	embedder, err := embed.NewOpenAICompatible(embed.Config{BaseURL: "http://localhost:9999", Model: "clip"})
	assert.NoError(t, err)

	_, err = embedder.EmbedImage(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func Test_EmbedImage_EmptyVectorIsAnError(t *testing.T) {
	var requests []embeddingRequest
	server := providerStub(t, []float32{}, &requests)
	defer server.Close()

	embedder, err := embed.NewOpenAICompatible(embed.Config{BaseURL: server.URL, Model: "clip"})
	assert.NoError(t, err)

	_, err = embedder.EmbedImage(context.Background(), writeStill(t))
	assert.Error(t, err)
}
