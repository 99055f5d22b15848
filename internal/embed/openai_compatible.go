package embed

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Config describes the OpenAI-compatible embedding provider used to
// turn still frames in to vectors. Any service exposing the
// /embeddings surface and accepting base64 image inputs (CLIP servers
// commonly do) can sit behind this.
type Config struct {
	BaseURL        string `yaml:"base_url" env:"EMBEDDER_BASE_URL" env-required:"true"`
	APIKey         string `yaml:"api_key" env:"EMBEDDER_API_KEY"`
	Model          string `yaml:"model" env:"EMBEDDER_MODEL" env-default:"openai/clip-vit-base-patch32"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"EMBEDDER_TIMEOUT" env-default:"60"`
}

type openAICompatibleEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAICompatible constructs an Embedder backed by an
// OpenAI-compatible embeddings endpoint.
func NewOpenAICompatible(config Config) (Embedder, error) {
	if strings.TrimSpace(config.BaseURL) == "" {
		return nil, fmt.Errorf("embedder base URL is required")
	}
	if strings.TrimSpace(config.Model) == "" {
		return nil, fmt.Errorf("embedder model is required")
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Minute
	}

	openaiCfg := openai.DefaultConfig(config.APIKey)
	openaiCfg.BaseURL = config.BaseURL
	openaiCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &openAICompatibleEmbedder{
		client: openai.NewClientWithConfig(openaiCfg),
		model:  config.Model,
	}, nil
}

func (embedder *openAICompatibleEmbedder) Model() string {
	return embedder.model
}

// EmbedImage submits the image as a base64 data URI and returns the
// provider's vector verbatim. No retrying happens here - reruns
// operate at the granularity of a whole job, not this call.
func (embedder *openAICompatibleEmbedder) EmbedImage(ctx context.Context, imagePath string) ([]float32, error) {
	payload, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read still frame: %w", err)
	}

	dataURI := fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(payload))
	resp, err := embedder.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{dataURI},
		Model: openai.EmbeddingModel(embedder.model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(resp.Data))
	}

	vector := make([]float32, len(resp.Data[0].Embedding))
	copy(vector, resp.Data[0].Embedding)
	if len(vector) == 0 {
		return nil, fmt.Errorf("provider returned an empty embedding")
	}

	return vector, nil
}
