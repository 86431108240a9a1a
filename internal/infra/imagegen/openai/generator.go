package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
)

// ErrEmptyResponse is returned when the API produced no decodable images.
var ErrEmptyResponse = errors.New("image API returned no images")

// Config holds the image provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Size    string
	Images  int
}

// Generator produces outfit images through an OpenAI-compatible images API.
type Generator struct {
	client *openai.Client
	model  string
	size   string
	n      int
	logger *slog.Logger
}

// NewGenerator creates an image generator.
func NewGenerator(cfg Config, logger *slog.Logger) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		clientCfg.BaseURL = strings.TrimRight(base, "/")
	}
	model := cfg.Model
	if model == "" {
		model = openai.CreateImageModelDallE3
	}
	size := cfg.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}
	n := cfg.Images
	if n <= 0 {
		n = 1
	}
	return &Generator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
		size:   size,
		n:      n,
		logger: logger.With("component", "imagegen.openai"),
	}
}

// Generate implements replenish.Generator.
func (g *Generator) Generate(ctx context.Context, prompt string) ([][]byte, error) {
	resp, err := g.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          g.model,
		N:              g.n,
		Size:           g.size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	return decodeImages(resp.Data, g.logger)
}

func decodeImages(data []openai.ImageResponseDataInner, logger *slog.Logger) ([][]byte, error) {
	blobs := make([][]byte, 0, len(data))
	for i, item := range data {
		if item.B64JSON == "" {
			continue
		}
		blob, err := base64.StdEncoding.DecodeString(item.B64JSON)
		if err != nil {
			logger.Warn("skip undecodable image", "index", i, "error", err)
			continue
		}
		blobs = append(blobs, blob)
	}
	if len(blobs) == 0 {
		return nil, ErrEmptyResponse
	}
	return blobs, nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("image API error %d: %s", reqErr.HTTPStatusCode, detail)
		}
		return fmt.Errorf("image API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("image API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("image request failed: %w", err)
}

func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

var _ replenish.Generator = (*Generator)(nil)
