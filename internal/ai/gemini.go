package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiConfig struct {
	APIKey     string `json:"api_key"`
	EmbedModel string `json:"embed_model"`
	EmbedDim   int    `json:"embed_dim"`
}

type geminiProvider struct {
	apiKey string
	model  string
	dim    int
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Dimension() int {
	return p.dim
}

// EmbedBatch calls the Gemini API once per text. The API has no batch
// embedding endpoint for mixed task types, so order is preserved by
// construction. Any failure aborts the whole batch; the caller decides
// what to fall back to.
func (p *geminiProvider) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if p.apiKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	var config *genai.EmbedContentConfig
	if taskType != "" {
		config = &genai.EmbedContentConfig{TaskType: taskType}
	}
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		resp, err := client.Models.EmbedContent(
			ctx,
			p.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
			config,
		)
		if err != nil {
			return nil, err
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return nil, fmt.Errorf("no embedding values returned")
		}
		vectors = append(vectors, resp.Embeddings[0].Values)
	}
	return vectors, nil
}

func createGeminiProvider(args interface{}) (Provider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if cfg.EmbedModel == "" {
		return nil, fmt.Errorf("gemini embed_model is required")
	}
	return &geminiProvider{
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  cfg.EmbedModel,
		dim:    cfg.EmbedDim,
	}, nil
}

func init() {
	Register("gemini", createGeminiProvider)
}
