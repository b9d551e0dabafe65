package model

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

var (
	_ TextGenerator  = (*GeminiClient)(nil)
	_ VisionAnalyzer = (*GeminiClient)(nil)
)

// GeminiClient uses the google.golang.org/genai Go SDK directly. The
// client is created lazily on first use so construction never needs a
// context or network access.
type GeminiClient struct {
	apiKey  string
	model   string
	name    string
	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGeminiClient creates a native Gemini adapter for the given provider name.
func NewGeminiClient(providerName, apiKey, model string) *GeminiClient {
	return &GeminiClient{
		name:   providerName,
		apiKey: apiKey,
		model:  model,
	}
}

func (g *GeminiClient) Name() string { return g.name }

func (g *GeminiClient) ensureClient(ctx context.Context) error {
	g.once.Do(func() {
		g.client, g.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.initErr
}

// Generate produces a text completion.
func (g *GeminiClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	if err := g.ensureClient(ctx); err != nil {
		return "", fmt.Errorf("gemini: client init failed: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return resp.Text(), nil
}

// Analyze runs a multimodal prompt over the supplied image.
func (g *GeminiClient) Analyze(ctx context.Context, imageBase64, mimeType, prompt string) (string, error) {
	if err := g.ensureClient(ctx); err != nil {
		return "", fmt.Errorf("gemini: client init failed: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(imageBase64)
	if err != nil {
		return "", fmt.Errorf("gemini: decode image: %w", err)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(raw, mimeType),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return resp.Text(), nil
}
