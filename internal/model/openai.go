package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

var (
	_ TextGenerator  = (*OpenAIClient)(nil)
	_ VisionAnalyzer = (*OpenAIClient)(nil)
)

const openaiDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIOption configures an OpenAIClient instance.
type OpenAIOption func(*OpenAIClient)

// WithOpenAIBaseURL sets a custom base URL for the API endpoint.
// This is useful for OpenAI-compatible APIs like Ollama and LM Studio.
func WithOpenAIBaseURL(url string) OpenAIOption {
	return func(o *OpenAIClient) {
		if url != "" {
			o.baseURL = url
		}
	}
}

// WithOpenAIName sets a custom name for the client instance.
func WithOpenAIName(name string) OpenAIOption {
	return func(o *OpenAIClient) {
		o.name = name
	}
}

// WithOpenAIHTTPClient sets the HTTP client used for requests.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAIClient) {
		o.client = client
	}
}

// OpenAIClient talks to the OpenAI Chat Completions API. It also works
// with OpenAI-compatible APIs such as Ollama and LM Studio.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	name    string
	client  *http.Client
}

// NewOpenAIClient creates a new OpenAI chat completions client.
func NewOpenAIClient(apiKey, model string, opts ...OpenAIOption) *OpenAIClient {
	c := &OpenAIClient{
		apiKey:  apiKey,
		baseURL: openaiDefaultBaseURL,
		model:   model,
		name:    "openai",
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the configured name of this client (default "openai").
func (o *OpenAIClient) Name() string {
	return o.name
}

// Generate sends a chat completion request and returns the first choice.
func (o *OpenAIClient) Generate(ctx context.Context, system, prompt string) (string, error) {
	var messages []map[string]any
	if system != "" {
		messages = append(messages, map[string]any{"role": "system", "content": system})
	}
	messages = append(messages, map[string]any{"role": "user", "content": prompt})
	return o.complete(ctx, messages)
}

// Analyze sends a vision request with the image inlined as a data URL.
func (o *OpenAIClient) Analyze(ctx context.Context, imageBase64, mimeType, prompt string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	messages := []map[string]any{
		{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
				{
					"type": "image_url",
					"image_url": map[string]any{
						"url": fmt.Sprintf("data:%s;base64,%s", mimeType, imageBase64),
					},
				},
			},
		},
	}
	return o.complete(ctx, messages)
}

func (o *OpenAIClient) complete(ctx context.Context, messages []map[string]any) (string, error) {
	body := map[string]any{
		"model":    o.model,
		"messages": messages,
		"stream":   false,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openai: failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("openai: failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	httpResp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("openai: HTTP request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: failed to read response body: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai: API returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var apiResp openaiChatResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("openai: failed to unmarshal response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("openai: response contained no choices")
	}
	return apiResp.Choices[0].Message.Content, nil
}

// openaiChatResponse is the subset of the chat completions response we read.
type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}
