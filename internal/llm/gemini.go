package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when the request names no model.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient is the Gemini LLM client.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini client against the Gemini API.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return string(ProviderGemini)
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	model := req.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	contents := geminiContents(req.Messages)

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		cfg.Temperature = &temp
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	res, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	out := &CompletionResponse{
		Content:   res.Text(),
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if res.UsageMetadata != nil {
		out.TokensIn = int(res.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(res.UsageMetadata.CandidatesTokenCount)
	}
	if len(res.Candidates) > 0 {
		out.StopReason = string(res.Candidates[0].FinishReason)
	}
	return out, nil
}

// geminiContents maps chat messages onto Gemini turns. Gemini has no
// assistant role; prior replies are sent as the model.
func geminiContents(msgs []ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		var role genai.Role = genai.RoleUser
		if msg.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}
