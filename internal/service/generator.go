package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/capitalize-ai/curator-chat/internal/catalog"
	"github.com/capitalize-ai/curator-chat/internal/llm"
	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/pkg/logger"
	"github.com/capitalize-ai/curator-chat/pkg/metrics"
)

const closingInstruction = "Respond naturally and conversationally. Keep your response concise but helpful."

// Fallback reasons reported in metrics and logs.
const (
	fallbackUnconfigured = "unconfigured"
	fallbackTimeout      = "timeout"
	fallbackError        = "error"
	fallbackEmpty        = "empty"
)

// GeneratorConfig tunes calls to the generation backend.
type GeneratorConfig struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// Timeout bounds a single backend call. Zero leaves the caller's deadline.
	Timeout time.Duration
}

// ResponseGenerator produces the assistant's next utterance.
type ResponseGenerator struct {
	client llm.Client
	cfg    GeneratorConfig
	logger *logger.Logger
}

// NewResponseGenerator creates a generator. A nil client answers every
// non-opening turn with the category fallback.
func NewResponseGenerator(client llm.Client, cfg GeneratorConfig, log *logger.Logger) *ResponseGenerator {
	if log == nil {
		log = logger.Global()
	}
	return &ResponseGenerator{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

// Generate returns the reply to userMessage. history holds the whole session
// including userMessage as its last entry. Backend failures are absorbed into
// the category fallback; the only error is an unknown category.
func (g *ResponseGenerator) Generate(ctx context.Context, userMessage string, category model.Category, history []model.Message) (string, error) {
	entry, err := catalog.Lookup(category)
	if err != nil {
		return "", err
	}

	if len(history) <= 1 {
		return entry.OpeningMessage, nil
	}

	phase := PhaseFor(len(history))

	ctx, span := tracer.Start(ctx, "generator.Generate", trace.WithAttributes(
		attribute.String("category", string(category)),
		attribute.String("phase", string(phase)),
		attribute.Int("history", len(history)),
	))
	defer span.End()

	if g.client == nil {
		return g.fallback(span, entry, fallbackUnconfigured, nil), nil
	}

	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := g.client.Complete(ctx, &llm.CompletionRequest{
		Model:       g.cfg.Model,
		Messages:    []llm.ChatMessage{{Role: llm.RoleUser, Content: buildPrompt(entry, userMessage, history, phase)}},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordLLMRequest(g.client.Name(), "error", elapsed, 0, 0)
		reason := fallbackError
		if errors.Is(err, context.DeadlineExceeded) {
			reason = fallbackTimeout
		}
		return g.fallback(span, entry, reason, err), nil
	}

	metrics.RecordLLMRequest(g.client.Name(), "success", elapsed, resp.TokensIn, resp.TokensOut)

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return g.fallback(span, entry, fallbackEmpty, nil), nil
	}
	return text, nil
}

func (g *ResponseGenerator) fallback(span trace.Span, entry catalog.Entry, reason string, err error) string {
	provider := "none"
	if g.client != nil {
		provider = g.client.Name()
	}

	fields := []zap.Field{
		zap.String("category", string(entry.Category)),
		zap.String("provider", provider),
		zap.String("reason", reason),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		span.RecordError(err)
	}
	g.logger.Warn("generation failed, using fallback", fields...)

	span.SetStatus(codes.Error, reason)
	span.SetAttributes(attribute.String("fallback", reason))
	metrics.RecordFallback(string(entry.Category), reason)

	return entry.FallbackMessage
}

// buildPrompt renders the single instruction block sent to the backend.
func buildPrompt(entry catalog.Entry, userMessage string, history []model.Message, phase Phase) string {
	var b strings.Builder
	b.WriteString(entry.SystemPrompt)
	b.WriteString("\n\nConversation so far:\n")
	b.WriteString(transcript(history))
	b.WriteString("\n\nUser's latest message: ")
	b.WriteString(userMessage)
	b.WriteString("\n\n")
	b.WriteString(phase.directive())
	b.WriteString("\n\n")
	b.WriteString(closingInstruction)
	return b.String()
}

func transcript(history []model.Message) string {
	lines := make([]string, len(history))
	for i, m := range history {
		speaker := "Assistant"
		if m.Sender == model.SenderUser {
			speaker = "User"
		}
		lines[i] = speaker + ": " + m.Content
	}
	return strings.Join(lines, "\n")
}
