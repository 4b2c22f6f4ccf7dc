package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const (
	providerGemini     = "gemini"
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultGeminiEmbeddingModel = "gemini-embedding-001"
)

// GeminiConfig configures the Gemini chat and embedding client.
type GeminiConfig struct {
	APIKey         string
	Model          string
	EmbeddingModel string
	MaxTokens      int32
	Logger         zerolog.Logger
}

// GeminiClient implements ChatCompleter and Embedder against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiClient creates a client configured for the Gemini API backend.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.Model = strings.TrimSpace(cfg.Model); cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if cfg.EmbeddingModel = strings.TrimSpace(cfg.EmbeddingModel); cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = defaultGeminiEmbeddingModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiClient{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/talentflow-api/pkg/ai/gemini"),
		logger: logger.With().Str("component", "gemini_client").Logger(),
	}, nil
}

// Provider names the backing service.
func (g *GeminiClient) Provider() string {
	return providerGemini
}

// Complete sends the prompt to Gemini and joins the text parts of every candidate.
func (g *GeminiClient) Complete(parent context.Context, req ChatRequest) (string, error) {
	ctx, span := g.tracer.Start(parent, "gemini.generate", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("operation", req.Operation),
	))
	defer span.End()

	prompt := strings.TrimSpace(req.User)
	if prompt == "" {
		return "", g.fail(span, req.Operation, errors.New("prompt must not be empty"))
	}

	maxTokens := g.cfg.MaxTokens
	if req.MaxTokens > 0 {
		maxTokens = int32(req.MaxTokens)
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: maxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		config.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, genai.Text(prompt), config)
	aiDuration.WithLabelValues(providerGemini, req.Operation, g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", g.fail(span, req.Operation, fmt.Errorf("generate content: %w", err))
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", g.fail(span, req.Operation, ErrEmptyResponse)
	}
	return output, nil
}

// Embed returns one vector per text, in input order.
func (g *GeminiClient) Embed(parent context.Context, texts []string) ([][]float32, error) {
	const operation = "embedding"
	ctx, span := g.tracer.Start(parent, "gemini.embed", trace.WithAttributes(
		attribute.String("model", g.cfg.EmbeddingModel),
		attribute.Int("inputs", len(texts)),
	))
	defer span.End()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	start := time.Now()
	resp, err := g.client.Models.EmbedContent(ctx, g.cfg.EmbeddingModel, contents, nil)
	aiDuration.WithLabelValues(providerGemini, operation, g.cfg.EmbeddingModel).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, g.failModel(span, operation, g.cfg.EmbeddingModel, fmt.Errorf("embed content: %w", err))
	}
	if len(resp.Embeddings) != len(texts) {
		err := fmt.Errorf("embed content: expected %d vectors, got %d", len(texts), len(resp.Embeddings))
		return nil, g.failModel(span, operation, g.cfg.EmbeddingModel, err)
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, g.failModel(span, operation, g.cfg.EmbeddingModel, ErrEmptyResponse)
		}
		vectors[i] = embedding.Values
	}
	return vectors, nil
}

func (g *GeminiClient) fail(span trace.Span, operation string, err error) error {
	return g.failModel(span, operation, g.cfg.Model, err)
}

func (g *GeminiClient) failModel(span trace.Span, operation, model string, err error) error {
	aiFailures.WithLabelValues(providerGemini, operation, model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	g.logger.Error().Err(err).Str("operation", operation).Msg("gemini request failed")
	return err
}
