package ai

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI (or Azure OpenAI) client.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string
	Azure          bool
	ChatModel      string
	EmbeddingModel string
	WhisperModel   string
	TTSModel       string
	MaxTokens      int
	Logger         zerolog.Logger
}

// OpenAIClient implements ChatCompleter, Embedder, Transcriber and SpeechSynthesizer.
type OpenAIClient struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIClient builds a client using the provided configuration.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Azure && cfg.BaseURL == "" {
		return nil, fmt.Errorf("azure openai requires a base url")
	}

	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = string(openai.LargeEmbedding3)
	}
	if cfg.WhisperModel == "" {
		cfg.WhisperModel = openai.Whisper1
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = string(openai.TTSModel1)
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	var config openai.ClientConfig
	if cfg.Azure {
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
	} else {
		config = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			config.BaseURL = cfg.BaseURL
		}
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/talentflow-api/pkg/ai/openai"),
		logger: logger.With().Str("component", "openai_client").Logger(),
	}, nil
}

// Provider names the backing service.
func (c *OpenAIClient) Provider() string {
	return providerOpenAI
}

// Complete sends a chat completion request and returns the first choice's content.
func (c *OpenAIClient) Complete(parent context.Context, req ChatRequest) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.chat", trace.WithAttributes(
		attribute.String("model", c.cfg.ChatModel),
		attribute.String("operation", req.Operation),
	))
	defer span.End()

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		Messages:    messages,
	}
	if req.JSON {
		request.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	aiDuration.WithLabelValues(providerOpenAI, req.Operation, c.cfg.ChatModel).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", c.fail(span, req.Operation, c.cfg.ChatModel, fmt.Errorf("openai chat: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", c.fail(span, req.Operation, c.cfg.ChatModel, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", c.fail(span, req.Operation, c.cfg.ChatModel, ErrEmptyResponse)
	}

	span.SetAttributes(attribute.Int("usage.total_tokens", resp.Usage.TotalTokens))
	return content, nil
}

// Embed returns one vector per text, in input order.
func (c *OpenAIClient) Embed(parent context.Context, texts []string) ([][]float32, error) {
	const operation = "embedding"
	ctx, span := c.tracer.Start(parent, "openai.embed", trace.WithAttributes(
		attribute.String("model", c.cfg.EmbeddingModel),
		attribute.Int("inputs", len(texts)),
	))
	defer span.End()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.cfg.EmbeddingModel),
	})
	aiDuration.WithLabelValues(providerOpenAI, operation, c.cfg.EmbeddingModel).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(span, operation, c.cfg.EmbeddingModel, fmt.Errorf("openai embeddings: %w", err))
	}

	if len(resp.Data) != len(texts) {
		err := fmt.Errorf("openai embeddings: expected %d vectors, got %d", len(texts), len(resp.Data))
		return nil, c.fail(span, operation, c.cfg.EmbeddingModel, err)
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, item := range data {
		vectors[i] = item.Embedding
	}
	return vectors, nil
}

// Transcribe sends recorded audio to the speech-to-text model.
func (c *OpenAIClient) Transcribe(parent context.Context, filename string, audio io.Reader) (string, error) {
	const operation = "transcription"
	ctx, span := c.tracer.Start(parent, "openai.transcribe", trace.WithAttributes(
		attribute.String("model", c.cfg.WhisperModel),
	))
	defer span.End()

	start := time.Now()
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.cfg.WhisperModel,
		FilePath: filename,
		Reader:   audio,
	})
	aiDuration.WithLabelValues(providerOpenAI, operation, c.cfg.WhisperModel).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", c.fail(span, operation, c.cfg.WhisperModel, fmt.Errorf("openai transcription: %w", err))
	}

	return strings.TrimSpace(resp.Text), nil
}

// Synthesize renders text as mp3 audio.
func (c *OpenAIClient) Synthesize(parent context.Context, text, voice string) ([]byte, error) {
	const operation = "speech"
	ctx, span := c.tracer.Start(parent, "openai.speech", trace.WithAttributes(
		attribute.String("model", c.cfg.TTSModel),
		attribute.String("voice", voice),
	))
	defer span.End()

	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}

	start := time.Now()
	resp, err := c.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(c.cfg.TTSModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	aiDuration.WithLabelValues(providerOpenAI, operation, c.cfg.TTSModel).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(span, operation, c.cfg.TTSModel, fmt.Errorf("openai speech: %w", err))
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, c.fail(span, operation, c.cfg.TTSModel, fmt.Errorf("read speech audio: %w", err))
	}
	return audio, nil
}

func (c *OpenAIClient) fail(span trace.Span, operation, model string, err error) error {
	aiFailures.WithLabelValues(providerOpenAI, operation, model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.logger.Error().Err(err).Str("operation", operation).Str("model", model).Msg("openai request failed")
	return err
}
