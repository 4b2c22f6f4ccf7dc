package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName               string
	AppEnv                string
	AppPort               string
	DatabaseURL           string
	RedisURL              string
	NATSURL               string
	EventsChannel         string
	JWTSecret             string
	JWTTTL                time.Duration
	AIProvider            string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIAzure           bool
	OpenAIChatModel       string
	OpenAIEmbeddingModel  string
	OpenAIWhisperModel    string
	OpenAITTSModel        string
	GeminiAPIKey          string
	GeminiModel           string
	GeminiEmbeddingModel  string
	CloudinaryCloudName   string
	CloudinaryAPIKey      string
	CloudinaryAPISecret   string
	CloudinaryFolder      string
	StorageDir            string
	UploadMaxMB           int
	RankingDefaultTopK    int
	EmbeddingCacheTTL     time.Duration
	InterviewMaxQuestions int
	CredentialTTL         time.Duration
	LoginRatePerMinute    int
	AIRatePerMinute       int
	CORSAllowOrigins      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether remote storage credentials are present.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TALENTFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "TalentFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "talentflow")
	v.SetDefault("jwt.ttl", "8h")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.embedding_model", "text-embedding-3-large")
	v.SetDefault("openai.whisper_model", "whisper-1")
	v.SetDefault("openai.tts_model", "tts-1")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.embedding_model", "gemini-embedding-001")
	v.SetDefault("cloudinary.folder", "talentflow/resumes")
	v.SetDefault("storage.dir", "uploads")
	v.SetDefault("upload.max_mb", 10)
	v.SetDefault("ranking.default_top_k", 5)
	v.SetDefault("ranking.embedding_cache_ttl", "24h")
	v.SetDefault("interview.max_questions", 5)
	v.SetDefault("credential.ttl", "24h")
	v.SetDefault("ratelimit.login_per_minute", 10)
	v.SetDefault("ratelimit.ai_per_minute", 30)
	v.SetDefault("cors.allow_origins", "*")

	jwtTTL, err := parseDuration(v, "jwt.ttl", "8h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}

	cacheTTL, err := parseDuration(v, "ranking.embedding_cache_ttl", "24h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid embedding cache ttl: %w", err)
	}

	credentialTTL, err := parseDuration(v, "credential.ttl", "24h")
	if err != nil {
		return Config{}, fmt.Errorf("invalid credential ttl: %w", err)
	}

	cfg := Config{
		AppName:               v.GetString("app.name"),
		AppEnv:                v.GetString("app.env"),
		AppPort:               v.GetString("app.port"),
		DatabaseURL:           v.GetString("database.url"),
		RedisURL:              v.GetString("redis.url"),
		NATSURL:               v.GetString("nats.url"),
		EventsChannel:         v.GetString("events.channel"),
		JWTSecret:             v.GetString("jwt.secret"),
		JWTTTL:                jwtTTL,
		AIProvider:            strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		OpenAIAPIKey:          v.GetString("openai.api_key"),
		OpenAIBaseURL:         v.GetString("openai.base_url"),
		OpenAIAzure:           v.GetBool("openai.azure"),
		OpenAIChatModel:       v.GetString("openai.chat_model"),
		OpenAIEmbeddingModel:  v.GetString("openai.embedding_model"),
		OpenAIWhisperModel:    v.GetString("openai.whisper_model"),
		OpenAITTSModel:        v.GetString("openai.tts_model"),
		GeminiAPIKey:          v.GetString("gemini.api_key"),
		GeminiModel:           v.GetString("gemini.model"),
		GeminiEmbeddingModel:  v.GetString("gemini.embedding_model"),
		CloudinaryCloudName:   v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:      v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:   v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:      v.GetString("cloudinary.folder"),
		StorageDir:            v.GetString("storage.dir"),
		UploadMaxMB:           v.GetInt("upload.max_mb"),
		RankingDefaultTopK:    v.GetInt("ranking.default_top_k"),
		EmbeddingCacheTTL:     cacheTTL,
		InterviewMaxQuestions: v.GetInt("interview.max_questions"),
		CredentialTTL:         credentialTTL,
		LoginRatePerMinute:    v.GetInt("ratelimit.login_per_minute"),
		AIRatePerMinute:       v.GetInt("ratelimit.ai_per_minute"),
		CORSAllowOrigins:      strings.TrimSpace(v.GetString("cors.allow_origins")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.AIProvider {
	case "openai", "gemini":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if cfg.UploadMaxMB <= 0 {
		cfg.UploadMaxMB = 10
	}
	if cfg.RankingDefaultTopK <= 0 {
		cfg.RankingDefaultTopK = 5
	}
	if cfg.InterviewMaxQuestions <= 0 {
		cfg.InterviewMaxQuestions = 5
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key, fallback string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		raw = fallback
	}
	return time.ParseDuration(raw)
}
