package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/config"
	"github.com/noah-isme/talentflow-api/internal/database"
	"github.com/noah-isme/talentflow-api/internal/handler"
	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/repository"
	"github.com/noah-isme/talentflow-api/internal/router"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/pkg/ai"
	cloud "github.com/noah-isme/talentflow-api/pkg/cloudinary"
	"github.com/noah-isme/talentflow-api/pkg/filestore"
	"github.com/noah-isme/talentflow-api/pkg/pdftext"
)

// requestFileBudget bounds a multipart request to this many maximum-size uploads.
const requestFileBudget = 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis url not set, embedding cache and cross-node feed disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	models, err := buildAI(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure ai provider: %v", err)
	}

	uploader, err := buildUploader(cfg, logger)
	if err != nil {
		log.Fatalf("failed to configure resume storage: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	maxUploadBytes := int64(cfg.UploadMaxMB) << 20

	userRepo := repository.NewUserRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	jobRepo := repository.NewJobDescriptionRepository(db)
	resumeRepo := repository.NewResumeRepository(db)
	vectorIndex := repository.NewVectorRepository(db)
	interviewRepo := repository.NewInterviewRepository(db)

	feed := service.NewInterviewFeed(redisClient, natsConn, cfg.EventsChannel, logger)

	authService := service.NewAuthService(userRepo, credentialRepo, validate, cfg.JWTSecret, cfg.JWTTTL, logger)
	jobService := service.NewJobDescriptionService(jobRepo, ai.NewJobDescriptionWriter(models.chat, logger), validate, logger)
	rankingService := service.NewRankingService(
		resumeRepo,
		jobRepo,
		vectorIndex,
		models.embedder,
		pdftext.New(),
		uploader,
		redisClient,
		validate,
		service.RankingConfig{
			DefaultTopK:    cfg.RankingDefaultTopK,
			MaxFileBytes:   maxUploadBytes,
			EmbeddingModel: models.embeddingModel,
			CachePrefix:    cfg.EventsChannel + ":embeddings",
			CacheTTL:       cfg.EmbeddingCacheTTL,
		},
		logger,
	)
	interviewService := service.NewInterviewService(
		interviewRepo,
		jobRepo,
		ai.NewInterviewer(models.chat, logger),
		feed,
		validate,
		service.InterviewConfig{
			DefaultMaxQuestions: cfg.InterviewMaxQuestions,
			CredentialTTL:       cfg.CredentialTTL,
		},
		logger,
	)
	speechService := service.NewSpeechService(models.transcriber, models.synthesizer, models.speechProvider, maxUploadBytes, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(maxUploadBytes) * requestFileBudget,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		Development:  cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(authService, validate, logger),
		AdminHandler:          handler.NewAdminHandler(authService, validate, logger),
		JobDescriptionHandler: handler.NewJobDescriptionHandler(jobService, validate, logger),
		ResumeHandler:         handler.NewResumeHandler(rankingService, validate, logger),
		InterviewHandler:      handler.NewInterviewHandler(interviewService, feed, validate, logger),
		SpeechHandler:         handler.NewSpeechHandler(speechService, validate, logger),
		HealthProbes:          healthProbes(db, redisClient, natsConn),
		JWTMiddleware:         middleware.JWTProtected(cfg.JWTSecret),
	})

	feed.Start(ctx)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

// aiModels groups the hosted model backends selected by configuration.
type aiModels struct {
	chat           ai.ChatCompleter
	embedder       ai.Embedder
	embeddingModel string
	transcriber    ai.Transcriber
	synthesizer    ai.SpeechSynthesizer
	speechProvider string
}

func buildAI(ctx context.Context, cfg config.Config, logger zerolog.Logger) (aiModels, error) {
	var models aiModels

	var openaiClient *ai.OpenAIClient
	if cfg.OpenAIAPIKey != "" {
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			APIKey:         cfg.OpenAIAPIKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Azure:          cfg.OpenAIAzure,
			ChatModel:      cfg.OpenAIChatModel,
			EmbeddingModel: cfg.OpenAIEmbeddingModel,
			WhisperModel:   cfg.OpenAIWhisperModel,
			TTSModel:       cfg.OpenAITTSModel,
			Logger:         logger,
		})
		if err != nil {
			return aiModels{}, err
		}
		openaiClient = client
	}

	switch cfg.AIProvider {
	case "gemini":
		gemini, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			EmbeddingModel: cfg.GeminiEmbeddingModel,
			Logger:         logger,
		})
		if err != nil {
			return aiModels{}, err
		}
		models.chat = gemini
		models.embedder = gemini
		models.embeddingModel = "gemini/" + cfg.GeminiEmbeddingModel
		models.speechProvider = gemini.Provider()
	default:
		if openaiClient == nil {
			return aiModels{}, fmt.Errorf("openai api key is required for provider %q", cfg.AIProvider)
		}
		models.chat = openaiClient
		models.embedder = openaiClient
		models.embeddingModel = "openai/" + cfg.OpenAIEmbeddingModel
	}

	// Gemini has no speech endpoints; reuse OpenAI when a key is present.
	if openaiClient != nil {
		models.transcriber = openaiClient
		models.synthesizer = openaiClient
		models.speechProvider = openaiClient.Provider()
	}

	return models, nil
}

func buildUploader(cfg config.Config, logger zerolog.Logger) (service.FileUploader, error) {
	if cfg.CloudinaryEnabled() {
		return cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryFolder,
		}, logger)
	}

	return filestore.NewLocal(filepath.Join(cfg.StorageDir, "resumes"), logger)
}

func healthProbes(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) map[string]handler.HealthProbe {
	probes := map[string]handler.HealthProbe{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	if redisClient != nil {
		probes["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	if natsConn != nil {
		probes["nats"] = func(context.Context) error {
			if !natsConn.IsConnected() {
				return fmt.Errorf("nats status %s", natsConn.Status())
			}
			return nil
		}
	}

	return probes
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
