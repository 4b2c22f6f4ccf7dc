package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/config"
	"github.com/noah-isme/talentflow-api/internal/database"
	"github.com/noah-isme/talentflow-api/internal/repository"
	"github.com/noah-isme/talentflow-api/internal/service"
)

const app = "talentflow-admin"

var (
	debug   bool
	timeout time.Duration

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "talentflow-admin runs one-off maintenance tasks against the TalentFlow database",
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for the whole command")
}

// env holds what every subcommand needs.
type env struct {
	cfg    config.Config
	db     *gorm.DB
	logger zerolog.Logger
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Str("service", app).Logger()
}

func loadEnv() (env, error) {
	cfg, err := config.Load()
	if err != nil {
		return env{}, fmt.Errorf("load configuration: %w", err)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		return env{}, err
	}

	return env{cfg: cfg, db: db, logger: newLogger()}, nil
}

func (e env) authService() service.AuthService {
	return service.NewAuthService(
		repository.NewUserRepository(e.db),
		repository.NewCredentialRepository(e.db),
		validator.New(validator.WithRequiredStructEnabled()),
		e.cfg.JWTSecret,
		e.cfg.JWTTTL,
		e.logger,
	)
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
