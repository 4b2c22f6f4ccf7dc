package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/talentflow-api/internal/config"
	"github.com/noah-isme/talentflow-api/internal/handler"
	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler           *handler.AuthHandler
	AdminHandler          *handler.AdminHandler
	JobDescriptionHandler *handler.JobDescriptionHandler
	ResumeHandler         *handler.ResumeHandler
	InterviewHandler      *handler.InterviewHandler
	SpeechHandler         *handler.SpeechHandler
	HealthProbes          map[string]handler.HealthProbe
	JWTMiddleware         fiber.Handler
	LoginLimiter          fiber.Handler
	AILimiter             fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthProbes))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or the real one bound to the configured secret
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = middleware.JWTProtected(cfg.JWTSecret)
	}

	loginLimiter := deps.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = middleware.RateLimit("login", cfg.LoginRatePerMinute, time.Minute)
	}
	aiLimiter := deps.AILimiter
	if aiLimiter == nil {
		aiLimiter = middleware.RateLimit("ai", cfg.AIRatePerMinute, time.Minute)
	}

	recruiterOnly := middleware.RequireRole(models.RoleRecruiter, models.RoleAdmin)

	if deps.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.Use("/login", loginLimiter)
		deps.AuthHandler.Register(auth)
	}

	if deps.AdminHandler != nil {
		admin := api.Group("/admin", jwtMiddleware, middleware.RequireRole(models.RoleAdmin))
		deps.AdminHandler.Register(admin)
	}

	if deps.JobDescriptionHandler != nil {
		jobs := api.Group("/job-descriptions", jwtMiddleware, recruiterOnly)
		jobs.Use("/generate", aiLimiter)
		deps.JobDescriptionHandler.Register(jobs)
	}

	if deps.ResumeHandler != nil {
		resumes := api.Group("/resumes", jwtMiddleware, recruiterOnly)
		resumes.Use("/rank", aiLimiter)
		deps.ResumeHandler.Register(resumes)
	}

	// Interviews and speech mix recruiter and candidate routes; roles are checked per route
	if deps.InterviewHandler != nil {
		interviews := api.Group("/interviews", jwtMiddleware)
		deps.InterviewHandler.Register(interviews)
	}

	if deps.SpeechHandler != nil {
		speech := api.Group("/speech", jwtMiddleware)
		deps.SpeechHandler.Register(speech)
	}
}
