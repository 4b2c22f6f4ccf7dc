package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

const (
	jdTemperature      = 0.3
	defaultCompanyTone = "Professional yet approachable"
)

// JobBrief holds the recruiter's keywords for a job description.
type JobBrief struct {
	JobTitle         string
	CompanyTone      string
	Responsibilities string
	Skills           string
	Experience       string
}

// JobDescriptionWriter drafts markdown job descriptions.
type JobDescriptionWriter struct {
	chat   ChatCompleter
	logger zerolog.Logger
}

// NewJobDescriptionWriter wraps the chat model with the copywriting prompt.
func NewJobDescriptionWriter(chat ChatCompleter, logger zerolog.Logger) *JobDescriptionWriter {
	return &JobDescriptionWriter{
		chat:   chat,
		logger: logger.With().Str("component", "ai_jd_writer").Logger(),
	}
}

// Write returns the generated markdown.
func (w *JobDescriptionWriter) Write(ctx context.Context, brief JobBrief) (string, error) {
	content, err := w.chat.Complete(ctx, ChatRequest{
		Operation:   "job_description.generate",
		System:      "You are an expert HR copywriter with experience in the tech industry.",
		User:        buildJobBriefPrompt(brief),
		Temperature: jdTemperature,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("job description: %w", ErrEmptyResponse)
	}

	w.logger.Info().Str("job_title", brief.JobTitle).Int("length", len(content)).Msg("job description generated")
	return content, nil
}

func buildJobBriefPrompt(brief JobBrief) string {
	tone := strings.TrimSpace(brief.CompanyTone)
	if tone == "" {
		tone = defaultCompanyTone
	}

	builder := strings.Builder{}
	builder.WriteString("Write a clear, engaging and complete job description from these keywords.\n\n")
	builder.WriteString("**Job Title:** ")
	builder.WriteString(brief.JobTitle)
	builder.WriteString("\n\n**Company Tone:** ")
	builder.WriteString(tone)
	builder.WriteString("\n\n**Key Responsibilities:**\n")
	builder.WriteString(brief.Responsibilities)
	builder.WriteString("\n\n**Core Skills Required:**\n")
	builder.WriteString(brief.Skills)
	builder.WriteString("\n\n**Years of Experience:** ")
	builder.WriteString(brief.Experience)
	builder.WriteString(" years\n\n")
	builder.WriteString("Use Markdown with exactly these sections:\n")
	builder.WriteString("- ## About the Role\n- ## Key Responsibilities\n- ## Required Qualifications\n")
	builder.WriteString("- ## Preferred Qualifications (infer these from the role)\n- ## Why You'll Love Working With Us\n\n")
	builder.WriteString("Match the company tone. Only mention general, positive company details such as a collaborative environment.")
	return builder.String()
}
