package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
)

const interviewTemperature = 0.1

// QuestionKind selects how the next interview question is framed.
type QuestionKind string

const (
	// QuestionFollowUp probes the previous question more deeply.
	QuestionFollowUp QuestionKind = "follow_up"
	// QuestionTopic moves on to the next planned topic.
	QuestionTopic QuestionKind = "topic"
	// QuestionClosing asks a final concluding question.
	QuestionClosing QuestionKind = "closing"
)

// QuestionDirective tells the interviewer what the next question must be about.
type QuestionDirective struct {
	Kind QuestionKind
	// Subject is the planned topic for QuestionTopic or the previous question for QuestionFollowUp.
	Subject string
}

// Exchange is one asked question and the candidate's answer, if any.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
}

// Rating is the interviewer's judgement of a single answer.
type Rating struct {
	Score    int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Verdict is the interviewer's final recommendation and narrative.
type Verdict struct {
	Recommendation string `json:"recommendation"`
	SummaryText    string `json:"summary_text"`
}

// Interviewer drives an AI interview on top of any ChatCompleter.
type Interviewer struct {
	chat   ChatCompleter
	logger zerolog.Logger
}

// NewInterviewer wraps the chat model with interview prompts.
func NewInterviewer(chat ChatCompleter, logger zerolog.Logger) *Interviewer {
	return &Interviewer{
		chat:   chat,
		logger: logger.With().Str("component", "ai_interviewer").Logger(),
	}
}

// PlanTopics derives the ordered list of topics to cover from a job description.
func (i *Interviewer) PlanTopics(ctx context.Context, jobDescription string) ([]string, error) {
	prompt := "Read the job description below and list the 5 most important technical and behavioural topics to discuss with a candidate.\n\n" +
		"Respond with a JSON object that has a single key \"topics\" holding an array of short strings, for example:\n" +
		"{\"topics\": [\"Go concurrency\", \"REST API design\", \"PostgreSQL\", \"Team collaboration\", \"Problem solving\"]}\n\n" +
		"Job Description:\n" + jobDescription

	var payload struct {
		Topics []string `json:"topics"`
	}
	if err := i.completeJSON(ctx, "interview.plan", "You are a senior hiring manager.", prompt, &payload); err != nil {
		return nil, err
	}

	topics := make([]string, 0, len(payload.Topics))
	for _, topic := range payload.Topics {
		if trimmed := strings.TrimSpace(topic); trimmed != "" {
			topics = append(topics, trimmed)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("interview plan: %w", ErrEmptyResponse)
	}

	i.logger.Debug().Int("topics", len(topics)).Msg("interview plan generated")
	return topics, nil
}

// NextQuestion asks the model for the question described by directive.
func (i *Interviewer) NextQuestion(ctx context.Context, directive QuestionDirective, history []Exchange) (string, error) {
	var instruction string
	switch directive.Kind {
	case QuestionFollowUp:
		instruction = fmt.Sprintf("The candidate's previous answer was weak. Ask a follow-up question that probes deeper into: '%s'.", directive.Subject)
	case QuestionTopic:
		instruction = fmt.Sprintf("Following the interview plan, ask the next question about the topic: '%s'.", directive.Subject)
	case QuestionClosing:
		instruction = "All planned topics are covered. Ask a final concluding question."
	default:
		return "", fmt.Errorf("unknown question kind %q", directive.Kind)
	}

	transcript, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}

	prompt := instruction + "\n\n" +
		"Respond with a JSON object that has a single key \"question\", for example:\n" +
		"{\"question\": \"Can you walk me through a service you designed for high availability?\"}\n\n" +
		"Conversation History:\n" + string(transcript)

	var payload struct {
		Question string `json:"question"`
	}
	if err := i.completeJSON(ctx, "interview.question", "You are an expert interviewer.", prompt, &payload); err != nil {
		return "", err
	}

	question := strings.TrimSpace(payload.Question)
	if question == "" {
		return "", fmt.Errorf("interview question: %w", ErrEmptyResponse)
	}
	return question, nil
}

// EvaluateAnswer rates an answer from 1 (poor) to 5 (excellent).
func (i *Interviewer) EvaluateAnswer(ctx context.Context, question, answer string) (Rating, error) {
	prompt := "Evaluate the candidate's answer to the question below.\n\n" +
		"Respond with a JSON object with the keys \"rating\" (integer 1 to 5) and \"feedback\" (a short justification), for example:\n" +
		"{\"rating\": 4, \"feedback\": \"Clear real-world example with a well explained trade-off.\"}\n\n" +
		"Question:\n" + question + "\n\nCandidate's Answer:\n" + answer

	var payload struct {
		Rating   float64 `json:"rating"`
		Feedback string  `json:"feedback"`
	}
	if err := i.completeJSON(ctx, "interview.evaluate", "You are an expert interview evaluator.", prompt, &payload); err != nil {
		return Rating{}, err
	}

	return Rating{
		Score:    clampRating(int(math.Round(payload.Rating))),
		Feedback: strings.TrimSpace(payload.Feedback),
	}, nil
}

// Summarize produces the final recommendation for a finished interview.
func (i *Interviewer) Summarize(ctx context.Context, history []Exchange, ratings []Rating) (Verdict, error) {
	transcript, err := json.Marshal(history)
	if err != nil {
		return Verdict{}, fmt.Errorf("encode history: %w", err)
	}
	scores, err := json.Marshal(ratings)
	if err != nil {
		return Verdict{}, fmt.Errorf("encode evaluations: %w", err)
	}

	prompt := "Based on the whole interview, write a final summary and a hiring recommendation.\n\n" +
		"Respond with a JSON object with the keys \"recommendation\" and \"summary_text\". " +
		"\"recommendation\" must be exactly one of \"Proceed\", \"Hold\" or \"Reject\", for example:\n" +
		"{\"recommendation\": \"Proceed\", \"summary_text\": \"Strong backend fundamentals and clear communication.\"}\n\n" +
		"Interview Transcript:\n" + string(transcript) + "\n\nEvaluations:\n" + string(scores)

	var verdict Verdict
	if err := i.completeJSON(ctx, "interview.summary", "You are a senior hiring manager.", prompt, &verdict); err != nil {
		return Verdict{}, err
	}

	verdict.Recommendation = strings.TrimSpace(verdict.Recommendation)
	verdict.SummaryText = strings.TrimSpace(verdict.SummaryText)
	return verdict, nil
}

func (i *Interviewer) completeJSON(ctx context.Context, operation, system, prompt string, target interface{}) error {
	content, err := i.chat.Complete(ctx, ChatRequest{
		Operation:   operation,
		System:      system,
		User:        prompt,
		Temperature: interviewTemperature,
		JSON:        true,
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(extractJSONObject(content)), target); err != nil {
		return fmt.Errorf("parse %s response: %w", operation, err)
	}
	return nil
}

// extractJSONObject strips markdown fences or prose around the outermost JSON object.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return content
	}
	return content[start : end+1]
}

func clampRating(value int) int {
	if value < 1 {
		return 1
	}
	if value > 5 {
		return 5
	}
	return value
}
