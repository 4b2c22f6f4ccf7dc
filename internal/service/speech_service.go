package service

import (
	"bytes"
	"context"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/pkg/ai"
)

const defaultSpeechVoice = "alloy"

// SpeechService transcribes candidate answers and reads questions aloud.
type SpeechService interface {
	Transcribe(ctx context.Context, fileName string, data []byte) (dto.TranscriptionResponse, error)
	Synthesize(ctx context.Context, payload dto.SynthesizeRequest) ([]byte, error)
	Health() dto.SpeechHealthResponse
}

type speechService struct {
	transcriber  ai.Transcriber
	synthesizer  ai.SpeechSynthesizer
	provider     string
	maxFileBytes int64
	validator    *validator.Validate
	logger       zerolog.Logger
}

// NewSpeechService builds the speech service. Either backend may be nil when the
// configured provider has no speech support.
func NewSpeechService(transcriber ai.Transcriber, synthesizer ai.SpeechSynthesizer, provider string, maxFileBytes int64, validate *validator.Validate, logger zerolog.Logger) SpeechService {
	if maxFileBytes <= 0 {
		maxFileBytes = 10 << 20
	}
	return &speechService{
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		provider:     provider,
		maxFileBytes: maxFileBytes,
		validator:    validate,
		logger:       logger.With().Str("component", "speech_service").Logger(),
	}
}

func (s *speechService) Transcribe(ctx context.Context, fileName string, data []byte) (dto.TranscriptionResponse, error) {
	if s.transcriber == nil {
		return dto.TranscriptionResponse{}, ErrSpeechUnavailable
	}
	if len(data) == 0 {
		return dto.TranscriptionResponse{}, invalidInput("audio file is empty")
	}
	if int64(len(data)) > s.maxFileBytes {
		return dto.TranscriptionResponse{}, invalidInput("audio file exceeds %d bytes", s.maxFileBytes)
	}

	detected := mimetype.Detect(data)
	if !isAudioType(detected) {
		return dto.TranscriptionResponse{}, invalidInput("unsupported audio type %s", detected.String())
	}

	if strings.TrimSpace(fileName) == "" {
		fileName = "answer" + detected.Extension()
	}

	text, err := s.transcriber.Transcribe(ctx, fileName, bytes.NewReader(data))
	if err != nil {
		s.logger.Error().Err(err).Str("operation", "speech.transcribe").Msg("transcription failed")
		return dto.TranscriptionResponse{}, upstream("speech transcription", err)
	}

	return dto.TranscriptionResponse{Text: strings.TrimSpace(text)}, nil
}

func (s *speechService) Synthesize(ctx context.Context, payload dto.SynthesizeRequest) ([]byte, error) {
	if s.synthesizer == nil {
		return nil, ErrSpeechUnavailable
	}

	payload.Text = strings.TrimSpace(payload.Text)
	payload.Voice = strings.ToLower(strings.TrimSpace(payload.Voice))
	if err := s.validator.Struct(payload); err != nil {
		return nil, err
	}
	if payload.Voice == "" {
		payload.Voice = defaultSpeechVoice
	}

	audio, err := s.synthesizer.Synthesize(ctx, payload.Text, payload.Voice)
	if err != nil {
		s.logger.Error().Err(err).Str("operation", "speech.synthesize").Msg("speech synthesis failed")
		return nil, upstream("speech synthesis", err)
	}
	return audio, nil
}

func (s *speechService) Health() dto.SpeechHealthResponse {
	return dto.SpeechHealthResponse{
		Provider:      s.provider,
		Transcription: s.transcriber != nil,
		Synthesis:     s.synthesizer != nil,
	}
}

func isAudioType(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "audio/") {
			return true
		}
	}
	// browsers record answers as webm, which sniffs as a video container
	return detected.Is("video/webm")
}
