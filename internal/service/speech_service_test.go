package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talentflow-api/internal/dto"
)

type stubSpeech struct {
	text      string
	err       error
	fileNames []string
	voices    []string
}

func (s *stubSpeech) Transcribe(_ context.Context, fileName string, audio io.Reader) (string, error) {
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	s.fileNames = append(s.fileNames, fileName)
	return s.text, s.err
}

func (s *stubSpeech) Synthesize(_ context.Context, _ string, voice string) ([]byte, error) {
	s.voices = append(s.voices, voice)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("ID3audio"), nil
}

func wavHeader() []byte {
	data := []byte("RIFF\x24\x00\x00\x00WAVEfmt \x10\x00\x00\x00\x01\x00\x01\x00")
	return append(data, make([]byte, 32)...)
}

func TestSpeechServiceTranscribe(t *testing.T) {
	backend := &stubSpeech{text: "  I would use a worker pool.  "}
	svc := NewSpeechService(backend, backend, "openai", 1<<20, testValidator(), testLogger())

	resp, err := svc.Transcribe(context.Background(), "", wavHeader())
	require.NoError(t, err)
	require.Equal(t, "I would use a worker pool.", resp.Text)
	require.Equal(t, []string{"answer.wav"}, backend.fileNames)

	_, err = svc.Transcribe(context.Background(), "notes.txt", []byte("just some text"))
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Transcribe(context.Background(), "empty.wav", nil)
	require.ErrorIs(t, err, ErrInvalidInput)

	backend.err = errors.New("whisper down")
	_, err = svc.Transcribe(context.Background(), "answer.wav", wavHeader())
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
}

func TestSpeechServiceSynthesizeDefaultsVoice(t *testing.T) {
	backend := &stubSpeech{}
	svc := NewSpeechService(backend, backend, "openai", 0, testValidator(), testLogger())

	audio, err := svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "Tell me about yourself."})
	require.NoError(t, err)
	require.NotEmpty(t, audio)

	_, err = svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "Hello", Voice: "Nova"})
	require.NoError(t, err)
	require.Equal(t, []string{"alloy", "nova"}, backend.voices)

	_, err = svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "Hello", Voice: "robot"})
	require.Error(t, err)
}

func TestSpeechServiceWithoutProvider(t *testing.T) {
	svc := NewSpeechService(nil, nil, "gemini", 0, testValidator(), testLogger())

	_, err := svc.Transcribe(context.Background(), "answer.wav", wavHeader())
	require.ErrorIs(t, err, ErrSpeechUnavailable)

	_, err = svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "Hello"})
	require.ErrorIs(t, err, ErrSpeechUnavailable)

	require.Equal(t, dto.SpeechHealthResponse{Provider: "gemini"}, svc.Health())
}
