package dto

// TranscriptionResponse carries the recognised text of an uploaded clip.
type TranscriptionResponse struct {
	Text string `json:"text"`
}

// SynthesizeRequest asks for spoken audio of a question.
type SynthesizeRequest struct {
	Text  string `json:"text" validate:"required,max=4096"`
	Voice string `json:"voice" validate:"omitempty,oneof=alloy echo fable onyx nova shimmer"`
}

// SpeechHealthResponse reports which speech capabilities are configured.
type SpeechHealthResponse struct {
	Provider      string `json:"provider"`
	Transcription bool   `json:"transcription"`
	Synthesis     bool   `json:"synthesis"`
}
