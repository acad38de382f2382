package types

import "github.com/DoyleJ11/askai-quiz-backend/internal/engine"

type StatusRequest struct {
	Status engine.Status `json:"status"`
}

type ActiveTeamRequest struct {
	TeamID string `json:"teamId"`
}

// AskAIStateRequest sets the Ask-AI state. Omitted fields keep their value.
type AskAIStateRequest struct {
	State    engine.AskAIState      `json:"state"`
	Question *string                `json:"question,omitempty"`
	Response *string                `json:"response,omitempty"`
	Links    []engine.GroundingLink `json:"links,omitempty"`
}

type JudgeRequest struct {
	Verdict engine.Verdict `json:"verdict"`
}

type QuestionRequest struct {
	Question string `json:"question"`
}

type SynthesizeRequest struct {
	Text string `json:"text"`
}

type SpeechResponse struct {
	Available bool   `json:"available"`
	Audio     string `json:"audio,omitempty"`
}

type TranscriptResponse struct {
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	Model         bool   `json:"model"`
	Speech        bool   `json:"speech"`
	Transcription bool   `json:"transcription"`
}
