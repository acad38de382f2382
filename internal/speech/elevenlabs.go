// Package speech talks to the ElevenLabs text-to-speech REST API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultBaseURL      = "https://api.elevenlabs.io"
	DefaultModelID      = "eleven_flash_v2_5"
	DefaultOutputFormat = "mp3_44100_128"

	// MaxChars bounds the text sent per request.
	MaxChars = 600
)

type Config struct {
	BaseURL      string
	APIKey       string
	VoiceID      string
	ModelID      string
	OutputFormat string
}

// Configured reports whether both the credential and the voice are set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != "" && strings.TrimSpace(c.VoiceID) != ""
}

type ElevenLabs struct {
	cfg        Config
	httpClient *http.Client
}

// NewElevenLabs returns nil when cfg is not Configured, so callers can treat
// text-to-speech as unavailable.
func NewElevenLabs(cfg Config, client *http.Client) *ElevenLabs {
	if !cfg.Configured() {
		return nil
	}
	if client == nil {
		client = &http.Client{}
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.VoiceID = strings.TrimSpace(cfg.VoiceID)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	return &ElevenLabs{cfg: cfg, httpClient: client}
}

type synthesizeRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize returns the encoded audio for text and its mime type.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:    truncate(text, MaxChars),
		ModelID: e.cfg.ModelID,
	})
	if err != nil {
		return nil, "", err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s",
		strings.TrimRight(e.cfg.BaseURL, "/"),
		url.PathEscape(e.cfg.VoiceID),
		url.QueryEscape(e.cfg.OutputFormat))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("xi-api-key", e.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling ElevenLabs API: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("elevenlabs API error (HTTP %d): %s", resp.StatusCode, truncate(string(audio), 200))
	}
	if len(audio) == 0 {
		return nil, "", fmt.Errorf("empty audio from ElevenLabs API")
	}
	return audio, MimeType(e.cfg.OutputFormat), nil
}

// MimeType maps an ElevenLabs output_format to a mime type.
func MimeType(format string) string {
	codec, _, _ := strings.Cut(format, "_")
	switch codec {
	case "pcm":
		return "audio/pcm"
	case "ulaw":
		return "audio/basic"
	case "opus":
		return "audio/opus"
	default:
		return "audio/mpeg"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
