// Package gemini adapts the Gemini API to the Ask-AI generator and the voice
// input transcriber.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/DoyleJ11/askai-quiz-backend/internal/ai"
	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
)

const DefaultModel = "gemini-2.5-flash"

var errNoCandidates = errors.New("gemini: response has no candidates")

type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint. Used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	models *genai.Models
	model  string
}

// New returns nil and no error when no API key is configured.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, nil
	}
	cc := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{models: client.Models, model: model}, nil
}

func (c *Client) Generate(ctx context.Context, req ai.Request) (ai.Answer, error) {
	config := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Search {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
	if err != nil {
		return ai.Answer{}, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return ai.Answer{}, errNoCandidates
	}
	return ai.Answer{Text: resp.Text(), Links: extractLinks(resp)}, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(ai.TranscriptionPrompt),
			genai.NewPartFromBytes(audio, mimeType),
		}, genai.RoleUser),
	}
	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// extractLinks reads the web citations of the first candidate.
func extractLinks(resp *genai.GenerateContentResponse) []engine.GroundingLink {
	links := []engine.GroundingLink{}
	if resp == nil || len(resp.Candidates) == 0 {
		return links
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return links
	}
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		links = append(links, engine.GroundingLink{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return links
}
