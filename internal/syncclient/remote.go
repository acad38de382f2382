package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/pkg/types"
)

// Remote is the HTTP client of the quiz server's JSON API.
type Remote struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemote(baseURL string, client *http.Client) *Remote {
	if client == nil {
		client = &http.Client{}
	}
	return &Remote{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

func (r *Remote) FetchSession(ctx context.Context) (engine.Session, error) {
	var s engine.Session
	err := r.do(ctx, http.MethodGet, "/api/session", nil, &s)
	return s, err
}

func (r *Remote) SetStatus(ctx context.Context, status engine.Status) (engine.Session, error) {
	return r.post(ctx, "/api/session/status", types.StatusRequest{Status: status})
}

func (r *Remote) Reset(ctx context.Context) (engine.Session, error) {
	return r.post(ctx, "/api/session/reset", nil)
}

func (r *Remote) Purge(ctx context.Context) (engine.Session, error) {
	return r.post(ctx, "/api/session/purge", nil)
}

func (r *Remote) SelectTeam(ctx context.Context, teamID string) (engine.Session, error) {
	return r.post(ctx, "/api/session/active-team", types.ActiveTeamRequest{TeamID: teamID})
}

func (r *Remote) SetAskAIState(ctx context.Context, req types.AskAIStateRequest) (engine.Session, error) {
	return r.post(ctx, "/api/session/ask-ai/state", req)
}

func (r *Remote) Judge(ctx context.Context, verdict engine.Verdict) (engine.Session, error) {
	return r.post(ctx, "/api/session/ask-ai/judge", types.JudgeRequest{Verdict: verdict})
}

func (r *Remote) Ask(ctx context.Context, question string) (engine.Session, error) {
	return r.post(ctx, "/api/session/ask-ai/question", types.QuestionRequest{Question: question})
}

func (r *Remote) Synthesize(ctx context.Context, text string) (types.SpeechResponse, error) {
	var out types.SpeechResponse
	err := r.do(ctx, http.MethodPost, "/api/speech/synthesize", types.SynthesizeRequest{Text: text}, &out)
	return out, err
}

func (r *Remote) post(ctx context.Context, path string, body any) (engine.Session, error) {
	var s engine.Session
	err := r.do(ctx, http.MethodPost, path, body, &s)
	return s, err
}

func (r *Remote) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("%s %s: HTTP %d: %w", method, path, resp.StatusCode, errors.New(e.Error))
		}
		return fmt.Errorf("%s %s: HTTP %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
