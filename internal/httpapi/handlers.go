package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/media"
	"github.com/DoyleJ11/askai-quiz-backend/pkg/types"
)

const (
	maxJSONBody  = 1 << 20
	maxAudioBody = 10 << 20
)

var errBadJSON = errors.New("request body must be valid JSON")

func Healthz(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.HealthResponse{
			Status:        "ok",
			Model:         d.AI != nil && d.AI.ModelConfigured(),
			Speech:        d.Speech != nil && d.Speech.Available(),
			Transcription: d.AI != nil && d.AI.TranscriptionAvailable(),
		})
	}
}

func GetSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Sessions.Get(r.Context())
		respondSession(w, d, s, err)
	}
}

func UpdateStatus(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StatusRequest
		if !decode(w, r, &req) {
			return
		}
		if !req.Status.Valid() {
			writeError(w, http.StatusBadRequest, engine.ErrInvalidStatus)
			return
		}
		s, err := d.Sessions.UpdateStatus(r.Context(), req.Status)
		d.kick()
		respondSession(w, d, s, err)
	}
}

func ResetSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Sessions.Reset(r.Context())
		d.kick()
		respondSession(w, d, s, err)
	}
}

// PurgeSession clears both media caches and replaces the session with a fresh default.
func PurgeSession(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Sessions.Purge(r.Context())
		d.kick()
		respondSession(w, d, s, err)
	}
}

// SetActiveTeam ignores unknown team ids and returns the unchanged session.
func SetActiveTeam(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ActiveTeamRequest
		if !decode(w, r, &req) {
			return
		}
		s, err := d.Sessions.SetActiveTeam(r.Context(), req.TeamID)
		d.kick()
		respondSession(w, d, s, err)
	}
}

func SetAskAIState(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AskAIStateRequest
		if !decode(w, r, &req) {
			return
		}
		if !req.State.Valid() {
			writeError(w, http.StatusBadRequest, engine.ErrIllegalTransition)
			return
		}

		var payload *engine.Payload
		if req.Question != nil || req.Response != nil || req.Links != nil {
			payload = &engine.Payload{Question: req.Question, Response: req.Response, Links: req.Links}
		}
		s, err := d.Sessions.SetAskAIState(r.Context(), req.State, payload)
		d.kick()
		respondSession(w, d, s, err)
	}
}

func Judge(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.JudgeRequest
		if !decode(w, r, &req) {
			return
		}
		if !req.Verdict.Valid() {
			writeError(w, http.StatusBadRequest, engine.ErrInvalidVerdict)
			return
		}
		s, err := d.Sessions.Judge(r.Context(), req.Verdict)
		d.kick()
		respondSession(w, d, s, err)
	}
}

// SubmitQuestion runs the whole Ask-AI pipeline and returns once the answer
// is recorded.
func SubmitQuestion(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.QuestionRequest
		if !decode(w, r, &req) {
			return
		}
		s, err := d.AI.SubmitQuestion(r.Context(), req.Question)
		d.kick()
		respondSession(w, d, s, err)
	}
}

func Synthesize(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SynthesizeRequest
		if !decode(w, r, &req) {
			return
		}
		var resp types.SpeechResponse
		if d.Speech != nil {
			resp.Audio, resp.Available = d.Speech.Audio(r.Context(), req.Text)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// Transcribe takes the raw recording as the body, typed by Content-Type.
func Transcribe(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioBody))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}

		mimeType := media.DefaultAudioMimeType
		if ct := r.Header.Get("Content-Type"); ct != "" {
			if mt, _, err := mime.ParseMediaType(ct); err == nil && mt != "application/octet-stream" {
				mimeType = mt
			}
		}

		var resp types.TranscriptResponse
		if d.AI != nil {
			resp.Text, resp.Available = d.AI.Transcribe(r.Context(), audio, mimeType)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (d Deps) kick() {
	if d.Poller != nil {
		d.Poller.Kick()
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, errBadJSON)
		return false
	}
	return true
}

func respondSession(w http.ResponseWriter, d Deps, s engine.Session, err error) {
	if err != nil {
		d.Log.Error("session operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, types.ErrorResponse{Error: err.Error()})
}
