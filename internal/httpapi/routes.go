package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/ai"
	"github.com/DoyleJ11/askai-quiz-backend/internal/feed"
	"github.com/DoyleJ11/askai-quiz-backend/internal/media"
	"github.com/DoyleJ11/askai-quiz-backend/internal/session"
	"github.com/DoyleJ11/askai-quiz-backend/internal/ws"
)

// Poller is told to fetch right away after a write, so pushed snapshots do
// not wait for the next poll.
type Poller interface {
	Kick()
}

type Deps struct {
	Sessions *session.Service
	AI       *ai.Orchestrator
	Speech   *media.Speech
	Feed     *feed.Feed
	Poller   Poller
	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer
	Log      *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", Healthz(d))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Get("/", GetSession(d))
			r.Post("/status", UpdateStatus(d))
			r.Post("/reset", ResetSession(d))
			r.Post("/purge", PurgeSession(d))
			r.Post("/active-team", SetActiveTeam(d))
			r.Post("/ask-ai/state", SetAskAIState(d))
			r.Post("/ask-ai/judge", Judge(d))
			r.Post("/ask-ai/question", SubmitQuestion(d))
		})
		r.Post("/speech/synthesize", Synthesize(d))
		r.Post("/speech/transcribe", Transcribe(d))
	})

	if d.Feed != nil {
		r.Get("/ws", ws.Handler(d.Feed, d.Poller, d.Sessions, d.Log))
	}
	return r
}
