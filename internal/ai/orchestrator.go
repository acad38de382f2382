// Package ai runs the Ask-AI pipeline: a submitted question moves the session
// to PROCESSING, is classified and answered by the model, and always lands in
// ANSWERING.
package ai

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/media"
	"github.com/DoyleJ11/askai-quiz-backend/internal/metrics"
	"github.com/DoyleJ11/askai-quiz-backend/internal/session"
)

// Sessions is the part of the session service the pipeline writes through.
type Sessions interface {
	Get(ctx context.Context) (engine.Session, error)
	Do(ctx context.Context, cmd engine.Command) (session.Outcome, error)
}

type Orchestrator struct {
	sessions    Sessions
	gen         Generator
	classifier  Classifier
	transcripts *media.Transcripts
	search      bool
	timeout     time.Duration
	metrics     *metrics.Metrics
	log         *zap.Logger
}

type Option func(*Orchestrator)

func WithClassifier(c Classifier) Option {
	return func(o *Orchestrator) { o.classifier = c }
}

func WithSearchGrounding(enabled bool) Option {
	return func(o *Orchestrator) { o.search = enabled }
}

// WithTimeout bounds each model call. Zero leaves it to the transport.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func WithTranscripts(t *media.Transcripts) Option {
	return func(o *Orchestrator) { o.transcripts = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator wires the pipeline. gen may be nil when no model credential
// is configured; answers then carry NotConfiguredText.
func NewOrchestrator(sessions Sessions, gen Generator, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions:   sessions,
		gen:        gen,
		classifier: ModelSelfClassify{},
		search:     true,
		log:        log.Named("ai"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitQuestion records the question, moves to PROCESSING and resolves the
// answer. A blank question or a session that is not LISTENING leaves the
// session untouched.
func (o *Orchestrator) SubmitQuestion(ctx context.Context, text string) (engine.Session, error) {
	question := strings.TrimSpace(text)

	current, err := o.sessions.Get(ctx)
	if err != nil {
		return engine.Session{}, err
	}
	if question == "" {
		o.log.Debug("empty question ignored")
		return current, nil
	}
	if current.AskAIState != engine.AskAIListening {
		o.log.Debug("question ignored, mic not open",
			zap.String("state", string(current.AskAIState)))
		return current, nil
	}

	out, err := o.sessions.Do(ctx, engine.Command{
		Type:       engine.CmdSetAskAIState,
		State:      engine.AskAIProcessing,
		Payload:    &engine.Payload{Question: &question},
		ExpectTurn: current.Turn,
	})
	if err != nil {
		return engine.Session{}, err
	}
	if !out.Applied() {
		o.log.Debug("question superseded before processing", zap.Error(out.Ignored))
		return out.Session, nil
	}

	return o.GenerateResponse(ctx, out.Session.Turn, question)
}

// GenerateResponse answers question and writes ANSWERING for turn. If the
// session moved on to a newer turn meanwhile, the answer is dropped and the
// current session is returned.
func (o *Orchestrator) GenerateResponse(ctx context.Context, turn int64, question string) (engine.Session, error) {
	answer, outcome := o.answer(ctx, question)

	// The answer is written even if the caller went away.
	out, err := o.sessions.Do(context.WithoutCancel(ctx), engine.Command{
		Type:  engine.CmdSetAskAIState,
		State: engine.AskAIAnswering,
		Payload: &engine.Payload{
			Response: &answer.Text,
			Links:    answer.Links,
		},
		ExpectTurn: turn,
	})
	if err != nil {
		return engine.Session{}, err
	}
	if !out.Applied() {
		o.log.Info("discarding stale answer",
			zap.Int64("turn", turn),
			zap.Int64("current_turn", out.Session.Turn))
		outcome = outcomeStale
	}
	o.metrics.ObserveAnswer(outcome)
	return out.Session, nil
}

const (
	outcomeAnswered      = "answered"
	outcomeRefused       = "refused"
	outcomeFallback      = "fallback"
	outcomeNotConfigured = "not_configured"
	outcomeEmpty         = "empty"
	outcomeStale         = "stale"
)

func (o *Orchestrator) answer(ctx context.Context, question string) (Answer, string) {
	if o.gen == nil {
		return Answer{Text: NotConfiguredText, Links: []engine.GroundingLink{}}, outcomeNotConfigured
	}
	if !o.classifier.Allow(question) {
		o.log.Info("question rejected by classifier", zap.String("classifier", o.classifier.Name()))
		return Answer{Text: RefusalText, Links: []engine.GroundingLink{}}, outcomeRefused
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := o.gen.Generate(ctx, Request{
		Prompt:            QuestionPrompt(question),
		SystemInstruction: SystemInstruction,
		Search:            o.search,
	})
	elapsed := time.Since(start)
	o.metrics.ObserveModelCall(elapsed)
	if err != nil {
		o.log.Warn("generation failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		return Answer{Text: FallbackText, Links: []engine.GroundingLink{}}, outcomeFallback
	}

	text := strings.TrimSpace(res.Text)
	switch text {
	case "":
		return Answer{Text: EmptyResponseText, Links: []engine.GroundingLink{}}, outcomeEmpty
	case RefusalText:
		return Answer{Text: RefusalText, Links: []engine.GroundingLink{}}, outcomeRefused
	}
	o.log.Debug("answer generated",
		zap.Int("links", len(res.Links)),
		zap.Duration("elapsed", elapsed))
	return Answer{Text: text, Links: FilterLinks(res.Links)}, outcomeAnswered
}

// Transcribe converts recorded audio into question text. ok is false when
// speech-to-text is unconfigured or fails.
func (o *Orchestrator) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, bool) {
	if o.transcripts == nil {
		return "", false
	}
	return o.transcripts.Transcribe(ctx, audio, mimeType)
}

// ModelConfigured reports whether a generative model is wired in.
func (o *Orchestrator) ModelConfigured() bool { return o.gen != nil }

// TranscriptionAvailable reports whether voice input can be offered.
func (o *Orchestrator) TranscriptionAvailable() bool {
	return o.transcripts != nil && o.transcripts.Available()
}
