// Package session persists the shared quiz session and applies state
// transitions to it with an optimistic read-modify-write loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/metrics"
	"github.com/DoyleJ11/askai-quiz-backend/internal/store"
)

var ErrContention = errors.New("session contention: too many concurrent writers")

const maxAttempts = 5

// Purger is anything cleared together with the session on purge.
type Purger interface {
	Purge(ctx context.Context) error
}

// Outcome reports what a transition did. Ignored is set when the engine
// rejected the command; Session is then the unchanged current record.
type Outcome struct {
	Session engine.Session
	Events  []engine.Event
	Ignored error
}

func (o Outcome) Applied() bool { return o.Ignored == nil }

type Service struct {
	store       *Store
	log         *zap.Logger
	now         func() time.Time
	judgePolicy engine.JudgePolicy
	purgers     []Purger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithJudgePolicy(p engine.JudgePolicy) Option {
	return func(s *Service) { s.judgePolicy = p }
}

func WithPurgers(p ...Purger) Option {
	return func(s *Service) { s.purgers = append(s.purgers, p...) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(st *Store, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:       st,
		log:         log.Named("session"),
		now:         time.Now,
		judgePolicy: engine.JudgeReapply,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context) (engine.Session, error) {
	return s.store.Load(ctx)
}

// FetchSession lets the service act as an in-process sync source.
func (s *Service) FetchSession(ctx context.Context) (engine.Session, error) {
	return s.store.Load(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, status engine.Status) (engine.Session, error) {
	return s.session(s.Do(ctx, engine.Command{Type: engine.CmdSetStatus, Status: status}))
}

func (s *Service) Reset(ctx context.Context) (engine.Session, error) {
	return s.session(s.Do(ctx, engine.Command{Type: engine.CmdReset}))
}

// SetActiveTeam is a silent no-op for unknown team ids.
func (s *Service) SetActiveTeam(ctx context.Context, teamID string) (engine.Session, error) {
	return s.session(s.Do(ctx, engine.Command{Type: engine.CmdSelectTeam, TeamID: teamID}))
}

func (s *Service) SetAskAIState(ctx context.Context, state engine.AskAIState, payload *engine.Payload) (engine.Session, error) {
	return s.session(s.Do(ctx, engine.Command{Type: engine.CmdSetAskAIState, State: state, Payload: payload}))
}

func (s *Service) Judge(ctx context.Context, verdict engine.Verdict) (engine.Session, error) {
	return s.session(s.Do(ctx, engine.Command{Type: engine.CmdJudge, Verdict: verdict}))
}

// Purge clears every registered cache and replaces the record with a fresh
// default session. The turn counter keeps growing so answers still in flight
// from before the purge are discarded.
func (s *Service) Purge(ctx context.Context) (engine.Session, error) {
	var errs []error
	for _, p := range s.purgers {
		errs = append(errs, p.Purge(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		return engine.Session{}, err
	}
	out, err := s.Do(ctx, engine.Command{Type: engine.CmdPurge})
	if err != nil {
		return engine.Session{}, err
	}
	s.log.Info("session and caches purged")
	return out.Session, nil
}

// Do runs one load -> apply -> save cycle, retrying on version conflicts.
func (s *Service) Do(ctx context.Context, cmd engine.Command) (Outcome, error) {
	if cmd.Type == engine.CmdJudge && cmd.Policy == "" {
		cmd.Policy = s.judgePolicy
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		current, err := s.store.Load(ctx)
		if err != nil {
			s.metrics.ObserveMutation(string(cmd.Type), "error")
			return Outcome{}, err
		}

		cmd.At = s.now()
		events, next, err := engine.Apply(current, cmd)
		if err != nil {
			s.log.Debug("mutation ignored",
				zap.String("command", string(cmd.Type)),
				zap.Error(err))
			s.metrics.ObserveMutation(string(cmd.Type), "ignored")
			return Outcome{Session: current, Ignored: err}, nil
		}

		saved, err := s.store.Save(ctx, next)
		if errors.Is(err, store.ErrVersionConflict) {
			s.log.Debug("version conflict, retrying",
				zap.String("command", string(cmd.Type)),
				zap.Int("attempt", attempt))
			s.metrics.ObserveVersionConflict()
			continue
		}
		if err != nil {
			s.metrics.ObserveMutation(string(cmd.Type), "error")
			return Outcome{Session: current}, err
		}

		s.metrics.ObserveMutation(string(cmd.Type), "applied")
		s.logEvents(events)
		return Outcome{Session: saved, Events: events}, nil
	}

	s.metrics.ObserveMutation(string(cmd.Type), "error")
	return Outcome{}, fmt.Errorf("%s: %w", cmd.Type, ErrContention)
}

func (s *Service) session(o Outcome, err error) (engine.Session, error) {
	return o.Session, err
}

func (s *Service) logEvents(events []engine.Event) {
	for _, e := range events {
		fields := []zap.Field{zap.String("event", string(e.Type))}
		if e.TeamID != "" {
			fields = append(fields, zap.String("team", e.TeamID))
		}
		if e.State != "" {
			fields = append(fields, zap.String("state", string(e.State)))
		}
		if e.Verdict != "" {
			fields = append(fields, zap.String("verdict", string(e.Verdict)))
		}
		if e.Points != 0 {
			fields = append(fields, zap.Int("points", e.Points))
		}
		s.log.Info("session event", fields...)
	}
}
