package engine

import (
	"errors"
	"slices"
	"time"
)

var ErrUnknownTeam = errors.New("unknown team")
var ErrNoActiveTeam = errors.New("no active team")
var ErrInvalidStatus = errors.New("invalid status")
var ErrInvalidVerdict = errors.New("invalid verdict")
var ErrIllegalTransition = errors.New("illegal ask-ai transition")
var ErrStaleTurn = errors.New("stale turn")
var ErrAlreadyJudged = errors.New("turn already judged")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusPreview  Status = "PREVIEW"
	StatusLive     Status = "LIVE"
	StatusLocked   Status = "LOCKED"
	StatusRevealed Status = "REVEALED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPreview, StatusLive, StatusLocked, StatusRevealed:
		return true
	}
	return false
}

type AskAIState string

const (
	AskAIIdle       AskAIState = "IDLE"
	AskAIListening  AskAIState = "LISTENING"
	AskAIProcessing AskAIState = "PROCESSING"
	AskAIAnswering  AskAIState = "ANSWERING"
	AskAICompleted  AskAIState = "COMPLETED"
)

func (s AskAIState) Valid() bool {
	switch s {
	case AskAIIdle, AskAIListening, AskAIProcessing, AskAIAnswering, AskAICompleted:
		return true
	}
	return false
}

type Verdict string

const (
	VerdictAICorrect Verdict = "AI_CORRECT"
	VerdictAIWrong   Verdict = "AI_WRONG"
)

func (v Verdict) Valid() bool {
	return v == VerdictAICorrect || v == VerdictAIWrong
}

// JudgePolicy decides what a judge call does on a turn that is already COMPLETED.
type JudgePolicy string

const (
	// JudgeReapply overwrites the verdict and applies scoring again.
	JudgeReapply JudgePolicy = "reapply"
	// JudgeIdempotent ignores judge calls once the turn is COMPLETED.
	JudgeIdempotent JudgePolicy = "idempotent"
)

func (p JudgePolicy) Valid() bool {
	return p == JudgeReapply || p == JudgeIdempotent
}

type Team struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type GroundingLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type Question struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	RoundType string `json:"roundType"`
	Points    int    `json:"points"`
	TimeLimit int    `json:"timeLimit"`
}

// Session is the single shared record. Times are unix milliseconds.
type Session struct {
	ID                   string          `json:"id"`
	CurrentQuestion      *Question       `json:"currentQuestion"`
	Status               Status          `json:"status"`
	StartTime            int64           `json:"startTime,omitempty"`
	TurnStartTime        int64           `json:"turnStartTime"`
	ActiveTeamID         string          `json:"activeTeamId,omitempty"`
	Teams                []Team          `json:"teams"`
	AskAIState           AskAIState      `json:"askAiState"`
	CurrentAskAIQuestion string          `json:"currentAskAiQuestion,omitempty"`
	CurrentAskAIResponse string          `json:"currentAskAiResponse,omitempty"`
	AskAIVerdict         Verdict         `json:"askAiVerdict,omitempty"`
	GroundingURLs        []GroundingLink `json:"groundingUrls"`

	// Turn increments on every team selection and every entry into LISTENING.
	Turn int64 `json:"turn"`
	// Version is the store version the record was loaded at. Not authoritative
	// inside the stored value.
	Version int64 `json:"version"`
}

type CommandType string

const (
	CmdSetStatus     CommandType = "SetStatus"
	CmdReset         CommandType = "Reset"
	CmdPurge         CommandType = "Purge"
	CmdSelectTeam    CommandType = "SelectTeam"
	CmdSetAskAIState CommandType = "SetAskAIState"
	CmdJudge         CommandType = "Judge"
)

// Payload carries optional Ask-AI fields. Nil fields and empty strings are
// left untouched; a non-nil empty Links replaces the citations.
type Payload struct {
	Question *string
	Response *string
	Links    []GroundingLink
}

type Command struct {
	Type    CommandType
	Status  Status
	TeamID  string
	State   AskAIState
	Payload *Payload
	Verdict Verdict
	Policy  JudgePolicy
	// ExpectTurn, when non-zero, must equal the session's current turn.
	ExpectTurn int64
	At         time.Time
}

type EventType string

const (
	EvtStatusChanged     EventType = "StatusChanged"
	EvtRoundStarted      EventType = "RoundStarted"
	EvtSessionReset      EventType = "SessionReset"
	EvtSessionPurged     EventType = "SessionPurged"
	EvtTeamSelected      EventType = "TeamSelected"
	EvtTurnOpened        EventType = "TurnOpened"
	EvtAskAIStateChanged EventType = "AskAIStateChanged"
	EvtVerdictRecorded   EventType = "VerdictRecorded"
	EvtTeamScored        EventType = "TeamScored"
)

type Event struct {
	Type    EventType
	Status  Status
	TeamID  string
	State   AskAIState
	Verdict Verdict
	Points  int
}

// Apply validates cmd against s and returns the resulting session. On error
// the input session is returned unchanged.
func Apply(s Session, cmd Command) ([]Event, Session, error) {
	next := s.Clone()
	now := cmd.At.UnixMilli()

	switch cmd.Type {
	case CmdSetStatus:
		if !cmd.Status.Valid() {
			return nil, s, ErrInvalidStatus
		}
		next.Status = cmd.Status
		events := []Event{{Type: EvtStatusChanged, Status: cmd.Status}}

		// Re-setting LIVE re-stamps.
		if cmd.Status == StatusLive {
			next.StartTime = now
			next.TurnStartTime = now
			events = append(events, Event{Type: EvtRoundStarted})
		}
		return events, next, nil

	case CmdReset:
		return []Event{{Type: EvtSessionReset}}, Reset(s), nil

	case CmdPurge:
		return []Event{{Type: EvtSessionPurged}}, Purge(s), nil

	case CmdSelectTeam:
		if _, ok := s.Team(cmd.TeamID); !ok {
			return nil, s, ErrUnknownTeam
		}
		next.ActiveTeamID = cmd.TeamID
		next.AskAIState = AskAIIdle
		clearTurn(&next)
		next.Turn++
		next.TurnStartTime = now
		return []Event{
			{Type: EvtTeamSelected, TeamID: cmd.TeamID},
			{Type: EvtAskAIStateChanged, State: AskAIIdle},
		}, next, nil

	case CmdSetAskAIState:
		if cmd.ExpectTurn != 0 && cmd.ExpectTurn != s.Turn {
			return nil, s, ErrStaleTurn
		}

		// IDLE is reachable only through team selection or reset, COMPLETED
		// only through judging. The rest follow LISTENING -> PROCESSING ->
		// ANSWERING.
		switch cmd.State {
		case AskAIListening:
			if s.ActiveTeamID == "" {
				return nil, s, ErrNoActiveTeam
			}
		case AskAIProcessing:
			if s.AskAIState != AskAIListening {
				return nil, s, ErrIllegalTransition
			}
		case AskAIAnswering:
			if s.AskAIState != AskAIProcessing {
				return nil, s, ErrIllegalTransition
			}
		default:
			return nil, s, ErrIllegalTransition
		}

		events := []Event{}
		next.AskAIState = cmd.State
		next.AskAIVerdict = ""
		if cmd.State == AskAIListening {
			clearTurn(&next)
			next.Turn++
			events = append(events, Event{Type: EvtTurnOpened, TeamID: next.ActiveTeamID})
		}
		mergePayload(&next, cmd.Payload)

		events = append(events, Event{Type: EvtAskAIStateChanged, State: cmd.State})
		return events, next, nil

	case CmdJudge:
		if !cmd.Verdict.Valid() {
			return nil, s, ErrInvalidVerdict
		}
		if cmd.Policy == JudgeIdempotent && s.AskAIState == AskAICompleted {
			return nil, s, ErrAlreadyJudged
		}

		next.AskAIState = AskAICompleted
		next.AskAIVerdict = cmd.Verdict
		events := []Event{{Type: EvtVerdictRecorded, Verdict: cmd.Verdict, TeamID: s.ActiveTeamID}}

		// Only a wrong AI answer scores, and only for the active team.
		if cmd.Verdict == VerdictAIWrong && s.ActiveTeamID != "" {
			if i := next.teamIndex(s.ActiveTeamID); i >= 0 {
				points := next.Points()
				next.Teams[i].Score += points
				events = append(events, Event{Type: EvtTeamScored, TeamID: s.ActiveTeamID, Points: points})
			}
		}
		return events, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// Reset rebuilds the default session keeping team identities with zeroed
// scores. The turn counter keeps growing so in-flight answers from before the
// reset stay stale.
func Reset(s Session) Session {
	reset := NewDefaultSession()
	if len(s.Teams) > 0 {
		reset.Teams = make([]Team, len(s.Teams))
		for i, t := range s.Teams {
			reset.Teams[i] = Team{ID: t.ID, Name: t.Name}
		}
	}
	reset.Turn = s.Turn + 1
	reset.Version = s.Version
	return reset
}

// Purge is a fresh default session, canonical roster included. Only the turn
// counter and the store version carry over.
func Purge(s Session) Session {
	fresh := NewDefaultSession()
	fresh.Turn = s.Turn + 1
	fresh.Version = s.Version
	return fresh
}

func (s Session) Clone() Session {
	c := s
	c.Teams = slices.Clone(s.Teams)
	c.GroundingURLs = slices.Clone(s.GroundingURLs)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		c.CurrentQuestion = &q
	}
	return c
}

func (s Session) Team(id string) (Team, bool) {
	if i := s.teamIndex(id); i >= 0 {
		return s.Teams[i], true
	}
	return Team{}, false
}

// ActiveTeam returns the team holding the microphone, if any.
func (s Session) ActiveTeam() (Team, bool) {
	if s.ActiveTeamID == "" {
		return Team{}, false
	}
	return s.Team(s.ActiveTeamID)
}

// Points is the per-round value awarded for a wrong AI answer.
func (s Session) Points() int {
	if s.CurrentQuestion != nil && s.CurrentQuestion.Points > 0 {
		return s.CurrentQuestion.Points
	}
	return PointsPerRound
}

func (s Session) teamIndex(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.Teams, func(t Team) bool { return t.ID == id })
}

func clearTurn(s *Session) {
	s.CurrentAskAIQuestion = ""
	s.CurrentAskAIResponse = ""
	s.AskAIVerdict = ""
	s.GroundingURLs = []GroundingLink{}
}

func mergePayload(s *Session, p *Payload) {
	if p == nil {
		return
	}
	if p.Question != nil && *p.Question != "" {
		s.CurrentAskAIQuestion = *p.Question
	}
	if p.Response != nil && *p.Response != "" {
		s.CurrentAskAIResponse = *p.Response
	}
	if p.Links != nil {
		s.GroundingURLs = slices.Clone(p.Links)
	}
}
