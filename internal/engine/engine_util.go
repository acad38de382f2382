package engine

import "slices"

func NewDefaultSession() Session {
	return Session{
		ID:              SessionID,
		CurrentQuestion: DefaultQuestion(),
		Status:          StatusPreview,
		Teams:           DefaultTeams(),
		AskAIState:      AskAIIdle,
		GroundingURLs:   []GroundingLink{},
	}
}

func DefaultQuestion() *Question {
	q := defaultQuestion
	return &q
}

func DefaultTeams() []Team {
	return slices.Clone(defaultRoster)
}

// Normalize reconciles a decoded record against the canonical roster. Teams
// are matched by name first, then id; only their score survives. Anything
// else that drifted from the built-in round is reset.
func Normalize(raw Session) Session {
	byName := make(map[string]Team, len(raw.Teams))
	for _, t := range raw.Teams {
		byName[t.Name] = t
	}

	teams := DefaultTeams()
	for i, def := range teams {
		existing, ok := byName[def.Name]
		if !ok {
			j := slices.IndexFunc(raw.Teams, func(t Team) bool { return t.ID == def.ID })
			if j >= 0 {
				existing, ok = raw.Teams[j], true
			}
		}
		if ok && existing.Score > 0 {
			teams[i].Score = existing.Score
		}
	}

	s := raw.Clone()
	s.ID = SessionID
	s.CurrentQuestion = DefaultQuestion()
	s.Teams = teams

	if !s.Status.Valid() {
		s.Status = StatusPreview
	}
	if !s.AskAIState.Valid() {
		s.AskAIState = AskAIIdle
	}
	// verdict is set iff COMPLETED
	if s.AskAIState == AskAICompleted && !s.AskAIVerdict.Valid() {
		s.AskAIState = AskAIAnswering
	}
	if s.AskAIState != AskAICompleted {
		s.AskAIVerdict = ""
	}
	if s.GroundingURLs == nil {
		s.GroundingURLs = []GroundingLink{}
	}
	if _, ok := s.Team(s.ActiveTeamID); !ok {
		s.ActiveTeamID = ""
	}
	return s
}
