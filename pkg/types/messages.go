package types

import "github.com/DoyleJ11/askai-quiz-backend/internal/engine"

const (
	MsgStateSnapshot = "StateSnapshot"
	MsgError         = "Error"
	MsgRefresh       = "Refresh"
	MsgSelectTeam    = "SelectTeam"
	MsgOpenMic       = "OpenMic"
	MsgJudge         = "Judge"
)

// Server -> Client
type ServerMessage struct {
	Type    string          `json:"type"` // "StateSnapshot" | "Error"
	Version int64           `json:"version,omitempty"`
	State   *engine.Session `json:"state,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client -> Server
type ClientMessage struct {
	Type    string `json:"type"`
	TeamID  string `json:"teamId,omitempty"`
	Verdict string `json:"verdict,omitempty"`
}
