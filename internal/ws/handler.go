package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
	"github.com/DoyleJ11/askai-quiz-backend/internal/feed"
	"github.com/DoyleJ11/askai-quiz-backend/internal/session"
	"github.com/DoyleJ11/askai-quiz-backend/pkg/types"
)

const (
	outboxSize   = 8
	writeTimeout = 3 * time.Second
)

type Poller interface {
	Kick()
}

// Commander applies session commands.
type Commander interface {
	Do(ctx context.Context, cmd engine.Command) (session.Outcome, error)
}

// Handler streams StateSnapshot messages for every session change and accepts
// Refresh plus a few admin commands from the client.
func Handler(f *feed.Feed, poller Poller, sessions Commander, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			// In dev ONLY, you can loosen origin checks:
			// OriginPatterns: []string{"http://localhost:*", "http://127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan feed.Snapshot, outboxSize)
		clientID := uuid.NewString()
		clog := log.With(zap.String("client", clientID))

		if !f.Send(feed.Join{ClientID: clientID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		}
		defer f.Send(feed.Leave{ClientID: clientID})
		clog.Debug("subscriber joined")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer writeCancel()
			for {
				select {
				case snap, ok := <-out:
					if !ok {
						// Dropped as too slow, or the feed stopped.
						conn.Close(websocket.StatusTryAgainLater, "fell behind")
						return
					}
					s := snap.Session
					if err := write(writeCtx, conn, types.ServerMessage{Type: types.MsgStateSnapshot, Version: snap.Seq, State: &s}); err != nil {
						return
					}
				case <-writeCtx.Done():
					return
				}
			}
		}()

		limiter := rate.NewLimiter(rate.Every(250*time.Millisecond), 4)

		// Reader loop
		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				return
			}

			if !limiter.Allow() {
				_ = writeError(writeCtx, conn, "rate limited")
				continue
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = writeError(writeCtx, conn, "bad json")
				continue
			}

			if cm.Type == types.MsgRefresh {
				if poller != nil {
					poller.Kick()
				}
				continue
			}

			cmd, ok := toEngineCommand(cm)
			if !ok {
				_ = writeError(writeCtx, conn, "unknown type")
				continue
			}
			outcome, err := sessions.Do(writeCtx, cmd)
			switch {
			case err != nil:
				clog.Warn("command failed", zap.String("command", string(cmd.Type)), zap.Error(err))
				_ = writeError(writeCtx, conn, err.Error())
			case !outcome.Applied():
				_ = writeError(writeCtx, conn, outcome.Ignored.Error())
			}
			if poller != nil {
				poller.Kick()
			}
		}
	}
}

func toEngineCommand(m types.ClientMessage) (engine.Command, bool) {
	switch m.Type {
	case types.MsgSelectTeam:
		return engine.Command{Type: engine.CmdSelectTeam, TeamID: m.TeamID}, true
	case types.MsgOpenMic:
		return engine.Command{Type: engine.CmdSetAskAIState, State: engine.AskAIListening}, true
	case types.MsgJudge:
		v := engine.Verdict(m.Verdict)
		if !v.Valid() {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdJudge, Verdict: v}, true
	default:
		return engine.Command{}, false
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) error {
	return write(ctx, conn, types.ServerMessage{Type: types.MsgError, Error: msg})
}
