package cli

import (
	"fmt"
	"io"

	"github.com/DoyleJ11/askai-quiz-backend/internal/engine"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Session(s engine.Session) {
	active := "none"
	if t, ok := s.ActiveTeam(); ok {
		active = t.Name
	}
	fmt.Fprintf(f.w, "📺 Status: %s   Ask-AI: %s   Turn: %d   Version: %d\n", s.Status, s.AskAIState, s.Turn, s.Version)
	fmt.Fprintf(f.w, "🎤 Active team: %s\n", active)
	if s.CurrentAskAIQuestion != "" {
		fmt.Fprintf(f.w, "❓ %s\n", s.CurrentAskAIQuestion)
	}
	if s.CurrentAskAIResponse != "" {
		fmt.Fprintf(f.w, "🤖 %s\n", s.CurrentAskAIResponse)
	}
	for _, l := range s.GroundingURLs {
		fmt.Fprintf(f.w, "   🔗 %s (%s)\n", l.Title, l.URI)
	}
	if s.AskAIVerdict != "" {
		fmt.Fprintf(f.w, "⚖️  Verdict: %s\n", s.AskAIVerdict)
	}
	fmt.Fprintf(f.w, "🏆 Scores:\n")
	for _, t := range s.Teams {
		marker := " "
		if t.ID == s.ActiveTeamID {
			marker = "*"
		}
		fmt.Fprintf(f.w, "  %s %-4s %-8s %4d\n", marker, t.ID, t.Name, t.Score)
	}
}

func (f *Formatter) Divider() {
	fmt.Fprintln(f.w, "────────────────────────────────")
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}
